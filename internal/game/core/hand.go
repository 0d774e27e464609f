package core

// Hand 一方的手牌
//
// 逻辑上无序，Tiles() 按花色点数返回用于展示。只能通过发牌追加、
// 通过组合消除移除。
type Hand struct {
	tiles []Tile
}

// NewHand 创建空手牌
func NewHand() *Hand {
	return &Hand{tiles: make([]Tile, 0, 16)}
}

// Add 添加牌到手牌
func (h *Hand) Add(tile Tile) {
	h.tiles = append(h.tiles, tile)
}

// Contains 检查是否包含指定编号的牌
func (h *Hand) Contains(id uint16) bool {
	return ContainsID(h.tiles, id)
}

// Get 根据编号取牌
func (h *Hand) Get(id uint16) (Tile, bool) {
	idx := IndexOfID(h.tiles, id)
	if idx < 0 {
		return Tile{}, false
	}
	return h.tiles[idx], true
}

// Pick 按编号取出多张牌（不移除），任意一张不存在则返回错误
func (h *Hand) Pick(ids []uint16) ([]Tile, error) {
	picked := make([]Tile, 0, len(ids))
	for _, id := range ids {
		t, ok := h.Get(id)
		if !ok {
			return nil, ErrTileNotInHand.WithContext("tile", id)
		}
		picked = append(picked, t)
	}
	return picked, nil
}

// RemoveIDs 移除指定编号的牌
//
// 先整体校验，任意一张不在手牌中时不做任何修改。
func (h *Hand) RemoveIDs(ids []uint16) ([]Tile, error) {
	removed, err := h.Pick(ids)
	if err != nil {
		return nil, err
	}

	kept := h.tiles[:0]
	for _, t := range h.tiles {
		drop := false
		for _, id := range ids {
			if t.ID == id {
				drop = true
				break
			}
		}
		if !drop {
			kept = append(kept, t)
		}
	}
	h.tiles = kept
	return removed, nil
}

// Size 获取手牌数量
func (h *Hand) Size() int {
	return len(h.tiles)
}

// IsEmpty 判断手牌是否为空
func (h *Hand) IsEmpty() bool {
	return len(h.tiles) == 0
}

// Raw 按摸牌顺序返回手牌副本（组合查找使用这个顺序）
func (h *Hand) Raw() []Tile {
	return CloneTiles(h.tiles)
}

// Tiles 按花色点数排序后返回手牌副本
func (h *Hand) Tiles() []Tile {
	tiles := CloneTiles(h.tiles)
	SortTiles(tiles)
	return tiles
}
