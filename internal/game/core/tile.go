package core

import "sort"

// SortTiles 对牌进行排序（花色 -> 点数 -> 编号）
func SortTiles(tiles []Tile) {
	sort.SliceStable(tiles, func(i, j int) bool {
		if tiles[i].Suit != tiles[j].Suit {
			return tiles[i].Suit < tiles[j].Suit
		}
		if tiles[i].Rank != tiles[j].Rank {
			return tiles[i].Rank < tiles[j].Rank
		}
		return tiles[i].ID < tiles[j].ID
	})
}

// CloneTiles 克隆牌组
func CloneTiles(tiles []Tile) []Tile {
	result := make([]Tile, len(tiles))
	copy(result, tiles)
	return result
}

// IndexOfID 查找指定编号的牌，不存在返回 -1
func IndexOfID(tiles []Tile, id uint16) int {
	for i, t := range tiles {
		if t.ID == id {
			return i
		}
	}
	return -1
}

// ContainsID 检查牌组是否包含指定编号的牌
func ContainsID(tiles []Tile, id uint16) bool {
	return IndexOfID(tiles, id) >= 0
}

// TileIDs 返回牌组的编号列表
func TileIDs(tiles []Tile) []uint16 {
	ids := make([]uint16, len(tiles))
	for i, t := range tiles {
		ids[i] = t.ID
	}
	return ids
}

// FilterSuit 取出指定花色的牌（保持原有顺序）
func FilterSuit(tiles []Tile, suit Suit) []Tile {
	result := make([]Tile, 0, len(tiles))
	for _, t := range tiles {
		if t.Suit == suit {
			result = append(result, t)
		}
	}
	return result
}
