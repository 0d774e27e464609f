package core

import (
	"math/rand"
	"time"
)

// Deck 未发出的牌堆，只减不增
type Deck struct {
	tiles []Tile
}

// GenerateTiles 生成未洗的 108 张牌 (万条筒 1-9 各 4 张)
//
// ID 按生成顺序从 1 开始编号。
func GenerateTiles() []Tile {
	tiles := make([]Tile, 0, TotalTiles)
	id := uint16(1)

	for _, suit := range Suits {
		for rank := int8(MinRank); rank <= MaxRank; rank++ {
			for count := 0; count < CopiesPerTile; count++ {
				tiles = append(tiles, Tile{
					Suit: suit,
					Rank: rank,
					ID:   id,
				})
				id++
			}
		}
	}

	return tiles
}

// NewDeck 创建并洗好一副牌，rng 为空时使用当前时间作为种子
func NewDeck(rng *rand.Rand) *Deck {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}

	tiles := GenerateTiles()
	rng.Shuffle(len(tiles), func(i, j int) {
		tiles[i], tiles[j] = tiles[j], tiles[i]
	})

	return &Deck{tiles: tiles}
}

// NewOrderedDeck 按给定顺序创建牌堆（最后一张最先发出）
func NewOrderedDeck(tiles []Tile) *Deck {
	return &Deck{tiles: CloneTiles(tiles)}
}

// Draw 从牌堆末尾摸一张牌，牌堆为空返回 false
func (d *Deck) Draw() (Tile, bool) {
	if len(d.tiles) == 0 {
		return Tile{}, false
	}

	last := len(d.tiles) - 1
	tile := d.tiles[last]
	d.tiles = d.tiles[:last]
	return tile, true
}

// Remaining 剩余牌数
func (d *Deck) Remaining() int {
	return len(d.tiles)
}

// IsEmpty 牌堆是否已空
func (d *Deck) IsEmpty() bool {
	return len(d.tiles) == 0
}

// Tiles 返回剩余牌的副本
func (d *Deck) Tiles() []Tile {
	return CloneTiles(d.tiles)
}
