package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tile(suit Suit, rank int8, id uint16) Tile {
	return Tile{Suit: suit, Rank: rank, ID: id}
}

func TestClassify(t *testing.T) {
	cases := []struct {
		name   string
		tiles  []Tile
		valid  bool
		typ    ComboType
		reason string
	}{
		{
			name:  "同花色顺子",
			tiles: []Tile{tile(SuitWan, 3, 1), tile(SuitWan, 4, 2), tile(SuitWan, 5, 3)},
			valid: true,
			typ:   ComboSequence,
		},
		{
			name:  "乱序顺子",
			tiles: []Tile{tile(SuitTong, 9, 1), tile(SuitTong, 7, 2), tile(SuitTong, 8, 3)},
			valid: true,
			typ:   ComboSequence,
		},
		{
			name:  "不同花色同点数算刻子",
			tiles: []Tile{tile(SuitWan, 5, 1), tile(SuitTiao, 5, 2), tile(SuitTong, 5, 3)},
			valid: true,
			typ:   ComboTriplet,
		},
		{
			name:  "完全相同的三张",
			tiles: []Tile{tile(SuitWan, 3, 1), tile(SuitWan, 3, 2), tile(SuitWan, 3, 3)},
			valid: true,
			typ:   ComboTriplet,
		},
		{
			name:   "花色不同",
			tiles:  []Tile{tile(SuitWan, 1, 1), tile(SuitWan, 2, 2), tile(SuitTiao, 3, 3)},
			reason: ReasonSameSuit,
		},
		{
			name:   "同花色跨度超过4",
			tiles:  []Tile{tile(SuitTiao, 1, 1), tile(SuitTiao, 2, 2), tile(SuitTiao, 9, 3)},
			reason: ReasonConsecutive,
		},
		{
			name:   "同花色跨度不超过4",
			tiles:  []Tile{tile(SuitTiao, 1, 1), tile(SuitTiao, 2, 2), tile(SuitTiao, 4, 3)},
			reason: ReasonNotCombination,
		},
		{
			name:   "对子加一张",
			tiles:  []Tile{tile(SuitTiao, 2, 1), tile(SuitTiao, 2, 2), tile(SuitTiao, 3, 3)},
			reason: ReasonNotCombination,
		},
		{
			name:   "张数不对",
			tiles:  []Tile{tile(SuitWan, 1, 1), tile(SuitWan, 2, 2)},
			reason: ReasonNeedThree,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			result := Classify(tc.tiles)
			assert.Equal(t, tc.valid, result.Valid)
			if tc.valid {
				assert.Equal(t, tc.typ, result.Type)
				assert.Equal(t, tc.typ.Score(), result.Score())
			} else {
				assert.Equal(t, tc.reason, result.Reason)
				assert.Zero(t, result.Score())
			}
		})
	}
}

func TestClassifyIsDeterministic(t *testing.T) {
	tiles := []Tile{tile(SuitWan, 1, 1), tile(SuitWan, 2, 2), tile(SuitTiao, 3, 3)}
	first := Classify(tiles)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, Classify(tiles))
	}
}

func TestFindAllOrdering(t *testing.T) {
	hand := []Tile{
		tile(SuitTiao, 4, 10),
		tile(SuitWan, 2, 1),
		tile(SuitTiao, 5, 11),
		tile(SuitWan, 1, 2),
		tile(SuitTong, 7, 20),
		tile(SuitWan, 3, 3),
		tile(SuitTong, 7, 21),
		tile(SuitTiao, 6, 12),
		tile(SuitTong, 7, 22),
		tile(SuitWan, 2, 4),
		tile(SuitTong, 7, 23),
	}

	combos := FindAll(hand)
	require.Len(t, combos, 3)

	// 刻子在前，取最先摸到的三张
	assert.Equal(t, ComboTriplet, combos[0].Type)
	assert.Equal(t, []uint16{20, 21, 22}, combos[0].IDs())

	// 顺子按花色递增，每个点数取最先摸到的一张
	assert.Equal(t, ComboSequence, combos[1].Type)
	assert.Equal(t, []uint16{2, 1, 3}, combos[1].IDs())
	assert.Equal(t, ComboSequence, combos[2].Type)
	assert.Equal(t, []uint16{10, 11, 12}, combos[2].IDs())
}

func TestFindAllOverlappingSequences(t *testing.T) {
	hand := []Tile{
		tile(SuitTong, 1, 1),
		tile(SuitTong, 2, 2),
		tile(SuitTong, 3, 3),
		tile(SuitTong, 4, 4),
	}

	combos := FindAll(hand)
	require.Len(t, combos, 2)
	assert.Equal(t, []uint16{1, 2, 3}, combos[0].IDs())
	assert.Equal(t, []uint16{2, 3, 4}, combos[1].IDs())
}

func TestFindAllMixedSuitEqualRankIsNotScanned(t *testing.T) {
	// 扫描按花色分组，跨花色同点数不会作为推荐组合出现
	hand := []Tile{tile(SuitWan, 5, 1), tile(SuitTiao, 5, 2), tile(SuitTong, 5, 3)}
	assert.Empty(t, FindAll(hand))
	assert.True(t, Classify(hand).Valid)
}

func TestFindAllEmpty(t *testing.T) {
	combos := FindAll(nil)
	assert.NotNil(t, combos)
	assert.Empty(t, combos)

	combos = FindAll([]Tile{tile(SuitWan, 1, 1), tile(SuitWan, 5, 2), tile(SuitTiao, 9, 3)})
	assert.Empty(t, combos)
}

func TestFindAllResultsAreValid(t *testing.T) {
	deck := NewDeck(nil)
	hand := make([]Tile, 0, 20)
	for i := 0; i < 20; i++ {
		tl, ok := deck.Draw()
		require.True(t, ok)
		hand = append(hand, tl)
	}

	for _, combo := range FindAll(hand) {
		result := Classify(combo.Tiles[:])
		require.True(t, result.Valid, "组合 %v 校验失败", combo.Tiles)
		assert.Equal(t, combo.Type, result.Type)
	}
}
