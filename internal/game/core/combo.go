package core

// 组合校验失败原因
const (
	ReasonNeedThree      = "need exactly 3 cards"
	ReasonSameSuit       = "all cards must be of the same suit"
	ReasonConsecutive    = "cards must be consecutive values"
	ReasonNotCombination = "not a valid sequence or triplet"
)

// ComboResult 组合校验结果
type ComboResult struct {
	Valid  bool      `json:"valid"`
	Type   ComboType `json:"type,omitempty"`
	Reason string    `json:"reason,omitempty"`
}

// Score 有效组合的分值，无效为 0
func (r ComboResult) Score() int {
	if !r.Valid {
		return 0
	}
	return r.Type.Score()
}

// Classify 判断三张牌能否组成顺子或刻子
//
// 点数全部相同即为刻子，不要求同花色，并且优先于其他规则。
func Classify(tiles []Tile) ComboResult {
	if len(tiles) != 3 {
		return ComboResult{Reason: ReasonNeedThree}
	}

	if isTriplet(tiles) {
		return ComboResult{Valid: true, Type: ComboTriplet}
	}

	if isSequence(tiles) {
		return ComboResult{Valid: true, Type: ComboSequence}
	}

	if !sameSuit(tiles) {
		return ComboResult{Reason: ReasonSameSuit}
	}

	lo, hi := rankSpan(tiles)
	if hi-lo > 4 {
		return ComboResult{Reason: ReasonConsecutive}
	}

	return ComboResult{Reason: ReasonNotCombination}
}

// isTriplet 三张点数相同
func isTriplet(tiles []Tile) bool {
	return tiles[0].Rank == tiles[1].Rank && tiles[1].Rank == tiles[2].Rank
}

// isSequence 同花色且点数连续
func isSequence(tiles []Tile) bool {
	if !sameSuit(tiles) {
		return false
	}

	sorted := CloneTiles(tiles)
	SortTiles(sorted)

	return sorted[1].Rank == sorted[0].Rank+1 && sorted[2].Rank == sorted[1].Rank+1
}

func sameSuit(tiles []Tile) bool {
	for _, t := range tiles[1:] {
		if t.Suit != tiles[0].Suit {
			return false
		}
	}
	return true
}

func rankSpan(tiles []Tile) (lo, hi int8) {
	lo, hi = tiles[0].Rank, tiles[0].Rank
	for _, t := range tiles[1:] {
		if t.Rank < lo {
			lo = t.Rank
		}
		if t.Rank > hi {
			hi = t.Rank
		}
	}
	return lo, hi
}

// FindAll 查找手牌中的全部组合
//
// 先刻子后顺子；同类型内按花色、点数递增。刻子取该点数最先摸到的三张，
// 顺子每个点数取最先摸到的一张。没有组合时返回空切片。
func FindAll(tiles []Tile) []Combination {
	combos := make([]Combination, 0)
	combos = append(combos, findTriplets(tiles)...)
	combos = append(combos, findSequences(tiles)...)
	return combos
}

// findTriplets 按花色查找刻子
func findTriplets(tiles []Tile) []Combination {
	var combos []Combination

	for _, suit := range Suits {
		byRank := groupByRank(FilterSuit(tiles, suit))
		for rank := MinRank; rank <= MaxRank; rank++ {
			group := byRank[rank]
			if len(group) < 3 {
				continue
			}
			combos = append(combos, Combination{
				Type:  ComboTriplet,
				Tiles: [3]Tile{group[0], group[1], group[2]},
			})
		}
	}

	return combos
}

// findSequences 按花色查找顺子，起点 1-7
func findSequences(tiles []Tile) []Combination {
	var combos []Combination

	for _, suit := range Suits {
		ofSuit := FilterSuit(tiles, suit)
		if len(ofSuit) < 3 {
			continue
		}

		byRank := groupByRank(ofSuit)
		for start := MinRank; start <= MaxRank-2; start++ {
			first, second, third := byRank[start], byRank[start+1], byRank[start+2]
			if len(first) == 0 || len(second) == 0 || len(third) == 0 {
				continue
			}
			combos = append(combos, Combination{
				Type:  ComboSequence,
				Tiles: [3]Tile{first[0], second[0], third[0]},
			})
		}
	}

	return combos
}

// groupByRank 按点数分组，下标即点数（保持原有顺序）
func groupByRank(tiles []Tile) [MaxRank + 1][]Tile {
	var groups [MaxRank + 1][]Tile
	for _, t := range tiles {
		if t.Rank < MinRank || t.Rank > MaxRank {
			continue
		}
		groups[t.Rank] = append(groups[t.Rank], t)
	}
	return groups
}
