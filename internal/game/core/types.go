package core

import "fmt"

// Suit 牌的花色
type Suit int8

const (
	SuitWan  Suit = iota // 万 (A)
	SuitTiao             // 条 (B)
	SuitTong             // 筒 (C)
)

// Suits 全部花色，按比较顺序排列
var Suits = []Suit{SuitWan, SuitTiao, SuitTong}

// String 返回花色的字符串表示
func (s Suit) String() string {
	switch s {
	case SuitWan:
		return "Wan"
	case SuitTiao:
		return "Tiao"
	case SuitTong:
		return "Tong"
	default:
		return "Unknown"
	}
}

// Short 返回花色的单字母缩写
func (s Suit) Short() string {
	switch s {
	case SuitWan:
		return "A"
	case SuitTiao:
		return "B"
	case SuitTong:
		return "C"
	default:
		return "?"
	}
}

// Valid 判断花色是否合法
func (s Suit) Valid() bool {
	return s >= SuitWan && s <= SuitTong
}

// 牌值与牌堆常量
const (
	MinRank       = 1
	MaxRank       = 9
	CopiesPerTile = 4
	// TotalTiles 3 花色 x 9 点 x 4 张
	TotalTiles = 3 * MaxRank * CopiesPerTile
)

// Tile 游戏牌（值对象，不可变）
type Tile struct {
	Suit Suit   `json:"suit"`
	Rank int8   `json:"rank"`
	ID   uint16 `json:"id"` // 实例编号，区分同花色同点数的四张牌
}

// Same 判断两张牌花色点数是否相同（忽略 ID）
func (t Tile) Same(other Tile) bool {
	return t.Suit == other.Suit && t.Rank == other.Rank
}

// String 返回牌的字符串表示，如 3A
func (t Tile) String() string {
	return fmt.Sprintf("%d%s", t.Rank, t.Suit.Short())
}

// Side 参与方
type Side int8

const (
	SidePlayer Side = iota
	SideComputer
)

// String 返回参与方的字符串表示
func (s Side) String() string {
	switch s {
	case SidePlayer:
		return "player"
	case SideComputer:
		return "computer"
	default:
		return "unknown"
	}
}

// MarshalText 序列化为 player / computer
func (s Side) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText 从 player / computer 解析
func (s *Side) UnmarshalText(text []byte) error {
	switch string(text) {
	case "player":
		*s = SidePlayer
	case "computer":
		*s = SideComputer
	default:
		return fmt.Errorf("unknown side: %q", text)
	}
	return nil
}

// Other 返回对手
func (s Side) Other() Side {
	if s == SidePlayer {
		return SideComputer
	}
	return SidePlayer
}

// ComboType 组合类型
type ComboType int8

const (
	ComboSequence ComboType = iota + 1 // 顺子
	ComboTriplet                       // 刻子
)

// 组合分值
const (
	SequenceScore = 200
	TripletScore  = 300
)

// String 返回组合类型的字符串表示
func (c ComboType) String() string {
	switch c {
	case ComboSequence:
		return "Sequence"
	case ComboTriplet:
		return "Triplet"
	default:
		return "Invalid"
	}
}

// MarshalText 序列化为 Sequence / Triplet
func (c ComboType) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

// UnmarshalText 从 Sequence / Triplet 解析
func (c *ComboType) UnmarshalText(text []byte) error {
	switch string(text) {
	case "Sequence":
		*c = ComboSequence
	case "Triplet":
		*c = ComboTriplet
	case "Invalid", "":
		*c = 0
	default:
		return fmt.Errorf("unknown combo type: %q", text)
	}
	return nil
}

// Score 组合对应的分值
func (c ComboType) Score() int {
	switch c {
	case ComboSequence:
		return SequenceScore
	case ComboTriplet:
		return TripletScore
	default:
		return 0
	}
}

// Combination 同一手牌中的三张牌组合
type Combination struct {
	Type  ComboType `json:"type"`
	Tiles [3]Tile   `json:"tiles"`
}

// IDs 返回组合中三张牌的实例编号
func (c Combination) IDs() []uint16 {
	return []uint16{c.Tiles[0].ID, c.Tiles[1].ID, c.Tiles[2].ID}
}

// Score 组合分值
func (c Combination) Score() int {
	return c.Type.Score()
}
