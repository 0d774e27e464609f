package core

// 结算奖励（金币）
const (
	RewardHandEmptied = 300 // 清空手牌直接获胜
	RewardHigherScore = 200 // 牌堆耗尽时分数较高
	RewardTie         = 100 // 牌堆耗尽时平分
)

// EndReason 对局结束原因
type EndReason string

const (
	EndHandEmptied   EndReason = "hand_emptied"
	EndDeckExhausted EndReason = "deck_exhausted"
)

// ScoreBoard 双方得分
type ScoreBoard struct {
	Player   int `json:"player"`
	Computer int `json:"computer"`
}

// Add 给指定一方加分，返回新的分数
func (b *ScoreBoard) Add(side Side, points int) int {
	if points < 0 {
		points = 0
	}
	if side == SidePlayer {
		b.Player += points
		return b.Player
	}
	b.Computer += points
	return b.Computer
}

// Of 获取一方分数
func (b ScoreBoard) Of(side Side) int {
	if side == SidePlayer {
		return b.Player
	}
	return b.Computer
}

// Outcome 结算结果
type Outcome struct {
	Winner         *Side     `json:"winner,omitempty"` // 平局为空
	Reason         EndReason `json:"reason"`
	PlayerScore    int       `json:"playerScore"`
	ComputerScore  int       `json:"computerScore"`
	PlayerReward   int       `json:"playerReward"`
	ComputerReward int       `json:"computerReward"`
}

// RewardOf 获取一方奖励
func (o Outcome) RewardOf(side Side) int {
	if side == SidePlayer {
		return o.PlayerReward
	}
	return o.ComputerReward
}

// DecideOutcome 计算结算结果
//
// explicitWinner 不为空表示有一方清空了手牌，胜者得 300；
// 否则按分数比较，高分得 200，平分各得 100，低分为 0。
func DecideOutcome(board ScoreBoard, explicitWinner *Side) Outcome {
	out := Outcome{
		PlayerScore:   board.Player,
		ComputerScore: board.Computer,
	}

	if explicitWinner != nil {
		winner := *explicitWinner
		out.Winner = &winner
		out.Reason = EndHandEmptied
		if winner == SidePlayer {
			out.PlayerReward = RewardHandEmptied
		} else {
			out.ComputerReward = RewardHandEmptied
		}
		return out
	}

	out.Reason = EndDeckExhausted
	switch {
	case board.Player > board.Computer:
		winner := SidePlayer
		out.Winner = &winner
		out.PlayerReward = RewardHigherScore
	case board.Computer > board.Player:
		winner := SideComputer
		out.Winner = &winner
		out.ComputerReward = RewardHigherScore
	default:
		out.PlayerReward = RewardTie
		out.ComputerReward = RewardTie
	}

	return out
}
