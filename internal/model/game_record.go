package model

import "time"

// GameResult 对局结果（从玩家视角）
const (
	GameResultWin  = "win"
	GameResultLose = "lose"
	GameResultTie  = "tie"
)

// GameRecord 已结束的对局记录
type GameRecord struct {
	Id            int64     `json:"id" db:"id"`
	SessionId     string    `json:"sessionId" db:"session_id"`
	Epoch         int64     `json:"epoch" db:"epoch"`
	Winner        *string   `json:"winner" db:"winner"` // player / computer，平局为空
	Result        string    `json:"result" db:"result"`
	EndReason     string    `json:"endReason" db:"end_reason"`
	PlayerScore   int       `json:"playerScore" db:"player_score"`
	ComputerScore int       `json:"computerScore" db:"computer_score"`
	Rounds        int       `json:"rounds" db:"rounds"`
	PlayerDeals   int       `json:"playerDeals" db:"player_deals"`
	ComputerDeals int       `json:"computerDeals" db:"computer_deals"`
	DeckRemaining int       `json:"deckRemaining" db:"deck_remaining"`
	CreatedAt     time.Time `json:"createdAt" db:"created_at"`
}
