package repository

import (
	"context"
	_ "embed"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fzj270452746/MJSort/internal/model"
)

//go:embed schema.sql
var schemaSQL string

// ErrRecordNotFound 记录不存在
var ErrRecordNotFound = errors.New("game record not found")

// GameRecordRepository 对局记录仓库
type GameRecordRepository struct {
	db *pgxpool.Pool
}

// NewGameRecordRepository 创建对局记录仓库
func NewGameRecordRepository(db *pgxpool.Pool) *GameRecordRepository {
	return &GameRecordRepository{db: db}
}

// EnsureSchema 创建表结构（已存在时跳过）
func (r *GameRecordRepository) EnsureSchema(ctx context.Context) error {
	_, err := r.db.Exec(ctx, schemaSQL)
	return err
}

// Create 写入对局记录，同一会话同一局重复写入时忽略
func (r *GameRecordRepository) Create(ctx context.Context, rec *model.GameRecord) (int64, error) {
	query := `
		INSERT INTO game_records (session_id, epoch, winner, result, end_reason, player_score, computer_score,
			rounds, player_deals, computer_deals, deck_remaining, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (session_id, epoch) DO NOTHING
		RETURNING id
	`

	var id int64
	err := r.db.QueryRow(ctx, query,
		rec.SessionId,
		rec.Epoch,
		rec.Winner,
		rec.Result,
		rec.EndReason,
		rec.PlayerScore,
		rec.ComputerScore,
		rec.Rounds,
		rec.PlayerDeals,
		rec.ComputerDeals,
		rec.DeckRemaining,
		rec.CreatedAt,
	).Scan(&id)

	if errors.Is(err, pgx.ErrNoRows) {
		return 0, nil
	}
	return id, err
}

// FindBySession 查找某个会话的全部对局，按局数升序
func (r *GameRecordRepository) FindBySession(ctx context.Context, sessionId string) ([]*model.GameRecord, error) {
	query := `
		SELECT id, session_id, epoch, winner, result, end_reason, player_score, computer_score,
			rounds, player_deals, computer_deals, deck_remaining, created_at
		FROM game_records WHERE session_id = $1 ORDER BY epoch
	`

	rows, err := r.db.Query(ctx, query, sessionId)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanRecords(rows)
}

// ListRecent 最近结束的对局
func (r *GameRecordRepository) ListRecent(ctx context.Context, limit int) ([]*model.GameRecord, error) {
	if limit <= 0 {
		limit = 20
	}

	query := `
		SELECT id, session_id, epoch, winner, result, end_reason, player_score, computer_score,
			rounds, player_deals, computer_deals, deck_remaining, created_at
		FROM game_records ORDER BY created_at DESC LIMIT $1
	`

	rows, err := r.db.Query(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanRecords(rows)
}

// FindByID 根据 ID 查找对局记录
func (r *GameRecordRepository) FindByID(ctx context.Context, id int64) (*model.GameRecord, error) {
	query := `
		SELECT id, session_id, epoch, winner, result, end_reason, player_score, computer_score,
			rounds, player_deals, computer_deals, deck_remaining, created_at
		FROM game_records WHERE id = $1
	`

	rows, err := r.db.Query(ctx, query, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	records, err := scanRecords(rows)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, ErrRecordNotFound
	}
	return records[0], nil
}

func scanRecords(rows pgx.Rows) ([]*model.GameRecord, error) {
	records := make([]*model.GameRecord, 0)
	for rows.Next() {
		var rec model.GameRecord
		if err := rows.Scan(
			&rec.Id,
			&rec.SessionId,
			&rec.Epoch,
			&rec.Winner,
			&rec.Result,
			&rec.EndReason,
			&rec.PlayerScore,
			&rec.ComputerScore,
			&rec.Rounds,
			&rec.PlayerDeals,
			&rec.ComputerDeals,
			&rec.DeckRemaining,
			&rec.CreatedAt,
		); err != nil {
			return nil, err
		}
		records = append(records, &rec)
	}
	return records, rows.Err()
}
