package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/aliskhannn/azvocab-bot/internal/domain/entities"
	"github.com/aliskhannn/azvocab-bot/internal/infra/postgres"
)

// StatsRepository aggregates learning records across users.
type StatsRepository struct {
	db postgres.DBTX
}

func NewStatsRepository(db postgres.DBTX) *StatsRepository {
	return &StatsRepository{db: db}
}

// Top ranks users by words that reached the mastered band among records exposed since the given time.
func (r *StatsRepository) Top(ctx context.Context, since time.Time, limit int) ([]entities.LeaderboardEntry, error) {
	query := `
		SELECT CASE WHEN u.username = '' THEN u.telegram_id::text ELSE u.username END,
		       COUNT(*) FILTER (WHERE lr.counter >= 10),
		       COUNT(*),
		       MAX(w.level)
		FROM learning_records lr
		JOIN users u ON u.id = lr.user_id
		JOIN words w ON w.id = lr.word_id
		WHERE lr.last_exposure_at >= $1
		GROUP BY u.id
		ORDER BY 2 DESC, 3 DESC
		LIMIT $2
	`

	rows, err := postgres.Conn(ctx, r.db).Query(ctx, query, since, limit)
	if err != nil {
		return nil, fmt.Errorf("top users: %w", err)
	}

	top, err := pgx.CollectRows(rows, pgx.RowToStructByPos[entities.LeaderboardEntry])
	if err != nil {
		return nil, fmt.Errorf("collect top users: %w", err)
	}

	return top, nil
}

// Recent returns the most recently registered users.
func (r *StatsRepository) Recent(ctx context.Context, limit int) ([]entities.RecentUser, error) {
	query := `
		SELECT CASE WHEN username = '' THEN telegram_id::text ELSE username END,
		       first_name, registration_date, is_blocked
		FROM users
		ORDER BY registration_date DESC
		LIMIT $1
	`

	rows, err := postgres.Conn(ctx, r.db).Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("recent users: %w", err)
	}

	recent, err := pgx.CollectRows(rows, pgx.RowToStructByPos[entities.RecentUser])
	if err != nil {
		return nil, fmt.Errorf("collect recent users: %w", err)
	}

	return recent, nil
}
