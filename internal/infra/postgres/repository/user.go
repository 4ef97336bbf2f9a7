package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/aliskhannn/azvocab-bot/internal/domain/entities"
	"github.com/aliskhannn/azvocab-bot/internal/infra/postgres"
)

var ErrUserNotFound = errors.New("user not found")

// UserRepository provides access to user data in the database.
type UserRepository struct {
	db postgres.DBTX
}

// NewUserRepository creates a new UserRepository with the provided database handle.
func NewUserRepository(db postgres.DBTX) *UserRepository {
	return &UserRepository{db: db}
}

const userColumns = `id, telegram_id, username, first_name, is_blocked, registration_date`

// Upsert creates the user or refreshes its profile. Renewed contact always clears the block flag.
func (r *UserRepository) Upsert(ctx context.Context, user *entities.User) (*entities.User, error) {
	query := `
		INSERT INTO users (telegram_id, username, first_name, registration_date)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (telegram_id) DO UPDATE SET
			username = EXCLUDED.username,
			first_name = EXCLUDED.first_name,
			is_blocked = FALSE
		RETURNING ` + userColumns

	row := postgres.Conn(ctx, r.db).QueryRow(ctx, query,
		user.TelegramID, user.Username, user.FirstName, user.RegistrationDate)

	saved, err := scanUser(row)
	if err != nil {
		return nil, fmt.Errorf("upsert user: %w", err)
	}

	return saved, nil
}

// GetByTelegramID retrieves a user by external identity.
func (r *UserRepository) GetByTelegramID(ctx context.Context, telegramID int64) (*entities.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE telegram_id = $1`

	user, err := scanUser(postgres.Conn(ctx, r.db).QueryRow(ctx, query, telegramID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("get user: %w", err)
	}

	return user, nil
}

// ListActiveTelegramIDs returns external ids of all users that have not blocked the bot.
func (r *UserRepository) ListActiveTelegramIDs(ctx context.Context) ([]int64, error) {
	query := `SELECT telegram_id FROM users WHERE is_blocked = FALSE ORDER BY id`

	rows, err := postgres.Conn(ctx, r.db).Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list active users: %w", err)
	}

	ids, err := pgx.CollectRows(rows, pgx.RowTo[int64])
	if err != nil {
		return nil, fmt.Errorf("scan active users: %w", err)
	}

	return ids, nil
}

// SetBlocked updates the block flag of a user.
func (r *UserRepository) SetBlocked(ctx context.Context, telegramID int64, blocked bool) error {
	query := `UPDATE users SET is_blocked = $2 WHERE telegram_id = $1`

	tag, err := postgres.Conn(ctx, r.db).Exec(ctx, query, telegramID, blocked)
	if err != nil {
		return fmt.Errorf("set blocked: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrUserNotFound
	}

	return nil
}

func scanUser(row pgx.Row) (*entities.User, error) {
	var u entities.User
	err := row.Scan(
		&u.ID,
		&u.TelegramID,
		&u.Username,
		&u.FirstName,
		&u.IsBlocked,
		&u.RegistrationDate,
	)
	if err != nil {
		return nil, err
	}
	return &u, nil
}
