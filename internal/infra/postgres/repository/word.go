package repository

import (
	"context"
	"fmt"

	"github.com/aliskhannn/azvocab-bot/internal/domain/entities"
	"github.com/aliskhannn/azvocab-bot/internal/infra/postgres"
)

// WordRepository provides access to the shared vocabulary deck.
type WordRepository struct {
	db postgres.DBTX
}

func NewWordRepository(db postgres.DBTX) *WordRepository {
	return &WordRepository{db: db}
}

// Upsert inserts a word or replaces the entry with the same source text.
func (r *WordRepository) Upsert(ctx context.Context, w *entities.Word) (int64, error) {
	query := `
		INSERT INTO words (source, target, emoji, level, transcription)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (source) DO UPDATE SET
			target = EXCLUDED.target,
			emoji = EXCLUDED.emoji,
			level = EXCLUDED.level,
			transcription = EXCLUDED.transcription
		RETURNING id
	`

	var id int64
	err := postgres.Conn(ctx, r.db).QueryRow(ctx, query,
		w.Source, w.Target, w.Emoji, w.Level, w.Transcription).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("upsert word %q: %w", w.Source, err)
	}

	return id, nil
}

// Count returns the deck size.
func (r *WordRepository) Count(ctx context.Context) (int, error) {
	var n int
	if err := postgres.Conn(ctx, r.db).QueryRow(ctx, `SELECT COUNT(*) FROM words`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count words: %w", err)
	}
	return n, nil
}
