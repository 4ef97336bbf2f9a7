package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/aliskhannn/azvocab-bot/internal/domain/entities"
	"github.com/aliskhannn/azvocab-bot/internal/infra/postgres"
)

var ErrRecordNotFound = errors.New("learning record not found")

// LearningRepository is the typed facade over per-user-per-word learning records.
type LearningRepository struct {
	db postgres.DBTX
}

func NewLearningRepository(db postgres.DBTX) *LearningRepository {
	return &LearningRepository{db: db}
}

// ListByUser returns all records of a user joined with their words.
func (r *LearningRepository) ListByUser(ctx context.Context, userID int64) ([]*entities.LearningRecord, error) {
	query := `
		SELECT lr.user_id, w.id, w.source, w.target, w.emoji, w.level, w.transcription,
		       lr.counter, lr.last_exposure_at, lr.quiz_token, lr.correct_option,
		       lr.quiz_sent_at, lr.quiz_fast
		FROM learning_records lr
		JOIN words w ON w.id = lr.word_id
		WHERE lr.user_id = $1
		ORDER BY w.level, w.id
	`

	rows, err := postgres.Conn(ctx, r.db).Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("list learning records: %w", err)
	}
	defer rows.Close()

	var records []*entities.LearningRecord
	for rows.Next() {
		var rec entities.LearningRecord
		err = rows.Scan(
			&rec.UserID,
			&rec.Word.ID,
			&rec.Word.Source,
			&rec.Word.Target,
			&rec.Word.Emoji,
			&rec.Word.Level,
			&rec.Word.Transcription,
			&rec.Counter,
			&rec.LastExposureAt,
			&rec.QuizToken,
			&rec.CorrectOption,
			&rec.QuizSentAt,
			&rec.QuizFast,
		)
		if err != nil {
			return nil, fmt.Errorf("scan learning record: %w", err)
		}
		records = append(records, &rec)
	}

	return records, rows.Err()
}

// ListUnassignedWords returns words the user has no record for, easiest first.
func (r *LearningRepository) ListUnassignedWords(ctx context.Context, userID int64, limit int) ([]entities.Word, error) {
	query := `
		SELECT w.id, w.source, w.target, w.emoji, w.level, w.transcription
		FROM words w
		WHERE NOT EXISTS (
			SELECT 1 FROM learning_records lr
			WHERE lr.user_id = $1 AND lr.word_id = w.id
		)
		ORDER BY w.level, w.id
		LIMIT $2
	`

	rows, err := postgres.Conn(ctx, r.db).Query(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("list unassigned words: %w", err)
	}
	defer rows.Close()

	words := make([]entities.Word, 0, limit)
	for rows.Next() {
		var w entities.Word
		if err := rows.Scan(&w.ID, &w.Source, &w.Target, &w.Emoji, &w.Level, &w.Transcription); err != nil {
			return nil, fmt.Errorf("scan word: %w", err)
		}
		words = append(words, w)
	}

	return words, rows.Err()
}

// SeedLevel assigns every word of the given level to the user. Existing records are kept.
func (r *LearningRepository) SeedLevel(ctx context.Context, userID int64, level int) (int64, error) {
	query := `
		INSERT INTO learning_records (user_id, word_id, counter, correct_option)
		SELECT $1, id, -1, -1 FROM words WHERE level = $2
		ON CONFLICT (user_id, word_id) DO NOTHING
	`

	tag, err := postgres.Conn(ctx, r.db).Exec(ctx, query, userID, level)
	if err != nil {
		return 0, fmt.Errorf("seed level: %w", err)
	}

	return tag.RowsAffected(), nil
}

// Assign creates not-yet-introduced records for the given words. Existing records are kept.
func (r *LearningRepository) Assign(ctx context.Context, userID int64, wordIDs []int64) (int64, error) {
	if len(wordIDs) == 0 {
		return 0, nil
	}

	query := `
		INSERT INTO learning_records (user_id, word_id, counter, correct_option)
		SELECT $1, unnest($2::bigint[]), -1, -1
		ON CONFLICT (user_id, word_id) DO NOTHING
	`

	tag, err := postgres.Conn(ctx, r.db).Exec(ctx, query, userID, wordIDs)
	if err != nil {
		return 0, fmt.Errorf("assign words: %w", err)
	}

	return tag.RowsAffected(), nil
}

// MarkRevealed bumps the counters of words shown in a plain reveal.
func (r *LearningRepository) MarkRevealed(ctx context.Context, userID int64, wordIDs []int64, at time.Time) error {
	query := `
		UPDATE learning_records
		SET counter = counter + 1,
		    last_exposure_at = $3,
		    quiz_token = NULL,
		    correct_option = -1,
		    quiz_sent_at = NULL,
		    quiz_fast = FALSE
		WHERE user_id = $1 AND word_id = ANY($2::bigint[])
	`

	if _, err := postgres.Conn(ctx, r.db).Exec(ctx, query, userID, wordIDs, at); err != nil {
		return fmt.Errorf("mark revealed: %w", err)
	}

	return nil
}

// ReserveQuiz stores the correct option before the quiz is sent.
func (r *LearningRepository) ReserveQuiz(ctx context.Context, userID, wordID int64, correctOption int) error {
	query := `
		UPDATE learning_records
		SET correct_option = $3, quiz_token = NULL, quiz_sent_at = NULL, quiz_fast = FALSE
		WHERE user_id = $1 AND word_id = $2
	`

	return r.execOne(ctx, "reserve quiz", query, userID, wordID, correctOption)
}

// AttachQuizToken links a dispatched quiz to its record.
func (r *LearningRepository) AttachQuizToken(
	ctx context.Context, userID, wordID int64, token string, sentAt time.Time, fast bool,
) error {
	query := `
		UPDATE learning_records
		SET quiz_token = $3, quiz_sent_at = $4, quiz_fast = $5
		WHERE user_id = $1 AND word_id = $2 AND correct_option >= 0
	`

	return r.execOne(ctx, "attach quiz token", query, userID, wordID, token, sentAt, fast)
}

// ReleaseQuiz drops a reservation whose quiz could not be sent.
func (r *LearningRepository) ReleaseQuiz(ctx context.Context, userID, wordID int64) error {
	query := `
		UPDATE learning_records
		SET correct_option = -1, quiz_token = NULL, quiz_sent_at = NULL, quiz_fast = FALSE
		WHERE user_id = $1 AND word_id = $2
	`

	if _, err := postgres.Conn(ctx, r.db).Exec(ctx, query, userID, wordID); err != nil {
		return fmt.Errorf("release quiz: %w", err)
	}

	return nil
}

// AbandonQuizzes clears every outstanding quiz of a user. Later answers to them are stale.
func (r *LearningRepository) AbandonQuizzes(ctx context.Context, userID int64) (int64, error) {
	query := `
		UPDATE learning_records
		SET correct_option = -1, quiz_token = NULL, quiz_sent_at = NULL, quiz_fast = FALSE
		WHERE user_id = $1 AND (quiz_token IS NOT NULL OR correct_option <> -1)
	`

	tag, err := postgres.Conn(ctx, r.db).Exec(ctx, query, userID)
	if err != nil {
		return 0, fmt.Errorf("abandon quizzes: %w", err)
	}

	return tag.RowsAffected(), nil
}

// AnswerQuiz applies an answer to the record holding token in a single statement:
// +1 on the correct option, -1 otherwise, quiz fields cleared, exposure stamped.
// It returns ErrRecordNotFound for unknown or already answered tokens.
func (r *LearningRepository) AnswerQuiz(
	ctx context.Context, token string, chosen int, at time.Time,
) (*entities.AnswerOutcome, error) {
	query := `
		WITH target AS (
			SELECT id, correct_option
			FROM learning_records
			WHERE quiz_token = $1
			FOR UPDATE
		)
		UPDATE learning_records lr
		SET counter = lr.counter + CASE WHEN t.correct_option = $2 THEN 1 ELSE -1 END,
		    quiz_token = NULL,
		    correct_option = -1,
		    quiz_sent_at = NULL,
		    quiz_fast = FALSE,
		    last_exposure_at = $3
		FROM target t
		WHERE lr.id = t.id
		RETURNING lr.user_id, lr.word_id, lr.counter, t.correct_option = $2
	`

	var out entities.AnswerOutcome
	err := postgres.Conn(ctx, r.db).QueryRow(ctx, query, token, chosen, at).Scan(
		&out.UserID,
		&out.WordID,
		&out.Counter,
		&out.Correct,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrRecordNotFound
		}
		return nil, fmt.Errorf("answer quiz: %w", err)
	}

	return &out, nil
}

// MarkKnown moves a word straight to the mastered band.
func (r *LearningRepository) MarkKnown(ctx context.Context, userID, wordID int64, counter int) error {
	query := `
		UPDATE learning_records
		SET counter = $3, correct_option = -1, quiz_token = NULL, quiz_sent_at = NULL, quiz_fast = FALSE
		WHERE user_id = $1 AND word_id = $2
	`

	return r.execOne(ctx, "mark known", query, userID, wordID, counter)
}

// Decay lowers the counters of the longest unreviewed mastered words.
func (r *LearningRepository) Decay(
	ctx context.Context, userID int64, exposedBefore time.Time, amount, limit int,
) (int64, error) {
	query := `
		UPDATE learning_records
		SET counter = counter - $3
		WHERE id IN (
			SELECT id
			FROM learning_records
			WHERE user_id = $1
			  AND counter >= 10
			  AND last_exposure_at < $2
			ORDER BY last_exposure_at ASC
			LIMIT $4
		)
	`

	tag, err := postgres.Conn(ctx, r.db).Exec(ctx, query, userID, exposedBefore, amount, limit)
	if err != nil {
		return 0, fmt.Errorf("decay: %w", err)
	}

	return tag.RowsAffected(), nil
}

func (r *LearningRepository) execOne(ctx context.Context, op, query string, args ...any) error {
	tag, err := postgres.Conn(ctx, r.db).Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrRecordNotFound
	}
	return nil
}
