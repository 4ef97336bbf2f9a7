package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/aliskhannn/azvocab-bot/internal/domain/entities"
	"github.com/aliskhannn/azvocab-bot/internal/infra/postgres"
)

var ErrLessonNotFound = errors.New("lesson not found")

// LessonRepository reads static grammar lessons.
type LessonRepository struct {
	db postgres.DBTX
}

func NewLessonRepository(db postgres.DBTX) *LessonRepository {
	return &LessonRepository{db: db}
}

// List returns all lessons in learning order.
func (r *LessonRepository) List(ctx context.Context) ([]entities.Lesson, error) {
	query := `SELECT id, name, link, learn_order FROM lessons ORDER BY learn_order, id`

	rows, err := postgres.Conn(ctx, r.db).Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list lessons: %w", err)
	}

	lessons, err := pgx.CollectRows(rows, pgx.RowToStructByPos[entities.Lesson])
	if err != nil {
		return nil, fmt.Errorf("collect lessons: %w", err)
	}

	return lessons, nil
}

// GetByID returns a single lesson.
func (r *LessonRepository) GetByID(ctx context.Context, id int64) (*entities.Lesson, error) {
	query := `SELECT id, name, link, learn_order FROM lessons WHERE id = $1`

	var l entities.Lesson
	err := postgres.Conn(ctx, r.db).QueryRow(ctx, query, id).Scan(&l.ID, &l.Name, &l.Link, &l.LearnOrder)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrLessonNotFound
		}
		return nil, fmt.Errorf("get lesson: %w", err)
	}

	return &l, nil
}
