package service

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/dgraph-io/ristretto/v2"

	"github.com/aliskhannn/azvocab-bot/internal/domain/entities"
)

const (
	lessonIndexKey = "index"
	lessonTTL      = time.Hour
)

// LessonService serves static grammar lessons from a cache.
type LessonService struct {
	repository LessonRepository
	index      *ristretto.Cache[string, []entities.Lesson]
	lessons    *ristretto.Cache[string, *entities.Lesson]
}

func NewLessonService(repository LessonRepository, maxCost int64) (*LessonService, error) {
	index, err := ristretto.NewCache(&ristretto.Config[string, []entities.Lesson]{
		NumCounters: 100,
		MaxCost:     10,
		BufferItems: 64,
	})
	if err != nil {
		return nil, fmt.Errorf("create lesson index cache: %w", err)
	}

	lessons, err := ristretto.NewCache(&ristretto.Config[string, *entities.Lesson]{
		NumCounters: maxCost * 10,
		MaxCost:     maxCost,
		BufferItems: 64,
	})
	if err != nil {
		return nil, fmt.Errorf("create lesson cache: %w", err)
	}

	return &LessonService{repository: repository, index: index, lessons: lessons}, nil
}

// List returns lessons in learning order.
func (s *LessonService) List(ctx context.Context) ([]entities.Lesson, error) {
	if cached, ok := s.index.Get(lessonIndexKey); ok {
		return cached, nil
	}

	lessons, err := s.repository.List(ctx)
	if err != nil {
		return nil, err
	}

	s.index.SetWithTTL(lessonIndexKey, lessons, 1, lessonTTL)
	s.index.Wait()
	return lessons, nil
}

// Get returns one lesson.
func (s *LessonService) Get(ctx context.Context, id int64) (*entities.Lesson, error) {
	key := strconv.FormatInt(id, 10)
	if cached, ok := s.lessons.Get(key); ok {
		return cached, nil
	}

	lesson, err := s.repository.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	s.lessons.SetWithTTL(key, lesson, 1, lessonTTL)
	s.lessons.Wait()
	return lesson, nil
}

func (s *LessonService) Close() {
	s.index.Close()
	s.lessons.Close()
}
