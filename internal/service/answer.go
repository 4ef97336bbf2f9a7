package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/aliskhannn/azvocab-bot/internal/domain/entities"
	"github.com/aliskhannn/azvocab-bot/internal/infra/postgres/repository"
)

// AnswerService applies inbound quiz answers and "already known" actions.
type AnswerService struct {
	users    UserRepository
	learning LearningRepository
	delivery Deliverer
	now      func() time.Time
	logger   *zap.Logger
}

func NewAnswerService(users UserRepository, learning LearningRepository, delivery Deliverer, logger *zap.Logger) *AnswerService {
	return &AnswerService{
		users:    users,
		learning: learning,
		delivery: delivery,
		now:      time.Now,
		logger:   logger,
	}
}

// HandleAnswer moves the mastery counter by one and immediately delivers the next item.
// Unknown or already answered tokens are ignored.
func (s *AnswerService) HandleAnswer(ctx context.Context, ev entities.AnswerEvent) error {
	// Waits for an in-flight cycle of this user to attach its quiz token.
	unlock := s.delivery.LockUser(ev.ResponderID)
	out, err := s.learning.AnswerQuiz(ctx, ev.Token, ev.Chosen, s.now())
	unlock()
	if err != nil {
		if errors.Is(err, repository.ErrRecordNotFound) {
			s.logger.Debug("stale quiz answer ignored",
				zap.String("token", ev.Token),
				zap.Int64("telegram_id", ev.ResponderID))
			return nil
		}
		return fmt.Errorf("answer quiz: %w", err)
	}

	s.logger.Info("quiz answered",
		zap.Int64("telegram_id", ev.ResponderID),
		zap.Int64("word_id", out.WordID),
		zap.Bool("correct", out.Correct),
		zap.Int("counter", out.Counter))

	return s.delivery.Deliver(ctx, ev.ResponderID, entities.TriggerAnswer)
}

// MarkKnown moves a word straight to the mastered band. The record must belong to the sender.
func (s *AnswerService) MarkKnown(ctx context.Context, telegramID, userID, wordID int64) error {
	user, err := s.users.GetByTelegramID(ctx, telegramID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return ErrStaleCorrelation
		}
		return fmt.Errorf("get user: %w", err)
	}
	if user.ID != userID {
		return ErrStaleCorrelation
	}

	if err := s.learning.MarkKnown(ctx, user.ID, wordID, entities.MasteredThreshold); err != nil {
		if errors.Is(err, repository.ErrRecordNotFound) {
			return ErrStaleCorrelation
		}
		return fmt.Errorf("mark known: %w", err)
	}

	return nil
}
