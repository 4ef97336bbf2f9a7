package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/aliskhannn/azvocab-bot/internal/domain/entities"
)

const (
	leaderboardWindow = 24 * time.Hour
	leaderboardTop    = 20
	leaderboardRecent = 10
)

// ProgressService builds per-user summaries and the admin leaderboard.
type ProgressService struct {
	users      UserRepository
	learning   LearningRepository
	stats      StatsRepository
	transport  Transport
	dispatcher *Dispatcher
	now        func() time.Time
	logger     *zap.Logger
}

func NewProgressService(
	users UserRepository,
	learning LearningRepository,
	stats StatsRepository,
	transport Transport,
	dispatcher *Dispatcher,
	logger *zap.Logger,
) *ProgressService {
	return &ProgressService{
		users:      users,
		learning:   learning,
		stats:      stats,
		transport:  transport,
		dispatcher: dispatcher,
		now:        time.Now,
		logger:     logger,
	}
}

// Summarize partitions introduced records by counter. MaxLevel covers all records.
func Summarize(records []*entities.LearningRecord) entities.ProgressSummary {
	var s entities.ProgressSummary
	for _, r := range records {
		if r.Word.Level > s.MaxLevel {
			s.MaxLevel = r.Word.Level
		}
		switch {
		case r.Counter >= entities.MasteredThreshold:
			s.Mastered++
		case r.Counter >= entities.RecognitionThreshold:
			s.Active++
		case r.Counter >= entities.CounterIntroduced:
			s.Starting++
		}
	}
	return s
}

// Report sends the progress summary to one user.
func (s *ProgressService) Report(ctx context.Context, telegramID int64) error {
	user, err := s.users.GetByTelegramID(ctx, telegramID)
	if err != nil {
		return fmt.Errorf("get user: %w", err)
	}

	records, err := s.learning.ListByUser(ctx, user.ID)
	if err != nil {
		return fmt.Errorf("list records: %w", err)
	}

	summary := Summarize(records)
	return s.dispatcher.Do(ctx, telegramID, func(ctx context.Context) error {
		return s.transport.SendSummary(ctx, telegramID, summary)
	})
}

// BroadcastDaily reports progress to every non-blocked user.
func (s *ProgressService) BroadcastDaily(ctx context.Context) (BroadcastReport, error) {
	report := BroadcastReport{RunID: uuid.NewString()}
	log := s.logger.With(zap.String("run_id", report.RunID))

	ids, err := s.users.ListActiveTelegramIDs(ctx)
	if err != nil {
		return report, fmt.Errorf("list active users: %w", err)
	}
	report.Total = len(ids)

	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		if err := s.Report(ctx, id); err != nil {
			report.Failed++
			log.Warn("statistics not delivered", zap.Int64("telegram_id", id), zap.Error(err))
		}
	}

	log.Info("daily statistics sent",
		zap.Int("users", report.Total),
		zap.Int("failed", report.Failed))

	return report, nil
}

// Leaderboard returns yesterday's top learners and the latest registrations.
func (s *ProgressService) Leaderboard(ctx context.Context) (*entities.Leaderboard, error) {
	top, err := s.stats.Top(ctx, s.now().Add(-leaderboardWindow), leaderboardTop)
	if err != nil {
		return nil, fmt.Errorf("top: %w", err)
	}

	recent, err := s.stats.Recent(ctx, leaderboardRecent)
	if err != nil {
		return nil, fmt.Errorf("recent: %w", err)
	}

	return &entities.Leaderboard{Top: top, Recent: recent}, nil
}
