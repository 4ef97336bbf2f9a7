package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/aliskhannn/azvocab-bot/internal/domain/entities"
)

// AllowList is a fixed set of identities.
type AllowList map[int64]struct{}

func NewAllowList(ids []int64) AllowList {
	l := make(AllowList, len(ids))
	for _, id := range ids {
		l[id] = struct{}{}
	}
	return l
}

func (l AllowList) Contains(id int64) bool {
	_, ok := l[id]
	return ok
}

// AdminService implements the administrative actions.
type AdminService struct {
	users      UserRepository
	transport  Transport
	dispatcher *Dispatcher
	progress   *ProgressService
	broadcast  AllowList
	stats      AllowList
	logger     *zap.Logger
}

func NewAdminService(
	users UserRepository,
	transport Transport,
	dispatcher *Dispatcher,
	progress *ProgressService,
	broadcast, stats AllowList,
	logger *zap.Logger,
) *AdminService {
	return &AdminService{
		users:      users,
		transport:  transport,
		dispatcher: dispatcher,
		progress:   progress,
		broadcast:  broadcast,
		stats:      stats,
		logger:     logger,
	}
}

// IsStatsAdmin reports whether the identity may see statistics and admin help.
func (s *AdminService) IsStatsAdmin(telegramID int64) bool {
	return s.stats.Contains(telegramID)
}

// CanBroadcast reports whether the identity may send admin messages.
func (s *AdminService) CanBroadcast(telegramID int64) bool {
	return s.broadcast.Contains(telegramID)
}

// Broadcast sends text to every non-blocked user.
func (s *AdminService) Broadcast(ctx context.Context, senderID int64, text string) (BroadcastReport, error) {
	report := BroadcastReport{RunID: uuid.NewString()}
	if !s.CanBroadcast(senderID) {
		return report, ErrForbidden
	}

	ids, err := s.users.ListActiveTelegramIDs(ctx)
	if err != nil {
		return report, fmt.Errorf("list active users: %w", err)
	}
	report.Total = len(ids)

	log := s.logger.With(zap.String("run_id", report.RunID), zap.Int64("sender_id", senderID))
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		err := s.dispatcher.Do(ctx, id, func(ctx context.Context) error {
			return s.transport.SendText(ctx, id, text)
		})
		if err != nil {
			report.Failed++
			log.Warn("admin message not delivered", zap.Int64("telegram_id", id), zap.Error(err))
		}
	}

	log.Info("admin message broadcast",
		zap.Int("users", report.Total),
		zap.Int("failed", report.Failed))

	return report, nil
}

// Leaderboard returns admin statistics for identities in the stats allow-list.
func (s *AdminService) Leaderboard(ctx context.Context, senderID int64) (*entities.Leaderboard, error) {
	if !s.stats.Contains(senderID) {
		return nil, ErrForbidden
	}
	return s.progress.Leaderboard(ctx)
}
