package service

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
)

const defaultSendAttempts = 3

// Dispatcher wraps outbound sends with the global backoff gate and reacts to
// classified transport failures.
type Dispatcher struct {
	users    UserRepository
	backoff  *Backoff
	attempts int
	logger   *zap.Logger
}

func NewDispatcher(users UserRepository, backoff *Backoff, logger *zap.Logger) *Dispatcher {
	return &Dispatcher{
		users:    users,
		backoff:  backoff,
		attempts: defaultSendAttempts,
		logger:   logger,
	}
}

// Do runs send for the recipient. Rate limits pause the gate and retry the send.
// A blocked recipient is marked blocked. The classified error is returned after the reaction.
func (d *Dispatcher) Do(ctx context.Context, telegramID int64, send func(ctx context.Context) error) error {
	var err error
	for attempt := 1; attempt <= d.attempts; attempt++ {
		if err = d.backoff.Wait(ctx); err != nil {
			return err
		}

		err = send(ctx)
		if err == nil {
			return nil
		}

		var rl *RateLimitedError
		if !errors.As(err, &rl) {
			break
		}

		d.logger.Warn("rate limited, pausing all sends",
			zap.Int64("telegram_id", telegramID),
			zap.Duration("retry_after", rl.RetryAfter),
			zap.Int("attempt", attempt))
		d.backoff.Pause(rl.RetryAfter)
	}

	return d.react(ctx, telegramID, err)
}

func (d *Dispatcher) react(ctx context.Context, telegramID int64, err error) error {
	switch {
	case errors.Is(err, ErrRecipientBlocked):
		d.logger.Warn("recipient blocked the bot", zap.Int64("telegram_id", telegramID))
		if setErr := d.users.SetBlocked(ctx, telegramID, true); setErr != nil {
			return fmt.Errorf("mark user blocked: %w", setErr)
		}
	case errors.Is(err, ErrRecipientNotFound):
		d.logger.Warn("chat not found", zap.Int64("telegram_id", telegramID))
	case IsDeliveryFailure(err):
		d.logger.Error("failed to send message",
			zap.Int64("telegram_id", telegramID),
			zap.Error(err))
	}
	return err
}
