package telegram

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/aliskhannn/azvocab-bot/internal/service"
)

type HandlerFunc func(ctx context.Context, chatID int64) error

func (h *Handler) withErrorHandling(fn HandlerFunc) HandlerFunc {
	return func(ctx context.Context, chatID int64) error {
		err := fn(ctx, chatID)
		switch {
		case err == nil:
			return nil
		case errors.Is(err, context.Canceled):
			return err
		case service.IsDeliveryFailure(err):
			// The reply itself failed.
			h.logger.Warn("reply not delivered",
				zap.Int64("chat_id", chatID),
				zap.Error(err),
			)
			return nil
		}

		h.logger.Error("handle error",
			zap.Int64("chat_id", chatID),
			zap.Error(err),
		)
		h.sendError(ctx, chatID, msgInternalError)
		return nil
	}
}
