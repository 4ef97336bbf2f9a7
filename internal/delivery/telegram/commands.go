package telegram

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/aliskhannn/azvocab-bot/internal/domain/entities"
	"github.com/aliskhannn/azvocab-bot/internal/infra/postgres/repository"
	"github.com/aliskhannn/azvocab-bot/internal/service"
)

// startHandler registers the user, shows the menu and the alphabet, then delivers the first words.
func (h *Handler) startHandler(from *tgbotapi.User) HandlerFunc {
	return func(ctx context.Context, chatID int64) error {
		if _, err := h.services.Users.Register(ctx, from.ID, from.UserName, from.FirstName); err != nil {
			return fmt.Errorf("register: %w", err)
		}
		h.logger.Info("user registered", zap.Int64("user_id", from.ID))

		admin := h.services.Admin.IsStatsAdmin(from.ID)
		if err := h.sender.SendMenu(ctx, chatID, msgWelcome, admin); err != nil {
			return err
		}

		if err := h.alphabetHandler()(ctx, chatID); err != nil {
			return err
		}

		return h.services.Delivery.Deliver(ctx, from.ID, entities.TriggerRequest)
	}
}

func (h *Handler) moreWordsHandler(userID int64) HandlerFunc {
	return func(ctx context.Context, _ int64) error {
		return h.services.Delivery.Deliver(ctx, userID, entities.TriggerRequest)
	}
}

func (h *Handler) alphabetHandler() HandlerFunc {
	return func(ctx context.Context, chatID int64) error {
		if h.content.AlphabetPhotoURL == "" {
			if h.content.AlphabetLessonURL == "" {
				return nil
			}
			return h.sender.SendText(ctx, chatID, h.content.AlphabetLessonURL)
		}
		return h.sender.SendPhoto(ctx, chatID, h.content.AlphabetPhotoURL, h.content.AlphabetLessonURL)
	}
}

func (h *Handler) progressHandler(userID int64) HandlerFunc {
	return func(ctx context.Context, _ int64) error {
		return h.services.Progress.Report(ctx, userID)
	}
}

func (h *Handler) lessonsHandler() HandlerFunc {
	return func(ctx context.Context, chatID int64) error {
		lessons, err := h.services.Lessons.List(ctx)
		if err != nil {
			return err
		}
		return h.sender.SendText(ctx, chatID, lessonsText(lessons))
	}
}

func (h *Handler) lessonHandler(idStr string) HandlerFunc {
	return func(ctx context.Context, chatID int64) error {
		id, err := strconv.ParseInt(idStr, 10, 64)
		if err != nil || id <= 0 {
			return h.sender.SendText(ctx, chatID, msgNoLesson)
		}

		lesson, err := h.services.Lessons.Get(ctx, id)
		if errors.Is(err, repository.ErrLessonNotFound) {
			return h.sender.SendText(ctx, chatID, msgNoLesson)
		}
		if err != nil {
			return err
		}

		return h.sender.SendText(ctx, chatID, lesson.Link)
	}
}

func (h *Handler) textHandler(text string) HandlerFunc {
	return func(ctx context.Context, chatID int64) error {
		return h.sender.SendText(ctx, chatID, text)
	}
}

func (h *Handler) menuHandler(userID int64, text string) HandlerFunc {
	return func(ctx context.Context, chatID int64) error {
		return h.sender.SendMenu(ctx, chatID, text, h.services.Admin.IsStatsAdmin(userID))
	}
}

func (h *Handler) adminStatsHandler(userID int64) HandlerFunc {
	return func(ctx context.Context, chatID int64) error {
		lb, err := h.services.Admin.Leaderboard(ctx, userID)
		if err != nil {
			return err
		}
		return h.sender.SendText(ctx, chatID, leaderboardText(lb))
	}
}

// adminMessageHandler starts a broadcast in the background and reports the result to the sender.
func (h *Handler) adminMessageHandler(userID int64, text string) HandlerFunc {
	return func(ctx context.Context, chatID int64) error {
		if !h.services.Admin.CanBroadcast(userID) {
			return h.sender.SendText(ctx, chatID, msgUnknownCommand)
		}

		text = strings.TrimSpace(text)
		if text == "" {
			return h.sender.SendText(ctx, chatID, msgEmptyMessage)
		}

		go func() {
			report, err := h.services.Admin.Broadcast(ctx, userID, text)
			if err != nil {
				h.logger.Error("admin broadcast failed",
					zap.Int64("user_id", userID),
					zap.String("run_id", report.RunID),
					zap.Error(err),
				)
				return
			}

			delivered := report.Total - report.Failed
			h.sendError(ctx, chatID, fmt.Sprintf(msgBroadcastOK, delivered, report.Total))
		}()

		return nil
	}
}

func (h *Handler) handleCallback(ctx context.Context, cb *tgbotapi.CallbackQuery) {
	if err := h.sender.AnswerCallback(ctx, cb.ID); err != nil {
		h.logger.Debug("callback answer error", zap.Error(err))
	}
	h.ensureUser(ctx, cb.From)

	action, err := decodeCallback(cb.Data)
	if err != nil {
		h.logger.Debug("stale callback ignored",
			zap.Int64("user_id", cb.From.ID),
			zap.String("data", cb.Data),
		)
		return
	}

	chatID := cb.From.ID
	if cb.Message != nil {
		chatID = cb.Message.Chat.ID
	}

	switch a := action.(type) {
	case learnNow:
		var messageID int
		if cb.Message != nil {
			messageID = cb.Message.MessageID
		}
		_ = h.withErrorHandling(h.learnNowHandler(cb.From.ID, a, messageID))(ctx, chatID)
	case learnMore:
		_ = h.withErrorHandling(h.moreWordsHandler(cb.From.ID))(ctx, chatID)
	}
}

// learnNowHandler marks the word as known, removes the quiz and delivers the next item.
func (h *Handler) learnNowHandler(userID int64, a learnNow, messageID int) HandlerFunc {
	return func(ctx context.Context, chatID int64) error {
		err := h.services.Answers.MarkKnown(ctx, userID, a.UserID, a.WordID)
		if errors.Is(err, service.ErrStaleCorrelation) {
			h.logger.Debug("stale learn_now ignored",
				zap.Int64("user_id", userID),
				zap.Int64("word_id", a.WordID),
			)
			return nil
		}
		if err != nil {
			return err
		}

		if err := h.sender.SendText(ctx, chatID, msgMarkedKnown); err != nil {
			return err
		}

		if messageID != 0 {
			if err := h.sender.DeleteMessage(ctx, chatID, messageID); err != nil {
				h.logger.Debug("failed to delete quiz message", zap.Error(err))
			}
		}

		return h.services.Delivery.Deliver(ctx, userID, entities.TriggerRequest)
	}
}
