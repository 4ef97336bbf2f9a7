package telegram

import (
	"context"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/aliskhannn/azvocab-bot/internal/domain/entities"
	"github.com/aliskhannn/azvocab-bot/internal/service"
)

type UserService interface {
	Register(ctx context.Context, telegramID int64, username, firstName string) (*entities.User, error)
	EnsureUser(ctx context.Context, telegramID int64, username, firstName string) (*entities.User, error)
}

type DeliveryService interface {
	Deliver(ctx context.Context, telegramID int64, trigger entities.Trigger) error
}

type AnswerService interface {
	HandleAnswer(ctx context.Context, ev entities.AnswerEvent) error
	MarkKnown(ctx context.Context, telegramID, userID, wordID int64) error
}

type ProgressService interface {
	Report(ctx context.Context, telegramID int64) error
}

type LessonService interface {
	List(ctx context.Context) ([]entities.Lesson, error)
	Get(ctx context.Context, id int64) (*entities.Lesson, error)
}

type AdminService interface {
	IsStatsAdmin(telegramID int64) bool
	CanBroadcast(telegramID int64) bool
	Broadcast(ctx context.Context, senderID int64, text string) (service.BroadcastReport, error)
	Leaderboard(ctx context.Context, senderID int64) (*entities.Leaderboard, error)
}

// Updater is the inbound side of the Bot API.
type Updater interface {
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
}

// Services groups the use cases the handler routes to.
type Services struct {
	Users    UserService
	Delivery DeliveryService
	Answers  AnswerService
	Progress ProgressService
	Lessons  LessonService
	Admin    AdminService
}

// Content holds static links shown to users.
type Content struct {
	AlphabetPhotoURL  string
	AlphabetLessonURL string
}

type Handler struct {
	bot      Updater
	sender   *Sender
	logger   *zap.Logger
	services Services
	content  Content
}

func NewHandler(
	bot Updater,
	sender *Sender,
	logger *zap.Logger,
	services Services,
	content Content,
) *Handler {
	return &Handler{
		bot:      bot,
		sender:   sender,
		logger:   logger,
		services: services,
		content:  content,
	}
}

func (h *Handler) Run(ctx context.Context) error {
	h.logger.Info("telegram handler started")
	defer h.logger.Info("telegram handler stopped")

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	u.AllowedUpdates = []string{"message", "callback_query", "poll_answer"}

	updates := h.bot.GetUpdatesChan(u)
	defer h.bot.StopReceivingUpdates()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			h.handleUpdate(ctx, update)
		}
	}
}

func (h *Handler) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	switch {
	case update.PollAnswer != nil:
		h.handlePollAnswer(ctx, update.PollAnswer)

	case update.CallbackQuery != nil:
		h.logger.Debug("callback received",
			zap.Int64("user_id", update.CallbackQuery.From.ID),
			zap.String("data", update.CallbackQuery.Data),
		)
		h.handleCallback(ctx, update.CallbackQuery)

	case update.Message != nil:
		h.logger.Debug("update received",
			zap.Int64("chat_id", update.Message.Chat.ID),
			zap.String("text", update.Message.Text),
		)
		h.handleMessage(ctx, update.Message)

	default:
		h.logger.Debug("update ignored", zap.Int("update_id", update.UpdateID))
	}
}

func (h *Handler) handlePollAnswer(ctx context.Context, pa *tgbotapi.PollAnswer) {
	// A retracted vote carries no options.
	if len(pa.OptionIDs) == 0 {
		return
	}

	h.ensureUser(ctx, &pa.User)

	ev := entities.AnswerEvent{
		Token:       pa.PollID,
		Chosen:      pa.OptionIDs[0],
		ResponderID: pa.User.ID,
	}
	if err := h.services.Answers.HandleAnswer(ctx, ev); err != nil {
		h.logger.Error("failed to handle poll answer",
			zap.Int64("user_id", pa.User.ID),
			zap.String("poll_id", pa.PollID),
			zap.Error(err),
		)
	}
}

// ensureUser records contact from u, clearing a stale blocked flag.
func (h *Handler) ensureUser(ctx context.Context, u *tgbotapi.User) {
	if _, err := h.services.Users.EnsureUser(ctx, u.ID, u.UserName, u.FirstName); err != nil {
		h.logger.Error("failed to ensure user",
			zap.Int64("user_id", u.ID),
			zap.Error(err),
		)
	}
}

func (h *Handler) handleMessage(ctx context.Context, m *tgbotapi.Message) {
	from := m.From
	if from == nil {
		return
	}
	chatID := m.Chat.ID

	if m.IsCommand() && m.Command() == "start" {
		_ = h.withErrorHandling(h.startHandler(from))(ctx, chatID)
		return
	}

	h.ensureUser(ctx, from)

	if m.IsCommand() {
		cmd := m.Command()
		switch {
		case cmd == "learn_now":
			_ = h.withErrorHandling(h.moreWordsHandler(from.ID))(ctx, chatID)
		case cmd == "adm_message":
			_ = h.withErrorHandling(h.adminMessageHandler(from.ID, m.CommandArguments()))(ctx, chatID)
		case strings.HasPrefix(cmd, "lesson_"):
			_ = h.withErrorHandling(h.lessonHandler(strings.TrimPrefix(cmd, "lesson_")))(ctx, chatID)
		default:
			_ = h.withErrorHandling(h.textHandler(msgUnknownCommand))(ctx, chatID)
		}
		return
	}

	item := parseMenuItem(strings.TrimSpace(m.Text))
	if item.IsAdmin() && !h.services.Admin.IsStatsAdmin(from.ID) {
		item = MenuUnknown
	}

	var fn HandlerFunc
	switch item {
	case MenuMoreWords:
		fn = h.moreWordsHandler(from.ID)
	case MenuLessons:
		fn = h.lessonsHandler()
	case MenuMyProgress:
		fn = h.progressHandler(from.ID)
	case MenuAlphabet:
		fn = h.alphabetHandler()
	case MenuLearningSources:
		fn = h.textHandler(msgLearningSources)
	case MenuFeedback:
		fn = h.textHandler(msgFeedback)
	case MenuAdminStats:
		fn = h.adminStatsHandler(from.ID)
	case MenuAdminHelp:
		fn = h.textHandler(msgAdminHelp)
	default:
		fn = h.menuHandler(from.ID, msgUseMenu)
	}

	_ = h.withErrorHandling(fn)(ctx, chatID)
}

func (h *Handler) sendError(ctx context.Context, chatID int64, text string) {
	if err := h.sender.SendText(ctx, chatID, text); err != nil {
		h.logger.Error("failed to send telegram message",
			zap.Int64("chat_id", chatID),
			zap.Error(err),
		)
	}
}
