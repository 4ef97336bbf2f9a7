package telegram

import (
	"context"
	"fmt"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/aliskhannn/azvocab-bot/internal/domain/entities"
	"github.com/aliskhannn/azvocab-bot/internal/service"
)

// Telegram accepts poll open periods within these bounds, in seconds.
const (
	minOpenPeriod = 5
	maxOpenPeriod = 600
)

type BotAPI interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

// Sender is the outbound Telegram transport. Every failure it returns is
// classified into the service transport errors.
type Sender struct {
	bot        BotAPI
	limiter    *rate.Limiter
	openPeriod int // seconds a fast quiz stays open
	logger     *zap.Logger
}

func NewSender(bot BotAPI, ratePerSecond float64, fastWindow time.Duration, logger *zap.Logger) *Sender {
	limit := rate.Inf
	burst := 1
	if ratePerSecond > 0 {
		limit = rate.Limit(ratePerSecond)
		burst = max(1, int(ratePerSecond))
	}

	return &Sender{
		bot:        bot,
		limiter:    rate.NewLimiter(limit, burst),
		openPeriod: min(max(int(fastWindow/time.Second), minOpenPeriod), maxOpenPeriod),
		logger:     logger,
	}
}

// SendQuiz sends a quiz poll and returns the poll id as its correlation token.
func (s *Sender) SendQuiz(ctx context.Context, chatID int64, quiz *entities.Quiz, mode entities.Mode) (string, error) {
	poll := tgbotapi.NewPoll(chatID, quiz.Question, quiz.Options...)
	poll.IsAnonymous = false
	poll.Type = "quiz"
	poll.CorrectOptionID = int64(quiz.CorrectIndex)
	if mode == entities.ModeFast {
		poll.OpenPeriod = s.openPeriod
	}
	poll.ReplyMarkup = quizKeyboard(learnNow{
		UserID: quiz.Record.UserID,
		WordID: quiz.Record.Word.ID,
	})

	msg, err := s.send(ctx, poll)
	if err != nil {
		return "", err
	}
	if msg.Poll == nil {
		return "", fmt.Errorf("%w: poll missing in response", service.ErrTransientTransport)
	}

	s.logger.Debug("quiz sent",
		zap.Int64("chat_id", chatID),
		zap.String("poll_id", msg.Poll.ID),
		zap.Stringer("mode", mode),
	)

	return msg.Poll.ID, nil
}

func (s *Sender) SendReveal(ctx context.Context, chatID int64, reveal *entities.Reveal) error {
	msg := newMessage(chatID, revealText(reveal))
	msg.ReplyMarkup = moreKeyboard()

	_, err := s.send(ctx, msg)
	return err
}

func (s *Sender) SendNotice(ctx context.Context, chatID int64, notice service.Notice) error {
	_, err := s.send(ctx, newPlainMessage(chatID, noticeText(notice)))
	return err
}

func (s *Sender) SendSummary(ctx context.Context, chatID int64, summary entities.ProgressSummary) error {
	_, err := s.send(ctx, newPlainMessage(chatID, summaryText(summary)))
	return err
}

func (s *Sender) SendText(ctx context.Context, chatID int64, text string) error {
	_, err := s.send(ctx, newPlainMessage(chatID, text))
	return err
}

// SendMenu sends text with the main reply keyboard attached.
func (s *Sender) SendMenu(ctx context.Context, chatID int64, text string, admin bool) error {
	msg := newPlainMessage(chatID, text)
	msg.ReplyMarkup = mainMenu(admin)

	_, err := s.send(ctx, msg)
	return err
}

func (s *Sender) SendPhoto(ctx context.Context, chatID int64, url, caption string) error {
	photo := tgbotapi.NewPhoto(chatID, tgbotapi.FileURL(url))
	photo.Caption = caption

	_, err := s.send(ctx, photo)
	return err
}

func (s *Sender) DeleteMessage(ctx context.Context, chatID int64, messageID int) error {
	return s.request(ctx, tgbotapi.NewDeleteMessage(chatID, messageID))
}

// AnswerCallback removes the loading indicator on an inline button.
func (s *Sender) AnswerCallback(ctx context.Context, callbackID string) error {
	return s.request(ctx, tgbotapi.NewCallback(callbackID, ""))
}

func (s *Sender) send(ctx context.Context, c tgbotapi.Chattable) (tgbotapi.Message, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return tgbotapi.Message{}, err
	}

	msg, err := s.bot.Send(c)
	if err != nil {
		return tgbotapi.Message{}, classify(err)
	}
	return msg, nil
}

func (s *Sender) request(ctx context.Context, c tgbotapi.Chattable) error {
	if err := s.limiter.Wait(ctx); err != nil {
		return err
	}

	if _, err := s.bot.Request(c); err != nil {
		return classify(err)
	}
	return nil
}
