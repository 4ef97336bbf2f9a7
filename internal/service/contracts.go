package service

import (
	"context"
	"time"

	"github.com/aliskhannn/azvocab-bot/internal/domain/entities"
)

type UserRepository interface {
	Upsert(ctx context.Context, user *entities.User) (*entities.User, error)
	GetByTelegramID(ctx context.Context, telegramID int64) (*entities.User, error)
	ListActiveTelegramIDs(ctx context.Context) ([]int64, error)
	SetBlocked(ctx context.Context, telegramID int64, blocked bool) error
}

// LearningRepository is the mastery store: per-user-per-word learning records.
type LearningRepository interface {
	ListByUser(ctx context.Context, userID int64) ([]*entities.LearningRecord, error)
	ListUnassignedWords(ctx context.Context, userID int64, limit int) ([]entities.Word, error)
	SeedLevel(ctx context.Context, userID int64, level int) (int64, error)
	Assign(ctx context.Context, userID int64, wordIDs []int64) (int64, error)
	MarkRevealed(ctx context.Context, userID int64, wordIDs []int64, at time.Time) error

	ReserveQuiz(ctx context.Context, userID, wordID int64, correctOption int) error
	AttachQuizToken(ctx context.Context, userID, wordID int64, token string, sentAt time.Time, fast bool) error
	ReleaseQuiz(ctx context.Context, userID, wordID int64) error
	AbandonQuizzes(ctx context.Context, userID int64) (int64, error)
	AnswerQuiz(ctx context.Context, token string, chosen int, at time.Time) (*entities.AnswerOutcome, error)

	MarkKnown(ctx context.Context, userID, wordID int64, counter int) error
	Decay(ctx context.Context, userID int64, exposedBefore time.Time, amount, limit int) (int64, error)
}

type LessonRepository interface {
	List(ctx context.Context) ([]entities.Lesson, error)
	GetByID(ctx context.Context, id int64) (*entities.Lesson, error)
}

type StatsRepository interface {
	Top(ctx context.Context, since time.Time, limit int) ([]entities.LeaderboardEntry, error)
	Recent(ctx context.Context, limit int) ([]entities.RecentUser, error)
}

// Transactor runs fn atomically. Repositories join the transaction through ctx.
type Transactor interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// Transcriber renders a word phonetically.
type Transcriber interface {
	Transcribe(word string) string
}

// Notice is a fixed informational message.
type Notice int

const (
	NoticeRest Notice = iota + 1
	NoticeCaughtUp
)

// Transport is the outbound messaging channel. Failures are reported as
// ErrRecipientBlocked, ErrRecipientNotFound, *RateLimitedError or ErrTransientTransport.
type Transport interface {
	// SendQuiz dispatches a quiz and returns its correlation token.
	SendQuiz(ctx context.Context, chatID int64, quiz *entities.Quiz, mode entities.Mode) (string, error)
	SendReveal(ctx context.Context, chatID int64, reveal *entities.Reveal) error
	SendNotice(ctx context.Context, chatID int64, notice Notice) error
	SendSummary(ctx context.Context, chatID int64, summary entities.ProgressSummary) error
	SendText(ctx context.Context, chatID int64, text string) error
}

// Deliverer runs one delivery cycle for a user.
type Deliverer interface {
	Deliver(ctx context.Context, telegramID int64, trigger entities.Trigger) error
	// LockUser serializes work with the delivery cycles of one user.
	LockUser(telegramID int64) func()
}
