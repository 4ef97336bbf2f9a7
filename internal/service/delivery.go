package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/aliskhannn/azvocab-bot/internal/domain/entities"
)

type DeliveryConfig struct {
	FastWindow      time.Duration // response window of answer-triggered quizzes
	ScheduledExpiry time.Duration // scheduled quizzes stay outstanding this long
	// DecayAllowed limits the decay pass to some internal user ids. Nil allows everyone.
	DecayAllowed func(userID int64) bool
}

// BroadcastReport summarizes one pass over all active users.
type BroadcastReport struct {
	RunID  string
	Total  int
	Failed int
}

// DeliveryService runs per-user delivery cycles: select, build, send, persist.
type DeliveryService struct {
	users      UserRepository
	learning   LearningRepository
	tx         Transactor
	transport  Transport
	dispatcher *Dispatcher
	selector   *WordSelector
	builder    *QuizBuilder
	cfg        DeliveryConfig
	locks      *keyedMutex
	now        func() time.Time
	logger     *zap.Logger
}

func NewDeliveryService(
	users UserRepository,
	learning LearningRepository,
	tx Transactor,
	transport Transport,
	dispatcher *Dispatcher,
	selector *WordSelector,
	builder *QuizBuilder,
	cfg DeliveryConfig,
	logger *zap.Logger,
) *DeliveryService {
	if cfg.DecayAllowed == nil {
		cfg.DecayAllowed = func(int64) bool { return true }
	}
	return &DeliveryService{
		users:      users,
		learning:   learning,
		tx:         tx,
		transport:  transport,
		dispatcher: dispatcher,
		selector:   selector,
		builder:    builder,
		cfg:        cfg,
		locks:      newKeyedMutex(),
		now:        time.Now,
		logger:     logger,
	}
}

// Deliver runs one cycle for the user. Cycles of one user never overlap.
// Classified transport failures are handled here and do not surface; store failures do.
// LockUser holds the delivery lock of one user until the returned func is called.
// A quiz token is attached before the lock of its delivery cycle is released.
func (s *DeliveryService) LockUser(telegramID int64) func() {
	return s.locks.Lock(telegramID)
}

func (s *DeliveryService) Deliver(ctx context.Context, telegramID int64, trigger entities.Trigger) error {
	unlock := s.locks.Lock(telegramID)
	defer unlock()

	user, err := s.users.GetByTelegramID(ctx, telegramID)
	if err != nil {
		return fmt.Errorf("get user: %w", err)
	}
	if user.IsBlocked && trigger == entities.TriggerScheduled {
		return nil
	}

	now := s.now()
	records, err := s.learning.ListByUser(ctx, user.ID)
	if err != nil {
		return fmt.Errorf("list records: %w", err)
	}

	if proceed, err := s.settleQuizzes(ctx, user, records, trigger, now); err != nil || !proceed {
		return err
	}

	action := s.selector.Select(records, now)

	s.logger.Debug("delivery action selected",
		zap.Int64("telegram_id", telegramID),
		zap.Stringer("trigger", trigger),
		zap.Stringer("action", action.Kind),
		zap.Int("candidates", len(action.Candidates)))

	return s.perform(ctx, user, records, action, trigger.Mode(), now)
}

// Broadcast delivers to every non-blocked user in turn. One user's failure never stops the batch.
func (s *DeliveryService) Broadcast(ctx context.Context) (BroadcastReport, error) {
	report := BroadcastReport{RunID: uuid.NewString()}
	log := s.logger.With(zap.String("run_id", report.RunID))

	ids, err := s.users.ListActiveTelegramIDs(ctx)
	if err != nil {
		return report, fmt.Errorf("list active users: %w", err)
	}
	report.Total = len(ids)

	log.Info("delivery broadcast started", zap.Int("users", len(ids)))

	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return report, err
		}

		if err := s.Deliver(ctx, id, entities.TriggerScheduled); err != nil {
			report.Failed++
			log.Error("delivery failed", zap.Int64("telegram_id", id), zap.Error(err))
		}
	}

	log.Info("delivery broadcast finished",
		zap.Int("users", report.Total),
		zap.Int("failed", report.Failed))

	return report, nil
}

// settleQuizzes keeps at most one quiz in flight. A scheduled tick waits for an
// outstanding quiz; any other trigger abandons it. Expired quizzes are always abandoned.
func (s *DeliveryService) settleQuizzes(
	ctx context.Context,
	user *entities.User,
	records []*entities.LearningRecord,
	trigger entities.Trigger,
	now time.Time,
) (bool, error) {
	var inFlight bool
	for _, r := range records {
		if r.CorrectOption == entities.NoCorrectOption && r.QuizToken == nil {
			continue
		}
		inFlight = true
		if trigger == entities.TriggerScheduled && s.outstanding(r, now) {
			s.logger.Debug("quiz outstanding, skipping tick",
				zap.Int64("telegram_id", user.TelegramID),
				zap.Int64("word_id", r.Word.ID))
			return false, nil
		}
	}
	if !inFlight {
		return true, nil
	}

	if _, err := s.learning.AbandonQuizzes(ctx, user.ID); err != nil {
		return false, fmt.Errorf("abandon quizzes: %w", err)
	}
	for _, r := range records {
		r.ClearQuiz()
	}

	return true, nil
}

func (s *DeliveryService) outstanding(r *entities.LearningRecord, now time.Time) bool {
	if !r.HasPendingQuiz() || r.QuizSentAt == nil {
		return false
	}
	window := s.cfg.ScheduledExpiry
	if r.QuizFast {
		window = s.cfg.FastWindow
	}
	return now.Sub(*r.QuizSentAt) < window
}

func (s *DeliveryService) perform(
	ctx context.Context,
	user *entities.User,
	records []*entities.LearningRecord,
	action entities.Action,
	mode entities.Mode,
	now time.Time,
) error {
	switch action.Kind {
	case entities.ActionRest:
		return s.notify(ctx, user.TelegramID, NoticeRest)
	case entities.ActionCaughtUp:
		return s.notify(ctx, user.TelegramID, NoticeCaughtUp)
	case entities.ActionProductionQuiz, entities.ActionRecognitionQuiz:
		return s.quiz(ctx, user, records, action, mode)
	case entities.ActionReveal:
		return s.reveal(ctx, user, action, now)
	case entities.ActionIntroduce:
		introduced, err := s.introduce(ctx, user, now)
		if err != nil {
			return err
		}
		next := s.selector.AfterIntroduction(records, introduced, now)
		s.logger.Debug("words introduced",
			zap.Int64("telegram_id", user.TelegramID),
			zap.Int("introduced", len(introduced)),
			zap.Stringer("action", next.Kind))
		return s.perform(ctx, user, records, next, mode, now)
	default:
		return fmt.Errorf("unknown action %s", action.Kind)
	}
}

func (s *DeliveryService) quiz(
	ctx context.Context,
	user *entities.User,
	records []*entities.LearningRecord,
	action entities.Action,
	mode entities.Mode,
) error {
	quiz, err := s.builder.Quiz(action, records)
	if errors.Is(err, ErrNotEnoughOptions) {
		s.logger.Warn("quiz not built",
			zap.Int64("telegram_id", user.TelegramID),
			zap.Stringer("action", action.Kind),
			zap.Error(err))
		return s.notify(ctx, user.TelegramID, NoticeCaughtUp)
	}
	if err != nil {
		return fmt.Errorf("build quiz: %w", err)
	}
	wordID := quiz.Record.Word.ID

	if err := s.learning.ReserveQuiz(ctx, user.ID, wordID, quiz.CorrectIndex); err != nil {
		return fmt.Errorf("reserve quiz: %w", err)
	}

	var token string
	err = s.dispatcher.Do(ctx, user.TelegramID, func(ctx context.Context) error {
		var sendErr error
		token, sendErr = s.transport.SendQuiz(ctx, user.TelegramID, quiz, mode)
		return sendErr
	})
	if err != nil {
		if relErr := s.learning.ReleaseQuiz(ctx, user.ID, wordID); relErr != nil {
			return fmt.Errorf("release quiz: %w", relErr)
		}
		return swallowDeliveryFailure(err)
	}

	if err := s.learning.AttachQuizToken(ctx, user.ID, wordID, token, s.now(), mode == entities.ModeFast); err != nil {
		return fmt.Errorf("attach quiz token: %w", err)
	}

	return nil
}

func (s *DeliveryService) reveal(ctx context.Context, user *entities.User, action entities.Action, now time.Time) error {
	reveal := s.builder.Reveal(user.ID, action, s.selector.Policy().RevealBatch)
	if len(reveal.Items) == 0 {
		return s.notify(ctx, user.TelegramID, NoticeCaughtUp)
	}

	err := s.dispatcher.Do(ctx, user.TelegramID, func(ctx context.Context) error {
		return s.transport.SendReveal(ctx, user.TelegramID, reveal)
	})
	if err != nil {
		return swallowDeliveryFailure(err)
	}

	ids := make([]int64, 0, len(reveal.Items))
	for _, it := range reveal.Items {
		ids = append(ids, it.Word.ID)
	}
	if err := s.learning.MarkRevealed(ctx, user.ID, ids, now); err != nil {
		return fmt.Errorf("mark revealed: %w", err)
	}

	return nil
}

// introduce assigns the next unseen words and runs the decay pass as one unit.
func (s *DeliveryService) introduce(ctx context.Context, user *entities.User, now time.Time) ([]*entities.LearningRecord, error) {
	policy := s.selector.Policy()
	var introduced []*entities.LearningRecord

	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		words, err := s.learning.ListUnassignedWords(ctx, user.ID, policy.IntroduceLimit)
		if err != nil {
			return fmt.Errorf("list unassigned words: %w", err)
		}

		if len(words) > 0 {
			ids := make([]int64, 0, len(words))
			for _, w := range words {
				ids = append(ids, w.ID)
			}
			if _, err := s.learning.Assign(ctx, user.ID, ids); err != nil {
				return fmt.Errorf("assign words: %w", err)
			}
		}

		if s.cfg.DecayAllowed(user.ID) {
			n, err := s.learning.Decay(ctx, user.ID, now.Add(-policy.DecayAge), policy.DecayAmount, policy.DecayLimit)
			if err != nil {
				return fmt.Errorf("decay: %w", err)
			}
			if n > 0 {
				s.logger.Info("mastered words decayed",
					zap.Int64("telegram_id", user.TelegramID),
					zap.Int64("decayed", n))
			}
		}

		introduced = introduced[:0]
		for _, w := range words {
			introduced = append(introduced, entities.NewLearningRecord(user.ID, w))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return introduced, nil
}

func (s *DeliveryService) notify(ctx context.Context, telegramID int64, notice Notice) error {
	err := s.dispatcher.Do(ctx, telegramID, func(ctx context.Context) error {
		return s.transport.SendNotice(ctx, telegramID, notice)
	})
	return swallowDeliveryFailure(err)
}

// swallowDeliveryFailure drops transport failures the dispatcher already reacted to.
func swallowDeliveryFailure(err error) error {
	if err == nil || IsDeliveryFailure(err) {
		return nil
	}
	return err
}
