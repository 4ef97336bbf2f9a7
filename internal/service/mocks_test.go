package service

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/aliskhannn/azvocab-bot/internal/domain/entities"
	"github.com/aliskhannn/azvocab-bot/internal/infra/postgres/repository"
)

// memStore is an in-memory mastery store with the same semantics as the postgres repositories.
type memStore struct {
	mu      sync.Mutex
	users   map[int64]*entities.User // by telegram id
	words   []entities.Word
	records map[int64]map[int64]*entities.LearningRecord // user id -> word id
	nextID  int64

	mutations []string
}

func newMemStore(words ...entities.Word) *memStore {
	for i := range words {
		if words[i].ID == 0 {
			words[i].ID = int64(i + 1)
		}
	}
	return &memStore{
		users:   make(map[int64]*entities.User),
		words:   words,
		records: make(map[int64]map[int64]*entities.LearningRecord),
	}
}

func (m *memStore) mutated(op string) {
	m.mutations = append(m.mutations, op)
}

func (m *memStore) addUser(telegramID int64) *entities.User {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.nextID++
	u := &entities.User{ID: m.nextID, TelegramID: telegramID}
	m.users[telegramID] = u
	m.records[u.ID] = make(map[int64]*entities.LearningRecord)
	return u
}

func (m *memStore) put(userID int64, rec *entities.LearningRecord) {
	m.mu.Lock()
	defer m.mu.Unlock()

	rec.UserID = userID
	m.records[userID][rec.Word.ID] = rec
}

func (m *memStore) record(userID, wordID int64) entities.LearningRecord {
	m.mu.Lock()
	defer m.mu.Unlock()
	return *m.records[userID][wordID]
}

func (m *memStore) Upsert(_ context.Context, user *entities.User) (*entities.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.mutated("upsert_user")
	if u, ok := m.users[user.TelegramID]; ok {
		u.Username, u.FirstName, u.IsBlocked = user.Username, user.FirstName, false
		c := *u
		return &c, nil
	}
	m.nextID++
	u := *user
	u.ID = m.nextID
	m.users[u.TelegramID] = &u
	m.records[u.ID] = make(map[int64]*entities.LearningRecord)
	c := u
	return &c, nil
}

func (m *memStore) GetByTelegramID(_ context.Context, telegramID int64) (*entities.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	u, ok := m.users[telegramID]
	if !ok {
		return nil, repository.ErrUserNotFound
	}
	c := *u
	return &c, nil
}

func (m *memStore) ListActiveTelegramIDs(_ context.Context) ([]int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var ids []int64
	for _, u := range m.users {
		if !u.IsBlocked {
			ids = append(ids, u.TelegramID)
		}
	}
	slices.Sort(ids)
	return ids, nil
}

func (m *memStore) SetBlocked(_ context.Context, telegramID int64, blocked bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	u, ok := m.users[telegramID]
	if !ok {
		return repository.ErrUserNotFound
	}
	m.mutated("set_blocked")
	u.IsBlocked = blocked
	return nil
}

func (m *memStore) ListByUser(_ context.Context, userID int64) ([]*entities.LearningRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]*entities.LearningRecord, 0, len(m.records[userID]))
	for _, r := range m.records[userID] {
		c := *r
		out = append(out, &c)
	}
	slices.SortFunc(out, func(a, b *entities.LearningRecord) int {
		return cmp.Or(cmp.Compare(a.Word.Level, b.Word.Level), cmp.Compare(a.Word.ID, b.Word.ID))
	})
	return out, nil
}

func (m *memStore) ListUnassignedWords(_ context.Context, userID int64, limit int) ([]entities.Word, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []entities.Word
	for _, w := range m.sortedWords() {
		if _, ok := m.records[userID][w.ID]; ok {
			continue
		}
		if len(out) == limit {
			break
		}
		out = append(out, w)
	}
	return out, nil
}

func (m *memStore) sortedWords() []entities.Word {
	words := slices.Clone(m.words)
	slices.SortFunc(words, func(a, b entities.Word) int {
		return cmp.Or(cmp.Compare(a.Level, b.Level), cmp.Compare(a.ID, b.ID))
	})
	return words
}

func (m *memStore) SeedLevel(_ context.Context, userID int64, level int) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.mutated("seed_level")
	var n int64
	for _, w := range m.words {
		if w.Level != level {
			continue
		}
		if _, ok := m.records[userID][w.ID]; ok {
			continue
		}
		m.records[userID][w.ID] = entities.NewLearningRecord(userID, w)
		n++
	}
	return n, nil
}

func (m *memStore) Assign(_ context.Context, userID int64, wordIDs []int64) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.mutated("assign")
	var n int64
	for _, id := range wordIDs {
		if _, ok := m.records[userID][id]; ok {
			continue
		}
		for _, w := range m.words {
			if w.ID == id {
				m.records[userID][id] = entities.NewLearningRecord(userID, w)
				n++
			}
		}
	}
	return n, nil
}

func (m *memStore) MarkRevealed(_ context.Context, userID int64, wordIDs []int64, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.mutated("mark_revealed")
	for _, id := range wordIDs {
		if r, ok := m.records[userID][id]; ok {
			r.Counter++
			r.ClearQuiz()
			t := at
			r.LastExposureAt = &t
		}
	}
	return nil
}

func (m *memStore) ReserveQuiz(_ context.Context, userID, wordID int64, correctOption int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.mutated("reserve_quiz")
	r, ok := m.records[userID][wordID]
	if !ok {
		return repository.ErrRecordNotFound
	}
	r.ClearQuiz()
	r.CorrectOption = correctOption
	return nil
}

func (m *memStore) AttachQuizToken(_ context.Context, userID, wordID int64, token string, sentAt time.Time, fast bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.mutated("attach_quiz_token")
	r, ok := m.records[userID][wordID]
	if !ok || r.CorrectOption < 0 {
		return repository.ErrRecordNotFound
	}
	r.QuizToken, r.QuizSentAt, r.QuizFast = &token, &sentAt, fast
	return nil
}

func (m *memStore) ReleaseQuiz(_ context.Context, userID, wordID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.mutated("release_quiz")
	if r, ok := m.records[userID][wordID]; ok {
		r.ClearQuiz()
	}
	return nil
}

func (m *memStore) AbandonQuizzes(_ context.Context, userID int64) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.mutated("abandon_quizzes")
	var n int64
	for _, r := range m.records[userID] {
		if r.QuizToken != nil || r.CorrectOption != entities.NoCorrectOption {
			r.ClearQuiz()
			n++
		}
	}
	return n, nil
}

func (m *memStore) AnswerQuiz(_ context.Context, token string, chosen int, at time.Time) (*entities.AnswerOutcome, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, recs := range m.records {
		for _, r := range recs {
			if r.QuizToken == nil || *r.QuizToken != token {
				continue
			}
			m.mutated("answer_quiz")
			correct := r.Answer(chosen, at)
			return &entities.AnswerOutcome{UserID: r.UserID, WordID: r.Word.ID, Counter: r.Counter, Correct: correct}, nil
		}
	}
	return nil, repository.ErrRecordNotFound
}

func (m *memStore) MarkKnown(_ context.Context, userID, wordID int64, counter int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	r, ok := m.records[userID][wordID]
	if !ok {
		return repository.ErrRecordNotFound
	}
	m.mutated("mark_known")
	r.Counter = counter
	r.ClearQuiz()
	return nil
}

func (m *memStore) Decay(_ context.Context, userID int64, exposedBefore time.Time, amount, limit int) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.mutated("decay")
	var old []*entities.LearningRecord
	for _, r := range m.records[userID] {
		if r.Counter >= entities.MasteredThreshold && r.LastExposureAt != nil && r.LastExposureAt.Before(exposedBefore) {
			old = append(old, r)
		}
	}
	slices.SortFunc(old, func(a, b *entities.LearningRecord) int {
		return a.LastExposureAt.Compare(*b.LastExposureAt)
	})
	if len(old) > limit {
		old = old[:limit]
	}
	for _, r := range old {
		r.Counter -= amount
	}
	return int64(len(old)), nil
}

func (m *memStore) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type sentQuiz struct {
	chatID int64
	quiz   *entities.Quiz
	mode   entities.Mode
	token  string
}

// fakeTransport records sends. fail, when set, decides the error for each send.
type fakeTransport struct {
	mu        sync.Mutex
	quizzes   []sentQuiz
	reveals   []*entities.Reveal
	notices   []Notice
	summaries []entities.ProgressSummary
	texts     map[int64][]string
	attempts  map[int64]int
	seq       int

	fail func(chatID int64, attempt int) error
	// onQuiz runs once, after the first quiz is sent.
	onQuiz func(sent sentQuiz)
}

func newFakeTransport() *fakeTransport {
	return &fakeTransport{texts: make(map[int64][]string), attempts: make(map[int64]int)}
}

func (f *fakeTransport) try(chatID int64) error {
	f.attempts[chatID]++
	if f.fail == nil {
		return nil
	}
	return f.fail(chatID, f.attempts[chatID])
}

func (f *fakeTransport) SendQuiz(_ context.Context, chatID int64, quiz *entities.Quiz, mode entities.Mode) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.try(chatID); err != nil {
		return "", err
	}
	f.seq++
	token := fmt.Sprintf("poll-%d", f.seq)
	sent := sentQuiz{chatID: chatID, quiz: quiz, mode: mode, token: token}
	f.quizzes = append(f.quizzes, sent)
	if hook := f.onQuiz; hook != nil {
		f.onQuiz = nil
		hook(sent)
	}
	return token, nil
}

func (f *fakeTransport) SendReveal(_ context.Context, chatID int64, reveal *entities.Reveal) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.try(chatID); err != nil {
		return err
	}
	f.reveals = append(f.reveals, reveal)
	return nil
}

func (f *fakeTransport) SendNotice(_ context.Context, chatID int64, notice Notice) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.try(chatID); err != nil {
		return err
	}
	f.notices = append(f.notices, notice)
	return nil
}

func (f *fakeTransport) SendSummary(_ context.Context, chatID int64, summary entities.ProgressSummary) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.try(chatID); err != nil {
		return err
	}
	f.summaries = append(f.summaries, summary)
	return nil
}

func (f *fakeTransport) SendText(_ context.Context, chatID int64, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.try(chatID); err != nil {
		return err
	}
	f.texts[chatID] = append(f.texts[chatID], text)
	return nil
}

type mockDeliverer struct {
	DeliverFunc func(ctx context.Context, telegramID int64, trigger entities.Trigger) error
}

func (m *mockDeliverer) Deliver(ctx context.Context, telegramID int64, trigger entities.Trigger) error {
	return m.DeliverFunc(ctx, telegramID, trigger)
}

func (m *mockDeliverer) LockUser(int64) func() {
	return func() {}
}

type upperTranscriber struct{}

func (upperTranscriber) Transcribe(word string) string {
	return "[" + word + "]"
}

// noSleepBackoff records requested sleeps and advances a fake clock instead of blocking.
func noSleepBackoff(slept *[]time.Duration) *Backoff {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	b := NewBackoff()
	b.now = func() time.Time { return now }
	b.sleep = func(_ context.Context, d time.Duration) error {
		*slept = append(*slept, d)
		now = now.Add(d)
		return nil
	}
	return b
}

func nopLogger() *zap.Logger {
	return zap.NewNop()
}

func ago(now time.Time, d time.Duration) *time.Time {
	t := now.Add(-d)
	return &t
}

// records builds n records with the given counter and exposure, numbering words from firstID.
func records(firstID int64, n, counter int, exposedAt *time.Time) []*entities.LearningRecord {
	out := make([]*entities.LearningRecord, 0, n)
	for i := 0; i < n; i++ {
		id := firstID + int64(i)
		out = append(out, &entities.LearningRecord{
			Word: entities.Word{
				ID:     id,
				Source: fmt.Sprintf("src%d", id),
				Target: fmt.Sprintf("tgt%d", id),
				Level:  1,
			},
			Counter:        counter,
			LastExposureAt: exposedAt,
			CorrectOption:  entities.NoCorrectOption,
		})
	}
	return out
}
