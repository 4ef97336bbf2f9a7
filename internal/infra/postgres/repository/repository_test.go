package repository

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/aliskhannn/azvocab-bot/internal/domain/entities"
	"github.com/aliskhannn/azvocab-bot/internal/infra/postgres"
)

var pool *pgxpool.Pool

func startPostgres(ctx context.Context) (string, func()) {
	req := testcontainers.ContainerRequest{
		Image:        "postgres:18-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "test",
			"POSTGRES_PASSWORD": "test",
			"POSTGRES_DB":       "test",
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).
			WithStartupTimeout(time.Minute),
	}

	cont, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		log.Fatalf("failed to start postgres container: %v", err)
	}

	host, err := cont.Host(ctx)
	if err != nil {
		log.Fatalf("failed to get host: %v", err)
	}

	port, err := cont.MappedPort(ctx, "5432/tcp")
	if err != nil {
		log.Fatalf("failed to get port: %v", err)
	}

	closer := func() {
		_ = cont.Terminate(ctx)
	}
	return fmt.Sprintf("postgres://test:test@%s:%s/test?sslmode=disable", host, port.Port()), closer
}

func TestMain(m *testing.M) {
	flag.Parse()
	if testing.Short() {
		os.Exit(m.Run())
	}

	ctx := context.Background()
	dsn, closer := startPostgres(ctx)

	if err := postgres.Migrate(dsn); err != nil {
		closer()
		log.Fatalf("failed to run migrations: %v", err)
	}

	var err error
	pool, err = postgres.NewPool(ctx, dsn, postgres.PoolConfig{MaxConns: 5})
	if err != nil {
		closer()
		log.Fatalf("failed to connect to postgres: %v", err)
	}

	code := m.Run()
	pool.Close()
	closer()
	os.Exit(code)
}

func setup(t *testing.T) {
	t.Helper()
	if pool == nil {
		t.Skip("postgres integration tests are skipped in short mode")
	}

	_, err := pool.Exec(t.Context(), `TRUNCATE users, words, lessons, learning_records RESTART IDENTITY CASCADE`)
	require.NoError(t, err)
}

func seedWords(t *testing.T, words ...entities.Word) []int64 {
	t.Helper()

	repo := NewWordRepository(pool)
	ids := make([]int64, 0, len(words))
	for i := range words {
		id, err := repo.Upsert(t.Context(), &words[i])
		require.NoError(t, err)
		ids = append(ids, id)
	}
	return ids
}

func seedUser(t *testing.T, tgID int64, username string) *entities.User {
	t.Helper()

	u, err := NewUserRepository(pool).Upsert(t.Context(), entities.NewUser(tgID, username, "Test"))
	require.NoError(t, err)
	return u
}

func recordFor(t *testing.T, userID, wordID int64) *entities.LearningRecord {
	t.Helper()

	records, err := NewLearningRepository(pool).ListByUser(t.Context(), userID)
	require.NoError(t, err)
	for _, r := range records {
		if r.Word.ID == wordID {
			return r
		}
	}
	t.Fatalf("record for word %d not found", wordID)
	return nil
}

func TestUserRepository_UpsertClearsBlock(t *testing.T) {
	setup(t)
	repo := NewUserRepository(pool)

	u := seedUser(t, 100, "alice")
	require.NoError(t, repo.SetBlocked(t.Context(), 100, true))

	ids, err := repo.ListActiveTelegramIDs(t.Context())
	require.NoError(t, err)
	assert.Empty(t, ids)

	again, err := repo.Upsert(t.Context(), entities.NewUser(100, "alice2", "Alice"))
	require.NoError(t, err)
	assert.Equal(t, u.ID, again.ID)
	assert.False(t, again.IsBlocked)
	assert.Equal(t, "alice2", again.Username)

	ids, err = repo.ListActiveTelegramIDs(t.Context())
	require.NoError(t, err)
	assert.Equal(t, []int64{100}, ids)
}

func TestUserRepository_NotFound(t *testing.T) {
	setup(t)
	repo := NewUserRepository(pool)

	_, err := repo.GetByTelegramID(t.Context(), 42)
	require.ErrorIs(t, err, ErrUserNotFound)
	require.ErrorIs(t, repo.SetBlocked(t.Context(), 42, true), ErrUserNotFound)
}

func TestLearningRepository_SeedAndAssign(t *testing.T) {
	setup(t)
	ids := seedWords(t,
		entities.Word{Source: "ev", Target: "дом", Level: 1},
		entities.Word{Source: "su", Target: "вода", Level: 1},
		entities.Word{Source: "kitab", Target: "книга", Level: 2},
		entities.Word{Source: "qələm", Target: "ручка", Level: 3},
	)
	u := seedUser(t, 1, "")
	repo := NewLearningRepository(pool)

	n, err := repo.SeedLevel(t.Context(), u.ID, 1)
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)

	n, err = repo.SeedLevel(t.Context(), u.ID, 1)
	require.NoError(t, err)
	assert.EqualValues(t, 0, n)

	unassigned, err := repo.ListUnassignedWords(t.Context(), u.ID, 10)
	require.NoError(t, err)
	require.Len(t, unassigned, 2)
	assert.Equal(t, "kitab", unassigned[0].Source)
	assert.Equal(t, "qələm", unassigned[1].Source)

	n, err = repo.Assign(t.Context(), u.ID, []int64{ids[2], ids[0]})
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	records, err := repo.ListByUser(t.Context(), u.ID)
	require.NoError(t, err)
	require.Len(t, records, 3)
	for _, r := range records {
		assert.Equal(t, entities.CounterNotIntroduced, r.Counter)
		assert.Nil(t, r.LastExposureAt)
		assert.False(t, r.HasPendingQuiz())
	}
}

func TestLearningRepository_QuizLifecycle(t *testing.T) {
	setup(t)
	ids := seedWords(t, entities.Word{Source: "ev", Target: "дом", Level: 1})
	u := seedUser(t, 1, "")
	repo := NewLearningRepository(pool)
	_, err := repo.SeedLevel(t.Context(), u.ID, 1)
	require.NoError(t, err)

	now := time.Now().UTC().Truncate(time.Microsecond)
	require.NoError(t, repo.MarkRevealed(t.Context(), u.ID, []int64{ids[0]}, now))
	require.NoError(t, repo.ReserveQuiz(t.Context(), u.ID, ids[0], 2))
	require.NoError(t, repo.AttachQuizToken(t.Context(), u.ID, ids[0], "T", now, true))

	rec := recordFor(t, u.ID, ids[0])
	require.True(t, rec.HasPendingQuiz())
	assert.Equal(t, 2, rec.CorrectOption)
	assert.True(t, rec.QuizFast)

	out, err := repo.AnswerQuiz(t.Context(), "T", 2, now.Add(time.Minute))
	require.NoError(t, err)
	assert.True(t, out.Correct)
	assert.Equal(t, u.ID, out.UserID)
	assert.Equal(t, 1, out.Counter)

	rec = recordFor(t, u.ID, ids[0])
	assert.False(t, rec.HasPendingQuiz())
	assert.Nil(t, rec.QuizToken)
	assert.Equal(t, entities.NoCorrectOption, rec.CorrectOption)
	require.NotNil(t, rec.LastExposureAt)
	assert.True(t, rec.LastExposureAt.Equal(now.Add(time.Minute)))

	_, err = repo.AnswerQuiz(t.Context(), "T", 2, now)
	require.ErrorIs(t, err, ErrRecordNotFound)
	assert.Equal(t, 1, recordFor(t, u.ID, ids[0]).Counter)
}

func TestLearningRepository_WrongAnswerDecrements(t *testing.T) {
	setup(t)
	ids := seedWords(t, entities.Word{Source: "ev", Target: "дом", Level: 1})
	u := seedUser(t, 1, "")
	repo := NewLearningRepository(pool)
	_, err := repo.SeedLevel(t.Context(), u.ID, 1)
	require.NoError(t, err)

	require.NoError(t, repo.ReserveQuiz(t.Context(), u.ID, ids[0], 0))
	require.NoError(t, repo.AttachQuizToken(t.Context(), u.ID, ids[0], "W", time.Now(), false))

	out, err := repo.AnswerQuiz(t.Context(), "W", 3, time.Now())
	require.NoError(t, err)
	assert.False(t, out.Correct)
	assert.Equal(t, -2, out.Counter)
}

func TestLearningRepository_ReleaseAndAbandon(t *testing.T) {
	setup(t)
	ids := seedWords(t,
		entities.Word{Source: "ev", Target: "дом", Level: 1},
		entities.Word{Source: "su", Target: "вода", Level: 1},
	)
	u := seedUser(t, 1, "")
	repo := NewLearningRepository(pool)
	_, err := repo.SeedLevel(t.Context(), u.ID, 1)
	require.NoError(t, err)

	require.NoError(t, repo.ReserveQuiz(t.Context(), u.ID, ids[0], 1))
	require.NoError(t, repo.ReleaseQuiz(t.Context(), u.ID, ids[0]))
	assert.Equal(t, entities.NoCorrectOption, recordFor(t, u.ID, ids[0]).CorrectOption)

	require.NoError(t, repo.ReserveQuiz(t.Context(), u.ID, ids[1], 1))
	require.NoError(t, repo.AttachQuizToken(t.Context(), u.ID, ids[1], "A", time.Now(), false))

	n, err := repo.AbandonQuizzes(t.Context(), u.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	_, err = repo.AnswerQuiz(t.Context(), "A", 1, time.Now())
	require.ErrorIs(t, err, ErrRecordNotFound)

	require.ErrorIs(t, repo.ReserveQuiz(t.Context(), u.ID, 999, 1), ErrRecordNotFound)
}

func TestLearningRepository_MarkKnownAndDecay(t *testing.T) {
	setup(t)
	ids := seedWords(t,
		entities.Word{Source: "a1", Target: "t1", Level: 1},
		entities.Word{Source: "a2", Target: "t2", Level: 1},
		entities.Word{Source: "a3", Target: "t3", Level: 1},
	)
	u := seedUser(t, 1, "")
	repo := NewLearningRepository(pool)
	_, err := repo.SeedLevel(t.Context(), u.ID, 1)
	require.NoError(t, err)

	now := time.Now().UTC()
	old := now.Add(-40 * 24 * time.Hour)
	older := now.Add(-50 * 24 * time.Hour)

	require.NoError(t, repo.MarkRevealed(t.Context(), u.ID, []int64{ids[0]}, old))
	require.NoError(t, repo.MarkRevealed(t.Context(), u.ID, []int64{ids[1]}, older))
	require.NoError(t, repo.MarkRevealed(t.Context(), u.ID, []int64{ids[2]}, now))
	for _, id := range ids {
		require.NoError(t, repo.MarkKnown(t.Context(), u.ID, id, entities.MasteredThreshold))
	}

	n, err := repo.Decay(t.Context(), u.ID, now.Add(-30*24*time.Hour), 2, 1)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	assert.Equal(t, 10, recordFor(t, u.ID, ids[0]).Counter)
	assert.Equal(t, 8, recordFor(t, u.ID, ids[1]).Counter)
	assert.Equal(t, 10, recordFor(t, u.ID, ids[2]).Counter)
}

func TestLearningRepository_TxRollback(t *testing.T) {
	setup(t)
	ids := seedWords(t, entities.Word{Source: "ev", Target: "дом", Level: 1})
	u := seedUser(t, 1, "")
	repo := NewLearningRepository(pool)
	tr := postgres.NewTransactor(pool)

	errBoom := fmt.Errorf("boom")
	err := tr.WithinTx(t.Context(), func(ctx context.Context) error {
		if _, err := repo.Assign(ctx, u.ID, ids); err != nil {
			return err
		}
		return errBoom
	})
	require.ErrorIs(t, err, errBoom)

	records, err := repo.ListByUser(t.Context(), u.ID)
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestLessonRepository(t *testing.T) {
	setup(t)
	_, err := pool.Exec(t.Context(), `
		INSERT INTO lessons (name, link, learn_order) VALUES
			('Падежи', 'https://example.org/cases', 2),
			('Алфавит', 'https://example.org/alphabet', 1)
	`)
	require.NoError(t, err)

	repo := NewLessonRepository(pool)
	lessons, err := repo.List(t.Context())
	require.NoError(t, err)
	require.Len(t, lessons, 2)
	assert.Equal(t, "Алфавит", lessons[0].Name)

	l, err := repo.GetByID(t.Context(), lessons[1].ID)
	require.NoError(t, err)
	assert.Equal(t, "https://example.org/cases", l.Link)

	_, err = repo.GetByID(t.Context(), 999)
	require.ErrorIs(t, err, ErrLessonNotFound)
}

func TestStatsRepository(t *testing.T) {
	setup(t)
	ids := seedWords(t,
		entities.Word{Source: "a1", Target: "t1", Level: 1},
		entities.Word{Source: "a2", Target: "t2", Level: 2},
	)
	alice := seedUser(t, 1, "alice")
	bob := seedUser(t, 2, "")
	repo := NewLearningRepository(pool)
	now := time.Now().UTC()

	_, err := repo.Assign(t.Context(), alice.ID, ids)
	require.NoError(t, err)
	_, err = repo.Assign(t.Context(), bob.ID, ids)
	require.NoError(t, err)

	require.NoError(t, repo.MarkRevealed(t.Context(), alice.ID, ids, now))
	require.NoError(t, repo.MarkKnown(t.Context(), alice.ID, ids[1], entities.MasteredThreshold))
	require.NoError(t, repo.MarkRevealed(t.Context(), bob.ID, ids[:1], now))

	stats := NewStatsRepository(pool)
	top, err := stats.Top(t.Context(), now.Add(-24*time.Hour), 20)
	require.NoError(t, err)
	require.Len(t, top, 2)
	assert.Equal(t, entities.LeaderboardEntry{User: "alice", WordsMastered: 1, WordsPracticed: 2, MaxLevel: 2}, top[0])
	assert.Equal(t, entities.LeaderboardEntry{User: "2", WordsMastered: 0, WordsPracticed: 1, MaxLevel: 1}, top[1])

	recent, err := stats.Recent(t.Context(), 10)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, "2", recent[0].User)
}
