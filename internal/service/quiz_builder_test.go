package service

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aliskhannn/azvocab-bot/internal/domain/entities"
)

func TestQuizBuilder_Quiz(t *testing.T) {
	pool := concat(
		records(1, 5, 3, nil),
		records(100, 5, entities.MasteredThreshold, nil),
	)
	// Same source as the target and a duplicate translation must never be offered.
	pool[1].Word.Source = pool[0].Word.Source
	pool[2].Word.Target = pool[3].Word.Target

	for seed := uint64(0); seed < 200; seed++ {
		b := NewQuizBuilder(upperTranscriber{}, rand.NewPCG(seed, seed))
		action := entities.Action{Kind: entities.ActionRecognitionQuiz, Candidates: pool[:1]}

		q, err := b.Quiz(action, pool)
		require.NoError(t, err)

		assert.Same(t, pool[0], q.Record)
		assert.Equal(t, entities.DirectionRecognition, q.Direction)
		assert.Equal(t, pool[0].Word.Source, q.Question)
		require.GreaterOrEqual(t, len(q.Options), 2)
		require.LessOrEqual(t, len(q.Options), 4)
		require.Equal(t, pool[0].Word.Target, q.Options[q.CorrectIndex])

		seen := map[string]bool{}
		for _, o := range q.Options {
			assert.False(t, seen[o], "duplicate option %q", o)
			seen[o] = true
			assert.NotEqual(t, pool[1].Word.Target, o)
			assert.NotContains(t, []string{"tgt100", "tgt101", "tgt102", "tgt103", "tgt104"}, o)
		}
	}
}

func TestQuizBuilder_ProductionAsksTarget(t *testing.T) {
	pool := records(1, 12, 8, nil)
	b := NewQuizBuilder(upperTranscriber{}, rand.NewPCG(1, 2))

	q, err := b.Quiz(entities.Action{Kind: entities.ActionProductionQuiz, Candidates: pool}, pool)
	require.NoError(t, err)

	assert.Equal(t, entities.DirectionProduction, q.Direction)
	assert.Equal(t, q.Record.Word.Target, q.Question)
	assert.Len(t, q.Options, 4)
	assert.Equal(t, q.Record.Word.Source, q.Options[q.CorrectIndex])
}

func TestQuizBuilder_NotEnoughOptions(t *testing.T) {
	pool := records(1, 1, 3, nil)
	b := NewQuizBuilder(upperTranscriber{}, rand.NewPCG(1, 2))

	q, err := b.Quiz(entities.Action{Kind: entities.ActionRecognitionQuiz, Candidates: pool}, pool)
	require.ErrorIs(t, err, ErrNotEnoughOptions)
	assert.Equal(t, []string{"tgt1"}, q.Options)
	assert.Equal(t, 0, q.CorrectIndex)
}

func TestQuizBuilder_QuizRejectsOtherActions(t *testing.T) {
	b := NewQuizBuilder(upperTranscriber{}, nil)

	_, err := b.Quiz(entities.Action{Kind: entities.ActionReveal, Candidates: records(1, 3, 0, nil)}, nil)
	require.Error(t, err)

	_, err = b.Quiz(entities.Action{Kind: entities.ActionRecognitionQuiz}, nil)
	require.Error(t, err)
}

func TestQuizBuilder_Reveal(t *testing.T) {
	recs := concat(records(1, 1, -1, nil), records(2, 6, 1, nil))
	recs[0].Word.Transcription = "precomputed"
	b := NewQuizBuilder(upperTranscriber{}, rand.NewPCG(3, 4))

	reveal := b.Reveal(42, entities.Action{Kind: entities.ActionReveal, Candidates: recs, Ordered: true}, 5)
	require.Len(t, reveal.Items, 5)
	assert.EqualValues(t, 42, reveal.UserID)

	first := reveal.Items[0]
	assert.False(t, first.Masked)
	assert.Equal(t, "precomputed", first.Transcription)

	for _, it := range reveal.Items[1:] {
		assert.True(t, it.Masked)
		assert.Equal(t, "["+it.Word.Source+"]", it.Transcription)
	}
}

func TestQuizBuilder_RevealSamplesWithoutMutatingCandidates(t *testing.T) {
	recs := records(1, 30, 0, nil)
	b := NewQuizBuilder(upperTranscriber{}, rand.NewPCG(5, 6))

	reveal := b.Reveal(1, entities.Action{Kind: entities.ActionReveal, Candidates: recs}, 5)
	require.Len(t, reveal.Items, 5)

	for i, r := range recs {
		assert.EqualValues(t, i+1, r.Word.ID)
	}
}
