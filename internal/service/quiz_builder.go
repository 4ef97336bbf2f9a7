package service

import (
	"fmt"
	"math/rand/v2"
	"slices"
	"sync"

	"github.com/aliskhannn/azvocab-bot/internal/domain/entities"
)

const maxDistractors = 3

// QuizBuilder turns selected actions into quiz and reveal payloads.
type QuizBuilder struct {
	transcriber Transcriber

	mu  sync.Mutex
	rnd *rand.Rand
}

// NewQuizBuilder creates a builder. A nil src seeds from the runtime.
func NewQuizBuilder(transcriber Transcriber, src rand.Source) *QuizBuilder {
	if src == nil {
		src = rand.NewPCG(rand.Uint64(), rand.Uint64())
	}
	return &QuizBuilder{
		transcriber: transcriber,
		rnd:         rand.New(src),
	}
}

// Quiz picks a target uniformly from the action candidates and builds a multiple choice
// question. Distractors come from the other non-mastered records in pool.
func (b *QuizBuilder) Quiz(action entities.Action, pool []*entities.LearningRecord) (*entities.Quiz, error) {
	var dir entities.QuizDirection
	switch action.Kind {
	case entities.ActionProductionQuiz:
		dir = entities.DirectionProduction
	case entities.ActionRecognitionQuiz:
		dir = entities.DirectionRecognition
	default:
		return nil, fmt.Errorf("build quiz: unexpected action %s", action.Kind)
	}
	if len(action.Candidates) == 0 {
		return nil, fmt.Errorf("build quiz: no candidates for %s", action.Kind)
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	target := action.Candidates[b.rnd.IntN(len(action.Candidates))]
	correct := dir.Answer(target.Word)

	seen := map[string]struct{}{correct: {}}
	distractors := make([]string, 0, len(pool))
	for _, r := range pool {
		if r == target || r.Band() == entities.BandMastered || r.Word.Source == target.Word.Source {
			continue
		}
		text := dir.Answer(r.Word)
		if _, dup := seen[text]; dup || text == "" {
			continue
		}
		seen[text] = struct{}{}
		distractors = append(distractors, text)
	}
	b.rnd.Shuffle(len(distractors), func(i, j int) {
		distractors[i], distractors[j] = distractors[j], distractors[i]
	})
	if len(distractors) > maxDistractors {
		distractors = distractors[:maxDistractors]
	}

	options := append(distractors, correct)
	b.rnd.Shuffle(len(options), func(i, j int) {
		options[i], options[j] = options[j], options[i]
	})

	correctIndex := entities.NoCorrectOption
	for i, o := range options {
		if o == correct {
			correctIndex = i
			break
		}
	}

	q := &entities.Quiz{
		Record:       target,
		Direction:    dir,
		Question:     dir.Prompt(target.Word),
		Options:      options,
		CorrectIndex: correctIndex,
	}
	if len(options) < 2 {
		return q, ErrNotEnoughOptions
	}

	return q, nil
}

// Reveal renders up to batch words. Unordered candidates are sampled at random.
// New words show their translation; all others are masked.
func (b *QuizBuilder) Reveal(userID int64, action entities.Action, batch int) *entities.Reveal {
	candidates := slices.Clone(action.Candidates)
	if !action.Ordered {
		b.mu.Lock()
		b.rnd.Shuffle(len(candidates), func(i, j int) {
			candidates[i], candidates[j] = candidates[j], candidates[i]
		})
		b.mu.Unlock()
	}
	if len(candidates) > batch {
		candidates = candidates[:batch]
	}

	reveal := &entities.Reveal{UserID: userID, Items: make([]entities.RevealItem, 0, len(candidates))}
	for _, r := range candidates {
		reveal.Items = append(reveal.Items, entities.RevealItem{
			Word:          r.Word,
			Transcription: b.Transcription(r.Word),
			Masked:        r.Band() != entities.BandNew,
		})
	}
	return reveal
}

// Transcription prefers the precomputed transcription of the word.
func (b *QuizBuilder) Transcription(w entities.Word) string {
	if w.Transcription != "" {
		return w.Transcription
	}
	return b.transcriber.Transcribe(w.Source)
}
