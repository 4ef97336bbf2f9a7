package service

import (
	"cmp"
	"slices"
	"time"

	"github.com/aliskhannn/azvocab-bot/internal/domain/entities"
)

// Policy holds the exposure policy thresholds.
type Policy struct {
	RestBudget     int           // exposures inside Cooldown that trigger a rest notice
	Cooldown       time.Duration // minimum spacing between exposures of the same word
	ProductionMin  int           // production quiz fires when more unasked records than this
	PoolMin        int           // recognition and reveal pools must be larger than this
	RevealBatch    int
	IntroduceLimit int
	DecayAge       time.Duration
	DecayAmount    int
	DecayLimit     int
}

func DefaultPolicy() Policy {
	return Policy{
		RestBudget:     50,
		Cooldown:       6 * time.Hour,
		ProductionMin:  10,
		PoolMin:        20,
		RevealBatch:    5,
		IntroduceLimit: 20,
		DecayAge:       30 * 24 * time.Hour,
		DecayAmount:    2,
		DecayLimit:     5,
	}
}

// WordSelector picks the next delivery action from a user's learning records.
type WordSelector struct {
	policy Policy
}

func NewWordSelector(policy Policy) *WordSelector {
	return &WordSelector{policy: policy}
}

func (s *WordSelector) Policy() Policy {
	return s.policy
}

// Select returns the single next action by strict priority:
// rest, production quiz, recognition quiz, reveal, introduce.
// Select never mutates records; ActionIntroduce asks the caller to assign new words
// and call AfterIntroduction.
func (s *WordSelector) Select(records []*entities.LearningRecord, now time.Time) entities.Action {
	if s.CountExposed(records, now) >= s.policy.RestBudget {
		return entities.Action{Kind: entities.ActionRest}
	}

	var production, recognition, fresh []*entities.LearningRecord
	for _, r := range records {
		switch r.Band() {
		case entities.BandProduction:
			production = append(production, r)
		case entities.BandRecognition:
			recognition = append(recognition, r)
		case entities.BandNew, entities.BandLearning:
			fresh = append(fresh, r)
		}
	}

	if unasked := s.Unasked(production, now); len(unasked) > s.policy.ProductionMin {
		return entities.Action{Kind: entities.ActionProductionQuiz, Candidates: unasked}
	}

	if len(recognition) > s.policy.PoolMin {
		if unasked := s.Unasked(recognition, now); len(unasked) > 0 {
			return entities.Action{Kind: entities.ActionRecognitionQuiz, Candidates: unasked}
		}
	}

	if len(fresh) > s.policy.PoolMin {
		if unasked := s.Unasked(fresh, now); len(unasked) >= s.policy.RevealBatch {
			return entities.Action{Kind: entities.ActionReveal, Candidates: unasked}
		}
	}

	return entities.Action{Kind: entities.ActionIntroduce}
}

// AfterIntroduction resolves ActionIntroduce once new words were assigned.
// A full batch reveals only the introduced words, easiest first. A short batch is
// revealed together with the unasked words still waiting in the learning pool;
// with nothing waiting the user is caught up.
func (s *WordSelector) AfterIntroduction(
	records, introduced []*entities.LearningRecord, now time.Time,
) entities.Action {
	if len(introduced) >= s.policy.RevealBatch {
		return entities.Action{Kind: entities.ActionReveal, Candidates: byDifficulty(introduced), Ordered: true}
	}

	var waiting []*entities.LearningRecord
	for _, r := range records {
		if b := r.Band(); b == entities.BandNew || b == entities.BandLearning {
			waiting = append(waiting, r)
		}
	}
	waiting = s.Unasked(waiting, now)

	if len(waiting) == 0 {
		return entities.Action{Kind: entities.ActionCaughtUp}
	}

	candidates := make([]*entities.LearningRecord, 0, len(waiting)+len(introduced))
	candidates = append(candidates, waiting...)
	candidates = append(candidates, introduced...)

	return entities.Action{Kind: entities.ActionReveal, Candidates: byDifficulty(candidates), Ordered: true}
}

// byDifficulty returns records ordered by level, then word id.
func byDifficulty(records []*entities.LearningRecord) []*entities.LearningRecord {
	out := slices.Clone(records)
	slices.SortStableFunc(out, func(a, b *entities.LearningRecord) int {
		return cmp.Or(
			cmp.Compare(a.Word.Level, b.Word.Level),
			cmp.Compare(a.Word.ID, b.Word.ID),
		)
	})
	return out
}

// Unasked keeps records that were never shown or were last shown at least Cooldown ago.
func (s *WordSelector) Unasked(records []*entities.LearningRecord, now time.Time) []*entities.LearningRecord {
	out := make([]*entities.LearningRecord, 0, len(records))
	for _, r := range records {
		if !r.ExposedWithin(now, s.policy.Cooldown) {
			out = append(out, r)
		}
	}
	return out
}

// CountExposed counts records shown less than Cooldown ago.
func (s *WordSelector) CountExposed(records []*entities.LearningRecord, now time.Time) int {
	n := 0
	for _, r := range records {
		if r.ExposedWithin(now, s.policy.Cooldown) {
			n++
		}
	}
	return n
}
