package entities

import "time"

// Mastery counter thresholds.
const (
	CounterNotIntroduced = -1
	CounterIntroduced    = 0

	RecognitionThreshold = 2  // counter >= 2 is practiced with recognition quizzes
	ProductionThreshold  = 8  // counter >= 8 is practiced with production quizzes
	MasteredThreshold    = 10 // counter >= 10 is considered learned

	NoCorrectOption = -1
)

// Band is a classification derived from the mastery counter. It is never stored.
type Band int

const (
	BandNew Band = iota
	BandLearning
	BandRecognition
	BandProduction
	BandMastered
)

var bandNames = [...]string{
	BandNew:         "new",
	BandLearning:    "learning",
	BandRecognition: "recognition-practice",
	BandProduction:  "production-practice",
	BandMastered:    "mastered",
}

func (b Band) String() string {
	if b < BandNew || b > BandMastered {
		return "unknown"
	}
	return bandNames[b]
}

// BandOf maps a mastery counter to its band. Counters below -1 are treated as new.
func BandOf(counter int) Band {
	switch {
	case counter < CounterIntroduced:
		return BandNew
	case counter < RecognitionThreshold:
		return BandLearning
	case counter < ProductionThreshold:
		return BandRecognition
	case counter < MasteredThreshold:
		return BandProduction
	default:
		return BandMastered
	}
}

// LearningRecord tracks one user's familiarity with one word, joined with the word itself.
type LearningRecord struct {
	UserID         int64 // internal user id
	Word           Word
	Counter        int        // mastery counter
	LastExposureAt *time.Time // nil until the word is first shown
	QuizToken      *string    // correlation token of the in-flight quiz
	CorrectOption  int        // correct option of the in-flight quiz, NoCorrectOption when none
	QuizSentAt     *time.Time // when the in-flight quiz was dispatched
	QuizFast       bool       // in-flight quiz uses the fast response window
}

// NewLearningRecord creates a record for a freshly assigned word.
func NewLearningRecord(userID int64, word Word) *LearningRecord {
	return &LearningRecord{
		UserID:        userID,
		Word:          word,
		Counter:       CounterNotIntroduced,
		CorrectOption: NoCorrectOption,
	}
}

func (r *LearningRecord) Band() Band {
	return BandOf(r.Counter)
}

// ExposedWithin reports whether the word was shown less than window ago.
func (r *LearningRecord) ExposedWithin(now time.Time, window time.Duration) bool {
	if r.LastExposureAt == nil {
		return false
	}
	return now.Sub(*r.LastExposureAt) < window
}

// HasPendingQuiz reports whether a dispatched quiz is still waiting for an answer.
func (r *LearningRecord) HasPendingQuiz() bool {
	return r.QuizToken != nil && r.CorrectOption != NoCorrectOption
}

// Answer applies a quiz answer to the counter and clears the quiz fields.
// It returns true when the chosen option was correct.
func (r *LearningRecord) Answer(chosen int, now time.Time) bool {
	correct := chosen == r.CorrectOption
	if correct {
		r.Counter++
	} else {
		r.Counter--
	}
	r.ClearQuiz()
	r.LastExposureAt = &now
	return correct
}

// ClearQuiz resets the in-flight quiz fields.
func (r *LearningRecord) ClearQuiz() {
	r.QuizToken = nil
	r.CorrectOption = NoCorrectOption
	r.QuizSentAt = nil
	r.QuizFast = false
}
