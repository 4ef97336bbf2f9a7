package entities

// QuizDirection tells which side of the word is asked and which is answered.
type QuizDirection int

const (
	// DirectionRecognition asks the source word and offers translations.
	DirectionRecognition QuizDirection = iota + 1
	// DirectionProduction asks the translation and offers source words.
	DirectionProduction
)

func (d QuizDirection) String() string {
	if d == DirectionProduction {
		return "target_to_source"
	}
	return "source_to_target"
}

// Prompt returns the side of the word shown as the question.
func (d QuizDirection) Prompt(w Word) string {
	if d == DirectionProduction {
		return w.Target
	}
	return w.Source
}

// Answer returns the side of the word offered as options.
func (d QuizDirection) Answer(w Word) string {
	if d == DirectionProduction {
		return w.Source
	}
	return w.Target
}

// Quiz is a built multiple choice question about one learning record.
type Quiz struct {
	Record       *LearningRecord
	Direction    QuizDirection
	Question     string
	Options      []string
	CorrectIndex int
}

// RevealItem is one word of a plain reveal message.
type RevealItem struct {
	Word          Word
	Transcription string
	Masked        bool // translation is hidden behind a spoiler
}

// Reveal is a plain message introducing or repeating a batch of words.
type Reveal struct {
	UserID int64 // internal user id
	Items  []RevealItem
}
