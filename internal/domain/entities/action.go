package entities

// ActionKind is the delivery action chosen for a user on one cycle.
type ActionKind int

const (
	ActionRest ActionKind = iota + 1
	ActionProductionQuiz
	ActionRecognitionQuiz
	ActionReveal
	ActionIntroduce
	ActionCaughtUp
)

func (k ActionKind) String() string {
	switch k {
	case ActionRest:
		return "rest"
	case ActionProductionQuiz:
		return "production_quiz"
	case ActionRecognitionQuiz:
		return "recognition_quiz"
	case ActionReveal:
		return "reveal"
	case ActionIntroduce:
		return "introduce"
	case ActionCaughtUp:
		return "caught_up"
	default:
		return "unknown"
	}
}

// Action is the outcome of word selection.
// Candidates holds the eligible records for quiz and reveal actions.
// Ordered reveals keep the candidate order instead of sampling.
type Action struct {
	Kind       ActionKind
	Candidates []*LearningRecord
	Ordered    bool
}

// Mode controls the response window hint passed to the transport.
type Mode int

const (
	ModeScheduled Mode = iota // long window, open-ended interaction
	ModeFast                  // short window, answer-triggered re-delivery
)

func (m Mode) String() string {
	if m == ModeFast {
		return "fast"
	}
	return "scheduled"
}

// Trigger is what started a delivery cycle.
type Trigger int

const (
	TriggerScheduled Trigger = iota // timer tick
	TriggerRequest                  // explicit user request
	TriggerAnswer                   // follow-up to an answered quiz
)

func (t Trigger) String() string {
	switch t {
	case TriggerRequest:
		return "request"
	case TriggerAnswer:
		return "answer"
	default:
		return "scheduled"
	}
}

// Mode returns the response window mode for the trigger.
func (t Trigger) Mode() Mode {
	if t == TriggerAnswer {
		return ModeFast
	}
	return ModeScheduled
}
