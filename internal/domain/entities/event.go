package entities

// AnswerEvent is an inbound quiz answer.
type AnswerEvent struct {
	Token       string // correlation token of the quiz
	Chosen      int    // chosen option index
	ResponderID int64  // external identity of the responder
}

// AnswerOutcome is the result of applying an answer to a learning record.
type AnswerOutcome struct {
	UserID  int64 // internal user id
	WordID  int64
	Counter int // counter after the answer
	Correct bool
}
