package entities

// Lesson is a static grammar lesson linked from the menu.
type Lesson struct {
	ID         int64
	Name       string
	Link       string
	LearnOrder int
}
