// Package entities contains domain entities used across the application.
package entities

import "strconv"

// Word is a single vocabulary entry. Words are reference data shared by all users.
type Word struct {
	ID            int64
	Source        string // word in the language being learned
	Target        string // translation in the learner's language
	Emoji         string
	Level         int    // difficulty level, lower is easier
	Transcription string // optional precomputed phonetic rendering
}

func formatID(id int64) string {
	return strconv.FormatInt(id, 10)
}
