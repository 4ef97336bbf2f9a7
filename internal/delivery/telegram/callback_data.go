package telegram

import (
	"strconv"
	"strings"

	"github.com/aliskhannn/azvocab-bot/internal/service"
)

// Callback action tags.
const (
	actionLearnNow  = "learn_now"
	actionLearnMore = "learn_more"
)

// callbackAction is one of learnNow or learnMore.
type callbackAction interface {
	encode() string
}

// learnNow marks a word as already known.
type learnNow struct {
	UserID int64 // internal user id
	WordID int64
}

func (a learnNow) encode() string {
	return actionLearnNow + ":" + strconv.FormatInt(a.UserID, 10) + ":" + strconv.FormatInt(a.WordID, 10)
}

// learnMore skips the current quiz and asks for the next item.
type learnMore struct{}

func (learnMore) encode() string {
	return actionLearnMore
}

// decodeCallback parses callback data. Unknown or malformed payloads
// return service.ErrStaleCorrelation.
func decodeCallback(data string) (callbackAction, error) {
	parts := strings.Split(strings.TrimSpace(data), ":")

	switch parts[0] {
	case actionLearnMore:
		return learnMore{}, nil

	case actionLearnNow:
		if len(parts) != 3 {
			return nil, service.ErrStaleCorrelation
		}
		userID, err := strconv.ParseInt(parts[1], 10, 64)
		if err != nil || userID <= 0 {
			return nil, service.ErrStaleCorrelation
		}
		wordID, err := strconv.ParseInt(parts[2], 10, 64)
		if err != nil || wordID <= 0 {
			return nil, service.ErrStaleCorrelation
		}
		return learnNow{UserID: userID, WordID: wordID}, nil
	}

	return nil, service.ErrStaleCorrelation
}
