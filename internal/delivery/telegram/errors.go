package telegram

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/aliskhannn/azvocab-bot/internal/service"
)

// defaultRetryAfter is used when a 429 response carries no retry_after.
const defaultRetryAfter = 5 * time.Second

// classify maps a Bot API failure onto the service transport error taxonomy.
func classify(err error) error {
	if err == nil {
		return nil
	}

	apiErr, ok := asAPIError(err)
	if !ok {
		return fmt.Errorf("%w: %w", service.ErrTransientTransport, err)
	}

	switch apiErr.Code {
	case http.StatusForbidden:
		return fmt.Errorf("%w: %s", service.ErrRecipientBlocked, apiErr.Message)
	case http.StatusBadRequest:
		if isChatNotFound(apiErr.Message) {
			return fmt.Errorf("%w: %s", service.ErrRecipientNotFound, apiErr.Message)
		}
	case http.StatusTooManyRequests:
		retry := time.Duration(apiErr.RetryAfter) * time.Second
		if retry <= 0 {
			retry = defaultRetryAfter
		}
		return &service.RateLimitedError{RetryAfter: retry}
	}

	return fmt.Errorf("%w: %d %s", service.ErrTransientTransport, apiErr.Code, apiErr.Message)
}

func asAPIError(err error) (tgbotapi.Error, bool) {
	var ptr *tgbotapi.Error
	if errors.As(err, &ptr) && ptr != nil {
		return *ptr, true
	}

	var val tgbotapi.Error
	if errors.As(err, &val) {
		return val, true
	}

	return tgbotapi.Error{}, false
}

func isChatNotFound(message string) bool {
	m := strings.ToLower(message)
	return strings.Contains(m, "chat not found") || strings.Contains(m, "user not found")
}
