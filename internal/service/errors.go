package service

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrRecipientBlocked   = errors.New("recipient blocked the bot")
	ErrRecipientNotFound  = errors.New("recipient not found")
	ErrTransientTransport = errors.New("transient transport error")

	// ErrStaleCorrelation marks an inbound event that references an unknown or expired quiz,
	// or a malformed action payload.
	ErrStaleCorrelation = errors.New("stale correlation")
	ErrForbidden        = errors.New("forbidden")
	ErrNotEnoughOptions = errors.New("not enough quiz options")
)

// RateLimitedError asks the caller to suspend all sends for RetryAfter.
type RateLimitedError struct {
	RetryAfter time.Duration
}

func (e *RateLimitedError) Error() string {
	return fmt.Sprintf("rate limited, retry after %s", e.RetryAfter)
}

// IsDeliveryFailure reports whether err is a classified transport failure.
func IsDeliveryFailure(err error) bool {
	var rl *RateLimitedError
	return errors.Is(err, ErrRecipientBlocked) ||
		errors.Is(err, ErrRecipientNotFound) ||
		errors.Is(err, ErrTransientTransport) ||
		errors.As(err, &rl)
}
