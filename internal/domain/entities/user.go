package entities

import "time"

// User represents a bot user.
type User struct {
	ID               int64  // internal numeric id
	TelegramID       int64  // external identity, equals the private chat id
	Username         string // may be empty
	FirstName        string
	IsBlocked        bool
	RegistrationDate time.Time
}

func NewUser(telegramID int64, username, firstName string) *User {
	return &User{
		TelegramID:       telegramID,
		Username:         username,
		FirstName:        firstName,
		RegistrationDate: time.Now(),
	}
}

// DisplayName returns the username or, when it is empty, the external id.
func (u *User) DisplayName() string {
	if u.Username != "" {
		return u.Username
	}
	return formatID(u.TelegramID)
}
