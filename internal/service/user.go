package service

import (
	"context"
	"fmt"

	"github.com/aliskhannn/azvocab-bot/internal/domain/entities"
)

// FirstLevel is seeded for every registered user.
const FirstLevel = 1

type UserService struct {
	repository UserRepository
	learning   LearningRepository
	tx         Transactor
}

func NewUserService(repository UserRepository, learning LearningRepository, tx Transactor) *UserService {
	return &UserService{repository: repository, learning: learning, tx: tx}
}

// Register creates the user and seeds the first level words in one transaction.
// Registering again refreshes the profile and clears the block flag.
func (s *UserService) Register(ctx context.Context, telegramID int64, username, firstName string) (*entities.User, error) {
	var user *entities.User

	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		user, err = s.repository.Upsert(ctx, entities.NewUser(telegramID, username, firstName))
		if err != nil {
			return err
		}

		if _, err := s.learning.SeedLevel(ctx, user.ID, FirstLevel); err != nil {
			return fmt.Errorf("seed level: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return user, nil
}

// EnsureUser records renewed contact.
func (s *UserService) EnsureUser(ctx context.Context, telegramID int64, username, firstName string) (*entities.User, error) {
	return s.repository.Upsert(ctx, entities.NewUser(telegramID, username, firstName))
}
