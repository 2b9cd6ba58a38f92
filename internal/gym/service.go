package gym

import (
	"context"
	"database/sql"
	"errors"
)

var (
	ErrGymNotFound = errors.New("gym not found")
	ErrNotOwner    = errors.New("gym is not owned by user")
)

type Service interface {
	GetGymByID(ctx context.Context, id int) (*Gym, error)
	CheckOwnership(ctx context.Context, gymID, userID int) error
}

type service struct {
	repo Repository
}

func NewService(repo Repository) Service {
	return &service{
		repo: repo,
	}
}

func (s *service) GetGymByID(ctx context.Context, id int) (*Gym, error) {
	gym, err := s.repo.GetGymByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrGymNotFound
		}
		return nil, err
	}
	return gym, nil
}

// CheckOwnership returns ErrGymNotFound for unknown gyms and ErrNotOwner when
// the gym belongs to someone else.
func (s *service) CheckOwnership(ctx context.Context, gymID, userID int) error {
	if _, err := s.GetGymByID(ctx, gymID); err != nil {
		return err
	}

	owned, err := s.repo.IsOwnedBy(ctx, gymID, userID)
	if err != nil {
		return err
	}
	if !owned {
		return ErrNotOwner
	}
	return nil
}
