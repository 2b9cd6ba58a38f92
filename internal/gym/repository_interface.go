package gym

import "context"

type Repository interface {
	GetGymByID(ctx context.Context, id int) (*Gym, error)
	IsOwnedBy(ctx context.Context, gymID, userID int) (bool, error)
}
