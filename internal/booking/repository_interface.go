package booking

import (
	"context"

	"github.com/jmoiron/sqlx"
)

type Repository interface {
	FetchPending(ctx context.Context, gymID int, kind Kind) ([]Candidate, error)
	GetBookingByID(ctx context.Context, id int) (*Booking, error)
	MarkConfirmed(ctx context.Context, ext sqlx.ExtContext, id int) error
	MarkCancelled(ctx context.Context, ext sqlx.ExtContext, id int, reason string) error
}
