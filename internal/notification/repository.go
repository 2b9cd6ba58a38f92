package notification

import (
	"context"

	"github.com/jmoiron/sqlx"
)

// Repository is an append-only sink. Insert takes the executor so callers can
// write inside their own transaction.
type Repository interface {
	Insert(ctx context.Context, ext sqlx.ExtContext, n *Notification) error
}

type repository struct{}

func NewRepository() Repository {
	return &repository{}
}

func (r *repository) Insert(ctx context.Context, ext sqlx.ExtContext, n *Notification) error {
	query := `
		INSERT INTO notifications (user_id, type, title, message, related_booking_id, gym_id)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, is_read, created_at
	`

	return sqlx.GetContext(ctx, ext, n, query,
		n.UserID, n.Type, n.Title, n.Message, n.RelatedBookingID, n.GymID)
}
