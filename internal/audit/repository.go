package audit

import (
	"context"
	"errors"

	"github.com/jmoiron/sqlx"
)

var ErrInvalidActor = errors.New("user actor requires a user id")

type Repository interface {
	Record(ctx context.Context, ext sqlx.ExtContext, actor Actor, bookingID int, action Action, notes string) error
	ListForBooking(ctx context.Context, ext sqlx.QueryerContext, bookingID int) ([]Entry, error)
}

type repository struct{}

func NewRepository() Repository {
	return &repository{}
}

func (r *repository) Record(ctx context.Context, ext sqlx.ExtContext, actor Actor, bookingID int, action Action, notes string) error {
	if !actor.IsSystem() && actor.UserID <= 0 {
		return ErrInvalidActor
	}

	query := `
		INSERT INTO schedule_logs (actor_type, actor_user_id, schedule_id, action_type, notes)
		VALUES ($1, $2, $3, $4, $5)
	`

	_, err := ext.ExecContext(ctx, query, actor.Kind, actor.userIDValue(), bookingID, action, notes)
	return err
}

func (r *repository) ListForBooking(ctx context.Context, q sqlx.QueryerContext, bookingID int) ([]Entry, error) {
	query := `
		SELECT id, actor_type, actor_user_id, schedule_id, action_type, notes, created_at
		FROM schedule_logs
		WHERE schedule_id = $1
		ORDER BY created_at ASC, id ASC
	`

	entries := []Entry{}
	if err := sqlx.SelectContext(ctx, q, &entries, query, bookingID); err != nil {
		return nil, err
	}
	return entries, nil
}
