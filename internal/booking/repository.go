package booking

import (
	"context"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
)

var ErrNotPending = errors.New("booking not found or no longer scheduled")

const pendingSelect = `
		SELECT
			s.id,
			s.user_id,
			s.gym_id,
			s.activity_type,
			s.start_date,
			TO_CHAR(s.start_time, 'HH24:MI') AS start_time,
			u.name AS user_name,
			u.email AS user_email,
			g.name AS gym_name,
			g.capacity AS gym_capacity,
			(
				SELECT COUNT(*)
				FROM schedules s2
				WHERE s2.gym_id = s.gym_id
				  AND s2.start_date = s.start_date
				  AND s2.start_time = s.start_time
				  AND s2.status <> 'cancelled'
			) AS current_occupancy,
			EXISTS(
				SELECT 1
				FROM user_memberships um
				JOIN membership_plans mp ON mp.id = um.plan_id
				WHERE um.user_id = s.user_id
				  AND mp.gym_id = s.gym_id
				  AND um.status = 'active'
				  AND um.payment_status = 'paid'
				  AND CURRENT_DATE BETWEEN um.start_date AND um.end_date
			) AS is_member,
			EXTRACT(HOUR FROM s.start_time)::int AS hour_of_day,
			%s AS has_maintenance
		FROM schedules s
		JOIN users u ON u.id = s.user_id
		JOIN gyms g ON g.id = s.gym_id
		WHERE s.gym_id = $1 AND s.status = 'scheduled'
	`

const maintenanceExpr = `EXISTS(
				SELECT 1
				FROM gym_maintenance gm
				WHERE gm.gym_id = s.gym_id AND gm.schedule_date = s.start_date
			)`

type repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

// FetchPending returns every scheduled booking of the gym. Maintenance is
// only looked up for the cancel pass.
func (r *repository) FetchPending(ctx context.Context, gymID int, kind Kind) ([]Candidate, error) {
	maintenance := "FALSE"
	if kind == KindCancel {
		maintenance = maintenanceExpr
	}
	query := fmt.Sprintf(pendingSelect, maintenance)

	candidates := []Candidate{}
	err := r.db.SelectContext(ctx, &candidates, query, gymID)
	if err != nil {
		return nil, err
	}

	return candidates, nil
}

func (r *repository) GetBookingByID(ctx context.Context, id int) (*Booking, error) {
	query := `
		SELECT id, user_id, gym_id, activity_type, start_date,
		       TO_CHAR(start_time, 'HH24:MI') AS start_time,
		       status, cancellation_reason, updated_at
		FROM schedules
		WHERE id = $1
	`

	var booking Booking
	err := r.db.GetContext(ctx, &booking, query, id)
	if err != nil {
		return nil, err
	}

	return &booking, nil
}

func (r *repository) MarkConfirmed(ctx context.Context, ext sqlx.ExtContext, id int) error {
	query := `
		UPDATE schedules
		SET status = 'confirmed', updated_at = NOW()
		WHERE id = $1 AND status = 'scheduled'
	`

	result, err := ext.ExecContext(ctx, query, id)
	if err != nil {
		return err
	}
	return expectOneRow(result.RowsAffected())
}

func (r *repository) MarkCancelled(ctx context.Context, ext sqlx.ExtContext, id int, reason string) error {
	query := `
		UPDATE schedules
		SET status = 'cancelled', cancellation_reason = $2, updated_at = NOW()
		WHERE id = $1 AND status = 'scheduled'
	`

	result, err := ext.ExecContext(ctx, query, id, reason)
	if err != nil {
		return err
	}
	return expectOneRow(result.RowsAffected())
}

func expectOneRow(rowsAffected int64, err error) error {
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return ErrNotPending
	}
	return nil
}
