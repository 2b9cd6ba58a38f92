package notification

import "time"

type Type string

const (
	TypeBookingConfirmed Type = "booking_confirmed"
	TypeBookingCancelled Type = "booking_cancelled"
)

type Notification struct {
	ID               int       `db:"id" json:"id"`
	UserID           int       `db:"user_id" json:"user_id"`
	Type             Type      `db:"type" json:"type"`
	Title            string    `db:"title" json:"title"`
	Message          string    `db:"message" json:"message"`
	RelatedBookingID *int      `db:"related_booking_id" json:"related_booking_id,omitempty"`
	GymID            *int      `db:"gym_id" json:"gym_id,omitempty"`
	IsRead           bool      `db:"is_read" json:"is_read"`
	CreatedAt        time.Time `db:"created_at" json:"created_at"`
}
