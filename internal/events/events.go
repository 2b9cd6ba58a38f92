package events

import "time"

const (
	KeyScheduleAutoConfirmed = "schedule.auto_confirmed"
	KeyScheduleAutoCancelled = "schedule.auto_cancelled"
)

// ScheduleDecided is published after an automated transition has committed.
type ScheduleDecided struct {
	RunID      string    `json:"run_id"`
	BookingID  int       `json:"booking_id"`
	UserID     int       `json:"user_id"`
	GymID      int       `json:"gym_id"`
	Status     string    `json:"status"`
	Reason     string    `json:"reason,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}
