package booking

import (
	"time"

	"gymdesk/internal/gym"
)

type Status string

const (
	StatusScheduled Status = "scheduled"
	StatusConfirmed Status = "confirmed"
	StatusCancelled Status = "cancelled"
)

// Kind selects which derived attributes FetchPending computes.
type Kind string

const (
	KindAccept Kind = "accept"
	KindCancel Kind = "cancel"
)

type Booking struct {
	ID                 int       `db:"id" json:"id"`
	UserID             int       `db:"user_id" json:"user_id"`
	GymID              int       `db:"gym_id" json:"gym_id"`
	ActivityType       string    `db:"activity_type" json:"activity_type"`
	StartDate          time.Time `db:"start_date" json:"start_date"`
	StartTime          string    `db:"start_time" json:"start_time"`
	Status             Status    `db:"status" json:"status"`
	CancellationReason *string   `db:"cancellation_reason" json:"cancellation_reason,omitempty"`
	UpdatedAt          time.Time `db:"updated_at" json:"updated_at"`
}

// Candidate is a pending booking annotated with the attributes the
// auto-process rules look at.
type Candidate struct {
	ID           int       `db:"id" json:"id"`
	UserID       int       `db:"user_id" json:"user_id"`
	UserName     string    `db:"user_name" json:"user_name"`
	UserEmail    string    `db:"user_email" json:"user_email"`
	GymID        int       `db:"gym_id" json:"gym_id"`
	GymName      string    `db:"gym_name" json:"gym_name"`
	GymCapacity  *int      `db:"gym_capacity" json:"gym_capacity,omitempty"`
	ActivityType string    `db:"activity_type" json:"activity_type"`
	StartDate    time.Time `db:"start_date" json:"start_date"`
	StartTime    string    `db:"start_time" json:"start_time"`

	CurrentOccupancy int  `db:"current_occupancy" json:"current_occupancy"`
	IsMember         bool `db:"is_member" json:"is_member"`
	HasMaintenance   bool `db:"has_maintenance" json:"has_maintenance"`
	HourOfDay        int  `db:"hour_of_day" json:"hour_of_day"`
}

func (c Candidate) Capacity() int {
	return gym.EffectiveCapacity(c.GymCapacity)
}

// OccupancyPercent is the share of the gym's capacity already taken by the
// candidate's slot.
func (c Candidate) OccupancyPercent() float64 {
	return float64(c.CurrentOccupancy) * 100 / float64(c.Capacity())
}

func (c Candidate) DateLabel() string {
	return c.StartDate.Format("Jan 2, 2006")
}
