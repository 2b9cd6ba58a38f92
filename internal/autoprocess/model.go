package autoprocess

import (
	"errors"
	"time"
)

var ErrRunInProgress = errors.New("auto-processing already running for gym")

type Phase string

const (
	PhaseAccept Phase = "accept"
	PhaseCancel Phase = "cancel"
)

type Failure struct {
	BookingID int    `json:"booking_id"`
	Phase     Phase  `json:"phase"`
	Error     string `json:"error"`
}

type Result struct {
	RunID      string    `json:"run_id"`
	GymID      int       `json:"gym_id"`
	Accepted   int       `json:"accepted"`
	Cancelled  int       `json:"cancelled"`
	Success    bool      `json:"success"`
	Error      string    `json:"error,omitempty"`
	Failures   []Failure `json:"failures"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`

	err error
}

// Err returns the error that aborted the run, if any.
func (r Result) Err() error {
	return r.err
}

func (r *Result) abort(err error) {
	r.err = err
	r.Error = err.Error()
}

func (r Result) outcome() string {
	switch {
	case errors.Is(r.err, ErrRunInProgress):
		return "skipped"
	case r.err != nil:
		return "error"
	case len(r.Failures) > 0:
		return "partial"
	default:
		return "success"
	}
}

type Action string

const (
	ActionAccept Action = "accept"
	ActionCancel Action = "cancel"
	ActionNone   Action = "none"
)

// Decision is what a run would do with one pending booking.
type Decision struct {
	BookingID        int     `json:"booking_id"`
	UserID           int     `json:"user_id"`
	ActivityType     string  `json:"activity_type"`
	Date             string  `json:"date"`
	Time             string  `json:"time"`
	OccupancyPercent float64 `json:"occupancy_percent"`
	IsMember         bool    `json:"is_member"`
	Action           Action  `json:"action"`
	Reason           string  `json:"reason,omitempty"`
}
