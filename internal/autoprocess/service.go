package autoprocess

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"gymdesk/internal/booking"
	"gymdesk/internal/email"
	"gymdesk/internal/events"
	"gymdesk/internal/logger"
	"gymdesk/internal/metrics"
)

type CandidateSource interface {
	FetchPending(ctx context.Context, gymID int, kind booking.Kind) ([]booking.Candidate, error)
}

type Mailer interface {
	SendScheduleConfirmed(ctx context.Context, to, name string, d email.ScheduleDetails) error
	SendScheduleCancelled(ctx context.Context, to, name string, d email.ScheduleDetails, reason string) error
}

type EventPublisher interface {
	PublishJSON(ctx context.Context, key string, v any) error
}

type Service interface {
	ProcessSchedulesAutomatically(ctx context.Context, gymID int) Result
	Preview(ctx context.Context, gymID int) ([]Decision, error)
	GetPolicy(ctx context.Context, gymID int) (Policy, error)
	SavePolicy(ctx context.Context, gymID int, p Policy) error
	GymsWithPolicy(ctx context.Context) ([]int, error)
}

type service struct {
	policies    PolicyStore
	candidates  CandidateSource
	transitions Transitioner
	mailer      Mailer
	events      EventPublisher
	gate        Gate
	now         func() time.Time
	newRunID    func() string
}

// NewService wires the orchestrator. mailer, publisher and gate may be nil.
func NewService(policies PolicyStore, candidates CandidateSource, transitions Transitioner, mailer Mailer, publisher EventPublisher, gate Gate) Service {
	return &service{
		policies:    policies,
		candidates:  candidates,
		transitions: transitions,
		mailer:      mailer,
		events:      publisher,
		gate:        gate,
		now:         time.Now,
		newRunID:    uuid.NewString,
	}
}

func (s *service) ProcessSchedulesAutomatically(ctx context.Context, gymID int) (res Result) {
	res = Result{
		RunID:     s.newRunID(),
		GymID:     gymID,
		Failures:  []Failure{},
		StartedAt: s.now(),
	}
	defer func() { s.finish(&res) }()

	if s.gate != nil {
		release, err := s.gate.Lock(ctx, gymID)
		if err != nil {
			res.abort(err)
			return res
		}
		defer release()
	}

	policy := s.policies.LoadPolicy(ctx, gymID)
	done := make(map[int]bool)

	if policy.AutoAcceptEnabled {
		if err := s.acceptPass(ctx, gymID, policy, &res, done); err != nil {
			res.abort(err)
			return res
		}
	}

	if policy.AutoCancelEnabled {
		if err := s.cancelPass(ctx, gymID, policy, &res, done); err != nil {
			res.abort(err)
			return res
		}
	}

	return res
}

func (s *service) acceptPass(ctx context.Context, gymID int, p Policy, res *Result, done map[int]bool) error {
	candidates, err := s.candidates.FetchPending(ctx, gymID, booking.KindAccept)
	if err != nil {
		return fmt.Errorf("fetch accept candidates: %w", err)
	}
	logger.Debug("Evaluating accept candidates", "run_id", res.RunID, "gym_id", gymID, "count", len(candidates))

	for _, c := range candidates {
		if err := ctx.Err(); err != nil {
			return err
		}
		if !ShouldAccept(c, p) {
			continue
		}

		if err := s.transitions.ApplyAccept(ctx, c, res.RunID); err != nil {
			s.rowFailed(res, c, PhaseAccept, err)
			continue
		}

		done[c.ID] = true
		res.Accepted++
		metrics.RecordTransition("confirmed")
		logger.Info("Booking auto-confirmed", "run_id", res.RunID, "gym_id", gymID, "booking_id", c.ID)
		s.afterAccept(ctx, c, res.RunID)
	}
	return nil
}

func (s *service) cancelPass(ctx context.Context, gymID int, p Policy, res *Result, done map[int]bool) error {
	candidates, err := s.candidates.FetchPending(ctx, gymID, booking.KindCancel)
	if err != nil {
		return fmt.Errorf("fetch cancel candidates: %w", err)
	}
	logger.Debug("Evaluating cancel candidates", "run_id", res.RunID, "gym_id", gymID, "count", len(candidates))

	for _, c := range candidates {
		if err := ctx.Err(); err != nil {
			return err
		}
		if done[c.ID] {
			continue
		}
		cancel, reason := ShouldCancel(c, p)
		if !cancel {
			continue
		}

		if err := s.transitions.ApplyCancel(ctx, c, reason, res.RunID); err != nil {
			s.rowFailed(res, c, PhaseCancel, err)
			continue
		}

		done[c.ID] = true
		res.Cancelled++
		metrics.RecordTransition("cancelled")
		logger.Info("Booking auto-cancelled", "run_id", res.RunID, "gym_id", gymID, "booking_id", c.ID, "reason", reason)
		s.afterCancel(ctx, c, reason, res.RunID)
	}
	return nil
}

// rowFailed records a booking that could not be transitioned. A booking that
// some other actor moved out of scheduled in the meantime is not a failure.
func (s *service) rowFailed(res *Result, c booking.Candidate, phase Phase, err error) {
	if errors.Is(err, booking.ErrNotPending) {
		logger.Info("Booking no longer pending, skipped", "run_id", res.RunID, "booking_id", c.ID, "phase", phase)
		return
	}

	res.Failures = append(res.Failures, Failure{BookingID: c.ID, Phase: phase, Error: err.Error()})
	metrics.RecordFailure(string(phase))
	logger.Error("Auto-process transition failed", "run_id", res.RunID, "booking_id", c.ID, "phase", phase, "error", err)
}

func (s *service) afterAccept(ctx context.Context, c booking.Candidate, runID string) {
	if s.mailer != nil && c.UserEmail != "" {
		if err := s.mailer.SendScheduleConfirmed(ctx, c.UserEmail, c.UserName, details(c)); err != nil {
			metrics.RecordSideEffectFailure("email")
			logger.Warn("Failed to queue confirmation email", "booking_id", c.ID, "error", err)
		}
	}
	s.publish(ctx, events.KeyScheduleAutoConfirmed, events.ScheduleDecided{
		RunID:      runID,
		BookingID:  c.ID,
		UserID:     c.UserID,
		GymID:      c.GymID,
		Status:     string(booking.StatusConfirmed),
		OccurredAt: s.now(),
	})
}

func (s *service) afterCancel(ctx context.Context, c booking.Candidate, reason, runID string) {
	if s.mailer != nil && c.UserEmail != "" {
		if err := s.mailer.SendScheduleCancelled(ctx, c.UserEmail, c.UserName, details(c), reason); err != nil {
			metrics.RecordSideEffectFailure("email")
			logger.Warn("Failed to queue cancellation email", "booking_id", c.ID, "error", err)
		}
	}
	s.publish(ctx, events.KeyScheduleAutoCancelled, events.ScheduleDecided{
		RunID:      runID,
		BookingID:  c.ID,
		UserID:     c.UserID,
		GymID:      c.GymID,
		Status:     string(booking.StatusCancelled),
		Reason:     reason,
		OccurredAt: s.now(),
	})
}

func (s *service) publish(ctx context.Context, key string, ev events.ScheduleDecided) {
	if s.events == nil {
		return
	}
	if err := s.events.PublishJSON(ctx, key, ev); err != nil {
		metrics.RecordSideEffectFailure("event")
		logger.Warn("Failed to publish schedule event", "key", key, "booking_id", ev.BookingID, "error", err)
	}
}

func (s *service) finish(res *Result) {
	res.FinishedAt = s.now()
	res.Success = res.Error == "" && len(res.Failures) == 0

	metrics.RecordAutoProcessRun(res.outcome(), res.FinishedAt.Sub(res.StartedAt).Seconds())

	attrs := []any{
		"run_id", res.RunID,
		"gym_id", res.GymID,
		"accepted", res.Accepted,
		"cancelled", res.Cancelled,
		"failures", len(res.Failures),
	}
	switch {
	case errors.Is(res.err, ErrRunInProgress):
		logger.Info("Auto-process run skipped, another run holds the gym", attrs...)
	case res.err != nil:
		logger.Error("Auto-process run aborted", append(attrs, "error", res.err)...)
	default:
		logger.Info("Auto-process run finished", attrs...)
	}
}

func details(c booking.Candidate) email.ScheduleDetails {
	return email.ScheduleDetails{
		GymName:  c.GymName,
		Activity: c.ActivityType,
		Date:     c.DateLabel(),
		Time:     c.StartTime,
	}
}

// Preview evaluates the current policy against pending bookings without
// changing anything. Accept is checked first, as in a real run.
func (s *service) Preview(ctx context.Context, gymID int) ([]Decision, error) {
	policy := s.policies.LoadPolicy(ctx, gymID)

	candidates, err := s.candidates.FetchPending(ctx, gymID, booking.KindCancel)
	if err != nil {
		return nil, err
	}

	decisions := make([]Decision, 0, len(candidates))
	for _, c := range candidates {
		d := Decision{
			BookingID:        c.ID,
			UserID:           c.UserID,
			ActivityType:     c.ActivityType,
			Date:             c.DateLabel(),
			Time:             c.StartTime,
			OccupancyPercent: c.OccupancyPercent(),
			IsMember:         c.IsMember,
			Action:           ActionNone,
		}
		if ShouldAccept(c, policy) {
			d.Action = ActionAccept
		} else if cancel, reason := ShouldCancel(c, policy); cancel {
			d.Action, d.Reason = ActionCancel, reason
		}
		decisions = append(decisions, d)
	}
	return decisions, nil
}

func (s *service) GetPolicy(ctx context.Context, gymID int) (Policy, error) {
	return s.policies.GetPolicy(ctx, gymID)
}

func (s *service) SavePolicy(ctx context.Context, gymID int, p Policy) error {
	if err := s.policies.SavePolicy(ctx, gymID, p); err != nil {
		return err
	}
	logger.Info("Auto-process policy saved", "gym_id", gymID,
		"accept_enabled", p.AutoAcceptEnabled, "cancel_enabled", p.AutoCancelEnabled)
	return nil
}

func (s *service) GymsWithPolicy(ctx context.Context) ([]int, error) {
	return s.policies.GymsWithPolicy(ctx)
}
