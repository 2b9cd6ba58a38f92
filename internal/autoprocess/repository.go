package autoprocess

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"gymdesk/internal/audit"
	"gymdesk/internal/booking"
	"gymdesk/internal/db"
	"gymdesk/internal/notification"
)

// Transitioner moves one pending booking to a terminal status together with
// its notification and audit entry, all or nothing.
type Transitioner interface {
	ApplyAccept(ctx context.Context, c booking.Candidate, runID string) error
	ApplyCancel(ctx context.Context, c booking.Candidate, reason, runID string) error
}

type transitioner struct {
	db            *sqlx.DB
	bookings      booking.Repository
	notifications notification.Repository
	audit         audit.Repository
}

func NewTransitioner(conn *sqlx.DB, bookings booking.Repository, notifications notification.Repository, auditRepo audit.Repository) Transitioner {
	return &transitioner{
		db:            conn,
		bookings:      bookings,
		notifications: notifications,
		audit:         auditRepo,
	}
}

func (t *transitioner) ApplyAccept(ctx context.Context, c booking.Candidate, runID string) error {
	return db.WithTx(ctx, t.db, func(tx *sqlx.Tx) error {
		if err := t.bookings.MarkConfirmed(ctx, tx, c.ID); err != nil {
			return fmt.Errorf("update booking %d: %w", c.ID, err)
		}

		n := confirmedNotification(c)
		if err := t.notifications.Insert(ctx, tx, &n); err != nil {
			return fmt.Errorf("insert notification for booking %d: %w", c.ID, err)
		}

		notes := "Automatically confirmed by auto-process run " + runID
		if err := t.audit.Record(ctx, tx, audit.SystemActor, c.ID, audit.ActionAutoConfirmed, notes); err != nil {
			return fmt.Errorf("record audit for booking %d: %w", c.ID, err)
		}
		return nil
	})
}

func (t *transitioner) ApplyCancel(ctx context.Context, c booking.Candidate, reason, runID string) error {
	return db.WithTx(ctx, t.db, func(tx *sqlx.Tx) error {
		if err := t.bookings.MarkCancelled(ctx, tx, c.ID, reason); err != nil {
			return fmt.Errorf("update booking %d: %w", c.ID, err)
		}

		n := cancelledNotification(c, reason)
		if err := t.notifications.Insert(ctx, tx, &n); err != nil {
			return fmt.Errorf("insert notification for booking %d: %w", c.ID, err)
		}

		notes := fmt.Sprintf("Automatically cancelled by auto-process run %s: %s", runID, reason)
		if err := t.audit.Record(ctx, tx, audit.SystemActor, c.ID, audit.ActionAutoCancelled, notes); err != nil {
			return fmt.Errorf("record audit for booking %d: %w", c.ID, err)
		}
		return nil
	})
}

func confirmedNotification(c booking.Candidate) notification.Notification {
	bookingID, gymID := c.ID, c.GymID
	return notification.Notification{
		UserID: c.UserID,
		Type:   notification.TypeBookingConfirmed,
		Title:  "Booking Confirmed",
		Message: fmt.Sprintf("Your %s booking at %s on %s at %s has been confirmed.",
			c.ActivityType, c.GymName, c.DateLabel(), c.StartTime),
		RelatedBookingID: &bookingID,
		GymID:            &gymID,
	}
}

func cancelledNotification(c booking.Candidate, reason string) notification.Notification {
	bookingID, gymID := c.ID, c.GymID
	return notification.Notification{
		UserID: c.UserID,
		Type:   notification.TypeBookingCancelled,
		Title:  "Booking Cancelled",
		Message: fmt.Sprintf("Your %s booking at %s on %s at %s has been cancelled. Reason: %s",
			c.ActivityType, c.GymName, c.DateLabel(), c.StartTime, reason),
		RelatedBookingID: &bookingID,
		GymID:            &gymID,
	}
}
