package autoprocess

import "gymdesk/internal/booking"

const (
	MaintenanceReason = "Cancelled due to scheduled maintenance."
	NonMembersReason  = "Cancelled to prioritize members during peak hours."
)

// Off-peak window, inclusive on both ends.
const (
	offPeakStartHour = 10
	offPeakEndHour   = 16
)

func isOffPeak(hour int) bool {
	return hour >= offPeakStartHour && hour <= offPeakEndHour
}

// ShouldAccept reports whether any configured accept condition holds.
func ShouldAccept(c booking.Candidate, p Policy) bool {
	if !p.AutoAcceptEnabled {
		return false
	}

	for _, cond := range p.AutoAcceptConditions {
		switch cond {
		case ConditionMembersOnly:
			if c.IsMember {
				return true
			}
		case ConditionOffPeak:
			if isOffPeak(c.HourOfDay) {
				return true
			}
		case ConditionLowOccupancy:
			if c.OccupancyPercent() <= p.AutoAcceptOccupancyThreshold {
				return true
			}
		}
	}
	return false
}

// ShouldCancel checks high_occupancy, maintenance and non_members in that
// order regardless of how the policy lists them. Each match replaces the
// reason, so the last matching condition decides the text.
func ShouldCancel(c booking.Candidate, p Policy) (bool, string) {
	if !p.AutoCancelEnabled {
		return false, ""
	}

	cancel, reason := false, ""

	if p.hasCancelCondition(ConditionHighOccupancy) && c.OccupancyPercent() >= p.AutoCancelOccupancyThreshold {
		cancel, reason = true, p.cancelReason()
	}
	if p.hasCancelCondition(ConditionMaintenance) && c.HasMaintenance {
		cancel, reason = true, MaintenanceReason
	}
	if p.hasCancelCondition(ConditionNonMembers) && !c.IsMember && !isOffPeak(c.HourOfDay) {
		cancel, reason = true, NonMembersReason
	}

	return cancel, reason
}
