package autoprocess

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"gymdesk/internal/booking"
)

func intPtr(v int) *int { return &v }

func candidate(occupancy int, capacity *int, hour int, member bool) booking.Candidate {
	return booking.Candidate{
		ID:               1,
		UserID:           7,
		GymID:            3,
		GymCapacity:      capacity,
		CurrentOccupancy: occupancy,
		HourOfDay:        hour,
		IsMember:         member,
	}
}

func acceptPolicy(threshold float64, conds ...ConditionTag) Policy {
	p := DefaultPolicy()
	p.AutoAcceptEnabled = true
	p.AutoAcceptConditions = conds
	p.AutoAcceptOccupancyThreshold = threshold
	return p
}

func cancelPolicy(threshold float64, conds ...ConditionTag) Policy {
	p := DefaultPolicy()
	p.AutoCancelEnabled = true
	p.AutoCancelConditions = conds
	p.AutoCancelOccupancyThreshold = threshold
	return p
}

func TestShouldAccept_Disabled(t *testing.T) {
	p := acceptPolicy(100, ConditionMembersOnly, ConditionOffPeak, ConditionLowOccupancy)
	p.AutoAcceptEnabled = false

	assert.False(t, ShouldAccept(candidate(0, intPtr(50), 12, true), p))
}

func TestShouldAccept_NoConditions(t *testing.T) {
	assert.False(t, ShouldAccept(candidate(0, intPtr(50), 12, true), acceptPolicy(100)))
}

func TestShouldAccept_MembersOnly(t *testing.T) {
	p := acceptPolicy(50, ConditionMembersOnly)

	assert.True(t, ShouldAccept(candidate(49, intPtr(50), 20, true), p))
	assert.False(t, ShouldAccept(candidate(0, intPtr(50), 12, false), p))
}

func TestShouldAccept_OffPeakBoundaries(t *testing.T) {
	p := acceptPolicy(0, ConditionOffPeak)

	tests := []struct {
		hour int
		want bool
	}{
		{9, false},
		{10, true},
		{13, true},
		{16, true},
		{17, false},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, ShouldAccept(candidate(40, intPtr(50), tt.hour, false), p), "hour %d", tt.hour)
	}
}

func TestShouldAccept_LowOccupancyInclusive(t *testing.T) {
	p := acceptPolicy(50, ConditionLowOccupancy)

	// 25/50 is exactly 50%.
	assert.True(t, ShouldAccept(candidate(25, intPtr(50), 20, false), p))
	assert.False(t, ShouldAccept(candidate(26, intPtr(50), 20, false), p))
}

func TestShouldAccept_DefaultCapacity(t *testing.T) {
	p := acceptPolicy(40, ConditionLowOccupancy)

	// nil and non-positive capacities fall back to 50, so 20 bookings is 40%.
	assert.True(t, ShouldAccept(candidate(20, nil, 20, false), p))
	assert.True(t, ShouldAccept(candidate(20, intPtr(0), 20, false), p))
	assert.False(t, ShouldAccept(candidate(21, intPtr(-5), 20, false), p))
}

func TestShouldAccept_AnyConditionSuffices(t *testing.T) {
	p := acceptPolicy(10, ConditionMembersOnly, ConditionOffPeak, ConditionLowOccupancy)

	assert.True(t, ShouldAccept(candidate(45, intPtr(50), 12, false), p))
	assert.False(t, ShouldAccept(candidate(45, intPtr(50), 20, false), p))
}

func TestShouldCancel_Disabled(t *testing.T) {
	p := cancelPolicy(0, ConditionHighOccupancy, ConditionMaintenance, ConditionNonMembers)
	p.AutoCancelEnabled = false

	cancel, reason := ShouldCancel(candidate(50, intPtr(50), 20, false), p)
	assert.False(t, cancel)
	assert.Empty(t, reason)
}

func TestShouldCancel_HighOccupancyInclusive(t *testing.T) {
	p := cancelPolicy(95, ConditionHighOccupancy)

	// 19/20 is exactly 95%.
	cancel, reason := ShouldCancel(candidate(19, intPtr(20), 12, true), p)
	assert.True(t, cancel)
	assert.Equal(t, DefaultCancelReason, reason)

	cancel, _ = ShouldCancel(candidate(18, intPtr(20), 12, true), p)
	assert.False(t, cancel)
}

func TestShouldCancel_HighOccupancyCustomReason(t *testing.T) {
	p := cancelPolicy(80, ConditionHighOccupancy)
	p.AutoCancelReason = "Class is full."

	cancel, reason := ShouldCancel(candidate(45, intPtr(50), 12, true), p)
	assert.True(t, cancel)
	assert.Equal(t, "Class is full.", reason)
}

func TestShouldCancel_BlankReasonFallsBack(t *testing.T) {
	p := cancelPolicy(80, ConditionHighOccupancy)
	p.AutoCancelReason = "   "

	_, reason := ShouldCancel(candidate(45, intPtr(50), 12, true), p)
	assert.Equal(t, DefaultCancelReason, reason)
}

func TestShouldCancel_Maintenance(t *testing.T) {
	p := cancelPolicy(95, ConditionMaintenance)

	c := candidate(1, intPtr(50), 12, true)
	c.HasMaintenance = true
	cancel, reason := ShouldCancel(c, p)
	assert.True(t, cancel)
	assert.Equal(t, MaintenanceReason, reason)

	c.HasMaintenance = false
	cancel, _ = ShouldCancel(c, p)
	assert.False(t, cancel)
}

func TestShouldCancel_NonMembersPeakHours(t *testing.T) {
	p := cancelPolicy(95, ConditionNonMembers)

	tests := []struct {
		hour   int
		member bool
		want   bool
	}{
		{9, false, true},
		{10, false, false},
		{16, false, false},
		{17, false, true},
		{8, true, false},
	}

	for _, tt := range tests {
		cancel, reason := ShouldCancel(candidate(1, intPtr(50), tt.hour, tt.member), p)
		assert.Equal(t, tt.want, cancel, "hour %d member %v", tt.hour, tt.member)
		if tt.want {
			assert.Equal(t, NonMembersReason, reason)
		}
	}
}

func TestShouldCancel_LastMatchWins(t *testing.T) {
	c := candidate(50, intPtr(50), 8, false)
	c.HasMaintenance = true

	// Listed order in the policy does not matter.
	p := cancelPolicy(95, ConditionNonMembers, ConditionMaintenance, ConditionHighOccupancy)
	cancel, reason := ShouldCancel(c, p)
	assert.True(t, cancel)
	assert.Equal(t, NonMembersReason, reason)

	p = cancelPolicy(95, ConditionHighOccupancy, ConditionMaintenance)
	_, reason = ShouldCancel(c, p)
	assert.Equal(t, MaintenanceReason, reason)
}

func TestPolicyValidate(t *testing.T) {
	assert.NoError(t, DefaultPolicy().Validate())

	p := acceptPolicy(50, ConditionMembersOnly, ConditionOffPeak)
	assert.NoError(t, p.Validate())

	p = acceptPolicy(50, ConditionHighOccupancy)
	err := p.Validate()
	assert.ErrorIs(t, err, ErrInvalidPolicy)
	assert.Contains(t, err.Error(), "high_occupancy")

	p = cancelPolicy(101, ConditionHighOccupancy)
	assert.ErrorIs(t, p.Validate(), ErrInvalidPolicy)

	p = acceptPolicy(-1)
	assert.ErrorIs(t, p.Validate(), ErrInvalidPolicy)

	p = DefaultPolicy()
	p.AutoCancelReason = string(make([]byte, 501))
	assert.ErrorIs(t, p.Validate(), ErrInvalidPolicy)
}
