package autoprocess

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// SettingsKey is the system_settings key under which each gym's policy is
// stored; the gym id is the setting group.
const SettingsKey = "auto_process_settings"

type ConditionTag string

const (
	ConditionMembersOnly  ConditionTag = "members_only"
	ConditionOffPeak      ConditionTag = "off_peak"
	ConditionLowOccupancy ConditionTag = "low_occupancy"

	ConditionHighOccupancy ConditionTag = "high_occupancy"
	ConditionMaintenance   ConditionTag = "maintenance"
	ConditionNonMembers    ConditionTag = "non_members"
)

const (
	DefaultAcceptThreshold = 50.0
	DefaultCancelThreshold = 95.0
	DefaultCancelReason    = "Due to high demand, we couldn't accommodate your booking at this time."
)

var ErrInvalidPolicy = errors.New("invalid auto-process policy")

type Policy struct {
	AutoAcceptEnabled            bool           `json:"auto_accept_enabled"`
	AutoAcceptConditions         []ConditionTag `json:"auto_accept_conditions" validate:"dive,oneof=members_only off_peak low_occupancy"`
	AutoAcceptOccupancyThreshold float64        `json:"auto_accept_occupancy_threshold" validate:"gte=0,lte=100"`
	AutoCancelEnabled            bool           `json:"auto_cancel_enabled"`
	AutoCancelConditions         []ConditionTag `json:"auto_cancel_conditions" validate:"dive,oneof=high_occupancy maintenance non_members"`
	AutoCancelOccupancyThreshold float64        `json:"auto_cancel_occupancy_threshold" validate:"gte=0,lte=100"`
	AutoCancelReason             string         `json:"auto_cancel_reason" validate:"max=500"`
}

// DefaultPolicy is used for gyms without a stored (or readable) policy.
// Both automations are off.
func DefaultPolicy() Policy {
	return Policy{
		AutoAcceptConditions:         []ConditionTag{},
		AutoAcceptOccupancyThreshold: DefaultAcceptThreshold,
		AutoCancelConditions:         []ConditionTag{},
		AutoCancelOccupancyThreshold: DefaultCancelThreshold,
		AutoCancelReason:             DefaultCancelReason,
	}
}

var validate = validator.New()

func (p Policy) Validate() error {
	err := validate.Struct(p)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("%w: %v", ErrInvalidPolicy, err)
	}

	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, describe(fe))
	}
	return fmt.Errorf("%w: %s", ErrInvalidPolicy, strings.Join(msgs, "; "))
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "oneof":
		return fmt.Sprintf("%s: unknown condition %q", fe.Namespace(), fe.Value())
	case "gte":
		return fe.Field() + " must be greater than or equal to " + fe.Param()
	case "lte":
		return fe.Field() + " must be less than or equal to " + fe.Param()
	case "max":
		return fe.Field() + " must be at most " + fe.Param() + " characters"
	default:
		return fe.Field() + " is invalid"
	}
}

func (p Policy) hasCancelCondition(tag ConditionTag) bool {
	for _, c := range p.AutoCancelConditions {
		if c == tag {
			return true
		}
	}
	return false
}

func (p Policy) cancelReason() string {
	if strings.TrimSpace(p.AutoCancelReason) == "" {
		return DefaultCancelReason
	}
	return p.AutoCancelReason
}
