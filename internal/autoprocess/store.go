package autoprocess

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"gymdesk/internal/logger"
	"gymdesk/internal/settings"
)

type PolicyStore interface {
	LoadPolicy(ctx context.Context, gymID int) Policy
	GetPolicy(ctx context.Context, gymID int) (Policy, error)
	SavePolicy(ctx context.Context, gymID int, p Policy) error
	GymsWithPolicy(ctx context.Context) ([]int, error)
}

type policyStore struct {
	settings settings.Repository
}

func NewPolicyStore(repo settings.Repository) PolicyStore {
	return &policyStore{settings: repo}
}

// LoadPolicy never fails: a missing, unreadable or invalid document yields
// the default policy.
func (s *policyStore) LoadPolicy(ctx context.Context, gymID int) Policy {
	p, err := s.GetPolicy(ctx, gymID)
	if err != nil {
		logger.Warn("Falling back to default auto-process policy", "gym_id", gymID, "error", err)
		return DefaultPolicy()
	}
	return p
}

func (s *policyStore) GetPolicy(ctx context.Context, gymID int) (Policy, error) {
	raw, err := s.settings.Get(ctx, SettingsKey, group(gymID))
	if err != nil {
		if errors.Is(err, settings.ErrNotFound) {
			return DefaultPolicy(), nil
		}
		return Policy{}, err
	}

	return decodePolicy(raw)
}

func (s *policyStore) SavePolicy(ctx context.Context, gymID int, p Policy) error {
	if err := p.Validate(); err != nil {
		return err
	}

	raw, err := json.Marshal(normalize(p))
	if err != nil {
		return err
	}

	return s.settings.Upsert(ctx, SettingsKey, group(gymID), raw)
}

func (s *policyStore) GymsWithPolicy(ctx context.Context) ([]int, error) {
	groups, err := s.settings.ListGroups(ctx, SettingsKey)
	if err != nil {
		return nil, err
	}

	ids := make([]int, 0, len(groups))
	for _, g := range groups {
		id, err := strconv.Atoi(g)
		if err != nil {
			logger.Warn("Ignoring auto-process settings with non-numeric group", "group", g)
			continue
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// decodePolicy overlays the stored document on the defaults, so fields
// absent from older documents keep their default values.
func decodePolicy(raw json.RawMessage) (Policy, error) {
	p := DefaultPolicy()
	if err := json.Unmarshal(raw, &p); err != nil {
		return Policy{}, fmt.Errorf("%w: %v", ErrInvalidPolicy, err)
	}
	if err := p.Validate(); err != nil {
		return Policy{}, err
	}
	return normalize(p), nil
}

func normalize(p Policy) Policy {
	if p.AutoAcceptConditions == nil {
		p.AutoAcceptConditions = []ConditionTag{}
	}
	if p.AutoCancelConditions == nil {
		p.AutoCancelConditions = []ConditionTag{}
	}
	return p
}

func group(gymID int) string {
	return strconv.Itoa(gymID)
}
