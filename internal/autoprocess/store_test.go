package autoprocess

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"gymdesk/internal/logger"
	"gymdesk/internal/settings"
)

func TestMain(m *testing.M) {
	logger.Init()

	code := m.Run()
	os.Exit(code)
}

type MockSettingsRepo struct{ mock.Mock }

func (m *MockSettingsRepo) Get(ctx context.Context, key, group string) (json.RawMessage, error) {
	args := m.Called(ctx, key, group)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(json.RawMessage), args.Error(1)
}

func (m *MockSettingsRepo) Upsert(ctx context.Context, key, group string, value json.RawMessage) error {
	return m.Called(ctx, key, group, value).Error(0)
}

func (m *MockSettingsRepo) ListGroups(ctx context.Context, key string) ([]string, error) {
	args := m.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func TestLoadPolicy_Missing(t *testing.T) {
	repo := new(MockSettingsRepo)
	store := NewPolicyStore(repo)
	ctx := context.Background()

	repo.On("Get", ctx, SettingsKey, "3").Return(nil, settings.ErrNotFound)

	p := store.LoadPolicy(ctx, 3)
	assert.Equal(t, DefaultPolicy(), p)
	assert.False(t, p.AutoAcceptEnabled)
	assert.False(t, p.AutoCancelEnabled)
	repo.AssertExpectations(t)
}

func TestLoadPolicy_Stored(t *testing.T) {
	repo := new(MockSettingsRepo)
	store := NewPolicyStore(repo)
	ctx := context.Background()

	raw := json.RawMessage(`{"auto_accept_enabled":true,"auto_accept_conditions":["low_occupancy"],"auto_accept_occupancy_threshold":60}`)
	repo.On("Get", ctx, SettingsKey, "3").Return(raw, nil)

	p := store.LoadPolicy(ctx, 3)
	assert.True(t, p.AutoAcceptEnabled)
	assert.Equal(t, []ConditionTag{ConditionLowOccupancy}, p.AutoAcceptConditions)
	assert.Equal(t, 60.0, p.AutoAcceptOccupancyThreshold)
	// Fields absent from the document keep their defaults.
	assert.Equal(t, DefaultCancelThreshold, p.AutoCancelOccupancyThreshold)
	assert.Equal(t, DefaultCancelReason, p.AutoCancelReason)
	assert.Equal(t, []ConditionTag{}, p.AutoCancelConditions)
}

func TestLoadPolicy_FallsBackOnBadDocument(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"malformed json", `{"auto_accept_enabled":`},
		{"unknown condition", `{"auto_cancel_enabled":true,"auto_cancel_conditions":["weekends"]}`},
		{"threshold out of range", `{"auto_accept_enabled":true,"auto_accept_occupancy_threshold":150}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(MockSettingsRepo)
			store := NewPolicyStore(repo)
			ctx := context.Background()

			repo.On("Get", ctx, SettingsKey, "9").Return(json.RawMessage(tt.raw), nil)

			assert.Equal(t, DefaultPolicy(), store.LoadPolicy(ctx, 9))
		})
	}
}

func TestLoadPolicy_FallsBackOnStorageError(t *testing.T) {
	repo := new(MockSettingsRepo)
	store := NewPolicyStore(repo)
	ctx := context.Background()

	repo.On("Get", ctx, SettingsKey, "3").Return(nil, errors.New("connection refused"))

	assert.Equal(t, DefaultPolicy(), store.LoadPolicy(ctx, 3))
}

func TestGetPolicy_StorageErrorReturned(t *testing.T) {
	repo := new(MockSettingsRepo)
	store := NewPolicyStore(repo)
	ctx := context.Background()

	repo.On("Get", ctx, SettingsKey, "3").Return(nil, errors.New("connection refused"))

	_, err := store.GetPolicy(ctx, 3)
	assert.Error(t, err)
}

func TestSavePolicy(t *testing.T) {
	repo := new(MockSettingsRepo)
	store := NewPolicyStore(repo)
	ctx := context.Background()

	p := DefaultPolicy()
	p.AutoCancelEnabled = true
	p.AutoCancelConditions = []ConditionTag{ConditionMaintenance}

	repo.On("Upsert", ctx, SettingsKey, "4", mock.MatchedBy(func(raw json.RawMessage) bool {
		var got Policy
		if err := json.Unmarshal(raw, &got); err != nil {
			return false
		}
		return got.AutoCancelEnabled && len(got.AutoCancelConditions) == 1
	})).Return(nil)

	require.NoError(t, store.SavePolicy(ctx, 4, p))
	repo.AssertExpectations(t)
}

func TestSavePolicy_Invalid(t *testing.T) {
	repo := new(MockSettingsRepo)
	store := NewPolicyStore(repo)

	p := DefaultPolicy()
	p.AutoAcceptConditions = []ConditionTag{"sometimes"}

	err := store.SavePolicy(context.Background(), 4, p)
	assert.ErrorIs(t, err, ErrInvalidPolicy)
	repo.AssertNotCalled(t, "Upsert", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestGymsWithPolicy(t *testing.T) {
	repo := new(MockSettingsRepo)
	store := NewPolicyStore(repo)
	ctx := context.Background()

	repo.On("ListGroups", ctx, SettingsKey).Return([]string{"1", "12", "global"}, nil)

	ids, err := store.GymsWithPolicy(ctx)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 12}, ids)
}
