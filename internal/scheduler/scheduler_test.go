package scheduler

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"gymdesk/internal/autoprocess"
	"gymdesk/internal/logger"
)

func TestMain(m *testing.M) {
	logger.Init()

	code := m.Run()
	os.Exit(code)
}

type MockProcessor struct{ mock.Mock }

func (m *MockProcessor) GymsWithPolicy(ctx context.Context) ([]int, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]int), args.Error(1)
}

func (m *MockProcessor) ProcessSchedulesAutomatically(ctx context.Context, gymID int) autoprocess.Result {
	return m.Called(ctx, gymID).Get(0).(autoprocess.Result)
}

func TestTick_RunsEveryGym(t *testing.T) {
	p := new(MockProcessor)
	p.On("GymsWithPolicy", mock.Anything).Return([]int{1, 2}, nil)
	p.On("ProcessSchedulesAutomatically", mock.Anything, 1).Return(autoprocess.Result{Success: true, Accepted: 1})
	// A failed gym does not stop the others.
	p.On("ProcessSchedulesAutomatically", mock.Anything, 2).Return(autoprocess.Result{Error: "fetch accept candidates: timeout"})

	New(p, time.Minute).tick(context.Background())

	p.AssertExpectations(t)
}

func TestTick_ListError(t *testing.T) {
	p := new(MockProcessor)
	p.On("GymsWithPolicy", mock.Anything).Return(nil, errors.New("db error"))

	New(p, time.Minute).tick(context.Background())

	p.AssertNotCalled(t, "ProcessSchedulesAutomatically", mock.Anything, mock.Anything)
}

func TestTick_StopsWhenCancelled(t *testing.T) {
	p := new(MockProcessor)
	p.On("GymsWithPolicy", mock.Anything).Return([]int{1, 2}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	New(p, time.Minute).tick(ctx)

	p.AssertNotCalled(t, "ProcessSchedulesAutomatically", mock.Anything, mock.Anything)
}

func TestScheduler_Ticks(t *testing.T) {
	p := new(MockProcessor)
	p.On("GymsWithPolicy", mock.Anything).Return([]int{}, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 80*time.Millisecond)
	defer cancel()

	New(p, 20*time.Millisecond).Start(ctx)

	assert.GreaterOrEqual(t, len(p.Calls), 1)
}

func TestScheduler_StopsOnContextCancel(t *testing.T) {
	p := new(MockProcessor)
	s := New(p, time.Second)

	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		s.Start(ctx)
		close(done)
	}()

	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("scheduler did not stop on context cancel")
	}
}
