package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

type MockPurger struct {
	mock.Mock
}

func (m *MockPurger) PurgeBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	args := m.Called(ctx, cutoff)
	return args.Get(0).(int64), args.Error(1)
}

func TestNewRetentionPurger_Invalid(t *testing.T) {
	tests := []struct {
		name   string
		config RetentionConfig
	}{
		{"no retention", RetentionConfig{Interval: time.Hour}},
		{"no interval", RetentionConfig{Retention: time.Hour}},
		{"negative", RetentionConfig{Retention: -time.Hour, Interval: time.Hour}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewRetentionPurger(tt.config, new(MockPurger), zap.NewNop())
			assert.ErrorIs(t, err, ErrInvalidRetention)
		})
	}
}

func TestRetentionPurger_PurgeNow(t *testing.T) {
	now := time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC)
	purger := new(MockPurger)
	purger.On("PurgeBefore", mock.Anything, now.Add(-72*time.Hour)).Return(int64(4), nil)

	core, logs := observer.New(zap.InfoLevel)
	p, err := NewRetentionPurger(RetentionConfig{Retention: 72 * time.Hour, Interval: time.Hour}, purger, zap.New(core))
	require.NoError(t, err)
	p.now = func() time.Time { return now }

	assert.Equal(t, int64(4), p.PurgeNow(context.Background()))
	assert.Equal(t, now, p.LastRun())
	require.Equal(t, 1, logs.Len())
	assert.Equal(t, int64(4), logs.All()[0].ContextMap()["deleted"])
	purger.AssertExpectations(t)
}

func TestRetentionPurger_PurgeNowFailure(t *testing.T) {
	purger := new(MockPurger)
	purger.On("PurgeBefore", mock.Anything, mock.Anything).Return(int64(0), errors.New("database is locked"))

	core, logs := observer.New(zap.ErrorLevel)
	p, err := NewRetentionPurger(RetentionConfig{Retention: time.Hour, Interval: time.Hour}, purger, zap.New(core))
	require.NoError(t, err)

	assert.Zero(t, p.PurgeNow(context.Background()))
	assert.True(t, p.LastRun().IsZero())
	assert.Equal(t, 1, logs.FilterMessage("Failed to purge expired sync outcomes").Len())
}

func TestRetentionPurger_StartStop(t *testing.T) {
	purged := make(chan struct{}, 1)
	purger := new(MockPurger)
	purger.On("PurgeBefore", mock.Anything, mock.Anything).
		Run(func(mock.Arguments) {
			select {
			case purged <- struct{}{}:
			default:
			}
		}).
		Return(int64(0), nil)

	p, err := NewRetentionPurger(RetentionConfig{Retention: time.Hour, Interval: time.Hour}, purger, zap.NewNop())
	require.NoError(t, err)

	require.NoError(t, p.Start(context.Background()))
	require.NoError(t, p.Start(context.Background()), "second start is a no-op")

	select {
	case <-purged:
	case <-time.After(2 * time.Second):
		t.Fatal("purge did not run on start")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	assert.NoError(t, p.Stop(ctx))
	assert.NoError(t, p.Stop(ctx), "second stop is a no-op")
}
