package llm

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

type fakeLimiter struct {
	acquired int
	err      error
}

func (f *fakeLimiter) Acquire(ctx context.Context) error {
	if f.err != nil {
		return f.err
	}
	f.acquired++
	return nil
}

func TestBrokerReservesPermitsUpFront(t *testing.T) {
	rl := &fakeLimiter{}
	lease, err := NewBroker(rl).Reserve(context.Background(), 3)
	require.NoError(t, err)
	require.Equal(t, 3, rl.acquired)

	ctx := lease.Context(context.Background())
	require.True(t, TakeCredit(ctx))
	require.True(t, TakeCredit(ctx))
	require.True(t, TakeCredit(ctx))
	require.False(t, TakeCredit(ctx), "credits are exhausted after n takes")
}

func TestBrokerPropagatesLimiterError(t *testing.T) {
	rl := &fakeLimiter{err: errors.New("limiter closed")}
	_, err := NewBroker(rl).Reserve(context.Background(), 2)
	require.Error(t, err)
}

func TestBrokerZeroReservation(t *testing.T) {
	rl := &fakeLimiter{}
	lease, err := NewBroker(rl).Reserve(context.Background(), 0)
	require.NoError(t, err)
	require.Equal(t, 0, rl.acquired)
	require.False(t, TakeCredit(lease.Context(context.Background())))
}

func TestTakeCreditWithoutReservation(t *testing.T) {
	require.False(t, TakeCredit(context.Background()))
}

func TestRateLimitedClientPrefersCredits(t *testing.T) {
	inner := NewFakeClient("inner", "resp")
	wrapped := RateLimit(0.001, 1)(inner) // slow limiter; credits must bypass it

	ctx := WithCredits(context.Background(), 1)
	resp, err := wrapped.GenerateText(ctx, "p", Options{})
	require.NoError(t, err)
	require.Equal(t, "resp", resp)
}
