package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLimiterDisabledNeverBlocks(t *testing.T) {
	limiter := NewLimiter(0, 0)
	defer limiter.Stop()

	start := time.Now()
	for i := 0; i < 1000; i++ {
		require.NoError(t, limiter.Wait(context.Background()))
	}
	assert.Less(t, time.Since(start), 100*time.Millisecond)
}

func TestLimiterEnforcesInterval(t *testing.T) {
	limiter := NewLimiter(50, 0) // 20ms Intervall
	defer limiter.Stop()

	start := time.Now()
	for i := 0; i < 3; i++ {
		require.NoError(t, limiter.Wait(context.Background()))
	}
	// Drei Ticks brauchen mindestens zwei volle Intervalle.
	assert.GreaterOrEqual(t, time.Since(start), 40*time.Millisecond)
}

func TestLimiterRespectsContextCancellation(t *testing.T) {
	limiter := NewLimiter(0.1, 0) // Tick alle 10s, kommt im Test nie
	defer limiter.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	err := limiter.Wait(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestLimiterClampsJitter(t *testing.T) {
	limiter := NewLimiter(100, 5)
	defer limiter.Stop()
	assert.Equal(t, 1.0, limiter.jitter)

	negative := NewLimiter(100, -1)
	defer negative.Stop()
	assert.Equal(t, 0.0, negative.jitter)
}
