package images

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCooldown_FirstCallDoesNotWait(t *testing.T) {
	cooldown := NewCooldown(time.Second)

	start := time.Now()
	require.NoError(t, cooldown.Wait(context.Background()))
	assert.Less(t, time.Since(start), 100*time.Millisecond)
}

func TestCooldown_SecondCallWaitsForInterval(t *testing.T) {
	const interval = 50 * time.Millisecond
	cooldown := NewCooldown(interval)

	require.NoError(t, cooldown.Wait(context.Background()))

	start := time.Now()
	require.NoError(t, cooldown.Wait(context.Background()))
	assert.GreaterOrEqual(t, time.Since(start), interval-5*time.Millisecond)
}

func TestCooldown_ContextCancelAbortsWait(t *testing.T) {
	cooldown := NewCooldown(time.Minute)
	require.NoError(t, cooldown.Wait(context.Background()))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err := cooldown.Wait(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
