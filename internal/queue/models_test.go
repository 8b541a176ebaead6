package queue

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestStatusTransitions(t *testing.T) {
	allowed := []struct{ from, to Status }{
		{StatusWaiting, StatusCalled},
		{StatusWaiting, StatusCancelled},
		{StatusCalled, StatusSeated},
		{StatusCalled, StatusCancelled},
		{StatusSeated, StatusCompleted},
	}
	for _, tc := range allowed {
		assert.True(t, tc.from.CanTransitionTo(tc.to), "%s -> %s should be allowed", tc.from, tc.to)
	}

	forbidden := []struct{ from, to Status }{
		{StatusWaiting, StatusSeated},
		{StatusWaiting, StatusCompleted},
		{StatusSeated, StatusCancelled},
		{StatusSeated, StatusWaiting},
		{StatusCancelled, StatusWaiting},
		{StatusCompleted, StatusWaiting},
		{StatusCalled, StatusWaiting},
	}
	for _, tc := range forbidden {
		assert.False(t, tc.from.CanTransitionTo(tc.to), "%s -> %s should be rejected", tc.from, tc.to)
	}
}

func TestStatusClassification(t *testing.T) {
	assert.True(t, StatusWaiting.IsActive())
	assert.True(t, StatusCalled.IsActive())
	assert.True(t, StatusSeated.IsActive())
	assert.False(t, StatusCancelled.IsActive())
	assert.False(t, StatusCompleted.IsActive())

	assert.True(t, StatusCancelled.IsTerminal())
	assert.True(t, StatusCompleted.IsTerminal())
	assert.False(t, StatusSeated.IsTerminal())

	assert.False(t, Status("unknown").IsValid())
	assert.True(t, StatusWaiting.IsValid())
}

func TestElapsedMinutes(t *testing.T) {
	created := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	now := created.Add(42 * time.Minute)

	waiting := &Entry{Status: StatusWaiting, CreatedAt: created, UpdatedAt: created}
	elapsed := waiting.ElapsedMinutes(now)
	assert.NotNil(t, elapsed)
	assert.Equal(t, 42, *elapsed)

	// Non-waiting entries freeze at their last status change.
	seated := &Entry{Status: StatusSeated, CreatedAt: created, UpdatedAt: created.Add(25 * time.Minute)}
	elapsed = seated.ElapsedMinutes(now)
	assert.NotNil(t, elapsed)
	assert.Equal(t, 25, *elapsed)

	completed := &Entry{Status: StatusCompleted, CreatedAt: created, UpdatedAt: created.Add(90 * time.Minute)}
	elapsed = completed.ElapsedMinutes(now)
	assert.NotNil(t, elapsed)
	assert.Equal(t, 90, *elapsed)

	cancelled := &Entry{Status: StatusCancelled, CreatedAt: created, UpdatedAt: created.Add(5 * time.Minute)}
	assert.Nil(t, cancelled.ElapsedMinutes(now))
}
