package queue

import (
	"context"
	"math"
	"time"

	"github.com/google/uuid"
)

// Estimator computes the wait-time quote for a new entry from the
// branch's recent history. The quote is frozen into the entry at
// creation and feeds later estimates through its own wait_time value,
// so the figure behaves as a self-reinforcing moving average.
type Estimator struct {
	repo           Repository
	window         time.Duration
	fallbackMinute int
}

func NewEstimator(repo Repository, window time.Duration, fallbackMinutes int) *Estimator {
	return &Estimator{
		repo:           repo,
		window:         window,
		fallbackMinute: fallbackMinutes,
	}
}

// Estimate returns the mean wait_time of the branch's non-cancelled
// entries created inside the trailing window, rounded to the nearest
// minute. With no qualifying history it returns the fallback.
func (e *Estimator) Estimate(ctx context.Context, branchID uuid.UUID) (int, error) {
	since := time.Now().UTC().Add(-e.window)
	waits, err := e.repo.WaitTimesSince(ctx, branchID, since)
	if err != nil {
		return 0, err
	}
	if len(waits) == 0 {
		return e.fallbackMinute, nil
	}

	sum := 0
	for _, w := range waits {
		sum += w
	}
	return int(math.Round(float64(sum) / float64(len(waits)))), nil
}
