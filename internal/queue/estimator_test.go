package queue

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

func seedWaitSample(t *testing.T, db *gorm.DB, customerID, branchID uuid.UUID, waitTime int, status Status, createdAt time.Time) {
	entry := &Entry{
		ID:         uuid.New(),
		CustomerID: customerID,
		BranchID:   branchID,
		Guests:     2,
		WaitTime:   waitTime,
		Status:     status,
		CreatedAt:  createdAt,
		UpdatedAt:  createdAt,
	}
	assert.NoError(t, db.Create(entry).Error)
}

func TestEstimateFallbackWithoutHistory(t *testing.T) {
	repo, _ := newTestRepository(t)
	estimator := NewEstimator(repo, 24*time.Hour, 15)

	estimate, err := estimator.Estimate(context.Background(), uuid.New())
	assert.NoError(t, err)
	assert.Equal(t, 15, estimate)
}

func TestEstimateMeanOfRecentEntries(t *testing.T) {
	repo, db := newTestRepository(t)
	branchID := uuid.New()
	customer := seedCustomer(t, db, "Khalid", "+966512000010")
	now := time.Now().UTC()

	for _, wait := range []int{10, 20, 30} {
		seedWaitSample(t, db, customer.ID, branchID, wait, StatusCompleted, now.Add(-time.Hour))
	}

	estimator := NewEstimator(repo, 24*time.Hour, 15)
	estimate, err := estimator.Estimate(context.Background(), branchID)
	assert.NoError(t, err)
	assert.Equal(t, 20, estimate)
}

func TestEstimateRoundsToNearestMinute(t *testing.T) {
	repo, db := newTestRepository(t)
	branchID := uuid.New()
	customer := seedCustomer(t, db, "Lina", "+966512000011")
	now := time.Now().UTC()

	// Mean of 10 and 15 is 12.5, rounded to 13.
	seedWaitSample(t, db, customer.ID, branchID, 10, StatusCompleted, now.Add(-time.Hour))
	seedWaitSample(t, db, customer.ID, branchID, 15, StatusCompleted, now.Add(-time.Hour))

	estimator := NewEstimator(repo, 24*time.Hour, 15)
	estimate, err := estimator.Estimate(context.Background(), branchID)
	assert.NoError(t, err)
	assert.Equal(t, 13, estimate)
}

func TestEstimateExcludesCancelledAndStale(t *testing.T) {
	repo, db := newTestRepository(t)
	branchID := uuid.New()
	customer := seedCustomer(t, db, "Maha", "+966512000012")
	now := time.Now().UTC()

	seedWaitSample(t, db, customer.ID, branchID, 10, StatusCompleted, now.Add(-time.Hour))
	// Cancelled entries never teach the estimator.
	seedWaitSample(t, db, customer.ID, branchID, 120, StatusCancelled, now.Add(-time.Hour))
	// Entries outside the trailing window are forgotten.
	seedWaitSample(t, db, customer.ID, branchID, 90, StatusCompleted, now.Add(-30*time.Hour))

	estimator := NewEstimator(repo, 24*time.Hour, 15)
	estimate, err := estimator.Estimate(context.Background(), branchID)
	assert.NoError(t, err)
	assert.Equal(t, 10, estimate)
}

func TestEstimateScopedToBranch(t *testing.T) {
	repo, db := newTestRepository(t)
	branchA := uuid.New()
	branchB := uuid.New()
	customer := seedCustomer(t, db, "Nadia", "+966512000013")
	now := time.Now().UTC()

	seedWaitSample(t, db, customer.ID, branchA, 40, StatusCompleted, now.Add(-time.Hour))
	seedWaitSample(t, db, customer.ID, branchB, 10, StatusCompleted, now.Add(-time.Hour))

	estimator := NewEstimator(repo, 24*time.Hour, 15)
	estimate, err := estimator.Estimate(context.Background(), branchA)
	assert.NoError(t, err)
	assert.Equal(t, 40, estimate)
}
