package scoring

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestApplyOutcome(t *testing.T) {
	var policy = DefaultPolicy()

	t.Run("should add the bonus for an on-time payment", func(t *testing.T) {
		assert.Equal(t, 110, policy.ApplyOutcome(100, 0))
		assert.Equal(t, 110, policy.ApplyOutcome(100, -5))
	})

	t.Run("should scale the penalty with days late", func(t *testing.T) {
		assert.Equal(t, 91, policy.ApplyOutcome(100, 10))
		assert.Equal(t, 99, policy.ApplyOutcome(100, 2))
	})

	t.Run("should not penalise lateness within the grace period", func(t *testing.T) {
		assert.Equal(t, 100, policy.ApplyOutcome(100, 1))
	})

	t.Run("should be pure", func(t *testing.T) {
		for i := 0; i < 3; i++ {
			assert.Equal(t, 91, policy.ApplyOutcome(100, 10))
		}
	})

	t.Run("should allow the score to go below zero", func(t *testing.T) {
		assert.Equal(t, -20, policy.ApplyOutcome(10, 31))
	})
}

func TestApplyMissed(t *testing.T) {
	var policy = DefaultPolicy()

	assert.Equal(t, 70, policy.ApplyMissed(100))
	assert.Equal(t, 40, policy.ApplyMissed(policy.ApplyMissed(100)))
}

func TestDaysLate(t *testing.T) {
	var due = time.Date(2025, 7, 20, 0, 0, 0, 0, time.UTC)

	t.Run("should be zero at or before the due date", func(t *testing.T) {
		assert.Equal(t, 0, DaysLate(due, due))
		assert.Equal(t, 0, DaysLate(due, due.Add(-time.Second)))
	})

	t.Run("should truncate partial days", func(t *testing.T) {
		assert.Equal(t, 0, DaysLate(due, due.Add(23*time.Hour)))
		assert.Equal(t, 1, DaysLate(due, due.Add(25*time.Hour)))
		assert.Equal(t, 10, DaysLate(due, due.AddDate(0, 0, 10)))
	})
}

func TestCustomPolicy(t *testing.T) {
	var policy = Policy{OnTimeBonus: 0, LatePerDay: 3, LateGraceDays: 0, MissedPenalty: 50}

	assert.Equal(t, 100, policy.ApplyOutcome(100, 0))
	assert.Equal(t, 85, policy.ApplyOutcome(100, 5))
	assert.Equal(t, 50, policy.ApplyMissed(100))
}
