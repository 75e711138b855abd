package client

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestComputeBackoff_NeverExceedsCap(t *testing.T) {
	retries := 1
	for i := 0; i < 20; i++ {
		var d time.Duration
		d, retries = computeBackoff(retries)
		assert.LessOrEqual(t, d, backoffCap)
		retries++
	}
}

func TestComputeBackoff_RetriesDoesNotGrowUnboundedOnceCapHit(t *testing.T) {
	retries := 1
	maxSeenAtCap := 0
	for i := 0; i < 30; i++ {
		var d time.Duration
		d, retries = computeBackoff(retries)
		if d == backoffCap {
			if maxSeenAtCap == 0 {
				maxSeenAtCap = retries
			}
			assert.LessOrEqual(t, retries, maxSeenAtCap+1)
		}
		retries++
	}
}

func TestComputeBackoff_FirstInvoluntaryRetryIsNotZero(t *testing.T) {
	d, _ := computeBackoff(1)
	assert.GreaterOrEqual(t, d, time.Duration(backoffMinBaseMillis)*time.Millisecond)
}

func TestComputeBackoff_RoughlyDoublesBeforeCap(t *testing.T) {
	// Jitter is uniform in [0, base), so the expected midpoint of the
	// resulting duration is 1.5x base; sampling a few retries and
	// checking monotonic growth in the *minimum possible* value (pure
	// base, no jitter) is what's actually guaranteed.
	prevBase := 0.0
	for retries := 2; retries <= 8; retries++ {
		base := 1000.0
		for p := 0; p < retries-2; p++ {
			base *= 2
		}
		if base < backoffMinBaseMillis {
			base = backoffMinBaseMillis
		}
		d, _ := computeBackoff(retries)
		assert.GreaterOrEqual(t, d, time.Duration(base)*time.Millisecond)
		assert.Less(t, d, 2*time.Duration(base)*time.Millisecond)
		assert.GreaterOrEqual(t, base, prevBase)
		prevBase = base
	}
}
