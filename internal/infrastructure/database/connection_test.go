package database

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCircuitBreakerTripsAfterThreshold(t *testing.T) {
	cb := &CircuitBreaker{timeout: 30 * time.Second, threshold: 3}

	assert.True(t, cb.Allow())

	cb.RecordFailure()
	cb.RecordFailure()
	assert.True(t, cb.Allow())

	cb.RecordFailure()
	assert.False(t, cb.Allow())
}

func TestCircuitBreakerHalfOpensAfterTimeout(t *testing.T) {
	cb := &CircuitBreaker{timeout: 30 * time.Second, threshold: 1}

	cb.RecordFailure()
	assert.False(t, cb.Allow())

	cb.lastFailureTime = time.Now().Add(-time.Minute)
	assert.True(t, cb.Allow(), "probe allowed once the timeout has passed")

	cb.RecordSuccess()
	assert.True(t, cb.Allow())
	assert.Equal(t, CircuitClosed, cb.state)
}

func TestCircuitBreakerReopensOnHalfOpenFailure(t *testing.T) {
	cb := &CircuitBreaker{timeout: 30 * time.Second, threshold: 1}

	cb.RecordFailure()
	cb.lastFailureTime = time.Now().Add(-time.Minute)
	assert.True(t, cb.Allow())

	cb.RecordFailure()
	assert.False(t, cb.Allow())
}
