package notifications

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFormatDuration(t *testing.T) {
	assert.Equal(t, "N/A", formatDuration(0))
	assert.Equal(t, "N/A", formatDuration(-time.Minute))
	assert.Equal(t, "42m", formatDuration(42*time.Minute))
	assert.Equal(t, "1h 0m", formatDuration(time.Hour))
	assert.Equal(t, "2h 5m", formatDuration(2*time.Hour+5*time.Minute))
}

func TestEarnPerHour(t *testing.T) {
	assert.Equal(t, 0.0, earnPerHour(10, 0))
	assert.InDelta(t, 20.0, earnPerHour(10, 30*time.Minute), 1e-9)
	assert.InDelta(t, -5.0, earnPerHour(-10, 2*time.Hour), 1e-9)
}
