package web

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestPercent(t *testing.T) {
	assert.Equal(t, "82.5%", percent1(82.5))
	assert.Equal(t, "0.0%", percent1(0))
	assert.Equal(t, "100.0%", percent1(100))
}

func TestProbability(t *testing.T) {
	assert.Equal(t, "93.0%", probability(0.93))
	assert.Equal(t, "5.5%", probability(0.055))
}

func TestHumanTime(t *testing.T) {
	assert.Equal(t, "never", humanTime(time.Time{}))
	assert.Contains(t, humanTime(time.Now().Add(-2*time.Minute)), "ago")
}
