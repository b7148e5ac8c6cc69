package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewDefaults(t *testing.T) {
	d := NewDefaults()

	assert.Equal(t, 100, d.MaxScore)
	assert.Equal(t, 80, d.ScoreVerified)
	assert.Equal(t, 50, d.ScoreLikely)
	assert.Equal(t, 30, d.ScorePartial)
	assert.Equal(t, 50, d.RetryThreshold)

	assert.Greater(t, d.ScoreVerified, d.ScoreLikely)
	assert.Greater(t, d.ScoreLikely, d.ScorePartial)
	assert.Greater(t, d.MaxScore, d.ScoreVerified)
}
