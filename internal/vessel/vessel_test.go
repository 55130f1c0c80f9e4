package vessel

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		panic(err)
	}
	return t
}

func TestStaticConfigResolvesMostRecentAtOrBefore(t *testing.T) {
	cfg := NewStaticConfig([]Entry{
		{TimeStamp: mustTime("2024-01-01T00:00:00Z"), WaterlineZ: -0.1},
		{TimeStamp: mustTime("2024-06-01T00:00:00Z"), WaterlineZ: -0.2},
		{TimeStamp: mustTime("2024-09-01T00:00:00Z"), WaterlineZ: -0.3},
	})

	e, ok := cfg.At(mustTime("2024-07-01T00:00:00Z"))
	require.True(t, ok)
	assert.Equal(t, -0.2, e.WaterlineZ)

	e, ok = cfg.At(mustTime("2024-06-01T00:00:00Z"))
	require.True(t, ok)
	assert.Equal(t, -0.2, e.WaterlineZ, "entry exactly at the instant is included")

	_, ok = cfg.At(mustTime("2023-01-01T00:00:00Z"))
	assert.False(t, ok, "before any entry should not resolve")
}

func TestStaticConfigEmpty(t *testing.T) {
	cfg := NewStaticConfig(nil)
	_, ok := cfg.At(time.Now())
	assert.False(t, ok)
}
