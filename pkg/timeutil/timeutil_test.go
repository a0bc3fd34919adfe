package timeutil

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadLocation(t *testing.T) {
	for _, name := range []string{"", "UTC", "utc", "  UTC "} {
		loc, err := LoadLocation(name)
		require.NoError(t, err, name)
		assert.Equal(t, time.UTC, loc, name)
	}

	loc, err := LoadLocation("+05:00")
	require.NoError(t, err)
	_, offset := time.Date(2024, 1, 1, 0, 0, 0, 0, loc).Zone()
	assert.Equal(t, 5*3600, offset)

	loc, err = LoadLocation("-03:30")
	require.NoError(t, err)
	_, offset = time.Date(2024, 1, 1, 0, 0, 0, 0, loc).Zone()
	assert.Equal(t, -(3*3600 + 30*60), offset)

	_, err = LoadLocation("+5h")
	assert.Error(t, err)

	_, err = LoadLocation("Mars/Olympus_Mons")
	assert.Error(t, err)
}

func TestIsSameDay(t *testing.T) {
	plus5 := time.FixedZone("UTC+05:00", 5*3600)
	a := time.Date(2024, 3, 10, 18, 0, 0, 0, time.UTC)
	b := time.Date(2024, 3, 10, 20, 0, 0, 0, time.UTC)

	assert.True(t, IsSameDay(a, b, time.UTC))
	// 18:00 UTC is 23:00 at +05:00, 20:00 UTC is already the next day there.
	assert.False(t, IsSameDay(a, b, plus5))
	assert.False(t, IsSameDay(a, a.AddDate(1, 0, 0), time.UTC))
}
