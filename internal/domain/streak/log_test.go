package streak

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/learnify/learnify-hub/internal/domain/shared"
)

func TestActivityLog_SetGet(t *testing.T) {
	log := NewActivityLog()
	d := MustParseDay("2024-06-10")

	assert.False(t, log.Get(d), "absent days read as inactive")
	assert.False(t, log.Recorded(d))

	log.Set(d, true)
	assert.True(t, log.Get(d))
	assert.True(t, log.Recorded(d))

	log.Set(d, false)
	assert.False(t, log.Get(d))
	assert.True(t, log.Recorded(d))
	assert.Equal(t, 1, log.Len(), "upsert keeps one entry per day")
}

func TestActivityLog_SetDate(t *testing.T) {
	log := NewActivityLog()

	require.NoError(t, log.SetDate("2024-06-10", true))
	assert.True(t, log.Get(MustParseDay("2024-06-10")))

	err := log.SetDate("2024-06-31", true)
	assert.ErrorIs(t, err, shared.ErrInvalidDate)
	assert.Equal(t, 1, log.Len(), "rejected dates leave the log unchanged")
}

func TestActivityLog_OrderingAndClone(t *testing.T) {
	log := NewActivityLogFromEntries([]Entry{
		{Day: MustParseDay("2024-06-12"), Active: true},
		{Day: MustParseDay("2024-06-10"), Active: false},
		{Day: MustParseDay("2024-06-11"), Active: true},
	})

	days := log.Days()
	require.Len(t, days, 3)
	assert.Equal(t, "2024-06-10", days[0].String())
	assert.Equal(t, "2024-06-12", days[2].String())
	assert.Equal(t, 2, log.ActiveDays())

	clone := log.Clone()
	clone.Set(MustParseDay("2024-06-13"), true)
	assert.Equal(t, 3, log.Len())
	assert.Equal(t, 4, clone.Len())

	log.Clear()
	assert.Zero(t, log.Len())
	assert.Empty(t, log.Entries())
	assert.Equal(t, 4, clone.Len())
}
