package streak

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/learnify/learnify-hub/internal/domain/shared"
)

func TestParseDay(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{name: "canonical", input: "2024-03-09", want: "2024-03-09"},
		{name: "surrounding spaces", input: " 2024-03-09 ", want: "2024-03-09"},
		{name: "leap day", input: "2024-02-29", want: "2024-02-29"},
		{name: "not a leap year", input: "2023-02-29", wantErr: true},
		{name: "timestamp", input: "2024-03-09T10:00:00Z", wantErr: true},
		{name: "empty", input: "", wantErr: true},
		{name: "garbage", input: "yesterday", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, err := ParseDay(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, shared.ErrInvalidDate)
				assert.True(t, shared.IsValidation(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, d.String())
		})
	}
}

func TestDayOf_StripsTimeAndZone(t *testing.T) {
	almaty := time.FixedZone("UTC+5", 5*60*60)

	morning := time.Date(2024, 5, 1, 0, 30, 0, 0, almaty)
	evening := time.Date(2024, 5, 1, 23, 59, 0, 0, almaty)

	assert.Equal(t, DayOf(morning, almaty), DayOf(evening, almaty))
	assert.Equal(t, "2024-05-01", DayOf(morning, almaty).String())
	// The same instant is still April 30th in UTC.
	assert.Equal(t, "2024-04-30", DayOf(morning, time.UTC).String())
}

func TestDay_Arithmetic(t *testing.T) {
	d := MustParseDay("2024-12-31")

	assert.Equal(t, "2025-01-01", d.AddDays(1).String())
	assert.Equal(t, "2024-12-01", d.AddDays(-30).String())
	assert.True(t, d.Before(d.AddDays(1)))
	assert.True(t, d.After(d.AddDays(-1)))
	assert.Equal(t, 1, d.DaysUntil(d.AddDays(1)))
	assert.Equal(t, -7, d.DaysUntil(d.AddDays(-7)))
	assert.Equal(t, NewDay(2025, time.January, 1), NewDay(2024, time.December, 32))
}

func TestDay_JSON(t *testing.T) {
	e := Entry{Day: MustParseDay("2024-01-15"), Active: true}

	raw, err := json.Marshal(e)
	require.NoError(t, err)
	assert.JSONEq(t, `{"day":"2024-01-15","active":true}`, string(raw))

	var bad Entry
	err = json.Unmarshal([]byte(`{"day":"15/01/2024","active":true}`), &bad)
	assert.ErrorIs(t, err, shared.ErrInvalidDate)
}
