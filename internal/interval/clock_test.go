package interval

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseClock(t *testing.T) {
	cases := []struct {
		in      string
		want    ClockTime
		wantErr bool
	}{
		{in: "08:00", want: ClockTime{Hour: 8}},
		{in: "17:30", want: ClockTime{Hour: 17, Minute: 30}},
		{in: "00:00", want: ClockTime{}},
		{in: "24:00", want: ClockTime{Hour: 24}},
		{in: " 09:15 ", want: ClockTime{Hour: 9, Minute: 15}},
		{in: "24:01", wantErr: true},
		{in: "25:00", wantErr: true},
		{in: "10:60", wantErr: true},
		{in: "-1:00", wantErr: true},
		{in: "0800", wantErr: true},
		{in: "8", wantErr: true},
		{in: "ab:cd", wantErr: true},
	}
	for _, tc := range cases {
		got, err := ParseClock(tc.in)
		if tc.wantErr {
			assert.Error(t, err, tc.in)
			continue
		}
		require.NoError(t, err, tc.in)
		assert.Equal(t, tc.want, got, tc.in)
	}
}

func TestClockOnDay(t *testing.T) {
	day := time.Date(2026, 3, 2, 15, 45, 0, 0, time.Local)

	got := ClockTime{Hour: 8, Minute: 30}.On(day)
	assert.Equal(t, time.Date(2026, 3, 2, 8, 30, 0, 0, time.Local), got)
}

func TestEndOfDaySentinelIsNextMidnight(t *testing.T) {
	day := time.Date(2026, 3, 2, 0, 0, 0, 0, time.Local)

	got := ClockTime{Hour: 24}.On(day)
	assert.Equal(t, time.Date(2026, 3, 3, 0, 0, 0, 0, time.Local), got)
}

func TestMinuteOfDayOrdering(t *testing.T) {
	assert.Less(t,
		ClockTime{Hour: 23, Minute: 59}.MinuteOfDay(),
		ClockTime{Hour: 24}.MinuteOfDay())
}
