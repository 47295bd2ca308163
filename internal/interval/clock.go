package interval

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ClockTime is a minutes-of-day wall clock value parsed from "HH:MM".
// The sentinel "24:00" marks end of day and materializes as the next
// midnight.
type ClockTime struct {
	Hour   int
	Minute int
}

// MinuteOfDay orders clock times; 24:00 maps to 1440.
func (c ClockTime) MinuteOfDay() int {
	return c.Hour*60 + c.Minute
}

// ParseClock parses "HH:MM" with 0 <= hour <= 24 and 0 <= minute < 60.
// Hour 24 is only valid as exactly "24:00".
func ParseClock(s string) (ClockTime, error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) != 2 {
		return ClockTime{}, fmt.Errorf("invalid time format HH:MM -> %s", s)
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil {
		return ClockTime{}, fmt.Errorf("invalid time format HH:MM -> %s", s)
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil {
		return ClockTime{}, fmt.Errorf("invalid time format HH:MM -> %s", s)
	}
	if h < 0 || h > 24 || m < 0 || m > 59 {
		return ClockTime{}, fmt.Errorf("invalid time format HH:MM -> %s", s)
	}
	if h == 24 && m != 0 {
		return ClockTime{}, fmt.Errorf("invalid time format HH:MM -> %s", s)
	}
	return ClockTime{Hour: h, Minute: m}, nil
}

// On anchors the clock time to a calendar day. All timestamps in the system
// are naive local times, so the day's location is reused.
func (c ClockTime) On(day time.Time) time.Time {
	midnight := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())
	return midnight.Add(time.Duration(c.MinuteOfDay()) * time.Minute)
}
