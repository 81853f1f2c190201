package schedule

import (
	"fmt"
	"strconv"

	dErrors "campus/pkg/domain-errors"
)

const minutesPerDay = 24 * 60

// EndOfDay is midnight at the close of the day. It is valid only as an
// interval end, written "24:00".
const EndOfDay TimeOfDay = minutesPerDay

// TimeOfDay is a wall-clock time within a day, in minutes since midnight.
type TimeOfDay int

// NewTimeOfDay builds a TimeOfDay from hour and minute.
func NewTimeOfDay(hour, minute int) (TimeOfDay, error) {
	if hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return 0, dErrors.Newf(dErrors.CodeInvalidRange, "time %02d:%02d is not a valid time of day", hour, minute)
	}
	return TimeOfDay(hour*60 + minute), nil
}

// ParseTimeOfDay parses "HH:MM".
func ParseTimeOfDay(raw string) (TimeOfDay, error) {
	if len(raw) != 5 || raw[2] != ':' || !digits(raw[:2]) || !digits(raw[3:]) {
		return 0, dErrors.Newf(dErrors.CodeInvalidRange, "time %q must have the form HH:MM", raw)
	}
	hour, _ := strconv.Atoi(raw[:2])
	minute, _ := strconv.Atoi(raw[3:])
	return NewTimeOfDay(hour, minute)
}

// MustTimeOfDay is ParseTimeOfDay for literals known to be valid.
func MustTimeOfDay(raw string) TimeOfDay {
	t, err := ParseTimeOfDay(raw)
	if err != nil {
		panic(err)
	}
	return t
}

func digits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func (t TimeOfDay) Hour() int   { return int(t) / 60 }
func (t TimeOfDay) Minute() int { return int(t) % 60 }

func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", t.Hour(), t.Minute())
}

func (t TimeOfDay) valid() bool {
	return t >= 0 && t < minutesPerDay
}

// TimeInterval is an immutable half-open range [start, end) within one day.
//
// Invariants:
//   - start < end
//   - both endpoints fall within a single day; end may be EndOfDay
type TimeInterval struct {
	start TimeOfDay
	end   TimeOfDay
}

// NewTimeInterval validates start < end.
func NewTimeInterval(start, end TimeOfDay) (TimeInterval, error) {
	if !start.valid() || end <= 0 || end > EndOfDay {
		return TimeInterval{}, dErrors.Newf(dErrors.CodeInvalidRange, "interval %s-%s is outside a single day", start, end)
	}
	if start >= end {
		return TimeInterval{}, dErrors.Newf(dErrors.CodeInvalidRange, "interval start %s must be before end %s", start, end)
	}
	return TimeInterval{start: start, end: end}, nil
}

// ParseTimeInterval parses "HH:MM" endpoints. The end may be "24:00".
func ParseTimeInterval(start, end string) (TimeInterval, error) {
	s, err := ParseTimeOfDay(start)
	if err != nil {
		return TimeInterval{}, err
	}
	if end == EndOfDay.String() {
		return NewTimeInterval(s, EndOfDay)
	}
	e, err := ParseTimeOfDay(end)
	if err != nil {
		return TimeInterval{}, err
	}
	return NewTimeInterval(s, e)
}

func (i TimeInterval) Start() TimeOfDay { return i.start }
func (i TimeInterval) End() TimeOfDay   { return i.end }

// ConflictsWith reports open-interval overlap. Touching endpoints do not conflict.
func (i TimeInterval) ConflictsWith(other TimeInterval) bool {
	return i.start < other.end && other.start < i.end
}

// DurationMinutes is the length of the interval.
func (i TimeInterval) DurationMinutes() int {
	return int(i.end - i.start)
}

func (i TimeInterval) IsZero() bool {
	return i.start == 0 && i.end == 0
}

func (i TimeInterval) String() string {
	return i.start.String() + "-" + i.end.String()
}
