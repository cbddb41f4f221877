package schema

import (
	"fmt"
	"time"
)

// Step is the stride used to cut the global window into intervals. Month
// strides are calendar-aware so boundaries land on exact month arithmetic
// rather than an approximated duration; every other stride is a plain
// duration.
type Step struct {
	Months int           // Calendar months per step; takes precedence when > 0
	Delta  time.Duration // Fixed duration per step when Months == 0
}

// IsZero reports whether the step would not advance a cursor at all.
func (s Step) IsZero() bool {
	return s.Months <= 0 && s.Delta <= 0
}

// Advance returns t moved forward by one step.
func (s Step) Advance(t time.Time) time.Time {
	if s.Months > 0 {
		return t.AddDate(0, s.Months, 0)
	}
	return t.Add(s.Delta)
}

// String renders the step the way it is written in configuration.
func (s Step) String() string {
	if s.Months > 0 {
		if s.Months%12 == 0 {
			years := s.Months / 12
			if years == 1 {
				return "1 year"
			}
			return fmt.Sprintf("%d years", years)
		}
		if s.Months == 1 {
			return "1 month"
		}
		return fmt.Sprintf("%d months", s.Months)
	}
	return s.Delta.String()
}
