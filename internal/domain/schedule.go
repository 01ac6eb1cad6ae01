package domain

import (
	"time"

	"github.com/LitKanna/TF-PickupService/pkg/types"
)

// ScheduleFrequency recurrence step of a pickup schedule
type ScheduleFrequency string

const (
	FrequencyDaily   ScheduleFrequency = "daily"
	FrequencyWeekly  ScheduleFrequency = "weekly"
	FrequencyMonthly ScheduleFrequency = "monthly"
)

// RecurringPickupSchedule is a recurrence rule that periodically asks the
// booking lifecycle engine to materialize the next concrete booking.
type RecurringPickupSchedule struct {
	ID     int64
	UserID int64
	BayID  int64
	SlotID *int64

	Frequency ScheduleFrequency

	// DaysOfWeek constrains weekly schedules; DayOfMonth constrains monthly ones.
	DaysOfWeek []time.Weekday
	DayOfMonth int

	PreferredTime   types.TimeString
	DurationMinutes int

	StartDate time.Time
	EndDate   *time.Time

	AutoConfirm bool

	NextBookingDate *time.Time

	// NeedsAttention is raised when materialization fails; the schedule is
	// never silently skipped.
	NeedsAttention bool
	LastError      *string

	Active    bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// IsValidFrequency reports whether f is a known frequency.
func IsValidFrequency(f ScheduleFrequency) bool {
	switch f {
	case FrequencyDaily, FrequencyWeekly, FrequencyMonthly:
		return true
	}
	return false
}

// FirstOccurrence computes the first booking date on or after the schedule's
// start date that satisfies the recurrence rule.
func (s *RecurringPickupSchedule) FirstOccurrence() time.Time {
	day := dateOnly(s.StartDate)
	if s.matches(day) {
		return day
	}
	return s.NextOccurrenceAfter(day)
}

// NextOccurrenceAfter computes the next booking date strictly after the
// given date, according to the recurrence rule.
func (s *RecurringPickupSchedule) NextOccurrenceAfter(after time.Time) time.Time {
	day := dateOnly(after)

	switch s.Frequency {
	case FrequencyDaily:
		return day.AddDate(0, 0, 1)

	case FrequencyWeekly:
		// Scan the next seven days for a matching weekday.
		for i := 1; i <= 7; i++ {
			candidate := day.AddDate(0, 0, i)
			if s.matchesWeekday(candidate.Weekday()) {
				return candidate
			}
		}
		return day.AddDate(0, 0, 7)

	case FrequencyMonthly:
		// Остаток текущего месяца просматривается раньше следующего.
		candidate := clampToMonth(firstOfMonth(day), s.DayOfMonth)
		if candidate.After(day) {
			return candidate
		}
		return clampToMonth(firstOfMonth(day).AddDate(0, 1, 0), s.DayOfMonth)

	default:
		return day.AddDate(0, 0, 1)
	}
}

// Expired reports whether the rule has run past its end date.
func (s *RecurringPickupSchedule) Expired(date time.Time) bool {
	return s.EndDate != nil && dateOnly(date).After(dateOnly(*s.EndDate))
}

func (s *RecurringPickupSchedule) matches(day time.Time) bool {
	switch s.Frequency {
	case FrequencyWeekly:
		return s.matchesWeekday(day.Weekday())
	case FrequencyMonthly:
		return day.Day() == clampDay(day, s.DayOfMonth)
	default:
		return true
	}
}

func (s *RecurringPickupSchedule) matchesWeekday(d time.Weekday) bool {
	if len(s.DaysOfWeek) == 0 {
		return true
	}
	for _, w := range s.DaysOfWeek {
		if w == d {
			return true
		}
	}
	return false
}

func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

func firstOfMonth(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
}

// clampToMonth returns the requested day of the month, clamped to the last
// day when the month is shorter (e.g. day 31 in February).
func clampToMonth(monthStart time.Time, day int) time.Time {
	return time.Date(monthStart.Year(), monthStart.Month(), clampDay(monthStart, day), 0, 0, 0, 0, monthStart.Location())
}

func clampDay(anyDayInMonth time.Time, day int) int {
	if day <= 0 {
		day = 1
	}
	last := firstOfMonth(anyDayInMonth).AddDate(0, 1, -1).Day()
	if day > last {
		return last
	}
	return day
}
