package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestFirstOccurrenceDaily(t *testing.T) {
	s := &RecurringPickupSchedule{
		Frequency: FrequencyDaily,
		StartDate: day(2025, 6, 10),
	}
	assert.Equal(t, day(2025, 6, 10), s.FirstOccurrence())
}

func TestFirstOccurrenceWeekly(t *testing.T) {
	// 2025-06-10 это вторник
	s := &RecurringPickupSchedule{
		Frequency:  FrequencyWeekly,
		DaysOfWeek: []time.Weekday{time.Friday},
		StartDate:  day(2025, 6, 10),
	}
	assert.Equal(t, day(2025, 6, 13), s.FirstOccurrence())

	// Стартовая дата сама подходит под правило
	s.DaysOfWeek = []time.Weekday{time.Tuesday}
	assert.Equal(t, day(2025, 6, 10), s.FirstOccurrence())
}

func TestNextOccurrenceAfterWeekly(t *testing.T) {
	s := &RecurringPickupSchedule{
		Frequency:  FrequencyWeekly,
		DaysOfWeek: []time.Weekday{time.Monday, time.Thursday},
		StartDate:  day(2025, 6, 2),
	}

	// После понедельника 2025-06-02 следующий подходящий день четверг
	assert.Equal(t, day(2025, 6, 5), s.NextOccurrenceAfter(day(2025, 6, 2)))
	// После четверга следующий понедельник
	assert.Equal(t, day(2025, 6, 9), s.NextOccurrenceAfter(day(2025, 6, 5)))
}

func TestFirstOccurrenceMonthlyStaysInStartMonth(t *testing.T) {
	s := &RecurringPickupSchedule{
		Frequency:  FrequencyMonthly,
		DayOfMonth: 20,
		StartDate:  day(2025, 1, 5),
	}

	// День месяца ещё впереди, первый запуск в том же месяце
	assert.Equal(t, day(2025, 1, 20), s.FirstOccurrence())

	// День месяца уже прошёл, запуск переносится на следующий месяц
	s.StartDate = day(2025, 1, 25)
	assert.Equal(t, day(2025, 2, 20), s.FirstOccurrence())

	// Стартовая дата сама подходит под правило
	s.StartDate = day(2025, 1, 20)
	assert.Equal(t, day(2025, 1, 20), s.FirstOccurrence())
}

func TestNextOccurrenceAfterMonthlyClampsToShortMonth(t *testing.T) {
	s := &RecurringPickupSchedule{
		Frequency:  FrequencyMonthly,
		DayOfMonth: 31,
		StartDate:  day(2025, 1, 31),
	}

	// Февраль 2025 кончается 28-го
	assert.Equal(t, day(2025, 2, 28), s.NextOccurrenceAfter(day(2025, 1, 31)))
	assert.Equal(t, day(2025, 3, 31), s.NextOccurrenceAfter(day(2025, 2, 28)))
}

func TestScheduleExpired(t *testing.T) {
	end := day(2025, 6, 30)
	s := &RecurringPickupSchedule{
		Frequency: FrequencyDaily,
		StartDate: day(2025, 6, 1),
		EndDate:   &end,
	}

	assert.False(t, s.Expired(day(2025, 6, 30)), "end date itself is still valid")
	assert.True(t, s.Expired(day(2025, 7, 1)))

	s.EndDate = nil
	assert.False(t, s.Expired(day(2030, 1, 1)), "open-ended schedule never expires")
}
