package notifications

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/LitKanna/TF-PickupService/internal/domain"
	"github.com/LitKanna/TF-PickupService/internal/events"
	"github.com/LitKanna/TF-PickupService/internal/infra/storage/booking"
)

type mockBookingRepo struct {
	mock.Mock
}

func (m *mockBookingRepo) ListRemindersDue(ctx context.Context, filter booking.ReminderDueFilter) ([]*domain.Booking, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]*domain.Booking), args.Error(1)
}

func (m *mockBookingRepo) MarkReminderSent(ctx context.Context, id int64, at time.Time) (bool, error) {
	args := m.Called(ctx, id, at)
	return args.Bool(0), args.Error(1)
}

type mockBus struct {
	mock.Mock
}

func (m *mockBus) Subscribe(eventType string, handler events.Handler) {
	m.Called(eventType, handler)
}

func (m *mockBus) Publish(event events.Event) {
	m.Called(event)
}

type fixedTime struct {
	now time.Time
}

func (f *fixedTime) Now() time.Time { return f.now }

type nopLogger struct{}

func (nopLogger) Info(format string, v ...interface{})  {}
func (nopLogger) Warn(format string, v ...interface{})  {}
func (nopLogger) Error(format string, v ...interface{}) {}

var reminderNow = time.Date(2025, 6, 10, 8, 15, 0, 0, time.UTC)

func dueBooking(id int64, reference string) *domain.Booking {
	return &domain.Booking{
		ID:         id,
		Reference:  reference,
		UserID:     42,
		BayID:      7,
		PickupDate: time.Date(2025, 6, 10, 0, 0, 0, 0, time.UTC),
		StartTime:  "09:00",
		EndTime:    "09:30",
		Status:     domain.StatusConfirmed,
	}
}

func TestTickPublishesReminders(t *testing.T) {
	repo := &mockBookingRepo{}
	bus := &mockBus{}
	scheduler := NewReminderScheduler(repo, bus, &fixedTime{now: reminderNow}, time.Minute, nopLogger{})

	// Срез за час вперёд от текущего времени
	repo.On("ListRemindersDue", mock.Anything, booking.ReminderDueFilter{
		DueBy: reminderNow.Add(domain.ReminderLead),
		Limit: reminderBatchLimit,
	}).Return([]*domain.Booking{dueBooking(1, "PBAAAA1111")}, nil)
	repo.On("MarkReminderSent", mock.Anything, int64(1), reminderNow).Return(true, nil)
	bus.On("Publish", mock.MatchedBy(func(e events.Event) bool {
		return e.Type == events.BookingReminder && e.Booking.Reference == "PBAAAA1111"
	})).Return()

	scheduler.Tick(context.Background())

	repo.AssertExpectations(t)
	bus.AssertExpectations(t)
}

func TestTickWindowCrossesMidnight(t *testing.T) {
	repo := &mockBookingRepo{}
	bus := &mockBus{}
	lateEvening := time.Date(2025, 6, 10, 23, 30, 0, 0, time.UTC)
	scheduler := NewReminderScheduler(repo, bus, &fixedTime{now: lateEvening}, time.Minute, nopLogger{})

	// В 23:30 срез уходит на следующие сутки и захватывает пикап 00:15
	earlyPickup := dueBooking(3, "PBEEEE5555")
	earlyPickup.PickupDate = time.Date(2025, 6, 11, 0, 0, 0, 0, time.UTC)
	earlyPickup.StartTime = "00:15"
	earlyPickup.EndTime = "00:45"

	repo.On("ListRemindersDue", mock.Anything, booking.ReminderDueFilter{
		DueBy: time.Date(2025, 6, 11, 0, 30, 0, 0, time.UTC),
		Limit: reminderBatchLimit,
	}).Return([]*domain.Booking{earlyPickup}, nil)
	repo.On("MarkReminderSent", mock.Anything, int64(3), lateEvening).Return(true, nil)
	bus.On("Publish", mock.MatchedBy(func(e events.Event) bool {
		return e.Type == events.BookingReminder && e.Booking.Reference == "PBEEEE5555"
	})).Return()

	scheduler.Tick(context.Background())

	repo.AssertExpectations(t)
	bus.AssertExpectations(t)
}

func TestTickSkipsAlreadyClaimed(t *testing.T) {
	repo := &mockBookingRepo{}
	bus := &mockBus{}
	scheduler := NewReminderScheduler(repo, bus, &fixedTime{now: reminderNow}, time.Minute, nopLogger{})

	repo.On("ListRemindersDue", mock.Anything, mock.Anything).Return([]*domain.Booking{
		dueBooking(1, "PBAAAA1111"),
		dueBooking(2, "PBBBBB2222"),
	}, nil)
	// Первое бронирование уже отмечено другим экземпляром
	repo.On("MarkReminderSent", mock.Anything, int64(1), reminderNow).Return(false, nil)
	repo.On("MarkReminderSent", mock.Anything, int64(2), reminderNow).Return(true, nil)
	bus.On("Publish", mock.MatchedBy(func(e events.Event) bool {
		return e.Booking.Reference == "PBBBBB2222"
	})).Return()

	scheduler.Tick(context.Background())

	bus.AssertNumberOfCalls(t, "Publish", 1)
}

func TestTickMarkFailureDoesNotStopBatch(t *testing.T) {
	repo := &mockBookingRepo{}
	bus := &mockBus{}
	scheduler := NewReminderScheduler(repo, bus, &fixedTime{now: reminderNow}, time.Minute, nopLogger{})

	repo.On("ListRemindersDue", mock.Anything, mock.Anything).Return([]*domain.Booking{
		dueBooking(1, "PBAAAA1111"),
		dueBooking(2, "PBBBBB2222"),
	}, nil)
	repo.On("MarkReminderSent", mock.Anything, int64(1), reminderNow).Return(false, assert.AnError)
	repo.On("MarkReminderSent", mock.Anything, int64(2), reminderNow).Return(true, nil)
	bus.On("Publish", mock.Anything).Return()

	scheduler.Tick(context.Background())

	bus.AssertNumberOfCalls(t, "Publish", 1)
}
