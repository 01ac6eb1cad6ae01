package bookings

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/LitKanna/TF-PickupService/internal/domain"
	"github.com/LitKanna/TF-PickupService/internal/events"
	bookingRepo "github.com/LitKanna/TF-PickupService/internal/infra/storage/booking"
	"github.com/LitKanna/TF-PickupService/pkg/ptr"
)

type mockBookingRepo struct {
	mock.Mock
}

func (m *mockBookingRepo) GetByID(ctx context.Context, id int64) (*domain.Booking, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Booking), args.Error(1)
}

func (m *mockBookingRepo) GetByReference(ctx context.Context, reference string) (*domain.Booking, error) {
	args := m.Called(ctx, reference)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Booking), args.Error(1)
}

func (m *mockBookingRepo) ListByUser(ctx context.Context, userID int64, status *domain.BookingStatus) ([]*domain.Booking, error) {
	args := m.Called(ctx, userID, status)
	return args.Get(0).([]*domain.Booking), args.Error(1)
}

func (m *mockBookingRepo) SetCompleted(ctx context.Context, id int64, at time.Time) error {
	return m.Called(ctx, id, at).Error(0)
}

func (m *mockBookingRepo) Cancel(ctx context.Context, id int64, reason, actor string, at time.Time) error {
	return m.Called(ctx, id, reason, actor, at).Error(0)
}

type mockAvailRepo struct {
	mock.Mock
}

func (m *mockAvailRepo) DeleteByBookingID(ctx context.Context, bookingID int64) error {
	return m.Called(ctx, bookingID).Error(0)
}

type mockRegistryRepo struct {
	mock.Mock
}

func (m *mockRegistryRepo) UpdateBayStatus(ctx context.Context, id int64, status domain.BayStatus) error {
	return m.Called(ctx, id, status).Error(0)
}

type mockOrderClient struct {
	mock.Mock
}

func (m *mockOrderClient) UpdateOrderStatus(ctx context.Context, orderRef string, status string) error {
	return m.Called(ctx, orderRef, status).Error(0)
}

func (m *mockOrderClient) TriggerRefund(ctx context.Context, orderRef string, bookingReference string) error {
	return m.Called(ctx, orderRef, bookingReference).Error(0)
}

type mockBus struct {
	mock.Mock
}

func (m *mockBus) Publish(event events.Event) {
	m.Called(event)
}

type mockCache struct {
	mock.Mock
}

func (m *mockCache) InvalidateBayDate(ctx context.Context, bayID int64, date time.Time) {
	m.Called(ctx, bayID, date)
}

type fakeTxManager struct{}

func (f *fakeTxManager) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type fixedTime struct {
	now time.Time
}

func (f *fixedTime) Now() time.Time { return f.now }

type nopLogger struct{}

func (nopLogger) Info(format string, v ...interface{})  {}
func (nopLogger) Warn(format string, v ...interface{})  {}
func (nopLogger) Error(format string, v ...interface{}) {}

type fixture struct {
	svc      *Service
	bookings *mockBookingRepo
	avail    *mockAvailRepo
	reg      *mockRegistryRepo
	orders   *mockOrderClient
	bus      *mockBus
	cache    *mockCache
}

var testNow = time.Date(2025, 6, 9, 12, 0, 0, 0, time.UTC)

func newFixture() *fixture {
	f := &fixture{
		bookings: &mockBookingRepo{},
		avail:    &mockAvailRepo{},
		reg:      &mockRegistryRepo{},
		orders:   &mockOrderClient{},
		bus:      &mockBus{},
		cache:    &mockCache{},
	}
	f.svc = NewService(f.bookings, f.avail, f.reg, f.orders, &fakeTxManager{}, f.bus, f.cache, &fixedTime{now: testNow}, nopLogger{})
	return f
}

func confirmedBooking() *domain.Booking {
	return &domain.Booking{
		ID:         300,
		Reference:  "PBCCCC3333",
		UserID:     42,
		BayID:      7,
		PickupDate: time.Date(2025, 6, 10, 0, 0, 0, 0, time.UTC),
		StartTime:  "09:00",
		EndTime:    "09:30",
		Status:     domain.StatusConfirmed,
	}
}

func TestGetByIDChecksOwnership(t *testing.T) {
	f := newFixture()

	f.bookings.On("GetByID", mock.Anything, int64(300)).Return(confirmedBooking(), nil)

	resp, err := f.svc.GetByID(context.Background(), 300, 42)
	require.NoError(t, err)
	assert.Equal(t, "PBCCCC3333", resp.Reference)

	_, err = f.svc.GetByID(context.Background(), 300, 99)
	assert.ErrorIs(t, err, ErrAccessDenied)
}

func TestGetUserBookingsValidatesStatus(t *testing.T) {
	f := newFixture()

	confirmed := domain.StatusConfirmed
	f.bookings.On("ListByUser", mock.Anything, int64(42), &confirmed).
		Return([]*domain.Booking{confirmedBooking()}, nil)

	resp, err := f.svc.GetUserBookings(context.Background(), 42, ptr.Ptr("confirmed"))
	require.NoError(t, err)
	assert.Len(t, resp.Bookings, 1)

	_, err = f.svc.GetUserBookings(context.Background(), 42, ptr.Ptr("in_limbo"))
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestCancelReleasesBlockAndPublishes(t *testing.T) {
	f := newFixture()

	booking := confirmedBooking()
	f.bookings.On("GetByID", mock.Anything, int64(300)).Return(booking, nil)
	f.bookings.On("Cancel", mock.Anything, int64(300), "changed plans", ActorBuyer, testNow).Return(nil)
	f.avail.On("DeleteByBookingID", mock.Anything, int64(300)).Return(nil)
	f.cache.On("InvalidateBayDate", mock.Anything, int64(7), booking.PickupDate).Return()
	f.bus.On("Publish", mock.MatchedBy(func(e events.Event) bool {
		return e.Type == events.BookingCancelled && e.Reason != nil && *e.Reason == "changed plans"
	})).Return()

	resp, err := f.svc.Cancel(context.Background(), &CancelRequest{
		BookingID: 300,
		UserID:    42,
		Actor:     ActorBuyer,
		Reason:    "changed plans",
	})
	require.NoError(t, err)
	assert.Equal(t, "cancelled", resp.Status)

	f.avail.AssertExpectations(t)
	f.bus.AssertExpectations(t)
	f.orders.AssertNotCalled(t, "TriggerRefund", mock.Anything, mock.Anything, mock.Anything)
}

func TestCancelPaidBookingTriggersRefund(t *testing.T) {
	f := newFixture()

	booking := confirmedBooking()
	booking.Paid = true
	booking.OrderRef = ptr.Ptr("ORD-5")
	f.bookings.On("GetByID", mock.Anything, int64(300)).Return(booking, nil)
	f.bookings.On("Cancel", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)
	f.avail.On("DeleteByBookingID", mock.Anything, int64(300)).Return(nil)
	f.cache.On("InvalidateBayDate", mock.Anything, mock.Anything, mock.Anything).Return()
	f.orders.On("TriggerRefund", mock.Anything, "ORD-5", "PBCCCC3333").Return(nil)
	f.bus.On("Publish", mock.Anything).Return()

	_, err := f.svc.Cancel(context.Background(), &CancelRequest{
		BookingID: 300, UserID: 42, Actor: ActorBuyer, Reason: "order refunded",
	})
	require.NoError(t, err)

	f.orders.AssertExpectations(t)
}

func TestCancelPaidBookingWithoutOrderRefSkipsRefund(t *testing.T) {
	f := newFixture()

	// Оплачено на месте, без заказа: возврат проводить некому
	booking := confirmedBooking()
	booking.Paid = true
	booking.OrderRef = nil
	f.bookings.On("GetByID", mock.Anything, int64(300)).Return(booking, nil)
	f.bookings.On("Cancel", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)
	f.avail.On("DeleteByBookingID", mock.Anything, int64(300)).Return(nil)
	f.cache.On("InvalidateBayDate", mock.Anything, mock.Anything, mock.Anything).Return()
	f.bus.On("Publish", mock.Anything).Return()

	resp, err := f.svc.Cancel(context.Background(), &CancelRequest{
		BookingID: 300, UserID: 42, Actor: ActorBuyer, Reason: "changed plans",
	})
	require.NoError(t, err)
	assert.Equal(t, "cancelled", resp.Status)

	f.orders.AssertNotCalled(t, "TriggerRefund", mock.Anything, mock.Anything, mock.Anything)
}

func TestCancelRefundFailureDoesNotFailCancel(t *testing.T) {
	f := newFixture()

	booking := confirmedBooking()
	booking.Paid = true
	booking.OrderRef = ptr.Ptr("ORD-5")
	f.bookings.On("GetByID", mock.Anything, int64(300)).Return(booking, nil)
	f.bookings.On("Cancel", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)
	f.avail.On("DeleteByBookingID", mock.Anything, int64(300)).Return(nil)
	f.cache.On("InvalidateBayDate", mock.Anything, mock.Anything, mock.Anything).Return()
	f.orders.On("TriggerRefund", mock.Anything, mock.Anything, mock.Anything).Return(assert.AnError)
	f.bus.On("Publish", mock.Anything).Return()

	resp, err := f.svc.Cancel(context.Background(), &CancelRequest{
		BookingID: 300, UserID: 42, Actor: ActorBuyer, Reason: "order refunded",
	})
	require.NoError(t, err)
	assert.Equal(t, "cancelled", resp.Status)
}

func TestCancelAccessRules(t *testing.T) {
	f := newFixture()

	f.bookings.On("GetByID", mock.Anything, int64(300)).Return(confirmedBooking(), nil)

	// Чужой покупатель отклоняется
	_, err := f.svc.Cancel(context.Background(), &CancelRequest{
		BookingID: 300, UserID: 99, Actor: ActorBuyer, Reason: "not mine",
	})
	assert.ErrorIs(t, err, ErrAccessDenied)

	// Персонал отменяет любое бронирование
	f.bookings.On("Cancel", mock.Anything, int64(300), "bay closed", ActorStaff, testNow).Return(nil)
	f.avail.On("DeleteByBookingID", mock.Anything, int64(300)).Return(nil)
	f.cache.On("InvalidateBayDate", mock.Anything, mock.Anything, mock.Anything).Return()
	f.bus.On("Publish", mock.Anything).Return()

	_, err = f.svc.Cancel(context.Background(), &CancelRequest{
		BookingID: 300, UserID: 99, Actor: ActorStaff, Reason: "bay closed",
	})
	assert.NoError(t, err)
}

func TestCancelRejectsNonCancellableStatuses(t *testing.T) {
	for _, status := range []domain.BookingStatus{
		domain.StatusCheckedIn,
		domain.StatusCompleted,
		domain.StatusCancelled,
		domain.StatusNoShow,
	} {
		t.Run(string(status), func(t *testing.T) {
			f := newFixture()

			booking := confirmedBooking()
			booking.Status = status
			f.bookings.On("GetByID", mock.Anything, int64(300)).Return(booking, nil)

			_, err := f.svc.Cancel(context.Background(), &CancelRequest{
				BookingID: 300, UserID: 42, Actor: ActorBuyer, Reason: "too late",
			})
			assert.ErrorIs(t, err, ErrCannotCancel)
		})
	}
}

func TestCompletePickupReleasesBay(t *testing.T) {
	f := newFixture()

	booking := confirmedBooking()
	booking.Status = domain.StatusCheckedIn
	booking.OrderRef = ptr.Ptr("ORD-5")
	f.bookings.On("GetByID", mock.Anything, int64(300)).Return(booking, nil)
	f.bookings.On("SetCompleted", mock.Anything, int64(300), testNow).Return(nil)
	f.reg.On("UpdateBayStatus", mock.Anything, int64(7), domain.BayStatusAvailable).Return(nil)
	f.cache.On("InvalidateBayDate", mock.Anything, int64(7), booking.PickupDate).Return()
	f.orders.On("UpdateOrderStatus", mock.Anything, "ORD-5", "fulfilled").Return(nil)
	f.bus.On("Publish", mock.MatchedBy(func(e events.Event) bool {
		return e.Type == events.BookingCompleted
	})).Return()

	resp, err := f.svc.CompletePickup(context.Background(), 300)
	require.NoError(t, err)
	assert.Equal(t, "completed", resp.Status)

	f.reg.AssertExpectations(t)
	f.orders.AssertExpectations(t)
}

func TestCompletePickupRequiresCheckIn(t *testing.T) {
	f := newFixture()

	f.bookings.On("GetByID", mock.Anything, int64(300)).Return(confirmedBooking(), nil)

	_, err := f.svc.CompletePickup(context.Background(), 300)
	assert.ErrorIs(t, err, ErrInvalidState)
}

func TestGetByIDNotFound(t *testing.T) {
	f := newFixture()

	f.bookings.On("GetByID", mock.Anything, int64(999)).Return(nil, bookingRepo.ErrBookingNotFound)

	_, err := f.svc.GetByID(context.Background(), 999, 42)
	assert.ErrorIs(t, err, ErrBookingNotFound)
}
