package create_booking

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/LitKanna/TF-PickupService/internal/domain"
	"github.com/LitKanna/TF-PickupService/internal/events"
	bookingRepo "github.com/LitKanna/TF-PickupService/internal/infra/storage/booking"
	"github.com/LitKanna/TF-PickupService/internal/infra/storage/registry"
	"github.com/LitKanna/TF-PickupService/pkg/ptr"
	"github.com/LitKanna/TF-PickupService/pkg/types"
)

type mockBookingRepo struct {
	mock.Mock
}

func (m *mockBookingRepo) Create(ctx context.Context, b *domain.Booking) (*domain.Booking, error) {
	args := m.Called(ctx, b)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Booking), args.Error(1)
}

func (m *mockBookingRepo) CountBySlotAndDate(ctx context.Context, slotID int64, date time.Time, statuses []domain.BookingStatus) (int, error) {
	args := m.Called(ctx, slotID, date, statuses)
	return args.Int(0), args.Error(1)
}

type mockAvailRepo struct {
	mock.Mock
}

func (m *mockAvailRepo) ListOverlapping(ctx context.Context, bayID int64, date time.Time, start, end types.TimeString) ([]*domain.BayAvailability, error) {
	args := m.Called(ctx, bayID, date, start, end)
	return args.Get(0).([]*domain.BayAvailability), args.Error(1)
}

func (m *mockAvailRepo) InsertBlock(ctx context.Context, block *domain.BayAvailability) (*domain.BayAvailability, error) {
	args := m.Called(ctx, block)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.BayAvailability), args.Error(1)
}

type mockRegistryRepo struct {
	mock.Mock
}

func (m *mockRegistryRepo) GetBay(ctx context.Context, id int64) (*domain.Bay, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Bay), args.Error(1)
}

func (m *mockRegistryRepo) GetZone(ctx context.Context, id int64) (*domain.Zone, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Zone), args.Error(1)
}

func (m *mockRegistryRepo) ListBays(ctx context.Context, filter registry.BayFilter) ([]*domain.Bay, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]*domain.Bay), args.Error(1)
}

type mockSlotRepo struct {
	mock.Mock
}

func (m *mockSlotRepo) GetByID(ctx context.Context, id int64) (*domain.TimeSlot, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.TimeSlot), args.Error(1)
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

// fakeTxManager прозрачно выполняет функцию без настоящей транзакции
type fakeTxManager struct{}

func (f *fakeTxManager) DoSerializable(ctx context.Context, fn func(ctx context.Context) error) error {
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
	uc       *UseCase
	bookings *mockBookingRepo
	avail    *mockAvailRepo
	reg      *mockRegistryRepo
	slots    *mockSlotRepo
	bus      *mockBus
	cache    *mockCache
}

func newFixture(now time.Time) *fixture {
	f := &fixture{
		bookings: &mockBookingRepo{},
		avail:    &mockAvailRepo{},
		reg:      &mockRegistryRepo{},
		slots:    &mockSlotRepo{},
		bus:      &mockBus{},
		cache:    &mockCache{},
	}
	f.uc = NewUseCase(f.bookings, f.avail, f.reg, f.slots, &fakeTxManager{}, f.bus, f.cache, nopLogger{})
	f.uc.timeProvider = &fixedTime{now: now}
	return f
}

var (
	testNow  = time.Date(2025, 6, 9, 10, 0, 0, 0, time.UTC)
	testDate = time.Date(2025, 6, 10, 0, 0, 0, 0, time.UTC)
)

func testBay() *domain.Bay {
	return &domain.Bay{
		ID:     7,
		ZoneID: 2,
		Number: "A-07",
		Type:   domain.BayTypeVan,
		Status: domain.BayStatusAvailable,
		Active: true,
	}
}

func testZone() *domain.Zone {
	return &domain.Zone{ID: 2, Code: "A", Name: "North", Active: true}
}

func exactRequest() *Request {
	return &Request{
		UserID:          42,
		BayID:           7,
		Date:            testDate,
		StartTime:       "09:00",
		DurationMinutes: 30,
	}
}

func TestExecuteCreatesExactTimeBooking(t *testing.T) {
	f := newFixture(testNow)

	f.reg.On("GetBay", mock.Anything, int64(7)).Return(testBay(), nil)
	f.reg.On("GetZone", mock.Anything, int64(2)).Return(testZone(), nil)
	f.avail.On("ListOverlapping", mock.Anything, int64(7), testDate, types.TimeString("09:00"), types.TimeString("09:30")).
		Return([]*domain.BayAvailability{}, nil)
	f.bookings.On("Create", mock.Anything, mock.Anything).Return(&domain.Booking{
		ID:         101,
		Reference:  "PB12345678",
		UserID:     42,
		BayID:      7,
		PickupDate: testDate,
		StartTime:  "09:00",
		EndTime:    "09:30",
		Status:     domain.StatusPending,
		Fee:        15.0,
	}, nil).Once()
	f.avail.On("InsertBlock", mock.Anything, mock.MatchedBy(func(b *domain.BayAvailability) bool {
		return b.BayID == 7 && b.Status == domain.AvailabilityBooked && b.BookingID != nil
	})).Return(&domain.BayAvailability{ID: 55}, nil)
	f.cache.On("InvalidateBayDate", mock.Anything, int64(7), testDate).Return()
	f.bus.On("Publish", mock.MatchedBy(func(e events.Event) bool {
		return e.Type == events.BookingCreated && e.Booking.BayNumber == "A-07" && e.Booking.ZoneCode == "A"
	})).Return()

	resp, err := f.uc.Execute(context.Background(), exactRequest())
	require.NoError(t, err)

	assert.Equal(t, int64(101), resp.ID)
	assert.Equal(t, "PB12345678", resp.Reference)
	assert.Equal(t, "pending", resp.Status)
	assert.Equal(t, 15.0, resp.Fee)

	f.bus.AssertExpectations(t)
	f.cache.AssertExpectations(t)
}

func TestExecuteAutoConfirmPublishesConfirmed(t *testing.T) {
	f := newFixture(testNow)

	f.reg.On("GetBay", mock.Anything, int64(7)).Return(testBay(), nil)
	f.reg.On("GetZone", mock.Anything, int64(2)).Return(testZone(), nil)
	f.avail.On("ListOverlapping", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return([]*domain.BayAvailability{}, nil)
	f.bookings.On("Create", mock.Anything, mock.Anything).Return(&domain.Booking{
		ID: 102, Status: domain.StatusConfirmed, PickupDate: testDate,
	}, nil)
	f.avail.On("InsertBlock", mock.Anything, mock.Anything).Return(&domain.BayAvailability{}, nil)
	f.cache.On("InvalidateBayDate", mock.Anything, mock.Anything, mock.Anything).Return()
	f.bus.On("Publish", mock.MatchedBy(func(e events.Event) bool {
		return e.Type == events.BookingConfirmed
	})).Return()

	req := exactRequest()
	req.AutoConfirm = true
	_, err := f.uc.Execute(context.Background(), req)
	require.NoError(t, err)

	f.bus.AssertExpectations(t)
}

func TestExecuteRejectsOverlap(t *testing.T) {
	f := newFixture(testNow)

	f.reg.On("GetBay", mock.Anything, int64(7)).Return(testBay(), nil)
	f.reg.On("GetZone", mock.Anything, int64(2)).Return(testZone(), nil)
	f.avail.On("ListOverlapping", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return([]*domain.BayAvailability{{ID: 1, BayID: 7}}, nil)

	_, err := f.uc.Execute(context.Background(), exactRequest())
	assert.ErrorIs(t, err, ErrSlotConflict)

	f.bookings.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestExecuteRejectsSlotCapacity(t *testing.T) {
	f := newFixture(testNow)

	slot := &domain.TimeSlot{
		ID:              3,
		StartTime:       "09:00",
		EndTime:         "11:00",
		DurationMinutes: 120,
		MaxBookings:     2,
		PriceMultiplier: 1.0,
		DaysOfWeek:      []time.Weekday{time.Tuesday},
		Active:          true,
	}

	f.reg.On("GetBay", mock.Anything, int64(7)).Return(testBay(), nil)
	f.reg.On("GetZone", mock.Anything, int64(2)).Return(testZone(), nil)
	f.slots.On("GetByID", mock.Anything, int64(3)).Return(slot, nil)
	f.avail.On("ListOverlapping", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return([]*domain.BayAvailability{}, nil)
	f.bookings.On("CountBySlotAndDate", mock.Anything, int64(3), testDate, domain.CountableStatuses).
		Return(2, nil)

	req := &Request{UserID: 42, BayID: 7, SlotID: ptr.Ptr(int64(3)), Date: testDate}
	_, err := f.uc.Execute(context.Background(), req)
	assert.ErrorIs(t, err, ErrSlotCapacityReached)
}

func TestExecuteRetriesOnCodeCollision(t *testing.T) {
	f := newFixture(testNow)

	f.reg.On("GetBay", mock.Anything, int64(7)).Return(testBay(), nil)
	f.reg.On("GetZone", mock.Anything, int64(2)).Return(testZone(), nil)
	f.avail.On("ListOverlapping", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return([]*domain.BayAvailability{}, nil)
	f.bookings.On("Create", mock.Anything, mock.Anything).Return(nil, bookingRepo.ErrDuplicateReference).Twice()
	f.bookings.On("Create", mock.Anything, mock.Anything).Return(&domain.Booking{
		ID: 103, Status: domain.StatusPending, PickupDate: testDate,
	}, nil).Once()
	f.avail.On("InsertBlock", mock.Anything, mock.Anything).Return(&domain.BayAvailability{}, nil)
	f.cache.On("InvalidateBayDate", mock.Anything, mock.Anything, mock.Anything).Return()
	f.bus.On("Publish", mock.Anything).Return()

	resp, err := f.uc.Execute(context.Background(), exactRequest())
	require.NoError(t, err)
	assert.Equal(t, int64(103), resp.ID)

	f.bookings.AssertNumberOfCalls(t, "Create", 3)
}

func TestExecuteExhaustsCodeAttempts(t *testing.T) {
	f := newFixture(testNow)

	f.reg.On("GetBay", mock.Anything, int64(7)).Return(testBay(), nil)
	f.reg.On("GetZone", mock.Anything, int64(2)).Return(testZone(), nil)
	f.avail.On("ListOverlapping", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return([]*domain.BayAvailability{}, nil)
	f.bookings.On("Create", mock.Anything, mock.Anything).Return(nil, bookingRepo.ErrDuplicateCode)

	_, err := f.uc.Execute(context.Background(), exactRequest())
	assert.ErrorIs(t, err, ErrInternal)

	f.bookings.AssertNumberOfCalls(t, "Create", createCodeAttempts)
}

func TestExecuteValidation(t *testing.T) {
	f := newFixture(testNow)

	tests := []struct {
		name    string
		mutate  func(r *Request)
		wantErr error
	}{
		{"missing user", func(r *Request) { r.UserID = 0 }, ErrInvalidInput},
		{"missing bay", func(r *Request) { r.BayID = 0 }, ErrInvalidInput},
		{"no window without slot", func(r *Request) { r.StartTime = ""; r.DurationMinutes = 0 }, ErrInvalidInput},
		{"duration too short", func(r *Request) { r.DurationMinutes = 10 }, ErrInvalidInput},
		{"duration too long", func(r *Request) { r.DurationMinutes = 700 }, ErrInvalidInput},
		{"bad time format", func(r *Request) { r.StartTime = "9am" }, ErrInvalidInput},
		{"past date", func(r *Request) { r.Date = testNow.AddDate(0, 0, -1) }, ErrInvalidDate},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := exactRequest()
			tt.mutate(req)
			_, err := f.uc.Execute(context.Background(), req)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestExecuteRejectsUnbookableBay(t *testing.T) {
	f := newFixture(testNow)

	bay := testBay()
	bay.Status = domain.BayStatusMaintenance
	f.reg.On("GetBay", mock.Anything, int64(7)).Return(bay, nil)

	_, err := f.uc.Execute(context.Background(), exactRequest())
	assert.ErrorIs(t, err, ErrBayNotBookable)
}

func TestExecuteRejectsVehicleMismatch(t *testing.T) {
	f := newFixture(testNow)

	// Грузовик не помещается в van_bay
	f.reg.On("GetBay", mock.Anything, int64(7)).Return(testBay(), nil)

	req := exactRequest()
	truck := domain.VehicleTruck
	req.VehicleType = &truck
	_, err := f.uc.Execute(context.Background(), req)
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestExecuteRejectsPastPickupTime(t *testing.T) {
	// Сегодняшняя дата, но время уже прошло
	f := newFixture(time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC))

	f.reg.On("GetBay", mock.Anything, int64(7)).Return(testBay(), nil)
	f.reg.On("GetZone", mock.Anything, int64(2)).Return(testZone(), nil)

	_, err := f.uc.Execute(context.Background(), exactRequest())
	assert.ErrorIs(t, err, ErrInvalidDate)
}

// serialTxManager выполняет секции строго по одной, как это делает
// СУБД на уровне изоляции SERIALIZABLE
type serialTxManager struct {
	mu sync.Mutex
}

func (s *serialTxManager) DoSerializable(ctx context.Context, fn func(ctx context.Context) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(ctx)
}

// memoryAvailRepo хранит блоки занятости в памяти, поэтому проверка
// пересечений видит вставки предыдущих транзакций
type memoryAvailRepo struct {
	mu     sync.Mutex
	blocks []*domain.BayAvailability
}

func (m *memoryAvailRepo) ListOverlapping(ctx context.Context, bayID int64, date time.Time, start, end types.TimeString) ([]*domain.BayAvailability, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*domain.BayAvailability
	for _, b := range m.blocks {
		if b.BayID == bayID && b.Date.Equal(date) && start < b.EndTime && b.StartTime < end {
			out = append(out, b)
		}
	}
	return out, nil
}

func (m *memoryAvailRepo) InsertBlock(ctx context.Context, block *domain.BayAvailability) (*domain.BayAvailability, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored := *block
	stored.ID = int64(len(m.blocks) + 1)
	m.blocks = append(m.blocks, &stored)
	return &stored, nil
}

type memoryBookingRepo struct {
	mu   sync.Mutex
	next int64
}

func (m *memoryBookingRepo) Create(ctx context.Context, b *domain.Booking) (*domain.Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.next++
	created := *b
	created.ID = m.next
	return &created, nil
}

func (m *memoryBookingRepo) CountBySlotAndDate(ctx context.Context, slotID int64, date time.Time, statuses []domain.BookingStatus) (int, error) {
	return 0, nil
}

func TestExecuteParallelCreatesAdmitOneWinner(t *testing.T) {
	reg := &mockRegistryRepo{}
	reg.On("GetBay", mock.Anything, int64(7)).Return(testBay(), nil)
	reg.On("GetZone", mock.Anything, int64(2)).Return(testZone(), nil)
	bus := &mockBus{}
	bus.On("Publish", mock.Anything).Return()
	invalidator := &mockCache{}
	invalidator.On("InvalidateBayDate", mock.Anything, int64(7), testDate).Return()

	books := &memoryBookingRepo{}
	avail := &memoryAvailRepo{}
	uc := NewUseCase(books, avail, reg, &mockSlotRepo{}, &serialTxManager{}, bus, invalidator, nopLogger{})
	uc.timeProvider = &fixedTime{now: testNow}

	const workers = 8
	var wg sync.WaitGroup
	errs := make([]error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = uc.Execute(context.Background(), exactRequest())
		}(i)
	}
	wg.Wait()

	created, conflicts := 0, 0
	for _, err := range errs {
		switch {
		case err == nil:
			created++
		case errors.Is(err, ErrSlotConflict):
			conflicts++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, created)
	assert.Equal(t, workers-1, conflicts)
	assert.Len(t, avail.blocks, 1)
	bus.AssertNumberOfCalls(t, "Publish", 1)
}

func TestResolveWindow(t *testing.T) {
	slot := &domain.TimeSlot{
		StartTime:       "09:00",
		EndTime:         "11:00",
		DurationMinutes: 120,
		AllowExactTime:  true,
	}

	// Бронь целого слота
	window, duration, err := resolveWindow(&Request{SlotID: ptr.Ptr(int64(1))}, slot)
	require.NoError(t, err)
	assert.Equal(t, types.TimeString("09:00"), window.Start)
	assert.Equal(t, types.TimeString("11:00"), window.End)
	assert.Equal(t, 120, duration)

	// Точное время внутри слота
	window, duration, err = resolveWindow(&Request{SlotID: ptr.Ptr(int64(1)), StartTime: "09:30", DurationMinutes: 30}, slot)
	require.NoError(t, err)
	assert.Equal(t, types.TimeString("09:30"), window.Start)
	assert.Equal(t, types.TimeString("10:00"), window.End)
	assert.Equal(t, 30, duration)

	// Окно вылезает за слот
	_, _, err = resolveWindow(&Request{SlotID: ptr.Ptr(int64(1)), StartTime: "10:45", DurationMinutes: 30}, slot)
	assert.ErrorIs(t, err, ErrOutsideSlotWindow)

	// Слот не разрешает точное время
	slot.AllowExactTime = false
	_, _, err = resolveWindow(&Request{SlotID: ptr.Ptr(int64(1)), StartTime: "09:30", DurationMinutes: 30}, slot)
	assert.ErrorIs(t, err, ErrExactTimeNotAllowed)
}
