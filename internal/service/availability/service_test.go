package availability

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/LitKanna/TF-PickupService/internal/domain"
	"github.com/LitKanna/TF-PickupService/internal/infra/storage/registry"
	"github.com/LitKanna/TF-PickupService/pkg/ptr"
	"github.com/LitKanna/TF-PickupService/pkg/types"
)

type mockRegistryRepo struct {
	mock.Mock
}

func (m *mockRegistryRepo) ListZones(ctx context.Context, activeOnly bool) ([]*domain.Zone, error) {
	args := m.Called(ctx, activeOnly)
	return args.Get(0).([]*domain.Zone), args.Error(1)
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

func (m *mockRegistryRepo) GetBay(ctx context.Context, id int64) (*domain.Bay, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Bay), args.Error(1)
}

type mockSlotRepo struct {
	mock.Mock
}

func (m *mockSlotRepo) ListActiveForWeekday(ctx context.Context, day time.Weekday) ([]*domain.TimeSlot, error) {
	args := m.Called(ctx, day)
	return args.Get(0).([]*domain.TimeSlot), args.Error(1)
}

func (m *mockSlotRepo) ListActive(ctx context.Context) ([]*domain.TimeSlot, error) {
	args := m.Called(ctx)
	return args.Get(0).([]*domain.TimeSlot), args.Error(1)
}

func (m *mockSlotRepo) GetByID(ctx context.Context, id int64) (*domain.TimeSlot, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.TimeSlot), args.Error(1)
}

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

func (m *mockBookingRepo) ListForDate(ctx context.Context, date time.Time, statuses []domain.BookingStatus) ([]*domain.Booking, error) {
	args := m.Called(ctx, date, statuses)
	return args.Get(0).([]*domain.Booking), args.Error(1)
}

func (m *mockBookingRepo) ListBetween(ctx context.Context, startDate, endDate time.Time, statuses []domain.BookingStatus) ([]*domain.Booking, error) {
	args := m.Called(ctx, startDate, endDate, statuses)
	return args.Get(0).([]*domain.Booking), args.Error(1)
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

func (m *mockAvailRepo) ListForBayAndDate(ctx context.Context, bayID int64, date time.Time) ([]*domain.BayAvailability, error) {
	args := m.Called(ctx, bayID, date)
	return args.Get(0).([]*domain.BayAvailability), args.Error(1)
}

func (m *mockAvailRepo) ListForDate(ctx context.Context, date time.Time) ([]*domain.BayAvailability, error) {
	args := m.Called(ctx, date)
	return args.Get(0).([]*domain.BayAvailability), args.Error(1)
}

// noCache всегда промахивается; витрины строятся заново в каждом тесте
type noCache struct{}

func (noCache) Get(ctx context.Context, key string, dest interface{}) bool { return false }
func (noCache) Set(ctx context.Context, key string, value interface{})    {}

type fixedTime struct {
	now time.Time
}

func (f *fixedTime) Now() time.Time { return f.now }

type nopLogger struct{}

func (nopLogger) Info(format string, v ...interface{})  {}
func (nopLogger) Warn(format string, v ...interface{})  {}
func (nopLogger) Error(format string, v ...interface{}) {}

type fixture struct {
	svc   *Service
	reg   *mockRegistryRepo
	slots *mockSlotRepo
	books *mockBookingRepo
	avail *mockAvailRepo
}

var (
	testNow  = time.Date(2025, 6, 9, 8, 0, 0, 0, time.UTC)
	testDate = time.Date(2025, 6, 10, 0, 0, 0, 0, time.UTC)
)

func newFixture() *fixture {
	f := &fixture{
		reg:   &mockRegistryRepo{},
		slots: &mockSlotRepo{},
		books: &mockBookingRepo{},
		avail: &mockAvailRepo{},
	}
	f.svc = NewService(f.reg, f.slots, f.books, f.avail, noCache{}, &fixedTime{now: testNow}, nopLogger{})
	return f
}

func zoneNorth() *domain.Zone {
	return &domain.Zone{ID: 1, Code: "N", Name: "North", Active: true, DistanceFromEntrance: 10}
}

func zoneSouth() *domain.Zone {
	return &domain.Zone{ID: 2, Code: "S", Name: "South", Active: true, DistanceFromEntrance: 40}
}

func vanBay(id int64, zoneID int64, number string) *domain.Bay {
	return &domain.Bay{
		ID:     id,
		ZoneID: zoneID,
		Number: number,
		Type:   domain.BayTypeVan,
		Status: domain.BayStatusAvailable,
		Active: true,
	}
}

func TestGetAvailableBaysFiltersBlockedWindows(t *testing.T) {
	f := newFixture()

	bays := []*domain.Bay{vanBay(1, 1, "N-01"), vanBay(2, 1, "N-02")}
	f.reg.On("ListBays", mock.Anything, mock.Anything).Return(bays, nil)
	f.reg.On("ListZones", mock.Anything, false).Return([]*domain.Zone{zoneNorth()}, nil)
	// Бокс 1 занят на пересекающееся окно
	f.avail.On("ListForDate", mock.Anything, testDate).Return([]*domain.BayAvailability{
		{BayID: 1, StartTime: "09:00", EndTime: "10:00", Status: domain.AvailabilityBooked},
	}, nil)

	resp, err := f.svc.GetAvailableBays(context.Background(), &AvailableBaysRequest{
		Date:            testDate,
		StartTime:       "09:30",
		DurationMinutes: 30,
		VehicleType:     domain.VehicleVan,
	})
	require.NoError(t, err)

	require.Len(t, resp.Bays, 1)
	assert.Equal(t, int64(2), resp.Bays[0].BayID)
	assert.Equal(t, types.TimeString("10:00"), resp.EndTime)
}

func TestGetAvailableBaysTouchingWindowIsFree(t *testing.T) {
	f := newFixture()

	f.reg.On("ListBays", mock.Anything, mock.Anything).Return([]*domain.Bay{vanBay(1, 1, "N-01")}, nil)
	f.reg.On("ListZones", mock.Anything, false).Return([]*domain.Zone{zoneNorth()}, nil)
	// Блок заканчивается ровно в начале запрошенного окна
	f.avail.On("ListForDate", mock.Anything, testDate).Return([]*domain.BayAvailability{
		{BayID: 1, StartTime: "08:00", EndTime: "09:30", Status: domain.AvailabilityBooked},
	}, nil)

	resp, err := f.svc.GetAvailableBays(context.Background(), &AvailableBaysRequest{
		Date:            testDate,
		StartTime:       "09:30",
		DurationMinutes: 30,
		VehicleType:     domain.VehicleVan,
	})
	require.NoError(t, err)
	assert.Len(t, resp.Bays, 1)
}

func TestGetZoneAvailabilityUtilization(t *testing.T) {
	f := newFixture()

	f.reg.On("ListZones", mock.Anything, true).Return([]*domain.Zone{zoneNorth(), zoneSouth()}, nil)
	f.reg.On("ListBays", mock.Anything, registry.BayFilter{ActiveOnly: true}).Return([]*domain.Bay{
		vanBay(1, 1, "N-01"),
		vanBay(2, 1, "N-02"),
		vanBay(3, 1, "N-03"),
	}, nil)
	// Один из трёх боксов северной зоны занят
	f.books.On("ListForDate", mock.Anything, testDate, domain.SameDayStatuses).Return([]*domain.Booking{
		{ID: 1, BayID: 1, Status: domain.StatusConfirmed},
	}, nil)

	resp, err := f.svc.GetZoneAvailability(context.Background(), testDate)
	require.NoError(t, err)
	require.Len(t, resp.Zones, 2)

	north := resp.Zones[0]
	assert.Equal(t, 3, north.TotalBays)
	assert.Equal(t, 2, north.AvailableBays)
	assert.Equal(t, 33.33, north.UtilizationPct)

	// Зона без боксов не делит на ноль
	south := resp.Zones[1]
	assert.Equal(t, 0, south.TotalBays)
	assert.Equal(t, 0.0, south.UtilizationPct)
}

func TestFindNextAvailableSlotSkipsFullDays(t *testing.T) {
	f := newFixture()

	slot := &domain.TimeSlot{
		ID:              5,
		Name:            "Morning",
		Type:            domain.SlotTypeStandard,
		StartTime:       "09:00",
		EndTime:         "11:00",
		DurationMinutes: 120,
		MaxBookings:     1,
		Active:          true,
	}

	f.slots.On("ListActiveForWeekday", mock.Anything, mock.Anything).Return([]*domain.TimeSlot{slot}, nil)
	// Первый день занят, второй свободен
	f.books.On("CountBySlotAndDate", mock.Anything, int64(5), mock.Anything, domain.CountableStatuses).Return(1, nil).Once()
	f.books.On("CountBySlotAndDate", mock.Anything, int64(5), mock.Anything, domain.CountableStatuses).Return(0, nil).Once()
	f.reg.On("ListBays", mock.Anything, mock.Anything).Return([]*domain.Bay{vanBay(1, 1, "N-01")}, nil)
	f.reg.On("ListZones", mock.Anything, false).Return([]*domain.Zone{zoneNorth()}, nil)
	f.avail.On("ListForDate", mock.Anything, mock.Anything).Return([]*domain.BayAvailability{}, nil)

	result, err := f.svc.FindNextAvailableSlot(context.Background(), &NextSlotRequest{
		From:            testDate,
		VehicleType:     domain.VehicleVan,
		DurationMinutes: 60,
	})
	require.NoError(t, err)

	assert.Equal(t, "2025-06-11", result.Date)
	assert.Equal(t, int64(5), result.SlotID)
	assert.Equal(t, int64(1), result.BayID)
}

func TestFindNextAvailableSlotHorizonExhausted(t *testing.T) {
	f := newFixture()

	// Каталог пуст, искать нечего до самого горизонта
	f.slots.On("ListActiveForWeekday", mock.Anything, mock.Anything).Return([]*domain.TimeSlot{}, nil)

	_, err := f.svc.FindNextAvailableSlot(context.Background(), &NextSlotRequest{
		From:            testDate,
		VehicleType:     domain.VehicleVan,
		DurationMinutes: 60,
	})
	assert.ErrorIs(t, err, ErrNoSlotInHorizon)

	f.slots.AssertNumberOfCalls(t, "ListActiveForWeekday", domain.NextSlotSearchHorizonDays)
}

func TestFindNextAvailableSlotStopsAtHorizon(t *testing.T) {
	f := newFixture()

	slot := &domain.TimeSlot{
		ID:              5,
		Name:            "Morning",
		Type:            domain.SlotTypeStandard,
		StartTime:       "09:00",
		EndTime:         "11:00",
		DurationMinutes: 120,
		MaxBookings:     1,
		Active:          true,
	}

	// Вместимость исчерпана на все дни горизонта; день за горизонтом
	// не рассматривается, даже если он свободен
	f.slots.On("ListActiveForWeekday", mock.Anything, mock.Anything).Return([]*domain.TimeSlot{slot}, nil)
	f.books.On("CountBySlotAndDate", mock.Anything, int64(5), mock.Anything, domain.CountableStatuses).Return(1, nil)

	_, err := f.svc.FindNextAvailableSlot(context.Background(), &NextSlotRequest{
		From:            testDate,
		VehicleType:     domain.VehicleVan,
		DurationMinutes: 60,
	})
	assert.ErrorIs(t, err, ErrNoSlotInHorizon)

	f.books.AssertNumberOfCalls(t, "CountBySlotAndDate", domain.NextSlotSearchHorizonDays)
	f.reg.AssertNotCalled(t, "ListBays", mock.Anything, mock.Anything)
}

func TestFindNextAvailableSlotHonorsPreferredZone(t *testing.T) {
	f := newFixture()

	slot := &domain.TimeSlot{
		ID:              5,
		Name:            "Morning",
		Type:            domain.SlotTypeStandard,
		StartTime:       "09:00",
		EndTime:         "11:00",
		DurationMinutes: 120,
		MaxBookings:     5,
		Active:          true,
	}

	f.slots.On("ListActiveForWeekday", mock.Anything, mock.Anything).Return([]*domain.TimeSlot{slot}, nil)
	f.books.On("CountBySlotAndDate", mock.Anything, int64(5), mock.Anything, domain.CountableStatuses).Return(0, nil)
	// Выборка боксов ограничена предпочитаемой зоной
	f.reg.On("ListBays", mock.Anything, mock.MatchedBy(func(filter registry.BayFilter) bool {
		return filter.ZoneID != nil && *filter.ZoneID == 2
	})).Return([]*domain.Bay{vanBay(4, 2, "S-02")}, nil)
	f.reg.On("ListZones", mock.Anything, false).Return([]*domain.Zone{zoneNorth(), zoneSouth()}, nil)
	f.avail.On("ListForDate", mock.Anything, mock.Anything).Return([]*domain.BayAvailability{}, nil)

	result, err := f.svc.FindNextAvailableSlot(context.Background(), &NextSlotRequest{
		From:            testDate,
		VehicleType:     domain.VehicleVan,
		DurationMinutes: 60,
		PreferredZoneID: ptr.Ptr(int64(2)),
	})
	require.NoError(t, err)

	assert.Equal(t, int64(4), result.BayID)
	assert.Equal(t, "S-02", result.BayNumber)
	f.reg.AssertExpectations(t)
}

func TestCheckSlotAvailabilityReasons(t *testing.T) {
	t.Run("free window", func(t *testing.T) {
		f := newFixture()
		f.reg.On("GetBay", mock.Anything, int64(1)).Return(vanBay(1, 1, "N-01"), nil)
		f.avail.On("ListOverlapping", mock.Anything, int64(1), testDate, types.TimeString("09:00"), types.TimeString("09:30")).
			Return([]*domain.BayAvailability{}, nil)

		check, err := f.svc.CheckSlotAvailability(context.Background(), 1, testDate, "09:00", 30)
		require.NoError(t, err)
		assert.True(t, check.Available)
		assert.Empty(t, check.Reason)
	})

	t.Run("bay out of service", func(t *testing.T) {
		f := newFixture()
		bay := vanBay(1, 1, "N-01")
		bay.Status = domain.BayStatusMaintenance
		f.reg.On("GetBay", mock.Anything, int64(1)).Return(bay, nil)

		check, err := f.svc.CheckSlotAvailability(context.Background(), 1, testDate, "09:00", 30)
		require.NoError(t, err)
		assert.False(t, check.Available)
		assert.Equal(t, ReasonBayInactive, check.Reason)
	})

	t.Run("operator block", func(t *testing.T) {
		f := newFixture()
		f.reg.On("GetBay", mock.Anything, int64(1)).Return(vanBay(1, 1, "N-01"), nil)
		f.avail.On("ListOverlapping", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
			Return([]*domain.BayAvailability{
				{BayID: 1, Status: domain.AvailabilityMaintenance, Reason: ptr.Ptr("hydraulic repair")},
			}, nil)

		check, err := f.svc.CheckSlotAvailability(context.Background(), 1, testDate, "09:00", 30)
		require.NoError(t, err)
		assert.False(t, check.Available)
		assert.Equal(t, ReasonBlocked, check.Reason)
		require.NotNil(t, check.BlockReason)
		assert.Equal(t, "hydraulic repair", *check.BlockReason)
	})

	t.Run("booking conflict with references", func(t *testing.T) {
		f := newFixture()
		f.reg.On("GetBay", mock.Anything, int64(1)).Return(vanBay(1, 1, "N-01"), nil)
		f.avail.On("ListOverlapping", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
			Return([]*domain.BayAvailability{
				{BayID: 1, Status: domain.AvailabilityBooked, BookingID: ptr.Ptr(int64(77))},
			}, nil)
		f.books.On("GetByID", mock.Anything, int64(77)).Return(&domain.Booking{ID: 77, Reference: "PBDDDD4444"}, nil)

		check, err := f.svc.CheckSlotAvailability(context.Background(), 1, testDate, "09:00", 30)
		require.NoError(t, err)
		assert.False(t, check.Available)
		assert.Equal(t, ReasonConflict, check.Reason)
		assert.Equal(t, []string{"PBDDDD4444"}, check.ConflictingRefs)
	})
}

func TestGetAlternativeBaysOrdering(t *testing.T) {
	f := newFixture()

	origin := vanBay(1, 1, "N-01")
	f.reg.On("GetBay", mock.Anything, int64(1)).Return(origin, nil)
	f.reg.On("ListBays", mock.Anything, mock.Anything).Return([]*domain.Bay{
		origin,
		vanBay(2, 2, "S-01"),
		vanBay(3, 1, "N-02"),
		vanBay(4, 2, "S-02"),
	}, nil)
	f.reg.On("ListZones", mock.Anything, false).Return([]*domain.Zone{zoneNorth(), zoneSouth()}, nil)
	f.avail.On("ListForDate", mock.Anything, testDate).Return([]*domain.BayAvailability{}, nil)

	alternatives, err := f.svc.GetAlternativeBays(context.Background(), 1, testDate, "09:00", 30)
	require.NoError(t, err)

	// Родная зона первой, исходный бокс исключён, дальше по удалённости и номеру
	require.Len(t, alternatives, 3)
	assert.Equal(t, "N-02", alternatives[0].Number)
	assert.True(t, alternatives[0].SameZone)
	assert.Equal(t, "S-01", alternatives[1].Number)
	assert.Equal(t, "S-02", alternatives[2].Number)
}

func TestGetPeakHoursAnalysis(t *testing.T) {
	f := newFixture()

	endDate := testDate.AddDate(0, 0, 6)
	f.books.On("ListBetween", mock.Anything, testDate, endDate, domain.CountableStatuses).Return([]*domain.Booking{
		{ID: 1, SlotID: ptr.Ptr(int64(5)), StartTime: "09:00", PickupDate: testDate},
		{ID: 2, SlotID: ptr.Ptr(int64(5)), StartTime: "09:30", PickupDate: testDate},
		{ID: 3, SlotID: nil, StartTime: "14:00", PickupDate: testDate.AddDate(0, 0, 1)},
	}, nil)
	f.slots.On("ListActive", mock.Anything).Return([]*domain.TimeSlot{
		{ID: 5, Type: domain.SlotTypeStandard},
	}, nil)

	analysis, err := f.svc.GetPeakHoursAnalysis(context.Background(), &PeakHoursRequest{
		StartDate: testDate,
		EndDate:   endDate,
	})
	require.NoError(t, err)

	assert.Equal(t, 3, analysis.TotalBookings)
	assert.Equal(t, 9, analysis.PeakHour)
	assert.Equal(t, 2, analysis.PeakHourCount)
	// Три выдачи на два активных часа (9 и 14)
	assert.Equal(t, 1.5, analysis.AveragePerHour)
	assert.Equal(t, 2, analysis.BySlotType["standard"])
	assert.Equal(t, 1, analysis.BySlotType["exact_time"])
	assert.Equal(t, 2, analysis.ByWeekday["Tuesday"])
	assert.Equal(t, 1, analysis.ByWeekday["Wednesday"])
}

func TestGetAvailableBaysWithoutVehicleType(t *testing.T) {
	f := newFixture()

	// Без типа транспорта тип бокса не ограничивается
	f.reg.On("ListBays", mock.Anything, mock.MatchedBy(func(filter registry.BayFilter) bool {
		return len(filter.Types) == 0
	})).Return([]*domain.Bay{vanBay(1, 1, "N-01")}, nil)
	f.reg.On("ListZones", mock.Anything, false).Return([]*domain.Zone{zoneNorth()}, nil)
	f.avail.On("ListForDate", mock.Anything, testDate).Return([]*domain.BayAvailability{}, nil)

	resp, err := f.svc.GetAvailableBays(context.Background(), &AvailableBaysRequest{
		Date:            testDate,
		StartTime:       "09:00",
		DurationMinutes: 30,
	})
	require.NoError(t, err)
	assert.Len(t, resp.Bays, 1)
	f.reg.AssertExpectations(t)
}

func TestGetAvailableBaysRejectsUnknownVehicleType(t *testing.T) {
	f := newFixture()

	_, err := f.svc.GetAvailableBays(context.Background(), &AvailableBaysRequest{
		Date:            testDate,
		StartTime:       "09:00",
		DurationMinutes: 30,
		VehicleType:     "bicycle",
	})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestValidateWindowRejectsMidnightSpill(t *testing.T) {
	f := newFixture()

	_, err := f.svc.GetAvailableBays(context.Background(), &AvailableBaysRequest{
		Date:            testDate,
		StartTime:       "23:30",
		DurationMinutes: 60,
		VehicleType:     domain.VehicleVan,
	})
	assert.ErrorIs(t, err, ErrInvalidInput)
}
