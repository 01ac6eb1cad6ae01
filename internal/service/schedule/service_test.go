package schedule

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/LitKanna/TF-PickupService/internal/domain"
	"github.com/LitKanna/TF-PickupService/internal/usecase/create_booking"
)

type mockScheduleRepo struct {
	mock.Mock
}

func (m *mockScheduleRepo) Create(ctx context.Context, s *domain.RecurringPickupSchedule) (*domain.RecurringPickupSchedule, error) {
	args := m.Called(ctx, s)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.RecurringPickupSchedule), args.Error(1)
}

func (m *mockScheduleRepo) GetByID(ctx context.Context, id int64) (*domain.RecurringPickupSchedule, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.RecurringPickupSchedule), args.Error(1)
}

func (m *mockScheduleRepo) ListDue(ctx context.Context, asOf time.Time) ([]*domain.RecurringPickupSchedule, error) {
	args := m.Called(ctx, asOf)
	return args.Get(0).([]*domain.RecurringPickupSchedule), args.Error(1)
}

func (m *mockScheduleRepo) AdvanceNextDate(ctx context.Context, id int64, next time.Time) error {
	return m.Called(ctx, id, next).Error(0)
}

func (m *mockScheduleRepo) Flag(ctx context.Context, id int64, lastError string) error {
	return m.Called(ctx, id, lastError).Error(0)
}

func (m *mockScheduleRepo) Deactivate(ctx context.Context, id int64) error {
	return m.Called(ctx, id).Error(0)
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

type mockCreator struct {
	mock.Mock
}

func (m *mockCreator) Execute(ctx context.Context, req *create_booking.Request) (*create_booking.Response, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*create_booking.Response), args.Error(1)
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
	svc       *Service
	schedules *mockScheduleRepo
	reg       *mockRegistryRepo
	creator   *mockCreator
}

var testNow = time.Date(2025, 6, 9, 6, 0, 0, 0, time.UTC)

func newFixture() *fixture {
	f := &fixture{
		schedules: &mockScheduleRepo{},
		reg:       &mockRegistryRepo{},
		creator:   &mockCreator{},
	}
	f.svc = NewService(f.schedules, f.reg, f.creator, &fixedTime{now: testNow}, nopLogger{})
	return f
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func weeklySchedule(id int64) *domain.RecurringPickupSchedule {
	next := day(2025, 6, 9) // понедельник
	return &domain.RecurringPickupSchedule{
		ID:              id,
		UserID:          42,
		BayID:           7,
		Frequency:       domain.FrequencyWeekly,
		DaysOfWeek:      []time.Weekday{time.Monday},
		PreferredTime:   "09:00",
		DurationMinutes: 30,
		StartDate:       day(2025, 6, 2),
		AutoConfirm:     true,
		NextBookingDate: &next,
		Active:          true,
	}
}

func TestCreateComputesFirstOccurrence(t *testing.T) {
	f := newFixture()

	f.reg.On("GetBay", mock.Anything, int64(7)).Return(&domain.Bay{ID: 7}, nil)
	f.schedules.On("Create", mock.Anything, mock.MatchedBy(func(s *domain.RecurringPickupSchedule) bool {
		// Стартовая дата вторник, первое вхождение следующий понедельник
		return s.NextBookingDate != nil && s.NextBookingDate.Equal(day(2025, 6, 16)) && s.Active
	})).Return(weeklySchedule(1), nil)

	resp, err := f.svc.Create(context.Background(), &CreateRequest{
		UserID:          42,
		BayID:           7,
		Frequency:       domain.FrequencyWeekly,
		DaysOfWeek:      []time.Weekday{time.Monday},
		PreferredTime:   "09:00",
		DurationMinutes: 30,
		StartDate:       day(2025, 6, 10),
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1), resp.ID)

	f.schedules.AssertExpectations(t)
}

func TestCreateValidation(t *testing.T) {
	f := newFixture()

	base := func() *CreateRequest {
		return &CreateRequest{
			UserID:          42,
			BayID:           7,
			Frequency:       domain.FrequencyDaily,
			PreferredTime:   "09:00",
			DurationMinutes: 30,
			StartDate:       day(2025, 6, 10),
		}
	}

	tests := []struct {
		name   string
		mutate func(r *CreateRequest)
	}{
		{"unknown frequency", func(r *CreateRequest) { r.Frequency = "fortnightly" }},
		{"weekly without days", func(r *CreateRequest) { r.Frequency = domain.FrequencyWeekly }},
		{"monthly without day", func(r *CreateRequest) { r.Frequency = domain.FrequencyMonthly }},
		{"monthly day out of range", func(r *CreateRequest) {
			r.Frequency = domain.FrequencyMonthly
			r.DayOfMonth = 32
		}},
		{"bad preferred time", func(r *CreateRequest) { r.PreferredTime = "morning" }},
		{"duration too short", func(r *CreateRequest) { r.DurationMinutes = 5 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := base()
			tt.mutate(req)
			_, err := f.svc.Create(context.Background(), req)
			assert.ErrorIs(t, err, ErrInvalidInput)
		})
	}
}

func TestGetByIDHidesForeignSchedules(t *testing.T) {
	f := newFixture()

	f.schedules.On("GetByID", mock.Anything, int64(1)).Return(weeklySchedule(1), nil)

	resp, err := f.svc.GetByID(context.Background(), 1, 42)
	require.NoError(t, err)
	assert.Equal(t, int64(1), resp.ID)

	// Чужое расписание неотличимо от несуществующего
	_, err = f.svc.GetByID(context.Background(), 1, 99)
	assert.ErrorIs(t, err, ErrScheduleNotFound)
}

func TestMaterializeDueCreatesAndAdvances(t *testing.T) {
	f := newFixture()

	sched := weeklySchedule(1)
	f.schedules.On("ListDue", mock.Anything, testNow).Return([]*domain.RecurringPickupSchedule{sched}, nil)
	f.creator.On("Execute", mock.Anything, mock.MatchedBy(func(r *create_booking.Request) bool {
		return r.UserID == 42 && r.BayID == 7 && r.Recurring && r.AutoConfirm &&
			r.Date.Equal(day(2025, 6, 9)) && r.StartTime == "09:00"
	})).Return(&create_booking.Response{ID: 500}, nil)
	f.schedules.On("AdvanceNextDate", mock.Anything, int64(1), day(2025, 6, 16)).Return(nil)

	report, err := f.svc.MaterializeDue(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, report.Due)
	assert.Equal(t, 1, report.Created)
	assert.Equal(t, 0, report.Flagged)

	f.creator.AssertExpectations(t)
	f.schedules.AssertExpectations(t)
}

func TestMaterializeDueFlagsFailures(t *testing.T) {
	f := newFixture()

	good := weeklySchedule(1)
	bad := weeklySchedule(2)
	f.schedules.On("ListDue", mock.Anything, testNow).
		Return([]*domain.RecurringPickupSchedule{bad, good}, nil)

	// Сбой одного расписания не мешает остальным
	f.creator.On("Execute", mock.Anything, mock.MatchedBy(func(r *create_booking.Request) bool {
		return r.BayID == 7 && r.UserID == 42
	})).Return(nil, create_booking.ErrSlotConflict).Once()
	f.schedules.On("Flag", mock.Anything, int64(2), mock.Anything).Return(nil)

	f.creator.On("Execute", mock.Anything, mock.Anything).Return(&create_booking.Response{ID: 501}, nil).Once()
	f.schedules.On("AdvanceNextDate", mock.Anything, int64(1), day(2025, 6, 16)).Return(nil)

	report, err := f.svc.MaterializeDue(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, report.Due)
	assert.Equal(t, 1, report.Created)
	assert.Equal(t, 1, report.Flagged)

	f.schedules.AssertCalled(t, "Flag", mock.Anything, int64(2), create_booking.ErrSlotConflict.Error())
}

func TestMaterializeDueDeactivatesExpired(t *testing.T) {
	f := newFixture()

	sched := weeklySchedule(3)
	end := day(2025, 6, 8)
	sched.EndDate = &end // очередная дата уже за концом действия

	f.schedules.On("ListDue", mock.Anything, testNow).Return([]*domain.RecurringPickupSchedule{sched}, nil)
	f.schedules.On("Deactivate", mock.Anything, int64(3)).Return(nil)

	report, err := f.svc.MaterializeDue(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, report.Expired)
	f.creator.AssertNotCalled(t, "Execute", mock.Anything, mock.Anything)
	f.schedules.AssertExpectations(t)
}

func TestMaterializeDueFlagsMissingNextDate(t *testing.T) {
	f := newFixture()

	sched := weeklySchedule(4)
	sched.NextBookingDate = nil

	f.schedules.On("ListDue", mock.Anything, testNow).Return([]*domain.RecurringPickupSchedule{sched}, nil)
	f.schedules.On("Flag", mock.Anything, int64(4), "schedule has no next booking date").Return(nil)

	report, err := f.svc.MaterializeDue(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, report.Flagged)
	f.schedules.AssertExpectations(t)
}
