package schedule

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/LitKanna/TF-PickupService/internal/domain"
	registryRepo "github.com/LitKanna/TF-PickupService/internal/infra/storage/registry"
	scheduleRepo "github.com/LitKanna/TF-PickupService/internal/infra/storage/schedule"
	"github.com/LitKanna/TF-PickupService/internal/usecase/create_booking"
)

// Service сервис регулярных расписаний выдачи: создание правил и
// материализация очередных бронирований. Сбой материализации поднимает
// needs_attention, расписание никогда не пропускается молча.
type Service struct {
	scheduleRepo ScheduleRepository
	registryRepo RegistryRepository
	creator      BookingCreator
	timeProvider TimeProvider
	logger       Logger
}

// NewService создает новый экземпляр сервиса расписаний
func NewService(
	scheduleRepo ScheduleRepository,
	registryRepo RegistryRepository,
	creator BookingCreator,
	timeProvider TimeProvider,
	logger Logger,
) *Service {
	return &Service{
		scheduleRepo: scheduleRepo,
		registryRepo: registryRepo,
		creator:      creator,
		timeProvider: timeProvider,
		logger:       logger,
	}
}

// Create создаёт расписание и вычисляет первую дату бронирования
func (s *Service) Create(ctx context.Context, req *CreateRequest) (*ScheduleResponse, error) {
	if err := s.validate(req); err != nil {
		s.logger.Warn("CreateSchedule: validation failed: %v", err)
		return nil, err
	}

	if _, err := s.registryRepo.GetBay(ctx, req.BayID); err != nil {
		if errors.Is(err, registryRepo.ErrBayNotFound) {
			return nil, ErrBayNotFound
		}
		s.logger.Error("CreateSchedule: registry error for bay=%d: %v", req.BayID, err)
		return nil, fmt.Errorf("%w: registry error: %v", ErrInternal, err)
	}

	sched := &domain.RecurringPickupSchedule{
		UserID:          req.UserID,
		BayID:           req.BayID,
		SlotID:          req.SlotID,
		Frequency:       req.Frequency,
		DaysOfWeek:      req.DaysOfWeek,
		DayOfMonth:      req.DayOfMonth,
		PreferredTime:   req.PreferredTime,
		DurationMinutes: req.DurationMinutes,
		StartDate:       req.StartDate,
		EndDate:         req.EndDate,
		AutoConfirm:     req.AutoConfirm,
		Active:          true,
	}

	first := sched.FirstOccurrence()
	if sched.Expired(first) {
		s.logger.Warn("CreateSchedule: rule yields no occurrence before end date")
		return nil, ErrNoOccurrence
	}
	sched.NextBookingDate = &first

	created, err := s.scheduleRepo.Create(ctx, sched)
	if err != nil {
		s.logger.Error("CreateSchedule: repository error: %v", err)
		return nil, fmt.Errorf("%w: repository error: %v", ErrInternal, err)
	}

	s.logger.Info("CreateSchedule: schedule id=%d created, first booking on %s",
		created.ID, first.Format(domain.DateFormat))
	return FromDomainSchedule(created), nil
}

// GetByID получает расписание по ID
func (s *Service) GetByID(ctx context.Context, id int64, userID int64) (*ScheduleResponse, error) {
	sched, err := s.scheduleRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, scheduleRepo.ErrScheduleNotFound) {
			return nil, ErrScheduleNotFound
		}
		s.logger.Error("GetSchedule: repository error for id=%d: %v", id, err)
		return nil, fmt.Errorf("%w: repository error: %v", ErrInternal, err)
	}
	if sched.UserID != userID {
		return nil, ErrScheduleNotFound
	}
	return FromDomainSchedule(sched), nil
}

// MaterializeDue материализует все расписания, чья очередная дата наступила.
// Каждое расписание обрабатывается независимо: сбой одного не мешает
// остальным.
func (s *Service) MaterializeDue(ctx context.Context) (*MaterializeReport, error) {
	now := s.timeProvider.Now()

	due, err := s.scheduleRepo.ListDue(ctx, now)
	if err != nil {
		s.logger.Error("MaterializeDue: repository error: %v", err)
		return nil, fmt.Errorf("%w: repository error: %v", ErrInternal, err)
	}

	report := &MaterializeReport{Due: len(due)}
	for _, sched := range due {
		switch outcome := s.materializeOne(ctx, sched); outcome {
		case outcomeCreated:
			report.Created++
		case outcomeFlagged:
			report.Flagged++
		case outcomeExpired:
			report.Expired++
		}
	}

	if report.Due > 0 {
		s.logger.Info("MaterializeDue: %d due, %d created, %d flagged, %d expired",
			report.Due, report.Created, report.Flagged, report.Expired)
	}
	return report, nil
}

type materializeOutcome int

const (
	outcomeCreated materializeOutcome = iota
	outcomeFlagged
	outcomeExpired
)

// materializeOne создаёт очередное бронирование одного расписания и
// продвигает его дату. Любой сбой создания фиксируется флагом
// needs_attention вместе с текстом ошибки.
func (s *Service) materializeOne(ctx context.Context, sched *domain.RecurringPickupSchedule) materializeOutcome {
	if sched.NextBookingDate == nil {
		s.flag(ctx, sched.ID, "schedule has no next booking date")
		return outcomeFlagged
	}
	date := *sched.NextBookingDate

	if sched.Expired(date) {
		if err := s.scheduleRepo.Deactivate(ctx, sched.ID); err != nil {
			s.logger.Error("MaterializeDue: failed to deactivate schedule id=%d: %v", sched.ID, err)
		}
		return outcomeExpired
	}

	_, err := s.creator.Execute(ctx, &create_booking.Request{
		UserID:          sched.UserID,
		BayID:           sched.BayID,
		SlotID:          sched.SlotID,
		Date:            date,
		StartTime:       sched.PreferredTime,
		DurationMinutes: sched.DurationMinutes,
		AutoConfirm:     sched.AutoConfirm,
		Recurring:       true,
	})
	if err != nil {
		s.logger.Warn("MaterializeDue: schedule id=%d failed on %s: %v",
			sched.ID, date.Format(domain.DateFormat), err)
		s.flag(ctx, sched.ID, err.Error())
		return outcomeFlagged
	}

	next := sched.NextOccurrenceAfter(date)
	if sched.Expired(next) {
		if err := s.scheduleRepo.Deactivate(ctx, sched.ID); err != nil {
			s.logger.Error("MaterializeDue: failed to deactivate schedule id=%d: %v", sched.ID, err)
		}
		return outcomeCreated
	}
	if err := s.scheduleRepo.AdvanceNextDate(ctx, sched.ID, next); err != nil {
		s.logger.Error("MaterializeDue: failed to advance schedule id=%d: %v", sched.ID, err)
		s.flag(ctx, sched.ID, fmt.Sprintf("failed to advance next date: %v", err))
		return outcomeFlagged
	}
	return outcomeCreated
}

func (s *Service) flag(ctx context.Context, id int64, reason string) {
	if err := s.scheduleRepo.Flag(ctx, id, reason); err != nil {
		s.logger.Error("MaterializeDue: failed to flag schedule id=%d: %v", id, err)
	}
}

func (s *Service) validate(req *CreateRequest) error {
	if req.UserID <= 0 {
		return fmt.Errorf("%w: userID must be positive", ErrInvalidInput)
	}
	if req.BayID <= 0 {
		return fmt.Errorf("%w: bayID must be positive", ErrInvalidInput)
	}
	if !domain.IsValidFrequency(req.Frequency) {
		return fmt.Errorf("%w: unknown frequency %q", ErrInvalidInput, req.Frequency)
	}
	if req.Frequency == domain.FrequencyWeekly && len(req.DaysOfWeek) == 0 {
		return fmt.Errorf("%w: weekly schedule requires daysOfWeek", ErrInvalidInput)
	}
	if req.Frequency == domain.FrequencyMonthly && (req.DayOfMonth < 1 || req.DayOfMonth > 31) {
		return fmt.Errorf("%w: monthly schedule requires dayOfMonth between 1 and 31", ErrInvalidInput)
	}
	if err := req.PreferredTime.Validate(); err != nil {
		return fmt.Errorf("%w: invalid preferred time: %v", ErrInvalidInput, err)
	}
	if req.DurationMinutes < domain.MinBookingDurationMinutes || req.DurationMinutes > domain.MaxBookingDurationMinutes {
		return fmt.Errorf("%w: duration must be between %d and %d minutes",
			ErrInvalidInput, domain.MinBookingDurationMinutes, domain.MaxBookingDurationMinutes)
	}
	if req.StartDate.IsZero() {
		return fmt.Errorf("%w: startDate is required", ErrInvalidInput)
	}
	if req.EndDate != nil && req.EndDate.Before(req.StartDate) {
		return fmt.Errorf("%w: endDate before startDate", ErrInvalidInput)
	}

	now := s.timeProvider.Now()
	nowOnly := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	startOnly := time.Date(req.StartDate.Year(), req.StartDate.Month(), req.StartDate.Day(), 0, 0, 0, 0, req.StartDate.Location())
	if startOnly.Before(nowOnly) {
		return fmt.Errorf("%w: startDate is in the past", ErrInvalidInput)
	}
	return nil
}
