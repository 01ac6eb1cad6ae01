package availability

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/LitKanna/TF-PickupService/internal/cache"
	"github.com/LitKanna/TF-PickupService/internal/domain"
	"github.com/LitKanna/TF-PickupService/internal/infra/storage/registry"
	"github.com/LitKanna/TF-PickupService/pkg/types"
)

// Service движок доступности: все read-модели поверх боксов, слотов,
// бронирований и блоков занятости. Пишущих операций здесь нет, поэтому
// все методы работают вне транзакций и могут кешироваться.
type Service struct {
	registryRepo RegistryRepository
	slotRepo     SlotRepository
	bookingRepo  BookingRepository
	availRepo    AvailabilityRepository
	cache        Cache
	timeProvider TimeProvider
	logger       Logger
}

// NewService создает новый экземпляр движка доступности
func NewService(
	registryRepo RegistryRepository,
	slotRepo SlotRepository,
	bookingRepo BookingRepository,
	availRepo AvailabilityRepository,
	c Cache,
	timeProvider TimeProvider,
	logger Logger,
) *Service {
	return &Service{
		registryRepo: registryRepo,
		slotRepo:     slotRepo,
		bookingRepo:  bookingRepo,
		availRepo:    availRepo,
		cache:        c,
		timeProvider: timeProvider,
		logger:       logger,
	}
}

// GetAvailableBays возвращает боксы, свободные на запрошенное окно и
// совместимые с типом транспорта покупателя
func (s *Service) GetAvailableBays(ctx context.Context, req *AvailableBaysRequest) (*AvailableBaysResponse, error) {
	end, err := s.validateWindow(req.Date, req.StartTime, req.DurationMinutes)
	if err != nil {
		return nil, err
	}
	// Пустой тип транспорта означает любой тип бокса
	if req.VehicleType != "" && !domain.IsValidVehicleType(req.VehicleType) {
		return nil, fmt.Errorf("%w: unknown vehicle type %q", ErrInvalidInput, req.VehicleType)
	}

	key := cache.BaysKey(req.Date, req.StartTime.String(), req.DurationMinutes, string(req.VehicleType))
	var cached AvailableBaysResponse
	if s.cache.Get(ctx, key, &cached) {
		return &cached, nil
	}

	window := domain.Interval{Start: req.StartTime, End: end}
	bays, err := s.findFreeBays(ctx, req.Date, window, req.VehicleType, nil, 0)
	if err != nil {
		return nil, err
	}

	resp := &AvailableBaysResponse{
		Date:      req.Date.Format(domain.DateFormat),
		StartTime: req.StartTime,
		EndTime:   end,
		Bays:      bays,
	}
	s.cache.Set(ctx, key, resp)

	s.logger.Info("GetAvailableBays: %d bays free on %s %s-%s for %s",
		len(bays), resp.Date, req.StartTime, end, req.VehicleType)
	return resp, nil
}

// GetAvailableTimeSlots возвращает слоты каталога, действующие в этот день
// недели, с остатком вместимости. Необязательный bayID дополнительно
// проверяет занятость конкретного бокса в окне слота.
func (s *Service) GetAvailableTimeSlots(ctx context.Context, date time.Time, bayID *int64) (*TimeSlotsResponse, error) {
	if date.IsZero() {
		return nil, fmt.Errorf("%w: date is required", ErrInvalidInput)
	}

	var cacheBay int64
	if bayID != nil {
		cacheBay = *bayID
	}
	key := cache.SlotsKey(date, cacheBay)
	var cached TimeSlotsResponse
	if s.cache.Get(ctx, key, &cached) {
		return &cached, nil
	}

	slots, err := s.slotRepo.ListActiveForWeekday(ctx, date.Weekday())
	if err != nil {
		s.logger.Error("GetAvailableTimeSlots: slot repository error: %v", err)
		return nil, fmt.Errorf("%w: GetAvailableTimeSlots - slot repository error: %v", ErrInternal, err)
	}

	var bayBlocks []*domain.BayAvailability
	if bayID != nil {
		bayBlocks, err = s.availRepo.ListForBayAndDate(ctx, *bayID, date)
		if err != nil {
			s.logger.Error("GetAvailableTimeSlots: availability repository error for bay=%d: %v", *bayID, err)
			return nil, fmt.Errorf("%w: GetAvailableTimeSlots - availability repository error: %v", ErrInternal, err)
		}
	}

	resp := &TimeSlotsResponse{
		Date:  date.Format(domain.DateFormat),
		Slots: make([]SlotAvailability, 0, len(slots)),
	}
	for _, slot := range slots {
		booked, err := s.bookingRepo.CountBySlotAndDate(ctx, slot.ID, date, domain.CountableStatuses)
		if err != nil {
			s.logger.Error("GetAvailableTimeSlots: booking repository error for slot=%d: %v", slot.ID, err)
			return nil, fmt.Errorf("%w: GetAvailableTimeSlots - booking repository error: %v", ErrInternal, err)
		}

		remaining := slot.MaxBookings - booked
		if remaining < 0 {
			remaining = 0
		}
		available := remaining > 0
		if available && bayID != nil {
			available = !anyOverlap(bayBlocks, slot.Window())
		}

		resp.Slots = append(resp.Slots, SlotAvailability{
			SlotID:          slot.ID,
			Name:            slot.Name,
			Type:            slot.Type,
			StartTime:       slot.StartTime,
			EndTime:         slot.EndTime,
			DurationMinutes: slot.DurationMinutes,
			MaxBookings:     slot.MaxBookings,
			BookedCount:     booked,
			Remaining:       remaining,
			PriceMultiplier: slot.PriceMultiplier,
			AllowExactTime:  slot.AllowExactTime,
			Available:       available,
		})
	}

	s.cache.Set(ctx, key, resp)
	return resp, nil
}

// GetZoneAvailability возвращает грубую дневную сводку по зонам: сколько
// боксов свободно сегодня и процент загрузки с точностью до сотых
func (s *Service) GetZoneAvailability(ctx context.Context, date time.Time) (*ZoneAvailabilityResponse, error) {
	if date.IsZero() {
		return nil, fmt.Errorf("%w: date is required", ErrInvalidInput)
	}

	key := cache.ZonesKey(date)
	var cached ZoneAvailabilityResponse
	if s.cache.Get(ctx, key, &cached) {
		return &cached, nil
	}

	zones, err := s.registryRepo.ListZones(ctx, true)
	if err != nil {
		s.logger.Error("GetZoneAvailability: registry error: %v", err)
		return nil, fmt.Errorf("%w: GetZoneAvailability - registry error: %v", ErrInternal, err)
	}

	bays, err := s.registryRepo.ListBays(ctx, registry.BayFilter{ActiveOnly: true})
	if err != nil {
		s.logger.Error("GetZoneAvailability: registry error: %v", err)
		return nil, fmt.Errorf("%w: GetZoneAvailability - registry error: %v", ErrInternal, err)
	}

	bookings, err := s.bookingRepo.ListForDate(ctx, date, domain.SameDayStatuses)
	if err != nil {
		s.logger.Error("GetZoneAvailability: booking repository error: %v", err)
		return nil, fmt.Errorf("%w: GetZoneAvailability - booking repository error: %v", ErrInternal, err)
	}

	taken := make(map[int64]bool, len(bookings))
	for _, b := range bookings {
		taken[b.BayID] = true
	}

	type zoneCount struct {
		total     int
		available int
	}
	counts := make(map[int64]*zoneCount, len(zones))
	for _, z := range zones {
		counts[z.ID] = &zoneCount{}
	}
	for _, bay := range bays {
		c, ok := counts[bay.ZoneID]
		if !ok {
			continue
		}
		c.total++
		if bay.IsBookable() && !taken[bay.ID] {
			c.available++
		}
	}

	resp := &ZoneAvailabilityResponse{
		Date:  date.Format(domain.DateFormat),
		Zones: make([]ZoneAvailability, 0, len(zones)),
	}
	for _, z := range zones {
		c := counts[z.ID]
		var utilization float64
		if c.total > 0 {
			utilization = round2(float64(c.total-c.available) / float64(c.total) * 100)
		}
		resp.Zones = append(resp.Zones, ZoneAvailability{
			ZoneID:         z.ID,
			Code:           z.Code,
			Name:           z.Name,
			TotalBays:      c.total,
			AvailableBays:  c.available,
			UtilizationPct: utilization,
			HasForklift:    z.HasForklift,
			HasTrolleyArea: z.HasTrolleyArea,
			Covered:        z.Covered,
		})
	}

	s.cache.Set(ctx, key, resp)
	return resp, nil
}

// FindNextAvailableSlot ищет первый слот с совместимым свободным боксом,
// двигаясь день за днём от стартовой даты. Горизонт поиска ограничен,
// за его пределами возвращается ErrNoSlotInHorizon.
func (s *Service) FindNextAvailableSlot(ctx context.Context, req *NextSlotRequest) (*NextSlotResult, error) {
	if req.VehicleType != "" && !domain.IsValidVehicleType(req.VehicleType) {
		return nil, fmt.Errorf("%w: unknown vehicle type %q", ErrInvalidInput, req.VehicleType)
	}
	if req.DurationMinutes < domain.MinBookingDurationMinutes || req.DurationMinutes > domain.MaxBookingDurationMinutes {
		return nil, fmt.Errorf("%w: duration must be between %d and %d minutes",
			ErrInvalidInput, domain.MinBookingDurationMinutes, domain.MaxBookingDurationMinutes)
	}

	now := s.timeProvider.Now()
	from := req.From
	if from.IsZero() {
		from = now
	}

	for day := 0; day < domain.NextSlotSearchHorizonDays; day++ {
		date := from.AddDate(0, 0, day)

		slots, err := s.slotRepo.ListActiveForWeekday(ctx, date.Weekday())
		if err != nil {
			s.logger.Error("FindNextAvailableSlot: slot repository error: %v", err)
			return nil, fmt.Errorf("%w: FindNextAvailableSlot - slot repository error: %v", ErrInternal, err)
		}

		for _, slot := range slots {
			pickupAt, err := slot.StartTime.At(date)
			if err != nil {
				continue
			}
			if pickupAt.Before(now) || !slot.WithinAdvanceWindow(pickupAt, now) {
				continue
			}

			booked, err := s.bookingRepo.CountBySlotAndDate(ctx, slot.ID, date, domain.CountableStatuses)
			if err != nil {
				s.logger.Error("FindNextAvailableSlot: booking repository error: %v", err)
				return nil, fmt.Errorf("%w: FindNextAvailableSlot - booking repository error: %v", ErrInternal, err)
			}
			if booked >= slot.MaxBookings {
				continue
			}

			bays, err := s.findFreeBays(ctx, date, slot.Window(), req.VehicleType, req.PreferredZoneID, 1)
			if err != nil {
				return nil, err
			}
			if len(bays) == 0 {
				continue
			}

			result := &NextSlotResult{
				Date:      date.Format(domain.DateFormat),
				SlotID:    slot.ID,
				SlotName:  slot.Name,
				SlotType:  slot.Type,
				StartTime: slot.StartTime,
				EndTime:   slot.EndTime,
				BayID:     bays[0].BayID,
				BayNumber: bays[0].Number,
			}
			s.logger.Info("FindNextAvailableSlot: found slot=%d bay=%d on %s for %s",
				slot.ID, result.BayID, result.Date, req.VehicleType)
			return result, nil
		}
	}

	s.logger.Warn("FindNextAvailableSlot: nothing free within %d days for %s",
		domain.NextSlotSearchHorizonDays, req.VehicleType)
	return nil, ErrNoSlotInHorizon
}

// CheckSlotAvailability точечно проверяет окно на боксе. Занятое окно это
// бизнес-исход, а не ошибка: причины и ссылки на конфликтующие
// бронирования возвращаются в результате.
func (s *Service) CheckSlotAvailability(ctx context.Context, bayID int64, date time.Time, start types.TimeString, durationMinutes int) (*SlotCheck, error) {
	end, err := s.validateWindow(date, start, durationMinutes)
	if err != nil {
		return nil, err
	}

	bay, err := s.registryRepo.GetBay(ctx, bayID)
	if err != nil {
		if errors.Is(err, registry.ErrBayNotFound) {
			return nil, ErrBayNotFound
		}
		s.logger.Error("CheckSlotAvailability: registry error for bay=%d: %v", bayID, err)
		return nil, fmt.Errorf("%w: CheckSlotAvailability - registry error: %v", ErrInternal, err)
	}
	if !bay.IsBookable() {
		return &SlotCheck{Available: false, Reason: ReasonBayInactive}, nil
	}

	blocks, err := s.availRepo.ListOverlapping(ctx, bayID, date, start, end)
	if err != nil {
		s.logger.Error("CheckSlotAvailability: availability repository error for bay=%d: %v", bayID, err)
		return nil, fmt.Errorf("%w: CheckSlotAvailability - availability repository error: %v", ErrInternal, err)
	}
	if len(blocks) == 0 {
		return &SlotCheck{Available: true}, nil
	}

	check := &SlotCheck{Available: false}
	for _, block := range blocks {
		if block.IsOperatorBlock() {
			check.Reason = ReasonBlocked
			check.BlockReason = block.Reason
			continue
		}
		if block.BookingID == nil {
			continue
		}
		booking, err := s.bookingRepo.GetByID(ctx, *block.BookingID)
		if err != nil {
			s.logger.Warn("CheckSlotAvailability: cannot resolve booking=%d: %v", *block.BookingID, err)
			continue
		}
		check.ConflictingRefs = append(check.ConflictingRefs, booking.Reference)
	}
	if check.Reason == "" {
		check.Reason = ReasonConflict
	}
	return check, nil
}

// GetAlternativeBays предлагает до пяти свободных боксов того же типа на то
// же окно. Боксы родной зоны идут первыми, дальше сортировка по
// удалённости зоны от входа.
func (s *Service) GetAlternativeBays(ctx context.Context, bayID int64, date time.Time, start types.TimeString, durationMinutes int) ([]AlternativeBay, error) {
	end, err := s.validateWindow(date, start, durationMinutes)
	if err != nil {
		return nil, err
	}

	origin, err := s.registryRepo.GetBay(ctx, bayID)
	if err != nil {
		if errors.Is(err, registry.ErrBayNotFound) {
			return nil, ErrBayNotFound
		}
		s.logger.Error("GetAlternativeBays: registry error for bay=%d: %v", bayID, err)
		return nil, fmt.Errorf("%w: GetAlternativeBays - registry error: %v", ErrInternal, err)
	}

	window := domain.Interval{Start: start, End: end}
	free, err := s.freeBaysOfTypes(ctx, date, window, []domain.BayType{origin.Type}, nil, 0)
	if err != nil {
		return nil, err
	}

	alternatives := make([]AlternativeBay, 0, len(free))
	for _, b := range free {
		if b.BayID == origin.ID {
			continue
		}
		alternatives = append(alternatives, AlternativeBay{
			AvailableBay: b,
			SameZone:     b.ZoneID == origin.ZoneID,
		})
	}

	sort.SliceStable(alternatives, func(i, j int) bool {
		a, b := alternatives[i], alternatives[j]
		if a.SameZone != b.SameZone {
			return a.SameZone
		}
		if a.DistanceFromEntrance != b.DistanceFromEntrance {
			return a.DistanceFromEntrance < b.DistanceFromEntrance
		}
		return a.Number < b.Number
	})

	if len(alternatives) > domain.MaxAlternativeBays {
		alternatives = alternatives[:domain.MaxAlternativeBays]
	}
	return alternatives, nil
}

// GetPeakHoursAnalysis строит распределение бронирований по часам начала,
// типам слотов и дням недели за период
func (s *Service) GetPeakHoursAnalysis(ctx context.Context, req *PeakHoursRequest) (*PeakHoursAnalysis, error) {
	if req.StartDate.IsZero() || req.EndDate.IsZero() {
		return nil, fmt.Errorf("%w: start and end dates are required", ErrInvalidInput)
	}
	if req.EndDate.Before(req.StartDate) {
		return nil, fmt.Errorf("%w: end date before start date", ErrInvalidInput)
	}

	bookings, err := s.bookingRepo.ListBetween(ctx, req.StartDate, req.EndDate, domain.CountableStatuses)
	if err != nil {
		s.logger.Error("GetPeakHoursAnalysis: booking repository error: %v", err)
		return nil, fmt.Errorf("%w: GetPeakHoursAnalysis - booking repository error: %v", ErrInternal, err)
	}

	slots, err := s.slotRepo.ListActive(ctx)
	if err != nil {
		s.logger.Error("GetPeakHoursAnalysis: slot repository error: %v", err)
		return nil, fmt.Errorf("%w: GetPeakHoursAnalysis - slot repository error: %v", ErrInternal, err)
	}
	slotTypes := make(map[int64]domain.SlotType, len(slots))
	for _, slot := range slots {
		slotTypes[slot.ID] = slot.Type
	}

	analysis := &PeakHoursAnalysis{
		StartDate:  req.StartDate.Format(domain.DateFormat),
		EndDate:    req.EndDate.Format(domain.DateFormat),
		BySlotType: make(map[string]int),
		ByWeekday:  make(map[string]int),
	}
	for _, b := range bookings {
		analysis.TotalBookings++

		if minutes, err := b.StartTime.Minutes(); err == nil {
			analysis.ByHour[minutes/60]++
		}

		// Бронирования на точное время без слота попадают в отдельную корзину
		bucket := "exact_time"
		if b.SlotID != nil {
			if t, ok := slotTypes[*b.SlotID]; ok {
				bucket = string(t)
			}
		}
		analysis.BySlotType[bucket]++
		analysis.ByWeekday[b.PickupDate.Weekday().String()]++
	}

	activeHours := 0
	for hour, count := range analysis.ByHour {
		if count == 0 {
			continue
		}
		activeHours++
		if count > analysis.PeakHourCount {
			analysis.PeakHour = hour
			analysis.PeakHourCount = count
		}
	}
	if activeHours > 0 {
		analysis.AveragePerHour = round2(float64(analysis.TotalBookings) / float64(activeHours))
	}
	return analysis, nil
}

// findFreeBays возвращает боксы, совместимые с типом транспорта и свободные
// в окне. Пустой тип транспорта не ограничивает тип бокса, nil zoneID не
// ограничивает зону, limit=0 означает без ограничения.
func (s *Service) findFreeBays(ctx context.Context, date time.Time, window domain.Interval, vehicleType domain.VehicleType, zoneID *int64, limit int) ([]AvailableBay, error) {
	return s.freeBaysOfTypes(ctx, date, window, domain.CompatibleBayTypes(vehicleType), zoneID, limit)
}

func (s *Service) freeBaysOfTypes(ctx context.Context, date time.Time, window domain.Interval, bayTypes []domain.BayType, zoneID *int64, limit int) ([]AvailableBay, error) {
	available := domain.BayStatusAvailable
	bays, err := s.registryRepo.ListBays(ctx, registry.BayFilter{
		ZoneID:     zoneID,
		Types:      bayTypes,
		Status:     &available,
		ActiveOnly: true,
	})
	if err != nil {
		s.logger.Error("freeBaysOfTypes: registry error: %v", err)
		return nil, fmt.Errorf("%w: registry error: %v", ErrInternal, err)
	}

	blocks, err := s.availRepo.ListForDate(ctx, date)
	if err != nil {
		s.logger.Error("freeBaysOfTypes: availability repository error: %v", err)
		return nil, fmt.Errorf("%w: availability repository error: %v", ErrInternal, err)
	}
	blocksByBay := make(map[int64][]*domain.BayAvailability, len(blocks))
	for _, block := range blocks {
		blocksByBay[block.BayID] = append(blocksByBay[block.BayID], block)
	}

	zones, err := s.registryRepo.ListZones(ctx, false)
	if err != nil {
		s.logger.Error("freeBaysOfTypes: registry error: %v", err)
		return nil, fmt.Errorf("%w: registry error: %v", ErrInternal, err)
	}
	zonesByID := make(map[int64]*domain.Zone, len(zones))
	for _, z := range zones {
		zonesByID[z.ID] = z
	}

	result := make([]AvailableBay, 0, len(bays))
	for _, bay := range bays {
		if anyOverlap(blocksByBay[bay.ID], window) {
			continue
		}
		zone := zonesByID[bay.ZoneID]
		if zone == nil || !zone.Active {
			continue
		}
		result = append(result, AvailableBay{
			BayID:                bay.ID,
			Number:               bay.Number,
			Type:                 bay.Type,
			ZoneID:               zone.ID,
			ZoneCode:             zone.Code,
			ZoneName:             zone.Name,
			DistanceFromEntrance: zone.DistanceFromEntrance,
		})
		if limit > 0 && len(result) >= limit {
			break
		}
	}
	return result, nil
}

// validateWindow проверяет дату, время и длительность и возвращает конец окна
func (s *Service) validateWindow(date time.Time, start types.TimeString, durationMinutes int) (types.TimeString, error) {
	if date.IsZero() {
		return "", fmt.Errorf("%w: date is required", ErrInvalidInput)
	}
	if err := start.Validate(); err != nil {
		return "", fmt.Errorf("%w: invalid start time: %v", ErrInvalidInput, err)
	}
	if durationMinutes < domain.MinBookingDurationMinutes || durationMinutes > domain.MaxBookingDurationMinutes {
		return "", fmt.Errorf("%w: duration must be between %d and %d minutes",
			ErrInvalidInput, domain.MinBookingDurationMinutes, domain.MaxBookingDurationMinutes)
	}
	end, err := start.AddMinutes(durationMinutes)
	if err != nil {
		return "", fmt.Errorf("%w: window extends past midnight", ErrInvalidInput)
	}
	return end, nil
}

func anyOverlap(blocks []*domain.BayAvailability, window domain.Interval) bool {
	for _, block := range blocks {
		if block.Interval().Overlaps(window) {
			return true
		}
	}
	return false
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
