package schedule

import (
	"time"

	"github.com/LitKanna/TF-PickupService/internal/domain"
	"github.com/LitKanna/TF-PickupService/pkg/types"
)

// CreateRequest запрос на создание регулярного расписания выдачи
type CreateRequest struct {
	UserID int64
	BayID  int64
	SlotID *int64

	Frequency  domain.ScheduleFrequency
	DaysOfWeek []time.Weekday // для weekly
	DayOfMonth int            // для monthly

	PreferredTime   types.TimeString
	DurationMinutes int

	StartDate time.Time
	EndDate   *time.Time

	AutoConfirm bool
}

// ScheduleResponse модель расписания для API
type ScheduleResponse struct {
	ID              int64            `json:"id"`
	UserID          int64            `json:"user_id"`
	BayID           int64            `json:"bay_id"`
	SlotID          *int64           `json:"slot_id,omitempty"`
	Frequency       string           `json:"frequency"`
	DaysOfWeek      []string         `json:"days_of_week,omitempty"`
	DayOfMonth      int              `json:"day_of_month,omitempty"`
	PreferredTime   types.TimeString `json:"preferred_time"`
	DurationMinutes int              `json:"duration_minutes"`
	StartDate       string           `json:"start_date"`
	EndDate         *string          `json:"end_date,omitempty"`
	NextBookingDate *string          `json:"next_booking_date,omitempty"`
	AutoConfirm     bool             `json:"auto_confirm"`
	NeedsAttention  bool             `json:"needs_attention"`
	LastError       *string          `json:"last_error,omitempty"`
	Active          bool             `json:"active"`
}

// MaterializeReport итог одного прогона материализации
type MaterializeReport struct {
	Due     int `json:"due"`
	Created int `json:"created"`
	Flagged int `json:"flagged"`
	Expired int `json:"expired"`
}

// FromDomainSchedule конвертирует доменное расписание в API модель
func FromDomainSchedule(s *domain.RecurringPickupSchedule) *ScheduleResponse {
	resp := &ScheduleResponse{
		ID:              s.ID,
		UserID:          s.UserID,
		BayID:           s.BayID,
		SlotID:          s.SlotID,
		Frequency:       string(s.Frequency),
		DayOfMonth:      s.DayOfMonth,
		PreferredTime:   s.PreferredTime,
		DurationMinutes: s.DurationMinutes,
		StartDate:       s.StartDate.Format(domain.DateFormat),
		AutoConfirm:     s.AutoConfirm,
		NeedsAttention:  s.NeedsAttention,
		LastError:       s.LastError,
		Active:          s.Active,
	}
	for _, d := range s.DaysOfWeek {
		resp.DaysOfWeek = append(resp.DaysOfWeek, d.String())
	}
	if s.EndDate != nil {
		v := s.EndDate.Format(domain.DateFormat)
		resp.EndDate = &v
	}
	if s.NextBookingDate != nil {
		v := s.NextBookingDate.Format(domain.DateFormat)
		resp.NextBookingDate = &v
	}
	return resp
}
