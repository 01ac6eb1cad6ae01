package create_schedule

import (
	"fmt"
	"strings"
	"time"

	"github.com/LitKanna/TF-PickupService/internal/domain"
	scheduleSvc "github.com/LitKanna/TF-PickupService/internal/service/schedule"
	"github.com/LitKanna/TF-PickupService/pkg/types"
)

// CreateScheduleRequest HTTP request model
type CreateScheduleRequest struct {
	BayID           int64    `json:"bayId"`
	SlotID          *int64   `json:"slotId,omitempty"`
	Frequency       string   `json:"frequency"` // daily, weekly, monthly
	DaysOfWeek      []string `json:"daysOfWeek,omitempty"`
	DayOfMonth      int      `json:"dayOfMonth,omitempty"`
	PreferredTime   string   `json:"preferredTime"`
	DurationMinutes int      `json:"durationMinutes"`
	StartDate       string   `json:"startDate"`
	EndDate         *string  `json:"endDate,omitempty"`
	AutoConfirm     bool     `json:"autoConfirm,omitempty"`
}

var weekdayNames = map[string]time.Weekday{
	"sunday":    time.Sunday,
	"monday":    time.Monday,
	"tuesday":   time.Tuesday,
	"wednesday": time.Wednesday,
	"thursday":  time.Thursday,
	"friday":    time.Friday,
	"saturday":  time.Saturday,
}

// ToServiceRequest конвертирует HTTP запрос в модель сервиса
func (r *CreateScheduleRequest) ToServiceRequest(userID int64) (*scheduleSvc.CreateRequest, error) {
	preferredTime, err := types.NewTimeStringFromString(r.PreferredTime)
	if err != nil {
		return nil, err
	}

	startDate, err := time.Parse(domain.DateFormat, r.StartDate)
	if err != nil {
		return nil, err
	}

	var endDate *time.Time
	if r.EndDate != nil {
		parsed, err := time.Parse(domain.DateFormat, *r.EndDate)
		if err != nil {
			return nil, err
		}
		endDate = &parsed
	}

	var days []time.Weekday
	for _, name := range r.DaysOfWeek {
		day, ok := weekdayNames[strings.ToLower(name)]
		if !ok {
			return nil, fmt.Errorf("unknown weekday %q", name)
		}
		days = append(days, day)
	}

	return &scheduleSvc.CreateRequest{
		UserID:          userID,
		BayID:           r.BayID,
		SlotID:          r.SlotID,
		Frequency:       domain.ScheduleFrequency(r.Frequency),
		DaysOfWeek:      days,
		DayOfMonth:      r.DayOfMonth,
		PreferredTime:   preferredTime,
		DurationMinutes: r.DurationMinutes,
		StartDate:       startDate,
		EndDate:         endDate,
		AutoConfirm:     r.AutoConfirm,
	}, nil
}
