package create_booking

import (
	"time"

	"github.com/LitKanna/TF-PickupService/internal/domain"
	createBooking "github.com/LitKanna/TF-PickupService/internal/usecase/create_booking"
	"github.com/LitKanna/TF-PickupService/pkg/types"
)

// CreateBookingRequest HTTP request model
type CreateBookingRequest struct {
	BayID           int64   `json:"bayId"`
	SlotID          *int64  `json:"slotId,omitempty"`
	PickupDate      string  `json:"pickupDate"` // "2026-09-15"
	StartTime       string  `json:"startTime,omitempty"`
	DurationMinutes int     `json:"durationMinutes,omitempty"`
	OrderRef        *string `json:"orderRef,omitempty"`
	VehicleType     *string `json:"vehicleType,omitempty"`
	VehiclePlate    *string `json:"vehiclePlate,omitempty"`
	DriverName      *string `json:"driverName,omitempty"`
	AutoConfirm     bool    `json:"autoConfirm,omitempty"`
	Paid            bool    `json:"paid,omitempty"`
}

// BookingResponse HTTP response model
type BookingResponse struct {
	ID               int64   `json:"id"`
	Reference        string  `json:"reference"`
	ConfirmationCode string  `json:"confirmationCode"`
	UserID           int64   `json:"userId"`
	BayID            int64   `json:"bayId"`
	SlotID           *int64  `json:"slotId,omitempty"`
	PickupDate       string  `json:"pickupDate"`
	StartTime        string  `json:"startTime"`
	EndTime          string  `json:"endTime"`
	DurationMinutes  int     `json:"durationMinutes"`
	Status           string  `json:"status"`
	QRPayload        *string `json:"qrPayload,omitempty"`
	Fee              float64 `json:"fee"`
	Paid             bool    `json:"paid"`
	CreatedAt        string  `json:"createdAt"`
}

// ToUseCaseRequest конвертирует HTTP запрос в модель use case
func (r *CreateBookingRequest) ToUseCaseRequest(userID int64) (*createBooking.Request, error) {
	pickupDate, err := time.Parse(domain.DateFormat, r.PickupDate)
	if err != nil {
		return nil, err
	}

	var startTime types.TimeString
	if r.StartTime != "" {
		startTime, err = types.NewTimeStringFromString(r.StartTime)
		if err != nil {
			return nil, err
		}
	}

	var vehicleType *domain.VehicleType
	if r.VehicleType != nil {
		vt := domain.VehicleType(*r.VehicleType)
		vehicleType = &vt
	}

	return &createBooking.Request{
		UserID:          userID,
		OrderRef:        r.OrderRef,
		BayID:           r.BayID,
		SlotID:          r.SlotID,
		Date:            pickupDate,
		StartTime:       startTime,
		DurationMinutes: r.DurationMinutes,
		VehicleType:     vehicleType,
		VehiclePlate:    r.VehiclePlate,
		DriverName:      r.DriverName,
		AutoConfirm:     r.AutoConfirm,
		Paid:            r.Paid,
	}, nil
}

// FromUseCaseResponse конвертирует ответ use case в HTTP response
func FromUseCaseResponse(resp *createBooking.Response) *BookingResponse {
	return &BookingResponse{
		ID:               resp.ID,
		Reference:        resp.Reference,
		ConfirmationCode: resp.ConfirmationCode,
		UserID:           resp.UserID,
		BayID:            resp.BayID,
		SlotID:           resp.SlotID,
		PickupDate:       resp.PickupDate,
		StartTime:        resp.StartTime.String(),
		EndTime:          resp.EndTime.String(),
		DurationMinutes:  resp.DurationMinutes,
		Status:           resp.Status,
		QRPayload:        resp.QRPayload,
		Fee:              resp.Fee,
		Paid:             resp.Paid,
		CreatedAt:        resp.CreatedAt.Format(time.RFC3339),
	}
}
