package events

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Routing keys of booking lifecycle events. Events are published strictly
// after the owning transaction commits; a failed handler never affects the
// committed state transition.
const (
	BookingCreated   = "pickup.booking.created"
	BookingConfirmed = "pickup.booking.confirmed"
	BookingUpdated   = "pickup.booking.updated"
	BookingCancelled = "pickup.booking.cancelled"
	BookingCheckedIn = "pickup.booking.checked_in"
	BookingCompleted = "pickup.booking.completed"
	BookingNoShow    = "pickup.booking.no_show"
	BookingReminder  = "pickup.booking.reminder"
)

// BookingSnapshot carries enough booking state for any downstream consumer
// to act without a read-back.
type BookingSnapshot struct {
	BookingID        int64   `json:"booking_id"`
	Reference        string  `json:"reference"`
	ConfirmationCode string  `json:"confirmation_code"`
	UserID           int64   `json:"user_id"`
	OrderRef         *string `json:"order_ref,omitempty"`
	BayID            int64   `json:"bay_id"`
	BayNumber        string  `json:"bay_number,omitempty"`
	ZoneCode         string  `json:"zone_code,omitempty"`
	PickupDate       string  `json:"pickup_date"` // YYYY-MM-DD
	StartTime        string  `json:"start_time"`  // HH:MM
	EndTime          string  `json:"end_time"`
	Status           string  `json:"status"`
	Fee              float64 `json:"fee"`
	Paid             bool    `json:"paid"`
}

// ChangedValues holds the pre-update values for "details changed" notifications.
type ChangedValues struct {
	BayID      int64  `json:"bay_id"`
	PickupDate string `json:"pickup_date"`
	StartTime  string `json:"start_time"`
}

// Event is a post-commit booking lifecycle event.
type Event struct {
	ID        string          `json:"id"`
	Type      string          `json:"type"`
	Booking   BookingSnapshot `json:"booking"`
	OldValues *ChangedValues  `json:"old_values,omitempty"`
	Reason    *string         `json:"reason,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
}

// NewEvent builds an event with a fresh UUID.
func NewEvent(eventType string, booking BookingSnapshot) Event {
	return Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		Booking:   booking,
		CreatedAt: time.Now().UTC(),
	}
}

// Handler reacts to an event. Errors are the handler's own problem:
// the bus does not retry and does not propagate.
type Handler func(event Event)

// Bus provides in-process pub/sub for post-commit events.
type Bus struct {
	mu          sync.RWMutex
	subscribers map[string][]Handler
	catchAll    []Handler
}

// NewBus constructs an empty bus.
func NewBus() *Bus {
	return &Bus{subscribers: make(map[string][]Handler)}
}

// Subscribe registers a handler for a given event type.
func (b *Bus) Subscribe(eventType string, handler Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subscribers[eventType] = append(b.subscribers[eventType], handler)
}

// SubscribeAll registers a handler for every event type.
func (b *Bus) SubscribeAll(handler Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.catchAll = append(b.catchAll, handler)
}

// Publish notifies subscribers synchronously, in registration order.
// Callers publish only after their transaction has committed.
func (b *Bus) Publish(event Event) {
	b.mu.RLock()
	handlers := append([]Handler(nil), b.subscribers[event.Type]...)
	handlers = append(handlers, b.catchAll...)
	b.mu.RUnlock()

	for _, handler := range handlers {
		handler(event)
	}
}
