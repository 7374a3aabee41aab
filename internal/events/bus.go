package events

import (
	"encoding/json"
	"sync"
)

// Типы событий бронирований.
const (
	EventBookingCreated       = "booking.created"
	EventBookingStatusChanged = "booking.status_changed"
)

// Event событие с сериализованным payload.
type Event struct {
	Type    string
	Payload json.RawMessage
}

// BookingEventPayload полезная нагрузка событий бронирований.
type BookingEventPayload struct {
	AvitoBookingID string `json:"avito_booking_id"`
	ListingID      int64  `json:"listing_id"`
	Status         string `json:"status,omitempty"`
}

// Handler обработчик события. Ошибка логируется издателем, но не
// останавливает доставку остальным подписчикам.
type Handler func(Event) error

// EventBus простая внутрипроцессная шина: подписчики вызываются
// последовательно в горутине издателя.
type EventBus struct {
	mu       sync.RWMutex
	handlers map[string][]Handler
}

func NewEventBus() *EventBus {
	return &EventBus{handlers: make(map[string][]Handler)}
}

// Subscribe регистрирует обработчик для типа события.
func (b *EventBus) Subscribe(evType string, h Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[evType] = append(b.handlers[evType], h)
}

// Publish сериализует payload и доставляет событие всем подписчикам.
// Ошибки обработчиков собираются и возвращаются первой встретившейся.
func (b *EventBus) Publish(evType string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	b.mu.RLock()
	handlers := make([]Handler, len(b.handlers[evType]))
	copy(handlers, b.handlers[evType])
	b.mu.RUnlock()

	ev := Event{Type: evType, Payload: data}
	var firstErr error
	for _, h := range handlers {
		if err := h(ev); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
