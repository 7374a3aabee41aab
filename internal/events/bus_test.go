package events

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestEventBus(t *testing.T) {
	t.Run("delivers payload to subscriber", func(t *testing.T) {
		bus := NewEventBus()
		var got BookingEventPayload
		bus.Subscribe(EventBookingCreated, func(ev Event) error {
			return json.Unmarshal(ev.Payload, &got)
		})

		err := bus.Publish(EventBookingCreated, BookingEventPayload{
			AvitoBookingID: "bk-1", ListingID: 7, Status: "active",
		})
		if err != nil {
			t.Fatalf("Publish: %v", err)
		}
		if got.AvitoBookingID != "bk-1" || got.ListingID != 7 || got.Status != "active" {
			t.Errorf("payload = %+v", got)
		}
	})

	t.Run("all subscribers run even after error", func(t *testing.T) {
		bus := NewEventBus()
		var calls int
		wantErr := errors.New("handler failed")
		bus.Subscribe(EventBookingStatusChanged, func(Event) error { calls++; return wantErr })
		bus.Subscribe(EventBookingStatusChanged, func(Event) error { calls++; return nil })

		err := bus.Publish(EventBookingStatusChanged, BookingEventPayload{AvitoBookingID: "bk-1"})
		if !errors.Is(err, wantErr) {
			t.Errorf("err = %v, want first handler error", err)
		}
		if calls != 2 {
			t.Errorf("calls = %d, want 2", calls)
		}
	})

	t.Run("no subscribers is fine", func(t *testing.T) {
		bus := NewEventBus()
		if err := bus.Publish("unknown.event", BookingEventPayload{}); err != nil {
			t.Errorf("Publish: %v", err)
		}
	})

	t.Run("events are routed by type", func(t *testing.T) {
		bus := NewEventBus()
		var created, changed int
		bus.Subscribe(EventBookingCreated, func(Event) error { created++; return nil })
		bus.Subscribe(EventBookingStatusChanged, func(Event) error { changed++; return nil })

		bus.Publish(EventBookingCreated, BookingEventPayload{})
		bus.Publish(EventBookingCreated, BookingEventPayload{})
		bus.Publish(EventBookingStatusChanged, BookingEventPayload{})

		if created != 2 || changed != 1 {
			t.Errorf("created = %d, changed = %d", created, changed)
		}
	})
}
