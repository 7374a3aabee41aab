package worker

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/MishaNyaCopilot/MyAvitoHost/internal/avito"
	"github.com/MishaNyaCopilot/MyAvitoHost/internal/events"
	"github.com/MishaNyaCopilot/MyAvitoHost/internal/models"
	"github.com/rs/zerolog"
)

func decodePayload(ev events.Event, dst any) error {
	return json.Unmarshal(ev.Payload, dst)
}

type memStore struct {
	listings []models.Listing
	bookings map[string]*models.Booking
	upserted []string
	checkIns []models.Booking
}

func newMemStore(listings ...models.Listing) *memStore {
	return &memStore{listings: listings, bookings: make(map[string]*models.Booking)}
}

func (s *memStore) GetAllListings(ctx context.Context) ([]models.Listing, error) {
	return s.listings, nil
}

func (s *memStore) GetListingByID(ctx context.Context, id int64) (*models.Listing, error) {
	for i := range s.listings {
		if s.listings[i].ID == id {
			return &s.listings[i], nil
		}
	}
	return nil, nil
}

func (s *memStore) UpsertListing(ctx context.Context, l *models.Listing) error {
	for i := range s.listings {
		if s.listings[i].AvitoID == l.AvitoID {
			s.listings[i].Title = l.Title
			s.listings[i].Address = l.Address
			return nil
		}
	}
	l.ID = int64(len(s.listings) + 1)
	s.listings = append(s.listings, *l)
	return nil
}

func (s *memStore) GetBookingByAvitoID(ctx context.Context, id string) (*models.Booking, error) {
	if b, ok := s.bookings[id]; ok {
		copied := *b
		return &copied, nil
	}
	return nil, nil
}

func (s *memStore) UpsertBooking(ctx context.Context, b *models.Booking) (bool, error) {
	_, existed := s.bookings[b.AvitoBookingID]
	copied := *b
	s.bookings[b.AvitoBookingID] = &copied
	s.upserted = append(s.upserted, b.AvitoBookingID)
	return !existed, nil
}

func (s *memStore) GetUpcomingCheckIns(ctx context.Context, date time.Time) ([]models.Booking, error) {
	return s.checkIns, nil
}

type memPlatform struct {
	items    []avito.Item
	bookings map[int64][]avito.Booking
}

func (p *memPlatform) GetAllUserItems(ctx context.Context) ([]avito.Item, error) {
	return p.items, nil
}

func (p *memPlatform) GetItemBookings(ctx context.Context, itemID int64, dateStart, dateEnd string, withUnpaid bool) ([]avito.Booking, error) {
	return p.bookings[itemID], nil
}

type memNotifier struct {
	messages []string
}

func (n *memNotifier) NotifyOperators(text string) {
	n.messages = append(n.messages, text)
}

func newTestWorker(store *memStore, platform *memPlatform, bus *events.EventBus, notifier *memNotifier) *SyncWorker {
	return NewSyncWorker(store, platform, bus, notifier,
		RetryPolicy{MaxRetries: 1, InitialDelay: time.Millisecond, BackoffFactor: 2},
		zerolog.Nop(), time.Minute, 2)
}

func price(v float64) *float64 { return &v }

func TestSyncBookings(t *testing.T) {
	ctx := context.Background()

	t.Run("new booking stored and announced", func(t *testing.T) {
		store := newMemStore(models.Listing{ID: 1, AvitoID: 1001, Title: "Морская, 10"})
		platform := &memPlatform{bookings: map[int64][]avito.Booking{
			1001: {{
				AvitoBookingID: "bk-1",
				CheckIn:        "2026-01-10",
				CheckOut:       "2026-01-15",
				Status:         "active",
				BasePrice:      price(12500),
				Nights:         5,
				Contact:        avito.Contact{Name: "Иван", Phone: "+79990000000"},
			}},
		}}
		bus := events.NewEventBus()
		var created []events.BookingEventPayload
		bus.Subscribe(events.EventBookingCreated, func(ev events.Event) error {
			var p events.BookingEventPayload
			if err := decodePayload(ev, &p); err != nil {
				return err
			}
			created = append(created, p)
			return nil
		})

		w := newTestWorker(store, platform, bus, &memNotifier{})
		if err := w.syncBookings(ctx); err != nil {
			t.Fatalf("syncBookings: %v", err)
		}

		stored, _ := store.GetBookingByAvitoID(ctx, "bk-1")
		if stored == nil {
			t.Fatal("booking not stored")
		}
		if stored.ListingID != 1 || stored.ContactName != "Иван" || stored.BasePrice != 12500 {
			t.Errorf("stored = %+v", stored)
		}
		if stored.Source != models.SourceAvito {
			t.Errorf("source = %q", stored.Source)
		}
		if len(created) != 1 || created[0].AvitoBookingID != "bk-1" || created[0].ListingID != 1 {
			t.Errorf("created events = %+v", created)
		}
	})

	t.Run("status change publishes event once", func(t *testing.T) {
		store := newMemStore(models.Listing{ID: 1, AvitoID: 1001})
		store.bookings["bk-1"] = &models.Booking{AvitoBookingID: "bk-1", ListingID: 1, Status: "pending"}
		platform := &memPlatform{bookings: map[int64][]avito.Booking{
			1001: {{AvitoBookingID: "bk-1", CheckIn: "2026-01-10", CheckOut: "2026-01-15", Status: "active"}},
		}}
		bus := events.NewEventBus()
		var changes []events.BookingEventPayload
		bus.Subscribe(events.EventBookingStatusChanged, func(ev events.Event) error {
			var p events.BookingEventPayload
			if err := decodePayload(ev, &p); err != nil {
				return err
			}
			changes = append(changes, p)
			return nil
		})

		w := newTestWorker(store, platform, bus, &memNotifier{})
		if err := w.syncBookings(ctx); err != nil {
			t.Fatalf("syncBookings: %v", err)
		}
		if len(changes) != 1 || changes[0].Status != "active" {
			t.Fatalf("change events = %+v", changes)
		}

		// повторный проход без изменений — событий быть не должно
		if err := w.syncBookings(ctx); err != nil {
			t.Fatalf("second syncBookings: %v", err)
		}
		if len(changes) != 1 {
			t.Errorf("change events after repeat = %d, want 1", len(changes))
		}
	})

	t.Run("malformed dates are skipped", func(t *testing.T) {
		store := newMemStore(models.Listing{ID: 1, AvitoID: 1001})
		platform := &memPlatform{bookings: map[int64][]avito.Booking{
			1001: {
				{AvitoBookingID: "bad", CheckIn: "мусор", CheckOut: "2026-01-15"},
				{AvitoBookingID: "ok", CheckIn: "2026-01-10", CheckOut: "2026-01-15"},
			},
		}}

		w := newTestWorker(store, platform, events.NewEventBus(), &memNotifier{})
		if err := w.syncBookings(ctx); err != nil {
			t.Fatalf("syncBookings: %v", err)
		}
		if len(store.upserted) != 1 || store.upserted[0] != "ok" {
			t.Errorf("upserted = %v, want only the valid booking", store.upserted)
		}
	})
}

func TestSyncListings(t *testing.T) {
	store := newMemStore()
	platform := &memPlatform{items: []avito.Item{
		{ID: 1001, Title: "Морская, 10"},
		{ID: 0, Title: "Без ID"},
		{ID: 1002, Address: "Приморский бульвар, 1"},
	}}

	w := newTestWorker(store, platform, events.NewEventBus(), &memNotifier{})
	if err := w.syncListings(context.Background()); err != nil {
		t.Fatalf("syncListings: %v", err)
	}

	if len(store.listings) != 2 {
		t.Fatalf("listings = %d, want 2 (zero id skipped)", len(store.listings))
	}
	if store.listings[0].AvitoID != 1001 || store.listings[1].AvitoID != 1002 {
		t.Errorf("listings = %+v", store.listings)
	}
}

func TestSendCheckInReminders(t *testing.T) {
	store := newMemStore(models.Listing{ID: 1, AvitoID: 1001, Title: "Морская, 10"})
	store.checkIns = []models.Booking{{
		AvitoBookingID: "bk-1",
		ListingID:      1,
		ContactName:    "Иван",
		CheckIn:        time.Now().AddDate(0, 0, 1),
	}}
	notifier := &memNotifier{}

	w := newTestWorker(store, &memPlatform{}, events.NewEventBus(), notifier)
	w.sendCheckInReminders(context.Background())

	if len(notifier.messages) != 1 {
		t.Fatalf("messages = %v, want one reminder", notifier.messages)
	}
	msg := notifier.messages[0]
	if !strings.Contains(msg, "Морская, 10") || !strings.Contains(msg, "Иван") || !strings.Contains(msg, "bk-1") {
		t.Errorf("reminder = %q", msg)
	}

	// вторая рассылка за тот же день не уходит
	w.sendCheckInReminders(context.Background())
	if len(notifier.messages) != 1 {
		t.Errorf("messages = %d after repeat, want 1", len(notifier.messages))
	}
}
