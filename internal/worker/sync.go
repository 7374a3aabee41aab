package worker

import (
	"context"
	"fmt"
	"time"

	"github.com/MishaNyaCopilot/MyAvitoHost/internal/avito"
	"github.com/MishaNyaCopilot/MyAvitoHost/internal/events"
	"github.com/MishaNyaCopilot/MyAvitoHost/internal/models"
	"github.com/rs/zerolog"
)

const apiDateLayout = "2006-01-02"

// Store методы локальной базы, нужные синхронизации.
type Store interface {
	GetAllListings(ctx context.Context) ([]models.Listing, error)
	GetListingByID(ctx context.Context, id int64) (*models.Listing, error)
	UpsertListing(ctx context.Context, l *models.Listing) error
	GetBookingByAvitoID(ctx context.Context, avitoBookingID string) (*models.Booking, error)
	UpsertBooking(ctx context.Context, b *models.Booking) (bool, error)
	GetUpcomingCheckIns(ctx context.Context, date time.Time) ([]models.Booking, error)
}

// Platform клиент площадки, нужный синхронизации.
type Platform interface {
	GetAllUserItems(ctx context.Context) ([]avito.Item, error)
	GetItemBookings(ctx context.Context, itemID int64, dateStart, dateEnd string, withUnpaid bool) ([]avito.Booking, error)
}

// Notifier доставка уведомлений операторам.
type Notifier interface {
	NotifyOperators(text string)
}

// SyncWorker периодически подтягивает бронирования с площадки в локальную
// базу, публикует события о новых бронях и сменах статусов и рассылает
// напоминания о завтрашних заселениях.
type SyncWorker struct {
	db           Store
	platform     Platform
	bus          *events.EventBus
	notifier     Notifier
	retry        RetryPolicy
	logger       zerolog.Logger
	interval     time.Duration
	windowMonths int

	// дата (YYYY-MM-DD), за которую напоминания уже разосланы
	lastReminderDate string
}

func NewSyncWorker(db Store, platform Platform, bus *events.EventBus, notifier Notifier,
	retry RetryPolicy, logger zerolog.Logger, interval time.Duration, windowMonths int) *SyncWorker {
	return &SyncWorker{
		db:           db,
		platform:     platform,
		bus:          bus,
		notifier:     notifier,
		retry:        retry,
		logger:       logger.With().Str("component", "sync_worker").Logger(),
		interval:     interval,
		windowMonths: windowMonths,
	}
}

// Start крутит цикл синхронизации до отмены контекста. Первый проход
// выполняется сразу, не дожидаясь первого тика.
func (w *SyncWorker) Start(ctx context.Context) {
	w.logger.Info().Dur("interval", w.interval).Int("window_months", w.windowMonths).Msg("sync worker started")

	w.runOnce(ctx)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.logger.Info().Msg("sync worker stopped")
			return
		case <-ticker.C:
			w.runOnce(ctx)
		}
	}
}

func (w *SyncWorker) runOnce(ctx context.Context) {
	if err := w.syncListings(ctx); err != nil {
		w.logger.Error().Err(err).Msg("listing sync failed")
	}
	if err := w.syncBookings(ctx); err != nil {
		w.logger.Error().Err(err).Msg("booking sync failed")
	}
	w.sendCheckInReminders(ctx)
}

// syncListings обновляет локальный справочник объявлений по списку с площадки.
func (w *SyncWorker) syncListings(ctx context.Context) error {
	var items []avito.Item
	err := w.retry.Do(ctx, func() error {
		var err error
		items, err = w.platform.GetAllUserItems(ctx)
		return err
	})
	if err != nil {
		return fmt.Errorf("fetch account items: %w", err)
	}

	for _, item := range items {
		if item.ID == 0 {
			continue
		}
		listing := models.Listing{
			AvitoID: item.ID,
			Title:   item.Title,
			Address: item.Address,
		}
		if err := w.db.UpsertListing(ctx, &listing); err != nil {
			w.logger.Error().Err(err).Int64("avito_id", item.ID).Msg("failed to upsert listing")
		}
	}
	return nil
}

// syncBookings сверяет бронирования каждого объявления с площадкой.
// Ошибка по одному объявлению не прерывает обход остальных.
func (w *SyncWorker) syncBookings(ctx context.Context) error {
	listings, err := w.db.GetAllListings(ctx)
	if err != nil {
		return fmt.Errorf("list listings: %w", err)
	}

	dateStart := time.Now()
	dateEnd := dateStart.AddDate(0, w.windowMonths, 0)

	for _, listing := range listings {
		if listing.AvitoID == 0 {
			continue
		}
		if err := w.syncListing(ctx, listing, dateStart, dateEnd); err != nil {
			w.logger.Error().Err(err).Int64("avito_id", listing.AvitoID).Msg("failed to sync listing bookings")
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
	}
	return nil
}

func (w *SyncWorker) syncListing(ctx context.Context, listing models.Listing, dateStart, dateEnd time.Time) error {
	var remote []avito.Booking
	err := w.retry.Do(ctx, func() error {
		var err error
		remote, err = w.platform.GetItemBookings(ctx, listing.AvitoID,
			dateStart.Format(apiDateLayout), dateEnd.Format(apiDateLayout), true)
		return err
	})
	if err != nil {
		return fmt.Errorf("fetch bookings: %w", err)
	}

	for _, rb := range remote {
		if rb.AvitoBookingID == "" {
			continue
		}

		checkIn, err := time.Parse(apiDateLayout, rb.CheckIn)
		if err != nil {
			w.logger.Warn().Str("booking_id", rb.AvitoBookingID).Str("check_in", rb.CheckIn).
				Msg("skipping booking with malformed check-in date")
			continue
		}
		checkOut, err := time.Parse(apiDateLayout, rb.CheckOut)
		if err != nil {
			w.logger.Warn().Str("booking_id", rb.AvitoBookingID).Str("check_out", rb.CheckOut).
				Msg("skipping booking with malformed check-out date")
			continue
		}

		prior, err := w.db.GetBookingByAvitoID(ctx, rb.AvitoBookingID)
		if err != nil {
			w.logger.Error().Err(err).Str("booking_id", rb.AvitoBookingID).Msg("failed to look up prior booking")
			continue
		}

		booking := models.Booking{
			AvitoBookingID: rb.AvitoBookingID,
			ListingID:      listing.ID,
			ContactName:    rb.Contact.Name,
			ContactEmail:   rb.Contact.Email,
			ContactPhone:   rb.Contact.Phone,
			CheckIn:        checkIn,
			CheckOut:       checkOut,
			GuestCount:     rb.GuestCount,
			Nights:         rb.Nights,
			Status:         rb.Status,
			Source:         models.SourceAvito,
		}
		if rb.BasePrice != nil {
			booking.BasePrice = *rb.BasePrice
		}

		created, err := w.db.UpsertBooking(ctx, &booking)
		if err != nil {
			w.logger.Error().Err(err).Str("booking_id", rb.AvitoBookingID).Msg("failed to upsert booking")
			continue
		}

		payload := events.BookingEventPayload{
			AvitoBookingID: rb.AvitoBookingID,
			ListingID:      listing.ID,
			Status:         rb.Status,
		}
		switch {
		case created:
			if err := w.bus.Publish(events.EventBookingCreated, payload); err != nil {
				w.logger.Error().Err(err).Str("booking_id", rb.AvitoBookingID).Msg("booking created event handler failed")
			}
		case prior != nil && prior.Status != rb.Status:
			if err := w.bus.Publish(events.EventBookingStatusChanged, payload); err != nil {
				w.logger.Error().Err(err).Str("booking_id", rb.AvitoBookingID).Msg("status change event handler failed")
			}
		}
	}
	return nil
}

// sendCheckInReminders напоминает операторам о заселениях на завтра.
// Рассылка идёт не чаще раза в день независимо от интервала синхронизации.
func (w *SyncWorker) sendCheckInReminders(ctx context.Context) {
	tomorrow := time.Now().AddDate(0, 0, 1)
	day := tomorrow.Format(apiDateLayout)
	if w.lastReminderDate == day {
		return
	}

	bookings, err := w.db.GetUpcomingCheckIns(ctx, tomorrow)
	if err != nil {
		w.logger.Error().Err(err).Msg("failed to fetch upcoming check-ins")
		return
	}
	w.lastReminderDate = day

	for _, booking := range bookings {
		title := fmt.Sprintf("Объявление ID %d", booking.ListingID)
		if listing, err := w.db.GetListingByID(ctx, booking.ListingID); err == nil && listing != nil {
			if listing.Title != "" {
				title = listing.Title
			} else if listing.Address != "" {
				title = listing.Address
			}
		}

		guest := booking.ContactName
		if guest == "" {
			guest = "Не указано"
		}
		w.notifier.NotifyOperators(fmt.Sprintf(
			"⏰ Напоминание о заселении!\n🏡 Объявление: %s\n👤 Гость: %s\n📅 Дата: %s\n🆔 ID брони Avito: %s",
			title, guest, booking.CheckIn.Format("02-01-2006"), booking.AvitoBookingID))
	}
}
