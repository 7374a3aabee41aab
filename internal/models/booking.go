package models

import "time"

// Источники бронирований. Ручные закрытия дат через бота помечаются
// SourceTelegramBot, чтобы отличать их от бронирований с площадки.
const (
	SourceAvito       = "avito"
	SourceManual      = "manual"
	SourcePMS         = "pms"
	SourceTelegramBot = "telegram_bot_conversation"
)

// Booking бронирование квартиры. Статус — непрозрачная строка площадки
// (active, pending, canceled и т.п.), бот её не валидирует.
type Booking struct {
	ID             int64     `json:"id"`
	AvitoBookingID string    `json:"avito_booking_id"`
	ListingID      int64     `json:"listing_id"`
	ContactName    string    `json:"contact_name"`
	ContactEmail   string    `json:"contact_email"`
	ContactPhone   string    `json:"contact_phone"`
	CheckIn        time.Time `json:"check_in_date"`
	CheckOut       time.Time `json:"check_out_date"`
	BasePrice      float64   `json:"base_price"`
	GuestCount     int       `json:"guest_count"`
	Nights         int       `json:"nights"`
	Status         string    `json:"status"`
	Source         string    `json:"source"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// Range диапазон дат бронирования (заезд/выезд).
func (b *Booking) Range() DateRange {
	return DateRange{Start: b.CheckIn, End: b.CheckOut}
}
