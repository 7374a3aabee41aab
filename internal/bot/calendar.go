package bot

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/MishaNyaCopilot/MyAvitoHost/internal/avito"
)

// showCalendar строит и отправляет календарь бронирований объявления на
// ближайшие months месяцев. Возвращает false, если запрос бронирований не
// удался (сценарий завершается с сообщением об ошибке). Валидация months
// выполняется до вызова: сюда приходит уже проверенное значение.
func (b *Bot) showCalendar(ctx context.Context, chatID, itemID int64, months int) bool {
	dateStart := time.Now()
	dateEnd := dateStart.AddDate(0, months, 0)

	title := b.resolveListingTitle(ctx, itemID)

	bookings, err := b.avito.GetItemBookings(ctx, itemID,
		dateStart.Format(apiDateLayout), dateEnd.Format(apiDateLayout), true)
	if err != nil {
		b.logger.Error().Err(err).Int64("item_id", itemID).Msg("failed to fetch bookings for calendar")
		if b.metrics != nil {
			b.metrics.ErrorsTotal.Inc()
		}
		b.sendMessage(chatID, fmt.Sprintf("Произошла ошибка при получении бронирований для объявления '%s'. Попробуйте позже.", title))
		return false
	}

	b.sendMessage(chatID, renderCalendar(title, dateStart, dateEnd, bookings))
	return true
}

// resolveListingTitle название объявления: локальная база, затем API,
// затем синтетическое "Объявление ID <id>".
func (b *Bot) resolveListingTitle(ctx context.Context, itemID int64) string {
	fallback := fmt.Sprintf("Объявление ID %d", itemID)

	listing, err := b.db.GetListingByAvitoID(ctx, itemID)
	if err != nil {
		b.logger.Warn().Err(err).Int64("item_id", itemID).Msg("failed to fetch listing title from database")
	} else if listing != nil {
		if listing.Title != "" {
			return listing.Title
		}
		if listing.Address != "" {
			return listing.Address
		}
	}

	details, err := b.avito.GetItemDetails(ctx, itemID)
	if err != nil {
		b.logger.Warn().Err(err).Int64("item_id", itemID).Msg("failed to fetch listing details from api")
		return fallback
	}
	if details != nil {
		if details.Title != "" {
			return details.Title
		}
		if details.Address != "" {
			return details.Address
		}
	}
	return fallback
}

// renderCalendar текстовый календарь: один блок на бронирование. Битая
// запись (неразбираемые даты) даёт строку с ошибкой, не ломая остальные.
func renderCalendar(title string, dateStart, dateEnd time.Time, bookings []avito.Booking) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("🗓️ Календарь бронирований для '%s'\nПериод: %s - %s\n\n",
		title, dateStart.Format(userDateLayout), dateEnd.Format(userDateLayout)))

	if len(bookings) == 0 {
		sb.WriteString("Нет бронирований на указанный период.")
		return sb.String()
	}

	for _, booking := range bookings {
		block, ok := renderBookingBlock(booking)
		if !ok {
			id := booking.AvitoBookingID
			if id == "" {
				id = "N/A"
			}
			sb.WriteString(fmt.Sprintf(" - Ошибка при обработке данных бронирования ID %s\n", id))
			continue
		}
		sb.WriteString(block)
	}

	return sb.String()
}

func renderBookingBlock(booking avito.Booking) (string, bool) {
	checkIn, err := time.Parse(apiDateLayout, booking.CheckIn)
	if err != nil {
		return "", false
	}
	checkOut, err := time.Parse(apiDateLayout, booking.CheckOut)
	if err != nil {
		return "", false
	}

	guestName := booking.Contact.Name
	if guestName == "" {
		guestName = "Не указано"
	}
	status := booking.Status
	if status == "" {
		status = "Неизвестно"
	}
	price := "N/A"
	if booking.BasePrice != nil {
		price = fmt.Sprintf("%.2f руб.", *booking.BasePrice)
	}
	bookingID := booking.AvitoBookingID
	if bookingID == "" {
		bookingID = "N/A"
	}

	return fmt.Sprintf("Бронь ID: %s\n  Заезд: %s\n  Выезд: %s\n  Гость: %s\n  Статус: %s\n  Сумма: %s\n---\n",
		bookingID, checkIn.Format(userDateLayout), checkOut.Format(userDateLayout),
		guestName, status, price), true
}
