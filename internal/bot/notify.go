package bot

import (
	"fmt"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// NotifyOperators рассылает текст всем операторам по очереди. Неудачная
// доставка одному получателю логируется и не мешает остальным; повторов нет.
func (b *Bot) NotifyOperators(text string) {
	for _, chatID := range b.operators {
		msg := tgbotapi.NewMessage(chatID, text)
		if _, err := b.tg.Send(msg); err != nil {
			b.logger.Error().Err(err).Int64("chat_id", chatID).Msg("failed to deliver operator notification")
			if b.metrics != nil {
				b.metrics.NotificationsFailed.Inc()
			}
			continue
		}
		if b.metrics != nil {
			b.metrics.NotificationsSent.Inc()
		}
	}
}

// NewBookingMessage уведомление о новой брони с площадки.
func NewBookingMessage(adTitle, guestName, checkIn, checkOut string, totalPrice *float64, avitoBookingID string) string {
	if guestName == "" {
		guestName = "Не указано"
	}
	priceStr := "Не указана"
	if totalPrice != nil {
		priceStr = fmt.Sprintf("%.2f руб.", *totalPrice)
	}
	return fmt.Sprintf("🔔 Новое бронирование!\n🏡 Объявление: %s\n👤 Гость: %s\n📅 Заезд: %s\n📅 Выезд: %s\n💰 Сумма: %s\n🆔 ID брони Avito: %s",
		adTitle, guestName, checkIn, checkOut, priceStr, avitoBookingID)
}

// UpcomingCheckInMessage напоминание о предстоящем заселении.
func UpcomingCheckInMessage(adTitle, guestName string, checkIn time.Time, avitoBookingID string) string {
	if guestName == "" {
		guestName = "Не указано"
	}
	return fmt.Sprintf("⏰ Напоминание о заселении!\n🏡 Объявление: %s\n👤 Гость: %s\n📅 Дата: %s\n🆔 ID брони Avito: %s",
		adTitle, guestName, checkIn.Format(userDateLayout), avitoBookingID)
}

// CheckInIntentionMessage гость сообщил о намерении заселиться.
func CheckInIntentionMessage(address, checkInTime string) string {
	return fmt.Sprintf("Клиент по квартире %s хочет заселиться в %s.", address, checkInTime)
}

// StatusChangeMessage бронирование изменило статус.
func StatusChangeMessage(avitoBookingID, status string) string {
	return fmt.Sprintf("Бронирование %s изменило статус на: %s.", avitoBookingID, status)
}

// PromotionIssueMessage проблема с продвижением объявления.
func PromotionIssueMessage(adTitle, details string) string {
	return fmt.Sprintf("⚠️ Проблема с продвижением объявления '%s': %s", adTitle, details)
}

// LowBalanceMessage баланс кошелька Авито опустился ниже порога.
func LowBalanceMessage(balance float64) string {
	return fmt.Sprintf("💸 Внимание: баланс кошелька Авито %.2f руб. Пополните счет, чтобы продвижение не остановилось.", balance)
}

// handleTestNotify команда разработчика: прогоняет все шаблоны уведомлений.
func (b *Bot) handleTestNotify(msg *tgbotapi.Message) {
	if !b.isOperator(msg.From.ID) {
		return
	}

	b.sendMessage(msg.Chat.ID, fmt.Sprintf("Отправка тестовых уведомлений на ID: %v...", b.operators))

	price := 12500.00
	b.NotifyOperators(NewBookingMessage(
		"Тестовое объявление Приморский бульвар, 1",
		"Иван Петров", "01-08-2026", "05-08-2026", &price, "test_booking_123"))
	b.NotifyOperators(UpcomingCheckInMessage(
		"Тестовое объявление Морская, 10",
		"Анна Сидорова", time.Now().AddDate(0, 0, 1), "test_checkin_456"))
	b.NotifyOperators(CheckInIntentionMessage("Тестовый адрес пр. Мира, д. 1", "12:30"))
	b.NotifyOperators(StatusChangeMessage("test_booking_123", "активно"))
	b.NotifyOperators(PromotionIssueMessage("Тестовое объявление Морская, 10", "услуга продвижения истекла"))
	b.NotifyOperators(LowBalanceMessage(150.00))
	b.NotifyOperators("Тестовое подтверждение команды: Все прошло успешно!")

	b.sendMessage(msg.Chat.ID, "Тестовые уведомления отправлены.")
}
