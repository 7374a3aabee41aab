package bot

import (
	"errors"
	"strings"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// flakySender роняет доставку в указанные чаты.
type flakySender struct {
	fakeSender
	failFor map[int64]bool
}

func (s *flakySender) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	if m, ok := c.(tgbotapi.MessageConfig); ok && s.failFor[m.ChatID] {
		return tgbotapi.Message{}, errors.New("forbidden: bot was blocked by the user")
	}
	return s.fakeSender.Send(c)
}

func TestNotifyOperators(t *testing.T) {
	t.Run("fan-out to all operators", func(t *testing.T) {
		sender := &fakeSender{}
		b := newTestBot(&fakeStore{}, &fakePlatform{}, sender, 111, 222, 333)

		b.NotifyOperators("тест")

		for _, id := range []int64{111, 222, 333} {
			if !sender.contains(id, "тест") {
				t.Errorf("operator %d did not receive the notification", id)
			}
		}
	})

	t.Run("one failed delivery does not stop the rest", func(t *testing.T) {
		sender := &flakySender{failFor: map[int64]bool{222: true}}
		b := newTestBot(&fakeStore{}, &fakePlatform{}, sender, 111, 222, 333)

		b.NotifyOperators("тест")

		if !sender.contains(111, "тест") || !sender.contains(333, "тест") {
			t.Errorf("healthy operators skipped: %+v", sender.sent)
		}
		if sender.contains(222, "тест") {
			t.Error("failed delivery recorded as sent")
		}
	})

	t.Run("no operators is a no-op", func(t *testing.T) {
		sender := &fakeSender{}
		b := newTestBot(&fakeStore{}, &fakePlatform{}, sender)
		b.NotifyOperators("тест")
		if len(sender.sent) != 0 {
			t.Errorf("sent = %+v", sender.sent)
		}
	})
}

func TestNotificationTemplates(t *testing.T) {
	t.Run("new booking with price", func(t *testing.T) {
		price := 12500.0
		msg := NewBookingMessage("Морская, 10", "Иван", "10-01-2026", "15-01-2026", &price, "bk-1")
		for _, want := range []string{"Новое бронирование", "Морская, 10", "Иван", "10-01-2026", "12500.00 руб.", "bk-1"} {
			if !strings.Contains(msg, want) {
				t.Errorf("message missing %q:\n%s", want, msg)
			}
		}
	})

	t.Run("new booking placeholders", func(t *testing.T) {
		msg := NewBookingMessage("Т", "", "10-01-2026", "15-01-2026", nil, "bk-1")
		if !strings.Contains(msg, "Гость: Не указано") || !strings.Contains(msg, "Сумма: Не указана") {
			t.Errorf("placeholders missing:\n%s", msg)
		}
	})

	t.Run("upcoming check-in", func(t *testing.T) {
		checkIn := time.Date(2026, 1, 10, 0, 0, 0, 0, time.UTC)
		msg := UpcomingCheckInMessage("Морская, 10", "Иван", checkIn, "bk-1")
		if !strings.Contains(msg, "Напоминание о заселении") || !strings.Contains(msg, "10-01-2026") {
			t.Errorf("message = %q", msg)
		}
	})

	t.Run("status change", func(t *testing.T) {
		msg := StatusChangeMessage("bk-1", "canceled")
		if !strings.Contains(msg, "bk-1") || !strings.Contains(msg, "canceled") {
			t.Errorf("message = %q", msg)
		}
	})

	t.Run("check-in intention", func(t *testing.T) {
		msg := CheckInIntentionMessage("Морская, 10", "12:30")
		if !strings.Contains(msg, "Морская, 10") || !strings.Contains(msg, "12:30") {
			t.Errorf("message = %q", msg)
		}
	})
}
