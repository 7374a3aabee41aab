package bot

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

func listingChosenDatesPrompt(listingID int64, flow Flow) string {
	action := "закрытия"
	example := "25-12-2025 28-12-2025"
	if flow == FlowOpenDates {
		action = "открытия"
		example = "01-01-2026 05-01-2026"
	}
	return fmt.Sprintf("Вы выбрали объявление ID: %d.\nТеперь введите даты для %s в формате: ДД-ММ-ГГГГ ДД-ММ-ГГГГ (например, %s).",
		listingID, action, example)
}

func listingChosenPeriodPrompt(listingID int64) string {
	return fmt.Sprintf("Вы выбрали объявление ID: %d.\nВведите количество месяцев, на которое отобразить календарь (1-12):", listingID)
}

func cancelKeyboard(token string) *tgbotapi.InlineKeyboardMarkup {
	keyboard := tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("Отмена", token),
		),
	)
	return &keyboard
}

// startDatesFlow точка входа сценариев закрытия и открытия дат.
// Новая команда безусловно перетирает незавершённую сессию пользователя.
func (b *Bot) startDatesFlow(ctx context.Context, msg *tgbotapi.Message, flow Flow) {
	userID := msg.From.ID
	if b.sessions.Get(userID) != nil {
		b.logger.Info().Int64("user_id", userID).Msg("clearing stale session on flow restart")
	}
	b.sessions.Clear(userID)

	command := "/close_dates"
	if flow == FlowOpenDates {
		command = "/open_dates"
	}

	args := strings.TrimSpace(msg.CommandArguments())
	if args != "" {
		listingID, err := strconv.ParseInt(strings.Fields(args)[0], 10, 64)
		if err != nil {
			b.sendMessage(msg.Chat.ID, "Неверный ID объявления. Пожалуйста, введите числовой ID.")
			return
		}
		b.sessions.Set(userID, &Session{
			Flow:      flow,
			Step:      StepAwaitingDates,
			ListingID: listingID,
			ChatID:    msg.Chat.ID,
		})
		b.sendWithKeyboard(msg.Chat.ID, listingChosenDatesPrompt(listingID, flow), cancelKeyboard("cancel_date_input"))
		return
	}

	keyboard := b.listingsKeyboard(ctx, callbackPrefix(flow))
	if keyboard == nil {
		b.sendMessage(msg.Chat.ID,
			fmt.Sprintf("Не удалось получить список ваших объявлений. Попробуйте указать ID объявления напрямую: %s <ID объявления>", command))
		return
	}

	b.sessions.Set(userID, &Session{Flow: flow, Step: StepSelectingListing, ChatID: msg.Chat.ID})
	prompt := "Выберите объявление для закрытия дат:"
	if flow == FlowOpenDates {
		prompt = "Выберите объявление для открытия дат:"
	}
	b.sendWithKeyboard(msg.Chat.ID, prompt, keyboard)
}

// startCalendarFlow точка входа сценария просмотра календаря.
func (b *Bot) startCalendarFlow(ctx context.Context, msg *tgbotapi.Message) {
	userID := msg.From.ID
	if b.sessions.Get(userID) != nil {
		b.logger.Info().Int64("user_id", userID).Msg("clearing stale session on flow restart")
	}
	b.sessions.Clear(userID)

	args := strings.TrimSpace(msg.CommandArguments())
	if args != "" {
		listingID, err := strconv.ParseInt(strings.Fields(args)[0], 10, 64)
		if err != nil {
			b.sendMessage(msg.Chat.ID, "Неверный ID объявления. Пожалуйста, введите числовой ID.")
			return
		}
		b.sessions.Set(userID, &Session{
			Flow:      FlowCalendar,
			Step:      StepAwaitingPeriod,
			ListingID: listingID,
			ChatID:    msg.Chat.ID,
		})
		b.sendWithKeyboard(msg.Chat.ID, listingChosenPeriodPrompt(listingID), cancelKeyboard("cancel_input"))
		return
	}

	keyboard := b.listingsKeyboard(ctx, "calendar_ad")
	if keyboard == nil {
		b.sendMessage(msg.Chat.ID, "Не удалось получить список ваших объявлений. У вас есть активные объявления?")
		return
	}

	b.sessions.Set(userID, &Session{Flow: FlowCalendar, Step: StepSelectingListing, ChatID: msg.Chat.ID})
	b.sendWithKeyboard(msg.Chat.ID, "Выберите объявление для просмотра календаря:", keyboard)
}

// handleDatesInput обрабатывает ввод диапазона дат в сценариях закрытия и
// открытия. Ошибка валидации оставляет пользователя на том же шаге.
func (b *Bot) handleDatesInput(ctx context.Context, msg *tgbotapi.Message, session *Session) {
	userID := msg.From.ID

	if session.ListingID == 0 {
		command := "/close_dates"
		if session.Flow == FlowOpenDates {
			command = "/open_dates"
		}
		b.sessions.Clear(userID)
		b.sendMessage(msg.Chat.ID, fmt.Sprintf("ID объявления не найден. Пожалуйста, начните сначала с %s.", command))
		b.flowCompleted(string(session.Flow), "session_lost")
		return
	}

	dateFrom, dateTo, status := ParseDateRange(msg.Text)
	switch status {
	case ParseFormatError:
		b.sendMessage(msg.Chat.ID, "Пожалуйста, введите две даты (начало и конец) в формате ДД-ММ-ГГГГ ДД-ММ-ГГГГ. Попробуйте еще раз.")
		return
	case ParseRangeOrderError:
		b.sendMessage(msg.Chat.ID, "Дата начала не может быть позже даты окончания. Попробуйте еще раз.")
		return
	}

	action := actionClose
	verb := "закрыты"
	if session.Flow == FlowOpenDates {
		action = actionOpen
		verb = "открыты"
	}

	success := b.manageDates(ctx, msg.Chat.ID, session.ListingID, dateFrom, dateTo, action)
	if success {
		confirmation := fmt.Sprintf("Даты с %s по %s для объявления %d успешно %s.", dateFrom, dateTo, session.ListingID, verb)
		b.sendMessage(msg.Chat.ID, confirmation)
		b.NotifyOperators(confirmation)
		b.flowCompleted(string(session.Flow), "success")
	} else {
		failText := "Не удалось закрыть даты. Попробуйте позже или свяжитесь с поддержкой."
		if session.Flow == FlowOpenDates {
			failText = "Не удалось открыть даты. Попробуйте позже или свяжитесь с поддержкой."
		}
		b.sendMessage(msg.Chat.ID, failText)
		b.flowCompleted(string(session.Flow), "failure")
	}

	b.sessions.Clear(userID)
}

// handlePeriodInput обрабатывает ввод длины периода в сценарии календаря.
func (b *Bot) handlePeriodInput(ctx context.Context, msg *tgbotapi.Message, session *Session) {
	userID := msg.From.ID

	if session.ListingID == 0 {
		b.sessions.Clear(userID)
		b.sendMessage(msg.Chat.ID, "ID объявления не найден. Пожалуйста, начните сначала с /calendar.")
		b.flowCompleted(string(FlowCalendar), "session_lost")
		return
	}

	months, status := ParseMonths(msg.Text)
	if status != ParseOK {
		b.sendMessage(msg.Chat.ID, "Пожалуйста, введите число от 1 до 12. Попробуйте еще раз.")
		return
	}

	if b.showCalendar(ctx, msg.Chat.ID, session.ListingID, months) {
		// Операторам уходит факт запроса, а не сам календарь
		b.NotifyOperators(fmt.Sprintf("Пользователь %d запросил календарь для объявления %d на %d мес.",
			userID, session.ListingID, months))
		b.flowCompleted(string(FlowCalendar), "success")
	} else {
		b.flowCompleted(string(FlowCalendar), "failure")
	}
	b.sessions.Clear(userID)
}

func callbackPrefix(flow Flow) string {
	switch flow {
	case FlowCloseDates:
		return "closedates_ad"
	case FlowOpenDates:
		return "opendates_ad"
	default:
		return "calendar_ad"
	}
}
