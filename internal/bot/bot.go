package bot

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/MishaNyaCopilot/MyAvitoHost/internal/config"
	"github.com/MishaNyaCopilot/MyAvitoHost/internal/events"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
)

const helpText = `Доступные команды:
/start - Запуск бота
/help - Показать это сообщение
/close_dates [ID объявления] - Закрыть даты для бронирования. Если ID не указан, будет предложен выбор.
/open_dates [ID объявления] - Открыть даты для бронирования. Если ID не указан, будет предложен выбор.
/calendar [ID объявления] - Просмотр календаря бронирований для объявления.
/export_bookings [ГГГГ-ММ-ДД ГГГГ-ММ-ДД] - Экспорт бронирований в Excel (для операторов).
/testnotify - Отправить тестовые уведомления (для разработчика)`

// Bot маршрутизатор диалогов владельца. Собирается один раз на старте со
// всеми зависимостями; глобального состояния нет.
type Bot struct {
	bot       *tgbotapi.BotAPI
	tg        TelegramSender
	config    *config.Config
	db        Store
	avito     Platform
	sessions  *SessionStore
	bus       *events.EventBus
	metrics   *Metrics
	logger    zerolog.Logger
	operators []int64
}

func NewBot(cfg *config.Config, db Store, platform Platform, bus *events.EventBus, metrics *Metrics, logger zerolog.Logger) (*Bot, error) {
	botAPI, err := tgbotapi.NewBotAPI(cfg.Telegram.BotToken)
	if err != nil {
		return nil, err
	}
	botAPI.Debug = cfg.Telegram.Debug

	return &Bot{
		bot:       botAPI,
		tg:        botAPI,
		config:    cfg,
		db:        db,
		avito:     platform,
		sessions:  NewSessionStore(),
		bus:       bus,
		metrics:   metrics,
		logger:    logger.With().Str("component", "bot").Logger(),
		operators: cfg.Operators,
	}, nil
}

// Start запускает long polling до отмены контекста.
func (b *Bot) Start(ctx context.Context) {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := b.bot.GetUpdatesChan(u)
	b.logger.Info().Str("username", b.bot.Self.UserName).Msg("authorized on account")

	for {
		select {
		case <-ctx.Done():
			b.bot.StopReceivingUpdates()
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			b.handleUpdate(ctx, update)
		}
	}
}

// handleUpdate обрабатывает одно обновление. Паника одного диалога не должна
// ронять процесс: логируем и извиняемся перед пользователем.
func (b *Bot) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error().Interface("panic", r).Msg("panic while handling update")
			if b.metrics != nil {
				b.metrics.ErrorsTotal.Inc()
			}
			if chatID := updateChatID(update); chatID != 0 {
				b.sendMessage(chatID, "Извините, произошла ошибка при обработке вашего запроса. Попробуйте еще раз.")
			}
		}
		if b.metrics != nil {
			b.metrics.UpdateProcessingTime.Observe(time.Since(start).Seconds())
		}
	}()

	switch {
	case update.CallbackQuery != nil:
		b.handleCallbackQuery(ctx, update)
	case update.Message != nil:
		b.handleMessage(ctx, update)
	}
}

func (b *Bot) handleMessage(ctx context.Context, update tgbotapi.Update) {
	msg := update.Message
	if b.metrics != nil {
		b.metrics.MessagesProcessed.Inc()
	}

	if msg.IsCommand() {
		b.handleCommand(ctx, msg)
		return
	}

	// Свободный текст осмыслен только внутри активного сценария
	session := b.sessions.Get(msg.From.ID)
	if session == nil {
		return
	}

	switch session.Step {
	case StepAwaitingDates:
		b.handleDatesInput(ctx, msg, session)
	case StepAwaitingPeriod:
		b.handlePeriodInput(ctx, msg, session)
	}
}

func (b *Bot) handleCommand(ctx context.Context, msg *tgbotapi.Message) {
	if b.metrics != nil {
		b.metrics.CommandsProcessed.WithLabelValues(msg.Command()).Inc()
	}

	switch msg.Command() {
	case "start":
		b.sendMessage(msg.Chat.ID, "Добро пожаловать! Я ваш АвитоХост Про ассистент. Используйте /help, чтобы увидеть доступные команды.")
	case "help":
		b.sendMessage(msg.Chat.ID, helpText)
	case "close_dates":
		b.startDatesFlow(ctx, msg, FlowCloseDates)
	case "open_dates":
		b.startDatesFlow(ctx, msg, FlowOpenDates)
	case "calendar":
		b.startCalendarFlow(ctx, msg)
	case "export_bookings":
		b.handleExportBookings(ctx, msg)
	case "testnotify":
		b.handleTestNotify(msg)
	}
}

func (b *Bot) handleCallbackQuery(ctx context.Context, update tgbotapi.Update) {
	callback := update.CallbackQuery
	data := callback.Data
	userID := callback.From.ID

	// Отвечаем на callback сразу, чтобы убрать "часики"
	callbackConfig := tgbotapi.NewCallback(callback.ID, "")
	_, _ = b.tg.Request(callbackConfig)

	switch {
	case strings.HasPrefix(data, "closedates_ad_"):
		b.handleListingChosen(callback, FlowCloseDates, strings.TrimPrefix(data, "closedates_ad_"))

	case strings.HasPrefix(data, "opendates_ad_"):
		b.handleListingChosen(callback, FlowOpenDates, strings.TrimPrefix(data, "opendates_ad_"))

	case strings.HasPrefix(data, "calendar_ad_"):
		b.handleListingChosen(callback, FlowCalendar, strings.TrimPrefix(data, "calendar_ad_"))

	case data == "cancel_ad_selection":
		flow := b.flowName(userID)
		b.sessions.Clear(userID)
		b.editMessage(callback, "Выбор объявления отменен.", nil)
		b.flowCompleted(flow, "canceled")

	case data == "cancel_date_input", data == "cancel_input":
		flow := b.flowName(userID)
		b.sessions.Clear(userID)
		b.editMessage(callback, "Ввод отменен.", nil)
		b.flowCompleted(flow, "canceled")
	}
}

// handleListingChosen переводит сценарий из выбора объявления к вводу данных.
func (b *Bot) handleListingChosen(callback *tgbotapi.CallbackQuery, flow Flow, rawID string) {
	listingID, err := strconv.ParseInt(rawID, 10, 64)
	if err != nil {
		b.logger.Warn().Str("data", callback.Data).Msg("malformed listing callback token")
		return
	}

	session := b.sessions.Get(callback.From.ID)
	if session == nil || session.Flow != flow {
		// Сессия потеряна (например, рестарт процесса) — просим начать заново
		b.editMessage(callback, "Сценарий устарел. Пожалуйста, начните сначала соответствующей командой.", nil)
		return
	}

	session.ListingID = listingID
	if flow == FlowCalendar {
		session.Step = StepAwaitingPeriod
		b.editMessage(callback, listingChosenPeriodPrompt(listingID), cancelKeyboard("cancel_input"))
	} else {
		session.Step = StepAwaitingDates
		b.editMessage(callback, listingChosenDatesPrompt(listingID, flow), cancelKeyboard("cancel_date_input"))
	}
	b.sessions.Set(callback.From.ID, session)
	b.logger.Info().Int64("user_id", callback.From.ID).Int64("listing_id", listingID).
		Str("flow", string(flow)).Msg("listing selected")
}

func (b *Bot) sendMessage(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := b.tg.Send(msg); err != nil {
		b.logger.Error().Err(err).Int64("chat_id", chatID).Msg("failed to send message")
	}
}

func (b *Bot) sendWithKeyboard(chatID int64, text string, keyboard *tgbotapi.InlineKeyboardMarkup) {
	msg := tgbotapi.NewMessage(chatID, text)
	if keyboard != nil {
		msg.ReplyMarkup = keyboard
	}
	if _, err := b.tg.Send(msg); err != nil {
		b.logger.Error().Err(err).Int64("chat_id", chatID).Msg("failed to send message with keyboard")
	}
}

// editMessage правит сообщение с меню на месте вместо отправки нового.
func (b *Bot) editMessage(callback *tgbotapi.CallbackQuery, text string, keyboard *tgbotapi.InlineKeyboardMarkup) {
	edit := tgbotapi.NewEditMessageText(callback.Message.Chat.ID, callback.Message.MessageID, text)
	if keyboard != nil {
		edit.ReplyMarkup = keyboard
	}
	if _, err := b.tg.Send(edit); err != nil {
		b.logger.Error().Err(err).Int64("chat_id", callback.Message.Chat.ID).Msg("failed to edit message")
	}
}

func (b *Bot) isOperator(userID int64) bool {
	for _, id := range b.operators {
		if id == userID {
			return true
		}
	}
	return false
}

func (b *Bot) flowCompleted(flow, outcome string) {
	if b.metrics != nil && flow != "" {
		b.metrics.FlowsCompleted.WithLabelValues(flow, outcome).Inc()
	}
}

// flowName имя сценария активной сессии пользователя (до её очистки).
func (b *Bot) flowName(userID int64) string {
	if s := b.sessions.Get(userID); s != nil {
		return string(s.Flow)
	}
	return ""
}

func updateChatID(update tgbotapi.Update) int64 {
	switch {
	case update.Message != nil:
		return update.Message.Chat.ID
	case update.CallbackQuery != nil && update.CallbackQuery.Message != nil:
		return update.CallbackQuery.Message.Chat.ID
	}
	return 0
}
