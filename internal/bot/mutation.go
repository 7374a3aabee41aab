package bot

import (
	"context"
	"fmt"

	"github.com/MishaNyaCopilot/MyAvitoHost/internal/models"
)

const (
	actionClose = "close"
	actionOpen  = "open"

	manualCloseComment = "Закрыто через Telegram-бот"
)

// manageDates закрывает или открывает диапазон дат объявления на площадке.
// Закрытие — ручная бронь, открытие — обновление интервалов доступности.
// Вызовы блокирующие: ответа площадки дожидаемся всегда. Повторное закрытие
// пересекающихся дат может создать дубль ручной брони — это поведение
// площадки, бот его не скрывает. Локальная база здесь не пишется: источником
// истины остаётся площадка, локальное состояние догонит синхронизация.
// При ошибке сообщает пользователю и возвращает false, не роняя сценарий.
func (b *Bot) manageDates(ctx context.Context, chatID, itemID int64, dateFrom, dateTo, action string) bool {
	var err error
	switch action {
	case actionClose:
		err = b.avito.CreateManualBooking(ctx, itemID, dateFrom, dateTo, manualCloseComment, models.SourceTelegramBot)
	case actionOpen:
		err = b.avito.UpdateItemAvailability(ctx, itemID, dateFrom, dateTo, true, models.SourceTelegramBot)
	default:
		b.logger.Error().Str("action", action).Msg("invalid action for manageDates")
		return false
	}

	if err != nil {
		b.logger.Error().Err(err).Int64("item_id", itemID).Str("action", action).Msg("date management request failed")
		if b.metrics != nil {
			b.metrics.ErrorsTotal.Inc()
		}
		b.sendMessage(chatID, fmt.Sprintf("Произошла ошибка при попытке изменить даты для объявления %d. Попробуйте позже.", itemID))
		return false
	}

	return true
}
