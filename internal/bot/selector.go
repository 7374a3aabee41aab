package bot

import (
	"context"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// listingsKeyboard собирает inline-клавиатуру выбора объявления. Подпись
// кнопки: адрес, иначе заголовок, иначе синтетическая "Объявление ID <id>".
// Возвращает nil, если выбирать нечего (база недоступна, пуста, либо у всех
// объявлений отсутствует ID площадки) — вызывающий просит ввести ID напрямую.
func (b *Bot) listingsKeyboard(ctx context.Context, actionPrefix string) *tgbotapi.InlineKeyboardMarkup {
	listings, err := b.db.GetAllListings(ctx)
	if err != nil {
		b.logger.Error().Err(err).Msg("failed to fetch listings for keyboard")
		return nil
	}
	if len(listings) == 0 {
		b.logger.Info().Msg("no listings in database for keyboard construction")
		return nil
	}

	var rows [][]tgbotapi.InlineKeyboardButton
	for _, listing := range listings {
		if listing.AvitoID == 0 {
			b.logger.Warn().Int64("db_id", listing.ID).Msg("listing without avito ID, skipping")
			continue
		}

		label := listing.Address
		if label == "" {
			label = listing.Title
		}
		if label == "" {
			label = fmt.Sprintf("Объявление ID %d", listing.AvitoID)
		}

		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(label, fmt.Sprintf("%s_%d", actionPrefix, listing.AvitoID)),
		))
	}

	if len(rows) == 0 {
		b.logger.Info().Msg("keyboard is empty after filtering listings")
		return nil
	}

	rows = append(rows, tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData("Отмена", "cancel_ad_selection"),
	))

	keyboard := tgbotapi.NewInlineKeyboardMarkup(rows...)
	return &keyboard
}
