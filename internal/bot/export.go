package bot

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/xuri/excelize/v2"
)

// handleExportBookings экспорт бронирований в Excel для операторов.
// Без аргументов берётся ближайший месяц, иначе два аргумента ГГГГ-ММ-ДД.
func (b *Bot) handleExportBookings(ctx context.Context, msg *tgbotapi.Message) {
	if !b.isOperator(msg.From.ID) {
		return
	}

	startDate := time.Now()
	endDate := startDate.AddDate(0, 1, 0)

	args := strings.Fields(msg.CommandArguments())
	if len(args) == 2 {
		var err1, err2 error
		startDate, err1 = time.Parse(apiDateLayout, args[0])
		endDate, err2 = time.Parse(apiDateLayout, args[1])
		if err1 != nil || err2 != nil {
			b.sendMessage(msg.Chat.ID, "Неверный формат даты. Используйте: ГГГГ-ММ-ДД ГГГГ-ММ-ДД")
			return
		}
		if startDate.After(endDate) {
			b.sendMessage(msg.Chat.ID, "Начальная дата не может быть позже конечной")
			return
		}
	} else if len(args) != 0 {
		b.sendMessage(msg.Chat.ID,
			"Использование: /export_bookings ГГГГ-ММ-ДД ГГГГ-ММ-ДД\nПример: /export_bookings 2026-01-01 2026-01-31")
		return
	}

	filePath, err := b.exportToExcel(ctx, startDate, endDate)
	if err != nil {
		b.logger.Error().Err(err).Msg("failed to export bookings to excel")
		b.sendMessage(msg.Chat.ID, "Ошибка при создании файла экспорта")
		return
	}

	file, err := os.Open(filePath)
	if err != nil {
		b.logger.Error().Err(err).Str("path", filePath).Msg("failed to open export file")
		b.sendMessage(msg.Chat.ID, "Ошибка при открытии файла")
		return
	}
	defer file.Close()

	doc := tgbotapi.NewDocument(msg.Chat.ID, tgbotapi.FileReader{
		Name:   filepath.Base(filePath),
		Reader: file,
	})
	doc.Caption = fmt.Sprintf("📊 Экспорт бронирований с %s по %s",
		startDate.Format(userDateLayout), endDate.Format(userDateLayout))

	if _, err := b.tg.Send(doc); err != nil {
		b.logger.Error().Err(err).Msg("failed to send export document")
		b.sendMessage(msg.Chat.ID, "Ошибка при отправке файла")
		return
	}
}

// exportToExcel создает Excel файл с бронированиями за период.
func (b *Bot) exportToExcel(ctx context.Context, startDate, endDate time.Time) (string, error) {
	if err := os.MkdirAll(b.config.Exports.Path, 0o755); err != nil {
		return "", fmt.Errorf("create export directory: %w", err)
	}

	bookings, err := b.db.GetBookingsByDateRange(ctx, startDate, endDate)
	if err != nil {
		return "", fmt.Errorf("get bookings: %w", err)
	}

	f := excelize.NewFile()
	const sheet = "Бронирования"
	index, err := f.NewSheet(sheet)
	if err != nil {
		return "", fmt.Errorf("create sheet: %w", err)
	}
	f.SetActiveSheet(index)
	f.DeleteSheet("Sheet1")

	f.SetCellValue(sheet, "A1", fmt.Sprintf("Период: %s - %s",
		startDate.Format(userDateLayout), endDate.Format(userDateLayout)))

	headers := []string{"ID брони", "Объявление", "Гость", "Телефон", "Заезд", "Выезд", "Ночей", "Сумма", "Статус", "Источник"}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 2)
		f.SetCellValue(sheet, cell, h)
	}

	for row, booking := range bookings {
		values := []any{
			booking.AvitoBookingID,
			booking.ListingID,
			booking.ContactName,
			booking.ContactPhone,
			booking.CheckIn.Format(userDateLayout),
			booking.CheckOut.Format(userDateLayout),
			booking.Nights,
			booking.BasePrice,
			booking.Status,
			booking.Source,
		}
		for col, v := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row+3)
			f.SetCellValue(sheet, cell, v)
		}
	}

	filePath := filepath.Join(b.config.Exports.Path,
		fmt.Sprintf("bookings_%s_%s.xlsx", startDate.Format(apiDateLayout), endDate.Format(apiDateLayout)))
	if err := f.SaveAs(filePath); err != nil {
		return "", fmt.Errorf("save export file: %w", err)
	}
	return filePath, nil
}
