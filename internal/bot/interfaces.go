package bot

import (
	"context"
	"time"

	"github.com/MishaNyaCopilot/MyAvitoHost/internal/avito"
	"github.com/MishaNyaCopilot/MyAvitoHost/internal/models"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Store локальная база объявлений и бронирований. Бот её только читает:
// записи создаёт внешний процесс синхронизации.
type Store interface {
	GetAllListings(ctx context.Context) ([]models.Listing, error)
	GetListingByAvitoID(ctx context.Context, avitoID int64) (*models.Listing, error)
	GetBookingsByDateRange(ctx context.Context, start, end time.Time) ([]models.Booking, error)
}

// Platform операции API Авито, которые использует бот. Площадка — источник
// истины по датам: бот не пишет бронирования в локальную базу.
type Platform interface {
	GetItemBookings(ctx context.Context, itemID int64, dateStart, dateEnd string, withUnpaid bool) ([]avito.Booking, error)
	CreateManualBooking(ctx context.Context, itemID int64, dateStart, dateEnd, comment, source string) error
	UpdateItemAvailability(ctx context.Context, itemID int64, dateStart, dateEnd string, open bool, source string) error
	GetItemDetails(ctx context.Context, itemID int64) (*avito.ItemDetails, error)
}

// TelegramSender отправка сообщений и запросов в Telegram.
type TelegramSender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}
