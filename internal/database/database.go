package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/MishaNyaCopilot/MyAvitoHost/internal/models"
	_ "modernc.org/sqlite"
)

// Даты храним текстом YYYY-MM-DD: сравнение строк совпадает с хронологией,
// а поведение не зависит от того, как драйвер сериализует time.Time.
const dateLayout = "2006-01-02"

const schema = `
CREATE TABLE IF NOT EXISTS ad_descriptions (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	ad_id_avito INTEGER NOT NULL UNIQUE,
	title TEXT,
	address TEXT,
	price REAL,
	ad_metadata_json TEXT,
	last_fetched_at TIMESTAMP,
	created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
	updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS bookings (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	avito_booking_id TEXT NOT NULL UNIQUE,
	ad_id INTEGER NOT NULL REFERENCES ad_descriptions(id),
	contact_name TEXT,
	contact_email TEXT,
	contact_phone TEXT,
	check_in_date TEXT NOT NULL,
	check_out_date TEXT NOT NULL,
	base_price REAL,
	guest_count INTEGER,
	nights INTEGER,
	status TEXT,
	source TEXT NOT NULL DEFAULT 'avito',
	created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
	updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_bookings_ad_dates ON bookings(ad_id, check_in_date, check_out_date);
`

// DB обёртка над sqlite с запросами по объявлениям и бронированиям.
type DB struct {
	conn *sql.DB
}

func NewDB(path string) (*DB, error) {
	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// sqlite не любит конкурентные записи из нескольких соединений
	conn.SetMaxOpenConns(1)

	if _, err := conn.Exec(schema); err != nil {
		conn.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}
	return &DB{conn: conn}, nil
}

func (db *DB) Close() error {
	return db.conn.Close()
}

// GetAllListings все объявления из локальной базы.
func (db *DB) GetAllListings(ctx context.Context) ([]models.Listing, error) {
	rows, err := db.conn.QueryContext(ctx, `
		SELECT id, ad_id_avito, COALESCE(title, ''), COALESCE(address, ''), COALESCE(price, 0),
		       created_at, updated_at
		FROM ad_descriptions ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("query listings: %w", err)
	}
	defer rows.Close()

	var listings []models.Listing
	for rows.Next() {
		l, err := scanListing(rows)
		if err != nil {
			return nil, err
		}
		listings = append(listings, l)
	}
	return listings, rows.Err()
}

// GetListingByAvitoID объявление по ID площадки; nil, если не найдено.
func (db *DB) GetListingByAvitoID(ctx context.Context, avitoID int64) (*models.Listing, error) {
	return db.getListing(ctx, `
		SELECT id, ad_id_avito, COALESCE(title, ''), COALESCE(address, ''), COALESCE(price, 0),
		       created_at, updated_at
		FROM ad_descriptions WHERE ad_id_avito = ?`, avitoID)
}

// GetListingByID объявление по внутреннему ID; nil, если не найдено.
func (db *DB) GetListingByID(ctx context.Context, id int64) (*models.Listing, error) {
	return db.getListing(ctx, `
		SELECT id, ad_id_avito, COALESCE(title, ''), COALESCE(address, ''), COALESCE(price, 0),
		       created_at, updated_at
		FROM ad_descriptions WHERE id = ?`, id)
}

func (db *DB) getListing(ctx context.Context, query string, arg any) (*models.Listing, error) {
	row := db.conn.QueryRowContext(ctx, query, arg)
	l, err := scanListing(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &l, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanListing(row rowScanner) (models.Listing, error) {
	var l models.Listing
	var createdAt, updatedAt string
	if err := row.Scan(&l.ID, &l.AvitoID, &l.Title, &l.Address, &l.Price, &createdAt, &updatedAt); err != nil {
		return l, fmt.Errorf("scan listing: %w", err)
	}
	l.CreatedAt = parseTimestamp(createdAt)
	l.UpdatedAt = parseTimestamp(updatedAt)
	return l, nil
}

// UpsertListing создаёт или обновляет объявление по ad_id_avito.
func (db *DB) UpsertListing(ctx context.Context, l *models.Listing) error {
	_, err := db.conn.ExecContext(ctx, `
		INSERT INTO ad_descriptions (ad_id_avito, title, address, price, last_fetched_at)
		VALUES (?, ?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(ad_id_avito) DO UPDATE SET
			title = excluded.title,
			address = excluded.address,
			price = excluded.price,
			last_fetched_at = CURRENT_TIMESTAMP,
			updated_at = CURRENT_TIMESTAMP`,
		l.AvitoID, l.Title, l.Address, l.Price)
	if err != nil {
		return fmt.Errorf("upsert listing %d: %w", l.AvitoID, err)
	}
	return nil
}

// GetBookingByAvitoID бронирование по ID площадки; nil, если не найдено.
func (db *DB) GetBookingByAvitoID(ctx context.Context, avitoBookingID string) (*models.Booking, error) {
	row := db.conn.QueryRowContext(ctx, `
		SELECT id, avito_booking_id, ad_id, COALESCE(contact_name, ''), COALESCE(contact_email, ''),
		       COALESCE(contact_phone, ''), check_in_date, check_out_date, COALESCE(base_price, 0),
		       COALESCE(guest_count, 0), COALESCE(nights, 0), COALESCE(status, ''), source,
		       created_at, updated_at
		FROM bookings WHERE avito_booking_id = ?`, avitoBookingID)
	b, err := scanBooking(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query booking %s: %w", avitoBookingID, err)
	}
	return &b, nil
}

// UpsertBooking сохраняет бронирование. Возвращает true, если запись создана,
// а не обновлена — воркер по этому признаку публикует событие о новой брони.
func (db *DB) UpsertBooking(ctx context.Context, b *models.Booking) (bool, error) {
	existing, err := db.GetBookingByAvitoID(ctx, b.AvitoBookingID)
	if err != nil {
		return false, err
	}

	if existing == nil {
		_, err := db.conn.ExecContext(ctx, `
			INSERT INTO bookings (avito_booking_id, ad_id, contact_name, contact_email, contact_phone,
				check_in_date, check_out_date, base_price, guest_count, nights, status, source)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			b.AvitoBookingID, b.ListingID, b.ContactName, b.ContactEmail, b.ContactPhone,
			b.CheckIn.Format(dateLayout), b.CheckOut.Format(dateLayout),
			b.BasePrice, b.GuestCount, b.Nights, b.Status, b.Source)
		if err != nil {
			return false, fmt.Errorf("insert booking %s: %w", b.AvitoBookingID, err)
		}
		return true, nil
	}

	_, err = db.conn.ExecContext(ctx, `
		UPDATE bookings SET contact_name = ?, contact_email = ?, contact_phone = ?,
			check_in_date = ?, check_out_date = ?, base_price = ?, guest_count = ?,
			nights = ?, status = ?, updated_at = CURRENT_TIMESTAMP
		WHERE avito_booking_id = ?`,
		b.ContactName, b.ContactEmail, b.ContactPhone,
		b.CheckIn.Format(dateLayout), b.CheckOut.Format(dateLayout),
		b.BasePrice, b.GuestCount, b.Nights, b.Status, b.AvitoBookingID)
	if err != nil {
		return false, fmt.Errorf("update booking %s: %w", b.AvitoBookingID, err)
	}
	return false, nil
}

// UpdateBookingStatus обновляет статус бронирования по ID площадки.
func (db *DB) UpdateBookingStatus(ctx context.Context, avitoBookingID, status string) error {
	res, err := db.conn.ExecContext(ctx, `
		UPDATE bookings SET status = ?, updated_at = CURRENT_TIMESTAMP WHERE avito_booking_id = ?`,
		status, avitoBookingID)
	if err != nil {
		return fmt.Errorf("update booking status %s: %w", avitoBookingID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("booking %s not found", avitoBookingID)
	}
	return nil
}

// GetBookingsForListing бронирования объявления, пересекающиеся с диапазоном дат.
func (db *DB) GetBookingsForListing(ctx context.Context, listingID int64, window models.DateRange) ([]models.Booking, error) {
	return db.queryBookings(ctx, `
		SELECT id, avito_booking_id, ad_id, COALESCE(contact_name, ''), COALESCE(contact_email, ''),
		       COALESCE(contact_phone, ''), check_in_date, check_out_date, COALESCE(base_price, 0),
		       COALESCE(guest_count, 0), COALESCE(nights, 0), COALESCE(status, ''), source,
		       created_at, updated_at
		FROM bookings
		WHERE ad_id = ? AND check_in_date <= ? AND check_out_date >= ?
		ORDER BY check_in_date`,
		listingID, window.End.Format(dateLayout), window.Start.Format(dateLayout))
}

// GetBookingsByDateRange все бронирования с заездом в диапазоне (для экспорта).
func (db *DB) GetBookingsByDateRange(ctx context.Context, start, end time.Time) ([]models.Booking, error) {
	return db.queryBookings(ctx, `
		SELECT id, avito_booking_id, ad_id, COALESCE(contact_name, ''), COALESCE(contact_email, ''),
		       COALESCE(contact_phone, ''), check_in_date, check_out_date, COALESCE(base_price, 0),
		       COALESCE(guest_count, 0), COALESCE(nights, 0), COALESCE(status, ''), source,
		       created_at, updated_at
		FROM bookings
		WHERE check_in_date >= ? AND check_in_date <= ?
		ORDER BY check_in_date`,
		start.Format(dateLayout), end.Format(dateLayout))
}

// GetUpcomingCheckIns активные бронирования с заездом в указанную дату.
func (db *DB) GetUpcomingCheckIns(ctx context.Context, date time.Time) ([]models.Booking, error) {
	return db.queryBookings(ctx, `
		SELECT id, avito_booking_id, ad_id, COALESCE(contact_name, ''), COALESCE(contact_email, ''),
		       COALESCE(contact_phone, ''), check_in_date, check_out_date, COALESCE(base_price, 0),
		       COALESCE(guest_count, 0), COALESCE(nights, 0), COALESCE(status, ''), source,
		       created_at, updated_at
		FROM bookings
		WHERE check_in_date = ? AND status != 'canceled'
		ORDER BY check_in_date`,
		date.Format(dateLayout))
}

func (db *DB) queryBookings(ctx context.Context, query string, args ...any) ([]models.Booking, error) {
	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query bookings: %w", err)
	}
	defer rows.Close()

	var bookings []models.Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		bookings = append(bookings, b)
	}
	return bookings, rows.Err()
}

func scanBooking(row rowScanner) (models.Booking, error) {
	var b models.Booking
	var checkIn, checkOut, createdAt, updatedAt string
	err := row.Scan(&b.ID, &b.AvitoBookingID, &b.ListingID, &b.ContactName, &b.ContactEmail,
		&b.ContactPhone, &checkIn, &checkOut, &b.BasePrice,
		&b.GuestCount, &b.Nights, &b.Status, &b.Source, &createdAt, &updatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return b, err
		}
		return b, fmt.Errorf("scan booking: %w", err)
	}
	b.CheckIn, _ = time.Parse(dateLayout, checkIn)
	b.CheckOut, _ = time.Parse(dateLayout, checkOut)
	b.CreatedAt = parseTimestamp(createdAt)
	b.UpdatedAt = parseTimestamp(updatedAt)
	return b, nil
}

// parseTimestamp разбирает CURRENT_TIMESTAMP sqlite ("2006-01-02 15:04:05").
func parseTimestamp(s string) time.Time {
	for _, layout := range []string{"2006-01-02 15:04:05", time.RFC3339, dateLayout} {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
