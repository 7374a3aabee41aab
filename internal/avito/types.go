package avito

// Contact контактные данные гостя в бронировании.
type Contact struct {
	Name  string `json:"name"`
	Email string `json:"email,omitempty"`
	Phone string `json:"phone,omitempty"`
}

// Booking бронирование, как его отдаёт API Авито. Даты — строки YYYY-MM-DD,
// статус — непрозрачная строка (active, pending, canceled и т.п.).
type Booking struct {
	AvitoBookingID string   `json:"avito_booking_id"`
	CheckIn        string   `json:"check_in"`
	CheckOut       string   `json:"check_out"`
	Status         string   `json:"status"`
	BasePrice      *float64 `json:"base_price,omitempty"`
	GuestCount     int      `json:"guest_count,omitempty"`
	Nights         int      `json:"nights,omitempty"`
	Contact        Contact  `json:"contact"`
}

// ItemDetails детали объявления из API.
type ItemDetails struct {
	ID      int64  `json:"id"`
	Title   string `json:"title"`
	Address string `json:"address"`
	Status  string `json:"status,omitempty"`
}

// Item краткая запись объявления из списка объявлений аккаунта.
type Item struct {
	ID      int64  `json:"id"`
	Title   string `json:"title"`
	Address string `json:"address,omitempty"`
	Status  string `json:"status,omitempty"`
}

// bookingEntry элемент payload для закрытия дат ручной бронью.
type bookingEntry struct {
	DateStart string `json:"date_start"`
	DateEnd   string `json:"date_end"`
	Type      string `json:"type"`
	Comment   string `json:"comment"`
}

type bookingsPayload struct {
	Bookings []bookingEntry `json:"bookings"`
	Source   string         `json:"source"`
}

// intervalEntry элемент payload для обновления интервалов доступности.
type intervalEntry struct {
	DateStart string `json:"date_start"`
	DateEnd   string `json:"date_end"`
	Open      int    `json:"open"`
}

type availabilityPayload struct {
	ItemID    int64           `json:"item_id"`
	Intervals []intervalEntry `json:"intervals"`
	Source    string          `json:"source"`
}
