package models

import "time"

// Listing описание объявления Авито (квартиры), синхронизированное в локальную базу.
// Создаётся и обновляется внешним процессом синхронизации; бот его только читает.
type Listing struct {
	ID            int64      `json:"id"`
	AvitoID       int64      `json:"avito_id"`
	Title         string     `json:"title"`
	Address       string     `json:"address"`
	Price         float64    `json:"price"`
	Metadata      string     `json:"metadata,omitempty"`
	LastFetchedAt *time.Time `json:"last_fetched_at,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// DateRange диапазон календарных дат, start <= end. Время суток не учитывается.
type DateRange struct {
	Start time.Time
	End   time.Time
}

// Overlaps true, если диапазоны пересекаются хотя бы одним днём.
func (r DateRange) Overlaps(other DateRange) bool {
	return !r.Start.After(other.End) && !other.Start.After(r.End)
}

// Contains true, если дата попадает в диапазон включительно.
func (r DateRange) Contains(d time.Time) bool {
	return !d.Before(r.Start) && !d.After(r.End)
}

// Days количество дней в диапазоне включительно.
func (r DateRange) Days() int {
	return int(r.End.Sub(r.Start).Hours()/24) + 1
}
