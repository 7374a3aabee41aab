package bot

import (
	"strconv"
	"strings"
	"time"
)

const (
	userDateLayout = "02-01-2006"
	apiDateLayout  = "2006-01-02"
)

// ParseStatus результат разбора пользовательского ввода. Ошибки валидации —
// ожидаемые исходы, а не исключения: ошибки Go остаются за транспортом.
type ParseStatus int

const (
	ParseOK ParseStatus = iota
	// ParseFormatError не две даты, либо дата не разбирается как ДД-ММ-ГГГГ.
	ParseFormatError
	// ParseRangeOrderError дата начала позже даты окончания (или период вне 1-12).
	ParseRangeOrderError
)

// ParseDateRange разбирает строку вида "ДД-ММ-ГГГГ ДД-ММ-ГГГГ" (точки тоже
// допустимы как разделитель) и возвращает обе даты в формате YYYY-MM-DD,
// который ожидает API Авито.
func ParseDateRange(text string) (dateFrom, dateTo string, status ParseStatus) {
	// Нормализуем точки в дефисы, чтобы разбирать единообразно
	parts := strings.Fields(strings.ReplaceAll(text, ".", "-"))
	if len(parts) != 2 {
		return "", "", ParseFormatError
	}

	from, err := time.Parse(userDateLayout, parts[0])
	if err != nil {
		return "", "", ParseFormatError
	}
	to, err := time.Parse(userDateLayout, parts[1])
	if err != nil {
		return "", "", ParseFormatError
	}

	if from.After(to) {
		return "", "", ParseRangeOrderError
	}

	return from.Format(apiDateLayout), to.Format(apiDateLayout), ParseOK
}

// ParseMonths разбирает длину периода календаря; допустимы значения 1-12.
func ParseMonths(text string) (int, ParseStatus) {
	n, err := strconv.Atoi(strings.TrimSpace(text))
	if err != nil {
		return 0, ParseFormatError
	}
	if n < 1 || n > 12 {
		return 0, ParseRangeOrderError
	}
	return n, ParseOK
}
