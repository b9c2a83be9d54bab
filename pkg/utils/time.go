package utils

import (
	"time"
)

// time.go - утилиты для работы со временем
//
// Все границы считаются в UTC: дневной лимит просадки
// сбрасывается в 00:00 UTC независимо от зоны сервера.

// ============================================================
// Границы дня
// ============================================================

// GetDayStartFrom возвращает начало дня для указанного времени в UTC
func GetDayStartFrom(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// GetDayEndFrom возвращает конец дня (23:59:59.999999999) для указанного времени
func GetDayEndFrom(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 23, 59, 59, 999999999, time.UTC)
}

// ============================================================
// Диапазоны
// ============================================================

// TimeRange представляет временной диапазон
type TimeRange struct {
	Start time.Time
	End   time.Time
}

// Contains проверяет, попадает ли время в диапазон
func (tr TimeRange) Contains(t time.Time) bool {
	return !t.Before(tr.Start) && !t.After(tr.End)
}

// Duration возвращает продолжительность диапазона
func (tr TimeRange) Duration() time.Duration {
	return tr.End.Sub(tr.Start)
}

// LastNDays возвращает диапазон последних n дней, включая день now
func LastNDays(now time.Time, n int) TimeRange {
	if n <= 0 {
		n = 1
	}
	return TimeRange{
		Start: GetDayStartFrom(now.AddDate(0, 0, -(n - 1))),
		End:   GetDayEndFrom(now),
	}
}

// Cutoff возвращает момент now-age; записи старше него считаются устаревшими
func Cutoff(now time.Time, age time.Duration) time.Time {
	return now.UTC().Add(-age)
}

// ============================================================
// Форматирование
// ============================================================

// FormatDuration форматирует продолжительность с точностью до секунды
//
// Примеры:
//   - "45s"
//   - "5m30s"
//   - "72h0m0s"
func FormatDuration(d time.Duration) string {
	if d < 0 {
		d = -d
	}
	return d.Truncate(time.Second).String()
}
