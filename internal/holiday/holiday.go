package holiday

import (
	"math"
	"time"
)

// Фиксированные праздники (месяц, день), повторяются каждый год.
var fixedHolidays = [][2]int{
	{1, 1},
	{2, 11},
	{2, 23},
	{4, 29},
	{5, 3},
	{5, 4},
	{5, 5},
	{8, 11},
	{11, 3},
	{11, 23},
}

// Праздники вида "n-й понедельник месяца".
var mondayHolidays = []struct {
	month time.Month
	nth   int
}{
	{time.January, 2},
	{time.July, 3},
	{time.September, 3},
	{time.October, 2},
}

// IsHoliday сообщает, является ли дата t государственным праздником.
// Учитывается только календарная дата; время и часовой пояс не важны.
// Переносы выходных не поддерживаются.
func IsHoliday(t time.Time) bool {
	y, m, d := t.Date()

	for _, h := range fixedHolidays {
		if int(m) == h[0] && d == h[1] {
			return true
		}
	}

	for _, h := range mondayHolidays {
		if m == h.month && d == nthMonday(y, h.month, h.nth) {
			return true
		}
	}

	if m == time.March && d == VernalEquinoxDay(y) {
		return true
	}
	if m == time.September && d == AutumnalEquinoxDay(y) {
		return true
	}

	return false
}

// Holidays возвращает все праздники года в порядке возрастания.
func Holidays(year int) []time.Time {
	var out []time.Time
	for d := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC); d.Year() == year; d = d.AddDate(0, 0, 1) {
		if IsHoliday(d) {
			out = append(out, d)
		}
	}
	return out
}

// nthMonday возвращает число месяца, на которое выпадает n-й понедельник.
func nthMonday(year int, month time.Month, n int) int {
	first := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	dow := (int(first.Weekday()) + 6) % 7 // 0 = понедельник
	return (n-1)*7 + 1 + (7-dow)%7
}

// VernalEquinoxDay возвращает день весеннего равноденствия в марте.
// Приближённая формула, верна для 2000–2099 годов. Константы совпадают
// с клиентской реализацией и меняться не должны.
func VernalEquinoxDay(year int) int {
	return equinox(20.8431, year)
}

// AutumnalEquinoxDay возвращает день осеннего равноденствия в сентябре (2000–2099).
func AutumnalEquinoxDay(year int) int {
	return equinox(23.2488, year)
}

func equinox(base float64, year int) int {
	delta := float64(year - 1980)
	return int(math.Floor(base + 0.242194*delta - math.Floor(delta/4)))
}
