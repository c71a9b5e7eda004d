// Package period считает календарные окна подписок.
package period

import "time"

// Day обрезает момент до полуночи того же календарного дня в его часовом поясе.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// Window возвращает даты начала и окончания окна длиной days календарных дней,
// начинающегося в день now по локальным часам.
func Window(now time.Time, days int) (start, end time.Time) {
	start = Day(now)
	// AddDate по календарю: переход на летнее время не сдвигает дату окончания.
	end = start.AddDate(0, 0, days)
	return start, end
}

// DaysBetween считает число календарных дней от start до end.
func DaysBetween(start, end time.Time) int {
	s := Day(start)
	e := Day(end.In(start.Location()))
	days := 0
	if e.Before(s) {
		for d := e; d.Before(s); d = d.AddDate(0, 0, 1) {
			days--
		}
		return days
	}
	for d := s; d.Before(e); d = d.AddDate(0, 0, 1) {
		days++
	}
	return days
}
