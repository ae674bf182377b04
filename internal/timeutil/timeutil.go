// Package timeutil разбирает введённое администратором время публикации
// и форматирует даты для показа.
package timeutil

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var (
	timeOnlyRe = regexp.MustCompile(`^(\d{1,2}):(\d{2})$`)
	dateTimeRe = regexp.MustCompile(`^(\d{1,2})\.(\d{1,2})\s+(\d{1,2}):(\d{2})$`)
	relativeRe = regexp.MustCompile(`^\+(\d+)([hmd])$`)
)

// ParseScheduleTime разбирает время публикации из текста.
// Поддерживаемые форматы:
//   - "18:30" — ближайшее такое время в зоне loc (сегодня или завтра);
//   - "25.12 15:00" — дата в текущем году, либо в следующем, если уже прошла;
//   - "+2h" / "+30m" / "+1d" — относительное смещение от текущего UTC.
//
// Результат всегда в UTC. now задаёт точку отсчёта.
func ParseScheduleTime(text string, loc *time.Location, now time.Time) (time.Time, error) {
	text = strings.TrimSpace(text)
	if loc == nil {
		loc = time.UTC
	}
	localNow := now.In(loc)

	if m := timeOnlyRe.FindStringSubmatch(text); m != nil {
		hours, _ := strconv.Atoi(m[1])
		minutes, _ := strconv.Atoi(m[2])
		if hours > 23 || minutes > 59 {
			return time.Time{}, fmt.Errorf("invalid time %q", text)
		}
		scheduled := time.Date(localNow.Year(), localNow.Month(), localNow.Day(), hours, minutes, 0, 0, loc)
		if !scheduled.After(localNow) {
			scheduled = scheduled.AddDate(0, 0, 1)
		}
		return scheduled.UTC(), nil
	}

	if m := dateTimeRe.FindStringSubmatch(text); m != nil {
		day, _ := strconv.Atoi(m[1])
		month, _ := strconv.Atoi(m[2])
		hours, _ := strconv.Atoi(m[3])
		minutes, _ := strconv.Atoi(m[4])
		if day < 1 || day > 31 || month < 1 || month > 12 || hours > 23 || minutes > 59 {
			return time.Time{}, fmt.Errorf("invalid date %q", text)
		}
		scheduled := time.Date(localNow.Year(), time.Month(month), day, hours, minutes, 0, 0, loc)
		// time.Date нормализует несуществующие даты (31.02 -> 3 марта),
		// поэтому проверяем, что день и месяц не "переползли"
		if scheduled.Day() != day || scheduled.Month() != time.Month(month) {
			return time.Time{}, fmt.Errorf("invalid date %q", text)
		}
		if scheduled.Before(localNow) {
			scheduled = time.Date(localNow.Year()+1, time.Month(month), day, hours, minutes, 0, 0, loc)
			if scheduled.Day() != day || scheduled.Month() != time.Month(month) {
				return time.Time{}, fmt.Errorf("invalid date %q", text)
			}
		}
		return scheduled.UTC(), nil
	}

	if m := relativeRe.FindStringSubmatch(strings.ToLower(text)); m != nil {
		amount, _ := strconv.Atoi(m[1])
		utcNow := now.UTC()
		switch m[2] {
		case "h":
			if amount >= 1 && amount <= 24 {
				return utcNow.Add(time.Duration(amount) * time.Hour), nil
			}
		case "m":
			if amount >= 1 && amount <= 1440 {
				return utcNow.Add(time.Duration(amount) * time.Minute), nil
			}
		case "d":
			if amount >= 1 && amount <= 30 {
				return utcNow.AddDate(0, 0, amount), nil
			}
		}
		return time.Time{}, fmt.Errorf("relative offset out of range: %q", text)
	}

	return time.Time{}, fmt.Errorf("unrecognized schedule format: %q", text)
}

// FormatForDisplay показывает дату по-русски относительно текущего дня.
func FormatForDisplay(t time.Time, loc *time.Location, now time.Time) string {
	if loc == nil {
		loc = time.UTC
	}
	local := t.In(loc)
	localNow := now.In(loc)

	days := daysBetween(local, localNow)
	switch {
	case days == 0:
		return "Сегодня"
	case days == 1:
		return "Вчера"
	case days > 1 && days < 7:
		return fmt.Sprintf("%d дней назад", days)
	default:
		return local.Format("02.01.2006")
	}
}

// FormatLocal форматирует время в зоне loc в виде "02.01.2006 15:04".
func FormatLocal(t time.Time, loc *time.Location) string {
	if loc == nil {
		loc = time.UTC
	}
	return t.In(loc).Format("02.01.2006 15:04")
}

// daysBetween считает календарные дни между t и now в одной зоне.
func daysBetween(t, now time.Time) int {
	ty, tm, td := t.Date()
	ny, nm, nd := now.Date()
	from := time.Date(ty, tm, td, 0, 0, 0, 0, time.UTC)
	to := time.Date(ny, nm, nd, 0, 0, 0, 0, time.UTC)
	return int(to.Sub(from).Hours() / 24)
}
