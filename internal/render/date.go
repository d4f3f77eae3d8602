package render

import (
	"fmt"
	"time"
)

var ruMonthsGenitive = [...]string{
	"января", "февраля", "марта", "апреля", "мая", "июня",
	"июля", "августа", "сентября", "октября", "ноября", "декабря",
}

// LongDate formats t as a day-month-year date with the month spelled out:
// "2 января 2024 г." for locale "ru" (the default) and "January 2, 2024"
// for "en". The calendar day is the viewer's: t is converted to time.Local
// first.
func LongDate(t time.Time, locale string) string {
	if t.IsZero() {
		return ""
	}
	t = t.Local()
	switch locale {
	case "en":
		return t.Format("January 2, 2006")
	default:
		return fmt.Sprintf("%d %s %d г.", t.Day(), ruMonthsGenitive[t.Month()-1], t.Year())
	}
}
