package metrics

import (
	"fmt"
	"time"

	"golang.org/x/text/language"
)

// Locale names the calendar units that appear in labels. Numbers are left
// raw; formatting them is up to the caller.
type Locale struct {
	Tag      language.Tag
	Weekdays [7]string  // Sunday first
	Months   [12]string // January first
}

var (
	English = &Locale{
		Tag:      language.English,
		Weekdays: [7]string{"Sunday", "Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday"},
		Months: [12]string{"January", "February", "March", "April", "May", "June",
			"July", "August", "September", "October", "November", "December"},
	}
	Spanish = &Locale{
		Tag:      language.Spanish,
		Weekdays: [7]string{"Domingo", "Lunes", "Martes", "Miércoles", "Jueves", "Viernes", "Sábado"},
		Months: [12]string{"Enero", "Febrero", "Marzo", "Abril", "Mayo", "Junio",
			"Julio", "Agosto", "Septiembre", "Octubre", "Noviembre", "Diciembre"},
	}

	locales       = []*Locale{English, Spanish}
	localeMatcher = language.NewMatcher([]language.Tag{English.Tag, Spanish.Tag})
)

// LocaleFor picks the supported locale closest to a BCP 47 tag such as
// "es-MX". Anything unrecognised falls back to English.
func LocaleFor(tag string) *Locale {
	_, index := language.MatchStrings(localeMatcher, tag)
	if index < 0 || index >= len(locales) {
		return English
	}
	return locales[index]
}

func (l *Locale) orDefault() *Locale {
	if l == nil {
		return English
	}
	return l
}

func (l *Locale) Weekday(d time.Weekday) string {
	return l.orDefault().Weekdays[d]
}

func (l *Locale) Month(m time.Month) string {
	return l.orDefault().Months[m-1]
}

func (l *Locale) shortMonth(m time.Month) string {
	r := []rune(l.Month(m))
	if len(r) > 3 {
		r = r[:3]
	}
	return string(r)
}

// ShortDate renders "02 Jan".
func (l *Locale) ShortDate(t time.Time) string {
	return fmt.Sprintf("%02d %s", t.Day(), l.shortMonth(t.Month()))
}

// LongDate renders "02 Jan 2026".
func (l *Locale) LongDate(t time.Time) string {
	return fmt.Sprintf("%s %d", l.ShortDate(t), t.Year())
}

// MonthYear renders "January 2026".
func (l *Locale) MonthYear(t time.Time) string {
	return fmt.Sprintf("%s %d", l.Month(t.Month()), t.Year())
}

func (l *Locale) Quarter(t time.Time) string {
	return fmt.Sprintf("Q%d %d", (int(t.Month())-1)/3+1, t.Year())
}

func (l *Locale) Range(start, end time.Time) string {
	if start.Year() == end.Year() {
		return fmt.Sprintf("%s - %s", l.ShortDate(start), l.LongDate(end))
	}
	return fmt.Sprintf("%s - %s", l.LongDate(start), l.LongDate(end))
}

func hourLabel(hour int) string {
	return fmt.Sprintf("%02d:00", hour)
}
