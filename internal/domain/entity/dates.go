package entity

import "time"

// DateLayout formato de fecha usado en la API y en los archivos de importación.
const DateLayout = "2006-01-02"

// DateOnly normaliza una fecha al día calendario (medianoche UTC).
// El libro trabaja con días: dos eventos del mismo día se ordenan por ID.
func DateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// ParseDate interpreta una fecha AAAA-MM-DD.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, err
	}
	return DateOnly(t), nil
}
