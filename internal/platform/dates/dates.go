package dates

import (
	"errors"
	"strings"
	"time"

	"github.com/araddon/dateparse"
)

// Layout es el formato de fecha calendario que devuelve la API.
const Layout = "2006-01-02"

var ErrInvalidDate = errors.New("invalid date")

// Parse acepta YYYY-MM-DD, RFC3339 y los formatos que reconozca dateparse,
// y normaliza a medianoche UTC (fecha calendario, sin hora).
func Parse(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, ErrInvalidDate
	}
	if t, err := time.Parse(Layout, s); err == nil {
		return t, nil
	}
	t, err := dateparse.ParseIn(s, time.UTC)
	if err != nil {
		return time.Time{}, ErrInvalidDate
	}
	return Truncate(t), nil
}

// ParseOptional: "" => nil.
func ParseOptional(s string) (*time.Time, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	t, err := Parse(s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// Truncate conserva solo año/mes/día en UTC.
func Truncate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Date serializa una fecha calendario como "YYYY-MM-DD" en JSON.
type Date time.Time

func (d Date) MarshalJSON() ([]byte, error) {
	return []byte(`"` + time.Time(d).Format(Layout) + `"`), nil
}

// Ptr convierte *time.Time en *Date (nil se preserva para omitempty).
func Ptr(t *time.Time) *Date {
	if t == nil {
		return nil
	}
	d := Date(*t)
	return &d
}
