package events

import (
	"math"
	"time"
)

// incubationDays: días promedio de incubación por temperatura (décimas de °C).
var incubationDays = map[int]int{
	220: 87,
	230: 82,
	235: 77,
	240: 72,
	245: 67,
	250: 62,
}

// IncubationDays devuelve los días promedio para una temperatura exacta de la tabla.
func IncubationDays(tempC float64) (int, bool) {
	tenths := math.Round(tempC * 10)
	if math.Abs(tempC*10-tenths) > 1e-6 {
		return 0, false
	}
	d, ok := incubationDays[int(tenths)]
	return d, ok
}

// ExpectedHatch calcula la fecha estimada de eclosión desde la fecha de puesta.
func ExpectedHatch(laidOn time.Time, tempC float64) (time.Time, bool) {
	d, ok := IncubationDays(tempC)
	if !ok {
		return time.Time{}, false
	}
	return laidOn.AddDate(0, 0, d), true
}

// fillExpectedHatch completa expected_hatch_date en puestas con temperatura
// conocida; un valor ya cargado se respeta.
func fillExpectedHatch(e *Event) {
	if e.Type != TypeLaying || e.IncubationTemp == nil || e.ExpectedHatchDate != nil {
		return
	}
	if t, ok := ExpectedHatch(e.Date, *e.IncubationTemp); ok {
		e.ExpectedHatchDate = &t
	}
}
