package events

import "strings"

// EventType es el tipo de registro del diario de cuidado.
// @Enum Feeding, Weight, Shedding, Cleaning, Mating, Laying, Other
type EventType string

const (
	TypeFeeding  EventType = "Feeding"
	TypeWeight   EventType = "Weight"
	TypeShedding EventType = "Shedding"
	TypeCleaning EventType = "Cleaning"
	TypeMating   EventType = "Mating"
	TypeLaying   EventType = "Laying"
	TypeOther    EventType = "Other"
)

// typeAliases: nombres históricos que el front-end todavía envía.
var typeAliases = map[string]EventType{
	"etc": TypeOther,
}

var allTypes = []EventType{TypeFeeding, TypeWeight, TypeShedding, TypeCleaning, TypeMating, TypeLaying, TypeOther}

// ParseType normaliza mayúsculas y alias ("Etc" => Other).
func ParseType(s string) (EventType, bool) {
	s = strings.TrimSpace(s)
	for _, t := range allTypes {
		if strings.EqualFold(s, string(t)) {
			return t, true
		}
	}
	if t, ok := typeAliases[strings.ToLower(s)]; ok {
		return t, true
	}
	return "", false
}
