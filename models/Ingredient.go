package models

import "strings"

// MeasurementUnit is the unit an ingredient is measured in.
type MeasurementUnit string

const (
	UnitGram       MeasurementUnit = "gram"
	UnitKilogram   MeasurementUnit = "kilogram"
	UnitMilliliter MeasurementUnit = "milliliter"
	UnitLiter      MeasurementUnit = "liter"
	UnitTeaspoon   MeasurementUnit = "teaspoon"
	UnitTablespoon MeasurementUnit = "tablespoon"
	UnitItem       MeasurementUnit = "item"
)

var unitAliases = map[string]MeasurementUnit{
	"g":     UnitGram,
	"gr":    UnitGram,
	"kg":    UnitKilogram,
	"ml":    UnitMilliliter,
	"l":     UnitLiter,
	"tsp":   UnitTeaspoon,
	"tbsp":  UnitTablespoon,
	"pc":    UnitItem,
	"pcs":   UnitItem,
	"г":     UnitGram,
	"кг":    UnitKilogram,
	"мл":    UnitMilliliter,
	"л":     UnitLiter,
	"ч.л.":  UnitTeaspoon,
	"ст.л.": UnitTablespoon,
	"шт":    UnitItem,
	"шт.":   UnitItem,
}

// MeasurementUnits lists every supported unit in display order.
func MeasurementUnits() []MeasurementUnit {
	return []MeasurementUnit{UnitGram, UnitKilogram, UnitMilliliter, UnitLiter, UnitTeaspoon, UnitTablespoon, UnitItem}
}

// ValidMeasurementUnit reports whether value is one of the supported units.
func ValidMeasurementUnit(value string) bool {
	for _, unit := range MeasurementUnits() {
		if string(unit) == value {
			return true
		}
	}
	return false
}

// ParseMeasurementUnit accepts a canonical unit name or a common abbreviation.
func ParseMeasurementUnit(value string) (MeasurementUnit, bool) {
	normalized := strings.ToLower(strings.TrimSpace(value))
	if ValidMeasurementUnit(normalized) {
		return MeasurementUnit(normalized), true
	}
	unit, ok := unitAliases[normalized]
	return unit, ok
}

// Ingredient is catalogue reference data. A name may exist once per unit.
type Ingredient struct {
	ID              uint            `gorm:"primaryKey"`
	Name            string          `gorm:"size:200;not null;uniqueIndex:idx_ingredient_name_unit"`
	MeasurementUnit MeasurementUnit `gorm:"size:16;not null;uniqueIndex:idx_ingredient_name_unit"`
}
