package enrollment

import (
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/trezcool/placement/core"
)

var (
	unitTag  = "unit"
	unitText = "unknown unit"

	unitCapacityTag  = "unitcapacity"
	unitCapacityText = "capacity must give a positive number of seats for the section's unit"
)

// InitValidators registers the enrollment validators on validate.
func InitValidators(validate *validator.Validate, translator ut.Translator) {
	_ = validate.RegisterValidation(unitTag, unitValidation)
	core.RegisterCustomTranslation(validate, translator, unitTag, unitText)

	validate.RegisterStructValidation(sectionStructValidation, NewSection{}, UpdateSection{})
	core.RegisterCustomTranslation(validate, translator, unitCapacityTag, unitCapacityText)
}

// Custom Validators

// unitValidation checks that the field (or map key) is a known Unit.
func unitValidation(fl validator.FieldLevel) bool {
	return Unit(fl.Field().String()).Valid()
}

// sectionStructValidation checks that a section has seats in its own unit.
func sectionStructValidation(sl validator.StructLevel) {
	switch sec := sl.Current().Interface().(type) {
	case NewSection:
		validateUnitCapacity(sec.Unit, sec.Capacity, sl)
	case UpdateSection:
		validateUnitCapacity(sec.Unit, sec.Capacity, sl)
	}
}

func validateUnitCapacity(unit Unit, capacity map[Unit]int, sl validator.StructLevel) {
	if !unit.Valid() || capacity == nil {
		return // reported by field tags
	}
	if capacity[unit] <= 0 {
		sl.ReportError(capacity, "capacity", "Capacity", unitCapacityTag, "")
	}
}
