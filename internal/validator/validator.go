package validator

import (
	"time"

	"github.com/go-playground/validator/v10"
)

type Validator struct {
	validate *validator.Validate
}

func New() *Validator {
	v := validator.New()

	// Custom validators
	v.RegisterValidation("event_date", validateEventDate)
	v.RegisterValidation("event_time", validateEventTime)

	return &Validator{validate: v}
}

func (v *Validator) Validate(i interface{}) error {
	return v.validate.Struct(i)
}

// validateEventDate accepts YYYY-MM-DD dates that are not in the past.
func validateEventDate(fl validator.FieldLevel) bool {
	date, err := time.Parse("2006-01-02", fl.Field().String())
	if err != nil {
		return false
	}

	today, _ := time.Parse("2006-01-02", time.Now().UTC().Format("2006-01-02"))
	return !date.Before(today)
}

// validateEventTime accepts HH:MM times.
func validateEventTime(fl validator.FieldLevel) bool {
	_, err := time.Parse("15:04", fl.Field().String())
	return err == nil
}
