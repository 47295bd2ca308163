package validator

import (
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"github.com/medly/medly-api/internal/interval"
	"github.com/medly/medly-api/internal/model"
)

// Register installs the custom binding validators on gin's validator engine.
// Call once at startup before routes are served.
func Register() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return nil
	}
	if err := v.RegisterValidation("hhmm", validHHMM); err != nil {
		return err
	}
	return v.RegisterValidation("windowkind", validWindowKind)
}

// validHHMM accepts "HH:MM" with hour 0..24, minute 0..59, and "24:00" as
// the only valid hour-24 form.
func validHHMM(fl validator.FieldLevel) bool {
	_, err := interval.ParseClock(fl.Field().String())
	return err == nil
}

func validWindowKind(fl validator.FieldLevel) bool {
	return model.WindowKind(fl.Field().String()).Valid()
}
