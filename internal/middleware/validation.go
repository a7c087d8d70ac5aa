package middleware

import (
	"fmt"
	"sync"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"github.com/jwalitptl/clinic-booking/internal/model"
)

var registerOnce sync.Once

// RegisterValidators adds the custom form validators used by the request
// models to gin's binding engine. Safe to call more than once.
func RegisterValidators() error {
	var err error
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			err = fmt.Errorf("unexpected binding engine %T", binding.Validator.Engine())
			return
		}
		err = v.RegisterValidation("slot", func(fl validator.FieldLevel) bool {
			return model.ValidSlot(fl.Field().String())
		})
	})
	return err
}
