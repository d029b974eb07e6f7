package middleware

import (
	"errors"
	"net/http"
	"reflect"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"github.com/vamsi-krishn/EHR-system/internal/handler"
	"github.com/vamsi-krishn/EHR-system/internal/model"
)

// ValidationError represents a validation error
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationConfig represents validation middleware configuration
type ValidationConfig struct {
	CustomValidators    map[string]validator.Func
	CustomErrorMessages map[string]string
}

func DefaultValidationConfig() ValidationConfig {
	return ValidationConfig{
		CustomValidators: map[string]validator.Func{
			"wallet": validateWallet,
		},
		CustomErrorMessages: map[string]string{
			"required": "Field is required",
			"wallet":   "Must be a 0x-prefixed 40 hex digit wallet address",
			"oneof":    "Value is not allowed",
		},
	}
}

func validateWallet(fl validator.FieldLevel) bool {
	return model.IsHexAddress(fl.Field().String())
}

var registerOnce sync.Once

// RegisterValidators installs the custom tags on gin's validator engine.
// Only the first call has an effect.
func RegisterValidators(config ValidationConfig) {
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		for tag, fn := range config.CustomValidators {
			if err := v.RegisterValidation(tag, fn); err != nil {
				panic(err)
			}
		}
		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" || name == "" {
				return fld.Name
			}
			return name
		})
	})
}

// Validation turns validator errors left on the context into a 400 listing
// the offending fields.
func Validation(config ValidationConfig) gin.HandlerFunc {
	RegisterValidators(config)

	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}

		var validationErrors []ValidationError
		for _, err := range c.Errors {
			var errs validator.ValidationErrors
			if !errors.As(err.Err, &errs) {
				continue
			}
			for _, e := range errs {
				msg := config.CustomErrorMessages[e.Tag()]
				if msg == "" {
					msg = e.Error()
				}
				validationErrors = append(validationErrors, ValidationError{
					Field:   e.Field(),
					Message: msg,
				})
			}
		}

		if len(validationErrors) > 0 {
			c.AbortWithStatusJSON(http.StatusBadRequest, &handler.Response{
				Status:  "error",
				Message: "validation failed",
				Data:    validationErrors,
			})
		}
	}
}
