package dto

import (
	"fmt"
	"sync"

	"github.com/SscSPs/storefront_auth/internal/utils"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

var registerOnce sync.Once

// RegisterValidators installs the custom binding rules on gin's validator.
// Safe to call more than once.
func RegisterValidators() error {
	var err error
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			err = fmt.Errorf("unexpected gin validator engine %T", binding.Validator.Engine())
			return
		}
		err = v.RegisterValidation("strongpassword", func(fl validator.FieldLevel) bool {
			return utils.IsStrongPassword(fl.Field().String())
		})
	})
	return err
}

// ValidationMessage turns validator errors into a short client-facing message.
func ValidationMessage(err error) string {
	verrs, ok := err.(validator.ValidationErrors)
	if !ok || len(verrs) == 0 {
		return "Invalid request body"
	}
	fe := verrs[0]
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", fe.Field())
	case "email":
		return "Email should be valid"
	case "strongpassword":
		return "Password must be at least 8 characters and contain upper case, lower case, digit and special character"
	case "eqfield":
		return "Passwords do not match"
	case "min", "max":
		return fmt.Sprintf("%s has an invalid length", fe.Field())
	default:
		return fmt.Sprintf("%s is invalid", fe.Field())
	}
}
