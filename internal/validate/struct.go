package validate

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

var (
	structOnce      sync.Once
	structValidator *validator.Validate
)

// Validator returns the shared struct validator with the ATM tags registered:
// atm_username, atm_password, atm_pin and atm_amount.
func Validator() *validator.Validate {
	structOnce.Do(func() {
		v := validator.New(validator.WithRequiredStructEnabled())
		register := func(tag string, fn func(string) bool) {
			if err := v.RegisterValidation(tag, func(fl validator.FieldLevel) bool {
				return fn(fl.Field().String())
			}); err != nil {
				panic(fmt.Sprintf("register %s: %v", tag, err))
			}
		}
		register("atm_username", Username)
		register("atm_password", Password)
		register("atm_pin", PIN)
		register("atm_amount", func(s string) bool {
			_, err := Amount(s)
			return err == nil
		})
		v.RegisterTagNameFunc(jsonName)
		structValidator = v
	})
	return structValidator
}

// Struct validates s and flattens field errors into one readable error.
func Struct(s any) error {
	err := Validator().Struct(s)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}
	msgs := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		msgs = append(msgs, fieldMessage(fe))
	}
	return errors.New(strings.Join(msgs, "; "))
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fe.Field() + " is required"
	case "atm_username":
		return UsernameRule
	case "atm_password":
		return PasswordRule
	case "atm_pin":
		return PINRule
	case "atm_amount":
		return fe.Field() + " must be a positive number with at most 2 decimals, up to " + MaxAmount.String()
	default:
		return fmt.Sprintf("%s failed %s", fe.Field(), fe.Tag())
	}
}

func jsonName(f reflect.StructField) string {
	name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
	if name == "" || name == "-" {
		return f.Name
	}
	return name
}
