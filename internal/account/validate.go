package account

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		tag := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if tag == "" {
			return f.Name
		}
		return tag
	})
	return v
}

type registerInput struct {
	Username string `json:"username" validate:"required,min=3"`
	Email    string `json:"email" validate:"required"`
	Secret   string `json:"password" validate:"required,min=4"`
}

type socialInput struct {
	Provider    string `json:"provider" validate:"required,alphanum"`
	Email       string `json:"email" validate:"required"`
	DisplayName string `json:"name" validate:"required,min=2"`
}

type loginInput struct {
	Username string `json:"username" validate:"required"`
	Secret   string `json:"password" validate:"required"`
}

func check(in any) error {
	err := validate.Struct(in)
	if err == nil {
		return nil
	}

	var errs validator.ValidationErrors
	if !errors.As(err, &errs) {
		return fmt.Errorf("%w: %v", ErrValidation, err)
	}
	msgs := make([]string, 0, len(errs))
	for _, fe := range errs {
		msgs = append(msgs, fe.Field()+" "+validationMessage(fe))
	}
	return fmt.Errorf("%w: %s", ErrValidation, strings.Join(msgs, "; "))
}

func validationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "min":
		return fmt.Sprintf("must be at least %s characters", fe.Param())
	case "alphanum":
		return "must be letters and digits only"
	}
	return "is invalid"
}
