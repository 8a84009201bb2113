package handlers

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
)

var fieldNames = map[string]string{
	"Username":        "username",
	"Password":        "password",
	"ConfirmPassword": "confirm_password",
	"Name":            "name",
}

// fieldErrors maps binding failures to per-field messages so forms can show
// errors inline. Non-validator errors collapse to a single form-level entry.
func fieldErrors(err error) map[string]string {
	out := make(map[string]string)

	var verrs validator.ValidationErrors

	if !errors.As(err, &verrs) {
		out["form"] = "Invalid request"
		return out
	}

	for _, fe := range verrs {
		name := fieldNames[fe.Field()]
		if name == "" {
			name = fe.Field()
		}

		switch fe.Tag() {
		case "required":
			out[name] = "This field is required."
		case "min":
			out[name] = fmt.Sprintf("Must be at least %s characters.", fe.Param())
		case "max":
			out[name] = fmt.Sprintf("Must be at most %s characters.", fe.Param())
		default:
			out[name] = "Invalid value."
		}
	}

	return out
}
