package middleware

import (
	"reflect"
	"strings"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// validationMessages maps validator tags to user-facing text.
var validationMessages = map[string]string{
	"required": "is required",
	"email":    "must be a valid email address",
	"min":      "is too short",
	"max":      "is too long",
}

// RegisterValidation configures the binding validator to report field names
// from json tags instead of Go struct field names.
func RegisterValidation() {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return
	}
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return fld.Name
		}
		return name
	})
}

// ViolationMessages renders binding failures as violation strings.
func ViolationMessages(errs validator.ValidationErrors) []string {
	out := make([]string, 0, len(errs))
	for _, e := range errs {
		msg := validationMessages[e.Tag()]
		if msg == "" {
			msg = "is invalid"
		}
		out = append(out, e.Field()+" "+msg)
	}
	return out
}
