package leads

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Issue is one failed field, reported back to the form.
type Issue struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Validate checks the common fields via struct tags, then the
// kind-specific detail fields. A nil return means the submission is
// acceptable.
func Validate(kind Kind, sub *Submission) []Issue {
	var issues []Issue

	if err := validate.Struct(sub); err != nil {
		if ve, ok := err.(validator.ValidationErrors); ok {
			for _, fe := range ve {
				issues = append(issues, Issue{Field: fe.Field(), Message: fieldMessage(fe)})
			}
		} else {
			issues = append(issues, Issue{Field: "", Message: err.Error()})
		}
	}

	for _, key := range requiredDetail[kind] {
		if strings.TrimSpace(sub.Detail[key]) == "" {
			issues = append(issues, Issue{
				Field:   "detail." + key,
				Message: fmt.Sprintf("Field '%s' is required", key),
			})
		}
	}
	return issues
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("Field '%s' is required", fe.Field())
	case "email":
		return fmt.Sprintf("Field '%s' must be a valid email", fe.Field())
	case "max":
		return fmt.Sprintf("Field '%s' must be at most %s characters", fe.Field(), fe.Param())
	}
	return fmt.Sprintf("Field '%s' failed validation for '%s'", fe.Field(), fe.Tag())
}
