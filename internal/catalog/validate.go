package catalog

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/erazemk/whereisit/internal/model"
)

var validate *validator.Validate

func init() {
	validate = validator.New(validator.WithRequiredStructEnabled())

	err := validate.RegisterValidation("preset", func(fl validator.FieldLevel) bool {
		return model.IsPreset(fl.Field().String())
	})
	if err != nil {
		panic(fmt.Sprintf("registering preset validation: %v", err))
	}
}

// validateRequest runs struct validation and turns failures into a single
// error wrapping ErrInvalidRequest, or ErrPhotoRequired when only the photo
// is missing.
func validateRequest(req any) error {
	err := validate.Struct(req)
	if err == nil {
		return nil
	}

	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		return fmt.Errorf("validating request: %w", err)
	}

	msgs := make([]string, 0, len(ve))
	for _, fe := range ve {
		if fe.Field() == "PhotoPath" && fe.Tag() == "required" && len(ve) == 1 {
			return ErrPhotoRequired
		}
		msgs = append(msgs, fe.Field()+": "+formatFieldError(fe))
	}
	sort.Strings(msgs)
	return fmt.Errorf("%w: %s", ErrInvalidRequest, strings.Join(msgs, "; "))
}

func formatFieldError(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return "this field is required"
	case "max":
		return fmt.Sprintf("maximum length is %s", e.Param())
	case "preset":
		return fmt.Sprintf("unknown preset %q", e.Value())
	case "excluded_with":
		return fmt.Sprintf("cannot be combined with %s", e.Param())
	default:
		return fmt.Sprintf("validation failed on '%s'", e.Tag())
	}
}
