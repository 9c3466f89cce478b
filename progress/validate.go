package progress

import (
	"fmt"
	"regexp"

	"github.com/go-playground/validator/v10"
)

var (
	subjectPattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._:@-]*$`)
	validate       = newValidator()
)

func newValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("subjectid", func(fl validator.FieldLevel) bool {
		return subjectPattern.MatchString(fl.Field().String())
	})
	return v
}

// ValidateSubjectID checks a subject key: 1 to 64 characters, starting with a letter or digit,
// then letters, digits and . _ : @ -.
func ValidateSubjectID(subjectID string) error {
	if err := validate.Var(subjectID, "required,max=64,subjectid"); err != nil {
		return fmt.Errorf("%w: invalid subject id %q", ErrValidation, subjectID)
	}
	return nil
}
