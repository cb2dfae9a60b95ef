package validate

import (
	"errors"
	"sync"

	"github.com/go-playground/validator/v10"
)

var (
	instance *validator.Validate
	once     sync.Once
)

func get() *validator.Validate {
	once.Do(func() {
		instance = validator.New(validator.WithRequiredStructEnabled())
	})
	return instance
}

func Struct(s any) error {
	return get().Struct(s)
}

// Var checks a single value against a validator tag list, e.g. "min=5,max=32".
func Var(value any, tag string) error {
	return get().Var(value, tag)
}

// FailedTag returns the first tag that failed in err, or "" when err carries no
// validation errors.
func FailedTag(err error) string {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		return verrs[0].Tag()
	}
	return ""
}
