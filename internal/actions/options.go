package actions

import (
	"fmt"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/mitchellh/mapstructure"
)

var (
	validatorOnce sync.Once
	validatorInst *validator.Validate
)

// sharedValidator returns the package-wide validator instance, grounded on
// the teacher's internal/config.validatorInstance singleton pattern.
func sharedValidator() *validator.Validate {
	validatorOnce.Do(func() {
		validatorInst = validator.New()
	})
	return validatorInst
}

// Decode converts a raw option bundle into a typed struct, rejecting keys
// the struct doesn't declare a `mapstructure` tag for — this is what makes
// "explicitly enumerated recognized keys" (§4.2) an enforced contract
// rather than a convention.
func Decode(opts Options, dst interface{}) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           dst,
		ErrorUnused:      true,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return err
	}
	if err := decoder.Decode(map[string]interface{}(opts)); err != nil {
		return fmt.Errorf("decode options: %w", err)
	}
	if err := sharedValidator().Struct(dst); err != nil {
		return fmt.Errorf("validate options: %w", err)
	}
	return nil
}
