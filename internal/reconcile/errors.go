package reconcile

import (
	"errors"
	"fmt"
)

// ErrConfig matches every *ConfigError under errors.Is.
var ErrConfig = errors.New("invalid reconciliation config")

// ConfigError reports join/debit/credit settings that cannot be applied to
// the given datasets.
type ConfigError struct {
	Column  string
	Message string
}

func (e *ConfigError) Error() string {
	if e.Column != "" {
		return fmt.Sprintf("column %q: %s", e.Column, e.Message)
	}
	return e.Message
}

// Is implements errors.Is support.
func (e *ConfigError) Is(target error) bool {
	return target == ErrConfig
}
