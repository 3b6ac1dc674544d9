package norm

import (
	"errors"
	"fmt"
)

// ErrDegenerate matches every DegenerateImageError through errors.Is.
var ErrDegenerate = errors.New("degenerate image")

// A DegenerateImageError reports an image whose histogram can't yield
// meaningful normalization parameters.
type DegenerateImageError struct {
	Reason string
}

func (e *DegenerateImageError) Error() string {
	return "degenerate image: " + e.Reason
}

// Is makes errors.Is(err, ErrDegenerate) hold.
func (e *DegenerateImageError) Is(target error) bool {
	return target == ErrDegenerate
}

func degenerate(format string, args ...interface{}) error {
	return &DegenerateImageError{Reason: fmt.Sprintf(format, args...)}
}

// A ConfigError reports an invalid configuration field.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}
