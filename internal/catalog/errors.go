package catalog

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound   = errors.New("title not found")
	ErrOutOfRange = errors.New("index out of range")
)

// ConfigurationError reports missing or malformed catalog data. It is fatal
// at startup.
type ConfigurationError struct {
	Source string
	Err    error
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("catalog configuration error (%s): %v", e.Source, e.Err)
}

func (e *ConfigurationError) Unwrap() error {
	return e.Err
}

func configErrorf(source, format string, args ...interface{}) error {
	return &ConfigurationError{Source: source, Err: fmt.Errorf(format, args...)}
}
