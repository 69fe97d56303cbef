package data

import "fmt"

// ConfigError marks a configuration problem detected at load or reload
// time. It is the only error class surfaced to operators; per-tick errors
// are absorbed by the systems that hit them.
type ConfigError struct {
	msg string
}

func (e *ConfigError) Error() string { return e.msg }

func configErrorf(format string, args ...any) *ConfigError {
	return &ConfigError{msg: fmt.Sprintf(format, args...)}
}
