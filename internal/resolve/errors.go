package resolve

import "fmt"

// ConfigError reports an invalid or incomplete build configuration. It is
// always fatal and names the offending value.
type ConfigError struct {
	Msg string
	Err error
}

func (e *ConfigError) Error() string {
	return e.Msg
}

// Unwrap returns the underlying error, if any.
func (e *ConfigError) Unwrap() error {
	return e.Err
}

func configErrorf(format string, args ...any) *ConfigError {
	return &ConfigError{Msg: fmt.Sprintf(format, args...)}
}
