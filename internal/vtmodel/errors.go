package vtmodel

import "fmt"

// InvalidArgumentError reports a caller error: a bad range, a non-positive
// geometry, or similar. It never results from parsing child output.
type InvalidArgumentError struct {
	msg string
}

func (e *InvalidArgumentError) Error() string { return e.msg }

func invalidArgumentf(format string, args ...any) error {
	return &InvalidArgumentError{msg: fmt.Sprintf(format, args...)}
}
