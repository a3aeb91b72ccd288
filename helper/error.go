package helper

import "fmt"

// Error wraps an underlying error with the operation that failed
type Error struct {
	Op  string
	Err error
}

// NewError wraps err with the name of the failing operation.
// It returns nil when err is nil.
func NewError(op string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Op: op, Err: err}
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}
