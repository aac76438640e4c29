package errs

import "fmt"

// Fail wraps err with the name of the operation that produced it.
func Fail(op string, err error) error {
	return fmt.Errorf("%s: %w", op, err)
}
