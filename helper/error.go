package helper

import "fmt"

// NewError wraps an error with the operation that failed. All packages
// use this for a uniform "error <operation>: <cause>" format.
func NewError(operation string, err error) error {
	return fmt.Errorf("error %v: %w", operation, err)
}
