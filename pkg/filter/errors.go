package filter

import "fmt"

// FilterError reports a PulseFilter field that violates its validation cap.
type FilterError struct {
	Field string
}

func (e *FilterError) Error() string {
	return fmt.Sprintf("filter: %s out of bounds", e.Field)
}

func outOfBounds(field string) error {
	return &FilterError{Field: field}
}
