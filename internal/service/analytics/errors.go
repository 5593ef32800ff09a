package analytics

import "fmt"

// MissingParameterError reports a required request parameter that was not
// supplied. Validation fails with it before any store access.
type MissingParameterError struct {
	Field string
}

func (e *MissingParameterError) Error() string {
	return "missing required parameter: " + e.Field
}

// InvalidParameterError reports a parameter that is present but unusable,
// such as a month outside 1..12.
type InvalidParameterError struct {
	Field string
	Value string
}

func (e *InvalidParameterError) Error() string {
	return fmt.Sprintf("invalid value %q for parameter %s", e.Value, e.Field)
}
