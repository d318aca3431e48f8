package coerce

import "fmt"

// Reason classifies why a field could not be coerced.
type Reason string

const (
	ReasonTooLong            Reason = "TooLong"
	ReasonEmptyNotAllowed    Reason = "EmptyNotAllowed"
	ReasonRequired           Reason = "Required"
	ReasonNotANumber         Reason = "NotANumber"
	ReasonOutOfRange         Reason = "OutOfRange"
	ReasonInvalidDate        Reason = "InvalidDate"
	ReasonNotNullable        Reason = "NotNullable"
	ReasonInvalidType        Reason = "InvalidType"
	ReasonUnknownOrImmutable Reason = "UnknownOrImmutable"
)

// FieldError reports a value that cannot be stored in a column.
type FieldError struct {
	Field  string
	Label  string
	Reason Reason

	// Limit is the maximum length for TooLong and the integer digit
	// count for OutOfRange on decimals.
	Limit int
}

// Error returns the client-facing message for the failure.
func (e *FieldError) Error() string {
	label := e.Label
	if label == "" {
		label = e.Field
	}
	switch e.Reason {
	case ReasonTooLong:
		return fmt.Sprintf("%s exceeds maximum length of %d characters", label, e.Limit)
	case ReasonEmptyNotAllowed:
		return fmt.Sprintf("%s cannot be empty", label)
	case ReasonRequired:
		return fmt.Sprintf("%s is required", label)
	case ReasonNotANumber:
		return fmt.Sprintf("%s must be a number", label)
	case ReasonOutOfRange:
		if e.Limit > 0 {
			return fmt.Sprintf("%s is out of range (at most %d digits before the decimal point)", label, e.Limit)
		}
		return fmt.Sprintf("%s is out of range", label)
	case ReasonInvalidDate:
		return fmt.Sprintf("%s must be a date in YYYY-MM-DD format", label)
	case ReasonNotNullable:
		return fmt.Sprintf("%s cannot be null", label)
	case ReasonInvalidType:
		return fmt.Sprintf("%s must be a text, number or boolean value", label)
	case ReasonUnknownOrImmutable:
		return fmt.Sprintf("%s is not an updatable field", label)
	default:
		return fmt.Sprintf("%s is invalid", label)
	}
}
