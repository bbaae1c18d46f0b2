package marshal

import "fmt"

// InvalidNumericFieldError reports a 128-bit field whose value is not a
// canonical base-10 string or does not fit in 128 bits.
type InvalidNumericFieldError struct {
	Field string
}

func (e InvalidNumericFieldError) Error() string {
	return fmt.Sprintf("marshal: invalid numeric field %q", e.Field)
}

// FieldOutOfRangeError reports a fixed-width numeric field whose value
// cannot be represented losslessly in the target width.
type FieldOutOfRangeError struct {
	Field string
}

func (e FieldOutOfRangeError) Error() string {
	return fmt.Sprintf("marshal: field %q out of range", e.Field)
}

// MissingRequiredFieldError reports an absent mandatory field.
type MissingRequiredFieldError struct {
	Field string
}

func (e MissingRequiredFieldError) Error() string {
	return fmt.Sprintf("marshal: missing required field %q", e.Field)
}
