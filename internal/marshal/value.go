package marshal

import (
	"math"

	"github.com/tallyledger/tally-go/internal/types"
)

// toUint64 converts the loose numeric types a value bag may carry.
// Fractional, negative and non-numeric values are rejected.
func toUint64(v any) (uint64, bool) {
	switch n := v.(type) {
	case uint64:
		return n, true
	case uint32:
		return uint64(n), true
	case uint16:
		return uint64(n), true
	case uint8:
		return uint64(n), true
	case uint:
		return uint64(n), true
	case int64:
		if n < 0 {
			return 0, false
		}
		return uint64(n), true
	case int32:
		if n < 0 {
			return 0, false
		}
		return uint64(n), true
	case int:
		if n < 0 {
			return 0, false
		}
		return uint64(n), true
	case float64:
		if n < 0 || n != math.Trunc(n) || n >= math.MaxUint64 {
			return 0, false
		}
		return uint64(n), true
	default:
		return 0, false
	}
}

func bagUint64(bag map[string]any, key string) (uint64, error) {
	v, ok := bag[key]
	if !ok {
		return 0, nil
	}
	n, ok := toUint64(v)
	if !ok {
		return 0, FieldOutOfRangeError{Field: key}
	}
	return n, nil
}

func bagUint32(bag map[string]any, key string) (uint32, error) {
	n, err := bagUint64(bag, key)
	if err != nil {
		return 0, err
	}
	if n > math.MaxUint32 {
		return 0, FieldOutOfRangeError{Field: key}
	}
	return uint32(n), nil
}

func bagUint16(bag map[string]any, key string) (uint16, error) {
	n, err := bagUint64(bag, key)
	if err != nil {
		return 0, err
	}
	if n > math.MaxUint16 {
		return 0, FieldOutOfRangeError{Field: key}
	}
	return uint16(n), nil
}

// bagUint128 reads an optional 128-bit field. Only canonical base-10
// strings are accepted; numbers would silently truncate above 2^53.
func bagUint128(bag map[string]any, key string) (types.Uint128, error) {
	v, ok := bag[key]
	if !ok {
		return types.Uint128{}, nil
	}
	s, ok := v.(string)
	if !ok {
		return types.Uint128{}, InvalidNumericFieldError{Field: key}
	}
	u, err := types.ParseUint128(s)
	if err != nil {
		return types.Uint128{}, InvalidNumericFieldError{Field: key}
	}
	return u, nil
}

// bagID reads the mandatory id field.
func bagID(bag map[string]any, key string) (types.Uint128, error) {
	if _, ok := bag[key]; !ok {
		return types.Uint128{}, MissingRequiredFieldError{Field: key}
	}
	return bagUint128(bag, key)
}
