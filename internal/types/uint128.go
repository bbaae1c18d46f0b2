package types

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math/bits"
)

// Uint128 is an unsigned 128-bit integer stored as two 64-bit limbs.
// The wire representation is 16 little-endian bytes, low limb first.
type Uint128 struct {
	Lo uint64
	Hi uint64
}

// MaxUint128 is the largest representable value, 2^128 - 1.
var MaxUint128 = Uint128{Lo: ^uint64(0), Hi: ^uint64(0)}

var ErrUint128Overflow = errors.New("types: value overflows 128 bits")

// IsZero reports whether u equals zero.
func (u Uint128) IsZero() bool {
	return u.Lo == 0 && u.Hi == 0
}

// PutBytes writes the 16-byte little-endian representation into b.
func (u Uint128) PutBytes(b []byte) {
	binary.LittleEndian.PutUint64(b[0:8], u.Lo)
	binary.LittleEndian.PutUint64(b[8:16], u.Hi)
}

// Bytes returns the 16-byte little-endian representation.
func (u Uint128) Bytes() [16]byte {
	var b [16]byte
	u.PutBytes(b[:])
	return b
}

// Uint128FromBytes reads 16 little-endian bytes.
func Uint128FromBytes(b []byte) Uint128 {
	return Uint128{
		Lo: binary.LittleEndian.Uint64(b[0:8]),
		Hi: binary.LittleEndian.Uint64(b[8:16]),
	}
}

// Uint128FromUint64 widens v.
func Uint128FromUint64(v uint64) Uint128 {
	return Uint128{Lo: v}
}

// ParseUint128 parses a base-10 unsigned integer of at most 128 bits.
// Only ASCII digits are accepted; the empty string is rejected.
func ParseUint128(s string) (Uint128, error) {
	if s == "" {
		return Uint128{}, errors.New("types: empty numeric string")
	}
	var u Uint128
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c < '0' || c > '9' {
			return Uint128{}, fmt.Errorf("types: invalid digit %q in numeric string", c)
		}
		var err error
		u, err = u.mulAdd10(uint64(c - '0'))
		if err != nil {
			return Uint128{}, err
		}
	}
	return u, nil
}

// mulAdd10 returns u*10 + d, failing on 128-bit overflow.
func (u Uint128) mulAdd10(d uint64) (Uint128, error) {
	hiCarry, lo := bits.Mul64(u.Lo, 10)
	hi, hiOverflow := bits.Mul64(u.Hi, 10)
	if hi != 0 {
		return Uint128{}, ErrUint128Overflow
	}
	hi, carry := bits.Add64(hiOverflow, hiCarry, 0)
	if carry != 0 {
		return Uint128{}, ErrUint128Overflow
	}
	lo, carry = bits.Add64(lo, d, 0)
	hi, carry = bits.Add64(hi, 0, carry)
	if carry != 0 {
		return Uint128{}, ErrUint128Overflow
	}
	return Uint128{Lo: lo, Hi: hi}, nil
}

// String renders the canonical base-10 form: no sign, no leading zeros.
func (u Uint128) String() string {
	if u.Hi == 0 {
		return fmt.Sprintf("%d", u.Lo)
	}
	// 2^128-1 has 39 decimal digits.
	var digits [39]byte
	i := len(digits)
	for !u.IsZero() {
		var r uint64
		u, r = u.divmod10()
		i--
		digits[i] = byte('0' + r)
	}
	return string(digits[i:])
}

func (u Uint128) divmod10() (Uint128, uint64) {
	qHi := u.Hi / 10
	rem := u.Hi % 10
	qLo, r := bits.Div64(rem, u.Lo, 10)
	return Uint128{Lo: qLo, Hi: qHi}, r
}
