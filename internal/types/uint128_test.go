package types

import (
	"errors"
	"testing"
)

func TestParseUint128RoundTrip(t *testing.T) {
	cases := []string{
		"0",
		"1",
		"42",
		"18446744073709551615",                    // 2^64-1
		"18446744073709551616",                    // 2^64
		"340282366920938463463374607431768211455", // 2^128-1
	}
	for _, in := range cases {
		u, err := ParseUint128(in)
		if err != nil {
			t.Fatalf("parse %q: %v", in, err)
		}
		if got := u.String(); got != in {
			t.Fatalf("round trip %q: got %q", in, got)
		}
	}
}

func TestParseUint128StripsNothing(t *testing.T) {
	// Canonical rendering drops leading zeros even when the input has them.
	u, err := ParseUint128("000123")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if got := u.String(); got != "123" {
		t.Fatalf("expected canonical form 123, got %q", got)
	}
}

func TestParseUint128Overflow(t *testing.T) {
	_, err := ParseUint128("340282366920938463463374607431768211456") // 2^128
	if !errors.Is(err, ErrUint128Overflow) {
		t.Fatalf("expected ErrUint128Overflow, got %v", err)
	}
}

func TestParseUint128Rejects(t *testing.T) {
	for _, in := range []string{"", "-1", "+1", "12a", " 12", "0x10"} {
		if _, err := ParseUint128(in); err == nil {
			t.Fatalf("expected error for %q", in)
		}
	}
}

func TestUint128BytesRoundTrip(t *testing.T) {
	u := Uint128{Lo: 0x0123456789abcdef, Hi: 0xfedcba9876543210}
	b := u.Bytes()
	// Low limb first, little endian.
	if b[0] != 0xef || b[15] != 0xfe {
		t.Fatalf("unexpected byte layout: % x", b)
	}
	if got := Uint128FromBytes(b[:]); got != u {
		t.Fatalf("bytes round trip: got %+v want %+v", got, u)
	}
}

func TestMaxUint128String(t *testing.T) {
	if got := MaxUint128.String(); got != "340282366920938463463374607431768211455" {
		t.Fatalf("max rendering wrong: %q", got)
	}
}

func TestNewIDUnique(t *testing.T) {
	prev := NewID()
	for i := 0; i < 1000; i++ {
		id := NewID()
		if id == prev {
			t.Fatalf("duplicate id at iteration %d", i)
		}
		if id.IsZero() || id == MaxUint128 {
			t.Fatalf("reserved id generated: %s", id)
		}
		prev = id
	}
}
