// Package protocol implements the fixed-width binary record codec shared
// with the ledger engine's on-wire format. Records are packed field by
// field in little-endian order; the codec never validates field values,
// it is a pure memory-layout transform. Framing and correlation live in
// the frame subpackage.
package protocol
