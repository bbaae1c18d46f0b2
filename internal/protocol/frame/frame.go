// Package frame delimits record batches on the duplex channel. Every
// message carries a fixed 32-byte big-endian header holding the
// correlation id and operation; the payload is an opaque record batch
// owned by the protocol package.
package frame

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

const (
	Magic          uint32 = 0x544c4459 // "TLDY"
	Version        uint16 = 1
	FixedHeaderLen uint16 = 32

	FlagIsResponse uint32 = 0x01
	FlagIsError    uint32 = 0x02
)

// Operation identifies the request kind a frame carries.
type Operation uint32

const (
	OpHello Operation = iota + 1
	OpCreateAccounts
	OpCreateTransfers
	OpLookupAccounts
)

func (op Operation) Valid() bool {
	return op >= OpHello && op <= OpLookupAccounts
}

func (op Operation) String() string {
	switch op {
	case OpHello:
		return "hello"
	case OpCreateAccounts:
		return "create_accounts"
	case OpCreateTransfers:
		return "create_transfers"
	case OpLookupAccounts:
		return "lookup_accounts"
	default:
		return fmt.Sprintf("operation(%d)", uint32(op))
	}
}

var (
	ErrShortHeader        = errors.New("frame: short fixed header")
	ErrInvalidMagic       = errors.New("frame: invalid magic")
	ErrUnsupportedVersion = errors.New("frame: unsupported version")
	ErrInvalidHeaderLen   = errors.New("frame: invalid header length")
	ErrUnknownOperation   = errors.New("frame: unknown operation")
	ErrPayloadTooLarge    = errors.New("frame: payload too large")
)

// Header is the fixed wire header.
type Header struct {
	Magic         uint32
	Version       uint16
	HeaderLen     uint16
	CorrelationID uint64
	Operation     Operation
	Flags         uint32
	PayloadLen    uint64
}

// Frame is one complete wire message.
type Frame struct {
	Header  Header
	Payload []byte
}

// Limits constrains frame decode/encode memory use.
type Limits struct {
	MaxPayloadBytes uint64
}

func DefaultLimits() Limits {
	return Limits{MaxPayloadBytes: 8 * 1024 * 1024}
}

// IsResponse reports whether f answers an earlier request.
func (f Frame) IsResponse() bool {
	return f.Header.Flags&FlagIsResponse != 0
}

// IsError reports whether the payload is an error status rather than records.
func (f Frame) IsError() bool {
	return f.Header.Flags&FlagIsError != 0
}

func ReadFrame(r io.Reader, limits Limits) (Frame, error) {
	var fixed [FixedHeaderLen]byte
	if _, err := io.ReadFull(r, fixed[:]); err != nil {
		if errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, io.EOF) {
			return Frame{}, ErrShortHeader
		}
		return Frame{}, err
	}

	h, err := DecodeHeader(fixed[:])
	if err != nil {
		return Frame{}, err
	}
	if h.PayloadLen > limits.MaxPayloadBytes {
		return Frame{}, ErrPayloadTooLarge
	}

	payload := make([]byte, h.PayloadLen)
	if h.PayloadLen > 0 {
		if _, err := io.ReadFull(r, payload); err != nil {
			return Frame{}, err
		}
	}
	return Frame{Header: h, Payload: payload}, nil
}

func WriteFrame(w io.Writer, f Frame, limits Limits) error {
	payloadLen := uint64(len(f.Payload))
	if payloadLen > limits.MaxPayloadBytes {
		return ErrPayloadTooLarge
	}
	if !f.Header.Operation.Valid() {
		return ErrUnknownOperation
	}

	h := f.Header
	h.Magic = Magic
	h.Version = Version
	h.HeaderLen = FixedHeaderLen
	h.PayloadLen = payloadLen

	if _, err := w.Write(EncodeHeader(h)); err != nil {
		return err
	}
	if payloadLen > 0 {
		if _, err := w.Write(f.Payload); err != nil {
			return err
		}
	}
	return nil
}

func EncodeHeader(h Header) []byte {
	buf := make([]byte, FixedHeaderLen)
	binary.BigEndian.PutUint32(buf[0:4], h.Magic)
	binary.BigEndian.PutUint16(buf[4:6], h.Version)
	binary.BigEndian.PutUint16(buf[6:8], h.HeaderLen)
	binary.BigEndian.PutUint64(buf[8:16], h.CorrelationID)
	binary.BigEndian.PutUint32(buf[16:20], uint32(h.Operation))
	binary.BigEndian.PutUint32(buf[20:24], h.Flags)
	binary.BigEndian.PutUint64(buf[24:32], h.PayloadLen)
	return buf
}

func DecodeHeader(b []byte) (Header, error) {
	if len(b) != int(FixedHeaderLen) {
		return Header{}, ErrShortHeader
	}
	h := Header{
		Magic:         binary.BigEndian.Uint32(b[0:4]),
		Version:       binary.BigEndian.Uint16(b[4:6]),
		HeaderLen:     binary.BigEndian.Uint16(b[6:8]),
		CorrelationID: binary.BigEndian.Uint64(b[8:16]),
		Operation:     Operation(binary.BigEndian.Uint32(b[16:20])),
		Flags:         binary.BigEndian.Uint32(b[20:24]),
		PayloadLen:    binary.BigEndian.Uint64(b[24:32]),
	}
	if h.Magic != Magic {
		return Header{}, ErrInvalidMagic
	}
	if h.Version != Version {
		return Header{}, ErrUnsupportedVersion
	}
	if h.HeaderLen != FixedHeaderLen {
		return Header{}, ErrInvalidHeaderLen
	}
	if !h.Operation.Valid() {
		return Header{}, ErrUnknownOperation
	}
	return h, nil
}
