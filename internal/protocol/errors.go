package protocol

import "errors"

var (
	ErrMalformedRecord = errors.New("protocol: byte length is not a multiple of the record size")
	ErrUnknownOutcome  = errors.New("protocol: outcome value outside the known enumeration")
)
