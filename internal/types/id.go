package types

import (
	"encoding/binary"
	"time"

	"github.com/google/uuid"
)

// NewID returns a fresh 128-bit identifier that sorts roughly by creation
// time: the top 48 bits carry a millisecond timestamp, the remaining 80
// bits are random. Uniqueness holds across processes without coordination.
func NewID() Uint128 {
	entropy := uuid.New()
	ms := uint64(time.Now().UnixMilli()) & ((1 << 48) - 1)
	hi := ms<<16 | uint64(binary.LittleEndian.Uint16(entropy[0:2]))
	lo := binary.LittleEndian.Uint64(entropy[2:10])
	return Uint128{Lo: lo, Hi: hi}
}
