package protocol

import (
	"encoding/binary"

	"github.com/tallyledger/tally-go/internal/types"
)

// Record and payload element sizes in bytes. These widths are part of the
// wire contract with the ledger engine and must never drift.
const (
	AccountSize  = 128
	TransferSize = 128
	ResultSize   = 8
	IDSize       = 16
)

// EncodeAccounts packs accounts into their 128-byte wire layout.
func EncodeAccounts(accounts []types.Account) []byte {
	buf := make([]byte, len(accounts)*AccountSize)
	for i := range accounts {
		encodeAccount(buf[i*AccountSize:(i+1)*AccountSize], &accounts[i])
	}
	return buf
}

func encodeAccount(b []byte, a *types.Account) {
	a.ID.PutBytes(b[0:16])
	a.DebitsPending.PutBytes(b[16:32])
	a.DebitsPosted.PutBytes(b[32:48])
	a.CreditsPending.PutBytes(b[48:64])
	a.CreditsPosted.PutBytes(b[64:80])
	a.UserData128.PutBytes(b[80:96])
	binary.LittleEndian.PutUint64(b[96:104], a.UserData64)
	binary.LittleEndian.PutUint32(b[104:108], a.UserData32)
	binary.LittleEndian.PutUint32(b[108:112], a.Reserved)
	binary.LittleEndian.PutUint32(b[112:116], a.Ledger)
	binary.LittleEndian.PutUint16(b[116:118], a.Code)
	binary.LittleEndian.PutUint16(b[118:120], uint16(a.Flags))
	binary.LittleEndian.PutUint64(b[120:128], a.Timestamp)
}

// EncodeTransfers packs transfers into their 128-byte wire layout.
func EncodeTransfers(transfers []types.Transfer) []byte {
	buf := make([]byte, len(transfers)*TransferSize)
	for i := range transfers {
		encodeTransfer(buf[i*TransferSize:(i+1)*TransferSize], &transfers[i])
	}
	return buf
}

func encodeTransfer(b []byte, t *types.Transfer) {
	t.ID.PutBytes(b[0:16])
	t.DebitAccountID.PutBytes(b[16:32])
	t.CreditAccountID.PutBytes(b[32:48])
	t.Amount.PutBytes(b[48:64])
	t.PendingID.PutBytes(b[64:80])
	t.UserData128.PutBytes(b[80:96])
	binary.LittleEndian.PutUint64(b[96:104], t.UserData64)
	binary.LittleEndian.PutUint32(b[104:108], t.UserData32)
	binary.LittleEndian.PutUint32(b[108:112], t.Timeout)
	binary.LittleEndian.PutUint32(b[112:116], t.Ledger)
	binary.LittleEndian.PutUint16(b[116:118], t.Code)
	binary.LittleEndian.PutUint16(b[118:120], uint16(t.Flags))
	binary.LittleEndian.PutUint64(b[120:128], t.Timestamp)
}

// EncodeIDs packs a lookup id list, 16 bytes per id, in caller order.
func EncodeIDs(ids []types.Uint128) []byte {
	buf := make([]byte, len(ids)*IDSize)
	for i, id := range ids {
		id.PutBytes(buf[i*IDSize : (i+1)*IDSize])
	}
	return buf
}

// EncodeAccountResults packs per-item create-accounts results. Only the
// engine emits these; the client-side encoder exists for loopback peers.
func EncodeAccountResults(results []types.AccountResult) []byte {
	buf := make([]byte, len(results)*ResultSize)
	for i, r := range results {
		binary.LittleEndian.PutUint32(buf[i*ResultSize:], r.Index)
		binary.LittleEndian.PutUint32(buf[i*ResultSize+4:], uint32(r.Outcome))
	}
	return buf
}

// EncodeTransferResults packs per-item create-transfers results.
func EncodeTransferResults(results []types.TransferResult) []byte {
	buf := make([]byte, len(results)*ResultSize)
	for i, r := range results {
		binary.LittleEndian.PutUint32(buf[i*ResultSize:], r.Index)
		binary.LittleEndian.PutUint32(buf[i*ResultSize+4:], uint32(r.Outcome))
	}
	return buf
}
