package protocol

import (
	"encoding/binary"
	"fmt"

	"github.com/tallyledger/tally-go/internal/types"
)

// DecodeAccounts unpacks a sequence of 128-byte account records. An empty
// input yields an empty sequence; a length that is not a multiple of the
// record size is a malformed-record error.
func DecodeAccounts(b []byte) ([]types.Account, error) {
	if len(b)%AccountSize != 0 {
		return nil, fmt.Errorf("%w: %d bytes, account record is %d", ErrMalformedRecord, len(b), AccountSize)
	}
	accounts := make([]types.Account, len(b)/AccountSize)
	for i := range accounts {
		decodeAccount(b[i*AccountSize:(i+1)*AccountSize], &accounts[i])
	}
	return accounts, nil
}

func decodeAccount(b []byte, a *types.Account) {
	a.ID = types.Uint128FromBytes(b[0:16])
	a.DebitsPending = types.Uint128FromBytes(b[16:32])
	a.DebitsPosted = types.Uint128FromBytes(b[32:48])
	a.CreditsPending = types.Uint128FromBytes(b[48:64])
	a.CreditsPosted = types.Uint128FromBytes(b[64:80])
	a.UserData128 = types.Uint128FromBytes(b[80:96])
	a.UserData64 = binary.LittleEndian.Uint64(b[96:104])
	a.UserData32 = binary.LittleEndian.Uint32(b[104:108])
	a.Reserved = binary.LittleEndian.Uint32(b[108:112])
	a.Ledger = binary.LittleEndian.Uint32(b[112:116])
	a.Code = binary.LittleEndian.Uint16(b[116:118])
	a.Flags = types.AccountFlags(binary.LittleEndian.Uint16(b[118:120]))
	a.Timestamp = binary.LittleEndian.Uint64(b[120:128])
}

// DecodeTransfers unpacks a sequence of 128-byte transfer records.
func DecodeTransfers(b []byte) ([]types.Transfer, error) {
	if len(b)%TransferSize != 0 {
		return nil, fmt.Errorf("%w: %d bytes, transfer record is %d", ErrMalformedRecord, len(b), TransferSize)
	}
	transfers := make([]types.Transfer, len(b)/TransferSize)
	for i := range transfers {
		decodeTransfer(b[i*TransferSize:(i+1)*TransferSize], &transfers[i])
	}
	return transfers, nil
}

func decodeTransfer(b []byte, t *types.Transfer) {
	t.ID = types.Uint128FromBytes(b[0:16])
	t.DebitAccountID = types.Uint128FromBytes(b[16:32])
	t.CreditAccountID = types.Uint128FromBytes(b[32:48])
	t.Amount = types.Uint128FromBytes(b[48:64])
	t.PendingID = types.Uint128FromBytes(b[64:80])
	t.UserData128 = types.Uint128FromBytes(b[80:96])
	t.UserData64 = binary.LittleEndian.Uint64(b[96:104])
	t.UserData32 = binary.LittleEndian.Uint32(b[104:108])
	t.Timeout = binary.LittleEndian.Uint32(b[108:112])
	t.Ledger = binary.LittleEndian.Uint32(b[112:116])
	t.Code = binary.LittleEndian.Uint16(b[116:118])
	t.Flags = types.TransferFlags(binary.LittleEndian.Uint16(b[118:120]))
	t.Timestamp = binary.LittleEndian.Uint64(b[120:128])
}

// DecodeIDs unpacks a 16-byte-per-entry id list.
func DecodeIDs(b []byte) ([]types.Uint128, error) {
	if len(b)%IDSize != 0 {
		return nil, fmt.Errorf("%w: %d bytes, id is %d", ErrMalformedRecord, len(b), IDSize)
	}
	ids := make([]types.Uint128, len(b)/IDSize)
	for i := range ids {
		ids[i] = types.Uint128FromBytes(b[i*IDSize : (i+1)*IDSize])
	}
	return ids, nil
}

// DecodeAccountResults unpacks (index, outcome) pairs. An outcome outside
// the closed enumeration fails decoding rather than defaulting.
func DecodeAccountResults(b []byte) ([]types.AccountResult, error) {
	if len(b)%ResultSize != 0 {
		return nil, fmt.Errorf("%w: %d bytes, result entry is %d", ErrMalformedRecord, len(b), ResultSize)
	}
	results := make([]types.AccountResult, len(b)/ResultSize)
	for i := range results {
		index := binary.LittleEndian.Uint32(b[i*ResultSize:])
		outcome := types.CreateAccountOutcome(binary.LittleEndian.Uint32(b[i*ResultSize+4:]))
		if !outcome.Known() {
			return nil, fmt.Errorf("%w: account outcome %d at entry %d", ErrUnknownOutcome, uint32(outcome), i)
		}
		results[i] = types.AccountResult{Index: index, Outcome: outcome}
	}
	return results, nil
}

// DecodeTransferResults unpacks (index, outcome) pairs for transfers.
func DecodeTransferResults(b []byte) ([]types.TransferResult, error) {
	if len(b)%ResultSize != 0 {
		return nil, fmt.Errorf("%w: %d bytes, result entry is %d", ErrMalformedRecord, len(b), ResultSize)
	}
	results := make([]types.TransferResult, len(b)/ResultSize)
	for i := range results {
		index := binary.LittleEndian.Uint32(b[i*ResultSize:])
		outcome := types.CreateTransferOutcome(binary.LittleEndian.Uint32(b[i*ResultSize+4:]))
		if !outcome.Known() {
			return nil, fmt.Errorf("%w: transfer outcome %d at entry %d", ErrUnknownOutcome, uint32(outcome), i)
		}
		results[i] = types.TransferResult{Index: index, Outcome: outcome}
	}
	return results, nil
}
