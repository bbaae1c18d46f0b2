// Package marshal translates between application-facing value bags
// (field name to loosely-typed value) and the strict record types the
// codec understands. The forward direction validates; the reverse
// direction always succeeds and re-renders every 128-bit field as a
// canonical decimal string so that marshaling round-trips exactly.
package marshal

import (
	"github.com/tallyledger/tally-go/internal/types"
)

// AccountFromBag builds an Account record from a value bag. Missing
// optional fields default to zero; id is mandatory. Balance counters and
// timestamp stay zero unless explicitly supplied, keeping client-built
// records server-assignable.
func AccountFromBag(bag map[string]any) (types.Account, error) {
	var a types.Account
	var err error

	if a.ID, err = bagID(bag, "id"); err != nil {
		return types.Account{}, err
	}
	if a.DebitsPending, err = bagUint128(bag, "debits_pending"); err != nil {
		return types.Account{}, err
	}
	if a.DebitsPosted, err = bagUint128(bag, "debits_posted"); err != nil {
		return types.Account{}, err
	}
	if a.CreditsPending, err = bagUint128(bag, "credits_pending"); err != nil {
		return types.Account{}, err
	}
	if a.CreditsPosted, err = bagUint128(bag, "credits_posted"); err != nil {
		return types.Account{}, err
	}
	if a.UserData128, err = bagUint128(bag, "user_data_128"); err != nil {
		return types.Account{}, err
	}
	if a.UserData64, err = bagUint64(bag, "user_data_64"); err != nil {
		return types.Account{}, err
	}
	if a.UserData32, err = bagUint32(bag, "user_data_32"); err != nil {
		return types.Account{}, err
	}
	if a.Ledger, err = bagUint32(bag, "ledger"); err != nil {
		return types.Account{}, err
	}
	if a.Code, err = bagUint16(bag, "code"); err != nil {
		return types.Account{}, err
	}
	flags, err := bagUint16(bag, "flags")
	if err != nil {
		return types.Account{}, err
	}
	a.Flags = types.AccountFlags(flags)
	if a.Timestamp, err = bagUint64(bag, "timestamp"); err != nil {
		return types.Account{}, err
	}
	return a, nil
}

// TransferFromBag builds a Transfer record from a value bag.
func TransferFromBag(bag map[string]any) (types.Transfer, error) {
	var t types.Transfer
	var err error

	if t.ID, err = bagID(bag, "id"); err != nil {
		return types.Transfer{}, err
	}
	if t.DebitAccountID, err = bagUint128(bag, "debit_account_id"); err != nil {
		return types.Transfer{}, err
	}
	if t.CreditAccountID, err = bagUint128(bag, "credit_account_id"); err != nil {
		return types.Transfer{}, err
	}
	if t.Amount, err = bagUint128(bag, "amount"); err != nil {
		return types.Transfer{}, err
	}
	if t.PendingID, err = bagUint128(bag, "pending_id"); err != nil {
		return types.Transfer{}, err
	}
	if t.UserData128, err = bagUint128(bag, "user_data_128"); err != nil {
		return types.Transfer{}, err
	}
	if t.UserData64, err = bagUint64(bag, "user_data_64"); err != nil {
		return types.Transfer{}, err
	}
	if t.UserData32, err = bagUint32(bag, "user_data_32"); err != nil {
		return types.Transfer{}, err
	}
	if t.Timeout, err = bagUint32(bag, "timeout"); err != nil {
		return types.Transfer{}, err
	}
	if t.Ledger, err = bagUint32(bag, "ledger"); err != nil {
		return types.Transfer{}, err
	}
	if t.Code, err = bagUint16(bag, "code"); err != nil {
		return types.Transfer{}, err
	}
	flags, err := bagUint16(bag, "flags")
	if err != nil {
		return types.Transfer{}, err
	}
	t.Flags = types.TransferFlags(flags)
	if t.Timestamp, err = bagUint64(bag, "timestamp"); err != nil {
		return types.Transfer{}, err
	}
	return t, nil
}

// ParseIDs parses an ordered list of 128-bit decimal id strings.
func ParseIDs(raw []string) ([]types.Uint128, error) {
	ids := make([]types.Uint128, len(raw))
	for i, s := range raw {
		id, err := types.ParseUint128(s)
		if err != nil {
			return nil, InvalidNumericFieldError{Field: "id"}
		}
		ids[i] = id
	}
	return ids, nil
}
