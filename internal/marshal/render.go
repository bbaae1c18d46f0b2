package marshal

import (
	"github.com/tallyledger/tally-go/internal/types"
)

// AccountToBag renders an account record back into its canonical value
// bag: 128-bit fields as decimal strings without leading zeros, narrower
// fields as unsigned integers of their wire width.
func AccountToBag(a types.Account) map[string]any {
	return map[string]any{
		"id":              a.ID.String(),
		"debits_pending":  a.DebitsPending.String(),
		"debits_posted":   a.DebitsPosted.String(),
		"credits_pending": a.CreditsPending.String(),
		"credits_posted":  a.CreditsPosted.String(),
		"user_data_128":   a.UserData128.String(),
		"user_data_64":    a.UserData64,
		"user_data_32":    a.UserData32,
		"ledger":          a.Ledger,
		"code":            a.Code,
		"flags":           uint16(a.Flags),
		"timestamp":       a.Timestamp,
	}
}

// TransferToBag renders a transfer record back into its canonical value bag.
func TransferToBag(t types.Transfer) map[string]any {
	return map[string]any{
		"id":                t.ID.String(),
		"debit_account_id":  t.DebitAccountID.String(),
		"credit_account_id": t.CreditAccountID.String(),
		"amount":            t.Amount.String(),
		"pending_id":        t.PendingID.String(),
		"user_data_128":     t.UserData128.String(),
		"user_data_64":      t.UserData64,
		"user_data_32":      t.UserData32,
		"timeout":           t.Timeout,
		"ledger":            t.Ledger,
		"code":              t.Code,
		"flags":             uint16(t.Flags),
		"timestamp":         t.Timestamp,
	}
}

// AccountResultToBag renders one failing create-accounts item.
func AccountResultToBag(r types.AccountResult) map[string]any {
	return map[string]any{
		"index":  r.Index,
		"result": r.Outcome.String(),
	}
}

// TransferResultToBag renders one failing create-transfers item.
func TransferResultToBag(r types.TransferResult) map[string]any {
	return map[string]any{
		"index":  r.Index,
		"result": r.Outcome.String(),
	}
}
