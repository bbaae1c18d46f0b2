package marshal

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tallyledger/tally-go/internal/types"
)

const maxU128 = "340282366920938463463374607431768211455"

func TestAccountFromBag(t *testing.T) {
	a, err := AccountFromBag(map[string]any{
		"id":            maxU128,
		"user_data_128": "12345678901234567890123456789012345678",
		"user_data_64":  uint64(7),
		"user_data_32":  3,
		"ledger":        1,
		"code":          10,
		"flags":         int(types.AccountHistory),
	})
	require.NoError(t, err)

	assert.Equal(t, types.MaxUint128, a.ID)
	assert.Equal(t, uint64(7), a.UserData64)
	assert.Equal(t, uint32(3), a.UserData32)
	assert.Equal(t, uint32(1), a.Ledger)
	assert.Equal(t, uint16(10), a.Code)
	assert.Equal(t, types.AccountHistory, a.Flags)
	assert.True(t, a.DebitsPending.IsZero(), "unspecified balances stay zero")
	assert.Zero(t, a.Timestamp)
}

func TestAccountBagRoundTrip(t *testing.T) {
	in := map[string]any{
		"id":             maxU128,
		"debits_posted":  "500",
		"credits_posted": "500",
		"user_data_128":  "42",
		"user_data_64":   uint64(9),
		"ledger":         700,
		"code":           10,
		"timestamp":      uint64(12345),
	}
	first, err := AccountFromBag(in)
	require.NoError(t, err)

	// Rendering then re-marshaling reproduces the identical record.
	again, err := AccountFromBag(AccountToBag(first))
	require.NoError(t, err)
	assert.Equal(t, first, again)

	bag := AccountToBag(first)
	assert.Equal(t, maxU128, bag["id"], "128-bit fields render as decimal strings")
	assert.Equal(t, "500", bag["debits_posted"])
	assert.Equal(t, uint32(700), bag["ledger"], "narrow fields render at wire width")
	assert.Equal(t, uint16(10), bag["code"])
}

func TestTransferBagRoundTrip(t *testing.T) {
	in := map[string]any{
		"id":                "9000",
		"debit_account_id":  "1",
		"credit_account_id": "2",
		"amount":            "170141183460469231731687303715884105727",
		"timeout":           30,
		"ledger":            700,
		"code":              10,
		"flags":             int(types.TransferPending),
	}
	first, err := TransferFromBag(in)
	require.NoError(t, err)
	assert.Equal(t, types.TransferPending, first.Flags)

	again, err := TransferFromBag(TransferToBag(first))
	require.NoError(t, err)
	assert.Equal(t, first, again)
}

func TestMissingID(t *testing.T) {
	_, err := AccountFromBag(map[string]any{"ledger": 1, "code": 1})
	var missing MissingRequiredFieldError
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, "id", missing.Field)

	_, err = TransferFromBag(map[string]any{"amount": "1"})
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, "id", missing.Field)
}

func TestInvalidNumericFields(t *testing.T) {
	cases := []struct {
		name  string
		bag   map[string]any
		field string
	}{
		{"id as number", map[string]any{"id": 123}, "id"},
		{"amount not decimal", map[string]any{"id": "1", "amount": "12x4"}, "amount"},
		{"amount negative", map[string]any{"id": "1", "amount": "-5"}, "amount"},
		{"amount overflows", map[string]any{"id": "1", "amount": "340282366920938463463374607431768211456"}, "amount"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := TransferFromBag(tc.bag)
			var invalid InvalidNumericFieldError
			require.ErrorAs(t, err, &invalid)
			assert.Equal(t, tc.field, invalid.Field)
		})
	}
}

func TestFieldsOutOfRange(t *testing.T) {
	cases := []struct {
		name  string
		bag   map[string]any
		field string
	}{
		{"code too wide", map[string]any{"id": "1", "code": 70000}, "code"},
		{"ledger too wide", map[string]any{"id": "1", "ledger": uint64(1) << 40}, "ledger"},
		{"negative", map[string]any{"id": "1", "ledger": -1}, "ledger"},
		{"fractional", map[string]any{"id": "1", "user_data_64": 1.5}, "user_data_64"},
		{"non numeric", map[string]any{"id": "1", "code": "ten"}, "code"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := AccountFromBag(tc.bag)
			var out FieldOutOfRangeError
			require.ErrorAs(t, err, &out)
			assert.Equal(t, tc.field, out.Field)
		})
	}
}

func TestParseIDs(t *testing.T) {
	ids, err := ParseIDs([]string{"1", maxU128})
	require.NoError(t, err)
	require.Len(t, ids, 2)
	assert.Equal(t, types.Uint128FromUint64(1), ids[0])
	assert.Equal(t, types.MaxUint128, ids[1])

	_, err = ParseIDs([]string{"1", "nope"})
	var invalid InvalidNumericFieldError
	require.ErrorAs(t, err, &invalid)
}

func TestResultBags(t *testing.T) {
	bag := AccountResultToBag(types.AccountResult{Index: 4, Outcome: types.AccountExists})
	assert.Equal(t, uint32(4), bag["index"])
	assert.Equal(t, "exists", bag["result"])

	bag = TransferResultToBag(types.TransferResult{Index: 0, Outcome: types.TransferExceedsCredits})
	assert.Equal(t, uint32(0), bag["index"])
	assert.Equal(t, "exceeds_credits", bag["result"])
}
