// Package types holds the ledger record shapes shared by the codec,
// the marshaler and the client: accounts, transfers, per-item create
// results and the 128-bit integer they are built on.
package types

// AccountFlags is the 16-bit account flag bitset.
type AccountFlags uint16

const (
	AccountLinked AccountFlags = 1 << iota
	AccountDebitsMustNotExceedCredits
	AccountCreditsMustNotExceedDebits
	AccountHistory
)

// TransferFlags is the 16-bit transfer flag bitset.
type TransferFlags uint16

const (
	TransferLinked TransferFlags = 1 << iota
	TransferPending
	TransferPostPendingTransfer
	TransferVoidPendingTransfer
	TransferBalancingDebit
	TransferBalancingCredit
)

// Account is one ledger account record. The four balance counters and
// Timestamp are server-owned: clients must submit them zeroed, and the
// server fills them in once the record is persisted.
type Account struct {
	ID             Uint128
	DebitsPending  Uint128
	DebitsPosted   Uint128
	CreditsPending Uint128
	CreditsPosted  Uint128
	UserData128    Uint128
	UserData64     uint64
	UserData32     uint32
	Reserved       uint32
	Ledger         uint32
	Code           uint16
	Flags          AccountFlags
	Timestamp      uint64
}

// Transfer is one ledger transfer record. PendingID references a prior
// pending transfer when posting or voiding, zero otherwise. Timeout is
// in seconds and only meaningful for pending transfers.
type Transfer struct {
	ID              Uint128
	DebitAccountID  Uint128
	CreditAccountID Uint128
	Amount          Uint128
	PendingID       Uint128
	UserData128     Uint128
	UserData64      uint64
	UserData32      uint32
	Timeout         uint32
	Ledger          uint32
	Code            uint16
	Flags           TransferFlags
	Timestamp       uint64
}

// AccountResult is one failing item of a create-accounts batch. Indices
// absent from the result list succeeded.
type AccountResult struct {
	Index   uint32
	Outcome CreateAccountOutcome
}

// TransferResult is one failing item of a create-transfers batch.
type TransferResult struct {
	Index   uint32
	Outcome CreateTransferOutcome
}
