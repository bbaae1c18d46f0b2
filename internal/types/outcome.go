package types

// CreateAccountOutcome classifies one create-accounts batch item.
// The enumeration is closed: wire values past the last constant are a
// decode error, never a silent default.
type CreateAccountOutcome uint32

const (
	AccountOK CreateAccountOutcome = iota
	AccountLinkedEventFailed
	AccountIDMustNotBeZero
	AccountIDMustNotBeIntMax
	AccountFlagsAreMutuallyExclusive
	AccountLedgerMustNotBeZero
	AccountCodeMustNotBeZero
	AccountDebitsPendingMustBeZero
	AccountDebitsPostedMustBeZero
	AccountCreditsPendingMustBeZero
	AccountCreditsPostedMustBeZero
	AccountTimestampMustBeZero
	AccountExists
	AccountExistsWithDifferentFlags
	AccountExistsWithDifferentUserData
	AccountExistsWithDifferentLedger
	AccountExistsWithDifferentCode

	accountOutcomeCount
)

var accountOutcomeNames = [...]string{
	"ok",
	"linked_event_failed",
	"id_must_not_be_zero",
	"id_must_not_be_int_max",
	"flags_are_mutually_exclusive",
	"ledger_must_not_be_zero",
	"code_must_not_be_zero",
	"debits_pending_must_be_zero",
	"debits_posted_must_be_zero",
	"credits_pending_must_be_zero",
	"credits_posted_must_be_zero",
	"timestamp_must_be_zero",
	"exists",
	"exists_with_different_flags",
	"exists_with_different_user_data",
	"exists_with_different_ledger",
	"exists_with_different_code",
}

// Known reports whether o is inside the closed enumeration.
func (o CreateAccountOutcome) Known() bool {
	return o < accountOutcomeCount
}

func (o CreateAccountOutcome) String() string {
	if !o.Known() {
		return "unknown"
	}
	return accountOutcomeNames[o]
}

// CreateTransferOutcome classifies one create-transfers batch item.
type CreateTransferOutcome uint32

const (
	TransferOK CreateTransferOutcome = iota
	TransferLinkedEventFailed
	TransferIDMustNotBeZero
	TransferDebitAccountIDMustNotBeZero
	TransferCreditAccountIDMustNotBeZero
	TransferAccountsMustBeDifferent
	TransferPendingIDMustBeZero
	TransferPendingIDMustNotBeZero
	TransferPendingTransferNotFound
	TransferPendingTransferNotPending
	TransferPendingTransferAlreadyPosted
	TransferPendingTransferAlreadyVoided
	TransferTimeoutReservedForPendingTransfer
	TransferLedgerMustNotBeZero
	TransferCodeMustNotBeZero
	TransferDebitAccountNotFound
	TransferCreditAccountNotFound
	TransferAccountsMustHaveTheSameLedger
	TransferTimestampMustBeZero
	TransferExceedsCredits
	TransferExceedsDebits
	TransferExists
	TransferExistsWithDifferentFlags

	transferOutcomeCount
)

var transferOutcomeNames = [...]string{
	"ok",
	"linked_event_failed",
	"id_must_not_be_zero",
	"debit_account_id_must_not_be_zero",
	"credit_account_id_must_not_be_zero",
	"accounts_must_be_different",
	"pending_id_must_be_zero",
	"pending_id_must_not_be_zero",
	"pending_transfer_not_found",
	"pending_transfer_not_pending",
	"pending_transfer_already_posted",
	"pending_transfer_already_voided",
	"timeout_reserved_for_pending_transfer",
	"ledger_must_not_be_zero",
	"code_must_not_be_zero",
	"debit_account_not_found",
	"credit_account_not_found",
	"accounts_must_have_the_same_ledger",
	"timestamp_must_be_zero",
	"exceeds_credits",
	"exceeds_debits",
	"exists",
	"exists_with_different_flags",
}

// Known reports whether o is inside the closed enumeration.
func (o CreateTransferOutcome) Known() bool {
	return o < transferOutcomeCount
}

func (o CreateTransferOutcome) String() string {
	if !o.Known() {
		return "unknown"
	}
	return transferOutcomeNames[o]
}
