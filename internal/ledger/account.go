package ledger

import (
	"github.com/shopspring/decimal"

	"github.com/sheikh-saqib/payments-engine/internal/models"
)

// Outcome tells what Apply (or the driver) did with an event.
type Outcome string

const (
	Applied Outcome = "applied"

	SkippedInvalidAmount     Outcome = "invalid_amount"
	SkippedLocked            Outcome = "account_locked"
	SkippedInsufficientFunds Outcome = "insufficient_funds"
	SkippedMissingReference  Outcome = "missing_reference"
	SkippedReferenceKind     Outcome = "reference_not_deposit"
	SkippedReferenceState    Outcome = "reference_wrong_state"
	SkippedNonPositiveAmount Outcome = "reference_non_positive_amount"
	SkippedCrossClient       Outcome = "cross_client_reference"
	SkippedUnknownKind       Outcome = "unknown_kind"
)

// Apply mutates account according to tx. ref is the transaction a
// dispute-family event points at, or nil. Apply is the only code that changes
// ref.State. An event is either applied in full or not at all.
func Apply(account *models.Account, tx models.Transaction, ref *models.Transaction) Outcome {
	// a locked account takes no more money in or out, but disputes on it
	// still run to completion
	if account.Locked && tx.Kind.MovesValue() {
		return SkippedLocked
	}

	switch tx.Kind {
	case models.Deposit:
		amount, _ := tx.Amount()
		account.Available = account.Available.Add(amount)
		account.Total = account.Total.Add(amount)
		return Applied

	case models.Withdrawal:
		amount, _ := tx.Amount()
		// insufficient funds is not an error, the withdrawal is dropped
		if account.Available.LessThan(amount) {
			return SkippedInsufficientFunds
		}
		account.Available = account.Available.Sub(amount)
		account.Total = account.Total.Sub(amount)
		return Applied

	case models.Dispute:
		amount, outcome := disputable(ref, models.Open)
		if outcome != Applied {
			return outcome
		}
		account.Available = account.Available.Sub(amount) // may go negative
		account.Held = account.Held.Add(amount)
		ref.State = models.ActiveDispute
		return Applied

	case models.Resolve:
		amount, outcome := disputable(ref, models.ActiveDispute)
		if outcome != Applied {
			return outcome
		}
		account.Available = account.Available.Add(amount)
		account.Held = account.Held.Sub(amount)
		ref.State = models.Open
		return Applied

	case models.Chargeback:
		amount, outcome := disputable(ref, models.ActiveDispute)
		if outcome != Applied {
			return outcome
		}
		account.Total = account.Total.Sub(amount)
		account.Held = account.Held.Sub(amount)
		account.Locked = true          // permanent
		ref.State = models.ChargedBack // terminal
		return Applied
	}

	// only reachable with a hand-built Transaction outside the closed set
	return SkippedUnknownKind
}

// disputable checks that ref is a deposit in state want with a positive
// amount, and returns that amount.
func disputable(ref *models.Transaction, want models.DisputeState) (decimal.Decimal, Outcome) {
	if ref == nil {
		return decimal.Zero, SkippedMissingReference
	}
	if ref.Kind != models.Deposit {
		return decimal.Zero, SkippedReferenceKind
	}
	if ref.State != want {
		return decimal.Zero, SkippedReferenceState
	}
	amount, _ := ref.Amount()
	if !amount.IsPositive() {
		return decimal.Zero, SkippedNonPositiveAmount
	}
	return amount, Applied
}
