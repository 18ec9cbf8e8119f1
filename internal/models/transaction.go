package models

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/shopspring/decimal"
)

// MaxScale is the number of fractional digits an amount may carry.
const MaxScale int64 = 4

var (
	ErrNegativeAmount  = errors.New("amount must not be negative")
	ErrExcessPrecision = fmt.Errorf("amount must not exceed %d decimal places", MaxScale)
)

// ClientID identifies an account. Assigned by the input stream.
type ClientID uint16

func (c ClientID) String() string {
	return strconv.FormatUint(uint64(c), 10)
}

// TxID identifies a transaction. Dispute-family events reuse the TxID of the
// deposit they reference.
type TxID uint32

func (t TxID) String() string {
	return strconv.FormatUint(uint64(t), 10)
}

// EventKind is the type of a ledger event.
type EventKind uint8

const (
	Deposit EventKind = iota + 1
	Withdrawal
	Dispute
	Resolve
	Chargeback
)

var kindNames = map[EventKind]string{
	Deposit:    "deposit",
	Withdrawal: "withdrawal",
	Dispute:    "dispute",
	Resolve:    "resolve",
	Chargeback: "chargeback",
}

func (k EventKind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "unknown"
}

// ParseEventKind maps the lowercase literal used in the input table to an
// EventKind.
func ParseEventKind(s string) (EventKind, bool) {
	for kind, name := range kindNames {
		if name == s {
			return kind, true
		}
	}
	return 0, false
}

// MovesValue reports whether the kind carries an amount of its own.
func (k EventKind) MovesValue() bool {
	return k == Deposit || k == Withdrawal
}

// DisputeState is the lifecycle of a transaction retained in history.
type DisputeState uint8

const (
	Open DisputeState = iota
	ActiveDispute
	ChargedBack
)

func (s DisputeState) String() string {
	switch s {
	case Open:
		return "open"
	case ActiveDispute:
		return "active_dispute"
	case ChargedBack:
		return "charged_back"
	default:
		return "unknown"
	}
}

// Transaction is one ledger event. Only deposits and withdrawals carry an
// amount; the other kinds act on the transaction identified by Tx.
type Transaction struct {
	Kind   EventKind
	Client ClientID
	Tx     TxID
	State  DisputeState

	amount decimal.Decimal
}

func NewDeposit(client ClientID, tx TxID, amount decimal.Decimal) Transaction {
	return Transaction{Kind: Deposit, Client: client, Tx: tx, amount: amount}
}

func NewWithdrawal(client ClientID, tx TxID, amount decimal.Decimal) Transaction {
	return Transaction{Kind: Withdrawal, Client: client, Tx: tx, amount: amount}
}

func NewDispute(client ClientID, tx TxID) Transaction {
	return Transaction{Kind: Dispute, Client: client, Tx: tx}
}

func NewResolve(client ClientID, tx TxID) Transaction {
	return Transaction{Kind: Resolve, Client: client, Tx: tx}
}

func NewChargeback(client ClientID, tx TxID) Transaction {
	return Transaction{Kind: Chargeback, Client: client, Tx: tx}
}

// NewTransaction builds a transaction of any kind. The amount is dropped for
// dispute-family kinds.
func NewTransaction(kind EventKind, client ClientID, tx TxID, amount decimal.Decimal) Transaction {
	t := Transaction{Kind: kind, Client: client, Tx: tx}
	if kind.MovesValue() {
		t.amount = amount
	}
	return t
}

// Amount returns the amount of a deposit or withdrawal. ok is false for
// dispute-family events, which have none.
func (t Transaction) Amount() (amount decimal.Decimal, ok bool) {
	if !t.Kind.MovesValue() {
		return decimal.Zero, false
	}
	return t.amount, true
}

// Validate rejects negative amounts and amounts with more than MaxScale
// fractional digits. Extra digits are never rounded away. Zero is valid.
func (t Transaction) Validate() error {
	amount, ok := t.Amount()
	if !ok {
		return nil
	}
	if amount.IsNegative() {
		return fmt.Errorf("tx %s: %w", t.Tx, ErrNegativeAmount)
	}
	if Scale(amount) > MaxScale {
		return fmt.Errorf("tx %s: %w", t.Tx, ErrExcessPrecision)
	}
	return nil
}

// RequiresUniqueTx reports whether the event needs a TxID never used before by
// another value-moving event.
func (t Transaction) RequiresUniqueTx() bool {
	return t.Kind.MovesValue()
}

// RequiresHistory reports whether the event must be kept so later disputes can
// reference it. Withdrawals are final and are not retained.
func (t Transaction) RequiresHistory() bool {
	return t.Kind == Deposit
}

// Scale returns the number of fractional digits in d as written.
// Widened to int64 so the smallest int32 exponent does not wrap.
func Scale(d decimal.Decimal) int64 {
	if exp := int64(d.Exponent()); exp < 0 {
		return -exp
	}
	return 0
}
