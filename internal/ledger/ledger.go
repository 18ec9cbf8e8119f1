package ledger

import (
	"errors"
	"fmt"
	"io"

	"go.uber.org/zap"

	interfaces "github.com/sheikh-saqib/payments-engine/internal/interfaces"
	"github.com/sheikh-saqib/payments-engine/internal/models"
)

// ErrDuplicateTx aborts a run: a deposit or withdrawal reused a TxID.
var ErrDuplicateTx = errors.New("deposit and withdrawal transaction ids must be globally unique")

// Stats counts what happened to the events of a run.
type Stats struct {
	Events  int
	Applied int
	Skipped map[Outcome]int
}

// Ledger routes events to accounts and keeps the history needed for disputes.
// A Ledger holds the state of one run; build a new one for each input stream.
type Ledger struct {
	store    interfaces.HistoryStore // deposits and claimed TxIDs
	logger   *zap.Logger
	accounts map[models.ClientID]*models.Account
	order    []models.ClientID // first contact order, used for snapshots
	stats    Stats
}

// NewLedger creates a Ledger over store. A nil logger discards all logs.
func NewLedger(store interfaces.HistoryStore, logger *zap.Logger) *Ledger {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Ledger{
		store:    store,
		logger:   logger,
		accounts: make(map[models.ClientID]*models.Account),
		stats:    Stats{Skipped: make(map[Outcome]int)},
	}
}

// Process applies every event of src in order and returns the snapshot of
// each touched account. Decode errors and duplicate TxIDs abort the run and
// no snapshot is returned.
func (l *Ledger) Process(src interfaces.EventSource) ([]models.Account, error) {
	for {
		tx, err := src.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}

		if err := l.Post(tx); err != nil {
			return nil, err
		}
	}

	return l.Snapshot(), nil
}

// Post applies a single event. Events that cannot be applied are skipped and
// logged; only a duplicate TxID is returned as an error.
func (l *Ledger) Post(tx models.Transaction) error {
	l.stats.Events++

	// malformed amounts never reach an account
	if err := tx.Validate(); err != nil {
		l.skip(tx, SkippedInvalidAmount, zap.Error(err))
		return nil
	}

	// claim before applying: a skipped withdrawal still uses up its TxID
	if tx.RequiresUniqueTx() && !l.store.Claim(tx.Tx) {
		return fmt.Errorf("%s by client %s reuses tx %s: %w", tx.Kind, tx.Client, tx.Tx, ErrDuplicateTx)
	}

	account := l.account(tx.Client) // created on first contact

	var ref *models.Transaction
	if !tx.Kind.MovesValue() {
		if stored, exists := l.store.Lookup(tx.Tx); exists {
			// a client can only act on its own transactions
			if stored.Client != tx.Client {
				l.skip(tx, SkippedCrossClient, zap.Stringer("owner", stored.Client))
				return nil
			}
			ref = stored
		}
	}

	// Apply decides and mutates; ref is only borrowed for this call
	outcome := Apply(account, tx, ref)
	if outcome == Applied {
		l.stats.Applied++
	} else {
		l.skip(tx, outcome)
	}

	// deposits are retained whatever the outcome, including ones ignored
	// on a locked account
	if tx.RequiresHistory() {
		l.store.Insert(tx)
	}
	return nil
}

// Snapshot returns a copy of every touched account in first contact order.
func (l *Ledger) Snapshot() []models.Account {
	snapshot := make([]models.Account, 0, len(l.order))
	for _, client := range l.order {
		snapshot = append(snapshot, *l.accounts[client])
	}
	return snapshot
}

func (l *Ledger) Stats() Stats {
	skipped := make(map[Outcome]int, len(l.stats.Skipped))
	for outcome, n := range l.stats.Skipped {
		skipped[outcome] = n
	}
	return Stats{Events: l.stats.Events, Applied: l.stats.Applied, Skipped: skipped}
}

func (l *Ledger) account(client models.ClientID) *models.Account {
	if account, exists := l.accounts[client]; exists {
		return account
	}

	account := models.NewAccount(client)
	l.accounts[client] = account
	l.order = append(l.order, client)
	return account
}

func (l *Ledger) skip(tx models.Transaction, outcome Outcome, fields ...zap.Field) {
	l.stats.Skipped[outcome]++
	l.logger.Debug("skipped transaction", append([]zap.Field{
		zap.Stringer("type", tx.Kind),
		zap.Stringer("client", tx.Client),
		zap.Stringer("tx", tx.Tx),
		zap.String("reason", string(outcome)),
	}, fields...)...)
}
