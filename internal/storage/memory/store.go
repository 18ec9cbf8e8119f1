package memory

import (
	interfaces "github.com/sheikh-saqib/payments-engine/internal/interfaces" // interface HistoryStore
	"github.com/sheikh-saqib/payments-engine/internal/models"                // domain models: Transaction
)

// MemoryHistoryStore is an in-memory implementation of interfaces.HistoryStore.
// It belongs to a single run and is not safe for concurrent use.
type MemoryHistoryStore struct {
	transactions map[models.TxID]*models.Transaction // deposits, keyed by their TxID
	seen         map[models.TxID]struct{}            // every TxID claimed by a deposit or withdrawal
}

// NewMemoryHistoryStore creates and returns an empty MemoryHistoryStore
func NewMemoryHistoryStore() *MemoryHistoryStore {
	return &MemoryHistoryStore{
		transactions: make(map[models.TxID]*models.Transaction),
		seen:         make(map[models.TxID]struct{}),
	}
}

// Insert stores a deposit so that later disputes can find it.
// Kinds that do not require history are ignored.
func (m *MemoryHistoryStore) Insert(tx models.Transaction) {
	if !tx.RequiresHistory() {
		return
	}

	stored := tx // copy, the store owns it from here on
	m.transactions[tx.Tx] = &stored
}

// Lookup returns the stored transaction for id, if any.
func (m *MemoryHistoryStore) Lookup(id models.TxID) (*models.Transaction, bool) {
	tx, exists := m.transactions[id]
	return tx, exists
}

// Claim marks id as used by a value-moving event and reports whether it was free.
func (m *MemoryHistoryStore) Claim(id models.TxID) bool {
	if _, exists := m.seen[id]; exists {
		return false
	}
	m.seen[id] = struct{}{}
	return true
}

// Len returns the number of retained transactions.
func (m *MemoryHistoryStore) Len() int {
	return len(m.transactions)
}

// Compile-time check: ensure MemoryHistoryStore implements HistoryStore interface
var _ interfaces.HistoryStore = (*MemoryHistoryStore)(nil)
