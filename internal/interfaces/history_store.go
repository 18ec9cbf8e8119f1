package interfaces

import (
	"github.com/sheikh-saqib/payments-engine/internal/models"
)

// HistoryStore keeps deposits for later dispute lookups and remembers every
// TxID claimed by a value-moving event.
type HistoryStore interface {
	Insert(tx models.Transaction)
	// Lookup returns a handle to the stored transaction. Changes to its
	// State through the handle are kept.
	Lookup(id models.TxID) (*models.Transaction, bool)
	// Claim records id as used. It reports false if id was already claimed.
	Claim(id models.TxID) bool
}
