package models

import (
	"github.com/shopspring/decimal"
)

// Account is the balance record of one client.
// Total is always Available + Held between events; Locked never goes back to false.
type Account struct {
	Client    ClientID
	Available decimal.Decimal
	Held      decimal.Decimal
	Total     decimal.Decimal
	Locked    bool // set by a successful chargeback
}

// NewAccount returns an empty, unlocked account for client.
func NewAccount(client ClientID) *Account {
	return &Account{
		Client:    client,
		Available: decimal.Zero,
		Held:      decimal.Zero,
		Total:     decimal.Zero,
	}
}

// Balanced reports whether Total equals Available + Held.
func (a Account) Balanced() bool {
	return a.Total.Equal(a.Available.Add(a.Held))
}
