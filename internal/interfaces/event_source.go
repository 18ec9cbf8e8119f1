package interfaces

import "github.com/sheikh-saqib/payments-engine/internal/models"

// EventSource yields decoded events in stream order. Next returns io.EOF
// after the last event.
type EventSource interface {
	Next() (models.Transaction, error)
}
