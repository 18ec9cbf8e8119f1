package interfaces

import (
	"context"

	"github.com/google/uuid"
	"github.com/sheikh-saqib/payments-engine/internal/models"
)

type SnapshotStore interface {
	SaveSnapshots(ctx context.Context, runID uuid.UUID, accounts []models.Account) error
	GetSnapshots(ctx context.Context, runID uuid.UUID) ([]models.Account, error)
}
