package interfaces

import (
	"context"

	"github.com/google/uuid"
	"github.com/sheikh-saqib/payments-engine/internal/models"
)

type SnapshotPublisher interface {
	PublishSnapshots(ctx context.Context, runID uuid.UUID, accounts []models.Account) error
	Close() error
}
