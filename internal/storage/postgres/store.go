package postgres

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	interfaces "github.com/sheikh-saqib/payments-engine/internal/interfaces" // interface SnapshotStore
	"github.com/sheikh-saqib/payments-engine/internal/models"
)

const schema = `CREATE TABLE IF NOT EXISTS account_snapshots (
	run_id     uuid        NOT NULL,
	client     integer     NOT NULL,
	available  numeric     NOT NULL,
	held       numeric     NOT NULL,
	total      numeric     NOT NULL,
	locked     boolean     NOT NULL,
	created_at timestamptz NOT NULL,
	PRIMARY KEY (run_id, client)
)`

// PostgresSnapshotStore archives the final snapshot of every run.
type PostgresSnapshotStore struct {
	db  *sql.DB
	now func() time.Time
}

func NewPostgresSnapshotStore(db *sql.DB) *PostgresSnapshotStore {
	return &PostgresSnapshotStore{
		db:  db,
		now: time.Now,
	}
}

func (p *PostgresSnapshotStore) EnsureSchema(ctx context.Context) error {
	_, err := p.db.ExecContext(ctx, schema)
	return err
}

func (p *PostgresSnapshotStore) saveSnapshot(ctx context.Context, dbTx *sql.Tx, runID uuid.UUID, acc models.Account, createdAt time.Time) error {
	const query = `INSERT INTO account_snapshots (run_id, client, available, held, total, locked, created_at)
	VALUES ($1,$2,$3,$4,$5,$6,$7)`

	_, err := dbTx.ExecContext(ctx, query,
		runID.String(),
		int64(acc.Client),
		acc.Available,
		acc.Held,
		acc.Total,
		acc.Locked,
		createdAt,
	)
	return err
}

// SaveSnapshots writes all accounts of a run in one transaction.
func (p *PostgresSnapshotStore) SaveSnapshots(ctx context.Context, runID uuid.UUID, accounts []models.Account) (err error) {
	dbTx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}

	defer func() {
		if err != nil {
			dbTx.Rollback()
		}
	}()

	createdAt := p.now().UTC()
	for _, acc := range accounts {
		if err = p.saveSnapshot(ctx, dbTx, runID, acc, createdAt); err != nil {
			return err
		}
	}

	return dbTx.Commit()
}

func (p *PostgresSnapshotStore) GetSnapshots(ctx context.Context, runID uuid.UUID) ([]models.Account, error) {
	const query = `SELECT client, available, held, total, locked FROM account_snapshots
	WHERE run_id = $1 ORDER BY client`

	rows, err := p.db.QueryContext(ctx, query, runID.String())
	if err != nil {
		return nil, err
	}

	defer rows.Close()

	var accounts []models.Account
	for rows.Next() {
		var (
			acc    models.Account
			client int64
		)
		if err := rows.Scan(&client, &acc.Available, &acc.Held, &acc.Total, &acc.Locked); err != nil {
			return nil, err
		}
		acc.Client = models.ClientID(client)

		accounts = append(accounts, acc)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}
	return accounts, nil
}

var _ interfaces.SnapshotStore = (*PostgresSnapshotStore)(nil)
