// Package store persists run output to PostgreSQL.
//
// Every output table carries a run_id column referencing fleet_runs, so the
// full output of a run is written, and can be deleted, as one unit.
package store

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/JonMunkholm/fleetfact/internal/config"
	"github.com/JonMunkholm/fleetfact/internal/core"
	"github.com/JonMunkholm/fleetfact/internal/schema"
)

// DBTX is the query surface shared by *pgxpool.Pool and pgx.Tx.
type DBTX interface {
	Exec(context.Context, string, ...any) (pgconn.CommandTag, error)
	CopyFrom(ctx context.Context, tableName pgx.Identifier, columnNames []string, rowSrc pgx.CopyFromSource) (int64, error)
}

// Pool is a DBTX that can open transactions.
type Pool interface {
	DBTX
	Begin(ctx context.Context) (pgx.Tx, error)
}

// Open creates and verifies a connection pool.
func Open(ctx context.Context, cfg config.DatabaseConfig) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse database URL: %w", err)
	}

	poolConfig.MaxConns = int32(cfg.MaxConns)
	poolConfig.MinConns = int32(cfg.MinConns)
	poolConfig.MaxConnLifetime = cfg.MaxConnLifetime
	poolConfig.MaxConnIdleTime = cfg.MaxConnIdleTime

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return pool, nil
}

// Store writes runs and their output tables.
type Store struct {
	db Pool
}

// New wraps db.
func New(db Pool) *Store {
	return &Store{db: db}
}

// EnsureSchema creates the runs table and every output table when missing.
func (s *Store) EnsureSchema(ctx context.Context) error {
	specs := append([]schema.TableSpec{schema.RunsTable}, schema.Outputs...)
	for _, spec := range specs {
		if _, err := s.db.Exec(ctx, spec.CreateSQL()); err != nil {
			return fmt.Errorf("create table %s: %w", spec.Name, err)
		}
	}
	return nil
}

// RunRecord is the fleet_runs row of one run.
type RunRecord struct {
	ID              uuid.UUID
	StartedAt       time.Time
	FinishedAt      time.Time
	OperationsFile  string
	MaintenanceFile string
	OperationsRows  int
	MaintenanceRows int
	CleanRows       int
	Report          any // Marshaled to JSON
	Evaluation      any // Marshaled to JSON; nil stores NULL
}

const insertRunSQL = `INSERT INTO fleet_runs
	(id, started_at, finished_at, operations_file, maintenance_file,
	 operations_rows, maintenance_rows, clean_rows, report, evaluation)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

// SaveRun writes the run row and every view in one transaction and returns
// the number of output rows copied.
func (s *Store) SaveRun(ctx context.Context, rec RunRecord, views []core.View) (int64, error) {
	report, err := json.Marshal(rec.Report)
	if err != nil {
		return 0, fmt.Errorf("marshal report: %w", err)
	}
	var evaluation []byte
	if rec.Evaluation != nil {
		if evaluation, err = json.Marshal(rec.Evaluation); err != nil {
			return 0, fmt.Errorf("marshal evaluation: %w", err)
		}
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx) // No-op if already committed

	runID := pgUUID(rec.ID)
	if _, err := tx.Exec(ctx, insertRunSQL,
		runID, rec.StartedAt, rec.FinishedAt, rec.OperationsFile, rec.MaintenanceFile,
		rec.OperationsRows, rec.MaintenanceRows, rec.CleanRows, report, evaluation,
	); err != nil {
		return 0, fmt.Errorf("insert run: %w", err)
	}

	var total int64
	for _, v := range views {
		n, err := copyView(ctx, tx, runID, v)
		if err != nil {
			return 0, err
		}
		total += n
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return total, nil
}

// DeleteRun removes a run and, through the foreign keys, its output rows.
func (s *Store) DeleteRun(ctx context.Context, id uuid.UUID) (int64, error) {
	tag, err := s.db.Exec(ctx, "DELETE FROM fleet_runs WHERE id = $1", pgUUID(id))
	if err != nil {
		return 0, fmt.Errorf("delete run: %w", err)
	}
	return tag.RowsAffected(), nil
}

func copyView(ctx context.Context, db DBTX, runID pgtype.UUID, v core.View) (int64, error) {
	spec, ok := schema.Lookup(v.Name)
	if !ok {
		return 0, fmt.Errorf("unknown table %q", v.Name)
	}
	if !slices.Equal(spec.Columns(), v.Columns) {
		return 0, fmt.Errorf("table %s: view columns %v do not match schema %v", v.Name, v.Columns, spec.Columns())
	}
	if len(v.Rows) == 0 {
		return 0, nil
	}

	columns := append([]string{"run_id"}, spec.Columns()...)
	n, err := db.CopyFrom(ctx, pgx.Identifier{spec.Name}, columns, pgx.CopyFromRows(copyRows(runID, v)))
	if err != nil {
		return 0, fmt.Errorf("copy %s: %w", spec.Name, err)
	}
	return n, nil
}

// copyRows prefixes every view row with the run id.
func copyRows(runID pgtype.UUID, v core.View) [][]any {
	rows := make([][]any, len(v.Rows))
	for i, r := range v.Rows {
		row := make([]any, 0, len(r)+1)
		row = append(row, runID)
		rows[i] = append(row, r...)
	}
	return rows
}

func pgUUID(id uuid.UUID) pgtype.UUID {
	return pgtype.UUID{Bytes: id, Valid: true}
}
