package snapshot

import (
	"context"
	"encoding/json"
	"sort"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/sells-group/marathon-cli/internal/model"
)

// Pool is the subset of pgxpool.Pool used by Postgres. pgxmock pools
// satisfy it in tests.
type Pool interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Close()
}

// Postgres stores the snapshot in a JSONB table.
type Postgres struct {
	pool Pool
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

// NewPostgres connects a pgx pool and returns a Postgres backend.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*Postgres, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	maxConns := int32(4)
	minConns := int32(1)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: connect")
	}
	return &Postgres{pool: pool}, nil
}

// NewPostgresWithPool wraps an existing pool.
func NewPostgresWithPool(pool Pool) *Postgres {
	return &Postgres{pool: pool}
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS snapshot_events (
	event_key  TEXT PRIMARY KEY,
	record     JSONB NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
`

// Migrate creates the snapshot table.
func (p *Postgres) Migrate(ctx context.Context) error {
	_, err := p.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (p *Postgres) Close() error {
	p.pool.Close()
	return nil
}

func (p *Postgres) Load(ctx context.Context) (map[string]model.Event, error) {
	rows, err := p.pool.Query(ctx, `SELECT event_key, record FROM snapshot_events`)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: query snapshot")
	}
	defer rows.Close()

	events := map[string]model.Event{}
	for rows.Next() {
		var (
			key    string
			record []byte
		)
		if err := rows.Scan(&key, &record); err != nil {
			return nil, eris.Wrap(err, "postgres: scan snapshot row")
		}
		var ev model.Event
		if err := json.Unmarshal(record, &ev); err != nil {
			return nil, eris.Wrapf(err, "postgres: decode record %s", key)
		}
		events[key] = ev
	}
	return events, eris.Wrap(rows.Err(), "postgres: iterate snapshot")
}

const upsertSnapshotEvent = `INSERT INTO snapshot_events (event_key, record, updated_at) VALUES ($1, $2, $3)
ON CONFLICT (event_key) DO UPDATE SET record = EXCLUDED.record, updated_at = EXCLUDED.updated_at`

// Save upserts every event, in key order, inside one transaction.
func (p *Postgres) Save(ctx context.Context, events map[string]model.Event) error {
	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return eris.Wrap(err, "postgres: begin")
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	keys := make([]string, 0, len(events))
	for k := range events {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	now := time.Now().UTC()
	for _, key := range keys {
		record, err := json.Marshal(events[key])
		if err != nil {
			return eris.Wrapf(err, "postgres: encode record %s", key)
		}
		if _, err := tx.Exec(ctx, upsertSnapshotEvent, key, record, now); err != nil {
			return eris.Wrapf(err, "postgres: upsert %s", key)
		}
	}
	return eris.Wrap(tx.Commit(ctx), "postgres: commit")
}
