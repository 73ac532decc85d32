package journal

import (
	"context"
	"encoding/json"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Schema is the DDL the postgres journal expects.
const Schema = `
CREATE TABLE IF NOT EXISTS scouting_events (
  event_id   text PRIMARY KEY,
  record_id  bigint NOT NULL,
  type       text NOT NULL,
  actor_id   text NOT NULL,
  occurred_at timestamptz NOT NULL,
  payload    jsonb NOT NULL DEFAULT '{}'::jsonb
);
CREATE INDEX IF NOT EXISTS scouting_events_record_idx ON scouting_events(record_id, occurred_at);
`

type Postgres struct{ DB *pgxpool.Pool }

// NewPool connects with the pool tuning the rest of the platform uses.
func NewPool(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, err
	}
	cfg.MaxConns = 10
	cfg.MinConns = 1
	cfg.MaxConnLifetime = 30 * time.Minute
	cfg.HealthCheckPeriod = 30 * time.Second
	return pgxpool.NewWithConfig(ctx, cfg)
}

func NewPostgres(db *pgxpool.Pool) *Postgres { return &Postgres{DB: db} }

// Init creates the journal table when missing.
func (p *Postgres) Init(ctx context.Context) error {
	_, err := p.DB.Exec(ctx, Schema)
	return err
}

func (p *Postgres) Append(ctx context.Context, e Event) error {
	b, _ := json.Marshal(e.Payload)
	_, err := p.DB.Exec(ctx, `INSERT INTO scouting_events(event_id,record_id,type,actor_id,occurred_at,payload)
VALUES($1,$2,$3,$4,$5,$6::jsonb)`,
		e.ID, int64(e.RecordID), e.Type, e.Actor, e.At, string(b))
	return err
}

func (p *Postgres) ListByRecord(ctx context.Context, recordID uint64) ([]Event, error) {
	rows, err := p.DB.Query(ctx, `SELECT event_id,record_id,type,actor_id,occurred_at,payload
FROM scouting_events WHERE record_id=$1 ORDER BY occurred_at ASC`, int64(recordID))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Event
	for rows.Next() {
		var e Event
		var recordID int64
		var payload []byte
		if err := rows.Scan(&e.ID, &recordID, &e.Type, &e.Actor, &e.At, &payload); err != nil {
			return nil, err
		}
		e.RecordID = uint64(recordID)
		_ = json.Unmarshal(payload, &e.Payload)
		out = append(out, e)
	}
	return out, rows.Err()
}
