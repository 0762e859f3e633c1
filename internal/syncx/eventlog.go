// Package syncx keeps an append-only audit log of changes to sessions.
package syncx

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"
)

const (
	TypeExportUploaded   = "ExportUploaded"
	TypeGroupMarkSet     = "GroupMarkSet"
	TypeGradingConfigSet = "GradingConfigSet"
)

type Event struct {
	ID        int64           `json:"id"`
	SiteID    string          `json:"-"`
	Type      string          `json:"type"`
	Key       string          `json:"key"` // session id
	Data      json.RawMessage `json:"data"`
	CreatedAt int64           `json:"createdAt"`
}

// NewEvent encodes data as the event payload.
func NewEvent(typ, key string, data any) (Event, error) {
	b, err := json.Marshal(data)
	if err != nil {
		return Event{}, fmt.Errorf("encode %s event: %w", typ, err)
	}
	return Event{SiteID: "local", Type: typ, Key: key, Data: b}, nil
}

type EventRepo struct{ db *sql.DB }

func NewEventRepo(db *sql.DB) *EventRepo { return &EventRepo{db: db} }

func (r *EventRepo) Append(ctx context.Context, e Event) error {
	if e.SiteID == "" {
		e.SiteID = "local"
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO event_log (site_id, typ, key, data, created_at)
		 VALUES ($1,$2,$3,$4,$5)`,
		e.SiteID, e.Type, e.Key, string(e.Data), time.Now().Unix())
	return err
}

// ByKey returns a key's events oldest first.
func (r *EventRepo) ByKey(ctx context.Context, key string) ([]Event, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, site_id, typ, key, data, created_at
		 FROM event_log WHERE key=$1 ORDER BY id`, key)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Event{}
	for rows.Next() {
		var (
			e    Event
			data string
		)
		if err := rows.Scan(&e.ID, &e.SiteID, &e.Type, &e.Key, &data, &e.CreatedAt); err != nil {
			return nil, err
		}
		e.Data = json.RawMessage(data)
		out = append(out, e)
	}
	return out, rows.Err()
}
