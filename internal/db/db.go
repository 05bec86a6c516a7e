// internal/db/db.go
package db

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"
)

// Open connects to Postgres and verifies the connection.
func Open(databaseURL string) (*sql.DB, error) {
	conn, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	conn.SetMaxOpenConns(25)
	conn.SetMaxIdleConns(5)
	conn.SetConnMaxLifetime(5 * time.Minute)

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return conn, nil
}

const schema = `
CREATE TABLE IF NOT EXISTS recipients (
	id SERIAL PRIMARY KEY,
	name TEXT NOT NULL,
	email TEXT NOT NULL UNIQUE,
	subscription_status TEXT NOT NULL DEFAULT 'subscribed',
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS campaigns (
	id SERIAL PRIMARY KEY,
	name TEXT NOT NULL,
	subject TEXT NOT NULL,
	body TEXT NOT NULL,
	scheduled_time TIMESTAMPTZ NOT NULL,
	status TEXT NOT NULL DEFAULT 'draft',
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS campaign_recipients (
	id SERIAL PRIMARY KEY,
	campaign_id INTEGER NOT NULL REFERENCES campaigns(id),
	recipient_id INTEGER NOT NULL REFERENCES recipients(id),
	status_snapshot TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	UNIQUE (campaign_id, recipient_id)
);

CREATE TABLE IF NOT EXISTS delivery_logs (
	id SERIAL PRIMARY KEY,
	campaign_id INTEGER NOT NULL REFERENCES campaigns(id),
	recipient_id INTEGER NOT NULL REFERENCES recipients(id),
	recipient_email TEXT NOT NULL,
	status TEXT NOT NULL,
	failure_reason TEXT NOT NULL DEFAULT '',
	sent_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	UNIQUE (campaign_id, recipient_id)
);

CREATE INDEX IF NOT EXISTS idx_campaigns_due
	ON campaigns (scheduled_time) WHERE status = 'scheduled';
CREATE INDEX IF NOT EXISTS idx_delivery_logs_campaign
	ON delivery_logs (campaign_id);
CREATE INDEX IF NOT EXISTS idx_campaign_recipients_campaign
	ON campaign_recipients (campaign_id);
`

// EnsureSchema creates the tables and indexes if they do not exist. The two
// UNIQUE (campaign_id, recipient_id) constraints are load-bearing: the one on
// delivery_logs is the exactly-once guard for delivery logging.
func EnsureSchema(conn *sql.DB) error {
	if _, err := conn.Exec(schema); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}
