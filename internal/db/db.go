// Package db owns the Postgres connection and schema for the
// reconciliation service, grounded on the teacher's internal/db/db.go
// connection-pool tuning (kept verbatim: it targets a pooled Postgres
// such as Neon, which disallows server-side prepared statements).
package db

import (
	"net/url"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"reconcile-engine/internal/config"
)

// Connect opens the pooled Postgres connection named by cfg.DatabaseURL.
func Connect(cfg config.Config) (*sqlx.DB, error) {
	dbURL := cfg.DatabaseURL
	if dbURL == "" {
		panic("DATABASE_URL environment variable is required")
	}

	parsedURL, err := url.Parse(dbURL)
	if err == nil {
		query := parsedURL.Query()
		query.Set("prefer_simple_protocol", "1")
		query.Set("binary_parameters", "yes")
		parsedURL.RawQuery = query.Encode()
		dbURL = parsedURL.String()
	} else {
		separator := "?"
		if strings.Contains(dbURL, "?") {
			separator = "&"
		}
		if !strings.Contains(dbURL, "prefer_simple_protocol") {
			dbURL = dbURL + separator + "prefer_simple_protocol=1"
			separator = "&"
		}
		if !strings.Contains(dbURL, "binary_parameters") {
			dbURL = dbURL + separator + "binary_parameters=yes"
		}
	}

	conn, err := sqlx.Connect("postgres", dbURL)
	if err != nil {
		return nil, err
	}

	conn.SetMaxOpenConns(25)
	conn.SetMaxIdleConns(5)
	conn.SetConnMaxLifetime(30 * time.Second)
	conn.SetConnMaxIdleTime(10 * time.Second)

	return conn, nil
}

// Schema is the DDL for the service's tables. No binary in this repository
// executes it; cmd/api and cmd/worker assume it has already been applied.
// reconciliation_batches/reconciliation_jobs keep the teacher's upload
// and job-queue shape; ledger_rows/statement_rows/matches/splits are new,
// carrying the two-sided reconciliation domain (spec.md §2, §6).
const Schema = `
CREATE TABLE IF NOT EXISTS reconciliation_batches (
	id                 UUID PRIMARY KEY,
	filename           TEXT NOT NULL,
	workflow           TEXT NOT NULL DEFAULT 'generic',
	status             TEXT NOT NULL DEFAULT 'uploading',
	processed_count    INT NOT NULL DEFAULT 0,
	total_rows         INT,
	perfect_count      INT NOT NULL DEFAULT 0,
	fuzzy_count        INT NOT NULL DEFAULT 0,
	foreign_credit_count INT NOT NULL DEFAULT 0,
	split_count        INT NOT NULL DEFAULT 0,
	unmatched_count    INT NOT NULL DEFAULT 0,
	started_at         TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	completed_at       TIMESTAMPTZ,
	created_at         TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS reconciliation_jobs (
	id                 UUID PRIMARY KEY DEFAULT gen_random_uuid(),
	batch_id           UUID NOT NULL REFERENCES reconciliation_batches(id),
	ledger_path        TEXT NOT NULL,
	statement_path     TEXT NOT NULL,
	status             TEXT NOT NULL DEFAULT 'queued',
	attempts           INT NOT NULL DEFAULT 0,
	last_error         TEXT,
	created_at         TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at         TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS ledger_rows (
	id          BIGSERIAL PRIMARY KEY,
	batch_id    UUID NOT NULL REFERENCES reconciliation_batches(id),
	row_index   INT NOT NULL,
	txn_date    DATE,
	reference   TEXT,
	debit       BIGINT NOT NULL DEFAULT 0,
	credit      BIGINT NOT NULL DEFAULT 0,
	extra       JSONB
);

CREATE TABLE IF NOT EXISTS statement_rows (
	id          BIGSERIAL PRIMARY KEY,
	batch_id    UUID NOT NULL REFERENCES reconciliation_batches(id),
	row_index   INT NOT NULL,
	txn_date    DATE,
	reference   TEXT,
	amount      BIGINT NOT NULL,
	extra       JSONB
);

CREATE TABLE IF NOT EXISTS matches (
	id              BIGSERIAL PRIMARY KEY,
	batch_id        UUID NOT NULL REFERENCES reconciliation_batches(id),
	kind            TEXT NOT NULL,
	score           INT NOT NULL,
	ledger_row_id   BIGINT NOT NULL REFERENCES ledger_rows(id),
	statement_row_id BIGINT NOT NULL REFERENCES statement_rows(id),
	status          TEXT NOT NULL DEFAULT 'auto_matched',
	created_at      TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS splits (
	id               BIGSERIAL PRIMARY KEY,
	batch_id         UUID NOT NULL REFERENCES reconciliation_batches(id),
	kind             TEXT NOT NULL,
	score            INT NOT NULL,
	ledger_row_ids   BIGINT[] NOT NULL,
	statement_row_ids BIGINT[] NOT NULL,
	status           TEXT NOT NULL DEFAULT 'auto_matched',
	created_at       TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS match_audit_logs (
	id          BIGSERIAL PRIMARY KEY,
	match_id    BIGINT,
	split_id    BIGINT,
	action      TEXT NOT NULL,
	notes       TEXT,
	created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
`
