package archive

import "database/sql"

// migrateV001 creates the initial archive schema: the records table, its
// indexes, and the default exclusion rules. Every statement uses IF NOT
// EXISTS for idempotency.
func migrateV001(tx *sql.Tx) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS records (
			uid        TEXT PRIMARY KEY,
			kind       TEXT NOT NULL DEFAULT 'visit',
			source     TEXT NOT NULL DEFAULT '',
			account    TEXT NOT NULL DEFAULT '',
			url        TEXT NOT NULL DEFAULT '',
			title      TEXT NOT NULL DEFAULT '',
			body       TEXT NOT NULL DEFAULT '',
			domain     TEXT NOT NULL DEFAULT '',
			sender     TEXT NOT NULL DEFAULT '',
			ts         DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,

		`CREATE TABLE IF NOT EXISTS exclusions (
			id         INTEGER PRIMARY KEY AUTOINCREMENT,
			rule_type  TEXT NOT NULL CHECK (rule_type IN ('domain', 'regex')),
			rule_value TEXT NOT NULL,
			reason     TEXT NOT NULL DEFAULT '',
			is_default BOOLEAN NOT NULL DEFAULT 0,
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			UNIQUE(rule_type, rule_value)
		)`,

		`CREATE TABLE IF NOT EXISTS audit_log (
			id        INTEGER PRIMARY KEY AUTOINCREMENT,
			action    TEXT NOT NULL,
			detail    TEXT NOT NULL DEFAULT '',
			record_id TEXT,
			ts        DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,

		`CREATE INDEX IF NOT EXISTS idx_records_ts        ON records(ts)`,
		`CREATE INDEX IF NOT EXISTS idx_records_source    ON records(source)`,
		`CREATE INDEX IF NOT EXISTS idx_records_kind      ON records(kind)`,
		`CREATE INDEX IF NOT EXISTS idx_records_domain    ON records(domain)`,
		`CREATE INDEX IF NOT EXISTS idx_records_ts_source ON records(ts, source)`,
		`CREATE INDEX IF NOT EXISTS idx_exclusions_rule   ON exclusions(rule_type, rule_value)`,
		`CREATE INDEX IF NOT EXISTS idx_audit_log_ts      ON audit_log(ts)`,
	}

	for _, stmt := range stmts {
		if _, err := tx.Exec(stmt); err != nil {
			return err
		}
	}

	return seedDefaultExclusions(tx)
}

// seedDefaultExclusions inserts the curated denylist. Uses INSERT OR IGNORE
// so re-running is safe.
func seedDefaultExclusions(tx *sql.Tx) error {
	type rule struct {
		RuleType  string
		RuleValue string
		Reason    string
	}

	defaults := []rule{
		// Banking & Financial
		{"domain", "chase.com", "Banking - financial privacy"},
		{"domain", "bankofamerica.com", "Banking - financial privacy"},
		{"domain", "wellsfargo.com", "Banking - financial privacy"},
		{"domain", "schwab.com", "Banking - financial privacy"},
		{"domain", "fidelity.com", "Banking - financial privacy"},
		{"domain", "vanguard.com", "Banking - financial privacy"},
		{"domain", "paypal.com", "Payment - financial privacy"},
		{"domain", "venmo.com", "Payment - financial privacy"},
		// Password Managers
		{"domain", "1password.com", "Password manager - credential privacy"},
		{"domain", "bitwarden.com", "Password manager - credential privacy"},
		{"domain", "lastpass.com", "Password manager - credential privacy"},
		// Auth Providers
		{"domain", "accounts.google.com", "Auth provider - credential privacy"},
		{"domain", "login.microsoftonline.com", "Auth provider - credential privacy"},
		{"domain", "okta.com", "Auth provider - credential privacy"},
		// Healthcare
		{"domain", "mychart.com", "Healthcare - HIPAA privacy"},
		// Tax / Government
		{"domain", "irs.gov", "Tax - financial privacy"},
		{"domain", "turbotax.intuit.com", "Tax - financial privacy"},
		// Adult content (regex)
		{"regex", `.*\.xxx$`, "Adult content exclusion"},
	}

	const insertSQL = `INSERT OR IGNORE INTO exclusions (rule_type, rule_value, reason, is_default) VALUES (?, ?, ?, 1)`

	for _, r := range defaults {
		if _, err := tx.Exec(insertSQL, r.RuleType, r.RuleValue, r.Reason); err != nil {
			return err
		}
	}

	return nil
}
