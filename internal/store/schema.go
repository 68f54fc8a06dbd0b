package store

const schemaSQL = `
PRAGMA foreign_keys = ON;

CREATE TABLE IF NOT EXISTS instruments (
	instrument_id    INTEGER PRIMARY KEY,
	tag_number       TEXT NOT NULL UNIQUE,
	description      TEXT NOT NULL DEFAULT '',
	last_cal_date    TEXT NOT NULL DEFAULT '',
	next_due_date    TEXT NOT NULL DEFAULT '',
	frequency_months INTEGER NOT NULL DEFAULT 12,
	status           TEXT NOT NULL DEFAULT 'ACTIVE'
		CHECK (status IN ('ACTIVE', 'RETIRED', 'INACTIVE', 'OUT_FOR_CAL')),
	notes            TEXT NOT NULL DEFAULT '',
	created_at       TEXT NOT NULL DEFAULT (datetime('now'))
);
CREATE INDEX IF NOT EXISTS idx_instruments_next_due_date ON instruments(next_due_date);
CREATE INDEX IF NOT EXISTS idx_instruments_status ON instruments(status);

CREATE TABLE IF NOT EXISTS templates (
	template_id INTEGER PRIMARY KEY,
	name        TEXT NOT NULL UNIQUE,
	description TEXT NOT NULL DEFAULT '',
	source      TEXT NOT NULL,
	created_at  TEXT NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS records (
	record_id     INTEGER PRIMARY KEY,
	instrument_id INTEGER NOT NULL REFERENCES instruments(instrument_id) ON DELETE CASCADE,
	template_name TEXT NOT NULL,
	performed_at  TEXT NOT NULL,
	technician    TEXT NOT NULL DEFAULT '',
	passed        INTEGER NOT NULL DEFAULT 0,
	failed        INTEGER NOT NULL DEFAULT 0,
	errored       INTEGER NOT NULL DEFAULT 0,
	complete      BOOLEAN NOT NULL DEFAULT 0
);
CREATE INDEX IF NOT EXISTS idx_records_instrument_id ON records(instrument_id);

CREATE TABLE IF NOT EXISTS record_results (
	result_id   INTEGER PRIMARY KEY,
	record_id   INTEGER NOT NULL REFERENCES records(record_id) ON DELETE CASCADE,
	group_name  TEXT NOT NULL DEFAULT '',
	field_name  TEXT NOT NULL,
	label       TEXT NOT NULL DEFAULT '',
	value       TEXT NOT NULL DEFAULT '',
	computed    REAL,
	bound       REAL NOT NULL DEFAULT 0,
	status      TEXT NOT NULL,
	explanation TEXT NOT NULL DEFAULT '',
	caution     TEXT NOT NULL DEFAULT '',
	err         TEXT NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS idx_record_results_record_id ON record_results(record_id);
`
