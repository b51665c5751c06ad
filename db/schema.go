// ABOUTME: Database schema definitions for local SQLite databases
// ABOUTME: Mirrors the hosted Supabase tables used by the front desk
package db

import (
	"database/sql"
)

const schema = `
CREATE TABLE IF NOT EXISTS intros_booked (
	id TEXT PRIMARY KEY,
	member_name TEXT NOT NULL,
	class_date TEXT NOT NULL,
	intro_time TEXT,
	coach TEXT,
	lead_source TEXT,
	booked_by TEXT,
	intro_owner TEXT,
	phone TEXT,
	email TEXT,
	booking_status TEXT NOT NULL DEFAULT 'Active',
	originating_booking_id TEXT,
	closed_at DATETIME,
	closed_by TEXT,
	created_at DATETIME NOT NULL,
	updated_at DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_intros_booked_member_name ON intros_booked(member_name);
CREATE INDEX IF NOT EXISTS idx_intros_booked_class_date ON intros_booked(class_date);

CREATE TABLE IF NOT EXISTS intros_run (
	id TEXT PRIMARY KEY,
	linked_intro_booked_id TEXT,
	member_name TEXT NOT NULL,
	run_date TEXT NOT NULL,
	result TEXT,
	lead_source TEXT,
	intro_owner TEXT,
	commission_amount REAL NOT NULL DEFAULT 0,
	primary_objection TEXT,
	buy_date TEXT,
	last_edited_at DATETIME,
	last_edited_by TEXT,
	edit_reason TEXT,
	version INTEGER NOT NULL DEFAULT 1,
	created_at DATETIME NOT NULL,
	updated_at DATETIME NOT NULL,
	FOREIGN KEY (linked_intro_booked_id) REFERENCES intros_booked(id)
);

CREATE INDEX IF NOT EXISTS idx_intros_run_booking ON intros_run(linked_intro_booked_id);
CREATE INDEX IF NOT EXISTS idx_intros_run_date ON intros_run(run_date);

CREATE TABLE IF NOT EXISTS follow_up_queue (
	id TEXT PRIMARY KEY,
	booking_id TEXT NOT NULL,
	person_name TEXT NOT NULL,
	person_type TEXT NOT NULL CHECK(person_type IN ('no_show', 'didnt_buy')),
	touch_number INTEGER NOT NULL,
	scheduled_date TEXT NOT NULL,
	status TEXT NOT NULL DEFAULT 'pending' CHECK(status IN ('pending', 'sent', 'completed', 'skipped')),
	primary_objection TEXT,
	completed_at DATETIME,
	completed_by TEXT,
	notes TEXT,
	created_at DATETIME NOT NULL,
	FOREIGN KEY (booking_id) REFERENCES intros_booked(id)
);

CREATE INDEX IF NOT EXISTS idx_follow_up_queue_booking ON follow_up_queue(booking_id);
CREATE INDEX IF NOT EXISTS idx_follow_up_queue_scheduled ON follow_up_queue(status, scheduled_date);

CREATE TABLE IF NOT EXISTS followup_touches (
	id TEXT PRIMARY KEY,
	touch_type TEXT NOT NULL,
	booking_id TEXT,
	lead_id TEXT,
	channel TEXT,
	notes TEXT,
	created_by TEXT NOT NULL,
	created_at DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_followup_touches_booking ON followup_touches(booking_id);
CREATE INDEX IF NOT EXISTS idx_followup_touches_created ON followup_touches(created_at DESC);

CREATE TABLE IF NOT EXISTS shift_recaps (
	id TEXT PRIMARY KEY,
	staff_name TEXT NOT NULL,
	shift_date TEXT NOT NULL,
	shift_type TEXT,
	calls INTEGER NOT NULL DEFAULT 0,
	texts INTEGER NOT NULL DEFAULT 0,
	dms INTEGER NOT NULL DEFAULT 0,
	notes TEXT,
	created_at DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS sales_outside_intro (
	id TEXT PRIMARY KEY,
	member_name TEXT NOT NULL,
	membership_type TEXT NOT NULL,
	sale_date TEXT NOT NULL,
	intro_owner TEXT,
	lead_source TEXT,
	commission_amount REAL NOT NULL DEFAULT 0,
	created_at DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS leads (
	id TEXT PRIMARY KEY,
	first_name TEXT NOT NULL,
	last_name TEXT,
	phone TEXT,
	email TEXT,
	source TEXT,
	stage TEXT NOT NULL DEFAULT 'new',
	duplicate_confidence TEXT,
	duplicate_match_type TEXT,
	duplicate_notes TEXT,
	created_at DATETIME NOT NULL,
	updated_at DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_leads_stage ON leads(stage);

CREATE TABLE IF NOT EXISTS outcome_changes (
	id TEXT PRIMARY KEY,
	booking_id TEXT NOT NULL,
	run_id TEXT,
	member_name TEXT,
	old_result TEXT,
	new_result TEXT NOT NULL,
	old_status TEXT,
	new_status TEXT NOT NULL,
	changed_by TEXT NOT NULL,
	source_component TEXT,
	edit_reason TEXT,
	amc_incremented BOOLEAN NOT NULL DEFAULT 0,
	created_at DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_outcome_changes_booking ON outcome_changes(booking_id);

CREATE TABLE IF NOT EXISTS amc_log (
	id TEXT PRIMARY KEY,
	log_date TEXT NOT NULL,
	delta INTEGER NOT NULL DEFAULT 1,
	booking_id TEXT,
	member_name TEXT,
	membership_type TEXT,
	created_by TEXT,
	created_at DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_amc_log_date ON amc_log(log_date);

CREATE TABLE IF NOT EXISTS export_state (
	service TEXT PRIMARY KEY,
	last_export_time DATETIME,
	last_cursor TEXT,
	status TEXT NOT NULL DEFAULT 'idle',
	error_message TEXT,
	created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);
`

// Tables lists every table in insert order, parents before children.
var Tables = []string{
	"intros_booked",
	"intros_run",
	"follow_up_queue",
	"followup_touches",
	"shift_recaps",
	"sales_outside_intro",
	"leads",
	"outcome_changes",
	"amc_log",
	"export_state",
}

func InitSchema(db *sql.DB) error {
	_, err := db.Exec(schema)
	return err
}
