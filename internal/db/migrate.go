package db

import (
	"context"
	"database/sql"
	"fmt"
)

// Migrate runs all schema migrations. Every statement is idempotent and
// written in the SQL subset shared by SQLite and Postgres.
func Migrate(ctx context.Context, db *sql.DB) error {
	for i, stmt := range migrations {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migration %d: %w", i, err)
		}
	}
	return nil
}

var migrations = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id           TEXT PRIMARY KEY,
		full_name    TEXT NOT NULL,
		email        TEXT NOT NULL DEFAULT '',
		capabilities TEXT NOT NULL DEFAULT '',
		created_at   TEXT NOT NULL
	)`,

	`CREATE TABLE IF NOT EXISTS divisions (
		id                 TEXT PRIMARY KEY,
		name               TEXT NOT NULL,
		abbreviation       TEXT NOT NULL DEFAULT '',
		director_id        TEXT REFERENCES users(id),
		deputy_director_id TEXT REFERENCES users(id)
	)`,

	`CREATE TABLE IF NOT EXISTS cans (
		id          TEXT PRIMARY KEY,
		number      TEXT NOT NULL,
		division_id TEXT REFERENCES divisions(id)
	)`,

	`CREATE TABLE IF NOT EXISTS procurement_shops (
		id   TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		abbr TEXT NOT NULL DEFAULT ''
	)`,

	`CREATE TABLE IF NOT EXISTS procurement_shop_fees (
		id                  TEXT PRIMARY KEY,
		procurement_shop_id TEXT NOT NULL REFERENCES procurement_shops(id) ON DELETE CASCADE,
		fee                 TEXT NOT NULL
	)`,

	`CREATE TABLE IF NOT EXISTS agreements (
		id                      TEXT PRIMARY KEY,
		agreement_type          TEXT NOT NULL
		                        CHECK(agreement_type IN ('CONTRACT','GRANT','DIRECT_OBLIGATION','IAA','AA')),
		name                    TEXT NOT NULL,
		description             TEXT NOT NULL DEFAULT '',
		project_id              TEXT,
		product_service_code_id TEXT,
		awarding_entity_id      TEXT REFERENCES procurement_shops(id),
		agreement_reason        TEXT
		                        CHECK(agreement_reason IS NULL OR agreement_reason IN ('NEW_REQ','RECOMPETE','LOGICAL_FOLLOW_ON')),
		project_officer_id      TEXT REFERENCES users(id),
		vendor                  TEXT,
		created_at              TEXT NOT NULL,
		updated_at              TEXT NOT NULL
	)`,

	`CREATE TABLE IF NOT EXISTS agreement_team_members (
		agreement_id TEXT NOT NULL REFERENCES agreements(id) ON DELETE CASCADE,
		user_id      TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		PRIMARY KEY (agreement_id, user_id)
	)`,

	`CREATE TABLE IF NOT EXISTS services_components (
		id           TEXT PRIMARY KEY,
		agreement_id TEXT NOT NULL REFERENCES agreements(id) ON DELETE CASCADE,
		number       INTEGER NOT NULL,
		optional     INTEGER NOT NULL DEFAULT 0,
		description  TEXT NOT NULL DEFAULT ''
	)`,

	`CREATE TABLE IF NOT EXISTS procurement_actions (
		id                     TEXT PRIMARY KEY,
		agreement_id           TEXT NOT NULL REFERENCES agreements(id) ON DELETE CASCADE,
		award_type             TEXT NOT NULL CHECK(award_type IN ('NEW_AWARD','MOD')),
		status                 TEXT NOT NULL
		                       CHECK(status IN ('PLANNED','AWARDED','CERTIFIED','CANCELLED')),
		date_awarded_obligated TEXT,
		created_by             TEXT NOT NULL DEFAULT '',
		created_at             TEXT NOT NULL,
		updated_at             TEXT NOT NULL
	)`,

	`CREATE TABLE IF NOT EXISTS budget_line_items (
		id                      TEXT PRIMARY KEY,
		agreement_id            TEXT NOT NULL REFERENCES agreements(id) ON DELETE CASCADE,
		can_id                  TEXT REFERENCES cans(id),
		amount                  TEXT,
		status                  TEXT NOT NULL DEFAULT 'DRAFT'
		                        CHECK(status IN ('DRAFT','UNDER_REVIEW','PLANNED','IN_EXECUTION','OBLIGATED')),
		date_needed             TEXT,
		services_component_id   TEXT REFERENCES services_components(id) ON DELETE SET NULL,
		procurement_shop_fee_id TEXT REFERENCES procurement_shop_fees(id),
		procurement_action_id   TEXT REFERENCES procurement_actions(id) ON DELETE SET NULL,
		line_description        TEXT NOT NULL DEFAULT '',
		comments                TEXT NOT NULL DEFAULT '',
		is_obe                  INTEGER NOT NULL DEFAULT 0,
		created_by              TEXT NOT NULL DEFAULT '',
		created_at              TEXT NOT NULL,
		updated_at              TEXT NOT NULL
	)`,

	`CREATE TABLE IF NOT EXISTS change_requests (
		id                    TEXT PRIMARY KEY,
		change_request_type   TEXT NOT NULL
		                      CHECK(change_request_type IN ('CHANGE_REQUEST','AGREEMENT_CHANGE_REQUEST','BUDGET_LINE_ITEM_CHANGE_REQUEST')),
		status                TEXT NOT NULL CHECK(status IN ('IN_REVIEW','APPROVED','REJECTED')),
		agreement_id          TEXT REFERENCES agreements(id) ON DELETE CASCADE,
		budget_line_item_id   TEXT REFERENCES budget_line_items(id) ON DELETE CASCADE,
		field_group           TEXT NOT NULL,
		requested_change_data TEXT NOT NULL,
		requested_change_diff TEXT NOT NULL,
		requestor_notes       TEXT NOT NULL DEFAULT '',
		reviewer_notes        TEXT NOT NULL DEFAULT '',
		managing_division_id  TEXT,
		created_by            TEXT NOT NULL,
		reviewed_by           TEXT,
		reviewed_on           TEXT,
		created_at            TEXT NOT NULL,
		updated_at            TEXT NOT NULL
	)`,

	`CREATE TABLE IF NOT EXISTS procurement_trackers (
		id                    TEXT PRIMARY KEY,
		agreement_id          TEXT NOT NULL REFERENCES agreements(id) ON DELETE CASCADE,
		tracker_type          TEXT NOT NULL,
		status                TEXT NOT NULL CHECK(status IN ('ACTIVE','COMPLETED','INACTIVE')),
		active_step_number    INTEGER NOT NULL,
		procurement_action_id TEXT REFERENCES procurement_actions(id) ON DELETE SET NULL,
		created_by            TEXT NOT NULL DEFAULT '',
		created_at            TEXT NOT NULL,
		updated_at            TEXT NOT NULL
	)`,

	`CREATE TABLE IF NOT EXISTS procurement_tracker_steps (
		id                             TEXT PRIMARY KEY,
		tracker_id                     TEXT NOT NULL REFERENCES procurement_trackers(id) ON DELETE CASCADE,
		step_number                    INTEGER NOT NULL,
		step_type                      TEXT NOT NULL,
		status                         TEXT NOT NULL CHECK(status IN ('PENDING','ACTIVE','COMPLETED','SKIPPED')),
		step_start_date                TEXT,
		step_completed_date            TEXT,
		task_completed_by              TEXT REFERENCES users(id),
		date_completed                 TEXT,
		notes                          TEXT NOT NULL DEFAULT '',
		target_completion_date         TEXT,
		draft_solicitation_date        TEXT,
		solicitation_period_start_date TEXT,
		solicitation_period_end_date   TEXT,
		approval_requested             INTEGER NOT NULL DEFAULT 0,
		approval_requested_date        TEXT,
		created_at                     TEXT NOT NULL,
		updated_at                     TEXT NOT NULL,
		UNIQUE (tracker_id, step_number)
	)`,

	`CREATE TABLE IF NOT EXISTS history (
		id           TEXT PRIMARY KEY,
		event_class  TEXT NOT NULL,
		target_class TEXT NOT NULL,
		target_id    TEXT NOT NULL,
		event_type   TEXT NOT NULL,
		scope        TEXT NOT NULL CHECK(scope IN ('OBJECT','PROPERTY')),
		property_key TEXT,
		change       TEXT,
		actor_id     TEXT NOT NULL,
		created_at   TEXT NOT NULL
	)`,

	`CREATE TABLE IF NOT EXISTS ops_events (
		id            TEXT PRIMARY KEY,
		event_type    TEXT NOT NULL,
		event_status  TEXT NOT NULL CHECK(event_status IN ('SUCCESS','FAILED')),
		details       TEXT NOT NULL DEFAULT '{}',
		error_message TEXT NOT NULL DEFAULT '',
		created_by    TEXT NOT NULL DEFAULT '',
		created_at    TEXT NOT NULL
	)`,

	`CREATE TABLE IF NOT EXISTS notifications (
		id                TEXT PRIMARY KEY,
		recipient_id      TEXT NOT NULL,
		change_request_id TEXT,
		outcome           TEXT NOT NULL,
		title             TEXT NOT NULL,
		message           TEXT NOT NULL,
		is_read           INTEGER NOT NULL DEFAULT 0,
		created_at        TEXT NOT NULL
	)`,

	// Indexes
	`CREATE INDEX IF NOT EXISTS idx_bli_agreement ON budget_line_items(agreement_id)`,
	`CREATE INDEX IF NOT EXISTS idx_cr_bli ON change_requests(budget_line_item_id)`,
	`CREATE INDEX IF NOT EXISTS idx_cr_agreement ON change_requests(agreement_id)`,
	`CREATE INDEX IF NOT EXISTS idx_cr_division_status ON change_requests(managing_division_id, status)`,
	`CREATE INDEX IF NOT EXISTS idx_steps_tracker ON procurement_tracker_steps(tracker_id)`,
	`CREATE INDEX IF NOT EXISTS idx_history_target ON history(target_class, target_id)`,
	`CREATE INDEX IF NOT EXISTS idx_notifications_recipient ON notifications(recipient_id)`,

	// At most one open change request per entity and field group.
	`CREATE UNIQUE INDEX IF NOT EXISTS uq_cr_open_bli_group
		ON change_requests(budget_line_item_id, field_group)
		WHERE status = 'IN_REVIEW' AND budget_line_item_id IS NOT NULL`,
	`CREATE UNIQUE INDEX IF NOT EXISTS uq_cr_open_agreement_group
		ON change_requests(agreement_id, field_group)
		WHERE status = 'IN_REVIEW' AND change_request_type = 'AGREEMENT_CHANGE_REQUEST'`,

	// At most one active tracker and one open new-award action per agreement.
	`CREATE UNIQUE INDEX IF NOT EXISTS uq_tracker_active_agreement
		ON procurement_trackers(agreement_id)
		WHERE status = 'ACTIVE'`,
	`CREATE UNIQUE INDEX IF NOT EXISTS uq_action_open_new_award
		ON procurement_actions(agreement_id)
		WHERE award_type = 'NEW_AWARD' AND status IN ('PLANNED','AWARDED')`,
}
