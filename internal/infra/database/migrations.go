package database

import (
	"database/sql"
	"fmt"

	"github.com/GuiaBolso/darwin"
)

// migrations is the ordered schema history. Versions are append-only.
var migrations = []darwin.Migration{
	{
		Version:     1,
		Description: "Create organizations and recipients",
		Script: `
CREATE TABLE organizations (
    id          BIGSERIAL PRIMARY KEY,
    name        VARCHAR(255) NOT NULL,
    timezone    VARCHAR(64),
    created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE TABLE recipients (
    id          BIGSERIAL PRIMARY KEY,
    org_id      BIGINT NOT NULL REFERENCES organizations(id),
    first_name  VARCHAR(255) NOT NULL,
    chat_id     BIGINT,
    is_active   BOOLEAN NOT NULL DEFAULT TRUE,
    created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX idx_recipients_org ON recipients (org_id);
`,
	},
	{
		Version:     2,
		Description: "Create schedules",
		Script: `
CREATE TABLE schedules (
    id            BIGSERIAL PRIMARY KEY,
    org_id        BIGINT NOT NULL REFERENCES organizations(id),
    title         VARCHAR(255) NOT NULL,
    body          TEXT NOT NULL,
    notify_time   VARCHAR(5) NOT NULL,
    is_daily      BOOLEAN NOT NULL DEFAULT TRUE,
    day_of_week   SMALLINT,
    status        VARCHAR(16) NOT NULL DEFAULT 'draft',
    display_order INT NOT NULL DEFAULT 0,
    created_at    TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at    TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX idx_schedules_org_order ON schedules (org_id, display_order, notify_time);
CREATE INDEX idx_schedules_status ON schedules (status);
`,
	},
	{
		Version:     3,
		Description: "Create delivery log",
		Script: `
CREATE TABLE delivery_log (
    id           BIGSERIAL PRIMARY KEY,
    schedule_id  BIGINT NOT NULL REFERENCES schedules(id),
    recipient_id BIGINT NOT NULL REFERENCES recipients(id),
    sent_at      TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    outcome      VARCHAR(8) NOT NULL,
    error_text   TEXT
);
CREATE INDEX idx_delivery_log_schedule_sent ON delivery_log (schedule_id, sent_at);
`,
	},
	{
		Version:     4,
		Description: "Create staged batches",
		Script: `
CREATE TABLE staged_batches (
    id             UUID PRIMARY KEY,
    owner_id       BIGINT NOT NULL,
    org_id         BIGINT NOT NULL REFERENCES organizations(id),
    target_chat_id BIGINT NOT NULL,
    payload        JSONB NOT NULL,
    status         VARCHAR(16) NOT NULL DEFAULT 'pending',
    created_at     TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    expires_at     TIMESTAMPTZ NOT NULL
);
CREATE INDEX idx_staged_batches_owner_status ON staged_batches (owner_id, status);
CREATE INDEX idx_staged_batches_expires ON staged_batches (expires_at);
`,
	},
	{
		Version:     5,
		Description: "Create challenge items",
		Script: `
CREATE TABLE challenge_items (
    id            BIGSERIAL PRIMARY KEY,
    recipient_id  BIGINT NOT NULL REFERENCES recipients(id),
    creator_id    BIGINT NOT NULL,
    text          TEXT NOT NULL,
    points        INT NOT NULL DEFAULT 0,
    status        VARCHAR(16) NOT NULL DEFAULT 'PENDING',
    scheduled_for TIMESTAMPTZ,
    sent_at       TIMESTAMPTZ,
    time_slot     VARCHAR(16),
    difficulty    VARCHAR(32) NOT NULL DEFAULT '',
    duration      VARCHAR(32) NOT NULL DEFAULT '',
    focus_area    VARCHAR(64) NOT NULL DEFAULT '',
    created_at    TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at    TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX idx_challenge_items_due ON challenge_items (status, scheduled_for) WHERE sent_at IS NULL;
`,
	},
}

// Migrate applies any pending schema migrations.
func Migrate(db *sql.DB) error {
	driver := darwin.NewGenericDriver(db, darwin.PostgresDialect{})
	if err := darwin.New(driver, migrations, nil).Migrate(); err != nil {
		return fmt.Errorf("failed to run database migrations: %w", err)
	}
	return nil
}
