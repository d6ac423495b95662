// internal/infra/database/postgres_org_directory.go
package database

import (
	"context"
	"database/sql"
	"fmt"

	"team_challenge_bot/internal/domain/org"
)

// Custom errors
var ErrOrganizationNotFound = fmt.Errorf("organization not found")
var ErrRecipientNotFound = fmt.Errorf("recipient not found")

// PostgresOrgDirectory implements org.Directory over the organizations and
// recipients tables. The engine reads this data; it never writes it.
type PostgresOrgDirectory struct {
	db *sql.DB
}

func NewPostgresOrgDirectory(db *sql.DB) *PostgresOrgDirectory {
	return &PostgresOrgDirectory{db: db}
}

func (r *PostgresOrgDirectory) GetTimezone(ctx context.Context, orgID int64) (string, error) {
	var tz sql.NullString
	err := r.db.QueryRowContext(ctx, `SELECT timezone FROM organizations WHERE id = $1`, orgID).Scan(&tz)
	if err != nil {
		if err == sql.ErrNoRows {
			return "", ErrOrganizationNotFound
		}
		return "", fmt.Errorf("error getting organization timezone: %w", err)
	}
	return tz.String, nil
}

func (r *PostgresOrgDirectory) GetRecipient(ctx context.Context, id int64) (*org.Recipient, error) {
	query := `SELECT id, org_id, first_name, chat_id, is_active, created_at
               FROM recipients WHERE id = $1`
	rcpt := &org.Recipient{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&rcpt.ID, &rcpt.OrgID, &rcpt.FirstName, &rcpt.ChatID, &rcpt.IsActive, &rcpt.CreatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrRecipientNotFound
		}
		return nil, fmt.Errorf("error getting recipient by ID: %w", err)
	}
	return rcpt, nil
}

func (r *PostgresOrgDirectory) ListDeliverableRecipients(ctx context.Context, orgID int64) ([]*org.Recipient, error) {
	query := `SELECT id, org_id, first_name, chat_id, is_active, created_at
               FROM recipients
               WHERE org_id = $1 AND is_active = TRUE AND chat_id IS NOT NULL
               ORDER BY id`
	rows, err := r.db.QueryContext(ctx, query, orgID)
	if err != nil {
		return nil, fmt.Errorf("error listing deliverable recipients: %w", err)
	}
	defer rows.Close()

	recipients := make([]*org.Recipient, 0)
	for rows.Next() {
		rcpt := &org.Recipient{}
		if err := rows.Scan(&rcpt.ID, &rcpt.OrgID, &rcpt.FirstName, &rcpt.ChatID, &rcpt.IsActive, &rcpt.CreatedAt); err != nil {
			return nil, fmt.Errorf("error scanning recipient: %w", err)
		}
		recipients = append(recipients, rcpt)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating recipients: %w", err)
	}
	return recipients, nil
}
