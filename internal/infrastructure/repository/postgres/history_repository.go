package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/crimsonops/policygen/internal/core/domain"
)

// HistoryRepository keeps one row per policy save attempt so operators can
// see what was generated for a client and whether the registry accepted it.
type HistoryRepository struct {
	db *sql.DB
}

func NewHistoryRepository(db *sql.DB) *HistoryRepository {
	return &HistoryRepository{db: db}
}

func OpenDB(dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("sql open: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("db ping: %w", err)
	}
	return db, nil
}

func (r *HistoryRepository) EnsureSchema(ctx context.Context) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	// Serialize bootstrap DDL across concurrent service startups.
	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, int64(2026052301)); err != nil {
		return fmt.Errorf("acquire schema lock: %w", err)
	}

	const query = `
CREATE TABLE IF NOT EXISTS policy_generations (
	id TEXT PRIMARY KEY,
	organization_id TEXT NOT NULL,
	document_name TEXT NOT NULL,
	compliance_tags JSONB NOT NULL DEFAULT '[]'::jsonb,
	registry_document_id TEXT,
	status TEXT NOT NULL,
	error_message TEXT,
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_policy_generations_org ON policy_generations(organization_id, created_at DESC);
CREATE INDEX IF NOT EXISTS idx_policy_generations_status ON policy_generations(status);
`
	if _, err := tx.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("execute schema ddl: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema tx: %w", err)
	}
	return nil
}

func (r *HistoryRepository) Create(ctx context.Context, rec *domain.PolicyRecord) error {
	tagsJSON, err := json.Marshal(emptyIfNil(rec.ComplianceTags))
	if err != nil {
		return fmt.Errorf("marshal compliance tags: %w", err)
	}

	_, err = r.db.ExecContext(ctx, `
INSERT INTO policy_generations (
	id, organization_id, document_name, compliance_tags, registry_document_id, status, error_message, created_at, updated_at
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
`,
		rec.ID, rec.OrganizationID, rec.DocumentName, tagsJSON, rec.RegistryDocumentID,
		string(rec.Status), rec.Error, rec.CreatedAt, rec.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert policy record: %w", err)
	}
	return nil
}

func (r *HistoryRepository) MarkPublished(ctx context.Context, id, registryDocumentID string) error {
	return r.updateStatus(ctx, id, domain.PolicyStatusPublished, registryDocumentID, "")
}

func (r *HistoryRepository) MarkPublishFailed(ctx context.Context, id, message string) error {
	return r.updateStatus(ctx, id, domain.PolicyStatusPublishFailed, "", message)
}

func (r *HistoryRepository) updateStatus(ctx context.Context, id string, status domain.PolicyStatus, registryDocumentID, message string) error {
	result, err := r.db.ExecContext(ctx, `
UPDATE policy_generations
SET status = $2, registry_document_id = NULLIF($3, ''), error_message = $4, updated_at = $5
WHERE id = $1
`, id, string(status), registryDocumentID, message, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("update policy record status: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return domain.WrapError(domain.ErrRecordNotFound, "update policy record", fmt.Errorf("id %s", id))
	}
	return nil
}

func (r *HistoryRepository) ListByOrganization(ctx context.Context, orgID string, limit int) ([]domain.PolicyRecord, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT id, organization_id, document_name, compliance_tags, registry_document_id, status, error_message, created_at, updated_at
FROM policy_generations
WHERE organization_id = $1
ORDER BY created_at DESC
LIMIT $2
`, orgID, limit)
	if err != nil {
		return nil, fmt.Errorf("query policy records: %w", err)
	}
	defer rows.Close()

	var records []domain.PolicyRecord
	for rows.Next() {
		var rec domain.PolicyRecord
		var tagsRaw []byte
		var registryDocumentID sql.NullString
		var status string

		err := rows.Scan(
			&rec.ID, &rec.OrganizationID, &rec.DocumentName, &tagsRaw,
			&registryDocumentID, &status, &rec.Error, &rec.CreatedAt, &rec.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan policy record: %w", err)
		}
		if err := json.Unmarshal(tagsRaw, &rec.ComplianceTags); err != nil {
			return nil, fmt.Errorf("unmarshal compliance tags: %w", err)
		}
		rec.RegistryDocumentID = registryDocumentID.String
		rec.Status = domain.PolicyStatus(status)
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate policy records: %w", err)
	}
	return records, nil
}

func emptyIfNil(tags []string) []string {
	if tags == nil {
		return []string{}
	}
	return tags
}
