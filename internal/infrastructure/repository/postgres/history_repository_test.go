package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/crimsonops/policygen/internal/core/domain"
)

func newMockRepo(t *testing.T) (*HistoryRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock.New() error = %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return NewHistoryRepository(db), mock
}

func TestEnsureSchemaAcquiresLockAndCommits(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectBegin()
	mock.ExpectExec("pg_advisory_xact_lock").
		WithArgs(int64(2026052301)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("CREATE TABLE IF NOT EXISTS policy_generations").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	if err := repo.EnsureSchema(context.Background()); err != nil {
		t.Fatalf("EnsureSchema() error = %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestCreateInsertsRecordWithTags(t *testing.T) {
	repo, mock := newMockRepo(t)
	now := time.Now().UTC()

	mock.ExpectExec("INSERT INTO policy_generations").
		WithArgs(
			"rec-1", "7", "Information Security Policy",
			[]byte(`["HIPAA","SOC 2"]`), "", "generated", "", now, now,
		).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.Create(context.Background(), &domain.PolicyRecord{
		ID:             "rec-1",
		OrganizationID: "7",
		DocumentName:   "Information Security Policy",
		ComplianceTags: []string{"HIPAA", "SOC 2"},
		Status:         domain.PolicyStatusGenerated,
		CreatedAt:      now,
		UpdatedAt:      now,
	})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestCreateSerializesNilTagsAsEmptyArray(t *testing.T) {
	repo, mock := newMockRepo(t)
	now := time.Now().UTC()

	mock.ExpectExec("INSERT INTO policy_generations").
		WithArgs(
			"rec-2", "7", "Acceptable Use Policy",
			[]byte(`[]`), "", "generated", "", now, now,
		).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.Create(context.Background(), &domain.PolicyRecord{
		ID:             "rec-2",
		OrganizationID: "7",
		DocumentName:   "Acceptable Use Policy",
		Status:         domain.PolicyStatusGenerated,
		CreatedAt:      now,
		UpdatedAt:      now,
	})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestMarkPublishedUpdatesRow(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectExec("UPDATE policy_generations").
		WithArgs("rec-1", "published", "doc-42", "", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := repo.MarkPublished(context.Background(), "rec-1", "doc-42"); err != nil {
		t.Fatalf("MarkPublished() error = %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestMarkPublishFailedUnknownRecord(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectExec("UPDATE policy_generations").
		WithArgs("missing", "publish_failed", "", "registry rejected", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.MarkPublishFailed(context.Background(), "missing", "registry rejected")
	if !domain.IsKind(err, domain.ErrRecordNotFound) {
		t.Fatalf("expected ErrRecordNotFound, got %v", err)
	}
}

func TestListByOrganizationScansRows(t *testing.T) {
	repo, mock := newMockRepo(t)
	now := time.Now().UTC()

	rows := sqlmock.NewRows([]string{
		"id", "organization_id", "document_name", "compliance_tags",
		"registry_document_id", "status", "error_message", "created_at", "updated_at",
	}).
		AddRow("rec-2", "7", "Incident Response Plan", []byte(`["NIST"]`), "doc-9", "published", "", now, now).
		AddRow("rec-1", "7", "Information Security Policy", []byte(`[]`), nil, "publish_failed", "timeout", now.Add(-time.Hour), now.Add(-time.Hour))

	mock.ExpectQuery("SELECT (.+) FROM policy_generations").
		WithArgs("7", 10).
		WillReturnRows(rows)

	records, err := repo.ListByOrganization(context.Background(), "7", 10)
	if err != nil {
		t.Fatalf("ListByOrganization() error = %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}
	if records[0].RegistryDocumentID != "doc-9" || records[0].Status != domain.PolicyStatusPublished {
		t.Fatalf("unexpected first record: %+v", records[0])
	}
	if records[0].ComplianceTags[0] != "NIST" {
		t.Fatalf("tags not unmarshaled: %+v", records[0].ComplianceTags)
	}
	if records[1].RegistryDocumentID != "" || records[1].Error != "timeout" {
		t.Fatalf("unexpected second record: %+v", records[1])
	}
}

func TestListByOrganizationEmpty(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery("SELECT (.+) FROM policy_generations").
		WithArgs("99", 50).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "organization_id", "document_name", "compliance_tags",
			"registry_document_id", "status", "error_message", "created_at", "updated_at",
		}))

	records, err := repo.ListByOrganization(context.Background(), "99", 50)
	if err != nil {
		t.Fatalf("ListByOrganization() error = %v", err)
	}
	if len(records) != 0 {
		t.Fatalf("expected no records, got %+v", records)
	}
}
