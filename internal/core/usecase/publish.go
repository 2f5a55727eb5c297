package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/crimsonops/policygen/internal/core/domain"
	"github.com/crimsonops/policygen/internal/core/ports"
)

// PolicyUseCase publishes a generated policy into the registry and records
// the attempt in the generation history. The registry create is not
// idempotent, so the save is never auto-retried and concurrent saves for
// the same organization are rejected.
type PolicyUseCase struct {
	registry ports.RegistryGateway
	history  ports.HistoryStore
	events   ports.EventPublisher

	mu       sync.Mutex
	inFlight map[string]struct{}
}

func NewPolicyUseCase(
	registry ports.RegistryGateway,
	history ports.HistoryStore,
	events ports.EventPublisher,
) *PolicyUseCase {
	return &PolicyUseCase{
		registry: registry,
		history:  history,
		events:   events,
		inFlight: make(map[string]struct{}),
	}
}

func (uc *PolicyUseCase) SavePolicy(ctx context.Context, in domain.SavePolicyInput) (*domain.SaveReceipt, error) {
	if err := validateSaveInput(in); err != nil {
		return nil, err
	}

	release, err := uc.acquire(in.OrganizationID)
	if err != nil {
		return nil, err
	}
	defer release()

	record := &domain.PolicyRecord{
		ID:             uuid.NewString(),
		OrganizationID: in.OrganizationID,
		DocumentName:   in.DocumentName,
		ComplianceTags: in.ComplianceTags,
		Status:         domain.PolicyStatusGenerated,
		CreatedAt:      time.Now().UTC(),
		UpdatedAt:      time.Now().UTC(),
	}
	uc.record(ctx, record)

	documentID, err := uc.registry.CreateDocument(ctx, domain.PublishRequest{
		OrganizationID: in.OrganizationID,
		Name:           in.DocumentName,
		Content:        in.PolicyText,
		Tags:           in.ComplianceTags,
	})
	if err != nil {
		uc.markFailed(ctx, record.ID, err)
		// The generated policy stays with the caller; only the save step
		// failed and only the save step is reported.
		return &domain.SaveReceipt{RecordID: record.ID}, fmt.Errorf("save policy: %w", err)
	}

	uc.markPublished(ctx, record.ID, documentID)

	if uc.events != nil {
		if err := uc.events.PublishPolicySaved(ctx, in.OrganizationID, documentID); err != nil {
			slog.Warn("policy_event_publish_failed", "organization_id", in.OrganizationID, "error", err)
		}
	}

	return &domain.SaveReceipt{RecordID: record.ID, RegistryDocumentID: documentID}, nil
}

func (uc *PolicyUseCase) ListPolicies(ctx context.Context, orgID string, limit int) ([]domain.PolicyRecord, error) {
	if strings.TrimSpace(orgID) == "" {
		return nil, domain.WrapError(domain.ErrInvalidInput, "list policies", errors.New("organization id is required"))
	}
	if uc.history == nil {
		return []domain.PolicyRecord{}, nil
	}
	if limit <= 0 {
		limit = 50
	}
	records, err := uc.history.ListByOrganization(ctx, orgID, limit)
	if err != nil {
		return nil, fmt.Errorf("list policy history: %w", err)
	}
	return records, nil
}

func validateSaveInput(in domain.SavePolicyInput) error {
	switch {
	case strings.TrimSpace(in.OrganizationID) == "":
		return domain.WrapError(domain.ErrInvalidInput, "save policy", errors.New("organization id is required"))
	case strings.TrimSpace(in.DocumentName) == "":
		return domain.WrapError(domain.ErrInvalidInput, "save policy", errors.New("document name is required"))
	case strings.TrimSpace(in.PolicyText) == "":
		return domain.WrapError(domain.ErrInvalidInput, "save policy", errors.New("policy text is required"))
	}
	return nil
}

func (uc *PolicyUseCase) acquire(orgID string) (func(), error) {
	uc.mu.Lock()
	defer uc.mu.Unlock()
	if _, busy := uc.inFlight[orgID]; busy {
		return nil, domain.WrapError(domain.ErrInvalidInput, "save policy",
			errors.New("a save for this organization is already in flight"))
	}
	uc.inFlight[orgID] = struct{}{}
	return func() {
		uc.mu.Lock()
		delete(uc.inFlight, orgID)
		uc.mu.Unlock()
	}, nil
}

// History bookkeeping is best-effort: losing an audit row must not fail a
// save that the registry accepted.
func (uc *PolicyUseCase) record(ctx context.Context, record *domain.PolicyRecord) {
	if uc.history == nil {
		return
	}
	if err := uc.history.Create(ctx, record); err != nil {
		slog.Warn("history_create_failed", "record_id", record.ID, "error", err)
	}
}

func (uc *PolicyUseCase) markPublished(ctx context.Context, recordID, documentID string) {
	if uc.history == nil {
		return
	}
	if err := uc.history.MarkPublished(ctx, recordID, documentID); err != nil {
		slog.Warn("history_mark_published_failed", "record_id", recordID, "error", err)
	}
}

func (uc *PolicyUseCase) markFailed(ctx context.Context, recordID string, saveErr error) {
	if uc.history == nil {
		return
	}
	if err := uc.history.MarkPublishFailed(ctx, recordID, saveErr.Error()); err != nil {
		slog.Warn("history_mark_failed_failed", "record_id", recordID, "error", err)
	}
}
