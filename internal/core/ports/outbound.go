package ports

import (
	"context"

	"github.com/crimsonops/policygen/internal/core/domain"
)

// RegistryGateway is the outbound contract against the asset-management
// registry. All reads are safe to retry; CreateDocument is not (calling it
// twice creates two documents) and implementations must attempt it once.
type RegistryGateway interface {
	ListActiveOrganizations(ctx context.Context) ([]domain.OrganizationSummary, error)
	FetchOrganization(ctx context.Context, orgID string) (*domain.Organization, error)
	ListConfigurations(ctx context.Context, orgID string) ([]domain.ConfigurationRecord, error)
	ListFlexibleAssets(ctx context.Context, orgID string) ([]domain.FlexibleAssetRecord, error)
	ListContacts(ctx context.Context, orgID string) ([]domain.Contact, error)
	CreateDocument(ctx context.Context, req domain.PublishRequest) (string, error)
}

// HistoryStore persists policy generation/publish attempts.
type HistoryStore interface {
	Create(ctx context.Context, rec *domain.PolicyRecord) error
	MarkPublished(ctx context.Context, id, registryDocumentID string) error
	MarkPublishFailed(ctx context.Context, id, message string) error
	ListByOrganization(ctx context.Context, orgID string, limit int) ([]domain.PolicyRecord, error)
}

// EventPublisher emits audit events for downstream consumers. Failures are
// soft: callers log and continue.
type EventPublisher interface {
	PublishProfileAssembled(ctx context.Context, orgID string, fieldCount, tagCount int) error
	PublishPolicySaved(ctx context.Context, orgID, registryDocumentID string) error
}
