package ports

import (
	"context"

	"github.com/crimsonops/policygen/internal/core/domain"
)

// OrganizationLister populates the client picker.
type OrganizationLister interface {
	ListActiveOrganizations(ctx context.Context) ([]domain.OrganizationSummary, error)
}

// ProfileBuilder assembles the per-organization client profile.
type ProfileBuilder interface {
	BuildProfile(ctx context.Context, orgID string) (*domain.ClientProfile, error)
}

// PolicySaver publishes a generated policy back to the registry and records
// the attempt.
type PolicySaver interface {
	SavePolicy(ctx context.Context, in domain.SavePolicyInput) (*domain.SaveReceipt, error)
	ListPolicies(ctx context.Context, orgID string, limit int) ([]domain.PolicyRecord, error)
}
