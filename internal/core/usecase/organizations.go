package usecase

import (
	"context"
	"fmt"

	"github.com/crimsonops/policygen/internal/core/domain"
	"github.com/crimsonops/policygen/internal/core/ports"
)

// ListOrganizationsUseCase feeds the operator's client picker.
type ListOrganizationsUseCase struct {
	registry ports.RegistryGateway
}

func NewListOrganizationsUseCase(registry ports.RegistryGateway) *ListOrganizationsUseCase {
	return &ListOrganizationsUseCase{registry: registry}
}

func (uc *ListOrganizationsUseCase) ListActiveOrganizations(ctx context.Context) ([]domain.OrganizationSummary, error) {
	orgs, err := uc.registry.ListActiveOrganizations(ctx)
	if err != nil {
		return nil, fmt.Errorf("list active organizations: %w", err)
	}
	return orgs, nil
}
