package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/crimsonops/policygen/internal/core/corpus"
	"github.com/crimsonops/policygen/internal/core/detect"
	"github.com/crimsonops/policygen/internal/core/domain"
	"github.com/crimsonops/policygen/internal/core/ports"
)

// ProfileUseCase builds one client profile per request: fetch the
// organization's registry records, flatten them into a corpus, run
// detection, assemble.
type ProfileUseCase struct {
	registry   ports.RegistryGateway
	engine     *detect.Engine
	events     ports.EventPublisher
	thresholds SizeThresholds
}

func NewProfileUseCase(
	registry ports.RegistryGateway,
	engine *detect.Engine,
	events ports.EventPublisher,
	thresholds SizeThresholds,
) *ProfileUseCase {
	return &ProfileUseCase{
		registry:   registry,
		engine:     engine,
		events:     events,
		thresholds: thresholds,
	}
}

// BuildProfile aborts only when the organization record itself cannot be
// fetched. Secondary record types (configurations, flexible assets,
// contacts) degrade to warnings on the profile instead of failing the
// request.
func (uc *ProfileUseCase) BuildProfile(ctx context.Context, orgID string) (*domain.ClientProfile, error) {
	if strings.TrimSpace(orgID) == "" {
		return nil, domain.WrapError(domain.ErrInvalidInput, "build profile", errors.New("organization id is required"))
	}

	org, err := uc.registry.FetchOrganization(ctx, orgID)
	if err != nil {
		return nil, fmt.Errorf("fetch organization: %w", err)
	}

	bundle, warnings := uc.fetchSecondaryRecords(ctx, *org)

	built := corpus.Build(bundle)
	detected := uc.engine.Detect(built.Text)

	profile := uc.assemble(*org, bundle, detected, warnings)

	if uc.events != nil {
		if err := uc.events.PublishProfileAssembled(ctx, org.ID, len(detected.Fields), len(detected.Tags)); err != nil {
			slog.Warn("profile_event_publish_failed", "organization_id", org.ID, "error", err)
		}
	}

	return profile, nil
}

// fetchSecondaryRecords issues the three independent reads concurrently and
// joins before corpus building. Goroutines never return an error: a failed
// fetch leaves its slice nil and adds a warning.
func (uc *ProfileUseCase) fetchSecondaryRecords(ctx context.Context, org domain.Organization) (domain.OrganizationBundle, []string) {
	bundle := domain.OrganizationBundle{Organization: org}

	var configErr, assetErr, contactErr error
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		bundle.Configurations, configErr = uc.registry.ListConfigurations(gctx, org.ID)
		return nil
	})
	g.Go(func() error {
		bundle.FlexibleAssets, assetErr = uc.registry.ListFlexibleAssets(gctx, org.ID)
		return nil
	})
	g.Go(func() error {
		bundle.Contacts, contactErr = uc.registry.ListContacts(gctx, org.ID)
		return nil
	})
	_ = g.Wait()

	var warnings []string
	for _, failed := range []struct {
		kind string
		err  error
	}{
		{"configurations", configErr},
		{"flexible assets", assetErr},
		{"contacts", contactErr},
	} {
		if failed.err == nil {
			continue
		}
		slog.Warn("secondary_fetch_degraded",
			"organization_id", org.ID,
			"record_type", failed.kind,
			"error", failed.err,
		)
		warnings = append(warnings, failed.kind+" unavailable")
	}
	return bundle, warnings
}

func (uc *ProfileUseCase) assemble(
	org domain.Organization,
	bundle domain.OrganizationBundle,
	detected detect.Result,
	warnings []string,
) *domain.ClientProfile {
	size := estimateSize(len(bundle.Configurations), uc.thresholds)
	return &domain.ClientProfile{
		OrganizationID:        org.ID,
		OrganizationName:      org.Name,
		Industry:              industryFor(org.TypeName),
		EstimatedSize:         size,
		EstimatedSizeLabel:    size.Label(),
		ConfigurationCount:    len(bundle.Configurations),
		ContactCount:          len(bundle.Contacts),
		TechnologyFields:      detected.Fields,
		ComplianceTags:        detected.Tags,
		ComplianceRequirement: complianceRequirement(detected.Tags),
		Warnings:              warnings,
		GeneratedAt:           time.Now().UTC(),
	}
}
