package usecase

import (
	"context"
	"sync"

	"github.com/crimsonops/policygen/internal/core/domain"
)

type registryFake struct {
	orgs    []domain.OrganizationSummary
	listErr error

	org      *domain.Organization
	fetchErr error

	configurations []domain.ConfigurationRecord
	configErr      error
	assets         []domain.FlexibleAssetRecord
	assetErr       error
	contacts       []domain.Contact
	contactErr     error

	documentID string
	createErr  error
	created    []domain.PublishRequest
	createGate chan struct{}

	mu sync.Mutex
}

func (f *registryFake) ListActiveOrganizations(context.Context) ([]domain.OrganizationSummary, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.orgs, nil
}

func (f *registryFake) FetchOrganization(context.Context, string) (*domain.Organization, error) {
	if f.fetchErr != nil {
		return nil, f.fetchErr
	}
	copyOrg := *f.org
	return &copyOrg, nil
}

func (f *registryFake) ListConfigurations(context.Context, string) ([]domain.ConfigurationRecord, error) {
	if f.configErr != nil {
		return nil, f.configErr
	}
	return f.configurations, nil
}

func (f *registryFake) ListFlexibleAssets(context.Context, string) ([]domain.FlexibleAssetRecord, error) {
	if f.assetErr != nil {
		return nil, f.assetErr
	}
	return f.assets, nil
}

func (f *registryFake) ListContacts(context.Context, string) ([]domain.Contact, error) {
	if f.contactErr != nil {
		return nil, f.contactErr
	}
	return f.contacts, nil
}

func (f *registryFake) CreateDocument(_ context.Context, req domain.PublishRequest) (string, error) {
	if f.createGate != nil {
		<-f.createGate
	}
	f.mu.Lock()
	f.created = append(f.created, req)
	f.mu.Unlock()
	if f.createErr != nil {
		return "", f.createErr
	}
	return f.documentID, nil
}

type historyFake struct {
	createErr error

	mu        sync.Mutex
	records   []domain.PolicyRecord
	published map[string]string
	failed    map[string]string
}

func newHistoryFake() *historyFake {
	return &historyFake{
		published: make(map[string]string),
		failed:    make(map[string]string),
	}
}

func (f *historyFake) Create(_ context.Context, rec *domain.PolicyRecord) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.mu.Lock()
	f.records = append(f.records, *rec)
	f.mu.Unlock()
	return nil
}

func (f *historyFake) MarkPublished(_ context.Context, id, documentID string) error {
	f.mu.Lock()
	f.published[id] = documentID
	f.mu.Unlock()
	return nil
}

func (f *historyFake) MarkPublishFailed(_ context.Context, id, message string) error {
	f.mu.Lock()
	f.failed[id] = message
	f.mu.Unlock()
	return nil
}

func (f *historyFake) ListByOrganization(_ context.Context, orgID string, _ int) ([]domain.PolicyRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.PolicyRecord
	for _, rec := range f.records {
		if rec.OrganizationID == orgID {
			out = append(out, rec)
		}
	}
	return out, nil
}

type eventsFake struct {
	err error

	mu        sync.Mutex
	profiles  int
	published int
}

func (f *eventsFake) PublishProfileAssembled(context.Context, string, int, int) error {
	f.mu.Lock()
	f.profiles++
	f.mu.Unlock()
	return f.err
}

func (f *eventsFake) PublishPolicySaved(context.Context, string, string) error {
	f.mu.Lock()
	f.published++
	f.mu.Unlock()
	return f.err
}
