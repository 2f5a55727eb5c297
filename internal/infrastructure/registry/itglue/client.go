// Package itglue is the HTTP gateway to the asset-management registry
// (IT Glue-compatible JSON:API). Reads go through a rate limiter, bounded
// retries and a circuit breaker; document creation is a single attempt
// because the registry create is not idempotent.
package itglue

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/crimsonops/policygen/internal/core/domain"
	"github.com/crimsonops/policygen/internal/infrastructure/resilience"
)

// CallObserver receives one observation per finished registry call.
// Implemented by the metrics layer; nil disables observation.
type CallObserver interface {
	ObserveRegistryCall(operation, outcome string, elapsed time.Duration)
}

type Config struct {
	BaseURL string
	APIKey  string

	Timeout  time.Duration
	PageSize int

	RateLimitRPS   float64
	RateLimitBurst int

	Resilience resilience.Config
	Observer   CallObserver
}

type Client struct {
	baseURL  string
	apiKey   string
	pageSize int

	httpClient *http.Client
	executor   *resilience.Executor
	limiter    *rate.Limiter
	observer   CallObserver
}

func New(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	pageSize := cfg.PageSize
	if pageSize <= 0 {
		pageSize = 500
	}
	rps := cfg.RateLimitRPS
	if rps <= 0 {
		rps = 5
	}
	burst := cfg.RateLimitBurst
	if burst <= 0 {
		burst = 10
	}

	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:     cfg.APIKey,
		pageSize:   pageSize,
		httpClient: &http.Client{Timeout: timeout},
		executor:   resilience.NewExecutor(cfg.Resilience),
		limiter:    rate.NewLimiter(rate.Limit(rps), burst),
		observer:   cfg.Observer,
	}
}

// ListActiveOrganizations returns id/name pairs for organizations whose
// status reads active. The registry reports status as a free-form name
// ("Active", "Active - Managed"), so the filter is a substring check.
func (c *Client) ListActiveOrganizations(ctx context.Context) ([]domain.OrganizationSummary, error) {
	query := url.Values{}
	query.Set("page[size]", strconv.Itoa(c.pageSize))
	query.Set("sort", "name")

	var envelope listEnvelope
	if err := c.getJSON(ctx, "/organizations", query, &envelope, "registry.list_organizations"); err != nil {
		return nil, err
	}

	summaries := make([]domain.OrganizationSummary, 0, len(envelope.Data))
	for _, res := range envelope.Data {
		status := res.stringAttr("organization-status-name")
		if !strings.Contains(strings.ToLower(status), "active") {
			continue
		}
		summaries = append(summaries, domain.OrganizationSummary{
			ID:       res.ID,
			Name:     res.stringAttr("name"),
			TypeName: res.stringAttr("organization-type-name"),
			Status:   status,
		})
	}
	return summaries, nil
}

func (c *Client) FetchOrganization(ctx context.Context, orgID string) (*domain.Organization, error) {
	var envelope singleEnvelope
	err := c.getJSON(ctx, "/organizations/"+url.PathEscape(orgID), nil, &envelope, "registry.fetch_organization")
	if err != nil {
		if statusCodeOf(err) == http.StatusNotFound {
			return nil, domain.WrapError(domain.ErrOrganizationNotFound, "fetch organization", err)
		}
		return nil, err
	}

	res := envelope.Data
	return &domain.Organization{
		ID:       res.ID,
		Name:     res.stringAttr("name"),
		TypeName: res.stringAttr("organization-type-name"),
		Status:   res.stringAttr("organization-status-name"),
	}, nil
}

func (c *Client) ListConfigurations(ctx context.Context, orgID string) ([]domain.ConfigurationRecord, error) {
	var envelope listEnvelope
	if err := c.getJSON(ctx, "/configurations", c.orgScopedQuery(orgID), &envelope, "registry.list_configurations"); err != nil {
		return nil, err
	}

	records := make([]domain.ConfigurationRecord, 0, len(envelope.Data))
	for _, res := range envelope.Data {
		records = append(records, domain.ConfigurationRecord{
			ID:          res.ID,
			Name:        res.stringAttr("name"),
			TypeName:    res.stringAttr("configuration-type-name"),
			Notes:       res.stringAttr("notes"),
			Description: res.stringAttr("description"),
		})
	}
	return records, nil
}

func (c *Client) ListFlexibleAssets(ctx context.Context, orgID string) ([]domain.FlexibleAssetRecord, error) {
	var envelope listEnvelope
	if err := c.getJSON(ctx, "/flexible_assets", c.orgScopedQuery(orgID), &envelope, "registry.list_flexible_assets"); err != nil {
		return nil, err
	}

	records := make([]domain.FlexibleAssetRecord, 0, len(envelope.Data))
	for _, res := range envelope.Data {
		records = append(records, domain.FlexibleAssetRecord{
			ID:       res.ID,
			TypeName: res.stringAttr("flexible-asset-type-name"),
			Traits:   res.mapAttr("traits"),
		})
	}
	return records, nil
}

func (c *Client) ListContacts(ctx context.Context, orgID string) ([]domain.Contact, error) {
	var envelope listEnvelope
	if err := c.getJSON(ctx, "/contacts", c.orgScopedQuery(orgID), &envelope, "registry.list_contacts"); err != nil {
		return nil, err
	}

	contacts := make([]domain.Contact, 0, len(envelope.Data))
	for _, res := range envelope.Data {
		name := strings.TrimSpace(res.stringAttr("first-name") + " " + res.stringAttr("last-name"))
		contacts = append(contacts, domain.Contact{
			ID:    res.ID,
			Name:  name,
			Title: res.stringAttr("title"),
			Notes: res.stringAttr("notes"),
		})
	}
	return contacts, nil
}

// CreateDocument persists a generated policy. One attempt only: retrying a
// failed create could attach the same document twice.
func (c *Client) CreateDocument(ctx context.Context, req domain.PublishRequest) (string, error) {
	payload := map[string]any{
		"data": map[string]any{
			"type": "documents",
			"attributes": map[string]any{
				"organization-id": req.OrganizationID,
				"name":            req.Name,
				"content":         req.Content,
				"tags":            req.Tags,
			},
		},
	}

	var envelope singleEnvelope
	if err := c.postJSON(ctx, "/documents", payload, &envelope, "registry.create_document"); err != nil {
		return "", domain.WrapError(domain.ErrPublishFailed, "create document", err)
	}
	if envelope.Data.ID == "" {
		return "", domain.WrapError(domain.ErrPublishFailed, "create document", fmt.Errorf("registry returned no document id"))
	}
	return envelope.Data.ID, nil
}

func (c *Client) orgScopedQuery(orgID string) url.Values {
	query := url.Values{}
	query.Set("filter[organization_id]", orgID)
	query.Set("page[size]", strconv.Itoa(c.pageSize))
	return query
}
