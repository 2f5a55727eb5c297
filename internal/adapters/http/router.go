package httpadapter

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/crimsonops/policygen/internal/core/domain"
	"github.com/crimsonops/policygen/internal/core/ports"
	"github.com/crimsonops/policygen/internal/observability/metrics"
)

type Router struct {
	service string

	organizations ports.OrganizationLister
	profiles      ports.ProfileBuilder
	policies      ports.PolicySaver
	metrics       *metrics.HTTPServerMetrics

	rateLimitRPS   float64
	rateLimitBurst int
	maxConcurrent  int
	queueTimeout   time.Duration
}

type RouterOptions struct {
	Service        string
	RateLimitRPS   float64
	RateLimitBurst int
	MaxConcurrent  int
	QueueTimeout   time.Duration
}

func NewRouter(
	organizations ports.OrganizationLister,
	profiles ports.ProfileBuilder,
	policies ports.PolicySaver,
	httpMetrics *metrics.HTTPServerMetrics,
	options RouterOptions,
) *Router {
	service := options.Service
	if service == "" {
		service = "policygen-api"
	}
	return &Router{
		service:        service,
		organizations:  organizations,
		profiles:       profiles,
		policies:       policies,
		metrics:        httpMetrics,
		rateLimitRPS:   options.RateLimitRPS,
		rateLimitBurst: options.RateLimitBurst,
		maxConcurrent:  options.MaxConcurrent,
		queueTimeout:   options.QueueTimeout,
	}
}

func (rt *Router) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", rt.healthz)
	if rt.metrics != nil {
		mux.Handle("/metrics", rt.metrics.Handler())
	}
	mux.HandleFunc("/v1/organizations", rt.listOrganizations)
	mux.HandleFunc("/v1/organizations/", rt.organizationSubresource)

	var handler http.Handler = mux
	if rt.maxConcurrent > 0 {
		handler = backpressureMiddleware(handler, rt.maxConcurrent, rt.queueTimeout)
	}
	if rt.rateLimitRPS > 0 {
		handler = rateLimitMiddleware(handler, rt.rateLimitRPS, rt.rateLimitBurst)
	}
	if rt.metrics != nil {
		handler = rt.metrics.Middleware(rt.service, handler)
	}
	return instrumentMiddleware(handler)
}

func (rt *Router) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (rt *Router) listOrganizations(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	orgs, err := rt.organizations.ListActiveOrganizations(r.Context())
	if err != nil {
		writeError(w, mapErrorToHTTPStatus(err), err.Error())
		return
	}
	if orgs == nil {
		orgs = []domain.OrganizationSummary{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"organizations": orgs})
}

// organizationSubresource dispatches /v1/organizations/{id}/profile and
// /v1/organizations/{id}/policies.
func (rt *Router) organizationSubresource(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/v1/organizations/")
	orgID, resource, found := strings.Cut(rest, "/")
	if !found || orgID == "" {
		writeError(w, http.StatusNotFound, "not found")
		return
	}

	switch resource {
	case "profile":
		rt.getProfile(w, r, orgID)
	case "policies":
		switch r.Method {
		case http.MethodPost:
			rt.savePolicy(w, r, orgID)
		case http.MethodGet:
			rt.listPolicies(w, r, orgID)
		default:
			writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		}
	default:
		writeError(w, http.StatusNotFound, "not found")
	}
}

func (rt *Router) getProfile(w http.ResponseWriter, r *http.Request, orgID string) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	profile, err := rt.profiles.BuildProfile(r.Context(), orgID)
	if rt.metrics != nil {
		fieldCount := 0
		if profile != nil {
			fieldCount = len(profile.TechnologyFields)
		}
		rt.metrics.RecordProfileBuild(rt.service, fieldCount, err)
	}
	if err != nil {
		writeError(w, mapErrorToHTTPStatus(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, profile)
}

func (rt *Router) savePolicy(w http.ResponseWriter, r *http.Request, orgID string) {
	var req struct {
		DocumentName   string   `json:"document_name"`
		PolicyText     string   `json:"policy_text"`
		ComplianceTags []string `json:"compliance_tags"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}

	receipt, err := rt.policies.SavePolicy(r.Context(), domain.SavePolicyInput{
		OrganizationID: orgID,
		DocumentName:   req.DocumentName,
		PolicyText:     req.PolicyText,
		ComplianceTags: req.ComplianceTags,
	})
	if rt.metrics != nil {
		rt.metrics.RecordPolicySave(rt.service, err)
	}
	if err != nil {
		payload := map[string]any{"error": err.Error()}
		if receipt != nil && receipt.RecordID != "" {
			payload["record_id"] = receipt.RecordID
		}
		writeJSON(w, mapErrorToHTTPStatus(err), payload)
		return
	}
	writeJSON(w, http.StatusCreated, receipt)
}

func (rt *Router) listPolicies(w http.ResponseWriter, r *http.Request, orgID string) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			writeError(w, http.StatusBadRequest, "limit must be a non-negative integer")
			return
		}
		limit = parsed
	}

	records, err := rt.policies.ListPolicies(r.Context(), orgID, limit)
	if err != nil {
		writeError(w, mapErrorToHTTPStatus(err), err.Error())
		return
	}
	if records == nil {
		records = []domain.PolicyRecord{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"policies": records})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
