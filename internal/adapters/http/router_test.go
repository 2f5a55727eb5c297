package httpadapter

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/crimsonops/policygen/internal/core/domain"
)

type orgListerStub struct {
	orgs []domain.OrganizationSummary
	err  error
}

func (s *orgListerStub) ListActiveOrganizations(context.Context) ([]domain.OrganizationSummary, error) {
	return s.orgs, s.err
}

type profileBuilderStub struct {
	profile *domain.ClientProfile
	err     error
}

func (s *profileBuilderStub) BuildProfile(context.Context, string) (*domain.ClientProfile, error) {
	return s.profile, s.err
}

type policySaverStub struct {
	receipt *domain.SaveReceipt
	saveErr error
	records []domain.PolicyRecord
	listErr error

	lastInput domain.SavePolicyInput
}

func (s *policySaverStub) SavePolicy(_ context.Context, in domain.SavePolicyInput) (*domain.SaveReceipt, error) {
	s.lastInput = in
	return s.receipt, s.saveErr
}

func (s *policySaverStub) ListPolicies(context.Context, string, int) ([]domain.PolicyRecord, error) {
	return s.records, s.listErr
}

func newTestRouter(orgs *orgListerStub, profiles *profileBuilderStub, policies *policySaverStub) http.Handler {
	if orgs == nil {
		orgs = &orgListerStub{}
	}
	if profiles == nil {
		profiles = &profileBuilderStub{}
	}
	if policies == nil {
		policies = &policySaverStub{}
	}
	return NewRouter(orgs, profiles, policies, nil, RouterOptions{}).Handler()
}

func TestHealthz(t *testing.T) {
	handler := newTestRouter(nil, nil, nil)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)

	if res.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", res.Code)
	}
	if res.Header().Get(requestIDHeader) == "" {
		t.Fatalf("expected request id header on every response")
	}
}

func TestListOrganizations(t *testing.T) {
	handler := newTestRouter(&orgListerStub{
		orgs: []domain.OrganizationSummary{
			{ID: "1", Name: "Acme Manufacturing", Status: "Active"},
			{ID: "2", Name: "Lakeside Clinic", Status: "Active"},
		},
	}, nil, nil)

	req := httptest.NewRequest(http.MethodGet, "/v1/organizations", nil)
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)

	if res.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", res.Code, res.Body.String())
	}
	var body struct {
		Organizations []domain.OrganizationSummary `json:"organizations"`
	}
	if err := json.NewDecoder(res.Body).Decode(&body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(body.Organizations) != 2 || body.Organizations[1].Name != "Lakeside Clinic" {
		t.Fatalf("unexpected body: %+v", body)
	}
}

func TestListOrganizationsRegistryDown(t *testing.T) {
	handler := newTestRouter(&orgListerStub{
		err: domain.WrapError(domain.ErrTemporary, "list organizations", errors.New("503")),
	}, nil, nil)

	req := httptest.NewRequest(http.MethodGet, "/v1/organizations", nil)
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)

	if res.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", res.Code)
	}
}

func TestGetProfile(t *testing.T) {
	handler := newTestRouter(nil, &profileBuilderStub{
		profile: &domain.ClientProfile{
			OrganizationID:   "7",
			OrganizationName: "Lakeside Clinic",
			Industry:         "Healthcare",
			EstimatedSize:    domain.SizeSmall,
			TechnologyFields: map[string]string{"mdr_solution": "Sophos MDR"},
			ComplianceTags:   []string{"HIPAA"},
		},
	}, nil)

	req := httptest.NewRequest(http.MethodGet, "/v1/organizations/7/profile", nil)
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)

	if res.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", res.Code, res.Body.String())
	}
	var body map[string]any
	if err := json.NewDecoder(res.Body).Decode(&body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if body["industry"] != "Healthcare" {
		t.Fatalf("unexpected profile body: %v", body)
	}
	fields, _ := body["technology_fields"].(map[string]any)
	if fields["mdr_solution"] != "Sophos MDR" {
		t.Fatalf("unexpected technology fields: %v", fields)
	}
}

func TestGetProfileErrorMapping(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"unknown org", domain.WrapError(domain.ErrOrganizationNotFound, "fetch", errors.New("404")), http.StatusNotFound},
		{"bad id", domain.WrapError(domain.ErrInvalidInput, "fetch", errors.New("empty")), http.StatusBadRequest},
		{"registry down", domain.WrapError(domain.ErrTemporary, "fetch", errors.New("503")), http.StatusServiceUnavailable},
		{"bad credentials", domain.WrapError(domain.ErrUnauthorized, "fetch", errors.New("401")), http.StatusBadGateway},
		{"unexpected", errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := newTestRouter(nil, &profileBuilderStub{err: tt.err}, nil)

			req := httptest.NewRequest(http.MethodGet, "/v1/organizations/7/profile", nil)
			res := httptest.NewRecorder()
			handler.ServeHTTP(res, req)

			if res.Code != tt.want {
				t.Fatalf("expected %d, got %d", tt.want, res.Code)
			}
		})
	}
}

func TestSavePolicy(t *testing.T) {
	policies := &policySaverStub{
		receipt: &domain.SaveReceipt{RecordID: "rec-1", RegistryDocumentID: "doc-42"},
	}
	handler := newTestRouter(nil, nil, policies)

	payload := map[string]any{
		"document_name":   "Information Security Policy",
		"policy_text":     "# Information Security Policy",
		"compliance_tags": []string{"HIPAA"},
	}
	body, _ := json.Marshal(payload)
	req := httptest.NewRequest(http.MethodPost, "/v1/organizations/7/policies", bytes.NewReader(body))
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)

	if res.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", res.Code, res.Body.String())
	}
	if policies.lastInput.OrganizationID != "7" {
		t.Fatalf("organization id not taken from path: %+v", policies.lastInput)
	}
	var receipt domain.SaveReceipt
	if err := json.NewDecoder(res.Body).Decode(&receipt); err != nil {
		t.Fatalf("decode receipt: %v", err)
	}
	if receipt.RegistryDocumentID != "doc-42" {
		t.Fatalf("unexpected receipt: %+v", receipt)
	}
}

func TestSavePolicyPublishFailureKeepsRecordID(t *testing.T) {
	policies := &policySaverStub{
		receipt: &domain.SaveReceipt{RecordID: "rec-1"},
		saveErr: domain.WrapError(domain.ErrPublishFailed, "create document", errors.New("500")),
	}
	handler := newTestRouter(nil, nil, policies)

	body, _ := json.Marshal(map[string]string{
		"document_name": "Policy",
		"policy_text":   "text",
	})
	req := httptest.NewRequest(http.MethodPost, "/v1/organizations/7/policies", bytes.NewReader(body))
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)

	if res.Code != http.StatusBadGateway {
		t.Fatalf("expected 502, got %d", res.Code)
	}
	var resp map[string]any
	if err := json.NewDecoder(res.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp["record_id"] != "rec-1" {
		t.Fatalf("expected record_id in failure body, got %v", resp)
	}
}

func TestSavePolicyInvalidJSON(t *testing.T) {
	handler := newTestRouter(nil, nil, nil)

	req := httptest.NewRequest(http.MethodPost, "/v1/organizations/7/policies", bytes.NewReader([]byte("{")))
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)

	if res.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", res.Code)
	}
}

func TestListPolicies(t *testing.T) {
	policies := &policySaverStub{
		records: []domain.PolicyRecord{
			{ID: "rec-1", OrganizationID: "7", DocumentName: "Policy", Status: domain.PolicyStatusPublished},
		},
	}
	handler := newTestRouter(nil, nil, policies)

	req := httptest.NewRequest(http.MethodGet, "/v1/organizations/7/policies?limit=5", nil)
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)

	if res.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", res.Code)
	}
	var body struct {
		Policies []domain.PolicyRecord `json:"policies"`
	}
	if err := json.NewDecoder(res.Body).Decode(&body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(body.Policies) != 1 || body.Policies[0].ID != "rec-1" {
		t.Fatalf("unexpected policies: %+v", body.Policies)
	}
}

func TestListPoliciesRejectsBadLimit(t *testing.T) {
	handler := newTestRouter(nil, nil, nil)

	req := httptest.NewRequest(http.MethodGet, "/v1/organizations/7/policies?limit=abc", nil)
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)

	if res.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", res.Code)
	}
}

func TestUnknownSubresource(t *testing.T) {
	handler := newTestRouter(nil, nil, nil)

	req := httptest.NewRequest(http.MethodGet, "/v1/organizations/7/unknown", nil)
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)

	if res.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", res.Code)
	}
}

func TestRateLimitMiddlewareReturns429(t *testing.T) {
	handler := NewRouter(&orgListerStub{}, &profileBuilderStub{}, &policySaverStub{}, nil, RouterOptions{
		RateLimitRPS:   1,
		RateLimitBurst: 1,
	}).Handler()

	req1 := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	res1 := httptest.NewRecorder()
	handler.ServeHTTP(res1, req1)
	if res1.Code != http.StatusOK {
		t.Fatalf("first request expected 200, got %d", res1.Code)
	}

	req2 := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	res2 := httptest.NewRecorder()
	handler.ServeHTTP(res2, req2)
	if res2.Code != http.StatusTooManyRequests {
		t.Fatalf("second request expected 429, got %d", res2.Code)
	}
	if res2.Header().Get("Retry-After") == "" {
		t.Fatalf("expected Retry-After header for 429 response")
	}
}

func TestBackpressureMiddlewareReturns503WhenSaturated(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	done := make(chan int, 1)

	base := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		started <- struct{}{}
		<-release
		w.WriteHeader(http.StatusNoContent)
	})
	handler := backpressureMiddleware(base, 1, 20*time.Millisecond)

	go func() {
		req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
		res := httptest.NewRecorder()
		handler.ServeHTTP(res, req)
		done <- res.Code
	}()

	<-started

	req2 := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	res2 := httptest.NewRecorder()
	handler.ServeHTTP(res2, req2)
	if res2.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 for saturated backpressure gate, got %d", res2.Code)
	}

	var resp map[string]any
	if err := json.NewDecoder(bytes.NewReader(res2.Body.Bytes())).Decode(&resp); err != nil {
		t.Fatalf("decode overload response: %v", err)
	}
	if resp["error"] == "" {
		t.Fatalf("expected overload error message in response")
	}

	close(release)

	select {
	case code := <-done:
		if code != http.StatusNoContent {
			t.Fatalf("first request expected 204, got %d", code)
		}
	case <-time.After(1 * time.Second):
		t.Fatalf("timed out waiting for first request completion")
	}
}
