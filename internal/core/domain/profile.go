package domain

import "time"

// Organization is the registry-owned master record for a client. The service
// only ever reads it.
type Organization struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	TypeName string `json:"type_name,omitempty"`
	Status   string `json:"status,omitempty"`
}

// OrganizationSummary is the id/name pair exposed to the client picker.
type OrganizationSummary struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	TypeName string `json:"type_name,omitempty"`
	Status   string `json:"status,omitempty"`
}

// ConfigurationRecord is a device/configuration entry documented for an
// organization in the registry.
type ConfigurationRecord struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	TypeName    string `json:"type_name,omitempty"`
	Notes       string `json:"notes,omitempty"`
	Description string `json:"description,omitempty"`
}

// FlexibleAssetRecord is a structured registry record with a configurable set
// of named traits (e.g. "Security & MSSP" with trait "SIEM Vendor"). Trait
// values keep their wire types; only string traits feed the corpus.
type FlexibleAssetRecord struct {
	ID       string         `json:"id"`
	TypeName string         `json:"type_name,omitempty"`
	Traits   map[string]any `json:"traits,omitempty"`
}

type Contact struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Title string `json:"title,omitempty"`
	Notes string `json:"notes,omitempty"`
}

// OrganizationBundle is everything fetched from the registry for one profile
// request. Secondary slices may be nil when their fetch degraded.
type OrganizationBundle struct {
	Organization   Organization
	Configurations []ConfigurationRecord
	FlexibleAssets []FlexibleAssetRecord
	Contacts       []Contact
}

type CompanySize string

const (
	SizeSmall      CompanySize = "small"
	SizeMedium     CompanySize = "medium"
	SizeLarge      CompanySize = "large"
	SizeEnterprise CompanySize = "enterprise"
)

// Label returns the policy-form wording for a size tier.
func (s CompanySize) Label() string {
	switch s {
	case SizeSmall:
		return "Small (1-50 employees)"
	case SizeMedium:
		return "Medium (51-250 employees)"
	case SizeLarge:
		return "Large (251-1000 employees)"
	case SizeEnterprise:
		return "Enterprise (1000+ employees)"
	default:
		return string(s)
	}
}

// ClientProfile is the assembled per-organization result consumed by the
// policy template renderer. TechnologyFields holds only detected fields;
// absence means undetected. Warnings carry soft degradations (e.g. a
// secondary registry fetch that failed after retries).
type ClientProfile struct {
	OrganizationID        string            `json:"organization_id"`
	OrganizationName      string            `json:"organization_name"`
	Industry              string            `json:"industry"`
	EstimatedSize         CompanySize       `json:"estimated_size"`
	EstimatedSizeLabel    string            `json:"estimated_size_label"`
	ConfigurationCount    int               `json:"configuration_count"`
	ContactCount          int               `json:"contact_count"`
	TechnologyFields      map[string]string `json:"technology_fields"`
	ComplianceTags        []string          `json:"compliance_tags"`
	ComplianceRequirement string            `json:"compliance_requirement,omitempty"`
	Warnings              []string          `json:"warnings,omitempty"`
	GeneratedAt           time.Time         `json:"generated_at"`
}

// PublishRequest is the registry document-creation payload. Sent at most once
// per save action; the registry assigns the persisted document's identity.
type PublishRequest struct {
	OrganizationID string
	Name           string
	Content        string
	Tags           []string
}

type SavePolicyInput struct {
	OrganizationID string
	DocumentName   string
	PolicyText     string
	ComplianceTags []string
}

// SaveReceipt identifies the history record and, on success, the
// registry-assigned document.
type SaveReceipt struct {
	RecordID           string `json:"record_id"`
	RegistryDocumentID string `json:"registry_document_id,omitempty"`
}

type PolicyStatus string

const (
	PolicyStatusGenerated     PolicyStatus = "generated"
	PolicyStatusPublished     PolicyStatus = "published"
	PolicyStatusPublishFailed PolicyStatus = "publish_failed"
)

// PolicyRecord is one row of generation history: a policy save attempt and
// its outcome against the registry.
type PolicyRecord struct {
	ID                 string       `json:"id"`
	OrganizationID     string       `json:"organization_id"`
	DocumentName       string       `json:"document_name"`
	ComplianceTags     []string     `json:"compliance_tags,omitempty"`
	RegistryDocumentID string       `json:"registry_document_id,omitempty"`
	Status             PolicyStatus `json:"status"`
	Error              string       `json:"error,omitempty"`
	CreatedAt          time.Time    `json:"created_at"`
	UpdatedAt          time.Time    `json:"updated_at"`
}
