package usecase

import (
	"strings"

	"github.com/crimsonops/policygen/internal/core/domain"
)

// SizeThresholds are the configuration-count cutoffs for the size estimate.
// They are configuration, not algorithm: tune via env without touching code.
type SizeThresholds struct {
	SmallMax  int
	MediumMax int
	LargeMax  int
}

func DefaultSizeThresholds() SizeThresholds {
	return SizeThresholds{SmallMax: 20, MediumMax: 75, LargeMax: 200}
}

func (t SizeThresholds) normalize() SizeThresholds {
	out := t
	def := DefaultSizeThresholds()
	if out.SmallMax <= 0 {
		out.SmallMax = def.SmallMax
	}
	if out.MediumMax <= out.SmallMax {
		out.MediumMax = max(def.MediumMax, out.SmallMax+1)
	}
	if out.LargeMax <= out.MediumMax {
		out.LargeMax = max(def.LargeMax, out.MediumMax+1)
	}
	return out
}

func estimateSize(configCount int, thresholds SizeThresholds) domain.CompanySize {
	t := thresholds.normalize()
	switch {
	case configCount < t.SmallMax:
		return domain.SizeSmall
	case configCount < t.MediumMax:
		return domain.SizeMedium
	case configCount < t.LargeMax:
		return domain.SizeLarge
	default:
		return domain.SizeEnterprise
	}
}

// industryKeyword pairs are checked in declared order against the registry's
// organization type name; the first hit wins.
type industryKeyword struct {
	keyword string
	label   string
}

var industryTable = []industryKeyword{
	{"healthcare", "Healthcare"},
	{"medical", "Healthcare"},
	{"hospital", "Healthcare"},
	{"clinic", "Healthcare"},
	{"financial", "Financial Services"},
	{"bank", "Financial Services"},
	{"investment", "Financial Services"},
	{"manufacturing", "Manufacturing"},
	{"factory", "Manufacturing"},
	{"retail", "Retail"},
	{"store", "Retail"},
	{"shop", "Retail"},
	{"technology", "Technology"},
	{"software", "Technology"},
	{"saas", "Technology"},
	{"education", "Education"},
	{"school", "Education"},
	{"university", "Education"},
	{"legal", "Legal"},
	{"law", "Legal"},
	{"attorney", "Legal"},
}

const industryFallback = "General Business"

func industryFor(orgTypeName string) string {
	lowered := strings.ToLower(orgTypeName)
	for _, entry := range industryTable {
		if strings.Contains(lowered, entry.keyword) {
			return entry.label
		}
	}
	return industryFallback
}

// complianceLabels maps a detected tag to the policy-form wording for the
// primary compliance requirement.
var complianceLabels = map[string]string{
	"NIST":      "NIST Cybersecurity Framework",
	"SOC 2":     "SOC 2 Type II",
	"ISO 27001": "ISO 27001",
	"HIPAA":     "HIPAA",
	"PCI-DSS":   "PCI DSS",
	"GDPR":      "GDPR",
	"CMMC":      "CMMC Level 2",
}

func complianceRequirement(tags []string) string {
	for _, tag := range tags {
		if label, ok := complianceLabels[tag]; ok {
			return label
		}
	}
	if len(tags) > 0 {
		return tags[0]
	}
	return ""
}
