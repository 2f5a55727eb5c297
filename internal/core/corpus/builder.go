// Package corpus flattens one organization's registry records into a single
// normalized text blob used as detection input.
package corpus

import (
	"sort"
	"strings"

	"github.com/crimsonops/policygen/internal/core/domain"
)

// Fragment links a piece of corpus text back to the record it came from.
// Provenance is diagnostic only; detection never consults it.
type Fragment struct {
	RecordID   string
	RecordKind string
	Text       string
}

// Corpus is the normalized concatenation of every textual field in a bundle:
// all lower case, whitespace runs collapsed, punctuation preserved (terms
// like "365" or "pci-dss" must survive normalization). Rebuilt on every
// profile request, never cached.
type Corpus struct {
	Text      string
	Fragments []Fragment
}

const (
	kindConfiguration = "configuration"
	kindFlexibleAsset = "flexible_asset"
)

// Build concatenates configuration and flexible-asset text in input order so
// the same bundle always yields the same corpus string.
func Build(bundle domain.OrganizationBundle) Corpus {
	var fragments []Fragment

	for _, cfg := range bundle.Configurations {
		text := normalize(cfg.Name, cfg.TypeName, cfg.Notes, cfg.Description)
		if text == "" {
			continue
		}
		fragments = append(fragments, Fragment{
			RecordID:   cfg.ID,
			RecordKind: kindConfiguration,
			Text:       text,
		})
	}

	for _, asset := range bundle.FlexibleAssets {
		parts := []string{asset.TypeName}
		parts = append(parts, textualTraits(asset.Traits)...)
		text := normalize(parts...)
		if text == "" {
			continue
		}
		fragments = append(fragments, Fragment{
			RecordID:   asset.ID,
			RecordKind: kindFlexibleAsset,
			Text:       text,
		})
	}

	texts := make([]string, 0, len(fragments))
	for _, fragment := range fragments {
		texts = append(texts, fragment.Text)
	}

	return Corpus{
		Text:      strings.Join(texts, " "),
		Fragments: fragments,
	}
}

// textualTraits keeps string trait values and skips everything else.
// Traits decode from JSON as map[string]any, so the wire order is gone;
// sorting keys keeps the corpus deterministic.
func textualTraits(traits map[string]any) []string {
	if len(traits) == 0 {
		return nil
	}
	keys := make([]string, 0, len(traits))
	for key := range traits {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	var values []string
	for _, key := range keys {
		if value, ok := traits[key].(string); ok && value != "" {
			values = append(values, value)
		}
	}
	return values
}

func normalize(parts ...string) string {
	joined := strings.Join(parts, " ")
	return strings.Join(strings.Fields(strings.ToLower(joined)), " ")
}
