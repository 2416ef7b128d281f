package clean

import (
	"sort"
	"strings"

	"salesdw/internal/logging"
)

// Common shorthand seen in exported sales data for the canonical region
// names carried by the reference spreadsheet.
var regionAliases = map[string]string{
	"north":          "North America",
	"america":        "North America",
	"north america":  "North America",
	"south":          "South America",
	"south america":  "South America",
	"west":           "Europe West",
	"europe west":    "Europe West",
	"east":           "Europe East",
	"europe east":    "Europe East",
	"europe":         "Europe Central",
	"europe central": "Europe Central",
	"europe south":   "Europe South",
	"asia":           "Asia Pacific",
	"apj":            "Asia Pacific",
	"asia pacific":   "Asia Pacific",
	"emea":           "Europe Middle East Africa",
}

// RegionNormalizer resolves free-form region tags in transaction rows to
// the canonical region names of the reference data.
type RegionNormalizer struct {
	mapping map[string]string
	// keys ordered longest-first so substring matching prefers the most
	// specific alias and stays deterministic.
	keys []string
}

// NewRegionNormalizer builds a normalizer from the cleaned reference
// regions. Canonical names take precedence over the built-in alias table.
func NewRegionNormalizer(regions []Region) *RegionNormalizer {
	mapping := make(map[string]string, len(regions)+len(regionAliases))
	for k, v := range regionAliases {
		mapping[k] = v
	}
	for _, r := range regions {
		mapping[strings.ToLower(r.Name)] = r.Name
	}

	keys := make([]string, 0, len(mapping))
	for k := range mapping {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if len(keys[i]) != len(keys[j]) {
			return len(keys[i]) > len(keys[j])
		}
		return keys[i] < keys[j]
	})

	return &RegionNormalizer{mapping: mapping, keys: keys}
}

// Normalize maps a raw region tag to its canonical name. Lookup order:
// exact case-insensitive match, then substring match in either direction,
// then a title-cased fallback of the input itself. An empty tag stays
// empty and is rejected downstream as a missing natural key.
func (n *RegionNormalizer) Normalize(raw string) string {
	s := strings.ToLower(strings.TrimSpace(raw))
	if s == "" {
		return ""
	}

	if canonical, ok := n.mapping[s]; ok {
		return canonical
	}

	for _, key := range n.keys {
		if strings.Contains(s, key) || strings.Contains(key, s) {
			return n.mapping[key]
		}
	}

	logging.Warn().Str("region", raw).Msg("No canonical match for region")
	return TitleCase(raw)
}
