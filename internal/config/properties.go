package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// FunnelStep is one candidate conversion path emitted for an endpoint page in
// heuristic journey synthesis. Fraction is the share of the endpoint's
// conversions allocated to this candidate; fractions for one endpoint should
// sum to at most 1.0.
type FunnelStep struct {
	Name     string   `yaml:"name"`
	Steps    []string `yaml:"steps"`
	Fraction float64  `yaml:"fraction"`
}

// Endpoint identifies a conversion endpoint page by path substring and carries
// the funnel candidates synthesized for it.
type Endpoint struct {
	PathContains string       `yaml:"path_contains"`
	Funnels      []FunnelStep `yaml:"funnels"`
	// DirectOnly endpoints (product pages converting on-page) are emitted as a
	// single-step path receiving all of their own conversions.
	DirectOnly bool `yaml:"direct_only"`
}

// Property describes one tracked site: its reporting filter, classification
// keyword lists and journey synthesis policy.
type Property struct {
	ID                  string   `yaml:"id"`
	Domain              string   `yaml:"domain"`
	SitemapURL          string   `yaml:"sitemap_url"`
	ConversionEvents    []string `yaml:"conversion_events"`
	ProductKeywords     []string `yaml:"product_keywords"`
	ConversionUnitValue float64  `yaml:"conversion_unit_value"`
	APIKeyHash          string   `yaml:"api_key_hash"`

	Endpoints []Endpoint `yaml:"endpoints"`
}

// Properties is the set of configured properties keyed by ID.
type Properties struct {
	byID map[string]Property
}

// ErrUnknownProperty is returned when a request references a property ID that
// is not configured. It is fatal to the request, never silently defaulted.
var ErrUnknownProperty = fmt.Errorf("unknown property")

// LoadProperties reads the property configuration file (YAML).
func LoadProperties(path string) (*Properties, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("properties: failed to read %s: %w", path, err)
	}
	return ParseProperties(data)
}

// ParseProperties parses property configuration from YAML bytes.
func ParseProperties(data []byte) (*Properties, error) {
	var doc struct {
		Properties []Property `yaml:"properties"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("properties: invalid YAML: %w", err)
	}

	byID := make(map[string]Property, len(doc.Properties))
	for _, p := range doc.Properties {
		if p.ID == "" {
			return nil, fmt.Errorf("properties: property with empty id")
		}
		if _, dup := byID[p.ID]; dup {
			return nil, fmt.Errorf("properties: duplicate property id %q", p.ID)
		}
		for _, ep := range p.Endpoints {
			total := 0.0
			for _, f := range ep.Funnels {
				if f.Fraction < 0 {
					return nil, fmt.Errorf("properties: property %q endpoint %q has negative fraction", p.ID, ep.PathContains)
				}
				total += f.Fraction
			}
			if total > 1.0+1e-9 {
				return nil, fmt.Errorf("properties: property %q endpoint %q fractions sum to %.2f (> 1.0)", p.ID, ep.PathContains, total)
			}
		}
		byID[p.ID] = p
	}

	return &Properties{byID: byID}, nil
}

// NewProperties builds a Properties set from already-parsed entries; intended
// for tests.
func NewProperties(props ...Property) *Properties {
	byID := make(map[string]Property, len(props))
	for _, p := range props {
		byID[p.ID] = p
	}
	return &Properties{byID: byID}
}

// Get returns the property for the given ID or ErrUnknownProperty.
func (ps *Properties) Get(id string) (Property, error) {
	p, ok := ps.byID[id]
	if !ok {
		return Property{}, fmt.Errorf("%w: %q", ErrUnknownProperty, id)
	}
	return p, nil
}

// IDs returns all configured property IDs.
func (ps *Properties) IDs() []string {
	ids := make([]string, 0, len(ps.byID))
	for id := range ps.byID {
		ids = append(ids, id)
	}
	return ids
}
