// scenario.go — Per-target scenario profiles.
// A test scenario supplies target-specific URL patterns the core must
// not hard-code: extra volatile-content markers, sensitive query
// parameters and additional blocked domains. Stored as YAML next to the
// scenario definition.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Scenario is one target's classification profile.
type Scenario struct {
	// Target names the site the profile belongs to; informational.
	Target string `yaml:"target"`
	// BlockedDomains extends the default tracker/ad substrings.
	BlockedDomains []string `yaml:"blocked_domains"`
	// VolatileMarkers extends the dynamic-content path markers.
	VolatileMarkers []string `yaml:"volatile_markers"`
	// AuthParams extends the sensitive query parameter names.
	AuthParams []string `yaml:"auth_params"`
}

// LoadScenario reads and decodes a scenario profile.
func LoadScenario(path string) (*Scenario, error) {
	// #nosec G304 -- path comes from trusted configuration, not request input
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("could not read scenario file %s: %w", path, err)
	}
	var scenario Scenario
	if err := yaml.Unmarshal(data, &scenario); err != nil {
		return nil, fmt.Errorf("could not parse scenario file %s: %w", path, err)
	}
	return &scenario, nil
}
