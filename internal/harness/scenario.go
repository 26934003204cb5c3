package harness

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Scenario defines a coverage scenario.
// A scenario seeds a fresh replica with items, replays a list of coverage
// operations and asserts on the resulting registry and query answers.
type Scenario struct {
	// Name uniquely identifies this scenario. It names the golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Schema is the CUE catalog source the replica is opened with.
	Schema string `yaml:"schema"`

	// Generation is the coverage generation token every save writes.
	// If empty, defaults to "test-generation" so golden files are stable.
	Generation string `yaml:"generation,omitempty"`

	// Items are created in order before any step runs.
	Items []ItemSpec `yaml:"items,omitempty"`

	// Steps are coverage operations applied one per transaction.
	Steps []Step `yaml:"steps"`

	// Assertions validate the final registry and store.
	// Supported types: synced, query, registry_size, registry_contains
	Assertions []Assertion `yaml:"assertions"`
}

// ItemSpec describes one seeded item.
type ItemSpec struct {
	// Identity is the external identity of the item.
	Identity string `yaml:"identity"`

	// Values maps attribute ids to a value or a list of values. A string
	// given for a reference attribute names another item's identity.
	Values map[string]any `yaml:"values,omitempty"`
}

// Step is one coverage operation.
type Step struct {
	// Op is one of set_synced, set_unsynced, clear, remove_axis.
	Op string `yaml:"op"`

	// Filter is the filter whose hypercube the operation applies to
	// (set_synced and set_unsynced).
	Filter yaml.Node `yaml:"filter,omitempty"`

	// Attr is the attribute projected out by remove_axis.
	Attr string `yaml:"attr,omitempty"`
}

// Assertion validates the final state.
type Assertion struct {
	// Type specifies the assertion type:
	// - "synced": check whether a filter is covered
	// - "query": check the identities a filter matches
	// - "registry_size": check the number of synced cubes
	// - "registry_contains": check that a cube is in the registry
	Type string `yaml:"type"`

	// Filter is the filter to check (used by synced and query).
	Filter yaml.Node `yaml:"filter,omitempty"`

	// Synced is the expected answer (used by synced).
	Synced *bool `yaml:"synced,omitempty"`

	// Items are the expected identities, in any order (used by query).
	Items []string `yaml:"items,omitempty"`

	// Count is the expected number of cubes (used by registry_size).
	Count *int `yaml:"count,omitempty"`

	// Cube is the expected cube in cube notation (used by registry_contains).
	Cube string `yaml:"cube,omitempty"`
}

// Step operations.
const (
	OpSetSynced   = "set_synced"
	OpSetUnsynced = "set_unsynced"
	OpClear       = "clear"
	OpRemoveAxis  = "remove_axis"
)

// Assertion type constants.
const (
	AssertSynced           = "synced"
	AssertQuery            = "query"
	AssertRegistrySize     = "registry_size"
	AssertRegistryContains = "registry_contains"
)

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario decodes and validates scenario YAML.
func ParseScenario(data []byte) (*Scenario, error) {
	// Strict field validation catches typos like "assertion:" vs "assertions:"
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if s.Schema == "" {
		return fmt.Errorf("schema is required")
	}
	if len(s.Steps) == 0 {
		return fmt.Errorf("steps list is required and must be non-empty")
	}
	if len(s.Assertions) == 0 {
		return fmt.Errorf("assertions list is required and must be non-empty")
	}

	seen := make(map[string]bool, len(s.Items))
	for i, item := range s.Items {
		if item.Identity == "" {
			return fmt.Errorf("items[%d]: identity is required", i)
		}
		if seen[item.Identity] {
			return fmt.Errorf("items[%d]: duplicate identity %q", i, item.Identity)
		}
		seen[item.Identity] = true
	}

	for i, step := range s.Steps {
		if err := validateStep(i, &step); err != nil {
			return err
		}
	}
	for i, assertion := range s.Assertions {
		if err := validateAssertion(i, &assertion); err != nil {
			return err
		}
	}
	return nil
}

func validateStep(index int, st *Step) error {
	switch st.Op {
	case OpSetSynced, OpSetUnsynced:
		if st.Filter.IsZero() {
			return fmt.Errorf("steps[%d]: filter is required for %s", index, st.Op)
		}
	case OpRemoveAxis:
		if st.Attr == "" {
			return fmt.Errorf("steps[%d]: attr is required for remove_axis", index)
		}
	case OpClear:
	case "":
		return fmt.Errorf("steps[%d]: op is required", index)
	default:
		return fmt.Errorf("steps[%d]: unknown op %q", index, st.Op)
	}
	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}

	switch a.Type {
	case AssertSynced:
		if a.Filter.IsZero() {
			return fmt.Errorf("assertions[%d]: filter is required for synced", index)
		}
		if a.Synced == nil {
			return fmt.Errorf("assertions[%d]: synced is required for synced", index)
		}
	case AssertQuery:
		if a.Filter.IsZero() {
			return fmt.Errorf("assertions[%d]: filter is required for query", index)
		}
	case AssertRegistrySize:
		if a.Count == nil || *a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for registry_size", index)
		}
	case AssertRegistryContains:
		if a.Cube == "" {
			return fmt.Errorf("assertions[%d]: cube is required for registry_contains", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}
	return nil
}
