// Package scenario runs declarative tag-store scenarios.
//
// A scenario seeds records into a fresh in-memory store and runs queries
// against them, checking the ids each query returns (in order) or the
// kind of error it fails with. Scenarios are YAML files:
//
//	name: conn_lookup
//	description: Find connections by state and role
//	records:
//	  - type: Conn
//	    id: "1"
//	    tags: {state: active, roles: [x]}
//	queries:
//	  - name: active
//	    type: Conn
//	    query: {state: active}
//	    expect: ["1"]
//
// Runs use a deterministic clock so timestamp tags are reproducible.
package scenario

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Scenario defines a tag-store scenario.
type Scenario struct {
	// Name uniquely identifies this scenario. Also names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Records are saved in order before any query runs.
	Records []RecordStep `yaml:"records"`

	// Queries run in order after every record is saved.
	Queries []QueryStep `yaml:"queries"`
}

// RecordStep saves one generic record.
type RecordStep struct {
	Type string `yaml:"type"`
	ID   string `yaml:"id"`

	// Tags are the record's own tags. created_at and updated_at are added
	// by the store.
	Tags map[string]any `yaml:"tags,omitempty"`

	// Value is the record payload. Defaults to an empty object.
	Value map[string]any `yaml:"value,omitempty"`

	// ExpectError is the expected error kind (see ErrorKind), e.g.
	// "duplicate" for a reused id.
	ExpectError string `yaml:"expect_error,omitempty"`
}

// QueryStep runs one FindByQuery.
type QueryStep struct {
	Name string `yaml:"name"`
	Type string `yaml:"type"`

	// Query is the JSON-style query: plain keys, $and, $or, $not.
	Query map[string]any `yaml:"query,omitempty"`

	Limit  *int `yaml:"limit,omitempty"`
	Offset int  `yaml:"offset,omitempty"`

	// Expect lists the ids the query must return, in order.
	Expect []string `yaml:"expect,omitempty"`

	// ExpectError is the expected error kind. Exclusive with Expect.
	ExpectError string `yaml:"expect_error,omitempty"`
}

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

// ParseScenario parses scenario YAML.
func ParseScenario(data []byte) (*Scenario, error) {
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true) // Reject unknown fields
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

	if len(s.Queries) == 0 {
		return fmt.Errorf("queries list is required and must be non-empty")
	}

	for i, r := range s.Records {
		if r.Type == "" {
			return fmt.Errorf("records[%d]: type is required", i)
		}
		if r.ExpectError != "" && !validKind(r.ExpectError) {
			return fmt.Errorf("records[%d]: unknown expect_error %q", i, r.ExpectError)
		}
	}

	for i, q := range s.Queries {
		if q.Name == "" {
			return fmt.Errorf("queries[%d]: name is required", i)
		}
		if q.Type == "" {
			return fmt.Errorf("queries[%d]: type is required", i)
		}
		if q.ExpectError != "" {
			if !validKind(q.ExpectError) {
				return fmt.Errorf("queries[%d]: unknown expect_error %q", i, q.ExpectError)
			}
			if len(q.Expect) > 0 {
				return fmt.Errorf("queries[%d]: expect and expect_error are exclusive", i)
			}
		}
	}

	return nil
}
