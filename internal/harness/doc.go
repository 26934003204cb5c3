// Package harness runs coverage scenarios against a fresh replica.
//
// A scenario seeds items, replays coverage operations one write
// transaction at a time, and records the registry each operation leaves
// behind. The recorded trace is compared against a golden file, so any
// change to subsumption or persistence shows up as a diff.
//
// # Scenario Format
//
// Scenarios are defined in YAML files with the following structure:
//
//	name: scenario_name
//	description: "What this scenario validates"
//	generation: gen-1
//	schema: |
//	  attribute: {
//	    status:   {type: "ref"}
//	    priority: {type: "int"}
//	  }
//	items:
//	  - identity: OPEN
//	  - identity: BUG-1
//	    values: { status: OPEN, priority: 2 }
//	steps:
//	  - op: set_synced
//	    filter: { in: { attr: priority, values: [1, 2] } }
//	  - op: remove_axis
//	    attr: priority
//	assertions:
//	  - type: synced
//	    filter: { eq: { attr: priority, value: 1 } }
//	    synced: true
//	  - type: query
//	    filter: { eq: { attr: priority, value: 2 } }
//	    items: [BUG-1]
//
// # Assertion Types
//
//   - synced: Checks whether a filter's hypercube is covered
//   - query: Runs a filter through the store and compares identities
//   - registry_size: Checks the number of synced cubes
//   - registry_contains: Checks that a cube (cube notation) is synced
//
// # Deterministic Testing
//
// Every save stamps the scenario's generation token (default
// "test-generation") and each run uses its own in-memory SQLite database,
// so traces are identical across runs.
//
// Golden files hold canonical JSON (see ir.MarshalCanonical). Regenerate
// them with:
//
//	go test ./internal/harness -update
package harness
