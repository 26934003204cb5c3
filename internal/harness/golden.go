package harness

import (
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/replica/internal/ir"
)

// GoldenDir is where package tests keep golden traces.
const GoldenDir = "testdata/scenarios/golden"

// TraceSnapshot captures the complete trace for a scenario execution.
// All fields use canonical JSON serialization for deterministic comparison.
type TraceSnapshot struct {
	ScenarioName string
	Generation   string
	Trace        []TraceEvent
}

// toCanonical converts a TraceSnapshot to an IRObject for canonical JSON
// serialization. Empty optional fields are left out.
func (s *TraceSnapshot) toCanonical() ir.IRObject {
	trace := make(ir.IRArray, len(s.Trace))
	for i, event := range s.Trace {
		registry := make(ir.IRArray, len(event.Registry))
		for j, c := range event.Registry {
			registry[j] = ir.IRString(c)
		}
		obj := ir.IRObject{
			"step":     ir.IRInt(event.Step),
			"op":       ir.IRString(event.Op),
			"registry": registry,
		}
		if event.Filter != "" {
			obj["filter"] = ir.IRString(event.Filter)
		}
		if event.Attr != "" {
			obj["attr"] = ir.IRString(event.Attr)
		}
		if event.Cube != "" {
			obj["cube"] = ir.IRString(event.Cube)
		}
		trace[i] = obj
	}

	out := ir.IRObject{
		"scenario_name": ir.IRString(s.ScenarioName),
		"trace":         trace,
	}
	if s.Generation != "" {
		out["generation"] = ir.IRString(s.Generation)
	}
	return out
}

// MarshalTrace renders a result's trace as canonical JSON.
func MarshalTrace(scenarioName string, result *Result) ([]byte, error) {
	snapshot := TraceSnapshot{
		ScenarioName: scenarioName,
		Generation:   result.Generation,
		Trace:        result.Trace,
	}
	return ir.MarshalCanonical(snapshot.toCanonical())
}

// RunWithGolden executes a scenario and compares the trace against a golden file.
// The golden file is stored in testdata/scenarios/golden/{scenario.Name}.golden,
// the same place GoldenPath expects it for a scenario file of that name.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
//
// Returns error if scenario execution fails.
// Test failure (via goldie) occurs if trace doesn't match golden file.
func RunWithGolden(t *testing.T, scenario *Scenario) (*Result, error) {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return nil, err
	}
	if err := AssertGolden(t, scenario.Name, result); err != nil {
		return nil, err
	}
	return result, nil
}

// AssertGolden compares the given result's trace against a golden file
// without re-running the scenario.
func AssertGolden(t *testing.T, scenarioName string, result *Result) error {
	t.Helper()

	traceJSON, err := MarshalTrace(scenarioName, result)
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir(GoldenDir),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenarioName, traceJSON)
	return nil
}
