package harness

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/roach88/replica/internal/constraint"
	"github.com/roach88/replica/internal/cube"
	"github.com/roach88/replica/internal/schema"
	"github.com/roach88/replica/internal/store"
	"github.com/roach88/replica/internal/syncreg"
)

// AssertionError is returned when an assertion fails.
// It includes detailed context to help debug the failure.
type AssertionError struct {
	Type     string       // Assertion type for categorization
	Expected string       // Human-readable expected outcome
	Actual   string       // Human-readable actual outcome
	Trace    []TraceEvent // Full trace for debugging context
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	fmt.Fprintf(&buf, "\nFull trace:\n")
	for _, event := range e.Trace {
		fmt.Fprintf(&buf, "  [%d] %s", event.Step, event.Op)
		if event.Filter != "" {
			fmt.Fprintf(&buf, " %s", event.Filter)
		}
		if event.Attr != "" {
			fmt.Fprintf(&buf, " %s", event.Attr)
		}
		fmt.Fprintf(&buf, " -> {%s}\n", strings.Join(event.Registry, ", "))
	}

	return buf.String()
}

// AssertionContext provides the final state to assertions.
type AssertionContext struct {
	Store    *store.Store
	Catalog  *schema.Catalog
	Registry *syncreg.Registry
	Ctx      context.Context
}

// assertSynced checks the registry's answer for a filter.
func assertSynced(actx *AssertionContext, trace []TraceEvent, assertion Assertion) error {
	if assertion.Synced == nil {
		return fmt.Errorf("synced: expected answer is required")
	}
	c, err := parseFilter(&assertion.Filter)
	if err != nil {
		return err
	}
	got := actx.Registry.IsSyncedConstraint(c, actx.Catalog)
	if got != *assertion.Synced {
		return &AssertionError{
			Type:     AssertSynced,
			Expected: fmt.Sprintf("%s synced=%t", constraint.String(c), *assertion.Synced),
			Actual:   fmt.Sprintf("synced=%t", got),
			Trace:    trace,
		}
	}
	return nil
}

// assertQuery runs a filter through the store and compares the matched
// identities as sets.
func assertQuery(actx *AssertionContext, trace []TraceEvent, assertion Assertion) error {
	c, err := parseFilter(&assertion.Filter)
	if err != nil {
		return err
	}
	e, err := constraint.ToExpr(c)
	if err != nil {
		return fmt.Errorf("query filter %s: %w", constraint.String(c), err)
	}

	var got []string
	err = actx.Store.View(actx.Ctx, func(tx *store.Tx) error {
		bm, err := tx.Query(actx.Ctx, e)
		if err != nil {
			return err
		}
		it := bm.Iterator()
		for it.HasNext() {
			identity, err := tx.Identity(actx.Ctx, int64(it.Next()))
			if err != nil {
				return err
			}
			got = append(got, identity)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("query %s: %w", constraint.String(c), err)
	}

	want := slices.Clone(assertion.Items)
	slices.Sort(got)
	slices.Sort(want)
	if !slices.Equal(got, want) {
		return &AssertionError{
			Type:     AssertQuery,
			Expected: fmt.Sprintf("%s matches %v", constraint.String(c), want),
			Actual:   fmt.Sprintf("matches %v", got),
			Trace:    trace,
		}
	}
	return nil
}

// assertRegistrySize checks the number of synced cubes.
func assertRegistrySize(actx *AssertionContext, trace []TraceEvent, assertion Assertion) error {
	if assertion.Count == nil {
		return fmt.Errorf("registry_size: count is required")
	}
	if got := actx.Registry.Len(); got != *assertion.Count {
		return &AssertionError{
			Type:     AssertRegistrySize,
			Expected: fmt.Sprintf("%d cubes", *assertion.Count),
			Actual:   fmt.Sprintf("%d cubes", got),
			Trace:    trace,
		}
	}
	return nil
}

// assertRegistryContains checks that an equal cube is synced. Containment
// is by equality, not by encompassing.
func assertRegistryContains(actx *AssertionContext, trace []TraceEvent, assertion Assertion) error {
	want, err := cube.Parse(assertion.Cube)
	if err != nil {
		return err
	}
	cubes := actx.Registry.Cubes()
	for _, c := range cubes {
		if c.Equal(want) {
			return nil
		}
	}
	return &AssertionError{
		Type:     AssertRegistryContains,
		Expected: want.String(),
		Actual:   cube.NewSet(cubes...).String(),
		Trace:    trace,
	}
}

func parseFilter(n *yaml.Node) (constraint.Constraint, error) {
	c, err := constraint.ParseNode(n)
	if err != nil {
		return nil, fmt.Errorf("parse filter: %w", err)
	}
	return c, nil
}

// EvaluateAssertions evaluates all assertions against the result.
// Returns a slice of error messages for failed assertions.
func EvaluateAssertions(result *Result, assertions []Assertion, actx *AssertionContext) []string {
	var errors []string

	for i, assertion := range assertions {
		var err error

		if actx == nil || actx.Registry == nil {
			err = fmt.Errorf("assertion[%d]: %s requires a loaded registry", i, assertion.Type)
		} else {
			switch assertion.Type {
			case AssertSynced:
				err = assertSynced(actx, result.Trace, assertion)
			case AssertQuery:
				if actx.Store == nil {
					err = fmt.Errorf("assertion[%d]: query requires database context", i)
				} else {
					err = assertQuery(actx, result.Trace, assertion)
				}
			case AssertRegistrySize:
				err = assertRegistrySize(actx, result.Trace, assertion)
			case AssertRegistryContains:
				err = assertRegistryContains(actx, result.Trace, assertion)
			default:
				err = fmt.Errorf("assertion[%d]: unknown assertion type %q", i, assertion.Type)
			}
		}

		if err != nil {
			errors = append(errors, err.Error())
		}
	}

	return errors
}
