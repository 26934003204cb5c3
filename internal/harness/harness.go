package harness

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sort"

	"github.com/roach88/replica/internal/constraint"
	"github.com/roach88/replica/internal/cube"
	"github.com/roach88/replica/internal/ir"
	"github.com/roach88/replica/internal/schema"
	"github.com/roach88/replica/internal/store"
	"github.com/roach88/replica/internal/syncreg"
	"github.com/roach88/replica/internal/testutil"
)

// Harness is the scenario execution engine.
// It owns one in-memory store with a fixed generation token.
type Harness struct {
	store   *store.Store
	catalog *schema.Catalog
	logger  *slog.Logger
}

// Run executes a scenario and returns the result.
//
// Each scenario runs in a fresh in-memory database for isolation.
//
// Execution flow:
// 1. Compile the catalog and open the store
// 2. Create the seeded items and their values
// 3. Apply each step and snapshot the registry
// 4. Evaluate assertions against the final state
//
// Malformed scenarios (bad catalog, unknown attributes, unparsable
// filters) return an error. A step whose filter has no hypercube and a
// failed assertion are recorded in the result instead.
func Run(scenario *Scenario) (*Result, error) {
	catalog, err := schema.CompileString(scenario.Schema)
	if err != nil {
		return nil, fmt.Errorf("failed to compile schema: %w", err)
	}

	st, err := store.Open(":memory:",
		store.WithTokenGenerator(testutil.NewFixedGeneration(scenario.Generation)))
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	ctx := context.Background()
	if err := st.ApplyCatalog(ctx, catalog); err != nil {
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	h := &Harness{
		store:   st,
		catalog: catalog,
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)), // Suppress logs in tests
	}

	if err := SeedItems(ctx, st, scenario.Items); err != nil {
		return nil, fmt.Errorf("failed to seed items: %w", err)
	}

	result := NewResult()
	for i, step := range scenario.Steps {
		if err := h.executeStep(ctx, i+1, step, result); err != nil {
			return nil, fmt.Errorf("step %d: %w", i+1, err)
		}
	}

	var final *syncreg.Registry
	if err := st.ViewCoverage(ctx, func(r *syncreg.Registry) error {
		final = r
		return nil
	}); err != nil {
		return nil, fmt.Errorf("failed to load coverage: %w", err)
	}
	result.Generation = final.Generation()

	actx := &AssertionContext{
		Store:    st,
		Catalog:  catalog,
		Registry: final,
		Ctx:      ctx,
	}
	for _, errMsg := range EvaluateAssertions(result, scenario.Assertions, actx) {
		result.AddError(errMsg)
	}
	return result, nil
}

// SeedItems writes items in one transaction against the store's current
// catalog. Every item is created first so references may point forward;
// existing items keep their id and have the listed attributes replaced.
func SeedItems(ctx context.Context, st *store.Store, items []ItemSpec) error {
	catalog := st.Catalog()
	return st.Update(ctx, func(tx *store.Tx) error {
		ids := make(map[string]int64, len(items))
		for _, item := range items {
			id, err := tx.CreateItem(ctx, item.Identity)
			if err != nil {
				return err
			}
			ids[item.Identity] = id
		}

		for _, item := range items {
			attrs := make([]string, 0, len(item.Values))
			for attr := range item.Values {
				attrs = append(attrs, attr)
			}
			sort.Strings(attrs)

			for _, attrID := range attrs {
				attr, ok := catalog.Lookup(attrID)
				if !ok {
					return fmt.Errorf("item %s: unknown attribute %q", item.Identity, attrID)
				}
				values, err := convertValues(attr, item.Values[attrID], ids)
				if err != nil {
					return fmt.Errorf("item %s: %s: %w", item.Identity, attrID, err)
				}
				if err := tx.SetValues(ctx, ids[item.Identity], attrID, values...); err != nil {
					return err
				}
			}
			slog.Debug("seeded item", "identity", item.Identity, "item", ids[item.Identity])
		}
		return nil
	})
}

// convertValues turns decoded YAML into attribute values. Strings given
// for reference attributes are resolved as identities.
func convertValues(attr schema.Attribute, raw any, ids map[string]int64) ([]ir.IRValue, error) {
	list, ok := raw.([]any)
	if !ok {
		list = []any{raw}
	}

	values := make([]ir.IRValue, 0, len(list))
	for _, elem := range list {
		if identity, ok := elem.(string); ok && attr.Type == schema.TypeRef {
			id, found := ids[identity]
			if !found {
				return nil, fmt.Errorf("unknown identity %q", identity)
			}
			values = append(values, ir.IRInt(id))
			continue
		}
		v, err := ir.FromAny(elem)
		if err != nil {
			return nil, err
		}
		if _, isNull := v.(ir.IRNull); isNull {
			continue
		}
		values = append(values, v)
	}
	return values, nil
}

// executeStep applies one coverage operation in its own transaction and
// records the registry it leaves behind.
func (h *Harness) executeStep(ctx context.Context, index int, step Step, result *Result) error {
	event := TraceEvent{Step: index, Op: step.Op, Attr: step.Attr}

	var apply func(*syncreg.Registry)
	switch step.Op {
	case OpSetSynced, OpSetUnsynced:
		c, err := constraint.ParseNode(&step.Filter)
		if err != nil {
			return fmt.Errorf("parse filter: %w", err)
		}
		event.Filter = constraint.String(c)

		q, ok := cube.Build(c, h.catalog)
		if !ok {
			result.AddError(fmt.Sprintf("step %d: filter %s has no hypercube", index, event.Filter))
			break
		}
		event.Cube = q.String()
		if step.Op == OpSetSynced {
			apply = func(r *syncreg.Registry) { r.SetSynced(q) }
		} else {
			apply = func(r *syncreg.Registry) { r.SetUnsynced(q) }
		}
	case OpClear:
		apply = func(r *syncreg.Registry) { r.Clear() }
	case OpRemoveAxis:
		apply = func(r *syncreg.Registry) { r.RemoveAxis(step.Attr) }
	default:
		return fmt.Errorf("unknown op %q", step.Op)
	}

	if apply != nil {
		if err := h.store.UpdateCoverage(ctx, func(r *syncreg.Registry) error {
			apply(r)
			return nil
		}); err != nil {
			return err
		}
	}

	registry, err := h.snapshot(ctx)
	if err != nil {
		return err
	}
	event.Registry = registry
	result.AddStepTrace(event)
	h.logger.Debug("applied step", "step", index, "op", step.Op, "cubes", len(registry))
	return nil
}

// snapshot renders the persisted registry, reloading it so the trace shows
// what survived the round trip.
func (h *Harness) snapshot(ctx context.Context) ([]string, error) {
	var out []string
	err := h.store.ViewCoverage(ctx, func(r *syncreg.Registry) error {
		cubes := r.Cubes()
		out = make([]string, len(cubes))
		for i, c := range cubes {
			out[i] = c.String()
		}
		return nil
	})
	return out, err
}
