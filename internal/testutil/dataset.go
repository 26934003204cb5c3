package testutil

import (
	"context"
	"fmt"
	"math/rand/v2"

	"github.com/roach88/replica/internal/ir"
)

// Writer is the part of a store write transaction a dataset loads through.
type Writer interface {
	CreateItem(ctx context.Context, identity string) (int64, error)
	SetValues(ctx context.Context, item int64, attr string, values ...ir.IRValue) error
}

// Item is one synthetic item of the Catalog schema. Reference values are
// indices into Dataset.Items.
type Item struct {
	Identity string
	Ints     map[string][]int64
	Strings  map[string][]string
	Refs     map[string][]int
}

// Dataset is a deterministic set of items with small value domains, so
// random predicates hit, miss and hit missing values often.
type Dataset struct {
	Items []Item
	IDs   []int64 // item ids assigned by Load, parallel to Items
}

var (
	summaries = []string{"Crash on start", "UI glitch", "crash report", "Straße closed", "Perf regression 2"}
	labelPool = []string{"ui", "backend", "Perf", "db"}
)

// GenerateDataset builds n items from seed.
func GenerateDataset(seed uint64, n int) *Dataset {
	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	seq := NewSequence("ITEM")
	d := &Dataset{Items: make([]Item, n)}

	for i := range d.Items {
		it := Item{
			Identity: seq.Next(),
			Ints:     map[string][]int64{},
			Strings:  map[string][]string{},
			Refs:     map[string][]int{},
		}
		present := func() bool { return rng.IntN(4) != 0 }

		if present() {
			it.Ints["priority"] = []int64{rng.Int64N(5)}
		}
		if present() {
			it.Ints["created"] = []int64{rng.Int64N(10)}
		}
		if present() {
			it.Strings["summary"] = []string{summaries[rng.IntN(len(summaries))]}
		}
		if present() {
			it.Refs["status"] = []int{rng.IntN(min(3, n))}
		}
		if present() && n > 1 {
			p := rng.IntN(n)
			if p != i {
				it.Refs["parent"] = []int{p}
			}
		}
		for range rng.IntN(3) {
			it.Strings["labels"] = append(it.Strings["labels"], labelPool[rng.IntN(len(labelPool))])
		}
		for range rng.IntN(3) {
			it.Refs["components"] = append(it.Refs["components"], rng.IntN(n))
		}
		d.Items[i] = it
	}
	return d
}

// Load writes the dataset and records the assigned ids in d.IDs.
func (d *Dataset) Load(ctx context.Context, w Writer) error {
	d.IDs = make([]int64, len(d.Items))
	for i, it := range d.Items {
		id, err := w.CreateItem(ctx, it.Identity)
		if err != nil {
			return err
		}
		d.IDs[i] = id
	}

	for i, it := range d.Items {
		id := d.IDs[i]
		for attr, vs := range it.Ints {
			if err := w.SetValues(ctx, id, attr, ints(vs)...); err != nil {
				return err
			}
		}
		for attr, vs := range it.Strings {
			values := make([]ir.IRValue, len(vs))
			for j, s := range vs {
				values[j] = ir.IRString(s)
			}
			if err := w.SetValues(ctx, id, attr, values...); err != nil {
				return err
			}
		}
		for attr, refs := range it.Refs {
			values := make([]ir.IRValue, len(refs))
			for j, r := range refs {
				values[j] = ir.IRInt(d.IDs[r])
			}
			if err := w.SetValues(ctx, id, attr, values...); err != nil {
				return fmt.Errorf("item %s: %w", it.Identity, err)
			}
		}
	}
	return nil
}

func ints(vs []int64) []ir.IRValue {
	out := make([]ir.IRValue, len(vs))
	for i, v := range vs {
		out[i] = ir.IRInt(v)
	}
	return out
}
