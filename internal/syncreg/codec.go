package syncreg

import (
	"fmt"
	"log/slog"
	"slices"

	"github.com/fxamacker/cbor/v2"

	"github.com/roach88/replica/internal/cube"
	"github.com/roach88/replica/internal/schema"
)

// Row is one persisted (attribute, included, excluded) tuple of a cube.
// Exactly one of Included and Excluded is non-nil; each holds a CBOR array
// of strictly increasing integers.
//
// The unconstrained cube has no axes. It is stored as a single row with an
// empty Axis and an empty exclusion list.
type Row struct {
	CubeIndex int64
	Axis      string
	Included  []byte
	Excluded  []byte
}

// Limits beyond which persisted coverage is treated as corrupt.
const (
	MaxCubes  = 10000
	MaxValues = 100000 // per axis
)

var (
	encMode cbor.EncMode
	decMode cbor.DecMode
)

func init() {
	var err error
	encMode, err = cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic("syncreg: CBOR encoder initialization failed: " + err.Error())
	}
	decMode, err = cbor.DecOptions{MaxArrayElements: MaxValues}.DecMode()
	if err != nil {
		panic("syncreg: CBOR decoder initialization failed: " + err.Error())
	}
}

// EncodeRows serializes cubes in order, axes sorted within each cube.
func EncodeRows(cubes []cube.Cube) ([]Row, error) {
	var rows []Row
	for i, c := range cubes {
		idx := int64(i)
		if c.Len() == 0 {
			rows = append(rows, Row{CubeIndex: idx, Excluded: mustEncode(nil)})
			continue
		}
		for _, attr := range c.Axes() {
			term, _ := c.Term(attr)
			data, err := encMode.Marshal(nonNil(term.Values()))
			if err != nil {
				return nil, fmt.Errorf("encode cube %d axis %s: %w", i, attr, err)
			}
			row := Row{CubeIndex: idx, Axis: attr}
			if term.IsInclude() {
				row.Included = data
			} else {
				row.Excluded = data
			}
			rows = append(rows, row)
		}
	}
	return rows, nil
}

// DecodeRows rebuilds cubes from rows ordered by (CubeIndex, Axis). Any
// malformed row, or more than MaxCubes cubes, fails the whole decode with
// a corrupt-state *LoadError.
// Cubes with an axis the catalog does not know are dropped; a nil catalog
// accepts every attribute.
func DecodeRows(rows []Row, catalog schema.Resolver) ([]cube.Cube, error) {
	var (
		out     []cube.Cube
		axes    map[string]cube.AxisTerm
		current int64 = -1
		unknown []string
		bare    bool
	)
	flush := func() {
		if current < 0 {
			return
		}
		if len(unknown) > 0 {
			slog.Warn("dropping synced cube with retired attributes", "cube", current, "attributes", unknown)
			return
		}
		out = append(out, cube.New(axes))
	}

	for _, row := range rows {
		switch {
		case row.CubeIndex == current:
			if bare || row.Axis == "" {
				return nil, corrupt(row.CubeIndex, "unconstrained cube marker mixed with axes")
			}
			if _, dup := axes[row.Axis]; dup {
				return nil, corrupt(row.CubeIndex, "duplicate axis %q", row.Axis)
			}
		case row.CubeIndex == current+1:
			if row.CubeIndex >= MaxCubes {
				return nil, corrupt(row.CubeIndex, "more than %d cubes", MaxCubes)
			}
			flush()
			current = row.CubeIndex
			axes = make(map[string]cube.AxisTerm)
			unknown = nil
			bare = false
		default:
			return nil, corrupt(row.CubeIndex, "cube index out of sequence after %d", current)
		}

		term, err := decodeTerm(row)
		if err != nil {
			return nil, err
		}
		if row.Axis == "" {
			if !term.IsUnconstrained() {
				return nil, corrupt(row.CubeIndex, "unconstrained cube marker must be an empty exclusion")
			}
			bare = true
			continue
		}
		if catalog != nil {
			if _, known := catalog.Lookup(row.Axis); !known {
				unknown = append(unknown, row.Axis)
			}
		}
		axes[row.Axis] = term
	}
	flush()
	return out, nil
}

func decodeTerm(row Row) (cube.AxisTerm, error) {
	if (row.Included == nil) == (row.Excluded == nil) {
		return cube.AxisTerm{}, corrupt(row.CubeIndex, "axis %q must have exactly one of included or excluded", row.Axis)
	}
	data := row.Included
	if data == nil {
		data = row.Excluded
	}

	// CBOR major type 4 is an array.
	if len(data) == 0 || data[0]>>5 != 4 {
		return cube.AxisTerm{}, corrupt(row.CubeIndex, "axis %q: value list is not an array", row.Axis)
	}
	var values []int64
	if err := decMode.Unmarshal(data, &values); err != nil {
		le := corrupt(row.CubeIndex, "axis %q: undecodable value list", row.Axis)
		le.Err = err
		return cube.AxisTerm{}, le
	}
	if !slices.IsSorted(values) || hasDuplicates(values) {
		return cube.AxisTerm{}, corrupt(row.CubeIndex, "axis %q: values not sorted", row.Axis)
	}
	if row.Included != nil {
		return cube.Include(values...), nil
	}
	return cube.Exclude(values...), nil
}

func hasDuplicates(values []int64) bool {
	for i := 1; i < len(values); i++ {
		if values[i] == values[i-1] {
			return true
		}
	}
	return false
}

func nonNil(values []int64) []int64 {
	if values == nil {
		return []int64{}
	}
	return values
}

func mustEncode(values []int64) []byte {
	data, err := encMode.Marshal(nonNil(values))
	if err != nil {
		panic("syncreg: encode value list: " + err.Error())
	}
	return data
}
