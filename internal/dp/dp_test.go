package dp

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/replica/internal/boolexpr"
	"github.com/roach88/replica/internal/ir"
	"github.com/roach88/replica/internal/textmatch"
)

// memReader is an in-memory Reader keyed by item and attribute.
type memReader struct {
	values     map[int64]map[string][]ir.IRValue
	identities map[string]int64
}

func newMemReader() *memReader {
	return &memReader{
		values:     make(map[int64]map[string][]ir.IRValue),
		identities: make(map[string]int64),
	}
}

func (m *memReader) set(item int64, attr string, values ...ir.IRValue) {
	if m.values[item] == nil {
		m.values[item] = make(map[string][]ir.IRValue)
	}
	m.values[item][attr] = ir.CompactValues(values)
}

func (m *memReader) Values(item int64, attr string) ([]ir.IRValue, error) {
	return m.values[item][attr], nil
}

func (m *memReader) ItemByIdentity(identity string) (int64, bool, error) {
	id, ok := m.identities[identity]
	return id, ok, nil
}

func (m *memReader) Referrers(attr string, item int64) ([]int64, error) {
	var out []int64
	for id, attrs := range m.values {
		for _, v := range attrs[attr] {
			if ir.Equal(v, ir.IRInt(item)) {
				out = append(out, id)
			}
		}
	}
	return out, nil
}

func mustEquals(t *testing.T, attr string, values ...ir.IRValue) Equals {
	t.Helper()
	p, err := NewEquals(attr, values...)
	require.NoError(t, err)
	return p
}

func TestEqualsKeyIsOrderIndependent(t *testing.T) {
	p1 := mustEquals(t, "status", ir.IRInt(3), ir.IRInt(1), ir.IRInt(2))
	p2 := mustEquals(t, "status", ir.IRInt(1), ir.IRInt(2), ir.IRInt(3), ir.IRInt(1))

	assert.Equal(t, p1.Key(), p2.Key())
	assert.Equal(t, `{"attr":"status","dp":"equals","values":[1,2,3]}`, p1.Key())

	// Unsorted literal construction still has the same identity.
	p3 := Equals{Attr: "status", Values: []ir.IRValue{ir.IRInt(2), ir.IRInt(3), ir.IRInt(1)}}
	assert.Equal(t, p1.Key(), p3.Key())
}

func TestKeysDistinguishVariants(t *testing.T) {
	eq := mustEquals(t, "labels", ir.IRString("ui"))
	in, err := NewIntersects("labels", ir.IRString("ui"))
	require.NoError(t, err)
	assert.NotEqual(t, eq.Key(), in.Key())

	lt, err := NewCompare("priority", Less, ir.IRInt(3), false)
	require.NoError(t, err)
	ltNull, err := NewCompare("priority", Less, ir.IRInt(3), true)
	require.NoError(t, err)
	assert.NotEqual(t, lt.Key(), ltNull.Key())
}

func TestConstructorsValidate(t *testing.T) {
	_, err := NewEquals("a", ir.IRArray{})
	assert.Error(t, err)

	_, err = NewCompare("a", "between", ir.IRInt(1), false)
	assert.Error(t, err)

	_, err = NewCompare("a", Less, ir.IRNull{}, false)
	assert.Error(t, err)

	_, err = NewTextMatch("a", "(", textmatch.Regex)
	assert.Error(t, err)

	_, err = NewTextMatch("a", "(", textmatch.Literal)
	assert.NoError(t, err)
}

func TestAccept(t *testing.T) {
	r := newMemReader()
	r.identities["BUG-1"] = 1
	r.set(1, "priority", ir.IRInt(2))
	r.set(1, "summary", ir.IRString("Crash in Parser"))
	r.set(1, "labels", ir.IRString("core"), ir.IRString("ui"))
	r.set(2, "priority", ir.IRInt(5))
	r.set(2, "parent", ir.IRInt(1))
	r.set(3, "parent", ir.IRInt(1))
	r.set(3, "priority", ir.IRInt(1))

	lt3, _ := NewCompare("priority", Less, ir.IRInt(3), false)
	ge3Null, _ := NewCompare("priority", GreaterOrEqual, ir.IRInt(3), true)
	ui, _ := NewIntersects("labels", ir.IRString("ui"), ir.IRString("web"))
	crash, _ := NewTextMatch("summary", "CRASH", textmatch.Literal)
	parserRe, _ := NewTextMatch("summary", `pars\w+$`, textmatch.Regex)

	tests := []struct {
		name string
		p    DP
		item int64
		want bool
	}{
		{"equals hit", mustEquals(t, "priority", ir.IRInt(2), ir.IRInt(4)), 1, true},
		{"equals miss", mustEquals(t, "priority", ir.IRInt(4)), 1, false},
		{"equals missing value", mustEquals(t, "priority", ir.IRInt(4)), 4, false},
		{"equals kind mismatch", mustEquals(t, "priority", ir.IRString("2")), 1, false},
		{"compare hit", lt3, 1, true},
		{"compare miss", lt3, 2, false},
		{"compare missing", lt3, 4, false},
		{"compare accept null", ge3Null, 4, true},
		{"compare accept null with value", ge3Null, 1, false},
		{"intersects hit", ui, 1, true},
		{"intersects miss", ui, 2, false},
		{"text literal", crash, 1, true},
		{"text regex", parserRe, 1, true},
		{"text missing", crash, 2, false},
		{"not null", NotNull{Attr: "parent"}, 2, true},
		{"not null missing", NotNull{Attr: "parent"}, 1, false},
		{"reference hit", ReferenceTo{Attr: "parent", Identity: "BUG-1"}, 2, true},
		{"reference unknown identity", ReferenceTo{Attr: "parent", Identity: "BUG-9"}, 2, false},
		{"referred by hit", ReferredBy{Attr: "parent", Sub: Term(lt3)}, 1, true},
		{"referred by sub miss", ReferredBy{Attr: "parent", Sub: Term(mustEquals(t, "priority", ir.IRInt(9)))}, 1, false},
		{"referred by no referrers", ReferredBy{Attr: "parent", Sub: boolexpr.True[DP]()}, 2, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.p.Accept(tt.item, r)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestAcceptExpr(t *testing.T) {
	r := newMemReader()
	r.set(1, "priority", ir.IRInt(2))

	lt3, _ := NewCompare("priority", Less, ir.IRInt(3), false)
	e := boolexpr.And(Term(lt3), boolexpr.Not(Term(NotNull{Attr: "parent"})))

	ok, err := Accept(e, 1, r)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = Accept(boolexpr.Not(e), 1, r)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestAttributes(t *testing.T) {
	lt3, _ := NewCompare("priority", Less, ir.IRInt(3), false)
	sub := boolexpr.And(Term(lt3), Term(NotNull{Attr: "parent"}))
	e := boolexpr.Or(
		Term(mustEquals(t, "status", ir.IRInt(1))),
		Term(ReferredBy{Attr: "parent", Sub: sub}),
		Term(NotNull{Attr: "status"}),
	)
	assert.Equal(t, []string{"status", "parent", "priority"}, Attributes(e))
}

func TestDeduplicationInExpr(t *testing.T) {
	a := Term(mustEquals(t, "status", ir.IRInt(2), ir.IRInt(1)))
	b := Term(mustEquals(t, "status", ir.IRInt(1), ir.IRInt(2)))
	e := boolexpr.And(a, b)
	assert.Equal(t, boolexpr.KindTerm, e.Kind())

	assert.True(t, boolexpr.And(a, boolexpr.Not(b)).IsFalse())
}
