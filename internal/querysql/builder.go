package querysql

import (
	"fmt"
	"strings"
)

// ItemTable is the table holding one row per item.
const ItemTable = "items"

// ItemSelectBuilder is one candidate query: the items table, one join per
// scalar attribute and a conjunction of WHERE fragments.
type ItemSelectBuilder struct {
	prefix  string
	joins   []join
	byTable map[string]int
	where   []fragment
	exists  int
	refs    int
	nested  int
}

type join struct {
	table string
	alias string
	inner bool
}

type fragment struct {
	sql    string
	params []any
}

func newBuilder(prefix string) *ItemSelectBuilder {
	return &ItemSelectBuilder{prefix: prefix, byTable: make(map[string]int)}
}

// itemAlias is the alias of the items table.
func (b *ItemSelectBuilder) itemAlias() string {
	return b.prefix + "ti"
}

// joinAlias returns the alias joined for a scalar attribute table, adding
// the join on first use. A join is INNER once any fragment needs a row.
func (b *ItemSelectBuilder) joinAlias(table string, needsRow bool) string {
	if i, ok := b.byTable[table]; ok {
		b.joins[i].inner = b.joins[i].inner || needsRow
		return b.joins[i].alias
	}
	alias := fmt.Sprintf("%st%d", b.prefix, len(b.joins))
	b.byTable[table] = len(b.joins)
	b.joins = append(b.joins, join{table: table, alias: alias, inner: needsRow})
	return alias
}

func (b *ItemSelectBuilder) existsAlias() string {
	alias := fmt.Sprintf("%se%d", b.prefix, b.exists)
	b.exists++
	return alias
}

func (b *ItemSelectBuilder) refAlias() string {
	alias := fmt.Sprintf("%sr%d", b.prefix, b.refs)
	b.refs++
	return alias
}

func (b *ItemSelectBuilder) subPrefix() string {
	p := fmt.Sprintf("%ss%d_", b.prefix, b.nested)
	b.nested++
	return p
}

func (b *ItemSelectBuilder) addWhere(sql string, params ...any) {
	b.where = append(b.where, fragment{sql: sql, params: params})
}

// Tables lists the attribute tables joined, in alias order.
func (b *ItemSelectBuilder) Tables() []string {
	out := make([]string, len(b.joins))
	for i, j := range b.joins {
		out[i] = j.table
	}
	return out
}

// body renders the SELECT without ORDER BY, as used inside compound
// sub-selects.
func (b *ItemSelectBuilder) body() (string, []any) {
	var sb strings.Builder
	ti := b.itemAlias()
	fmt.Fprintf(&sb, "SELECT DISTINCT %s.item FROM %s %s", ti, ItemTable, ti)
	for _, j := range b.joins {
		kind := "LEFT OUTER JOIN"
		if j.inner {
			kind = "INNER JOIN"
		}
		fmt.Fprintf(&sb, " %s %s %s ON %s.item = %s.item", kind, j.table, j.alias, j.alias, ti)
	}

	var params []any
	for i, f := range b.where {
		if i == 0 {
			sb.WriteString(" WHERE ")
		} else {
			sb.WriteString(" AND ")
		}
		sb.WriteString(f.sql)
		params = append(params, f.params...)
	}
	return sb.String(), params
}

// SQL renders the complete statement.
// MANDATORY: Includes ORDER BY for deterministic results.
func (b *ItemSelectBuilder) SQL() (string, []any) {
	body, params := b.body()
	return body + " ORDER BY " + b.itemAlias() + ".item ASC", params
}
