package querysql

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/roach88/replica/internal/boolexpr"
	"github.com/roach88/replica/internal/dp"
	"github.com/roach88/replica/internal/ir"
	"github.com/roach88/replica/internal/schema"
)

// Statement is one rendered query with its positional parameters.
type Statement struct {
	SQL    string
	Params []any
}

func (s Statement) String() string {
	if len(s.Params) == 0 {
		return s.SQL
	}
	parts := make([]string, len(s.Params))
	for i, p := range s.Params {
		parts[i] = fmt.Sprintf("%v", p)
	}
	return s.SQL + " -- [" + strings.Join(parts, ", ") + "]"
}

// Plan is a compiled expression. The items it matches are the union of the
// builders' results; a plan with no builders matches nothing.
//
// Plans are shared through the compiler cache and must not be modified.
type Plan struct {
	Key      string // expression hash
	Builders []*ItemSelectBuilder
}

// IsEmpty reports whether the plan can match no item.
func (p *Plan) IsEmpty() bool {
	return len(p.Builders) == 0
}

// Statements renders every builder.
func (p *Plan) Statements() []Statement {
	out := make([]Statement, len(p.Builders))
	for i, b := range p.Builders {
		sql, params := b.SQL()
		out[i] = Statement{SQL: sql, Params: params}
	}
	return out
}

// Option configures a Compiler.
type Option func(*Compiler)

// WithMaxDisjuncts bounds the DNF expansion of each compiled expression.
func WithMaxDisjuncts(n int) Option {
	return func(c *Compiler) { c.maxDisjuncts = n }
}

// Compiler turns expressions into plans against an attribute catalog.
// It is safe for concurrent use.
type Compiler struct {
	maxDisjuncts int

	mu      sync.Mutex
	catalog schema.Resolver
	cache   map[string]*Plan
}

// NewCompiler creates a compiler for the given catalog.
func NewCompiler(catalog schema.Resolver, opts ...Option) *Compiler {
	c := &Compiler{
		maxDisjuncts: boolexpr.DefaultMaxDisjuncts,
		catalog:      catalog,
		cache:        make(map[string]*Plan),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Reset swaps the catalog and drops every cached plan.
func (c *Compiler) Reset(catalog schema.Resolver) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.catalog = catalog
	c.cache = make(map[string]*Plan)
}

// CacheLen returns the number of cached plans.
func (c *Compiler) CacheLen() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.cache)
}

// Compile returns the plan for e, compiling it on first use.
// Failed compilations are not cached.
func (c *Compiler) Compile(e dp.Expr) (*Plan, error) {
	key := ir.ExprHash(e.Key())

	c.mu.Lock()
	defer c.mu.Unlock()
	if p, ok := c.cache[key]; ok {
		return p, nil
	}

	builders, err := c.compileExpr(e, "_")
	if err != nil {
		return nil, err
	}
	p := &Plan{Key: key, Builders: builders}
	c.cache[key] = p
	return p, nil
}

// compileExpr expands e into one builder per DNF disjunct.
func (c *Compiler) compileExpr(e dp.Expr, prefix string) ([]*ItemSelectBuilder, error) {
	disjuncts, err := e.DNF(c.maxDisjuncts)
	if err != nil {
		if errors.Is(err, boolexpr.ErrTooComplex) {
			return nil, &CompileError{Code: ErrCodeTooComplex, Message: err.Error()}
		}
		return nil, err
	}

	builders := make([]*ItemSelectBuilder, 0, len(disjuncts))
	for _, conj := range disjuncts {
		b := newBuilder(prefix)
		for _, lit := range conj {
			if err := c.lower(b, lit); err != nil {
				return nil, err
			}
		}
		builders = append(builders, b)
	}
	return builders, nil
}

// lower adds the WHERE fragment for one literal.
func (c *Compiler) lower(b *ItemSelectBuilder, lit boolexpr.Literal[dp.DP]) error {
	p := lit.Pred
	attrID := p.Attributes()[0]
	attr, ok := c.catalog.Lookup(attrID)
	if !ok {
		return &CompileError{
			Code:      ErrCodeUnknownAttribute,
			Message:   "attribute not in catalog",
			Attr:      attrID,
			Predicate: p.Key(),
		}
	}
	if err := checkTypes(p, attr); err != nil {
		return err
	}

	if rb, ok := p.(dp.ReferredBy); ok {
		return c.lowerReferredBy(b, rb, attr, lit.Negated)
	}
	if attr.IsCollection() {
		return lowerCollection(b, p, attr, lit.Negated)
	}
	return lowerScalar(b, p, attr, lit.Negated)
}

// lowerScalar tests a scalar attribute through its joined table. Missing
// values surface as NULL from the outer join.
func lowerScalar(b *ItemSelectBuilder, p dp.DP, attr schema.Attribute, negated bool) error {
	if _, ok := p.(dp.NotNull); ok && negated {
		alias := b.joinAlias(attr.Table, false)
		b.addWhere(alias + ".value IS NULL")
		return nil
	}

	missingOK := acceptsMissing(p)
	needsRow := missingOK == negated
	alias := b.joinAlias(attr.Table, needsRow)
	col := alias + ".value"

	frag, params, err := valueFragment(p, col)
	if err != nil {
		return err
	}
	switch {
	case !negated && !missingOK:
		b.addWhere(frag, params...)
	case !negated:
		b.addWhere("("+col+" IS NULL OR "+frag+")", params...)
	case !missingOK:
		b.addWhere("("+col+" IS NULL OR NOT ("+frag+"))", params...)
	default:
		b.addWhere("NOT ("+frag+")", params...)
	}
	return nil
}

// lowerCollection tests a collection attribute with correlated EXISTS
// sub-selects so each item is considered once.
func lowerCollection(b *ItemSelectBuilder, p dp.DP, attr schema.Attribute, negated bool) error {
	ti := b.itemAlias()
	e := b.existsAlias()
	exists := fmt.Sprintf("EXISTS (SELECT 1 FROM %s %s WHERE %s.item = %s.item", attr.Table, e, e, ti)

	var (
		sql    string
		params []any
	)
	if _, ok := p.(dp.NotNull); ok {
		sql = exists + ")"
	} else {
		frag, fragParams, err := valueFragment(p, e+".value")
		if err != nil {
			return err
		}
		sql, params = exists+" AND "+frag+")", fragParams
		if acceptsMissing(p) {
			empty := b.existsAlias()
			sql = fmt.Sprintf("(%s OR NOT EXISTS (SELECT 1 FROM %s %s WHERE %s.item = %s.item))",
				sql, attr.Table, empty, empty, ti)
		}
	}

	if negated {
		sql = negate(sql)
	}
	b.addWhere(sql, params...)
	return nil
}

// lowerReferredBy selects items pointed at by a referrer matching the
// nested expression. The nested builders become a UNION sub-select.
func (c *Compiler) lowerReferredBy(b *ItemSelectBuilder, p dp.ReferredBy, attr schema.Attribute, negated bool) error {
	subs, err := c.compileExpr(p.Sub, b.subPrefix())
	if err != nil {
		return err
	}

	var sql string
	var params []any
	if len(subs) == 0 {
		sql = "0"
	} else {
		bodies := make([]string, len(subs))
		for i, sb := range subs {
			body, bodyParams := sb.body()
			bodies[i] = body
			params = append(params, bodyParams...)
		}
		r := b.refAlias()
		sql = fmt.Sprintf("EXISTS (SELECT 1 FROM %s %s WHERE %s.value = %s.item AND %s.item IN (%s))",
			attr.Table, r, r, b.itemAlias(), r, strings.Join(bodies, " UNION "))
	}

	if negated {
		sql = negate(sql)
	}
	b.addWhere(sql, params...)
	return nil
}

// valueFragment renders the condition one value in col must satisfy.
func valueFragment(p dp.DP, col string) (string, []any, error) {
	switch p := p.(type) {
	case dp.Equals:
		return inList(col, p.Values)
	case dp.Intersects:
		return inList(col, p.Values)
	case dp.Compare:
		param, err := ir.ToParam(p.Value)
		if err != nil {
			return "", nil, err
		}
		return col + " " + p.Op.SQL() + " ?", []any{param}, nil
	case dp.TextMatch:
		return "text_match(" + col + ", ?, ?)", []any{p.Pattern, int64(p.Mode)}, nil
	case dp.NotNull:
		return col + " IS NOT NULL", nil, nil
	case dp.ReferenceTo:
		return col + " IN (SELECT item FROM " + ItemTable + " WHERE identity = ?)", []any{p.Identity}, nil
	default:
		return "", nil, &CompileError{
			Code:      ErrCodeUnsupportedPredicate,
			Message:   fmt.Sprintf("no SQL lowering for %T", p),
			Predicate: p.Key(),
		}
	}
}

func inList(col string, values []ir.IRValue) (string, []any, error) {
	if len(values) == 0 {
		return "0", nil, nil
	}
	params := make([]any, len(values))
	for i, v := range values {
		param, err := ir.ToParam(v)
		if err != nil {
			return "", nil, err
		}
		params[i] = param
	}
	if len(values) == 1 {
		return col + " = ?", params, nil
	}
	return col + " IN (" + strings.TrimSuffix(strings.Repeat("?, ", len(values)), ", ") + ")", params, nil
}

func acceptsMissing(p dp.DP) bool {
	cmp, ok := p.(dp.Compare)
	return ok && cmp.AcceptNull
}

func negate(sql string) string {
	if strings.HasPrefix(sql, "EXISTS ") {
		return "NOT " + sql
	}
	return "NOT (" + sql + ")"
}

// checkTypes rejects operands that SQLite would coerce. Comparing a string
// column against an integer parameter follows affinity rules that differ
// from in-memory evaluation.
func checkTypes(p dp.DP, attr schema.Attribute) error {
	mismatch := func(msg string) error {
		return &CompileError{Code: ErrCodeTypeMismatch, Message: msg, Attr: attr.ID, Predicate: p.Key()}
	}
	checkValues := func(values ...ir.IRValue) error {
		for _, v := range values {
			if ir.Kind(v) != attr.StorageKind() {
				return mismatch(fmt.Sprintf("%s operand for %s attribute", ir.Kind(v), attr.Type))
			}
		}
		return nil
	}

	switch p := p.(type) {
	case dp.Equals:
		return checkValues(p.Values...)
	case dp.Intersects:
		return checkValues(p.Values...)
	case dp.Compare:
		return checkValues(p.Value)
	case dp.TextMatch:
		if attr.StorageKind() != "string" {
			return mismatch(fmt.Sprintf("text match on %s attribute", attr.Type))
		}
	case dp.ReferenceTo, dp.ReferredBy:
		if attr.Type != schema.TypeRef {
			return mismatch(fmt.Sprintf("reference predicate on %s attribute", attr.Type))
		}
	}
	return nil
}
