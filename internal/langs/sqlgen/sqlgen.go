package sqlgen

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/mitchellh/mapstructure"

	"github.com/roach88/transpiler/internal/ast"
	"github.com/roach88/transpiler/internal/engine"
)

// Node type names.
const (
	NodeSelect      = "SELECT"
	NodeJoin        = "JOIN"
	NodeAnd         = "AND"
	NodeEquals      = "EQUALS"
	NodeBoundEquals = "BOUND_EQUALS"
)

// Context data keys and modes.
const (
	KeyParams = "params"
	KeyBound  = "bound"
	KeyMode   = "mode"

	ModeQuery = "query"
	ModeFrom  = "from"
)

var identPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*(\.[A-Za-z_][A-Za-z0-9_]*)?$`)

// Params collects placeholder values in the order they are rendered.
type Params struct {
	values []any
}

// Add appends v and returns its placeholder.
func (p *Params) Add(v any) string {
	p.values = append(p.values, v)
	return "?"
}

// Values returns the collected values.
func (p *Params) Values() []any {
	return p.values
}

// Source is what a SELECT renders to inside a JOIN.
type Source struct {
	Table string
	// Where is the rendered filter, empty when the side has none.
	Where string
}

// Query is a compiled statement.
type Query struct {
	SQL    string
	Params []any
}

// Transpiler is the subset of the engine Compile needs.
type Transpiler interface {
	Transpile(node any, data engine.Data, opts engine.Options) (any, error)
}

// Spec returns the handler table for query trees.
func Spec() engine.Spec {
	return engine.Spec{Nodes: map[string]engine.Handler{
		NodeSelect:      renderSelect,
		NodeJoin:        renderJoin,
		NodeAnd:         renderAnd,
		NodeEquals:      renderEquals,
		NodeBoundEquals: renderBoundEquals,
	}}
}

// Compile renders node with t. Fields of a structured data value are
// kept, so callers can pass {"bound": {...}} alongside their own keys; the
// parameter collector and mode are always set fresh.
func Compile(t Transpiler, node any, data engine.Data, opts engine.Options) (Query, error) {
	params := &Params{}
	root := map[string]any{}
	if m, ok := data.Map(); ok {
		for k, v := range m {
			root[k] = v
		}
	}
	root[KeyParams] = params
	root[KeyMode] = ModeQuery

	out, err := t.Transpile(node, engine.DataOf(root), opts)
	if err != nil {
		return Query{}, err
	}
	sql, ok := out.(string)
	if !ok {
		return Query{}, errorf(nodeName(node), "root must render a statement, got %T", out)
	}
	return Query{SQL: sql, Params: params.Values()}, nil
}

type selectNode struct {
	Name     string            `mapstructure:"name"`
	From     string            `mapstructure:"from"`
	Bindings map[string]string `mapstructure:"bindings"`
	Filter   any               `mapstructure:"filter"`
	OrderBy  string            `mapstructure:"order_by"`
}

type joinNode struct {
	Name     string            `mapstructure:"name"`
	Left     any               `mapstructure:"left"`
	Right    any               `mapstructure:"right"`
	On       any               `mapstructure:"on"`
	Bindings map[string]string `mapstructure:"bindings"`
	OrderBy  string            `mapstructure:"order_by"`
}

type andNode struct {
	Name       string `mapstructure:"name"`
	Predicates []any  `mapstructure:"predicates"`
}

type equalsNode struct {
	Name  string `mapstructure:"name"`
	Field string `mapstructure:"field"`
	Value any    `mapstructure:"value"`
}

type boundEqualsNode struct {
	Name  string `mapstructure:"name"`
	Field string `mapstructure:"field"`
	Var   string `mapstructure:"var"`
}

// decode copies node fields into out. Unknown fields are an error.
func decode(nodeType string, node any, out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:      out,
		ErrorUnused: true,
		TagName:     "mapstructure",
	})
	if err != nil {
		return err
	}
	if err := dec.Decode(node); err != nil {
		return errorf(nodeType, "%v", err)
	}
	return nil
}

func renderSelect(node any, recurse engine.Recurse, data engine.Data, _ engine.Recurse) (any, error) {
	var sel selectNode
	if err := decode(NodeSelect, node, &sel); err != nil {
		return nil, err
	}
	if err := checkIdent(NodeSelect, "from", sel.From); err != nil {
		return nil, err
	}

	if mode(data) == ModeFrom {
		src := Source{Table: sel.From}
		if sel.Filter != nil {
			where, err := renderPredicate(NodeSelect, recurse, sel.Filter)
			if err != nil {
				return nil, err
			}
			src.Where = where
		}
		return src, nil
	}

	cols, err := columns(NodeSelect, sel.Bindings)
	if err != nil {
		return nil, err
	}

	var where string
	if sel.Filter != nil {
		pred, err := renderPredicate(NodeSelect, recurse, sel.Filter)
		if err != nil {
			return nil, err
		}
		where = " WHERE " + pred
	}

	order, err := orderKey(NodeSelect, sel.OrderBy, "")
	if err != nil {
		return nil, err
	}
	return fmt.Sprintf("SELECT %s FROM %s%s ORDER BY %s", cols, sel.From, where, order), nil
}

// renderJoin renders an inner join. Placeholders appear in the order
// ON, left filter, right filter, so the children are rendered in that
// order too.
func renderJoin(node any, recurse engine.Recurse, data engine.Data, _ engine.Recurse) (any, error) {
	if mode(data) == ModeFrom {
		return nil, errorf(NodeJoin, "nested joins are not supported")
	}

	var j joinNode
	if err := decode(NodeJoin, node, &j); err != nil {
		return nil, err
	}

	on := "1 = 1"
	if j.On != nil {
		pred, err := renderPredicate(NodeJoin, recurse, j.On)
		if err != nil {
			return nil, err
		}
		on = pred
	}

	left, err := renderSource(recurse, j.Left, "left")
	if err != nil {
		return nil, err
	}
	right, err := renderSource(recurse, j.Right, "right")
	if err != nil {
		return nil, err
	}

	cols, err := columns(NodeJoin, j.Bindings)
	if err != nil {
		return nil, err
	}

	var conds []string
	for _, src := range []Source{left, right} {
		if src.Where != "" {
			conds = append(conds, src.Where)
		}
	}
	var where string
	if len(conds) > 0 {
		where = " WHERE " + strings.Join(conds, " AND ")
	}

	order, err := orderKey(NodeJoin, j.OrderBy, left.Table)
	if err != nil {
		return nil, err
	}
	return fmt.Sprintf("SELECT %s FROM %s INNER JOIN %s ON %s%s ORDER BY %s",
		cols, left.Table, right.Table, on, where, order), nil
}

func renderSource(recurse engine.Recurse, side any, label string) (Source, error) {
	if side == nil {
		return Source{}, errorf(NodeJoin, "%s side is required", label)
	}
	out, err := recurse(side, engine.DataOf(map[string]any{KeyMode: ModeFrom}))
	if err != nil {
		return Source{}, err
	}
	src, ok := out.(Source)
	if !ok {
		return Source{}, errorf(NodeJoin, "%s side must be a SELECT, got %T", label, out)
	}
	return src, nil
}

func renderAnd(node any, recurse engine.Recurse, _ engine.Data, _ engine.Recurse) (any, error) {
	var and andNode
	if err := decode(NodeAnd, node, &and); err != nil {
		return nil, err
	}
	if len(and.Predicates) == 0 {
		return "1 = 1", nil
	}

	parts := make([]string, 0, len(and.Predicates))
	for _, p := range and.Predicates {
		sql, err := renderPredicate(NodeAnd, recurse, p)
		if err != nil {
			return nil, err
		}
		parts = append(parts, sql)
	}
	return strings.Join(parts, " AND "), nil
}

func renderEquals(node any, _ engine.Recurse, data engine.Data, _ engine.Recurse) (any, error) {
	var eq equalsNode
	if err := decode(NodeEquals, node, &eq); err != nil {
		return nil, err
	}
	if err := checkIdent(NodeEquals, "field", eq.Field); err != nil {
		return nil, err
	}

	if eq.Value == nil {
		return eq.Field + " IS NULL", nil
	}
	param, err := toParam(NodeEquals, eq.Value)
	if err != nil {
		return nil, err
	}
	params, err := collector(NodeEquals, data)
	if err != nil {
		return nil, err
	}
	return eq.Field + " = " + params.Add(param), nil
}

func renderBoundEquals(node any, _ engine.Recurse, data engine.Data, _ engine.Recurse) (any, error) {
	var beq boundEqualsNode
	if err := decode(NodeBoundEquals, node, &beq); err != nil {
		return nil, err
	}
	if err := checkIdent(NodeBoundEquals, "field", beq.Field); err != nil {
		return nil, err
	}

	bound, _ := data.Get(KeyBound)
	vars, _ := ast.AsMap(bound)
	val, ok := vars[beq.Var]
	if !ok {
		return nil, errorf(NodeBoundEquals, "variable %q is not bound", beq.Var)
	}
	param, err := toParam(NodeBoundEquals, val)
	if err != nil {
		return nil, err
	}
	params, err := collector(NodeBoundEquals, data)
	if err != nil {
		return nil, err
	}
	return beq.Field + " = " + params.Add(param), nil
}

// renderPredicate renders a filter child in query mode. Leaves are
// rejected: a bare string would otherwise reach the SQL text verbatim.
func renderPredicate(parent string, recurse engine.Recurse, pred any) (string, error) {
	if _, kind := ast.Classify(pred); kind != ast.KindNode {
		return "", errorf(parent, "predicate must be a node, got %T", pred)
	}
	out, err := recurse(pred, engine.DataOf(map[string]any{KeyMode: ModeQuery}))
	if err != nil {
		return "", err
	}
	sql, ok := out.(string)
	if !ok {
		return "", errorf(parent, "predicate rendered %T, not SQL", out)
	}
	return sql, nil
}

// columns renders bindings as a select list sorted by source column.
func columns(nodeType string, bindings map[string]string) (string, error) {
	if len(bindings) == 0 {
		return "*", nil
	}

	keys := make([]string, 0, len(bindings))
	for k := range bindings {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, col := range keys {
		alias := bindings[col]
		if err := checkIdent(nodeType, "binding", col); err != nil {
			return "", err
		}
		if col == alias || alias == "" {
			parts = append(parts, col)
			continue
		}
		if err := checkIdent(nodeType, "alias", alias); err != nil {
			return "", err
		}
		parts = append(parts, col+" AS "+alias)
	}
	return strings.Join(parts, ", "), nil
}

// orderKey returns the ORDER BY list. The id tiebreaker is always last.
func orderKey(nodeType, orderBy, table string) (string, error) {
	id := "id"
	if table != "" {
		id = table + ".id"
	}
	tiebreak := id + " ASC COLLATE BINARY"
	if orderBy == "" || orderBy == id {
		return tiebreak, nil
	}
	if err := checkIdent(nodeType, "order_by", orderBy); err != nil {
		return "", err
	}
	return orderBy + " ASC COLLATE BINARY, " + tiebreak, nil
}

func checkIdent(nodeType, field, v string) error {
	if !identPattern.MatchString(v) {
		return errorf(nodeType, "%s %q is not a valid identifier", field, v)
	}
	return nil
}

// toParam accepts the scalar values decoders produce.
func toParam(nodeType string, v any) (any, error) {
	switch val := v.(type) {
	case string, bool, int64, float64:
		return val, nil
	case int:
		return int64(val), nil
	case nil:
		return nil, nil
	default:
		return nil, errorf(nodeType, "%T cannot be used as a SQL parameter", v)
	}
}

func collector(nodeType string, data engine.Data) (*Params, error) {
	v, _ := data.Get(KeyParams)
	p, ok := v.(*Params)
	if !ok || p == nil {
		return nil, errorf(nodeType, "no parameter collector in context data; render through Compile")
	}
	return p, nil
}

func mode(data engine.Data) string {
	if v, ok := data.Get(KeyMode); ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ModeQuery
}

func nodeName(node any) string {
	name, _ := ast.Classify(node)
	return name
}
