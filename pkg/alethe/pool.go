package alethe

import (
	"fmt"
	"math/big"
	"strconv"
	"strings"
)

// Pool is a hash-consing term pool: the single owner of canonical term
// storage. Every other component holds only *Term handles returned by a
// Pool; adding a structurally equal term twice returns the same handle
// (spec.md §4.A).
//
// A Pool is not safe for concurrent use. The spec scopes all concurrency
// to the job level (one Pool per worker, §5) — there is deliberately no
// locking here, unlike the teacher's ConstraintStorePool, which pools
// stores across goroutines.
type Pool struct {
	byKey  map[string]*Term
	nextID uint64

	boolSort   *Term
	intSort    *Term
	realSort   *Term
	stringSort *Term
	trueConst  *Term
	falseConst *Term

	sortCache map[*Term]*Term
}

// NewPool creates a pool pre-seeded with the Bool, Int, Real and String
// sorts and the boolean constants true and false (spec.md §4.A).
func NewPool() *Pool {
	p := &Pool{
		byKey:     make(map[string]*Term),
		sortCache: make(map[*Term]*Term),
	}
	p.boolSort = p.internSort("Bool", nil)
	p.intSort = p.internSort("Int", nil)
	p.realSort = p.internSort("Real", nil)
	p.stringSort = p.internSort("String", nil)
	p.trueConst = p.internVar("true", p.boolSort)
	p.falseConst = p.internVar("false", p.boolSort)
	return p
}

// Size returns the number of distinct canonical terms currently owned by
// the pool, preseeded entries included.
func (p *Pool) Size() int { return len(p.byKey) }

// BoolSort, IntSort, RealSort, and StringSort return the canonical handles
// for the four builtin sorts.
func (p *Pool) BoolSort() *Term   { return p.boolSort }
func (p *Pool) IntSort() *Term    { return p.intSort }
func (p *Pool) RealSort() *Term   { return p.realSort }
func (p *Pool) StringSort() *Term { return p.stringSort }

// BoolTrue and BoolFalse return the canonical handles for the boolean
// constants.
func (p *Pool) BoolTrue() *Term  { return p.trueConst }
func (p *Pool) BoolFalse() *Term { return p.falseConst }

// BoolConstant returns BoolTrue() or BoolFalse() depending on b.
func (p *Pool) BoolConstant(b bool) *Term {
	if b {
		return p.trueConst
	}
	return p.falseConst
}

// intern registers a freshly built candidate term under key, returning the
// existing canonical handle if one is already present. This is the single
// choke point that makes add(x) == add(x) hold for every constructor below.
func (p *Pool) intern(key string, candidate *Term) *Term {
	if existing, ok := p.byKey[key]; ok {
		return existing
	}
	candidate.id = p.nextID
	p.nextID++
	p.byKey[key] = candidate
	return candidate
}

func (p *Pool) internSort(name string, params []*Term) *Term {
	key := sortKey(name, params)
	return p.intern(key, &Term{kind: KindSort, sortName: name, sortParams: params})
}

func (p *Pool) internVar(name string, sort *Term) *Term {
	key := varKey(name, sort)
	return p.intern(key, &Term{kind: KindVar, varName: name, varSort: sort})
}

// AddSort interns a (possibly parametric) declared sort.
func (p *Pool) AddSort(name string, params ...*Term) *Term {
	switch name {
	case "Bool":
		return p.boolSort
	case "Int":
		return p.intSort
	case "Real":
		return p.realSort
	case "String":
		return p.stringSort
	}
	return p.internSort(name, params)
}

// AddVar interns a typed variable. No two handles are returned for the
// same (name, sort) pair, and the same symbol at different sorts yields
// distinct handles (spec.md §4.B).
func (p *Pool) AddVar(name string, sort *Term) *Term {
	return p.internVar(name, sort)
}

// AddInt interns an arbitrary-precision integer terminal.
func (p *Pool) AddInt(v *big.Int) *Term {
	key := "I|" + v.String()
	return p.intern(key, &Term{kind: KindInt, intVal: new(big.Int).Set(v)})
}

// AddIntInt64 is a convenience wrapper around AddInt for small integers.
func (p *Pool) AddIntInt64(v int64) *Term {
	return p.AddInt(big.NewInt(v))
}

// AddReal interns an arbitrary-precision rational terminal.
func (p *Pool) AddReal(v *big.Rat) *Term {
	key := "R|" + v.RatString()
	return p.intern(key, &Term{kind: KindReal, ratVal: new(big.Rat).Set(v)})
}

// AddString interns a string literal.
func (p *Pool) AddString(s string) *Term {
	key := fmt.Sprintf("Str|%d:%s", len(s), s)
	return p.intern(key, &Term{kind: KindString, strVal: s})
}

// AddOp interns an operator application. Arity and sort checking are the
// parser's responsibility (spec.md §4.A: "construction failures are
// impossible — sort checking happens at the parser, not at interning").
func (p *Pool) AddOp(op Operator, args ...*Term) *Term {
	key := opKey(op, args)
	argsCopy := append([]*Term(nil), args...)
	return p.intern(key, &Term{kind: KindOp, op: op, args: argsCopy})
}

// AddQuant interns a quantifier term.
func (p *Pool) AddQuant(qk QuantKind, bindings []SortedVar, body *Term) *Term {
	key := quantKey(qk, bindings, body)
	bindingsCopy := append([]SortedVar(nil), bindings...)
	return p.intern(key, &Term{kind: KindQuant, quantKind: qk, bindings: bindingsCopy, body: body})
}

// AddChoice interns a choice (Hilbert epsilon) term.
func (p *Pool) AddChoice(v SortedVar, body *Term) *Term {
	key := fmt.Sprintf("C|%s|%d|%d", v.Symbol, v.Sort.id, body.id)
	return p.intern(key, &Term{kind: KindChoice, choiceVar: v, body: body})
}

// AddLet interns a let term.
func (p *Pool) AddLet(bindings []LetBinding, body *Term) *Term {
	key := letKey(bindings, body)
	bindingsCopy := append([]LetBinding(nil), bindings...)
	return p.intern(key, &Term{kind: KindLet, letBindings: bindingsCopy, body: body})
}

// AddLambda interns a lambda term.
func (p *Pool) AddLambda(bindings []SortedVar, body *Term) *Term {
	key := lambdaKey(bindings, body)
	bindingsCopy := append([]SortedVar(nil), bindings...)
	return p.intern(key, &Term{kind: KindLambda, bindings: bindingsCopy, body: body})
}

func sortKey(name string, params []*Term) string {
	var b strings.Builder
	b.WriteString("S|")
	b.WriteString(name)
	for _, p := range params {
		b.WriteByte('|')
		b.WriteString(strconv.FormatUint(p.id, 10))
	}
	return b.String()
}

func varKey(name string, sort *Term) string {
	return fmt.Sprintf("V|%s|%d", name, sort.id)
}

func opKey(op Operator, args []*Term) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Op|%d", op)
	for _, a := range args {
		b.WriteByte('|')
		b.WriteString(strconv.FormatUint(a.id, 10))
	}
	return b.String()
}

func bindingsKey(bindings []SortedVar) string {
	var b strings.Builder
	for i, bv := range bindings {
		if i > 0 {
			b.WriteByte(',')
		}
		fmt.Fprintf(&b, "%s:%d", bv.Symbol, bv.Sort.id)
	}
	return b.String()
}

func quantKey(qk QuantKind, bindings []SortedVar, body *Term) string {
	return fmt.Sprintf("Q|%d|%s|%d", qk, bindingsKey(bindings), body.id)
}

func lambdaKey(bindings []SortedVar, body *Term) string {
	return fmt.Sprintf("La|%s|%d", bindingsKey(bindings), body.id)
}

func letKey(bindings []LetBinding, body *Term) string {
	var b strings.Builder
	b.WriteString("L|")
	for i, lb := range bindings {
		if i > 0 {
			b.WriteByte(',')
		}
		fmt.Fprintf(&b, "%s=%d", lb.Symbol, lb.Value.id)
	}
	fmt.Fprintf(&b, "|%d", body.id)
	return b.String()
}

// SortOf returns the sort of a term, deriving and memoizing it on first
// access (spec.md §4.A: "sort_of(handle) — derivable and memoized").
func (p *Pool) SortOf(t *Term) (*Term, error) {
	if s, ok := p.sortCache[t]; ok {
		return s, nil
	}
	s, err := p.deriveSort(t)
	if err != nil {
		return nil, err
	}
	p.sortCache[t] = s
	return s, nil
}

func (p *Pool) deriveSort(t *Term) (*Term, error) {
	switch t.kind {
	case KindVar:
		return t.varSort, nil
	case KindInt:
		return p.intSort, nil
	case KindReal:
		return p.realSort, nil
	case KindString:
		return p.stringSort, nil
	case KindSort:
		return nil, fmt.Errorf("alethe: a sort term has no sort")
	case KindQuant, KindChoice:
		return p.boolSort, nil
	case KindLet, KindLambda:
		return p.SortOf(t.body)
	case KindOp:
		return p.deriveOpSort(t)
	default:
		return nil, fmt.Errorf("alethe: cannot derive sort of term kind %s", t.kind)
	}
}

func (p *Pool) deriveOpSort(t *Term) (*Term, error) {
	switch t.op {
	case OpNot, OpImplies, OpAnd, OpOr, OpXor, OpEquals, OpDistinct,
		OpLessThan, OpGreaterThan, OpLessEq, OpGreaterEq:
		return p.boolSort, nil
	case OpIte:
		return p.SortOf(t.args[1])
	case OpAdd, OpSub, OpMult, OpIntDiv, OpRealDiv:
		return p.SortOf(t.args[0])
	default:
		return nil, fmt.Errorf("alethe: cannot derive sort of operator %s", t.op)
	}
}
