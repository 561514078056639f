package alethe

import (
	"fmt"
	"math/big"
	"strings"
)

// Kind tags the shape of a Term. It is the Go stand-in for the Rust `Term`
// enum's variants (see original_source/carcara/src/ast/macros.rs).
type Kind int

const (
	// KindVar is a typed variable: a symbol paired with its sort. The
	// preseeded booleans `true` and `false` are variables of sort Bool,
	// exactly as the original represents them (terminal!(bool true)).
	KindVar Kind = iota
	KindInt
	KindReal
	KindString
	KindSort
	KindOp
	KindQuant
	KindChoice
	KindLet
	KindLambda
)

func (k Kind) String() string {
	switch k {
	case KindVar:
		return "Var"
	case KindInt:
		return "Int"
	case KindReal:
		return "Real"
	case KindString:
		return "String"
	case KindSort:
		return "Sort"
	case KindOp:
		return "Op"
	case KindQuant:
		return "Quant"
	case KindChoice:
		return "Choice"
	case KindLet:
		return "Let"
	case KindLambda:
		return "Lambda"
	default:
		return "Unknown"
	}
}

// Operator is the closed set of operator applications recognized by the
// term language (spec.md §3).
type Operator int

const (
	OpNot Operator = iota
	OpImplies
	OpAnd
	OpOr
	OpXor
	OpEquals
	OpDistinct
	OpIte
	OpAdd
	OpSub
	OpMult
	OpIntDiv
	OpRealDiv
	OpLessThan
	OpGreaterThan
	OpLessEq
	OpGreaterEq
)

var operatorNames = map[Operator]string{
	OpNot: "not", OpImplies: "=>", OpAnd: "and", OpOr: "or", OpXor: "xor",
	OpEquals: "=", OpDistinct: "distinct", OpIte: "ite",
	OpAdd: "+", OpSub: "-", OpMult: "*", OpIntDiv: "div", OpRealDiv: "/",
	OpLessThan: "<", OpGreaterThan: ">", OpLessEq: "<=", OpGreaterEq: ">=",
}

func (op Operator) String() string {
	if s, ok := operatorNames[op]; ok {
		return s
	}
	return "<unknown-op>"
}

// operatorArity describes whether an operator takes a fixed number of
// arguments or a variadic (minimum-bounded) number.
type operatorArity struct {
	fixed    int // >0 means exactly this many args; 0 means variadic
	variadic bool
	min      int // minimum arity when variadic
}

var operatorArities = map[Operator]operatorArity{
	OpNot:        {fixed: 1},
	OpImplies:    {variadic: true, min: 2},
	OpAnd:        {variadic: true, min: 2},
	OpOr:         {variadic: true, min: 2},
	OpXor:        {variadic: true, min: 2},
	OpEquals:     {variadic: true, min: 2},
	OpDistinct:   {variadic: true, min: 2},
	OpIte:        {fixed: 3},
	OpAdd:        {variadic: true, min: 2},
	OpSub:        {variadic: true, min: 1},
	OpMult:       {variadic: true, min: 2},
	OpIntDiv:     {variadic: true, min: 2},
	OpRealDiv:    {variadic: true, min: 2},
	OpLessThan:   {variadic: true, min: 2},
	OpGreaterThan: {variadic: true, min: 2},
	OpLessEq:     {variadic: true, min: 2},
	OpGreaterEq:  {variadic: true, min: 2},
}

// QuantKind distinguishes universal from existential quantification.
type QuantKind int

const (
	Forall QuantKind = iota
	Exists
)

func (q QuantKind) String() string {
	if q == Forall {
		return "forall"
	}
	return "exists"
}

// SortedVar is a `(symbol sort)` pair used in quantifier, choice, and
// lambda bindings.
type SortedVar struct {
	Symbol string
	Sort   *Term
}

// LetBinding is a `(symbol term)` pair used in `let` bindings.
type LetBinding struct {
	Symbol string
	Value  *Term
}

// Term is an immutable, hash-consed node in the shared term graph. Values
// of this type are only ever produced by a *Pool, which guarantees that
// structurally identical terms share the same *Term pointer — so identity
// comparison (`a == b`) is equivalent to structural equality.
//
// Term intentionally keeps its fields unexported: construction is the
// Pool's job, never a caller's.
type Term struct {
	id   uint64
	kind Kind

	// Terminals.
	intVal *big.Int
	ratVal *big.Rat
	strVal string

	// KindVar.
	varName string
	varSort *Term

	// KindSort.
	sortName   string
	sortParams []*Term

	// KindOp.
	op   Operator
	args []*Term

	// KindQuant / KindLambda share bindings+body; KindQuant also has quantKind.
	quantKind QuantKind
	bindings  []SortedVar
	body      *Term

	// KindChoice.
	choiceVar SortedVar

	// KindLet.
	letBindings []LetBinding
}

// Kind returns the shape tag of the term.
func (t *Term) Kind() Kind { return t.kind }

// ID returns the pool-local monotonic id assigned at interning time.
// Two terms with the same ID are the same term; the ordering of ids
// reflects insertion order, which is what makes pool keys for compound
// terms (built from already-canonical children) deterministic.
func (t *Term) ID() uint64 { return t.id }

// Int returns the arbitrary-precision integer value of an integer
// terminal. It panics if the term is not KindInt.
func (t *Term) Int() *big.Int {
	if t.kind != KindInt {
		panic("alethe: Int() called on non-integer term")
	}
	return t.intVal
}

// Rat returns the arbitrary-precision rational value of a decimal
// terminal. It panics if the term is not KindReal.
func (t *Term) Rat() *big.Rat {
	if t.kind != KindReal {
		panic("alethe: Rat() called on non-real term")
	}
	return t.ratVal
}

// StringValue returns the payload of a string literal. It panics if the
// term is not KindString.
func (t *Term) StringValue() string {
	if t.kind != KindString {
		panic("alethe: StringValue() called on non-string term")
	}
	return t.strVal
}

// VarName returns the symbol of a typed variable (including the preseeded
// `true`/`false` constants). It panics if the term is not KindVar.
func (t *Term) VarName() string {
	if t.kind != KindVar {
		panic("alethe: VarName() called on non-variable term")
	}
	return t.varName
}

// VarSort returns the sort of a typed variable.
func (t *Term) VarSort() *Term {
	if t.kind != KindVar {
		panic("alethe: VarSort() called on non-variable term")
	}
	return t.varSort
}

// SortName returns the name of a sort term ("Bool", "Int", "Real",
// "String", or a user-declared atom name).
func (t *Term) SortName() string {
	if t.kind != KindSort {
		panic("alethe: SortName() called on non-sort term")
	}
	return t.sortName
}

// SortParams returns the sort parameters of a parametric declared sort
// (empty for the builtin sorts and for zero-arity declared sorts).
func (t *Term) SortParams() []*Term {
	if t.kind != KindSort {
		panic("alethe: SortParams() called on non-sort term")
	}
	return t.sortParams
}

// Op returns the operator of an operator application.
func (t *Term) Op() Operator {
	if t.kind != KindOp {
		panic("alethe: Op() called on non-operator term")
	}
	return t.op
}

// Args returns the ordered argument handles of an operator application.
func (t *Term) Args() []*Term {
	if t.kind != KindOp {
		panic("alethe: Args() called on non-operator term")
	}
	return t.args
}

// QuantKind returns whether a quantifier term is a forall or an exists.
func (t *Term) QuantKind() QuantKind {
	if t.kind != KindQuant {
		panic("alethe: QuantKind() called on non-quantifier term")
	}
	return t.quantKind
}

// Bindings returns the bound variables of a quantifier or lambda term.
func (t *Term) Bindings() []SortedVar {
	if t.kind != KindQuant && t.kind != KindLambda {
		panic("alethe: Bindings() called on a term with no bindings")
	}
	return t.bindings
}

// Body returns the body of a quantifier, choice, let, or lambda term.
func (t *Term) Body() *Term {
	switch t.kind {
	case KindQuant, KindChoice, KindLet, KindLambda:
		return t.body
	default:
		panic("alethe: Body() called on a term with no body")
	}
}

// ChoiceVar returns the single bound variable of a choice term.
func (t *Term) ChoiceVar() SortedVar {
	if t.kind != KindChoice {
		panic("alethe: ChoiceVar() called on non-choice term")
	}
	return t.choiceVar
}

// LetBindings returns the bindings of a let term.
func (t *Term) LetBindings() []LetBinding {
	if t.kind != KindLet {
		panic("alethe: LetBindings() called on non-let term")
	}
	return t.letBindings
}

// IsBoolTrue reports whether the term is the preseeded `true` constant.
func (t *Term) IsBoolTrue() bool {
	return t.kind == KindVar && t.varName == "true" && t.varSort != nil && t.varSort.kind == KindSort && t.varSort.sortName == "Bool"
}

// IsBoolFalse reports whether the term is the preseeded `false` constant.
func (t *Term) IsBoolFalse() bool {
	return t.kind == KindVar && t.varName == "false" && t.varSort != nil && t.varSort.kind == KindSort && t.varSort.sortName == "Bool"
}

// String renders the term back into (an equivalent of) its surface
// syntax. It is used for error messages and for round-trip testing.
func (t *Term) String() string {
	var b strings.Builder
	t.writeTo(&b)
	return b.String()
}

func (t *Term) writeTo(b *strings.Builder) {
	switch t.kind {
	case KindInt:
		b.WriteString(t.intVal.String())
	case KindReal:
		num := new(big.Int).Set(t.ratVal.Num())
		den := t.ratVal.Denom()
		// Render as the canonical "digits.digits" form when the
		// denominator is a power of ten, falling back to a fraction
		// otherwise (only reachable for reals built outside the lexer's
		// decimal syntax, e.g. via arithmetic).
		if decimal, ok := ratAsDecimalString(num, den); ok {
			b.WriteString(decimal)
		} else {
			fmt.Fprintf(b, "(/ %s %s)", num.String(), den.String())
		}
	case KindString:
		b.WriteByte('"')
		b.WriteString(strings.ReplaceAll(t.strVal, `"`, `""`))
		b.WriteByte('"')
	case KindVar:
		b.WriteString(t.varName)
	case KindSort:
		if len(t.sortParams) == 0 {
			b.WriteString(t.sortName)
			return
		}
		fmt.Fprintf(b, "(%s", t.sortName)
		for _, p := range t.sortParams {
			b.WriteByte(' ')
			p.writeTo(b)
		}
		b.WriteByte(')')
	case KindOp:
		fmt.Fprintf(b, "(%s", t.op.String())
		for _, a := range t.args {
			b.WriteByte(' ')
			a.writeTo(b)
		}
		b.WriteByte(')')
	case KindQuant:
		fmt.Fprintf(b, "(%s (", t.quantKind.String())
		writeBindings(b, t.bindings)
		b.WriteString(") ")
		t.body.writeTo(b)
		b.WriteByte(')')
	case KindChoice:
		fmt.Fprintf(b, "(choice (%s ", t.choiceVar.Symbol)
		t.choiceVar.Sort.writeTo(b)
		b.WriteString(") ")
		t.body.writeTo(b)
		b.WriteByte(')')
	case KindLet:
		b.WriteString("(let (")
		for i, lb := range t.letBindings {
			if i > 0 {
				b.WriteByte(' ')
			}
			fmt.Fprintf(b, "(%s ", lb.Symbol)
			lb.Value.writeTo(b)
			b.WriteByte(')')
		}
		b.WriteString(") ")
		t.body.writeTo(b)
		b.WriteByte(')')
	case KindLambda:
		b.WriteString("(lambda (")
		writeBindings(b, t.bindings)
		b.WriteString(") ")
		t.body.writeTo(b)
		b.WriteByte(')')
	}
}

func writeBindings(b *strings.Builder, bindings []SortedVar) {
	for i, bv := range bindings {
		if i > 0 {
			b.WriteByte(' ')
		}
		fmt.Fprintf(b, "(%s ", bv.Symbol)
		bv.Sort.writeTo(b)
		b.WriteByte(')')
	}
}

// ratAsDecimalString renders num/den as "digits.digits" when den is a
// power of ten, mirroring the canonical form produced by the lexer's
// decimal rule (numer / 10^len(frac)).
func ratAsDecimalString(num, den *big.Int) (string, bool) {
	if den.Sign() <= 0 {
		return "", false
	}
	ten := big.NewInt(10)
	d := new(big.Int).Set(den)
	places := 0
	for d.Cmp(big.NewInt(1)) != 0 {
		q, r := new(big.Int), new(big.Int)
		q.QuoRem(d, ten, r)
		if r.Sign() != 0 {
			return "", false
		}
		d = q
		places++
	}
	negative := num.Sign() < 0
	digits := new(big.Int).Abs(num).String()
	for len(digits) <= places {
		digits = "0" + digits
	}
	intPart := digits[:len(digits)-places]
	fracPart := digits[len(digits)-places:]
	s := intPart
	if places > 0 {
		s += "." + fracPart
	}
	if negative {
		s = "-" + s
	}
	return s, true
}
