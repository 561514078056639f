package alethe

// funcDef is a define-fun entry: the formal parameters and the interned
// body to beta-reduce against at each use site (spec.md §4.D).
type funcDef struct {
	Params []SortedVar
	Body   *Term
}

// Parser is a recursive-descent parser layered on a Lexer, interning
// every subterm it builds through a Pool (spec.md §4.D). It maintains a
// symbol table for declared constants, a function-definition table for
// define-fun, a stack of scopes for binders and subproof anchors, and the
// running command-id → (depth, index) table used to resolve premise
// references.
type Parser struct {
	lex  *Lexer
	pool *Pool
	tok  Token

	symbols    map[string]*Term
	namedTerms map[string]*Term
	funcDefs   map[string]funcDef
	scopes     []map[string]*Term

	cmdIDs map[string]PremiseRef
	// depthCounts[d] counts the commands recorded at depth d so far,
	// across sibling subproofs.
	depthCounts []int
}

var operatorByName = map[string]Operator{
	"not": OpNot, "=>": OpImplies, "and": OpAnd, "or": OpOr, "xor": OpXor,
	"=": OpEquals, "distinct": OpDistinct, "ite": OpIte,
	"+": OpAdd, "-": OpSub, "*": OpMult, "div": OpIntDiv, "/": OpRealDiv,
	"<": OpLessThan, ">": OpGreaterThan, "<=": OpLessEq, ">=": OpGreaterEq,
}

// NewParser creates a Parser over lex, interning terms through pool, and
// primes the first lookahead token.
func NewParser(pool *Pool, lex *Lexer) (*Parser, error) {
	p := &Parser{
		lex: lex, pool: pool,
		symbols: map[string]*Term{}, namedTerms: map[string]*Term{},
		funcDefs: map[string]funcDef{}, cmdIDs: map[string]PremiseRef{},
	}
	if err := p.advance(); err != nil {
		return nil, err
	}
	return p, nil
}

func (p *Parser) advance() error {
	tok, err := p.lex.NextToken()
	if err != nil {
		if lerr, ok := err.(*LexError); ok {
			return &ParseError{Kind: ParseUnexpectedToken, Pos: lerr.Pos, Message: lerr.Error(), Cause: lerr}
		}
		return err
	}
	p.tok = tok
	return nil
}

func (p *Parser) unexpectedToken() error {
	return &ParseError{Kind: ParseUnexpectedToken, Pos: p.tok.Pos, Message: p.tok.String()}
}

func (p *Parser) expectOpenParen() error {
	if p.tok.Kind != TokenOpenParen {
		return p.unexpectedToken()
	}
	return p.advance()
}

func (p *Parser) expectCloseParen() error {
	if p.tok.Kind != TokenCloseParen {
		return p.unexpectedToken()
	}
	return p.advance()
}

func (p *Parser) expectReserved(r Reserved) error {
	if p.tok.Kind != TokenReserved || p.tok.Reserved != r {
		return p.unexpectedToken()
	}
	return p.advance()
}

func (p *Parser) expectSymbolText() (string, error) {
	if p.tok.Kind != TokenSymbol {
		return "", p.unexpectedToken()
	}
	s := p.tok.Text
	if err := p.advance(); err != nil {
		return "", err
	}
	return s, nil
}

func (p *Parser) pushScope() { p.scopes = append(p.scopes, map[string]*Term{}) }
func (p *Parser) popScope()  { p.scopes = p.scopes[:len(p.scopes)-1] }

func (p *Parser) declareInScope(name string, t *Term) {
	p.scopes[len(p.scopes)-1][name] = t
}

// skipBalancedToClose consumes tokens, tracking paren depth, until it
// consumes the ')' that closes the current command. Used to tolerate
// unrecognized top-level problem commands.
func (p *Parser) skipBalancedToClose() error {
	depth := 0
	for {
		switch p.tok.Kind {
		case TokenOpenParen:
			depth++
		case TokenCloseParen:
			if depth == 0 {
				return p.advance()
			}
			depth--
		case TokenEof:
			return &ParseError{Kind: ParseUnexpectedToken, Pos: p.tok.Pos, Message: "unexpected eof"}
		}
		if err := p.advance(); err != nil {
			return err
		}
	}
}

// skipAttributeValue consumes a single attribute value: either one atom
// token, or a fully parenthesised list. Used to tolerate unknown step
// attributes (spec.md §7: "the only tolerated anomaly").
func (p *Parser) skipAttributeValue() error {
	if p.tok.Kind != TokenOpenParen {
		return p.advance()
	}
	depth := 0
	for {
		switch p.tok.Kind {
		case TokenOpenParen:
			depth++
		case TokenCloseParen:
			depth--
			if depth == 0 {
				return p.advance()
			}
		case TokenEof:
			return &ParseError{Kind: ParseUnexpectedToken, Pos: p.tok.Pos, Message: "unexpected eof"}
		}
		if err := p.advance(); err != nil {
			return err
		}
	}
}

// ---- Term grammar ----

// ParseTerm parses a single term starting at the current lookahead.
func (p *Parser) ParseTerm() (*Term, error) {
	switch p.tok.Kind {
	case TokenOpenParen:
		if err := p.advance(); err != nil {
			return nil, err
		}
		return p.parseTermBody()
	case TokenNumeral:
		v := p.tok.Numeral
		if err := p.advance(); err != nil {
			return nil, err
		}
		return p.pool.AddInt(v), nil
	case TokenDecimal:
		v := p.tok.Decimal
		if err := p.advance(); err != nil {
			return nil, err
		}
		return p.pool.AddReal(v), nil
	case TokenString:
		s := p.tok.Str
		if err := p.advance(); err != nil {
			return nil, err
		}
		return p.pool.AddString(s), nil
	case TokenSymbol:
		name := p.tok.Text
		if err := p.advance(); err != nil {
			return nil, err
		}
		return p.resolveSymbol(name)
	default:
		return nil, p.unexpectedToken()
	}
}

// parseTermBody parses the body of a compound term, assuming the opening
// '(' has already been consumed.
func (p *Parser) parseTermBody() (*Term, error) {
	switch p.tok.Kind {
	case TokenReserved:
		switch p.tok.Reserved {
		case ReservedForall:
			if err := p.advance(); err != nil {
				return nil, err
			}
			return p.parseQuantifier(Forall)
		case ReservedExists:
			if err := p.advance(); err != nil {
				return nil, err
			}
			return p.parseQuantifier(Exists)
		case ReservedChoice:
			if err := p.advance(); err != nil {
				return nil, err
			}
			return p.parseChoice()
		case ReservedLet:
			if err := p.advance(); err != nil {
				return nil, err
			}
			return p.parseLet()
		case ReservedBang:
			if err := p.advance(); err != nil {
				return nil, err
			}
			return p.parseAnnotated()
		case ReservedAs:
			if err := p.advance(); err != nil {
				return nil, err
			}
			inner, err := p.ParseTerm()
			if err != nil {
				return nil, err
			}
			if _, err := p.parseSort(); err != nil {
				return nil, err
			}
			if err := p.expectCloseParen(); err != nil {
				return nil, err
			}
			return inner, nil
		case ReservedUnderscore, ReservedMatch:
			return nil, &ParseError{Kind: ParseUnexpectedToken, Pos: p.tok.Pos,
				Message: "indexed identifiers and match terms are not supported"}
		default:
			return nil, p.unexpectedToken()
		}
	case TokenSymbol:
		name := p.tok.Text
		if name == "lambda" {
			if err := p.advance(); err != nil {
				return nil, err
			}
			return p.parseLambda()
		}
		if op, ok := operatorByName[name]; ok {
			if err := p.advance(); err != nil {
				return nil, err
			}
			return p.parseOpApplication(op)
		}
		if err := p.advance(); err != nil {
			return nil, err
		}
		return p.parseFuncApp(name)
	default:
		return nil, p.unexpectedToken()
	}
}

func (p *Parser) parseOpApplication(op Operator) (*Term, error) {
	var args []*Term
	for p.tok.Kind != TokenCloseParen {
		if p.tok.Kind == TokenEof {
			return nil, p.unexpectedToken()
		}
		t, err := p.ParseTerm()
		if err != nil {
			return nil, err
		}
		args = append(args, t)
	}
	if err := p.validateArity(op, len(args)); err != nil {
		return nil, err
	}
	if err := p.expectCloseParen(); err != nil {
		return nil, err
	}
	if err := p.validateOpSorts(op, args); err != nil {
		return nil, err
	}
	return p.pool.AddOp(op, args...), nil
}

func (p *Parser) validateArity(op Operator, n int) error {
	a, ok := operatorArities[op]
	if !ok {
		return nil
	}
	if a.variadic {
		if n < a.min {
			return &ParseError{Kind: ParseWrongNumberOfArgs, Pos: p.tok.Pos, Message: op.String()}
		}
		return nil
	}
	if n != a.fixed {
		return &ParseError{Kind: ParseWrongNumberOfArgs, Pos: p.tok.Pos, Message: op.String()}
	}
	return nil
}

func (p *Parser) isBoolSort(s *Term) bool { return s == p.pool.BoolSort() }
func (p *Parser) isNumericSort(s *Term) bool {
	return s == p.pool.IntSort() || s == p.pool.RealSort()
}

func (p *Parser) sortErrorAt(pos Position) error {
	return &ParseError{Kind: ParseSortError, Pos: pos}
}

func (p *Parser) validateOpSorts(op Operator, args []*Term) error {
	sorts := make([]*Term, len(args))
	for i, a := range args {
		s, err := p.pool.SortOf(a)
		if err != nil {
			return &ParseError{Kind: ParseSortError, Pos: p.tok.Pos, Message: err.Error()}
		}
		sorts[i] = s
	}
	switch op {
	case OpNot, OpAnd, OpOr, OpXor, OpImplies:
		for _, s := range sorts {
			if !p.isBoolSort(s) {
				return p.sortErrorAt(p.tok.Pos)
			}
		}
	case OpEquals, OpDistinct:
		for _, s := range sorts[1:] {
			if s != sorts[0] {
				return p.sortErrorAt(p.tok.Pos)
			}
		}
	case OpIte:
		if !p.isBoolSort(sorts[0]) {
			return p.sortErrorAt(p.tok.Pos)
		}
		if sorts[1] != sorts[2] {
			return p.sortErrorAt(p.tok.Pos)
		}
	case OpAdd, OpSub, OpMult, OpIntDiv, OpRealDiv, OpLessThan, OpGreaterThan, OpLessEq, OpGreaterEq:
		for _, s := range sorts {
			if !p.isNumericSort(s) {
				return p.sortErrorAt(p.tok.Pos)
			}
		}
		for _, s := range sorts[1:] {
			if s != sorts[0] {
				return p.sortErrorAt(p.tok.Pos)
			}
		}
	}
	return nil
}

// parseBindingList parses a non-empty `((x S) ...)` binding list, used by
// forall/exists/choice/lambda.
func (p *Parser) parseBindingList() ([]SortedVar, error) {
	if err := p.expectOpenParen(); err != nil {
		return nil, err
	}
	if p.tok.Kind == TokenCloseParen {
		return nil, &ParseError{Kind: ParseEmptySequence, Pos: p.tok.Pos}
	}
	var bindings []SortedVar
	for p.tok.Kind != TokenCloseParen {
		if err := p.expectOpenParen(); err != nil {
			return nil, err
		}
		name, err := p.expectSymbolText()
		if err != nil {
			return nil, err
		}
		sort, err := p.parseSort()
		if err != nil {
			return nil, err
		}
		if err := p.expectCloseParen(); err != nil {
			return nil, err
		}
		bindings = append(bindings, SortedVar{Symbol: name, Sort: sort})
	}
	if err := p.expectCloseParen(); err != nil {
		return nil, err
	}
	return bindings, nil
}

// parseParamList parses a (possibly empty) `((x S) ...)` parameter list,
// used by define-fun, where zero parameters is legal.
func (p *Parser) parseParamList() ([]SortedVar, error) {
	if err := p.expectOpenParen(); err != nil {
		return nil, err
	}
	var params []SortedVar
	for p.tok.Kind != TokenCloseParen {
		if err := p.expectOpenParen(); err != nil {
			return nil, err
		}
		name, err := p.expectSymbolText()
		if err != nil {
			return nil, err
		}
		sort, err := p.parseSort()
		if err != nil {
			return nil, err
		}
		if err := p.expectCloseParen(); err != nil {
			return nil, err
		}
		params = append(params, SortedVar{Symbol: name, Sort: sort})
	}
	if err := p.expectCloseParen(); err != nil {
		return nil, err
	}
	return params, nil
}

func (p *Parser) parseQuantifier(qk QuantKind) (*Term, error) {
	bindings, err := p.parseBindingList()
	if err != nil {
		return nil, err
	}
	p.pushScope()
	for _, b := range bindings {
		p.declareInScope(b.Symbol, p.pool.AddVar(b.Symbol, b.Sort))
	}
	body, err := p.ParseTerm()
	p.popScope()
	if err != nil {
		return nil, err
	}
	if err := p.expectCloseParen(); err != nil {
		return nil, err
	}
	bodySort, err := p.pool.SortOf(body)
	if err != nil {
		return nil, &ParseError{Kind: ParseSortError, Pos: p.tok.Pos, Message: err.Error()}
	}
	if !p.isBoolSort(bodySort) {
		return nil, p.sortErrorAt(p.tok.Pos)
	}
	return p.pool.AddQuant(qk, bindings, body), nil
}

func (p *Parser) parseChoice() (*Term, error) {
	bindings, err := p.parseBindingList()
	if err != nil {
		return nil, err
	}
	if len(bindings) != 1 {
		return nil, &ParseError{Kind: ParseWrongNumberOfArgs, Pos: p.tok.Pos, Message: "choice"}
	}
	p.pushScope()
	p.declareInScope(bindings[0].Symbol, p.pool.AddVar(bindings[0].Symbol, bindings[0].Sort))
	body, err := p.ParseTerm()
	p.popScope()
	if err != nil {
		return nil, err
	}
	if err := p.expectCloseParen(); err != nil {
		return nil, err
	}
	return p.pool.AddChoice(bindings[0], body), nil
}

func (p *Parser) parseLambda() (*Term, error) {
	bindings, err := p.parseBindingList()
	if err != nil {
		return nil, err
	}
	p.pushScope()
	for _, b := range bindings {
		p.declareInScope(b.Symbol, p.pool.AddVar(b.Symbol, b.Sort))
	}
	body, err := p.ParseTerm()
	p.popScope()
	if err != nil {
		return nil, err
	}
	if err := p.expectCloseParen(); err != nil {
		return nil, err
	}
	return p.pool.AddLambda(bindings, body), nil
}

func (p *Parser) parseLetBindings() ([]LetBinding, error) {
	if err := p.expectOpenParen(); err != nil {
		return nil, err
	}
	if p.tok.Kind == TokenCloseParen {
		return nil, &ParseError{Kind: ParseEmptySequence, Pos: p.tok.Pos}
	}
	var bindings []LetBinding
	for p.tok.Kind != TokenCloseParen {
		if err := p.expectOpenParen(); err != nil {
			return nil, err
		}
		name, err := p.expectSymbolText()
		if err != nil {
			return nil, err
		}
		value, err := p.ParseTerm()
		if err != nil {
			return nil, err
		}
		if err := p.expectCloseParen(); err != nil {
			return nil, err
		}
		bindings = append(bindings, LetBinding{Symbol: name, Value: value})
	}
	if err := p.expectCloseParen(); err != nil {
		return nil, err
	}
	return bindings, nil
}

func (p *Parser) parseLet() (*Term, error) {
	bindings, err := p.parseLetBindings()
	if err != nil {
		return nil, err
	}
	p.pushScope()
	for _, lb := range bindings {
		sort, serr := p.pool.SortOf(lb.Value)
		if serr != nil {
			p.popScope()
			return nil, &ParseError{Kind: ParseSortError, Pos: p.tok.Pos, Message: serr.Error()}
		}
		p.declareInScope(lb.Symbol, p.pool.AddVar(lb.Symbol, sort))
	}
	body, err := p.ParseTerm()
	p.popScope()
	if err != nil {
		return nil, err
	}
	if err := p.expectCloseParen(); err != nil {
		return nil, err
	}
	return p.pool.AddLet(bindings, body), nil
}

func (p *Parser) parseAnnotated() (*Term, error) {
	inner, err := p.ParseTerm()
	if err != nil {
		return nil, err
	}
	for p.tok.Kind == TokenKeyword {
		switch p.tok.Text {
		case "named":
			if err := p.advance(); err != nil {
				return nil, err
			}
			name, err := p.expectSymbolText()
			if err != nil {
				return nil, err
			}
			p.namedTerms[name] = inner
		case "pattern":
			if err := p.advance(); err != nil {
				return nil, err
			}
			if err := p.skipAttributeValue(); err != nil {
				return nil, err
			}
		default:
			return nil, &ParseError{Kind: ParseUnknownAttribute, Pos: p.tok.Pos, Message: p.tok.Text}
		}
	}
	if err := p.expectCloseParen(); err != nil {
		return nil, err
	}
	return inner, nil
}

func (p *Parser) parseSort() (*Term, error) {
	switch p.tok.Kind {
	case TokenOpenParen:
		if err := p.advance(); err != nil {
			return nil, err
		}
		name, err := p.expectSymbolText()
		if err != nil {
			return nil, err
		}
		var params []*Term
		for p.tok.Kind != TokenCloseParen {
			s, err := p.parseSort()
			if err != nil {
				return nil, err
			}
			params = append(params, s)
		}
		if err := p.advance(); err != nil {
			return nil, err
		}
		return p.pool.AddSort(name, params...), nil
	case TokenSymbol:
		name := p.tok.Text
		if err := p.advance(); err != nil {
			return nil, err
		}
		return p.pool.AddSort(name), nil
	default:
		return nil, p.unexpectedToken()
	}
}

func (p *Parser) resolveSymbol(name string) (*Term, error) {
	for i := len(p.scopes) - 1; i >= 0; i-- {
		if t, ok := p.scopes[i][name]; ok {
			return t, nil
		}
	}
	if name == "true" {
		return p.pool.BoolTrue(), nil
	}
	if name == "false" {
		return p.pool.BoolFalse(), nil
	}
	if t, ok := p.namedTerms[name]; ok {
		return t, nil
	}
	if t, ok := p.symbols[name]; ok {
		return t, nil
	}
	if fd, ok := p.funcDefs[name]; ok && len(fd.Params) == 0 {
		return fd.Body, nil
	}
	return nil, &ParseError{Kind: ParseUndefinedSymbol, Pos: p.tok.Pos, Message: name}
}

// parseFuncApp handles `(name arg ...)` where name is not a builtin
// operator: the only such application this spec's closed term grammar
// recognizes is a call to a define-fun name, beta-reduced eagerly at the
// use site (spec.md §4.D). A user-declared (non-defined) function symbol
// applied to arguments is rejected, since the term model has no general
// function-application node beyond the fixed Operator set; this is a
// deliberate scope decision, recorded in DESIGN.md.
func (p *Parser) parseFuncApp(name string) (*Term, error) {
	fd, ok := p.funcDefs[name]
	if !ok {
		return nil, &ParseError{Kind: ParseUndefinedSymbol, Pos: p.tok.Pos, Message: name}
	}
	var args []*Term
	for p.tok.Kind != TokenCloseParen {
		if p.tok.Kind == TokenEof {
			return nil, p.unexpectedToken()
		}
		t, err := p.ParseTerm()
		if err != nil {
			return nil, err
		}
		args = append(args, t)
	}
	if len(args) != len(fd.Params) {
		return nil, &ParseError{Kind: ParseWrongNumberOfArgs, Pos: p.tok.Pos, Message: name}
	}
	if err := p.expectCloseParen(); err != nil {
		return nil, err
	}
	return substituteTerm(p.pool, fd.Body, fd.Params, args), nil
}

// substituteTerm beta-reduces body by replacing each formal parameter's
// bound-variable handle with the corresponding actual argument, rebuilding
// affected terms bottom-up through the pool. It does not perform
// alpha-renaming to guard against variable capture; see DESIGN.md.
func substituteTerm(pool *Pool, body *Term, params []SortedVar, args []*Term) *Term {
	if len(params) == 0 {
		return body
	}
	mapping := make(map[*Term]*Term, len(params))
	for i, prm := range params {
		mapping[pool.AddVar(prm.Symbol, prm.Sort)] = args[i]
	}
	return substRec(pool, body, mapping)
}

func substRec(pool *Pool, t *Term, mapping map[*Term]*Term) *Term {
	if repl, ok := mapping[t]; ok {
		return repl
	}
	switch t.Kind() {
	case KindInt, KindReal, KindString, KindSort, KindVar:
		return t
	case KindOp:
		args := t.Args()
		newArgs := make([]*Term, len(args))
		changed := false
		for i, a := range args {
			na := substRec(pool, a, mapping)
			newArgs[i] = na
			changed = changed || na != a
		}
		if !changed {
			return t
		}
		return pool.AddOp(t.Op(), newArgs...)
	case KindQuant:
		body2 := substRec(pool, t.Body(), mapping)
		if body2 == t.Body() {
			return t
		}
		return pool.AddQuant(t.QuantKind(), t.Bindings(), body2)
	case KindChoice:
		body2 := substRec(pool, t.Body(), mapping)
		if body2 == t.Body() {
			return t
		}
		return pool.AddChoice(t.ChoiceVar(), body2)
	case KindLet:
		bindings := t.LetBindings()
		newBindings := make([]LetBinding, len(bindings))
		changed := false
		for i, lb := range bindings {
			nv := substRec(pool, lb.Value, mapping)
			newBindings[i] = LetBinding{Symbol: lb.Symbol, Value: nv}
			changed = changed || nv != lb.Value
		}
		body2 := substRec(pool, t.Body(), mapping)
		if !changed && body2 == t.Body() {
			return t
		}
		return pool.AddLet(newBindings, body2)
	case KindLambda:
		body2 := substRec(pool, t.Body(), mapping)
		if body2 == t.Body() {
			return t
		}
		return pool.AddLambda(t.Bindings(), body2)
	default:
		return t
	}
}

// ---- Problem grammar ----

// ParseProblem parses the problem preamble: declare-sort, declare-fun,
// declare-const, define-fun, and the ignored SMT-LIB set-logic/set-info
// (spec.md §4.D, §6.1). Unrecognized top-level commands are tolerated and
// skipped, consistent with this parser's general tolerance for
// tool-specific extensions.
func (p *Parser) ParseProblem() error {
	for p.tok.Kind != TokenEof {
		if err := p.expectOpenParen(); err != nil {
			return err
		}
		head, err := p.expectSymbolText()
		if err != nil {
			return err
		}
		switch head {
		case "declare-sort":
			if _, err := p.expectSymbolText(); err != nil {
				return err
			}
			if err := p.skipAttributeValue(); err != nil {
				return err
			}
			if err := p.expectCloseParen(); err != nil {
				return err
			}
		case "declare-fun":
			name, err := p.expectSymbolText()
			if err != nil {
				return err
			}
			if err := p.expectOpenParen(); err != nil {
				return err
			}
			for p.tok.Kind != TokenCloseParen {
				if _, err := p.parseSort(); err != nil {
					return err
				}
			}
			if err := p.advance(); err != nil {
				return err
			}
			retSort, err := p.parseSort()
			if err != nil {
				return err
			}
			p.symbols[name] = p.pool.AddVar(name, retSort)
			if err := p.expectCloseParen(); err != nil {
				return err
			}
		case "declare-const":
			name, err := p.expectSymbolText()
			if err != nil {
				return err
			}
			sort, err := p.parseSort()
			if err != nil {
				return err
			}
			p.symbols[name] = p.pool.AddVar(name, sort)
			if err := p.expectCloseParen(); err != nil {
				return err
			}
		case "define-fun":
			name, err := p.expectSymbolText()
			if err != nil {
				return err
			}
			params, err := p.parseParamList()
			if err != nil {
				return err
			}
			retSort, err := p.parseSort()
			if err != nil {
				return err
			}
			p.pushScope()
			for _, prm := range params {
				p.declareInScope(prm.Symbol, p.pool.AddVar(prm.Symbol, prm.Sort))
			}
			body, err := p.ParseTerm()
			p.popScope()
			if err != nil {
				return err
			}
			if bodySort, serr := p.pool.SortOf(body); serr == nil && bodySort != retSort {
				return &ParseError{Kind: ParseSortError, Pos: p.tok.Pos, Message: "define-fun body sort mismatch"}
			}
			p.funcDefs[name] = funcDef{Params: params, Body: body}
			if err := p.expectCloseParen(); err != nil {
				return err
			}
		case "set-logic", "set-info":
			if err := p.skipBalancedToClose(); err != nil {
				return err
			}
			continue
		default:
			if err := p.skipBalancedToClose(); err != nil {
				return err
			}
			continue
		}
	}
	return nil
}

// ---- Proof grammar ----

// ParseProof parses the proof command stream (spec.md §4.D, §4.I).
func (p *Parser) ParseProof() (*Proof, error) {
	cmds, err := p.parseCommandsUntilClose(0, "")
	if err != nil {
		return nil, err
	}
	return &Proof{Pool: p.pool, Commands: cmds}, nil
}

func (p *Parser) recordCommandID(cmd *ProofCommand, depth int) {
	for len(p.depthCounts) <= depth {
		p.depthCounts = append(p.depthCounts, 0)
	}
	p.cmdIDs[cmd.LastID()] = PremiseRef{Depth: depth, Index: p.depthCounts[depth]}
	p.depthCounts[depth]++
}

func (p *Parser) parseCommandsUntilClose(depth int, closingID string) ([]*ProofCommand, error) {
	var out []*ProofCommand
	for {
		if p.tok.Kind == TokenEof {
			if closingID != "" {
				return nil, &ParseError{Kind: ParseAnchorMismatch, Pos: p.tok.Pos, Message: closingID}
			}
			return out, nil
		}
		if err := p.expectOpenParen(); err != nil {
			return nil, err
		}
		if p.tok.Kind != TokenReserved {
			return nil, p.unexpectedToken()
		}
		var cmd *ProofCommand
		var err error
		switch p.tok.Reserved {
		case ReservedAssume:
			if err = p.advance(); err != nil {
				return nil, err
			}
			cmd, err = p.parseAssumeBody()
		case ReservedStep:
			if err = p.advance(); err != nil {
				return nil, err
			}
			cmd, err = p.parseStepBody(depth)
		case ReservedAnchor:
			if err = p.advance(); err != nil {
				return nil, err
			}
			cmd, err = p.parseAnchorSubproof(depth)
		default:
			return nil, p.unexpectedToken()
		}
		if err != nil {
			return nil, err
		}
		p.recordCommandID(cmd, depth)
		out = append(out, cmd)
		if closingID != "" && cmd.Kind == CmdStep && cmd.ID == closingID {
			return out, nil
		}
	}
}

func (p *Parser) parseAssumeBody() (*ProofCommand, error) {
	id, err := p.expectSymbolText()
	if err != nil {
		return nil, err
	}
	term, err := p.ParseTerm()
	if err != nil {
		return nil, err
	}
	if err := p.expectCloseParen(); err != nil {
		return nil, err
	}
	return &ProofCommand{Kind: CmdAssume, ID: id, Term: term}, nil
}

func (p *Parser) parseClause() ([]*Term, error) {
	if err := p.expectOpenParen(); err != nil {
		return nil, err
	}
	if err := p.expectReserved(ReservedCl); err != nil {
		return nil, err
	}
	var terms []*Term
	for p.tok.Kind != TokenCloseParen {
		t, err := p.ParseTerm()
		if err != nil {
			return nil, err
		}
		terms = append(terms, t)
	}
	if err := p.advance(); err != nil {
		return nil, err
	}
	return terms, nil
}

func (p *Parser) parsePremiseRefList() ([]PremiseRef, error) {
	if err := p.expectOpenParen(); err != nil {
		return nil, err
	}
	var refs []PremiseRef
	for p.tok.Kind != TokenCloseParen {
		idText, err := p.expectSymbolText()
		if err != nil {
			return nil, err
		}
		ref, ok := p.cmdIDs[idText]
		if !ok {
			return nil, &ParseError{Kind: ParseUndefinedSymbol, Pos: p.tok.Pos, Message: idText}
		}
		refs = append(refs, ref)
	}
	if err := p.advance(); err != nil {
		return nil, err
	}
	return refs, nil
}

func (p *Parser) parseArgList() ([]ProofArg, error) {
	if err := p.expectOpenParen(); err != nil {
		return nil, err
	}
	var args []ProofArg
	for p.tok.Kind != TokenCloseParen {
		if p.tok.Kind == TokenOpenParen {
			if err := p.advance(); err != nil {
				return nil, err
			}
			if p.tok.Kind == TokenKeyword && p.tok.Text == "=" {
				if err := p.advance(); err != nil {
					return nil, err
				}
				name, err := p.expectSymbolText()
				if err != nil {
					return nil, err
				}
				value, err := p.ParseTerm()
				if err != nil {
					return nil, err
				}
				if err := p.expectCloseParen(); err != nil {
					return nil, err
				}
				args = append(args, ProofArg{Name: name, Term: value})
				continue
			}
			term, err := p.parseTermBody()
			if err != nil {
				return nil, err
			}
			args = append(args, ProofArg{Term: term})
			continue
		}
		term, err := p.ParseTerm()
		if err != nil {
			return nil, err
		}
		args = append(args, ProofArg{Term: term})
	}
	if err := p.advance(); err != nil {
		return nil, err
	}
	return args, nil
}

func (p *Parser) parseStepBody(depth int) (*ProofCommand, error) {
	id, err := p.expectSymbolText()
	if err != nil {
		return nil, err
	}
	clause, err := p.parseClause()
	if err != nil {
		return nil, err
	}
	var rule string
	haveRule := false
	var premises, discharge []PremiseRef
	var args []ProofArg
	for p.tok.Kind == TokenKeyword {
		switch p.tok.Text {
		case "rule":
			if err := p.advance(); err != nil {
				return nil, err
			}
			rule, err = p.expectSymbolText()
			haveRule = true
		case "premises":
			if err := p.advance(); err != nil {
				return nil, err
			}
			premises, err = p.parsePremiseRefList()
		case "args":
			if err := p.advance(); err != nil {
				return nil, err
			}
			args, err = p.parseArgList()
		case "discharge":
			if err := p.advance(); err != nil {
				return nil, err
			}
			discharge, err = p.parsePremiseRefList()
		default:
			if err := p.advance(); err != nil {
				return nil, err
			}
			err = p.skipAttributeValue()
		}
		if err != nil {
			return nil, err
		}
	}
	if !haveRule {
		return nil, &ParseError{Kind: ParseUndefinedRule, Pos: p.tok.Pos, Message: id}
	}
	if err := p.expectCloseParen(); err != nil {
		return nil, err
	}
	return &ProofCommand{
		Kind: CmdStep, ID: id, Clause: clause, Rule: rule,
		Premises: premises, Args: args, Discharge: discharge,
	}, nil
}

func (p *Parser) parseAnchorArgList() ([]SortedVar, []LetBinding, error) {
	if err := p.expectOpenParen(); err != nil {
		return nil, nil, err
	}
	var varArgs []SortedVar
	var assignArgs []LetBinding
	for p.tok.Kind != TokenCloseParen {
		if err := p.expectOpenParen(); err != nil {
			return nil, nil, err
		}
		if p.tok.Kind == TokenKeyword && p.tok.Text == "=" {
			if err := p.advance(); err != nil {
				return nil, nil, err
			}
			name, err := p.expectSymbolText()
			if err != nil {
				return nil, nil, err
			}
			value, err := p.ParseTerm()
			if err != nil {
				return nil, nil, err
			}
			if err := p.expectCloseParen(); err != nil {
				return nil, nil, err
			}
			assignArgs = append(assignArgs, LetBinding{Symbol: name, Value: value})
			continue
		}
		name, err := p.expectSymbolText()
		if err != nil {
			return nil, nil, err
		}
		sort, err := p.parseSort()
		if err != nil {
			return nil, nil, err
		}
		if err := p.expectCloseParen(); err != nil {
			return nil, nil, err
		}
		varArgs = append(varArgs, SortedVar{Symbol: name, Sort: sort})
	}
	if err := p.advance(); err != nil {
		return nil, nil, err
	}
	return varArgs, assignArgs, nil
}

func (p *Parser) parseAnchorSubproof(outerDepth int) (*ProofCommand, error) {
	var closeID string
	haveClose := false
	var varArgs []SortedVar
	var assignArgs []LetBinding
	for p.tok.Kind == TokenKeyword {
		var err error
		switch p.tok.Text {
		case "step":
			if err = p.advance(); err != nil {
				return nil, err
			}
			closeID, err = p.expectSymbolText()
			haveClose = true
		case "args":
			if err = p.advance(); err != nil {
				return nil, err
			}
			varArgs, assignArgs, err = p.parseAnchorArgList()
		default:
			if err = p.advance(); err != nil {
				return nil, err
			}
			err = p.skipAttributeValue()
		}
		if err != nil {
			return nil, err
		}
	}
	if !haveClose {
		return nil, &ParseError{Kind: ParseAnchorMismatch, Pos: p.tok.Pos, Message: "anchor missing :step"}
	}
	if err := p.expectCloseParen(); err != nil {
		return nil, err
	}
	innerDepth := outerDepth + 1
	p.pushScope()
	for _, v := range varArgs {
		p.declareInScope(v.Symbol, p.pool.AddVar(v.Symbol, v.Sort))
	}
	for _, a := range assignArgs {
		p.declareInScope(a.Symbol, a.Value)
	}
	inner, err := p.parseCommandsUntilClose(innerDepth, closeID)
	p.popScope()
	if err != nil {
		return nil, err
	}
	return &ProofCommand{
		Kind: CmdSubproof, ID: closeID, Commands: inner,
		VariableArgs: varArgs, AssignmentArgs: assignArgs,
	}, nil
}
