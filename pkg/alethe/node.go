package alethe

import "fmt"

// ProofNode is the graph representation of a proof command (spec.md §3),
// field-for-field modeled on original_source/carcara/src/ast/node.rs's
// ProofNode/StepNode/SubproofNode, with one addition: every node reports
// its own Depth() directly (the Rust source only attaches depth to
// premise pairs), because SPEC_FULL.md's component design calls for
// Step{..., depth, ...} explicitly and outbound-premise computation reads
// it directly instead of threading it through call sites.
type ProofNode interface {
	ID() string
	Clause() []*Term
	Depth() int
	IsAssume() bool
	IsStep() bool
	IsSubproof() bool
}

// PremiseNode pairs a referenced node with the depth it was resolved at,
// matching the Rust `(usize, Rc<ProofNode>)` premise pairs exactly.
type PremiseNode struct {
	Depth int
	Node  ProofNode
}

// AssumeNode is an `assume` command in the graph representation.
type AssumeNode struct {
	NodeID    string
	Term      *Term
	NodeDepth int
}

func (n *AssumeNode) ID() string      { return n.NodeID }
func (n *AssumeNode) Clause() []*Term { return []*Term{n.Term} }
func (n *AssumeNode) Depth() int      { return n.NodeDepth }
func (n *AssumeNode) IsAssume() bool  { return true }
func (n *AssumeNode) IsStep() bool    { return false }
func (n *AssumeNode) IsSubproof() bool { return false }

// StepNode is a `step` command in the graph representation.
type StepNode struct {
	NodeID    string
	NodeDepth int
	ClauseTerms []*Term
	Rule      string
	Premises  []PremiseNode
	Args      []ProofArg
	Discharge []PremiseNode

	// PreviousStep holds the (implicitly referenced) previous step in a
	// subproof, when this StepNode is that subproof's last step. Nil
	// otherwise, and nil for the first command of a subproof.
	PreviousStep ProofNode
}

func (n *StepNode) ID() string      { return n.NodeID }
func (n *StepNode) Clause() []*Term { return n.ClauseTerms }
func (n *StepNode) Depth() int      { return n.NodeDepth }
func (n *StepNode) IsAssume() bool  { return false }
func (n *StepNode) IsStep() bool    { return true }
func (n *StepNode) IsSubproof() bool { return false }

// AnchorArg is a subproof anchor argument: either a sorted variable
// declaration or a `(:= symbol term)` assignment.
type AnchorArg struct {
	Symbol string
	Sort   *Term // set for a variable declaration
	Value  *Term // set for an assignment
}

// IsAssignment reports whether this anchor argument is a `:=` assignment.
func (a AnchorArg) IsAssignment() bool { return a.Value != nil }

// SubproofNode is a subproof in the graph representation. Its id and
// clause are those of its last step (spec.md §3 invariant); its depth is
// that of the subproof command itself, one less than its last step's.
type SubproofNode struct {
	LastStep         ProofNode
	Args             []AnchorArg
	OutboundPremises []PremiseNode
}

func (n *SubproofNode) ID() string      { return n.LastStep.ID() }
func (n *SubproofNode) Clause() []*Term { return n.LastStep.Clause() }
func (n *SubproofNode) Depth() int      { return n.LastStep.Depth() - 1 }
func (n *SubproofNode) IsAssume() bool  { return false }
func (n *SubproofNode) IsStep() bool    { return false }
func (n *SubproofNode) IsSubproof() bool { return true }

// graphBuilder accumulates, per depth, the nodes built so far, so that a
// PremiseRef{Depth, Index} from the linear form can be resolved to the
// node already constructed at that position.
type graphBuilder struct {
	levels [][]ProofNode
}

// LinearToGraph converts a linear proof into its graph representation, a
// single pass that resolves every (depth, index) premise reference into
// an owned node handle (spec.md §4.E).
func LinearToGraph(commands []*ProofCommand) ([]ProofNode, error) {
	gb := &graphBuilder{}
	return gb.build(commands, 0)
}

func (gb *graphBuilder) build(commands []*ProofCommand, depth int) ([]ProofNode, error) {
	for len(gb.levels) <= depth {
		gb.levels = append(gb.levels, nil)
	}
	built := make([]ProofNode, 0, len(commands))
	for _, c := range commands {
		node, err := gb.buildOne(c, depth)
		if err != nil {
			return nil, err
		}
		built = append(built, node)
		gb.levels[depth] = append(gb.levels[depth], node)
	}
	return built, nil
}

func (gb *graphBuilder) buildOne(c *ProofCommand, depth int) (ProofNode, error) {
	switch c.Kind {
	case CmdAssume:
		return &AssumeNode{NodeID: c.ID, Term: c.Term, NodeDepth: depth}, nil
	case CmdStep:
		premises, err := gb.resolveAll(c.Premises)
		if err != nil {
			return nil, err
		}
		discharge, err := gb.resolveAll(c.Discharge)
		if err != nil {
			return nil, err
		}
		return &StepNode{
			NodeID:      c.ID,
			NodeDepth:   depth,
			ClauseTerms: c.Clause,
			Rule:        c.Rule,
			Premises:    premises,
			Args:        c.Args,
			Discharge:   discharge,
		}, nil
	case CmdSubproof:
		inner, err := gb.build(c.Commands, depth+1)
		if err != nil {
			return nil, err
		}
		if len(inner) == 0 {
			return nil, fmt.Errorf("alethe: subproof has no commands")
		}
		last := inner[len(inner)-1]
		if sn, ok := last.(*StepNode); ok && len(inner) > 1 {
			sn.PreviousStep = inner[len(inner)-2]
		}
		outbound := collectOutboundPremises(inner, depth+1)
		args := buildAnchorArgs(c.VariableArgs, c.AssignmentArgs)
		return &SubproofNode{LastStep: last, Args: args, OutboundPremises: outbound}, nil
	default:
		return nil, fmt.Errorf("alethe: unknown command kind %v", c.Kind)
	}
}

func (gb *graphBuilder) resolveAll(refs []PremiseRef) ([]PremiseNode, error) {
	if len(refs) == 0 {
		return nil, nil
	}
	out := make([]PremiseNode, len(refs))
	for i, ref := range refs {
		if ref.Depth < 0 || ref.Depth >= len(gb.levels) || ref.Index < 0 || ref.Index >= len(gb.levels[ref.Depth]) {
			return nil, fmt.Errorf("alethe: premise reference (%d,%d) out of range", ref.Depth, ref.Index)
		}
		out[i] = PremiseNode{Depth: ref.Depth, Node: gb.levels[ref.Depth][ref.Index]}
	}
	return out, nil
}

func buildAnchorArgs(varArgs []SortedVar, assignArgs []LetBinding) []AnchorArg {
	args := make([]AnchorArg, 0, len(varArgs)+len(assignArgs))
	for _, v := range varArgs {
		args = append(args, AnchorArg{Symbol: v.Symbol, Sort: v.Sort})
	}
	for _, a := range assignArgs {
		args = append(args, AnchorArg{Symbol: a.Symbol, Value: a.Value})
	}
	return args
}

// collectOutboundPremises deduplicates, by node identity (spec.md §9 Open
// Question resolution), the premises referenced from inside a subproof
// whose target lies at a strictly shallower depth than subDepth.
func collectOutboundPremises(inner []ProofNode, subDepth int) []PremiseNode {
	seen := map[ProofNode]bool{}
	var out []PremiseNode
	consider := func(p PremiseNode) {
		if p.Node.Depth() >= subDepth || seen[p.Node] {
			return
		}
		seen[p.Node] = true
		out = append(out, p)
	}
	for _, n := range inner {
		switch v := n.(type) {
		case *StepNode:
			for _, p := range v.Premises {
				consider(p)
			}
			for _, p := range v.Discharge {
				consider(p)
			}
		case *SubproofNode:
			for _, p := range v.OutboundPremises {
				consider(p)
			}
		}
	}
	return out
}

// collectSubproofInner gathers every node at exactly subDepth reachable
// from a subproof's (possibly just-rebuilt) last step, by walking
// Premises/Discharge/PreviousStep edges without descending into a nested
// subproof's own contents. It reconstructs the "inner" list
// collectOutboundPremises expects when the original per-depth command
// list built by graphBuilder.build is no longer available — the case
// after Elaborate has rebuilt a subproof's steps (spec.md §4.G). A step
// inside the subproof that nothing references transitively from the last
// step contributes no premises of its own to any other node either, so
// omitting it changes nothing about the resulting outbound set.
func collectSubproofInner(last ProofNode, subDepth int) []ProofNode {
	seen := map[ProofNode]bool{}
	var order []ProofNode
	var visit func(n ProofNode)
	visit = func(n ProofNode) {
		if n == nil || n.Depth() != subDepth || seen[n] {
			return
		}
		seen[n] = true
		if v, ok := n.(*StepNode); ok {
			for _, p := range v.Premises {
				visit(p.Node)
			}
			for _, p := range v.Discharge {
				visit(p.Node)
			}
			visit(v.PreviousStep)
		}
		order = append(order, n)
	}
	visit(last)
	for i, j := 0, len(order)-1; i < j; i, j = i+1, j-1 {
		order[i], order[j] = order[j], order[i]
	}
	return order
}

// linearizer re-issues (depth, index) ids while flattening a graph back
// into the linear form (spec.md §4.E: "the reverse pass linearises by
// post-order traversal, re-issuing ids").
type linearizer struct {
	assigned map[ProofNode]PremiseRef
	counts   map[int]int
}

// GraphToLinear converts a graph-form proof back into the linear form.
// roots must already be in a valid dependency-respecting sequence (every
// node's premises occur earlier); this holds for any slice produced by
// LinearToGraph or by the elaborator's top-level traversal output.
func GraphToLinear(roots []ProofNode) ([]*ProofCommand, error) {
	lz := &linearizer{assigned: map[ProofNode]PremiseRef{}, counts: map[int]int{}}
	return lz.linearizeLevel(roots, 0)
}

func (lz *linearizer) linearizeLevel(nodes []ProofNode, depth int) ([]*ProofCommand, error) {
	out := make([]*ProofCommand, 0, len(nodes))
	for _, n := range nodes {
		if _, done := lz.assigned[n]; done {
			continue
		}
		cmd, err := lz.visit(n, depth)
		if err != nil {
			return nil, err
		}
		out = append(out, cmd)
	}
	return out, nil
}

func (lz *linearizer) visit(n ProofNode, depth int) (*ProofCommand, error) {
	switch v := n.(type) {
	case *AssumeNode:
		cmd := &ProofCommand{Kind: CmdAssume, ID: v.NodeID, Term: v.Term}
		lz.assign(n, depth)
		return cmd, nil
	case *StepNode:
		premises, err := lz.refsFor(v.Premises)
		if err != nil {
			return nil, err
		}
		discharge, err := lz.refsFor(v.Discharge)
		if err != nil {
			return nil, err
		}
		cmd := &ProofCommand{
			Kind: CmdStep, ID: v.NodeID, Clause: v.ClauseTerms, Rule: v.Rule,
			Premises: premises, Args: v.Args, Discharge: discharge,
		}
		lz.assign(n, depth)
		return cmd, nil
	case *SubproofNode:
		chain := collectSubproofChain(v)
		inner, err := lz.linearizeLevel(chain, depth+1)
		if err != nil {
			return nil, err
		}
		varArgs, assignArgs := splitAnchorArgs(v.Args)
		cmd := &ProofCommand{
			Kind: CmdSubproof, ID: v.LastStep.ID(), Commands: inner,
			VariableArgs: varArgs, AssignmentArgs: assignArgs,
		}
		lz.assign(n, depth)
		return cmd, nil
	default:
		return nil, fmt.Errorf("alethe: unknown proof node type %T", n)
	}
}

func (lz *linearizer) assign(n ProofNode, depth int) {
	idx := lz.counts[depth]
	lz.counts[depth] = idx + 1
	lz.assigned[n] = PremiseRef{Depth: depth, Index: idx}
}

func (lz *linearizer) refsFor(premises []PremiseNode) ([]PremiseRef, error) {
	if len(premises) == 0 {
		return nil, nil
	}
	refs := make([]PremiseRef, len(premises))
	for i, p := range premises {
		ref, ok := lz.assigned[p.Node]
		if !ok {
			return nil, fmt.Errorf("alethe: premise %s linearized out of order", p.Node.ID())
		}
		refs[i] = ref
	}
	return refs, nil
}

// collectSubproofChain performs a post-order walk from a subproof's last
// step, following same-depth premises and the previous-step spine, so
// that every internal dependency appears before its consumer. Nodes
// unreachable this way are, by design, the pruned commands the graph
// representation intentionally drops (spec.md §3 "prunes unused
// commands").
func collectSubproofChain(sub *SubproofNode) []ProofNode {
	subDepth := sub.LastStep.Depth()
	visited := map[ProofNode]bool{}
	var order []ProofNode
	var visit func(n ProofNode)
	visit = func(n ProofNode) {
		if n == nil || visited[n] {
			return
		}
		visited[n] = true
		if sn, ok := n.(*StepNode); ok {
			for _, p := range sn.Premises {
				if p.Node.Depth() == subDepth {
					visit(p.Node)
				}
			}
			for _, p := range sn.Discharge {
				if p.Node.Depth() == subDepth {
					visit(p.Node)
				}
			}
			if sn.PreviousStep != nil {
				visit(sn.PreviousStep)
			}
		}
		order = append(order, n)
	}
	visit(sub.LastStep)
	return order
}

func splitAnchorArgs(args []AnchorArg) ([]SortedVar, []LetBinding) {
	var varArgs []SortedVar
	var assignArgs []LetBinding
	for _, a := range args {
		if a.IsAssignment() {
			assignArgs = append(assignArgs, LetBinding{Symbol: a.Symbol, Value: a.Value})
		} else {
			varArgs = append(varArgs, SortedVar{Symbol: a.Symbol, Sort: a.Sort})
		}
	}
	return varArgs, assignArgs
}
