package alethe

import (
	"fmt"
	"sort"
)

// literal is a term with its leading run of `not` wrappers stripped off and
// counted, mirroring original_source/carcara/src/resolution.rs's
// `Literal = (usize, Rc<Term>)` pair. Because *Term is hash-consed, literal
// is directly comparable and usable as a map key.
type literal struct {
	negations int
	atom      *Term
}

func removeAllNegations(t *Term) literal {
	n := 0
	for t.Kind() == KindOp && t.Op() == OpNot {
		n++
		t = t.Args()[0]
	}
	return literal{negations: n, atom: t}
}

func literalToTerm(pool *Pool, l literal) *Term {
	t := l.atom
	for i := 0; i < l.negations; i++ {
		t = pool.AddOp(OpNot, t)
	}
	return t
}

func literalsToClause(pool *Pool, lits []literal) []*Term {
	out := make([]*Term, len(lits))
	for i, l := range lits {
		out[i] = literalToTerm(pool, l)
	}
	return out
}

func dedupLiterals(lits []literal) []literal {
	if len(lits) == 0 {
		return nil
	}
	out := []literal{lits[0]}
	for _, l := range lits[1:] {
		if l != out[len(out)-1] {
			out = append(out, l)
		}
	}
	return out
}

type pivotPair struct {
	pivot    literal
	polarity bool
}

// applyNaiveResolution computes the clause a chain of unchecked binary
// resolutions over premises, pivoting in order on pivots, would produce —
// the conclusion before any crowding literals are removed (spec.md
// §4.H.3, grounded on uncrowding.rs's `apply_naive_resolution`).
func applyNaiveResolution(stepID string, premises [][]literal, pivots []pivotPair) ([]literal, error) {
	current := append([]literal(nil), premises[0]...)
	for i, premise := range premises[1:] {
		pivot, polarity := pivots[i].pivot, pivots[i].polarity
		negatedPivot := literal{negations: pivot.negations + 1, atom: pivot.atom}
		var pivotInCurrent, pivotInNext literal
		if polarity {
			pivotInCurrent, pivotInNext = pivot, negatedPivot
		} else {
			pivotInCurrent, pivotInNext = negatedPivot, pivot
		}

		pos := -1
		for j, l := range current {
			if l == pivotInCurrent {
				pos = j
				break
			}
		}
		if pos < 0 {
			return nil, &CheckError{Kind: CheckTermOfWrongForm, StepID: stepID, Pattern: "pivot literal present in current clause"}
		}
		current = append(current[:pos], current[pos+1:]...)

		found := false
		for _, l := range premise {
			if !found && l == pivotInNext {
				found = true
				continue
			}
			current = append(current, l)
		}
		if !found {
			return nil, &CheckError{Kind: CheckTermOfWrongForm, StepID: stepID, Pattern: "pivot literal present in next clause"}
		}
	}
	return current, nil
}

type crowdingInfo struct {
	lastInclusion int
	eliminator    int
}

// findCrowdingLiterals locates every literal that survives the naive
// resolution chain but does not belong in the step's actual conclusion,
// recording the last premise it appears in and the pivot step, if any,
// that eliminates it (spec.md §4.H.3, grounded on uncrowding.rs's
// `find_crowding_literals`).
func findCrowdingLiterals(naiveConclusion []literal, targetConclusion map[literal]bool, premises [][]literal, pivots []pivotPair) map[literal]*crowdingInfo {
	crowding := map[literal]*crowdingInfo{}
	for _, l := range naiveConclusion {
		if !targetConclusion[l] {
			if _, ok := crowding[l]; !ok {
				crowding[l] = &crowdingInfo{}
			}
		}
	}
	for i, clause := range premises {
		for _, l := range clause {
			if info, ok := crowding[l]; ok {
				info.lastInclusion = i
			}
		}
	}
	for i, pv := range pivots {
		pivotInCurrent := pv.pivot
		if !pv.polarity {
			pivotInCurrent = literal{negations: pv.pivot.negations + 1, atom: pv.pivot.atom}
		}
		if info, ok := crowding[pivotInCurrent]; ok {
			if i+1 > info.lastInclusion {
				info.eliminator = i + 1
			}
		}
	}
	return crowding
}

// findNeededContractions walks the last-inclusion/eliminator events of
// every crowding literal in index order (eliminations before inclusions
// when they land on the same index) and returns the premise-count cutoffs
// at which a contraction step must be spliced in to discharge whatever is
// still crowding at that point (spec.md §4.H.3, grounded on uncrowding.rs's
// `find_needed_contractions`).
func findNeededContractions(crowding map[literal]*crowdingInfo) []int {
	type event struct {
		lit         literal
		elimination bool
		index       int
	}
	var events []event
	for lit, info := range crowding {
		events = append(events, event{lit, false, info.lastInclusion})
		events = append(events, event{lit, true, info.eliminator})
	}
	sort.Slice(events, func(i, j int) bool {
		if events[i].index != events[j].index {
			return events[i].index < events[j].index
		}
		// Elimination sorts before LastInclusion at the same index.
		return events[i].elimination && !events[j].elimination
	})

	var contractions []int
	needToContract := map[literal]bool{}
	for _, e := range events {
		if !e.elimination {
			needToContract[e.lit] = true
			continue
		}
		if needToContract[e.lit] {
			contractions = append(contractions, e.index)
			needToContract = map[literal]bool{}
		}
	}
	return contractions
}

type idHelper struct {
	root string
	n    int
}

func newIDHelper(root string) *idHelper { return &idHelper{root: root} }

func (h *idHelper) next() string {
	h.n++
	return fmt.Sprintf("%s.t%d", h.root, h.n)
}

// RewriteUncrowd rewrites every `resolution` step with at least two
// premises into a chain of resolution/contraction step pairs (a single
// pair when no "crowding" literal needs an earlier contraction), so that no
// intermediate clause depends on a literal no later step still needs
// (spec.md §4.H.3, grounded on
// original_source/carcara/src/elaborator/uncrowding.rs's
// `uncrowd_resolution`). It only touches `resolution` steps; every other
// node passes through unchanged.
func RewriteUncrowd(pool *Pool, node ProofNode) (ProofNode, error) {
	step, ok := node.(*StepNode)
	if !ok || step.Rule != "resolution" || len(step.Premises) < 2 {
		return node, nil
	}
	return uncrowdResolution(pool, step)
}

func uncrowdResolution(pool *Pool, step *StepNode) (ProofNode, error) {
	targetConclusion := map[literal]bool{}
	for _, t := range step.ClauseTerms {
		targetConclusion[removeAllNegations(t)] = true
	}

	premiseClauses := make([][]literal, len(step.Premises))
	for i, p := range step.Premises {
		clause := p.Node.Clause()
		lits := make([]literal, len(clause))
		for j, t := range clause {
			lits[j] = removeAllNegations(t)
		}
		premiseClauses[i] = lits
	}

	if len(step.Args) < 2*(len(step.Premises)-1) {
		return nil, &CheckError{Kind: CheckWrongNumberOfPremises, StepID: step.NodeID}
	}
	pivots := make([]pivotPair, len(step.Premises)-1)
	for i := range pivots {
		pivots[i] = pivotPair{
			pivot:    removeAllNegations(step.Args[2*i].Term),
			polarity: step.Args[2*i+1].Term.IsBoolTrue(),
		}
	}

	naiveConclusion, err := applyNaiveResolution(step.NodeID, premiseClauses, pivots)
	if err != nil {
		return nil, err
	}
	crowding := findCrowdingLiterals(naiveConclusion, targetConclusion, premiseClauses, pivots)
	contractions := findNeededContractions(crowding)
	if len(contractions) == 0 || contractions[len(contractions)-1] != len(step.Premises) {
		contractions = append(contractions, len(step.Premises))
	}

	ids := newIDHelper(step.NodeID)
	previousCut := 0
	var previousNode ProofNode
	var previousClause []literal
	pivotPos := 0

	for _, cut := range contractions {
		var premiseNodes []ProofNode
		var clauses [][]literal
		if previousNode != nil {
			premiseNodes = append(premiseNodes, previousNode)
			clauses = append(clauses, previousClause)
		}
		for i := previousCut; i < cut; i++ {
			premiseNodes = append(premiseNodes, step.Premises[i].Node)
			clauses = append(clauses, premiseClauses[i])
		}
		segmentPivots := pivots[pivotPos : pivotPos+len(premiseNodes)-1]
		pivotPos += len(premiseNodes) - 1

		node, clause, err := addPartialResolutionStep(pool, ids, step.NodeID, step.NodeDepth, premiseNodes, clauses, segmentPivots)
		if err != nil {
			return nil, err
		}
		previousCut = cut
		previousNode = node
		previousClause = clause
	}

	return previousNode, nil
}

func addPartialResolutionStep(pool *Pool, ids *idHelper, stepID string, depth int, premises []ProofNode, premiseClauses [][]literal, pivots []pivotPair) (ProofNode, []literal, error) {
	conclusion, err := applyNaiveResolution(stepID, premiseClauses, pivots)
	if err != nil {
		return nil, nil, err
	}
	contractedConclusion := dedupLiterals(conclusion)

	args := make([]ProofArg, 0, 2*len(pivots))
	for _, pv := range pivots {
		args = append(args, ProofArg{Term: literalToTerm(pool, pv.pivot)}, ProofArg{Term: pool.BoolConstant(pv.polarity)})
	}

	clause := literalsToClause(pool, conclusion)
	contractedClause := literalsToClause(pool, contractedConclusion)

	premiseNodes := make([]PremiseNode, len(premises))
	for i, n := range premises {
		premiseNodes[i] = PremiseNode{Depth: n.Depth(), Node: n}
	}

	resolutionStep := &StepNode{
		NodeID: ids.next(), NodeDepth: depth, ClauseTerms: clause, Rule: "resolution",
		Premises: premiseNodes, Args: args,
	}
	contractionStep := &StepNode{
		NodeID: ids.next(), NodeDepth: depth, ClauseTerms: contractedClause, Rule: "contraction",
		Premises: []PremiseNode{{Depth: depth, Node: resolutionStep}},
	}

	return contractionStep, contractedConclusion, nil
}
