package alethe

// RewriteTrans normalizes a `trans` step's premise order so that its
// conclusion's equality chain reads left to right without gaps, inserting a
// `symm` step ahead of any premise that would otherwise need to be read
// backwards (spec.md §4.H.1, grounded on
// original_source/carcara/src/elaborator/transitivity.rs's `trans`). Every
// other node passes through unchanged, matching the Rewrite contract.
func RewriteTrans(pool *Pool, node ProofNode) (ProofNode, error) {
	step, ok := node.(*StepNode)
	if !ok || step.Rule != "trans" {
		return node, nil
	}
	return rewriteTransStep(pool, step)
}

func matchEquality(t *Term) (*Term, *Term, bool) {
	if t.Kind() != KindOp || t.Op() != OpEquals || len(t.Args()) != 2 {
		return nil, nil, false
	}
	return t.Args()[0], t.Args()[1], true
}

func rewriteTransStep(pool *Pool, step *StepNode) (ProofNode, error) {
	if len(step.ClauseTerms) != 1 {
		return nil, &CheckError{Kind: CheckTermOfWrongForm, StepID: step.NodeID, Pattern: "(cl (= t u))"}
	}
	t, u, ok := matchEquality(step.ClauseTerms[0])
	if !ok {
		return nil, &CheckError{Kind: CheckTermOfWrongForm, StepID: step.NodeID, Pattern: "(= t u)", Actual: step.ClauseTerms[0]}
	}

	premiseEqualities := make([][2]*Term, len(step.Premises))
	for i, p := range step.Premises {
		clause := p.Node.Clause()
		if len(clause) != 1 {
			return nil, &CheckError{Kind: CheckTermOfWrongForm, StepID: step.NodeID, Pattern: "(= t u)"}
		}
		a, b, ok := matchEquality(clause[0])
		if !ok {
			return nil, &CheckError{Kind: CheckTermOfWrongForm, StepID: step.NodeID, Pattern: "(= t u)", Actual: clause[0]}
		}
		premiseEqualities[i] = [2]*Term{a, b}
	}

	newPremises := append([]PremiseNode(nil), step.Premises...)
	numNeeded, shouldFlip, err := findAndTraceChain(t, u, premiseEqualities, newPremises)
	if err != nil {
		return nil, err
	}
	newPremises = newPremises[:numNeeded]
	for _, i := range shouldFlip {
		newPremises[i] = PremiseNode{Depth: newPremises[i].Depth, Node: addSymmStep(pool, newPremises[i].Node)}
	}

	return &StepNode{
		NodeID: step.NodeID, NodeDepth: step.NodeDepth, ClauseTerms: step.ClauseTerms, Rule: step.Rule,
		Premises: newPremises, Args: step.Args, Discharge: step.Discharge, PreviousStep: step.PreviousStep,
	}, nil
}

// findAndTraceChain walks the equality chain from t towards u, reordering
// premiseEqualities and premises (in lockstep) so that the first numNeeded
// entries trace t = ... = u in order. It returns the indices (into the
// reordered slice) of premises whose equality was matched in reverse and so
// must be flipped with a `symm` step.
func findAndTraceChain(t, u *Term, premiseEqualities [][2]*Term, premises []PremiseNode) (int, []int, error) {
	conclusion := [2]*Term{t, u}
	var shouldFlip []int
	i := 0
	for {
		if conclusion[0] == conclusion[1] {
			return i, shouldFlip, nil
		}
		foundIndex := -1
		var nextLink *Term
		flip := false
		for j := i; j < len(premiseEqualities); j++ {
			a, b := premiseEqualities[j][0], premiseEqualities[j][1]
			if a == conclusion[0] {
				foundIndex, nextLink, flip = j, b, false
				break
			}
			if b == conclusion[0] {
				foundIndex, nextLink, flip = j, a, true
				break
			}
		}
		if foundIndex < 0 {
			return 0, nil, &CheckError{Kind: CheckBrokenTransitivityChain, A: conclusion[0], B: conclusion[1]}
		}
		if flip {
			shouldFlip = append(shouldFlip, i)
		}
		if foundIndex != i {
			premiseEqualities[i], premiseEqualities[foundIndex] = premiseEqualities[foundIndex], premiseEqualities[i]
			premises[i], premises[foundIndex] = premises[foundIndex], premises[i]
		}
		conclusion = [2]*Term{nextLink, conclusion[1]}
		i++
	}
}

// addSymmStep wraps node's `(= a b)` conclusion in a new `symm` step
// concluding `(= b a)`, id'd by suffixing ".symm" onto node's own id.
func addSymmStep(pool *Pool, node ProofNode) ProofNode {
	clause := node.Clause()
	a, b, _ := matchEquality(clause[0])
	newClause := []*Term{pool.AddOp(OpEquals, b, a)}
	return &StepNode{
		NodeID: node.ID() + ".symm", NodeDepth: node.Depth(), ClauseTerms: newClause, Rule: "symm",
		Premises: []PremiseNode{{Depth: node.Depth(), Node: node}},
	}
}
