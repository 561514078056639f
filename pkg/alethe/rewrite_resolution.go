package alethe

import "fmt"

// BinarifyResolutions rewrites every n-ary `resolution` step (n > 2
// premises) into a left-associated chain of binary `resolution` steps,
// operating on the linear proof form (spec.md §4.H.2, grounded on
// original_source/carcara/src/translation.rs's `binarify_resolutions` /
// `binarify_single_resolution`).
//
// Unlike `trans` (a purely local, graph-based rewrite, see RewriteTrans),
// binarization changes how many commands occupy a given depth, so premise
// references throughout the rest of the proof must be renumbered as the
// pass goes — the reason this transform is written against the linear
// ProofCommand/PremiseRef form and StepElaborator-style id generation
// instead of against ProofNode (spec.md §4.F).
func BinarifyResolutions(pool *Pool, proof *Proof) (*Proof, error) {
	bz := &binarizer{
		pool:       pool,
		clauses:    buildClauseTable(proof.Commands),
		remap:      map[PremiseRef]PremiseRef{},
		counts:     map[int]int{},
		origCounts: map[int]int{},
	}
	out, err := bz.processCommands(proof.Commands, 0)
	if err != nil {
		return nil, err
	}
	return &Proof{Pool: proof.Pool, Commands: out}, nil
}

// buildClauseTable records, under the PremiseRef it was originally parsed
// at, every command's clause (or singleton term, for an assume). Binarizing
// a resolution step never changes any other step's conclusion, so these
// original clauses remain valid premise lookups throughout the rewrite.
func buildClauseTable(commands []*ProofCommand) map[PremiseRef][]*Term {
	table := map[PremiseRef][]*Term{}
	it := NewProofIter(commands)
	for {
		cmd, depth, index, ok := it.Next()
		if !ok {
			break
		}
		ref := PremiseRef{Depth: depth, Index: index}
		switch cmd.Kind {
		case CmdAssume:
			table[ref] = []*Term{cmd.Term}
		case CmdStep:
			table[ref] = cmd.Clause
		case CmdSubproof:
			table[ref] = cmd.Commands[len(cmd.Commands)-1].Clause
		}
	}
	return table
}

type binarizer struct {
	pool       *Pool
	clauses    map[PremiseRef][]*Term
	remap      map[PremiseRef]PremiseRef
	counts     map[int]int
	origCounts map[int]int
}

func (bz *binarizer) nextIndex(depth int) int {
	idx := bz.counts[depth]
	bz.counts[depth] = idx + 1
	return idx
}

func (bz *binarizer) nextOrigIndex(depth int) int {
	idx := bz.origCounts[depth]
	bz.origCounts[depth] = idx + 1
	return idx
}

func (bz *binarizer) remapRef(ref PremiseRef) PremiseRef {
	if nr, ok := bz.remap[ref]; ok {
		return nr
	}
	return ref
}

func (bz *binarizer) remapRefs(refs []PremiseRef) []PremiseRef {
	if len(refs) == 0 {
		return nil
	}
	out := make([]PremiseRef, len(refs))
	for i, r := range refs {
		out[i] = bz.remapRef(r)
	}
	return out
}

func (bz *binarizer) processCommands(commands []*ProofCommand, depth int) ([]*ProofCommand, error) {
	var out []*ProofCommand
	for _, c := range commands {
		oldRef := PremiseRef{Depth: depth, Index: bz.nextOrigIndex(depth)}
		switch c.Kind {
		case CmdAssume:
			idx := bz.nextIndex(depth)
			bz.remap[oldRef] = PremiseRef{Depth: depth, Index: idx}
			out = append(out, c)

		case CmdSubproof:
			inner, err := bz.processCommands(c.Commands, depth+1)
			if err != nil {
				return nil, err
			}
			newCmd := &ProofCommand{
				Kind: CmdSubproof, ID: inner[len(inner)-1].LastID(), Commands: inner,
				VariableArgs: c.VariableArgs, AssignmentArgs: c.AssignmentArgs,
			}
			idx := bz.nextIndex(depth)
			bz.remap[oldRef] = PremiseRef{Depth: depth, Index: idx}
			out = append(out, newCmd)

		case CmdStep:
			if c.Rule == "resolution" && len(c.Premises) > 2 {
				expanded, lastRef, err := bz.binarifyStep(c, depth)
				if err != nil {
					return nil, err
				}
				out = append(out, expanded...)
				bz.remap[oldRef] = lastRef
				continue
			}
			newCmd := &ProofCommand{
				Kind: CmdStep, ID: c.ID, Clause: c.Clause, Rule: c.Rule,
				Premises: bz.remapRefs(c.Premises), Args: c.Args, Discharge: bz.remapRefs(c.Discharge),
			}
			idx := bz.nextIndex(depth)
			bz.remap[oldRef] = PremiseRef{Depth: depth, Index: idx}
			out = append(out, newCmd)
		}
	}
	return out, nil
}

// binarifyStep expands a single n-ary resolution step into n-1 binary
// resolution steps, each resolving the running clause against the next
// premise on the pivot named by the corresponding pair of `:args`. The last
// new step keeps the original step's id; every earlier one is named
// "<id>.tK" (spec.md §4.H.2).
func (bz *binarizer) binarifyStep(c *ProofCommand, depth int) ([]*ProofCommand, PremiseRef, error) {
	rootID := c.ID
	premises := c.Premises
	if len(c.Args) < 2*(len(premises)-1) {
		return nil, PremiseRef{}, &CheckError{Kind: CheckWrongNumberOfPremises, StepID: rootID}
	}

	premiseClauses := make([][]*Term, len(premises))
	for i, p := range premises {
		clause, ok := bz.clauses[p]
		if !ok {
			return nil, PremiseRef{}, fmt.Errorf("alethe: step %s: unresolved premise (%d,%d)", rootID, p.Depth, p.Index)
		}
		premiseClauses[i] = clause
	}

	currentClause := append([]*Term(nil), premiseClauses[0]...)
	previousPremise := bz.remapRef(premises[0])
	var out []*ProofCommand

	for i := 1; i < len(premises); i++ {
		pivot := c.Args[2*(i-1)].Term
		isPivotInLeft := c.Args[2*(i-1)+1].Term.IsBoolTrue()
		negatedPivot := bz.pool.AddOp(OpNot, pivot)

		var pivotInCurrent, pivotInNext *Term
		if isPivotInLeft {
			pivotInCurrent, pivotInNext = pivot, negatedPivot
		} else {
			pivotInCurrent, pivotInNext = negatedPivot, pivot
		}

		pos := -1
		for j, t := range currentClause {
			if t == pivotInCurrent {
				pos = j
				break
			}
		}
		if pos < 0 {
			return nil, PremiseRef{}, &CheckError{Kind: CheckTermOfWrongForm, StepID: rootID, Pattern: "pivot literal present in current clause", Actual: pivotInCurrent}
		}
		currentClause = append(append([]*Term(nil), currentClause[:pos]...), currentClause[pos+1:]...)

		found := false
		nextClause := premiseClauses[i]
		for _, t := range nextClause {
			if !found && t == pivotInNext {
				found = true
				continue
			}
			currentClause = append(currentClause, t)
		}
		if !found {
			return nil, PremiseRef{}, &CheckError{Kind: CheckTermOfWrongForm, StepID: rootID, Pattern: "pivot literal present in next clause", Actual: pivotInNext}
		}

		newPremiseRef := bz.remapRef(premises[i])
		stepArgs := []ProofArg{{Term: pivot}, {Term: bz.pool.BoolConstant(isPivotInLeft)}}
		isLast := i+1 == len(premises)
		id := fmt.Sprintf("%s.t%d", rootID, i)
		if isLast {
			id = rootID
		}

		idx := bz.nextIndex(depth)
		clauseCopy := append([]*Term(nil), currentClause...)
		newCmd := &ProofCommand{
			Kind: CmdStep, ID: id, Clause: clauseCopy, Rule: "resolution",
			Premises: []PremiseRef{previousPremise, newPremiseRef}, Args: stepArgs,
		}
		out = append(out, newCmd)
		previousPremise = PremiseRef{Depth: depth, Index: idx}
	}

	return out, previousPremise, nil
}
