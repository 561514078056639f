package alethe

import (
	"fmt"
	"strings"
)

// ProofIter walks a linear proof in on-disk order, descending into
// subproofs as it reaches them, and lets a caller dereference a
// PremiseRef encountered later in the stream against a command already
// visited (spec.md §4.E "checking-time dereferencing"). Index
// bookkeeping is per-depth and accumulates across sibling subproofs at
// the same depth, matching the indexing scheme LinearToGraph uses.
type ProofIter struct {
	stack   []iterFrame
	visited [][]*ProofCommand
}

type iterFrame struct {
	commands []*ProofCommand
	pos      int
}

// NewProofIter creates a ProofIter over the top-level commands of a
// proof.
func NewProofIter(commands []*ProofCommand) *ProofIter {
	return &ProofIter{stack: []iterFrame{{commands: commands}}}
}

// Next returns the next command in pre-order (a subproof is yielded
// before its own inner commands), its nesting depth, its index at that
// depth (matching the PremiseRef the parser assigned it), and true, or
// (nil, 0, 0, false) once the whole proof has been visited.
func (it *ProofIter) Next() (*ProofCommand, int, int, bool) {
	for len(it.stack) > 0 {
		top := &it.stack[len(it.stack)-1]
		if top.pos >= len(top.commands) {
			it.stack = it.stack[:len(it.stack)-1]
			continue
		}
		cmd := top.commands[top.pos]
		top.pos++
		depth := len(it.stack) - 1
		for len(it.visited) <= depth {
			it.visited = append(it.visited, nil)
		}
		it.visited[depth] = append(it.visited[depth], cmd)
		index := len(it.visited[depth]) - 1
		if cmd.Kind == CmdSubproof {
			it.stack = append(it.stack, iterFrame{commands: cmd.Commands})
		}
		return cmd, depth, index, true
	}
	return nil, 0, 0, false
}

// Deref resolves ref against commands already returned by Next.
func (it *ProofIter) Deref(ref PremiseRef) (*ProofCommand, error) {
	if ref.Depth < 0 || ref.Depth >= len(it.visited) ||
		ref.Index < 0 || ref.Index >= len(it.visited[ref.Depth]) {
		return nil, fmt.Errorf("alethe: premise reference (%d,%d) out of range", ref.Depth, ref.Index)
	}
	return it.visited[ref.Depth][ref.Index], nil
}

// StepElaborator accumulates new commands produced while elaborating a
// single original step, assigning each one a fresh "<rootID>.tN[.tM...]"
// id and returning the PremiseRef other newly-added commands can use to
// reference it immediately (spec.md §4.F, grounded on
// original_source/carcara/src/elaborator/step.rs).
//
// The Rust original wraps an outer "Elaborator" accumulator that is not
// present in the retrieved source (only step.rs itself was recovered);
// this port does not invent one. Instead a StepElaborator is scoped to a
// single insertion point, told directly at construction the depth and
// existing-command count of the surrounding proof position its new
// commands are spliced after. See DESIGN.md.
type StepElaborator struct {
	rootID     string
	baseDepth  int
	baseOffset int
	stack      [][]*ProofCommand
}

// NewStepElaborator creates a StepElaborator for replacing or extending
// the original command at (baseDepth, baseOffset) — baseOffset is the
// number of sibling commands already present at that depth before this
// insertion.
func NewStepElaborator(rootID string, baseDepth, baseOffset int) *StepElaborator {
	return &StepElaborator{rootID: rootID, baseDepth: baseDepth, baseOffset: baseOffset, stack: [][]*ProofCommand{nil}}
}

func (se *StepElaborator) depth() int { return len(se.stack) - 1 }

func (se *StepElaborator) nextID() string {
	var b strings.Builder
	b.WriteString(se.rootID)
	for _, f := range se.stack {
		fmt.Fprintf(&b, ".t%d", len(f)+1)
	}
	return b.String()
}

func (se *StepElaborator) insertionIndex() int {
	if se.depth() == 0 {
		return se.baseOffset + len(se.stack[0])
	}
	return len(se.stack[len(se.stack)-1])
}

func (se *StepElaborator) addCommand(build func(id string) *ProofCommand) PremiseRef {
	index := se.insertionIndex()
	depth := se.baseDepth + se.depth()
	cmd := build(se.nextID())
	top := len(se.stack) - 1
	se.stack[top] = append(se.stack[top], cmd)
	return PremiseRef{Depth: depth, Index: index}
}

// AddStep appends a new `step` command and returns a reference to it.
func (se *StepElaborator) AddStep(clause []*Term, rule string, premises, discharge []PremiseRef, args []ProofArg) PremiseRef {
	return se.addCommand(func(id string) *ProofCommand {
		return &ProofCommand{Kind: CmdStep, ID: id, Clause: clause, Rule: rule, Premises: premises, Discharge: discharge, Args: args}
	})
}

// AddAssume appends a new `assume` command and returns a reference to it.
func (se *StepElaborator) AddAssume(term *Term) PremiseRef {
	return se.addCommand(func(id string) *ProofCommand {
		return &ProofCommand{Kind: CmdAssume, ID: id, Term: term}
	})
}

// MapIndex translates a PremiseRef that was valid in the surrounding
// proof before this elaboration began into one valid after these new
// commands are spliced in: a reference at the insertion depth landing at
// or past the insertion point shifts by the number of new top-level
// commands added so far.
func (se *StepElaborator) MapIndex(ref PremiseRef) PremiseRef {
	if ref.Depth == se.baseDepth && ref.Index >= se.baseOffset {
		return PremiseRef{Depth: ref.Depth, Index: ref.Index + len(se.stack[0])}
	}
	return ref
}

// OpenSubproof begins a new nested frame for commands that belong inside
// a subproof this StepElaborator is constructing.
func (se *StepElaborator) OpenSubproof() { se.stack = append(se.stack, nil) }

// CloseSubproof closes the innermost open frame, wraps its commands into
// a CmdSubproof command (renumbering the closing step's id to match its
// new position), and appends that subproof command to the now-current
// frame.
func (se *StepElaborator) CloseSubproof(varArgs []SortedVar, assignArgs []LetBinding) (PremiseRef, error) {
	n := len(se.stack)
	if n < 2 {
		return PremiseRef{}, fmt.Errorf("alethe: CloseSubproof with no open subproof")
	}
	commands := se.stack[n-1]
	se.stack = se.stack[:n-1]
	if len(commands) == 0 {
		return PremiseRef{}, fmt.Errorf("alethe: subproof has no commands")
	}
	commands[len(commands)-1].ID = se.nextID()
	return se.addCommand(func(string) *ProofCommand {
		return &ProofCommand{
			Kind: CmdSubproof, ID: commands[len(commands)-1].ID, Commands: commands,
			VariableArgs: varArgs, AssignmentArgs: assignArgs,
		}
	}), nil
}

// End returns the finished top-level command sequence. It must only be
// called once every opened subproof has been closed.
func (se *StepElaborator) End() []*ProofCommand { return se.stack[0] }
