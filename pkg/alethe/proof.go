package alethe

// CommandKind tags the shape of a ProofCommand (spec.md §3).
type CommandKind int

const (
	CmdAssume CommandKind = iota
	CmdStep
	CmdSubproof
)

func (k CommandKind) String() string {
	switch k {
	case CmdAssume:
		return "assume"
	case CmdStep:
		return "step"
	case CmdSubproof:
		return "subproof"
	default:
		return "<unknown-command>"
	}
}

// PremiseRef is a `(depth, index)` reference to a prior command: depth is
// the subproof nesting level (0 = top), index is position within that
// level (spec.md §3).
type PremiseRef struct {
	Depth int
	Index int
}

// ProofArg is a step `:args` entry: either a bare term (Name == "") or a
// `(:= name term)` assignment.
type ProofArg struct {
	Name string
	Term *Term
}

// ProofCommand is one entry of the linear (on-disk order) proof
// representation (spec.md §3). It mirrors the tagged-union encoding used
// for Term: a single struct with a Kind discriminant rather than an
// interface hierarchy, since the parser always knows exactly which shape
// it is building and nothing here needs polymorphic dispatch.
type ProofCommand struct {
	Kind CommandKind
	ID   string

	// CmdAssume.
	Term *Term

	// CmdStep.
	Clause    []*Term
	Rule      string
	Premises  []PremiseRef
	Args      []ProofArg
	Discharge []PremiseRef

	// CmdSubproof. The id of a subproof, as referenced from the enclosing
	// scope, is the id of its last command (spec.md §3 invariant).
	Commands       []*ProofCommand
	AssignmentArgs []LetBinding
	VariableArgs   []SortedVar
}

// LastID returns the effective id of a command as seen from its own
// nesting level: for a subproof, that is the id of its final command.
func (c *ProofCommand) LastID() string {
	if c.Kind == CmdSubproof && len(c.Commands) > 0 {
		return c.Commands[len(c.Commands)-1].LastID()
	}
	return c.ID
}

// Proof is a complete linear proof: a top-level sequence of commands plus
// the pool that owns every term they reference.
type Proof struct {
	Pool     *Pool
	Commands []*ProofCommand
}
