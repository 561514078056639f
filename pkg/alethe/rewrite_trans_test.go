package alethe

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func buildTransStep(t *testing.T, pool *Pool, premiseEqs [][2]string, varSort *Term, concLHS, concRHS string) *StepNode {
	t.Helper()
	vars := map[string]*Term{}
	v := func(name string) *Term {
		if tm, ok := vars[name]; ok {
			return tm
		}
		tm := pool.AddVar(name, varSort)
		vars[name] = tm
		return tm
	}
	premises := make([]PremiseNode, len(premiseEqs))
	for i, eq := range premiseEqs {
		eqTerm := pool.AddOp(OpEquals, v(eq[0]), v(eq[1]))
		premises[i] = PremiseNode{Depth: 0, Node: &AssumeNode{NodeID: fmt.Sprintf("h%d", i+1), Term: eqTerm}}
	}
	concTerm := pool.AddOp(OpEquals, v(concLHS), v(concRHS))
	return &StepNode{NodeID: "t1", ClauseTerms: []*Term{concTerm}, Rule: "trans", Premises: premises}
}

func TestRewriteTransInOrderChainPassesThrough(t *testing.T) {
	pool := NewPool()
	sort := pool.AddSort("U")
	step := buildTransStep(t, pool, [][2]string{{"a", "b"}, {"b", "c"}}, sort, "a", "c")

	out, err := RewriteTrans(pool, step)
	require.NoError(t, err)
	result, ok := out.(*StepNode)
	require.True(t, ok)
	require.Len(t, result.Premises, 2)
	require.Equal(t, "h1", result.Premises[0].Node.ID())
	require.Equal(t, "h2", result.Premises[1].Node.ID())
}

func TestRewriteTransReordersPremises(t *testing.T) {
	pool := NewPool()
	sort := pool.AddSort("U")
	// h1: b = c, h2: a = b -- out of order and h2 needs no flip, h1 needs no flip either
	// once reordered: a=b (h2) then b=c (h1).
	step := buildTransStep(t, pool, [][2]string{{"b", "c"}, {"a", "b"}}, sort, "a", "c")

	out, err := RewriteTrans(pool, step)
	require.NoError(t, err)
	result, ok := out.(*StepNode)
	require.True(t, ok)
	require.Len(t, result.Premises, 2)
	require.Equal(t, "h2", result.Premises[0].Node.ID())
	require.Equal(t, "h1", result.Premises[1].Node.ID())
}

func TestRewriteTransInsertsSymmStep(t *testing.T) {
	pool := NewPool()
	sort := pool.AddSort("U")
	// h1: b = a (reversed), conclusion a = b
	step := buildTransStep(t, pool, [][2]string{{"b", "a"}}, sort, "a", "b")

	out, err := RewriteTrans(pool, step)
	require.NoError(t, err)
	result, ok := out.(*StepNode)
	require.True(t, ok)
	require.Len(t, result.Premises, 1)
	require.Equal(t, "h1.symm", result.Premises[0].Node.ID())
	require.Equal(t, "symm", result.Premises[0].Node.(*StepNode).Rule)
}

func TestRewriteTransBrokenChainIsAnError(t *testing.T) {
	pool := NewPool()
	sort := pool.AddSort("U")
	step := buildTransStep(t, pool, [][2]string{{"x", "y"}}, sort, "a", "c")

	_, err := RewriteTrans(pool, step)
	require.Error(t, err)
	var checkErr *CheckError
	require.ErrorAs(t, err, &checkErr)
	require.Equal(t, CheckBrokenTransitivityChain, checkErr.Kind)
}

func TestRewriteTransIgnoresOtherRules(t *testing.T) {
	pool := NewPool()
	a := pool.AddVar("a", pool.BoolSort())
	node := &AssumeNode{NodeID: "h1", Term: a}
	out, err := RewriteTrans(pool, node)
	require.NoError(t, err)
	require.Same(t, node, out)
}
