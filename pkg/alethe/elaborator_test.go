package alethe

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestElaborateIdentityPreservesShape(t *testing.T) {
	_, proof := parseProofFixture(t, `
		(declare-sort U 0)
		(declare-fun a () U)
		(declare-fun b () U)
		(declare-fun c () U)
	`, `
		(assume h1 (= a b))
		(assume h2 (= b c))
		(step t1 (cl (= a c)) :rule trans :premises (h1 h2))
	`)

	roots, err := LinearToGraph(proof.Commands)
	require.NoError(t, err)

	elaborated, err := Elaborate(nil, roots[len(roots)-1], Identity)
	require.NoError(t, err)

	step, ok := elaborated.(*StepNode)
	require.True(t, ok)
	require.Equal(t, "t1", step.ID())
	require.Equal(t, "trans", step.Rule)
	require.Len(t, step.Premises, 2)
}

func TestComposeRewritesThreadsOutputToInput(t *testing.T) {
	pool := NewPool()
	a := pool.AddVar("a", pool.BoolSort())
	assume := &AssumeNode{NodeID: "h1", Term: a, NodeDepth: 0}

	replaced := &AssumeNode{NodeID: "h1'", Term: a, NodeDepth: 0}

	var order []string
	var secondGot ProofNode
	first := func(_ *Pool, n ProofNode) (ProofNode, error) {
		order = append(order, "first")
		return replaced, nil
	}
	second := func(_ *Pool, n ProofNode) (ProofNode, error) {
		order = append(order, "second")
		secondGot = n
		return n, nil
	}

	composed := ComposeRewrites(first, second)
	out, err := composed(pool, assume)
	require.NoError(t, err)
	require.Equal(t, []string{"first", "second"}, order)
	require.Same(t, replaced, secondGot)
	require.Same(t, replaced, out)
}

func TestElaborateMemoizesSharedPremise(t *testing.T) {
	_, proof := parseProofFixture(t, `
		(declare-sort U 0)
		(declare-fun a () U)
		(declare-fun b () U)
	`, `
		(assume h1 (= a b))
		(step t1 (cl (= b a)) :rule symm :premises (h1))
		(step t2 (cl (= a a)) :rule trans :premises (h1 t1))
	`)
	roots, err := LinearToGraph(proof.Commands)
	require.NoError(t, err)

	var visited int
	countingRewrite := func(_ *Pool, n ProofNode) (ProofNode, error) {
		if n.IsAssume() {
			visited++
		}
		return n, nil
	}

	// t2 reaches h1 twice: directly and through t1. The memo must rewrite
	// the shared assume only once.
	_, err = Elaborate(nil, roots[2], countingRewrite)
	require.NoError(t, err)
	require.Equal(t, 1, visited)
}
