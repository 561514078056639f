package alethe

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func parseProofFixture(t *testing.T, problemSrc, proofSrc string) (*Pool, *Proof) {
	t.Helper()
	pool := NewPool()

	problemLex, err := NewLexer(strings.NewReader(problemSrc))
	require.NoError(t, err)
	problemParser, err := NewParser(pool, problemLex)
	require.NoError(t, err)
	require.NoError(t, problemParser.ParseProblem())

	proofLex, err := NewLexer(strings.NewReader(proofSrc))
	require.NoError(t, err)
	proofParser, err := NewParser(pool, proofLex)
	require.NoError(t, err)
	proof, err := proofParser.ParseProof()
	require.NoError(t, err)
	return pool, proof
}

func TestLinearToGraphRoundTrip(t *testing.T) {
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
	require.Len(t, roots, 3)

	step, ok := roots[2].(*StepNode)
	require.True(t, ok)
	require.Equal(t, "t1", step.ID())
	require.Len(t, step.Premises, 2)
	require.Equal(t, "h1", step.Premises[0].Node.ID())
	require.Equal(t, "h2", step.Premises[1].Node.ID())

	relinearized, err := GraphToLinear(roots)
	require.NoError(t, err)
	require.Len(t, relinearized, 3)
	require.Equal(t, CmdStep, relinearized[2].Kind)
	require.Equal(t, "trans", relinearized[2].Rule)

	wantPremises := []PremiseRef{{Depth: 0, Index: 0}, {Depth: 0, Index: 1}}
	if diff := cmp.Diff(wantPremises, relinearized[2].Premises); diff != "" {
		t.Errorf("relinearized premises mismatch (-want +got):\n%s", diff)
	}
}

func TestSubproofOutboundPremisesRecomputedAfterElaborate(t *testing.T) {
	pool, proof := parseProofFixture(t, `
		(declare-sort U 0)
		(declare-fun a () U)
		(declare-fun b () U)
		(declare-fun c () U)
	`, `
		(assume h1 (= b a))
		(anchor :step t1)
		(assume h2 (= b c))
		(step t1 (cl (= a c)) :rule trans :premises (h1 h2))
	`)

	roots, err := LinearToGraph(proof.Commands)
	require.NoError(t, err)
	require.Len(t, roots, 2)

	sub, ok := roots[1].(*SubproofNode)
	require.True(t, ok)
	require.Equal(t, "t1", sub.ID())
	require.Len(t, sub.OutboundPremises, 1)
	require.Equal(t, "h1", sub.OutboundPremises[0].Node.ID())

	elaborated, err := Elaborate(pool, sub, RewriteTrans)
	require.NoError(t, err)

	rebuiltSub, ok := elaborated.(*SubproofNode)
	require.True(t, ok)

	// h1 reads (= b a) but the step's conclusion needs a-then-c, so
	// RewriteTrans inserts a symm step ahead of h1; the outbound set must
	// follow that substitution rather than still naming h1 directly.
	require.Len(t, rebuiltSub.OutboundPremises, 1)
	require.Equal(t, 0, rebuiltSub.OutboundPremises[0].Depth)
	require.Equal(t, "h1.symm", rebuiltSub.OutboundPremises[0].Node.ID())
	require.NotSame(t, sub.OutboundPremises[0].Node, rebuiltSub.OutboundPremises[0].Node)
}

func TestGraphToLinearPrunesUnreachableRoots(t *testing.T) {
	_, proof := parseProofFixture(t, `
		(declare-sort U 0)
		(declare-fun a () U)
		(declare-fun b () U)
	`, `
		(assume h1 (= a b))
		(assume h2 (= b a))
	`)
	roots, err := LinearToGraph(proof.Commands)
	require.NoError(t, err)
	require.Len(t, roots, 2)

	// Relinearizing from only the first root must not resurrect the second.
	relinearized, err := GraphToLinear(roots[:1])
	require.NoError(t, err)
	require.Len(t, relinearized, 1)
	require.Equal(t, "h1", relinearized[0].ID)
}
