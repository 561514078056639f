package alethe

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestProofIterYieldsDepthAndIndex(t *testing.T) {
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

	it := NewProofIter(proof.Commands)

	cmd, depth, index, ok := it.Next()
	require.True(t, ok)
	require.Equal(t, "h1", cmd.ID)
	require.Equal(t, 0, depth)
	require.Equal(t, 0, index)

	cmd, depth, index, ok = it.Next()
	require.True(t, ok)
	require.Equal(t, "h2", cmd.ID)
	require.Equal(t, 0, depth)
	require.Equal(t, 1, index)

	cmd, depth, index, ok = it.Next()
	require.True(t, ok)
	require.Equal(t, "t1", cmd.ID)
	require.Equal(t, 0, depth)
	require.Equal(t, 2, index)

	_, _, _, ok = it.Next()
	require.False(t, ok)
}

func TestProofIterDeref(t *testing.T) {
	_, proof := parseProofFixture(t, `
		(declare-sort U 0)
		(declare-fun a () U)
		(declare-fun b () U)
	`, `
		(assume h1 (= a b))
		(step t1 (cl (= b a)) :rule symm :premises (h1))
	`)

	it := NewProofIter(proof.Commands)
	_, _, _, _ = it.Next()
	_, _, _, _ = it.Next()

	cmd, err := it.Deref(PremiseRef{Depth: 0, Index: 0})
	require.NoError(t, err)
	require.Equal(t, "h1", cmd.ID)

	_, err = it.Deref(PremiseRef{Depth: 0, Index: 5})
	require.Error(t, err)
}

func TestStepElaboratorBuildsChainedSteps(t *testing.T) {
	pool := NewPool()
	a := pool.AddVar("a", pool.BoolSort())

	se := NewStepElaborator("t1", 0, 1)
	assumeRef := se.AddAssume(a)
	require.Equal(t, PremiseRef{Depth: 0, Index: 1}, assumeRef)

	stepRef := se.AddStep([]*Term{a}, "identity", []PremiseRef{assumeRef}, nil, nil)
	require.Equal(t, PremiseRef{Depth: 0, Index: 2}, stepRef)

	commands := se.End()
	require.Len(t, commands, 2)
	require.Equal(t, "t1.t1", commands[0].ID)
	require.Equal(t, "t1.t2", commands[1].ID)
}

func TestStepElaboratorMapIndexShiftsOnlyAtInsertionPoint(t *testing.T) {
	se := NewStepElaborator("t1", 0, 2)
	se.AddStep(nil, "r", nil, nil, nil)

	shifted := se.MapIndex(PremiseRef{Depth: 0, Index: 2})
	require.Equal(t, PremiseRef{Depth: 0, Index: 3}, shifted)

	unaffected := se.MapIndex(PremiseRef{Depth: 0, Index: 0})
	require.Equal(t, PremiseRef{Depth: 0, Index: 0}, unaffected)

	deeper := se.MapIndex(PremiseRef{Depth: 1, Index: 0})
	require.Equal(t, PremiseRef{Depth: 1, Index: 0}, deeper)
}
