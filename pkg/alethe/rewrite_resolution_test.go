package alethe

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBinarifyResolutionsExpandsTernaryStep(t *testing.T) {
	pool, proof := parseProofFixture(t, `
		(declare-fun a () Bool)
		(declare-fun b () Bool)
		(declare-fun c () Bool)
		(declare-fun d () Bool)
	`, `
		(step s1 (cl a b) :rule hole)
		(step s2 (cl (not a) c) :rule hole)
		(step s3 (cl (not c) d) :rule hole)
		(step t1 (cl b d) :rule resolution :premises (s1 s2 s3) :args (a true c true))
	`)

	out, err := BinarifyResolutions(pool, proof)
	require.NoError(t, err)
	require.Len(t, out.Commands, 5)

	ids := make([]string, len(out.Commands))
	for i, c := range out.Commands {
		ids[i] = c.ID
	}
	require.Equal(t, []string{"s1", "s2", "s3", "t1.t1", "t1"}, ids)

	first := out.Commands[3]
	require.Equal(t, "resolution", first.Rule)
	require.Equal(t, []PremiseRef{{Depth: 0, Index: 0}, {Depth: 0, Index: 1}}, first.Premises)

	final := out.Commands[4]
	require.Equal(t, "resolution", final.Rule)
	require.Equal(t, []PremiseRef{{Depth: 0, Index: 3}, {Depth: 0, Index: 2}}, final.Premises)
}

func TestBinarifyResolutionsLeavesBinaryStepsAlone(t *testing.T) {
	pool, proof := parseProofFixture(t, `
		(declare-fun a () Bool)
		(declare-fun b () Bool)
	`, `
		(assume h1 a)
		(assume h2 (not a))
		(step t1 (cl) :rule resolution :premises (h1 h2) :args (a true))
	`)

	out, err := BinarifyResolutions(pool, proof)
	require.NoError(t, err)
	require.Len(t, out.Commands, 3)
	require.Equal(t, "t1", out.Commands[2].ID)
	require.Equal(t, []PremiseRef{{Depth: 0, Index: 0}, {Depth: 0, Index: 1}}, out.Commands[2].Premises)
}

func TestBinarifyResolutionsMixedPolarityFourPremises(t *testing.T) {
	pool, proof := parseProofFixture(t, `
		(declare-fun a () Bool)
		(declare-fun b () Bool)
		(declare-fun c () Bool)
		(declare-fun d () Bool)
		(declare-fun e () Bool)
		(declare-fun f () Bool)
	`, `
		(step p1 (cl a b c) :rule hole)
		(step p2 (cl (not a) d) :rule hole)
		(step p3 (cl (not c) e (not f)) :rule hole)
		(step p4 (cl f) :rule hole)
		(step t5 (cl b d e) :rule resolution :premises (p1 p2 p3 p4) :args (a true c true f false))
	`)

	out, err := BinarifyResolutions(pool, proof)
	require.NoError(t, err)
	require.Len(t, out.Commands, 7)

	ids := make([]string, len(out.Commands))
	for i, c := range out.Commands {
		ids[i] = c.ID
	}
	require.Equal(t, []string{"p1", "p2", "p3", "p4", "t5.t1", "t5.t2", "t5"}, ids)

	bTerm := pool.AddVar("b", pool.BoolSort())
	cTerm := pool.AddVar("c", pool.BoolSort())
	dTerm := pool.AddVar("d", pool.BoolSort())
	eTerm := pool.AddVar("e", pool.BoolSort())
	notF := pool.AddOp(OpNot, pool.AddVar("f", pool.BoolSort()))

	first := out.Commands[4]
	require.Equal(t, "resolution", first.Rule)
	require.Equal(t, []*Term{bTerm, cTerm, dTerm}, first.Clause)
	require.Equal(t, []PremiseRef{{Depth: 0, Index: 0}, {Depth: 0, Index: 1}}, first.Premises)

	second := out.Commands[5]
	require.Equal(t, "resolution", second.Rule)
	require.Equal(t, []*Term{bTerm, dTerm, eTerm, notF}, second.Clause)
	require.Equal(t, []PremiseRef{{Depth: 0, Index: 4}, {Depth: 0, Index: 2}}, second.Premises)

	final := out.Commands[6]
	require.Equal(t, "resolution", final.Rule)
	require.Equal(t, []*Term{bTerm, dTerm, eTerm}, final.Clause)
	require.Equal(t, []PremiseRef{{Depth: 0, Index: 5}, {Depth: 0, Index: 3}}, final.Premises)
}

func TestBinarifyResolutionsTooFewArgsIsAnError(t *testing.T) {
	pool, proof := parseProofFixture(t, `
		(declare-fun a () Bool)
		(declare-fun b () Bool)
		(declare-fun c () Bool)
	`, `
		(assume h1 a)
		(assume h2 b)
		(assume h3 c)
		(step t1 (cl) :rule resolution :premises (h1 h2 h3) :args (a true))
	`)

	_, err := BinarifyResolutions(pool, proof)
	require.Error(t, err)
	var checkErr *CheckError
	require.ErrorAs(t, err, &checkErr)
	require.Equal(t, CheckWrongNumberOfPremises, checkErr.Kind)
}
