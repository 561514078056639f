package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/hashicorp/go-hclog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testProblem = `
(declare-sort U 0)
(declare-fun a () U)
(declare-fun b () U)
(declare-fun c () U)
`

const testProof = `
(assume h1 (= a b))
(assume h2 (= b c))
(step t1 (cl (= a c)) :rule trans :premises (h1 h2))
`

func writeTestPair(t *testing.T) (problemPath, proofPath string) {
	t.Helper()
	dir := t.TempDir()
	problemPath = filepath.Join(dir, "p.smt2")
	proofPath = filepath.Join(dir, "p.proof")
	require.NoError(t, os.WriteFile(problemPath, []byte(testProblem), 0o644))
	require.NoError(t, os.WriteFile(proofPath, []byte(testProof), 0o644))
	return problemPath, proofPath
}

func TestCheckCommandHelp(t *testing.T) {
	cmd := NewRootCmd(hclog.NewNullLogger())
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"check", "--help"})

	require.NoError(t, cmd.Execute())
	assert.Contains(t, buf.String(), "well-formedness")
}

func TestCheckCommandSucceedsOnValidPair(t *testing.T) {
	problemPath, proofPath := writeTestPair(t)

	cmd := NewRootCmd(hclog.NewNullLogger())
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"check", problemPath, proofPath})

	err := cmd.Execute()
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "ok")
}

func TestCheckCommandWithElaborate(t *testing.T) {
	problemPath, proofPath := writeTestPair(t)

	cmd := NewRootCmd(hclog.NewNullLogger())
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"check", "--elaborate", problemPath, proofPath})

	err := cmd.Execute()
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "elaborated:")
}

func TestCheckCommandMissingFileIsIOFailure(t *testing.T) {
	cmd := NewRootCmd(hclog.NewNullLogger())
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"check", "/nonexistent/problem.smt2", "/nonexistent/proof.proof"})

	err := cmd.Execute()
	require.Error(t, err)
	require.Equal(t, 2, exitCode(err))
}

func TestCheckCommandMalformedProofIsCheckerFailure(t *testing.T) {
	dir := t.TempDir()
	problemPath := filepath.Join(dir, "p.smt2")
	proofPath := filepath.Join(dir, "p.proof")
	require.NoError(t, os.WriteFile(problemPath, []byte(testProblem), 0o644))
	require.NoError(t, os.WriteFile(proofPath, []byte(`(assume h1 `), 0o644))

	cmd := NewRootCmd(hclog.NewNullLogger())
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"check", problemPath, proofPath})

	err := cmd.Execute()
	require.Error(t, err)
	require.Equal(t, 1, exitCode(err))
}
