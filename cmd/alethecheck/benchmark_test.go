package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/hashicorp/go-hclog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeBenchmarkFixture(t *testing.T, dir, name string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name+".smt2"), []byte(testProblem), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, name+".proof"), []byte(testProof), 0o644))
}

func TestDiscoverPairsMatchesByBaseName(t *testing.T) {
	dir := t.TempDir()
	writeBenchmarkFixture(t, dir, "one")
	writeBenchmarkFixture(t, dir, "two")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "orphan.smt2"), []byte(testProblem), 0o644))

	pairs, err := discoverPairs(dir)
	require.NoError(t, err)
	require.Len(t, pairs, 2)
}

func TestBenchmarkCommandWritesCSVReport(t *testing.T) {
	dir := t.TempDir()
	writeBenchmarkFixture(t, dir, "one")
	writeBenchmarkFixture(t, dir, "two")

	cmd := NewRootCmd(hclog.NewNullLogger())
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"benchmark", dir, "--num-threads", "2", "--num-runs", "1"})

	require.NoError(t, cmd.Execute())

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	require.Len(t, lines, 3, "one CSV header plus one row per discovered pair")
	assert.Equal(t, "problem,proof,run,parsing_ms,checking_ms,elaboration_ms,total_ms,error", lines[0])
}

func TestBenchmarkCommandNoPairsIsAnError(t *testing.T) {
	dir := t.TempDir()
	cmd := NewRootCmd(hclog.NewNullLogger())
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"benchmark", dir})

	err := cmd.Execute()
	require.Error(t, err)
}
