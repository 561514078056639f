package main

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/hashicorp/go-hclog"
	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/proofkit/alethe/internal/jobqueue"
	"github.com/proofkit/alethe/internal/report"
	"github.com/proofkit/alethe/pkg/alethe"
)

type benchmarkOptions struct {
	numThreads int
	numRuns    int
	elaborate  bool
}

func newBenchmarkCmd(logger hclog.Logger) *cobra.Command {
	opts := &benchmarkOptions{}

	cmd := &cobra.Command{
		Use:   "benchmark <dir>",
		Short: "Check every problem/proof pair in a directory, repeatedly, and report timings",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBenchmark(cmd, logger.Named("benchmark"), opts, args[0])
		},
	}

	cmd.Flags().IntVar(&opts.numThreads, "num-threads", 1, "number of worker goroutines draining the job queue")
	cmd.Flags().IntVar(&opts.numRuns, "num-runs", 1, "number of times to repeat each problem/proof pair")
	cmd.Flags().BoolVar(&opts.elaborate, "elaborate", false, "run the rewrite pipeline as part of each job")

	return cmd
}

// proofPair is a discovered (problem, proof) file pair: a ".smt2" sibling
// of a ".proof" file sharing the same base name.
type proofPair struct {
	ProblemFile string
	ProofFile   string
}

func discoverPairs(dir string) ([]proofPair, error) {
	proofs := map[string]string{}
	problems := map[string]string{}

	err := filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		base := strings.TrimSuffix(path, filepath.Ext(path))
		switch filepath.Ext(path) {
		case ".smt2":
			problems[base] = path
		case ".proof":
			proofs[base] = path
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	var bases []string
	for base := range proofs {
		if _, ok := problems[base]; ok {
			bases = append(bases, base)
		}
	}
	sort.Strings(bases)

	pairs := make([]proofPair, len(bases))
	for i, base := range bases {
		pairs[i] = proofPair{ProblemFile: problems[base], ProofFile: proofs[base]}
	}
	return pairs, nil
}

func runBenchmark(cmd *cobra.Command, logger hclog.Logger, opts *benchmarkOptions, dir string) error {
	pairs, err := discoverPairs(dir)
	if err != nil {
		return wrapIOFailure(oops.Code("BENCHMARK_DISCOVER_FAILED").With("dir", dir).Wrap(err))
	}
	if len(pairs) == 0 {
		return oops.Code("BENCHMARK_NO_PAIRS").Errorf("no .smt2/.proof pairs found under %s", dir)
	}

	queue := jobqueue.NewQueue(len(pairs) * opts.numRuns)
	for _, pair := range pairs {
		for run := 0; run < opts.numRuns; run++ {
			queue.Push(jobqueue.JobDescriptor{ProblemFile: pair.ProblemFile, ProofFile: pair.ProofFile, RunIndex: run})
		}
	}
	queue.Close()

	w := report.NewWriter(cmd.OutOrStdout())
	pool := jobqueue.NewPool(opts.numThreads, logger)

	_, err = pool.Run(context.Background(), queue, func(_ context.Context, job jobqueue.JobDescriptor) (*jobqueue.Result, error) {
		m := benchmarkOne(logger, opts, job)
		if werr := w.WriteRun(m); werr != nil {
			return nil, werr
		}
		if m.Err != nil {
			return &jobqueue.Result{Failed: 1}, nil
		}
		return &jobqueue.Result{Checked: 1}, nil
	})
	if err != nil {
		return oops.Code("BENCHMARK_FAILED").Wrap(err)
	}
	return nil
}

func benchmarkOne(logger hclog.Logger, opts *benchmarkOptions, job jobqueue.JobDescriptor) report.RunMeasurement {
	m := report.RunMeasurement{ProblemFile: job.ProblemFile, ProofFile: job.ProofFile, RunIndex: job.RunIndex}
	start := time.Now()

	parseStart := time.Now()
	pool, proof, err := loadProof(logger, job.ProblemFile, job.ProofFile, true)
	m.Parsing = time.Since(parseStart)
	if err != nil {
		m.Err = err
		m.Total = time.Since(start)
		return m
	}

	checkStart := time.Now()
	_, err = alethe.LinearToGraph(proof.Commands)
	m.Checking = time.Since(checkStart)
	if err != nil {
		m.Err = err
		m.Total = time.Since(start)
		return m
	}

	if opts.elaborate {
		elabStart := time.Now()
		if _, err := elaborateProof(pool, proof); err != nil {
			m.Err = err
		}
		m.Elaboration = time.Since(elabStart)
	}

	m.Total = time.Since(start)
	return m
}
