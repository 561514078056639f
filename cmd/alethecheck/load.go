package main

import (
	"os"

	"github.com/hashicorp/go-hclog"
	"github.com/samber/oops"

	"github.com/proofkit/alethe/pkg/alethe"
)

// loadProof parses problemPath as an SMT-LIB problem preamble and
// proofPath as the Alethe proof that follows from it, both against a
// single freshly created pool, matching the one-pool-per-job discipline
// §5 requires.
func loadProof(logger hclog.Logger, problemPath, proofPath string, applyFunctionDefs bool) (*alethe.Pool, *alethe.Proof, error) {
	if !applyFunctionDefs {
		logger.Warn("--apply-function-defs=false requested, but this parser always beta-reduces define-fun at use sites; proceeding as if it were true")
	}

	pool := alethe.NewPool()

	problemFile, err := os.Open(problemPath)
	if err != nil {
		return nil, nil, wrapIOFailure(oops.Code("PROBLEM_OPEN_FAILED").With("path", problemPath).Wrap(err))
	}
	defer problemFile.Close()

	problemLexer, err := alethe.NewLexer(problemFile)
	if err != nil {
		return nil, nil, wrapIOFailure(oops.Code("PROBLEM_READ_FAILED").With("path", problemPath).Wrap(err))
	}
	problemParser, err := alethe.NewParser(pool, problemLexer)
	if err != nil {
		return nil, nil, oops.Code("PROBLEM_PARSE_FAILED").With("path", problemPath).Wrap(err)
	}
	if err := problemParser.ParseProblem(); err != nil {
		return nil, nil, oops.Code("PROBLEM_PARSE_FAILED").With("path", problemPath).Wrap(err)
	}

	proofFile, err := os.Open(proofPath)
	if err != nil {
		return nil, nil, wrapIOFailure(oops.Code("PROOF_OPEN_FAILED").With("path", proofPath).Wrap(err))
	}
	defer proofFile.Close()

	proofLexer, err := alethe.NewLexer(proofFile)
	if err != nil {
		return nil, nil, wrapIOFailure(oops.Code("PROOF_READ_FAILED").With("path", proofPath).Wrap(err))
	}
	proofParser, err := alethe.NewParser(pool, proofLexer)
	if err != nil {
		return nil, nil, oops.Code("PROOF_PARSE_FAILED").With("path", proofPath).Wrap(err)
	}
	proof, err := proofParser.ParseProof()
	if err != nil {
		return nil, nil, oops.Code("PROOF_PARSE_FAILED").With("path", proofPath).Wrap(err)
	}

	return pool, proof, nil
}

// elaborateProof runs the full rewrite pipeline named in spec.md §6:
// binary-resolution expansion first (it changes the linear command count,
// so it must run before the graph is built), then the graph-based trans
// normalization and uncrowding passes over a single post-order pass.
//
// Only the proof's last top-level command is handed to Elaborate. In a
// well-formed proof every earlier command is reachable from it through the
// premise graph, so a single pass from the last root reaches the whole
// proof while keeping one shared memoization cache — elaborating each root
// independently would rebuild shared premises once per root and lose their
// structural sharing.
func elaborateProof(pool *alethe.Pool, proof *alethe.Proof) (alethe.ProofNode, error) {
	binarized, err := alethe.BinarifyResolutions(pool, proof)
	if err != nil {
		return nil, oops.Code("ELABORATION_FAILED").Wrap(err)
	}

	roots, err := alethe.LinearToGraph(binarized.Commands)
	if err != nil {
		return nil, oops.Code("ELABORATION_FAILED").Wrap(err)
	}
	if len(roots) == 0 {
		return nil, oops.Code("ELABORATION_FAILED").Errorf("proof has no commands")
	}

	rewrite := alethe.ComposeRewrites(alethe.RewriteTrans, alethe.RewriteUncrowd)
	node, err := alethe.Elaborate(pool, roots[len(roots)-1], rewrite)
	if err != nil {
		return nil, oops.Code("ELABORATION_FAILED").Wrap(err)
	}
	return node, nil
}
