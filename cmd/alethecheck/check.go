package main

import (
	"fmt"

	"github.com/hashicorp/go-hclog"
	"github.com/spf13/cobra"

	"github.com/proofkit/alethe/pkg/alethe"
)

type checkOptions struct {
	applyFunctionDefs bool
	elaborate         bool
}

func newCheckCmd(logger hclog.Logger) *cobra.Command {
	opts := &checkOptions{}

	cmd := &cobra.Command{
		Use:   "check <problem> <proof>",
		Short: "Parse a problem/proof pair and report structural well-formedness",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheck(cmd, logger.Named("checker"), opts, args[0], args[1])
		},
	}

	cmd.Flags().BoolVar(&opts.applyFunctionDefs, "apply-function-defs", true, "beta-reduce define-fun applications at use sites")
	cmd.Flags().BoolVar(&opts.elaborate, "elaborate", false, "run the rewrite pipeline (binarize, trans, uncrowd) before reporting")
	cmd.Flags().BoolVar(&opts.elaborate, "reconstruct", false, "alias for --elaborate")

	return cmd
}

func runCheck(cmd *cobra.Command, logger hclog.Logger, opts *checkOptions, problemPath, proofPath string) error {
	pool, proof, err := loadProof(logger, problemPath, proofPath, opts.applyFunctionDefs)
	if err != nil {
		return err
	}
	logger.Info("parsed proof", "problem", problemPath, "proof", proofPath, "commands", len(proof.Commands), "terms", pool.Size())

	roots, err := alethe.LinearToGraph(proof.Commands)
	if err != nil {
		return err
	}
	cmd.Printf("%s: parsed, %d top-level commands, %d pool terms\n", proofPath, len(roots), pool.Size())

	if !opts.elaborate {
		cmd.Println("ok")
		return nil
	}

	elaborated, err := elaborateProof(pool, proof)
	if err != nil {
		return err
	}
	relinearized, err := alethe.GraphToLinear([]alethe.ProofNode{elaborated})
	if err != nil {
		return err
	}
	logger.Info("elaborated proof", "proof", proofPath, "commands", len(relinearized))
	cmd.Println(formatElaborationSummary(len(proof.Commands), len(relinearized)))
	cmd.Println("ok")
	return nil
}

func formatElaborationSummary(before, after int) string {
	return fmt.Sprintf("elaborated: %d commands -> %d commands", before, after)
}
