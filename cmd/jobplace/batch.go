package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/feiskyer/jobplace"
	"github.com/feiskyer/jobplace/posting"
)

var forceInit bool

var batchCmd = &cobra.Command{
	Use:   "batch",
	Short: "Locate postings listed in a YAML batch file",
}

var batchRunCmd = &cobra.Command{
	Use:   "run FILE",
	Short: "Run a batch file",
	Args:  cobra.ExactArgs(1),
	RunE:  runBatchFile,
}

var batchInitCmd = &cobra.Command{
	Use:   "init [FILE]",
	Short: "Write a batch file holding the built-in examples",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runBatchInit,
}

func init() {
	addRunFlags(batchRunCmd)
	batchRunCmd.Flags().BoolVar(&failFast, "fail-fast", false, "stop at the first failed posting (overrides the batch file)")
	batchInitCmd.Flags().BoolVar(&forceInit, "force", false, "overwrite an existing file")
	batchCmd.AddCommand(batchRunCmd, batchInitCmd)
	rootCmd.AddCommand(batchCmd)
}

func runBatchFile(cmd *cobra.Command, args []string) error {
	b, err := jobplace.LoadBatch(args[0])
	if err != nil {
		return err
	}
	// flags beat the batch file, which beats the config
	if model == "" {
		model = b.Model
	}
	if maxTurns == 0 {
		maxTurns = b.MaxTurns
	}

	a, err := setup()
	if err != nil {
		return err
	}
	defer a.logger.Sync()

	ctx, stop := signalContext()
	postings, err := b.Resolve(ctx, posting.NewLoader())
	stop()
	if err != nil {
		return err
	}

	a.logger.Info("running batch", "name", b.Name, "postings", len(postings), "model", a.cfg.OpenAI.Model)
	return a.runBatch(cmd, postings, b.Timeout, failFast || b.FailFast)
}

func runBatchInit(cmd *cobra.Command, args []string) error {
	path := "batch.yaml"
	if len(args) > 0 {
		path = args[0]
	}
	if !forceInit {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("%s already exists (use --force to overwrite)", path)
		} else if !errors.Is(err, os.ErrNotExist) {
			return err
		}
	}
	if err := jobplace.ExampleBatch().Save(path); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", path)
	return nil
}
