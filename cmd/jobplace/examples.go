package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/feiskyer/jobplace"
	"github.com/feiskyer/jobplace/posting"
)

var (
	failFast     bool
	listExamples bool
)

var examplesCmd = &cobra.Command{
	Use:   "examples",
	Short: "Locate the three built-in example postings",
	Long: "Runs the nurse, carpenter and ferry cook postings one after another and " +
		"prints one place ID line per posting.",
	Args: cobra.NoArgs,
	RunE: runExamples,
}

func init() {
	addRunFlags(examplesCmd)
	examplesCmd.Flags().BoolVar(&failFast, "fail-fast", false, "stop at the first failed posting")
	examplesCmd.Flags().BoolVar(&listExamples, "list", false, "print the example postings instead of running them")
	rootCmd.AddCommand(examplesCmd)
}

func runExamples(cmd *cobra.Command, args []string) error {
	if listExamples {
		for _, p := range posting.Examples() {
			fmt.Fprintf(cmd.OutOrStdout(), "== %s ==\n%s\n", p.Name, p.Text)
		}
		return nil
	}

	a, err := setup()
	if err != nil {
		return err
	}
	defer a.logger.Sync()

	return a.runBatch(cmd, posting.Examples(), a.cfg.Agent.PostingTimeout, failFast)
}

// runBatch locates postings in order, recording and printing each result.
func (a *app) runBatch(cmd *cobra.Command, postings []posting.Posting, timeout time.Duration, stopOnError bool) error {
	ctx, stop := signalContext()
	defer stop()

	locator, err := a.newLocator(cmd.ErrOrStderr())
	if err != nil {
		return err
	}

	st, err := a.openStore()
	if err != nil {
		return err
	}
	defer closeStore(a, st)

	out, errOut := cmd.OutOrStdout(), cmd.ErrOrStderr()
	_, err = jobplace.RunPostings(ctx, locator, postings, jobplace.BatchOptions{
		Timeout:  timeout,
		FailFast: stopOnError,
		OnResult: func(res jobplace.BatchResult) {
			rec := newRecord(res.Posting, locator.Model(), res.Location, res.Err)
			a.save(ctx, st, rec)
			if res.Err != nil {
				fmt.Fprintf(errOut, "%s: %v\n", res.Posting.Name, res.Err)
				a.logger.Error("posting failed", "posting", res.Posting.Name, "elapsed", res.Elapsed, "err", res.Err)
			} else {
				a.logger.Info("posting located", "posting", res.Posting.Name, "elapsed", res.Elapsed)
			}
			if perr := printRecord(out, rec); perr != nil {
				a.logger.Warn("failed to print result", "err", perr)
			}
		},
	})
	return err
}
