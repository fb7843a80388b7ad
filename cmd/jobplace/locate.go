package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/feiskyer/jobplace/posting"
	"github.com/feiskyer/jobplace/store"
)

var (
	locateText    string
	locateExample string
	useCache      bool
)

var locateCmd = &cobra.Command{
	Use:   "locate [file | url | -]",
	Short: "Locate one job posting",
	Long: "Locate reads one posting from a file, an http(s) URL, stdin (-), --text or " +
		"--example and prints the place ID of the job location.",
	Args: cobra.MaximumNArgs(1),
	RunE: runLocate,
}

func init() {
	addRunFlags(locateCmd)
	locateCmd.Flags().StringVar(&locateText, "text", "", "posting text")
	locateCmd.Flags().StringVar(&locateExample, "example", "", "built-in example posting (nurse, carpenter, ferry-cook)")
	locateCmd.Flags().BoolVar(&useCache, "cache", false, "reuse the last successful place ID for an identical posting")
	rootCmd.AddCommand(locateCmd)
}

func runLocate(cmd *cobra.Command, args []string) error {
	a, err := setup()
	if err != nil {
		return err
	}
	defer a.logger.Sync()

	ctx, stop := signalContext()
	defer stop()

	p, err := resolvePosting(ctx, args)
	if err != nil {
		return err
	}

	st, err := a.openStore()
	if err != nil {
		return err
	}
	defer closeStore(a, st)

	if useCache {
		rec, err := st.LatestFor(ctx, store.PostingSHA(p.Text))
		switch {
		case err == nil:
			a.logger.Info("using cached place id", "posting", p.Name, "place_id", rec.PlaceID, "run", rec.ID)
			return printRecord(cmd.OutOrStdout(), &rec)
		case !errors.Is(err, store.ErrNotFound):
			a.logger.Warn("history lookup failed", "err", err)
		}
	}

	locator, err := a.newLocator(cmd.ErrOrStderr())
	if err != nil {
		return err
	}

	pctx, cancel := context.WithTimeout(ctx, a.cfg.Agent.PostingTimeout)
	defer cancel()

	loc, runErr := locator.Locate(pctx, p.Text)
	rec := newRecord(p, locator.Model(), loc, runErr)
	a.save(ctx, st, rec)

	if err := printRecord(cmd.OutOrStdout(), rec); err != nil {
		return err
	}
	if runErr != nil {
		return fmt.Errorf("%s: %w", p.Name, runErr)
	}
	return nil
}

func resolvePosting(ctx context.Context, args []string) (posting.Posting, error) {
	sources := 0
	if len(args) > 0 {
		sources++
	}
	if locateText != "" {
		sources++
	}
	if locateExample != "" {
		sources++
	}
	if sources != 1 {
		return posting.Posting{}, errors.New("give exactly one of a source argument, --text or --example")
	}

	switch {
	case locateText != "":
		if strings.TrimSpace(locateText) == "" {
			return posting.Posting{}, posting.ErrEmpty
		}
		return posting.Posting{Name: "text", Text: locateText, Source: "flag"}, nil
	case locateExample != "":
		p, ok := posting.Example(locateExample)
		if !ok {
			return posting.Posting{}, fmt.Errorf("unknown example %q", locateExample)
		}
		return p, nil
	default:
		return posting.NewLoader().Load(ctx, args[0])
	}
}
