package main

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/feiskyer/jobplace/store"
)

var historyLimit int

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recent locate runs",
	Args:  cobra.NoArgs,
	RunE:  runHistory,
}

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "number of runs to show")
	historyCmd.Flags().BoolVar(&jsonOut, "json", false, "print runs as JSON lines")
	rootCmd.AddCommand(historyCmd)
}

func runHistory(cmd *cobra.Command, args []string) error {
	a, err := setup()
	if err != nil {
		return err
	}
	defer a.logger.Sync()

	ctx, stop := signalContext()
	defer stop()

	st, err := store.Open(a.cfg.Store.Path)
	if err != nil {
		return err
	}
	defer closeStore(a, st)

	recs, err := st.Recent(ctx, historyLimit)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if jsonOut {
		enc := json.NewEncoder(out)
		for _, rec := range recs {
			if err := enc.Encode(rec); err != nil {
				return err
			}
		}
		return nil
	}
	if len(recs) == 0 {
		fmt.Fprintln(out, "no runs recorded")
		return nil
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("WHEN", "POSTING", "MODEL", "TURNS", "RESULT")
	for _, rec := range recs {
		result := rec.PlaceID
		if rec.Error != "" {
			result = "error: " + truncate(rec.Error, 60)
		}
		t.Row(
			rec.CreatedAt.Local().Format(time.DateTime),
			truncate(rec.PostingName, 40),
			rec.Model,
			strconv.Itoa(rec.Turns),
			result,
		)
	}
	fmt.Fprintln(out, t.Render())
	return nil
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
