package main

import (
	"context"
	"fmt"
	"os"

	"github.com/feiskyer/jobplace"
	"github.com/feiskyer/jobplace/posting"
)

func main() {
	if err := jobplace.LoadDotEnv(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	cfg, err := jobplace.Load("")
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	// Print every agent step, like a verbose executor
	locator, err := jobplace.NewLocatorFromConfig(cfg, jobplace.NewNopLogger(),
		jobplace.WithTrace(jobplace.NewTrace(os.Stdout)))
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	_, err = jobplace.RunPostings(context.Background(), locator, posting.Examples(), jobplace.BatchOptions{
		Timeout:  cfg.Agent.PostingTimeout,
		FailFast: true,
		OnResult: func(res jobplace.BatchResult) {
			if res.Err == nil {
				fmt.Printf("{\"place_id\": %q}\n", res.Location.PlaceID)
			}
		},
	})
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
