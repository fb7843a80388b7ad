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

	locator, err := jobplace.NewLocatorFromConfig(cfg, jobplace.NewLogger("warn"),
		jobplace.WithStreaming(func(tok string) { fmt.Print(tok) }))
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	p, _ := posting.Example("carpenter")
	ctx, cancel := context.WithTimeout(context.Background(), cfg.Agent.PostingTimeout)
	defer cancel()

	loc, err := locator.Locate(ctx, p.Text)
	fmt.Println()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
	fmt.Printf("place_id=%s turns=%d tokens=%d\n", loc.PlaceID, loc.Turns, loc.Usage.TotalTokens)
}
