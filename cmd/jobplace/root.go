package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/feiskyer/jobplace"
	"github.com/feiskyer/jobplace/posting"
	"github.com/feiskyer/jobplace/store"
)

var (
	cfgPath   string
	envFile   string
	logLevel  string
	storePath string
	noHistory bool
	verbose   bool
	stream    bool
	model     string
	maxTurns  int
	jsonOut   bool
)

var rootCmd = &cobra.Command{
	Use:   "jobplace",
	Short: "Find the Google place ID of where a job is performed",
	Long: "jobplace asks a chat model, equipped with a Google Places search tool, " +
		"where the job in a posting takes place and prints {\"place_id\": \"...\"}.",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&cfgPath, "config", "c", "", "path to config file (default: JOBPLACE_CONFIG env var or the user config dir)")
	pf.StringVar(&envFile, "env-file", ".env", "dotenv file loaded before the environment is read")
	pf.StringVar(&logLevel, "log-level", "", "log level: debug, info, warn, error (overrides config)")
	pf.StringVar(&storePath, "db", "", "history database path (overrides config)")
	pf.BoolVar(&noHistory, "no-history", false, "do not record runs")
}

// addRunFlags registers the flags shared by commands that run the agent.
func addRunFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.BoolVarP(&verbose, "verbose", "v", false, "print every agent step to stderr")
	f.BoolVar(&stream, "stream", false, "stream model output to stderr")
	f.StringVarP(&model, "model", "m", "", "chat model (overrides config)")
	f.IntVar(&maxTurns, "max-turns", 0, "maximum chat completions per posting (overrides config)")
	f.BoolVar(&jsonOut, "json", false, "print the full run record as JSON")
}

// app holds what every command needs after startup.
type app struct {
	cfg    *jobplace.Config
	logger *jobplace.Logger
}

func setup() (*app, error) {
	if err := jobplace.LoadDotEnv(envFile); err != nil {
		return nil, err
	}
	cfg, err := jobplace.Load(cfgPath)
	if err != nil {
		return nil, err
	}
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}
	if storePath != "" {
		cfg.Store.Path = storePath
	}
	if model != "" {
		cfg.OpenAI.Model = model
	}
	if maxTurns > 0 {
		cfg.Agent.MaxTurns = maxTurns
	}
	return &app{cfg: cfg, logger: jobplace.NewLogger(cfg.LogLevel)}, nil
}

func (a *app) newLocator(stderr io.Writer) (*jobplace.Locator, error) {
	var opts []jobplace.LocatorOption
	if verbose {
		opts = append(opts, jobplace.WithTrace(jobplace.NewTrace(stderr)))
	}
	if stream {
		opts = append(opts, jobplace.WithStreaming(func(tok string) {
			fmt.Fprint(stderr, tok)
		}))
	}
	return jobplace.NewLocatorFromConfig(a.cfg, a.logger, opts...)
}

func (a *app) openStore() (store.Store, error) {
	if noHistory {
		return store.NewNopStore(), nil
	}
	st, err := store.Open(a.cfg.Store.Path)
	if err != nil {
		return nil, err
	}
	return st, nil
}

// signalContext is cancelled on SIGINT or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}

// newRecord builds the history entry for one posting run.
func newRecord(p posting.Posting, modelName string, loc *jobplace.Location, runErr error) *store.Record {
	rec := &store.Record{
		PostingName: p.Name,
		PostingSHA:  store.PostingSHA(p.Text),
		Model:       modelName,
	}
	if loc != nil {
		rec.PlaceID = loc.PlaceID
		rec.Answer = loc.Answer
		rec.Turns = loc.Turns
	}
	if runErr != nil {
		rec.Error = runErr.Error()
	}
	return rec
}

func (a *app) save(ctx context.Context, st store.Store, rec *store.Record) {
	if err := st.Save(ctx, rec); err != nil {
		a.logger.Warn("failed to record run", "posting", rec.PostingName, "err", err)
	}
}

// printRecord writes the one-line place ID result, or the full record with --json.
func printRecord(w io.Writer, rec *store.Record) error {
	if jsonOut {
		enc := json.NewEncoder(w)
		return enc.Encode(rec)
	}
	if rec.Error != "" {
		return nil
	}
	id, err := json.Marshal(rec.PlaceID)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "{\"place_id\": %s}\n", id)
	return err
}

func closeStore(a *app, st store.Store) {
	if err := st.Close(); err != nil {
		a.logger.Warn("failed to close history store", "err", err)
	}
}
