package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"cashcast/internal/cli"
	"cashcast/internal/config"
	"cashcast/internal/core"
	"cashcast/internal/forecast"
	"cashcast/internal/log"
	"cashcast/internal/ports"
	"cashcast/internal/services"
)

var (
	flagUserID   int64
	flagAsOf     string
	flagLogLevel string
)

var rootCmd = &cobra.Command{
	Use:   "cashcast-cli",
	Short: "Personal finance forecasting CLI",
	Long: "Run cashcast predictions, projections and simulations against the configured data backend.\n" +
		"Results are printed as JSON on stdout; logs go to stderr.",
	SilenceUsage: true,
}

// Execute is the main entry point called from main.go.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().Int64VarP(&flagUserID, "user", "u", 0, "User id (defaults to DEFAULT_USER_ID)")
	rootCmd.PersistentFlags().StringVar(&flagAsOf, "as-of", "", "Reference date YYYY-MM-DD (defaults to today)")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "", "Log level (defaults to LOG_LEVEL, then warn)")
}

// app is the bootstrap shared by every subcommand.
type app struct {
	cfg         *config.Config
	logger      *log.Logger
	store       ports.Store
	engine      *forecast.Engine
	predictions *services.PredictionService
	now         func() time.Time
	closeStore  func() error
}

// openApp loads configuration, opens the data backend and builds the engine.
// Callers must defer close.
func openApp(cmd *cobra.Command) (*app, error) {
	logger := newLogger(cmd.ErrOrStderr())

	now, err := referenceClock(flagAsOf)
	if err != nil {
		return nil, err
	}

	cfg, err := cli.LoadConfig()
	if err != nil {
		return nil, err
	}

	store, closeStore, err := cli.OpenStore(cmd.Context(), logger, cfg)
	if err != nil {
		return nil, err
	}

	engine, err := cli.BuildEngine(logger, cfg, store, forecast.WithClock(now))
	if err != nil {
		_ = closeStore()
		return nil, err
	}

	return &app{
		cfg:    cfg,
		logger: logger,
		store:  store,
		engine: engine,
		predictions: services.NewPredictionService(engine, store,
			services.WithServiceLogger(logger),
			services.WithServiceClock(now)),
		now:        now,
		closeStore: closeStore,
	}, nil
}

func (a *app) close() {
	if err := a.closeStore(); err != nil {
		a.logger.Error("Data backend close error", log.FieldError, err)
	}
}

// userID returns --user, falling back to the configured default user.
func (a *app) userID() (int64, error) {
	id := flagUserID
	if id == 0 {
		id = a.cfg.DefaultUserID
	}
	if id <= 0 {
		return 0, fmt.Errorf("invalid user id %d", id)
	}
	return id, nil
}

// month parses a YYYY-MM flag value; empty means the month after the
// reference date.
func (a *app) month(s string) (core.Period, error) {
	if s == "" {
		return a.engine.CurrentPeriod().AddMonths(1), nil
	}
	p, err := core.ParsePeriod(s)
	if err != nil {
		return core.Period{}, fmt.Errorf("invalid month %q: %w", s, err)
	}
	return p, nil
}

func newLogger(w io.Writer) *log.Logger {
	level := flagLogLevel
	if level == "" {
		level = os.Getenv("LOG_LEVEL")
	}
	if level == "" {
		level = "warn"
	}
	lvl := log.ParseLevel(level)
	return log.New(log.Config{
		Level:     lvl,
		Component: log.ComponentCLI,
		Handler:   slog.NewTextHandler(w, &slog.HandlerOptions{Level: lvl}),
	})
}

// referenceClock pins the clock to noon UTC of asOf when it is set.
func referenceClock(asOf string) (func() time.Time, error) {
	if asOf == "" {
		return time.Now, nil
	}
	d, err := core.ParseDate(asOf)
	if err != nil {
		return nil, fmt.Errorf("invalid --as-of %q: %w", asOf, err)
	}
	ref := d.Time.Add(12 * time.Hour)
	return func() time.Time { return ref }, nil
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
