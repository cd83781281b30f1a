// Package cli is the tempo command line. Without a subcommand it runs the
// interactive focus timer.
package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/sadopc/tempo/internal/config"
	"github.com/sadopc/tempo/internal/observability"
	"github.com/sadopc/tempo/internal/store"
	"github.com/sadopc/tempo/internal/tracker"
	"github.com/spf13/cobra"
)

var version = "dev"

// env holds what every command runs against. It is filled in by the root
// command's PersistentPreRunE.
type env struct {
	cfg      *config.Config
	logger   *slog.Logger
	store    *store.Store
	loc      *time.Location
	degraded bool
	closers  []io.Closer

	correlationID uuid.UUID
	startedAt     time.Time
}

func newRootCmd() (*cobra.Command, *env) {
	e := &env{}
	var verbose bool

	root := &cobra.Command{
		Use:   "tempo",
		Short: "tempo - a focus session tracker",
		Long: `tempo times focus sessions per category, records the distractions
that interrupt them, and reports daily statistics.

Run without a command to open the interactive timer.

Examples:
  tempo                                # Interactive timer
  tempo categories add Work --color "#ff6b6b"
  tempo sessions --date yesterday      # Sessions of one day
  tempo stats --days 7                 # Last week's statistics
  tempo export --format csv -o out.csv # Export the last 30 days`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return e.open(cmd, verbose)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			e.logger.Info("command end",
				"command", cmd.CommandPath(),
				"duration_ms", time.Since(e.startedAt).Milliseconds(),
			)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTUI(cmd, e)
		},
	}

	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log at debug level")

	root.AddCommand(
		newSessionsCmd(e),
		newStatsCmd(e),
		newCategoriesCmd(e),
		newExportCmd(e),
	)
	return root, e
}

// Execute runs the command line and exits non-zero on failure.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	root, e := newRootCmd()
	err := root.ExecuteContext(ctx)
	e.close()
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		stop()
		os.Exit(1)
	}
}

func (e *env) open(cmd *cobra.Command, verbose bool) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	e.cfg = cfg
	e.loc, _ = cfg.Location()

	level := observability.LogLevel(cfg.LogLevel)
	if verbose {
		level = observability.LogLevelDebug
	}

	out, closer := logOutput(cmd, cfg.LogFile)
	if closer != nil {
		e.closers = append(e.closers, closer)
	}

	e.correlationID = uuid.New()
	e.startedAt = time.Now()
	e.logger = observability.NewLogger(observability.LogConfig{
		Level:          level,
		Format:         observability.LogFormat(cfg.LogFormat),
		Output:         out,
		AddSource:      cfg.IsDevelopment() && verbose,
		ServiceName:    "tempo",
		ServiceVersion: version,
	}).With("correlation_id", e.correlationID.String())

	e.logger.Info("command start", "command", cmd.CommandPath(), "store", cfg.StoreDriver)

	s, degraded, err := tracker.OpenStore(cmd.Context(), cfg, e.logger)
	if err != nil {
		return err
	}
	e.store = s
	e.degraded = degraded
	e.closers = append(e.closers, s)
	return nil
}

// logOutput picks where cmd logs. The timer UI owns the terminal, so it logs
// to the file at path, falling back to stderr when the file cannot be
// opened. Every other command logs to stderr.
func logOutput(cmd *cobra.Command, path string) (io.Writer, io.Closer) {
	if cmd != cmd.Root() {
		return cmd.ErrOrStderr(), nil
	}
	f, err := observability.OpenLogFile(path)
	if err != nil {
		return cmd.ErrOrStderr(), nil
	}
	return f, f
}

// close releases the store and the log file in reverse order of opening.
func (e *env) close() {
	for i := len(e.closers) - 1; i >= 0; i-- {
		e.closers[i].Close()
	}
	e.closers = nil
}

// service builds a tracker for a one-shot command. Warnings are printed to
// stderr.
func (e *env) service(cmd *cobra.Command) *tracker.Service {
	if e.degraded {
		fmt.Fprintln(cmd.ErrOrStderr(), "warning: storage unavailable, nothing will be kept")
	}
	return tracker.New(tracker.Options{
		Store:  e.store,
		Logger: e.logger,
		Warner: tracker.WarnFunc(func(msg string) {
			fmt.Fprintln(cmd.ErrOrStderr(), "warning:", msg)
		}),
		Location:     e.loc,
		Duration:     time.Duration(e.cfg.DefaultMinutes) * time.Minute,
		TickInterval: e.cfg.TickInterval,
	})
}
