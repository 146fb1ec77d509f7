package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/go-playground/validator/v10"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/rezmoss/callcountcli/internal/calllog"
	"github.com/rezmoss/callcountcli/internal/config"
	"github.com/rezmoss/callcountcli/internal/events"
	"github.com/rezmoss/callcountcli/internal/storage"
)

type app struct {
	cfgFile string
	dataDir string
	driver  string
	verbose bool

	cfg    *config.Config
	logger *zap.Logger
	now    func() time.Time
}

func newRootCmd(now func() time.Time) *cobra.Command {
	a := &app{now: now}

	root := &cobra.Command{
		Use:   "callcountcli",
		Short: "Count phone calls against a daily goal",
		Long: `callcountcli logs phone calls with one keystroke and shows the time since
the last call and today's count against a daily goal.

Run without arguments to open the dashboard. Bind a desktop shortcut to
"callcountcli trigger" to log a call into a running dashboard.`,
		SilenceUsage:      true,
		PersistentPreRunE: a.setup,
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.logger != nil {
				_ = a.logger.Sync()
			}
		},
		RunE: a.runDashboard,
		Annotations: map[string]string{
			"tui": "true",
		},
	}
	root.PersistentFlags().StringVar(&a.cfgFile, "config", "", "path to YAML config (default <data-dir>/config.yaml)")
	root.PersistentFlags().StringVar(&a.dataDir, "data-dir", "", "directory for the store, log file and trigger spool")
	root.PersistentFlags().StringVar(&a.driver, "driver", "", "storage driver: file|sqlite|redis|memory")
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "debug logging")

	root.AddCommand(
		&cobra.Command{
			Use:         "dashboard",
			Short:       "Open the interactive dashboard",
			Args:        cobra.NoArgs,
			RunE:        a.runDashboard,
			Annotations: map[string]string{"tui": "true"},
		},
		&cobra.Command{
			Use:   "log",
			Short: "Log one call now",
			Args:  cobra.NoArgs,
			RunE:  a.runLog,
		},
		&cobra.Command{
			Use:   "reset",
			Short: "Discard every call not logged today",
			Args:  cobra.NoArgs,
			RunE:  a.runReset,
		},
		&cobra.Command{
			Use:   "goal [calls]",
			Short: "Show or set the daily goal",
			Args:  cobra.MaximumNArgs(1),
			RunE:  a.runGoal,
		},
		&cobra.Command{
			Use:   "status",
			Short: "Print time since the last call and today's progress",
			Args:  cobra.NoArgs,
			RunE:  a.runStatus,
		},
		newReportCmd(a),
		&cobra.Command{
			Use:   "trigger",
			Short: "Signal a running dashboard to log a call",
			Args:  cobra.NoArgs,
			RunE:  a.runTrigger,
		},
	)
	return root
}

func newReportCmd(a *app) *cobra.Command {
	var rng string
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Print calls per day",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.open(cmd.Context())
			if err != nil {
				return err
			}
			defer s.Close()
			return report(cmd.OutOrStdout(), s.tracker.Calls(), s.tracker.Goal(), rng, a.now())
		},
	}
	cmd.Flags().StringVar(&rng, "range", "today", "report range: today|week|month")
	return cmd
}

func (a *app) setup(cmd *cobra.Command, args []string) error {
	override := func(c *config.Config) {
		if a.dataDir != "" {
			c.DataDir = a.dataDir
		}
		if a.driver != "" {
			c.Storage.Driver = a.driver
		}
	}
	cfg, err := config.Load(a.cfgFile, override)
	if err != nil {
		return err
	}
	if a.cfgFile == "" {
		// The default config file lives in the data directory, which is only
		// known once the other layers are loaded.
		if cfg, err = config.Load(filepath.Join(cfg.DataDir, "config.yaml"), override); err != nil {
			return err
		}
	}
	a.cfg = cfg

	a.logger, err = a.newLogger(cmd.Annotations["tui"] == "true")
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	return nil
}

// newLogger logs to stderr, or to the configured file while the dashboard
// owns the terminal.
func (a *app) newLogger(toFile bool) (*zap.Logger, error) {
	zc := zap.NewProductionConfig()
	level, err := zapcore.ParseLevel(a.cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	if a.verbose {
		level = zapcore.DebugLevel
	}
	zc.Level = zap.NewAtomicLevelAt(level)
	if toFile {
		if err := os.MkdirAll(filepath.Dir(a.cfg.LogFile), 0755); err != nil {
			return nil, err
		}
		zc.OutputPaths = []string{a.cfg.LogFile}
		zc.ErrorOutputPaths = []string{a.cfg.LogFile}
	}
	return zc.Build()
}

type session struct {
	kv      storage.KV
	tracker *calllog.Tracker
}

func (s *session) Close() error { return s.kv.Close() }

// open loads the log and goal once; from then on the tracker holds the
// working copy and writes through after every change.
func (a *app) open(ctx context.Context) (*session, error) {
	kv, err := storage.Open(ctx, a.cfg.Storage, a.logger)
	if err != nil {
		return nil, err
	}
	store := storage.NewLogStore(kv, a.logger, a.cfg.Dashboard.DefaultGoal)
	tracker := calllog.NewTracker(store.Load(ctx), store.LoadGoal(ctx), store,
		calllog.WithClock(a.now), calllog.WithLogger(a.logger))
	a.logger.Debug("store opened",
		zap.String("driver", a.cfg.Storage.Driver),
		zap.String("path", a.cfg.Storage.Path),
		zap.Int("calls", len(tracker.Calls())),
		zap.Int("goal", tracker.Goal()))
	return &session{kv: kv, tracker: tracker}, nil
}

func (a *app) runDashboard(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	s, err := a.open(ctx)
	if err != nil {
		return err
	}
	defer s.Close()

	m := newDashboardModel(s.tracker, a.cfg.Dashboard.TickInterval)
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))

	bus := events.NewBus()
	unsubscribe := bus.Subscribe(events.LogCall, func() { p.Send(logCallMsg{}) })
	defer unsubscribe()

	if w, err := events.Watch(ctx, a.cfg.Trigger.SpoolDir, bus, a.logger); err != nil {
		a.logger.Warn("external trigger disabled", zap.String("dir", a.cfg.Trigger.SpoolDir), zap.Error(err))
	} else {
		defer w.Close()
	}

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running dashboard: %w", err)
	}
	return nil
}

func (a *app) runLog(cmd *cobra.Command, args []string) error {
	s, err := a.open(cmd.Context())
	if err != nil {
		return err
	}
	defer s.Close()

	r := s.tracker.Append(cmd.Context())
	if err := s.tracker.PersistErr(); err != nil {
		return err
	}
	snap := s.tracker.Snapshot()
	fmt.Fprintf(cmd.OutOrStdout(), "Call logged at %s (today: %d, %s)\n",
		r.Time().In(snap.Now.Location()).Format("15:04:05"), snap.Today, formatProgress(snap.Progress))
	return nil
}

func (a *app) runReset(cmd *cobra.Command, args []string) error {
	s, err := a.open(cmd.Context())
	if err != nil {
		return err
	}
	defer s.Close()

	removed := s.tracker.Reset(cmd.Context())
	if err := s.tracker.PersistErr(); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Removed %d calls from earlier days, %d left\n", removed, len(s.tracker.Calls()))
	return nil
}

func (a *app) runGoal(cmd *cobra.Command, args []string) error {
	s, err := a.open(cmd.Context())
	if err != nil {
		return err
	}
	defer s.Close()

	if len(args) == 0 {
		fmt.Fprintf(cmd.OutOrStdout(), "Daily goal: %d\n", s.tracker.Goal())
		return nil
	}

	goal, err := strconv.Atoi(args[0])
	if err != nil {
		return fmt.Errorf("invalid goal %q: %w", args[0], err)
	}
	if err := validator.New().Var(goal, "min=1"); err != nil {
		return fmt.Errorf("invalid goal %d: must be at least 1", goal)
	}
	s.tracker.SetGoal(cmd.Context(), goal)
	if err := s.tracker.PersistErr(); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Config updated: dailygoal=%d\n", goal)
	return nil
}

func (a *app) runStatus(cmd *cobra.Command, args []string) error {
	s, err := a.open(cmd.Context())
	if err != nil {
		return err
	}
	defer s.Close()

	printStatus(cmd.OutOrStdout(), s.tracker.Snapshot())
	return nil
}

func (a *app) runTrigger(cmd *cobra.Command, args []string) error {
	path, err := events.Drop(a.cfg.Trigger.SpoolDir, events.LogCall)
	if err != nil {
		return err
	}
	a.logger.Debug("signal dropped", zap.String("path", path))
	return nil
}

func main() {
	if err := newRootCmd(time.Now).ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}
