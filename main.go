package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	flag "github.com/spf13/pflag"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	// Global flags
	verbose    bool
	configPath string
	noTUI      bool
	strict     bool

	// qasm flags
	transpileQASM bool

	cfg    *Config
	logger *zap.Logger
)

var ErrMalformedMessage = errors.New("message must be one of 00, 01, 10, 11")

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "superdense",
	Short: "Send two classical bits with one qubit",
	Long: `superdense builds the superdense coding circuit for a two-bit message,
simulates it locally and, with --remote, runs it on the least busy backend.

A source prepares an entangled pair and hands one half to the sender (alice)
and the other to the receiver (bob). Alice encodes the message on her half
and sends it to bob, who reads both bits with a Bell measurement.

The circuit diagram is written to diagram_path. Results are shown in an
interactive viewer unless --no-tui is given.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = LoadConfig(configPath)
		if err != nil {
			return err
		}
		if err := applyFlagOverrides(cmd.Flags(), cfg); err != nil {
			return err
		}
		if err := cfg.Validate(); err != nil {
			return errors.Wrap(err, "invalid config")
		}

		// The viewer owns the terminal, so its logs go to a file
		interactive := cmd == cmd.Root() && !noTUI
		logger, err = newLogger(cfg.Logging, interactive)
		if err != nil {
			return errors.Wrap(err, "failed to initialize logger")
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return runSuperdense(cmd.Context(), cmd)
	},
}

// backendsCmd lists the backends of the configured account
var backendsCmd = &cobra.Command{
	Use:   "backends",
	Short: "List backends and mark the least busy eligible one",
	RunE: func(cmd *cobra.Command, args []string) error {
		return listBackends(cmd.Context(), cmd)
	},
}

// qasmCmd prints the circuit as OpenQASM 2.0
var qasmCmd = &cobra.Command{
	Use:   "qasm",
	Short: "Print the circuit as OpenQASM 2.0",
	RunE: func(cmd *cobra.Command, args []string) error {
		return printQASM(cmd.Context(), cmd)
	},
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	pf.StringVar(&configPath, "config", "superdense.yaml", "Config file (missing file uses defaults)")
	pf.BoolVar(&strict, "strict", false, "Fail on a malformed message instead of sending nothing")
	bindProtocolFlags(pf)

	rootCmd.Flags().BoolVar(&noTUI, "no-tui", false, "Print results instead of opening the viewer")
	qasmCmd.Flags().BoolVar(&transpileQASM, "transpile", false, "Transpile for the least busy eligible backend")

	rootCmd.AddCommand(backendsCmd, qasmCmd)
}

// bindProtocolFlags registers the flags that override config values.
func bindProtocolFlags(fs *flag.FlagSet) {
	fs.StringP("message", "m", "", "Two-bit message to send (00, 01, 10, 11)")
	fs.Int("shots", 0, "Shots per run")
	fs.Uint64("seed", 0, "Random seed (0 seeds from the runtime)")
	fs.String("diagram", "", "Path of the circuit diagram file")
	fs.Bool("remote", false, "Also run on the least busy remote backend")
	fs.Int("optimization-level", 0, "Transpiler optimization level (0-3)")
}

// applyFlagOverrides copies explicitly set flags over the config.
func applyFlagOverrides(fs *flag.FlagSet, c *Config) error {
	var err error
	if fs.Changed("message") {
		if c.Message, err = fs.GetString("message"); err != nil {
			return err
		}
	}
	if fs.Changed("shots") {
		if c.Shots, err = fs.GetInt("shots"); err != nil {
			return err
		}
	}
	if fs.Changed("seed") {
		if c.Seed, err = fs.GetUint64("seed"); err != nil {
			return err
		}
	}
	if fs.Changed("diagram") {
		if c.DiagramPath, err = fs.GetString("diagram"); err != nil {
			return err
		}
	}
	if fs.Changed("remote") {
		if c.Remote.Enabled, err = fs.GetBool("remote"); err != nil {
			return err
		}
	}
	if fs.Changed("optimization-level") {
		if c.Remote.OptimizationLevel, err = fs.GetInt("optimization-level"); err != nil {
			return err
		}
	}
	return nil
}

func newLogger(lc LoggingConfig, toFile bool) (*zap.Logger, error) {
	config := zap.NewProductionConfig()
	if lc.Level != "" {
		level, err := zap.ParseAtomicLevel(lc.Level)
		if err != nil {
			return nil, err
		}
		config.Level = level
	}
	if verbose {
		config.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}
	if toFile && lc.File != "" {
		config.OutputPaths = []string{lc.File}
		config.ErrorOutputPaths = []string{lc.File}
	}
	return config.Build()
}

// checkedMessage returns the configured message, failing on a malformed one
// only in strict mode.
func checkedMessage() (Message, error) {
	msg := Message(cfg.Message)
	if msg.Valid() {
		return msg, nil
	}
	if strict {
		return "", errors.Wrapf(ErrMalformedMessage, "got %q", cfg.Message)
	}
	logger.Warn("malformed message, nothing will be encoded", zap.String("message", cfg.Message))
	return msg, nil
}

// remoteSetup builds the provider and run options from config.
func remoteSetup() (Provider, RemoteOptions, error) {
	account, err := LoadAccount(cfg.Account)
	if err != nil {
		return nil, RemoteOptions{}, err
	}
	delay, err := cfg.Remote.QueueDelayDuration()
	if err != nil {
		return nil, RemoteOptions{}, err
	}
	timeout, err := cfg.Remote.TimeoutDuration()
	if err != nil {
		return nil, RemoteOptions{}, err
	}
	provider, err := NewCatalogProvider(account, cfg.Backends, CatalogOptions{QueueDelay: delay, Seed: cfg.Seed}, logger)
	if err != nil {
		return nil, RemoteOptions{}, err
	}
	return provider, RemoteOptions{
		MinQubits:         cfg.Remote.MinQubits,
		OptimizationLevel: cfg.Remote.OptimizationLevel,
		Timeout:           timeout,
	}, nil
}

func runSuperdense(ctx context.Context, cmd *cobra.Command) error {
	msg, err := checkedMessage()
	if err != nil {
		return err
	}

	c := BuildSuperdense(msg)
	logger.Info("circuit built",
		zap.String("message", string(msg)),
		zap.Int("gates", len(c.Gates)),
		zap.Int("encoding_gates", c.CountStage(StageEncode)),
		zap.Strings("gate_types", c.GateTypes()),
		zap.Int("depth", FromCircuit(c).Depth()))

	if err := WriteDiagram(cfg.DiagramPath, c); err != nil {
		return err
	}
	logger.Info("diagram written", zap.String("path", cfg.DiagramPath))
	if cfg.QASMPath != "" {
		if err := os.WriteFile(cfg.QASMPath, []byte(c.ToQASM()), 0644); err != nil {
			return errors.Wrap(err, "write qasm")
		}
	}

	exec := NewExecutor(logger, cfg.Shots, cfg.Seed)
	counts, err := exec.Simulate(c)
	if err != nil {
		return err
	}

	var runner RemoteRunner
	if cfg.Remote.Enabled {
		runner = func(ctx context.Context) (*RemoteResult, error) {
			provider, opts, err := remoteSetup()
			if err != nil {
				return nil, err
			}
			return exec.RunRemote(ctx, c, provider, opts)
		}
	}

	if noTUI {
		out := cmd.OutOrStdout()
		fmt.Fprintln(out, RenderHistogram("Local simulation", counts, c.NumCbits(), 60))
		if runner == nil {
			return nil
		}
		res, err := runner(ctx)
		if err != nil {
			logger.Error("remote run failed", zap.Error(err))
			return err
		}
		fmt.Fprintf(out, "\nbackend %s, job %s\n", res.Backend, res.JobID)
		fmt.Fprintln(out, RenderHistogram("Remote run", res.Counts, c.NumCbits(), 60))
		return nil
	}

	p := tea.NewProgram(NewModel(ctx, c, msg, counts, cfg.QASMPath, runner), tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil {
		return errors.Wrap(err, "viewer")
	}
	return nil
}

func listBackends(ctx context.Context, cmd *cobra.Command) error {
	provider, opts, err := remoteSetup()
	if err != nil {
		return err
	}
	backends, err := provider.Backends(ctx)
	if err != nil {
		return err
	}
	filters := RemoteFilters(opts.MinQubits)
	best, err := LeastBusy(ctx, backends, filters...)
	if err != nil && !errors.Is(err, ErrNoEligibleBackend) {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "  %-20s %6s %9s %7s %8s  %s\n", "NAME", "QUBITS", "SIMULATOR", "PENDING", "ELIGIBLE", "STATUS")
	for _, b := range backends {
		conf := b.Configuration()
		status, serr := b.Status(ctx)
		mark := " "
		if best != nil && b.Name() == best.Name() {
			mark = "*"
		}
		if serr != nil {
			fmt.Fprintf(out, "%s %-20s %6d %9t %7s %8t  %v\n", mark, conf.Name, conf.NumQubits, conf.Simulator, "-", false, serr)
			continue
		}
		fmt.Fprintf(out, "%s %-20s %6d %9t %7d %8t  %s\n", mark, conf.Name, conf.NumQubits, conf.Simulator,
			status.PendingJobs, Eligible(conf, status, filters...), status.Message)
	}
	if best == nil {
		fmt.Fprintln(out, "\nno eligible backend")
	}
	return nil
}

func printQASM(ctx context.Context, cmd *cobra.Command) error {
	msg, err := checkedMessage()
	if err != nil {
		return err
	}
	c := BuildSuperdense(msg)

	if transpileQASM {
		provider, opts, err := remoteSetup()
		if err != nil {
			return err
		}
		backends, err := provider.Backends(ctx)
		if err != nil {
			return err
		}
		backend, err := LeastBusy(ctx, backends, RemoteFilters(opts.MinQubits)...)
		if err != nil {
			return err
		}
		c, err = Transpile(c, TargetFor(backend.Configuration()), opts.OptimizationLevel)
		if err != nil {
			return err
		}
		logger.Info("transpiled", zap.String("backend", backend.Name()), zap.Int("level", opts.OptimizationLevel))
	}

	fmt.Fprint(cmd.OutOrStdout(), c.ToQASM())
	return nil
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}
