package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/sweeney/panel-stopwatch/internal/app"
	"github.com/sweeney/panel-stopwatch/internal/config"
	"github.com/sweeney/panel-stopwatch/internal/logger"
	"github.com/sweeney/panel-stopwatch/internal/version"
)

// defaultTerminalLogFile keeps log lines off the terminal display.
const defaultTerminalLogFile = "panel-stopwatch.log"

// flags holds command-line overrides.
type flags struct {
	configPath  string
	logLevel    string
	logFile     string
	terminal    bool
	httpAddr    string
	broker      string
	printInputs bool
}

func newRootCmd() *cobra.Command {
	f := &flags{}

	root := &cobra.Command{
		Use:   "panel-stopwatch",
		Short: "Stopwatch panel daemon.",
		Long: `Runs a stopwatch on a dedicated panel.

Two momentary buttons (start/stop and reset) are read from the GPIO
character device and debounced. The elapsed time, a days label, the
on-screen controls and a rotating background image are pushed to the
configured display surfaces: log, terminal, HTTP status page and MQTT.

Settings come from a YAML or TOML file; flags override the file.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd, f)
			if err != nil {
				return err
			}

			if f.printInputs {
				return app.PrintInputs(cmd.OutOrStdout(), cfg)
			}

			closer, err := setupLogging(cfg)
			if err != nil {
				return err
			}
			defer closer.Close()
			defer logger.Sync()

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
			defer stop()

			build := version.Get()
			logger.InfoKV(ctx, "starting",
				"version", build.Version,
				"commit", build.Commit,
				"built", build.BuildTime,
				"go", build.GoVersion,
			)

			return app.Run(ctx, cfg)
		},
	}

	root.Flags().StringVarP(&f.configPath, "config", "c", "", "path to configuration file (default "+config.DefaultConfigFilename+" if present)")
	root.Flags().StringVar(&f.logLevel, "log-level", "", "log level: debug, info, warn, error")
	root.Flags().StringVar(&f.logFile, "log-file", "", "write logs to this file instead of stderr")
	root.Flags().BoolVar(&f.terminal, "tui", false, "show the panel in the terminal")
	root.Flags().StringVar(&f.httpAddr, "http", "", `HTTP status address ("" in the file or "off" disables)`)
	root.Flags().StringVar(&f.broker, "broker", "", "MQTT broker URL, e.g. tcp://localhost:1883")
	root.Flags().BoolVar(&f.printInputs, "print-inputs", false, "print raw button levels and exit")

	version.AttachCobraVersionCommand(root)

	return root
}

// loadConfig reads the config file and applies flag overrides.
func loadConfig(cmd *cobra.Command, f *flags) (*config.Config, error) {
	cfg, err := config.Load(f.configPath)
	if err != nil {
		return nil, err
	}

	changed := cmd.Flags().Changed

	if changed("log-level") {
		cfg.LogLevel = f.logLevel
	}

	if changed("log-file") {
		cfg.LogFile = f.logFile
	}

	if changed("tui") {
		cfg.Terminal.Enabled = f.terminal
	}

	if changed("http") {
		cfg.HTTP.Addr = f.httpAddr
		if f.httpAddr == "off" {
			cfg.HTTP.Addr = ""
		}
	}

	if changed("broker") {
		cfg.MQTT.Broker = f.broker
	}

	if cfg.Terminal.Enabled && cfg.LogFile == "" {
		cfg.LogFile = defaultTerminalLogFile
	}

	// Re-validate so overrides such as --broker get their defaults.
	if err := config.Validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// setupLogging applies the log level and destination.
func setupLogging(cfg *config.Config) (io.Closer, error) {
	level, ok := logger.ParseLogLevel(cfg.LogLevel)
	if !ok {
		return nil, fmt.Errorf("unknown log level %q", cfg.LogLevel)
	}

	logger.SetLevel(level)

	if cfg.LogFile == "" {
		return io.NopCloser(nil), nil
	}

	return logger.OpenFile(cfg.LogFile)
}

// Execute runs the CLI and exits with non-zero status on error.
func Execute() {
	root := newRootCmd()

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "panel-stopwatch:", err)
		os.Exit(1)
	}
}
