package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	timewise "github.com/9renpoto/time-wise"
	"github.com/spf13/cobra"
)

// startTime anchors the startup measurement recorded by 'serve'. It is
// captured at program load so the measurement covers flag parsing,
// config loading and engine assembly.
var startTime = time.Now()

// version is set at build time via -ldflags "-X main.version=...".
var version = "dev"

func main() {
	root := buildRoot()
	if err := root.Execute(); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// GlobalFlags holds minimal global/persistent flags for CLI commands
type GlobalFlags struct {
	ConfigPath string
}

// buildRoot creates the root command and wires all subcommands
func buildRoot() *cobra.Command {
	globalFlags := &GlobalFlags{}
	usageFlags := &UsageFlags{}
	startupsFlags := &StartupsFlags{}
	summaryFlags := &SummaryFlags{}
	serveFlags := &ServeFlags{}

	timewiseCommand := command{}

	root := createRootCommand(globalFlags)

	root.AddCommand(
		createUsageCommand(timewiseCommand, usageFlags),
		createStartupsCommand(timewiseCommand, startupsFlags),
		createSummaryCommand(timewiseCommand, summaryFlags),
		createServeCommand(globalFlags, serveFlags),
		createVersionCommand(),
	)

	return root
}

// createRootCommand creates the root command with minimal persistent flags
func createRootCommand(flags *GlobalFlags) *cobra.Command {
	root := &cobra.Command{
		Use:   "timewise",
		Short: "Application usage and startup time tracker",
		Long: `Timewise samples running applications, accumulates per-application
active time and records how long each daemon start takes.

Examples:
  timewise serve                    # Start daemon
  timewise usage                    # Per-application usage totals
  timewise startups --limit=10      # Recent startup measurements
  timewise summary                  # Dashboard summary
  timewise usage --api-url=http://remote:8090/api  # Query remote daemon`,
	}

	root.PersistentFlags().StringVar(&flags.ConfigPath, "config", "", "path to TOML config file (optional)")
	root.Version = version

	return root
}

// createVersionCommand creates the version subcommand
func createVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show the timewise version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("timewise version %s\n", version)
		},
	}
}

// createUsageCommand creates the usage subcommand
func createUsageCommand(timewiseCommand command, usageFlags *UsageFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "usage",
		Short: "Show per-application usage",
		Long: `Show accumulated active time per application, most used first.
Applications without recorded activity are omitted unless currently active.

Examples:
  timewise usage
  timewise usage --api-url=http://remote:8090/api`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return timewiseCommand.Usage(UsageFlags{
				APIUrl:     usageFlags.APIUrl,
				APITimeout: usageFlags.APITimeout,
			})
		},
	}

	cmd.Flags().StringVar(&usageFlags.APIUrl, "api-url", "", "remote daemon URL (e.g. http://host:8090/api)")
	cmd.Flags().DurationVar(&usageFlags.APITimeout, "api-timeout", 10*time.Second, "request timeout")

	return cmd
}

// createStartupsCommand creates the startups subcommand
func createStartupsCommand(timewiseCommand command, startupsFlags *StartupsFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "startups",
		Short: "Show recorded startup measurements",
		Long: `Show stored startup measurements, newest first.

Examples:
  timewise startups
  timewise startups --limit=10
  timewise startups --api-url=http://remote:8090/api`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return timewiseCommand.Startups(StartupsFlags{
				Limit:      startupsFlags.Limit,
				APIUrl:     startupsFlags.APIUrl,
				APITimeout: startupsFlags.APITimeout,
			})
		},
	}

	cmd.Flags().IntVar(&startupsFlags.Limit, "limit", 0, "maximum records to return (0 = all)")
	cmd.Flags().StringVar(&startupsFlags.APIUrl, "api-url", "", "remote daemon URL (e.g. http://host:8090/api)")
	cmd.Flags().DurationVar(&startupsFlags.APITimeout, "api-timeout", 10*time.Second, "request timeout")

	return cmd
}

// createSummaryCommand creates the summary subcommand
func createSummaryCommand(timewiseCommand command, summaryFlags *SummaryFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "summary",
		Short: "Show the dashboard summary",
		Long: `Show the dashboard summary: top applications, startup chart points
and startup speed buckets.

Examples:
  timewise summary
  timewise summary --api-url=http://remote:8090/api`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return timewiseCommand.Summary(SummaryFlags{
				APIUrl:     summaryFlags.APIUrl,
				APITimeout: summaryFlags.APITimeout,
			})
		},
	}

	cmd.Flags().StringVar(&summaryFlags.APIUrl, "api-url", "", "remote daemon URL (e.g. http://host:8090/api)")
	cmd.Flags().DurationVar(&summaryFlags.APITimeout, "api-timeout", 10*time.Second, "request timeout")

	return cmd
}

// createServeCommand creates the serve subcommand
func createServeCommand(globalFlags *GlobalFlags, serveFlags *ServeFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve [config.toml]",
		Short: "Start the timewise daemon",
		Long: `Start the timewise daemon: poll running applications, accumulate
usage, record this start's duration and serve the query API.

Examples:
  timewise serve                    # Built-in defaults
  timewise serve config.toml        # Start with specific config file
  timewise serve --daemonize        # Run in background (pidfile configured via [server].pidfile)`,
		RunE: func(cmd *cobra.Command, args []string) error {
			serveFlags.ConfigPath = globalFlags.ConfigPath
			return runServeCommand(serveFlags, args)
		},
	}

	cmd.Flags().BoolVar(&serveFlags.Daemonize, "daemonize", false, "run as daemon in background")
	cmd.Flags().StringVar(&serveFlags.LogFile, "logfile", "", "redirect daemon logs to file")

	return cmd
}

func runServeCommand(flags *ServeFlags, args []string) error {
	configPath := flags.ConfigPath
	if len(args) > 0 {
		configPath = args[0]
	}

	cfg := timewise.DefaultConfig()
	if configPath != "" {
		loaded, err := timewise.LoadConfig(configPath)
		if err != nil {
			return fmt.Errorf("error loading config: %w", err)
		}
		cfg = loaded
	}

	if flags.Daemonize {
		logFile := flags.LogFile
		if logFile == "" {
			logFile = cfg.Server.LogFile
		}
		return daemonize(cfg.Server.PIDFile, logFile)
	}

	slog.SetDefault(cfg.Log.Logger().NewSlogger())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cfg.Metrics.Enabled {
		if err := timewise.RegisterMetricsDefault(); err != nil {
			fmt.Printf("Warning: failed to register metrics: %v\n", err)
		}
		if err := timewise.StartSelfMetrics(ctx, 0); err != nil {
			fmt.Printf("Warning: failed to start daemon metrics: %v\n", err)
		}
		if cfg.Metrics.Listen != "" {
			go func() {
				if err := timewise.ServeMetrics(cfg.Metrics.Listen); err != nil {
					fmt.Printf("Metrics server error: %v\n", err)
				}
			}()
		}
	}

	eng, err := timewise.New(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to assemble engine: %w", err)
	}
	eng.Start(ctx)

	server, err := timewise.NewHTTPServer(cfg.Server.Listen, cfg.Server.BasePath, eng)
	if err != nil {
		cancel()
		_ = eng.Wait()
		_ = eng.Close()
		return fmt.Errorf("failed to create HTTP server: %w", err)
	}

	fmt.Printf("Starting timewise server on %s%s\n", cfg.Server.Listen, cfg.Server.BasePath)

	// The listener is up, so this run's startup is complete.
	if _, err := eng.RecordStartup(ctx, time.Since(startTime), timewise.ResolveLauncher(ctx)); err != nil {
		slog.Warn("failed to record startup", "error", err)
	}

	// Wait for shutdown signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	fmt.Println("Shutting down...")
	cancel()
	_ = eng.Wait()
	_ = server.Close()
	err = eng.Close()
	_ = removePidFile(cfg.Server.PIDFile)
	return err
}
