// Package cli provides the command-line interface for staffdash.
package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/raphaelgruber/staffdash/internal/config"
	"github.com/raphaelgruber/staffdash/internal/gateway"
	"github.com/raphaelgruber/staffdash/internal/metrics"
	"github.com/raphaelgruber/staffdash/internal/service"
	"github.com/raphaelgruber/staffdash/internal/telemetry"
	"github.com/spf13/cobra"
)

var (
	// Version is set at build time.
	Version = "0.1.0"

	// Global flags
	verbose   bool
	jsonOut   bool
	scopeFlag string

	// Set up in PersistentPreRunE
	cfg       config.Config
	logger    *slog.Logger
	session   *gateway.Session
	collector *metrics.Collector
	manager   *service.Manager
	cleanups  []func(context.Context) error
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "staffdash",
	Short: "Dashboards for the staffing platform",
	Long: `Staffdash fetches clients, workers, jobs, assignments, timesheets,
documents, payments, and referrals from the platform's resource service,
joins them, and computes the figures shown on the admin, client, and
worker dashboards.

The scope defaults to the signed-in role (STAFFDASH_ROLE, STAFFDASH_OWNER_ID)
and can be overridden with --scope admin|client:<id>|worker:<id>.`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// No gateway needed for version and help
		if cmd.Name() == "version" || cmd.Name() == "help" {
			return nil
		}

		var err error
		cfg, err = config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}

		logCfg := cfg.Logging("staffdash")
		if verbose {
			logCfg.Level = slog.LevelDebug
		}
		var closeLog func() error
		logger, closeLog = config.SetupLogger(logCfg)
		slog.SetDefault(logger)
		cleanups = append(cleanups, func(context.Context) error { return closeLog() })

		shutdown, err := telemetry.InitTracing("staffdash", cfg.TraceExporter)
		if err != nil {
			return fmt.Errorf("init tracing: %w", err)
		}
		cleanups = append(cleanups, shutdown)

		session, err = gateway.NewSession(cfg.Token, cfg.UserID, gateway.Role(cfg.Role), cfg.OwnerID)
		if err != nil {
			return fmt.Errorf("start session (set STAFFDASH_TOKEN): %w", err)
		}

		collector = metrics.NewCollector()
		gw := gateway.New(cfg.GatewayURL, session,
			gateway.WithTimeout(cfg.Timeout),
			gateway.WithCollector(collector),
			gateway.WithLogger(logger),
		)
		manager = service.NewManager(gw, service.Options{
			PageSize:     cfg.PageSize,
			FanOutLimit:  cfg.FanOutLimit,
			FanOutWarn:   cfg.FanOutWarn,
			ExpiryWindow: cfg.ExpiryWindow,
			Logger:       logger,
			Collector:    collector,
		})
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if session != nil {
			session.Close()
		}
		for i := len(cleanups) - 1; i >= 0; i-- {
			if err := cleanups[i](context.Background()); err != nil {
				fmt.Fprintf(os.Stderr, "Warning: cleanup failed: %v\n", err)
			}
		}
	},
}

// Execute adds all child commands to the root command and runs it.
// SIGINT and SIGTERM cancel in-flight fetches.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().BoolVar(&jsonOut, "json", false, "print JSON instead of tables")
	rootCmd.PersistentFlags().StringVarP(&scopeFlag, "scope", "s", "", "dashboard scope: admin, client:<id>, or worker:<id>")

	// Add subcommands
	rootCmd.AddCommand(dashboardCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(mutateCmd)
	rootCmd.AddCommand(approveCmd)
	rootCmd.AddCommand(rejectCmd)
	rootCmd.AddCommand(expiringCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(statsCmd)
}

// currentScope resolves --scope, falling back to the session's portal.
func currentScope() (service.Scope, error) {
	if scopeFlag != "" {
		return service.ParseScope(scopeFlag)
	}
	scope := service.ScopeFor(session)
	return scope, scope.Validate()
}

// loadDashboard fetches a fresh snapshot for the current scope.
func loadDashboard(ctx context.Context) (*service.Dashboard, service.Snapshot, error) {
	scope, err := currentScope()
	if err != nil {
		return nil, service.Snapshot{}, err
	}
	d, err := manager.Dashboard(scope)
	if err != nil {
		return nil, service.Snapshot{}, err
	}
	snap, err := d.Refresh(ctx)
	if err != nil {
		if gateway.IsAuthExpired(err) {
			return nil, service.Snapshot{}, fmt.Errorf("session expired, sign in again: %w", err)
		}
		return nil, service.Snapshot{}, fmt.Errorf("load %s dashboard: %w", scope, err)
	}
	return d, snap, nil
}
