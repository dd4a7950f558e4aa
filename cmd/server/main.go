// Package main provides the entry point for the Prop Scout prediction service.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/yourusername/prop-scout/internal/api"
	"github.com/yourusername/prop-scout/internal/cache"
	"github.com/yourusername/prop-scout/internal/config"
	"github.com/yourusername/prop-scout/internal/database"
	"github.com/yourusername/prop-scout/internal/engine"
	"github.com/yourusername/prop-scout/internal/health"
	"github.com/yourusername/prop-scout/internal/logger"
	"github.com/yourusername/prop-scout/internal/provider"
	"github.com/yourusername/prop-scout/internal/repository"
	"github.com/yourusername/prop-scout/internal/scheduler"
)

var (
	configFile string
	cfg        *config.Config
	appLog     *logrus.Logger
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "./config/config.yaml", "Path to configuration file")
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(refreshCmd)
}

var rootCmd = &cobra.Command{
	Use:   "prop-scout",
	Short: "Sports prop prediction service",
	Long:  `Prop Scout derives over/under probabilities for player and match stat lines from historical series and serves them through a periodically refreshed cache.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(configFile)
		if err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}

		if os.Getenv("AWS_SECRETS_ENABLED") == "true" {
			region := os.Getenv("AWS_REGION")
			secretName := os.Getenv("AWS_SECRET_NAME")
			if region == "" || secretName == "" {
				return fmt.Errorf("AWS_REGION and AWS_SECRET_NAME must be set when AWS_SECRETS_ENABLED is true")
			}
			if err := config.LoadSecretsFromAWS(cfg, region, secretName); err != nil {
				return fmt.Errorf("failed to load secrets: %w", err)
			}
		}

		if err := config.Validate(cfg); err != nil {
			return fmt.Errorf("invalid configuration: %w", err)
		}

		appLog = logger.NewLogger(cfg.App.LogLevel, cfg.App.Environment)
		return nil
	},
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the prediction service",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe()
	},
}

var refreshCmd = &cobra.Command{
	Use:   "refresh <domain>",
	Short: "Run one refresh pipeline and print a summary",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runOneShotRefresh(args[0])
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		log.Fatalf("Error: %v", err)
	}
}

// buildEngine wires the provider, cache and optional collaborators into an
// engine for the configured domains.
func buildEngine(ctx context.Context, hub *api.Hub) (*engine.Engine, *database.DB, error) {
	client := provider.NewClient(provider.Config{
		BaseURL: cfg.Provider.BaseURL,
		APIKey:  cfg.Provider.APIKey,
		Transport: provider.TransportConfig{
			Timeout:           time.Duration(cfg.Provider.TimeoutSeconds) * time.Second,
			MaxRetries:        cfg.Provider.MaxRetries,
			RetryWaitMin:      250 * time.Millisecond,
			RetryWaitMax:      8 * time.Second,
			RateLimit:         cfg.Provider.RateLimit,
			CircuitBreakerMax: cfg.Provider.CircuitBreakerTrips,
		},
		CacheTTL: time.Duration(cfg.Provider.CacheTTLMinutes) * time.Minute,
	}, appLog)

	specs := make([]engine.DomainSpec, 0, len(cfg.Prediction.Domains))
	for _, domain := range cfg.Prediction.Domains {
		var spec engine.DomainSpec
		switch domain {
		case "basketball":
			spec = engine.BasketballSpec(cfg.Prediction.Season)
		case "football":
			spec = engine.FootballSpec(cfg.Prediction.Season)
		default:
			return nil, nil, fmt.Errorf("unsupported domain %q", domain)
		}
		applyOverrides(&spec)
		specs = append(specs, spec)
	}

	store := cache.NewStore(cfg.Prediction.Domains, appLog)

	opts := []engine.Option{}
	if hub != nil {
		opts = append(opts, engine.WithEvents(hub))
	}

	var db *database.DB
	if cfg.Database.Enabled {
		var err error
		db, err = database.NewDB(ctx, &cfg.Database)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		historyRepo := repository.NewPredictionHistoryRepository(db)
		if err := historyRepo.InitSchema(ctx); err != nil {
			db.Close()
			return nil, nil, err
		}
		opts = append(opts, engine.WithHistory(historyRepo))
		appLog.Info("Prediction history persistence enabled")
	}

	eng, err := engine.NewEngine(client, store, specs, appLog, opts...)
	if err != nil {
		if db != nil {
			db.Close()
		}
		return nil, nil, err
	}
	return eng, db, nil
}

// applyOverrides pushes shared config knobs into a domain spec.
func applyOverrides(spec *engine.DomainSpec) {
	spec.FixtureLimit = cfg.Refresh.FixtureLimit
	spec.MaxPlayersPerTeam = cfg.Refresh.MaxPlayersPerTeam
	spec.RecentSize = cfg.Prediction.RecentWindow
	spec.BlendWeight = cfg.Prediction.BlendWeight
	spec.PlayerScan.MinProb = cfg.Prediction.MinProb
	spec.PlayerScan.MaxProb = cfg.Prediction.MaxProb
	spec.MatchScan.MinProb = cfg.Prediction.MinProb
	spec.MatchScan.MaxProb = cfg.Prediction.MaxProb
}

func runServe() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	appLog.WithFields(logrus.Fields{
		"environment": cfg.App.Environment,
		"domains":     cfg.Prediction.Domains,
	}).Info("Prop Scout starting")

	hub := api.NewHub(appLog)
	go hub.Run()

	eng, db, err := buildEngine(ctx, hub)
	if err != nil {
		return err
	}
	if db != nil {
		defer db.Close()
	}

	sched := scheduler.New(eng, cfg.RefreshInterval(), cfg.RefreshStagger(), appLog)
	if err := sched.Start(); err != nil {
		return fmt.Errorf("failed to start scheduler: %w", err)
	}
	defer sched.Stop()

	var healthSrv *health.Server
	if cfg.Health.Enabled {
		healthCfg := health.Config{
			ServiceName: cfg.App.Name,
			Port:        cfg.Health.Port,
			Logger:      appLog,
		}
		if db != nil {
			healthCfg.DB = db
		}
		healthSrv = health.NewServer(healthCfg)
		if err := healthSrv.Start(ctx); err != nil {
			return fmt.Errorf("failed to start health server: %w", err)
		}
		healthSrv.SetReady(true)
	}

	apiSrv := api.NewServer(api.Config{
		Port:           cfg.Server.Port,
		AllowedOrigins: cfg.Server.AllowedOrigins,
		MetricsEnabled: cfg.Metrics.Enabled,
		MetricsPath:    cfg.Metrics.Path,
	}, eng, hub, appLog)

	errCh := make(chan error, 1)
	go func() {
		errCh <- apiSrv.Start()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		appLog.WithField("signal", sig.String()).Info("Shutting down")
	case err := <-errCh:
		if err != nil {
			appLog.WithError(err).Error("API server failed")
			return err
		}
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	return apiSrv.Shutdown(shutdownCtx)
}

func runOneShotRefresh(domain string) error {
	ctx := context.Background()

	eng, db, err := buildEngine(ctx, nil)
	if err != nil {
		return err
	}
	if db != nil {
		defer db.Close()
	}

	if err := eng.RefreshDomain(ctx, domain); err != nil {
		return fmt.Errorf("refresh failed: %w", err)
	}

	snap, err := eng.Snapshot(domain)
	if err != nil {
		return err
	}

	summary := map[string]interface{}{
		"domain":       domain,
		"fixtures":     len(snap.Data.Fixtures),
		"predictions":  snap.Data.ItemCount(),
		"generated_at": snap.Data.GeneratedAt,
	}
	out, _ := json.MarshalIndent(summary, "", "  ")
	fmt.Println(string(out))
	return nil
}
