package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/BerylCAtieno/market-sim-agent/internal/a2a"
	"github.com/BerylCAtieno/market-sim-agent/internal/agent"
	"github.com/BerylCAtieno/market-sim-agent/internal/api"
	"github.com/BerylCAtieno/market-sim-agent/internal/config"
	"github.com/BerylCAtieno/market-sim-agent/internal/gateway"
	"github.com/BerylCAtieno/market-sim-agent/internal/history"
	"github.com/BerylCAtieno/market-sim-agent/internal/logging"
	"github.com/BerylCAtieno/market-sim-agent/internal/simulation"
	"github.com/BerylCAtieno/market-sim-agent/internal/throttle"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const shutdownTimeout = 10 * time.Second

var (
	configPath string
	port       string
	verbose    bool
)

var rootCmd = &cobra.Command{
	Use:   "market-sim",
	Short: "Market Simulation Agent - customer persona reactions to business changes",
	Long: `Serves the market simulation API.

Each scenario is sent to every customer persona through a single throttled
queue to the Gemini API, and the reactions are aggregated into a sentiment
summary. The same simulation is exposed as an A2A agent.`,
	SilenceUsage: true,
	RunE:         runServer,
}

func init() {
	rootCmd.Flags().StringVarP(&configPath, "config", "c", os.Getenv("SIM_CONFIG"), "Path to YAML config file")
	rootCmd.Flags().StringVarP(&port, "port", "p", "", "Port to listen on (overrides config and PORT)")
	rootCmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func runServer(cmd *cobra.Command, args []string) error {
	// .env is optional
	_ = godotenv.Load()

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if port != "" {
		cfg.Server.Port = port
	}
	if verbose {
		cfg.Log.Level = "debug"
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger, err := logging.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	model, err := newModelClient(ctx, cfg)
	if err != nil {
		return err
	}
	defer model.Close()

	queueCfg := cfg.ThrottleConfig()
	queueCfg.Retry.Logger = logger.Named("retry")
	queue := throttle.New(
		gateway.WithTimeout(model, cfg.GetCallTimeout()),
		queueCfg,
		logger.Named("throttle"),
	)
	defer queue.Close()

	simCfg := cfg.SimulationConfig()
	simCfg.Retry.Logger = logger.Named("retry")
	sim := simulation.New(queue, model, simCfg, logger.Named("simulation"))

	var runs api.RunLog
	if cfg.History.DBPath != "" {
		store, err := history.NewStore(cfg.History.DBPath)
		if err != nil {
			return fmt.Errorf("failed to open simulation history: %w", err)
		}
		defer store.Close()
		runs = store
		logger.Info("Simulation history enabled", zap.String("db_path", cfg.History.DBPath))
	}

	card, err := agent.LoadCardInfo()
	if err != nil {
		return err
	}

	if !verbose {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery(), api.RequestLoggingMiddleware(logger.Named("http")))

	api.NewHandler(sim, runs, logger.Named("api")).Register(router)

	a2aHandler := a2a.NewA2AHandler(sim, logger.Named("a2a"))
	router.GET("/.well-known/agent.json", a2aHandler.ServeAgentCard)
	router.POST("/a2a/simulator", a2aHandler.HandleSimulator)

	srv := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: router,
	}

	logger.Info("Market Simulation Agent starting",
		zap.String("agent", card.Name),
		zap.String("version", card.Version),
		zap.String("port", cfg.Server.Port),
		zap.String("backend", cfg.Model.Backend),
		zap.String("model", cfg.Model.Name))

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func newModelClient(ctx context.Context, cfg *config.Config) (gateway.Client, error) {
	switch cfg.Model.Backend {
	case config.BackendGenAI:
		return gateway.NewGenAIClient(ctx, cfg.GeminiConfig())
	default:
		return gateway.NewGeminiClient(ctx, cfg.GeminiConfig())
	}
}
