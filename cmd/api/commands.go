package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"linklist-backend/infrastructure/config"
	"linklist-backend/infrastructure/di"
	"linklist-backend/pkg/auth"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// Set at build time with -ldflags "-X main.version=..."
var (
	version = "dev"
	commit  = "none"
)

var (
	configFile     string
	listenAddr     string
	storageBackend string

	tokenUser  string
	tokenName  string
	tokenRoles string
	tokenTTL   time.Duration

	rootCmd = &cobra.Command{
		Use:   "linklist-api",
		Short: "Votes, comments and notifications for linklist",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			// the watcher reloads through LoadConfig, which reads CONFIG_FILE
			if configFile != "" {
				_ = os.Setenv("CONFIG_FILE", configFile)
			}
		},
	}

	serveCmd = &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP and WebSocket server",
		RunE:  runServe,
	}

	versionCmd = &cobra.Command{
		Use:   "version",
		Short: "Print the build version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "linklist-api %s (%s)\n", version, commit)
		},
	}

	tokenCmd = &cobra.Command{
		Use:   "token",
		Short: "Issue a development token signed with JWT_SECRET",
		RunE:  runToken,
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "YAML config file, watched for changes")

	serveCmd.Flags().StringVar(&listenAddr, "addr", "", "listen address, overrides SERVER_ADDRESS")
	serveCmd.Flags().StringVar(&storageBackend, "storage", "", "storage backend (dynamodb or badger), overrides STORAGE_BACKEND")

	tokenCmd.Flags().StringVar(&tokenUser, "user", "", "user id (sub claim)")
	tokenCmd.Flags().StringVar(&tokenName, "name", "", "username claim")
	tokenCmd.Flags().StringVar(&tokenRoles, "roles", "", "comma separated roles")
	tokenCmd.Flags().DurationVar(&tokenTTL, "ttl", 24*time.Hour, "token lifetime")
	_ = tokenCmd.MarkFlagRequired("user")

	rootCmd.AddCommand(serveCmd, versionCmd, tokenCmd)
}

func loadConfig() (*config.Config, error) {
	if storageBackend != "" {
		_ = os.Setenv("STORAGE_BACKEND", storageBackend)
	}
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	if listenAddr != "" {
		cfg.ServerAddress = listenAddr
	}
	// this binary always holds its own sockets
	cfg.IsLambda = false
	return cfg, nil
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	container, cleanup, err := di.InitializeContainer(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize container: %w", err)
	}
	defer cleanup()
	logger := container.Logger.Logger
	defer func() { _ = logger.Sync() }()

	if cfg.ConfigFile != "" {
		watcher, err := config.NewWatcher(cfg, logger)
		if err != nil {
			logger.Warn("Config hot reload disabled", zap.Error(err))
		} else {
			defer watcher.Stop()
			watcher.OnChange(func(next *config.Config) {
				container.Logger.SetLevel(next.LogLevel)
				container.Limiter.SetLimit(next.RateLimitRPS, next.RateLimitBurst)
				logger.Info("Applied reloaded configuration",
					zap.String("logLevel", next.LogLevel),
					zap.Float64("rateLimitRPS", next.RateLimitRPS),
					zap.Int("rateLimitBurst", next.RateLimitBurst),
				)
			})
		}
	}

	go container.Limiter.RunCleanup(ctx, 10*time.Minute)

	srv := &http.Server{
		Addr:         cfg.ServerAddress,
		Handler:      container.Router.Setup(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Starting server",
			zap.String("address", cfg.ServerAddress),
			zap.String("environment", cfg.Environment),
			zap.String("storage", cfg.StorageBackend),
			zap.String("version", version),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
	case <-ctx.Done():
	}

	logger.Info("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	// hijacked WebSocket connections are not closed by Shutdown
	container.Registry.Close()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server shutdown error", zap.Error(err))
	}

	logger.Info("Server stopped")
	return nil
}

func runToken(cmd *cobra.Command, args []string) error {
	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		return errors.New("JWT_SECRET must be set")
	}

	var roles []string
	if tokenRoles != "" {
		roles = strings.Split(tokenRoles, ",")
	}
	token, err := auth.NewJWTGenerator(secret, os.Getenv("JWT_ISSUER"), tokenTTL).GenerateToken(tokenUser, tokenName, roles)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), token)
	return nil
}
