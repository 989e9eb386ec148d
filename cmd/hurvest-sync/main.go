package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/kyris31/hurvest-sub000/internal/auth"
	"github.com/kyris31/hurvest-sub000/internal/config"
	"github.com/kyris31/hurvest-sub000/internal/database"
	"github.com/kyris31/hurvest-sub000/internal/localdb"
	"github.com/kyris31/hurvest-sub000/internal/logging"
	"github.com/kyris31/hurvest-sub000/internal/remote"
	"github.com/kyris31/hurvest-sub000/internal/server"
	"github.com/kyris31/hurvest-sub000/internal/syncer"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

var (
	cfgFile string
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "hurvest-sync",
		Short: "Offline-first replication for Hurvest farm records",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return initConfig()
		},
	}
	setupFlags(rootCmd)

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the central store API",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context())
		},
	}

	var watch bool
	syncCmd := &cobra.Command{
		Use:   "sync",
		Short: "Reconcile the local replica with the central store",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSync(cmd.Context(), watch)
		},
	}
	syncCmd.Flags().BoolVar(&watch, "watch", false, "Keep running and sync on the configured interval")

	rootCmd.AddCommand(serveCmd, syncCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func setupFlags(cmd *cobra.Command) {
	config.ApplyDefaults(viper.GetViper())
	defaults := config.NewViper()
	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "Path to configuration file")
	cmd.PersistentFlags().String("http-address", defaults.GetString("http.address"), "HTTP listen address (serve)")
	cmd.PersistentFlags().String("database-path", defaults.GetString("database.path"), "SQLite database path")
	cmd.PersistentFlags().String("log-level", defaults.GetString("log.level"), "Log level (debug, info, warn, error)")
	cmd.PersistentFlags().String("signing-secret", "", "Token signing secret (serve, overrides env)")
	cmd.PersistentFlags().String("sync-key", "", "Shared sync key accepted by the server (serve)")
	cmd.PersistentFlags().String("remote-url", defaults.GetString("remote.base_url"), "Central store base URL (sync)")
	cmd.PersistentFlags().String("remote-sync-key", "", "Shared sync key presented to the server (sync)")
	cmd.PersistentFlags().String("device-id", defaults.GetString("device.id"), "Stable identifier for this replica")
	cmd.PersistentFlags().Int("sync-interval-minutes", defaults.GetInt("sync.interval_minutes"), "Automatic sync interval for --watch")

	bindFlag(cmd, "http.address", "http-address")
	bindFlag(cmd, "database.path", "database-path")
	bindFlag(cmd, "log.level", "log-level")
	bindFlag(cmd, "auth.signing_secret", "signing-secret")
	bindFlag(cmd, "auth.sync_key", "sync-key")
	bindFlag(cmd, "remote.base_url", "remote-url")
	bindFlag(cmd, "remote.sync_key", "remote-sync-key")
	bindFlag(cmd, "device.id", "device-id")
	bindFlag(cmd, "sync.interval_minutes", "sync-interval-minutes")
}

func bindFlag(cmd *cobra.Command, key, flag string) {
	if err := viper.BindPFlag(key, cmd.PersistentFlags().Lookup(flag)); err != nil {
		panic(err)
	}
}

func initConfig() error {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	}

	if err := viper.ReadInConfig(); err != nil {
		var configNotFound viper.ConfigFileNotFoundError
		if cfgFile != "" && errors.As(err, &configNotFound) {
			return err
		}
	}

	return nil
}

func runServer(ctx context.Context) error {
	appConfig, err := config.Load(viper.GetViper())
	if err != nil {
		return err
	}
	if err := appConfig.ValidateServer(); err != nil {
		return err
	}

	logger, err := logging.NewLogger(appConfig.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck

	db, err := database.OpenSQLite(appConfig.DatabasePath, logger)
	if err != nil {
		return err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	defer sqlDB.Close()

	store, err := server.NewStore(server.StoreConfig{
		Database: db,
		Logger:   logger,
	})
	if err != nil {
		return err
	}

	tokenManager := auth.NewTokenIssuer(auth.TokenIssuerConfig{
		SigningSecret: []byte(appConfig.AuthSigningSecret),
	})

	handler, err := server.NewHTTPHandler(server.Dependencies{
		Store:        store,
		TokenManager: tokenManager,
		SyncKey:      appConfig.AuthSyncKey,
		Logger:       logger,
	})
	if err != nil {
		return err
	}

	httpServer := &http.Server{
		Addr:    appConfig.HTTPAddress,
		Handler: handler,
	}

	signalCtx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server starting", zap.String("address", appConfig.HTTPAddress))
		err := httpServer.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-signalCtx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}

func runSync(ctx context.Context, watch bool) error {
	appConfig, err := config.Load(viper.GetViper())
	if err != nil {
		return err
	}
	if err := appConfig.ValidateReplica(); err != nil {
		return err
	}

	logger, err := logging.NewLogger(appConfig.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck

	db, err := localdb.Open(appConfig.DatabasePath, logger)
	if err != nil {
		return err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	defer sqlDB.Close()

	client, err := remote.NewClient(remote.Config{
		BaseURL:  appConfig.RemoteBaseURL,
		SyncKey:  appConfig.RemoteSyncKey,
		DeviceID: appConfig.DeviceID,
		Logger:   logger,
	})
	if err != nil {
		return err
	}

	engine, err := syncer.NewEngine(syncer.EngineConfig{
		Database: db,
		Remote:   client,
		Logger:   logger,
	})
	if err != nil {
		return err
	}

	signalCtx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if !watch {
		summary, err := engine.TriggerManualSync(signalCtx)
		if err != nil {
			return err
		}
		reportSummary(logger, summary)
		if len(summary.Errors()) > 0 {
			return errors.New("sync finished with errors")
		}
		return nil
	}

	// Watch mode: one immediate cycle, then the interval timer until a
	// shutdown signal arrives.
	summary, err := engine.Synchronize(signalCtx)
	if err != nil {
		return err
	}
	reportSummary(logger, summary)

	scheduler := syncer.NewScheduler(engine, logger)
	scheduler.Start(appConfig.SyncInterval,
		func(status string) {
			logger.Info("sync completed", zap.String("status", status))
		},
		func(recordErrors []syncer.RecordError) {
			for _, recordError := range recordErrors {
				logger.Warn("record rejected during sync",
					zap.String("table", recordError.Table),
					zap.String("record_id", recordError.RecordID),
					zap.String("code", recordError.Code),
					zap.String("message", recordError.Message))
			}
		})
	defer scheduler.Stop()

	<-signalCtx.Done()
	return nil
}

func reportSummary(logger *zap.Logger, summary syncer.Summary) {
	logger.Info("sync summary", zap.String("status", summary.String()))
	for _, recordError := range summary.Errors() {
		logger.Warn("record rejected during sync",
			zap.String("table", recordError.Table),
			zap.String("record_id", recordError.RecordID),
			zap.String("code", recordError.Code),
			zap.String("message", recordError.Message))
	}
}
