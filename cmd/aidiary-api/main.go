package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ketyia/aidiary/internal/artifact"
	"github.com/ketyia/aidiary/internal/config"
	"github.com/ketyia/aidiary/internal/database"
	"github.com/ketyia/aidiary/internal/diary"
	"github.com/ketyia/aidiary/internal/logging"
	"github.com/ketyia/aidiary/internal/pipeline"
	"github.com/ketyia/aidiary/internal/sentiment"
	"github.com/ketyia/aidiary/internal/server"
	"github.com/ketyia/aidiary/internal/synthesis"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

var (
	cfgFile string
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "aidiary-api",
		Short: "AI diary backend service",
		PreRunE: func(cmd *cobra.Command, args []string) error {
			return initConfig()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context())
		},
	}

	setupFlags(rootCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func setupFlags(cmd *cobra.Command) {
	config.ApplyDefaults(viper.GetViper())
	defaults := config.NewViper()
	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "Path to configuration file")
	cmd.PersistentFlags().String("http-address", defaults.GetString("http.address"), "HTTP listen address")
	cmd.PersistentFlags().String("database-path", defaults.GetString("database.path"), "SQLite database path")
	cmd.PersistentFlags().String("log-level", defaults.GetString("log.level"), "Log level (debug, info, warn, error)")
	cmd.PersistentFlags().String("openai-endpoint", defaults.GetString("openai.endpoint"), "Azure OpenAI resource endpoint")
	cmd.PersistentFlags().String("openai-api-version", defaults.GetString("openai.api_version"), "Azure OpenAI API version")
	cmd.PersistentFlags().String("chat-deployment", defaults.GetString("openai.chat_deployment"), "Chat completion deployment name")
	cmd.PersistentFlags().String("image-deployment", defaults.GetString("openai.image_deployment"), "Image generation deployment name")
	cmd.PersistentFlags().String("language-endpoint", defaults.GetString("language.endpoint"), "Azure AI Language endpoint")
	cmd.PersistentFlags().String("blob-container", defaults.GetString("blob.container"), "Blob container for generated images")
	cmd.PersistentFlags().Int("stage-timeout-seconds", defaults.GetInt("pipeline.stage_timeout_seconds"), "Upper bound per pipeline stage in seconds")

	bindFlag(cmd, "http.address", "http-address")
	bindFlag(cmd, "database.path", "database-path")
	bindFlag(cmd, "log.level", "log-level")
	bindFlag(cmd, "openai.endpoint", "openai-endpoint")
	bindFlag(cmd, "openai.api_version", "openai-api-version")
	bindFlag(cmd, "openai.chat_deployment", "chat-deployment")
	bindFlag(cmd, "openai.image_deployment", "image-deployment")
	bindFlag(cmd, "language.endpoint", "language-endpoint")
	bindFlag(cmd, "blob.container", "blob-container")
	bindFlag(cmd, "pipeline.stage_timeout_seconds", "stage-timeout-seconds")
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

	stagingStore, err := diary.NewStagingStore(db)
	if err != nil {
		return err
	}
	recordRepository, err := diary.NewRepository(db)
	if err != nil {
		return err
	}

	synthesisClient, err := synthesis.NewClient(synthesis.ClientConfig{
		Endpoint:        appConfig.OpenAIEndpoint,
		APIKey:          appConfig.OpenAIAPIKey,
		APIVersion:      appConfig.OpenAIAPIVersion,
		ChatDeployment:  appConfig.ChatDeployment,
		ImageDeployment: appConfig.ImageDeployment,
	})
	if err != nil {
		return err
	}

	sentimentClient, err := sentiment.NewClient(sentiment.ClientConfig{
		Endpoint: appConfig.LanguageEndpoint,
		APIKey:   appConfig.LanguageAPIKey,
	})
	if err != nil {
		return err
	}

	blobClient, err := artifact.NewBlobServiceClient(appConfig.BlobConnectionStr)
	if err != nil {
		return err
	}
	artifactStore, err := artifact.NewStore(artifact.StoreConfig{
		Uploader:  blobClient,
		Container: appConfig.BlobContainer,
	})
	if err != nil {
		return err
	}

	namer, err := artifact.NewNamer()
	if err != nil {
		return err
	}

	pipelineService, err := pipeline.NewService(pipeline.ServiceConfig{
		Staging:      stagingStore,
		Records:      recordRepository,
		Text:         synthesisClient,
		Sentiment:    sentimentClient,
		Images:       synthesisClient,
		Namer:        namer,
		Store:        artifactStore,
		Clock:        time.Now,
		StageTimeout: appConfig.StageTimeout,
		Logger:       logger,
	})
	if err != nil {
		return err
	}

	handler, err := server.NewHTTPHandler(server.Dependencies{
		Pipeline: pipelineService,
		Records:  recordRepository,
		Logger:   logger,
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
