package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	envPrefix            = "AIDIARY"
	defaultHTTPAddress   = "0.0.0.0:8080"
	defaultDatabasePath  = "aidiary.db"
	defaultLogLevel      = "info"
	defaultChatModel     = "ketyia1111"
	defaultImageModel    = "dall-e-3"
	defaultBlobContainer = "images"
	defaultStageTimeout  = 75
)

// AppConfig captures runtime configuration for the API server.
type AppConfig struct {
	HTTPAddress       string
	DatabasePath      string
	LogLevel          string
	OpenAIEndpoint    string
	OpenAIAPIKey      string
	OpenAIAPIVersion  string
	ChatDeployment    string
	ImageDeployment   string
	LanguageEndpoint  string
	LanguageAPIKey    string
	BlobConnectionStr string
	BlobContainer     string
	StageTimeout      time.Duration
}

// NewViper returns a viper instance with defaults and env bindings configured.
func NewViper() *viper.Viper {
	configViper := viper.New()
	ApplyDefaults(configViper)
	return configViper
}

// ApplyDefaults configures defaults and env bindings on the provided viper instance.
func ApplyDefaults(configViper *viper.Viper) {
	configViper.SetEnvPrefix(envPrefix)
	configViper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	configViper.AutomaticEnv()

	configViper.SetDefault("http.address", defaultHTTPAddress)
	configViper.SetDefault("database.path", defaultDatabasePath)
	configViper.SetDefault("log.level", defaultLogLevel)
	configViper.SetDefault("openai.chat_deployment", defaultChatModel)
	configViper.SetDefault("openai.image_deployment", defaultImageModel)
	configViper.SetDefault("blob.container", defaultBlobContainer)
	configViper.SetDefault("pipeline.stage_timeout_seconds", defaultStageTimeout)
}

// Load parses runtime configuration from viper.
func Load(configViper *viper.Viper) (AppConfig, error) {
	cfg := AppConfig{
		HTTPAddress:       configViper.GetString("http.address"),
		DatabasePath:      configViper.GetString("database.path"),
		LogLevel:          configViper.GetString("log.level"),
		OpenAIEndpoint:    configViper.GetString("openai.endpoint"),
		OpenAIAPIKey:      configViper.GetString("openai.api_key"),
		OpenAIAPIVersion:  configViper.GetString("openai.api_version"),
		ChatDeployment:    configViper.GetString("openai.chat_deployment"),
		ImageDeployment:   configViper.GetString("openai.image_deployment"),
		LanguageEndpoint:  configViper.GetString("language.endpoint"),
		LanguageAPIKey:    configViper.GetString("language.api_key"),
		BlobConnectionStr: configViper.GetString("blob.connection_string"),
		BlobContainer:     configViper.GetString("blob.container"),
		StageTimeout:      time.Duration(configViper.GetInt("pipeline.stage_timeout_seconds")) * time.Second,
	}

	if err := cfg.validate(); err != nil {
		return AppConfig{}, err
	}

	return cfg, nil
}

func (c AppConfig) validate() error {
	if strings.TrimSpace(c.DatabasePath) == "" {
		return fmt.Errorf("database.path is required")
	}
	if strings.TrimSpace(c.OpenAIEndpoint) == "" {
		return fmt.Errorf("openai.endpoint is required")
	}
	if strings.TrimSpace(c.OpenAIAPIKey) == "" {
		return fmt.Errorf("openai.api_key is required")
	}
	if strings.TrimSpace(c.OpenAIAPIVersion) == "" {
		return fmt.Errorf("openai.api_version is required")
	}
	if strings.TrimSpace(c.LanguageEndpoint) == "" {
		return fmt.Errorf("language.endpoint is required")
	}
	if strings.TrimSpace(c.LanguageAPIKey) == "" {
		return fmt.Errorf("language.api_key is required")
	}
	if strings.TrimSpace(c.BlobConnectionStr) == "" {
		return fmt.Errorf("blob.connection_string is required")
	}
	if strings.TrimSpace(c.BlobContainer) == "" {
		return fmt.Errorf("blob.container is required")
	}
	if c.StageTimeout <= 0 {
		return fmt.Errorf("pipeline.stage_timeout_seconds must be positive")
	}
	return nil
}
