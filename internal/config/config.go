// Package config loads the gateway runtime configuration from YAML and
// environment variables.
package config

import (
	"fmt"
	"os"
	"reflect"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
)

// Config captures the runtime configuration for the gateway service.
type Config struct {
	Server        ServerConfig        `mapstructure:"server"`
	Providers     ProviderConfig      `mapstructure:"providers"`
	Audio         AudioConfig         `mapstructure:"audio"`
	Observability ObservabilityConfig `mapstructure:"observability"`
	Health        HealthConfig        `mapstructure:"health"`
	ModelCatalog  []ModelCatalogEntry `mapstructure:"model_catalog"`
}

type ServerConfig struct {
	ListenAddr            string        `mapstructure:"listen_addr"`
	BodyLimitMB           int           `mapstructure:"body_limit_mb"`
	SyncTimeout           time.Duration `mapstructure:"sync_timeout"`
	StreamMaxDuration     time.Duration `mapstructure:"stream_max_duration"`
	GracefulShutdownDelay time.Duration `mapstructure:"graceful_shutdown_delay"`
}

type ProviderConfig struct {
	ElevenLabsKey string `mapstructure:"elevenlabs_key"`
}

type AudioConfig struct {
	MaxUploadMB int `mapstructure:"max_upload_mb"`
}

type ObservabilityConfig struct {
	OTLPEndpoint  string `mapstructure:"otlp_endpoint"`
	EnableOTLP    bool   `mapstructure:"enable_otlp"`
	EnableMetrics bool   `mapstructure:"enable_metrics"`
}

type HealthConfig struct {
	CheckInterval time.Duration `mapstructure:"check_interval"`
	Cooldown      time.Duration `mapstructure:"cooldown"`
}

// ModelCatalogEntry describes one backend deployment serving a public alias.
type ModelCatalogEntry struct {
	Alias         string            `mapstructure:"alias"`
	Provider      string            `mapstructure:"provider"`
	ProviderModel string            `mapstructure:"provider_model"`
	Modalities    []string          `mapstructure:"modalities"`
	Enabled       *bool             `mapstructure:"enabled"`
	APIKey        string            `mapstructure:"api_key"`
	Weight        int               `mapstructure:"weight"`
	Metadata      map[string]string `mapstructure:"metadata"`
}

func (e ModelCatalogEntry) IsEnabled() bool {
	if e.Enabled == nil {
		return true
	}
	return *e.Enabled
}

type Options struct {
	ConfigFile string
	EnvFile    string
}

// Load returns the merged configuration sourced from YAML and environment
// variables.
func Load(opts Options) (*Config, error) {
	if opts.EnvFile != "" {
		_ = godotenv.Load(opts.EnvFile)
	} else {
		_ = godotenv.Load()
	}

	v := viper.New()
	setDefaults(v)

	explicitFile := false
	if opts.ConfigFile != "" {
		v.SetConfigFile(opts.ConfigFile)
		explicitFile = true
	} else {
		if cfg := os.Getenv("SPEECHGATE_CONFIG_FILE"); cfg != "" {
			v.SetConfigFile(cfg)
			explicitFile = true
		}
	}

	if !explicitFile {
		// Allow standard lookup locations when no explicit file is provided.
		v.SetConfigName("speechgate")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	v.SetEnvPrefix("SPEECHGATE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg, viper.DecodeHook(timeStringToDurationHook())); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate ensures required values are set.
func (c *Config) Validate() error {
	if c.Server.ListenAddr == "" {
		return fmt.Errorf("server.listen_addr must be provided")
	}
	if c.Audio.MaxUploadMB <= 0 {
		return fmt.Errorf("audio.max_upload_mb must be > 0")
	}

	seen := make(map[string]map[string]bool, len(c.ModelCatalog))
	for i, entry := range c.ModelCatalog {
		if strings.TrimSpace(entry.Alias) == "" {
			return fmt.Errorf("model_catalog[%d].alias must be provided", i)
		}
		if strings.TrimSpace(entry.Provider) == "" {
			return fmt.Errorf("model_catalog[%d].provider must be provided", i)
		}
		deployment := entry.ProviderModel
		if entry.Metadata != nil && entry.Metadata["deployment"] != "" {
			deployment = entry.Metadata["deployment"]
		}
		if seen[entry.Alias][deployment] {
			return fmt.Errorf("model_catalog[%d]: duplicate deployment %q for alias %q", i, deployment, entry.Alias)
		}
		if seen[entry.Alias] == nil {
			seen[entry.Alias] = make(map[string]bool)
		}
		seen[entry.Alias][deployment] = true
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.listen_addr", ":8080")
	v.SetDefault("server.body_limit_mb", 50)
	v.SetDefault("server.sync_timeout", "120s")
	v.SetDefault("server.stream_max_duration", "300s")
	v.SetDefault("server.graceful_shutdown_delay", "5s")

	// Registered so AutomaticEnv can override it during Unmarshal.
	v.SetDefault("providers.elevenlabs_key", "")

	v.SetDefault("audio.max_upload_mb", 50)

	v.SetDefault("observability.enable_otlp", false)
	v.SetDefault("observability.enable_metrics", true)
	v.SetDefault("observability.otlp_endpoint", "http://localhost:4317")

	v.SetDefault("health.check_interval", "60s")
	v.SetDefault("health.cooldown", "5m")
}

func timeStringToDurationHook() mapstructure.DecodeHookFunc {
	return func(from reflect.Type, to reflect.Type, data interface{}) (interface{}, error) {
		if to != reflect.TypeOf(time.Duration(0)) {
			return data, nil
		}

		switch v := data.(type) {
		case time.Duration:
			return v, nil
		case string:
			d, err := time.ParseDuration(v)
			if err != nil {
				return nil, err
			}
			return d, nil
		default:
			return nil, fmt.Errorf("cannot decode %T into time.Duration", data)
		}
	}
}
