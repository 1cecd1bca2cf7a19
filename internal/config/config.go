package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
	"github.com/twcfin/invoice-pipeline/pkg/utils"
)

// Config holds all application configuration
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Storage  StorageConfig  `mapstructure:"storage"`
	Pipeline PipelineConfig `mapstructure:"pipeline"`
	OpenAI   OpenAIConfig   `mapstructure:"openai"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Report   ReportConfig   `mapstructure:"report"`
	Logger   LoggerConfig   `mapstructure:"logger"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

// StorageConfig selects and configures the object-store backend.
type StorageConfig struct {
	Backend string             `mapstructure:"backend"` // local or oss
	Local   LocalStorageConfig `mapstructure:"local"`
	OSS     OSSStorageConfig   `mapstructure:"oss"`
}

// LocalStorageConfig holds filesystem-backed store paths, one directory per
// store. Useful for development and tests.
type LocalStorageConfig struct {
	MailDir     string `mapstructure:"mail_dir"`
	ArtifactDir string `mapstructure:"artifact_dir"`
	ResultDir   string `mapstructure:"result_dir"`
}

// OSSStorageConfig holds Aliyun OSS settings. The three stores share one
// bucket set apart by prefixes, or use distinct buckets.
type OSSStorageConfig struct {
	Endpoint        string `mapstructure:"endpoint"`
	Region          string `mapstructure:"region"`
	AccessKeyID     string `mapstructure:"access_key_id"`
	AccessKeySecret string `mapstructure:"access_key_secret"`
	MailBucket      string `mapstructure:"mail_bucket"`
	MailPrefix      string `mapstructure:"mail_prefix"`
	ArtifactBucket  string `mapstructure:"artifact_bucket"`
	ArtifactPrefix  string `mapstructure:"artifact_prefix"`
	ResultBucket    string `mapstructure:"result_bucket"`
	ResultPrefix    string `mapstructure:"result_prefix"`
}

// PipelineConfig holds processing behavior settings.
type PipelineConfig struct {
	Timezone string `mapstructure:"timezone"`
}

// OpenAIConfig holds OpenAI API configuration
type OpenAIConfig struct {
	APIKey  string        `mapstructure:"api_key"`
	Model   string        `mapstructure:"model"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// RedisConfig holds the optional distributed-lock backend. When disabled,
// ledger writes are serialized in-process only.
type RedisConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// ReportConfig holds daily-report delivery settings.
type ReportConfig struct {
	SMTPHost     string   `mapstructure:"smtp_host"`
	SMTPPort     int      `mapstructure:"smtp_port"`
	SMTPUsername string   `mapstructure:"smtp_username"`
	SMTPPassword string   `mapstructure:"smtp_password"`
	Sender       string   `mapstructure:"sender"`
	Recipients   []string `mapstructure:"recipients"`
}

// LoggerConfig holds logger configuration
type LoggerConfig struct {
	Level      string `mapstructure:"level"`
	OutputPath string `mapstructure:"output_path"`
	Format     string `mapstructure:"format"`
}

// Load loads configuration from file and environment variables
func Load(configPath string) (*Config, error) {
	viper.SetConfigFile(configPath)
	viper.SetConfigType("yaml")
	viper.AutomaticEnv()

	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	bindEnvVars()

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// setDefaults sets default configuration values
func setDefaults() {
	// Server defaults
	viper.SetDefault("server.host", "0.0.0.0")
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.read_timeout", 30*time.Second)
	viper.SetDefault("server.write_timeout", 30*time.Second)

	// Storage defaults
	viper.SetDefault("storage.backend", "local")
	viper.SetDefault("storage.local.mail_dir", "data/mail")
	viper.SetDefault("storage.local.artifact_dir", "data/artifacts")
	viper.SetDefault("storage.local.result_dir", "data/results")

	// Pipeline defaults
	viper.SetDefault("pipeline.timezone", "America/Chicago")

	// OpenAI defaults
	viper.SetDefault("openai.model", "gpt-4o-mini")
	viper.SetDefault("openai.timeout", 60*time.Second)

	// Redis defaults
	viper.SetDefault("redis.enabled", false)
	viper.SetDefault("redis.addr", "localhost:6379")
	viper.SetDefault("redis.db", 0)

	// Report defaults
	viper.SetDefault("report.smtp_port", 587)

	// Logger defaults
	viper.SetDefault("logger.level", "info")
	viper.SetDefault("logger.output_path", "stdout")
	viper.SetDefault("logger.format", "json")
}

// bindEnvVars binds environment variables to configuration
func bindEnvVars() {
	// Sensitive credentials from environment
	viper.BindEnv("openai.api_key", "OPENAI_API_KEY")
	viper.BindEnv("storage.oss.access_key_id", "OSS_ACCESS_KEY_ID")
	viper.BindEnv("storage.oss.access_key_secret", "OSS_ACCESS_KEY_SECRET")
	viper.BindEnv("redis.password", "REDIS_PASSWORD")
	viper.BindEnv("report.smtp_username", "SMTP_USERNAME")
	viper.BindEnv("report.smtp_password", "SMTP_PASSWORD")
}

// Validate validates the configuration
func (c *Config) Validate() error {
	switch c.Storage.Backend {
	case "local":
		if c.Storage.Local.MailDir == "" || c.Storage.Local.ArtifactDir == "" || c.Storage.Local.ResultDir == "" {
			return fmt.Errorf("storage.local requires mail_dir, artifact_dir and result_dir")
		}
	case "oss":
		if c.Storage.OSS.Endpoint == "" {
			return fmt.Errorf("storage.oss.endpoint is required")
		}
		if c.Storage.OSS.AccessKeyID == "" || c.Storage.OSS.AccessKeySecret == "" {
			return fmt.Errorf("storage.oss credentials are required")
		}
		if c.Storage.OSS.MailBucket == "" || c.Storage.OSS.ArtifactBucket == "" || c.Storage.OSS.ResultBucket == "" {
			return fmt.Errorf("storage.oss requires mail_bucket, artifact_bucket and result_bucket")
		}
	default:
		return fmt.Errorf("storage.backend must be local or oss, got %q", c.Storage.Backend)
	}

	if c.OpenAI.APIKey == "" {
		return fmt.Errorf("openai.api_key is required")
	}

	if _, err := time.LoadLocation(c.Pipeline.Timezone); err != nil {
		return fmt.Errorf("invalid pipeline.timezone %q: %w", c.Pipeline.Timezone, err)
	}

	if c.Redis.Enabled && c.Redis.Addr == "" {
		return fmt.Errorf("redis.addr is required when redis is enabled")
	}

	if c.Report.Sender != "" {
		if len(c.Report.Recipients) == 0 {
			return fmt.Errorf("report.recipients is required when report.sender is set")
		}
		if err := utils.ValidateEmail(c.Report.Sender); err != nil {
			return fmt.Errorf("invalid report.sender: %w", err)
		}
		for _, recipient := range c.Report.Recipients {
			if err := utils.ValidateEmail(recipient); err != nil {
				return fmt.Errorf("invalid report.recipients entry: %w", err)
			}
		}
	}

	return nil
}
