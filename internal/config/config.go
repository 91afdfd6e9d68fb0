package config

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/storage"
	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// BackendConfig describes one registered storage backend.
type BackendConfig struct {
	BucketName  string `yaml:"bucket_name"`
	Platform    string `yaml:"platform"`
	Region      string `yaml:"region"`
	MultiRegion bool   `yaml:"multi_region"`
}

// ExecutorConfig tunes the migration worker pool.
type ExecutorConfig struct {
	Workers      int           `yaml:"workers"`
	MaxRetries   int           `yaml:"max_retries"`
	RetryBackoff time.Duration `yaml:"retry_backoff"`
	PollInterval time.Duration `yaml:"poll_interval"`
}

// Config holds the application configuration
type Config struct {
	LogLevel string `yaml:"log_level"`
	// AwsConfig: AWS SDK uses a shared configuration object that contains
	// credentials, region, retry policies, etc. Multiple AWS services
	// (S3, DynamoDB, etc.) are created from this single config.
	AwsConfig aws.Config
	// GcsClient: Google Cloud SDK uses individual service clients that
	// handle their own configuration internally via environment variables,
	// service account files, or metadata service. No shared config needed.
	GcsClient *storage.Client

	RulesTable    string `yaml:"rules_table"`
	PoliciesTable string `yaml:"policies_table"`
	TasksTable    string `yaml:"tasks_table"`
	BatchesTable  string `yaml:"batches_table"`

	DefaultStrategy string                   `yaml:"default_strategy"`
	Backends        map[string]BackendConfig `yaml:"backends"`
	Executor        ExecutorConfig           `yaml:"executor"`
	BackendTagKey   string                   `yaml:"backend_tag_key"`
	MetricsFile     string                   `yaml:"metrics_file"`
}

// LoadConfig loads configuration from config.yaml, environment variables, or CLI flags
// Priority: CLI flags > Environment variables > config.yaml > defaults
func LoadConfig(configPath string, rootCmd *cobra.Command) (*Config, error) {
	if err := setupViper(configPath, rootCmd); err != nil {
		return nil, err
	}

	awsConfig, err := loadAWSConfig()
	if err != nil {
		return nil, err
	}

	gcsClient, err := loadGCSClient()
	if err != nil {
		return nil, err
	}

	return &Config{
		LogLevel:        viper.GetString("log_level"),
		AwsConfig:       awsConfig,
		GcsClient:       gcsClient,
		RulesTable:      viper.GetString("rules_table"),
		PoliciesTable:   viper.GetString("policies_table"),
		TasksTable:      viper.GetString("tasks_table"),
		BatchesTable:    viper.GetString("batches_table"),
		DefaultStrategy: viper.GetString("default_strategy"),
		Backends:        parseBackends(),
		Executor: ExecutorConfig{
			Workers:      viper.GetInt("executor.workers"),
			MaxRetries:   viper.GetInt("executor.max_retries"),
			RetryBackoff: viper.GetDuration("executor.retry_backoff"),
			PollInterval: viper.GetDuration("executor.poll_interval"),
		},
		BackendTagKey: viper.GetString("backend_tag_key"),
		MetricsFile:   viper.GetString("metrics_file"),
	}, nil
}

// setupViper configures Viper with defaults, paths, and bindings
func setupViper(configPath string, rootCmd *cobra.Command) error {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")

	if configPath != "" {
		viper.SetConfigFile(configPath)
	}

	setDefaults()
	viper.AutomaticEnv()

	if rootCmd != nil {
		if err := viper.BindPFlags(rootCmd.PersistentFlags()); err != nil {
			return fmt.Errorf("failed to bind flags: %w", err)
		}
	}

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return fmt.Errorf("error reading config file: %w", err)
		}
	}

	return nil
}

// setDefaults sets default configuration values
func setDefaults() {
	viper.SetDefault("log_level", "info")
	viper.SetDefault("rules_table", "routing_rules")
	viper.SetDefault("policies_table", "migration_policies")
	viper.SetDefault("tasks_table", "migration_tasks")
	viper.SetDefault("batches_table", "migration_batches")
	viper.SetDefault("default_strategy", "balanced")
	viper.SetDefault("backend_tag_key", "zroute:backend")
	viper.SetDefault("metrics_file", "metrics.json")
	viper.SetDefault("executor.workers", 4)
	viper.SetDefault("executor.max_retries", 3)
	viper.SetDefault("executor.retry_backoff", "2s")
	viper.SetDefault("executor.poll_interval", "500ms")
	viper.SetDefault("backends", map[string]interface{}{})
}

// loadAWSConfig loads AWS SDK configuration
func loadAWSConfig() (aws.Config, error) {
	cfg, err := awsconfig.LoadDefaultConfig(context.Background())
	if err != nil {
		return aws.Config{}, fmt.Errorf("unable to load AWS SDK config: %v", err)
	}
	return cfg, nil
}

// loadGCSClient loads Google Cloud Storage client
func loadGCSClient() (*storage.Client, error) {
	client, err := storage.NewClient(context.Background())
	if err != nil {
		return nil, fmt.Errorf("unable to create GCS client: %v", err)
	}
	return client, nil
}

// parseBackends parses backend configuration from Viper
func parseBackends() map[string]BackendConfig {
	backends := make(map[string]BackendConfig)
	raw := viper.GetStringMap("backends")

	for name, value := range raw {
		entry, ok := value.(map[string]interface{})
		if !ok {
			continue
		}
		backends[name] = BackendConfig{
			BucketName:  getString(entry, "bucket_name", name),
			Platform:    getString(entry, "platform", "s3"),
			Region:      getString(entry, "region", ""),
			MultiRegion: getBool(entry, "multi_region"),
		}
	}

	return backends
}

// SetConfigValue sets a configuration value (used for CLI flags)
func SetConfigValue(key string, value interface{}) {
	viper.Set(key, value)
}

// getString safely extracts string value from map with default
func getString(m map[string]interface{}, key, defaultValue string) string {
	if value, exists := m[key]; exists {
		if str, ok := value.(string); ok {
			return str
		}
	}
	return defaultValue
}

func getBool(m map[string]interface{}, key string) bool {
	if value, exists := m[key]; exists {
		if b, ok := value.(bool); ok {
			return b
		}
	}
	return false
}
