// Package config manages configuration for the wizbi service.
// It uses Viper for unified configuration management from files and environment variables.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"

	"github.com/wizbi/wizbi/internal/constants"
)

// Config is the unified configuration for the provisioning service.
// It supports loading from a YAML file and environment variables; environment
// variables take precedence.
type Config struct {
	Environment string `mapstructure:"environment"`
	LogLevel    string `mapstructure:"log_level"`
	Port        int    `mapstructure:"port" validate:"omitempty,min=1,max=65535"`

	// Firestore state store.
	FirestoreProject  string `mapstructure:"firestore_project"`
	FirestoreDatabase string `mapstructure:"firestore_database"`

	// GCP provisioning.
	GCPRegion         string `mapstructure:"gcp_region"`
	BillingAccount    string `mapstructure:"billing_account"`
	RootFolderID      string `mapstructure:"root_folder_id"`
	ProvisionerMember string `mapstructure:"provisioner_member"`

	// GitHub provisioning.
	GitHubOwner       string `mapstructure:"github_owner"`
	GitHubTokenSecret string `mapstructure:"github_token_secret"`
	BaseTemplateRepo  string `mapstructure:"base_template_repo"`

	// Names of Secret Manager secrets injected into every new repository.
	DeploySecretNames []string `mapstructure:"deploy_secret_names"`

	// Saga worker pool size.
	WorkerCount int `mapstructure:"worker_count" validate:"omitempty,min=1"`
}

var validate = validator.New()

// Load loads the configuration using Viper. Environment variables use the
// WIZBI_ prefix; an optional config file can be pointed at via WIZBI_CONFIG.
func Load() (*Config, error) {
	v := viper.New()

	setDefaults(v)

	if path := os.Getenv("WIZBI_CONFIG"); path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("error loading config file: %w", err)
		}
	}

	v.SetEnvPrefix("WIZBI")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	bindEnvVars(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if err := validate.Struct(&cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// LoadServer loads configuration for the provisioning server and validates
// the fields the sagas cannot run without.
func LoadServer() (*Config, error) {
	cfg, err := Load()
	if err != nil {
		return nil, err
	}

	if err := validateServer(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// MustLoadServer loads server configuration and exits on error.
// Suitable for application startup where configuration errors should be fatal.
func MustLoadServer() *Config {
	cfg, err := LoadServer()
	if err != nil {
		slog.Error("failed to load server configuration", "error", err)
		os.Exit(1)
	}
	return cfg
}

// GetLogLevel returns the slog.Level from the string configuration.
// Defaults to INFO if the level string is invalid.
func (c *Config) GetLogLevel() slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo
	}
	return level
}

// GetEnvironment returns the runtime environment, defaulting to development.
func (c *Config) GetEnvironment() constants.Environment {
	if strings.EqualFold(c.Environment, string(constants.Production)) {
		return constants.Production
	}
	return constants.Development
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("port", 8080)
	v.SetDefault("log_level", "INFO")
	v.SetDefault("environment", string(constants.Development))
	v.SetDefault("gcp_region", constants.DefaultRegion)
	v.SetDefault("firestore_database", "(default)")
	v.SetDefault("worker_count", 2)
}

func bindEnvVars(v *viper.Viper) {
	envVars := []string{
		"BASE_TEMPLATE_REPO",
		"BILLING_ACCOUNT",
		"DEPLOY_SECRET_NAMES",
		"ENVIRONMENT",
		"FIRESTORE_DATABASE",
		"FIRESTORE_PROJECT",
		"GCP_REGION",
		"GITHUB_OWNER",
		"GITHUB_TOKEN_SECRET",
		"LOG_LEVEL",
		"PORT",
		"PROVISIONER_MEMBER",
		"ROOT_FOLDER_ID",
		"WORKER_COUNT",
	}

	for _, envVar := range envVars {
		configKey := strings.ToLower(envVar)
		_ = v.BindEnv(configKey, "WIZBI_"+envVar)
	}
}

// validateServer validates required fields for the provisioning server.
func validateServer(cfg *Config) error {
	required := map[string]string{
		"BillingAccount":    cfg.BillingAccount,
		"FirestoreProject":  cfg.FirestoreProject,
		"GitHubOwner":       cfg.GitHubOwner,
		"GitHubTokenSecret": cfg.GitHubTokenSecret,
		"ProvisionerMember": cfg.ProvisionerMember,
		"RootFolderID":      cfg.RootFolderID,
	}

	for field, value := range required {
		if value == "" {
			return fmt.Errorf("%s cannot be empty", field)
		}
	}

	return nil
}
