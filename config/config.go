package config

import (
	"fmt"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"github.com/code-payments/inapppurchase/iap"
)

// Config holds the harness configuration loaded from environment variables.
type Config struct {
	Platform iap.Platform `envconfig:"IAP_PLATFORM" default:"android"`

	// Fixtures is the YAML file scripting the native side.
	Fixtures string `envconfig:"IAP_FIXTURES" default:"fixtures.yaml"`

	LogLevel string `envconfig:"IAP_LOG_LEVEL" default:"info"`

	Play     PlayConfig
	AppStore AppStoreConfig
}

// PlayConfig configures Android receipt verification. Verification is
// disabled when ServiceAccountFile is empty.
type PlayConfig struct {
	ServiceAccountFile string   `envconfig:"PLAY_SERVICE_ACCOUNT_FILE"`
	PackageName        string   `envconfig:"PLAY_PACKAGE_NAME"`
	Products           []string `envconfig:"PLAY_PRODUCTS"`
	Subscriptions      []string `envconfig:"PLAY_SUBSCRIPTIONS"`
}

// AppStoreConfig configures iOS receipt verification. Verification is
// disabled when BundleID is empty.
type AppStoreConfig struct {
	BundleID string   `envconfig:"APPSTORE_BUNDLE_ID"`
	Products []string `envconfig:"APPSTORE_PRODUCTS"`
}

// Load reads configuration from the environment, after applying a .env file
// if one exists.
func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	return &cfg, nil
}

func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}
