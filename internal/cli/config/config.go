package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Config represents the Quill project configuration
type Config struct {
	ProjectName string         `mapstructure:"project_name"`
	Database    DatabaseConfig `mapstructure:"database"`
	Mapper      MapperConfig   `mapstructure:"mapper"`
	Logging     LoggingConfig  `mapstructure:"logging"`
}

// DatabaseConfig represents the datastore connection
type DatabaseConfig struct {
	Driver string `mapstructure:"driver"`
	DSN    string `mapstructure:"dsn"`
}

// MapperConfig names the mapper documents to load
type MapperConfig struct {
	// ConfigFile is an optional <configuration> document; when set it takes
	// precedence and names its own mapper sources.
	ConfigFile string `mapstructure:"config_file"`
	// Sources are standalone mapper documents loaded in order.
	Sources []string `mapstructure:"sources"`
	// Vars seed ${} substitution in the documents.
	Vars map[string]string `mapstructure:"vars"`
}

// LoggingConfig controls loader and executor logging
type LoggingConfig struct {
	Level string `mapstructure:"level"`
}

// Load loads the configuration from quill.yml or quill.yaml
func Load() (*Config, error) {
	v := viper.New()

	// Set defaults
	v.SetDefault("database.driver", "sqlite3")
	v.SetDefault("logging.level", "info")

	// Set config name and paths
	v.SetConfigName("quill")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Enable environment variable support
	v.SetEnvPrefix("QUILL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Read config file if it exists
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}
