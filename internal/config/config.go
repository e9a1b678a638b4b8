package config

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

const (
	StoreMongo  = "mongodb"
	StoreMemory = "memory"
)

// Config holds all bot configuration.
type Config struct {
	BotToken      string
	MongoURI      string
	MongoDatabase string
	// AdminIDs is the bootstrap admin set, comma-separated in the
	// environment. These admins cannot be removed at runtime.
	AdminIDs string
	// Store selects the repository backend: "mongodb" or "memory".
	Store string
}

// Load reads configuration from an optional yaml file and the environment.
func Load() (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	envMappings := map[string]string{
		"BotToken":      "BOT_TOKEN",
		"MongoURI":      "MONGODB_URI",
		"MongoDatabase": "MONGODB_DATABASE",
		"AdminIDs":      "ADMIN_IDS",
		"Store":         "STORE",
	}

	for configKey, envVar := range envMappings {
		if err := v.BindEnv(configKey, envVar); err != nil {
			log.Warn().Err(err).Msgf("Failed to bind environment variable %s for %s", envVar, configKey)
		}
	}

	v.SetConfigName("mediakeep")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("$HOME/.mediakeep")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		log.Debug().Msg("Config file not found, using environment variables and defaults")
	} else {
		log.Info().Msgf("Using config file: %s", v.ConfigFileUsed())
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config into struct: %w", err)
	}

	if err := validate(&config); err != nil {
		return nil, err
	}

	return &config, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("MongoDatabase", "mediakeep")
	v.SetDefault("Store", StoreMongo)
}

func validate(config *Config) error {
	var missingVars []string

	if config.BotToken == "" {
		missingVars = append(missingVars, "BOT_TOKEN")
	}

	if config.Store == StoreMongo && config.MongoURI == "" {
		missingVars = append(missingVars, "MONGODB_URI")
	}

	if len(missingVars) > 0 {
		return fmt.Errorf("missing required configuration: %s", strings.Join(missingVars, ", "))
	}

	if config.Store != StoreMongo && config.Store != StoreMemory {
		return fmt.Errorf("unknown store %q, expected %q or %q", config.Store, StoreMongo, StoreMemory)
	}

	if _, err := config.BootstrapAdminIDs(); err != nil {
		return err
	}

	return nil
}

// BootstrapAdminIDs parses the comma-separated admin list. Blank entries are
// skipped, order is preserved.
func (c *Config) BootstrapAdminIDs() ([]int64, error) {
	var ids []int64
	for _, part := range strings.Split(c.AdminIDs, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid admin id %q in ADMIN_IDS: %w", part, err)
		}
		ids = append(ids, id)
	}
	return ids, nil
}
