package config

// Package config provides a reusable loader for atmterm configuration files
// and environment variables. It is versioned so that applications can depend
// on a stable API contract.
//
// Version: v0.1.0

import (
	"fmt"

	"github.com/spf13/viper"

	"atmterm/pkg/utils"
)

// Version is the semantic version of this configuration package.
const Version = "v0.1.0"

// Config represents the unified configuration for an ATM terminal process.
// It mirrors the structure of the YAML files under cmd/config.
type Config struct {
	Terminal struct {
		ID                  string `mapstructure:"id" json:"id"`
		InitialScreenNumber string `mapstructure:"initial_screen_number" json:"initial_screen_number"`
		ConfigID            string `mapstructure:"config_id" json:"config_id"`
		MaxPINLength        int    `mapstructure:"max_pin_length" json:"max_pin_length"`
	} `mapstructure:"terminal" json:"terminal"`

	Host struct {
		LUNO         string `mapstructure:"luno" json:"luno"`
		ListenAddr   string `mapstructure:"listen_addr" json:"listen_addr"`
		TransportTLS bool   `mapstructure:"transport_tls" json:"transport_tls"`
	} `mapstructure:"host" json:"host"`

	Fixtures struct {
		ScreensPath string `mapstructure:"screens_path" json:"screens_path"`
		StatesPath  string `mapstructure:"states_path" json:"states_path"`
		FITsPath    string `mapstructure:"fits_path" json:"fits_path"`
	} `mapstructure:"fixtures" json:"fixtures"`

	Store struct {
		Path string `mapstructure:"path" json:"path"`
	} `mapstructure:"store" json:"store"`

	Metrics struct {
		ListenAddr string `mapstructure:"listen_addr" json:"listen_addr"`
	} `mapstructure:"metrics" json:"metrics"`

	Logging struct {
		Level string `mapstructure:"level" json:"level"`
		File  string `mapstructure:"file" json:"file"`
	} `mapstructure:"logging" json:"logging"`
}

// AppConfig holds the configuration loaded via Load or LoadFromEnv.
var AppConfig Config

// Load reads configuration files and merges any environment specific
// overrides. The resulting configuration is stored in AppConfig and returned.
//
// The function uses the provided environment name to merge additional config
// files. If env is empty, only the default configuration is loaded.
func Load(env string) (*Config, error) {
	viper.SetConfigName("default")
	viper.AddConfigPath("cmd/config")
	viper.AddConfigPath("config")
	viper.SetConfigType("yaml")
	if err := viper.ReadInConfig(); err != nil {
		return nil, utils.Wrap(err, "load config")
	}

	if env != "" {
		viper.SetConfigName(env)
		if err := viper.MergeInConfig(); err != nil {
			return nil, utils.Wrap(err, fmt.Sprintf("merge %s config", env))
		}
	}

	viper.AutomaticEnv() // picks up from .env

	if err := viper.Unmarshal(&AppConfig); err != nil {
		return nil, utils.Wrap(err, "unmarshal config")
	}
	return &AppConfig, nil
}

// LoadFromEnv loads configuration using the ATMTERM_ENV environment variable.
func LoadFromEnv() (*Config, error) {
	return Load(utils.EnvOrDefault("ATMTERM_ENV", ""))
}
