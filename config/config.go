// Package config provides centralized management for application settings, defaults, and the Viper-based configuration engine.
package config

import (
	"errors"
	"io/fs"
	"strings"
	"time"

	"github.com/cadence-bot/cadence/constant"
	"github.com/cadence-bot/cadence/filesystem"
	"github.com/cadence-bot/cadence/where"
	"github.com/fsnotify/fsnotify"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvKeyReplacer is a strings.Replacer used to normalize configuration keys into environment variable naming conventions.
var EnvKeyReplacer = strings.NewReplacer(".", "_")

// Setup initializes the global configuration state, including defaults, environment bindings, and localized file resolution.
func Setup() error {
	// A .env next to the binary is optional; it only seeds the process environment.
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}

	viper.SetConfigName(constant.Cadence)
	viper.SetConfigType("toml")
	viper.SetFs(filesystem.API())
	viper.AddConfigPath(where.Config())

	// Synchronize environment variable bindings.
	viper.SetEnvPrefix(constant.Cadence)
	viper.SetEnvKeyReplacer(EnvKeyReplacer)
	for _, env := range EnvExposed {
		viper.MustBindEnv(env)
	}

	// Initialize factory default values.
	viper.SetTypeByDefaultValue(true)
	for name, field := range Default {
		viper.SetDefault(name, field.Value)
	}

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return nil
		}
		return err
	}

	return nil
}

// Watch reloads the config file on change and hands the event to each callback.
func Watch(callbacks ...func(fsnotify.Event)) {
	viper.OnConfigChange(func(e fsnotify.Event) {
		for _, cb := range callbacks {
			cb(e)
		}
	})
	viper.WatchConfig()
}

// Duration reads a millisecond-valued key as a time.Duration.
func Duration(key string) time.Duration {
	return time.Duration(viper.GetInt(key)) * time.Millisecond
}
