// Package where implements a cross-platform resolver for application-specific filesystem paths.
package where

import (
	"os"
	"path/filepath"

	"github.com/cadence-bot/cadence/constant"
	"github.com/cadence-bot/cadence/filesystem"
	"github.com/samber/lo"
)

// EnvConfigPath is the environment variable identifier used to override the default configuration directory.
const EnvConfigPath = "CADENCE_CONFIG_PATH"

// ensureDir guarantees the existence of a directory at the specified path, creating it if necessary.
func ensureDir(path string) string {
	lo.Must0(filesystem.API().MkdirAll(path, os.ModePerm))
	return path
}

// Config resolves the absolute path to the primary application configuration directory.
// The path can be overridden with the CADENCE_CONFIG_PATH environment variable.
func Config() string {
	if custom, ok := os.LookupEnv(EnvConfigPath); ok {
		return ensureDir(custom)
	}

	base := lo.Must(os.UserConfigDir())
	return ensureDir(filepath.Join(base, constant.Cadence))
}

// Cache resolves the absolute path to the application's persistent cache directory.
func Cache() string {
	base, err := os.UserCacheDir()
	if err != nil {
		base = filepath.Join(".", "cache")
	}
	return ensureDir(filepath.Join(base, constant.Cadence))
}

// Logs resolves the directory holding log files.
func Logs() string {
	return ensureDir(filepath.Join(Config(), "logs"))
}

// Bin resolves the directory searched for a bundled ffmpeg when none is on PATH.
func Bin() string {
	return ensureDir(filepath.Join(Config(), "bin"))
}

// Resolved is the on-disk cache of resolved stream URLs.
func Resolved() string {
	return filepath.Join(Cache(), "resolved.json")
}

// Release is the cached result of the latest release lookup.
func Release() string {
	return filepath.Join(Cache(), "version.json")
}

// Temp resolves a unique, volatile filesystem path for transient application artifacts.
func Temp() string {
	return ensureDir(filepath.Join(os.TempDir(), constant.Cadence))
}
