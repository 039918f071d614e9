// Package config loads vault configuration: the vault path, scan
// ignore patterns, and the engine's policy switches.
//
// Config files are HuJSON (JSON with comments and trailing commas).
// Precedence, highest last: defaults, the global user config at
// $XDG_CONFIG_HOME/cortex/config.json, a .cortex.json in the vault.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/gobwas/glob"
	"github.com/tailscale/hujson"
)

// Config holds all configuration options.
type Config struct {
	// Vault is the directory holding the artifact files. Empty means
	// the current working directory.
	Vault string `json:"vault,omitempty"`

	// Ignore lists vault-relative glob patterns the scanner skips.
	Ignore []string `json:"ignore,omitempty"`

	// GroupAutoComplete makes task groups whose children are all
	// done/dropped roll up to done automatically.
	GroupAutoComplete bool `json:"group_auto_complete,omitempty"` //nolint:tagliatelle // snake_case for config file
}

// FileName is the per-vault config file name.
const FileName = ".cortex.json"

var (
	errConfigRead    = errors.New("cannot read config file")
	errConfigInvalid = errors.New("invalid config file")
	errBadIgnoreGlob = errors.New("invalid ignore pattern")
)

// Default returns the default configuration.
func Default() Config {
	return Config{
		Ignore: []string{"templates/*"},
	}
}

// Load resolves configuration for a vault directory. A missing config
// file at either level is not an error.
func Load(vaultDir string, env []string) (Config, error) {
	cfg := Default()

	globalPath := globalConfigPath(env)
	if globalPath != "" {
		loaded, ok, err := loadFile(globalPath)
		if err != nil {
			return Config{}, err
		}

		if ok {
			cfg = merge(cfg, loaded)
		}
	}

	loaded, ok, err := loadFile(filepath.Join(vaultDir, FileName))
	if err != nil {
		return Config{}, err
	}

	if ok {
		cfg = merge(cfg, loaded)
	}

	return cfg, nil
}

// Globs compiles the ignore patterns.
func (c Config) Globs() ([]glob.Glob, error) {
	globs := make([]glob.Glob, 0, len(c.Ignore))

	for _, pattern := range c.Ignore {
		compiled, err := glob.Compile(pattern, '/')
		if err != nil {
			return nil, fmt.Errorf("%w: %q: %w", errBadIgnoreGlob, pattern, err)
		}

		globs = append(globs, compiled)
	}

	return globs, nil
}

// globalConfigPath returns $XDG_CONFIG_HOME/cortex/config.json,
// falling back to ~/.config/cortex/config.json. Empty when no home
// directory can be determined.
func globalConfigPath(env []string) string {
	for _, e := range env {
		if after, ok := strings.CutPrefix(e, "XDG_CONFIG_HOME="); ok {
			return filepath.Join(after, "cortex", "config.json")
		}
	}

	if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		return filepath.Join(xdgConfig, "cortex", "config.json")
	}

	home, err := os.UserHomeDir()
	if err == nil {
		return filepath.Join(home, ".config", "cortex", "config.json")
	}

	return ""
}

// loadFile reads one HuJSON config file. ok=false when the file does
// not exist.
func loadFile(path string) (Config, bool, error) {
	content, readErr := os.ReadFile(path) //nolint:gosec // config path is derived from vault dir / env
	if os.IsNotExist(readErr) {
		return Config{}, false, nil
	}

	if readErr != nil {
		return Config{}, false, fmt.Errorf("%w: %s: %w", errConfigRead, path, readErr)
	}

	standardized, err := hujson.Standardize(content)
	if err != nil {
		return Config{}, false, fmt.Errorf("%w: %s: %w", errConfigInvalid, path, err)
	}

	var cfg Config

	err = json.Unmarshal(standardized, &cfg)
	if err != nil {
		return Config{}, false, fmt.Errorf("%w: %s: %w", errConfigInvalid, path, err)
	}

	return cfg, true, nil
}

// merge overlays non-zero fields of overlay on base.
func merge(base, overlay Config) Config {
	if overlay.Vault != "" {
		base.Vault = overlay.Vault
	}

	if overlay.Ignore != nil {
		base.Ignore = overlay.Ignore
	}

	if overlay.GroupAutoComplete {
		base.GroupAutoComplete = true
	}

	return base
}
