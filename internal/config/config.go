// Package config provides hierarchical configuration management for chlog using koanf.
// Configuration is loaded with priority: environment variables > explicit --config file >
// project config (.changelog/config.yml) > user config (~/.config/chlog/config.yml) > defaults.
// Projects that still carry a .changelog/config.json are read with the JSON parser and get a
// migration warning.
package config

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/ariel-frischer/chlog/internal/record"
)

// EnvPrefix prefixes every environment override, e.g. CHLOG_VERSION_ORDER.
const EnvPrefix = "CHLOG_"

// ConfigSource tracks where a configuration value came from
type ConfigSource string

const (
	SourceDefault ConfigSource = "default"
	SourceUser    ConfigSource = "user"
	SourceProject ConfigSource = "project"
	SourceFlag    ConfigSource = "flag"
	SourceEnv     ConfigSource = "env"
)

// Configuration represents the chlog configuration
type Configuration struct {
	// ChangelogDir holds release artifacts, relative to the project root.
	ChangelogDir string `koanf:"changelog_dir" yaml:"changelog_dir" validate:"required"`
	// UnreleasedDir is the pending pool, relative to ChangelogDir.
	UnreleasedDir string `koanf:"unreleased_dir" yaml:"unreleased_dir" validate:"required"`
	// VersionOrder chooses how the current release is picked: "semantic" or "legacy".
	VersionOrder string `koanf:"version_order" yaml:"version_order" validate:"oneof=semantic legacy"`
	// Categories restricts the accepted change categories. Empty accepts any.
	Categories []string `koanf:"categories" yaml:"categories" validate:"dive,required"`
	// Kinds lists the change types offered to users.
	Kinds []string `koanf:"kinds" yaml:"kinds" validate:"min=1,dive,required"`
	// StrictKinds rejects change types outside Kinds.
	StrictKinds bool `koanf:"strict_kinds" yaml:"strict_kinds"`
	// ReadConcurrency bounds concurrent pending-file reads.
	ReadConcurrency int `koanf:"read_concurrency" yaml:"read_concurrency" validate:"min=1,max=64"`
	// LogLevel is one of debug, info, warn, error.
	LogLevel string `koanf:"log_level" yaml:"log_level" validate:"oneof=debug info warn error"`

	// Sources maps each key to the layer that last set it.
	Sources map[string]ConfigSource `koanf:"-" yaml:"-"`
}

// CheckOptions returns the vocabulary restrictions for change validation.
func (c *Configuration) CheckOptions() record.CheckOptions {
	opts := record.CheckOptions{Categories: c.Categories}
	if c.StrictKinds {
		opts.Kinds = c.Kinds
	}
	return opts
}

// LoadOptions configures how configuration is loaded
type LoadOptions struct {
	// ProjectRoot is where .changelog/config.yml is looked up. Empty means the
	// current directory.
	ProjectRoot string
	// ConfigPath is an explicit config file layered above the project config.
	ConfigPath string
	// WarningWriter receives deprecation warnings (default: os.Stderr)
	WarningWriter io.Writer
	// SkipWarnings suppresses deprecation warnings
	SkipWarnings bool
	// SkipUserConfig ignores ~/.config/chlog/config.yml. Used by tests.
	SkipUserConfig bool
}

// Load loads configuration for the project rooted at projectRoot.
func Load(projectRoot string) (*Configuration, error) {
	return LoadWithOptions(LoadOptions{ProjectRoot: projectRoot})
}

// LoadWithOptions loads configuration with custom options
func LoadWithOptions(opts LoadOptions) (*Configuration, error) {
	k := koanf.New(".")
	sources := make(map[string]ConfigSource)
	warningWriter := getWarningWriter(opts.WarningWriter)

	loadDefaults(k, sources)

	if !opts.SkipUserConfig {
		if err := loadUserConfig(k, sources); err != nil {
			return nil, err
		}
	}

	if err := loadProjectConfig(k, sources, opts.ProjectRoot, warningWriter, opts.SkipWarnings); err != nil {
		return nil, err
	}

	if opts.ConfigPath != "" {
		if !fileExists(opts.ConfigPath) {
			return nil, &ValidationError{FilePath: opts.ConfigPath, Message: "config file not found"}
		}
		if err := loadLayer(k, sources, SourceFlag, opts.ConfigPath); err != nil {
			return nil, fmt.Errorf("loading config file: %w", err)
		}
	}

	if err := loadEnvironmentConfig(k, sources); err != nil {
		return nil, err
	}

	cfg, err := finalizeConfig(k)
	if err != nil {
		return nil, err
	}
	cfg.Sources = sources
	return cfg, nil
}

// getWarningWriter returns the warning writer or defaults to stderr
func getWarningWriter(w io.Writer) io.Writer {
	if w == nil {
		return os.Stderr
	}
	return w
}

// loadDefaults applies default configuration values
func loadDefaults(k *koanf.Koanf, sources map[string]ConfigSource) {
	for key, value := range GetDefaults() {
		_ = k.Set(key, value)
		sources[key] = SourceDefault
	}
}

// loadUserConfig loads ~/.config/chlog/config.yml when present.
func loadUserConfig(k *koanf.Koanf, sources map[string]ConfigSource) error {
	path, err := UserConfigPath()
	if err != nil || !fileExists(path) {
		return nil
	}
	if err := loadLayer(k, sources, SourceUser, path); err != nil {
		return fmt.Errorf("loading user config: %w", err)
	}
	return nil
}

// loadProjectConfig loads the project config (YAML preferred, legacy JSON supported).
// Warns if only legacy JSON exists or if both exist (YAML used, JSON ignored).
func loadProjectConfig(k *koanf.Koanf, sources map[string]ConfigSource, root string, warningWriter io.Writer, skipWarnings bool) error {
	yamlPath := ProjectConfigPath(root)
	legacyPath := LegacyProjectConfigPath(root)

	yamlExists := fileExists(yamlPath)
	legacyExists := fileExists(legacyPath)

	switch {
	case yamlExists:
		if err := loadLayer(k, sources, SourceProject, yamlPath); err != nil {
			return fmt.Errorf("loading project config: %w", err)
		}
		if legacyExists && !skipWarnings {
			fmt.Fprintf(warningWriter, "Warning: Legacy JSON config found at %s (ignored, using %s)\n", legacyPath, yamlPath)
			fmt.Fprintf(warningWriter, "  Run 'chlog config migrate' to remove the legacy file.\n\n")
		}
	case legacyExists:
		if err := loadLayer(k, sources, SourceProject, legacyPath); err != nil {
			return fmt.Errorf("loading legacy project config: %w", err)
		}
		if !skipWarnings {
			fmt.Fprintf(warningWriter, "Warning: Using deprecated JSON config at %s\n", legacyPath)
			fmt.Fprintf(warningWriter, "  Run 'chlog config migrate' to migrate to YAML format.\n\n")
		}
	}
	return nil
}

// loadLayer loads one config file on top of k, picking the parser by extension,
// and records the keys it set.
func loadLayer(k *koanf.Koanf, sources map[string]ConfigSource, source ConfigSource, path string) error {
	layer := koanf.New(".")

	if strings.EqualFold(filepath.Ext(path), ".json") {
		if err := layer.Load(file.Provider(path), json.Parser()); err != nil {
			return fmt.Errorf("failed to load %s config %s: %w", source, path, err)
		}
	} else {
		if err := ValidateYAMLSyntax(path); err != nil {
			return fmt.Errorf("validating YAML syntax for %s config: %w", source, err)
		}
		if err := layer.Load(file.Provider(path), yaml.Parser()); err != nil {
			return fmt.Errorf("failed to load %s config %s: %w", source, path, err)
		}
	}

	return mergeLayer(k, layer, sources, source)
}

// loadEnvironmentConfig loads environment variable overrides. List values
// are comma separated.
func loadEnvironmentConfig(k *koanf.Koanf, sources map[string]ConfigSource) error {
	layer := koanf.New(".")
	provider := env.ProviderWithValue(EnvPrefix, ".", func(key, value string) (string, interface{}) {
		key = envTransform(key)
		if slices.Contains(listKeys, key) {
			return key, splitList(value)
		}
		return key, value
	})
	if err := layer.Load(provider, nil); err != nil {
		return fmt.Errorf("failed to load environment config: %w", err)
	}
	return mergeLayer(k, layer, sources, SourceEnv)
}

func mergeLayer(k, layer *koanf.Koanf, sources map[string]ConfigSource, source ConfigSource) error {
	for _, key := range layer.Keys() {
		sources[key] = source
	}
	if err := k.Merge(layer); err != nil {
		return fmt.Errorf("merging %s config: %w", source, err)
	}
	return nil
}

// finalizeConfig unmarshals and validates the merged configuration
func finalizeConfig(k *koanf.Koanf) (*Configuration, error) {
	var cfg Configuration
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := ValidateConfigValues(&cfg, "config"); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// fileExists returns true if the file exists and is readable
func fileExists(path string) bool {
	if path == "" {
		return false
	}
	_, err := os.Stat(path)
	return err == nil
}

// envTransform converts environment variable names to config keys
// Example: CHLOG_VERSION_ORDER -> version_order
func envTransform(s string) string {
	return strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
}

// listKeys are the keys whose environment values are comma separated lists.
var listKeys = []string{"categories", "kinds"}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
