package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// WriteTemplate writes the commented default config to path. An existing
// file is left alone unless force is set.
func WriteTemplate(path string, force bool) (bool, error) {
	if fileExists(path) && !force {
		return false, nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return false, fmt.Errorf("creating config directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(GetDefaultConfigTemplate()), 0o644); err != nil {
		return false, fmt.Errorf("writing config: %w", err)
	}
	return true, nil
}

// SetValue validates value for key and stores it in the YAML file at path,
// creating the file if needed. Other keys and their values are preserved;
// comments are not.
func SetValue(path, key, value string) (ParsedValue, error) {
	parsed, err := ValidateValue(key, value)
	if err != nil {
		return ParsedValue{}, err
	}

	data := map[string]interface{}{}
	raw, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := ValidateYAMLSyntaxFromBytes(raw, path); err != nil {
			return ParsedValue{}, err
		}
		if strings.TrimSpace(string(raw)) != "" {
			if err := yaml.Unmarshal(raw, &data); err != nil {
				return ParsedValue{}, fmt.Errorf("parsing %s: %w", path, err)
			}
		}
	case !os.IsNotExist(err):
		return ParsedValue{}, fmt.Errorf("reading %s: %w", path, err)
	}

	data[key] = parsed.Parsed

	out, err := yaml.Marshal(data)
	if err != nil {
		return ParsedValue{}, fmt.Errorf("encoding config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return ParsedValue{}, fmt.Errorf("creating config directory: %w", err)
	}
	if err := os.WriteFile(path, out, 0o644); err != nil {
		return ParsedValue{}, fmt.Errorf("writing %s: %w", path, err)
	}
	return parsed, nil
}
