package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestSetValue(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		initial string
		key     string
		value   string
		want    map[string]interface{}
		wantErr string
	}{
		"creates file": {
			key:   "version_order",
			value: "legacy",
			want:  map[string]interface{}{"version_order": "legacy"},
		},
		"preserves other keys": {
			initial: "log_level: info\n",
			key:     "read_concurrency",
			value:   "4",
			want:    map[string]interface{}{"log_level": "info", "read_concurrency": 4},
		},
		"list value": {
			key:   "categories",
			value: "Application, Content",
			want:  map[string]interface{}{"categories": []interface{}{"Application", "Content"}},
		},
		"bool value": {
			key:   "strict_kinds",
			value: "TRUE",
			want:  map[string]interface{}{"strict_kinds": true},
		},
		"unknown key": {
			key:     "colour",
			value:   "blue",
			wantErr: "unknown configuration key",
		},
		"invalid enum": {
			key:     "version_order",
			value:   "newest",
			wantErr: "valid options: semantic, legacy",
		},
		"invalid int": {
			key:     "read_concurrency",
			value:   "many",
			wantErr: "invalid integer",
		},
		"broken existing file": {
			initial: "log_level: [info\n",
			key:     "strict_kinds",
			value:   "true",
			wantErr: "config.yml",
		},
	}

	for name, tt := range tests {
		tt := tt
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			path := filepath.Join(t.TempDir(), ".changelog", "config.yml")
			if tt.initial != "" {
				require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
				require.NoError(t, os.WriteFile(path, []byte(tt.initial), 0o644))
			}

			_, err := SetValue(path, tt.key, tt.value)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)

			data, err := os.ReadFile(path)
			require.NoError(t, err)
			var got map[string]interface{}
			require.NoError(t, yaml.Unmarshal(data, &got))
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestWriteTemplate(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	path := ProjectConfigPath(root)

	written, err := WriteTemplate(path, false)
	require.NoError(t, err)
	assert.True(t, written)

	cfg, err := LoadWithOptions(LoadOptions{ProjectRoot: root, SkipUserConfig: true})
	require.NoError(t, err, "the template must load cleanly")
	assert.Equal(t, "semantic", cfg.VersionOrder)
	assert.Equal(t, SourceProject, cfg.Sources["version_order"])

	written, err = WriteTemplate(path, false)
	require.NoError(t, err)
	assert.False(t, written, "existing config is kept")
}

func TestMigrateProjectConfig(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	legacy := writeProjectFile(t, root, "config.json", `{"version_order": "legacy", "read_concurrency": 2}`)

	dry, err := MigrateProjectConfig(root, true)
	require.NoError(t, err)
	assert.True(t, dry.Success)
	assert.NoFileExists(t, ProjectConfigPath(root))

	res, err := MigrateProjectConfig(root, false)
	require.NoError(t, err)
	assert.True(t, res.Success)
	require.NoError(t, RemoveLegacyConfig(legacy, false))
	assert.NoFileExists(t, legacy)
	assert.FileExists(t, legacy+".bak")

	cfg, err := LoadWithOptions(LoadOptions{ProjectRoot: root, SkipUserConfig: true})
	require.NoError(t, err)
	assert.Equal(t, "legacy", cfg.VersionOrder)
	assert.Equal(t, 2, cfg.ReadConcurrency)

	again, err := MigrateProjectConfig(root, false)
	require.NoError(t, err)
	assert.False(t, again.Success)
	assert.Contains(t, again.Message, "No JSON config")
}

func TestValidateYAMLSyntaxFromBytes(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		input   string
		wantErr bool
	}{
		"valid":       {input: "a: 1\nb: [x, y]\n"},
		"empty":       {input: "   \n"},
		"bad mapping": {input: "a: 1\n b: 2\nc", wantErr: true},
		"unclosed":    {input: "a: [1, 2\n", wantErr: true},
	}

	for name, tt := range tests {
		tt := tt
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			err := ValidateYAMLSyntaxFromBytes([]byte(tt.input), "config.yml")
			if !tt.wantErr {
				assert.NoError(t, err)
				return
			}
			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, "config.yml", verr.FilePath)
		})
	}
}
