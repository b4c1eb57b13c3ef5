package config

import "github.com/ariel-frischer/chlog/internal/record"

// GetDefaultConfigTemplate returns a fully commented config template
// that helps users understand all available options
func GetDefaultConfigTemplate() string {
	return `# chlog configuration
# See 'chlog config -h' for commands, 'chlog config show' for effective values

# Layout (relative to the project root)
changelog_dir: .changelog             # Release artifacts: <major>.<minor>.<patch>.json
unreleased_dir: unreleased            # Pending pool, inside changelog_dir

# Versioning
version_order: semantic               # How the current release is picked: semantic | legacy

# Change vocabulary
categories: []                        # Allowed categories (empty = any), e.g. [Application, AX-Content]
kinds: [new, change, removed, fix]    # Change types offered to users
strict_kinds: false                   # Reject types not listed in kinds

# Runtime
read_concurrency: 8                   # Parallel pending-file reads (1-64)
log_level: warn                       # debug | info | warn | error
`
}

// GetDefaults returns the default configuration values
func GetDefaults() map[string]interface{} {
	return map[string]interface{}{
		"changelog_dir":  ".changelog",
		"unreleased_dir": "unreleased",
		// version_order: "legacy" reproduces the historical pick of the
		// lexicographically smallest artifact name.
		"version_order":    "semantic",
		"categories":       []string{},
		"kinds":            record.DefaultKinds(),
		"strict_kinds":     false,
		"read_concurrency": 8,
		"log_level":        "warn",
	}
}
