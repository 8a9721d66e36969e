package config

import (
	"fmt"
	"os"
	"regexp"

	"gopkg.in/yaml.v3"
)

// matches $(VAR_NAME)
var envPattern = regexp.MustCompile(`\$\(([A-Za-z0-9_]+)\)`)

// replaces $(VAR) with os.Getenv(VAR)
func expandEnvVars(s string) string {
	return envPattern.ReplaceAllStringFunc(s, func(m string) string {
		key := mapEnvKey(envPattern.FindStringSubmatch(m)[1])
		return os.Getenv(key)
	})
}

// Load reads the YAML file at path on top of Default() and validates it.
// A missing file is reported with an error wrapping fs.ErrNotExist.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	cfg, err := Parse(data)
	if err != nil {
		return nil, err
	}
	return cfg, nil
}

// Parse decodes raw YAML, expanding $(ENV_VAR) placeholders first.
func Parse(data []byte) (*Config, error) {
	expanded := expandEnvVars(string(data))

	cfg := Default()
	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return nil, fmt.Errorf("unmarshalling yaml: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// WriteDefault creates a starter config file at path. It refuses to
// overwrite an existing file.
func WriteDefault(path string) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return fmt.Errorf("creating default config: %w", err)
	}
	defer f.Close()

	if _, err := f.WriteString(defaultTemplate); err != nil {
		return fmt.Errorf("writing default config: %w", err)
	}
	return f.Sync()
}

const defaultTemplate = `# snapkeep configuration. Edit the paths, then start snapkeep again.
source:
  path: "$(LOCALAPPDATA)/EA SPORTS FC 25/settings"
  processName: "FC25.exe"
  probeInterval: 5s

destination:
  root: "$(HOME)/snapkeep-backups"
  retention:
    maxSnapshots: 10
    maxAge: 720h

schedule:
  intervalMinutes: 30
  tickInterval: 30s

store:
  path: "snapkeep.db"

logging:
  level: info
  format: text
  file: ""
  maxSizeMB: 5
  maxBackups: 3

configReload:
  enabled: true
  mode: auto
  pollInterval: 10s
  debounceWindow: 500ms

api:
  enabled: false
  listen: "127.0.0.1:8765"
  allowedOrigins:
    - "http://localhost:3000"
`
