package config

import "time"

type Config struct {
	Source       SourceConfig      `yaml:"source"`
	Destination  DestinationConfig `yaml:"destination"`
	Schedule     ScheduleConfig    `yaml:"schedule"`
	Store        StoreConfig       `yaml:"store"`
	Logging      LoggingConfig     `yaml:"logging"`
	ConfigReload ReloadConfig      `yaml:"configReload"`
	API          APIConfig         `yaml:"api"`
}

type SourceConfig struct {
	Path          string        `yaml:"path"`
	ProcessName   string        `yaml:"processName"`   // e.g. "FC25.exe"
	ProbeInterval time.Duration `yaml:"probeInterval"` // e.g. 5s
}

type DestinationConfig struct {
	Root      string          `yaml:"root"`
	Retention RetentionConfig `yaml:"retention"`
}

type RetentionConfig struct {
	MaxSnapshots int           `yaml:"maxSnapshots"`
	MaxAge       time.Duration `yaml:"maxAge"` // 0 disables age pruning
}

type ScheduleConfig struct {
	IntervalMinutes int           `yaml:"intervalMinutes"`
	TickInterval    time.Duration `yaml:"tickInterval"` // countdown resolution, not the backup interval
}

type StoreConfig struct {
	Path string `yaml:"path"`
}

type LoggingConfig struct {
	Level      string `yaml:"level"`  // "info", "debug", etc.
	Format     string `yaml:"format"` // "json", "text"
	File       string `yaml:"file"`
	MaxSizeMB  int    `yaml:"maxSizeMB"`
	MaxBackups int    `yaml:"maxBackups"`
}

type ReloadConfig struct {
	Enabled        bool          `yaml:"enabled"`
	Mode           string        `yaml:"mode"` // "auto", "poll", "fsnotify"
	PollInterval   time.Duration `yaml:"pollInterval"`
	DebounceWindow time.Duration `yaml:"debounceWindow"`
}

type APIConfig struct {
	Enabled        bool     `yaml:"enabled"`
	Listen         string   `yaml:"listen"`
	AllowedOrigins []string `yaml:"allowedOrigins"`
}

// Default returns the configuration used for every key the file leaves out.
func Default() *Config {
	return &Config{
		Source: SourceConfig{
			ProcessName:   "FC25.exe",
			ProbeInterval: 5 * time.Second,
		},
		Destination: DestinationConfig{
			Retention: RetentionConfig{MaxSnapshots: 10},
		},
		Schedule: ScheduleConfig{
			IntervalMinutes: 30,
			TickInterval:    30 * time.Second,
		},
		Store: StoreConfig{Path: "snapkeep.db"},
		Logging: LoggingConfig{
			Level:      "info",
			Format:     "text",
			MaxSizeMB:  5,
			MaxBackups: 3,
		},
		ConfigReload: ReloadConfig{
			Enabled:        true,
			Mode:           "auto",
			PollInterval:   10 * time.Second,
			DebounceWindow: 500 * time.Millisecond,
		},
		API: APIConfig{
			Listen:         "127.0.0.1:8765",
			AllowedOrigins: []string{"http://localhost:3000"},
		},
	}
}
