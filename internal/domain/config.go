package domain

// Config mirrors ~/.fieldx/config.yaml.
type Config struct {
	ConfigFormatVersion string            `yaml:"config_format_version"`
	Preferences         Preferences       `yaml:"preferences"`
	Models              []ModelDefinition `yaml:"models"`
	Prompt              PromptSettings    `yaml:"prompt"`
	Documents           DocumentSettings  `yaml:"documents"`
	Archive             ArchiveSettings   `yaml:"archive"`
	Server              ServerSettings    `yaml:"server"`
}

// Preferences captures user level defaults applied to new sessions.
type Preferences struct {
	DefaultModel    string      `yaml:"default_model"`
	OutputStyle     OutputStyle `yaml:"output_style"`
	WordLimit       int         `yaml:"word_limit"`
	HistoryCapacity int         `yaml:"history_capacity"`
	MaxFields       int         `yaml:"max_fields"`
	TimeoutSeconds  int         `yaml:"timeout"`
}

// PromptSettings allows replacing the built-in extraction prompt.
type PromptSettings struct {
	Template string `yaml:"template,omitempty"`
}

// DocumentSettings limits uploads.
type DocumentSettings struct {
	MaxBytes int64 `yaml:"max_bytes"`
}

// ArchiveSettings configures the opt-in persistent log of extraction records.
type ArchiveSettings struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// ServerSettings configures `fieldx serve`.
type ServerSettings struct {
	Host                     string `yaml:"host"`
	Port                     int    `yaml:"port"`
	SessionTTL               string `yaml:"session_ttl"`
	MaxSessions              int    `yaml:"max_sessions"`
	MaxConcurrentExtractions int    `yaml:"max_concurrent_extractions"`
	RateLimitPerMinute       int    `yaml:"rate_limit_per_minute"`
	RateLimitBurst           int    `yaml:"rate_limit_burst"`
	MaxUploadBytes           int64  `yaml:"max_upload_bytes"`
}

// SessionOptions derives the seed values for a new session.
func (c *Config) SessionOptions() SessionOptions {
	return SessionOptions{
		ModelName:       c.Preferences.DefaultModel,
		OutputStyle:     c.GetOutputStyle(),
		WordLimit:       c.Preferences.WordLimit,
		MaxFields:       c.GetMaxFields(),
		HistoryCapacity: c.GetHistoryCapacity(),
	}
}
