package config

// DefaultConfig returns a Config populated with all default values.
func DefaultConfig() *Config {
	return &Config{
		Sources: SourcesConfig{
			Safari:   true,
			Chrome:   true,
			IMessage: true,
			WhatsApp: true,
		},
		Exclusions: ExclusionsConfig{
			Domains:  []string{},
			Contacts: []string{},
		},
		Fetch: FetchConfig{
			MaxRedirects:     5,
			MaxResponseBytes: 1048576,
			TimeoutSeconds:   10,
			MaxLength:        5000,
		},
		Search: SearchConfig{
			APIKeyEnv:  "BRAVE_API_KEY",
			MaxResults: 5,
		},
		Archive: ArchiveConfig{
			Path:              "~/.config/recollect",
			SQLiteFile:        "recollect.db",
			RetentionDays:     30,
			SQLiteJournalMode: "wal",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}
