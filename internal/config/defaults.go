package config

// ApplyDefaults sets default values for any zero values in cfg.
func ApplyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Storage.DatabasePath == "" {
		cfg.Storage.DatabasePath = "/usr/local/var/answerdesk/data/answerdesk.db"
	}
	if cfg.State.Backend == "" {
		cfg.State.Backend = StateBackendSQLite
	}
	if cfg.State.BadgerPath == "" {
		cfg.State.BadgerPath = "/usr/local/var/answerdesk/data/state"
	}
	// An explicit empty list disables omission; only an absent key gets the default.
	if cfg.Search.OmitKeys == nil {
		cfg.Search.OmitKeys = []string{"type"}
	}
	if cfg.Watch.Extensions == nil {
		cfg.Watch.Extensions = []string{".yaml", ".yml", ".json"}
	}
	if len(cfg.Watch.Directories) > 0 && cfg.Watch.Recursive == nil {
		t := true
		cfg.Watch.Recursive = &t
	}
}
