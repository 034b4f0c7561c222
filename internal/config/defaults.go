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
		cfg.Storage.DatabasePath = "/usr/local/var/kokoro/data/db/journal.db"
	}
	if cfg.Storage.IndexPath == "" {
		cfg.Storage.IndexPath = "/usr/local/var/kokoro/data/indices/entries"
	}
	if cfg.Index.Type == "" {
		cfg.Index.Type = "flat"
	}
	if cfg.Index.QdrantCollection == "" {
		cfg.Index.QdrantCollection = "journal_entries"
	}
	if cfg.Index.QdrantAPIKeyEnv == "" {
		cfg.Index.QdrantAPIKeyEnv = "QDRANT_API_KEY"
	}
	if cfg.Embedding.Provider == "" {
		cfg.Embedding.Provider = "mock"
	}
	if cfg.Embedding.Model == "" {
		cfg.Embedding.Model = "text-embedding-3-small"
	}
	if cfg.Embedding.Dimensions == 0 {
		cfg.Embedding.Dimensions = 384
	}
	if cfg.Embedding.MaxTokens == 0 {
		cfg.Embedding.MaxTokens = 256
	}
	if cfg.Cache.TTLHours == 0 {
		cfg.Cache.TTLHours = 24
	}
	if cfg.Search.CandidateLimit == 0 {
		cfg.Search.CandidateLimit = 100
	}
	if cfg.Search.DefaultLimit == 0 {
		cfg.Search.DefaultLimit = 10
	}
	if cfg.Search.MaxLimit == 0 {
		cfg.Search.MaxLimit = 100
	}
	if cfg.Search.PreviewLength == 0 {
		cfg.Search.PreviewLength = 200
	}
	if cfg.Profile.WindowDays == 0 {
		cfg.Profile.WindowDays = 30
	}
	if cfg.Profile.MaxEntries == 0 {
		cfg.Profile.MaxEntries = 50
	}
	if cfg.Analysis.OpenAIKeyEnv == "" {
		cfg.Analysis.OpenAIKeyEnv = "OPENAI_API_KEY"
	}
	if cfg.Analysis.ChatModel == "" {
		cfg.Analysis.ChatModel = "gpt-4o-mini"
	}
	if cfg.Scheduler.DailySummaries == "" {
		cfg.Scheduler.DailySummaries = "0 6 * * *"
	}
	if cfg.Scheduler.Trends == "" {
		cfg.Scheduler.Trends = "0 7 * * 1"
	}
	if cfg.Scheduler.ProfileRefresh == "" {
		cfg.Scheduler.ProfileRefresh = "0 3 * * *"
	}
	if cfg.Scheduler.Cleanup == "" {
		cfg.Scheduler.Cleanup = "0 4 * * 0"
	}
}
