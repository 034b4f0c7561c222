package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
server:
  host: "127.0.0.1"
  port: 9000
storage:
  database_path: "test.db"
`
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Server.Host != "127.0.0.1" || cfg.Server.Port != 9000 {
		t.Errorf("unexpected server config: %+v", cfg.Server)
	}
	if cfg.Storage.DatabasePath == "" {
		t.Error("database_path should be set")
	}
	if cfg.Debug {
		t.Error("debug should default to false when unset")
	}
}

func TestLoad_expandPathDotSlashRelativeToConfigDir(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
server:
  host: "localhost"
  port: 8080
storage:
  database_path: "./data/db/journal.db"
  index_path: "./data/indices/entries"
`
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	wantDB := filepath.Join(dir, "data", "db", "journal.db")
	if cfg.Storage.DatabasePath != wantDB {
		t.Errorf("database_path = %s, want %s", cfg.Storage.DatabasePath, wantDB)
	}
	wantIndex := filepath.Join(dir, "data", "indices", "entries")
	if cfg.Storage.IndexPath != wantIndex {
		t.Errorf("index_path = %s, want %s", cfg.Storage.IndexPath, wantIndex)
	}
}

func TestApplyDefaults(t *testing.T) {
	cfg := &Config{}
	ApplyDefaults(cfg)
	if cfg.Server.Host != "localhost" {
		t.Errorf("default host: got %s", cfg.Server.Host)
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("default port: got %d", cfg.Server.Port)
	}
	if cfg.Index.Type != "flat" {
		t.Errorf("default index type: got %s", cfg.Index.Type)
	}
	if cfg.Index.QdrantCollection != "journal_entries" {
		t.Errorf("default qdrant collection: got %s", cfg.Index.QdrantCollection)
	}
	if cfg.Embedding.Provider != "mock" {
		t.Errorf("default embedding provider: got %s", cfg.Embedding.Provider)
	}
	if cfg.Embedding.Dimensions != 384 {
		t.Errorf("default dimensions: got %d", cfg.Embedding.Dimensions)
	}
	if cfg.Cache.TTLHours != 24 {
		t.Errorf("default cache ttl: got %d", cfg.Cache.TTLHours)
	}
	if cfg.Search.CandidateLimit != 100 {
		t.Errorf("default candidate limit: got %d", cfg.Search.CandidateLimit)
	}
	if cfg.Search.PreviewLength != 200 {
		t.Errorf("default preview length: got %d", cfg.Search.PreviewLength)
	}
	if cfg.Profile.WindowDays != 30 || cfg.Profile.MaxEntries != 50 {
		t.Errorf("default profile bounds: %+v", cfg.Profile)
	}
	if cfg.Scheduler.DailySummaries == "" || cfg.Scheduler.Cleanup == "" {
		t.Error("scheduler specs should have defaults")
	}
	if cfg.Scheduler.Enabled {
		t.Error("scheduler should default to disabled")
	}
}

func TestApplyDefaults_PreservesExplicitValues(t *testing.T) {
	cfg := &Config{
		Search:  SearchConfig{CandidateLimit: 25, PreviewLength: 80},
		Profile: ProfileConfig{WindowDays: 7},
	}
	ApplyDefaults(cfg)
	if cfg.Search.CandidateLimit != 25 || cfg.Search.PreviewLength != 80 {
		t.Errorf("explicit search bounds overwritten: %+v", cfg.Search)
	}
	if cfg.Profile.WindowDays != 7 {
		t.Errorf("explicit window overwritten: %d", cfg.Profile.WindowDays)
	}
}

func TestSave(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "saved.yaml")
	cfg := &Config{
		Server:  ServerConfig{Host: "localhost", Port: 9090},
		Storage: StorageConfig{DatabasePath: "/tmp/db"},
	}
	if err := Save(path, cfg); err != nil {
		t.Fatal(err)
	}
	loaded, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if loaded.Server.Port != 9090 {
		t.Errorf("loaded port: got %d", loaded.Server.Port)
	}
}
