package cli

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"cashcast/internal/config"
	"cashcast/internal/log"
	"cashcast/internal/storage/memory"
)

func TestOpenStore(t *testing.T) {
	dir := t.TempDir()
	tests := []struct {
		name    string
		cfg     config.Config
		wantErr bool
	}{
		{"memory without seed", config.Config{DataBackend: "memory"}, false},
		{"memory missing seed file", config.Config{DataBackend: "memory", MemorySeedFile: filepath.Join(dir, "none.json")}, false},
		{"sqlite", config.Config{DataBackend: "sqlite", SQLiteDBPath: filepath.Join(dir, "db", "cashcast.db")}, false},
		{"unknown backend", config.Config{DataBackend: "sheets"}, true},
		{"postgres without dsn", config.Config{DataBackend: "postgres"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store, cleanup, err := OpenStore(context.Background(), log.Discard(), &tt.cfg)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("OpenStore() error = %v", err)
			}
			defer func() { _ = cleanup() }()
			if err := store.Ping(context.Background()); err != nil {
				t.Errorf("Ping() error = %v", err)
			}
		})
	}
}

func TestBuildEngine(t *testing.T) {
	dir := t.TempDir()
	good := filepath.Join(dir, "tuning.toml")
	if err := os.WriteFile(good, []byte("max_projection_months = 12\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	bad := filepath.Join(dir, "bad.toml")
	if err := os.WriteFile(bad, []byte("no_such_knob = 1\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name       string
		file       string
		wantMonths int
		wantErr    bool
	}{
		{"defaults", "", 24, false},
		{"override", good, 12, false},
		{"unknown key", bad, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			engine, err := BuildEngine(log.Discard(), &config.Config{EngineTuningFile: tt.file}, memory.New())
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("BuildEngine() error = %v", err)
			}
			if got := engine.Tuning().MaxProjectionMonths; got != tt.wantMonths {
				t.Errorf("MaxProjectionMonths = %d, want %d", got, tt.wantMonths)
			}
		})
	}
}

func TestLoadConfig_InvalidEnvironment(t *testing.T) {
	t.Setenv("DATA_BACKEND", "sheets")
	if _, err := LoadConfig(); err == nil {
		t.Fatal("expected validation error for unknown backend")
	}
}
