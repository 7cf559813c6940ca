package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadMissingFileIsNotAnError(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "does-not-exist.json"))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.BatchSize != 0 {
		t.Errorf("BatchSize = %d, want zero value", cfg.BatchSize)
	}
}

func TestLoadParsesJSONFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	data := `{"worker_threads": 4, "use_exiftool": true, "log": {"level": "debug"}}`
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.WorkerThreads != 4 {
		t.Errorf("WorkerThreads = %d, want 4", cfg.WorkerThreads)
	}
	if !cfg.UseExiftool {
		t.Error("UseExiftool = false, want true")
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("Log.Level = %q, want debug", cfg.Log.Level)
	}
}

func TestEnvOverlayWinsOverFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(path, []byte(`{"worker_threads": 4}`), 0644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("GPHOTOCAT_WORKER_THREADS", "8")

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.WorkerThreads != 8 {
		t.Errorf("WorkerThreads = %d, want 8 (env should win)", cfg.WorkerThreads)
	}
}

func TestEnvBooleanOverlay(t *testing.T) {
	t.Setenv("GPHOTOCAT_USE_FFPROBE", "true")
	cfg, err := Load("")
	if err != nil {
		t.Fatal(err)
	}
	if !cfg.UseFFProbe {
		t.Error("UseFFProbe = false, want true")
	}
}
