// Package config loads engine configuration from an optional JSON file,
// overlaid by environment variables, following the style of
// warreth-immich-sync/pkg/config/config.go: plain encoding/json plus
// os.Getenv fallbacks, no configuration library.
package config

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
)

type LogConfig struct {
	Level  string `json:"level"`
	Format string `json:"format"`
	File   string `json:"file"`
}

// Config holds every option named in the external-interfaces section of
// the spec. Zero values mean "unset"; the CLI layer merges its flags on
// top, and the pipeline package substitutes its own defaults for the
// worker counts, queue size and batch size left at zero.
type Config struct {
	WorkerThreads int       `json:"worker_threads"`
	WorkerProcesses int     `json:"worker_processes"`
	BatchSize     int       `json:"batch_size"`
	QueueMaxSize  int       `json:"queue_maxsize"`
	UseExiftool   bool      `json:"use_exiftool"`
	UseFFProbe    bool      `json:"use_ffprobe"`
	Log           LogConfig `json:"log"`
}

// Load reads path if it exists, then overlays recognized GPHOTOCAT_*
// environment variables on top. A missing path is not an error - the
// zero-value Config plus env/flags is a valid configuration.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	if path != "" {
		f, err := os.Open(path)
		if err != nil {
			if !os.IsNotExist(err) {
				return nil, fmt.Errorf("open config %s: %w", path, err)
			}
		} else {
			defer f.Close()
			raw, err := io.ReadAll(f)
			if err != nil {
				return nil, fmt.Errorf("read config %s: %w", path, err)
			}
			if err := json.Unmarshal(raw, cfg); err != nil {
				return nil, fmt.Errorf("parse config %s: %w", path, err)
			}
		}
	}

	overlayEnv(cfg)
	return cfg, nil
}

func overlayEnv(cfg *Config) {
	if v := os.Getenv("GPHOTOCAT_WORKER_THREADS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.WorkerThreads = n
		}
	}
	if v := os.Getenv("GPHOTOCAT_WORKER_PROCESSES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.WorkerProcesses = n
		}
	}
	if v := os.Getenv("GPHOTOCAT_BATCH_SIZE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.BatchSize = n
		}
	}
	if v := os.Getenv("GPHOTOCAT_QUEUE_MAXSIZE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.QueueMaxSize = n
		}
	}
	if v := os.Getenv("GPHOTOCAT_USE_EXIFTOOL"); v != "" {
		cfg.UseExiftool = v == "1" || v == "true"
	}
	if v := os.Getenv("GPHOTOCAT_USE_FFPROBE"); v != "" {
		cfg.UseFFProbe = v == "1" || v == "true"
	}
	if v := os.Getenv("GPHOTOCAT_LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("GPHOTOCAT_LOG_FORMAT"); v != "" {
		cfg.Log.Format = v
	}
	if v := os.Getenv("GPHOTOCAT_LOG_FILE"); v != "" {
		cfg.Log.File = v
	}
}
