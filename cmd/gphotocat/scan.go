package main

import (
	"fmt"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/google/uuid"
	bar "github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/bleemesser/gphotocat/internal/catalog"
	"github.com/bleemesser/gphotocat/internal/config"
	"github.com/bleemesser/gphotocat/internal/logging"
	"github.com/bleemesser/gphotocat/internal/pipeline"
)

func newScanCmd() *cobra.Command {
	var (
		dbPath      string
		cpuWorkers  int
		ioWorkers   int
		useExiftool bool
		useFFProbe  bool
		configPath  string
		batchSize   int
		queueSize   int
		logLevel    string
		logFormat   string
		logFile     string
	)

	cmd := &cobra.Command{
		Use:   "scan <target>",
		Short: "Scan a Google Photos Takeout export and catalog it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			target, err := resolveTarget(args[0])
			if err != nil {
				return err
			}

			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			applyFlagOverrides(cfg, cmd, cpuWorkers, ioWorkers, batchSize, queueSize, useExiftool, useFFProbe, logLevel, logFormat, logFile)

			log, err := logging.New(cfg.Log.Level, cfg.Log.Format, cfg.Log.File)
			if err != nil {
				return err
			}

			if cfg.UseExiftool {
				if _, err := exec.LookPath("exiftool"); err != nil {
					return fmt.Errorf("use_exiftool is enabled but exiftool was not found on PATH: %w", err)
				}
			}
			ffprobePath := "ffprobe"
			if cfg.UseFFProbe {
				p, err := exec.LookPath(ffprobePath)
				if err != nil {
					return fmt.Errorf("use_ffprobe is enabled but ffprobe was not found on PATH: %w", err)
				}
				ffprobePath = p
			}

			cat, err := catalog.Open(dbPath)
			if err != nil {
				return err
			}
			defer cat.Close()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			progress := bar.NewOptions(-1,
				bar.OptionSetDescription("scanning"),
				bar.OptionSetWriter(os.Stderr),
				bar.OptionSpinnerType(14),
			)

			opts := pipeline.Options{
				Root:        target,
				CPUWorkers:  cfg.WorkerProcesses,
				IOWorkers:   cfg.WorkerThreads,
				BatchSize:   cfg.BatchSize,
				QueueSize:   cfg.QueueMaxSize,
				UseExiftool: cfg.UseExiftool,
				UseFFProbe:  cfg.UseFFProbe,
				FFProbePath: ffprobePath,
				OnFileDone:  func() { progress.Add(1) },
			}

			scanRunID := uuid.New().String()
			summary, err := pipeline.Run(ctx, cat, scanRunID, opts, log)
			progress.Finish()
			if err != nil {
				if ctx.Err() != nil {
					return errInterrupted
				}
				return err
			}

			fmt.Printf("scan %s: %d files discovered, %d processed, %d errors, %d edited links, %d live photo pairs (%.1fs)\n",
				summary.ScanRunID, summary.MediaDiscovered, summary.MediaProcessed, summary.Errors,
				summary.EditedLinked, summary.LivePhotosLinked, summary.Duration.Seconds())
			if summary.Errors > 0 {
				return fmt.Errorf("scan completed with %d file errors", summary.Errors)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&dbPath, "db", "gphotocat.db", "catalog SQLite file")
	cmd.Flags().IntVar(&cpuWorkers, "cpu-workers", 0, "CPU-bound worker count (0 = auto)")
	cmd.Flags().IntVar(&ioWorkers, "io-workers", 0, "I/O coordinator worker count (0 = auto)")
	cmd.Flags().BoolVar(&useExiftool, "use-exiftool", false, "enable exiftool subprocess for RAW/unknown images")
	cmd.Flags().BoolVar(&useFFProbe, "use-ffprobe", false, "enable ffprobe subprocess for video metadata")
	cmd.Flags().StringVar(&configPath, "config", "", "path to a JSON configuration file")
	cmd.Flags().IntVar(&batchSize, "batch-size", 0, "writer batch size (0 = default 100)")
	cmd.Flags().IntVar(&queueSize, "queue-size", 0, "bound on each internal queue (0 = default 1000)")
	cmd.Flags().StringVar(&logLevel, "log-level", "", "debug, info, warn, or error")
	cmd.Flags().StringVar(&logFormat, "log-format", "", "text or json")
	cmd.Flags().StringVar(&logFile, "log-file", "", "log file path (default stderr)")

	return cmd
}

func resolveTarget(target string) (string, error) {
	info, err := os.Stat(target)
	if err != nil {
		return "", fmt.Errorf("scan target: %w", err)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("scan target %s is not a directory", target)
	}
	abs, err := filepath.Abs(target)
	if err != nil {
		return "", fmt.Errorf("scan target: %w", err)
	}
	return abs, nil
}

func applyFlagOverrides(cfg *config.Config, cmd *cobra.Command, cpuWorkers, ioWorkers, batchSize, queueSize int, useExiftool, useFFProbe bool, logLevel, logFormat, logFile string) {
	if cmd.Flags().Changed("cpu-workers") {
		cfg.WorkerProcesses = cpuWorkers
	}
	if cmd.Flags().Changed("io-workers") {
		cfg.WorkerThreads = ioWorkers
	}
	if cmd.Flags().Changed("batch-size") {
		cfg.BatchSize = batchSize
	}
	if cmd.Flags().Changed("queue-size") {
		cfg.QueueMaxSize = queueSize
	}
	if cmd.Flags().Changed("use-exiftool") {
		cfg.UseExiftool = useExiftool
	}
	if cmd.Flags().Changed("use-ffprobe") {
		cfg.UseFFProbe = useFFProbe
	}
	if cmd.Flags().Changed("log-level") {
		cfg.Log.Level = logLevel
	}
	if cmd.Flags().Changed("log-format") {
		cfg.Log.Format = logFormat
	}
	if cmd.Flags().Changed("log-file") {
		cfg.Log.File = logFile
	}
}
