// Package pipeline wires discovery, fileproc, coordinator and catalog
// into one scan: a bounded-channel worker-pool pipeline grounded on the
// teacher's util/import.go GetPhotos/worker pattern, generalized from a
// single goroutine stage into the two-stage CPU/IO pool SPEC_FULL.md §5
// calls for and switched from a slice-returning batch call to a
// streaming channel pipeline so the writer can start committing before
// discovery has finished handing out work.
package pipeline

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/bleemesser/gphotocat/internal/album"
	"github.com/bleemesser/gphotocat/internal/catalog"
	"github.com/bleemesser/gphotocat/internal/discovery"
	"github.com/bleemesser/gphotocat/internal/edgecases"
	"github.com/bleemesser/gphotocat/internal/errs"
	"github.com/bleemesser/gphotocat/internal/coordinator"
	"github.com/bleemesser/gphotocat/internal/exifextract"
	"github.com/bleemesser/gphotocat/internal/fileproc"
	"github.com/bleemesser/gphotocat/internal/logging"
)

// Options configures one scan run, narrowed from config.Config plus the
// CLI flags layered on top of it.
type Options struct {
	Root        string
	CPUWorkers  int
	IOWorkers   int
	BatchSize   int
	QueueSize   int
	UseExiftool bool
	UseFFProbe  bool
	FFProbePath string
	MaxJoinWait time.Duration
	// OnFileDone, if set, is called once per file as an I/O coordinator
	// picks it up, before coordination; files that failed in the CPU
	// stage never reach it. It is the hook the CLI layer uses to drive
	// a progress bar without this package importing a UI library.
	OnFileDone func()
}

// Summary is what Run reports back to the CLI layer for its final
// progress line and exit-code decision.
type Summary struct {
	ScanRunID        string
	MediaDiscovered  int
	MediaProcessed   int
	Errors           int
	EditedLinked     int64
	LivePhotosLinked int64
	Duration         time.Duration
}

// Run executes one full scan: album discovery, the two-pass file walk,
// the CPU/IO worker pool, the writer, and the post-scan validation and
// linking passes. ctx is canceled by the caller on SIGINT or fatal
// error (SPEC_FULL.md §5 "Cancellation").
func Run(ctx context.Context, cat *catalog.Catalog, scanRunID string, opts Options, log *logging.Logger) (Summary, error) {
	start := time.Now()
	if err := catalog.CreateScanRun(cat.DB(), scanRunID, start); err != nil {
		return Summary{}, fmt.Errorf("creating scan run: %w", err)
	}

	effectiveRoot, err := discovery.ResolveEffectiveRoot(opts.Root)
	if err != nil {
		return Summary{}, err
	}

	albums, err := album.Discover(effectiveRoot, log)
	if err != nil {
		return Summary{}, fmt.Errorf("discovering albums: %w", err)
	}
	albumIDByFolder := make(map[string]string, len(albums))
	for _, a := range albums {
		if err := catalog.UpsertAlbum(cat.DB(), a, scanRunID, start); err != nil {
			return Summary{}, fmt.Errorf("upserting album %s: %w", a.FolderPath, err)
		}
		albumIDByFolder[a.FolderPath] = a.ID.String()
	}
	if n, err := catalog.MarkAlbumsMissing(cat.DB(), scanRunID); err != nil {
		log.Warn("marking missing albums: %v", err)
	} else if n > 0 {
		log.Info("marked %d albums missing", n)
	}

	sidecarIndex, err := discovery.BuildSidecarIndex(effectiveRoot)
	if err != nil {
		return Summary{}, err
	}
	files, discSummary, err := discovery.Walk(effectiveRoot, sidecarIndex)
	if err != nil {
		return Summary{}, err
	}
	log.Info("discovered %d media files, %d sidecars (%d unpaired)",
		discSummary.MediaFilesDiscovered, discSummary.MetadataFilesDiscovered, len(discSummary.UnpairedSidecars))

	queueSize := opts.QueueSize
	if queueSize <= 0 {
		queueSize = 1000
	}
	workCh := make(chan workItem, queueSize)
	cpuOutCh := make(chan cpuItem, queueSize)
	resultsCh := make(chan Result, queueSize)

	cpuWorkers := opts.CPUWorkers
	if cpuWorkers <= 0 {
		cpuWorkers = max(1, runtime.NumCPU()*3/4)
	}
	ioWorkers := opts.IOWorkers
	if ioWorkers <= 0 {
		ioWorkers = max(2, runtime.NumCPU())
	}

	var cpuWG, ioWG, writerWG sync.WaitGroup
	var writerFailed atomic.Bool

	writerWG.Add(1)
	go func() {
		defer writerWG.Done()
		runWriter(cat, scanRunID, opts.BatchSize, 5*time.Second, resultsCh, &writerFailed, log)
	}()

	for i := 0; i < ioWorkers; i++ {
		ioWG.Add(1)
		go func() {
			defer ioWG.Done()
			runIOCoordinator(ctx, cat, cpuOutCh, resultsCh, opts.OnFileDone, log)
		}()
	}

	for i := 0; i < cpuWorkers; i++ {
		cpuWG.Add(1)
		go func() {
			defer cpuWG.Done()
			runCPUWorker(ctx, opts, workCh, cpuOutCh, resultsCh, log)
		}()
	}

	go func() {
		defer close(workCh)
		for _, f := range files {
			select {
			case workCh <- workItem{file: f, albumID: albumIDByFolder[f.AlbumFolderPath]}:
			case <-ctx.Done():
				return
			}
		}
	}()

	joinWait := opts.MaxJoinWait
	if joinWait <= 0 {
		joinWait = 2 * time.Minute
	}
	if !waitWithTimeout(&cpuWG, joinWait) {
		log.Warn("cpu worker pool did not join within %s, proceeding", joinWait)
	}
	close(cpuOutCh)
	if !waitWithTimeout(&ioWG, joinWait) {
		log.Warn("io coordinator pool did not join within %s, proceeding", joinWait)
	}
	close(resultsCh)
	writerWG.Wait()

	editedLinked, err := edgecases.LinkEditedVariants(cat.DB(), scanRunID)
	if err != nil {
		log.Warn("linking edited variants: %v", err)
	}
	liveLinked, err := edgecases.LinkLivePhotos(cat.DB(), scanRunID)
	if err != nil {
		log.Warn("linking live photos: %v", err)
	}

	summary, err := validate(cat, scanRunID, start, writerFailed.Load(), log)
	if err != nil {
		return Summary{}, err
	}
	summary.EditedLinked = editedLinked
	summary.LivePhotosLinked = liveLinked
	summary.MediaDiscovered = discSummary.MediaFilesDiscovered
	summary.Duration = time.Since(start)
	summary.ScanRunID = scanRunID
	return summary, nil
}

func waitWithTimeout(wg *sync.WaitGroup, timeout time.Duration) bool {
	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return true
	case <-time.After(timeout):
		return false
	}
}

func runCPUWorker(ctx context.Context, opts Options, workCh <-chan workItem, cpuOutCh chan<- cpuItem, resultsCh chan<- Result, log *logging.Logger) {
	var tool *exifextract.Tool
	if opts.UseExiftool {
		t, err := exifextract.NewTool()
		if err != nil {
			log.Error("cpu worker: exiftool unavailable: %v", err)
		} else {
			tool = t
			defer tool.Close()
		}
	}

	fpOpts := fileproc.Options{UseExiftool: opts.UseExiftool, UseFFProbe: opts.UseFFProbe, FFProbePath: opts.FFProbePath}

	for {
		select {
		case <-ctx.Done():
			return
		case f, ok := <-workCh:
			if !ok {
				return
			}
			res := fileproc.Process(ctx, f.file, tool, fpOpts)
			if res.Err != nil {
				// Fatal failure (MIME detection or fingerprinting): no
				// point handing this to an I/O worker at all.
				select {
				case resultsCh <- errorResult(f.file.RelativePath, errs.TypeMediaFile, res.Err):
				case <-ctx.Done():
				}
				continue
			}
			if res.Warning != "" {
				log.Debug("%s: %s", f.file.RelativePath, res.Warning)
			}
			select {
			case cpuOutCh <- cpuItem{
				file: f.file, albumID: f.albumID, mime: res.MIMEType,
				crc32: res.CRC32, contentFingerprint: res.ContentFingerprint,
				exif: res.Exif, video: res.Video,
			}:
			case <-ctx.Done():
			}
		}
	}
}

func runIOCoordinator(ctx context.Context, cat *catalog.Catalog, cpuOutCh <-chan cpuItem, resultsCh chan<- Result, onFileDone func(), log *logging.Logger) {
	for {
		select {
		case <-ctx.Done():
			return
		case item, ok := <-cpuOutCh:
			if !ok {
				return
			}
			if onFileDone != nil {
				onFileDone()
			}
			fpRes := fileproc.Result{
				MIMEType: item.mime, CRC32: item.crc32, ContentFingerprint: item.contentFingerprint,
				Exif: item.exif, Video: item.video,
			}
			outcome, err := coordinator.Coordinate(cat, item.file, fpRes, item.albumID, log)
			if err != nil {
				select {
				case resultsCh <- errorResult(item.file.RelativePath, errs.TypeMediaFile, err):
				case <-ctx.Done():
				}
				continue
			}

			// A non-fatal sidecar failure still files a processing_errors
			// row for visibility, but never suppresses the media row
			// built alongside it (SPEC_FULL.md §4.8 step 1).
			if outcome.SidecarErr != nil {
				select {
				case resultsCh <- errorResult(item.file.RelativePath, errs.TypeJSONSidecar, outcome.SidecarErr):
				case <-ctx.Done():
					return
				}
			}

			var r Result
			if outcome.Unchanged {
				r = Result{kind: resultUnchanged, unchangedItemID: outcome.UnchangedItemID}
			} else {
				r = Result{kind: resultMedia, record: outcome.Record}
			}
			select {
			case resultsCh <- r:
			case <-ctx.Done():
			}
		}
	}
}

func errorResult(relativePath string, errType errs.Type, err error) Result {
	return Result{
		kind:         resultError,
		relativePath: relativePath,
		errType:      errType,
		errCategory:  errs.Classify(err),
		errMessage:   err.Error(),
	}
}
