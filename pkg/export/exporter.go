// Package export delivers sliced tiles and cropped images through a
// Downloader, bundling multiple tiles into one archive when an archiver is
// available and falling back to one download per tile when it is not.
package export

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"sync"
	"time"

	"github.com/menta2k/image-splitter/internal/utils"
	"github.com/menta2k/image-splitter/pkg/archive"
	"github.com/menta2k/image-splitter/pkg/processing"
	"github.com/menta2k/image-splitter/pkg/slicer"
	"github.com/menta2k/image-splitter/pkg/types"
)

// ProgressFunc receives the number of tiles handled so far and the total.
type ProgressFunc func(current, total int)

// Config holds export naming and timing.
type Config struct {
	BaseName    string
	Folder      string
	ArchiveName string
	// FallbackDelay separates consecutive downloads when exporting tiles one
	// by one.
	FallbackDelay time.Duration
	// ReleaseDelay is how long the archive's temporary file outlives the
	// download call.
	ReleaseDelay time.Duration
	TempDir      string
}

// DefaultConfig returns the standard export settings.
func DefaultConfig() Config {
	return Config{
		BaseName:      "cut_image",
		Folder:        "cut_images",
		ArchiveName:   "cut_images.zip",
		FallbackDelay: 200 * time.Millisecond,
		ReleaseDelay:  time.Second,
	}
}

// Exporter sends tiles and crops to a Downloader.
type Exporter struct {
	config     Config
	downloader Downloader
	loader     *archive.Loader
	processor  *processing.Processor
	logger     *slog.Logger

	sleep     func(ctx context.Context, d time.Duration) error
	afterFunc func(d time.Duration, f func())

	mu      sync.Mutex
	pending map[string]func() error
}

// New creates an Exporter with the default configuration. A nil loader
// means no archiver is available.
func New(downloader Downloader, loader *archive.Loader) *Exporter {
	return NewWithConfig(DefaultConfig(), downloader, loader, nil)
}

// NewWithConfig creates an Exporter with a custom configuration and logger.
func NewWithConfig(config Config, downloader Downloader, loader *archive.Loader, logger *slog.Logger) *Exporter {
	if loader == nil {
		loader = archive.Unavailable()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Exporter{
		config:     config,
		downloader: downloader,
		loader:     loader,
		processor:  processing.NewProcessor(),
		logger:     logger,
		sleep:      sleepContext,
		afterFunc: func(d time.Duration, f func()) {
			time.AfterFunc(d, f)
		},
		pending: make(map[string]func() error),
	}
}

// Config returns the exporter's configuration.
func (e *Exporter) Config() Config {
	return e.config
}

// Close releases every temporary archive still waiting for its timer. Call
// it before the process exits.
func (e *Exporter) Close() error {
	e.mu.Lock()
	releases := make([]func() error, 0, len(e.pending))
	for _, release := range e.pending {
		releases = append(releases, release)
	}
	e.mu.Unlock()

	var errs []error
	for _, release := range releases {
		if err := release(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// ExportSelection exports the chosen tiles. A single tile is downloaded
// directly. Several tiles go into one archive, or are downloaded one at a
// time if the archive cannot be produced. onProgress, when set, sees the
// same (current, total) sequence on every path.
func (e *Exporter) ExportSelection(ctx context.Context, tiles []slicer.Tile, onProgress ProgressFunc) error {
	switch len(tiles) {
	case 0:
		return types.ErrNoTiles
	case 1:
		if err := e.ExportSingle(ctx, tiles[0]); err != nil {
			return err
		}
		report(onProgress, 1, 1)
		return nil
	}

	// Archive progress is held back until the archive has been delivered so
	// a fallback does not report the sequence twice.
	var pending [][2]int
	err := e.ExportAsArchive(ctx, tiles, func(current, total int) {
		pending = append(pending, [2]int{current, total})
	})
	if err == nil {
		for _, p := range pending {
			report(onProgress, p[0], p[1])
		}
		return nil
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}

	e.logger.Warn("archive export failed, downloading tiles individually",
		"tiles", len(tiles), "error", err)
	return e.exportSequential(ctx, tiles, onProgress)
}

// ExportAsArchive writes the tiles into one archive and downloads it,
// reporting progress after each tile is added. It returns
// types.ErrArchiveUnavailable when no archiver can be loaded.
func (e *Exporter) ExportAsArchive(ctx context.Context, tiles []slicer.Tile, onProgress ProgressFunc) error {
	if len(tiles) == 0 {
		return types.ErrNoTiles
	}

	archiver, err := e.loader.Load(ctx)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(e.config.TempDir, "cut_images-*."+archiver.Extension())
	if err != nil {
		return fmt.Errorf("failed to create temporary archive: %w: %w", types.ErrIOFailure, err)
	}
	// The temporary file is released on a timer whatever happens below.
	defer e.scheduleRelease(tmp)

	w := archiver.NewWriter(tmp)
	for i, tile := range tiles {
		name := path.Join(e.config.Folder, tile.Filename(e.config.BaseName))
		if err := w.Add(name, tile.Data); err != nil {
			return err
		}
		report(onProgress, i+1, len(tiles))
	}
	if err := w.Close(); err != nil {
		return err
	}

	if _, err := tmp.Seek(0, 0); err != nil {
		return fmt.Errorf("failed to rewind archive: %w: %w", types.ErrIOFailure, err)
	}
	if err := e.downloader.Download(ctx, e.config.ArchiveName, tmp); err != nil {
		return err
	}

	e.logger.Info("exported archive", "file", e.config.ArchiveName, "tiles", len(tiles))
	return nil
}

// scheduleRelease removes tmp after ReleaseDelay, or earlier on Close.
func (e *Exporter) scheduleRelease(tmp *os.File) {
	name := tmp.Name()
	var once sync.Once
	var err error
	release := func() error {
		once.Do(func() {
			e.mu.Lock()
			delete(e.pending, name)
			e.mu.Unlock()

			tmp.Close()
			if rerr := os.Remove(name); rerr != nil && !errors.Is(rerr, fs.ErrNotExist) {
				err = fmt.Errorf("failed to remove %s: %w: %w", name, types.ErrIOFailure, rerr)
			}
		})
		return err
	}

	e.mu.Lock()
	e.pending[name] = release
	e.mu.Unlock()

	e.afterFunc(e.config.ReleaseDelay, func() {
		if err := release(); err != nil {
			e.logger.Warn("failed to release temporary archive", "error", err)
		}
	})
}

// ExportSingle downloads one tile as "<base>_<index+1>.<ext>".
func (e *Exporter) ExportSingle(ctx context.Context, tile slicer.Tile) error {
	name := tile.Filename(e.config.BaseName)
	if err := e.downloader.Download(ctx, name, bytes.NewReader(tile.Data)); err != nil {
		return fmt.Errorf("failed to export %s: %w", name, err)
	}
	e.logger.Debug("exported tile", "file", name, "bytes", len(tile.Data))
	return nil
}

// ExportCrop encodes img as PNG and downloads it as "<name>-cropped.png".
// It returns the file name used.
func (e *Exporter) ExportCrop(ctx context.Context, img image.Image, originalName string) (string, error) {
	if img == nil {
		return "", types.ErrEmptySource
	}
	if b := img.Bounds(); b.Dx() <= 0 || b.Dy() <= 0 {
		return "", fmt.Errorf("crop is %dx%d: %w", b.Dx(), b.Dy(), types.ErrDegenerateImage)
	}

	data, err := e.processor.EncodeBytes(img, processing.PNG, 1)
	if err != nil {
		return "", err
	}

	name := utils.CroppedFilename(originalName)
	if err := e.downloader.Download(ctx, name, bytes.NewReader(data)); err != nil {
		return "", fmt.Errorf("failed to export %s: %w", name, err)
	}
	e.logger.Info("exported crop", "file", name, "size", utils.FormatFileSize(int64(len(data))))
	return name, nil
}

func (e *Exporter) exportSequential(ctx context.Context, tiles []slicer.Tile, onProgress ProgressFunc) error {
	for i, tile := range tiles {
		if i > 0 {
			if err := e.sleep(ctx, e.config.FallbackDelay); err != nil {
				return err
			}
		}
		if err := e.ExportSingle(ctx, tile); err != nil {
			return err
		}
		report(onProgress, i+1, len(tiles))
	}
	return nil
}

func report(onProgress ProgressFunc, current, total int) {
	if onProgress != nil {
		onProgress(current, total)
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
