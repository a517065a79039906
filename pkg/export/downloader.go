package export

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/menta2k/image-splitter/internal/utils"
	"github.com/menta2k/image-splitter/pkg/types"
)

// Downloader delivers one finished file to the user.
type Downloader interface {
	Download(ctx context.Context, filename string, r io.Reader) error
}

// DirDownloader saves downloads into a directory.
type DirDownloader struct {
	Dir string
}

// NewDirDownloader creates a DirDownloader writing into dir.
func NewDirDownloader(dir string) *DirDownloader {
	return &DirDownloader{Dir: dir}
}

// Download implements Downloader. Only the base of filename is used.
func (d *DirDownloader) Download(ctx context.Context, filename string, r io.Reader) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	name := utils.SanitizeFilename(filepath.Base(filename))
	if name == "" {
		return fmt.Errorf("invalid file name %q: %w", filename, types.ErrInvalidInput)
	}
	if err := utils.EnsureDir(d.Dir); err != nil {
		return fmt.Errorf("failed to create output directory: %w: %w", types.ErrIOFailure, err)
	}

	path := filepath.Join(d.Dir, name)
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w: %w", path, types.ErrIOFailure, err)
	}

	if _, err := io.Copy(file, r); err != nil {
		file.Close()
		return fmt.Errorf("failed to write %s: %w: %w", path, types.ErrIOFailure, err)
	}
	if err := file.Close(); err != nil {
		return fmt.Errorf("failed to write %s: %w: %w", path, types.ErrIOFailure, err)
	}
	return nil
}
