// Package archive packages exported files into a single archive.
//
// The archiver is an optional capability: callers obtain it through a Loader,
// which reports ErrArchiveUnavailable when it cannot be provided, and are
// expected to fall back to exporting files one by one.
package archive

import (
	"fmt"
	"io"
	"path"
	"time"

	"github.com/klauspost/compress/zip"

	"github.com/menta2k/image-splitter/pkg/types"
)

// Archiver starts new archives.
type Archiver interface {
	// NewWriter starts an archive that is written to w.
	NewWriter(w io.Writer) Writer
	// Extension is the archive's file extension without the dot.
	Extension() string
}

// Writer adds entries to an open archive.
type Writer interface {
	Add(name string, data []byte) error
	Close() error
}

// ZipArchiver produces zip files.
type ZipArchiver struct {
	// Method is the zip compression method; zip.Deflate when zero.
	Method uint16
	// Modified is stamped on every entry. Zero means time.Now at write time.
	Modified time.Time
}

// NewZipArchiver creates a zip archiver using Deflate.
func NewZipArchiver() *ZipArchiver {
	return &ZipArchiver{Method: zip.Deflate}
}

// Extension implements Archiver.
func (z *ZipArchiver) Extension() string {
	return "zip"
}

// NewWriter implements Archiver.
func (z *ZipArchiver) NewWriter(w io.Writer) Writer {
	method := z.Method
	if method == 0 {
		method = zip.Deflate
	}
	modified := z.Modified
	if modified.IsZero() {
		modified = time.Now()
	}
	return &zipWriter{zw: zip.NewWriter(w), method: method, modified: modified}
}

type zipWriter struct {
	zw       *zip.Writer
	method   uint16
	modified time.Time
}

func (z *zipWriter) Add(name string, data []byte) error {
	hdr := &zip.FileHeader{
		Name:     path.Clean(name),
		Method:   z.method,
		Modified: z.modified,
	}
	w, err := z.zw.CreateHeader(hdr)
	if err != nil {
		return fmt.Errorf("failed to add %s: %w: %w", name, types.ErrIOFailure, err)
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("failed to write %s: %w: %w", name, types.ErrIOFailure, err)
	}
	return nil
}

func (z *zipWriter) Close() error {
	if err := z.zw.Close(); err != nil {
		return fmt.Errorf("failed to finish archive: %w: %w", types.ErrIOFailure, err)
	}
	return nil
}
