// Package imagesplitter provides image tiling and interactive cropping.
//
// The package cuts images into a grid of equally sized tiles and exports them
// individually or as one archive, and it runs the geometry behind an
// interactive crop box: dragging, resizing with eight handles, clamping to the
// image, and the magnified loupe shown while dragging.
//
// Basic usage:
//
//	package main
//
//	import (
//		"context"
//		"log"
//
//		imagesplitter "github.com/menta2k/image-splitter"
//		"github.com/menta2k/image-splitter/pkg/export"
//		"github.com/menta2k/image-splitter/pkg/processing"
//		"github.com/menta2k/image-splitter/pkg/slicer"
//	)
//
//	func main() {
//		tk := imagesplitter.New(export.NewDirDownloader("./output"))
//
//		bitmap, err := tk.LoadForSlicing("photo.jpg")
//		if err != nil {
//			log.Fatal(err)
//		}
//
//		tiles, err := tk.Slice(bitmap.Image, slicer.SliceSpec{
//			Rows: 2, Cols: 3, Format: processing.PNG, Quality: 0.9,
//		})
//		if err != nil {
//			log.Fatal(err)
//		}
//
//		// Writes ./output/cut_images.zip
//		if err := tk.ExportSelection(context.Background(), tiles, nil); err != nil {
//			log.Fatal(err)
//		}
//	}
//
// The package consists of these components:
//
// 1. Analyzer (pkg/analyzer): validates uploads and decodes bitmaps
// 2. Slicer (pkg/slicer): partitions a bitmap into tiles and encodes them
// 3. Cropper (pkg/cropper): crop box geometry, magnifier and crop rendering
// 4. Export (pkg/export, pkg/archive): downloads tiles, crops and archives
//
// When no archiver can be loaded, multi-tile exports fall back to one
// download per tile with a short pause between downloads.
package imagesplitter

import (
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"log/slog"

	"github.com/menta2k/image-splitter/pkg/analyzer"
	"github.com/menta2k/image-splitter/pkg/archive"
	"github.com/menta2k/image-splitter/pkg/cropper"
	"github.com/menta2k/image-splitter/pkg/export"
	"github.com/menta2k/image-splitter/pkg/geometry"
	"github.com/menta2k/image-splitter/pkg/slicer"
	"github.com/menta2k/image-splitter/pkg/types"
)

// Version of the image splitter library
const Version = "1.0.0"

// Options configures a Toolkit. Zero values select the defaults; zero fields
// of Cropper are filled individually.
type Options struct {
	Cropper          cropper.CropConfig
	Export           export.Config
	Downloader       export.Downloader
	Archive          *archive.Loader
	Logger           *slog.Logger
	CropMaxFileSize  int64
	SliceMaxFileSize int64
}

// Toolkit provides a high-level interface for slicing and cropping
type Toolkit struct {
	sliceLoader *analyzer.ImageAnalyzer
	cropLoader  *analyzer.ImageAnalyzer
	slicer      *slicer.Slicer
	engine      *cropper.Engine
	exporter    *export.Exporter
}

// New creates a Toolkit with default configuration that delivers files
// through downloader.
func New(downloader export.Downloader) *Toolkit {
	return NewWithOptions(Options{Downloader: downloader})
}

// NewWithOptions creates a Toolkit with custom configuration
func NewWithOptions(opts Options) *Toolkit {
	if opts.Export == (export.Config{}) {
		opts.Export = export.DefaultConfig()
	}
	if opts.Archive == nil {
		opts.Archive = archive.NewZipLoader()
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.CropMaxFileSize <= 0 {
		opts.CropMaxFileSize = analyzer.CropFlowMaxSize
	}
	if opts.SliceMaxFileSize <= 0 {
		opts.SliceMaxFileSize = analyzer.SliceFlowMaxSize
	}

	return &Toolkit{
		sliceLoader: analyzer.NewForFlow(opts.SliceMaxFileSize),
		cropLoader:  analyzer.NewForFlow(opts.CropMaxFileSize),
		slicer:      slicer.NewWithLogger(opts.Logger),
		engine:      cropper.NewWithConfig(opts.Cropper),
		exporter:    export.NewWithConfig(opts.Export, opts.Downloader, opts.Archive, opts.Logger),
	}
}

// LoadForSlicing loads an image under the slicing flow's size limit
func (tk *Toolkit) LoadForSlicing(path string) (*analyzer.Bitmap, error) {
	return tk.sliceLoader.LoadImage(path)
}

// LoadForCropping loads an image under the crop flow's size limit
func (tk *Toolkit) LoadForCropping(path string) (*analyzer.Bitmap, error) {
	return tk.cropLoader.LoadImage(path)
}

// LoadFromReader decodes an image for slicing from a reader
func (tk *Toolkit) LoadFromReader(r io.Reader) (*analyzer.Bitmap, error) {
	return tk.sliceLoader.LoadImageFromReader(r)
}

// Slice cuts img into tiles
func (tk *Toolkit) Slice(img image.Image, spec slicer.SliceSpec) ([]slicer.Tile, error) {
	return tk.slicer.Slice(img, spec)
}

// SuggestGrid proposes rows and columns from img's aspect ratio
func (tk *Toolkit) SuggestGrid(img image.Image) (rows, cols int) {
	info := tk.sliceLoader.GetImageInfo(img)
	return slicer.SuggestGridForRatio(info.AspectRatio)
}

// Tiles returns the result of the last successful Slice
func (tk *Toolkit) Tiles() []slicer.Tile {
	return tk.slicer.Results()
}

// TilePreview renders a thumbnail of tile that fits in 300x200
func (tk *Toolkit) TilePreview(tile slicer.Tile) (*image.NRGBA, error) {
	return tile.Preview(slicer.PreviewMaxWidth, slicer.PreviewMaxHeight)
}

// ExportSelection exports tiles as one download or an archive
func (tk *Toolkit) ExportSelection(ctx context.Context, tiles []slicer.Tile, onProgress export.ProgressFunc) error {
	return tk.exporter.ExportSelection(ctx, tiles, onProgress)
}

// Engine returns the crop geometry engine
func (tk *Toolkit) Engine() *cropper.Engine {
	return tk.engine
}

// StartCrop places the initial crop box on an image shown at displayed size
func (tk *Toolkit) StartCrop(displayed cropper.DisplayedGeometry) (geometry.Rect, error) {
	return tk.engine.Initialize(displayed)
}

// CropImage renders the engine's current crop box from the full-resolution
// bitmap.
func (tk *Toolkit) CropImage(bitmap *analyzer.Bitmap) (*image.NRGBA, error) {
	if bitmap == nil {
		return nil, fmt.Errorf("crop: %w", types.ErrEmptySource)
	}
	natural := cropper.NaturalSize{Width: float64(bitmap.NaturalWidth), Height: float64(bitmap.NaturalHeight)}
	sample, err := tk.engine.ComputeSourceSampleRect(natural, tk.engine.Displayed())
	if err != nil {
		return nil, err
	}
	return cropper.RenderCrop(bitmap.Image, sample)
}

// Magnify renders the loupe for a pointer position. It returns nil when the
// pointer is outside the crop box.
func (tk *Toolkit) Magnify(bitmap *analyzer.Bitmap, in cropper.MagnifierInput) (*image.NRGBA, error) {
	if bitmap == nil {
		return nil, fmt.Errorf("magnify: %w", types.ErrEmptySource)
	}
	in.Natural = cropper.NaturalSize{Width: float64(bitmap.NaturalWidth), Height: float64(bitmap.NaturalHeight)}
	if in.Displayed == (cropper.DisplayedGeometry{}) {
		in.Displayed = tk.engine.Displayed()
	}
	view, err := tk.engine.ComputeMagnifierView(in)
	if err != nil {
		return nil, err
	}
	if !view.Visible {
		return nil, nil
	}
	return cropper.RenderMagnifier(bitmap.Image, view), nil
}

// ExportCrop downloads a cropped image as "<name>-cropped.png"
func (tk *Toolkit) ExportCrop(ctx context.Context, img image.Image, originalName string) (string, error) {
	return tk.exporter.ExportCrop(ctx, img, originalName)
}

// SliceFile is a convenience function that loads, slices and exports an
// image. Rows or Cols of zero are filled in by SuggestGrid.
func (tk *Toolkit) SliceFile(ctx context.Context, inputPath string, spec slicer.SliceSpec, onProgress export.ProgressFunc) ([]slicer.Tile, error) {
	bitmap, err := tk.LoadForSlicing(inputPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load image: %w", err)
	}

	if spec.Rows == 0 || spec.Cols == 0 {
		rows, cols := tk.SuggestGrid(bitmap.Image)
		if spec.Rows == 0 {
			spec.Rows = rows
		}
		if spec.Cols == 0 {
			spec.Cols = cols
		}
	}

	tiles, err := tk.Slice(bitmap.Image, spec)
	if err != nil {
		return nil, fmt.Errorf("slicing failed: %w", err)
	}

	if err := tk.ExportSelection(ctx, tiles, onProgress); err != nil {
		return nil, fmt.Errorf("export failed: %w", err)
	}
	return tiles, nil
}

// Reset discards the stored tiles and restores the initial crop box. A crop
// box that was never started has nothing to restore and is not an error.
func (tk *Toolkit) Reset() error {
	tk.slicer.Reset()
	if _, err := tk.engine.Reset(); err != nil && !errors.Is(err, types.ErrNotInitialized) {
		return err
	}
	return nil
}

// Close releases temporary files left by archive exports
func (tk *Toolkit) Close() error {
	return tk.exporter.Close()
}

// GetVersion returns the library version
func GetVersion() string {
	return Version
}
