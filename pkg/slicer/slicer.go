// Package slicer cuts an image into a grid of equally sized tiles and encodes
// each tile.
//
// Tile sizes are floor(width/cols) × floor(height/rows); the right and bottom
// remainder strips are dropped. Tiles come back in row-major order with
// Index = Row*Cols + Col.
package slicer

import (
	"encoding/base64"
	"fmt"
	"image"
	"log/slog"
	"math"

	"github.com/menta2k/image-splitter/internal/utils"
	"github.com/menta2k/image-splitter/pkg/geometry"
	"github.com/menta2k/image-splitter/pkg/processing"
	"github.com/menta2k/image-splitter/pkg/types"
)

// Grid limits
const (
	MinGrid = 1
	MaxGrid = 20
)

// SliceSpec describes one slicing request.
type SliceSpec struct {
	Rows    int               `json:"rows" yaml:"rows"`
	Cols    int               `json:"cols" yaml:"cols"`
	Format  processing.Format `json:"format" yaml:"format"`
	Quality float64           `json:"quality" yaml:"quality"`
}

// Validate rejects out-of-range grids and qualities. Nothing is clamped.
func (s SliceSpec) Validate() error {
	if s.Rows < MinGrid || s.Rows > MaxGrid || s.Cols < MinGrid || s.Cols > MaxGrid {
		return fmt.Errorf("%dx%d: %w", s.Rows, s.Cols, types.ErrInvalidGrid)
	}
	if s.Quality < 0 || s.Quality > 1 || math.IsNaN(s.Quality) {
		return fmt.Errorf("%v: %w", s.Quality, types.ErrInvalidQuality)
	}
	return nil
}

// Tile is one encoded grid cell.
type Tile struct {
	Row         int
	Col         int
	Index       int
	TotalCount  int
	PixelWidth  int
	PixelHeight int
	// Bounds is the tile's rectangle in the source image.
	Bounds image.Rectangle
	Data   []byte
	Format processing.Format
}

// Filename returns "<base>_<index+1>.<ext>".
func (t Tile) Filename(base string) string {
	return utils.GenerateTileFilename(base, t.Index, t.Format.Extension())
}

// DataURL returns the encoded tile as a data: URL.
func (t Tile) DataURL() string {
	return "data:" + t.Format.MIMEType() + ";base64," + base64.StdEncoding.EncodeToString(t.Data)
}

// Slicer turns bitmaps into tiles and keeps the most recent result set.
type Slicer struct {
	processor *processing.Processor
	logger    *slog.Logger
	results   []Tile
}

// New creates a new Slicer
func New() *Slicer {
	return NewWithLogger(slog.Default())
}

// NewWithLogger creates a Slicer that logs to logger.
func NewWithLogger(logger *slog.Logger) *Slicer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Slicer{processor: processing.NewProcessor(), logger: logger}
}

// Slice cuts img into spec.Rows × spec.Cols tiles. On error no tiles are
// returned and the previous result set is kept.
func (s *Slicer) Slice(img image.Image, spec SliceSpec) ([]Tile, error) {
	if img == nil {
		return nil, types.ErrEmptySource
	}
	if err := spec.Validate(); err != nil {
		return nil, err
	}
	spec.Format = processing.ParseFormat(string(spec.Format))

	cells, err := Grid(img.Bounds(), spec.Rows, spec.Cols)
	if err != nil {
		return nil, err
	}

	tiles := make([]Tile, 0, len(cells))
	for _, c := range cells {
		data, err := s.processor.EncodeBytes(s.processor.SubImage(img, c.Bounds), spec.Format, spec.Quality)
		if err != nil {
			return nil, fmt.Errorf("failed to encode tile %d: %w", c.Index+1, err)
		}
		tiles = append(tiles, Tile{
			Row:         c.Row,
			Col:         c.Col,
			Index:       c.Index,
			TotalCount:  len(cells),
			PixelWidth:  c.Bounds.Dx(),
			PixelHeight: c.Bounds.Dy(),
			Bounds:      c.Bounds,
			Data:        data,
			Format:      spec.Format,
		})
	}

	s.logger.Debug("sliced image", "rows", spec.Rows, "cols", spec.Cols, "format", spec.Format,
		"tile_width", tiles[0].PixelWidth, "tile_height", tiles[0].PixelHeight)
	s.results = tiles
	return tiles, nil
}

// Results returns the tiles from the last successful Slice.
func (s *Slicer) Results() []Tile {
	return s.results
}

// Reset discards the stored tiles.
func (s *Slicer) Reset() {
	s.results = nil
}

// Cell is one grid position and its source rectangle.
type Cell struct {
	Row    int
	Col    int
	Index  int
	Bounds image.Rectangle
}

// Grid partitions bounds into rows × cols cells in row-major order without
// encoding anything. It fails when a cell would be empty.
func Grid(bounds image.Rectangle, rows, cols int) ([]Cell, error) {
	if rows < MinGrid || rows > MaxGrid || cols < MinGrid || cols > MaxGrid {
		return nil, fmt.Errorf("%dx%d: %w", rows, cols, types.ErrInvalidGrid)
	}

	pieceW := bounds.Dx() / cols
	pieceH := bounds.Dy() / rows
	if pieceW <= 0 || pieceH <= 0 {
		return nil, fmt.Errorf("%dx%d image into %dx%d grid: %w", bounds.Dx(), bounds.Dy(), rows, cols, types.ErrDegenerateImage)
	}

	cells := make([]Cell, 0, rows*cols)
	for row := 0; row < rows; row++ {
		for col := 0; col < cols; col++ {
			origin := bounds.Min.Add(image.Pt(col*pieceW, row*pieceH))
			cells = append(cells, Cell{
				Row:    row,
				Col:    col,
				Index:  row*cols + col,
				Bounds: image.Rectangle{Min: origin, Max: origin.Add(image.Pt(pieceW, pieceH))},
			})
		}
	}
	return cells, nil
}

// SuggestGrid proposes a rows × cols split from the image's aspect ratio:
// wide images are cut into columns, tall ones into rows, and near-square
// ones into a small grid.
func SuggestGrid(width, height int) (rows, cols int) {
	if width <= 0 || height <= 0 {
		return 2, 2
	}
	return SuggestGridForRatio(float64(width) / float64(height))
}

// SuggestGridForRatio is SuggestGrid for a width/height ratio. Ratios that
// are not positive and finite get a 2x2 grid.
func SuggestGridForRatio(ratio float64) (rows, cols int) {
	if !(ratio > 0) || math.IsInf(ratio, 0) {
		return 2, 2
	}

	switch {
	case ratio > 2:
		rows, cols = 2, int(math.Round(ratio))
	case ratio < 0.5:
		rows, cols = int(math.Round(1/ratio)), 2
	default:
		size := int(math.Round(math.Sqrt(ratio * 4)))
		rows = min(size, 4)
		cols = min(int(math.Round(ratio*float64(size)/4)), 4)
	}
	return clampGrid(rows), clampGrid(cols)
}

func clampGrid(v int) int {
	return geometry.ClampInt(v, MinGrid, MaxGrid)
}
