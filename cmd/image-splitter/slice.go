package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	imagesplitter "github.com/menta2k/image-splitter"
	"github.com/menta2k/image-splitter/internal/utils"
	"github.com/menta2k/image-splitter/pkg/processing"
	"github.com/menta2k/image-splitter/pkg/slicer"
	"github.com/menta2k/image-splitter/pkg/types"
)

func newSliceCmd(a *app) *cobra.Command {
	var (
		rows, cols int
		format     string
		quality    float64
		useArchive bool
		previews   bool
	)

	cmd := &cobra.Command{
		Use:   "slice <image>",
		Short: "Cut an image into a grid of tiles",
		Long: `Cuts the image into rows x cols equally sized tiles. The right and bottom
remainder pixels are dropped. Several tiles are written as cut_images.zip;
if no archive can be produced the tiles are written one by one.

When rows or cols are omitted and auto_grid is enabled, a grid is chosen from
the image's aspect ratio.`,
		Example: `  # 2 rows, 3 columns of PNG tiles into ./output
  image-splitter slice photo.jpg --rows 2 --cols 3

  # JPEG tiles at 80% quality, no archive
  image-splitter slice photo.jpg -r 4 -c 4 --format jpeg --quality 0.8 --zip=false`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			spec := a.cfg.SliceSpec()
			if a.cfg.Slicer.AutoGrid {
				spec.Rows, spec.Cols = 0, 0
			}
			if cmd.Flags().Changed("rows") {
				spec.Rows = rows
			}
			if cmd.Flags().Changed("cols") {
				spec.Cols = cols
			}
			if cmd.Flags().Changed("format") {
				spec.Format = processing.ParseFormat(format)
			}
			if cmd.Flags().Changed("quality") {
				spec.Quality = quality
			}
			if !cmd.Flags().Changed("zip") {
				useArchive = a.cfg.Export.Archive
			}

			out := cmd.OutOrStdout()
			tk := a.toolkit(useArchive)
			defer a.release(tk)
			tiles, err := tk.SliceFile(cmd.Context(), args[0], spec, func(current, total int) {
				fmt.Fprintf(out, "\rexported %d/%d", current, total)
			})
			if err != nil {
				return a.fail("slice", err)
			}

			if previews {
				if err := a.writePreviews(tk, tiles); err != nil {
					return a.fail("preview", err)
				}
			}

			var size int64
			for _, t := range tiles {
				size += int64(len(t.Data))
			}
			first := tiles[0]
			fmt.Fprintf(out, "\n%d tiles of %dx%d px (%s) written to %s, %s total\n",
				len(tiles), first.PixelWidth, first.PixelHeight, first.Format, a.outDir, utils.FormatFileSize(size))
			return nil
		},
	}

	cmd.Flags().IntVarP(&rows, "rows", "r", 0, "number of rows (1-20)")
	cmd.Flags().IntVarP(&cols, "cols", "c", 0, "number of columns (1-20)")
	cmd.Flags().StringVarP(&format, "format", "f", "png", "tile format: png|jpeg|webp")
	cmd.Flags().Float64VarP(&quality, "quality", "q", 0.9, "encoder quality for jpeg/webp (0-1)")
	cmd.Flags().BoolVar(&useArchive, "zip", true, "bundle several tiles into one archive")
	cmd.Flags().BoolVar(&previews, "previews", false, "also write 300x200 thumbnails into <out>/previews")

	return cmd
}

// writePreviews saves a PNG thumbnail of every tile under <out>/previews.
func (a *app) writePreviews(tk *imagesplitter.Toolkit, tiles []slicer.Tile) error {
	dir := filepath.Join(a.outDir, "previews")
	if err := utils.EnsureDir(dir); err != nil {
		return fmt.Errorf("failed to create %s: %w: %w", dir, types.ErrIOFailure, err)
	}
	p := processing.NewProcessor()
	for _, t := range tiles {
		thumb, err := tk.TilePreview(t)
		if err != nil {
			return err
		}
		name := utils.GenerateTileFilename(a.cfg.Export.BaseName, t.Index, "png")
		if err := p.SaveImage(thumb, filepath.Join(dir, name), processing.PNG, 1); err != nil {
			return err
		}
	}
	a.logger.Debug("wrote previews", "dir", dir, "count", len(tiles))
	return nil
}
