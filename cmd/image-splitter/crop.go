package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/menta2k/image-splitter/pkg/cropper"
)

func newCropCmd(a *app) *cobra.Command {
	var (
		display string
		drags   []string
	)

	cmd := &cobra.Command{
		Use:   "crop <image>",
		Short: "Crop an image with the interactive crop box geometry",
		Long: `Places the initial crop box (80% of the displayed image, centred), applies
the given drags in order, and writes the selected region at full resolution
as <name>-cropped.png.

Drags are "move:DX,DY" or "<handle>:DX,DY" where handle is one of
n, s, e, w, ne, nw, se, sw. Deltas are in displayed pixels; the box is
clamped to the image and never shrinks below min_crop_size.`,
		Example: `  # Crop the default centred box
  image-splitter crop photo.jpg

  # Image shown at 1000x800: grow from the south-east corner, then move left
  image-splitter crop photo.jpg --display 1000x800 --drag se:120,80 --drag move:-50,0`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tk := a.toolkit(false)
			bitmap, err := tk.LoadForCropping(args[0])
			if err != nil {
				return a.fail("crop", err)
			}

			displayed := cropper.DisplayedGeometry{Width: float64(bitmap.NaturalWidth), Height: float64(bitmap.NaturalHeight)}
			if display != "" {
				if displayed, err = parseSize(display); err != nil {
					return a.fail("crop", err)
				}
			}

			rect, err := tk.StartCrop(displayed)
			if err != nil {
				return a.fail("crop", err)
			}
			for _, d := range drags {
				g, err := parseGesture(d)
				if err != nil {
					return a.fail("crop", err)
				}
				if rect, err = g.apply(tk.Engine()); err != nil {
					return a.fail("crop", err)
				}
				a.logger.Debug("applied drag", "drag", d, "x", rect.X, "y", rect.Y, "width", rect.Width, "height", rect.Height)
			}

			img, err := tk.CropImage(bitmap)
			if err != nil {
				return a.fail("crop", err)
			}
			name, err := tk.ExportCrop(cmd.Context(), img, filepath.Base(args[0]))
			if err != nil {
				return a.fail("crop", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "crop box %.0f,%.0f %.0fx%.0f (displayed), %dx%d px written to %s\n",
				rect.X, rect.Y, rect.Width, rect.Height, img.Bounds().Dx(), img.Bounds().Dy(), filepath.Join(a.outDir, name))
			return nil
		},
	}

	cmd.Flags().StringVar(&display, "display", "", "displayed image size WIDTHxHEIGHT (default: natural size)")
	cmd.Flags().StringArrayVar(&drags, "drag", nil, "drag to apply, repeatable: move:DX,DY or HANDLE:DX,DY")

	return cmd
}
