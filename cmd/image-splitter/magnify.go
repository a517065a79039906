package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/menta2k/image-splitter/internal/utils"
	"github.com/menta2k/image-splitter/pkg/cropper"
	"github.com/menta2k/image-splitter/pkg/processing"
	"github.com/menta2k/image-splitter/pkg/types"
)

func newMagnifyCmd(a *app) *cobra.Command {
	var display, at string

	cmd := &cobra.Command{
		Use:   "magnify <image>",
		Short: "Render the magnifier loupe for a pointer position",
		Long: `Renders the zoomed loupe an editor shows while the pointer is inside the
crop box, including the dashed outline of the crop box edges. The pointer
position is in displayed pixels. Areas beyond the image are transparent.`,
		Example: `  image-splitter magnify photo.jpg --display 1000x800 --at 500,400`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tk := a.toolkit(false)
			bitmap, err := tk.LoadForCropping(args[0])
			if err != nil {
				return a.fail("magnify", err)
			}

			displayed := cropper.DisplayedGeometry{Width: float64(bitmap.NaturalWidth), Height: float64(bitmap.NaturalHeight)}
			if display != "" {
				if displayed, err = parseSize(display); err != nil {
					return a.fail("magnify", err)
				}
			}
			if _, err := tk.StartCrop(displayed); err != nil {
				return a.fail("magnify", err)
			}

			pointer, err := parsePoint(at)
			if err != nil {
				return a.fail("magnify", err)
			}

			loupe, err := tk.Magnify(bitmap, cropper.MagnifierInput{
				PointerX:        pointer.X,
				PointerY:        pointer.Y,
				ContainerWidth:  displayed.Width,
				ContainerHeight: displayed.Height,
				Displayed:       displayed,
			})
			if err != nil {
				return a.fail("magnify", err)
			}
			if loupe == nil {
				err := fmt.Errorf("pointer %s is outside the crop box: %w", at, types.ErrInvalidInput)
				return a.fail("magnify", err)
			}

			if err := utils.EnsureDir(a.outDir); err != nil {
				return a.fail("magnify", errors.Join(types.ErrIOFailure, err))
			}
			path := utils.GenerateOutputFilename(args[0], a.outDir, "-loupe", "png")
			if err := processing.NewProcessor().SaveImage(loupe, path, processing.PNG, 1); err != nil {
				return a.fail("magnify", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "loupe written to %s\n", path)
			return nil
		},
	}

	cmd.Flags().StringVar(&display, "display", "", "displayed image size WIDTHxHEIGHT (default: natural size)")
	cmd.Flags().StringVar(&at, "at", "", "pointer position X,Y in displayed pixels")
	_ = cmd.MarkFlagRequired("at")

	return cmd
}
