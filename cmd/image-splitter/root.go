package main

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	imagesplitter "github.com/menta2k/image-splitter"
	"github.com/menta2k/image-splitter/internal/config"
	"github.com/menta2k/image-splitter/pkg/archive"
	"github.com/menta2k/image-splitter/pkg/export"
	"github.com/menta2k/image-splitter/pkg/types"
)

// app is the state shared by every subcommand once the root pre-run has
// loaded configuration.
type app struct {
	configPath string
	outDir     string
	verbose    bool

	cfg    *config.Config
	logger *slog.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{}

	cmd := &cobra.Command{
		Use:   "image-splitter",
		Short: "Cut images into tiles and crop them with a magnified preview",
		Long: `image-splitter slices an image into a rows x cols grid of tiles and
exports them as one zip archive, or crops an image using the same crop box
geometry as an interactive editor.

Configuration is read from ~/.config/image-splitter/config.json, or from the
file named by IMAGE_SPLITTER_CONFIG or --config. A .env file in the working
directory is loaded first.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// Load .env file if present (ignore errors)
			_ = godotenv.Load()
			return a.load(true)
		},
	}

	cmd.PersistentFlags().StringVar(&a.configPath, "config", "", "config file (JSON or YAML)")
	cmd.PersistentFlags().StringVarP(&a.outDir, "out", "o", "", "output directory (default from config)")
	cmd.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "enable debug logging")

	cmd.AddCommand(newSliceCmd(a))
	cmd.AddCommand(newCropCmd(a))
	cmd.AddCommand(newMagnifyCmd(a))
	cmd.AddCommand(newConfigCmd(a))

	return cmd
}

// load reads the config file and sets up logging. A missing file means
// defaults, unless strict is set and the file was named explicitly.
func (a *app) load(strict bool) error {
	path := a.configPath
	if path == "" {
		path = config.GetConfigPath()
	}

	cfg, err := config.LoadFromFile(path)
	switch {
	case err == nil:
	case (!strict || a.configPath == "") && errors.Is(err, fs.ErrNotExist):
		cfg = config.Default()
	default:
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config %s: %w", path, err)
	}
	a.cfg = cfg
	a.configPath = path

	if a.outDir == "" {
		a.outDir = cfg.Export.OutputDir
	}

	level := cfg.Level()
	if a.verbose {
		level = slog.LevelDebug
	}
	a.logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(a.logger)
	return nil
}

// toolkit builds a Toolkit writing into the output directory.
func (a *app) toolkit(useArchive bool) *imagesplitter.Toolkit {
	loader := archive.Unavailable()
	if useArchive {
		loader = archive.NewZipLoader()
	}
	return imagesplitter.NewWithOptions(imagesplitter.Options{
		Cropper:          a.cfg.Cropper,
		Export:           a.cfg.ExporterConfig(),
		Downloader:       export.NewDirDownloader(a.outDir),
		Archive:          loader,
		Logger:           a.logger,
		CropMaxFileSize:  a.cfg.Limits.CropMaxFileSize,
		SliceMaxFileSize: a.cfg.Limits.SliceMaxFileSize,
	})
}

// release removes temporary archives before the process exits.
func (a *app) release(tk *imagesplitter.Toolkit) {
	if err := tk.Close(); err != nil {
		a.logger.Warn("failed to release temporary files", "error", err)
	}
}

// fail logs the diagnostic and returns the one-line message shown to the user.
func (a *app) fail(op string, err error) error {
	a.logger.Error(op+" failed", "kind", types.KindOf(err), "error", err)
	return errors.New(types.UserMessage(err))
}
