package main

import (
	"context"
	"os"

	"github.com/charmbracelet/fang"

	imagesplitter "github.com/menta2k/image-splitter"
)

func main() {
	root := newRootCmd()

	if err := fang.Execute(
		context.Background(),
		root,
		fang.WithVersion(imagesplitter.Version),
		fang.WithNotifySignal(os.Interrupt, os.Kill),
	); err != nil {
		os.Exit(1)
	}
}
