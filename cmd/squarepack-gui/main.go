// SquarePack desktop viewer: edit run parameters, watch the best packing
// evolve and export reports.
//
// Build:
//   go build -o squarepack-gui ./cmd/squarepack-gui
//
// Using fyne-cross for packaged builds:
//   go install github.com/fyne-io/fyne-cross@latest
//   fyne-cross windows -arch=amd64
//   fyne-cross darwin  -arch=amd64,arm64

package main

import (
	"log/slog"
	"os"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"

	"github.com/piwi3910/SquarePack/internal/ui"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	slog.SetDefault(logger)

	application := app.NewWithID("com.piwi3910.squarepack")
	window := application.NewWindow("SquarePack - Genetic Square Packing")

	appUI := ui.NewApp(application, window, logger)
	window.SetContent(appUI.Build())
	appUI.SetupMenus()
	window.SetOnClosed(appUI.Shutdown)
	window.Resize(fyne.NewSize(1100, 800))
	window.CenterOnScreen()
	window.ShowAndRun()
}
