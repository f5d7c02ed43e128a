package ui

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/layout"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"

	"github.com/piwi3910/SquarePack/internal/engine"
	"github.com/piwi3910/SquarePack/internal/export"
	"github.com/piwi3910/SquarePack/internal/geometry"
	layoutimporter "github.com/piwi3910/SquarePack/internal/importer"
	"github.com/piwi3910/SquarePack/internal/model"
	"github.com/piwi3910/SquarePack/internal/project"
	"github.com/piwi3910/SquarePack/internal/ui/widgets"
)

const (
	maxRecentConfigs       = 8
	defaultCompareGenerate = 200
)

// App holds all application state and UI references.
type App struct {
	app    fyne.App
	window fyne.Window
	logger *slog.Logger
	theme  *SquarePackTheme

	prefs     model.AppConfig
	prefsPath string
	config    model.Config
	layout    []geometry.Square

	session       *Session
	history       *History
	lastEditLabel string

	done     chan struct{}
	stopOnce sync.Once
	loops    sync.WaitGroup

	tabs              *container.AppTabs
	packingCanvas     *widgets.PackingCanvas
	statusLabel       *widget.Label
	layoutLabel       *widget.Label
	startBtn          *widget.Button
	stopBtn           *widget.Button
	settingsContainer *fyne.Container
	compareContainer  *fyne.Container
	compareBtn        *widget.Button
}

// NewApp loads the viewer preferences and prepares a session. Missing or
// unreadable preferences fall back to defaults.
func NewApp(application fyne.App, window fyne.Window, logger *slog.Logger) *App {
	if logger == nil {
		logger = slog.Default()
	}
	prefsPath := project.DefaultAppConfigPath()
	prefs, err := project.LoadAppConfig(prefsPath)
	if err != nil {
		logger.Warn("failed to load preferences, using defaults", "path", prefsPath, "error", err)
		prefs = model.DefaultAppConfig()
	}

	cfg := model.DefaultConfig()
	prefs.ApplyToConfig(&cfg)

	a := &App{
		app:       application,
		window:    window,
		logger:    logger,
		theme:     NewSquarePackTheme(prefs.Theme),
		prefs:     prefs,
		prefsPath: prefsPath,
		config:    cfg,
		session:   NewSession(logger),
		history:   NewHistory(),
		done:      make(chan struct{}),
	}
	application.Settings().SetTheme(a.theme)
	return a
}

// SetupMenus creates the native menu bar for the application.
func (a *App) SetupMenus() {
	recent := fyne.NewMenuItem("Open Recent", nil)
	recent.ChildMenu = a.buildRecentMenu()

	fileMenu := fyne.NewMenu("File",
		fyne.NewMenuItem("Open Config...", a.openConfig),
		recent,
		fyne.NewMenuItem("Save Config...", a.saveConfig),
		fyne.NewMenuItemSeparator(),
		fyne.NewMenuItem("Import Seed Layout...", a.importLayout),
		fyne.NewMenuItem("Clear Seed Layout", func() {
			a.layout = nil
			a.refreshLayoutLabel()
		}),
		fyne.NewMenuItemSeparator(),
		fyne.NewMenuItem("Export PDF Report...", a.exportPDF),
		fyne.NewMenuItem("Export Packing DXF...", a.exportDXF),
		fyne.NewMenuItem("Export Statistics (Excel)...", a.exportXLSX),
		fyne.NewMenuItem("Export Fitness Plot...", a.exportPlot),
		fyne.NewMenuItem("Save Checkpoint...", a.saveCheckpoint),
	)

	editMenu := fyne.NewMenu("Edit",
		fyne.NewMenuItem("Undo", a.undo),
		fyne.NewMenuItem("Redo", a.redo),
		fyne.NewMenuItemSeparator(),
		fyne.NewMenuItem("Reset to Defaults", func() {
			a.recordEdit("Reset")
			a.config = model.DefaultConfig()
			a.refreshSettings()
		}),
	)

	runMenu := fyne.NewMenu("Run",
		fyne.NewMenuItem("Start", a.startRun),
		fyne.NewMenuItem("Stop", a.stopRun),
		fyne.NewMenuItemSeparator(),
		fyne.NewMenuItem("Compare Scenarios", func() {
			a.tabs.SelectIndex(2)
			a.runComparison()
		}),
	)

	vertices := fyne.NewMenuItem("Show Vertices", nil)
	vertices.Checked = a.prefs.ShowVertices
	vertices.Action = func() {
		a.prefs.ShowVertices = !a.prefs.ShowVertices
		vertices.Checked = a.prefs.ShowVertices
		a.packingCanvas.SetShowVertices(a.prefs.ShowVertices)
		a.savePrefs()
	}
	viewMenu := fyne.NewMenu("View",
		vertices,
		fyne.NewMenuItemSeparator(),
		fyne.NewMenuItem("Light Theme", func() { a.setTheme(ThemeLight) }),
		fyne.NewMenuItem("Dark Theme", func() { a.setTheme(ThemeDark) }),
		fyne.NewMenuItem("System Theme", func() { a.setTheme(ThemeSystem) }),
	)

	helpMenu := fyne.NewMenu("Help",
		fyne.NewMenuItem("About", a.showAboutDialog),
	)

	a.window.SetMainMenu(fyne.NewMainMenu(fileMenu, editMenu, runMenu, viewMenu, helpMenu))
}

func (a *App) buildRecentMenu() *fyne.Menu {
	items := make([]*fyne.MenuItem, 0, len(a.prefs.RecentConfigs))
	for _, p := range a.prefs.RecentConfigs {
		path := p
		items = append(items, fyne.NewMenuItem(path, func() { a.loadConfig(path) }))
	}
	if len(items) == 0 {
		none := fyne.NewMenuItem("(none)", nil)
		none.Disabled = true
		items = append(items, none)
	}
	return fyne.NewMenu("", items...)
}

func (a *App) showAboutDialog() {
	dialog.ShowInformation(
		"About SquarePack",
		"SquarePack - Genetic Square Packing\n\n"+
			"Evolves placements of N rotated unit squares\n"+
			"inside the smallest square container.\n\n"+
			"Version 1.0.0",
		a.window,
	)
}

// Build constructs the full UI and returns the root container.
func (a *App) Build() fyne.CanvasObject {
	packingTab := container.NewTabItem("Packing", a.buildPackingPanel())
	settingsTab := container.NewTabItem("Settings", a.buildSettingsPanel())
	compareTab := container.NewTabItem("Compare", a.buildComparePanel())

	a.tabs = container.NewAppTabs(packingTab, settingsTab, compareTab)
	a.tabs.SetTabLocation(container.TabLocationTop)

	a.startRefreshLoop()
	return a.tabs
}

// ─── Packing Panel ─────────────────────────────────────────

func (a *App) buildPackingPanel() fyne.CanvasObject {
	a.packingCanvas = widgets.NewPackingCanvas()
	a.packingCanvas.SetShowVertices(a.prefs.ShowVertices)
	a.statusLabel = widget.NewLabel("Idle")
	a.layoutLabel = widget.NewLabel("")
	a.refreshLayoutLabel()

	a.startBtn = widget.NewButtonWithIcon("Start", theme.MediaPlayIcon(), a.startRun)
	a.startBtn.Importance = widget.HighImportance
	a.stopBtn = widget.NewButtonWithIcon("Stop", theme.MediaStopIcon(), a.stopRun)
	a.stopBtn.Disable()

	toolbar := container.NewHBox(
		a.startBtn,
		a.stopBtn,
		widget.NewSeparator(),
		a.layoutLabel,
		layout.NewSpacer(),
	)

	return container.NewBorder(toolbar, a.statusLabel, nil, nil, a.packingCanvas)
}

func (a *App) refreshLayoutLabel() {
	if a.layoutLabel == nil {
		return
	}
	if len(a.layout) == 0 {
		a.layoutLabel.SetText("Seed: grid")
		return
	}
	a.layoutLabel.SetText(fmt.Sprintf("Seed: %d imported squares", len(a.layout)))
}

// startRefreshLoop polls the session publisher and redraws the canvas when a
// new generation is available.
func (a *App) startRefreshLoop() {
	interval := time.Duration(a.prefs.RefreshMillis) * time.Millisecond
	if interval <= 0 {
		interval = 50 * time.Millisecond
	}
	a.loops.Add(1)
	go func() {
		defer a.loops.Done()
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		lastGen, lastRun := -1, ""
		for {
			select {
			case <-a.done:
				return
			case <-ticker.C:
			}
			snap, ok := a.session.Publisher().Latest()
			if !ok || (snap.Generation == lastGen && snap.RunID == lastRun) {
				continue
			}
			lastGen, lastRun = snap.Generation, snap.RunID
			fyne.Do(func() {
				a.packingCanvas.SetSnapshot(snap)
				a.statusLabel.SetText(formatStatus(snap))
			})
		}
	}()
}

func formatStatus(s model.Snapshot) string {
	state := "searching"
	if s.Valid() {
		state = "VALID"
	}
	disaster := ""
	if s.Disaster {
		disaster = "  [disaster]"
	}
	return fmt.Sprintf("Run %s  |  Generation %d  |  Best %.6g  Mean %.6g  |  %s  |  %s%s",
		s.RunID, s.Generation, s.BestFitness, s.MeanFitness, s.Elapsed.Round(time.Millisecond), state, disaster)
}

// ─── Settings Panel ────────────────────────────────────────

func (a *App) buildSettingsPanel() fyne.CanvasObject {
	a.settingsContainer = container.NewVBox()
	a.refreshSettings()
	return container.NewVScroll(a.settingsContainer)
}

func (a *App) refreshSettings() {
	a.settingsContainer.RemoveAll()
	c := &a.config

	floatEntry := func(label string, val *float64) *widget.Entry {
		e := widget.NewEntry()
		e.SetText(strconv.FormatFloat(*val, 'g', -1, 64))
		e.OnChanged = func(text string) {
			if v, err := strconv.ParseFloat(text, 64); err == nil && v != *val {
				a.recordEdit(label)
				*val = v
			}
		}
		return e
	}

	intEntry := func(label string, val *int) *widget.Entry {
		e := widget.NewEntry()
		e.SetText(strconv.Itoa(*val))
		e.OnChanged = func(text string) {
			if v, err := strconv.Atoi(text); err == nil && v != *val {
				a.recordEdit(label)
				*val = v
			}
		}
		return e
	}

	seedEntry := widget.NewEntry()
	seedEntry.SetText(strconv.FormatUint(c.Seed, 10))
	seedEntry.OnChanged = func(text string) {
		if v, err := strconv.ParseUint(text, 10, 64); err == nil && v != c.Seed {
			a.recordEdit("Seed")
			c.Seed = v
		}
	}

	problem := widget.NewCard("Problem", "", container.NewGridWithColumns(2,
		widget.NewLabel("Squares (N)"), intEntry("Squares", &c.GeneSize),
		widget.NewLabel("Square Side (s)"), floatEntry("Square side", &c.SquareSide),
		widget.NewLabel("Container Side (L)"), floatEntry("Container side", &c.BoxSide),
	))

	population := widget.NewCard("Population", "", container.NewGridWithColumns(2,
		widget.NewLabel("Population Size"), intEntry("Population size", &c.PopulationSize),
		widget.NewLabel("Elitism Rate"), floatEntry("Elitism rate", &c.ElitismRate),
		widget.NewLabel("Predation Rate"), floatEntry("Predation rate", &c.PredationRate),
		widget.NewLabel("Tournament Size"), intEntry("Tournament size", &c.TournamentSize),
	))

	mutation := widget.NewCard("Mutation", "", container.NewGridWithColumns(2,
		widget.NewLabel("Mutation Rate"), floatEntry("Mutation rate", &c.MutationRate),
		widget.NewLabel("Rotational Snap Probability"), floatEntry("Snap probability", &c.RotationalSnapProbability),
		widget.NewLabel("Nudge Fraction"), floatEntry("Nudge fraction", &c.NudgeFraction),
		widget.NewLabel("Disaster Probability"), floatEntry("Disaster probability", &c.DisasterProbability),
		widget.NewLabel("Disaster Hypermutation Rate"), floatEntry("Hypermutation rate", &c.DisasterHypermutationRate),
	))

	fitness := widget.NewCard("Fitness", "", container.NewGridWithColumns(2,
		widget.NewLabel("Overlap Weight"), floatEntry("Overlap weight", &c.OverlapWeight),
		widget.NewLabel("Out-of-Bounds Weight"), floatEntry("Out-of-bounds weight", &c.OutOfBoundsWeight),
	))

	execution := widget.NewCard("Execution", "", container.NewGridWithColumns(2,
		widget.NewLabel("Workers (0 = all CPUs)"), intEntry("Workers", &c.Workers),
		widget.NewLabel("Seed (0 = random)"), seedEntry,
		widget.NewLabel("Generations (0 = until stopped)"), intEntry("Generations", &c.Generations),
	))

	saveDefaults := widget.NewButtonWithIcon("Save as Defaults", theme.DocumentSaveIcon(), func() {
		a.prefs.DefaultGeneSize = c.GeneSize
		a.prefs.DefaultBoxSide = c.BoxSide
		a.prefs.DefaultPopulationSize = c.PopulationSize
		a.prefs.DefaultMutationRate = c.MutationRate
		a.prefs.DefaultWorkers = c.Workers
		a.savePrefs()
	})

	a.settingsContainer.Add(problem)
	a.settingsContainer.Add(population)
	a.settingsContainer.Add(mutation)
	a.settingsContainer.Add(fitness)
	a.settingsContainer.Add(execution)
	a.settingsContainer.Add(container.NewHBox(layout.NewSpacer(), saveDefaults))
	a.settingsContainer.Refresh()
}

// recordEdit pushes the current config onto the undo stack. Consecutive
// edits of the same field are coalesced.
func (a *App) recordEdit(label string) {
	if label == a.lastEditLabel {
		return
	}
	a.history.Push(Edit{Config: a.config, Label: label})
	a.lastEditLabel = label
}

func (a *App) undo() {
	prev, ok := a.history.Undo(Edit{Config: a.config, Label: a.lastEditLabel})
	if !ok {
		return
	}
	a.config = prev.Config
	a.lastEditLabel = ""
	a.refreshSettings()
}

func (a *App) redo() {
	next, ok := a.history.Redo(Edit{Config: a.config, Label: a.lastEditLabel})
	if !ok {
		return
	}
	a.config = next.Config
	a.lastEditLabel = ""
	a.refreshSettings()
}

// ─── Compare Panel ─────────────────────────────────────────

func (a *App) buildComparePanel() fyne.CanvasObject {
	a.compareContainer = container.NewVBox(
		widget.NewLabel("Compare the current settings against what-if variants."),
	)
	a.compareBtn = widget.NewButtonWithIcon("Run Comparison", theme.ViewRefreshIcon(), a.runComparison)
	return container.NewBorder(
		container.NewHBox(
			widget.NewLabelWithStyle("Scenario Comparison", fyne.TextAlignLeading, fyne.TextStyle{Bold: true}),
			layout.NewSpacer(),
			a.compareBtn,
		),
		nil, nil, nil,
		container.NewVScroll(a.compareContainer),
	)
}

func (a *App) runComparison() {
	cfg := a.config
	generations := cfg.Generations
	if generations <= 0 {
		generations = defaultCompareGenerate
	}
	scenarios := engine.BuildDefaultScenarios(cfg)

	a.compareBtn.Disable()
	a.compareContainer.RemoveAll()
	a.compareContainer.Add(widget.NewLabel(fmt.Sprintf("Running %d scenarios for %d generations...", len(scenarios), generations)))
	a.compareContainer.Add(widget.NewProgressBarInfinite())

	go func() {
		results := engine.CompareScenarios(context.Background(), scenarios, generations, a.logger)
		fyne.Do(func() {
			a.showComparison(results, generations)
			a.compareBtn.Enable()
		})
	}()
}

func (a *App) showComparison(results []engine.ComparisonResult, generations int) {
	a.compareContainer.RemoveAll()

	header := container.NewGridWithColumns(6,
		widget.NewLabelWithStyle("Scenario", fyne.TextAlignLeading, fyne.TextStyle{Bold: true}),
		widget.NewLabelWithStyle("Best", fyne.TextAlignLeading, fyne.TextStyle{Bold: true}),
		widget.NewLabelWithStyle("Mean", fyne.TextAlignLeading, fyne.TextStyle{Bold: true}),
		widget.NewLabelWithStyle("Valid", fyne.TextAlignLeading, fyne.TextStyle{Bold: true}),
		widget.NewLabelWithStyle("Disasters", fyne.TextAlignLeading, fyne.TextStyle{Bold: true}),
		widget.NewLabelWithStyle("Seed", fyne.TextAlignLeading, fyne.TextStyle{Bold: true}),
	)
	a.compareContainer.Add(widget.NewLabel(fmt.Sprintf("%d generations per scenario", generations)))
	a.compareContainer.Add(header)
	a.compareContainer.Add(widget.NewSeparator())

	for _, r := range results {
		if r.Err != nil {
			a.compareContainer.Add(container.NewGridWithColumns(2,
				widget.NewLabel(r.Scenario.Name),
				widget.NewLabel("Error: "+r.Err.Error()),
			))
			continue
		}
		valid := "no"
		if r.Valid {
			valid = "yes"
		}
		a.compareContainer.Add(container.NewGridWithColumns(6,
			widget.NewLabel(r.Scenario.Name),
			widget.NewLabel(fmt.Sprintf("%.6g", r.BestFitness)),
			widget.NewLabel(fmt.Sprintf("%.6g", r.MeanFitness)),
			widget.NewLabel(valid),
			widget.NewLabel(strconv.Itoa(r.Disasters)),
			widget.NewLabel(strconv.FormatUint(r.Seed, 10)),
		))
	}
	a.compareContainer.Refresh()
}

// ─── Actions ───────────────────────────────────────────────

func (a *App) startRun() {
	err := a.session.Start(a.config, a.layout, func(r Report) {
		fyne.Do(func() { a.runFinished(r) })
	})
	if err != nil {
		dialog.ShowError(err, a.window)
		return
	}
	a.startBtn.Disable()
	a.stopBtn.Enable()
	a.tabs.SelectIndex(0)
}

func (a *App) stopRun() {
	a.stopBtn.Disable()
	go a.session.Stop()
}

func (a *App) runFinished(r Report) {
	a.startBtn.Enable()
	a.stopBtn.Disable()
	a.packingCanvas.SetSnapshot(r.Last)
	a.statusLabel.SetText(formatStatus(r.Last) + "  |  finished")
	if r.Err != nil {
		dialog.ShowError(r.Err, a.window)
	}
}

func (a *App) setTheme(pref string) {
	a.prefs.Theme = pref
	a.theme.SetPreference(pref)
	a.app.Settings().SetTheme(a.theme)
	a.savePrefs()
}

func (a *App) savePrefs() {
	if err := project.SaveAppConfig(a.prefsPath, a.prefs); err != nil {
		a.logger.Warn("failed to save preferences", "path", a.prefsPath, "error", err)
	}
}

func (a *App) openConfig() {
	dialog.ShowFileOpen(func(reader fyne.URIReadCloser, err error) {
		if err != nil || reader == nil {
			return
		}
		defer reader.Close()
		a.loadConfig(reader.URI().Path())
	}, a.window)
}

func (a *App) loadConfig(path string) {
	cfg, err := project.LoadConfig(path)
	if err != nil {
		dialog.ShowError(err, a.window)
		return
	}
	a.recordEdit("Open " + path)
	a.config = cfg
	a.lastEditLabel = ""
	a.refreshSettings()

	a.prefs.AddRecentConfig(path, maxRecentConfigs)
	a.savePrefs()
	a.SetupMenus()
}

func (a *App) saveConfig() {
	d := dialog.NewFileSave(func(writer fyne.URIWriteCloser, err error) {
		if err != nil || writer == nil {
			return
		}
		defer writer.Close()
		path := writer.URI().Path()
		if err := project.SaveConfig(path, a.config); err != nil {
			dialog.ShowError(err, a.window)
			return
		}
		a.prefs.AddRecentConfig(path, maxRecentConfigs)
		a.savePrefs()
		a.SetupMenus()
	}, a.window)
	d.SetFileName("squarepack.json")
	d.Show()
}

func (a *App) importLayout() {
	dialog.ShowFileOpen(func(reader fyne.URIReadCloser, err error) {
		if err != nil || reader == nil {
			return
		}
		defer reader.Close()
		a.handleImportResult(layoutimporter.ImportLayout(reader.URI().Path()))
	}, a.window)
}

func (a *App) handleImportResult(result layoutimporter.ImportResult) {
	if len(result.Errors) > 0 {
		errorMsg := "Errors encountered during import:\n\n" + strings.Join(result.Errors, "\n")
		dialog.ShowError(fmt.Errorf("%s", errorMsg), a.window)
	}

	if len(result.Warnings) > 0 {
		a.logger.Warn("seed layout import warnings", "warnings", result.Warnings)
	}

	if len(result.Squares) > 0 {
		a.layout = result.Squares
		a.refreshLayoutLabel()

		msg := fmt.Sprintf("Imported %d squares as the seed layout.", len(result.Squares))
		if len(result.Squares) != a.config.GeneSize {
			msg += fmt.Sprintf("\n\nThe run uses %d squares; the layout will be padded or truncated.", a.config.GeneSize)
		}
		dialog.ShowInformation("Import Complete", msg, a.window)
	}
}

// lastReport returns the finished run's report or tells the user there is
// nothing to export.
func (a *App) lastReport() (Report, bool) {
	r, ok := a.session.Report()
	if !ok {
		dialog.ShowInformation("No results", "Run the search first before exporting.", a.window)
	}
	return r, ok
}

func (a *App) saveFile(defaultName string, write func(path string) error) {
	d := dialog.NewFileSave(func(writer fyne.URIWriteCloser, err error) {
		if err != nil || writer == nil {
			return
		}
		path := writer.URI().Path()
		writer.Close()
		if err := write(path); err != nil {
			dialog.ShowError(err, a.window)
			return
		}
		dialog.ShowInformation("Export Complete", fmt.Sprintf("Saved to %s", path), a.window)
	}, a.window)
	d.SetFileName(defaultName)
	d.Show()
}

func (a *App) exportPDF() {
	r, ok := a.lastReport()
	if !ok {
		return
	}
	a.saveFile("packing-"+r.Last.RunID+".pdf", func(path string) error {
		return export.ExportPDF(path, r.Last, r.Summary, r.History)
	})
}

func (a *App) exportDXF() {
	r, ok := a.lastReport()
	if !ok {
		return
	}
	a.saveFile("packing-"+r.Last.RunID+".dxf", func(path string) error {
		return export.ExportDXF(path, r.Last.BoxSide, r.Last.BestSquares)
	})
}

func (a *App) exportXLSX() {
	r, ok := a.lastReport()
	if !ok {
		return
	}
	a.saveFile("generations-"+r.Last.RunID+".xlsx", func(path string) error {
		return export.WriteXLSX(path, r.History)
	})
}

func (a *App) exportPlot() {
	r, ok := a.lastReport()
	if !ok {
		return
	}
	a.saveFile("fitness-"+r.Last.RunID+".png", func(path string) error {
		return export.PlotHistory(path, "Run "+r.Last.RunID, r.History)
	})
}

func (a *App) saveCheckpoint() {
	r, ok := a.lastReport()
	if !ok {
		return
	}
	a.saveFile("checkpoint-"+r.Last.RunID+".json", func(path string) error {
		return project.SaveCheckpoint(path, r.Last.RunID, r.Seed, r.Last.Generation, r.Summary.Config, r.Population)
	})
}

// Shutdown stops a running search and the refresh loop. Call it when the
// window closes; repeated calls are no-ops.
func (a *App) Shutdown() {
	a.stopOnce.Do(func() {
		close(a.done)
		a.session.Stop()
	})
	a.loops.Wait()
}
