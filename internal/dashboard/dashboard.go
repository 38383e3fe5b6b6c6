// Package dashboard renders a live terminal view of a running load test.
package dashboard

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	ui "github.com/gizak/termui/v3"
	"github.com/gizak/termui/v3/widgets"

	"github.com/torosent/salvo/internal/metrics"
)

const (
	refreshInterval = 500 * time.Millisecond
	historyLimit    = 100
	maxTargetRows   = 10
)

// CountsSource exposes live counters; *metrics.Collector implements it.
type CountsSource interface {
	Counts() metrics.Counts
}

// RunInfo holds load test parameters for display.
type RunInfo struct {
	RunID       string
	Targets     []string
	Total       int
	Concurrency int
	Rate        int           // Requests per second (0 = unlimited)
	Timeout     time.Duration // Request timeout
	ConfigFile  string        // Path to config file if used
}

// Dashboard renders a live terminal UI for load test metrics.
type Dashboard struct {
	source       CountsSource
	inFlight     func() int64
	ctx          context.Context
	cancel       context.CancelFunc
	shutdownFunc func()
	wg           sync.WaitGroup
	mu           sync.Mutex

	// Widgets
	grid           *ui.Grid
	progressGauge  *widgets.Gauge
	latencySparkle *widgets.SparklineGroup
	summaryPara    *widgets.Paragraph
	countersPara   *widgets.Paragraph
	targetList     *widgets.List
	latencyHistory []float64
	startTime      time.Time
	info           RunInfo
}

// New initializes the terminal and creates a Dashboard. shutdownFunc is
// called when the user presses q or Ctrl-C.
func New(source CountsSource, inFlight func() int64, info RunInfo, shutdownFunc func()) (*Dashboard, error) {
	if err := ui.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize termui: %w", err)
	}

	d := newDashboard(source, inFlight, info, shutdownFunc)
	d.setupGrid()
	return d, nil
}

func newDashboard(source CountsSource, inFlight func() int64, info RunInfo, shutdownFunc func()) *Dashboard {
	if inFlight == nil {
		inFlight = func() int64 { return 0 }
	}
	ctx, cancel := context.WithCancel(context.Background())
	d := &Dashboard{
		source:         source,
		inFlight:       inFlight,
		ctx:            ctx,
		cancel:         cancel,
		shutdownFunc:   shutdownFunc,
		latencyHistory: make([]float64, 0, historyLimit),
		startTime:      time.Now(),
		info:           info,
	}
	d.initWidgets()
	return d
}

// initWidgets initializes all dashboard widgets.
func (d *Dashboard) initWidgets() {
	d.progressGauge = widgets.NewGauge()
	d.progressGauge.Title = "Progress"
	d.progressGauge.Percent = 0
	d.progressGauge.BarColor = ui.ColorBlue
	d.progressGauge.BorderStyle.Fg = ui.ColorCyan
	d.progressGauge.LabelStyle = ui.NewStyle(ui.ColorWhite)

	sparkline := widgets.NewSparkline()
	sparkline.Title = "Mean latency (ms)"
	sparkline.LineColor = ui.ColorGreen
	sparkline.Data = []float64{0}

	d.latencySparkle = widgets.NewSparklineGroup(sparkline)
	d.latencySparkle.Title = "Real-time Latency"
	d.latencySparkle.BorderStyle.Fg = ui.ColorCyan

	d.summaryPara = widgets.NewParagraph()
	d.summaryPara.Title = "Test Summary"
	d.summaryPara.Text = "Initializing..."
	d.summaryPara.BorderStyle.Fg = ui.ColorCyan

	d.countersPara = widgets.NewParagraph()
	d.countersPara.Title = "Counters"
	d.countersPara.Text = "Waiting for data..."
	d.countersPara.BorderStyle.Fg = ui.ColorCyan

	d.targetList = widgets.NewList()
	d.targetList.Title = "Targets"
	d.targetList.Rows = formatTargetRows(d.info.Targets)
	d.targetList.TextStyle = ui.NewStyle(ui.ColorCyan)
	d.targetList.BorderStyle.Fg = ui.ColorCyan
}

// setupGrid configures the layout grid.
func (d *Dashboard) setupGrid() {
	termWidth, termHeight := ui.TerminalDimensions()

	d.grid = ui.NewGrid()
	d.grid.SetRect(0, 0, termWidth, termHeight)

	d.grid.Set(
		ui.NewRow(0.16,
			ui.NewCol(1.0, d.summaryPara),
		),
		ui.NewRow(0.14,
			ui.NewCol(1.0, d.progressGauge),
		),
		ui.NewRow(0.40,
			ui.NewCol(0.65, d.latencySparkle),
			ui.NewCol(0.35, d.countersPara),
		),
		ui.NewRow(0.30,
			ui.NewCol(1.0, d.targetList),
		),
	)
}

// Start begins the dashboard update loop.
func (d *Dashboard) Start() {
	d.wg.Add(1)
	go d.run()
}

// Stop stops the dashboard and restores the terminal.
func (d *Dashboard) Stop() {
	d.cancel()
	d.wg.Wait()
	ui.Close()
	// Give terminal time to restore
	time.Sleep(100 * time.Millisecond)
}

// run is the main dashboard update loop.
func (d *Dashboard) run() {
	defer d.wg.Done()

	ticker := time.NewTicker(refreshInterval)
	defer ticker.Stop()

	uiEvents := ui.PollEvents()

	d.render()

	for {
		select {
		case <-d.ctx.Done():
			return
		case e := <-uiEvents:
			switch e.ID {
			case "q", "<C-c>":
				if d.shutdownFunc != nil {
					d.shutdownFunc()
				}
				// keep rendering until Stop
			case "<Resize>":
				payload := e.Payload.(ui.Resize)
				d.mu.Lock()
				d.grid.SetRect(0, 0, payload.Width, payload.Height)
				d.mu.Unlock()
				ui.Clear()
				d.render()
			}
		case <-ticker.C:
			d.update(d.source.Counts(), d.inFlight(), time.Since(d.startTime))
			d.render()
		}
	}
}

// update refreshes all widget data from a counters snapshot.
func (d *Dashboard) update(counts metrics.Counts, inFlight int64, elapsed time.Duration) {
	d.mu.Lock()
	defer d.mu.Unlock()

	completed := counts.Completed()

	if counts.Successes > 0 {
		meanMs := float64(counts.MeanLatency()) / float64(time.Millisecond)
		d.latencyHistory = append(d.latencyHistory, meanMs)
		if len(d.latencyHistory) > historyLimit {
			d.latencyHistory = d.latencyHistory[1:]
		}
		d.latencySparkle.Sparklines[0].Data = d.latencyHistory
		d.latencySparkle.Title = fmt.Sprintf("Real-time Latency | Mean: %.2fms", meanMs)
	}

	d.progressGauge.Percent = progressPercent(completed, d.info.Total)
	d.progressGauge.Label = fmt.Sprintf("%d/%d (%d%%)", completed, d.info.Total, d.progressGauge.Percent)

	rps := 0.0
	if elapsed > 0 {
		rps = float64(counts.Successes) / elapsed.Seconds()
	}
	successRate := 0.0
	if completed > 0 {
		successRate = float64(counts.Successes) / float64(completed) * 100
	}

	d.summaryPara.Text = fmt.Sprintf(
		"Run: %s\n%s\nElapsed: %s | Success Rate: %.1f%% | [q] quit",
		d.info.RunID,
		formatRunParams(d.info),
		elapsed.Round(time.Second),
		successRate,
	)

	d.countersPara.Text = fmt.Sprintf(
		"Completed:   %d\nSuccessful:  %d\nFailed:      %d\nIn-flight:   %d\nCurrent RPS: %.2f",
		completed,
		counts.Successes,
		counts.Failures,
		inFlight,
		rps,
	)
}

// render draws all widgets to the screen.
func (d *Dashboard) render() {
	d.mu.Lock()
	defer d.mu.Unlock()

	ui.Render(d.grid)
}

func progressPercent(completed int64, total int) int {
	if total <= 0 {
		return 0
	}
	percent := int(completed * 100 / int64(total))
	if percent > 100 {
		percent = 100
	}
	return percent
}

func formatTargetRows(targets []string) []string {
	if len(targets) == 0 {
		return []string{"[No targets](fg:yellow)"}
	}
	rows := make([]string, 0, maxTargetRows)
	for i, target := range targets {
		if i == maxTargetRows {
			rows = append(rows, fmt.Sprintf("... and %d more", len(targets)-maxTargetRows))
			break
		}
		rows = append(rows, fmt.Sprintf("[%d](fg:white) %s<page>", i+1, target))
	}
	return rows
}

// formatRunParams formats the run parameters for display.
func formatRunParams(info RunInfo) string {
	var parts []string

	parts = append(parts, fmt.Sprintf("Total: %d", info.Total))
	parts = append(parts, fmt.Sprintf("Concurrency: %d", info.Concurrency))

	if info.Rate > 0 {
		parts = append(parts, fmt.Sprintf("Rate: %d/s", info.Rate))
	} else {
		parts = append(parts, "Rate: unlimited")
	}

	if info.Timeout > 0 {
		parts = append(parts, fmt.Sprintf("Timeout: %s", info.Timeout))
	}

	if info.ConfigFile != "" {
		parts = append(parts, fmt.Sprintf("Config: %s", info.ConfigFile))
	}

	return strings.Join(parts, " | ")
}
