package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/lessonkit/refpipe/internal/adapters/driving/tui/keymap"
	"github.com/lessonkit/refpipe/internal/adapters/driving/tui/messages"
	"github.com/lessonkit/refpipe/internal/adapters/driving/tui/styles"
	"github.com/lessonkit/refpipe/internal/core/domain"
)

const (
	nameWidth   = 28
	minBarWidth = 10
	maxBarWidth = 40
)

// row tracks the latest progress for one item or archive member.
type row struct {
	name    string
	member  bool
	percent int
	stage   domain.ProgressStage
	results []domain.ExtractionResult
	err     error
	done    bool
}

// App is the extraction progress view following the Elm architecture.
// It ingests its items one by one on a worker goroutine and renders a
// progress bar per item. It implements tea.Model for use with Bubbletea.
type App struct {
	ports *Ports
	items []domain.UploadItem

	ctx    context.Context
	cancel context.CancelFunc
	events chan tea.Msg

	styles  *styles.Styles
	keys    *keymap.KeyMap
	help    help.Model
	spinner spinner.Model
	bar     progress.Model

	rows   []*row
	byName map[string]*row

	results     []domain.ExtractionResult
	completed   int
	err         error
	finished    bool
	cancelled   bool
	showDetails bool
	width       int
}

// Ensure App implements tea.Model.
var _ tea.Model = (*App)(nil)

// NewApp creates a progress view that will ingest items through the ports.
func NewApp(ports *Ports, items []domain.UploadItem) (*App, error) {
	if err := ports.Validate(); err != nil {
		return nil, fmt.Errorf("creating app: %w", err)
	}
	if len(items) == 0 {
		return nil, ErrNoItems
	}

	s := styles.DefaultStyles()
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = s.Subtitle

	a := &App{
		ports:   ports,
		items:   items,
		ctx:     context.Background(),
		events:  make(chan tea.Msg, 64),
		styles:  s,
		keys:    keymap.DefaultKeyMap(),
		help:    help.New(),
		spinner: sp,
		bar:     progress.New(progress.WithDefaultGradient(), progress.WithoutPercentage()),
		byName:  make(map[string]*row, len(items)),
	}
	a.bar.Width = maxBarWidth

	for _, item := range items {
		a.track(item.Name, false)
	}
	return a, nil
}

// WithContext sets the parent context for ingestion.
func (a *App) WithContext(ctx context.Context) *App {
	a.ctx = ctx
	return a
}

// Init implements tea.Model.
// It starts the spinner and the ingestion worker.
func (a *App) Init() tea.Cmd {
	ctx, cancel := context.WithCancel(a.ctx)
	a.cancel = cancel
	go a.work(ctx)

	return tea.Batch(
		tea.SetWindowTitle("refpipe - extracting"),
		a.spinner.Tick,
		a.listen(),
	)
}

// work ingests every item sequentially and posts events for the model.
func (a *App) work(ctx context.Context) {
	defer close(a.events)

	for _, item := range a.items {
		if ctx.Err() != nil {
			return
		}
		results, err := a.ports.Ingestion.Ingest(ctx, item, func(p domain.Progress) {
			a.post(ctx, messages.ProgressReported{Progress: p})
		})
		a.post(ctx, messages.ItemCompleted{Name: item.Name, Results: results, Err: err})
	}
	a.post(ctx, messages.BatchFinished{})
}

// post delivers a message unless the view has gone away.
func (a *App) post(ctx context.Context, msg tea.Msg) {
	select {
	case a.events <- msg:
	case <-ctx.Done():
	}
}

// listen waits for the next worker event.
func (a *App) listen() tea.Cmd {
	return func() tea.Msg {
		msg, ok := <-a.events
		if !ok {
			return nil
		}
		return msg
	}
}

// Update implements tea.Model.
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.help.Width = msg.Width
		a.bar.Width = clamp(msg.Width-nameWidth-24, minBarWidth, maxBarWidth)
		return a, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, a.keys.Quit):
			if !a.finished {
				a.cancelled = true
			}
			if a.cancel != nil {
				a.cancel()
			}
			return a, tea.Quit
		case key.Matches(msg, a.keys.Help):
			a.help.ShowAll = !a.help.ShowAll
		case key.Matches(msg, a.keys.Details):
			a.showDetails = !a.showDetails
		}
		return a, nil

	case spinner.TickMsg:
		if a.finished {
			return a, nil
		}
		var cmd tea.Cmd
		a.spinner, cmd = a.spinner.Update(msg)
		return a, cmd

	case messages.ProgressReported:
		r := a.track(msg.Progress.FileName, true)
		r.percent = msg.Progress.Percent
		r.stage = msg.Progress.Stage
		if r.stage == domain.StageDone || r.stage == domain.StageCached || r.stage == domain.StageFailed {
			r.done = true
		}
		return a, a.listen()

	case messages.ItemCompleted:
		a.complete(msg)
		return a, a.listen()

	case messages.BatchFinished:
		a.finished = true
		if a.cancel != nil {
			a.cancel()
		}
		return a, tea.Quit

	case messages.ErrorOccurred:
		a.err = msg.Err
		return a, a.listen()
	}

	return a, nil
}

// track returns the row for a name, adding it when first seen.
func (a *App) track(name string, member bool) *row {
	if r, ok := a.byName[name]; ok {
		return r
	}
	r := &row{name: name, member: member, stage: domain.StageHashing}
	a.rows = append(a.rows, r)
	a.byName[name] = r
	return r
}

func (a *App) complete(msg messages.ItemCompleted) {
	r := a.track(msg.Name, false)
	r.done = true
	r.err = msg.Err
	r.results = msg.Results
	r.percent = 100

	a.completed++
	a.results = append(a.results, msg.Results...)
	if msg.Err != nil {
		r.stage = domain.StageFailed
		return
	}
	if r.stage != domain.StageCached {
		r.stage = domain.StageDone
	}
	if len(msg.Results) == 1 && msg.Results[0].Status == domain.StatusError {
		r.stage = domain.StageFailed
	}
}

// View implements tea.Model.
func (a *App) View() string {
	var b strings.Builder

	b.WriteString(a.styles.Title.Render("refpipe"))
	b.WriteString(a.styles.Muted.Render(fmt.Sprintf("  %d/%d items", a.completed, len(a.items))))
	if a.ports.Recognition != nil {
		if n := a.ports.Recognition.ActiveJobs(); n > 0 {
			b.WriteString(a.styles.Muted.Render(fmt.Sprintf("  ocr jobs: %d", n)))
		}
	}
	b.WriteString("\n\n")

	for _, r := range a.rows {
		b.WriteString(a.renderRow(r))
		b.WriteString("\n")
		if a.showDetails && r.done {
			b.WriteString(a.renderDetails(r))
		}
	}

	if a.err != nil {
		b.WriteString("\n")
		b.WriteString(a.styles.Error.Render("error: " + a.err.Error()))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(a.help.View(a.keys))
	b.WriteString("\n")
	return b.String()
}

func (a *App) renderRow(r *row) string {
	icon := a.spinner.View()
	switch {
	case r.done && r.stage == domain.StageFailed:
		icon = a.styles.Error.Render("✗")
	case r.done:
		icon = a.styles.Success.Render("✓")
	}

	name := r.name
	if r.member {
		name = "└ " + name
	}
	name = truncate(name, nameWidth)

	return fmt.Sprintf("%s %-*s %s %3d%% %s",
		icon,
		nameWidth, name,
		a.bar.ViewAs(float64(r.percent)/100),
		r.percent,
		a.styles.Stage(r.stage).Render(string(r.stage)),
	)
}

func (a *App) renderDetails(r *row) string {
	var b strings.Builder
	if r.err != nil {
		b.WriteString("    " + a.styles.Error.Render(r.err.Error()) + "\n")
	}
	for i := range r.results {
		res := &r.results[i]
		line := fmt.Sprintf("    %s %s  %d chunks",
			a.styles.Status(res.Status).Render(string(res.Status)),
			res.Metadata.FileName,
			res.ChunkCount)
		if c := res.Metadata.OCRConfidence; c != nil {
			line += "  " + a.styles.Confidence(*c).Render(fmt.Sprintf("confidence %.2f", *c))
		}
		if res.Metadata.Error != "" {
			line += "  " + a.styles.Muted.Render(res.Metadata.Error)
		}
		b.WriteString(line + "\n")
	}
	return b.String()
}

// Run starts the progress view and returns every result gathered.
// ErrCancelled is returned when the user quits early.
func (a *App) Run() ([]domain.ExtractionResult, error) {
	p := tea.NewProgram(a)
	if _, err := p.Run(); err != nil {
		return a.results, err
	}
	if a.cancelled {
		return a.results, ErrCancelled
	}
	return a.results, nil
}

// Results returns the results gathered so far.
func (a *App) Results() []domain.ExtractionResult {
	return a.results
}

// Finished reports whether every item has been ingested.
func (a *App) Finished() bool {
	return a.finished
}

// Cancelled reports whether the user quit before the batch finished.
func (a *App) Cancelled() bool {
	return a.cancelled
}

// Err returns the last error that occurred.
func (a *App) Err() error {
	return a.err
}

func truncate(s string, width int) string {
	r := []rune(s)
	if len(r) <= width {
		return s
	}
	return string(r[:width-1]) + "…"
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
