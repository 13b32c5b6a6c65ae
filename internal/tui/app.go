// Package tui provides the interactive Bubble Tea dashboard for salesdash.
package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/theirongolddev/salesdash/internal/cli"
	"github.com/theirongolddev/salesdash/internal/config"
	"github.com/theirongolddev/salesdash/internal/model"
	"github.com/theirongolddev/salesdash/internal/pipeline"
	"github.com/theirongolddev/salesdash/internal/tui/components"
	"github.com/theirongolddev/salesdash/internal/tui/theme"
)

// Loader fetches and parses one data set.
type Loader interface {
	Load(ctx context.Context, location string) (*pipeline.LoadResult, error)
}

// Options configures a new App.
type Options struct {
	Source   string // explicit location; overrides the configured one
	Config   config.Config
	Criteria model.FilterCriteria
	Mode     model.Mode
	Currency model.Currency
	Seed     *uint64 // nil draws forecast uplifts from the global generator
	Loader   Loader
	Jobs     pipeline.LatestJobFinder // nil disables processed-file polling
	FirstRun bool                     // show the setup form before the dashboard
}

// dataLoadedMsg carries the result of one gated load.
type dataLoadedMsg struct {
	token pipeline.Token
	res   *pipeline.LoadResult
	err   error
	took  time.Duration
}

// jobCheckedMsg carries the newest processed-file record.
type jobCheckedMsg struct {
	job model.ProcessedFile
	ok  bool
	err error
}

type jobTickMsg struct{}

// App is the root Bubble Tea model.
type App struct {
	// Data
	records   []model.TransactionRecord
	location  string
	fetchedAt time.Time
	fromCache bool
	loadTime  time.Duration
	loaded    bool
	loading   bool
	loadErr   string

	// Pre-computed for the current filter, mode and currency
	view     model.DashboardView
	agencies []model.AgencyTotals

	// Selection
	criteria model.FilterCriteria
	mode     model.Mode
	currency model.Currency

	// Pipeline
	gate   *pipeline.Gate
	life   *pipeline.Lifecycle
	loader Loader
	jobs   pipeline.LatestJobFinder
	source string
	cfg    config.Config
	seed   *uint64

	// UI state
	width     int
	height    int
	activeTab int
	showHelp  bool
	scroll    int
	spinner   spinner.Model

	// Agency picker (huh form)
	agencyForm *huh.Form
	agencyPick *[]string

	// First-run setup (huh form)
	setupForm *huh.Form
	setupVals *SetupValues
	needSetup bool
}

const (
	minTerminalWidth = 80
	compactWidth     = 120
	maxContentWidth  = 180

	minContentHeight = 5
	jobPollInterval  = 5 * time.Second
	loadTimeout      = 2 * time.Minute
)

// NewApp creates the root dashboard model. The first load starts in Init.
func NewApp(opts Options) App {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(theme.Active.Accent).Background(theme.Active.Surface)

	mode := opts.Mode
	if mode == "" {
		mode = model.Monthly
	}
	currency := opts.Currency
	if currency == "" {
		currency = model.CurrencyUSD
	}
	criteria := opts.Criteria
	if len(criteria.Agencies) == 0 {
		criteria = model.NewFilterCriteria(criteria.Month, nil)
	}

	a := App{
		criteria: criteria,
		mode:     mode,
		currency: currency,
		gate:     &pipeline.Gate{},
		life:     pipeline.NewLifecycle(),
		loader:   opts.Loader,
		jobs:     opts.Jobs,
		source:   opts.Source,
		cfg:      opts.Config,
		seed:     opts.Seed,
		loading:  true,
		spinner:  sp,
	}

	if opts.FirstRun {
		a.needSetup = true
		a.setupVals = NewSetupValues(opts.Config)
		a.setupForm = NewSetupForm(a.setupVals)
	}
	return a
}

// Init implements tea.Model.
func (a App) Init() tea.Cmd {
	cmds := []tea.Cmd{a.spinner.Tick, a.loadCmd(a.gate.Issue())}
	if a.jobs != nil {
		cmds = append(cmds, jobTickCmd())
	}
	if a.setupForm != nil {
		cmds = append(cmds, a.setupForm.Init())
	}
	return tea.Batch(cmds...)
}

// recompute rebuilds the view from the loaded records. A fresh generator
// per compute keeps seeded forecasts identical across redraws.
func (a *App) recompute() {
	var opts []pipeline.Option
	if a.seed != nil {
		opts = append(opts, pipeline.WithRand(pipeline.NewRand(*a.seed)))
	}
	a.view = pipeline.Compute(a.records, a.criteria, a.mode, opts...)
	a.agencies = pipeline.AggregateAgencies(a.view.Transactions, a.currency)
	a.scroll = 0
}

// reload starts a new load, superseding any load still in flight.
func (a *App) reload() tea.Cmd {
	a.loading = true
	return a.loadCmd(a.gate.Issue())
}

// Update implements tea.Model.
func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {

	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		if a.setupForm != nil {
			a.setupForm = a.setupForm.WithWidth(msg.Width).WithHeight(msg.Height)
		}
		return a, nil

	case dataLoadedMsg:
		if !a.gate.IsCurrent(msg.token) {
			return a, nil
		}
		a.loading = false
		a.loaded = true
		a.loadTime = msg.took
		if msg.err != nil {
			// The previous data set stays on screen.
			a.loadErr = msg.err.Error()
			return a, nil
		}
		a.loadErr = ""
		a.records = msg.res.Records
		a.location = msg.res.Location
		a.fetchedAt = msg.res.FetchedAt
		a.fromCache = msg.res.FromCache
		// A failed newest file keeps Error; the status bar already shows it.
		if err := a.life.Set(model.StateReady); err != nil && a.life.State() != model.StateError {
			a.loadErr = err.Error()
		}
		a.recompute()
		return a, nil

	case jobTickMsg:
		return a, jobCheckCmd(a.jobs)

	case jobCheckedMsg:
		next := jobTickCmd()
		if msg.err != nil || !msg.ok {
			return a, next
		}
		if a.life.Observe(msg.job) && a.life.Loading() {
			return a, tea.Batch(next, a.reload())
		}
		return a, next

	case spinner.TickMsg:
		var cmd tea.Cmd
		a.spinner, cmd = a.spinner.Update(msg)
		return a, cmd

	case tea.MouseMsg:
		if !a.loaded || a.showHelp || a.formActive() {
			return a, nil
		}
		switch msg.Button {
		case tea.MouseButtonWheelUp:
			a.scrollBy(-1)
		case tea.MouseButtonWheelDown:
			a.scrollBy(1)
		case tea.MouseButtonLeft:
			if msg.Y == 0 {
				if tab := a.tabAtX(msg.X); tab >= 0 {
					a.setTab(tab)
				}
			}
		}
		return a, nil

	case tea.KeyMsg:
		key := msg.String()

		if key == "ctrl+c" {
			return a, tea.Quit
		}
		if a.needSetup && a.setupForm != nil {
			return a.updateSetupForm(msg)
		}
		if a.agencyForm != nil {
			return a.updateAgencyForm(msg)
		}
		if !a.loaded {
			return a, nil
		}

		if key == "?" {
			a.showHelp = !a.showHelp
			return a, nil
		}
		if a.showHelp {
			a.showHelp = false
			return a, nil
		}

		switch key {
		case "q":
			return a, tea.Quit
		case "v":
			a.mode = a.mode.Next()
			a.recompute()
		case "c":
			a.currency = a.currency.Toggle()
			a.recompute()
		case "m":
			a.criteria = model.NewFilterCriteria(nextMonth(a.criteria.Month, a.view.MonthOptions), a.criteria.Agencies)
			a.recompute()
		case "a":
			return a, a.openAgencyForm()
		case "r":
			return a, a.reload()
		case "left", "h":
			a.setTab((a.activeTab + len(components.Tabs) - 1) % len(components.Tabs))
		case "right", "l":
			a.setTab((a.activeTab + 1) % len(components.Tabs))
		case "j", "down":
			a.scrollBy(1)
		case "k", "up":
			a.scrollBy(-1)
		case "ctrl+d":
			a.scrollBy(max(a.height/2, 1))
		case "ctrl+u":
			a.scrollBy(-max(a.height/2, 1))
		default:
			if len(msg.Runes) == 1 {
				if idx := components.TabIdxByKey(msg.Runes[0]); idx >= 0 {
					a.setTab(idx)
				}
			}
		}
		return a, nil
	}

	// Forward everything else (cursor blinks etc.) to an open form.
	if a.needSetup && a.setupForm != nil {
		return a.updateSetupForm(msg)
	}
	if a.agencyForm != nil {
		return a.updateAgencyForm(msg)
	}
	return a, nil
}

func (a App) formActive() bool {
	return a.agencyForm != nil || (a.needSetup && a.setupForm != nil)
}

func (a *App) setTab(idx int) {
	if idx != a.activeTab {
		a.activeTab = idx
		a.scroll = 0
	}
}

func (a *App) scrollBy(n int) {
	a.scroll = max(a.scroll+n, 0)
}

// nextMonth cycles All -> each present month -> All.
func nextMonth(current string, months []string) string {
	if current == model.All || len(months) == 0 {
		if len(months) == 0 {
			return model.All
		}
		return months[0]
	}
	for i, m := range months {
		if strings.EqualFold(m, current) {
			if i+1 < len(months) {
				return months[i+1]
			}
			return model.All
		}
	}
	return model.All
}

func (a *App) openAgencyForm() tea.Cmd {
	if len(a.view.AgencyOptions) == 0 {
		return nil
	}
	picked := make([]string, 0, len(a.criteria.Agencies))
	if !a.criteria.AllAgencies() {
		picked = append(picked, a.criteria.Agencies...)
	}
	a.agencyPick = &picked

	height := min(len(a.view.AgencyOptions), max(a.height-8, 5))
	a.agencyForm = huh.NewForm(
		huh.NewGroup(
			huh.NewMultiSelect[string]().
				Title("Agencies").
				Description("space toggles, enter applies; none selected shows all").
				Options(huh.NewOptions(a.view.AgencyOptions...)...).
				Height(height+2).
				Value(a.agencyPick),
		),
	).WithShowHelp(true).WithWidth(min(a.width, 60))
	return a.agencyForm.Init()
}

func (a App) updateAgencyForm(msg tea.Msg) (tea.Model, tea.Cmd) {
	form, cmd := a.agencyForm.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		a.agencyForm = f
	}

	switch a.agencyForm.State {
	case huh.StateCompleted:
		a.criteria = model.NewFilterCriteria(a.criteria.Month, *a.agencyPick)
		a.agencyForm, a.agencyPick = nil, nil
		a.recompute()
		return a, nil
	case huh.StateAborted:
		a.agencyForm, a.agencyPick = nil, nil
		return a, nil
	}
	return a, cmd
}

func (a App) updateSetupForm(msg tea.Msg) (tea.Model, tea.Cmd) {
	form, cmd := a.setupForm.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		a.setupForm = f
	}

	switch a.setupForm.State {
	case huh.StateCompleted:
		cmd := a.saveSetupConfig()
		a.needSetup = false
		a.setupForm, a.setupVals = nil, nil
		return a, cmd
	case huh.StateAborted:
		a.needSetup = false
		a.setupForm, a.setupVals = nil, nil
		return a, nil
	}
	return a, cmd
}

// saveSetupConfig persists the setup answers and applies them to the
// running dashboard. A changed source triggers a reload.
func (a *App) saveSetupConfig() tea.Cmd {
	prevSource := a.cfg.General.Source
	if err := a.setupVals.Apply(&a.cfg); err != nil {
		a.loadErr = err.Error()
		return nil
	}
	if err := config.Save(a.cfg); err != nil {
		a.loadErr = fmt.Sprintf("saving config: %v", err)
	}

	theme.SetActive(a.cfg.Appearance.Theme)
	if m, err := model.ParseMode(a.cfg.General.DefaultMode); err == nil {
		a.mode = m
	}
	a.currency = model.ParseCurrency(a.cfg.General.Currency)
	a.recompute()

	if a.source == "" && a.cfg.General.Source != prevSource {
		return a.reload()
	}
	return nil
}

func (a App) contentWidth() int {
	return min(a.width, maxContentWidth)
}

func (a App) isCompactLayout() bool {
	return a.contentWidth() < compactWidth
}

// View implements tea.Model.
func (a App) View() string {
	if a.width == 0 {
		return ""
	}
	if a.width < minTerminalWidth {
		return a.viewTooNarrow()
	}
	if a.needSetup && a.setupForm != nil {
		return a.setupForm.View()
	}
	if !a.loaded {
		return a.viewLoading()
	}
	if a.agencyForm != nil {
		return a.viewOverlay(a.agencyForm.View())
	}
	if a.showHelp {
		return a.viewHelp()
	}
	return a.viewMain()
}

func (a App) viewTooNarrow() string {
	h := max(a.height, 5)
	msg := fmt.Sprintf(
		"\n  Terminal too narrow (%d cols)\n\n  salesdash needs at least %d columns.\n",
		a.width,
		minTerminalWidth,
	)
	return padHeight(truncateHeight(msg, h), h)
}

func (a App) viewLoading() string {
	t := theme.Active

	logoStyle := lipgloss.NewStyle().Foreground(t.AccentBright).Background(t.Surface).Bold(true)
	subtitleStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)

	var b strings.Builder
	b.WriteString(logoStyle.Render("◈ salesdash"))
	b.WriteString(subtitleStyle.Render(" · Agency Sales"))
	b.WriteString("\n\n")
	b.WriteString(a.spinner.View())
	label := " Loading sales data..."
	if a.source != "" {
		label = " Loading " + truncStr(a.source, 40)
	}
	b.WriteString(subtitleStyle.Render(label))

	return a.viewOverlay(b.String())
}

// viewOverlay centers body in an accent-bordered card.
func (a App) viewOverlay(body string) string {
	t := theme.Active
	card := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(t.BorderAccent).
		Background(t.Surface).
		Padding(1, 3).
		Render(body)

	return lipgloss.Place(a.width, a.height, lipgloss.Center, lipgloss.Center, card,
		lipgloss.WithWhitespaceBackground(t.Background))
}

func (a App) viewHelp() string {
	t := theme.Active

	titleStyle := lipgloss.NewStyle().Foreground(t.AccentBright).Background(t.Surface).Bold(true)
	sectionStyle := lipgloss.NewStyle().Foreground(t.Accent).Background(t.Surface).Bold(true)
	keyStyle := lipgloss.NewStyle().Foreground(t.Pax).Background(t.Surface).Bold(true)
	descStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	dimStyle := lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface)

	var b strings.Builder
	b.WriteString(titleStyle.Render("◈ Keyboard Shortcuts"))
	b.WriteString("\n\n")

	section := func(name string, binds [][2]string) {
		b.WriteString(sectionStyle.Render(name))
		b.WriteString("\n")
		for _, bind := range binds {
			fmt.Fprintf(&b, "  %s  %s\n",
				keyStyle.Render(fmt.Sprintf("%-10s", bind[0])),
				descStyle.Render(bind[1]))
		}
	}

	section("Navigation", [][2]string{
		{"o t g", "Jump to tab"},
		{"← →", "Previous / Next tab"},
		{"j k", "Scroll table"},
		{"^d ^u", "Half-page scroll"},
	})
	b.WriteString("\n")
	section("View", [][2]string{
		{"v", "Cycle monthly / weekly / daily"},
		{"c", "Toggle USD / NPR"},
		{"m", "Cycle month filter"},
		{"a", "Pick agencies"},
		{"r", "Reload data"},
		{"?", "Toggle help"},
		{"q", "Quit"},
	})
	b.WriteString("\n")
	b.WriteString(dimStyle.Render("Press any key to close"))

	return a.viewOverlay(b.String())
}

func (a App) viewMain() string {
	t := theme.Active
	w := a.width
	cw := a.contentWidth()
	h := a.height

	// 1. Header: tab bar with the filter summary on the right
	header := components.RenderTabBar(a.activeTab, w, a.filterSummary())

	// 2. Status bar
	status := components.Status{
		State:    a.life.State(),
		Mode:     a.mode,
		Currency: a.currency,
		DataAge:  a.dataAge(),
		Loading:  a.loading,
		Err:      a.loadErr,
	}
	if status.Err == "" {
		status.Err = a.life.Err()
	}
	statusBar := components.RenderStatusBar(w, status)

	// 3. Content zone height
	contentH := max(h-lipgloss.Height(header)-lipgloss.Height(statusBar), minContentHeight)

	// 4. Tab content
	var content string
	switch a.activeTab {
	case 0:
		content = a.renderOverviewTab(cw, contentH)
	case 1:
		content = a.renderTableTab(cw, contentH)
	case 2:
		content = a.renderAgenciesTab(cw, contentH)
	}

	// 5. Exactly contentH lines, each filled to the content width
	content = padHeight(truncateHeight(content, contentH), contentH)
	content = fillLinesWithBackground(content, cw, t.Background)
	content = lipgloss.Place(w, contentH, lipgloss.Center, lipgloss.Top, content,
		lipgloss.WithWhitespaceBackground(t.Background))

	output := lipgloss.JoinVertical(lipgloss.Left, header, content, statusBar)
	return lipgloss.Place(w, h, lipgloss.Left, lipgloss.Top, output,
		lipgloss.WithWhitespaceBackground(t.Background))
}

func (a App) filterSummary() string {
	month := a.criteria.Month
	if a.criteria.AllMonths() {
		month = "All months"
	}
	agencies := "All agencies"
	if !a.criteria.AllAgencies() {
		if len(a.criteria.Agencies) == 1 {
			agencies = truncStr(a.criteria.Agencies[0], 24)
		} else {
			agencies = fmt.Sprintf("%d agencies", len(a.criteria.Agencies))
		}
	}
	return month + " │ " + agencies
}

func (a App) dataAge() string {
	if a.fetchedAt.IsZero() {
		return ""
	}
	age := fmt.Sprintf("%.1fs", a.loadTime.Seconds())
	if a.fromCache {
		age += " cached"
	}
	return age
}

// ─── Commands ───────────────────────────────────────────────────

func jobTickCmd() tea.Cmd {
	return tea.Tick(jobPollInterval, func(time.Time) tea.Msg {
		return jobTickMsg{}
	})
}

func jobCheckCmd(jobs pipeline.LatestJobFinder) tea.Cmd {
	return func() tea.Msg {
		job, ok, err := jobs.LatestJob("")
		return jobCheckedMsg{job: job, ok: ok, err: err}
	}
}

// loadCmd resolves the data location and loads it under tok.
func (a App) loadCmd(tok pipeline.Token) tea.Cmd {
	loader, jobs := a.loader, a.jobs
	explicit, configured, outDir := a.source, a.cfg.General.Source, a.cfg.OutputDir()

	return func() tea.Msg {
		start := time.Now()
		loc, err := pipeline.ResolveLocation(explicit, configured, jobs, outDir)
		if err != nil {
			return dataLoadedMsg{token: tok, err: err, took: time.Since(start)}
		}
		ctx, cancel := context.WithTimeout(context.Background(), loadTimeout)
		defer cancel()
		res, err := loader.Load(ctx, loc)
		return dataLoadedMsg{token: tok, res: res, err: err, took: time.Since(start)}
	}
}

// ─── Helpers ────────────────────────────────────────────────────

func truncStr(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit-1]) + "…"
}

func truncateHeight(s string, limit int) string {
	lines := strings.Split(s, "\n")
	if len(lines) <= limit {
		return s
	}
	return strings.Join(lines[:limit], "\n")
}

func padHeight(s string, h int) string {
	lines := strings.Split(s, "\n")
	if len(lines) >= h {
		return s
	}
	return s + strings.Repeat("\n", h-len(lines))
}

// fillLinesWithBackground pads each line to width w with background color.
func fillLinesWithBackground(s string, w int, bg lipgloss.Color) string {
	lines := strings.Split(s, "\n")

	var result strings.Builder
	for i, line := range lines {
		result.WriteString(lipgloss.PlaceHorizontal(w, lipgloss.Left, line,
			lipgloss.WithWhitespaceBackground(bg)))
		if i < len(lines)-1 {
			result.WriteString("\n")
		}
	}
	return result.String()
}

func moneyOf(c model.Currency, m model.Measures) string {
	return cli.FormatMoney(c, m.Sales(c))
}

// ─── Mouse Support ──────────────────────────────────────────────

// tabAtX returns the tab index at the given X coordinate, or -1 if none.
// Hitboxes follow the same width rules as RenderTabBar.
func (a App) tabAtX(x int) int {
	pos := 0
	for i, tab := range components.Tabs {
		tabW := components.TabVisualWidth(tab, i == a.activeTab)
		if x >= pos && x < pos+tabW {
			return i
		}
		pos += tabW
		if i < len(components.Tabs)-1 {
			pos++ // separator
		}
	}
	return -1
}
