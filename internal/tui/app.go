package tui

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	"github.com/rs/zerolog"

	"github.com/sadopc/trackview/internal/api"
	"github.com/sadopc/trackview/internal/clock"
	"github.com/sadopc/trackview/internal/export"
	"github.com/sadopc/trackview/internal/launcher"
	"github.com/sadopc/trackview/internal/logger"
	"github.com/sadopc/trackview/internal/source"
	"github.com/sadopc/trackview/internal/store"
	"github.com/sadopc/trackview/internal/timeline"
	"github.com/sadopc/trackview/internal/viewer"
)

const refreshInterval = 30 * time.Second

// Backend is the write side of the tracking API plus image access.
type Backend interface {
	SubmitExplanation(ctx context.Context, blockID int64, text string) error
	DownloadScreenshot(ctx context.Context, url, dir, name string) (api.Download, error)
	ImageURL(path string) string
}

type Options struct {
	Source  source.Source
	Store   *store.Store
	Backend Backend
	Opener  launcher.Opener
	Clock   clock.Clock

	// Changes triggers a reload on every receive, e.g. from a file watcher.
	Changes <-chan struct{}

	Theme       string
	DownloadDir string
}

// App is the root Bubble Tea model.
type App struct {
	opts   Options
	log    zerolog.Logger
	width  int
	height int

	// ctx is cancelled on quit; each load runs in a child of it.
	ctx        context.Context
	cancel     context.CancelFunc
	loadCtx    context.Context
	loadCancel context.CancelFunc
	gen        int
	loading    bool
	loadErr    error

	data     *sessionData
	vs       store.ViewerSettings
	viewer   viewer.State
	expanded viewer.Expanded

	activeView    viewState
	showHelp      bool
	exportPicking bool
	exportCursor  int
	alert         string

	timeline timelineModel
	evidence evidenceModel
	explain  explainModel
	reports  reportsModel
	settings settingsModel

	keys   keyMap
	help   help.Model
	status string
}

func NewApp(ctx context.Context, opts Options) App {
	if opts.Clock == nil {
		opts.Clock = clock.System{}
	}
	if opts.Opener == nil {
		opts.Opener = launcher.Browser{}
	}
	applyTheme(opts.Theme)

	vs := store.ViewerSettings{ThumbnailWindow: viewer.DefaultWindowSize, AutoExpandFlagged: true}
	if opts.Store != nil {
		if loaded, err := opts.Store.ViewerSettings(); err == nil {
			vs = loaded
		}
	}

	h := help.New()
	h.ShowAll = false

	ctx, cancel := context.WithCancel(ctx)
	a := App{
		opts:       opts,
		log:        logger.With("component", "tui"),
		ctx:        ctx,
		cancel:     cancel,
		vs:         vs,
		viewer:     viewer.New(0, vs.ThumbnailWindow),
		activeView: viewTimeline,
		timeline:   newTimelineModel(),
		evidence:   newEvidenceModel(opts.Backend),
		reports:    newReportsModel(),
		settings:   newSettingsModel(opts.Store),
		keys:       newKeyMap(),
		help:       h,
	}
	a, _ = a.reload()
	return a
}

func (a App) Init() tea.Cmd {
	return tea.Batch(
		a.loadCmd(a.loadCtx, a.gen),
		a.watchCmd(),
		tickCmd(),
	)
}

func tickCmd() tea.Cmd {
	return tea.Tick(refreshInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

type tickMsg time.Time

// reload starts a new load generation, abandoning any load still in flight.
func (a App) reload() (App, tea.Cmd) {
	if a.loadCancel != nil {
		a.loadCancel()
	}
	a.loadCtx, a.loadCancel = context.WithCancel(a.ctx)
	a.gen++
	a.loading = true
	return a, a.loadCmd(a.loadCtx, a.gen)
}

func (a App) loadCmd(ctx context.Context, gen int) tea.Cmd {
	src, st, log := a.opts.Source, a.opts.Store, a.log
	return func() tea.Msg {
		s, err := src.Load(ctx)
		if err != nil {
			return sessionErrorMsg{gen: gen, err: err}
		}
		var history map[int64]store.Explanation
		if st != nil {
			history, err = st.LatestExplanations(src.Key())
			if err != nil {
				log.Warn().Err(err).Msg("load explanation history")
			}
		}
		return sessionLoadedMsg{gen: gen, session: s, history: history}
	}
}

// watchCmd waits for the next external change notification.
func (a App) watchCmd() tea.Cmd {
	ch, ctx := a.opts.Changes, a.ctx
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		select {
		case <-ctx.Done():
			return nil
		case _, ok := <-ch:
			if !ok {
				return nil
			}
			return fileChangedMsg{}
		}
	}
}

func (a App) quit() (tea.Model, tea.Cmd) {
	a.cancel()
	return a, tea.Quit
}

func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.help.Width = msg.Width
		contentHeight := a.height - 4 // header + footer
		a.timeline.setSize(a.width, contentHeight)
		a.evidence.setSize(a.width, contentHeight)
		a.explain.setSize(a.width)
		a.reports.setSize(a.width, contentHeight)
		a.settings.setSize(a.width, contentHeight)
		return a, nil

	case tea.KeyMsg:
		return a.updateKey(msg)

	case sessionLoadedMsg:
		if msg.gen != a.gen {
			a.log.Debug().Int("gen", msg.gen).Int("current", a.gen).Msg("drop stale session")
			return a, nil
		}
		return a.applySession(msg), nil

	case sessionErrorMsg:
		if msg.gen != a.gen {
			return a, nil
		}
		a.loading = false
		a.loadErr = msg.err
		a.log.Error().Err(msg.err).Str("session_id", a.opts.Source.Key()).Msg("load session")
		return a, nil

	case tickMsg:
		if a.data != nil && !a.data.session.Ended() {
			a = a.setData(a.data.session, a.data.history)
		}
		return a, tickCmd()

	case fileChangedMsg:
		a.status = "Session file changed, reloading"
		var cmd tea.Cmd
		a, cmd = a.reload()
		return a, tea.Batch(cmd, a.watchCmd())

	case openEvidenceMsg:
		a.viewer = a.viewer.OpenAt(msg.index)
		a.syncKeys()
		return a, nil

	case openExplainMsg:
		return a.openExplanation(msg.blockID)

	case explanationDoneMsg:
		return a.explanationDone(msg)

	case downloadDoneMsg:
		a.status = fmt.Sprintf("Saved %s (%s)", msg.path, humanize.Bytes(uint64(msg.size)))
		return a, nil

	case downloadFailedMsg:
		a.status = "Download failed, opening in browser"
		a.log.Warn().Err(msg.err).Str("url", msg.url).Msg("download screenshot")
		return a, a.openURLCmd(msg.url)

	case statusMsg:
		a.status = msg.text
		return a, nil

	case exportDoneMsg:
		a.status = "Exported to " + msg.path
		a.exportPicking = false
		return a, nil

	case settingsSavedMsg:
		a.vs = msg.settings
		a.viewer = a.viewer.Resize(msg.settings.ThumbnailWindow)
		a.status = "Settings saved"
		var cmd tea.Cmd
		a.settings, cmd = a.settings.update(msg)
		return a, cmd
	}

	if a.viewer.Mode == viewer.Explaining && a.explain.active() {
		var cmd tea.Cmd
		a.explain, cmd = a.explain.update(msg)
		return a, cmd
	}
	return a.updateActiveView(msg)
}

func (a App) updateKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		return a.quit()
	}

	// A modal alert swallows everything until dismissed.
	if a.alert != "" {
		if msg.String() == "enter" || msg.String() == "esc" {
			a.alert = ""
			if a.viewer.Mode == viewer.Explaining {
				cmd := a.explain.retry()
				return a, cmd
			}
		}
		return a, nil
	}

	if a.viewer.Mode == viewer.Explaining {
		return a.updateExplaining(msg)
	}

	if a.exportPicking {
		return a.updateExportPicker(msg)
	}

	if a.activeView == viewSettings && a.settings.formActive {
		return a.updateActiveView(msg)
	}

	if a.viewer.Mode == viewer.Viewing {
		return a.updateViewer(msg)
	}

	switch {
	case key.Matches(msg, a.keys.Quit):
		return a.quit()
	case key.Matches(msg, a.keys.Help):
		a.showHelp = !a.showHelp
		a.help.ShowAll = a.showHelp
		return a, nil
	case key.Matches(msg, a.keys.Reload):
		a.status = ""
		return a.reload()
	case key.Matches(msg, a.keys.Export):
		if a.data == nil {
			return a, nil
		}
		a.exportPicking = true
		a.exportCursor = 0
		return a, nil
	case key.Matches(msg, a.keys.Tab1):
		a.activeView = viewTimeline
		return a, nil
	case key.Matches(msg, a.keys.Tab2):
		a.activeView = viewReports
		return a, nil
	case key.Matches(msg, a.keys.Tab3):
		a.activeView = viewSettings
		return a, a.settings.refresh()
	case key.Matches(msg, a.keys.Tab):
		a.activeView = (a.activeView + 1) % viewState(len(viewNames))
		if a.activeView == viewSettings {
			return a, a.settings.refresh()
		}
		return a, nil
	}

	return a.updateActiveView(msg)
}

func (a App) updateViewer(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, a.keys.ViewerClose):
		a.viewer = a.viewer.HandleKey(viewer.KeyEscape)
	case key.Matches(msg, a.keys.ViewerPrev):
		a.viewer = a.viewer.HandleKey(viewer.KeyLeft)
	case key.Matches(msg, a.keys.ViewerNext):
		a.viewer = a.viewer.HandleKey(viewer.KeyRight)
	case key.Matches(msg, a.keys.ViewerJump):
		// only digits that land on the visible strip
		start, end := a.viewer.Thumbnails()
		if j := start + int(msg.Runes[0]-'1'); j < end {
			a.viewer = a.viewer.JumpTo(j)
		}
	case key.Matches(msg, a.keys.ViewerDownload):
		return a, a.downloadCmd()
	case key.Matches(msg, a.keys.ViewerBrowser):
		if shot, ok := a.currentShot(); ok {
			return a, a.openURLCmd(a.imageURL(shot))
		}
	case key.Matches(msg, a.keys.Explain):
		if shot, ok := a.currentShot(); ok {
			return a.openExplanation(shot.BlockID)
		}
	case key.Matches(msg, a.keys.Quit):
		return a.quit()
	}
	a.syncKeys()
	return a, nil
}

func (a App) updateExplaining(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "esc" {
		if a.explain.submitting {
			return a, nil
		}
		a.viewer = a.viewer.HandleKey(viewer.KeyEscape)
		a.explain = explainModel{}
		a.syncKeys()
		return a, nil
	}
	var cmd tea.Cmd
	a.explain, cmd = a.explain.update(msg)
	if a.explain.completed() {
		a.explain.submitting = true
		return a, a.submitCmd(a.explain.blockID, a.explain.value())
	}
	return a, cmd
}

func (a App) updateActiveView(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch a.activeView {
	case viewTimeline:
		if a.data != nil {
			a.timeline, a.expanded, cmd = a.timeline.update(msg, a.keys, a.expanded)
		}
	case viewReports:
		a.reports, cmd = a.reports.update(msg, a.keys)
	case viewSettings:
		a.settings, cmd = a.settings.update(msg)
	}
	return a, cmd
}

// syncKeys enables the viewer bindings exactly while a screenshot is shown.
func (a *App) syncKeys() {
	a.keys.setViewerEnabled(a.viewer.Mode == viewer.Viewing)
}

func (a App) applySession(msg sessionLoadedMsg) App {
	prev := a.data
	a.loading = false
	a.loadErr = nil
	a = a.setData(msg.session, msg.history)

	tl := a.data.tl
	if idx, ok := a.viewer.Anchor(); ok && prev != nil {
		newIdx, found := 0, false
		if old, ok := prev.tl.At(idx); ok {
			newIdx, found = tl.IndexOf(old.ID)
		}
		a.viewer = a.viewer.Reanchor(tl.ScreenshotCount, newIdx, found)
	} else {
		a.viewer = a.viewer.Reanchor(tl.ScreenshotCount, 0, false)
	}
	a.syncKeys()

	ids := make([]int64, 0, len(msg.session.TimeBlocks))
	var flagged []int64
	for _, b := range msg.session.TimeBlocks {
		ids = append(ids, b.ID)
		if b.IsFlagged {
			flagged = append(flagged, b.ID)
		}
	}
	if prev == nil && a.vs.AutoExpandFlagged {
		a.expanded = a.expanded.Expand(flagged...)
	} else {
		a.expanded = a.expanded.Retain(ids)
	}

	if a.data.summary.Diverges {
		a.log.Warn().
			Int64("session_id", msg.session.ID).
			Int64("session_total", msg.session.TotalSeconds).
			Int64("block_total", a.data.summary.BlockTotalSeconds).
			Msg("block durations diverge from session total")
	}
	a.log.Info().
		Int64("session_id", msg.session.ID).
		Int("blocks", tl.BlockCount).
		Int("screenshots", tl.ScreenshotCount).
		Msg("session loaded")
	return a
}

// setData recomputes every derived view of the session.
func (a App) setData(s *timeline.Session, history map[int64]store.Explanation) App {
	a.data = newSessionData(s, history, timeline.NewCalculator(a.opts.Clock))
	a.timeline = a.timeline.setData(a.data)
	a.reports = a.reports.setData(a.data)
	return a
}

func (a App) currentShot() (timeline.FlatScreenshot, bool) {
	if a.data == nil {
		return timeline.FlatScreenshot{}, false
	}
	return a.data.tl.At(a.viewer.Index)
}

func (a App) imageURL(shot timeline.FlatScreenshot) string {
	if a.opts.Backend == nil {
		return shot.Image
	}
	return a.opts.Backend.ImageURL(shot.Image)
}

func (a App) openExplanation(blockID int64) (tea.Model, tea.Cmd) {
	if a.data == nil {
		return a, nil
	}
	b := a.data.session.Block(blockID)
	if b == nil {
		return a, nil
	}
	if !b.IsFlagged {
		a.status = "Only flagged blocks can be explained"
		return a, nil
	}
	if a.opts.Backend == nil {
		a.status = "Explanations need a backend connection"
		return a, nil
	}
	a.viewer = a.viewer.OpenExplanation(blockID)
	a.explain = newExplainModel(blockID, "")
	a.explain.setSize(a.width)
	a.syncKeys()
	return a, a.explain.init()
}

func (a App) submitCmd(blockID int64, text string) tea.Cmd {
	backend, ctx := a.opts.Backend, a.ctx
	return func() tea.Msg {
		err := backend.SubmitExplanation(ctx, blockID, text)
		return explanationDoneMsg{blockID: blockID, text: text, err: err}
	}
}

func (a App) explanationDone(msg explanationDoneMsg) (tea.Model, tea.Cmd) {
	a.recordExplanation(msg)
	if a.viewer.Mode != viewer.Explaining || a.viewer.BlockID != msg.blockID {
		return a, nil
	}
	if msg.err != nil {
		if errors.Is(msg.err, context.Canceled) {
			return a, nil
		}
		a.alert = api.UserMessage(msg.err, "failed to submit explanation")
		a.explain.submitting = false
		return a, nil
	}

	a.explain = explainModel{}
	var refetch bool
	a.viewer, refetch = a.viewer.SubmitExplanation()
	a.syncKeys()
	a.status = "Explanation submitted"
	if !refetch {
		return a, nil
	}
	return a.reload()
}

func (a App) recordExplanation(msg explanationDoneMsg) {
	if a.opts.Store == nil {
		return
	}
	rec := store.Explanation{
		SessionKey: a.opts.Source.Key(),
		BlockID:    msg.blockID,
		Text:       msg.text,
		Status:     store.ExplanationSubmitted,
		CreatedAt:  a.opts.Clock.Now(),
	}
	log := a.log.With().Int64("block_id", msg.blockID).Logger()
	if msg.err != nil {
		rec.Status = store.ExplanationFailed
		rec.Error = msg.err.Error()
		log.Error().Err(msg.err).Msg("submit explanation")
	}
	if _, err := a.opts.Store.RecordExplanation(rec); err != nil {
		log.Warn().Err(err).Msg("record explanation history")
	}
}

func (a App) downloadDir() string {
	if a.vs.DownloadDir != "" {
		return a.vs.DownloadDir
	}
	if a.opts.DownloadDir != "" {
		return a.opts.DownloadDir
	}
	if home, err := os.UserHomeDir(); err == nil {
		return home
	}
	return "."
}

func (a App) downloadCmd() tea.Cmd {
	shot, ok := a.currentShot()
	if !ok || a.opts.Backend == nil {
		return nil
	}
	url := a.imageURL(shot)
	dir := a.downloadDir()
	name := shot.DownloadName(a.opts.Clock.Now())
	backend, ctx := a.opts.Backend, a.ctx
	return func() tea.Msg {
		d, err := backend.DownloadScreenshot(ctx, url, dir, name)
		if err != nil {
			return downloadFailedMsg{url: url, err: err}
		}
		return downloadDoneMsg{path: d.Path, size: d.Size}
	}
}

func (a App) openURLCmd(url string) tea.Cmd {
	opener, ctx := a.opts.Opener, a.ctx
	return func() tea.Msg {
		if err := opener.Open(ctx, url); err != nil {
			return statusMsg{text: fmt.Sprintf("Open error: %v", err), isError: true}
		}
		return statusMsg{text: "Opened " + url}
	}
}

func (a App) View() string {
	if a.width == 0 {
		return "Loading..."
	}

	header := a.renderHeader()
	footer := a.renderFooter()

	headerHeight := lipgloss.Height(header)
	footerHeight := lipgloss.Height(footer)
	contentHeight := a.height - headerHeight - footerHeight
	if contentHeight < 1 {
		contentHeight = 1
	}

	var content string
	switch {
	case a.alert != "":
		content = a.renderAlert()
	case a.viewer.Mode == viewer.Explaining:
		content = a.explain.view(a.data)
	case a.viewer.Mode == viewer.Viewing && a.data != nil:
		content = a.evidence.view(a.viewer, a.data)
	case a.exportPicking:
		content = a.renderExportPicker()
	default:
		switch a.activeView {
		case viewTimeline:
			content = a.timeline.view(a.loading, a.loadErr, a.expanded)
		case viewReports:
			content = a.reports.view()
		case viewSettings:
			content = a.settings.view()
		}
	}

	content = lipgloss.NewStyle().
		Width(a.width).
		Height(contentHeight).
		Render(content)

	return lipgloss.JoinVertical(lipgloss.Left, header, content, footer)
}

func (a App) renderHeader() string {
	var tabs []string
	for i, name := range viewNames {
		if viewState(i) == a.activeView {
			tabs = append(tabs, activeTabStyle.Render(name))
		} else {
			tabs = append(tabs, inactiveTabStyle.Render(name))
		}
	}

	tabRow := lipgloss.JoinHorizontal(lipgloss.Bottom, tabs...)

	label := "trackview"
	if a.opts.Source != nil {
		label += "  " + a.opts.Source.Describe()
	}
	title := lipgloss.NewStyle().Bold(true).Foreground(colorPrimary).Render(label)
	gap := a.width - lipgloss.Width(title) - lipgloss.Width(tabRow) - 4
	if gap < 1 {
		gap = 1
	}
	spacer := lipgloss.NewStyle().Width(gap).Render("")

	return headerStyle.Render(
		lipgloss.JoinHorizontal(lipgloss.Bottom, title, spacer, tabRow),
	)
}

func (a App) renderFooter() string {
	helpView := a.help.View(a.keys)

	status := ""
	if a.status != "" {
		status = mutedStyle.Render(" " + a.status)
	}

	indicator := ""
	switch {
	case a.loading:
		indicator = warningStyle.Render(" ● loading")
	case a.data != nil && a.data.session.HasDisputedBlocks():
		indicator = errorStyle.Render(" ⚑ disputed")
	}

	left := footerStyle.Render(helpView)
	right := indicator + status

	gap := a.width - lipgloss.Width(left) - lipgloss.Width(right) - 2
	if gap < 1 {
		gap = 1
	}
	spacer := lipgloss.NewStyle().Width(gap).Render("")

	return lipgloss.JoinHorizontal(lipgloss.Bottom, left, spacer, right)
}

func (a App) renderAlert() string {
	rows := []string{
		errorStyle.Bold(true).Render("Explanation not submitted"),
		"",
		normalItemStyle.Render(a.alert),
		"",
		mutedStyle.Render("enter: edit and retry"),
	}
	return alertPanelStyle.Width(min(a.width-4, 70)).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

func (a App) renderExportPicker() string {
	title := titleStyle.Render("Export Format")
	formats := []string{"CSV", "JSON"}
	var rows []string
	rows = append(rows, title)
	rows = append(rows, "")
	for i, f := range formats {
		cursor := "  "
		style := normalItemStyle
		if i == a.exportCursor {
			cursor = "> "
			style = selectedItemStyle
		}
		rows = append(rows, style.Render(cursor+f))
	}
	rows = append(rows, "")
	rows = append(rows, mutedStyle.Render("  enter: export  esc: cancel"))

	w := a.width - 4
	return activePanelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

func (a App) updateExportPicker(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, a.keys.Up):
		if a.exportCursor > 0 {
			a.exportCursor--
		}
	case key.Matches(msg, a.keys.Down):
		if a.exportCursor < 1 {
			a.exportCursor++
		}
	case key.Matches(msg, a.keys.Enter):
		a.exportPicking = false
		return a, a.doExport(a.exportCursor)
	case key.Matches(msg, a.keys.Back):
		a.exportPicking = false
	}
	return a, nil
}

func (a App) doExport(format int) tea.Cmd {
	data := a.data
	if data == nil {
		return nil
	}
	dir := a.downloadDir()
	now := a.opts.Clock.Now()
	return func() tea.Msg {
		r := export.Report{
			Session:      data.session,
			Blocks:       data.blocks,
			Summary:      data.summary,
			GeneratedAt:  now,
			Explanations: data.historyLabels(),
		}
		base := fmt.Sprintf("trackview-session-%d-%s", data.session.ID, now.Format("2006-01-02"))

		var path string
		if format == 0 {
			path = filepath.Join(dir, base+".csv")
			if err := export.ToCSV(r, path); err != nil {
				return statusMsg{text: fmt.Sprintf("CSV error: %v", err), isError: true}
			}
		} else {
			path = filepath.Join(dir, base+".json")
			if err := export.ToJSON(r, path); err != nil {
				return statusMsg{text: fmt.Sprintf("JSON error: %v", err), isError: true}
			}
		}

		return exportDoneMsg{path: path}
	}
}
