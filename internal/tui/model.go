// Package tui hosts an asset picker in a terminal using bubbletea.
package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/goliatone/go-asset-library/internal/assetapi"
	"github.com/goliatone/go-asset-library/internal/browse"
	"github.com/goliatone/go-asset-library/internal/strategy"
)

var sortCycle = []string{"name", "newest_first", "oldest_first"}

type snapshotMsg struct {
	snap browse.Snapshot
}

type prepareDoneMsg struct {
	err error
}

type selectDoneMsg struct {
	asset assetapi.Asset
	err   error
}

type mode int

const (
	modeList mode = iota
	modeSearch
)

// Model is the bubbletea model of a single picker.
type Model struct {
	ctx     context.Context
	browser *browse.Controller
	updates chan browse.Snapshot
	cancel  func()

	snap     browse.Snapshot
	cursor   int
	mode     mode
	search   textinput.Model
	spinner  spinner.Model
	help     help.Model
	keys     keyMap
	showHelp bool
	width    int

	selecting bool
	chosen    *assetapi.Asset
	err       error
}

// New builds a picker model over browser. The host receives selections
// through the strategy callback; Chosen reports the asset afterwards.
func New(ctx context.Context, browser *browse.Controller) *Model {
	if ctx == nil {
		ctx = context.Background()
	}
	ti := textinput.New()
	ti.Placeholder = "Search assets..."
	ti.CharLimit = 100
	ti.Width = 40

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	m := &Model{
		ctx:     ctx,
		browser: browser,
		updates: make(chan browse.Snapshot, 1),
		search:  ti,
		spinner: sp,
		help:    help.New(),
		keys:    defaultKeys,
		snap:    browser.Snapshot(),
	}
	m.cancel = browser.Subscribe(m.publish)
	return m
}

// publish keeps only the newest snapshot queued.
func (m *Model) publish(snap browse.Snapshot) {
	for {
		select {
		case m.updates <- snap:
			return
		default:
		}
		select {
		case <-m.updates:
		default:
		}
	}
}

func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.prepare(), m.waitForSnapshot())
}

func (m *Model) prepare() tea.Cmd {
	return func() tea.Msg {
		return prepareDoneMsg{err: m.browser.Prepare(m.ctx)}
	}
}

func (m *Model) waitForSnapshot() tea.Cmd {
	return func() tea.Msg {
		select {
		case snap := <-m.updates:
			return snapshotMsg{snap: snap}
		case <-m.ctx.Done():
			return nil
		}
	}
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.help.Width = msg.Width
		return m, nil

	case snapshotMsg:
		if msg.snap.Version >= m.snap.Version {
			m.snap = msg.snap
			if m.cursor >= len(m.snap.Assets) {
				m.cursor = max(len(m.snap.Assets)-1, 0)
			}
		}
		return m, m.waitForSnapshot()

	case prepareDoneMsg:
		if msg.err != nil {
			m.err = msg.err
		}
		return m, nil

	case selectDoneMsg:
		m.selecting = false
		if msg.err != nil {
			if errors.Is(msg.err, strategy.ErrNotFit) {
				m.err = fmt.Errorf("%s is too long for this field", msg.asset.Name)
			}
			return m, nil
		}
		asset := msg.asset
		m.chosen = &asset
		m.close()
		return m, tea.Quit

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		if m.mode == modeSearch {
			return m.updateSearch(msg)
		}
		return m.updateList(msg)
	}
	return m, nil
}

func (m *Model) updateSearch(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Escape):
		m.mode = modeList
		m.search.Blur()
		return m, nil
	case msg.Type == tea.KeyEnter:
		m.mode = modeList
		m.search.Blur()
		m.apply(m.browser.SetSearch(strings.TrimSpace(m.search.Value())))
		return m, nil
	}
	var cmd tea.Cmd
	m.search, cmd = m.search.Update(msg)
	return m, cmd
}

func (m *Model) updateList(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit), key.Matches(msg, m.keys.Escape):
		m.close()
		return m, tea.Quit

	case key.Matches(msg, m.keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}

	case key.Matches(msg, m.keys.Down):
		if m.cursor < len(m.snap.Assets)-1 {
			m.cursor++
		}

	case key.Matches(msg, m.keys.PrevPage):
		if m.browser.DecPage() {
			m.cursor = 0
		}

	case key.Matches(msg, m.keys.NextPage):
		if m.browser.IncPage() {
			m.cursor = 0
		}

	case key.Matches(msg, m.keys.Search):
		m.mode = modeSearch
		m.search.SetValue(m.snap.Filter.Search)
		return m, m.search.Focus()

	case key.Matches(msg, m.keys.Source):
		next := browse.SourceGlobal
		if m.snap.Filter.Source == browse.SourceGlobal {
			next = browse.SourcePersonal
		}
		m.apply(m.browser.SetSource(next))

	case key.Matches(msg, m.keys.Sort):
		m.apply(m.browser.SetSort(nextSort(m.snap.Filter.Sort)))

	case key.Matches(msg, m.keys.View):
		style := browse.ViewGrid
		if m.snap.ViewStyle == browse.ViewGrid {
			style = browse.ViewList
		}
		m.apply(m.browser.SetViewStyle(style))

	case key.Matches(msg, m.keys.Refresh):
		return m, m.refresh()

	case key.Matches(msg, m.keys.Help):
		m.showHelp = !m.showHelp

	case key.Matches(msg, m.keys.Select):
		if m.selecting || len(m.snap.Assets) == 0 {
			return m, nil
		}
		m.selecting = true
		m.err = nil
		return m, m.selectAsset(m.snap.Assets[m.cursor])
	}
	return m, nil
}

func (m *Model) refresh() tea.Cmd {
	return func() tea.Msg {
		err := m.browser.Refresh(m.ctx)
		if errors.Is(err, browse.ErrStaleResponse) {
			err = nil
		}
		return prepareDoneMsg{err: err}
	}
}

func (m *Model) selectAsset(asset assetapi.Asset) tea.Cmd {
	return func() tea.Msg {
		return selectDoneMsg{asset: asset, err: m.browser.Select(m.ctx, asset)}
	}
}

func (m *Model) apply(err error) {
	m.err = err
}

func (m *Model) close() {
	if m.cancel != nil {
		m.cancel()
		m.cancel = nil
	}
}

// Chosen returns the selected asset once the picker has quit.
func (m *Model) Chosen() (assetapi.Asset, bool) {
	if m.chosen == nil {
		return assetapi.Asset{}, false
	}
	return *m.chosen, true
}

func (m *Model) View() string {
	var b strings.Builder
	snap := m.snap
	strat := m.browser.Strategy()

	b.WriteString(styleTitle.Render(fmt.Sprintf(" %s library", cases.Title(language.English).String(snap.Kind.String()))))
	b.WriteString(styleMuted.Render(fmt.Sprintf("  source=%s sort=%s", snap.Filter.Source, snap.Filter.Sort)))
	if snap.Filter.Search != "" {
		b.WriteString(styleMuted.Render(fmt.Sprintf(" search=%q", snap.Filter.Search)))
	}
	b.WriteString("\n\n")

	if m.mode == modeSearch {
		b.WriteString(" " + m.search.View() + "\n\n")
	}

	switch {
	case snap.Loading && len(snap.Assets) == 0:
		b.WriteString(" " + m.spinner.View() + " Loading...\n")
	case snap.NoAssets():
		b.WriteString(styleMuted.Render("  No assets found") + "\n")
	case snap.ViewStyle == browse.ViewGrid:
		b.WriteString(m.renderGrid(strat))
	default:
		b.WriteString(m.renderList(strat))
	}

	b.WriteString("\n")
	if snap.NumPages > 1 {
		b.WriteString(styleMuted.Render(fmt.Sprintf(" page %d of %d", snap.Filter.Page, snap.NumPages)))
		if snap.Loading {
			b.WriteString(" " + m.spinner.View())
		}
		b.WriteString("\n")
	}
	if snap.Error != "" {
		b.WriteString(styleError.Render(" "+snap.Error) + "\n")
	}
	if m.err != nil {
		b.WriteString(styleError.Render(" "+m.err.Error()) + "\n")
	}

	b.WriteString("\n")
	if m.showHelp {
		b.WriteString(m.help.FullHelpView(m.keys.FullHelp()))
	} else {
		b.WriteString(m.help.ShortHelpView(m.keys.ShortHelp()))
	}
	return b.String()
}

func (m *Model) renderList(strat strategy.Strategy) string {
	var b strings.Builder
	for i, asset := range m.snap.Assets {
		line := fmt.Sprintf("%s  %s", asset.Name, styleMuted.Render(describe(asset)))
		switch {
		case i == m.cursor:
			b.WriteString(styleSelected.Render(" > " + line))
		case !strat.IsFit(asset):
			b.WriteString(styleMuted.Render("   " + line))
		default:
			b.WriteString("   " + line)
		}
		b.WriteString("\n")
	}
	return b.String()
}

func (m *Model) renderGrid(strat strategy.Strategy) string {
	const columns = 3
	var rows []string
	var cells []string
	for i, asset := range m.snap.Assets {
		style := styleCell
		switch {
		case i == m.cursor:
			style = style.Inherit(styleSelected)
		case !strat.IsFit(asset):
			style = style.Inherit(styleMuted)
		}
		cells = append(cells, style.Render(asset.Name+"\n"+describe(asset)))
		if len(cells) == columns {
			rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, cells...))
			cells = nil
		}
	}
	if len(cells) > 0 {
		rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, cells...))
	}
	return lipgloss.JoinVertical(lipgloss.Left, rows...) + "\n"
}

func describe(asset assetapi.Asset) string {
	var parts []string
	if asset.Extension != "" {
		parts = append(parts, strings.ToUpper(asset.Extension))
	}
	if asset.Width > 0 && asset.Height > 0 {
		parts = append(parts, fmt.Sprintf("%dx%d", asset.Width, asset.Height))
	}
	if asset.Size > 0 {
		parts = append(parts, browse.FormatSize(asset.Size))
	}
	if asset.Contents != "" {
		parts = append(parts, fmt.Sprintf("%d chars", asset.TextLength()))
	}
	return strings.Join(parts, " · ")
}

func nextSort(current string) string {
	for i, key := range sortCycle {
		if key == current {
			return sortCycle[(i+1)%len(sortCycle)]
		}
	}
	return sortCycle[0]
}
