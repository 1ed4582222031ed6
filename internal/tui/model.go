// Package tui provides the BubbleTea-based notification history browser.
package tui

import (
	"bytes"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/jmylchreest/notistack/internal/history"
	"github.com/jmylchreest/notistack/internal/model"
	"github.com/jmylchreest/notistack/internal/output"
)

// Mode represents the current UI mode.
type Mode int

const (
	ModeList Mode = iota
	ModeDetail
	ModeSearch
	ModeHelp
)

// Source provides history entries, newest first.
type Source interface {
	Recent(n int) []history.Entry
}

// Options configures the browser model.
type Options struct {
	// Filter hides entries it rejects. Nil shows everything.
	Filter func(history.Entry) bool
	// Changes signals that the source was modified on disk.
	Changes <-chan struct{}
	// ClipboardCommand overrides clipboard detection.
	ClipboardCommand string
	// Now is the clock used for relative times.
	Now func() time.Time
}

// Model is the main TUI model.
type Model struct {
	source Source
	opts   Options

	mode Mode

	list        list.Model
	viewport    viewport.Model
	searchInput textinput.Model
	help        help.Model

	entries     []history.Entry
	selected    *history.Entry
	searchQuery string
	width       int
	height      int
	ready       bool

	keys KeyMap

	statusMsg string
	statusErr bool

	// copy is swapped out in tests.
	copy func(text string) error
}

// entryItem wraps a history entry for the list component.
type entryItem struct {
	entry history.Entry
	now   time.Time
}

func (i entryItem) Title() string {
	return i.entry.Summary
}

func (i entryItem) Description() string {
	desc := fmt.Sprintf("[%s] %s", i.entry.AppName, i.entry.RelativeTime(i.now))
	if body := flatten(i.entry.Body); body != "" {
		desc += " - " + truncate(body, 50)
	}
	return desc
}

func (i entryItem) FilterValue() string {
	return i.entry.Summary + " " + i.entry.Body + " " + i.entry.AppName
}

// entryDelegate colors list items by urgency.
type entryDelegate struct {
	list.DefaultDelegate
}

func newEntryDelegate() entryDelegate {
	return entryDelegate{DefaultDelegate: list.NewDefaultDelegate()}
}

// Render renders a list item, tinting low and critical entries.
func (d entryDelegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	ei, ok := item.(entryItem)
	if !ok {
		d.DefaultDelegate.Render(w, m, index, item)
		return
	}

	isSelected := index == m.Index()
	itemWidth := m.Width() - d.Styles.NormalTitle.GetHorizontalPadding()

	titleStyle, descStyle := d.Styles.NormalTitle, d.Styles.NormalDesc
	if isSelected {
		titleStyle, descStyle = d.Styles.SelectedTitle, d.Styles.SelectedDesc
	}
	switch ei.entry.UrgencyLevel() {
	case model.UrgencyCritical:
		titleStyle = titleStyle.Foreground(lipgloss.Color("9"))
	case model.UrgencyLow:
		titleStyle = titleStyle.Foreground(lipgloss.Color("8"))
		descStyle = descStyle.Foreground(lipgloss.Color("8"))
	}

	title := ei.Title()
	desc := ei.Description()
	if itemWidth > 0 {
		title = truncateEllipsis(title, itemWidth)
		desc = truncateEllipsis(desc, itemWidth)
	}

	fmt.Fprint(w, titleStyle.Render(title))
	fmt.Fprint(w, "\n")
	fmt.Fprint(w, descStyle.Render(desc))
}

// New creates a new TUI model.
func New(source Source, opts Options) Model {
	if opts.Now == nil {
		opts.Now = time.Now
	}

	l := list.New(nil, newEntryDelegate(), 0, 0)
	l.Title = "Notification History"
	l.SetShowStatusBar(true)
	l.SetShowHelp(false)
	l.SetFilteringEnabled(false)
	l.DisableQuitKeybindings()

	searchInput := textinput.New()
	searchInput.Placeholder = "Search..."
	searchInput.CharLimit = 100

	m := Model{
		source:      source,
		opts:        opts,
		mode:        ModeList,
		list:        l,
		searchInput: searchInput,
		help:        help.New(),
		keys:        DefaultKeyMap(),
	}
	m.copy = func(text string) error {
		return copyText(text, opts.ClipboardCommand)
	}
	return m
}

// Init initializes the TUI.
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		m.loadEntries,
		m.watchForChanges,
	)
}

type loadEntriesMsg struct{}

type refreshMsg struct{}

func (m Model) loadEntries() tea.Msg {
	return loadEntriesMsg{}
}

// watchForChanges blocks until the history file changes.
func (m Model) watchForChanges() tea.Msg {
	if m.opts.Changes == nil {
		return nil
	}
	if _, ok := <-m.opts.Changes; !ok {
		return nil
	}
	return refreshMsg{}
}

// Update handles messages and updates the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true

		m.list.SetSize(msg.Width, msg.Height-2)
		m.viewport = viewport.New(msg.Width, msg.Height-4)
		m.viewport.YPosition = 2
		if m.selected != nil {
			m.viewport.SetContent(m.renderDetail(*m.selected))
		}
		return m, nil

	case loadEntriesMsg:
		m.reload()
		return m, nil

	case refreshMsg:
		m.reload()
		return m, m.watchForChanges

	case statusMsg:
		m.statusMsg = msg.text
		m.statusErr = msg.isErr
		return m, tea.Tick(3*time.Second, func(time.Time) tea.Msg {
			return clearStatusMsg{}
		})

	case clearStatusMsg:
		m.statusMsg = ""
		m.statusErr = false
		return m, nil

	case copyResultMsg:
		if msg.err != nil {
			return m, status("Copy failed: "+msg.err.Error(), true)
		}
		return m, status("Copied to clipboard", false)
	}

	switch m.mode {
	case ModeList:
		var cmd tea.Cmd
		m.list, cmd = m.list.Update(msg)
		cmds = append(cmds, cmd)
	case ModeDetail:
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		cmds = append(cmds, cmd)
	case ModeSearch:
		var cmd tea.Cmd
		m.searchInput, cmd = m.searchInput.Update(msg)
		cmds = append(cmds, cmd)
	}

	return m, tea.Batch(cmds...)
}

type statusMsg struct {
	text  string
	isErr bool
}

type clearStatusMsg struct{}

type copyResultMsg struct {
	err error
}

func status(text string, isErr bool) tea.Cmd {
	return func() tea.Msg {
		return statusMsg{text: text, isErr: isErr}
	}
}

// reload re-reads the source and rebuilds the list.
func (m *Model) reload() {
	m.entries = m.fetchEntries()
	m.list.SetItems(m.buildListItems())
}

// handleKey handles key presses.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.ForceQuit) {
		return m, tea.Quit
	}
	// Plain keys are text while searching.
	if m.mode == ModeSearch {
		return m.handleSearchKey(msg)
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.Help):
		if m.mode == ModeHelp {
			m.mode = ModeList
		} else {
			m.mode = ModeHelp
		}
		return m, nil
	}

	switch m.mode {
	case ModeList:
		return m.handleListKey(msg)
	case ModeDetail:
		return m.handleDetailKey(msg)
	case ModeHelp:
		if key.Matches(msg, m.keys.Back) {
			m.mode = ModeList
		}
		return m, nil
	}

	return m, nil
}

// handleListKey handles keys in list mode.
func (m Model) handleListKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Enter):
		m.openSelected()
		return m, nil

	case key.Matches(msg, m.keys.Copy):
		if item, ok := m.list.SelectedItem().(entryItem); ok {
			return m, m.copyToClipboard(item.entry.Body)
		}
		return m, nil

	case key.Matches(msg, m.keys.CopySummary):
		if item, ok := m.list.SelectedItem().(entryItem); ok {
			return m, m.copyToClipboard(item.entry.Summary)
		}
		return m, nil

	case key.Matches(msg, m.keys.CopyAllJSON):
		return m, m.copyVisible(output.NewJSONFormatter(output.DefaultFormatterOptions()), "JSON")

	case key.Matches(msg, m.keys.CopyAllYAML):
		return m, m.copyVisible(output.NewYAMLFormatter(output.DefaultFormatterOptions()), "YAML")

	case key.Matches(msg, m.keys.Search):
		return m.enterSearch()

	case key.Matches(msg, m.keys.Refresh):
		return m, m.loadEntries
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

// handleDetailKey handles keys in detail mode.
func (m Model) handleDetailKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Back):
		m.mode = ModeList
		m.selected = nil
		return m, nil

	case key.Matches(msg, m.keys.Copy):
		if m.selected != nil {
			return m, m.copyToClipboard(m.selected.Body)
		}
		return m, nil

	case key.Matches(msg, m.keys.CopySummary):
		if m.selected != nil {
			return m, m.copyToClipboard(m.selected.Summary)
		}
		return m, nil

	case key.Matches(msg, m.keys.Search):
		m.selected = nil
		return m.enterSearch()
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

// handleSearchKey handles keys in search mode. The list is filtered live on
// every keystroke.
func (m Model) handleSearchKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.mode = ModeList
		m.searchInput.Blur()
		m.searchInput.SetValue("")
		m.searchQuery = ""
		m.list.SetItems(m.buildListItems())
		return m, nil

	case tea.KeyEnter:
		m.searchInput.Blur()
		m.openSelected()
		return m, nil

	case tea.KeyUp, tea.KeyDown:
		var cmd tea.Cmd
		m.list, cmd = m.list.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	m.searchInput, cmd = m.searchInput.Update(msg)

	m.searchQuery = m.searchInput.Value()
	m.list.SetItems(m.buildListItems())

	return m, cmd
}

func (m Model) enterSearch() (tea.Model, tea.Cmd) {
	m.searchInput.SetValue("")
	m.searchQuery = ""
	m.list.SetItems(m.buildListItems())
	m.mode = ModeSearch
	return m, m.searchInput.Focus()
}

// openSelected switches to the detail view of the selected entry.
func (m *Model) openSelected() {
	item, ok := m.list.SelectedItem().(entryItem)
	if !ok {
		return
	}
	m.selected = &item.entry
	m.mode = ModeDetail
	m.viewport.SetContent(m.renderDetail(item.entry))
	m.viewport.GotoTop()
}

// fetchEntries reads the whole history, newest first.
func (m Model) fetchEntries() []history.Entry {
	if m.source == nil {
		return nil
	}
	entries := m.source.Recent(0)
	if m.opts.Filter == nil {
		return entries
	}
	filtered := entries[:0:0]
	for _, e := range entries {
		if m.opts.Filter(e) {
			filtered = append(filtered, e)
		}
	}
	return filtered
}

// buildListItems creates list items from the entries matching the search.
func (m Model) buildListItems() []list.Item {
	now := m.opts.Now()
	items := make([]list.Item, 0, len(m.entries))
	for _, e := range m.entries {
		if e.Matches(m.searchQuery) {
			items = append(items, entryItem{entry: e, now: now})
		}
	}
	return items
}

// visibleEntries returns the entries currently in the list.
func (m Model) visibleEntries() []history.Entry {
	items := m.list.Items()
	entries := make([]history.Entry, 0, len(items))
	for _, item := range items {
		if ei, ok := item.(entryItem); ok {
			entries = append(entries, ei.entry)
		}
	}
	return entries
}

// renderDetail renders the detail view for an entry.
func (m Model) renderDetail(e history.Entry) string {
	headerStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("12"))

	labelStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("8"))

	var sb strings.Builder
	sb.WriteString(headerStyle.Render(e.Summary) + "\n\n")

	sb.WriteString(labelStyle.Render("App: ") + e.AppName + "\n")
	sb.WriteString(labelStyle.Render("Time: ") + fmt.Sprintf("%s (%s)", e.Datetime, e.RelativeTime(m.opts.Now())) + "\n")
	sb.WriteString(labelStyle.Render("Urgency: ") + e.Urgency + "\n")
	sb.WriteString(labelStyle.Render("Notification ID: ") + fmt.Sprintf("%d", e.ID) + "\n")
	sb.WriteString(labelStyle.Render("History ID: ") + e.HistoryID + "\n")

	sb.WriteString("\n" + labelStyle.Render("Body:") + "\n")
	sb.WriteString(e.Body + "\n")

	return sb.String()
}

func (m Model) copyToClipboard(text string) tea.Cmd {
	copyFn := m.copy
	return func() tea.Msg {
		return copyResultMsg{err: copyFn(text)}
	}
}

func (m Model) copyVisible(f output.Formatter, name string) tea.Cmd {
	var buf bytes.Buffer
	if err := f.Format(&buf, m.visibleEntries()); err != nil {
		return status(fmt.Sprintf("Failed to marshal %s: %v", name, err), true)
	}
	return m.copyToClipboard(buf.String())
}

// View renders the TUI.
func (m Model) View() string {
	if !m.ready {
		return "Initializing..."
	}

	switch m.mode {
	case ModeList:
		return m.viewList()
	case ModeDetail:
		return m.viewDetail()
	case ModeSearch:
		return m.viewSearch()
	case ModeHelp:
		return m.viewHelp()
	default:
		return ""
	}
}

func (m Model) viewList() string {
	s := m.list.View()

	if m.statusMsg != "" {
		statusStyle := lipgloss.NewStyle().
			Foreground(lipgloss.Color("7"))
		if m.statusErr {
			statusStyle = statusStyle.Foreground(lipgloss.Color("9"))
		}
		s += "\n" + statusStyle.Render(m.statusMsg)
	} else {
		s += "\n" + m.buildKeybindBar(m.width, ModeList)
	}

	return s
}

func (m Model) viewDetail() string {
	headerStyle := lipgloss.NewStyle().
		Bold(true).
		Padding(0, 1)

	header := headerStyle.Render("Notification Detail")

	return header + "\n" + m.viewport.View() + "\n" + m.buildKeybindBar(m.width, ModeDetail)
}

func (m Model) viewSearch() string {
	countStr := fmt.Sprintf("(%d matches)", len(m.list.Items()))

	searchBar := "Search: " + m.searchInput.View() + " " +
		lipgloss.NewStyle().Foreground(lipgloss.Color("8")).Render(countStr)

	return searchBar + "\n" + m.list.View() + "\n" + m.buildKeybindBar(m.width, ModeSearch)
}

func (m Model) viewHelp() string {
	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("12")).
		MarginBottom(1)

	m.help.ShowAll = true
	return titleStyle.Render("Keyboard Shortcuts") + "\n\n" +
		m.help.View(m.keys) + "\n\n" +
		lipgloss.NewStyle().Foreground(lipgloss.Color("8")).Render("Press ? or esc to return")
}

// keybind is a status bar entry; lower priority is shown first.
type keybind struct {
	key      string
	desc     string
	priority int
}

// buildKeybindBar builds a keybind bar that fits within the given width.
func (m Model) buildKeybindBar(width int, mode Mode) string {
	style := lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	keyStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("10"))

	var binds []keybind
	switch mode {
	case ModeList:
		binds = []keybind{
			{"q", "quit", 1},
			{"enter", "view", 2},
			{"?", "help", 3},
			{"/", "search", 4},
			{"c", "copy", 5},
			{"s", "summary", 6},
			{"C", "json", 7},
			{"r", "refresh", 8},
		}
	case ModeDetail:
		binds = []keybind{
			{"q", "quit", 1},
			{"esc", "back", 2},
			{"/", "search", 3},
			{"c", "copy body", 4},
			{"s", "copy summary", 5},
			{"j/k", "scroll", 6},
		}
	case ModeSearch:
		binds = []keybind{
			{"enter", "view", 1},
			{"esc", "close", 2},
			{"↑/↓", "navigate", 3},
		}
	}

	const separator = "  "
	var rendered []string
	plainLen := 0
	for _, b := range binds {
		plain := b.key + " " + b.desc
		next := lipgloss.Width(plain)
		if len(rendered) > 0 {
			next += len(separator)
		}
		if width > 0 && plainLen+next > width {
			break
		}
		plainLen += next
		rendered = append(rendered, keyStyle.Render(b.key)+" "+b.desc)
	}

	return style.Render(strings.Join(rendered, separator))
}

// flatten collapses whitespace so a body fits on one line.
func flatten(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func truncate(s string, maxLen int) string {
	r := []rune(s)
	if maxLen <= 0 || len(r) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return string(r[:maxLen])
	}
	return string(r[:maxLen-3]) + "..."
}

func truncateEllipsis(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	if maxLen <= 1 {
		return string(r[:maxLen])
	}
	return string(r[:maxLen-1]) + "…"
}
