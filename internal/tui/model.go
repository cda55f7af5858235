// Package tui is the interactive terminal UI of framebox. It renders an
// app.State, turns key presses and pastes into app commands, and runs the
// resulting effects as bubbletea commands.
package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/fyrsmithlabs/framebox/internal/app"
	"github.com/fyrsmithlabs/framebox/internal/hosting"
)

type mode int

const (
	modeList mode = iota
	modeSearch
	modeCreate
	modeUpload
	modeConfirm
)

// commandMsg feeds an effect outcome back into the reducer.
type commandMsg struct {
	cmd app.Command
}

// Model is the bubbletea model of the project browser.
type Model struct {
	ctx   context.Context
	exec  *app.Executor
	state app.State

	mode     mode
	selected int
	width    int
	quitting bool
	timers   bool
	now      func() time.Time

	// effects produced before the program started
	pending []app.Effect

	keys    keyMap
	help    help.Model
	spinner spinner.Model

	searchInput textinput.Model
	nameInput   textinput.Model
	entryInput  textinput.Model
	pathInput   textinput.Model
}

// NewModel creates the UI for a backend at origin and queues the first load.
func NewModel(ctx context.Context, exec *app.Executor, origin string, toastDuration time.Duration) Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = warningStyle

	search := textinput.New()
	search.Prompt = "/ "
	search.Placeholder = "filter by name or id"

	name := textinput.New()
	name.Prompt = "Name: "
	name.CharLimit = 100

	entry := textinput.New()
	entry.Prompt = "Entry file: "
	entry.Placeholder = hosting.DefaultEntryFile

	paths := textinput.New()
	paths.Prompt = "Files: "
	paths.Placeholder = "paths, directories or globs separated by spaces"

	state, effects := app.Reduce(app.NewState(origin, toastDuration), app.LoadProjects{})

	return Model{
		ctx:         ctx,
		exec:        exec,
		state:       state,
		timers:      true,
		now:         time.Now,
		pending:     effects,
		keys:        newKeyMap(),
		help:        help.New(),
		spinner:     sp,
		searchInput: search,
		nameInput:   name,
		entryInput:  entry,
		pathInput:   paths,
	}
}

// State returns the current application state.
func (m Model) State() app.State {
	return m.state
}

// Init starts the spinner and the initial project load.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.runEffects(m.pending))
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.help.Width = msg.Width
		return m, nil

	case commandMsg:
		return m.dispatch(msg.cmd)

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		if msg.Paste {
			return m.handlePaste(string(msg.Runes))
		}
		switch m.mode {
		case modeSearch:
			return m.updateSearch(msg)
		case modeCreate:
			return m.updateCreate(msg)
		case modeUpload:
			return m.updateUpload(msg)
		case modeConfirm:
			return m.updateConfirm(msg)
		default:
			return m.updateList(msg)
		}
	}

	return m, nil
}

// dispatch reduces cmd and schedules its effects.
func (m Model) dispatch(cmd app.Command) (Model, tea.Cmd) {
	var effects []app.Effect
	m.state, effects = app.Reduce(m.state, cmd)
	m.clampSelection()
	if m.mode == modeConfirm && m.state.PendingDelete == nil {
		m.mode = modeList
	}
	return m, m.runEffects(effects)
}

// dispatchAll reduces several commands in order.
func (m Model) dispatchAll(cmds ...app.Command) (Model, tea.Cmd) {
	var batch []tea.Cmd
	for _, c := range cmds {
		var cmd tea.Cmd
		m, cmd = m.dispatch(c)
		batch = append(batch, cmd)
	}
	return m, tea.Batch(batch...)
}

func (m Model) runEffects(effects []app.Effect) tea.Cmd {
	cmds := make([]tea.Cmd, 0, len(effects))
	for _, eff := range effects {
		if d, ok := eff.(app.ScheduleDismiss); ok {
			if m.timers {
				id := d.ID
				cmds = append(cmds, tea.Tick(d.After, func(time.Time) tea.Msg {
					return commandMsg{cmd: app.DismissNotice{ID: id}}
				}))
			}
			continue
		}
		eff := eff
		ctx, exec := m.ctx, m.exec
		cmds = append(cmds, func() tea.Msg {
			if next := exec.Run(ctx, eff); next != nil {
				return commandMsg{cmd: next}
			}
			return nil
		})
	}
	return tea.Batch(cmds...)
}

func (m *Model) clampSelection() {
	n := len(m.state.Visible())
	if m.selected >= n {
		m.selected = n - 1
	}
	if m.selected < 0 {
		m.selected = 0
	}
}

// current returns the selected visible project.
func (m Model) current() (hosting.Project, bool) {
	visible := m.state.Visible()
	if m.selected < 0 || m.selected >= len(visible) {
		return hosting.Project{}, false
	}
	return visible[m.selected], true
}

func (m Model) updateList(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit):
		m.quitting = true
		return m, tea.Quit

	case key.Matches(msg, m.keys.help):
		m.help.ShowAll = !m.help.ShowAll
		return m, nil

	case key.Matches(msg, m.keys.up):
		if m.selected > 0 {
			m.selected--
		}
		return m, nil

	case key.Matches(msg, m.keys.down):
		if m.selected < len(m.state.Visible())-1 {
			m.selected++
		}
		return m, nil

	case key.Matches(msg, m.keys.close):
		if m.state.ViewOpen() {
			return m.dispatch(app.CloseView{})
		}
		if m.state.Query != "" {
			m.searchInput.SetValue("")
			return m.dispatch(app.Search{Query: ""})
		}
		return m, nil

	case key.Matches(msg, m.keys.search):
		m.mode = modeSearch
		cmd := m.searchInput.Focus()
		return m, cmd

	case key.Matches(msg, m.keys.create):
		m.mode = modeCreate
		m.nameInput.SetValue("")
		m.entryInput.SetValue("")
		m.entryInput.Blur()
		cmd := m.nameInput.Focus()
		return m, cmd

	case key.Matches(msg, m.keys.reload):
		return m.dispatch(app.LoadProjects{})

	case key.Matches(msg, m.keys.copy):
		return m.dispatch(app.CopyEmbed{})
	}

	p, ok := m.current()
	if !ok {
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.upload):
		m.mode = modeUpload
		m.pathInput.SetValue("")
		focus := m.pathInput.Focus()
		next, cmd := m.dispatch(app.BeginUpload{ID: p.ID})
		return next, tea.Batch(cmd, focus)
	case key.Matches(msg, m.keys.preview):
		return m.dispatch(app.ShowPreview{ID: p.ID})
	case key.Matches(msg, m.keys.embed):
		return m.dispatch(app.ShowEmbed{ID: p.ID, Name: p.Name})
	case key.Matches(msg, m.keys.files):
		return m.dispatch(app.ShowFiles{ID: p.ID})
	case key.Matches(msg, m.keys.delete):
		m.mode = modeConfirm
		return m.dispatch(app.RequestDelete{ID: p.ID})
	}
	return m, nil
}

func (m Model) updateSearch(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.mode = modeList
		m.searchInput.Blur()
		m.searchInput.SetValue("")
		return m.dispatch(app.Search{Query: ""})
	case tea.KeyEnter:
		m.mode = modeList
		m.searchInput.Blur()
		return m, nil
	}

	var cmd tea.Cmd
	m.searchInput, cmd = m.searchInput.Update(msg)
	next, effects := m.dispatch(app.Search{Query: m.searchInput.Value()})
	return next, tea.Batch(cmd, effects)
}

func (m Model) updateCreate(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case msg.Type == tea.KeyEsc:
		m.mode = modeList
		m.nameInput.Blur()
		m.entryInput.Blur()
		return m, nil

	case key.Matches(msg, m.keys.next):
		var cmd tea.Cmd
		if m.nameInput.Focused() {
			m.nameInput.Blur()
			cmd = m.entryInput.Focus()
		} else {
			m.entryInput.Blur()
			cmd = m.nameInput.Focus()
		}
		return m, cmd

	case key.Matches(msg, m.keys.submit):
		m.mode = modeList
		m.nameInput.Blur()
		m.entryInput.Blur()
		return m.dispatch(app.CreateProject{
			Name:      m.nameInput.Value(),
			EntryFile: m.entryInput.Value(),
		})
	}

	var cmd tea.Cmd
	if m.nameInput.Focused() {
		m.nameInput, cmd = m.nameInput.Update(msg)
	} else {
		m.entryInput, cmd = m.entryInput.Update(msg)
	}
	return m, cmd
}

func (m Model) updateUpload(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case msg.Type == tea.KeyEsc:
		m.mode = modeList
		m.pathInput.Blur()
		return m.dispatch(app.FilesSelected{})

	case key.Matches(msg, m.keys.submit):
		m.mode = modeList
		m.pathInput.Blur()
		uploads, err := collectUploads(m.pathInput.Value())
		if err != nil {
			return m.dispatchAll(app.FilesSelected{}, app.ReportError{Message: err.Error()})
		}
		return m.dispatch(app.FilesSelected{Uploads: uploads})
	}

	var cmd tea.Cmd
	m.pathInput, cmd = m.pathInput.Update(msg)
	return m, cmd
}

func (m Model) updateConfirm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.confirm):
		m.mode = modeList
		return m.dispatch(app.ConfirmDelete{})
	case key.Matches(msg, m.keys.decline):
		m.mode = modeList
		return m.dispatch(app.CancelDelete{})
	}
	return m, nil
}

// handlePaste treats pasted file paths as files dropped on the selected
// card. Pastes into a focused text field go to that field.
func (m Model) handlePaste(text string) (tea.Model, tea.Cmd) {
	switch m.mode {
	case modeSearch:
		var cmd tea.Cmd
		m.searchInput, cmd = m.searchInput.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(text)})
		next, effects := m.dispatch(app.Search{Query: m.searchInput.Value()})
		return next, tea.Batch(cmd, effects)
	case modeCreate:
		var cmd tea.Cmd
		if m.nameInput.Focused() {
			m.nameInput, cmd = m.nameInput.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(text)})
		} else {
			m.entryInput, cmd = m.entryInput.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(text)})
		}
		return m, cmd
	case modeUpload:
		var cmd tea.Cmd
		m.pathInput, cmd = m.pathInput.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(text)})
		return m, cmd
	case modeConfirm:
		return m, nil
	}

	uploads, err := collectUploads(text)
	if err != nil {
		return m.dispatchAll(app.DragEnter{}, app.DragLeave{FromDropZone: true}, app.ReportError{Message: err.Error()})
	}

	card := ""
	if p, ok := m.current(); ok {
		card = p.ID
	}
	return m.dispatchAll(app.DragEnter{}, app.Drop{Card: card, Uploads: uploads})
}

func collectUploads(text string) ([]hosting.Upload, error) {
	paths, err := splitPaths(text)
	if err != nil {
		return nil, err
	}
	if len(paths) == 0 {
		return nil, nil
	}
	paths, err = expandPaths(paths)
	if err != nil {
		return nil, err
	}
	return hosting.UploadsFromPaths(paths)
}

// View renders the UI.
func (m Model) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder

	header := headerStyle.Render("framebox") + " " + dimStyle.Render(m.state.Origin)
	if m.state.IsLoading() {
		header += " " + m.spinner.View() + dimStyle.Render(" loading")
	}
	b.WriteString(header + "\n")

	if m.mode == modeSearch || m.state.Query != "" {
		b.WriteString(m.searchInput.View() + "\n")
	}

	if m.state.Drag == app.DragDragging {
		b.WriteString(dropZoneStyle.Render("Drop files on a project card") + "\n")
	}

	b.WriteString(m.renderProjects())

	switch {
	case m.mode == modeCreate:
		b.WriteString(m.renderCreate())
	case m.mode == modeUpload:
		b.WriteString(m.renderUpload())
	case m.mode == modeConfirm && m.state.PendingDelete != nil:
		b.WriteString(m.renderConfirm())
	case m.state.Preview != nil:
		b.WriteString(m.renderPreview())
	case m.state.Embed != nil:
		b.WriteString(m.renderEmbed())
	case m.state.Files != nil:
		b.WriteString(m.renderFiles())
	}

	if n := m.state.Notice; n != nil {
		style := successStyle
		if n.Kind == app.NoticeError {
			style = errorStyle
		}
		b.WriteString("\n" + style.Render(n.Message) + "\n")
	}

	b.WriteString("\n" + m.help.View(m.keys))
	return b.String()
}

func (m Model) renderProjects() string {
	visible := m.state.Visible()
	if len(visible) == 0 {
		if len(m.state.Projects) == 0 {
			return sectionStyle.Render("No projects yet") + "\n" +
				dimStyle.Render("Press n to create your first project.") + "\n"
		}
		return dimStyle.Render("No projects match the search.") + "\n"
	}

	now := m.now()
	cards := make([]string, len(visible))
	for i, p := range visible {
		body := valueStyle.Render(p.Name) + "\n" +
			labelStyle.Render("ID: ") + p.ID + "\n" +
			labelStyle.Render("Created: ") + FormatCreated(p.CreatedAt.Time, now) + "\n" +
			labelStyle.Render("Entry: ") + p.EntryFile
		style := cardStyle
		if i == m.selected {
			style = selectedCardStyle
		}
		if m.width > 4 {
			style = style.Width(m.width - 4)
		}
		cards[i] = style.Render(body)
	}
	return lipgloss.JoinVertical(lipgloss.Left, cards...) + "\n"
}

func (m Model) renderCreate() string {
	return panelStyle.Render(sectionStyle.Render("New project") + "\n" +
		m.nameInput.View() + "\n" +
		m.entryInput.View() + "\n" +
		dimStyle.Render("tab next field • enter create • esc cancel"))
}

func (m Model) renderUpload() string {
	target := m.state.UploadTarget
	if p, ok := m.state.Project(target); ok {
		target = p.Name
	}
	return panelStyle.Render(sectionStyle.Render("Upload to "+target) + "\n" +
		m.pathInput.View() + "\n" +
		dimStyle.Render("enter upload • esc cancel • directories keep their layout"))
}

func (m Model) renderConfirm() string {
	p := m.state.PendingDelete
	name := p.Name
	if name == "" {
		name = p.ID
	}
	return panelStyle.Render(warningStyle.Render(fmt.Sprintf("Delete project %q?", name)) + "\n" +
		dimStyle.Render("This removes all of its files and cannot be undone.") + "\n" +
		dimStyle.Render("y delete • n keep"))
}

func (m Model) renderPreview() string {
	pv := m.state.Preview
	var b strings.Builder
	b.WriteString(sectionStyle.Render("Preview") + "\n")
	b.WriteString(labelStyle.Render("URL: ") + pv.URL + "\n")
	switch {
	case pv.Loading:
		b.WriteString(m.spinner.View() + dimStyle.Render(" fetching"))
	case pv.Err != "":
		b.WriteString(errorStyle.Render(pv.Err))
	case pv.Result != nil:
		b.WriteString(labelStyle.Render("Type: ") + pv.Result.ContentType + "\n")
		b.WriteString(labelStyle.Render("Size: ") + FormatSize(pv.Result.Size))
		if pv.Result.Excerpt != "" {
			b.WriteString("\n\n" + dimStyle.Render(truncateLines(pv.Result.Excerpt, 12)))
		}
	}
	return panelStyle.Render(b.String())
}

func (m Model) renderEmbed() string {
	e := m.state.Embed
	var b strings.Builder
	b.WriteString(sectionStyle.Render("Embed "+e.Name) + "\n")
	if e.Pending {
		b.WriteString(m.spinner.View() + dimStyle.Render(" resolving server address"))
		return panelStyle.Render(b.String())
	}
	b.WriteString(labelStyle.Render("Server: ") + e.Base + "\n\n")
	b.WriteString(codeStyle.Render(e.Code) + "\n\n")
	b.WriteString(dimStyle.Render("c copy • esc close"))
	return panelStyle.Render(b.String())
}

func (m Model) renderFiles() string {
	f := m.state.Files
	title := f.ProjectID
	if p, ok := m.state.Project(f.ProjectID); ok {
		title = p.Name
	}
	var b strings.Builder
	b.WriteString(sectionStyle.Render("Files of "+title) + "\n")
	switch {
	case f.Loading:
		b.WriteString(m.spinner.View() + dimStyle.Render(" loading"))
	case f.Err != "":
		b.WriteString(errorStyle.Render(f.Err))
	case len(f.Files) == 0:
		b.WriteString(dimStyle.Render("No files uploaded yet."))
	default:
		var total int64
		for _, file := range f.Files {
			total += file.Size
			b.WriteString(fmt.Sprintf("%-40s %10s\n", file.Filename, FormatSize(file.Size)))
		}
		b.WriteString(dimStyle.Render(fmt.Sprintf("%d files, %s", len(f.Files), FormatSize(total))))
	}
	return panelStyle.Render(b.String())
}

func truncateLines(s string, n int) string {
	lines := strings.Split(s, "\n")
	if len(lines) <= n {
		return s
	}
	return strings.Join(lines[:n], "\n") + "\n…"
}

// Run starts the program on the terminal and blocks until it exits.
func Run(ctx context.Context, m Model) error {
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	if err != nil && ctx.Err() != nil {
		return nil
	}
	return err
}
