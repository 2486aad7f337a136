package ui

import (
	"context"
	"fmt"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"medialog/internal/models"
	"medialog/internal/store"
)

// ViewState represents the current view in the TUI.
type ViewState int

const (
	LibraryView ViewState = iota
	AddView
	EditView
	ConfirmDeleteView
	SearchView
)

// Model represents the TUI application state.
type Model struct {
	ctx         context.Context
	view        ViewState
	store       *store.MediaStore
	width       int
	height      int
	libraryList list.Model
	query       models.ViewQuery
	titleInput  textinput.Model
	typeIndex   int
	editingID   string
	status      string
	remoteErrs  chan store.RemoteErrorEvent
	help        help.Model
	keys        keyMap
}

type opDoneMsg struct {
	op  string
	err error
}

type remoteErrorMsg store.RemoteErrorEvent

// NewModel creates a new TUI model operating on an already loaded store.
func NewModel(ctx context.Context, s *store.MediaStore) *Model {
	m := &Model{
		ctx:        ctx,
		view:       LibraryView,
		store:      s,
		query:      models.ViewQuery{TypeFilter: models.TypeAll},
		remoteErrs: make(chan store.RemoteErrorEvent, 16),
		help:       help.New(),
		keys:       newKeyMap(),
	}

	s.OnRemoteError(func(event store.RemoteErrorEvent) {
		select {
		case m.remoteErrs <- event:
		default:
		}
	})

	m.titleInput = textinput.New()
	m.titleInput.Placeholder = "Title"
	m.titleInput.CharLimit = 200

	m.libraryList = list.New(nil, list.NewDefaultDelegate(), 0, 0)
	m.libraryList.SetShowHelp(false)
	m.libraryList.SetFilteringEnabled(false)
	m.refreshList()

	return m
}

// Init starts listening for background persistence failures.
func (m *Model) Init() tea.Cmd {
	return m.waitForRemoteError()
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.libraryList.SetSize(msg.Width-4, msg.Height-8)
		return m, nil

	case tea.KeyMsg:
		switch m.view {
		case LibraryView:
			return m.handleLibraryKeys(msg)
		case AddView, EditView:
			return m.handleFormKeys(msg)
		case ConfirmDeleteView:
			return m.handleConfirmDeleteKeys(msg)
		case SearchView:
			return m.handleSearchKeys(msg)
		}

	case opDoneMsg:
		if msg.err != nil {
			m.status = styles.err.Render(fmt.Sprintf("%s failed: %v", msg.op, msg.err))
		} else {
			m.status = ""
		}
		m.refreshList()
		return m, nil

	case remoteErrorMsg:
		m.status = styles.warn.Render(fmt.Sprintf("Save failed (%s), change kept locally", msg.Op))
		m.refreshList()
		return m, m.waitForRemoteError()
	}

	var cmd tea.Cmd
	m.libraryList, cmd = m.libraryList.Update(msg)
	return m, cmd
}

// View renders the UI based on the current view state.
func (m *Model) View() string {
	switch m.view {
	case LibraryView:
		return m.renderLibrary()
	case AddView:
		return m.renderForm("Add Record")
	case EditView:
		return m.renderForm("Edit Record")
	case ConfirmDeleteView:
		return m.renderConfirmDelete()
	case SearchView:
		return m.renderSearch()
	default:
		return ""
	}
}

func (m *Model) handleLibraryKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.add):
		m.view = AddView
		m.editingID = ""
		m.typeIndex = 0
		m.titleInput.SetValue("")
		m.titleInput.Focus()
		return m, textinput.Blink

	case key.Matches(msg, m.keys.edit):
		record, ok := m.selectedRecord()
		if !ok {
			return m, nil
		}
		m.view = EditView
		m.editingID = record.ID
		m.typeIndex = typeIndexOf(record.Type)
		m.titleInput.SetValue(record.Title)
		m.titleInput.Focus()
		return m, textinput.Blink

	case key.Matches(msg, m.keys.delete):
		if _, ok := m.selectedRecord(); ok {
			m.view = ConfirmDeleteView
		}
		return m, nil

	case key.Matches(msg, m.keys.rate):
		record, ok := m.selectedRecord()
		if !ok {
			return m, nil
		}
		rating := int(msg.String()[0] - '0')
		return m, m.setRating(record.ID, rating)

	case key.Matches(msg, m.keys.filter):
		m.query.TypeFilter = nextFilter(m.query.TypeFilter)
		m.refreshList()
		return m, nil

	case key.Matches(msg, m.keys.sort):
		m.query.Sort = nextSort(m.query.Sort)
		m.refreshList()
		return m, nil

	case key.Matches(msg, m.keys.search):
		m.view = SearchView
		m.titleInput.SetValue(m.query.SearchText)
		m.titleInput.Placeholder = "Search titles"
		m.titleInput.Focus()
		return m, textinput.Blink
	}

	var cmd tea.Cmd
	m.libraryList, cmd = m.libraryList.Update(msg)
	return m, cmd
}

func (m *Model) handleFormKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.view = LibraryView
		m.titleInput.Blur()
		return m, nil
	case "tab", "shift+tab":
		types := models.MediaTypes()
		if msg.String() == "tab" {
			m.typeIndex = (m.typeIndex + 1) % len(types)
		} else {
			m.typeIndex = (m.typeIndex + len(types) - 1) % len(types)
		}
		return m, nil
	case "enter":
		title := m.titleInput.Value()
		mediaType := models.MediaTypes()[m.typeIndex]
		editing := m.editingID
		m.view = LibraryView
		m.titleInput.Blur()
		if editing == "" {
			return m, m.addRecord(title, mediaType)
		}
		return m, m.editRecord(editing, title, mediaType)
	}

	var cmd tea.Cmd
	m.titleInput, cmd = m.titleInput.Update(msg)
	return m, cmd
}

func (m *Model) handleConfirmDeleteKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "y":
		m.view = LibraryView
		if record, ok := m.selectedRecord(); ok {
			return m, m.removeRecord(record.ID)
		}
		return m, nil
	case "n", "esc", "q":
		m.view = LibraryView
		return m, nil
	}
	return m, nil
}

func (m *Model) handleSearchKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.view = LibraryView
		m.titleInput.Blur()
		return m, nil
	case "enter":
		m.query.SearchText = m.titleInput.Value()
		m.view = LibraryView
		m.titleInput.Blur()
		m.refreshList()
		return m, nil
	}

	var cmd tea.Cmd
	m.titleInput, cmd = m.titleInput.Update(msg)
	return m, cmd
}

func (m *Model) selectedRecord() (models.MediaRecord, bool) {
	selected := m.libraryList.SelectedItem()
	if selected == nil {
		return models.MediaRecord{}, false
	}
	item, ok := selected.(mediaItem)
	return item.record, ok
}

func (m *Model) refreshList() {
	projection := m.store.Project(m.query)
	items := make([]list.Item, len(projection.Items))
	for i, record := range projection.Items {
		items[i] = mediaItem{record: record}
	}
	m.libraryList.SetItems(items)
	m.libraryList.Title = fmt.Sprintf("Media Library — %s (%d)", m.query.TypeFilter, len(items))
}

func (m *Model) addRecord(title string, mediaType models.MediaType) tea.Cmd {
	return func() tea.Msg {
		_, err := m.store.Add(m.ctx, title, mediaType)
		return opDoneMsg{op: "Add", err: err}
	}
}

func (m *Model) editRecord(id, title string, mediaType models.MediaType) tea.Cmd {
	return func() tea.Msg {
		fields := store.EditFields{Title: &title, Type: &mediaType}
		return opDoneMsg{op: "Edit", err: m.store.Edit(m.ctx, id, fields)}
	}
}

func (m *Model) setRating(id string, rating int) tea.Cmd {
	return func() tea.Msg {
		return opDoneMsg{op: "Rate", err: m.store.SetRating(m.ctx, id, rating)}
	}
}

func (m *Model) removeRecord(id string) tea.Cmd {
	return func() tea.Msg {
		return opDoneMsg{op: "Delete", err: m.store.Remove(m.ctx, id)}
	}
}

func (m *Model) waitForRemoteError() tea.Cmd {
	return func() tea.Msg {
		return remoteErrorMsg(<-m.remoteErrs)
	}
}

func (m *Model) renderLibrary() string {
	projection := m.store.Project(models.ViewQuery{TypeFilter: models.TypeAll})
	counts := ""
	for i, mediaType := range models.MediaTypes() {
		if i > 0 {
			counts += "  "
		}
		counts += fmt.Sprintf("%s: %d", mediaType, projection.Counts[mediaType])
	}

	header := fmt.Sprintf("%s  •  sort: %s", styles.help.Render(counts), m.query.Sort)
	if m.query.SearchText != "" {
		header = fmt.Sprintf("%s  •  search: %q", header, m.query.SearchText)
	}

	sections := fmt.Sprintf("%s\n%s", m.libraryList.View(), header)
	if m.status != "" {
		sections = fmt.Sprintf("%s\n%s", sections, m.status)
	}
	return fmt.Sprintf("%s\n\n%s", sections, m.help.View(m.keys))
}

func (m *Model) renderForm(formTitle string) string {
	title := styles.title.Render(formTitle)
	types := models.MediaTypes()

	typeLine := ""
	for i, mediaType := range types {
		label := string(mediaType)
		if i == m.typeIndex {
			label = styles.ok.Render("[" + label + "]")
		}
		if i > 0 {
			typeLine += "  "
		}
		typeLine += label
	}

	helpKeys := []key.Binding{m.keys.enter, m.keys.back}
	helpView := m.help.ShortHelpView(helpKeys)

	return fmt.Sprintf("%s\n%s\n\nType (tab to change): %s\n\n%s", title, m.titleInput.View(), typeLine, helpView)
}

func (m *Model) renderConfirmDelete() string {
	record, ok := m.selectedRecord()
	if !ok {
		return ""
	}

	title := styles.title.Render(fmt.Sprintf("Delete '%s'?", record.Title))
	helpKeys := []key.Binding{m.keys.yes, m.keys.no}
	helpView := m.help.ShortHelpView(helpKeys)

	return fmt.Sprintf("%s\n%s\n\n%s", title, styles.warn.Render("This cannot be undone."), helpView)
}

func (m *Model) renderSearch() string {
	title := styles.title.Render("Search Library")
	helpKeys := []key.Binding{m.keys.enter, m.keys.back}
	helpView := m.help.ShortHelpView(helpKeys)
	return fmt.Sprintf("%s\n%s\n\n%s", title, m.titleInput.View(), helpView)
}

func typeIndexOf(mediaType models.MediaType) int {
	for i, candidate := range models.MediaTypes() {
		if candidate == mediaType {
			return i
		}
	}
	return 0
}

func nextFilter(current models.MediaType) models.MediaType {
	order := append([]models.MediaType{models.TypeAll}, models.MediaTypes()...)
	for i, candidate := range order {
		if candidate == current {
			return order[(i+1)%len(order)]
		}
	}
	return models.TypeAll
}

func nextSort(current models.SortKey) models.SortKey {
	switch current {
	case models.SortNone:
		return models.SortNewest
	case models.SortNewest:
		return models.SortOldest
	case models.SortOldest:
		return models.SortHighestRated
	default:
		return models.SortNone
	}
}
