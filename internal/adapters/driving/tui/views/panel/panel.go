// Package panel provides the control panel view for the TUI: the facets of
// the active filters, a search input with autocomplete on the field filters,
// one tab per filter type and the query being built.
package panel

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/cpanel/internal/adapters/driving/tui/components/input"
	"github.com/custodia-labs/cpanel/internal/adapters/driving/tui/components/list"
	"github.com/custodia-labs/cpanel/internal/adapters/driving/tui/components/status"
	"github.com/custodia-labs/cpanel/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/cpanel/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/cpanel/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/cpanel/internal/core/controlpanel"
	"github.com/custodia-labs/cpanel/internal/core/domain"
	"github.com/custodia-labs/cpanel/internal/core/ports/driving"
	"github.com/custodia-labs/cpanel/internal/store"
)

// View is the control panel of the open search view.
type View struct {
	styles    *styles.Styles
	keymap    *keymap.KeyMap
	input     *input.SearchInput
	list      *list.FilterList
	statusbar *status.Bar

	panel  driving.ControlPanelService
	ctx    context.Context
	notify func(tea.Msg)

	name        string
	model       *controlpanel.Model
	conn        *store.Connection[controlpanel.State]
	filters     map[domain.FilterType]*store.Binding[controlpanel.FilterList]
	query       *store.Binding[controlpanel.QueryView]
	facets      *store.Binding[controlpanel.FacetList]
	suggestions *store.Binding[controlpanel.Suggestions]

	tabs  []domain.FilterType
	tab   int
	field int // index of the field filter the input searches

	width      int
	height     int
	ready      bool
	err        error
	focusInput bool
}

// NewView creates a new panel view.
func NewView(s *styles.Styles, km *keymap.KeyMap, panel driving.ControlPanelService) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}
	if km == nil {
		km = keymap.DefaultKeyMap()
	}

	return &View{
		styles:     s,
		keymap:     km,
		input:      input.NewSearchInput(s),
		list:       list.NewFilterList(s),
		statusbar:  status.NewBar(s, km),
		panel:      panel,
		ctx:        context.Background(),
		tabs:       domain.DefaultAppSettings().Panel.SearchMenuTypes,
		width:      80,
		height:     24,
		focusInput: true,
	}
}

// WithContext sets the context for the view.
func (v *View) WithContext(ctx context.Context) *View {
	v.ctx = ctx
	return v
}

// SetNotifier sets the func used to deliver PanelChanged messages when the
// model changes outside of this view, e.g. from a reload. It is called from
// the dispatching goroutine.
func (v *View) SetNotifier(notify func(tea.Msg)) {
	v.notify = notify
}

// SetTabs sets the filter types shown as tabs. Invalid and field types are
// skipped; an empty list keeps the current tabs.
func (v *View) SetTabs(types []domain.FilterType) {
	tabs := make([]domain.FilterType, 0, len(types))
	for _, t := range types {
		if t.IsValid() && t != domain.FilterTypeField {
			tabs = append(tabs, t)
		}
	}
	if len(tabs) == 0 {
		return
	}
	v.tabs = tabs
	if v.tab >= len(tabs) {
		v.tab = 0
	}
	v.syncList()
}

// SetModel connects the view to a model, closing the connection to the
// previous one.
func (v *View) SetModel(name string, m *controlpanel.Model) {
	v.Close()
	v.name = name
	v.model = m
	v.err = nil
	v.field = 0
	v.input.Reset()
	v.statusbar.Clear()
	v.statusbar.SetViewName(name)
	if m == nil {
		return
	}

	v.conn = m.Connect(store.ComponentFunc(v.changed))
	v.filters = make(map[domain.FilterType]*store.Binding[controlpanel.FilterList])
	for _, t := range domain.AllFilterTypes() {
		v.filters[t] = store.Bind(v.conn, m.SelectFilters(t))
	}
	v.query = store.Bind(v.conn, m.SelectQuery())
	v.facets = store.Bind(v.conn, m.SelectFacets())
	v.suggestions = store.Bind(v.conn, controlpanel.SelectSuggestions)
	v.sync()
}

// Close disconnects the view from its model.
func (v *View) Close() {
	if v.conn != nil {
		v.conn.Close()
		v.conn = nil
	}
}

func (v *View) changed() {
	if v.notify != nil {
		v.notify(messages.PanelChanged{})
	}
}

// Init initialises the view.
func (v *View) Init() tea.Cmd {
	return v.input.Init()
}

// Update handles messages for the panel view.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetDimensions(msg.Width, msg.Height)
		return v, nil

	case tea.KeyMsg:
		return v.handleKeyMsg(msg)

	case messages.PanelChanged:
		v.sync()
		return v, nil

	case messages.Dispatched:
		if msg.Err != nil {
			v.setError(fmt.Errorf("%s: %w", msg.Mutation, msg.Err))
		} else {
			v.clearError()
		}
		v.sync()
		return v, nil

	case messages.SuggestionsFetched:
		if msg.Err != nil && msg.Term == v.input.Term() {
			v.setError(msg.Err)
		}
		v.sync()
		return v, nil

	case messages.ErrorOccurred:
		v.setError(msg.Err)
		return v, nil
	}

	var cmd tea.Cmd
	v.input, cmd = v.input.Update(msg)
	return v, cmd
}

func (v *View) handleKeyMsg(msg tea.KeyMsg) (*View, tea.Cmd) {
	v.sync()
	if v.focusInput {
		return v.handleInputKey(msg)
	}
	return v.handleListKey(msg)
}

func (v *View) handleInputKey(msg tea.KeyMsg) (*View, tea.Cmd) {
	//nolint:exhaustive // handling only relevant key types
	switch msg.Type {
	case tea.KeyEsc:
		v.focusList()
		return v, nil
	case tea.KeyUp:
		v.input.MoveUp()
		return v, nil
	case tea.KeyDown:
		v.input.MoveDown()
		return v, nil
	case tea.KeyTab:
		v.cycleField()
		return v, nil
	case tea.KeyEnter:
		return v, v.submitInput()
	}

	before := v.input.Term()
	var cmd tea.Cmd
	v.input, cmd = v.input.Update(msg)
	if term := v.input.Term(); term != before {
		return v, tea.Batch(v.fetchSuggestions(term), cmd)
	}
	return v, cmd
}

func (v *View) handleListKey(msg tea.KeyMsg) (*View, tea.Cmd) {
	k := msg.String()
	switch {
	case keymap.Matches(k, v.keymap.Back):
		return v, func() tea.Msg {
			return messages.ViewChanged{View: messages.ViewMenu}
		}
	case keymap.Matches(k, v.keymap.Up):
		v.list.MoveUp()
	case keymap.Matches(k, v.keymap.Down):
		v.list.MoveDown()
	case keymap.Matches(k, v.keymap.NextTab):
		v.switchTab(1)
	case keymap.Matches(k, v.keymap.PrevTab):
		v.switchTab(-1)
	case keymap.Matches(k, v.keymap.Focus):
		v.focusInput = true
		v.statusbar.SetState(status.StateReady)
		return v, v.input.Focus()
	case keymap.Matches(k, v.keymap.Toggle):
		return v, v.toggleSelected()
	case keymap.Matches(k, v.keymap.Clear):
		return v, v.dispatch(controlpanel.MutationClearQuery)
	case keymap.Matches(k, v.keymap.RemoveFacet):
		return v, v.removeLastFacet()
	case keymap.Matches(k, v.keymap.Reset):
		return v, v.reset()
	}
	return v, nil
}

func (v *View) focusList() {
	v.focusInput = false
	v.input.Blur()
	v.input.ClearSuggestions()
	v.statusbar.SetState(status.StateBrowse)
}

func (v *View) switchTab(delta int) {
	if len(v.tabs) == 0 {
		return
	}
	v.tab = (v.tab + delta + len(v.tabs)) % len(v.tabs)
	v.list.SetSelected(0)
	v.syncList()
}

func (v *View) cycleField() {
	fields := v.fieldFilters()
	if len(fields) == 0 {
		return
	}
	v.field = (v.field + 1) % len(fields)
	v.input.ClearSuggestions()
	v.syncInput()
}

// submitInput adds the selected suggestion, or the typed term, as a value
// of the current field filter.
func (v *View) submitInput() tea.Cmd {
	f := v.currentField()
	term := v.input.Term()
	if f == nil || term == "" {
		return nil
	}
	sel := controlpanel.AutocompleteSelection{FilterID: f.ID, Label: term, Value: term}
	if s := v.input.Selected(); s != nil {
		sel.Label = s.Label
		sel.Value = s.Value
	}
	v.input.Reset()
	return v.dispatch(controlpanel.MutationAddAutoCompletionValues, sel)
}

func (v *View) fetchSuggestions(term string) tea.Cmd {
	f := v.currentField()
	if f == nil || term == "" || v.panel == nil {
		return nil
	}
	id := f.ID
	ctx := v.ctx
	return func() tea.Msg {
		err := v.panel.Dispatch(ctx, controlpanel.MutationFetchAutocomplete, id, term)
		return messages.SuggestionsFetched{FilterID: id, Term: term, Err: err}
	}
}

func (v *View) toggleSelected() tea.Cmd {
	row := v.list.SelectedRow()
	if row == nil {
		return nil
	}
	if row.Option != nil {
		return v.dispatch(controlpanel.MutationToggleFilterWithOptions, row.Filter.ID, row.Option.OptionID)
	}
	if row.Filter.HasOptions {
		// The default option is picked when none is given.
		return v.dispatch(controlpanel.MutationToggleFilterWithOptions, row.Filter.ID)
	}
	return v.dispatch(controlpanel.MutationToggleFilter, row.Filter.ID)
}

func (v *View) removeLastFacet() tea.Cmd {
	facets := v.Facets()
	if len(facets) == 0 {
		return nil
	}
	return v.dispatch(controlpanel.MutationDeactivateGroup, facets[len(facets)-1].GroupID)
}

func (v *View) dispatch(mutation string, args ...any) tea.Cmd {
	if v.panel == nil {
		return func() tea.Msg { return messages.ErrorOccurred{Err: ErrNoPanelService} }
	}
	if v.model == nil {
		return func() tea.Msg { return messages.ErrorOccurred{Err: ErrNoModel} }
	}
	ctx := v.ctx
	return func() tea.Msg {
		err := v.panel.Dispatch(ctx, mutation, args...)
		return messages.Dispatched{Mutation: mutation, Err: err}
	}
}

func (v *View) reset() tea.Cmd {
	if v.panel == nil || v.model == nil {
		return nil
	}
	v.statusbar.SetState(status.StateLoading)
	ctx := v.ctx
	return func() tea.Msg {
		if err := v.panel.Reset(ctx); err != nil {
			return messages.ErrorOccurred{Err: err}
		}
		return messages.PanelReloaded{Model: v.panel.Model()}
	}
}

func (v *View) setError(err error) {
	v.err = err
	v.statusbar.SetState(status.StateError)
	v.statusbar.SetMessage(err.Error())
}

func (v *View) clearError() {
	v.err = nil
	v.statusbar.SetMessage("")
	if v.focusInput {
		v.statusbar.SetState(status.StateReady)
	} else {
		v.statusbar.SetState(status.StateBrowse)
	}
}

// sync copies the bound selector results into the components.
func (v *View) sync() {
	v.syncList()
	v.syncInput()
	if v.facets != nil {
		v.statusbar.SetActiveCount(len(v.facets.Value().Facets))
	}
}

func (v *View) syncList() {
	if v.filters == nil || len(v.tabs) == 0 {
		v.list.SetFilters(nil)
		return
	}
	v.list.SetFilters(v.visible(v.filters[v.tabs[v.tab]].Value().Filters))
}

func (v *View) syncInput() {
	f := v.currentField()
	if f == nil {
		v.input.SetLabel("Search")
		return
	}
	v.input.SetLabel(f.Description)
	if v.suggestions == nil {
		return
	}
	s := v.suggestions.Value()
	// Responses for another field or an earlier term are ignored.
	if s.FilterID == f.ID && s.Term == v.input.Term() {
		v.input.SetSuggestions(s.Term, s.Values)
	}
}

func (v *View) visible(filters []domain.Filter) []domain.Filter {
	out := make([]domain.Filter, 0, len(filters))
	for _, f := range filters {
		if !f.Invisible {
			out = append(out, f)
		}
	}
	return out
}

func (v *View) fieldFilters() []domain.Filter {
	if v.filters == nil {
		return nil
	}
	return v.visible(v.filters[domain.FilterTypeField].Value().Filters)
}

func (v *View) currentField() *domain.Filter {
	fields := v.fieldFilters()
	if len(fields) == 0 {
		return nil
	}
	if v.field >= len(fields) {
		v.field = 0
	}
	return &fields[v.field]
}

// View renders the panel.
func (v *View) View() string {
	if !v.ready {
		return "Initialising..."
	}
	if v.model == nil {
		return v.styles.Muted.Render("No search view open. Press esc to pick one.")
	}

	sections := make([]string, 0, 12)

	title := v.styles.Title.Render(v.name)
	if view := v.model.View(); view != nil && view.Model != "" {
		title += v.styles.Muted.Render("  " + view.Model)
	}
	sections = append(sections, title, "", v.renderFacets(), v.input.View(), "")
	sections = append(sections, v.renderTabs(), v.list.View(), "")
	sections = append(sections, v.renderQuery())

	if v.err != nil {
		sections = append(sections, "", v.styles.Error.Render("Error: "+v.err.Error()))
	}

	sections = append(sections, "", v.statusbar.View())
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (v *View) renderFacets() string {
	facets := v.Facets()
	if len(facets) == 0 {
		return v.styles.Muted.Render("No active filters")
	}
	chips := make([]string, 0, len(facets))
	for _, f := range facets {
		label := strings.Join(f.Values, " "+f.Separator+" ")
		if f.Title != "" {
			label = f.Title + ": " + label
		}
		chips = append(chips, v.styles.Facet.Render(label))
	}
	return strings.Join(chips, " ")
}

func (v *View) renderTabs() string {
	tabs := make([]string, 0, len(v.tabs))
	for i, t := range v.tabs {
		label := tabLabel(t)
		if i == v.tab {
			tabs = append(tabs, v.styles.ActiveTab.Render(label))
			continue
		}
		tabs = append(tabs, v.styles.Tab.Render(label))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, tabs...)
}

func tabLabel(t domain.FilterType) string {
	switch t {
	case domain.FilterTypeFilter:
		return "Filters"
	case domain.FilterTypeGroupBy:
		return "Group By"
	case domain.FilterTypeFavorite:
		return "Favorites"
	case domain.FilterTypeTimeRange:
		return "Time Ranges"
	default:
		return t.String()
	}
}

func (v *View) renderQuery() string {
	if v.query == nil {
		return ""
	}
	qv := v.query.Value()
	if qv.Err != nil {
		return v.styles.Error.Render("Query: " + qv.Err.Error())
	}
	q := qv.Query
	lines := []string{v.styles.Subtitle.Render("Query") + " " + v.styles.Normal.Render(q.Domain.String())}
	if len(q.GroupBy) > 0 {
		lines = append(lines, v.styles.Muted.Render("Group by: ")+strings.Join(q.GroupBy, ", "))
	}
	if len(q.OrderedBy) > 0 {
		lines = append(lines, v.styles.Muted.Render("Order by: ")+strings.Join(domain.FormatSort(q.OrderedBy), ", "))
	}
	if tr := q.TimeRanges; tr != nil {
		lines = append(lines, v.styles.Muted.Render("Time range: ")+tr.RangeDescription)
	}
	return strings.Join(lines, "\n")
}

// SetDimensions sets the view dimensions.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
	v.ready = true

	v.input.SetWidth(width)
	v.list.SetDimensions(width, height-16) // Reserve space for facets, input, tabs, query and status
	v.statusbar.SetWidth(width)
}

// Reset returns the view to input mode with an empty input.
func (v *View) Reset() {
	v.focusInput = true
	v.input.Focus()
	v.input.Reset()
	v.err = nil
	v.statusbar.SetState(status.StateReady)
	v.statusbar.SetMessage("")
}

// Name returns the name of the open search view.
func (v *View) Name() string {
	return v.name
}

// Model returns the connected model.
func (v *View) Model() *controlpanel.Model {
	return v.model
}

// Facets returns the bound facets.
func (v *View) Facets() []domain.Facet {
	if v.facets == nil {
		return nil
	}
	return v.facets.Value().Facets
}

// Query returns the bound query.
func (v *View) Query() domain.Query {
	if v.query == nil {
		return domain.Query{}
	}
	return v.query.Value().Query
}

// Tab returns the filter type of the current tab.
func (v *View) Tab() domain.FilterType {
	if len(v.tabs) == 0 {
		return ""
	}
	return v.tabs[v.tab]
}

// Rows returns the rows of the filter list.
func (v *View) Rows() []list.Row {
	return v.list.Rows()
}

// SelectRow moves the list cursor to index.
func (v *View) SelectRow(index int) {
	v.list.SetSelected(index)
}

// InputValue returns the search input value.
func (v *View) InputValue() string {
	return v.input.Value()
}

// InputLabel returns the label of the search input.
func (v *View) InputLabel() string {
	return v.input.Label()
}

// Suggestions returns the suggestions shown for the current term.
func (v *View) Suggestions() []domain.AutocompleteValue {
	return v.input.Suggestions()
}

// InputFocused returns whether the input has focus.
func (v *View) InputFocused() bool {
	return v.focusInput
}

// Err returns the current error, if any.
func (v *View) Err() error {
	return v.err
}

// Ready returns whether the view is ready to render.
func (v *View) Ready() bool {
	return v.ready
}
