package tui

import (
	"os"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/sadopc/tooldb/internal/registry"
	"github.com/sadopc/tooldb/internal/store"
	"github.com/sadopc/tooldb/internal/tooltable"
)

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.NewMemory()
	if err != nil {
		t.Fatalf("new memory store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func newTestRegistry(t *testing.T, s *store.Store, tools ...int) *registry.Registry {
	t.Helper()
	var records []tooltable.Record
	for _, n := range tools {
		records = append(records, tooltable.New(n))
	}
	reg, err := registry.New(s, tooltable.NewMemory(records...), registry.Options{})
	if err != nil {
		t.Fatalf("new registry: %v", err)
	}
	if err := reg.Refresh().Err(); err != nil {
		t.Fatalf("refresh: %v", err)
	}
	return reg
}

func newTestApp(t *testing.T, tools ...int) App {
	t.Helper()
	s := newTestStore(t)
	reg := newTestRegistry(t, s, tools...)
	app := NewApp(reg, s, Options{ExportDir: t.TempDir()})
	app.width = 120
	app.height = 40
	app.offsets.setSize(120, 36)
	app.tools.setSize(120, 36)
	app.usage.setSize(120, 36)
	app.machine.setSize(120, 36)
	return app
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

var (
	enterKey = tea.KeyMsg{Type: tea.KeyEnter}
	escKey   = tea.KeyMsg{Type: tea.KeyEsc}
	spaceKey = runes(" ")
	rightKey = tea.KeyMsg{Type: tea.KeyRight}
	downKey  = tea.KeyMsg{Type: tea.KeyDown}
)

func press(t *testing.T, app App, msgs ...tea.Msg) App {
	t.Helper()
	for _, msg := range msgs {
		m, _ := app.Update(msg)
		app = m.(App)
	}
	return app
}

func makeEditable(app App) {
	app.reg.SetEditMode(true)
	app.reg.Handle(registry.AxesHomed{Homed: true})
}

// ============================================================
// Helpers
// ============================================================

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		d    time.Duration
		want string
	}{
		{0, "00:00:00"},
		{time.Second, "00:00:01"},
		{time.Minute, "00:01:00"},
		{time.Hour, "01:00:00"},
		{25*time.Hour + time.Minute + time.Second, "25:01:01"},
	}
	for _, tt := range tests {
		if got := formatDuration(tt.d); got != tt.want {
			t.Errorf("formatDuration(%v) = %q, want %q", tt.d, got, tt.want)
		}
	}
}

func TestFormatSeconds(t *testing.T) {
	if got := formatSeconds(3661); got != "01:01:01" {
		t.Fatalf("formatSeconds(3661) = %q", got)
	}
}

func TestFormatMinutes(t *testing.T) {
	tests := []struct {
		minutes float64
		want    string
	}{
		{0, "00:00:00"},
		{1.5, "00:01:30"},
		{90, "01:30:00"},
	}
	for _, tt := range tests {
		if got := formatMinutes(tt.minutes); got != tt.want {
			t.Errorf("formatMinutes(%v) = %q, want %q", tt.minutes, got, tt.want)
		}
	}
}

func TestRawValue(t *testing.T) {
	tests := []struct {
		v    any
		want string
	}{
		{12.34567, "12.34567"},
		{0.0, "0"},
		{7, "7"},
		{true, "true"},
		{"6mm flat", "6mm flat"},
		{nil, ""},
	}
	for _, tt := range tests {
		if got := rawValue(tt.v); got != tt.want {
			t.Errorf("rawValue(%v) = %q, want %q", tt.v, got, tt.want)
		}
	}
}

// ============================================================
// View state
// ============================================================

func TestViewNames(t *testing.T) {
	if len(viewNames) != 4 {
		t.Fatalf("expected 4 view names, got %d", len(viewNames))
	}
	if viewNames[viewOffsets] != "Offsets" || viewNames[viewMachine] != "Machine" {
		t.Fatalf("unexpected view names %v", viewNames)
	}
}

// ============================================================
// Grid
// ============================================================

func TestGridColumnsFollowAxes(t *testing.T) {
	s := newTestStore(t)
	reg := newTestRegistry(t, s)
	o := newOffsetsModel(reg, []string{"X", "Z"})

	var names []string
	for _, ci := range o.grid.cols {
		names = append(names, reg.OffsetLayout().Columns[ci].Name)
	}
	got := strings.Join(names, ",")
	if got != "Chk,Tool,Pocket,X,Z,Diameter,I,J,Q,Comment" {
		t.Fatalf("columns = %s", got)
	}
}

func TestGridMoveAndClamp(t *testing.T) {
	g := newGrid(store.ToolLayout, "TOOL", "RPM")

	if !g.move(downKey, 3) || g.cursor != 1 {
		t.Fatalf("down: cursor = %d", g.cursor)
	}
	g.move(downKey, 3)
	g.move(downKey, 3)
	if g.cursor != 2 {
		t.Fatalf("cursor should stop at last row, got %d", g.cursor)
	}
	g.move(rightKey, 3)
	g.move(rightKey, 3)
	if g.col != 1 || g.column().Name != "RPM" {
		t.Fatalf("column = %d %s", g.col, g.column().Name)
	}
	if g.move(runes("z"), 3) {
		t.Fatal("unrelated key should not be consumed")
	}

	g.clamp(1)
	if g.cursor != 0 {
		t.Fatalf("clamp: cursor = %d", g.cursor)
	}
	g.clamp(0)
	if g.cursor != 0 {
		t.Fatalf("clamp on empty: cursor = %d", g.cursor)
	}
}

// ============================================================
// Offsets view
// ============================================================

func TestOffsetsCheckToggle(t *testing.T) {
	app := newTestApp(t, 1, 2)

	app = press(t, app, downKey, spaceKey)
	if got := app.reg.ListCheckedToolNumbers(); len(got) != 1 || got[0] != 2 {
		t.Fatalf("checked = %v, want [2]", got)
	}

	app = press(t, app, spaceKey)
	if got := app.reg.ListCheckedToolNumbers(); len(got) != 0 {
		t.Fatalf("checked = %v, want none", got)
	}
}

func TestOffsetsEditLocked(t *testing.T) {
	app := newTestApp(t, 1)

	// Move to Pocket, a writable column.
	app = press(t, app, rightKey, rightKey, enterKey)
	if app.isFormActive() {
		t.Fatal("form should not open while locked")
	}
}

func TestOffsetsEditFormOpenAndCancel(t *testing.T) {
	app := newTestApp(t, 1)
	makeEditable(app)

	app = press(t, app, rightKey, rightKey, enterKey)
	if !app.isFormActive() {
		t.Fatal("form should open when editable")
	}
	if app.offsets.edit.field != "Pocket" || app.offsets.edit.tool != 1 {
		t.Fatalf("editing %d %s", app.offsets.edit.tool, app.offsets.edit.field)
	}
	if *app.offsets.edit.value != "1" {
		t.Fatalf("prefilled value = %q, want 1", *app.offsets.edit.value)
	}
	if !strings.Contains(app.View(), "T1 offsets") {
		t.Fatal("form title should be shown")
	}

	app = press(t, app, escKey)
	if app.isFormActive() {
		t.Fatal("esc should cancel the form")
	}
}

func TestOffsetsAddAndDelete(t *testing.T) {
	app := newTestApp(t, 0, 1)

	app = press(t, app, runes("a"))
	if n := len(app.reg.Offsets()); n != 2 {
		t.Fatalf("add should be refused while locked, have %d rows", n)
	}

	makeEditable(app)
	app = press(t, app, runes("a"))
	if got := app.reg.ToolNumbers(); len(got) != 3 || got[2] != 2 {
		t.Fatalf("tools = %v, want [0 1 2]", got)
	}
	if app.offsets.grid.cursor != 2 {
		t.Fatalf("cursor should follow the new tool, got %d", app.offsets.grid.cursor)
	}

	app = press(t, app, runes("d"))
	if got := app.reg.ToolNumbers(); len(got) != 2 {
		t.Fatalf("tools after delete = %v", got)
	}
}

func TestOffsetsViewShowsComment(t *testing.T) {
	app := newTestApp(t, 3)
	out := app.offsets.view()
	if !strings.Contains(out, "New tool") {
		t.Fatal("offsets view should list the tool comment")
	}
	if !strings.Contains(out, "LOCKED") {
		t.Fatal("offsets view should show the lock state")
	}
}

// ============================================================
// Tools view
// ============================================================

func TestToolsReadOnlyColumn(t *testing.T) {
	app := newTestApp(t, 1)
	makeEditable(app)
	app.activeView = viewTools

	// TOOL is read-only.
	app = press(t, app, enterKey)
	if app.isFormActive() {
		t.Fatal("read-only column should not open a form")
	}

	app = press(t, app, rightKey, rightKey, enterKey)
	if !app.isFormActive() || app.tools.edit.field != "RPM" {
		t.Fatal("RPM should be editable")
	}
}

func TestToolsIconNeedsCheckedTool(t *testing.T) {
	app := newTestApp(t, 1)
	app.activeView = viewTools

	app = press(t, app, runes("i"))
	if app.isFormActive() {
		t.Fatal("icon form needs a checked tool")
	}

	if err := app.reg.SetChecked(1, true); err != nil {
		t.Fatal(err)
	}
	app = press(t, app, runes("i"))
	if !app.isFormActive() || app.tools.edit.field != iconField {
		t.Fatal("icon form should open for the checked tool")
	}
	if *app.tools.edit.value != "not_found.png" {
		t.Fatalf("icon prefill = %q", *app.tools.edit.value)
	}
}

// ============================================================
// Machine view and heartbeat
// ============================================================

func TestMachineLoadToolAndRun(t *testing.T) {
	app := newTestApp(t, 4, 5)
	app.activeView = viewMachine

	app = press(t, app, runes("t"))
	if !app.machine.picking {
		t.Fatal("t should open the tool picker")
	}
	app = press(t, app, downKey, enterKey)
	if app.reg.Timer().Tool() != 5 {
		t.Fatalf("spindle tool = %d, want 5", app.reg.Timer().Tool())
	}

	app = press(t, app, runes("s"))
	if !app.reg.Timer().Running() {
		t.Fatal("cycle start should run the timer")
	}

	for i := 0; i < 20; i++ {
		app = press(t, app, tickMsg(time.Now()))
	}
	if got := app.reg.Timer().Elapsed(); got != 2*time.Second {
		t.Fatalf("elapsed = %v, want 2s", got)
	}
	if !strings.Contains(app.renderFooter(), "T5") {
		t.Fatal("footer should show the running tool")
	}

	app = press(t, app, runes("x"))
	if app.reg.Timer().Running() {
		t.Fatal("cycle stop should stop the timer")
	}
	m, _ := app.reg.Meta(5)
	if m.Time != 0.033 {
		t.Fatalf("stored minutes = %v, want 0.033", m.Time)
	}
}

func TestMachineHomeToggle(t *testing.T) {
	app := newTestApp(t, 1)
	app.activeView = viewMachine

	app = press(t, app, runes("o"))
	if !app.reg.Homed() {
		t.Fatal("o should home the machine")
	}
	app = press(t, app, runes("o"))
	if app.reg.Homed() {
		t.Fatal("o should unhome the machine")
	}
}

func TestMachineSettingsPanel(t *testing.T) {
	app := newTestApp(t)
	msg := app.machine.loadData()()
	app = press(t, app, msg)

	out := app.machine.view()
	if !strings.Contains(out, "metric_display") || !strings.Contains(out, "edit_mode") {
		t.Fatal("preferences should be listed")
	}
}

// ============================================================
// Usage view
// ============================================================

func TestUsageView(t *testing.T) {
	app := newTestApp(t, 1, 2)
	app.reg.Handle(registry.ToolChanged{Tool: 2})
	app.reg.Handle(registry.RunStateChanged{Running: true, Auto: true})
	for i := 0; i < 30; i++ {
		app.reg.Handle(registry.Heartbeat{})
	}
	app.reg.Handle(registry.RunStateChanged{Running: false, Auto: true})

	app.activeView = viewUsage
	msg := app.usage.refresh()()
	app = press(t, app, msg)

	if len(app.usage.totals) != 2 {
		t.Fatalf("totals = %d, want 2", len(app.usage.totals))
	}
	if len(app.usage.sessions) != 1 {
		t.Fatalf("sessions = %d, want 1", len(app.usage.sessions))
	}
	out := app.usage.view()
	if !strings.Contains(out, "Spindle Time") || !strings.Contains(out, "00:00:03") {
		t.Fatalf("usage view missing data:\n%s", out)
	}
}

// ============================================================
// App model
// ============================================================

func TestNewApp(t *testing.T) {
	app := newTestApp(t)

	if app.activeView != viewOffsets {
		t.Fatal("default view should be offsets")
	}
	if app.showHelp {
		t.Fatal("help should be hidden by default")
	}
	if app.exportPicking {
		t.Fatal("export picker should be hidden by default")
	}
	if app.heartbeat != 100*time.Millisecond {
		t.Fatalf("default heartbeat = %v", app.heartbeat)
	}
	if app.isFormActive() {
		t.Fatal("no forms should be active initially")
	}
}

func TestAppViewStates(t *testing.T) {
	app := newTestApp(t, 1, 2)

	for v := range viewNames {
		app.activeView = viewState(v)
		if output := app.View(); output == "" {
			t.Fatalf("view %d rendered empty", v)
		}
	}
}

func TestAppTabCycles(t *testing.T) {
	app := newTestApp(t)
	tab := tea.KeyMsg{Type: tea.KeyTab}
	for i := 0; i < len(viewNames); i++ {
		app = press(t, app, tab)
	}
	if app.activeView != viewOffsets {
		t.Fatalf("tab should wrap around, at %d", app.activeView)
	}
}

func TestAppGlobalToggles(t *testing.T) {
	app := newTestApp(t)

	app = press(t, app, runes("m"))
	if app.reg.Metric() {
		t.Fatal("m should switch to inch display")
	}
	app = press(t, app, runes("w"))
	if !app.reg.EditMode() {
		t.Fatal("w should enable edit mode")
	}
}

func TestAppRenderHeaderContainsAllTabs(t *testing.T) {
	app := newTestApp(t)
	header := app.renderHeader()
	for _, name := range viewNames {
		if !strings.Contains(header, name) {
			t.Fatalf("header missing tab %q", name)
		}
	}
}

func TestAppLoadingState(t *testing.T) {
	app := newTestApp(t)
	app.width = 0
	if output := app.View(); output != "Loading..." {
		t.Fatalf("expected 'Loading...', got %q", output)
	}
}

func TestAppStatusMessage(t *testing.T) {
	app := newTestApp(t)
	app = press(t, app, statusMsg{text: "test status", isError: true})

	if !app.statusErr {
		t.Fatal("error flag should be kept")
	}
	if !strings.Contains(app.renderFooter(), "test status") {
		t.Fatal("footer should contain status message")
	}
}

func TestAppExportJSON(t *testing.T) {
	app := newTestApp(t, 1, 2)

	app = press(t, app, runes("e"))
	if !app.exportPicking {
		t.Fatal("e should open the export picker")
	}
	for range exportFormats {
		app = press(t, app, downKey)
	}
	if app.exportCursor != len(exportFormats)-1 {
		t.Fatalf("cursor = %d", app.exportCursor)
	}

	msg := app.doExport(app.exportCursor)()
	done, ok := msg.(exportDoneMsg)
	if !ok {
		t.Fatalf("expected exportDoneMsg, got %#v", msg)
	}
	if _, err := os.Stat(done.path); err != nil {
		t.Fatalf("export file missing: %v", err)
	}
	if !strings.HasSuffix(done.path, ".json") {
		t.Fatalf("unexpected export path %s", done.path)
	}
}

func TestAppExportCSV(t *testing.T) {
	app := newTestApp(t, 1)
	for format := 0; format < 3; format++ {
		msg := app.doExport(format)()
		done, ok := msg.(exportDoneMsg)
		if !ok {
			t.Fatalf("format %d: expected exportDoneMsg, got %#v", format, msg)
		}
		if !strings.HasSuffix(done.path, ".csv") {
			t.Fatalf("format %d: path %s", format, done.path)
		}
	}
}

// ============================================================
// Key bindings
// ============================================================

func TestKeyMapShortHelp(t *testing.T) {
	if len(keys.ShortHelp()) == 0 {
		t.Fatal("short help should have bindings")
	}
}

func TestKeyMapFullHelp(t *testing.T) {
	groups := keys.FullHelp()
	if len(groups) == 0 {
		t.Fatal("full help should have groups")
	}
	for i, g := range groups {
		if len(g) == 0 {
			t.Fatalf("full help group %d is empty", i)
		}
	}
}

// ============================================================
// Styles (smoke test: render without panic)
// ============================================================

func TestStylesRender(t *testing.T) {
	styles := []struct {
		name string
		fn   func() string
	}{
		{"activeTab", func() string { return activeTabStyle.Render("test") }},
		{"inactiveTab", func() string { return inactiveTabStyle.Render("test") }},
		{"panel", func() string { return panelStyle.Render("test") }},
		{"activePanel", func() string { return activePanelStyle.Render("test") }},
		{"timer", func() string { return timerStyle.Render("test") }},
		{"timerRunning", func() string { return timerRunningStyle.Render("test") }},
		{"cellCursor", func() string { return cellCursorStyle.Render("test") }},
		{"spindleRow", func() string { return spindleRowStyle.Render("test") }},
		{"title", func() string { return titleStyle.Render("test") }},
		{"success", func() string { return successStyle.Render("test") }},
		{"warning", func() string { return warningStyle.Render("test") }},
		{"error", func() string { return errorStyle.Render("test") }},
		{"muted", func() string { return mutedStyle.Render("test") }},
		{"highlight", func() string { return highlightStyle.Render("test") }},
		{"selectedItem", func() string { return selectedItemStyle.Render("test") }},
		{"normalItem", func() string { return normalItemStyle.Render("test") }},
	}

	for _, s := range styles {
		if s.fn() == "" {
			t.Fatalf("style %q rendered empty", s.name)
		}
	}
}
