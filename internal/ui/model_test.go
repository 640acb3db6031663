package ui

import (
	"context"
	"io"
	"log/slog"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/five82/footctl/internal/config"
	"github.com/five82/footctl/internal/device"
	"github.com/five82/footctl/internal/devicesim"
	"github.com/five82/footctl/internal/editor"
	"github.com/five82/footctl/internal/state"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testContext(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)
	return ctx
}

// newTestModel returns a loaded model backed by an emulated device.
func newTestModel(t *testing.T) (Model, *devicesim.Device, *editor.Session) {
	t.Helper()
	dev := devicesim.New(devicesim.DefaultState())
	srv := httptest.NewServer(devicesim.NewServer(dev, devicesim.ServerOptions{Logger: discardLogger()}).Handler())
	t.Cleanup(srv.Close)

	client, err := device.NewClient(srv.URL, device.Options{RequestsPerSecond: 1000, Burst: 100})
	if err != nil {
		t.Fatalf("NewClient returned error: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	session := editor.New(ctx, client, &state.Store{}, editor.Options{Logger: discardLogger()})
	t.Cleanup(func() { _ = session.Close(context.Background()) })

	cfg := config.Default()
	cfg.LogFile = ""
	m := New(Options{
		Context:   ctx,
		Session:   session,
		Config:    &cfg,
		Logger:    discardLogger(),
		PrefsPath: filepath.Join(t.TempDir(), "prefs.toml"),
	})
	m = send(t, m, tea.WindowSizeMsg{Width: 140, Height: 50})
	m = runCmd(t, m, m.loadCmd())
	if m.loading || m.loadErr != nil {
		t.Fatalf("load did not finish: loading=%v err=%v", m.loading, m.loadErr)
	}
	return m, dev, session
}

func send(t *testing.T, m Model, msg tea.Msg) Model {
	t.Helper()
	next, _ := m.Update(msg)
	return next.(Model)
}

// press sends a key and runs a resulting session operation.
func press(t *testing.T, m Model, k tea.KeyMsg) Model {
	t.Helper()
	next, cmd := m.Update(k)
	m = next.(Model)
	if m.busy && cmd != nil {
		m = runCmd(t, m, cmd)
	}
	return m
}

func runCmd(t *testing.T, m Model, cmd tea.Cmd) Model {
	t.Helper()
	msg := cmd()
	done, ok := msg.(opDoneMsg)
	if !ok {
		t.Fatalf("command returned %T, want opDoneMsg", msg)
	}
	return send(t, m, done)
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func typeText(t *testing.T, m Model, s string) Model {
	t.Helper()
	for _, r := range s {
		m = press(t, m, runes(string(r)))
	}
	return m
}

func clearField(t *testing.T, m Model) Model {
	t.Helper()
	for range m.field.input.Value() {
		m = press(t, m, tea.KeyMsg{Type: tea.KeyBackspace})
	}
	return m
}

func TestRenameBankSavesToDevice(t *testing.T) {
	m, dev, session := newTestModel(t)

	m = press(t, m, runes("N"))
	if m.field == nil {
		t.Fatal("rename did not open a field")
	}
	m = clearField(t, m)
	m = typeText(t, m, "Verse")
	if got := m.snapshot.BankName(0); got != "Verse" {
		t.Fatalf("bank name while typing = %q, want Verse", got)
	}
	m = press(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	if m.field != nil {
		t.Fatal("field still open after enter")
	}

	if err := session.Flush(testContext(t)); err != nil {
		t.Fatalf("Flush returned error: %v", err)
	}
	if got := dev.Layout().Banks[0].Name; got != "Verse" {
		t.Fatalf("device bank name = %q, want Verse", got)
	}
}

func TestSelectSwitchLoadsButton(t *testing.T) {
	m, dev, _ := newTestModel(t)

	m = press(t, m, runes("3"))
	if m.busy {
		t.Fatal("model still busy after navigation")
	}
	if got := m.snapshot.Selection.Btn; got != 2 {
		t.Fatalf("selected switch = %d, want 2", got)
	}

	m = press(t, m, runes("]"))
	if got := m.snapshot.Selection.Bank; got != 1 {
		t.Fatalf("selected bank = %d, want 1", got)
	}
	if got := dev.Live().Bank; got != 1 {
		t.Fatalf("hardware bank = %d, want 1", got)
	}
}

func TestEditsWaitForNavigation(t *testing.T) {
	m, dev, _ := newTestModel(t)
	before := m.snapshot.Button.PressMode

	next, cmd := m.Update(runes("3"))
	m = next.(Model)
	if !m.busy || cmd == nil {
		t.Fatal("switch selection did not start an operation")
	}
	m = send(t, m, runes("m"))
	if got := m.snapshot.Button.PressMode; got != before {
		t.Fatalf("press mode changed to %d during navigation", got)
	}

	m = runCmd(t, m, cmd)
	if got := m.snapshot.Selection.Btn; got != 2 {
		t.Fatalf("selected switch = %d, want 2", got)
	}
	if got := dev.Button(0, 0).PressMode; got != before {
		t.Fatalf("device press mode for switch 1 = %d, want %d", got, before)
	}
}

func TestActionFieldAcceptsDigitsOnly(t *testing.T) {
	m, dev, session := newTestModel(t)

	m = press(t, m, tea.KeyMsg{Type: tea.KeyTab})
	if m.pane != paneActions {
		t.Fatalf("pane = %v, want Actions", m.pane)
	}
	m = press(t, m, runes("a"))
	if got := len(m.snapshot.Button.Short); got != 1 {
		t.Fatalf("short actions = %d, want 1", got)
	}

	m = press(t, m, runes("l"))
	m = press(t, m, runes("e"))
	if m.field == nil || !m.field.numeric {
		t.Fatal("channel field did not open")
	}
	m = clearField(t, m)
	m = typeText(t, m, "x1z2")
	m = press(t, m, tea.KeyMsg{Type: tea.KeyEnter})

	if got := m.snapshot.Button.Short[0].Ch; got != 12 {
		t.Fatalf("channel = %d, want 12", got)
	}
	if err := session.Flush(testContext(t)); err != nil {
		t.Fatalf("Flush returned error: %v", err)
	}
	if got := dev.Button(0, 0).Short[0].Ch; got != 12 {
		t.Fatalf("device channel = %d, want 12", got)
	}
}

func TestDeleteBankAsksFirst(t *testing.T) {
	m, dev, _ := newTestModel(t)

	m = press(t, m, runes("D"))
	if m.modal == nil {
		t.Fatal("delete did not open a confirmation")
	}
	m = press(t, m, runes("n"))
	if m.modal != nil {
		t.Fatal("modal still open after cancel")
	}
	if got := dev.Layout().BankCount; got != 4 {
		t.Fatalf("bank count after cancel = %d, want 4", got)
	}

	m = press(t, m, runes("D"))
	m = press(t, m, runes("y"))
	if got := dev.Layout().BankCount; got != 3 {
		t.Fatalf("bank count after confirm = %d, want 3", got)
	}
	if got := m.snapshot.Meta.BankCount; got != 3 {
		t.Fatalf("snapshot bank count = %d, want 3", got)
	}
}

func TestPortKindCyclesToExpression(t *testing.T) {
	m, dev, session := newTestModel(t)

	m = press(t, m, tea.KeyMsg{Type: tea.KeyShiftTab})
	if m.pane != panePorts {
		t.Fatalf("pane = %v, want Ports", m.pane)
	}
	m = press(t, m, runes("K"))
	m = press(t, m, runes("K"))
	cfg, ok := m.snapshot.Port(0)
	if !ok || cfg.Kind != device.KindExp {
		t.Fatalf("port 0 = %+v, want exp", cfg)
	}
	if err := session.Flush(testContext(t)); err != nil {
		t.Fatalf("Flush returned error: %v", err)
	}
	if got := dev.ExpFS(0).Kind; got != device.KindExp {
		t.Fatalf("device port kind = %q, want exp", got)
	}
}

func TestHelpClosesOnAnyKey(t *testing.T) {
	m, _, _ := newTestModel(t)

	m = press(t, m, runes("?"))
	if !m.showHelp {
		t.Fatal("help not shown")
	}
	if !strings.Contains(m.View(), "Keyboard Shortcuts") {
		t.Fatal("help view missing title")
	}
	m = press(t, m, runes("]"))
	if m.showHelp {
		t.Fatal("help still shown")
	}
	if got := m.snapshot.Selection.Bank; got != 0 {
		t.Fatalf("key closing help also navigated to bank %d", got)
	}
}

func TestMainViewShowsSwitches(t *testing.T) {
	m, _, _ := newTestModel(t)

	view := m.View()
	for _, want := range []string{"SW1", "SW8", "Bank 1", "Actions", "Ports"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q", want)
		}
	}
}

func TestRenderBoxFitsWidth(t *testing.T) {
	box := renderBox(GetTheme("Slate"), "Title", "one\ntwo", 20, 5, true)
	lines := strings.Split(box, "\n")
	if len(lines) != 5 {
		t.Fatalf("box has %d lines, want 5", len(lines))
	}
	for i, l := range lines {
		if w := lipgloss.Width(l); w != 20 {
			t.Fatalf("line %d width = %d, want 20: %q", i, w, l)
		}
	}
}

func TestNextLevelCycles(t *testing.T) {
	level := "DEBUG"
	seen := []string{}
	for range logLevels {
		level = nextLevel(level)
		seen = append(seen, level)
	}
	if strings.Join(seen, ",") != "INFO,WARN,ERROR,DEBUG" {
		t.Fatalf("levels = %v", seen)
	}
	if got := nextLevel("bogus"); got != "DEBUG" {
		t.Fatalf("nextLevel(bogus) = %q, want DEBUG", got)
	}
}

func TestBgJoinSkipsEmptyParts(t *testing.T) {
	bg := NewBgStyle("#000000")
	got := bg.Join([]string{"a", "", "b"}, "|")
	if strings.Count(got, "|") != 1 {
		t.Fatalf("Join = %q, want one separator", got)
	}
}
