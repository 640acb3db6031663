package ui

import (
	"context"
	"log/slog"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/five82/footctl/internal/autosave"
	"github.com/five82/footctl/internal/config"
	"github.com/five82/footctl/internal/editor"
	"github.com/five82/footctl/internal/prefs"
	"github.com/five82/footctl/internal/state"
)

// pane is the part of the editor that receives pane-specific keys.
type pane int

const (
	paneSwitch pane = iota
	paneActions
	panePorts
	paneCount
)

func (p pane) String() string {
	switch p {
	case paneActions:
		return "Actions"
	case panePorts:
		return "Ports"
	default:
		return "Switch"
	}
}

// Options configures the UI.
type Options struct {
	Context     context.Context
	Session     *editor.Session
	Config      *config.Config
	Logger      *slog.Logger
	Prefs       prefs.Prefs
	PrefsPath   string
	RefreshTick time.Duration
}

// Model is the root application state for Bubble Tea.
type Model struct {
	// Configuration
	ctx       context.Context
	session   *editor.Session
	config    *config.Config
	logger    *slog.Logger
	prefs     prefs.Prefs
	prefsPath string
	tick      time.Duration

	// UI state
	keys    keyMap
	help    help.Model
	spinner spinner.Model
	theme   Theme
	width   int
	height  int
	ready   bool

	// Data state
	snapshot state.Snapshot
	status   editor.Status
	savedAt  map[autosave.Key]time.Time
	loading  bool
	busy     bool
	loadErr  error

	// Cursor
	pane pane
	list editor.List
	row  int
	col  int
	port int
	side editor.Side

	// Overlays
	field    *fieldEditor
	modal    Modal
	showHelp bool
	showLogs bool
	logState logState
}

// New creates a new Bubble Tea model.
func New(opts Options) Model {
	ctx := opts.Context
	if ctx == nil {
		ctx = context.Background()
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	tick := opts.RefreshTick
	if tick <= 0 {
		tick = DefaultUIInterval
	}
	prefsPath := opts.PrefsPath
	if prefsPath == "" {
		prefsPath = prefs.DefaultPath()
	}

	sp := spinner.New()
	sp.Spinner = spinner.MiniDot

	return Model{
		ctx:       ctx,
		session:   opts.Session,
		config:    opts.Config,
		logger:    logger,
		prefs:     opts.Prefs,
		prefsPath: prefsPath,
		tick:      tick,
		keys:      DefaultKeyMap(),
		help:      help.New(),
		spinner:   sp,
		theme:     GetTheme(opts.Prefs.Theme),
		savedAt:   make(map[autosave.Key]time.Time),
		loading:   true,
		logState:  newLogState(),
	}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		m.loadCmd(),
		waitEventCmd(m.session.Events()),
		tickCmd(m.tick),
		m.spinner.Tick,
	)
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		m.ready = true
		m.updateLogViewport()
		return m, nil

	case tickMsg:
		m.refresh()
		cmds := []tea.Cmd{tickCmd(m.tick)}
		if m.showLogs && m.logState.follow {
			cmds = append(cmds, m.refreshLogs())
		}
		return m, tea.Batch(cmds...)

	case eventMsg:
		ev := autosave.Event(msg)
		m.session.HandleEvent(ev)
		if ev.Kind == autosave.EventSaved {
			m.savedAt[ev.Key] = ev.At
		}
		m.refresh()
		return m, waitEventCmd(m.session.Events())

	case opDoneMsg:
		m.busy = false
		if msg.op == opLoad {
			m.loading = false
			m.loadErr = msg.err
		}
		if msg.err != nil {
			m.logger.Debug("editor operation failed", "op", msg.op, "error", msg.err)
		}
		m.refresh()
		return m, nil

	case logsMsg:
		m.handleLogs(msg)
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	return m, nil
}

// View implements tea.Model.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	if m.showHelp {
		return m.renderHelp()
	}
	if m.modal != nil {
		return m.modal.View(m.theme, m.width, m.height)
	}
	if m.showLogs {
		return m.renderLogs()
	}
	return m.renderMain()
}

// refresh copies the session's state into the model and keeps the cursor in
// range.
func (m *Model) refresh() {
	m.snapshot = m.session.Snapshot()
	m.status = m.session.Status()
	if m.port >= len(m.snapshot.ExpFS) {
		m.port = 0
	}
	if !m.longAvailable() {
		m.list = editor.ListShort
	}
	if n := len(m.activeActions()); m.row >= n {
		m.row = max(n-1, 0)
	}
}

// Messages

type tickMsg time.Time

type eventMsg autosave.Event

type opKind string

const (
	opLoad      opKind = "load"
	opNavigate  opKind = "navigate"
	opBank      opKind = "bank"
	opCalibrate opKind = "calibrate"
)

type opDoneMsg struct {
	op  opKind
	err error
}

// Commands

func tickCmd(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// waitEventCmd delivers the next coordinator event. It returns nil once the
// session is closed.
func waitEventCmd(events <-chan autosave.Event) tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-events
		if !ok {
			return nil
		}
		return eventMsg(ev)
	}
}

func (m Model) loadCmd() tea.Cmd {
	session, ctx, btn := m.session, m.ctx, m.prefs.LastButton
	return func() tea.Msg {
		return opDoneMsg{op: opLoad, err: session.Load(ctx, btn)}
	}
}

// run executes a blocking session call off the UI loop.
func (m *Model) run(op opKind, fn func(ctx context.Context) error) tea.Cmd {
	m.busy = true
	return runOp(m.ctx, op, fn)
}

// runOp is run for callbacks that outlive the model copy that built them.
// The caller marks the model busy.
func runOp(ctx context.Context, op opKind, fn func(ctx context.Context) error) tea.Cmd {
	return func() tea.Msg {
		return opDoneMsg{op: op, err: fn(ctx)}
	}
}

// savePrefs records the theme and selection for the next start.
func (m Model) savePrefs() error {
	p := m.prefs
	p.Theme = m.theme.Name
	if m.snapshot.Loaded {
		p.LastBank = m.snapshot.Selection.Bank
		p.LastButton = m.snapshot.Selection.Btn
	}
	return prefs.Save(m.prefsPath, p)
}

// Run starts the Bubble Tea program and blocks until the user quits.
func Run(opts Options) error {
	m := New(opts)
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(m.ctx))
	final, err := p.Run()
	if m, ok := final.(Model); ok {
		if perr := m.savePrefs(); perr != nil {
			m.logger.Warn("save preferences failed", "error", perr)
		}
	}
	return err
}
