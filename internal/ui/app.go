package ui

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/charmbracelet/bubbles/cursor"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/five82/sommelier/internal/api"
	"github.com/five82/sommelier/internal/config"
	"github.com/five82/sommelier/internal/draft"
	"github.com/five82/sommelier/internal/gate"
	"github.com/five82/sommelier/internal/pagella"
	"github.com/five82/sommelier/internal/prefs"
	"github.com/five82/sommelier/internal/schedule"
	"github.com/five82/sommelier/internal/session"
	"github.com/five82/sommelier/internal/state"
)

// Screen represents the current active screen.
type Screen int

const (
	ScreenLogin Screen = iota
	ScreenEvents
	ScreenPagella
)

// Client is the API surface the UI drives.
type Client interface {
	session.Client
	pagella.Client
}

// Options configures the UI.
type Options struct {
	Context context.Context
	Client  Client
	Store   *state.Store
	// Refresh asks the directory poller for an early refresh. Optional.
	Refresh   func()
	Config    *config.Config
	Prefs     prefs.Prefs
	PrefsPath string
	Drafts    draft.Store
	Verifier  gate.Verifier
	Logger    *slog.Logger
	// Tick replaces tea.Tick for the session and pagella timers.
	Tick   schedule.TickFunc
	UITick time.Duration
}

type noticeLevel int

const (
	noticeInfo noticeLevel = iota
	noticeWarning
	noticeDanger
)

type notice struct {
	level noticeLevel
	text  string
	at    time.Time
}

// Model is the root application state for Bubble Tea.
type Model struct {
	// Configuration
	ctx       context.Context
	client    Client
	store     *state.Store
	refresh   func()
	config    config.Config
	prefs     *prefs.Prefs
	prefsPath string
	drafts    draft.Store
	logger    *slog.Logger
	tick      schedule.TickFunc
	uiTick    time.Duration

	// UI state
	theme    Theme
	keys     keyMap
	screen   Screen
	width    int
	height   int
	ready    bool
	showHelp bool
	notice   notice

	// Data state
	snapshot     state.Snapshot
	lastRevision uint64
	userIdx      int
	eventIdx     int

	// Subsystems
	session *session.Model
	gate    *gate.Gate
	engine  *pagella.Engine

	// Pagella screen
	event    api.Event
	editor   textarea.Model
	viewer   viewport.Model
	shownRev int
}

// New creates a new Bubble Tea model.
func New(opts Options) Model {
	ctx := opts.Context
	if ctx == nil {
		ctx = context.Background()
	}

	uiTick := opts.UITick
	if uiTick <= 0 {
		uiTick = DefaultUIInterval
	}

	cfg := config.Default()
	if opts.Config != nil {
		cfg = *opts.Config
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	drafts := opts.Drafts
	if drafts == nil {
		drafts = draft.NewMemoryStore()
	}

	store := opts.Store
	if store == nil {
		store = &state.Store{}
	}

	refresh := opts.Refresh
	if refresh == nil {
		refresh = func() {}
	}

	userPrefs := opts.Prefs
	p := &userPrefs

	editor := textarea.New()
	editor.ShowLineNumbers = false
	editor.Placeholder = "Tasting notes..."
	editor.CharLimit = 0
	editor.MaxHeight = 0
	editor.Cursor.SetMode(cursor.CursorStatic)

	return Model{
		ctx:       ctx,
		client:    opts.Client,
		store:     store,
		refresh:   refresh,
		config:    cfg,
		prefs:     p,
		prefsPath: opts.PrefsPath,
		drafts:    drafts,
		logger:    logger,
		tick:      opts.Tick,
		uiTick:    uiTick,
		theme:     GetTheme(p.Theme),
		keys:      DefaultKeyMap(),
		screen:    ScreenLogin,
		session: session.New(session.Options{
			Context:        ctx,
			Client:         opts.Client,
			Unique:         func() bool { return p.UniqueSession },
			HeartbeatEvery: cfg.HeartbeatInterval,
			Tick:           opts.Tick,
			Logger:         logger.With("component", "session"),
		}),
		gate:     gate.New(opts.Verifier),
		editor:   editor,
		viewer:   viewport.New(0, 0),
		shownRev: -1,
	}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		tickCmd(m.uiTick),
		fetchSnapshotCmd(m.store),
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
		m.ready = true
		m.resize()
		return m, nil

	case tickMsg:
		return m.handleTick(time.Time(msg))

	case snapshotMsg:
		return m.handleSnapshot(state.Snapshot(msg))

	case session.LoggedInMsg:
		return m.handleLoggedIn(msg)

	case session.LoggedOutMsg:
		return m.handleLoggedOut(msg)

	case session.NoticeMsg:
		m.setNotice(noticeFromSession(msg.Kind), msg.Text)
		return m, nil

	case gate.ConfirmedMsg:
		m.logger.Info("admin action confirmed", "action", msg.Name)
		return m, nil

	case gate.CancelledMsg:
		return m, nil

	case disconnectResultMsg:
		if msg.err != nil {
			m.logger.Warn("force disconnect failed", "user_id", msg.user.ID, "error", msg.err)
			m.setNotice(noticeDanger, "Could not disconnect "+msg.user.Name+".")
		} else {
			m.logger.Info("force disconnect", "user_id", msg.user.ID)
			m.setNotice(noticeInfo, "All sessions of "+msg.user.Name+" were disconnected.")
		}
		return m, nil

	case toggleUniqueMsg:
		m.prefs.UniqueSession = !m.prefs.UniqueSession
		m.savePrefs()
		m.setNotice(noticeInfo, "Single-session login "+ternary(m.prefs.UniqueSession, "enabled.", "disabled."))
		return m, nil

	case discardDraftMsg:
		if m.engine == nil || m.engine.EventID() != msg.eventID {
			return m, nil
		}
		if err := m.engine.DiscardDraft(); err != nil {
			m.setNotice(noticeDanger, "Could not discard the local draft.")
		} else {
			m.setNotice(noticeInfo, "Local draft discarded.")
		}
		return m, nil
	}

	// Timer ticks, network results, and cursor messages for the sub-models.
	cmds := []tea.Cmd{m.session.Update(msg)}
	if m.engine != nil {
		cmds = append(cmds, m.engine.Update(msg))
		m.syncPagella()
	}
	if m.gate.Open() {
		cmds = append(cmds, m.gate.Update(msg))
	}
	return m, tea.Batch(cmds...)
}

// View implements tea.Model.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	if m.gate.Open() {
		return m.renderPinPrompt()
	}
	if m.showHelp {
		return m.renderHelp()
	}
	return m.renderMain()
}

// Screen returns the active screen.
func (m Model) Screen() Screen { return m.screen }

// handleKey processes keyboard input.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.Quit) {
		return m.quit()
	}

	// The PIN prompt captures every key while open.
	if m.gate.Open() {
		return m, m.gate.Update(msg)
	}

	if m.showHelp {
		m.showHelp = false
		return m, nil
	}

	if key.Matches(msg, m.keys.Logout) && m.session.State() != session.LoggedOut {
		return m, m.session.Logout()
	}

	if m.screen != ScreenPagella {
		switch {
		case key.Matches(msg, m.keys.Help):
			m.showHelp = true
			return m, nil
		case key.Matches(msg, m.keys.CycleTheme):
			m.theme = GetTheme(NextTheme(m.theme.Name))
			m.prefs.Theme = m.theme.Name
			m.savePrefs()
			return m, nil
		}
	}

	switch m.screen {
	case ScreenLogin:
		return m.handleLoginKey(msg)
	case ScreenEvents:
		return m.handleEventsKey(msg)
	case ScreenPagella:
		return m.handlePagellaKey(msg)
	}
	return m, nil
}

func (m Model) handleLoginKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	users := m.snapshot.Users
	m.userIdx = moveCursor(m.keys, msg, m.userIdx, len(users))
	if len(users) == 0 {
		return m, nil
	}
	user := users[clamp(m.userIdx, len(users))]

	switch {
	case key.Matches(msg, m.keys.Select):
		return m, m.session.Login(user)

	case key.Matches(msg, m.keys.Disconnect):
		return m, m.gate.Require("Disconnect "+user.Name, func() tea.Cmd {
			return m.disconnectCmd(user)
		})

	case key.Matches(msg, m.keys.ToggleUnique):
		return m, m.gate.Require("Toggle single-session login", func() tea.Cmd {
			return msgCmd(toggleUniqueMsg{})
		})
	}
	return m, nil
}

func (m Model) handleEventsKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	events := m.snapshot.Events
	m.eventIdx = moveCursor(m.keys, msg, m.eventIdx, len(events))
	if key.Matches(msg, m.keys.Select) && len(events) > 0 {
		return m.openPagella(events[clamp(m.eventIdx, len(events))])
	}
	return m, nil
}

func (m Model) handlePagellaKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Back):
		m.closePagella()
		m.screen = ScreenEvents
		return m, nil

	case key.Matches(msg, m.keys.Refresh):
		return m, m.engine.Refresh()

	case key.Matches(msg, m.keys.EditorHelp):
		m.showHelp = true
		return m, nil

	case key.Matches(msg, m.keys.DiscardDraft):
		eventID := m.engine.EventID()
		return m, m.gate.Require("Discard local draft", func() tea.Cmd {
			return msgCmd(discardDraftMsg{eventID: eventID})
		})
	}

	if !m.engine.Editable() {
		var cmd tea.Cmd
		m.viewer, cmd = m.viewer.Update(msg)
		return m, cmd
	}

	// Keys typed before the server copy arrives would be overwritten by it.
	if !m.engine.Loaded() {
		return m, nil
	}

	before := m.editor.Value()
	var cmd tea.Cmd
	m.editor, cmd = m.editor.Update(msg)
	if after := m.editor.Value(); after != before {
		return m, tea.Batch(cmd, m.engine.ContentChanged(after))
	}
	return m, cmd
}

func moveCursor(keys keyMap, msg tea.KeyMsg, idx, n int) int {
	switch {
	case key.Matches(msg, keys.Down):
		idx++
	case key.Matches(msg, keys.Up):
		idx--
	case key.Matches(msg, keys.Top):
		idx = 0
	case key.Matches(msg, keys.Bottom):
		idx = n - 1
	}
	return clamp(idx, n)
}

func (m Model) quit() (tea.Model, tea.Cmd) {
	m.closePagella()
	if m.session.State() == session.LoggedIn {
		return m, tea.Sequence(m.session.Logout(), tea.Quit)
	}
	return m, tea.Quit
}

func (m Model) handleTick(now time.Time) (tea.Model, tea.Cmd) {
	if m.notice.text != "" && now.Sub(m.notice.at) > NoticeLifetime {
		m.notice = notice{}
	}
	return m, tea.Batch(fetchSnapshotCmd(m.store), tickCmd(m.uiTick))
}

// handleSnapshot adopts a new directory snapshot. Each successful refresh is
// checked once against the session user.
func (m Model) handleSnapshot(snap state.Snapshot) (tea.Model, tea.Cmd) {
	m.snapshot = snap
	m.userIdx = clamp(m.userIdx, len(snap.Users))
	m.eventIdx = clamp(m.eventIdx, len(snap.Events))
	if snap.Revision == 0 || snap.Revision == m.lastRevision {
		return m, nil
	}
	m.lastRevision = snap.Revision
	return m, m.session.Revalidate(snap.Users)
}

func (m Model) handleLoggedIn(msg session.LoggedInMsg) (tea.Model, tea.Cmd) {
	m.notice = notice{}
	m.screen = ScreenEvents
	m.store.InvalidateWines()
	m.refresh()
	for i, ev := range m.snapshot.Events {
		if ev.ID == m.config.EventID {
			m.eventIdx = i
		}
	}
	m.logger.Info("signed in", "user_id", msg.Session.UserID, "user", msg.Session.User.Name)
	return m, m.session.StartHeartbeat()
}

func (m Model) handleLoggedOut(msg session.LoggedOutMsg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	if m.gate.Open() {
		cmd = m.gate.Cancel()
	}
	m.gate.ClearAdmin()
	m.closePagella()
	m.screen = ScreenLogin
	m.logger.Info("signed out", "user_id", msg.UserID, "reason", msg.Reason.String())
	return m, cmd
}

func (m Model) openPagella(ev api.Event) (tea.Model, tea.Cmd) {
	sess, ok := m.session.Session()
	if !ok {
		return m, nil
	}
	m.store.SetActiveEvent(ev.ID)
	m.refresh()

	canEdit := pagella.CanEdit(sess.User.Name, m.config.Editors)
	m.engine = pagella.New(pagella.Options{
		Context:   m.ctx,
		Client:    m.client,
		Drafts:    m.drafts,
		EventID:   ev.ID,
		UserID:    sess.UserID,
		CanEdit:   canEdit,
		PollEvery: m.config.PollInterval,
		Tick:      m.tick,
		Logger:    m.logger.With("component", "pagella"),
	})
	m.event = ev
	m.screen = ScreenPagella
	m.shownRev = -1
	m.editor.Reset()
	m.viewer.SetContent("")
	m.viewer.GotoTop()

	cmds := []tea.Cmd{m.engine.Init()}
	if canEdit {
		cmds = append(cmds, m.editor.Focus())
	} else {
		m.editor.Blur()
	}
	m.syncPagella()
	m.resize()
	return m, tea.Batch(cmds...)
}

func (m *Model) closePagella() {
	if m.engine == nil {
		return
	}
	m.engine.Stop()
	m.engine = nil
	m.editor.Blur()
}

// syncPagella mirrors engine content into the widgets. The editor is only
// overwritten when the engine replaced its content, never on local edits.
func (m *Model) syncPagella() {
	if m.engine == nil {
		return
	}
	if rev := m.engine.Revision(); rev != m.shownRev {
		m.shownRev = rev
		if m.engine.Editable() {
			m.editor.SetValue(m.engine.Content())
		}
	}
	if !m.engine.Editable() {
		m.viewer.SetContent(m.engine.Content())
	}
}

func (m *Model) resize() {
	contentHeight := max(m.height-3, 3)
	bodyHeight := max(contentHeight-2, 1)
	bodyWidth := max(m.width-2, 10)
	if m.width >= LayoutSidebarWidth {
		bodyWidth = m.width - SidebarWidth - 3
	} else {
		bodyHeight = max(bodyHeight-1, 1)
	}
	m.editor.SetWidth(bodyWidth)
	m.editor.SetHeight(bodyHeight)
	m.viewer.Width = bodyWidth
	m.viewer.Height = bodyHeight
}

func (m *Model) setNotice(level noticeLevel, text string) {
	m.notice = notice{level: level, text: text, at: time.Now()}
}

func (m Model) savePrefs() {
	if m.prefsPath == "" {
		return
	}
	if err := prefs.Save(m.prefsPath, *m.prefs); err != nil {
		m.logger.Warn("could not save preferences", "path", m.prefsPath, "error", err)
	}
}

func (m Model) disconnectCmd(user api.User) tea.Cmd {
	client, ctx := m.client, m.ctx
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(ctx, DisconnectTimeout)
		defer cancel()
		err := client.Logout(ctx, user.ID, "")
		return disconnectResultMsg{user: user, err: err}
	}
}

func noticeFromSession(kind session.NoticeKind) noticeLevel {
	switch kind {
	case session.NoticeConflict, session.NoticeWarning:
		return noticeWarning
	default:
		return noticeDanger
	}
}

// Messages

type tickMsg time.Time

type snapshotMsg state.Snapshot

type disconnectResultMsg struct {
	user api.User
	err  error
}

type toggleUniqueMsg struct{}

type discardDraftMsg struct{ eventID int64 }

// Commands

func tickCmd(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func fetchSnapshotCmd(store *state.Store) tea.Cmd {
	return func() tea.Msg {
		return snapshotMsg(store.Snapshot())
	}
}

func msgCmd(msg tea.Msg) tea.Cmd {
	return func() tea.Msg { return msg }
}

// Run starts the Bubble Tea program.
func Run(opts Options) error {
	ctx := opts.Context
	if ctx == nil {
		ctx = context.Background()
	}
	m := New(opts)
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}
