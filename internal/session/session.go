package session

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/golang-jwt/jwt/v5"

	"github.com/five82/sommelier/internal/api"
	"github.com/five82/sommelier/internal/schedule"
)

// DefaultHeartbeat is the interval between liveness pings.
const DefaultHeartbeat = 60 * time.Second

// State is the login state of the client.
type State int

const (
	LoggedOut State = iota
	LoggingIn
	LoggedIn
)

func (s State) String() string {
	switch s {
	case LoggedOut:
		return "logged out"
	case LoggingIn:
		return "logging in"
	case LoggedIn:
		return "logged in"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Client is the part of the API the session needs.
type Client interface {
	Login(ctx context.Context, userID int64, unique bool) (api.LoginResponse, error)
	Logout(ctx context.Context, userID int64, sessionID string) error
	Heartbeat(ctx context.Context, userID int64, sessionID string) error
}

// Session is the identity held while logged in.
type Session struct {
	UserID   int64
	User     api.User
	Token    string
	IssuedAt time.Time
}

// Reason explains why a session ended.
type Reason int

const (
	ReasonLogout Reason = iota
	ReasonRejected
	ReasonUserGone
)

func (r Reason) String() string {
	switch r {
	case ReasonLogout:
		return "logout"
	case ReasonRejected:
		return "rejected"
	case ReasonUserGone:
		return "user gone"
	default:
		return fmt.Sprintf("Reason(%d)", int(r))
	}
}

// NoticeKind classifies a user-facing message.
type NoticeKind int

const (
	// NoticeConflict means the user is signed in on another device.
	NoticeConflict NoticeKind = iota
	// NoticeError is a generic, retryable failure.
	NoticeError
	// NoticeWarning reports a session the client had to end.
	NoticeWarning
)

// LoggedInMsg is emitted once a login succeeds.
type LoggedInMsg struct {
	Session Session
}

// LoggedOutMsg is emitted whenever the session ends, for any reason.
type LoggedOutMsg struct {
	UserID int64
	Reason Reason
}

// NoticeMsg carries a message for the user.
type NoticeMsg struct {
	Kind NoticeKind
	Text string
}

type loginResultMsg struct {
	gen  int
	user api.User
	resp api.LoginResponse
	err  error
}

type heartbeatResultMsg struct {
	gen int
	err error
}

// Options configure a Model.
type Options struct {
	Context context.Context
	Client  Client
	// Unique reports the single-session preference. It is read once per login.
	Unique         func() bool
	HeartbeatEvery time.Duration
	Tick           schedule.TickFunc
	Now            func() time.Time
	Logger         *slog.Logger
}

// Model owns the login state machine and the heartbeat loop. All mutation
// happens on the Bubble Tea goroutine.
type Model struct {
	ctx    context.Context
	client Client
	unique func() bool
	now    func() time.Time
	logger *slog.Logger

	state     State
	session   Session
	gen       int
	heartbeat schedule.Loop
}

// New returns a logged-out model.
func New(opts Options) *Model {
	every := opts.HeartbeatEvery
	if every <= 0 {
		every = DefaultHeartbeat
	}
	m := &Model{
		ctx:       opts.Context,
		client:    opts.Client,
		unique:    opts.Unique,
		now:       opts.Now,
		logger:    opts.Logger,
		heartbeat: schedule.NewLoop(every, opts.Tick),
	}
	if m.ctx == nil {
		m.ctx = context.Background()
	}
	if m.unique == nil {
		m.unique = func() bool { return false }
	}
	if m.now == nil {
		m.now = time.Now
	}
	if m.logger == nil {
		m.logger = slog.New(slog.DiscardHandler)
	}
	return m
}

// State returns the current login state.
func (m *Model) State() State { return m.state }

// Session returns the active session, if any.
func (m *Model) Session() (Session, bool) {
	if m.state != LoggedIn {
		return Session{}, false
	}
	return m.session, true
}

// HeartbeatActive reports whether the heartbeat loop is running.
func (m *Model) HeartbeatActive() bool { return m.heartbeat.Active() }

// Login starts a login for user. It is ignored unless logged out.
func (m *Model) Login(user api.User) tea.Cmd {
	if m.state != LoggedOut {
		return nil
	}
	m.state = LoggingIn
	m.gen++
	gen := m.gen
	unique := m.unique()
	client, ctx := m.client, m.ctx
	m.logger.Info("login requested", "user_id", user.ID, "unique", unique)

	return func() tea.Msg {
		resp, err := client.Login(ctx, user.ID, unique)
		return loginResultMsg{gen: gen, user: user, resp: resp, err: err}
	}
}

// Logout ends the session locally and notifies the server best-effort.
func (m *Model) Logout() tea.Cmd {
	switch m.state {
	case LoggedOut:
		return nil
	case LoggingIn:
		// The pending result carries the old generation and will be dropped.
		m.gen++
		m.state = LoggedOut
		return nil
	}

	prev := m.session
	m.end()
	m.logger.Info("logged out", "user_id", prev.UserID)

	return tea.Batch(
		m.serverLogout(prev),
		emit(LoggedOutMsg{UserID: prev.UserID, Reason: ReasonLogout}),
	)
}

// StartHeartbeat arms the heartbeat loop. Calls while the loop is running,
// or while logged out, schedule nothing.
func (m *Model) StartHeartbeat() tea.Cmd {
	if m.state != LoggedIn {
		return nil
	}
	return m.heartbeat.Start()
}

// Revalidate ends the session when its user is missing from users, the
// authoritative list from a successful directory refresh.
func (m *Model) Revalidate(users []api.User) tea.Cmd {
	if m.state != LoggedIn {
		return nil
	}
	for _, u := range users {
		if u.ID == m.session.UserID {
			return nil
		}
	}
	m.logger.Warn("session user no longer exists", "user_id", m.session.UserID)
	return m.forceLogout(ReasonUserGone, "Your user no longer exists. You have been signed out.")
}

// Update handles login results and heartbeat ticks.
func (m *Model) Update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case loginResultMsg:
		return m.handleLogin(msg)
	case schedule.LoopMsg:
		ok, next := m.heartbeat.Fired(msg)
		if !ok {
			return nil
		}
		return tea.Batch(next, m.sendHeartbeat())
	case heartbeatResultMsg:
		return m.handleHeartbeat(msg)
	}
	return nil
}

func (m *Model) handleLogin(msg loginResultMsg) tea.Cmd {
	if msg.gen != m.gen || m.state != LoggingIn {
		return nil
	}
	if msg.err != nil {
		m.state = LoggedOut
		if api.IsStatus(msg.err, http.StatusConflict) {
			m.logger.Warn("login refused, session active elsewhere", "user_id", msg.user.ID)
			name := msg.user.Name
			if name == "" {
				name = "This user"
			}
			return emit(NoticeMsg{
				Kind: NoticeConflict,
				Text: fmt.Sprintf("%s is already signed in on another device. Disconnect it (admin PIN) and try again.", name),
			})
		}
		m.logger.Warn("login failed", "user_id", msg.user.ID, "error", msg.err)
		return emit(NoticeMsg{Kind: NoticeError, Text: "Login failed. Please try again."})
	}

	user := msg.resp.User
	if user.ID == 0 {
		user.ID = msg.user.ID
	}
	if user.Name == "" {
		user.Name = msg.user.Name
	}
	m.session = Session{
		UserID:   user.ID,
		User:     user,
		Token:    msg.resp.SessionID,
		IssuedAt: issuedAt(msg.resp.SessionID, m.now),
	}
	m.state = LoggedIn
	m.logger.Info("logged in", "user_id", user.ID, "issued_at", m.session.IssuedAt)

	return tea.Batch(m.StartHeartbeat(), emit(LoggedInMsg{Session: m.session}))
}

func (m *Model) sendHeartbeat() tea.Cmd {
	gen := m.gen
	s := m.session
	client, ctx := m.client, m.ctx
	return func() tea.Msg {
		return heartbeatResultMsg{gen: gen, err: client.Heartbeat(ctx, s.UserID, s.Token)}
	}
}

func (m *Model) handleHeartbeat(msg heartbeatResultMsg) tea.Cmd {
	if msg.gen != m.gen || m.state != LoggedIn {
		return nil
	}
	switch {
	case msg.err == nil:
		m.logger.Debug("heartbeat ok", "user_id", m.session.UserID)
		return nil
	case api.IsRejection(msg.err):
		m.logger.Warn("heartbeat rejected", "user_id", m.session.UserID, "error", msg.err)
		return m.forceLogout(ReasonRejected, "Your session ended on the server. Please sign in again.")
	default:
		m.logger.Debug("heartbeat transport failure", "user_id", m.session.UserID, "error", msg.err)
		return nil
	}
}

func (m *Model) forceLogout(reason Reason, text string) tea.Cmd {
	userID := m.session.UserID
	m.end()
	return tea.Batch(
		emit(LoggedOutMsg{UserID: userID, Reason: reason}),
		emit(NoticeMsg{Kind: NoticeWarning, Text: text}),
	)
}

func (m *Model) end() {
	m.heartbeat.Stop()
	m.session = Session{}
	m.state = LoggedOut
	m.gen++
}

func (m *Model) serverLogout(s Session) tea.Cmd {
	client, ctx, logger := m.client, m.ctx, m.logger
	return func() tea.Msg {
		if err := client.Logout(ctx, s.UserID, s.Token); err != nil {
			logger.Debug("server logout failed", "user_id", s.UserID, "error", err)
		}
		return nil
	}
}

func emit(msg tea.Msg) tea.Cmd {
	return func() tea.Msg { return msg }
}

// issuedAt reads the iat claim of a JWT session token without verifying it;
// the server owns validity. Opaque tokens fall back to the local clock.
func issuedAt(token string, now func() time.Time) time.Time {
	var claims jwt.RegisteredClaims
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err == nil && claims.IssuedAt != nil {
		return claims.IssuedAt.Time
	}
	return now()
}
