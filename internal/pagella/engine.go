package pagella

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/five82/sommelier/internal/api"
	"github.com/five82/sommelier/internal/draft"
	"github.com/five82/sommelier/internal/schedule"
)

// Default timings.
const (
	DefaultPoll     = 10 * time.Second
	AutosaveDelay   = 600 * time.Millisecond
	TypingWindow    = time.Second
	SavedResetDelay = 2 * time.Second
	ErrorResetDelay = 3 * time.Second
)

// Status is the autosave badge state.
type Status int

const (
	StatusIdle Status = iota
	StatusSaving
	StatusSaved
	StatusError
)

func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusSaving:
		return "saving"
	case StatusSaved:
		return "saved"
	case StatusError:
		return "error"
	default:
		return fmt.Sprintf("Status(%d)", int(s))
	}
}

// Client is the part of the API the engine needs.
type Client interface {
	FetchPagella(ctx context.Context, eventID int64) (api.Pagella, error)
	SavePagella(ctx context.Context, eventID int64, content string, userID int64) (time.Time, error)
}

// CanEdit reports whether displayName is on the editors allow-list. The
// comparison ignores case and surrounding space.
func CanEdit(displayName string, editors []string) bool {
	name := strings.TrimSpace(displayName)
	if name == "" {
		return false
	}
	for _, e := range editors {
		if strings.EqualFold(name, strings.TrimSpace(e)) {
			return true
		}
	}
	return false
}

type loadResultMsg struct {
	engine  int
	initial bool
	page    api.Pagella
	err     error
}

type saveResultMsg struct {
	engine  int
	content string
	at      time.Time
	err     error
}

// Options configure an Engine. Zero durations use the defaults above.
type Options struct {
	Context context.Context
	Client  Client
	Drafts  draft.Store
	EventID int64
	UserID  int64
	CanEdit bool

	PollEvery time.Duration
	Tick      schedule.TickFunc
	Logger    *slog.Logger
}

// Engine synchronizes one event's pagella with the server. It is a Bubble
// Tea sub-model; every field is touched only from Update and the methods
// the parent calls on the same goroutine.
type Engine struct {
	ctx     context.Context
	client  Client
	drafts  draft.Store
	logger  *slog.Logger
	eventID int64
	userID  int64
	canEdit bool

	content   string
	revision  int
	known     time.Time
	typing    bool
	status    Status
	loaded    bool
	stopped   bool
	fromDraft bool
	lastSaved time.Time

	poll       schedule.Loop
	autosave   schedule.Debounce
	typingDone schedule.Debounce
	savedReset schedule.Debounce
	errorReset schedule.Debounce
}

// New returns an engine that has not loaded anything yet; run Init to start.
func New(opts Options) *Engine {
	every := opts.PollEvery
	if every <= 0 {
		every = DefaultPoll
	}
	e := &Engine{
		ctx:        opts.Context,
		client:     opts.Client,
		drafts:     opts.Drafts,
		logger:     opts.Logger,
		eventID:    opts.EventID,
		userID:     opts.UserID,
		canEdit:    opts.CanEdit,
		poll:       schedule.NewLoop(every, opts.Tick),
		autosave:   schedule.NewDebounce(AutosaveDelay, opts.Tick),
		typingDone: schedule.NewDebounce(TypingWindow, opts.Tick),
		savedReset: schedule.NewDebounce(SavedResetDelay, opts.Tick),
		errorReset: schedule.NewDebounce(ErrorResetDelay, opts.Tick),
	}
	if e.ctx == nil {
		e.ctx = context.Background()
	}
	if e.drafts == nil {
		e.drafts = draft.NewMemoryStore()
	}
	if e.logger == nil {
		e.logger = slog.New(slog.DiscardHandler)
	}
	e.logger = e.logger.With("event_id", e.eventID)
	return e
}

// Init performs the initial load. Polling starts once it completes.
func (e *Engine) Init() tea.Cmd {
	return e.Load(true)
}

// Load fetches the server copy. Initial loads fall back to the local draft;
// later loads follow the poll rule.
func (e *Engine) Load(initial bool) tea.Cmd {
	if e.stopped {
		return nil
	}
	id, eventID := e.poll.ID(), e.eventID
	client, ctx := e.client, e.ctx
	return func() tea.Msg {
		page, err := client.FetchPagella(ctx, eventID)
		return loadResultMsg{engine: id, initial: initial, page: page, err: err}
	}
}

// Refresh polls immediately, outside the regular interval.
func (e *Engine) Refresh() tea.Cmd {
	if !e.loaded {
		return nil
	}
	return e.Load(false)
}

// ContentChanged records a local edit: the draft is written at once, the
// typing window restarts, and editors re-arm the autosave. Edits before the
// initial load completes are dropped.
func (e *Engine) ContentChanged(text string) tea.Cmd {
	if e.stopped || !e.loaded {
		return nil
	}
	e.content = text
	e.fromDraft = false
	if err := e.drafts.Save(e.eventID, text); err != nil {
		e.logger.Debug("draft save failed", "error", err)
	}
	e.typing = true
	cmds := []tea.Cmd{e.typingDone.Arm()}
	if e.canEdit {
		cmds = append(cmds, e.autosave.Arm())
	}
	return tea.Batch(cmds...)
}

// DiscardDraft clears this event's local draft slot.
func (e *Engine) DiscardDraft() error {
	if err := e.drafts.Clear(e.eventID); err != nil {
		return fmt.Errorf("clear draft: %w", err)
	}
	e.logger.Info("local draft discarded")
	return nil
}

// Stop cancels every timer. Results still in flight are dropped on arrival.
func (e *Engine) Stop() {
	e.stopped = true
	e.typing = false
	e.poll.Stop()
	e.autosave.Cancel()
	e.typingDone.Cancel()
	e.savedReset.Cancel()
	e.errorReset.Cancel()
}

// Update handles timer ticks and network results addressed to this engine.
func (e *Engine) Update(msg tea.Msg) tea.Cmd {
	if e.stopped {
		return nil
	}
	switch msg := msg.(type) {
	case schedule.LoopMsg:
		if ok, next := e.poll.Fired(msg); ok {
			return tea.Batch(next, e.Load(false))
		}
	case schedule.DebounceMsg:
		switch {
		case e.typingDone.Fired(msg):
			e.typing = false
		case e.autosave.Fired(msg):
			return e.save()
		case e.savedReset.Fired(msg), e.errorReset.Fired(msg):
			e.status = StatusIdle
		}
	case loadResultMsg:
		if msg.engine == e.poll.ID() {
			return e.handleLoad(msg)
		}
	case saveResultMsg:
		if msg.engine == e.poll.ID() {
			return e.handleSave(msg)
		}
	}
	return nil
}

func (e *Engine) handleLoad(msg loadResultMsg) tea.Cmd {
	if !msg.initial {
		e.applyPoll(msg.page, msg.err)
		return nil
	}
	if e.loaded {
		return nil
	}
	e.loaded = true

	switch {
	case msg.err != nil:
		e.logger.Debug("initial load failed, using draft", "error", msg.err)
		e.useDraft()
	case msg.page.Content != "":
		e.replace(msg.page.Content)
		if at := msg.page.ParsedUpdatedAt(); at.After(e.known) {
			e.known = at
		}
	default:
		e.useDraft()
	}
	return e.poll.Start()
}

// applyPoll accepts fetched content only when it is strictly newer than the
// known server timestamp and the user is not typing. Without a known
// timestamp any non-empty server copy is accepted, so a draft shown after an
// empty or failed initial load gives way to the first real server content.
func (e *Engine) applyPoll(page api.Pagella, err error) {
	if err != nil {
		e.logger.Debug("poll failed", "error", err)
		return
	}
	if e.typing {
		return
	}
	fetched := page.ParsedUpdatedAt()
	if fetched.IsZero() {
		return
	}
	if e.known.IsZero() {
		if page.Content == "" {
			return
		}
	} else if !fetched.After(e.known) {
		return
	}
	e.replace(page.Content)
	e.known = fetched
	e.logger.Debug("applied server update", "updated_at", fetched)
}

func (e *Engine) save() tea.Cmd {
	e.status = StatusSaving
	e.savedReset.Cancel()
	e.errorReset.Cancel()
	id, eventID, userID, content := e.poll.ID(), e.eventID, e.userID, e.content
	client, ctx := e.client, e.ctx
	return func() tea.Msg {
		at, err := client.SavePagella(ctx, eventID, content, userID)
		return saveResultMsg{engine: id, content: content, at: at, err: err}
	}
}

func (e *Engine) handleSave(msg saveResultMsg) tea.Cmd {
	if msg.err != nil {
		e.logger.Warn("autosave failed", "error", msg.err)
		e.status = StatusError
		e.savedReset.Cancel()
		return e.errorReset.Arm()
	}
	if msg.at.After(e.known) {
		e.known = msg.at
	}
	e.lastSaved = msg.at
	e.status = StatusSaved
	e.errorReset.Cancel()
	return e.savedReset.Arm()
}

func (e *Engine) useDraft() {
	text, err := e.drafts.Load(e.eventID)
	if err != nil {
		e.logger.Debug("draft load failed", "error", err)
		return
	}
	if text == "" {
		return
	}
	e.replace(text)
	e.fromDraft = true
}

func (e *Engine) replace(text string) {
	e.content = Normalize(text)
	e.fromDraft = false
	e.revision++
}

// Normalize rewrites text the way the editor widget stores it: CRLF and
// lone CR become LF, tabs become four spaces, and other control characters
// are dropped.
func Normalize(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	var b strings.Builder
	b.Grow(len(text))
	for _, r := range text {
		switch {
		case r == '\r' || r == '\n':
			b.WriteByte('\n')
		case r == '\t':
			b.WriteString("    ")
		case r == utf8.RuneError, unicode.IsControl(r):
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Content returns the displayed text.
func (e *Engine) Content() string { return e.content }

// Revision increases whenever the displayed text is replaced by a load or
// poll, as opposed to a local edit.
func (e *Engine) Revision() int { return e.revision }

// KnownUpdatedAt returns the last server timestamp the engine accepted.
func (e *Engine) KnownUpdatedAt() time.Time { return e.known }

// LastSaved returns the server timestamp of the last successful autosave.
func (e *Engine) LastSaved() time.Time { return e.lastSaved }

// Typing reports whether a keystroke happened within the typing window.
func (e *Engine) Typing() bool { return e.typing }

// Status returns the autosave badge state.
func (e *Engine) Status() Status { return e.status }

// Loaded reports whether the initial load has completed.
func (e *Engine) Loaded() bool { return e.loaded }

// FromDraft reports whether the displayed text came from the local draft.
func (e *Engine) FromDraft() bool { return e.fromDraft }

// Polling reports whether the poll loop is running.
func (e *Engine) Polling() bool { return e.poll.Active() }

// Editable reports whether this user may edit.
func (e *Engine) Editable() bool { return e.canEdit }

// EventID returns the event the engine is bound to.
func (e *Engine) EventID() int64 { return e.eventID }
