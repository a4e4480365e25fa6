package show

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"

	"github.com/charmbracelet/bubbles/v2/help"
	"github.com/charmbracelet/bubbles/v2/key"
	tea "github.com/charmbracelet/bubbletea/v2"
	"github.com/charmbracelet/lipgloss/v2"
	"github.com/muesli/reflow/wordwrap"
	"go.uber.org/zap"

	"tableflip.dev/daily/pkg/highlight"
	"tableflip.dev/daily/pkg/journal"
	"tableflip.dev/daily/pkg/logging"
	"tableflip.dev/daily/pkg/memory"
	"tableflip.dev/daily/pkg/printers"
	"tableflip.dev/daily/pkg/slideshow"
	"tableflip.dev/daily/pkg/store"
)

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("63"))
	dateStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("15")).Background(lipgloss.Color("99")).Padding(0, 1)
	captionStyle = lipgloss.NewStyle().Italic(true)
	faintStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	warnStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("214")).Bold(true)
	dotOn        = lipgloss.NewStyle().Foreground(lipgloss.Color("99")).Render("●")
	dotOff       = faintStyle.Render("○")
)

type loadedMsg struct {
	snap journal.Snapshot
}

type statusMsg struct {
	status slideshow.Status
}

type statusClosedMsg struct{}

type watchStartedMsg struct {
	ch     <-chan store.Event
	cancel context.CancelFunc
	err    error
}

type watchEventMsg struct {
	event store.Event
}

type watchStoppedMsg struct{}

// Model is the highlight screen: it keeps the reel in a Session and plays
// it through a slideshow Engine.
type Model struct {
	ctx     context.Context
	journal *journal.Service
	logger  *zap.Logger

	engine  *slideshow.Engine
	session *highlight.Session

	keys keyMap
	help help.Model

	loaded      bool
	unavailable bool
	loadErr     error
	width       int
	height      int

	watchCh     <-chan store.Event
	watchCancel context.CancelFunc

	// Images, when set, shows each slide's photo as an openable handle.
	Images  *printers.ImageResolver
	handles map[string]string
}

// New builds the model. The engine is owned by the model and closed on quit.
func New(ctx context.Context, svc *journal.Service, engine *slideshow.Engine, r *rand.Rand, logger *zap.Logger) *Model {
	if ctx == nil {
		ctx = context.Background()
	}
	if engine == nil {
		engine = slideshow.New()
	}
	return &Model{
		ctx:     ctx,
		journal: svc,
		logger:  logging.OrNop(logger),
		engine:  engine,
		session: highlight.NewSession(r),
		keys:    defaultKeys(),
		help:    help.New(),
	}
}

func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.load(), m.waitForStatus(), startWatchCmd(m.ctx, m.journal))
}

func (m *Model) load() tea.Cmd {
	svc := m.journal
	ctx := m.ctx
	return func() tea.Msg {
		return loadedMsg{snap: svc.Load(ctx)}
	}
}

func (m *Model) waitForStatus() tea.Cmd {
	ch := m.engine.Changes()
	return func() tea.Msg {
		if st, ok := <-ch; ok {
			return statusMsg{status: st}
		}
		return statusClosedMsg{}
	}
}

func startWatchCmd(parent context.Context, svc *journal.Service) tea.Cmd {
	if svc == nil {
		return nil
	}
	return func() tea.Msg {
		ctx, cancel := context.WithCancel(parent)
		ch, err := svc.Watch(ctx)
		if err != nil {
			cancel()
			return watchStartedMsg{err: err}
		}
		return watchStartedMsg{ch: ch, cancel: cancel}
	}
}

func (m *Model) waitForWatch() tea.Cmd {
	if m.watchCh == nil {
		return nil
	}
	ch := m.watchCh
	return func() tea.Msg {
		if ev, ok := <-ch; ok {
			return watchEventMsg{event: ev}
		}
		return watchStoppedMsg{}
	}
}

func (m *Model) stopWatch() {
	if m.watchCancel != nil {
		m.watchCancel()
		m.watchCancel = nil
	}
	m.watchCh = nil
}

// Close stops the watcher and retires the engine.
func (m *Model) Close() {
	m.stopWatch()
	m.engine.Close()
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
	case loadedMsg:
		m.loaded = true
		m.unavailable = msg.snap.Unavailable
		m.loadErr = msg.snap.Err
		m.session.Observe(msg.snap.Set)
	case statusMsg:
		// A stale Idle can arrive after a restart; trust the engine.
		if msg.status.State == slideshow.Idle && m.engine.Status().State == slideshow.Idle {
			m.session.Unlock()
		}
		cmds = append(cmds, m.waitForStatus())
	case statusClosedMsg:
	case watchStartedMsg:
		if msg.err != nil {
			if !errors.Is(msg.err, journal.ErrWatchUnsupported) {
				m.logger.Warn("watch failed", zap.Error(msg.err))
			}
			break
		}
		m.stopWatch()
		m.watchCh = msg.ch
		m.watchCancel = msg.cancel
		cmds = append(cmds, m.waitForWatch())
	case watchEventMsg:
		m.logger.Debug("store changed", zap.String("date", msg.event.Date))
		cmds = append(cmds, m.load(), m.waitForWatch())
	case watchStoppedMsg:
		m.stopWatch()
	case tea.KeyPressMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			m.Close()
			cmds = append(cmds, tea.Quit)
		case key.Matches(msg, m.keys.Toggle):
			m.toggle()
		case key.Matches(msg, m.keys.Prev):
			m.engine.Retreat()
		case key.Matches(msg, m.keys.Next):
			m.engine.Advance()
		case key.Matches(msg, m.keys.Reload):
			cmds = append(cmds, m.load())
		}
	}

	return m, tea.Batch(cmds...)
}

// toggle starts a fresh show from a newly drawn reel, or stops the one
// playing.
func (m *Model) toggle() {
	if m.engine.Status().State == slideshow.Playing {
		m.engine.Stop()
		m.session.Unlock()
		return
	}
	sel := m.session.Prepare()
	if !sel.Eligible() {
		return
	}
	if m.engine.Start(sel.Items) {
		m.session.Lock()
	}
}

func (m *Model) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Highlights"))
	b.WriteString("\n\n")

	switch {
	case !m.loaded:
		b.WriteString(faintStyle.Render("Loading memories…"))
	default:
		if m.unavailable {
			b.WriteString(warnStyle.Render("Memories are unavailable right now."))
			b.WriteString("\n\n")
		}
		sel := m.session.Selection()
		st := m.engine.Status()
		switch {
		case !sel.Eligible():
			b.WriteString(m.notEnoughView(sel))
		case st.State == slideshow.Playing:
			b.WriteString(m.slideView(st))
		default:
			b.WriteString(m.reelView(sel))
		}
	}

	b.WriteString("\n\n")
	b.WriteString(m.help.View(m.keys))

	if m.width > 0 && m.height > 0 {
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, b.String())
	}
	return b.String()
}

func (m *Model) notEnoughView(sel highlight.Selection) string {
	var b strings.Builder
	b.WriteString(warnStyle.Render("Not enough memories"))
	b.WriteString("\n")
	b.WriteString(fmt.Sprintf("Capture at least %d days to unlock highlights. You have %d.", highlight.MinEntries, sel.Pool))
	return b.String()
}

func (m *Model) reelView(sel highlight.Selection) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("Selected randomly from your %d memories.", sel.Pool))
	b.WriteString("\n\n")
	for _, e := range sel.Items {
		b.WriteString("  ")
		b.WriteString(e.Date)
		if e.Caption != "" {
			b.WriteString("  ")
			b.WriteString(faintStyle.Render(firstLine(e.Caption)))
		}
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(faintStyle.Render("press space to play"))
	return b.String()
}

func (m *Model) slideView(st slideshow.Status) string {
	e := m.engine.Current()
	if e == nil {
		return ""
	}
	var b strings.Builder
	b.WriteString(dateStyle.Render(slideDate(e)))
	b.WriteString("\n\n")
	b.WriteString(faintStyle.Render(m.imageLine(e)))
	b.WriteString("\n\n")
	if e.Caption != "" {
		b.WriteString(captionStyle.Render(wordwrap.String(e.Caption, 60)))
		b.WriteString("\n\n")
	}
	b.WriteString(progress(st))
	return b.String()
}

// imageLine resolves a slide's photo once per entry and capture time.
func (m *Model) imageLine(e *memory.Entry) string {
	if m.Images == nil {
		return printers.ImageLabel(e.Image)
	}
	key := fmt.Sprintf("%s@%d", e.ID, e.CapturedAt)
	if h, ok := m.handles[key]; ok {
		return h
	}
	h, err := m.Images.Resolve(e)
	if err != nil {
		m.logger.Warn("resolving image", zap.String("id", e.ID), zap.Error(err))
		h = printers.ImageLabel(e.Image)
	} else if h == "" {
		h = printers.ImageLabel(e.Image)
	}
	if m.handles == nil {
		m.handles = make(map[string]string)
	}
	m.handles[key] = h
	return h
}

func slideDate(e *memory.Entry) string {
	t, err := e.Day()
	if err != nil {
		return e.Date
	}
	return t.Format("Monday, January 2, 2006")
}

func progress(st slideshow.Status) string {
	dots := make([]string, st.Len)
	for i := range dots {
		if i == st.Position {
			dots[i] = dotOn
		} else {
			dots[i] = dotOff
		}
	}
	return strings.Join(dots, " ") + faintStyle.Render(fmt.Sprintf("  %d/%d", st.Position+1, st.Len))
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i] + "…"
	}
	return s
}
