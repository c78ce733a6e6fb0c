// Package tui renders a quiz or exam session in the terminal with Bubble Tea.
// The session itself lives in a service.SessionService; the model only
// forwards keys to it and redraws from the events it publishes.
package tui

import (
	"errors"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/google/uuid"
	"github.com/stemsi/exstem-quiz/internal/model"
	"github.com/stemsi/exstem-quiz/internal/service"
	"github.com/stemsi/exstem-quiz/internal/typewriter"
)

const maxOptionKeys = 9

// Options configures the terminal UI.
type Options struct {
	Title         string
	Mode          model.Mode
	TypingSpeed   time.Duration
	ReducedMotion bool
	NoColor       bool
}

// Model is the Bubble Tea model of one terminal session.
type Model struct {
	sessions *service.SessionService
	id       uuid.UUID
	events   <-chan service.Event
	cancel   func()

	view    model.SessionView
	cursor  int
	notice  string
	heading *typewriter.Typewriter
	bar     progress.Model
	width   int
	noColor bool
	closed  bool
}

// EventMsg wraps a session event for Bubble Tea.
type EventMsg struct {
	Event service.Event
}

// typeMsg reveals the next rune of the heading.
type typeMsg struct{}

// NewModel starts a session in sessions and subscribes to it.
func NewModel(sessions *service.SessionService, opts Options) (Model, error) {
	view, err := sessions.Start(opts.Mode)
	if err != nil {
		return Model{}, err
	}
	events, cancel, err := sessions.Subscribe(view.ID)
	if err != nil {
		return Model{}, err
	}

	title := opts.Title
	if title == "" {
		title = "Quiz"
	}

	barOpts := []progress.Option{progress.WithWidth(40), progress.WithoutPercentage()}
	if !opts.NoColor {
		barOpts = append(barOpts, progress.WithDefaultGradient())
	}
	bar := progress.New(barOpts...)
	if opts.NoColor {
		bar.Full, bar.Empty = '#', '.'
		bar.FullColor, bar.EmptyColor = "", ""
	}

	return Model{
		sessions: sessions,
		id:       view.ID,
		events:   events,
		cancel:   cancel,
		view:     *view,
		heading:  typewriter.New(title, opts.TypingSpeed, opts.ReducedMotion),
		bar:      bar,
		noColor:  opts.NoColor,
	}, nil
}

// SessionID returns the session driven by the model.
func (m Model) SessionID() uuid.UUID {
	return m.id
}

// Init types the heading and waits for the first session event.
func (m Model) Init() tea.Cmd {
	m.heading.Start()
	return tea.Batch(waitForEvent(m.events), typeNext(m.heading))
}

// Update handles keys, session events and heading frames.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch typed := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = typed.Width
		m.bar.Width = clamp(typed.Width-10, 10, 60)
		return m, nil
	case tea.KeyMsg:
		return m.handleKey(typed)
	case EventMsg:
		m = applyEvent(m, typed.Event)
		return m, waitForEvent(m.events)
	case typeMsg:
		m.heading.Advance()
		return m, typeNext(m.heading)
	}
	return m, nil
}

// View renders the current screen.
func (m Model) View() string {
	if m.closed {
		return ""
	}
	parts := []string{renderHeading(m.heading.Visible(), m.noColor)}

	switch m.view.Status {
	case model.SessionStatusReady:
		parts = append(parts, renderReady(m.view, m.noColor))
	case model.SessionStatusInProgress:
		parts = append(parts, renderQuestion(m.view, m.cursor, m.bar, m.noColor))
	case model.SessionStatusCompleted:
		parts = append(parts, renderResult(m.view.Result, m.noColor))
	}

	if m.notice != "" {
		parts = append(parts, renderNotice(m.notice, m.noColor))
	}
	parts = append(parts, renderHelp(m.view.Status, m.noColor))
	return lipgloss.JoinVertical(lipgloss.Left, parts...) + "\n"
}

func (m Model) handleKey(key tea.KeyMsg) (tea.Model, tea.Cmd) {
	k := key.String()
	if k == "ctrl+c" || k == "q" || k == "esc" {
		return m.quit()
	}

	var (
		view *model.SessionView
		err  error
	)

	switch m.view.Status {
	case model.SessionStatusReady:
		if k == "enter" || k == "b" {
			view, err = m.sessions.Begin(m.id)
		}
	case model.SessionStatusInProgress:
		view, err = m.handleQuestionKey(k)
	case model.SessionStatusCompleted:
		if k == "r" {
			view, err = m.sessions.Retake(m.id)
		}
	}

	if err != nil {
		m.notice = noticeFor(err)
		return m, nil
	}
	if view != nil {
		m = m.setView(*view)
		m.notice = ""
	}
	return m, nil
}

func (m *Model) handleQuestionKey(k string) (*model.SessionView, error) {
	options := 0
	if m.view.Question != nil {
		options = len(m.view.Question.Options)
	}

	switch k {
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
		return nil, nil
	case "down", "j":
		if m.cursor < options-1 {
			m.cursor++
		}
		return nil, nil
	case " ", "x":
		return m.sessions.Select(m.id, m.cursor)
	case "enter", "right", "n":
		return m.sessions.Next(m.id)
	case "left", "p":
		return m.sessions.Previous(m.id)
	case "s":
		return m.sessions.Submit(m.id)
	}

	if len(k) == 1 && k[0] >= '1' && k[0] <= '0'+maxOptionKeys {
		index := int(k[0] - '1')
		m.cursor = index
		return m.sessions.Select(m.id, index)
	}
	return nil, nil
}

// setView adopts a new view, moving the cursor when the question changed.
func (m Model) setView(v model.SessionView) Model {
	if v.Index != m.view.Index || v.Status != m.view.Status {
		m.cursor = 0
		if v.Question != nil && v.Question.Selected != nil {
			m.cursor = *v.Question.Selected
		}
	}
	m.view = v
	return m
}

func (m Model) quit() (tea.Model, tea.Cmd) {
	m.cancel()
	if err := m.sessions.Close(m.id, true); err != nil && !errors.Is(err, service.ErrSessionNotFound) {
		m.notice = noticeFor(err)
	}
	m.closed = true
	return m, tea.Quit
}

// applyEvent folds a session event into the model.
func applyEvent(m Model, e service.Event) Model {
	switch e.Type {
	case service.EventState:
		if e.View != nil {
			m = m.setView(*e.View)
		}
	case service.EventTick:
		if e.Remaining != nil {
			remaining := *e.Remaining
			m.view.Remaining = &remaining
		}
	case service.EventCompleted:
		m.view.Result = e.Result
		m.view.Status = model.SessionStatusCompleted
		m.view.Question = nil
		if e.Result != nil && e.Result.Reason == model.FinishReasonTimeUp {
			m.notice = "Time is up. Your answers were submitted."
		}
	}
	return m
}

func noticeFor(err error) string {
	switch {
	case errors.Is(err, service.ErrAnswerRequired):
		return "Please select an answer before proceeding."
	case errors.Is(err, service.ErrIncomplete):
		return "Please answer all questions before submitting."
	case errors.Is(err, service.ErrInvalidAnswer):
		return "That option does not exist."
	case errors.Is(err, service.ErrNotStarted):
		return "Press enter to begin the exam."
	case errors.Is(err, service.ErrSessionFinished):
		return "This session is finished."
	default:
		return err.Error()
	}
}

// waitForEvent blocks until the session publishes an event.
func waitForEvent(events <-chan service.Event) tea.Cmd {
	return func() tea.Msg {
		if events == nil {
			return nil
		}
		e, ok := <-events
		if !ok {
			return tea.Quit()
		}
		return EventMsg{Event: e}
	}
}

// typeNext schedules the next heading frame, or nothing once it is fully typed.
func typeNext(tw *typewriter.Typewriter) tea.Cmd {
	if tw.Done() {
		return nil
	}
	return tea.Tick(tw.Speed(), func(time.Time) tea.Msg { return typeMsg{} })
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
