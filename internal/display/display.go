// Package display is the terminal front end: a Bubble Tea program that
// keeps a status bar (cart, page, user, assistant activity) and a prompt
// pinned to the bottom while output scrolls above it.
package display

import (
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/hammamikhairi/foodify/internal/domain"
)

// Tone selects how a printed line is styled.
type Tone int

const (
	ToneLine Tone = iota
	ToneChat
	ToneHeader
	ToneHint
	ToneUrgent
)

var tones = map[Tone]lipgloss.Style{
	ToneLine:   lipgloss.NewStyle().Foreground(lipgloss.Color("#e4e4e7")),
	ToneChat:   lipgloss.NewStyle().Foreground(lipgloss.Color("#fdba74")),
	ToneHeader: lipgloss.NewStyle().Foreground(lipgloss.Color("#86efac")).Bold(true),
	ToneHint:   lipgloss.NewStyle().Foreground(lipgloss.Color("#71717a")),
	ToneUrgent: lipgloss.NewStyle().Foreground(lipgloss.Color("#f87171")),
}

var (
	barStyle = lipgloss.NewStyle().
			Background(lipgloss.Color("#1c1917")).
			Foreground(lipgloss.Color("#a8a29e"))
	cartStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#fcd34d"))
	busyStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#fb923c")).Italic(true)
	quickStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#78716c"))
	promptStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#fb923c"))
	echoStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#a8a29e"))

	// BannerStyle colours the startup banner.
	BannerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#fb923c"))
)

const (
	prompt       = "foodify> "
	tickInterval = 250 * time.Millisecond
	historySize  = 50
	barSeparator = "  ·  "
)

// Status is what the bar shows. Polled every tick.
type Status struct {
	Cart    domain.CartSummary
	Page    domain.PageType
	User    string
	Quick   []string // quick action labels, numbered in the hint line
	Typing  bool
	Loading bool
	Offline bool
}

// StatusFunc reports the current status.
type StatusFunc func() Status

// UI owns the terminal while Run is active. Print methods and InputChan
// are safe from any goroutine once WaitReady returns.
type UI struct {
	program *tea.Program
	status  StatusFunc
	inputCh chan string
	readyCh chan struct{}
	stopped atomic.Bool
}

// NewUI creates the display. Call Run to start it.
func NewUI(status StatusFunc) *UI {
	if status == nil {
		status = func() Status { return Status{} }
	}
	return &UI{
		status:  status,
		inputCh: make(chan string, 16),
		readyCh: make(chan struct{}),
	}
}

// Print writes a line above the status bar. Before Run starts, and after
// it returns, it writes to stdout directly.
func (u *UI) Print(t Tone, text string) {
	line := tones[t].Render("  " + text)
	if u.program == nil || u.stopped.Load() {
		fmt.Println(line)
		return
	}
	u.program.Println(line)
}

func (u *UI) PrintChat(text string)   { u.Print(ToneChat, text) }
func (u *UI) PrintHeader(text string) { u.Print(ToneHeader, text) }
func (u *UI) PrintLine(text string)   { u.Print(ToneLine, text) }
func (u *UI) PrintHint(text string)   { u.Print(ToneHint, text) }
func (u *UI) PrintUrgent(text string) { u.Print(ToneUrgent, text) }

// PrintUserInput echoes a submitted line into the scrollback.
func (u *UI) PrintUserInput(text string) {
	line := promptStyle.Render(prompt) + echoStyle.Render(text)
	if u.program == nil || u.stopped.Load() {
		fmt.Println(line)
		return
	}
	u.program.Println(line)
}

// InputChan delivers submitted lines.
func (u *UI) InputChan() <-chan string { return u.inputCh }

// WaitReady blocks until the event loop runs.
func (u *UI) WaitReady() { <-u.readyCh }

// Quit stops the event loop.
func (u *UI) Quit() {
	if u.program != nil {
		u.program.Quit()
	}
}

// Run starts the event loop and blocks until it quits.
func (u *UI) Run() error {
	ti := textinput.New()
	ti.Prompt = prompt
	ti.PromptStyle = promptStyle
	ti.TextStyle = echoStyle
	ti.CharLimit = 1000
	ti.Width = 60
	ti.Focus()

	u.program = tea.NewProgram(model{
		statusFn: u.status,
		input:    ti,
		submit: func(v string) {
			u.inputCh <- v
		},
		echo:    u.PrintUserInput,
		readyCh: u.readyCh,
	})
	_, err := u.program.Run()
	u.stopped.Store(true)
	return err
}

type tickMsg time.Time

type model struct {
	statusFn StatusFunc
	input    textinput.Model
	submit   func(string)
	echo     func(string)
	readyCh  chan struct{}

	recall inputHistory
	status Status
	frame  int
	width  int
}

func (m model) Init() tea.Cmd {
	ready := m.readyCh
	return tea.Batch(textinput.Blink, tick(), func() tea.Msg {
		close(ready)
		return nil
	})
}

func tick() tea.Cmd {
	return tea.Tick(tickInterval, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC:
			return m, tea.Quit
		case tea.KeyUp:
			m.input.SetValue(m.recall.prev(m.input.Value()))
			m.input.CursorEnd()
			return m, nil
		case tea.KeyDown:
			m.input.SetValue(m.recall.next())
			m.input.CursorEnd()
			return m, nil
		case tea.KeyEnter:
			v := m.input.Value()
			m.input.Reset()
			if strings.TrimSpace(v) == "" {
				return m, nil
			}
			m.recall.push(v)
			m.submit(v)
			// Println may not be called from inside Update.
			echo := m.echo
			return m, func() tea.Msg {
				echo(v)
				return nil
			}
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		if msg.Width > len(prompt) {
			m.input.Width = msg.Width - len(prompt)
		}
		return m, nil

	case tickMsg:
		m.status = m.statusFn()
		m.frame++
		return m, tea.Batch(tick(), tea.SetWindowTitle(titleStr(m.status)))
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m model) View() string {
	rows := []string{renderBar(m.status, m.frame, m.width)}
	if q := quickLine(m.status.Quick); q != "" {
		rows = append(rows, quickStyle.Render(q))
	}
	rows = append(rows, "", m.input.View())
	return strings.Join(rows, "\n")
}

// inputHistory recalls submitted lines with the arrow keys. The line being
// edited when recall starts is restored after the newest entry.
type inputHistory struct {
	lines []string
	pos   int // len(lines) when not recalling
	draft string
}

func (h *inputHistory) push(line string) {
	if n := len(h.lines); n == 0 || h.lines[n-1] != line {
		h.lines = append(h.lines, line)
	}
	if len(h.lines) > historySize {
		h.lines = h.lines[len(h.lines)-historySize:]
	}
	h.pos = len(h.lines)
	h.draft = ""
}

func (h *inputHistory) prev(current string) string {
	if len(h.lines) == 0 {
		return current
	}
	if h.pos == len(h.lines) {
		h.draft = current
	}
	if h.pos > 0 {
		h.pos--
	}
	return h.lines[h.pos]
}

func (h *inputHistory) next() string {
	if h.pos >= len(h.lines)-1 {
		h.pos = len(h.lines)
		return h.draft
	}
	h.pos++
	return h.lines[h.pos]
}

func titleStr(s Status) string {
	if s.Cart.ItemCount == 0 {
		return "Foodify"
	}
	return fmt.Sprintf("Foodify (%s)", cartLabel(s.Cart))
}

func cartLabel(c domain.CartSummary) string {
	if c.ItemCount == 0 {
		return "cart empty"
	}
	noun := "items"
	if c.ItemCount == 1 {
		noun = "item"
	}
	label := fmt.Sprintf("%d %s · $%s", c.ItemCount, noun, c.Total)
	if c.RestaurantName != "" {
		label += " · " + c.RestaurantName
	}
	return label
}

var typingFrames = []string{"typing", "typing.", "typing..", "typing..."}

// statusParts returns the bar segments, unstyled.
func statusParts(s Status, frame int) []string {
	parts := []string{"cart: " + cartLabel(s.Cart)}
	if s.Page != "" {
		parts = append(parts, "page: "+string(s.Page))
	}
	if s.User != "" {
		parts = append(parts, "user: "+s.User)
	}
	if s.Loading {
		parts = append(parts, "syncing cart")
	}
	if s.Offline {
		parts = append(parts, "offline assistant")
	}
	if s.Typing {
		parts = append(parts, "assistant "+typingFrames[frame%len(typingFrames)])
	}
	return parts
}

func quickLine(labels []string) string {
	if len(labels) == 0 {
		return ""
	}
	items := make([]string, len(labels))
	for i, l := range labels {
		items[i] = fmt.Sprintf("[%d] %s", i+1, l)
	}
	return " quick " + strings.Join(items, "  ")
}

func renderBar(s Status, frame, width int) string {
	parts := statusParts(s, frame)
	for i, p := range parts {
		switch {
		case i == 0:
			parts[i] = cartStyle.Render(p)
		case p == "syncing cart" || strings.HasPrefix(p, "assistant "):
			parts[i] = busyStyle.Render(p)
		}
	}
	if width <= 0 {
		width = 80
	}
	return barStyle.Width(width).Render(" " + strings.Join(parts, barSeparator))
}
