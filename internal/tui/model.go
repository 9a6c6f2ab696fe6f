// Package tui provides the BubbleTea-based live quota view.
package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/jmylchreest/tokentray/internal/adapter/output"
	"github.com/jmylchreest/tokentray/internal/quota"
)

// fetchTimeout bounds a single refresh from the view.
const fetchTimeout = 30 * time.Second

// Fetcher retrieves the quota document.
type Fetcher interface {
	Fetch(ctx context.Context) (*quota.Result, error)
}

// Model is the watch view model.
type Model struct {
	fetcher  Fetcher
	interval time.Duration
	now      func() time.Time

	keys    KeyMap
	help    help.Model
	spinner spinner.Model

	result    *quota.Result
	usage     *quota.Usage
	err       error
	fetching  bool
	width     int
	statusMsg string
	statusErr bool
}

type fetchResultMsg struct {
	result *quota.Result
	err    error
}

type tickMsg time.Time

type statusMsg struct {
	text  string
	isErr bool
}

type clearStatusMsg struct{}

type copyResultMsg struct {
	err error
}

// New creates the watch model. A zero interval disables periodic refresh.
func New(fetcher Fetcher, interval time.Duration) Model {
	s := spinner.New()
	s.Spinner = spinner.MiniDot
	return Model{
		fetcher:  fetcher,
		interval: interval,
		now:      time.Now,
		keys:     DefaultKeyMap(),
		help:     help.New(),
		spinner:  s,
		fetching: true,
	}
}

// Init starts the first fetch.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.fetch, m.spinner.Tick)
}

func (m Model) fetch() tea.Msg {
	ctx, cancel := context.WithTimeout(context.Background(), fetchTimeout)
	defer cancel()
	res, err := m.fetcher.Fetch(ctx)
	return fetchResultMsg{result: res, err: err}
}

func (m Model) scheduleTick() tea.Cmd {
	if m.interval <= 0 {
		return nil
	}
	return tea.Tick(m.interval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.help.Width = msg.Width
		return m, nil

	case fetchResultMsg:
		m.fetching = false
		if msg.err != nil {
			m.err = msg.err
			return m, m.scheduleTick()
		}
		m.err = nil
		m.result = msg.result
		m.usage, _ = quota.ParseUsage(msg.result)
		return m, m.scheduleTick()

	case tickMsg:
		if m.fetching {
			return m, nil
		}
		m.fetching = true
		return m, m.fetch

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case statusMsg:
		m.statusMsg = msg.text
		m.statusErr = msg.isErr
		return m, tea.Tick(3*time.Second, func(time.Time) tea.Msg {
			return clearStatusMsg{}
		})

	case clearStatusMsg:
		m.statusMsg = ""
		m.statusErr = false
		return m, nil

	case copyResultMsg:
		if msg.err != nil {
			return m, func() tea.Msg {
				return statusMsg{text: "Copy failed: " + msg.err.Error(), isErr: true}
			}
		}
		return m, func() tea.Msg {
			return statusMsg{text: "Copied to clipboard"}
		}
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
		return m, nil
	case key.Matches(msg, m.keys.Refresh):
		if m.fetching {
			return m, nil
		}
		m.fetching = true
		return m, m.fetch
	case key.Matches(msg, m.keys.CopyJSON):
		if m.result == nil {
			return m, nil
		}
		text := string(m.result.Raw)
		return m, func() tea.Msg {
			return copyResultMsg{err: copyText(text)}
		}
	}
	return m, nil
}

// View renders the model.
func (m Model) View() string {
	var sb strings.Builder

	title := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12")).Render("Token Tray")
	sb.WriteString(title)
	if m.fetching {
		sb.WriteString(" " + m.spinner.View())
	}
	sb.WriteString("\n\n")

	switch {
	case m.usage != nil:
		opts := output.DefaultFormatterOptions()
		opts.Now = m.now
		sb.WriteString(output.NewPlainFormatter(opts).Render(m.usage))
	case m.result != nil:
		sb.WriteString(string(m.result.Raw) + "\n")
	case !m.fetching:
		sb.WriteString("No data yet.\n")
	}

	if m.err != nil {
		errStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
		sb.WriteString("\n" + errStyle.Render(describeError(m.err)) + "\n")
	}

	if m.statusMsg != "" {
		style := lipgloss.NewStyle().Foreground(lipgloss.Color("7"))
		if m.statusErr {
			style = style.Foreground(lipgloss.Color("9"))
		}
		sb.WriteString("\n" + style.Render(m.statusMsg) + "\n")
	}

	sb.WriteString("\n" + m.help.View(m.keys))
	return sb.String()
}

// describeError renders a fetch error with its kind.
func describeError(err error) string {
	if kind := quota.KindOf(err); kind != 0 {
		return fmt.Sprintf("Error (%s): %v", kind, err)
	}
	return "Error: " + err.Error()
}

// Run starts the watch view on the terminal.
func Run(fetcher Fetcher, interval time.Duration) error {
	p := tea.NewProgram(New(fetcher, interval), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
