// ABOUTME: Terminal User Interface using bubbletea framework
// ABOUTME: Full-screen front desk board for due follow-ups and the offline write queue
package tui

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/harperreed/frontdesk/app"
	"github.com/harperreed/frontdesk/models"
)

// ViewMode represents the current TUI view
type ViewMode int

const (
	ViewFollowUps ViewMode = iota
	ViewQueue
)

// Model is the main bubbletea model
type Model struct {
	ctx context.Context
	app *app.App
	now func() time.Time

	viewMode ViewMode

	// Follow-up view state
	followUps   []models.FollowUp
	selectedRow int
	cachedAt    *time.Time
	loadErr     error

	// Notes entry when completing a follow-up
	notesInput textinput.Model
	editing    bool

	// Queue view state
	spinner  spinner.Model
	syncing  bool
	messages []string

	width  int
	height int
}

// NewModel creates a new TUI model
func NewModel(ctx context.Context, a *app.App) Model {
	ti := textinput.New()
	ti.Placeholder = "notes (optional)"
	ti.CharLimit = 200
	ti.Width = 50

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = syncSyncingStyle

	return Model{
		ctx:        ctx,
		app:        a,
		now:        time.Now,
		viewMode:   ViewFollowUps,
		notesInput: ti,
		spinner:    sp,
		width:      80,
		height:     24,
	}
}

// Run starts the full-screen program.
func Run(ctx context.Context, a *app.App) error {
	p := tea.NewProgram(NewModel(ctx, a), tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	return err
}

func (m Model) Init() tea.Cmd {
	return m.loadFollowUps()
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKeyPress(msg)
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil
	case followUpsLoadedMsg:
		m.handleFollowUpsLoaded(msg)
		return m, nil
	case actionDoneMsg:
		cmd := m.handleActionDone(msg)
		return m, cmd
	case SyncCompleteMsg:
		cmd := m.handleSyncComplete(msg)
		return m, cmd
	case spinner.TickMsg:
		if !m.syncing {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m Model) View() string {
	switch m.viewMode {
	case ViewFollowUps:
		return m.renderFollowUpsView()
	case ViewQueue:
		return m.renderQueueView()
	}
	return ""
}

func (m Model) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.editing {
		return m.handleNotesKeys(msg)
	}

	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "tab":
		if m.viewMode == ViewFollowUps {
			m.viewMode = ViewQueue
		} else {
			m.viewMode = ViewFollowUps
		}
		return m, nil
	}

	switch m.viewMode {
	case ViewFollowUps:
		return m.handleFollowUpKeys(msg)
	case ViewQueue:
		return m.handleQueueKeys(msg)
	}
	return m, nil
}

func (m *Model) addMessage(msg string) {
	timestamp := m.now().Format("15:04:05")
	m.messages = append(m.messages, fmt.Sprintf("[%s] %s", timestamp, msg))
}

func (m Model) renderTabs() string {
	tabs := []string{"Follow-ups", "Queue"}
	var rendered []string

	for i, tab := range tabs {
		label := tab
		if ViewMode(i) == ViewQueue {
			if n := m.app.Queue.GetPendingCount(); n > 0 {
				label = fmt.Sprintf("%s (%d)", tab, n)
			}
		}
		if ViewMode(i) == m.viewMode {
			rendered = append(rendered, tabActiveStyle.Render(label))
		} else {
			rendered = append(rendered, tabInactiveStyle.Render(label))
		}
	}

	return lipgloss.JoinHorizontal(lipgloss.Top, rendered...)
}

// Styles
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("170")).
			MarginBottom(1)

	tabActiveStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("170")).
			Background(lipgloss.Color("235")).
			Padding(0, 2)

	tabInactiveStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("240")).
				Padding(0, 2)

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")).
			MarginTop(1)

	warnStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("11"))
)
