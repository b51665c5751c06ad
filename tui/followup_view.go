// ABOUTME: TUI view for due follow-ups
// ABOUTME: Lists the nurture queue and queues completions and call touches offline-first
package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/harperreed/frontdesk/handlers"
	"github.com/harperreed/frontdesk/models"
	"github.com/harperreed/frontdesk/offline"
)

type followUpsLoadedMsg struct {
	followUps []models.FollowUp
	cachedAt  *time.Time
	err       error
}

// actionDoneMsg reports the outcome of a touch or queued completion.
type actionDoneMsg struct {
	text string
	err  error
}

// loadFollowUps reads due follow-ups from the store, falling back to the
// offline cache.
func (m Model) loadFollowUps() tea.Cmd {
	a := m.app
	ctx := m.ctx
	today := m.now().Format(models.DateLayout)
	return func() tea.Msg {
		due, err := a.Store.ListDueFollowUps(ctx, today)
		if err == nil {
			return followUpsLoadedMsg{followUps: due}
		}
		cached, cacheErr := offline.ReadCache[[]models.FollowUp](a.Cache, offline.DatasetFollowUps)
		if cacheErr != nil || cached == nil {
			return followUpsLoadedMsg{err: err}
		}
		at := cached.CachedAt
		return followUpsLoadedMsg{followUps: handlers.FilterDue(cached.Data, today), cachedAt: &at}
	}
}

func (m *Model) handleFollowUpsLoaded(msg followUpsLoadedMsg) {
	m.loadErr = msg.err
	if msg.err != nil {
		return
	}
	m.followUps = msg.followUps
	m.cachedAt = msg.cachedAt
	if m.selectedRow >= len(m.followUps) {
		m.selectedRow = max(len(m.followUps)-1, 0)
	}
}

func (m Model) selected() (models.FollowUp, bool) {
	if m.selectedRow < 0 || m.selectedRow >= len(m.followUps) {
		return models.FollowUp{}, false
	}
	return m.followUps[m.selectedRow], true
}

func (m Model) renderFollowUpsView() string {
	var s strings.Builder

	s.WriteString(titleStyle.Render("FRONT DESK"))
	s.WriteString("\n\n")
	s.WriteString(m.renderTabs())
	s.WriteString("\n\n")

	if m.cachedAt != nil {
		s.WriteString(warnStyle.Render("⚠ Offline: showing follow-ups cached " + formatTimeSince(*m.cachedAt)))
		s.WriteString("\n\n")
	}

	switch {
	case m.loadErr != nil:
		s.WriteString(fmt.Sprintf("Error: %v", m.loadErr))
	case len(m.followUps) == 0:
		s.WriteString(syncMessageStyle.Render("No follow-ups due. 🎉"))
	default:
		s.WriteString(m.renderFollowUpsTable())
	}
	s.WriteString("\n")

	if m.editing {
		s.WriteString("\nComplete follow-up: ")
		s.WriteString(m.notesInput.View())
		s.WriteString("\n")
		s.WriteString(helpStyle.Render("Enter: Save • Esc: Cancel"))
		return s.String()
	}

	if n := len(m.messages); n > 0 {
		s.WriteString("\n")
		s.WriteString(syncMessageStyle.Render(m.messages[n-1]))
		s.WriteString("\n")
	}

	help := []string{
		"↑/↓: Select",
		"Enter: Complete",
		"x: Skip",
		"c: Log call",
		"r: Reload",
		"Tab: Queue",
		"q: Quit",
	}
	s.WriteString(helpStyle.Render(strings.Join(help, " • ")))
	return s.String()
}

func (m Model) renderFollowUpsTable() string {
	today := m.now().Format(models.DateLayout)

	columns := []table.Column{
		{Title: "", Width: 3},
		{Title: "Member", Width: 24},
		{Title: "Type", Width: 10},
		{Title: "Touch", Width: 6},
		{Title: "Due", Width: 11},
		{Title: "Objection", Width: 20},
	}

	var rows []table.Row
	for _, f := range m.followUps {
		indicator := "🟡"
		if f.ScheduledDate < today {
			indicator = "🔴"
		}
		rows = append(rows, table.Row{
			indicator,
			f.PersonName,
			f.PersonType,
			fmt.Sprintf("%d", f.TouchNumber),
			f.ScheduledDate,
			f.PrimaryObjection,
		})
	}

	t := table.New(
		table.WithColumns(columns),
		table.WithRows(rows),
		table.WithFocused(true),
		table.WithHeight(max(m.height-12, 3)),
	)

	if m.selectedRow < len(rows) {
		t.SetCursor(m.selectedRow)
	}

	return t.View()
}

func (m Model) handleFollowUpKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "up", "k":
		if m.selectedRow > 0 {
			m.selectedRow--
		}
	case "down", "j":
		if m.selectedRow < len(m.followUps)-1 {
			m.selectedRow++
		}
	case "enter":
		if _, ok := m.selected(); ok {
			m.editing = true
			m.notesInput.SetValue("")
			cmd := m.notesInput.Focus()
			return m, cmd
		}
	case "x":
		if f, ok := m.selected(); ok {
			return m, m.queueCompletion(f, models.FollowUpSkipped, "")
		}
	case "c":
		if f, ok := m.selected(); ok {
			return m, m.logCall(f)
		}
	case "r":
		return m, m.loadFollowUps()
	}
	return m, nil
}

func (m Model) handleNotesKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.editing = false
		m.notesInput.Blur()
		return m, nil
	case "enter":
		m.editing = false
		m.notesInput.Blur()
		f, ok := m.selected()
		if !ok {
			return m, nil
		}
		return m, m.queueCompletion(f, models.FollowUpCompleted, strings.TrimSpace(m.notesInput.Value()))
	}

	var cmd tea.Cmd
	m.notesInput, cmd = m.notesInput.Update(msg)
	return m, cmd
}

// queueCompletion enqueues closing the follow-up; the next sync applies it.
func (m Model) queueCompletion(f models.FollowUp, status, notes string) tea.Cmd {
	a := m.app
	return func() tea.Msg {
		staff, err := a.Staff("")
		if err != nil {
			return actionDoneMsg{err: err}
		}
		item, err := offline.NewFollowUpCompleteItem(staff, offline.FollowUpCompletePayload{
			FollowUpID: f.ID,
			Status:     status,
			Notes:      notes,
		})
		if err != nil {
			return actionDoneMsg{err: err}
		}
		a.Queue.Enqueue(item)
		return actionDoneMsg{text: fmt.Sprintf("Queued %s for %s (touch %d)", status, f.PersonName, f.TouchNumber)}
	}
}

func (m Model) logCall(f models.FollowUp) tea.Cmd {
	a := m.app
	ctx := m.ctx
	return func() tea.Msg {
		staff, err := a.Staff("")
		if err != nil {
			return actionDoneMsg{err: err}
		}
		outcome, err := a.Touches.LogTouch(ctx, staff, offline.TouchPayload{
			TouchType: "call",
			BookingID: f.BookingID,
			Notes:     fmt.Sprintf("follow-up touch %d", f.TouchNumber),
		})
		if err != nil {
			return actionDoneMsg{err: err}
		}
		switch outcome {
		case offline.TouchQueued:
			return actionDoneMsg{text: fmt.Sprintf("Offline: call to %s queued", f.PersonName)}
		case offline.TouchThrottled:
			return actionDoneMsg{text: "Already logged a moment ago, skipped"}
		}
		return actionDoneMsg{text: fmt.Sprintf("Logged call to %s", f.PersonName)}
	}
}

func (m *Model) handleActionDone(msg actionDoneMsg) tea.Cmd {
	if msg.err != nil {
		m.addMessage(fmt.Sprintf("✗ %v", msg.err))
		return nil
	}
	m.addMessage("✓ " + msg.text)
	return nil
}
