// ABOUTME: TUI view for the offline write queue and cache freshness
// ABOUTME: Displays queued writes and lets staff replay them and refresh the cache
package tui

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/harperreed/frontdesk/offline"
)

var (
	syncHeaderStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("39")).
			Underline(true)

	syncTypeStyle = lipgloss.NewStyle().
			Bold(true).
			Width(20)

	syncIdleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("10"))

	syncSyncingStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("11")).
				Bold(true)

	syncErrorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("9"))

	syncMessageStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("240")).
				Italic(true)
)

// SyncCompleteMsg is sent when a queue replay completes.
type SyncCompleteMsg struct {
	Result     offline.SyncResult
	Error      error
	RefreshErr error
}

func (m Model) renderQueueView() string {
	var s strings.Builder

	s.WriteString(titleStyle.Render("FRONT DESK"))
	s.WriteString("\n\n")
	s.WriteString(m.renderTabs())
	s.WriteString("\n\n")

	s.WriteString(syncHeaderStyle.Render("Write Queue"))
	s.WriteString("\n\n")

	items := m.app.Queue.GetQueue()
	if len(items) == 0 {
		s.WriteString(syncIdleStyle.Render("  ✓ Everything synced"))
		s.WriteString("\n")
	}
	for _, it := range items {
		var row strings.Builder
		row.WriteString("  ")
		row.WriteString(syncTypeStyle.Render(string(it.Type)))

		switch it.SyncStatus {
		case offline.StatusSyncing:
			row.WriteString(syncSyncingStyle.Render("⟳ Syncing..."))
		case offline.StatusFailed:
			row.WriteString(syncErrorStyle.Render(fmt.Sprintf("✗ Failed (%d retries)", it.RetryCount)))
			if it.LastError != "" {
				row.WriteString(syncErrorStyle.Render(": " + it.LastError))
			}
		default:
			row.WriteString(syncMessageStyle.Render("Pending • queued " + formatTimeSince(it.CreatedAt)))
		}

		s.WriteString(row.String())
		s.WriteString("\n")
	}
	s.WriteString("\n")

	s.WriteString(syncHeaderStyle.Render("Offline Cache"))
	s.WriteString("\n\n")
	status, err := m.app.Cache.Status()
	if err != nil {
		s.WriteString(syncErrorStyle.Render("  ✗ " + err.Error()))
		s.WriteString("\n")
	}
	for _, ds := range offline.Datasets {
		at, ok := status[ds]
		if !ok {
			s.WriteString(syncMessageStyle.Render(fmt.Sprintf("  %-22s never cached", ds)))
		} else {
			s.WriteString(syncIdleStyle.Render(fmt.Sprintf("  %-22s %s", ds, formatTimeSince(at))))
		}
		s.WriteString("\n")
	}
	s.WriteString("\n")

	if m.syncing {
		s.WriteString(m.spinner.View())
		s.WriteString(syncSyncingStyle.Render(" Syncing..."))
		s.WriteString("\n\n")
	}

	// Recent messages
	if len(m.messages) > 0 {
		s.WriteString(syncHeaderStyle.Render("Recent Activity"))
		s.WriteString("\n\n")
		// Show last 5 messages
		start := 0
		if len(m.messages) > 5 {
			start = len(m.messages) - 5
		}
		for i := start; i < len(m.messages); i++ {
			s.WriteString(syncMessageStyle.Render("  " + m.messages[i]))
			s.WriteString("\n")
		}
		s.WriteString("\n")
	}

	s.WriteString(m.renderSyncHelp())
	return s.String()
}

func (m Model) renderSyncHelp() string {
	help := []string{
		"s: Sync now",
		"Tab: Follow-ups",
		"q: Quit",
	}
	return helpStyle.Render(strings.Join(help, " • "))
}

func (m Model) handleQueueKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "s":
		if m.syncing {
			return m, nil
		}
		m.syncing = true
		m.addMessage(fmt.Sprintf("Starting sync of %d pending...", m.app.Queue.GetPendingCount()))
		return m, tea.Batch(m.spinner.Tick, m.runSync())
	case "esc":
		m.viewMode = ViewFollowUps
	}
	return m, nil
}

// runSync replays the queue and refreshes the cache.
func (m Model) runSync() tea.Cmd {
	a := m.app
	ctx := m.ctx
	return func() tea.Msg {
		res, err := a.Syncer.RunSync(ctx)
		if err != nil {
			return SyncCompleteMsg{Result: res, Error: err}
		}
		return SyncCompleteMsg{Result: res, RefreshErr: a.Refresher.Refresh(ctx)}
	}
}

// handleSyncComplete handles sync completion messages.
func (m *Model) handleSyncComplete(msg SyncCompleteMsg) tea.Cmd {
	m.syncing = false

	if msg.Error != nil {
		m.addMessage(fmt.Sprintf("✗ sync failed: %v", msg.Error))
		return nil
	}

	r := msg.Result
	m.addMessage(fmt.Sprintf("✓ synced %d, failed %d, waiting %d", r.Synced, r.Failed, r.Skipped))
	for _, e := range r.Errors {
		m.addMessage("✗ " + e)
	}
	if msg.RefreshErr != nil {
		m.addMessage(fmt.Sprintf("⚠ cache refresh failed: %v", msg.RefreshErr))
	}

	return m.loadFollowUps()
}

// formatTimeSince formats a time duration in a human-readable way.
func formatTimeSince(t time.Time) string {
	duration := time.Since(t)

	if duration < time.Minute {
		return "just now"
	} else if duration < time.Hour {
		minutes := int(duration.Minutes())
		if minutes == 1 {
			return "1 minute ago"
		}
		return fmt.Sprintf("%d minutes ago", minutes)
	} else if duration < 24*time.Hour {
		hours := int(duration.Hours())
		if hours == 1 {
			return "1 hour ago"
		}
		return fmt.Sprintf("%d hours ago", hours)
	} else {
		days := int(duration.Hours() / 24)
		if days == 1 {
			return "1 day ago"
		}
		return fmt.Sprintf("%d days ago", days)
	}
}
