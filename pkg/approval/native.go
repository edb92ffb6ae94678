package approval

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/clawsec/clawsec/pkg/clawsec"
)

var (
	promptBorder = lipgloss.NewStyle().
			Bold(true).
			BorderStyle(lipgloss.NormalBorder()).
			BorderForeground(lipgloss.Color("#FFD700")).
			Padding(0, 1)

	severityColor = map[clawsec.Severity]lipgloss.Color{
		clawsec.SeverityCritical: lipgloss.Color("#FF0000"),
		clawsec.SeverityHigh:     lipgloss.Color("#FF8C00"),
		clawsec.SeverityMedium:   lipgloss.Color("#FFD700"),
		clawsec.SeverityLow:      lipgloss.Color("#4169E1"),
	}

	ticketStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#7D56F4"))
)

// RenderPrompt formats a native terminal approval prompt for a pending
// ticket. cmd/clawsecd prints this to the operator's terminal and reads
// y/n from stdin; the rendering itself has no I/O.
func RenderPrompt(ticket clawsec.ApprovalTicket, pending clawsec.PendingApproval) string {
	sevStyle := lipgloss.NewStyle().Bold(true).Foreground(severityColor[ticket.Detection.Severity])

	var b strings.Builder
	fmt.Fprintf(&b, "%s tool call flagged\n", sevStyle.Render(strings.ToUpper(ticket.Detection.Severity.String())))
	fmt.Fprintf(&b, "tool:     %s\n", ticket.ToolCallSnapshot.ToolName)
	fmt.Fprintf(&b, "category: %s\n", ticket.Detection.Category)
	fmt.Fprintf(&b, "reason:   %s\n", ticket.Detection.Reason)
	fmt.Fprintf(&b, "ticket:   %s (expires in %ds)\n", ticketStyle.Render(ticket.ID), pending.ExpiresInSeconds)
	fmt.Fprintf(&b, "approve? [y/N] ")

	return promptBorder.Render(b.String())
}
