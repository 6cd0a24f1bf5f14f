package jobs

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/cryptbill/cryptbill/internal/application/invoice/usecases"
)

var (
	accent  = lipgloss.Color("#D97706")
	dim     = lipgloss.Color("#6B7280")
	success = lipgloss.Color("#22C55E")
	danger  = lipgloss.Color("#EF4444")
	warning = lipgloss.Color("#F59E0B")
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(accent)
	labelStyle = lipgloss.NewStyle().Foreground(dim).Width(18)
	passStyle  = lipgloss.NewStyle().Foreground(success)
	failStyle  = lipgloss.NewStyle().Foreground(danger)
	warnStyle  = lipgloss.NewStyle().Foreground(warning)
	boxStyle   = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(accent).Padding(0, 2)
)

// RenderSweepReport formats one payment sweep for the terminal.
func RenderSweepReport(r *usecases.SweepReport) string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Payment sweep"))
	b.WriteString("\n\n")
	writeRow(&b, "checked", fmt.Sprint(r.Checked))
	writeRow(&b, "confirmed", passStyle.Render(fmt.Sprint(r.Confirmed)))
	writeRow(&b, "still pending", fmt.Sprint(r.StillPending))
	writeRow(&b, "failed", countStyle(r.Failed, failStyle).Render(fmt.Sprint(r.Failed)))
	writeRow(&b, "skipped", countStyle(r.Skipped, warnStyle).Render(fmt.Sprint(r.Skipped)))
	writeRow(&b, "duration", r.Duration.Round(time.Millisecond).String())

	if len(r.Failures) > 0 {
		b.WriteString("\n")
		for _, f := range r.Failures {
			tag := failStyle.Render("error")
			if f.Retryable {
				tag = warnStyle.Render("retry")
			}
			fmt.Fprintf(&b, "%s  %s  %s\n", tag, f.InvoiceID, f.Error)
		}
	}

	return boxStyle.Render(strings.TrimRight(b.String(), "\n"))
}

// RenderSpawnReport formats one recurrence tick for the terminal.
func RenderSpawnReport(r *usecases.SpawnReport) string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Invoice recurrence"))
	b.WriteString("\n\n")
	writeRow(&b, "series scanned", fmt.Sprint(r.Scanned))
	writeRow(&b, "spawned", passStyle.Render(fmt.Sprint(r.Spawned)))
	writeRow(&b, "not due", fmt.Sprint(r.NotDue))
	writeRow(&b, "already spawned", fmt.Sprint(r.AlreadySpawned))
	writeRow(&b, "contended", countStyle(r.Contended, warnStyle).Render(fmt.Sprint(r.Contended)))
	writeRow(&b, "failed", countStyle(r.Failed, failStyle).Render(fmt.Sprint(r.Failed)))
	writeRow(&b, "duration", r.Duration.Round(time.Millisecond).String())

	if len(r.SpawnedIDs) > 0 {
		b.WriteString("\n")
		for _, id := range r.SpawnedIDs {
			fmt.Fprintf(&b, "%s  %s\n", passStyle.Render("new"), id)
		}
	}
	if len(r.Failures) > 0 {
		b.WriteString("\n")
		for _, f := range r.Failures {
			fmt.Fprintf(&b, "%s  %s  %s\n", failStyle.Render("error"), f.SeriesID, f.Error)
		}
	}

	return boxStyle.Render(strings.TrimRight(b.String(), "\n"))
}

func writeRow(b *strings.Builder, label, value string) {
	b.WriteString(labelStyle.Render(label))
	b.WriteString(value)
	b.WriteString("\n")
}

func countStyle(n int, nonZero lipgloss.Style) lipgloss.Style {
	if n == 0 {
		return lipgloss.NewStyle()
	}
	return nonZero
}
