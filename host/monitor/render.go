package monitor

import (
	"fmt"
	"strings"

	"rangefinder/core"

	"github.com/charmbracelet/lipgloss"
)

// Renderer formats records for a terminal, coloured by alert state
type Renderer struct {
	state map[core.AlertState]lipgloss.Style
	warn  lipgloss.Style
	fault lipgloss.Style
	dim   lipgloss.Style
}

// NewRenderer creates a renderer with the default palette
func NewRenderer() *Renderer {
	return &Renderer{
		state: map[core.AlertState]lipgloss.Style{
			core.AlertClear:   lipgloss.NewStyle().Foreground(lipgloss.Color("#00FF41")),
			core.AlertCaution: lipgloss.NewStyle().Foreground(lipgloss.Color("#FFB000")).Bold(true),
			core.AlertDanger:  lipgloss.NewStyle().Foreground(lipgloss.Color("#FF3030")).Bold(true),
		},
		warn:  lipgloss.NewStyle().Foreground(lipgloss.Color("#FFB000")),
		fault: lipgloss.NewStyle().Foreground(lipgloss.Color("#FF3030")),
		dim:   lipgloss.NewStyle().Foreground(lipgloss.Color("#555555")),
	}
}

// Render formats one record as a single line
func (r *Renderer) Render(rec Record) string {
	if rec.Msg == "" {
		return r.dim.Render(rec.Raw)
	}

	rd, err := rec.Reading()
	if err != nil {
		return r.dim.Render(r.plain(rec))
	}

	if rd.RangingFailed() {
		style := r.fault
		if rec.Level == "WARN" {
			style = r.warn
		}
		return style.Render(fmt.Sprintf("#%-5d %10s  %s", rd.Cycle, "--", rd.Err))
	}

	line := fmt.Sprintf("#%-5d %7.3f cm  %-7s  %6d us", rd.Cycle, rd.DistanceCM, rd.State, rd.EchoUS)
	if !rd.Consistent() {
		line += "  (state disagrees with echo)"
	}
	line = r.state[rd.State].Render(line)
	if rd.Err != "" {
		stage := rd.Fault
		if stage == "" {
			stage = "fault"
		}
		line += r.fault.Render("  " + stage + ": " + rd.Err)
	}
	return line
}

func (r *Renderer) plain(rec Record) string {
	var b strings.Builder
	b.WriteString(rec.Level)
	b.WriteByte(' ')
	b.WriteString(rec.Msg)
	for _, a := range rec.Attrs {
		b.WriteByte(' ')
		b.WriteString(a.Key)
		b.WriteByte('=')
		b.WriteString(a.Value)
	}
	return b.String()
}
