package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/garnizeh/crm/pkg/models"
)

var (
	colorHeader = lipgloss.Color("#fe8019")
	colorDim    = lipgloss.Color("#928374")
	colorGreen  = lipgloss.Color("#8ec07c")
	colorYellow = lipgloss.Color("#fabd2f")
	colorRed    = lipgloss.Color("#fb4934")

	styleHeader = lipgloss.NewStyle().Foreground(colorHeader).Bold(true)
	styleDim    = lipgloss.NewStyle().Foreground(colorDim)
	styleGreen  = lipgloss.NewStyle().Foreground(colorGreen)
	styleYellow = lipgloss.NewStyle().Foreground(colorYellow)
	styleRed    = lipgloss.NewStyle().Foreground(colorRed)
	styleTitle  = lipgloss.NewStyle().Bold(true).Underline(true)
)

type printer struct {
	w      io.Writer
	styled bool
}

func (a *App) printer(w io.Writer) printer { return printer{w: w, styled: a.Styled} }

// table writes rows either as an aligned lipgloss table or as TSV.
func (p printer) table(headers []string, rows [][]string) {
	if !p.styled {
		fmt.Fprintln(p.w, strings.Join(headers, "\t"))
		for _, r := range rows {
			fmt.Fprintln(p.w, strings.Join(r, "\t"))
		}
		return
	}
	fmt.Fprint(p.w, renderTable(headers, rows))
}

func (p printer) title(s string) {
	if p.styled {
		fmt.Fprintln(p.w, styleTitle.Render(s))
		return
	}
	fmt.Fprintf(p.w, "# %s\n", s)
}

// fields writes label/value pairs, one per line.
func (p printer) fields(pairs ...string) {
	for i := 0; i+1 < len(pairs); i += 2 {
		label := pairs[i]
		if p.styled {
			label = styleDim.Render(label + ":")
			fmt.Fprintf(p.w, "%s %s\n", label, pairs[i+1])
			continue
		}
		fmt.Fprintf(p.w, "%s\t%s\n", label, pairs[i+1])
	}
}

// notice prints a section-level failure without aborting the command.
func (p printer) notice(section, msg string) {
	if p.styled {
		fmt.Fprintf(p.w, "%s %s\n", styleRed.Render("! "+section+":"), msg)
		return
	}
	fmt.Fprintf(p.w, "! %s: %s\n", section, msg)
}

func (p printer) status(s string) string {
	if !p.styled {
		return s
	}
	switch s {
	case string(models.StatusCompleted), string(models.FundingApproved), string(models.FundingFunded), string(models.PhaseDeployment):
		return styleGreen.Render(s)
	case string(models.FundingRejected):
		return styleRed.Render(s)
	case string(models.StatusInProgress), string(models.StageNegotiation):
		return styleYellow.Render(s)
	}
	return s
}

func renderTable(headers []string, rows [][]string) string {
	if len(headers) == 0 {
		return ""
	}
	const colGap = 2
	cols := len(headers)
	widths := make([]int, cols)
	for i, h := range headers {
		widths[i] = lipgloss.Width(h)
	}
	for _, row := range rows {
		for i := 0; i < cols && i < len(row); i++ {
			if w := lipgloss.Width(row[i]); w > widths[i] {
				widths[i] = w
			}
		}
	}

	var b strings.Builder
	writeRow := func(cells []string, style func(string) string) {
		for i := 0; i < cols; i++ {
			cell := ""
			if i < len(cells) {
				cell = cells[i]
			}
			b.WriteString(style(cell))
			if i < cols-1 {
				b.WriteString(strings.Repeat(" ", max(widths[i]-lipgloss.Width(cell), 0)+colGap))
			}
		}
		b.WriteString("\n")
	}

	writeRow(headers, func(s string) string { return styleHeader.Render(s) })
	sep := make([]string, cols)
	for i, w := range widths {
		sep[i] = strings.Repeat("─", w)
	}
	writeRow(sep, func(s string) string { return styleDim.Render(s) })
	for _, r := range rows {
		writeRow(r, func(s string) string { return s })
	}
	return b.String()
}

func money(v float64) string { return fmt.Sprintf("%.2f", v) }
