package calendar

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss/v2"
)

// Options controls calendar styling.
type Options struct {
	TitleStyle      lipgloss.Style
	HeaderStyle     lipgloss.Style
	EntryStyle      lipgloss.Style
	CapturableStyle lipgloss.Style
	FutureStyle     lipgloss.Style
	TodayStyle      lipgloss.Style
	ShowHeader      bool
}

// DefaultOptions returns the styling used for calendar rendering.
func DefaultOptions() Options {
	return Options{
		TitleStyle:      lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("63")),
		HeaderStyle:     lipgloss.NewStyle().Foreground(lipgloss.Color("241")).Bold(true),
		EntryStyle:      lipgloss.NewStyle().Foreground(lipgloss.Color("15")).Background(lipgloss.Color("99")),
		CapturableStyle: lipgloss.NewStyle().Foreground(lipgloss.Color("250")),
		FutureStyle:     lipgloss.NewStyle().Foreground(lipgloss.Color("238")),
		TodayStyle:      lipgloss.NewStyle().Underline(true),
		ShowHeader:      true,
	}
}

// RenderMonth produces a multi-line month grid, weeks starting on Sunday.
func RenderMonth(m Month, opts Options) string {
	if m.Start.IsZero() {
		return ""
	}

	var lines []string
	title := m.Start.Format("January 2006")
	lines = append(lines, opts.TitleStyle.Render(center(title, weekWidth)))
	if opts.ShowHeader {
		lines = append(lines, opts.HeaderStyle.Render("Su Mo Tu We Th Fr Sa"))
	}

	startOffset := int(m.Start.Weekday())
	totalCells := startOffset + len(m.Days)
	rows := (totalCells + 6) / 7

	for row := 0; row < rows; row++ {
		var cells []string
		for col := 0; col < 7; col++ {
			idx := row*7 + col - startOffset
			if idx < 0 || idx >= len(m.Days) {
				cells = append(cells, "  ")
				continue
			}
			cells = append(cells, renderDay(m.Days[idx], opts))
		}
		lines = append(lines, strings.Join(cells, " "))
	}

	return strings.Join(lines, "\n")
}

const weekWidth = len("Su Mo Tu We Th Fr Sa")

func renderDay(d Day, opts Options) string {
	style := opts.CapturableStyle
	switch {
	case d.Entry != nil:
		style = opts.EntryStyle
	case d.Future:
		style = opts.FutureStyle
	}
	if d.Today {
		style = style.Inherit(opts.TodayStyle)
	}
	return style.Render(fmt.Sprintf("%2d", d.Day))
}

// RenderYear lays the twelve month cells out in rows of four.
func RenderYear(year int, cells []MonthCell, opts Options) string {
	var lines []string
	lines = append(lines, opts.TitleStyle.Render(fmt.Sprintf("%d", year)))
	for row := 0; row*4 < len(cells); row++ {
		var parts []string
		for _, c := range cells[row*4 : min(len(cells), row*4+4)] {
			parts = append(parts, renderMonthCell(c, opts))
		}
		lines = append(lines, strings.Join(parts, "  "))
	}
	return strings.Join(lines, "\n")
}

func renderMonthCell(c MonthCell, opts Options) string {
	name := c.Month.String()[:3]
	text := fmt.Sprintf("%s %3s", name, "")
	style := opts.CapturableStyle
	switch {
	case c.Disabled:
		style = opts.FutureStyle
	case c.HasMemories:
		text = fmt.Sprintf("%s %3d", name, c.Count)
		style = opts.EntryStyle
	}
	return style.Render(text)
}

func center(s string, width int) string {
	if len(s) >= width {
		return s
	}
	mid := (width - len(s)) / 2
	return strings.Repeat(" ", mid) + s + strings.Repeat(" ", width-mid-len(s))
}
