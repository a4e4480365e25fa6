package printers

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/gosuri/uitable"
	"github.com/muesli/reflow/wordwrap"

	"tableflip.dev/daily/pkg/memory"
	"tableflip.dev/daily/pkg/timeline"
)

const captionWidth = 60

type PrettyPrint struct {
	ShowID bool
	// Images, when set, prints openable handles in place of image labels.
	Images *ImageResolver
	// Out defaults to color.Output.
	Out io.Writer
}

func (pp *PrettyPrint) imageLabel(e *memory.Entry) string {
	if pp.Images == nil {
		return ImageLabel(e.Image)
	}
	return pp.Images.label(e)
}

func (pp *PrettyPrint) out() io.Writer {
	if pp.Out == nil {
		return color.Output
	}
	return pp.Out
}

func (pp *PrettyPrint) NewLine() {
	_, _ = fmt.Fprintln(pp.out(), "")
}

func (pp *PrettyPrint) Title(title string) {
	t := color.New(color.Bold, color.Underline)
	_, _ = t.Fprintln(pp.out(), title)
}

func (pp *PrettyPrint) TitleWithCount(title string, count int) {
	t := color.New(color.Bold, color.Underline)
	c := color.New(color.Faint)

	_, _ = t.Fprint(pp.out(), title)
	_, _ = c.Fprintf(pp.out(), " - %d", count)

	switch count {
	case 1:
		_, _ = c.Fprintln(pp.out(), " memory")
	default:
		_, _ = c.Fprintln(pp.out(), " memories")
	}
}

// Unavailable explains that the store could not be read.
func (pp *PrettyPrint) Unavailable(err error) {
	w := color.New(color.FgYellow, color.Bold)
	_, _ = w.Fprintln(pp.out(), "Memories are unavailable right now.")
	if err != nil {
		_, _ = color.New(color.Faint).Fprintf(pp.out(), "  %v\n", err)
	}
}

// CaptureHint nudges towards today's photo.
func (pp *PrettyPrint) CaptureHint(today string) {
	h := color.New(color.FgHiMagenta, color.Bold)
	f := color.New(color.Faint)
	_, _ = h.Fprintln(pp.out(), "Capture today")
	_, _ = f.Fprintf(pp.out(), "  No memory for %s yet: daily capture <image>\n\n", today)
}

// Timeline prints each month group as a table.
func (pp *PrettyPrint) Timeline(groups []timeline.Group) {
	if len(groups) == 0 {
		f := color.New(color.Faint, color.Italic)
		_, _ = f.Fprint(pp.out(), " no memories yet\n\n")
		return
	}
	for _, g := range groups {
		pp.TitleWithCount(g.Label, len(g.Entries))
		pp.Entries(g.Entries...)
	}
}

// Entries prints one row per entry.
func (pp *PrettyPrint) Entries(entries ...*memory.Entry) {
	y := color.New(color.FgHiYellow, color.Italic, color.Faint)
	d := color.New(color.Bold)
	f := color.New(color.Faint)

	tbl := uitable.New()
	tbl.Separator = "  "
	for _, e := range entries {
		row := []interface{}{}
		if pp.ShowID {
			row = append(row, y.Sprint(e.ID))
		}
		row = append(row, d.Sprint(dayLabel(e)), Caption(e.Caption, captionWidth), f.Sprint(pp.imageLabel(e)))
		tbl.AddRow(row...)
	}
	_, _ = fmt.Fprintln(pp.out(), tbl)
	pp.NewLine()
}

// Detail prints a single entry in full.
func (pp *PrettyPrint) Detail(e *memory.Entry) {
	bold := color.New(color.Bold)
	f := color.New(color.Faint)

	tbl := uitable.New()
	tbl.Separator = "  "
	tbl.AddRow(bold.Sprint("id"), e.ID)
	tbl.AddRow(bold.Sprint("date"), dayLabel(e))
	tbl.AddRow(bold.Sprint("captured"), e.Captured().Format("2006-01-02 15:04:05"))
	tbl.AddRow(bold.Sprint("caption"), Caption(e.Caption, captionWidth))
	tbl.AddRow(bold.Sprint("image"), f.Sprint(pp.imageLabel(e)))
	tbl.RightAlign(0)
	_, _ = fmt.Fprintln(pp.out(), tbl)
}

func dayLabel(e *memory.Entry) string {
	t, err := e.Day()
	if err != nil {
		return e.Date
	}
	return t.Format("Mon Jan 2")
}

// Caption word-wraps a caption; empty captions render as a dash.
func Caption(caption string, width int) string {
	caption = strings.TrimSpace(caption)
	if caption == "" {
		return "-"
	}
	return wordwrap.String(caption, width)
}

// ImageLabel describes where the photo lives.
func ImageLabel(img memory.ImageRef) string {
	switch {
	case img.Inline():
		return fmt.Sprintf("[%s inline]", humanSize(len(img.Data)))
	case img.URL != "":
		return img.URL
	default:
		return "[no image]"
	}
}

func humanSize(n int) string {
	switch {
	case n >= 1<<20:
		return fmt.Sprintf("%.1f MB", float64(n)/(1<<20))
	case n >= 1<<10:
		return fmt.Sprintf("%.1f KB", float64(n)/(1<<10))
	default:
		return fmt.Sprintf("%d B", n)
	}
}
