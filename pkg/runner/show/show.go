package show

import (
	"context"
	"errors"
	"math/rand/v2"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea/v2"
	"github.com/mattn/go-isatty"
	"go.uber.org/zap"

	"tableflip.dev/daily/pkg/journal"
	"tableflip.dev/daily/pkg/printers"
	"tableflip.dev/daily/pkg/slideshow"
)

// ErrNotATerminal is returned when stdout cannot host the full-screen show.
var ErrNotATerminal = errors.New("show needs an interactive terminal")

type Show struct {
	Journal  *journal.Service
	Interval time.Duration
	Rand     *rand.Rand
	Logger   *zap.Logger
	// Images resolves each slide's photo to a file path or URL.
	Images *printers.ImageResolver
}

func (n *Show) Do(ctx context.Context) error {
	if n.Journal == nil {
		return errors.New("can not show highlights, no journal")
	}
	fd := os.Stdout.Fd()
	if !isatty.IsTerminal(fd) && !isatty.IsCygwinTerminal(fd) {
		return ErrNotATerminal
	}

	opts := []slideshow.Option{slideshow.WithInterval(n.Interval)}
	if n.Journal.Clock != nil {
		opts = append(opts, slideshow.WithClock(n.Journal.Clock))
	}
	m := New(ctx, n.Journal, slideshow.New(opts...), n.Rand, n.Logger)
	m.Images = n.Images
	defer m.Close()

	_, err := tea.NewProgram(m, tea.WithAltScreen()).Run()
	return err
}
