package remove

import (
	"context"
	"errors"
	"io"

	"github.com/fatih/color"

	"tableflip.dev/daily/pkg/journal"
)

type Remove struct {
	Journal *journal.Service
	IDs     []string
	Out     io.Writer
}

// Do removes every id in order and stops at the first failure.
func (n *Remove) Do(ctx context.Context) error {
	if n.Journal == nil {
		return errors.New("can not remove, no journal")
	}
	if len(n.IDs) == 0 {
		return errors.New("no ids given")
	}
	out := n.Out
	if out == nil {
		out = color.Output
	}
	f := color.New(color.Faint)
	for _, id := range n.IDs {
		if err := n.Journal.Remove(ctx, id); err != nil {
			return err
		}
		_, _ = f.Fprintf(out, "removed %s\n", id)
	}
	return nil
}
