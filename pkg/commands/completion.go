package commands

import (
	"context"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"tableflip.dev/daily/pkg/journal"
	"tableflip.dev/daily/pkg/memory"
	"tableflip.dev/daily/pkg/store"
)

func addCompletions(topLevel *cobra.Command) {
	cmd := &cobra.Command{
		Use:   "completion",
		Short: "Generates bash completion scripts",
		Long: `To load completion run

. <(daily completion)

To configure your bash shell to load completions for each session add to your bashrc

# ~/.bashrc or ~/.profile
. <(daily completion)
`,
		Run: func(cmd *cobra.Command, args []string) {
			_ = topLevel.GenBashCompletion(os.Stdout)
		},
	}

	topLevel.AddCommand(cmd)
}

// idCompletions offers stored ids with their date and caption as the
// description.
func idCompletions(ctx context.Context, toComplete string) []string {
	if ctx == nil {
		ctx = context.Background()
	}
	p, err := store.Load(ctx, nil, nil)
	if err != nil {
		return nil
	}
	defer func() { _ = store.Close(p) }()
	return completionsFor((&journal.Service{Persistence: p}).Load(ctx).Set.Entries(), toComplete)
}

func completionsFor(entries []*memory.Entry, toComplete string) []string {
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		if !strings.HasPrefix(e.ID, toComplete) {
			continue
		}
		desc := e.Date
		if e.Caption != "" {
			desc += " " + strings.ReplaceAll(e.Caption, "\n", " ")
		}
		out = append(out, e.ID+"\t"+desc)
	}
	return out
}
