package commands

import (
	"github.com/spf13/cobra"

	"tableflip.dev/daily/pkg/commands/options"
	"tableflip.dev/daily/pkg/runner/timeline"
)

func addTimeline(topLevel *cobra.Command) {
	io := &options.IDOptions{}
	oo := &options.OutputOptions{}
	var asc, resolve bool

	cmd := &cobra.Command{
		Use:     "timeline",
		Aliases: []string{"tl", "ls"},
		Short:   "List memories grouped by month.",
		Example: `
daily timeline
daily timeline --asc --show-id
daily timeline --json
daily timeline --resolve
`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true
			s, err := openSession(cmd.Context())
			if err != nil {
				return oo.HandleError(err)
			}
			defer s.Close()

			t := timeline.Timeline{
				Journal:   s.Journal,
				Ascending: asc,
				ShowID:    io.ShowID,
				JSON:      oo.JSON,
			}
			if resolve {
				t.Images = s.images()
			}
			err = t.Do(cmd.Context())
			return oo.HandleError(err)
		},
	}

	cmd.Flags().BoolVar(&asc, "asc", false, "Oldest first.")
	cmd.Flags().BoolVar(&resolve, "resolve", false, "Print a file path or URL for each photo so it can be opened.")
	options.AddShowIDArgs(cmd, io)
	options.AddOutputArg(cmd, oo)

	topLevel.AddCommand(cmd)
}
