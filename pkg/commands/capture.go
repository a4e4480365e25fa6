package commands

import (
	"github.com/spf13/cobra"

	"tableflip.dev/daily/pkg/commands/options"
	"tableflip.dev/daily/pkg/runner/capture"
)

func addCapture(topLevel *cobra.Command) {
	do := &options.DateOptions{}
	io := &options.IDOptions{}
	oo := &options.OutputOptions{}
	var caption string

	cmd := &cobra.Command{
		Use:     "capture <image>",
		Aliases: []string{"add", "snap"},
		Short:   "Capture the photo for a day.",
		Long: `Store a photo as the memory for a day. <image> is a file path, an http(s)
URL or "-" to read stdin. Capturing a day twice keeps both; the newest
capture is the one shown.`,
		Example: `
daily capture ~/Pictures/sunrise.jpg --caption "first light"
daily capture https://example.com/pier.jpg --date 2/28
daily capture photo.jpg --date 2024-2-28 --replace 1f0c3d2e
`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true
			s, err := openSession(cmd.Context())
			if err != nil {
				return oo.HandleError(err)
			}
			defer s.Close()

			date, err := do.GetDate(s.Journal.Now())
			if err != nil {
				return oo.HandleError(err)
			}
			c := capture.Capture{
				Journal:   s.Journal,
				Source:    args[0],
				Date:      date,
				Caption:   caption,
				ReplaceID: io.ID,
				ShowID:    io.ShowID,
				JSON:      oo.JSON,
				Images:    s.images(),
				Stdin:     cmd.InOrStdin(),
			}
			err = c.Do(cmd.Context())
			return oo.HandleError(err)
		},
	}

	cmd.Flags().StringVarP(&caption, "caption", "c", "", "Caption for the memory.")
	options.AddDateArgs(cmd, do)
	options.AddReplaceArgs(cmd, io)
	options.AddShowIDArgs(cmd, io)
	options.AddOutputArg(cmd, oo)
	_ = cmd.RegisterFlagCompletionFunc("replace", func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		return idCompletions(cmd.Context(), toComplete), cobra.ShellCompDirectiveNoFileComp
	})

	topLevel.AddCommand(cmd)
}
