package commands

import (
	"github.com/spf13/cobra"

	"tableflip.dev/daily/pkg/commands/options"
	"tableflip.dev/daily/pkg/runner/remove"
)

func addRemove(topLevel *cobra.Command) {
	oo := &options.OutputOptions{}

	cmd := &cobra.Command{
		Use:     "rm <id> [id...]",
		Aliases: []string{"remove", "delete"},
		Short:   "Delete stored memories by id.",
		Example: `
daily timeline --show-id
daily rm 1f0c3d2e9a7b4c1d8e2f3a4b5c6d7e8f
`,
		Args: cobra.MinimumNArgs(1),
		ValidArgsFunction: func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
			return idCompletions(cmd.Context(), toComplete), cobra.ShellCompDirectiveNoFileComp
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true
			s, err := openSession(cmd.Context())
			if err != nil {
				return oo.HandleError(err)
			}
			defer s.Close()

			r := remove.Remove{
				Journal: s.Journal,
				IDs:     args,
			}
			err = r.Do(cmd.Context())
			return oo.HandleError(err)
		},
	}

	options.AddOutputArg(cmd, oo)

	topLevel.AddCommand(cmd)
}
