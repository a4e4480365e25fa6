package commands

import (
	"github.com/spf13/cobra"

	"tableflip.dev/daily/pkg/runner/info"
)

func addInfo(topLevel *cobra.Command) {
	cmd := &cobra.Command{
		Use:   "info",
		Short: "Details about the configured store and its memories.",
		Example: `
daily info
`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmd.SilenceUsage = true
			s, err := openSession(cmd.Context())
			if err != nil {
				return err
			}
			defer s.Close()

			i := info.Info{
				Config:  s.Config,
				Journal: s.Journal,
			}
			return i.Do(cmd.Context())
		},
	}

	topLevel.AddCommand(cmd)
}
