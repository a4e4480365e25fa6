package commands

import (
	"errors"

	"github.com/spf13/cobra"

	"tableflip.dev/daily/pkg/commands/options"
	"tableflip.dev/daily/pkg/runner/calendar"
)

func addCalendar(topLevel *cobra.Command) {
	io := &options.IDOptions{}
	oo := &options.OutputOptions{}
	var (
		month string
		year  int
	)

	cmd := &cobra.Command{
		Use:     "calendar",
		Aliases: []string{"cal"},
		Short:   "Show a month of memories, or a year at a glance.",
		Example: `
daily calendar
daily calendar --month 2024-02
daily calendar --year 2024
`,
		Args: cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, args []string) error {
			if month != "" && year != 0 {
				return errors.New("--month and --year can not be combined")
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true
			s, err := openSession(cmd.Context())
			if err != nil {
				return oo.HandleError(err)
			}
			defer s.Close()

			c := calendar.Calendar{
				Journal: s.Journal,
				Month:   month,
				Year:    year,
				ShowID:  io.ShowID,
				JSON:    oo.JSON,
			}
			err = c.Do(cmd.Context())
			return oo.HandleError(err)
		},
	}

	cmd.Flags().StringVarP(&month, "month", "m", "", "Month to show as YYYY-MM. Defaults to this month.")
	cmd.Flags().IntVarP(&year, "year", "y", 0, "Show the twelve-month overview for a year.")
	options.AddShowIDArgs(cmd, io)
	options.AddOutputArg(cmd, oo)

	topLevel.AddCommand(cmd)
}
