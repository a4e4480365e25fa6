package commands

import (
	"github.com/spf13/cobra"

	"tableflip.dev/daily/pkg/runner/show"
	"tableflip.dev/daily/pkg/timeutil"
)

func addShow(topLevel *cobra.Command) {
	var interval string

	cmd := &cobra.Command{
		Use:     "show",
		Aliases: []string{"highlights", "play"},
		Short:   "Play a random highlight reel of your memories.",
		Long: `Draws up to 10 random memories and plays them full screen.

Keys: ←/h previous, →/l next, space play/stop, r reload, q quit.`,
		Example: `
daily show
daily show --interval 5s
`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true
			s, err := openSession(cmd.Context())
			if err != nil {
				return err
			}
			defer s.Close()

			d, err := timeutil.ParseInterval(interval, s.Config.SlideInterval())
			if err != nil {
				return err
			}
			r := show.Show{
				Journal:  s.Journal,
				Interval: d,
				Logger:   s.Logger,
				Images:   s.images(),
			}
			return r.Do(cmd.Context())
		},
	}

	cmd.Flags().StringVar(&interval, "interval", "", "Time each memory stays on screen, e.g. 3s or 1500ms. Overrides slideshow.interval.")

	topLevel.AddCommand(cmd)
}
