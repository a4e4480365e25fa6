package options

import (
	"github.com/spf13/cobra"
)

// LoggingOptions
type LoggingOptions struct {
	Level   string
	Verbose bool
}

func AddLoggingArgs(cmd *cobra.Command, o *LoggingOptions) {
	cmd.PersistentFlags().StringVar(&o.Level, "log-level", "",
		"Log level: debug, info, warn or error. Overrides log.level from the config.")
	cmd.PersistentFlags().BoolVarP(&o.Verbose, "verbose", "v", false,
		"Shorthand for --log-level=debug.")
}

// Resolve picks the effective level, falling back to configured.
func (o *LoggingOptions) Resolve(configured string) string {
	switch {
	case o.Verbose:
		return "debug"
	case o.Level != "":
		return o.Level
	default:
		return configured
	}
}
