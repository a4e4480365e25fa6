package commands

import (
	"context"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	base "github.com/n3wscott/cli-base/pkg/commands/options"

	"tableflip.dev/daily/pkg/commands/options"
	"tableflip.dev/daily/pkg/journal"
	"tableflip.dev/daily/pkg/logging"
	"tableflip.dev/daily/pkg/printers"
	"tableflip.dev/daily/pkg/store"
)

var (
	lo = &options.LoggingOptions{}
)

func New() *cobra.Command {

	cmd := &cobra.Command{
		Use:   "daily",
		Short: base.Wrap80("One photo a day, kept as a journal of memories on the command line."),
		// main reports errors.
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	options.AddLoggingArgs(cmd, lo)
	AddCommands(cmd)
	return cmd
}

func AddCommands(topLevel *cobra.Command) {
	addCapture(topLevel)
	addRemove(topLevel)
	addTimeline(topLevel)
	addCalendar(topLevel)
	addShow(topLevel)
	addInfo(topLevel)
	addMCP(topLevel)
	addVersion(topLevel)
	addCompletions(topLevel)
}

// session is what a command needs to reach the journal.
type session struct {
	Config  *store.FileConfig
	Logger  *zap.Logger
	Journal *journal.Service

	persistence store.Persistence
}

func openSession(ctx context.Context) (*session, error) {
	cfg, err := store.LoadConfig()
	if err != nil {
		return nil, err
	}
	logger, err := logging.New(lo.Resolve(cfg.LogLevel()))
	if err != nil {
		return nil, err
	}
	p, err := store.Load(ctx, cfg, logger)
	if err != nil {
		_ = logger.Sync()
		return nil, err
	}
	logger.Debug("opened store", zap.String("backend", cfg.Backend()), zap.String("path", cfg.BasePath()))
	return &session{
		Config:      cfg,
		Logger:      logger,
		Journal:     &journal.Service{Persistence: p, Logger: logger},
		persistence: p,
	}, nil
}

// images resolves photos into the configured images.dir.
func (s *session) images() *printers.ImageResolver {
	return &printers.ImageResolver{Dir: s.Config.ImageDir()}
}

func (s *session) Close() {
	if err := store.Close(s.persistence); err != nil {
		s.Logger.Warn("closing store", zap.Error(err))
	}
	_ = s.Logger.Sync()
}
