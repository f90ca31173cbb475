package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/yanet-platform/logsubsys/internal/xcmd"
	"github.com/yanet-platform/logsubsys/logging"
	"github.com/yanet-platform/logsubsys/subsys"
)

func newWatchCmd(cmd *Cmd) *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Apply the configuration file whenever it changes",
		Long:  `Apply the configuration file whenever it changes.

Messages gathered but above their subsystem's log level are kept in memory
and written out on SIGHUP and on exit.`,
		Args: cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			if cmd.ConfigPath == "" {
				return fmt.Errorf("--config is required for watch")
			}

			err := watch(*cmd)
			if errors.As(err, &xcmd.Interrupted{}) {
				return nil
			}
			return err
		},
	}
}

// reloadDetailLevel is the level of subsystem 0 at which every reload also
// prints the full level table.
const reloadDetailLevel = 5

func watch(cmd Cmd) error {
	cfg, err := cmd.loadConfig()
	if err != nil {
		return err
	}
	descs, err := cmd.loadCatalog()
	if err != nil {
		return err
	}

	logger, atom, err := logging.Init(cfg, descs)
	if err != nil {
		return err
	}
	defer logger.Sync()

	log := logger.Sugar()
	detail := logger.Sub(0).Gate(reloadDetailLevel)
	admin := logging.NewAdmin(logger.Map(), &atom, logging.WithLog(log))

	watcher := logging.NewWatcher(cmd.ConfigPath, admin,
		logging.WithWatcherLog(log),
		logging.WithOnReload(func(*logging.Config) {
			reportLevels(log, detail, admin.Snapshot())
		}),
	)

	ctx := context.Background()
	wg, ctx := errgroup.WithContext(ctx)
	wg.Go(func() error {
		return watcher.Run(ctx)
	})
	wg.Go(func() error {
		return xcmd.Handle(ctx, func(os.Signal) {
			n := logger.DumpRecent()
			log.Infof("dumped %d recent messages", n)
		}, syscall.SIGHUP)
	})
	wg.Go(func() error {
		err := xcmd.WaitInterrupted(ctx)
		log.Infof("caught signal: %v", err)
		logger.DumpRecent()
		return err
	})

	return wg.Wait()
}

// reportLevels logs the level table at info level when the gate is open.
func reportLevels(log *zap.SugaredLogger, detail subsys.Gate, entries []logging.Entry) {
	if !detail.Open() {
		return
	}
	for _, e := range entries {
		log.Infow("subsystem levels",
			"subsys", e.Name,
			"levels", logging.Levels{Log: e.Log, Gather: e.Gather}.String(),
			"effective", e.Effective,
		)
	}
}
