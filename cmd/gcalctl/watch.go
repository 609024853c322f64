package main

import (
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"

	appLog "gcalctl/internal/log"
	"gcalctl/internal/timerange"
)

func newWatchCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "watch [d|w|m]",
		Short: "Re-list the period on the configured cron schedule until interrupted",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			token := periodArg(args)
			if _, err := timerange.For(token, a.now()); err != nil {
				return err
			}

			run := func() {
				entries, err := a.list(ctx, token)
				if err != nil {
					appLog.Error("watch: list failed", err, "period", token)
					return
				}
				fmt.Fprintf(a.out, "# %s\n", a.now().In(a.loc).Format(time.RFC1123))
				if err := a.renderList(entries); err != nil {
					appLog.Error("watch: render failed", err)
				}
			}

			c := cron.New(
				cron.WithLocation(a.loc),
				cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)),
			)
			if _, err := c.AddFunc(a.cfg.WatchSchedule, run); err != nil {
				return fmt.Errorf("watch schedule %q: %w", a.cfg.WatchSchedule, err)
			}

			run()
			c.Start()
			appLog.Info("watch: started", "schedule", a.cfg.WatchSchedule, "period", token)

			<-ctx.Done()
			<-c.Stop().Done()
			appLog.Info("watch: stopped")
			return nil
		},
	}
}
