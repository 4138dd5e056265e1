package cmd

import (
	"github.com/spf13/cobra"

	"github.com/Mohsinsiddi/hhbridge/internal/ui"
)

var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Run queued classification and verification jobs until interrupted",
	Long: `Process jobs from the configured queue until SIGINT/SIGTERM.

Use queue.driver=redis so jobs queued by other hhbridge invocations reach
the worker. With the memory queue only jobs queued by this process run.`,
	Args:        cobra.NoArgs,
	Annotations: hardhatCommand,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := loadApp(cmd)
		if err != nil {
			return err
		}
		if a.Synchronous() {
			a.Log.Warn("queue.driver is memory; the worker will only see jobs it queues itself")
		}
		cmd.Println(ui.Info("Worker started, press Ctrl+C to stop."))
		if err := a.Queue.Run(cmd.Context()); err != nil {
			return err
		}
		cmd.Println(ui.Info("Worker stopped."))
		return nil
	},
}
