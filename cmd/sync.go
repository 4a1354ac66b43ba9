package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var syncAll bool

// syncCmd runs sync units one-shot, the way cron invokes them.
var syncCmd = &cobra.Command{
	Use:   "sync [unit]",
	Short: "Run one sync unit (or all of them) and exit",
	Long: `Runs the named sync unit once and exits non-zero if the run failed.
With --all, every declared unit runs sequentially in declaration order; a
failed unit does not stop the ones after it.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := bootstrap()
		if err != nil {
			return err
		}
		defer a.log.Sync()

		ctx := cmd.Context()

		if syncAll {
			if len(args) > 0 {
				return fmt.Errorf("cannot combine --all with a unit name")
			}
			results, err := a.runner.RunAll(ctx)
			a.log.Info("run-all finished", zap.Int("units", len(results)))
			return err
		}

		if len(args) != 1 {
			return fmt.Errorf("a unit name is required (or pass --all); declared units: %v", a.runner.Names())
		}

		res, err := a.runner.Run(ctx, args[0])
		if err != nil {
			return err
		}
		if res.Summary.Failed > 0 {
			return fmt.Errorf("unit %q: %d records failed to apply", args[0], res.Summary.Failed)
		}
		return nil
	},
}

func init() {
	syncCmd.Flags().BoolVar(&syncAll, "all", false, "run every declared unit sequentially")
	RootCmd.AddCommand(syncCmd)
}
