package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"tolk/internal/queue"
	"tolk/internal/workflow"
)

func newResetCommand(ctx *commandContext) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Discard every queued chunk and translation",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				return errors.New("reset discards all progress; re-run with --yes to confirm")
			}
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			lock, err := workflow.AcquireLock(workflow.LockPath(cfg))
			if err != nil {
				return err
			}
			defer lock.Unlock()

			return ctx.withStore(func(store *queue.Store) error {
				stats, err := store.Stats(cmd.Context())
				if err != nil {
					return err
				}
				if err := store.Reset(cmd.Context()); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Queue cleared (%d chunks, %d translations removed)\n",
					stats.Total(), stats.Translations)
				return nil
			})
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Confirm the reset")
	return cmd
}
