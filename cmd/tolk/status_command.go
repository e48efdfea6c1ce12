package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"tolk/internal/language"
	"tolk/internal/queue"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the queued batch and chunk counts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(store *queue.Store) error {
				stats, err := store.Stats(cmd.Context())
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if stats.Batch == nil && stats.Total() == 0 && stats.Translations == 0 {
					fmt.Fprintln(out, "Queue is empty")
					return nil
				}
				fmt.Fprintln(out, renderKeyValues(statusPairs(stats)))
				return nil
			})
		},
	}
}

func statusPairs(stats queue.Stats) [][2]string {
	pairs := make([][2]string, 0, 8)
	if batch := stats.Batch; batch != nil {
		pairs = append(pairs,
			[2]string{"Batch", batch.ID},
			[2]string{"Source", batch.SourcePath},
			[2]string{"Languages", fmt.Sprintf("%s -> %s", language.DisplayName(batch.SrcLang), language.DisplayName(batch.TargetLang))},
			[2]string{"Status", string(batch.Status)},
			[2]string{"Started", batch.CreatedAt.Local().Format("2006-01-02 15:04:05")},
		)
	} else {
		pairs = append(pairs, [2]string{"Batch", displayBatchID("")})
	}
	pairs = append(pairs,
		[2]string{"Pending", strconv.Itoa(stats.Pending)},
		[2]string{"Done", strconv.Itoa(stats.Done)},
		[2]string{"Translations", strconv.Itoa(stats.Translations)},
	)
	return pairs
}
