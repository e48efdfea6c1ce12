package main

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"tolk/internal/logging"
	"tolk/internal/logs"
)

func newLogsCommand(ctx *commandContext) *cobra.Command {
	var lines int
	var follow bool
	var batch string

	cmd := &cobra.Command{
		Use:   "logs",
		Short: "Show the tolk log file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if cfg.Paths.LogDir == "" {
				return errors.New("file logging is disabled; set paths.log_dir")
			}
			path := filepath.Join(cfg.Paths.LogDir, logging.LogFileName)
			// The file copy is JSON with the full batch id on each record.
			match := strings.TrimSpace(batch)

			out := cmd.OutOrStdout()
			if follow {
				return logs.Follow(cmd.Context(), path, lines, match, func(line string) {
					fmt.Fprintln(out, line)
				})
			}
			result, err := logs.Tail(cmd.Context(), path, logs.TailOptions{Offset: -1, Limit: lines, Match: match})
			if err != nil {
				return err
			}
			for _, line := range result.Lines {
				fmt.Fprintln(out, line)
			}
			return nil
		},
	}
	cmd.Flags().IntVarP(&lines, "lines", "n", 50, "Number of lines to show")
	cmd.Flags().BoolVarP(&follow, "follow", "f", false, "Keep printing new lines")
	cmd.Flags().StringVar(&batch, "batch", "", "Only show lines for this batch id")
	return cmd
}
