package main

import (
	"fmt"
	"os"
	"strconv"
	"unicode/utf8"

	"github.com/spf13/cobra"

	"tolk/internal/chunker"
	"tolk/internal/config"
)

func newChunkCommand(ctx *commandContext) *cobra.Command {
	var maxLength int
	var verbose bool
	cmd := &cobra.Command{
		Use:   "chunk [file]",
		Short: "Preview how a document would be split, without queueing it",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			overrides := config.Overrides{MaxChunkLength: maxLength}
			if len(args) == 1 {
				overrides.FileName = args[0]
			}
			if err := cfg.Apply(overrides); err != nil {
				return err
			}

			path := cfg.SourcePath()
			data, err := os.ReadFile(path)
			if err != nil {
				return fmt.Errorf("read source: %w", err)
			}
			chunks := chunker.Split(string(data), cfg.Translation.MaxChunkLength)

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s: %d chunks (max %d characters)\n", path, len(chunks), cfg.Translation.MaxChunkLength)
			if len(chunks) == 0 {
				return nil
			}
			rows := make([][]string, 0, len(chunks))
			for i, chunk := range chunks {
				row := []string{strconv.Itoa(i + 1), strconv.Itoa(utf8.RuneCountInString(chunk))}
				if verbose {
					row = append(row, preview(chunk, 60))
				}
				rows = append(rows, row)
			}
			headers := []string{"#", "Length"}
			if verbose {
				headers = append(headers, "Text")
			}
			fmt.Fprintln(out, renderTable(headers, rows, 1, 2))
			return nil
		},
	}
	cmd.Flags().IntVar(&maxLength, "max-length", 0, "Maximum chunk length in characters")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Show the start of each chunk")
	return cmd
}

func preview(text string, limit int) string {
	if utf8.RuneCountInString(text) <= limit {
		return text
	}
	runes := []rune(text)
	return string(runes[:limit-3]) + "..."
}
