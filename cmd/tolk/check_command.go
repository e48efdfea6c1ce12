package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"tolk/internal/preflight"
	"tolk/internal/queue"
)

func newCheckCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Verify directories, disk space, the queue database, and the model backend",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			term := newTerminal(out)

			var results []preflight.Result
			translator, tErr := newTranslator(cmd.Context(), cfg.GetModel())
			if tErr != nil {
				translator = nil
			}
			err = ctx.withStore(func(store *queue.Store) error {
				results = preflight.RunAll(cmd.Context(), cfg, store, translator)
				return nil
			})
			if err != nil {
				results = append(results, preflight.Result{Name: "Queue database", Detail: err.Error()})
			}
			if tErr != nil {
				results = append(results, preflight.Result{Name: "Model (" + cfg.Model.Backend + ")", Detail: tErr.Error()})
			}

			term.header(out, "Preflight")
			for _, result := range results {
				fmt.Fprintln(out, term.checkLine(result))
			}
			if preflight.Failed(results) {
				return errors.New("preflight checks failed")
			}
			return nil
		},
	}
}
