package main

import (
	"context"

	"job-applier/internal/bootstrap"
	"job-applier/internal/console"
	"job-applier/internal/usecase"

	"github.com/spf13/cobra"
)

var historyCmd = &cobra.Command{
	Use:     "history",
	Aliases: []string{"ls"},
	Short:   "Print the application log",
	Args:    cobra.NoArgs,
	RunE:    runHistory,
}

func init() {
	rootCmd.AddCommand(historyCmd)
}

func runHistory(cmd *cobra.Command, _ []string) error {
	var svc *usecase.Service

	return bootstrap.Execute(cmd.Context(), false, func(ctx context.Context) error {
		records, err := svc.History.List(ctx)
		if err != nil {
			return err
		}

		console.PrintHistory(cmd.OutOrStdout(), records)

		return nil
	}, &svc)
}
