package main

import (
	"job-applier/internal/bootstrap"

	"github.com/spf13/cobra"
)

var consoleCmd = &cobra.Command{
	Use:   "console",
	Short: "Start the interactive console",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		app := bootstrap.NewApp()
		if err := app.Err(); err != nil {
			return err
		}

		app.Run()

		return nil
	},
}

func init() {
	rootCmd.AddCommand(consoleCmd)
}
