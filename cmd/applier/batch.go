package main

import (
	"context"
	"fmt"

	"job-applier/internal/bootstrap"
	"job-applier/internal/console"
	"job-applier/internal/entity"
	"job-applier/internal/profile"
	"job-applier/internal/usecase"

	"github.com/spf13/cobra"
)

var batchCmd = &cobra.Command{
	Use:   "batch <jobs.yaml>",
	Short: "Apply to every job listed in a YAML file",
	Long:  "Reads a {jobs: [...]} YAML file and applies to each posting with bounded concurrency and pacing.",
	Args:  cobra.ExactArgs(1),
	RunE:  runBatch,
}

func init() {
	rootCmd.AddCommand(batchCmd)
}

func runBatch(cmd *cobra.Command, args []string) error {
	jobs, err := profile.LoadJobs(args[0])
	if err != nil {
		return err
	}

	var (
		svc       *usecase.Service
		applicant *entity.ApplicantProfile
	)

	return bootstrap.Execute(cmd.Context(), true, func(ctx context.Context) error {
		attempts := svc.Batch.Run(ctx, jobs, applicant)

		out := cmd.OutOrStdout()
		for _, attempt := range attempts {
			console.PrintAttempt(out, attempt)
			fmt.Fprintln(out)
		}

		return ctx.Err()
	}, &svc, &applicant)
}
