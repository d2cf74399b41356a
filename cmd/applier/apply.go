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

var applyCmd = &cobra.Command{
	Use:   "apply <url>",
	Short: "Apply to a single job posting",
	Args:  cobra.ExactArgs(1),
	RunE:  runApply,
}

var (
	applyCompany string
	applyRole    string
)

func init() {
	applyCmd.Flags().StringVar(&applyCompany, "company", "", "Company name recorded with the attempt")
	applyCmd.Flags().StringVar(&applyRole, "role", "", "Role title recorded with the attempt")

	rootCmd.AddCommand(applyCmd)
}

func runApply(cmd *cobra.Command, args []string) error {
	job := entity.Job{URL: args[0], Company: applyCompany, Role: applyRole}
	if err := profile.ValidateJob(job); err != nil {
		return err
	}

	var (
		svc       *usecase.Service
		applicant *entity.ApplicantProfile
	)

	return bootstrap.Execute(cmd.Context(), true, func(ctx context.Context) error {
		attempt := svc.Application.Apply(ctx, job, applicant)
		console.PrintAttempt(cmd.OutOrStdout(), attempt)

		if attempt.Outcome == entity.OutcomeFailed {
			return fmt.Errorf("application failed: %s", attempt.Error)
		}

		return nil
	}, &svc, &applicant)
}
