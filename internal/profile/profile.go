// Package profile loads the applicant profile and job lists.
package profile

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"job-applier/internal/entity"
	"job-applier/pkg/apperr"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// Load reads and validates a YAML applicant profile. Missing first/last
// names are derived from the full name.
func Load(path string) (*entity.ApplicantProfile, error) {
	const op = "LoadProfile"

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, apperr.InvalidReqError(op, "profile", err)
	}

	var p entity.ApplicantProfile
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, apperr.InvalidReqError(op, "profile", fmt.Errorf("parse %s: %w", path, err))
	}

	split(&p)

	if err := Validate(&p); err != nil {
		return nil, apperr.InvalidReqError(op, "profile", err)
	}

	return &p, nil
}

// Validate checks struct tags and that the résumé file exists.
func Validate(p *entity.ApplicantProfile) error {
	if err := validate.Struct(p); err != nil {
		return describe(err)
	}

	if _, err := os.Stat(p.ResumeFilePath); err != nil {
		return fmt.Errorf("resume file: %w", err)
	}

	return nil
}

func split(p *entity.ApplicantProfile) {
	parts := strings.Fields(p.FullName)
	if len(parts) < 2 {
		return
	}

	if p.FirstName == "" {
		p.FirstName = parts[0]
	}

	if p.LastName == "" {
		p.LastName = strings.Join(parts[1:], " ")
	}
}

type jobList struct {
	Jobs []entity.Job `yaml:"jobs" validate:"dive"`
}

// LoadJobs reads a YAML job list. Entries repeated by URL are dropped.
func LoadJobs(path string) ([]entity.Job, error) {
	const op = "LoadJobs"

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, apperr.InvalidReqError(op, "jobs", err)
	}

	var list jobList
	if err := yaml.Unmarshal(data, &list); err != nil {
		return nil, apperr.InvalidReqError(op, "jobs", fmt.Errorf("parse %s: %w", path, err))
	}

	if err := validate.Struct(list); err != nil {
		return nil, apperr.InvalidReqError(op, "jobs", describe(err))
	}

	seen := make(map[string]struct{}, len(list.Jobs))
	out := make([]entity.Job, 0, len(list.Jobs))

	for _, j := range list.Jobs {
		if _, ok := seen[j.URL]; ok {
			continue
		}

		seen[j.URL] = struct{}{}
		out = append(out, j)
	}

	return out, nil
}

// ValidateJob checks a single job given on the command line.
func ValidateJob(j entity.Job) error {
	if err := validate.Struct(j); err != nil {
		return apperr.InvalidReqError("ValidateJob", "url", describe(err))
	}

	return nil
}

func describe(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}

	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fmt.Sprintf("%s failed %q", fe.Namespace(), fe.Tag()))
	}

	return errors.New(strings.Join(msgs, "; "))
}
