package profile

import (
	"os"
	"path/filepath"
	"testing"

	"job-applier/internal/entity"
	"job-applier/pkg/apperr"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func write(t *testing.T, name, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	return path
}

func TestLoadProfile(t *testing.T) {
	resume := write(t, "cv.pdf", "%PDF-1.4")
	path := write(t, "profile.yaml", `
full_name: Ada Lovelace Byron
email: ada@example.com
phone: "+31 6 1234 5678"
linkedin_url: https://www.linkedin.com/in/ada
resume_file_path: `+resume+`
consent: true
screening_answers:
  q_relocate: true
  q_visa: false
`)

	p, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "Ada", p.FirstName)
	assert.Equal(t, "Lovelace Byron", p.LastName)
	assert.Equal(t, "ada@example.com", p.Key())
	assert.Equal(t, map[string]bool{"q_relocate": true, "q_visa": false}, p.ScreeningAnswers)
}

func TestLoadProfileRejectsInvalid(t *testing.T) {
	resume := write(t, "cv.pdf", "%PDF-1.4")

	tests := []struct {
		name string
		yaml string
	}{
		{"missing email", "full_name: Ada\nresume_file_path: " + resume},
		{"bad email", "full_name: Ada\nemail: nope\nresume_file_path: " + resume},
		{"missing resume file", "full_name: Ada\nemail: ada@example.com\nresume_file_path: /does/not/exist.pdf"},
		{"bad yaml", "full_name: [Ada"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(write(t, "profile.yaml", tt.yaml))

			require.Error(t, err)
			assert.True(t, apperr.Is(err, apperr.CodeInvalidArgument))
		})
	}
}

func TestLoadJobsDeduplicates(t *testing.T) {
	path := write(t, "jobs.yaml", `
jobs:
  - url: https://acme.join.com/jobs/1
    company: Acme
  - url: https://jobs.bimcollab.com/o/software-engineer-3
    company: KUBUS
  - url: https://acme.join.com/jobs/1
    company: Acme
`)

	jobs, err := LoadJobs(path)
	require.NoError(t, err)

	assert.Equal(t, []entity.Job{
		{URL: "https://acme.join.com/jobs/1", Company: "Acme"},
		{URL: "https://jobs.bimcollab.com/o/software-engineer-3", Company: "KUBUS"},
	}, jobs)
}

func TestLoadJobsRejectsBadURL(t *testing.T) {
	_, err := LoadJobs(write(t, "jobs.yaml", "jobs:\n  - url: not a url\n"))

	assert.Error(t, err)
}

func TestValidateJob(t *testing.T) {
	assert.NoError(t, ValidateJob(entity.Job{URL: "https://acme.join.com/jobs/1"}))
	assert.Error(t, ValidateJob(entity.Job{}))
}
