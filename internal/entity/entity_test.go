package entity

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAttemptFinalizeOnce(t *testing.T) {
	a := NewAttempt("https://jobs.example.com/1", "a@b.com")
	a.Finalize(OutcomeApplied)
	a.Finalize(OutcomeFailed)

	assert.Equal(t, OutcomeApplied, a.Outcome)
	assert.NotNil(t, a.FinishedAt)
}

func TestRecordFromAttemptCopiesSlices(t *testing.T) {
	a := NewAttempt("u", "k")
	a.Artifacts = []string{"one"}
	a.Finalize(OutcomeFailed)

	rec := RecordFromAttempt(a)
	a.Artifacts[0] = "changed"

	assert.Equal(t, []string{"one"}, rec.ArtifactRefs)
	assert.Equal(t, a.ID.String(), rec.AttemptID)
	assert.Equal(t, *a.FinishedAt, rec.Timestamp)
}

func TestFieldTargetString(t *testing.T) {
	assert.Equal(t, "email", FieldTarget{Role: RoleEmail}.String())
	assert.Equal(t, "screening_yes_no(q1)", FieldTarget{Role: RoleScreeningYesNo, QuestionID: "q1"}.String())
}

func TestRectContains(t *testing.T) {
	r := Rect{X: 10, Y: 10, Width: 100, Height: 50}
	assert.True(t, r.Contains(Point{X: 10, Y: 60}))
	assert.False(t, r.Contains(Point{X: 9.9, Y: 20}))
}
