package outcome

import (
	"context"
	"testing"

	"job-applier/internal/browser/browsertest"
	"job-applier/internal/entity"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const formURL = "https://acme.join.com/jobs/1/apply"

func TestClassifyPriority(t *testing.T) {
	tests := []struct {
		name string
		in   Evidence
		want entity.SubmissionOutcome
	}{
		{
			name: "unsolved challenge beats confirmation",
			in:   Evidence{ChallengeUnsolved: true, Confirmation: true, Submitted: true},
			want: entity.OutcomeCaptchaBlocked,
		},
		{
			name: "confirmation text",
			in:   Evidence{Confirmation: true, Submitted: true, FormURL: formURL, FinalURL: formURL},
			want: entity.OutcomeApplied,
		},
		{
			name: "confirmation text without a submit",
			in:   Evidence{Confirmation: true, FormURL: formURL, FinalURL: formURL},
			want: entity.OutcomeFailed,
		},
		{
			name: "accepted response without confirmation text",
			in:   Evidence{Accepted: true, Submitted: true, FormURL: formURL, FinalURL: formURL},
			want: entity.OutcomeApplied,
		},
		{
			name: "accepted response never outranks missing submit",
			in:   Evidence{Accepted: true, FormURL: formURL, FinalURL: formURL},
			want: entity.OutcomeFailed,
		},
		{
			name: "accepted response does not outrank validation markers",
			in:   Evidence{Accepted: true, Submitted: true, ValidationMarkers: []string{"invalid field email"}},
			want: entity.OutcomeValidationError,
		},
		{
			name: "validation markers veto confirmation",
			in:   Evidence{Confirmation: true, ValidationMarkers: []string{"this field is required"}},
			want: entity.OutcomeValidationError,
		},
		{
			name: "email verification",
			in:   Evidence{ActionRequired: true, Submitted: true, FormURL: formURL, FinalURL: formURL},
			want: entity.OutcomeActionRequired,
		},
		{
			name: "action required beats weak url signal",
			in:   Evidence{ActionRequired: true, Submitted: true, FormURL: formURL, FinalURL: "https://acme.join.com/verify"},
			want: entity.OutcomeActionRequired,
		},
		{
			name: "weak signal from url change",
			in:   Evidence{Submitted: true, FormURL: formURL, FinalURL: "https://acme.join.com/jobs/1/done"},
			want: entity.OutcomeApplied,
		},
		{
			name: "query change is not material",
			in:   Evidence{Submitted: true, FormURL: formURL, FinalURL: formURL + "/?step=2#top"},
			want: entity.OutcomeFailed,
		},
		{
			name: "no submit control",
			in:   Evidence{SubmitMissing: true, FormURL: formURL, FinalURL: "https://elsewhere.example.com"},
			want: entity.OutcomeFailed,
		},
		{
			name: "nothing at all",
			in:   Evidence{},
			want: entity.OutcomeFailed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Classify(tt.in)

			assert.Equal(t, tt.want, got.Outcome)
			assert.NotEmpty(t, got.Reason)
		})
	}
}

func TestMateriallyDifferent(t *testing.T) {
	assert.False(t, MateriallyDifferent("https://a.example.com/apply/", "https://a.example.com/apply?x=1"))
	assert.False(t, MateriallyDifferent("https://A.example.com/apply", "http://a.example.com/apply#done"))
	assert.True(t, MateriallyDifferent("https://a.example.com/apply", "https://a.example.com/thanks"))
	assert.True(t, MateriallyDifferent("https://a.example.com/apply", "https://b.example.com/apply"))
	assert.False(t, MateriallyDifferent("", "https://a.example.com"))
}

func TestFromHTML(t *testing.T) {
	e := FromHTML(`<body>
		<form>
			<input name="email" aria-invalid="true">
			<span class="error-message">This field is required</span>
			<span class="error-message">This field is required</span>
		</form>
	</body>`, Evidence{})

	assert.False(t, e.Confirmation)
	assert.Equal(t, []string{"invalid field email", "this field is required"}, e.ValidationMarkers)

	e = FromHTML(`<body><h2>Thanks for applying!</h2><p>We sent you a link to confirm.</p></body>`, Evidence{})
	assert.True(t, e.Confirmation)
	assert.True(t, e.ActionRequired)
	assert.Empty(t, e.ValidationMarkers)
}

func TestCollectReadsLivePage(t *testing.T) {
	page := browsertest.NewPage()
	page.Show(browsertest.NewScreen("https://acme.join.com/jobs/1/apply/done", `<body><h1>Application received</h1></body>`))

	e, err := Collect(context.Background(), page, Evidence{FormURL: formURL, Submitted: true})
	require.NoError(t, err)

	assert.Equal(t, "https://acme.join.com/jobs/1/apply/done", e.FinalURL)
	assert.Equal(t, entity.OutcomeApplied, Classify(e).Outcome)
}

func TestWatcherOnlyCountsArmedSubmissionResponses(t *testing.T) {
	page := browsertest.NewPage()
	w := Watch(page)

	page.EmitResponse("POST", 201, "https://api.join.com/candidates")
	assert.False(t, w.Accepted(), "not armed yet")

	w.Arm()
	page.EmitResponse("GET", 200, "https://cdn.join.com/logo.png")
	page.EmitResponse("POST", 422, "https://api.join.com/candidates")
	assert.False(t, w.Accepted())

	page.EmitResponse("POST", 201, "https://api.join.com/candidates")
	assert.True(t, w.Accepted())
}

func TestWatcherIgnoresAssetAndTrackingTraffic(t *testing.T) {
	page := browsertest.NewPage()
	w := Watch(page)
	w.Arm()

	page.EmitResponse("GET", 200, "https://acme.join.com/assets/application-3f2a.css")
	page.EmitResponse("GET", 200, "https://acme.join.com/jobs/1/apply/review")
	page.EmitResponse("POST", 204, "https://stats.example.com/collect?event=application_view")
	assert.False(t, w.Accepted())

	assert.Equal(t, entity.OutcomeFailed,
		Classify(Evidence{Submitted: true, Accepted: w.Accepted(), FormURL: formURL, FinalURL: formURL}).Outcome)

	page.EmitResponse("PUT", 200, "https://acme.join.com/api/applications/42")
	assert.True(t, w.Accepted())
}
