package stage

import (
	"context"
	"testing"

	"job-applier/internal/browser/browsertest"
	"job-applier/internal/entity"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestClassifyByURL(t *testing.T) {
	tests := []struct {
		url  string
		want entity.PageStage
	}{
		{"https://acme.join.com/jobs/1/apply/cv", entity.StageFileUpload},
		{"https://acme.join.com/jobs/1/apply/personalInformation", entity.StagePersonalInfo},
		{"https://acme.join.com/jobs/1/apply/professionalLinks?step=3", entity.StageProfessionalLinks},
		{"https://acme.join.com/jobs/1/apply/coverLetter", entity.StageCoverLetter},
		{"https://acme.join.com/jobs/1/apply/questions", entity.StageScreeningQuestions},
		{"https://acme.join.com/authentication?redirect=/apply", entity.StageEmailGate},
		{"https://acme.example.com/careers/thank-you", entity.StageConfirmation},
	}

	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.url, "<html><body></body></html>"))
		})
	}
}

func TestClassifyByStructure(t *testing.T) {
	tests := []struct {
		name string
		html string
		want entity.PageStage
	}{
		{
			name: "lone file input",
			html: `<form><input type="file" name="resume"><button>Next</button></form>`,
			want: entity.StageFileUpload,
		},
		{
			name: "lone email input",
			html: `<form><input type="email" name="email"><button>Continue</button></form>`,
			want: entity.StageEmailGate,
		},
		{
			name: "name inputs",
			html: `<form><input name="first_name"><input name="last_name"><input type="email" name="email"></form>`,
			want: entity.StagePersonalInfo,
		},
		{
			name: "linkedin",
			html: `<form><input type="url" placeholder="LinkedIn profile"></form>`,
			want: entity.StageProfessionalLinks,
		},
		{
			name: "yes no radios",
			html: `<form><p>Do you need a visa?</p><input type="radio" name="q1" value="true"><input type="radio" name="q1" value="false"></form>`,
			want: entity.StageScreeningQuestions,
		},
		{
			name: "cover textarea",
			html: `<form><textarea name="cover_letter"></textarea></form>`,
			want: entity.StageCoverLetter,
		},
		{
			name: "landing",
			html: `<main><h1>Backend Engineer</h1><p>About us</p><a href="/jobs/1/apply">Apply now</a></main>`,
			want: entity.StageLanding,
		},
		{
			name: "confirmation heading",
			html: `<main><h1>Thank you for applying!</h1></main>`,
			want: entity.StageConfirmation,
		},
		{
			name: "hidden email input does not count",
			html: `<form><input type="email" name="email" style="display: none"><input type="file"></form>`,
			want: entity.StageFileUpload,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify("https://careers.example.com/jobs/1", "<html><body>"+tt.html+"</body></html>"))
		})
	}
}

func TestClassifyVisibleChallengeOverridesURL(t *testing.T) {
	html := `<body><form><input type="file"></form><div><iframe src="https://newassets.hcaptcha.com/captcha/v1/x/static/hcaptcha.html#frame=challenge&id=1"></iframe></div></body>`

	assert.Equal(t, entity.StageCaptchaChallenge, Classify("https://acme.join.com/jobs/1/apply/cv", html))
}

func TestClassifyHiddenChallengeIgnored(t *testing.T) {
	html := `<body><form><input type="file"></form><div style="visibility: hidden"><iframe src="https://hcaptcha.com/x#frame=challenge"></iframe></div></body>`

	assert.Equal(t, entity.StageFileUpload, Classify("https://careers.example.com/jobs/1", html))
}

func TestClassifyFallsBackToHeadingAndText(t *testing.T) {
	assert.Equal(t, entity.StageReview,
		Classify("https://careers.example.com/x", `<body><h1>Review</h1><div>Name: Ada</div><button>Submit</button></body>`))
	assert.Equal(t, entity.StageConfirmation,
		Classify("https://careers.example.com/x", `<body><div>Application received.</div><script>var s = "apply now"</script></body>`))
	assert.Equal(t, entity.StageUnknown,
		Classify("https://careers.example.com/x", `<body><p>Mail your CV and we'll be in touch. Congratulations on finding us!</p></body>`))
	assert.Equal(t, entity.StageUnknown,
		Classify("https://careers.example.com/x", `<body><div>Lorem ipsum</div></body>`))
}

func TestConfirmationURL(t *testing.T) {
	assert.True(t, ConfirmationURL("https://acme.join.com/jobs/1/thank-you?ref=x"))
	assert.False(t, ConfirmationURL("https://acme.join.com/jobs/1/apply/review"))
	assert.False(t, ConfirmationURL("https://acme.join.com/thanks-giving-roles/apply/cv"))
}

func TestClassifyIsDeterministic(t *testing.T) {
	html := `<body><form><input name="first_name"><input type="file"><textarea name="cover"></textarea></form></body>`
	first := Classify("https://careers.example.com/apply", html)

	for range 20 {
		assert.Equal(t, first, Classify("https://careers.example.com/apply", html))
	}
}

func TestClassifierUsesLivePage(t *testing.T) {
	page := browsertest.NewPage()
	page.Show(browsertest.NewScreen("https://acme.join.com/jobs/1/apply/coverLetter", "<body></body>"))

	got, err := NewClassifier(Params{Logger: zap.NewNop()}).Classify(context.Background(), page)
	require.NoError(t, err)

	assert.Equal(t, entity.StageCoverLetter, got)
}
