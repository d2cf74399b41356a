package resolver

import (
	"context"
	"testing"
	"time"

	"job-applier/internal/browser/browsertest"
	"job-applier/internal/config"
	"job-applier/internal/entity"
	"job-applier/pkg/apperr"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestResolver(table Table) *Resolver {
	return NewResolver(Params{
		Config: &config.Config{BrowserConfig: &config.BrowserConfig{ActionTimeout: time.Second}},
		Logger: zap.NewNop(),
		Table:  table,
	})
}

func showing(screen *browsertest.Screen) *browsertest.Page {
	page := browsertest.NewPage()
	page.Show(screen)

	return page
}

func TestFillFirstUsableStrategyWins(t *testing.T) {
	hidden := &browsertest.Element{Kind: "text", Hidden: true}
	visible := &browsertest.Element{Kind: "text"}
	screen := browsertest.NewScreen("https://jobs.example.com/apply", "").
		Add(`input[type="email"]`, hidden).
		Add(`input[name*="email" i]`, visible)

	fill, err := newTestResolver(nil).Fill(context.Background(), showing(screen), entity.FieldTarget{Role: entity.RoleEmail}, "ada@example.com")
	require.NoError(t, err)

	assert.Equal(t, `input[name*="email" i]`, fill.Strategy.Selector)
	assert.False(t, fill.Refilled)
	assert.Equal(t, 0, hidden.Writes())

	got, _ := visible.Value(context.Background())
	assert.Equal(t, "ada@example.com", got)
}

func TestFillIsIdempotent(t *testing.T) {
	el := &browsertest.Element{Kind: "text"}
	page := showing(browsertest.NewScreen("https://jobs.example.com", "").Add(`input[autocomplete="given-name"]`, el))
	r := newTestResolver(nil)
	target := entity.FieldTarget{Role: entity.RoleFirstName}

	_, err := r.Fill(context.Background(), page, target, "Ada")
	require.NoError(t, err)
	_, err = r.Fill(context.Background(), page, target, "Ada")
	require.NoError(t, err)

	got, _ := el.Value(context.Background())
	assert.Equal(t, "Ada", got)
}

func TestFillControlledInputFallsBackToSetter(t *testing.T) {
	el := &browsertest.Element{Kind: "text", Controlled: true}
	page := showing(browsertest.NewScreen("https://jobs.example.com", "").Add(`input[type="tel"]:not([name*="code" i])`, el))

	fill, err := newTestResolver(nil).Fill(context.Background(), page, entity.FieldTarget{Role: entity.RolePhone}, "+31 6 1234 5678")
	require.NoError(t, err)

	assert.True(t, fill.Refilled)
	got, _ := el.Value(context.Background())
	assert.Equal(t, "+31 6 1234 5678", got)
}

func TestFillRetriesOnceAfterReset(t *testing.T) {
	el := &browsertest.Element{Kind: "text", ResetOnce: true}
	page := showing(browsertest.NewScreen("https://jobs.example.com", "").Add(`input[name*="city" i]`, el))

	fill, err := newTestResolver(nil).Fill(context.Background(), page, entity.FieldTarget{Role: entity.RoleCity}, "Utrecht")
	require.NoError(t, err)

	assert.True(t, fill.Refilled)
	assert.Equal(t, 2, el.Writes())
}

func TestFillReportsMismatchAfterRefill(t *testing.T) {
	el := &browsertest.Element{Kind: "text", Frozen: true}
	page := showing(browsertest.NewScreen("https://jobs.example.com", "").Add(`#city`, el))
	table := DefaultStrategies().With(entity.RoleCity, entity.FieldStrategy{Selector: "#city", Method: entity.FillNative})

	_, err := newTestResolver(table).Fill(context.Background(), page, entity.FieldTarget{Role: entity.RoleCity}, "Utrecht")
	require.Error(t, err)

	assert.True(t, apperr.Is(err, apperr.CodeFieldMismatch))
	assert.Equal(t, 2, el.Writes())
}

func TestFillNotFound(t *testing.T) {
	page := showing(browsertest.NewScreen("https://jobs.example.com", "<p>nothing</p>"))

	_, err := newTestResolver(nil).Fill(context.Background(), page, entity.FieldTarget{Role: entity.RoleLinkedInURL}, "https://linkedin.com/in/ada")
	require.Error(t, err)

	assert.True(t, apperr.Is(err, apperr.CodeFieldNotFound))
}

func TestFillHiddenFileInput(t *testing.T) {
	file := &browsertest.Element{Kind: "file", Hidden: true}
	page := showing(browsertest.NewScreen("https://jobs.example.com", "").Add(`input[type="file"]`, file))

	fill, err := newTestResolver(nil).Fill(context.Background(), page, entity.FieldTarget{Role: entity.RoleResumeFile}, "/tmp/cv.pdf")
	require.NoError(t, err)

	assert.Equal(t, entity.FillFileInjection, fill.Strategy.Method)
	assert.Equal(t, []string{"/tmp/cv.pdf"}, file.Files())
}

func TestFillScreeningQuestion(t *testing.T) {
	no := &browsertest.Element{Kind: "checkbox"}
	yes := &browsertest.Element{Kind: "checkbox"}
	page := showing(browsertest.NewScreen("https://jobs.example.com", "").
		Add(`input[name="q_relocate"][value="false"]`, no).
		Add(`input[name="q_relocate"][value="true"]`, yes))

	target := entity.FieldTarget{Role: entity.RoleScreeningYesNo, QuestionID: "q_relocate"}
	_, err := newTestResolver(nil).Fill(context.Background(), page, target, "yes")
	require.NoError(t, err)

	checked, _ := yes.Value(context.Background())
	assert.Equal(t, "true", checked)
	unchecked, _ := no.Value(context.Background())
	assert.Equal(t, "false", unchecked)
}

func TestFillScreeningSelect(t *testing.T) {
	sel := &browsertest.Element{Kind: "select"}
	page := showing(browsertest.NewScreen("https://jobs.example.com", "").Add(`select[name="q_visa"]`, sel))

	target := entity.FieldTarget{Role: entity.RoleScreeningYesNo, QuestionID: "q_visa"}
	fill, err := newTestResolver(nil).Fill(context.Background(), page, target, "false")
	require.NoError(t, err)

	assert.Equal(t, entity.FillOptionSelect, fill.Strategy.Method)
}

func TestFillAllTalliesRequiredGaps(t *testing.T) {
	page := showing(browsertest.NewScreen("https://jobs.example.com", "").
		Add(`input[type="email"]`, &browsertest.Element{Kind: "text"}))

	report := newTestResolver(nil).FillAll(context.Background(), page, []Request{
		{Target: entity.FieldTarget{Role: entity.RoleEmail, Required: true}, Value: "ada@example.com"},
		{Target: entity.FieldTarget{Role: entity.RolePhone, Required: true}, Value: "+31 6 1234 5678"},
		{Target: entity.FieldTarget{Role: entity.RoleCity}, Value: "Utrecht"},
		{Target: entity.FieldTarget{Role: entity.RoleLinkedInURL, Required: true}, Value: ""},
	})

	assert.True(t, report.Has(entity.RoleEmail))
	assert.Len(t, report.Unresolved, 2)
	assert.Equal(t, 1, report.UnresolvedRequired())
}

func TestWithPrependsStrategy(t *testing.T) {
	base := DefaultStrategies()
	custom := base.With(entity.RoleEmail, entity.FieldStrategy{Selector: "#applicant-mail", Method: entity.FillNative})

	assert.Equal(t, "#applicant-mail", custom[entity.RoleEmail][0].Selector)
	assert.NotEqual(t, "#applicant-mail", base[entity.RoleEmail][0].Selector)
}
