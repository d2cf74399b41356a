// Package stage classifies the current step of an application wizard.
package stage

import (
	"context"
	"net/url"
	"strings"

	"job-applier/internal/entity"
	"job-applier/internal/ports"
	"job-applier/pkg/apperr"
	"job-applier/pkg/logg"
	"job-applier/pkg/tracing"

	"github.com/PuerkitoBio/goquery"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const (
	classifierName   = "StageClassifier"
	classifierTracer = "engine.stage"
)

const (
	textInputs = `input:not([type]), input[type="text"], input[type="email"], input[type="tel"], input[type="url"], input[type="number"], textarea`
	fileInputs = `input[type="file"]`
)

// Classify maps a (url, html) snapshot to a stage. It is pure: the same
// snapshot always yields the same stage.
func Classify(rawURL, html string) entity.PageStage {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return byURL(rawURL)
	}

	return classifyDocument(rawURL, doc)
}

func classifyDocument(rawURL string, doc *goquery.Document) entity.PageStage {
	// An open challenge blocks whatever step the URL claims.
	if ChallengeVisible(doc) {
		return entity.StageCaptchaChallenge
	}

	if s := byURL(rawURL); s != entity.StageUnknown {
		return s
	}

	if s := byStructure(doc); s != entity.StageUnknown {
		return s
	}

	if s := byHeading(doc); s != entity.StageUnknown {
		return s
	}

	return byText(VisibleText(doc))
}

// ConfirmationURL reports whether the URL path alone marks a confirmation
// page.
func ConfirmationURL(rawURL string) bool {
	return byURL(rawURL) == entity.StageConfirmation
}

func byURL(rawURL string) entity.PageStage {
	path := strings.ToLower(rawURL)
	if u, err := url.Parse(rawURL); err == nil {
		path = strings.ToLower(u.Path)
	}

	for _, m := range urlMarkers {
		if strings.Contains(path, m.fragment) {
			return m.stage
		}
	}

	return entity.StageUnknown
}

func byStructure(doc *goquery.Document) entity.PageStage {
	fields := visible(doc.Find(textInputs))
	files := doc.Find(fileInputs).Length()
	emails := visible(doc.Find(`input[type="email"], input[name*="email" i]`))
	names := visible(doc.Find(`input[autocomplete="given-name"], input[autocomplete="family-name"], input[name*="first_name" i], input[name*="firstname" i], input[name*="last_name" i], input[name*="lastname" i], input[placeholder*="first name" i], input[name="candidate.name"]`))
	links := visible(doc.Find(`input[name*="linkedin" i], input[placeholder*="linkedin" i], input[id*="linkedin" i]`))
	yesNo := doc.Find(`input[type="radio"][value="true" i], input[type="radio"][value="yes" i], input[type="radio"][value="ja" i]`).Length()
	covers := visible(doc.Find(`textarea[name*="cover" i], textarea[id*="cover" i], textarea[name*="motivation" i], textarea[placeholder*="cover" i]`))
	textareas := visible(doc.Find("textarea"))

	switch {
	case hasConfirmationHeading(doc) && fields == 0:
		return entity.StageConfirmation
	case fields == 1 && emails == 1 && files == 0 && names == 0:
		return entity.StageEmailGate
	case names > 0:
		return entity.StagePersonalInfo
	case files > 0 && fields == 0:
		return entity.StageFileUpload
	case links > 0:
		return entity.StageProfessionalLinks
	case yesNo > 0:
		return entity.StageScreeningQuestions
	case covers > 0 || (textareas == 1 && fields == 1):
		return entity.StageCoverLetter
	case files > 0:
		return entity.StageFileUpload
	case fields == 0 && hasApplyControl(doc):
		return entity.StageLanding
	}

	return entity.StageUnknown
}

func byHeading(doc *goquery.Document) entity.PageStage {
	heading := strings.ToLower(strings.TrimSpace(doc.Find("h1, h2, legend").First().Text()))
	if heading == "" {
		return entity.StageUnknown
	}

	for _, k := range headingKeywords {
		if containsAny(heading, k.words) {
			return k.stage
		}
	}

	return entity.StageUnknown
}

func byText(text string) entity.PageStage {
	for _, k := range textKeywords {
		if containsAny(text, k.words) {
			return k.stage
		}
	}

	return entity.StageUnknown
}

// ChallengeVisible reports a CAPTCHA challenge frame that is not hidden by
// an inline style on itself or an ancestor.
func ChallengeVisible(doc *goquery.Document) bool {
	found := false

	doc.Find(`iframe[src*="hcaptcha" i][src*="frame=challenge" i], iframe[src*="recaptcha" i][src*="bframe" i], iframe[title*="challenge" i]`).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if hidden(s) {
			return true
		}

		for p := s.Parent(); p.Length() > 0; p = p.Parent() {
			if hidden(p) {
				return true
			}
		}

		found = true

		return false
	})

	return found
}

func hidden(s *goquery.Selection) bool {
	if _, ok := s.Attr("hidden"); ok {
		return true
	}

	style, _ := s.Attr("style")
	style = strings.ReplaceAll(strings.ToLower(style), " ", "")

	return strings.Contains(style, "display:none") || strings.Contains(style, "visibility:hidden")
}

func visible(s *goquery.Selection) int {
	n := 0

	s.Each(func(_ int, el *goquery.Selection) {
		if hidden(el) {
			return
		}

		if t, _ := el.Attr("type"); strings.EqualFold(t, "hidden") {
			return
		}

		n++
	})

	return n
}

func hasConfirmationHeading(doc *goquery.Document) bool {
	return containsAny(strings.ToLower(doc.Find("h1, h2, h3, [role=alert], [role=status]").Text()), ConfirmationWords)
}

func hasApplyControl(doc *goquery.Document) bool {
	found := false

	doc.Find("a, button").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		text := strings.ToLower(strings.TrimSpace(s.Text()))
		href, _ := s.Attr("href")

		if strings.Contains(text, "apply") || strings.Contains(text, "solliciteer") || strings.Contains(strings.ToLower(href), "/apply") {
			found = true
			return false
		}

		return true
	})

	return found
}

// VisibleText returns the lower-cased text of the body without script and
// style content.
func VisibleText(doc *goquery.Document) string {
	body := doc.Find("body").Clone()
	body.Find("script, style, noscript, template").Remove()

	return strings.ToLower(strings.Join(strings.Fields(body.Text()), " "))
}

func containsAny(text string, words []string) bool {
	for _, w := range words {
		if strings.Contains(text, w) {
			return true
		}
	}

	return false
}

// Classifier classifies live pages.
type Classifier struct {
	logger *zap.Logger
	tracer trace.Tracer
}

type Params struct {
	fx.In

	Logger *zap.Logger
}

func NewClassifier(params Params) *Classifier {
	return &Classifier{
		logger: params.Logger.With(zap.String(logg.Layer, classifierName)),
		tracer: otel.Tracer(classifierTracer),
	}
}

// Snapshot reads the page URL and serialized DOM.
func Snapshot(ctx context.Context, page ports.Page) (string, string, error) {
	const op = "Snapshot"

	html, err := page.Content(ctx)
	if err != nil {
		return "", "", apperr.Wrap(op, apperr.CodeActionFailed, err, map[string]any{
			apperr.MetaStage: apperr.StageWizard,
			apperr.MetaURL:   page.URL(),
		})
	}

	return page.URL(), html, nil
}

func (c *Classifier) Classify(ctx context.Context, page ports.Page) (stage entity.PageStage, err error) {
	const op = "Classify"

	ctx, step := tracing.StartSpan(ctx, c.tracer, c.logger, op)
	defer func() {
		step.End(err)
	}()

	pageURL, html, err := Snapshot(ctx, page)
	if err != nil {
		return entity.StageUnknown, err
	}

	stage = Classify(pageURL, html)
	step.SetAttributes(attribute.String("stage", string(stage)))

	c.logger.Debug("Page classified",
		zap.String(logg.URL, pageURL),
		zap.String(logg.Stage, string(stage)),
	)

	return stage, nil
}
