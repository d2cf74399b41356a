package outcome

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"job-applier/internal/ports"
	"job-applier/internal/stage"
	"job-applier/pkg/apperr"

	"github.com/PuerkitoBio/goquery"
)

var validationWords = []string{
	"field is required",
	"this field is required",
	"is required",
	"required field",
	"verplicht",
	"is invalid",
	"invalid email",
	"invalid phone",
	"please enter",
	"please fill",
	"please select",
	"please upload",
}

var actionWords = []string{
	"check your email",
	"check your inbox",
	"verify your email",
	"confirm your email",
	"magic link",
	"we sent you a link",
	"we've sent you",
	"controleer je e-mail",
	"bevestig je e-mail",
}

const errorSelector = `[role="alert"], .error, .errors, .invalid-feedback, .field-error, .error-message, [class*="error" i], [id*="error" i]`

// Collect fills the page-derived evidence fields from the live DOM.
func Collect(ctx context.Context, page ports.Page, e Evidence) (Evidence, error) {
	const op = "Collect"

	html, err := page.Content(ctx)
	if err != nil {
		return e, apperr.Wrap(op, apperr.CodeActionFailed, err, map[string]any{
			apperr.MetaStage: apperr.StageSubmission,
			apperr.MetaURL:   page.URL(),
		})
	}

	e.FinalURL = page.URL()

	return FromHTML(html, e), nil
}

// FromHTML fills the DOM-derived fields of e from an HTML snapshot.
func FromHTML(html string, e Evidence) Evidence {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return e
	}

	text := stage.VisibleText(doc)

	e.Confirmation = containsAny(text, stage.ConfirmationWords)
	e.ActionRequired = containsAny(text, actionWords)
	e.ValidationMarkers = validationMarkers(doc)

	return e
}

func validationMarkers(doc *goquery.Document) []string {
	seen := make(map[string]struct{})
	var out []string

	add := func(s string) {
		s = strings.Join(strings.Fields(s), " ")
		if s == "" {
			return
		}

		if _, ok := seen[s]; ok {
			return
		}

		seen[s] = struct{}{}
		out = append(out, s)
	}

	doc.Find(`[aria-invalid="true"]`).Each(func(_ int, s *goquery.Selection) {
		name, _ := s.Attr("name")
		if name == "" {
			name, _ = s.Attr("id")
		}

		add("invalid field " + name)
	})

	doc.Find(errorSelector).Each(func(_ int, s *goquery.Selection) {
		if s.Is("input, textarea, select, form") {
			return
		}

		text := strings.ToLower(strings.TrimSpace(s.Text()))
		if containsAny(text, validationWords) {
			add(text)
		}
	})

	return out
}

func containsAny(text string, words []string) bool {
	for _, w := range words {
		if strings.Contains(text, w) {
			return true
		}
	}

	return false
}

var submissionPaths = []string{"apply", "application", "candidate", "submit", "sollicit"}

// Watcher records accepted submission responses on a page: a 2xx answer
// to a write request whose path names a submission endpoint. Arm it right
// before activating submit so earlier traffic is ignored.
type Watcher struct {
	mu       sync.Mutex
	armed    bool
	accepted bool
}

func Watch(page ports.Page) *Watcher {
	w := &Watcher{}
	page.OnResponse(w.observe)

	return w
}

func (w *Watcher) Arm() {
	w.mu.Lock()
	w.armed = true
	w.accepted = false
	w.mu.Unlock()
}

func (w *Watcher) Accepted() bool {
	w.mu.Lock()
	defer w.mu.Unlock()

	return w.accepted
}

func (w *Watcher) observe(resp ports.Response) {
	if resp.Status < 200 || resp.Status > 299 || !isSubmission(resp) {
		return
	}

	w.mu.Lock()
	if w.armed {
		w.accepted = true
	}
	w.mu.Unlock()
}

func isSubmission(resp ports.Response) bool {
	switch strings.ToUpper(resp.Method) {
	case http.MethodPost, http.MethodPut, http.MethodPatch:
	default:
		return false
	}

	u, err := url.Parse(resp.URL)
	if err != nil {
		return false
	}

	return containsAny(strings.ToLower(u.Path), submissionPaths)
}
