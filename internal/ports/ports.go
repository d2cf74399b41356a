package ports

import (
	"context"
	"errors"

	"job-applier/internal/entity"
)

// ErrAlreadyApplied is returned by ApplicationLog.Append when an applied
// record for the same key already exists.
var ErrAlreadyApplied = errors.New("already applied")

type WaitPolicy string

const (
	WaitDOMContentLoaded WaitPolicy = "domcontentloaded"
	WaitLoad             WaitPolicy = "load"
	WaitNetworkIdle      WaitPolicy = "networkidle"
)

// Response is a network response observed on a page, tagged with the
// method of the request that produced it.
type Response struct {
	Method string
	Status int
	URL    string
}

type Browser interface {
	Launch(ctx context.Context) error
	Close(ctx context.Context) error
	// NewSession opens an isolated context with its own cookies and storage.
	NewSession(ctx context.Context) (Session, error)
	IsReady() bool
}

type Session interface {
	Page() Page
	Close(ctx context.Context) error
}

type Element interface {
	Fill(ctx context.Context, value string) error
	// SetNativeValue writes through the prototype value setter and dispatches
	// input, change and blur so framework-managed inputs pick it up.
	SetNativeValue(ctx context.Context, value string) error
	SetFiles(ctx context.Context, paths []string) error
	SelectOption(ctx context.Context, value string) error
	Check(ctx context.Context) error
	Click(ctx context.Context) error
	// Value returns the current value; for checkboxes/radios "true"/"false",
	// for file inputs the number of attached files.
	Value(ctx context.Context) (string, error)
	// Usable reports visible and enabled.
	Usable(ctx context.Context) (bool, error)
	Text(ctx context.Context) (string, error)
}

type Frame interface {
	URL() string
	Query(ctx context.Context, selector string) ([]Element, error)
	Evaluate(ctx context.Context, script string, arg any) (any, error)
}

type Page interface {
	Frame

	Navigate(ctx context.Context, url string, wait WaitPolicy) error
	Content(ctx context.Context) (string, error)
	Screenshot(ctx context.Context) ([]byte, error)
	Frames() []Frame
	MouseMove(ctx context.Context, x, y float64) error
	MouseClick(ctx context.Context, x, y float64) error
	OnResponse(handler func(Response))
}

type ApplicationLog interface {
	HasApplied(ctx context.Context, jobURL, applicantKey string) (bool, error)
	// Append stores rec. Appending an applied record for a key that already
	// has one fails with ErrAlreadyApplied.
	Append(ctx context.Context, rec *entity.LogRecord) error
	List(ctx context.Context) ([]*entity.LogRecord, error)
}

type ArtifactStore interface {
	Save(ctx context.Context, attemptID, checkpoint string, data []byte) (string, error)
}

type CaptchaSolver interface {
	// Solve returns true once the challenge was accepted. It does not return
	// an error for an exhausted budget; the caller classifies that outcome.
	Solve(ctx context.Context, page Page) (solved bool, attempts int, err error)
	Present(page Page) bool
}
