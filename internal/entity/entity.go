package entity

import (
	"time"

	"github.com/google/uuid"
)

type FieldRole string

const (
	RoleFullName        FieldRole = "full_name"
	RoleFirstName       FieldRole = "first_name"
	RoleLastName        FieldRole = "last_name"
	RoleEmail           FieldRole = "email"
	RolePhone           FieldRole = "phone"
	RoleLinkedInURL     FieldRole = "linkedin_url"
	RoleCity            FieldRole = "city"
	RoleCoverLetterText FieldRole = "cover_letter_text"
	RoleResumeFile      FieldRole = "resume_file"
	RoleConsentCheckbox FieldRole = "consent_checkbox"
	RoleScreeningYesNo  FieldRole = "screening_yes_no"
)

// FieldTarget names one field to resolve. QuestionID is only set for
// screening_yes_no and is substituted into the strategy selectors.
type FieldTarget struct {
	Role       FieldRole
	QuestionID string
	Required   bool
}

func (t FieldTarget) String() string {
	if t.QuestionID != "" {
		return string(t.Role) + "(" + t.QuestionID + ")"
	}

	return string(t.Role)
}

type FillMethod string

const (
	FillNative          FillMethod = "native_fill"
	FillSetterWithEvent FillMethod = "setter_with_synthetic_events"
	FillFileInjection   FillMethod = "file_injection"
	FillOptionSelect    FillMethod = "option_select"
	FillCheck           FillMethod = "check"
)

type FieldStrategy struct {
	Selector string
	Method   FillMethod
}

type PageStage string

const (
	StageLanding            PageStage = "landing"
	StageEmailGate          PageStage = "email_gate"
	StagePersonalInfo       PageStage = "personal_info"
	StageFileUpload         PageStage = "file_upload"
	StageProfessionalLinks  PageStage = "professional_links"
	StageScreeningQuestions PageStage = "screening_questions"
	StageCoverLetter        PageStage = "cover_letter"
	StageReview             PageStage = "review"
	StageConfirmation       PageStage = "confirmation"
	StageCaptchaChallenge   PageStage = "captcha_challenge"
	StageUnknown            PageStage = "unknown"
)

type SubmissionOutcome string

const (
	OutcomeApplied         SubmissionOutcome = "applied"
	OutcomeValidationError SubmissionOutcome = "validation_error"
	OutcomeCaptchaBlocked  SubmissionOutcome = "captcha_blocked"
	OutcomeActionRequired  SubmissionOutcome = "action_required"
	OutcomeFailed          SubmissionOutcome = "failed"
	// OutcomeAlreadyApplied is only produced by the idempotency short-circuit
	// and is never persisted.
	OutcomeAlreadyApplied SubmissionOutcome = "already_applied"
)

type Job struct {
	URL     string `yaml:"url" validate:"required,url"`
	Company string `yaml:"company"`
	Role    string `yaml:"role"`
}

type ApplicantProfile struct {
	FullName         string          `yaml:"full_name" validate:"required"`
	FirstName        string          `yaml:"first_name"`
	LastName         string          `yaml:"last_name"`
	Email            string          `yaml:"email" validate:"required,email"`
	Phone            string          `yaml:"phone"`
	City             string          `yaml:"city"`
	LinkedInURL      string          `yaml:"linkedin_url" validate:"omitempty,url"`
	ResumeFilePath   string          `yaml:"resume_file_path" validate:"required"`
	CoverLetterText  string          `yaml:"cover_letter_text"`
	Consent          bool            `yaml:"consent"`
	ScreeningAnswers map[string]bool `yaml:"screening_answers"`
}

// Key is the applicant half of the idempotency key.
func (p *ApplicantProfile) Key() string {
	return p.Email
}

type ApplicationAttempt struct {
	ID           uuid.UUID
	JobURL       string
	ApplicantKey string
	Stages       []PageStage
	Outcome      SubmissionOutcome
	Notes        []string
	Artifacts    []string
	Unresolved   []string
	Error        string
	StartedAt    time.Time
	FinishedAt   *time.Time
}

func NewAttempt(jobURL, applicantKey string) *ApplicationAttempt {
	return &ApplicationAttempt{
		ID:           uuid.New(),
		JobURL:       jobURL,
		ApplicantKey: applicantKey,
		Stages:       make([]PageStage, 0),
		StartedAt:    time.Now(),
	}
}

func (a *ApplicationAttempt) Note(note string) {
	a.Notes = append(a.Notes, note)
}

// Finalize assigns the terminal outcome exactly once.
func (a *ApplicationAttempt) Finalize(outcome SubmissionOutcome) {
	if a.FinishedAt != nil {
		return
	}

	now := time.Now()
	a.Outcome = outcome
	a.FinishedAt = &now
}

func (a *ApplicationAttempt) Visited(stage PageStage) int {
	n := 0

	for _, s := range a.Stages {
		if s == stage {
			n++
		}
	}

	return n
}

// LogRecord is the persisted shape of a finished attempt.
type LogRecord struct {
	AttemptID    string
	JobURL       string `badgerhold:"index"`
	ApplicantKey string
	Outcome      SubmissionOutcome
	Timestamp    time.Time
	ArtifactRefs []string
	Notes        []string
}

func RecordFromAttempt(a *ApplicationAttempt) *LogRecord {
	ts := a.StartedAt
	if a.FinishedAt != nil {
		ts = *a.FinishedAt
	}

	return &LogRecord{
		AttemptID:    a.ID.String(),
		JobURL:       a.JobURL,
		ApplicantKey: a.ApplicantKey,
		Outcome:      a.Outcome,
		Timestamp:    ts,
		ArtifactRefs: append([]string(nil), a.Artifacts...),
		Notes:        append([]string(nil), a.Notes...),
	}
}

type Point struct {
	X float64
	Y float64
}

type Rect struct {
	X      float64
	Y      float64
	Width  float64
	Height float64
}

func (r Rect) Contains(p Point) bool {
	return p.X >= r.X && p.X <= r.X+r.Width && p.Y >= r.Y && p.Y <= r.Y+r.Height
}

type Icon struct {
	Centroid Point // pixel space
	MinX     int
	MinY     int
	MaxX     int
	MaxY     int
	Area     int
	Score    float64
}

type CaptchaChallenge struct {
	PixelWidth  int
	PixelHeight int
	Display     Rect
	Scale       float64
	Threshold   int
	Candidates  []Icon
	Targets     []Icon
	Requested   int
}
