package usecase

import (
	"slices"
	"sort"
	"strconv"
	"strings"
	"unicode"

	"job-applier/internal/entity"
	"job-applier/internal/resolver"
)

var (
	cookieControls = []string{
		`button:has-text("Agree to necessary")`,
		`#onetrust-reject-all-handler`,
		`button:has-text("Only necessary")`,
		`button:has-text("Accept all")`,
		`button:has-text("Akkoord")`,
		`button:has-text("OK")`,
	}

	applyControls = []string{
		`a:has-text("Apply for this job")`,
		`button:has-text("Apply now")`,
		`a:has-text("Apply now")`,
		`button:has-text("Apply")`,
		`a:has-text("Apply")`,
		`a[href*="/apply"]`,
		`button:has-text("Solliciteer")`,
		`a:has-text("Solliciteer")`,
	}

	continueControls = []string{
		`button:has-text("Next")`,
		`button:has-text("Continue")`,
		`button:has-text("Save and continue")`,
		`button:has-text("Volgende")`,
		`button:has-text("Ga verder")`,
		`[data-testid*="next" i]`,
	}

	submitControls = []string{
		`button:has-text("Submit application")`,
		`button:has-text("Send application")`,
		`button[type="submit"]:has-text("Submit")`,
		`button[type="submit"]:has-text("Send")`,
		`button:has-text("Submit")`,
		`button:has-text("Verstuur")`,
		`button:has-text("Verzenden")`,
		`input[type="submit"]`,
		`button[type="submit"]`,
	}
)

// avoidLabels mark controls that leave the form: third-party sign-in,
// going back, or parking a draft. Single words match whole words only.
var avoidLabels = []string{
	"linkedin",
	"indeed",
	"google",
	"sign in with",
	"log in with",
	"back",
	"previous",
	"cancel",
	"save for later",
	"save draft",
	"vorige",
	"annuleren",
}

func avoided(label string) bool {
	label = strings.ToLower(label)
	words := strings.FieldsFunc(label, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})

	for _, a := range avoidLabels {
		if strings.Contains(a, " ") {
			if strings.Contains(label, a) {
				return true
			}

			continue
		}

		if slices.Contains(words, a) {
			return true
		}
	}

	return false
}

// primaryRoles are the roles a stage exists for; they are marked required
// so the report counts them when unresolved.
var primaryRoles = map[entity.PageStage][]entity.FieldRole{
	entity.StageEmailGate:         {entity.RoleEmail},
	entity.StagePersonalInfo:      {entity.RoleEmail},
	entity.StageFileUpload:        {entity.RoleResumeFile},
	entity.StageProfessionalLinks: {entity.RoleLinkedInURL},
	entity.StageCoverLetter:       {entity.RoleCoverLetterText},
}

// excludedRoles are never requested on a stage. Free-text screening
// answers live in textareas the cover letter strategies would match.
var excludedRoles = map[entity.PageStage][]entity.FieldRole{
	entity.StageScreeningQuestions: {entity.RoleCoverLetterText},
}

// requests builds one fill request per profile value. Every stage tries
// every role: single-page forms carry all fields under one stage.
func requests(stage entity.PageStage, p *entity.ApplicantProfile) []resolver.Request {
	required := make(map[entity.FieldRole]bool)
	for _, r := range primaryRoles[stage] {
		required[r] = true
	}

	target := func(role entity.FieldRole) entity.FieldTarget {
		return entity.FieldTarget{Role: role, Required: required[role]}
	}

	out := []resolver.Request{
		{Target: target(entity.RoleFirstName), Value: p.FirstName},
		{Target: target(entity.RoleLastName), Value: p.LastName},
		{Target: target(entity.RoleFullName), Value: p.FullName},
		{Target: target(entity.RoleEmail), Value: p.Email},
		{Target: target(entity.RolePhone), Value: p.Phone},
		{Target: target(entity.RoleCity), Value: p.City},
		{Target: target(entity.RoleLinkedInURL), Value: p.LinkedInURL},
		{Target: target(entity.RoleResumeFile), Value: p.ResumeFilePath},
		{Target: target(entity.RoleCoverLetterText), Value: p.CoverLetterText},
	}

	if p.Consent {
		out = append(out, resolver.Request{Target: target(entity.RoleConsentCheckbox), Value: "true"})
	}

	out = slices.DeleteFunc(out, func(r resolver.Request) bool {
		return slices.Contains(excludedRoles[stage], r.Target.Role)
	})

	ids := make([]string, 0, len(p.ScreeningAnswers))
	for id := range p.ScreeningAnswers {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	for _, id := range ids {
		out = append(out, resolver.Request{
			Target: entity.FieldTarget{
				Role:       entity.RoleScreeningYesNo,
				QuestionID: id,
				Required:   stage == entity.StageScreeningQuestions,
			},
			Value: strconv.FormatBool(p.ScreeningAnswers[id]),
		})
	}

	return out
}

// emailOnly is the request set for the email gate.
func emailOnly(p *entity.ApplicantProfile) []resolver.Request {
	return []resolver.Request{{Target: entity.FieldTarget{Role: entity.RoleEmail, Required: true}, Value: p.Email}}
}

// pending drops requests for targets an earlier stage already filled.
// Required targets are kept: the current stage exists for them.
func pending(reqs []resolver.Request, filled map[string]bool) []resolver.Request {
	out := make([]resolver.Request, 0, len(reqs))

	for _, r := range reqs {
		if filled[r.Target.String()] && !r.Target.Required {
			continue
		}

		out = append(out, r)
	}

	return out
}
