package resolver

import (
	"strconv"
	"strings"

	"job-applier/internal/entity"
)

// Table maps each role to its ordered strategy chain. Selectors may use the
// placeholders {id} (screening question id), {bool} ("true"/"false") and
// {yesno} ("yes"/"no").
type Table map[entity.FieldRole][]entity.FieldStrategy

func native(selectors ...string) []entity.FieldStrategy {
	return chain(entity.FillNative, selectors...)
}

func chain(method entity.FillMethod, selectors ...string) []entity.FieldStrategy {
	out := make([]entity.FieldStrategy, 0, len(selectors))
	for _, s := range selectors {
		out = append(out, entity.FieldStrategy{Selector: s, Method: method})
	}

	return out
}

func concat(chains ...[]entity.FieldStrategy) []entity.FieldStrategy {
	var out []entity.FieldStrategy
	for _, c := range chains {
		out = append(out, c...)
	}

	return out
}

// DefaultStrategies covers the ATS layouts seen so far (Recruitee,
// join.com, Greenhouse, Lever, Homerun, plain HTML forms).
func DefaultStrategies() Table {
	return Table{
		entity.RoleFullName: native(
			`input[name="candidate.name"]`,
			`input[autocomplete="name"]`,
			`input[name="name"]`,
			`input[name*="fullname" i]`,
			`input[name*="full_name" i]`,
			`input[placeholder*="full name" i]`,
			`input[aria-label*="full name" i]`,
		),
		entity.RoleFirstName: native(
			`input[autocomplete="given-name"]`,
			`input[name*="first_name" i]`,
			`input[name*="firstname" i]`,
			`input[id*="first_name" i]`,
			`input[placeholder="First name"]`,
			`input[placeholder*="first name" i]`,
			`input[aria-label*="first name" i]`,
		),
		entity.RoleLastName: native(
			`input[autocomplete="family-name"]`,
			`input[name*="last_name" i]`,
			`input[name*="lastname" i]`,
			`input[id*="last_name" i]`,
			`input[placeholder="Last name"]`,
			`input[placeholder*="last name" i]`,
			`input[aria-label*="last name" i]`,
		),
		entity.RoleEmail: native(
			`input[name="candidate.email"]`,
			`input[type="email"]`,
			`input[autocomplete="email"]`,
			`input[name*="email" i]`,
			`input[id*="email" i]`,
			`input[placeholder*="email" i]`,
		),
		entity.RolePhone: concat(
			native(
				`input[name="candidate.phone"]`,
				`input[type="tel"]:not([name*="code" i])`,
				`input[autocomplete="tel"]`,
				`input[name*="phone" i]`,
				`input[id*="phone" i]`,
				`input[placeholder*="phone" i]`,
			),
			chain(entity.FillSetterWithEvent, `input[type="tel"]`),
		),
		entity.RoleLinkedInURL: native(
			`input[name*="linkedin" i]`,
			`input[id*="linkedin" i]`,
			`input[placeholder*="linkedin" i]`,
			`input[aria-label*="linkedin" i]`,
			`input[type="url"]`,
		),
		entity.RoleCity: native(
			`input[autocomplete="address-level2"]`,
			`input[name*="city" i]`,
			`input[id*="city" i]`,
			`input[placeholder*="city" i]`,
			`input[name*="location" i]`,
		),
		entity.RoleCoverLetterText: native(
			`textarea[name*="cover" i]`,
			`textarea[id*="cover" i]`,
			`textarea[name*="letter" i]`,
			`textarea[name*="motivation" i]`,
			`textarea[placeholder*="cover" i]`,
			`textarea[name*="message" i]`,
			`textarea`,
		),
		entity.RoleResumeFile: chain(entity.FillFileInjection,
			`input[name="candidate.cv"]`,
			`input[type="file"][name*="cv" i]`,
			`input[type="file"][name*="resume" i]`,
			`input[type="file"][id*="resume" i]`,
			`input[type="file"][accept*="pdf" i]`,
			`input[type="file"]`,
		),
		entity.RoleConsentCheckbox: chain(entity.FillCheck,
			`input[type="checkbox"][name*="consent" i]`,
			`input[type="checkbox"][name*="privacy" i]`,
			`input[type="checkbox"][name*="gdpr" i]`,
			`input[type="checkbox"][name*="terms" i]`,
			`input[type="checkbox"][id*="consent" i]`,
			`input[type="checkbox"][name*="legal" i]`,
		),
		entity.RoleScreeningYesNo: concat(
			chain(entity.FillCheck,
				`input[name="{id}"][value="{bool}"]`,
				`input[name="{id}"][value="{yesno}" i]`,
				`input[name*="{id}"][value="{bool}"]`,
				`input[name*="{id}"][value="{yesno}" i]`,
			),
			chain(entity.FillOptionSelect,
				`select[name="{id}"]`,
				`select[name*="{id}"]`,
			),
		),
	}
}

// With returns a copy of t whose chain for role starts with strategies.
func (t Table) With(role entity.FieldRole, strategies ...entity.FieldStrategy) Table {
	out := make(Table, len(t))
	for k, v := range t {
		out[k] = append([]entity.FieldStrategy(nil), v...)
	}

	out[role] = append(append([]entity.FieldStrategy(nil), strategies...), out[role]...)

	return out
}

// Expand substitutes the target placeholders into the role's chain.
func (t Table) Expand(target entity.FieldTarget, value string) []entity.FieldStrategy {
	base := t[target.Role]
	if target.QuestionID == "" {
		return base
	}

	yes := isYes(value)
	r := strings.NewReplacer(
		"{id}", target.QuestionID,
		"{bool}", strconv.FormatBool(yes),
		"{yesno}", map[bool]string{true: "yes", false: "no"}[yes],
	)

	out := make([]entity.FieldStrategy, 0, len(base))
	for _, s := range base {
		out = append(out, entity.FieldStrategy{Selector: r.Replace(s.Selector), Method: s.Method})
	}

	return out
}

func isYes(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "yes", "true", "y", "ja", "1":
		return true
	}

	return false
}
