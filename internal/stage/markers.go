package stage

import "job-applier/internal/entity"

type marker struct {
	fragment string
	stage    entity.PageStage
}

// urlMarkers are matched against the lower-cased path. More specific
// fragments come first.
var urlMarkers = []marker{
	{"/apply/personalinformation", entity.StagePersonalInfo},
	{"/apply/personal", entity.StagePersonalInfo},
	{"/apply/professionallinks", entity.StageProfessionalLinks},
	{"/apply/links", entity.StageProfessionalLinks},
	{"/apply/coverletter", entity.StageCoverLetter},
	{"/apply/cover-letter", entity.StageCoverLetter},
	{"/apply/questions", entity.StageScreeningQuestions},
	{"/apply/screening", entity.StageScreeningQuestions},
	{"/apply/motivation", entity.StageScreeningQuestions},
	{"/apply/cv", entity.StageFileUpload},
	{"/apply/resume", entity.StageFileUpload},
	{"/apply/review", entity.StageReview},
	{"/apply/summary", entity.StageReview},
	{"/apply/email", entity.StageEmailGate},
	{"/authentication", entity.StageEmailGate},
	{"/auth/", entity.StageEmailGate},
	{"/thank-you", entity.StageConfirmation},
	{"/thankyou", entity.StageConfirmation},
	{"/thanks", entity.StageConfirmation},
	{"/confirmation", entity.StageConfirmation},
	{"/application-submitted", entity.StageConfirmation},
}

type keyword struct {
	words []string
	stage entity.PageStage
}

// headingKeywords classify by the first h1/h2/legend when structure is
// inconclusive.
var headingKeywords = []keyword{
	{[]string{"review", "summary", "overview", "controleer"}, entity.StageReview},
	{[]string{"question", "screening", "vragen"}, entity.StageScreeningQuestions},
	{[]string{"cover letter", "motivation", "motivatie"}, entity.StageCoverLetter},
	{[]string{"professional", "links", "linkedin"}, entity.StageProfessionalLinks},
	{[]string{"cv", "resume", "résumé", "upload"}, entity.StageFileUpload},
	{[]string{"personal", "your name", "contact details", "gegevens"}, entity.StagePersonalInfo},
}

// textKeywords are the last resort, searched over visible page text.
var textKeywords = []keyword{
	{[]string{"verify you are human", "select all images", "please click each image"}, entity.StageCaptchaChallenge},
	{ConfirmationWords, entity.StageConfirmation},
	{[]string{"enter your email", "continue with email", "sign in to apply", "log in to apply"}, entity.StageEmailGate},
	{[]string{"review your application", "check your application"}, entity.StageReview},
	{[]string{"upload your cv", "upload your resume", "upload your résumé", "drop your cv"}, entity.StageFileUpload},
	{[]string{"screening questions", "answer the following"}, entity.StageScreeningQuestions},
	{[]string{"cover letter", "motivation letter"}, entity.StageCoverLetter},
	{[]string{"linkedin profile", "portfolio", "professional links"}, entity.StageProfessionalLinks},
	{[]string{"personal information", "personal details", "first name"}, entity.StagePersonalInfo},
	{[]string{"apply now", "apply for this job", "solliciteer"}, entity.StageLanding},
}

// ConfirmationWords signal a received application. Shared with the outcome
// classifier.
var ConfirmationWords = []string{
	"thank you for applying",
	"thanks for applying",
	"application received",
	"application has been received",
	"application submitted",
	"application sent",
	"application complete",
	"successfully submitted",
	"bedankt voor je sollicitatie",
	"sollicitatie ontvangen",
}
