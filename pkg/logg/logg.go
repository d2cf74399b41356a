package logg

// Field keys shared by every component logger.
const (
	Layer     = "layer"
	Operation = "operation"
	URL       = "url"
	Selector  = "selector"
	AttemptID = "attempt_id"
	Action    = "action"
	Role      = "role"
	Stage     = "stage"
	Outcome   = "outcome"
	Applicant = "applicant"
)
