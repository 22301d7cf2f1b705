package email

type Message struct {
	To       []string
	CC       []string
	BCC      []string
	Subject  string
	TextBody string
	HTMLBody string
	Headers  map[string]string
}

// Tag headers let the mail relay route and report on message classes.
const (
	HeaderCategory = "X-Medcenter-Category"

	CategoryHistoryOTP      = "history-otp"
	CategoryOverrideAudit   = "override-audit"
	CategoryLabResultsReady = "lab-results-ready"
)
