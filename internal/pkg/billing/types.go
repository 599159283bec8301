package billing

// Initiation is what the payment start endpoint hands back to the browser.
// Fields+ProcessURL drive the recommended auto-submitted form POST;
// RedirectURL is the GET fallback with the full query string (long URLs can
// be rejected by intermediaries, hence the POST default).
type Initiation struct {
	ProcessURL  string            `json:"process_url"`
	RedirectURL string            `json:"redirect_url"`
	Fields      map[string]string `json:"fields"`
	Reference   string            `json:"reference"`
}

// Outcome classifies how the notification verifier finished.
type Outcome string

const (
	// OutcomeApplied means the entitlement upgrade was written.
	OutcomeApplied Outcome = "applied"
	// OutcomeAlreadyApplied means a valid callback was redelivered; the
	// original upgrade stands untouched.
	OutcomeAlreadyApplied Outcome = "already_applied"
	// OutcomeIgnored means the payment status was not final-successful.
	// The gateway gets a 200 so it stops redelivering.
	OutcomeIgnored Outcome = "ignored"
)

// NotificationResult reports the verifier's decision for a single callback.
type NotificationResult struct {
	Outcome   Outcome
	Reference string
	UserID    uint
}
