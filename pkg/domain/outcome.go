package domain

// Status is the terminal state of a rewrite operation.
type Status string

const (
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
	StatusAborted   Status = "aborted"
	// StatusDeclined means the preview was rejected, so nothing was merged.
	StatusDeclined Status = "declined"
	// StatusPending means a PartialDocument was produced but left for the caller to commit.
	StatusPending Status = "pending"
)

// Outcome is the pass/fail result presented to the user.
type Outcome struct {
	Status  Status `json:"status"`
	Message string `json:"message"`
}

// Status messages shown to the user.
const (
	MessageSucceeded = "Character card rewritten to first-person perspective!"
	MessagePending   = "Rewrite ready for review"
	MessageAborted   = "Rewrite aborted by user"
	MessageDeclined  = "Rewrite cancelled, character card unchanged"
)

// Succeeded builds a success outcome.
func Succeeded() Outcome { return Outcome{Status: StatusSucceeded, Message: MessageSucceeded} }

// Pending builds an outcome for a rewrite awaiting confirmation.
func Pending() Outcome { return Outcome{Status: StatusPending, Message: MessagePending} }

// Aborted builds an aborted outcome.
func Aborted() Outcome { return Outcome{Status: StatusAborted, Message: MessageAborted} }

// Declined builds an outcome for a rejected preview.
func Declined() Outcome { return Outcome{Status: StatusDeclined, Message: MessageDeclined} }

// Failed builds a failure outcome from an error.
func Failed(err error) Outcome {
	return Outcome{Status: StatusFailed, Message: "Error: " + err.Error()}
}

// Terminal reports whether the outcome ends the operation without a pending commit.
func (o Outcome) Terminal() bool {
	return o.Status != StatusPending
}
