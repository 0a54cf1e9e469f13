package domain

import "time"

// Outcome is the terminal (or intermediate) state of a contact submission.
type Outcome string

const (
	OutcomeReceived            Outcome = "received"
	OutcomeRateLimited         Outcome = "rate_limited"
	OutcomeVerificationPending Outcome = "verification_pending"
	OutcomeVerificationFailed  Outcome = "verification_failed"
	OutcomeVerificationPassed  Outcome = "verification_passed"
	OutcomeMailSent            Outcome = "mail_sent"
	OutcomeMailFailed          Outcome = "mail_failed"
)

type ContactSubmission struct {
	Name     string `json:"user_name"`
	Email    string `json:"user_email"`
	Phone    string `json:"user_phone"`
	Location string `json:"user_location"`
	Message  string `json:"user_message"`
	Token    string `json:"recaptchaToken,omitempty"`
}

type Decision struct {
	Allowed    bool
	Remaining  int
	RetryAfter time.Duration
}

type Verification struct {
	Success    bool
	Score      float64
	Action     string
	Hostname   string
	ErrorCodes []string
}

type Mail struct {
	From    string
	To      string
	ReplyTo string
	Subject string
	HTML    string
}

// ContactEvent is published after a contact mail was handed off.
type ContactEvent struct {
	Name        string    `json:"name"`
	Email       string    `json:"email"`
	Phone       string    `json:"phone,omitempty"`
	Location    string    `json:"location,omitempty"`
	Score       float64   `json:"score,omitempty"`
	SubmittedAt time.Time `json:"submitted_at"`
}
