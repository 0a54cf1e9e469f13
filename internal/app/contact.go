package app

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html/template"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"meiras_yachting/internal/domain"
)

// DefaultMinScore is the reCAPTCHA score a token has to beat (strictly).
const DefaultMinScore = 0.5

var errVerifierMissing = errors.New("recaptcha verification is not configured")

type ContactConfig struct {
	From     string
	To       string
	SiteName string
	MinScore float64
}

type ContactResult struct {
	Outcome    domain.Outcome
	Score      float64
	RetryAfter time.Duration
}

type ContactService struct {
	limiter  domain.RateLimiter
	verifier domain.Verifier
	mailer   domain.Mailer
	events   domain.EventPublisher
	cfg      ContactConfig
	now      func() time.Time
}

// NewContactService builds the contact gateway. verifier may be nil (no
// reCAPTCHA secret configured) in which case submissions skip verification;
// events may be nil.
func NewContactService(l domain.RateLimiter, v domain.Verifier, m domain.Mailer, ev domain.EventPublisher, cfg ContactConfig) *ContactService {
	if cfg.MinScore <= 0 {
		cfg.MinScore = DefaultMinScore
	}
	return &ContactService{limiter: l, verifier: v, mailer: m, events: ev, cfg: cfg, now: time.Now}
}

// Submit runs one contact form submission through rate limit, verification
// and mail hand-off. The returned error is one of the domain sentinels for
// caller mistakes, or a wrapped collaborator failure. OutcomeMailFailed means
// the mailer reported failure; the SMTP mailer only gives up on a cancelled
// ctx before dialing, so a reported failure never hides a delivered mail.
func (s *ContactService) Submit(ctx context.Context, clientKey, remoteIP string, sub domain.ContactSubmission) (ContactResult, error) {
	dec, err := s.limiter.Allow(ctx, clientKey)
	if err != nil {
		return ContactResult{Outcome: domain.OutcomeReceived}, fmt.Errorf("rate limiter: %w", err)
	}
	if !dec.Allowed {
		return ContactResult{Outcome: domain.OutcomeRateLimited, RetryAfter: dec.RetryAfter}, domain.ErrRateLimited
	}

	res := ContactResult{Outcome: domain.OutcomeVerificationPassed}
	if s.verifier != nil {
		res, err = s.VerifyToken(ctx, sub.Token, remoteIP)
		if err != nil {
			return res, err
		}
	}

	msg, err := s.compose(sub)
	if err != nil {
		return ContactResult{Outcome: domain.OutcomeMailFailed, Score: res.Score}, err
	}
	if err := s.mailer.Send(ctx, msg); err != nil {
		return ContactResult{Outcome: domain.OutcomeMailFailed, Score: res.Score}, fmt.Errorf("send mail: %w", err)
	}
	res.Outcome = domain.OutcomeMailSent

	if s.events != nil {
		ev := domain.ContactEvent{
			Name:        sub.Name,
			Email:       sub.Email,
			Phone:       sub.Phone,
			Location:    sub.Location,
			Score:       res.Score,
			SubmittedAt: s.now().UTC(),
		}
		if err := s.events.PublishContact(ctx, ev); err != nil {
			log.Warn().Err(err).Msg("contact event publish failed")
		}
	}
	return res, nil
}

// VerifyToken asks the verifier about token and accepts only a successful
// assertion scoring above the configured minimum.
func (s *ContactService) VerifyToken(ctx context.Context, token, remoteIP string) (ContactResult, error) {
	res := ContactResult{Outcome: domain.OutcomeVerificationPending}
	if s.verifier == nil {
		return res, errVerifierMissing
	}
	if strings.TrimSpace(token) == "" {
		res.Outcome = domain.OutcomeVerificationFailed
		return res, fmt.Errorf("%w: missing recaptcha token", domain.ErrVerificationFailed)
	}

	v, err := s.verifier.Verify(ctx, token, remoteIP)
	if err != nil {
		return res, fmt.Errorf("verify recaptcha: %w", err)
	}
	res.Score = v.Score
	if !v.Success || v.Score <= s.cfg.MinScore {
		res.Outcome = domain.OutcomeVerificationFailed
		return res, fmt.Errorf("%w: success=%t score=%.2f", domain.ErrVerificationFailed, v.Success, v.Score)
	}
	res.Outcome = domain.OutcomeVerificationPassed
	return res, nil
}

var contactMailTmpl = template.Must(template.New("contact").Parse(
	`<p><strong>İsim:</strong> {{.Name}}</p>
<p><strong>E-mail:</strong> {{.Email}}</p>
<p><strong>Telefon:</strong> {{.Phone}}</p>
<p><strong>Şehir:</strong> {{.Location}}</p>
<p><strong>Mesaj:</strong><br>{{.Message}}</p>
`))

func (s *ContactService) compose(sub domain.ContactSubmission) (domain.Mail, error) {
	var body bytes.Buffer
	if err := contactMailTmpl.Execute(&body, sub); err != nil {
		return domain.Mail{}, fmt.Errorf("render contact mail: %w", err)
	}
	return domain.Mail{
		From:    s.cfg.From,
		To:      s.cfg.To,
		ReplyTo: oneLine(sub.Email),
		Subject: fmt.Sprintf("%s %s Kişisinden Yeni Mesaj!", s.cfg.SiteName, oneLine(sub.Name)),
		HTML:    body.String(),
	}, nil
}

// header values come from the form; keep them on one line
func oneLine(v string) string {
	return strings.TrimSpace(strings.NewReplacer("\r", " ", "\n", " ").Replace(v))
}
