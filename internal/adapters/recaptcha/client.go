package recaptcha

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"meiras_yachting/internal/adapters/observability"
	"meiras_yachting/internal/domain"
)

const DefaultVerifyURL = "https://www.google.com/recaptcha/api/siteverify"

var ErrSecretMissing = errors.New("recaptcha: secret key is required")

type Client struct {
	verifyURL string
	secret    string
	hc        *http.Client
	rl        *rate.Limiter
}

// New builds a siteverify client. rps bounds outbound calls; there are no
// retries, a failed call surfaces to the caller.
func New(verifyURL, secret string, rps int) (*Client, error) {
	if secret == "" {
		return nil, ErrSecretMissing
	}
	if verifyURL == "" {
		verifyURL = DefaultVerifyURL
	}
	if rps <= 0 {
		rps = 20
	}
	return &Client{
		verifyURL: verifyURL,
		secret:    secret,
		hc:        &http.Client{Timeout: 10 * time.Second},
		rl:        rate.NewLimiter(rate.Limit(rps), rps),
	}, nil
}

type siteverifyResponse struct {
	Success     bool     `json:"success"`
	Score       float64  `json:"score"`
	Action      string   `json:"action"`
	ChallengeTS string   `json:"challenge_ts"`
	Hostname    string   `json:"hostname"`
	ErrorCodes  []string `json:"error-codes"`
}

func (c *Client) Verify(ctx context.Context, token, remoteIP string) (domain.Verification, error) {
	if err := c.rl.Wait(ctx); err != nil {
		return domain.Verification{}, err
	}

	form := url.Values{}
	form.Set("secret", c.secret)
	form.Set("response", token)
	if remoteIP != "" {
		form.Set("remoteip", remoteIP)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.verifyURL, strings.NewReader(form.Encode()))
	if err != nil {
		return domain.Verification{}, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.hc.Do(req)
	if err != nil {
		observability.ObserveExternal("recaptcha", "siteverify", 0, time.Since(start))
		return domain.Verification{}, err
	}
	defer resp.Body.Close()
	observability.ObserveExternal("recaptcha", "siteverify", resp.StatusCode, time.Since(start))

	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return domain.Verification{}, fmt.Errorf("recaptcha: bad status %d: %s", resp.StatusCode, strings.TrimSpace(string(b)))
	}

	var out siteverifyResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return domain.Verification{}, fmt.Errorf("recaptcha: decode: %w", err)
	}
	return domain.Verification{
		Success:    out.Success,
		Score:      out.Score,
		Action:     out.Action,
		Hostname:   out.Hostname,
		ErrorCodes: out.ErrorCodes,
	}, nil
}
