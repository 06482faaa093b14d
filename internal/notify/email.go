package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"
)

const resendAPIURL = "https://api.resend.com/emails"

// ErrMailerNotConfigured means no API key is set; callers treat the send as
// skipped rather than failed so local environments need no email account.
var ErrMailerNotConfigured = errors.New("email api key not configured")

// Mailer sends one HTML email and returns the provider's message id.
type Mailer interface {
	Send(ctx context.Context, to, subject, html string) (string, error)
}

// ResendMailer talks to the Resend HTTP API.
type ResendMailer struct {
	apiKey string
	from   string
	http   *http.Client
}

func NewResendMailer(apiKey, from string) *ResendMailer {
	return &ResendMailer{
		apiKey: apiKey,
		from:   from,
		http: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

type resendRequest struct {
	From    string   `json:"from"`
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	HTML    string   `json:"html"`
}

func (m *ResendMailer) Send(ctx context.Context, to, subject, html string) (string, error) {
	if m.apiKey == "" {
		return "", ErrMailerNotConfigured
	}

	raw, err := json.Marshal(resendRequest{
		From:    m.from,
		To:      []string{to},
		Subject: subject,
		HTML:    html,
	})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, resendAPIURL, bytes.NewReader(raw))
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+m.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := m.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("resend send: %w", err)
	}
	defer resp.Body.Close()

	var payload struct {
		ID      string `json:"id"`
		Message string `json:"message"`
	}
	_ = json.NewDecoder(resp.Body).Decode(&payload)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg := payload.Message
		if msg == "" {
			msg = resp.Status
		}
		return "", fmt.Errorf("resend send failed: %s", msg)
	}

	return payload.ID, nil
}
