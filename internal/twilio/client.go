// Package twilio speaks the Twilio Messages REST API directly and verifies
// inbound webhook signatures. No SDK: the surface we need is one form POST
// and one HMAC.
package twilio

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/nailtimes/salon-backend/internal/phone"
)

const messagesURL = "https://api.twilio.com/2010-04-01/Accounts/%s/Messages.json"

var ErrNotConfigured = errors.New("twilio credentials not configured")

// SendResult carries the provider's ledger entry for a transmitted message.
type SendResult struct {
	SID    string
	Status string
}

type Client struct {
	accountSID string
	authToken  string
	fromNumber string
	http       *http.Client
}

func NewClient(accountSID, authToken, fromNumber string) *Client {
	return &Client{
		accountSID: accountSID,
		authToken:  authToken,
		fromNumber: fromNumber,
		http: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// Configured reports whether every credential needed to send is present.
func (c *Client) Configured() bool {
	return c.accountSID != "" && c.authToken != "" && c.fromNumber != ""
}

// SendSMS transmits one text message. The recipient is normalized before
// sending; an unroutable number is an error, not a silent drop.
func (c *Client) SendSMS(ctx context.Context, to, body string) (*SendResult, error) {
	if !c.Configured() {
		return nil, ErrNotConfigured
	}

	normalized := phone.Normalize(to)
	if normalized == "" {
		return nil, fmt.Errorf("invalid recipient phone number %q", to)
	}

	form := url.Values{}
	form.Set("To", normalized)
	form.Set("From", c.fromNumber)
	form.Set("Body", body)

	endpoint := fmt.Sprintf(messagesURL, c.accountSID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	req.SetBasicAuth(c.accountSID, c.authToken)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("twilio send: %w", err)
	}
	defer resp.Body.Close()

	var payload struct {
		SID          string `json:"sid"`
		Status       string `json:"status"`
		Message      string `json:"message"`
		ErrorMessage string `json:"error_message"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil && resp.StatusCode < 300 {
		return nil, fmt.Errorf("twilio send: decode response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg := payload.Message
		if msg == "" {
			msg = payload.ErrorMessage
		}
		if msg == "" {
			msg = resp.Status
		}
		return nil, fmt.Errorf("twilio send failed: %s", msg)
	}

	return &SendResult{SID: payload.SID, Status: payload.Status}, nil
}
