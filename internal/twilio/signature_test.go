package twilio

import (
	"net/http/httptest"
	"strings"
	"testing"
)

const testToken = "12345678901234567890123456789012"

func TestBuildSignatureSortsParams(t *testing.T) {
	params := map[string]string{
		"From": "+13125550142",
		"Body": "hello",
		"To":   "+13125550100",
	}
	url := "https://api.example.com/api/twilio/webhook"

	a := BuildSignature(url, params, testToken)
	b := BuildSignature(url, params, testToken)
	if a != b {
		t.Fatal("signature must be deterministic")
	}

	if a == BuildSignature(url, map[string]string{"From": "+13125550142"}, testToken) {
		t.Fatal("signature must depend on all params")
	}
	if a == BuildSignature(url, params, "other-token") {
		t.Fatal("signature must depend on the auth token")
	}
}

func TestCandidateURLsCoverProxyRewrites(t *testing.T) {
	r := httptest.NewRequest("POST", "http://salon.example.com/api/twilio/webhook", nil)
	r.Header.Set("X-Forwarded-Proto", "https")

	urls := CandidateURLs("https://api.salon.example.com", r)

	want := []string{
		"https://api.salon.example.com/api/twilio/webhook",
		"http://api.salon.example.com/api/twilio/webhook",
		"https://salon.example.com/api/twilio/webhook",
		"http://salon.example.com/api/twilio/webhook",
	}
	for _, w := range want {
		if !contains(urls, w) {
			t.Errorf("candidate set misses %q; got %v", w, urls)
		}
	}

	// No duplicates.
	seen := map[string]bool{}
	for _, u := range urls {
		if seen[u] {
			t.Errorf("duplicate candidate %q", u)
		}
		seen[u] = true
	}
}

func TestCandidateURLsBaseAsFullWebhookURL(t *testing.T) {
	r := httptest.NewRequest("POST", "http://localhost:4000/api/twilio/webhook", nil)

	urls := CandidateURLs("https://tunnel.example.com/api/twilio/webhook", r)
	if !contains(urls, "https://tunnel.example.com/api/twilio/webhook") {
		t.Errorf("base configured as full webhook URL must appear unchanged; got %v", urls)
	}
	for _, u := range urls {
		if strings.Contains(u, "/api/twilio/webhook/api/twilio/webhook") {
			t.Errorf("path appended twice: %q", u)
		}
	}
}

func TestCandidateURLsIncludeQueryString(t *testing.T) {
	r := httptest.NewRequest("POST", "http://salon.example.com/api/twilio/webhook?x=1", nil)

	urls := CandidateURLs("", r)
	if !contains(urls, "http://salon.example.com/api/twilio/webhook?x=1") {
		t.Errorf("candidates must include the full request URI; got %v", urls)
	}
	if !contains(urls, "http://salon.example.com/api/twilio/webhook") {
		t.Errorf("candidates must include the bare path; got %v", urls)
	}
}

func TestValidateAcceptsAnyCandidate(t *testing.T) {
	v := Validator{AuthToken: testToken, BaseURL: "https://api.salon.example.com", Enabled: true}
	params := map[string]string{"From": "+13125550142", "Body": "hi"}

	r := httptest.NewRequest("POST", "http://salon.example.com/api/twilio/webhook", nil)
	r.Header.Set("X-Forwarded-Proto", "https")

	// Sign against each candidate in turn; every one must validate.
	for _, u := range CandidateURLs(v.BaseURL, r) {
		req := httptest.NewRequest("POST", "http://salon.example.com/api/twilio/webhook", nil)
		req.Header.Set("X-Forwarded-Proto", "https")
		req.Header.Set("X-Twilio-Signature", BuildSignature(u, params, testToken))
		if !v.Validate(req, params) {
			t.Errorf("request signed against candidate %q rejected", u)
		}
	}
}

func TestValidateRejectsBadSignatures(t *testing.T) {
	v := Validator{AuthToken: testToken, BaseURL: "https://api.salon.example.com", Enabled: true}
	params := map[string]string{"From": "+13125550142"}

	r := httptest.NewRequest("POST", "http://salon.example.com/api/twilio/webhook", nil)
	if v.Validate(r, params) {
		t.Error("missing signature header must be rejected")
	}

	r.Header.Set("X-Twilio-Signature", "short")
	if v.Validate(r, params) {
		t.Error("wrong-length signature must be rejected")
	}

	r.Header.Set("X-Twilio-Signature", BuildSignature("https://evil.example.com/hook", params, testToken))
	if v.Validate(r, params) {
		t.Error("signature over a non-candidate URL must be rejected")
	}

	r.Header.Set("X-Twilio-Signature", BuildSignature("https://api.salon.example.com/api/twilio/webhook", params, "wrong-token"))
	if v.Validate(r, params) {
		t.Error("signature with the wrong token must be rejected")
	}
}

func TestValidateDisabledAcceptsAnything(t *testing.T) {
	r := httptest.NewRequest("POST", "http://salon.example.com/api/twilio/webhook", nil)
	r.Header.Set("X-Twilio-Signature", "garbage")

	disabled := Validator{AuthToken: testToken, BaseURL: "https://x.example.com", Enabled: false}
	if !disabled.Validate(r, nil) {
		t.Error("disabled validation must accept")
	}

	unconfigured := Validator{Enabled: true}
	if !unconfigured.Validate(r, nil) {
		t.Error("unconfigured validation must accept (dev fallback)")
	}
}

func contains(list []string, want string) bool {
	for _, s := range list {
		if s == want {
			return true
		}
	}
	return false
}
