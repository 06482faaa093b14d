package twilio

import (
	"crypto/hmac"
	"crypto/sha1"
	"encoding/base64"
	"net/http"
	"sort"
	"strings"
)

// BuildSignature computes the signature Twilio attaches to webhook requests:
// HMAC-SHA1 over the full URL concatenated with every POST parameter as
// key+value pairs in sorted key order, base64 encoded.
func BuildSignature(url string, params map[string]string, authToken string) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteString(url)
	for _, k := range keys {
		b.WriteString(k)
		b.WriteString(params[k])
	}

	mac := hmac.New(sha1.New, []byte(authToken))
	mac.Write([]byte(b.String()))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

// CandidateURLs reconstructs every URL the provider might have signed
// against. Reverse proxies and tunnels rewrite scheme and host
// unpredictably, and Twilio signs the exact URL it invoked, so validation
// has to try the configured base (as-is, with the path appended, and with
// the scheme flipped) plus reconstructions from the request's own headers.
// The returned list is de-duplicated and order-preserving.
func CandidateURLs(baseURL string, r *http.Request) []string {
	var urls []string

	path := r.URL.Path
	base := strings.TrimRight(strings.TrimSpace(baseURL), "/")

	if base != "" {
		urls = append(urls, joinBasePath(base, path))
		if flipped := flipScheme(base); flipped != "" {
			urls = append(urls, joinBasePath(flipped, path))
		}
	}

	host := r.Host
	if host != "" {
		forwarded := strings.TrimSpace(strings.Split(r.Header.Get("X-Forwarded-Proto"), ",")[0])
		reqScheme := "http"
		if r.TLS != nil {
			reqScheme = "https"
		}

		requestURI := r.URL.RequestURI()
		for _, proto := range dedupe([]string{forwarded, reqScheme, "https", "http"}) {
			if proto == "" {
				continue
			}
			urls = append(urls, proto+"://"+host+requestURI)
			urls = append(urls, proto+"://"+host+path)
		}
	}

	return dedupe(urls)
}

// joinBasePath supports the base URL configured either as an origin
// (https://api.example.com) or as the full webhook URL itself.
func joinBasePath(base, path string) string {
	if path == "" || strings.HasSuffix(base, path) {
		return base
	}
	if !strings.HasPrefix(path, "/") {
		return base + "/" + path
	}
	return base + path
}

func flipScheme(url string) string {
	switch {
	case strings.HasPrefix(url, "http://"):
		return "https://" + strings.TrimPrefix(url, "http://")
	case strings.HasPrefix(url, "https://"):
		return "http://" + strings.TrimPrefix(url, "https://")
	}
	return ""
}

func dedupe(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s == "" {
			continue
		}
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}

// Validator decides whether an inbound webhook genuinely came from Twilio.
type Validator struct {
	AuthToken string
	BaseURL   string
	// Enabled false is an explicit insecure dev fallback: every request is
	// accepted. The same applies when the auth token or base URL is not
	// configured, so local environments work without credentials.
	Enabled bool
}

// Validate checks the X-Twilio-Signature header against every candidate URL.
// Comparison is constant-time; a length mismatch skips the candidate without
// touching content.
func (v Validator) Validate(r *http.Request, params map[string]string) bool {
	if !v.Enabled || v.AuthToken == "" || v.BaseURL == "" {
		return true
	}

	received := r.Header.Get("X-Twilio-Signature")
	if received == "" {
		return false
	}

	for _, url := range CandidateURLs(v.BaseURL, r) {
		expected := BuildSignature(url, params, v.AuthToken)
		if len(expected) != len(received) {
			continue
		}
		if hmac.Equal([]byte(expected), []byte(received)) {
			return true
		}
	}

	return false
}
