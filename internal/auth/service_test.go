package auth

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

const (
	testAdminEmail = "admin@nailtimes.test"
	testPassword   = "correct horse"
	testSecret     = "test-secret"
)

type memOTPRepo struct {
	mu   sync.Mutex
	otps []*OTP
}

func (m *memOTPRepo) Create(ctx context.Context, otp *OTP) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *otp
	if cp.ID == uuid.Nil {
		cp.ID = uuid.New()
	}
	cp.CreatedAt = time.Now()
	m.otps = append(m.otps, &cp)
	otp.ID = cp.ID
	return nil
}

func (m *memOTPRepo) LatestActive(ctx context.Context, email string, now time.Time) (*OTP, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := len(m.otps) - 1; i >= 0; i-- {
		o := m.otps[i]
		if o.Email == email && o.UsedAt == nil && o.ExpiresAt.After(now) {
			cp := *o
			return &cp, nil
		}
	}
	return nil, ErrOTPNotFound
}

func (m *memOTPRepo) Consume(ctx context.Context, id uuid.UUID, at time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, o := range m.otps {
		if o.ID == id {
			if o.UsedAt != nil {
				return false, nil
			}
			o.UsedAt = &at
			return true, nil
		}
	}
	return false, nil
}

type captureSender struct {
	mu    sync.Mutex
	codes []string
	err   error
}

func (c *captureSender) SendOTPEmail(ctx context.Context, to, code string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return c.err
	}
	c.codes = append(c.codes, code)
	return nil
}

func (c *captureSender) lastCode() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.codes) == 0 {
		return ""
	}
	return c.codes[len(c.codes)-1]
}

func newTestService(t *testing.T, twoFA bool) (*Service, *memOTPRepo, *captureSender) {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(testPassword), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	repo := &memOTPRepo{}
	sender := &captureSender{}
	svc := NewService(testAdminEmail, string(hash), testSecret, twoFA, repo, sender, slog.New(slog.NewTextHandler(testWriter{t}, nil)))
	return svc, repo, sender
}

type testWriter struct{ t *testing.T }

func (w testWriter) Write(p []byte) (int, error) {
	w.t.Log(string(p))
	return len(p), nil
}

func TestLoginWithoutTwoFactorIssuesToken(t *testing.T) {
	svc, _, _ := newTestService(t, false)

	res, err := svc.Login(context.Background(), testAdminEmail, testPassword)
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if res.Requires2FA {
		t.Fatal("expected no second factor")
	}
	if res.Token == "" {
		t.Fatal("expected a token")
	}

	email, err := svc.VerifyToken(res.Token)
	if err != nil {
		t.Fatalf("verify token: %v", err)
	}
	if email != testAdminEmail {
		t.Fatalf("email = %q, want %q", email, testAdminEmail)
	}
}

func TestLoginRejectsWrongPasswordAndEmail(t *testing.T) {
	svc, _, _ := newTestService(t, false)

	if _, err := svc.Login(context.Background(), testAdminEmail, "nope"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("wrong password: err = %v, want ErrInvalidCredentials", err)
	}
	if _, err := svc.Login(context.Background(), "other@nailtimes.test", testPassword); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("wrong email: err = %v, want ErrInvalidCredentials", err)
	}
}

func TestLoginWithTwoFactorEmailsCode(t *testing.T) {
	svc, repo, sender := newTestService(t, true)

	res, err := svc.Login(context.Background(), testAdminEmail, testPassword)
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if !res.Requires2FA || res.Token != "" {
		t.Fatalf("got %+v, want pending second factor with no token", res)
	}

	code := sender.lastCode()
	if len(code) != 6 {
		t.Fatalf("code %q, want 6 digits", code)
	}
	if len(repo.otps) != 1 {
		t.Fatalf("stored otps = %d, want 1", len(repo.otps))
	}

	token, err := svc.VerifyOTP(context.Background(), testAdminEmail, code)
	if err != nil {
		t.Fatalf("verify otp: %v", err)
	}
	if _, err := svc.VerifyToken(token); err != nil {
		t.Fatalf("verify token: %v", err)
	}
}

func TestVerifyOTPRejectsWrongCode(t *testing.T) {
	svc, _, _ := newTestService(t, true)
	if _, err := svc.Login(context.Background(), testAdminEmail, testPassword); err != nil {
		t.Fatalf("login: %v", err)
	}

	if _, err := svc.VerifyOTP(context.Background(), testAdminEmail, "000000"); !errors.Is(err, ErrInvalidCode) {
		t.Fatalf("err = %v, want ErrInvalidCode", err)
	}
}

func TestVerifyOTPSingleUse(t *testing.T) {
	svc, _, sender := newTestService(t, true)
	if _, err := svc.Login(context.Background(), testAdminEmail, testPassword); err != nil {
		t.Fatalf("login: %v", err)
	}
	code := sender.lastCode()

	if _, err := svc.VerifyOTP(context.Background(), testAdminEmail, code); err != nil {
		t.Fatalf("first verify: %v", err)
	}
	if _, err := svc.VerifyOTP(context.Background(), testAdminEmail, code); !errors.Is(err, ErrInvalidCode) {
		t.Fatalf("second verify: err = %v, want ErrInvalidCode", err)
	}
}

func TestVerifyOTPExpiredCode(t *testing.T) {
	svc, _, sender := newTestService(t, true)
	if _, err := svc.Login(context.Background(), testAdminEmail, testPassword); err != nil {
		t.Fatalf("login: %v", err)
	}
	code := sender.lastCode()

	svc.now = func() time.Time { return time.Now().Add(11 * time.Minute) }

	if _, err := svc.VerifyOTP(context.Background(), testAdminEmail, code); !errors.Is(err, ErrInvalidCode) {
		t.Fatalf("err = %v, want ErrInvalidCode", err)
	}
}

func TestVerifyOTPWhenDisabled(t *testing.T) {
	svc, _, _ := newTestService(t, false)
	if _, err := svc.VerifyOTP(context.Background(), testAdminEmail, "123456"); !errors.Is(err, Err2FADisabled) {
		t.Fatalf("err = %v, want Err2FADisabled", err)
	}
}

func TestLoginFailsWhenEmailCannotBeSent(t *testing.T) {
	svc, _, sender := newTestService(t, true)
	sender.err = errors.New("smtp down")

	if _, err := svc.Login(context.Background(), testAdminEmail, testPassword); err == nil {
		t.Fatal("expected error when code email fails")
	}
}

func TestVerifyTokenRejectsForgeries(t *testing.T) {
	svc, _, _ := newTestService(t, false)
	other := NewService(testAdminEmail, "x", "other-secret", false, &memOTPRepo{}, &captureSender{}, slog.New(slog.NewTextHandler(testWriter{t}, nil)))

	forged, err := other.issueToken(testAdminEmail)
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}
	if _, err := svc.VerifyToken(forged); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("err = %v, want ErrInvalidCredentials", err)
	}
	if _, err := svc.VerifyToken("not-a-token"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("garbage token: err = %v, want ErrInvalidCredentials", err)
	}
}
