// Package auth authenticates the salon's single admin account: password
// login, an optional emailed one-time code as a second factor, and the JWTs
// that guard the admin API.
package auth

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidCode        = errors.New("invalid code")
	Err2FADisabled        = errors.New("two-factor login is disabled")
)

const (
	tokenLifetime = 12 * time.Hour
	otpLifetime   = 10 * time.Minute
	otpHashCost   = 12
)

// OTPSender delivers a login code; delivery failure fails the login attempt.
type OTPSender interface {
	SendOTPEmail(ctx context.Context, to, code string) error
}

type Service struct {
	adminEmail   string
	passwordHash string // bcrypt
	jwtSecret    []byte
	twoFAEnabled bool
	otps         OTPRepository
	sender       OTPSender
	logger       *slog.Logger
	now          func() time.Time
}

func NewService(adminEmail, passwordHash, jwtSecret string, twoFAEnabled bool, otps OTPRepository, sender OTPSender, logger *slog.Logger) *Service {
	return &Service{
		adminEmail:   adminEmail,
		passwordHash: passwordHash,
		jwtSecret:    []byte(jwtSecret),
		twoFAEnabled: twoFAEnabled,
		otps:         otps,
		sender:       sender,
		logger:       logger,
		now:          time.Now,
	}
}

type LoginResult struct {
	Token       string
	Requires2FA bool
}

// Login checks the admin password. With two-factor disabled it issues a
// token immediately; otherwise it mints a fresh one-time code and emails it.
func (s *Service) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	if email != s.adminEmail {
		return nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(s.passwordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	if !s.twoFAEnabled {
		token, err := s.issueToken(email)
		if err != nil {
			return nil, err
		}
		return &LoginResult{Token: token}, nil
	}

	code, err := generateCode()
	if err != nil {
		return nil, fmt.Errorf("generate otp: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(code), otpHashCost)
	if err != nil {
		return nil, fmt.Errorf("hash otp: %w", err)
	}

	otp := &OTP{
		Email:     email,
		CodeHash:  string(hash),
		ExpiresAt: s.now().Add(otpLifetime),
	}
	if err := s.otps.Create(ctx, otp); err != nil {
		return nil, fmt.Errorf("store otp: %w", err)
	}

	if err := s.sender.SendOTPEmail(ctx, email, code); err != nil {
		return nil, fmt.Errorf("send otp email: %w", err)
	}

	s.logger.Info("admin login code issued", "email", email)
	return &LoginResult{Requires2FA: true}, nil
}

// VerifyOTP consumes the most recent active code and issues a token. A code
// can be spent exactly once, even under concurrent attempts.
func (s *Service) VerifyOTP(ctx context.Context, email, code string) (string, error) {
	if !s.twoFAEnabled {
		return "", Err2FADisabled
	}
	if email != s.adminEmail {
		return "", ErrInvalidCode
	}

	otp, err := s.otps.LatestActive(ctx, email, s.now())
	if err != nil {
		if errors.Is(err, ErrOTPNotFound) {
			return "", ErrInvalidCode
		}
		return "", err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(otp.CodeHash), []byte(code)); err != nil {
		return "", ErrInvalidCode
	}

	consumed, err := s.otps.Consume(ctx, otp.ID, s.now())
	if err != nil {
		return "", err
	}
	if !consumed {
		return "", ErrInvalidCode
	}

	return s.issueToken(email)
}

// VerifyToken validates an admin bearer token and returns its email claim.
func (s *Service) VerifyToken(tokenString string) (string, error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return s.jwtSecret, nil
	})
	if err != nil || !token.Valid {
		return "", ErrInvalidCredentials
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", ErrInvalidCredentials
	}
	email, _ := claims["email"].(string)
	if email != s.adminEmail {
		return "", ErrInvalidCredentials
	}
	return email, nil
}

func (s *Service) issueToken(email string) (string, error) {
	now := s.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"email": email,
		"iat":   now.Unix(),
		"exp":   now.Add(tokenLifetime).Unix(),
	})
	signed, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// generateCode draws a 6-digit code from crypto/rand.
func generateCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(900000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()+100000), nil
}
