package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/nailtimes/salon-backend/internal/auth"
)

func loginInitHandler(authSvc *auth.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req LoginRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}
		if req.Email == "" || req.Password == "" {
			writeError(w, http.StatusBadRequest, "missing_credentials", "email and password are required")
			return
		}

		result, err := authSvc.Login(r.Context(), strings.ToLower(strings.TrimSpace(req.Email)), req.Password)
		if err != nil {
			if errors.Is(err, auth.ErrInvalidCredentials) {
				writeError(w, http.StatusUnauthorized, "invalid_credentials", "email or password is incorrect")
				return
			}
			writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
			return
		}

		writeJSON(w, http.StatusOK, LoginResponse{
			Token:       result.Token,
			Requires2FA: result.Requires2FA,
		})
	}
}

func loginVerifyHandler(authSvc *auth.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req VerifyOTPRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}
		if req.Email == "" || req.Code == "" {
			writeError(w, http.StatusBadRequest, "missing_code", "email and code are required")
			return
		}

		token, err := authSvc.VerifyOTP(r.Context(), strings.ToLower(strings.TrimSpace(req.Email)), strings.TrimSpace(req.Code))
		if err != nil {
			switch {
			case errors.Is(err, auth.ErrInvalidCode):
				writeError(w, http.StatusUnauthorized, "invalid_code", "code is incorrect or expired")
			case errors.Is(err, auth.Err2FADisabled):
				writeError(w, http.StatusBadRequest, "two_factor_disabled", err.Error())
			default:
				writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
			}
			return
		}

		writeJSON(w, http.StatusOK, LoginResponse{Token: token})
	}
}
