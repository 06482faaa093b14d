package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/nailtimes/salon-backend/internal/message"
	"github.com/nailtimes/salon-backend/internal/phone"
	"github.com/nailtimes/salon-backend/internal/presence"
	"github.com/nailtimes/salon-backend/internal/twilio"
)

func listThreadsHandler(messages *message.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		threads, err := messages.ListThreads(r.Context())
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
			return
		}
		writeJSON(w, http.StatusOK, threads)
	}
}

// getThreadHandler returns a full conversation. Opening a thread marks the
// operator present on it and its inbound messages read.
func getThreadHandler(messages *message.Service, tracker *presence.Tracker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		customerPhone, ok := threadPhone(w, r)
		if !ok {
			return
		}

		thread, err := messages.Thread(r.Context(), customerPhone)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
			return
		}

		tracker.SetActive(customerPhone)

		writeJSON(w, http.StatusOK, thread)
	}
}

func renameThreadHandler(messages *message.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		customerPhone, ok := threadPhone(w, r)
		if !ok {
			return
		}

		var req RenameThreadRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		if err := messages.Rename(r.Context(), customerPhone, req.Name); err != nil {
			writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
			return
		}

		writeJSON(w, http.StatusOK, StatusResponse{Status: "ok"})
	}
}

// replyHandler sends an operator SMS to a customer. Unlike automated
// notifications the send is synchronous: the operator needs to know the
// text failed.
func replyHandler(messages *message.Service, texter *twilio.Client, tracker *presence.Tracker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		customerPhone, ok := threadPhone(w, r)
		if !ok {
			return
		}

		var req ReplyRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}
		body := strings.TrimSpace(req.Body)
		if body == "" {
			writeError(w, http.StatusBadRequest, "empty_body", "message body is required")
			return
		}

		tracker.SetActive(customerPhone)

		result, err := texter.SendSMS(r.Context(), customerPhone, body)
		if err != nil {
			if errors.Is(err, twilio.ErrNotConfigured) {
				writeError(w, http.StatusBadGateway, "sms_not_configured", "SMS sending is not configured")
				return
			}
			writeError(w, http.StatusBadGateway, "sms_send_failed", err.Error())
			return
		}

		now := time.Now()
		msg := &message.Message{
			CustomerPhone:  customerPhone,
			Direction:      message.DirectionOutbound,
			Body:           body,
			ProviderSID:    result.SID,
			ProviderStatus: result.Status,
			ReadAt:         &now,
		}
		if err := messages.Record(r.Context(), msg); err != nil {
			writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
			return
		}

		writeJSON(w, http.StatusCreated, msg)
	}
}

func presenceHandler(tracker *presence.Tracker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req PresenceRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		customerPhone := phone.Normalize(req.Phone)
		if customerPhone == "" {
			writeError(w, http.StatusBadRequest, "invalid_phone", "phone is required")
			return
		}

		if req.Active {
			tracker.SetActive(customerPhone)
		} else {
			tracker.ClearActive(customerPhone)
		}

		writeJSON(w, http.StatusOK, StatusResponse{Status: "ok"})
	}
}

func threadPhone(w http.ResponseWriter, r *http.Request) (string, bool) {
	customerPhone := phone.Normalize(chi.URLParam(r, "phone"))
	if customerPhone == "" {
		writeError(w, http.StatusBadRequest, "invalid_phone", "phone must contain digits")
		return "", false
	}
	return customerPhone, true
}
