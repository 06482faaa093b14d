package api

import (
	"log/slog"
	"net/http"

	"github.com/nailtimes/salon-backend/internal/message"
	"github.com/nailtimes/salon-backend/internal/notify"
	"github.com/nailtimes/salon-backend/internal/phone"
	"github.com/nailtimes/salon-backend/internal/twilio"
)

const twimlEmptyResponse = `<?xml version="1.0" encoding="UTF-8"?><Response></Response>`

// twilioWebhookHandler receives inbound SMS posted by Twilio. The request is
// authenticated against the X-Twilio-Signature header before anything is
// stored; rejected requests get a plain 401 so Twilio surfaces the failure.
func twilioWebhookHandler(validator twilio.Validator, messages *message.Service, notifier *notify.Dispatcher, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			http.Error(w, "Bad Request", http.StatusBadRequest)
			return
		}

		params := make(map[string]string, len(r.PostForm))
		for key, values := range r.PostForm {
			if len(values) > 0 {
				params[key] = values[0]
			}
		}

		if !validator.Validate(r, params) {
			logger.Warn("rejected twilio webhook", "remote", r.RemoteAddr)
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}

		from := phone.Normalize(params["From"])
		body := params["Body"]

		// A name already attached to the thread or booking history wins
		// over whatever Twilio reports for the sender.
		name, err := messages.Resolver().DisplayName(r.Context(), from)
		if err != nil {
			logger.Error("resolve sender name", "error", err)
			name = ""
		}
		if name == "" {
			name = params["ProfileName"]
		}
		if name == "" {
			name = params["FromCity"]
		}

		msg := &message.Message{
			CustomerPhone:  from,
			CustomerName:   name,
			Direction:      message.DirectionInbound,
			Body:           body,
			ProviderSID:    params["MessageSid"],
			ProviderStatus: params["SmsStatus"],
		}
		if err := messages.Record(r.Context(), msg); err != nil {
			logger.Error("store inbound message", "error", err)
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}

		notifier.InboundMessage(from, name, body)

		w.Header().Set("Content-Type", "text/xml")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(twimlEmptyResponse))
	}
}
