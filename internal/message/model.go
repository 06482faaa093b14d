package message

import (
	"time"

	"github.com/google/uuid"
)

type Direction string

const (
	DirectionInbound  Direction = "inbound"
	DirectionOutbound Direction = "outbound"
)

// MaxBodyLength bounds stored message bodies; a single SMS segment chain
// tops out well below this.
const MaxBodyLength = 5000

// Message is one text in a conversation. A conversation (thread) is every
// message sharing a canonical customer phone, ordered by creation time.
type Message struct {
	ID             uuid.UUID
	CustomerPhone  string // canonical +<cc><digits>
	CustomerName   string
	Direction      Direction
	Body           string
	ProviderSID    string // Twilio message sid, when known
	ProviderStatus string
	ReadAt         *time.Time
	CreatedAt      time.Time
}

// ThreadSummary is one row on the operator's conversation list.
type ThreadSummary struct {
	CustomerPhone   string    `json:"customer_phone"`
	CustomerName    string    `json:"customer_name"`
	LatestMessageAt time.Time `json:"latest_message_at"`
	LastMessageBody string    `json:"last_message_body"`
	LastDirection   Direction `json:"last_direction"`
	UnreadCount     int       `json:"unread_count"`
}

// Thread is a full conversation plus its resolved display name.
type Thread struct {
	CustomerPhone string    `json:"customer_phone"`
	CustomerName  string    `json:"customer_name"`
	Messages      []Message `json:"messages"`
}
