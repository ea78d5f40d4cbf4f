package models

import (
	"errors"
	"time"
)

// Role identifies who authored a timeline entry.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Status represents the delivery state of a timeline entry.
type Status string

const (
	StatusSending Status = "sending"
	StatusSent    Status = "sent"
	StatusFailed  Status = "failed"
)

// ErrEmptyMessage is returned when a submission is blank after trimming.
var ErrEmptyMessage = errors.New("message text is empty")

// ErrMessageNotFound is returned when a retry targets an unknown message.
var ErrMessageNotFound = errors.New("message not found")

// PurchaseOption is a purchasable structured item attached to an
// assistant message.
type PurchaseOption struct {
	ID      string `json:"id"`
	Display string `json:"display"`
	Price   int    `json:"price"`
}

// Message is a single timeline entry. TurnID ties a user message and
// its paired assistant reply (or placeholder) to one logical turn.
type Message struct {
	ID        string           `json:"id"`
	TurnID    string           `json:"turnId"`
	Role      Role             `json:"role"`
	Text      string           `json:"text"`
	CreatedAt time.Time        `json:"createdAt"`
	Status    Status           `json:"status"`
	Options   []PurchaseOption `json:"options,omitempty"`
}

// Envelope is the durable unit enqueued for retry: the minimal payload
// needed to resend a message independently of the visible timeline.
// Attempts counts failed drain resends so a cap can be enforced.
type Envelope struct {
	RecipientID  string `json:"recipientId"`
	Text         string `json:"text"`
	LanguageHint string `json:"languageHint,omitempty"`
	Attempts     int    `json:"attempts,omitempty"`
}

// ChatRequest is the wire payload sent to the remote conversation service.
type ChatRequest struct {
	RecipientID  string `json:"recipientId"`
	Message      string `json:"message"`
	LanguageHint string `json:"languageHint,omitempty"`
}

// ChatResponse is the remote conversation service's reply.
type ChatResponse struct {
	Reply        string           `json:"reply"`
	Options      []PurchaseOption `json:"options,omitempty"`
	QuickReplies []string         `json:"quick_replies,omitempty"`
}

// Request converts an envelope back into the wire payload for resending.
func (e Envelope) Request() ChatRequest {
	return ChatRequest{
		RecipientID:  e.RecipientID,
		Message:      e.Text,
		LanguageHint: e.LanguageHint,
	}
}
