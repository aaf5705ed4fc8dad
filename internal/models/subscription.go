package models

import (
	"encoding/json"
	"time"
)

// SubscriptionIntent is created per ticket-acquisition attempt and never stored.
type SubscriptionIntent struct {
	Email   string `json:"email" validate:"required,email"`
	EventID string `json:"eventId" validate:"required"`
	OptIn   bool   `json:"optIn"`
}

type SubscriptionResult struct {
	TicketURL string `json:"ticketUrl,omitempty"`
}

type Subscription struct {
	ID        string    `json:"_id"`
	Email     string    `json:"email"`
	EventID   string    `json:"eventId"`
	OptIn     bool      `json:"optIn"`
	CreatedAt time.Time `json:"createdAt"`
}

func (s *Subscription) UnmarshalJSON(data []byte) error {
	type alias Subscription
	var raw struct {
		alias
		AltID string `json:"id"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*s = Subscription(raw.alias)
	if s.ID == "" {
		s.ID = raw.AltID
	}
	return nil
}

// Clickthrough is published when a visitor is handed off to a ticket URL.
// It carries no email address.
type Clickthrough struct {
	EventID    string    `json:"eventId"`
	OptIn      bool      `json:"optIn"`
	TicketHost string    `json:"ticketHost"`
	RequestID  string    `json:"requestId,omitempty"`
	OccurredAt time.Time `json:"occurredAt"`
}

// CatalogUpdate is consumed from the backend when the event catalog changes.
type CatalogUpdate struct {
	Reason    string    `json:"reason,omitempty"`
	UpdatedAt time.Time `json:"updatedAt"`
}
