package domain

import (
	"time"

	"github.com/google/uuid"
)

type Channel string

const (
	ChannelEmail Channel = "email"
	ChannelPhone Channel = "phone"
)

func (c Channel) Other() Channel {
	if c == ChannelEmail {
		return ChannelPhone
	}
	return ChannelEmail
}

// Challenge is one dispatched verification code on its way to a contact.
type Challenge struct {
	ID        uuid.UUID `json:"id"`
	UserID    uuid.UUID `json:"user_id"`
	Channel   Channel   `json:"channel"`
	Contact   string    `json:"contact"`
	Code      string    `json:"code"`
	CreatedAt time.Time `json:"created_at"`
}

type VerificationStatus struct {
	State           string  `json:"state"`
	Channel         Channel `json:"channel"`
	Contact         string  `json:"contact"`
	CooldownSeconds int     `json:"cooldown_seconds"`
	CanResend       bool    `json:"can_resend"`
}
