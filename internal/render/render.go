package render

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io"

	"adespota/internal/domain"
)

//go:embed templates/*
var templatesFS embed.FS

const emailSubject = "Your adespota verification code"

type Renderer struct {
	t *template.Template
}

func NewRenderer() (*Renderer, error) {
	t, err := template.ParseFS(templatesFS, "templates/*")
	if err != nil {
		return nil, err
	}
	return &Renderer{t: t}, nil
}

func (r *Renderer) Execute(w io.Writer, name string, data any) error {
	return r.t.ExecuteTemplate(w, name, data)
}

type Message struct {
	Channel     domain.Channel `json:"channel"`
	To          string         `json:"to"`
	Subject     string         `json:"subject,omitempty"`
	Body        string         `json:"body"`
	ContentType string         `json:"content_type"`
}

// Challenge renders the message that carries a verification code to its contact.
func (r *Renderer) Challenge(ch domain.Challenge) (Message, error) {
	var buf bytes.Buffer
	msg := Message{Channel: ch.Channel, To: ch.Contact}

	switch ch.Channel {
	case domain.ChannelEmail:
		if err := r.Execute(&buf, "challenge_email.html", ch); err != nil {
			return Message{}, err
		}
		msg.Subject = emailSubject
		msg.ContentType = "text/html; charset=utf-8"
	case domain.ChannelPhone:
		if err := r.Execute(&buf, "challenge_sms.txt", ch); err != nil {
			return Message{}, err
		}
		msg.ContentType = "text/plain; charset=utf-8"
	default:
		return Message{}, fmt.Errorf("render: unknown channel %q", ch.Channel)
	}

	msg.Body = buf.String()
	return msg, nil
}
