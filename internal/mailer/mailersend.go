package mailer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/mailersend/mailersend-go"
)

type MailerSendClient struct {
	client  *mailersend.Mailersend
	from    mailersend.From
	enabled bool
}

func NewMailerSend(apiKey, fromName, fromEmail string) *MailerSendClient {
	m := &MailerSendClient{
		enabled: apiKey != "" && fromEmail != "",
		from: mailersend.From{
			Name:  fromName,
			Email: fromEmail,
		},
	}

	if m.enabled {
		m.client = mailersend.NewMailersend(apiKey)
	}
	return m
}

func (m *MailerSendClient) Send(toEmail, toName, subject, text, html string) (string, error) {
	if !m.enabled {
		return "", errors.New("mailer disabled (missing MAILERSEND_API_KEY or SMTP_FROM)")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	msg := m.client.Email.NewMessage()
	msg.SetFrom(m.from)
	msg.SetRecipients([]mailersend.Recipient{{Name: toName, Email: toEmail}})
	msg.SetSubject(subject)
	if strings.TrimSpace(text) != "" {
		msg.SetText(text)
	}
	if strings.TrimSpace(html) != "" {
		msg.SetHTML(html)
	}

	res, err := m.client.Email.Send(ctx, msg)
	if err != nil {
		return "", err
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		body, _ := io.ReadAll(res.Body)
		return "", fmt.Errorf("mailersend error: status=%d body=%s", res.StatusCode, strings.TrimSpace(string(body)))
	}
	return res.Header.Get("X-Message-Id"), nil
}

func (m *MailerSendClient) SendInvitation(email, name, inviteURL string) error {
	subject := "You're invited!"
	text := fmt.Sprintf("Hi %s,\n\nOpen your personal invitation here: %s", name, inviteURL)
	html := fmt.Sprintf(`<p>Hi %s,</p><p>Open your <a href="%s">personal invitation</a> to RSVP.</p>`, name, inviteURL)
	_, err := m.Send(email, name, subject, text, html)
	return err
}

func (m *MailerSendClient) SendRSVPConfirmation(email, name string, attending bool) error {
	subject, text, html := rsvpConfirmationBody(name, attending)
	_, err := m.Send(email, name, subject, text, html)
	return err
}

func rsvpConfirmationBody(name string, attending bool) (subject, text, html string) {
	if attending {
		subject = "See you at the party!"
		text = fmt.Sprintf("Hi %s,\n\nYour RSVP is confirmed. We can't wait to celebrate with you!", name)
		html = fmt.Sprintf("<p>Hi %s,</p><p>Your RSVP is confirmed. We can't wait to celebrate with you!</p>", name)
		return
	}
	subject = "Sorry you can't make it"
	text = fmt.Sprintf("Hi %s,\n\nWe've noted that you can't attend. You'll be missed!", name)
	html = fmt.Sprintf("<p>Hi %s,</p><p>We've noted that you can't attend. You'll be missed!</p>", name)
	return
}
