package mailer

import (
	"github.com/mjoly/fete-invites/pkg/logger"
)

// DevMailer logs emails instead of sending them.
type DevMailer struct{}

func NewDevMailer() *DevMailer { return &DevMailer{} }

func (d *DevMailer) Send(toEmail, toName, subject, text, html string) (string, error) {
	logger.Info("[DEV MAIL]",
		"to", toEmail,
		"name", toName,
		"subject", subject,
		"text", text,
	)
	return "dev", nil
}

func (d *DevMailer) SendInvitation(email, name, inviteURL string) error {
	logger.Info("[DEV MAIL] invitation",
		"to", email,
		"name", name,
		"invite_url", inviteURL,
	)
	return nil
}

func (d *DevMailer) SendRSVPConfirmation(email, name string, attending bool) error {
	logger.Info("[DEV MAIL] RSVP confirmation",
		"to", email,
		"name", name,
		"attending", attending,
	)
	return nil
}
