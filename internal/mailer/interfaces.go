package mailer

// Service sends guest-facing mail. All sends are best-effort: a failed
// email never fails the request that triggered it.
type Service interface {
	Send(toEmail, toName, subject, text, html string) (string, error)
	SendInvitation(email, name, inviteURL string) error
	SendRSVPConfirmation(email, name string, attending bool) error
}
