// Package mail is the email-delivery collaborator. It sends approved
// follow-up drafts over SMTP and splits generated drafts into subject and
// body.
package mail

import (
	"fmt"
	"strings"

	"gopkg.in/gomail.v2"

	laerrors "github.com/bishwajitSingh123/lead-agent/pkg/errors"
)

// DefaultSubject is used when a draft carries no Subject: line.
const DefaultSubject = "Follow-up on your inquiry"

// Dispatcher attempts delivery of a follow-up message.
type Dispatcher interface {
	Send(to, subject, body string) error
}

// SMTPSender sends mail through an SMTP relay using gomail.
type SMTPSender struct {
	host     string
	port     int
	username string
	password string
	from     string
}

// NewSMTPSender creates an SMTP dispatcher. from is the envelope sender
// address placed in the From header.
func NewSMTPSender(host string, port int, username, password, from string) *SMTPSender {
	return &SMTPSender{
		host:     host,
		port:     port,
		username: username,
		password: password,
		from:     from,
	}
}

// Send delivers one plain-text message. Any SMTP failure is a delivery error;
// the caller keeps the draft and retries later.
func (s *SMTPSender) Send(to, subject, body string) error {
	if to == "" {
		return fmt.Errorf("empty recipient: %w", laerrors.ErrDelivery)
	}

	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/plain", body)

	d := gomail.NewDialer(s.host, s.port, s.username, s.password)
	if err := d.DialAndSend(m); err != nil {
		return fmt.Errorf("sending to %s: %w: %v", to, laerrors.ErrDelivery, err)
	}
	return nil
}

// UnconfiguredDispatcher fails every send with a delivery error telling the
// operator to configure SMTP. Approvals still work; only delivery is blocked.
type UnconfiguredDispatcher struct{}

// NewUnconfiguredDispatcher returns the dispatcher used when no SMTP relay
// is configured.
func NewUnconfiguredDispatcher() *UnconfiguredDispatcher {
	return &UnconfiguredDispatcher{}
}

// Send always fails.
func (*UnconfiguredDispatcher) Send(to, subject, body string) error {
	return fmt.Errorf("smtp relay not configured, set smtp.host in config: %w", laerrors.ErrDelivery)
}

// ParseDraft splits a generated draft into subject and body. The draft is
// expected to begin with a "Subject:" line; when it doesn't, the whole text
// becomes the body under DefaultSubject.
func ParseDraft(draft string) (subject, body string) {
	subject = DefaultSubject

	var bodyLines []string
	foundSubject := false
	for _, line := range strings.Split(strings.TrimSpace(draft), "\n") {
		if !foundSubject && strings.HasPrefix(line, "Subject:") {
			subject = strings.TrimSpace(strings.TrimPrefix(line, "Subject:"))
			foundSubject = true
			continue
		}
		bodyLines = append(bodyLines, line)
	}

	body = strings.TrimSpace(strings.Join(bodyLines, "\n"))
	return subject, body
}
