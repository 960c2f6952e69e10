package mail

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/smtp"
	"strings"

	"github.com/gigboard/gigboard-api/internal/domain"
)

// Mailer delivers OTP codes and application lifecycle notifications over
// SMTP. It implements both service.OTPMailer and service.Notifier.
type Mailer struct {
	host     string
	port     string
	username string
	password string
	from     string

	// recipients resolves a user id to an email address for lifecycle
	// notifications. Kept as a function so the mailer stays decoupled
	// from the user repository.
	recipients func(ctx context.Context, intent domain.NotificationIntent) []string
}

func NewMailer(host, port, username, password, from string, recipients func(ctx context.Context, intent domain.NotificationIntent) []string) *Mailer {
	return &Mailer{
		host:       strings.TrimSpace(host),
		port:       strings.TrimSpace(port),
		username:   username,
		password:   password,
		from:       strings.TrimSpace(from),
		recipients: recipients,
	}
}

func (m *Mailer) SendOTP(ctx context.Context, email, code string, purpose domain.OTPPurpose) error {
	var subject, action string
	switch purpose {
	case domain.OTPPurposePasswordReset:
		subject = "Your GigBoard password reset code"
		action = "reset your password"
	case domain.OTPPurposeAccountVerification:
		subject = "Verify your GigBoard account"
		action = "verify your account"
	default:
		subject = "Your GigBoard verification code"
		action = "continue signing in"
	}
	body := fmt.Sprintf("Use the following code to %s: %s\n\nThe code expires in 20 minutes. If you did not request it, ignore this email.", action, code)
	return m.send(ctx, []string{email}, subject, body)
}

func (m *Mailer) Notify(ctx context.Context, intent domain.NotificationIntent) error {
	if m.recipients == nil {
		return nil
	}
	to := m.recipients(ctx, intent)
	if len(to) == 0 {
		return nil
	}

	var subject, body string
	switch intent.Event {
	case domain.NotifyApplicationSubmitted:
		subject = "New application received"
		body = fmt.Sprintf("A new application (%s) was submitted for your job posting %s.", intent.ApplicationID, intent.JobID)
	case domain.NotifyApplicationAccepted:
		subject = "Your application was accepted"
		body = fmt.Sprintf("Your application %s for job %s was accepted. See you there!", intent.ApplicationID, intent.JobID)
	case domain.NotifyApplicationRejected:
		subject = "Update on your application"
		body = fmt.Sprintf("Your application %s for job %s was not selected this time.", intent.ApplicationID, intent.JobID)
	case domain.NotifyApplicationWithdrawn:
		subject = "An applicant withdrew"
		body = fmt.Sprintf("Application %s for your job posting %s was withdrawn.", intent.ApplicationID, intent.JobID)
	default:
		return fmt.Errorf("unknown notification event %q", intent.Event)
	}
	return m.send(ctx, to, subject, body)
}

func (m *Mailer) send(ctx context.Context, to []string, subject, body string) error {
	if m == nil {
		return errors.New("mailer not configured")
	}
	if m.host == "" || m.port == "" || m.from == "" {
		return errors.New("mailer missing configuration")
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	message := strings.Builder{}
	message.WriteString(fmt.Sprintf("From: %s\r\n", m.from))
	message.WriteString(fmt.Sprintf("To: %s\r\n", strings.Join(to, ", ")))
	message.WriteString(fmt.Sprintf("Subject: %s\r\n", subject))
	message.WriteString("MIME-Version: 1.0\r\n")
	message.WriteString("Content-Type: text/plain; charset=UTF-8\r\n")
	message.WriteString("Content-Transfer-Encoding: 7bit\r\n\r\n")
	message.WriteString(body)
	message.WriteString("\r\n")

	addr := net.JoinHostPort(m.host, m.port)
	var auth smtp.Auth
	if m.username != "" || m.password != "" {
		auth = smtp.PlainAuth("", m.username, m.password, m.host)
	}
	return smtp.SendMail(addr, auth, m.from, to, []byte(message.String()))
}
