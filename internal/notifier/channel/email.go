package channel

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"net/smtp"
	"net/textproto"
	"strings"
	"time"

	"jobwatch/notify-service/internal/model"
)

const smtpTimeout = 10 * time.Second

// EmailSender delivers postings over SMTP. Credential rejection by the
// server surfaces as ErrAuthentication; everything else is a plain
// DeliveryError.
type EmailSender struct {
	Host     string
	Port     string
	Username string
	Password string
	From     string
}

// NewEmailSender constructs an EmailSender.
func NewEmailSender(host, port, username, password, from string) *EmailSender {
	return &EmailSender{Host: host, Port: port, Username: username, Password: password, From: from}
}

// Send delivers the posting to rec's email address. The whole SMTP session
// runs under a single deadline so a stalled server cannot block the
// dispatch loop.
func (s *EmailSender) Send(ctx context.Context, rec model.Recipient, job model.JobPosting) error {
	if rec.Email == "" {
		return &DeliveryError{Channel: model.ChannelEmail, Err: fmt.Errorf("user %d has no email address", rec.UserID)}
	}

	addr := net.JoinHostPort(s.Host, s.Port)
	conn, err := (&net.Dialer{Timeout: smtpTimeout}).DialContext(ctx, "tcp", addr)
	if err != nil {
		return &DeliveryError{Channel: model.ChannelEmail, Err: fmt.Errorf("dial %s: %w", addr, err)}
	}
	_ = conn.SetDeadline(time.Now().Add(smtpTimeout))

	client, err := smtp.NewClient(conn, s.Host)
	if err != nil {
		conn.Close()
		return &DeliveryError{Channel: model.ChannelEmail, Err: fmt.Errorf("smtp handshake: %w", err)}
	}
	defer client.Close()

	if ok, _ := client.Extension("STARTTLS"); ok {
		if err := client.StartTLS(&tls.Config{ServerName: s.Host}); err != nil {
			return &DeliveryError{Channel: model.ChannelEmail, Err: fmt.Errorf("starttls: %w", err)}
		}
	}

	if s.Username != "" {
		auth := smtp.PlainAuth("", s.Username, s.Password, s.Host)
		if err := client.Auth(auth); err != nil {
			return &DeliveryError{Channel: model.ChannelEmail, Err: classifyAuthError(err)}
		}
	}

	if err := client.Mail(s.From); err != nil {
		return &DeliveryError{Channel: model.ChannelEmail, Err: fmt.Errorf("mail from: %w", err)}
	}
	if err := client.Rcpt(rec.Email); err != nil {
		return &DeliveryError{Channel: model.ChannelEmail, Err: fmt.Errorf("rcpt to: %w", err)}
	}

	w, err := client.Data()
	if err != nil {
		return &DeliveryError{Channel: model.ChannelEmail, Err: fmt.Errorf("data: %w", err)}
	}
	if _, err := w.Write(buildMessage(s.From, rec.Email, job)); err != nil {
		return &DeliveryError{Channel: model.ChannelEmail, Err: fmt.Errorf("write body: %w", err)}
	}
	if err := w.Close(); err != nil {
		return &DeliveryError{Channel: model.ChannelEmail, Err: fmt.Errorf("close body: %w", err)}
	}

	// The server accepted the message when Data closed; a failed QUIT does
	// not unsend it.
	_ = client.Quit()
	return nil
}

// classifyAuthError distinguishes credential rejections (5xx auth reply
// codes) from transient auth-phase failures.
func classifyAuthError(err error) error {
	var tpErr *textproto.Error
	if errors.As(err, &tpErr) {
		switch tpErr.Code {
		case 530, 534, 535:
			return fmt.Errorf("%w: %v", ErrAuthentication, err)
		}
	}
	return fmt.Errorf("auth: %w", err)
}

// buildMessage renders the plain-text mail for a posting.
func buildMessage(from, to string, job model.JobPosting) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", from)
	fmt.Fprintf(&b, "To: %s\r\n", to)
	fmt.Fprintf(&b, "Subject: New job: %s\r\n", job.Title)
	b.WriteString("MIME-Version: 1.0\r\nContent-Type: text/plain; charset=UTF-8\r\n\r\n")

	fmt.Fprintf(&b, "%s\n%s\n", job.Title, job.Employer)
	if job.Location != "" {
		fmt.Fprintf(&b, "Location: %s\n", job.Location)
	}
	if job.Salary != "" {
		fmt.Fprintf(&b, "Salary: %s\n", job.Salary)
	}
	if job.Time != "" {
		fmt.Fprintf(&b, "Time: %s\n", job.Time)
	}
	fmt.Fprintf(&b, "\n%s\n\n%s\n", job.Content, job.URL)
	return []byte(b.String())
}
