package mails

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"log/slog"
	"time"

	"github.com/go-mail/mail/v2"
)

//go:embed "templates"
var templateFS embed.FS

const (
	TmplWelcome = "user_welcome.tmpl"
	TmplReceipt = "subscription_receipt.tmpl"
	TmplGift    = "gift_subscription.tmpl"
)

type Mailer struct {
	Dialer       *mail.Dialer
	Sender       string
	RetriesCount int
}

func New(host string, port int, timeout time.Duration, username, password, sender string, retriesCount int) *Mailer {
	dialer := mail.NewDialer(host, port, username, password)
	dialer.Timeout = timeout
	if retriesCount < 1 {
		retriesCount = 1
	}
	return &Mailer{
		Dialer:       dialer,
		Sender:       sender,
		RetriesCount: retriesCount,
	}
}

// rendered is one template executed into its three named blocks.
type rendered struct {
	Subject   string
	PlainBody string
	HTMLBody  string
}

func renderTemplate(tmplName string, tmplData any) (rendered, error) {
	tmpl, err := template.ParseFS(templateFS, "templates/"+tmplName)
	if err != nil {
		return rendered{}, err
	}
	var out rendered
	for block, dst := range map[string]*string{
		"subject":   &out.Subject,
		"plainBody": &out.PlainBody,
		"htmlBody":  &out.HTMLBody,
	} {
		buff := new(bytes.Buffer)
		if err := tmpl.ExecuteTemplate(buff, block, tmplData); err != nil {
			return rendered{}, fmt.Errorf("%s: block %s: %w", tmplName, block, err)
		}
		*dst = buff.String()
	}
	return out, nil
}

// Send renders tmplName and delivers it, retrying with a growing pause
// between attempts.
func (m *Mailer) Send(recipient string, tmplName string, tmplData any) error {
	body, err := renderTemplate(tmplName, tmplData)
	if err != nil {
		return err
	}
	msg := mail.NewMessage()
	msg.SetHeader("To", recipient)
	msg.SetHeader("From", m.Sender)
	msg.SetHeader("Subject", body.Subject)
	msg.SetBody("text/plain", body.PlainBody)
	msg.AddAlternative("text/html", body.HTMLBody)

	pause := 500 * time.Millisecond
	for attempt := 1; ; attempt++ {
		err = m.Dialer.DialAndSend(msg)
		if err == nil || attempt >= m.RetriesCount {
			break
		}
		time.Sleep(pause)
		pause *= 2
	}
	if err != nil {
		return fmt.Errorf("sending %s after %d attempts: %w", tmplName, m.RetriesCount, err)
	}
	return nil
}

// LogMailer renders the message and logs it instead of sending. Used when
// no SMTP host is configured.
type LogMailer struct {
	Log *slog.Logger
}

func (m *LogMailer) Send(recipient string, tmplName string, tmplData any) error {
	body, err := renderTemplate(tmplName, tmplData)
	if err != nil {
		return err
	}
	m.Log.Info("email not sent, smtp disabled",
		"to", recipient,
		"subject", body.Subject,
		"body", body.PlainBody,
	)
	return nil
}
