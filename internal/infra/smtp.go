package infra

import (
	"fmt"
	"net/smtp"
	"time"

	"rncdesk/internal/config"

	"github.com/jordan-wright/email"
)

// Mailer wraps SMTP configuration for leader-call e-mails.
type Mailer struct {
	host     string
	port     int
	user     string
	password string
	addr     string
}

func NewMailer(cfg *config.Config) *Mailer {
	return &Mailer{
		host:     cfg.SMTPHost,
		port:     cfg.SMTPPort,
		user:     cfg.SMTPUser,
		password: cfg.SMTPPassword,
		addr:     fmt.Sprintf("%s:%d", cfg.SMTPHost, cfg.SMTPPort),
	}
}

// SendChamado mails the leader list about a chamado. Fire-and-forget from the
// operator's point of view; this runs inside a worker job, never inline.
func (m *Mailer) SendChamado(to []string, solicitante, local string, criadoEm time.Time) error {
	e := email.NewEmail()
	e.From = m.user
	e.To = to
	e.Subject = fmt.Sprintf("Chamado de líder - %s", local)
	e.Text = []byte(fmt.Sprintf(
		"%s está chamando um líder no local %s.\nHorário: %s\n",
		solicitante, local, criadoEm.Format("02/01/2006 15:04:05"),
	))

	auth := smtp.PlainAuth("", m.user, m.password, m.host)
	return e.Send(m.addr, auth)
}
