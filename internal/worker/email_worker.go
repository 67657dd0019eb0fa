package worker

import (
	"context"
	"encoding/json"

	"rncdesk/internal/infra"
)

// EmailWorker mails the leader list about chamados. Runs inside the pool so a
// slow SMTP server never blocks the operator's request.
type EmailWorker struct {
	mailer        *infra.Mailer
	destinatarios []string
}

func NewEmailWorker(mailer *infra.Mailer, destinatarios []string) *EmailWorker {
	return &EmailWorker{mailer: mailer, destinatarios: destinatarios}
}

func (w *EmailWorker) Process(_ context.Context, raw json.RawMessage) error {
	var payload EmailChamadoPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return err
	}
	if len(w.destinatarios) == 0 {
		return nil // no leader list configured
	}
	return w.mailer.SendChamado(w.destinatarios, payload.Solicitante, payload.Local, payload.CriadoEm)
}
