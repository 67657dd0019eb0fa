package worker

import (
	"context"
	"encoding/json"

	"rncdesk/internal/notify"
)

// NotificacaoWorker delivers queued console notifications through the gateway.
type NotificacaoWorker struct {
	gw *notify.Gateway
}

func NewNotificacaoWorker(gw *notify.Gateway) *NotificacaoWorker {
	return &NotificacaoWorker{gw: gw}
}

func (w *NotificacaoWorker) Process(ctx context.Context, raw json.RawMessage) error {
	var payload NotificacaoPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return err
	}
	w.gw.NotifyGranted(ctx, payload.Titulo, payload.Corpo)
	return nil
}
