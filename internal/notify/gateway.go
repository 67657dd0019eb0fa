// Package notify is the notification gateway: it decides whether a user may be
// notified at all (permission registry) and publishes the event to the user's
// Redis channel, where the SSE handler picks it up and streams it to the
// console. It holds no occurrence state; pure side-effect dispatch.
package notify

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// Permissao mirrors the browser Notification permission model.
type Permissao int

const (
	PermissaoPadrao    Permissao = iota // undetermined, may be prompted
	PermissaoConcedida                  // notifications flow
	PermissaoNegada                     // sticky refusal, never re-prompted
)

func (p Permissao) String() string {
	switch p {
	case PermissaoConcedida:
		return "concedida"
	case PermissaoNegada:
		return "negada"
	default:
		return "padrao"
	}
}

// janelaAtividade: a vibrate hint is only attached when the user interacted
// with the console this recently. Browsers block unsolicited vibration.
const janelaAtividade = 30 * time.Second

// Notificacao is the payload streamed to the console.
type Notificacao struct {
	Titulo string `json:"titulo"`
	Corpo  string `json:"corpo"`
	Vibrar bool   `json:"vibrar"`
}

// ChannelNotificacoes names the per-user Redis channel.
func ChannelNotificacoes(email string) string { return "notificacoes:" + email }

// Gateway tracks per-user permission and recent activity, and dispatches
// notification events. Safe for concurrent use.
type Gateway struct {
	rdb *redis.Client
	now func() time.Time

	mu         sync.Mutex
	permissoes map[string]Permissao
	atividade  map[string]time.Time
}

func NewGateway(rdb *redis.Client) *Gateway {
	return &Gateway{
		rdb:        rdb,
		now:        time.Now,
		permissoes: make(map[string]Permissao),
		atividade:  make(map[string]time.Time),
	}
}

// RequestPermission grants permission when the state is undetermined and
// returns the resulting state. Idempotent: granted stays granted, denied
// stays denied; a denial is never re-prompted.
func (g *Gateway) RequestPermission(email string) Permissao {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.permissoes[email] == PermissaoPadrao {
		g.permissoes[email] = PermissaoConcedida
	}
	return g.permissoes[email]
}

// Deny records a sticky refusal for a user.
func (g *Gateway) Deny(email string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.permissoes[email] = PermissaoNegada
}

// Permission returns the current state without changing it.
func (g *Gateway) Permission(email string) Permissao {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.permissoes[email]
}

// RegistrarAtividade records a user interaction; used only to decide the
// vibrate hint on subsequent notifications.
func (g *Gateway) RegistrarAtividade(email string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.atividade[email] = g.now()
}

// Notify publishes a notification to one user. No-op unless that user's
// permission is granted.
func (g *Gateway) Notify(ctx context.Context, email, titulo, corpo string) {
	g.mu.Lock()
	permitido := g.permissoes[email] == PermissaoConcedida
	ativo := g.now().Sub(g.atividade[email]) <= janelaAtividade
	g.mu.Unlock()

	if !permitido {
		return
	}

	payload, err := json.Marshal(Notificacao{Titulo: titulo, Corpo: corpo, Vibrar: ativo})
	if err != nil {
		log.Error().Err(err).Msg("notify: marshal payload")
		return
	}
	if err := g.rdb.Publish(ctx, ChannelNotificacoes(email), payload).Err(); err != nil {
		log.Error().Err(err).Str("email", email).Msg("notify: publish failed")
	}
}

// NotifyGranted fans a notification out to every user whose permission is
// currently granted.
func (g *Gateway) NotifyGranted(ctx context.Context, titulo, corpo string) {
	g.mu.Lock()
	destinos := make([]string, 0, len(g.permissoes))
	for email, p := range g.permissoes {
		if p == PermissaoConcedida {
			destinos = append(destinos, email)
		}
	}
	g.mu.Unlock()

	for _, email := range destinos {
		g.Notify(ctx, email, titulo, corpo)
	}
}
