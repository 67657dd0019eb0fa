package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"rncdesk/internal/model"
	"rncdesk/internal/repository"
	"rncdesk/internal/worker"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const (
	// janelaChamado: a chamado only triggers alerts within this window after
	// creation; the record itself stays persisted.
	janelaChamado = 2 * time.Minute
	// cooldownChamado disables the caller's button after a successful call.
	cooldownChamado = 10 * time.Second
)

var ErrChamadoEmCooldown = errors.New("aguarde alguns segundos antes de chamar novamente")

// ChannelChamados names the Redis broadcast channel for one ambiente.
func ChannelChamados(ambiente string) string { return "chamados:" + ambiente }

// Sessao identifies the console session listening for chamados.
type Sessao struct {
	Email string
	Papel string
}

// ChamadoNotificar delivers one eligible chamado to a listening session.
type ChamadoNotificar func(c model.ChamadoLider)

// ChamadoService is the leader-call channel. It never touches occurrence
// state: a pure side-effect dispatcher over its own subscription.
type ChamadoService interface {
	// Chamar emits an alert record. Fire-and-forget: the caller only waits for
	// write confirmation, then enters a 10-second cooldown.
	Chamar(ctx context.Context, solicitante, email, local string) (*model.ChamadoLider, error)
	// IniciarCanal opens the per-session alert subscription. Only ADMIN/LIDER
	// sessions receive anything; the returned func stops the channel. Role
	// changes are handled by cancelling and calling IniciarCanal again with
	// the new session; the channel lifecycle is independent of the
	// occurrence engine's. Ambiente switches are followed without
	// reconnecting.
	IniciarCanal(ctx context.Context, sessao Sessao, entregar ChamadoNotificar) func()
	// Recentes lists the current shift's chamados, newest first.
	Recentes(ctx context.Context) ([]model.ChamadoLider, error)
	// MarcarLido acknowledges a chamado on the leader panel.
	MarcarLido(ctx context.Context, id uuid.UUID) error
}

type chamadoService struct {
	repo       repository.ChamadoRepository
	rdb        *redis.Client
	dispatcher *worker.Dispatcher
	ambiente   func() string
	now        func() time.Time
}

// ChamadoDeps wires the service. Dispatcher may be nil (no leader e-mails).
type ChamadoDeps struct {
	Repo       repository.ChamadoRepository
	RDB        *redis.Client
	Dispatcher *worker.Dispatcher
	// Ambiente is read per call so the channel follows runtime switches.
	Ambiente func() string
	Now      func() time.Time
}

func NewChamadoService(deps ChamadoDeps) ChamadoService {
	if deps.Now == nil {
		deps.Now = time.Now
	}
	return &chamadoService{
		repo:       deps.Repo,
		rdb:        deps.RDB,
		dispatcher: deps.Dispatcher,
		ambiente:   deps.Ambiente,
		now:        deps.Now,
	}
}

func (s *chamadoService) Chamar(ctx context.Context, solicitante, email, local string) (*model.ChamadoLider, error) {
	// Cooldown key arms only on success of SETNX; a second call inside the
	// window fails fast without touching the store.
	ok, err := s.rdb.SetNX(ctx, "chamado:cooldown:"+email, 1, cooldownChamado).Result()
	if err != nil {
		return nil, fmt.Errorf("chamado: cooldown check: %w", err)
	}
	if !ok {
		return nil, ErrChamadoEmCooldown
	}

	chamado := &model.ChamadoLider{
		Ambiente:         s.ambiente(),
		Solicitante:      solicitante,
		SolicitanteEmail: email,
		Local:            local,
	}
	if err := s.repo.Create(ctx, chamado); err != nil {
		// Release the cooldown so the operator can retry immediately.
		s.rdb.Del(ctx, "chamado:cooldown:"+email)
		return nil, err
	}

	payload, err := json.Marshal(chamado)
	if err != nil {
		return nil, err
	}
	if err := s.rdb.Publish(ctx, ChannelChamados(chamado.Ambiente), payload).Err(); err != nil {
		log.Warn().Err(err).Msg("chamado: publish failed")
	}

	if s.dispatcher != nil {
		if err := s.dispatcher.EnqueueEmailChamado(ctx, worker.EmailChamadoPayload{
			Solicitante: solicitante,
			Local:       local,
			CriadoEm:    chamado.CreatedAt,
		}); err != nil {
			log.Warn().Err(err).Msg("chamado: enqueue email failed")
		}
	}

	log.Info().Str("solicitante", solicitante).Str("local", local).Msg("chamado emitted")
	return chamado, nil
}

// janelaPainel bounds the leader panel's history; older chamados are noise.
const janelaPainel = 12 * time.Hour

func (s *chamadoService) Recentes(ctx context.Context) ([]model.ChamadoLider, error) {
	return s.repo.ListRecentes(ctx, s.ambiente(), s.now().Add(-janelaPainel))
}

func (s *chamadoService) MarcarLido(ctx context.Context, id uuid.UUID) error {
	return s.repo.MarcarLido(ctx, id)
}

func (s *chamadoService) IniciarCanal(ctx context.Context, sessao Sessao, entregar ChamadoNotificar) func() {
	if sessao.Papel != model.PapelAdmin && sessao.Papel != model.PapelLider {
		return func() {} // channel inactive for operator sessions
	}

	canalCtx, cancel := context.WithCancel(ctx)
	go s.consumir(canalCtx, sessao, entregar)
	return cancel
}

func (s *chamadoService) consumir(ctx context.Context, sessao Sessao, entregar ChamadoNotificar) {
	// Pattern subscription across every ambiente; the filter below re-reads
	// the active ambiente per message, so a runtime switch takes effect for
	// sessions already connected.
	pubsub := s.rdb.PSubscribe(ctx, ChannelChamados("*"))
	defer pubsub.Close()

	log.Info().Str("email", sessao.Email).Msg("chamado channel started")

	for {
		select {
		case <-ctx.Done():
			log.Info().Str("email", sessao.Email).Msg("chamado channel stopped")
			return
		case msg, ok := <-pubsub.Channel():
			if !ok {
				return
			}
			if msg.Channel != ChannelChamados(s.ambiente()) {
				continue
			}
			var chamado model.ChamadoLider
			if err := json.Unmarshal([]byte(msg.Payload), &chamado); err != nil {
				log.Error().Err(err).Msg("chamado: bad payload")
				continue
			}
			if ChamadoElegivel(chamado, sessao.Email, s.now()) {
				entregar(chamado)
			}
		}
	}
}

// ChamadoElegivel decides whether a chamado should alert the given recipient:
// self-calls never alert, and the record must still be inside the 2-minute
// window. A missing timestamp is tolerated as eligible.
func ChamadoElegivel(c model.ChamadoLider, destinatarioEmail string, agora time.Time) bool {
	if c.SolicitanteEmail == destinatarioEmail {
		return false
	}
	if c.CreatedAt.IsZero() {
		return true
	}
	return agora.Sub(c.CreatedAt) <= janelaChamado
}
