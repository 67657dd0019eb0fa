package handler

import (
	"encoding/json"
	"net/http"

	"rncdesk/internal/apierror"
	"rncdesk/internal/middleware"
	"rncdesk/internal/model"
	"rncdesk/internal/notify"
	"rncdesk/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

type NotificacaoHandler struct {
	gateway    *notify.Gateway
	chamadoSvc service.ChamadoService
	rdb        *redis.Client
}

func NewNotificacaoHandler(gateway *notify.Gateway, chamadoSvc service.ChamadoService, rdb *redis.Client) *NotificacaoHandler {
	return &NotificacaoHandler{gateway: gateway, chamadoSvc: chamadoSvc, rdb: rdb}
}

// Permissao godoc
// @Summary Solicita permissão de notificação para o usuário da sessão
// @Tags notificacoes
// @Produce json
// @Success 200 {object} map[string]string
// @Security BearerAuth
// @Router /v1/notificacoes/permissao [post]
func (h *NotificacaoHandler) Permissao(c *gin.Context) {
	claims := middleware.GetClaims(c)
	var body struct {
		Negar bool `json:"negar"`
	}
	// Body is optional; an empty body means "request".
	_ = c.ShouldBindJSON(&body)

	if body.Negar {
		h.gateway.Deny(claims.Email)
		c.JSON(http.StatusOK, gin.H{"permissao": h.gateway.Permission(claims.Email).String()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"permissao": h.gateway.RequestPermission(claims.Email).String()})
}

// Atividade godoc
// @Summary Registra interação do usuário (habilita o hint de vibração)
// @Tags notificacoes
// @Success 204
// @Security BearerAuth
// @Router /v1/notificacoes/atividade [post]
func (h *NotificacaoHandler) Atividade(c *gin.Context) {
	claims := middleware.GetClaims(c)
	h.gateway.RegistrarAtividade(claims.Email)
	c.Status(http.StatusNoContent)
}

type eventoSSE struct {
	evento  string
	payload []byte
}

// Stream godoc
// @Summary Fluxo SSE pessoal: notificações do usuário e, para líderes e
// administradores, os chamados de líder do ambiente
// @Tags notificacoes
// @Produce text/event-stream
// @Security BearerAuth
// @Router /v1/notificacoes/stream [get]
func (h *NotificacaoHandler) Stream(c *gin.Context) {
	flusher, ok := c.Writer.(http.Flusher)
	if !ok {
		c.JSON(http.StatusInternalServerError, apierror.New("Streaming não suportado"))
		return
	}

	claims := middleware.GetClaims(c)
	ctx := c.Request.Context()

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")

	eventos := make(chan eventoSSE, 16)

	// Personal notification channel.
	pubsub := h.rdb.Subscribe(ctx, notify.ChannelNotificacoes(claims.Email))
	defer pubsub.Close()
	go func() {
		for msg := range pubsub.Channel() {
			select {
			case eventos <- eventoSSE{evento: "notificacao", payload: []byte(msg.Payload)}:
			default:
				log.Warn().Str("email", claims.Email).Msg("sse: notification dropped, slow client")
			}
		}
	}()

	// Leader-call channel: no-op for operator sessions, torn down with the
	// connection so a re-login with a different papel starts fresh.
	pararCanal := h.chamadoSvc.IniciarCanal(ctx, service.Sessao{
		Email: claims.Email,
		Papel: claims.Papel,
	}, func(chamado model.ChamadoLider) {
		payload, err := json.Marshal(chamado)
		if err != nil {
			log.Error().Err(err).Msg("sse: marshal chamado")
			return
		}
		select {
		case eventos <- eventoSSE{evento: "chamado", payload: payload}:
		default:
			log.Warn().Str("email", claims.Email).Msg("sse: chamado dropped, slow client")
		}
	})
	defer pararCanal()

	// Connecting counts as activity.
	h.gateway.RegistrarAtividade(claims.Email)

	for {
		select {
		case <-ctx.Done():
			return
		case ev := <-eventos:
			if _, err := c.Writer.Write([]byte("event: " + ev.evento + "\ndata: " + string(ev.payload) + "\n\n")); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}
