package handler

import (
	"encoding/json"
	"net/http"

	"rncdesk/internal/apierror"
	"rncdesk/internal/model"
	"rncdesk/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

type DashboardHandler struct {
	svc    service.DashboardService
	engine service.OcorrenciaService
}

func NewDashboardHandler(svc service.DashboardService, engine service.OcorrenciaService) *DashboardHandler {
	return &DashboardHandler{svc: svc, engine: engine}
}

// Estatisticas godoc
// @Summary Estatísticas agregadas das ocorrências do mês
// @Tags dashboard
// @Produce json
// @Success 200 {object} dto.EstatisticasResponse
// @Security BearerAuth
// @Router /v1/dashboard/estatisticas [get]
func (h *DashboardHandler) Estatisticas(c *gin.Context) {
	c.JSON(http.StatusOK, h.svc.Estatisticas())
}

// Stream godoc
// @Summary Fluxo SSE para o painel de TV: reemite as estatísticas a cada
// atualização das projeções
// @Tags dashboard
// @Produce text/event-stream
// @Security BearerAuth
// @Router /v1/dashboard/stream [get]
func (h *DashboardHandler) Stream(c *gin.Context) {
	flusher, ok := c.Writer.(http.Flusher)
	if !ok {
		c.JSON(http.StatusInternalServerError, apierror.New("Streaming não suportado"))
		return
	}

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")

	// Buffered so a slow TV never blocks the engine's ingest path; a dropped
	// tick is harmless because the next one carries the full aggregate anyway.
	updates := make(chan struct{}, 1)
	cancelar := h.engine.RegistrarConsumidor(func(_ []model.Ocorrencia) {
		select {
		case updates <- struct{}{}:
		default:
		}
	})
	defer cancelar()

	enviar := func() bool {
		payload, err := json.Marshal(h.svc.Estatisticas())
		if err != nil {
			log.Error().Err(err).Msg("dashboard: marshal stats")
			return false
		}
		if _, err := c.Writer.Write(append(append([]byte("event: estatisticas\ndata: "), payload...), '\n', '\n')); err != nil {
			return false
		}
		flusher.Flush()
		return true
	}

	if !enviar() {
		return
	}
	for {
		select {
		case <-c.Request.Context().Done():
			return
		case <-updates:
			if !enviar() {
				return
			}
		}
	}
}
