package handler

import (
	"net/http"
	"strconv"

	"rncdesk/internal/apierror"
	"rncdesk/internal/service"
	"rncdesk/internal/worker"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

type AdminHandler struct {
	engine service.OcorrenciaService
	rdb    *redis.Client
}

func NewAdminHandler(engine service.OcorrenciaService, rdb *redis.Client) *AdminHandler {
	return &AdminHandler{engine: engine, rdb: rdb}
}

// filasConhecidas maps the short names used in the admin API to queue keys.
var filasConhecidas = map[string]string{
	"email":       worker.QueueEmail,
	"notificacao": worker.QueueNotificacao,
}

type trocarAmbienteRequest struct {
	Ambiente string `json:"ambiente" validate:"required,oneof=teste producao"`
}

// Ambiente godoc
// @Summary Ambiente ativo do servidor
// @Tags admin
// @Produce json
// @Success 200 {object} map[string]string
// @Security BearerAuth
// @Router /v1/admin/ambiente [get]
func (h *AdminHandler) Ambiente(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"ambiente": h.engine.Ambiente()})
}

// DLQ godoc
// @Summary Tamanho da fila de jobs falhos (email ou notificacao)
// @Tags admin
// @Produce json
// @Param fila path string true "Fila (email|notificacao)"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} apierror.APIError
// @Security BearerAuth
// @Router /v1/admin/dlq/{fila} [get]
func (h *AdminHandler) DLQ(c *gin.Context) {
	fila, ok := filasConhecidas[c.Param("fila")]
	if !ok {
		c.JSON(http.StatusNotFound, apierror.New("Fila desconhecida"))
		return
	}
	n, err := worker.TamanhoDLQ(c.Request.Context(), h.rdb, fila)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"fila": c.Param("fila"), "tamanho": n})
}

// ReprocessarDLQ godoc
// @Summary Devolve jobs falhos à fila original (parâmetro max, padrão 10)
// @Tags admin
// @Produce json
// @Param fila path string true "Fila (email|notificacao)"
// @Param max query int false "Máximo de jobs a reprocessar"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} apierror.APIError
// @Security BearerAuth
// @Router /v1/admin/dlq/{fila}/reprocessar [post]
func (h *AdminHandler) ReprocessarDLQ(c *gin.Context) {
	fila, ok := filasConhecidas[c.Param("fila")]
	if !ok {
		c.JSON(http.StatusNotFound, apierror.New("Fila desconhecida"))
		return
	}
	max, err := strconv.Atoi(c.DefaultQuery("max", "10"))
	if err != nil || max <= 0 {
		c.JSON(http.StatusBadRequest, apierror.New("Parâmetro max inválido"))
		return
	}
	requeued, err := worker.ReprocessarDLQ(c.Request.Context(), h.rdb, fila, max)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"fila": c.Param("fila"), "reprocessados": requeued})
}

// TrocarAmbiente godoc
// @Summary Troca o ambiente ativo (teste/producao) e reassina o fluxo
// @Tags admin
// @Accept json
// @Produce json
// @Param ambiente body trocarAmbienteRequest true "Ambiente"
// @Success 200 {object} map[string]string
// @Failure 400 {object} apierror.APIError
// @Security BearerAuth
// @Router /v1/admin/ambiente [post]
func (h *AdminHandler) TrocarAmbiente(c *gin.Context) {
	var req trocarAmbienteRequest
	if !bindAndValidate(c, &req) {
		return
	}
	if err := h.engine.TrocarAmbiente(c.Request.Context(), req.Ambiente); err != nil {
		c.JSON(http.StatusBadRequest, apierror.New(err.Error()))
		return
	}
	c.JSON(http.StatusOK, gin.H{"ambiente": h.engine.Ambiente()})
}
