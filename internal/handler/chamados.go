package handler

import (
	"errors"
	"net/http"

	"rncdesk/internal/apierror"
	"rncdesk/internal/dto"
	"rncdesk/internal/middleware"
	"rncdesk/internal/model"
	"rncdesk/internal/service"

	"github.com/gin-gonic/gin"
)

type ChamadoHandler struct {
	svc service.ChamadoService
}

func NewChamadoHandler(svc service.ChamadoService) *ChamadoHandler {
	return &ChamadoHandler{svc: svc}
}

// Chamar godoc
// @Summary Chama um líder para o local informado
// @Tags chamados
// @Accept json
// @Produce json
// @Param chamado body dto.ChamadoRequest true "Chamado"
// @Success 201 {object} dto.ChamadoResponse
// @Failure 429 {object} apierror.APIError
// @Security BearerAuth
// @Router /v1/chamados [post]
func (h *ChamadoHandler) Chamar(c *gin.Context) {
	var req dto.ChamadoRequest
	if !bindAndValidate(c, &req) {
		return
	}

	claims := middleware.GetClaims(c)
	chamado, err := h.svc.Chamar(c.Request.Context(), claims.Nome, claims.Email, req.Local)
	if err != nil {
		if errors.Is(err, service.ErrChamadoEmCooldown) {
			c.JSON(http.StatusTooManyRequests, apierror.New(err.Error()))
			return
		}
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, toChamadoResponse(chamado))
}

// Recentes godoc
// @Summary Lista os chamados do turno (painel do líder)
// @Tags chamados
// @Produce json
// @Success 200 {array} dto.ChamadoResponse
// @Security BearerAuth
// @Router /v1/chamados [get]
func (h *ChamadoHandler) Recentes(c *gin.Context) {
	chamados, err := h.svc.Recentes(c.Request.Context())
	if err != nil {
		_ = c.Error(err)
		return
	}
	out := make([]dto.ChamadoResponse, len(chamados))
	for i := range chamados {
		out[i] = toChamadoResponse(&chamados[i])
	}
	c.JSON(http.StatusOK, out)
}

// MarcarLido godoc
// @Summary Marca um chamado como atendido
// @Tags chamados
// @Param id path string true "ID do chamado"
// @Success 204
// @Failure 404 {object} apierror.APIError
// @Security BearerAuth
// @Router /v1/chamados/{id}/lido [post]
func (h *ChamadoHandler) MarcarLido(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	if err := h.svc.MarcarLido(c.Request.Context(), id); err != nil {
		c.JSON(http.StatusNotFound, apierror.New("Chamado não encontrado"))
		return
	}
	c.Status(http.StatusNoContent)
}

func toChamadoResponse(chamado *model.ChamadoLider) dto.ChamadoResponse {
	return dto.ChamadoResponse{
		ID:               chamado.ID.String(),
		Solicitante:      chamado.Solicitante,
		SolicitanteEmail: chamado.SolicitanteEmail,
		Local:            chamado.Local,
		Lido:             chamado.Lido,
		CreatedAt:        chamado.CreatedAt,
	}
}
