package handler

import (
	"errors"
	"net/http"

	"rncdesk/internal/apierror"
	"rncdesk/internal/config"
	"rncdesk/internal/dto"
	"rncdesk/internal/infra"
	"rncdesk/internal/middleware"
	"rncdesk/internal/model"
	"rncdesk/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type OcorrenciaHandler struct {
	engine service.OcorrenciaService
	cfg    *config.Config
}

func NewOcorrenciaHandler(engine service.OcorrenciaService, cfg *config.Config) *OcorrenciaHandler {
	return &OcorrenciaHandler{engine: engine, cfg: cfg}
}

// ListPendentes godoc
// @Summary Lista as ocorrências pendentes (janela do mês corrente)
// @Tags ocorrencias
// @Produce json
// @Success 200 {array} dto.OcorrenciaResponse
// @Security BearerAuth
// @Router /v1/ocorrencias/pendentes [get]
func (h *OcorrenciaHandler) ListPendentes(c *gin.Context) {
	c.JSON(http.StatusOK, toOcorrenciaResponses(h.engine.Pendentes()))
}

// ListConcluidas godoc
// @Summary Lista as ocorrências concluídas (janela do mês corrente)
// @Tags ocorrencias
// @Produce json
// @Success 200 {array} dto.OcorrenciaResponse
// @Security BearerAuth
// @Router /v1/ocorrencias/concluidas [get]
func (h *OcorrenciaHandler) ListConcluidas(c *gin.Context) {
	c.JSON(http.StatusOK, toOcorrenciaResponses(h.engine.Concluidas()))
}

// Get godoc
// @Summary Busca uma ocorrência pelo id
// @Tags ocorrencias
// @Produce json
// @Param id path string true "ID da ocorrência"
// @Success 200 {object} dto.OcorrenciaResponse
// @Failure 404 {object} apierror.APIError
// @Security BearerAuth
// @Router /v1/ocorrencias/{id} [get]
func (h *OcorrenciaHandler) Get(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	o, err := h.engine.BuscarPorID(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusNotFound, apierror.New("Ocorrência não encontrada"))
		return
	}
	c.JSON(http.StatusOK, toOcorrenciaResponse(o))
}

// Salvar godoc
// @Summary Cria uma nova ocorrência pendente ou reescreve uma existente
// @Tags ocorrencias
// @Accept json
// @Produce json
// @Param ocorrencia body dto.SalvarOcorrenciaRequest true "Ocorrência"
// @Success 200 {object} dto.OcorrenciaResponse
// @Success 201 {object} dto.OcorrenciaResponse
// @Failure 400 {object} apierror.APIError
// @Failure 409 {object} apierror.APIError
// @Security BearerAuth
// @Router /v1/ocorrencias [post]
func (h *OcorrenciaHandler) Salvar(c *gin.Context) {
	var req dto.SalvarOcorrenciaRequest
	if !bindAndValidate(c, &req) {
		return
	}

	claims := middleware.GetClaims(c)
	o, err := h.engine.Salvar(c.Request.Context(), req, claims.Nome, claims.Email)
	if err != nil {
		writeOcorrenciaError(c, err)
		return
	}

	code := http.StatusOK
	if req.ID == "" {
		code = http.StatusCreated
	}
	c.JSON(code, toOcorrenciaResponse(o))
}

// Rejeitar godoc
// @Summary Devolve uma ocorrência pendente ao solicitante (pendente → rascunho)
// @Tags ocorrencias
// @Param id path string true "ID da ocorrência"
// @Success 204
// @Failure 404 {object} apierror.APIError
// @Failure 409 {object} apierror.APIError
// @Security BearerAuth
// @Router /v1/ocorrencias/{id}/rejeitar [post]
func (h *OcorrenciaHandler) Rejeitar(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	if err := h.engine.Rejeitar(c.Request.Context(), id); err != nil {
		writeOcorrenciaError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Concluir godoc
// @Summary Conclui uma ocorrência pendente
// @Tags ocorrencias
// @Param id path string true "ID da ocorrência"
// @Success 204
// @Failure 404 {object} apierror.APIError
// @Failure 409 {object} apierror.APIError
// @Security BearerAuth
// @Router /v1/ocorrencias/{id}/concluir [post]
func (h *OcorrenciaHandler) Concluir(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	if err := h.engine.Concluir(c.Request.Context(), id); err != nil {
		writeOcorrenciaError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Excluir godoc
// @Summary Exclui permanentemente uma ocorrência não concluída
// @Tags ocorrencias
// @Param id path string true "ID da ocorrência"
// @Success 204
// @Failure 404 {object} apierror.APIError
// @Failure 409 {object} apierror.APIError
// @Security BearerAuth
// @Router /v1/ocorrencias/{id} [delete]
func (h *OcorrenciaHandler) Excluir(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	if err := h.engine.Excluir(c.Request.Context(), id); err != nil {
		writeOcorrenciaError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// RelatorioPDF godoc
// @Summary Gera e baixa o relatório RNC em PDF
// @Tags ocorrencias
// @Produce application/pdf
// @Param id path string true "ID da ocorrência"
// @Success 200
// @Failure 404 {object} apierror.APIError
// @Security BearerAuth
// @Router /v1/ocorrencias/{id}/pdf [get]
func (h *OcorrenciaHandler) RelatorioPDF(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	o, err := h.engine.BuscarPorID(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusNotFound, apierror.New("Ocorrência não encontrada"))
		return
	}

	path, err := infra.GenerateOcorrenciaPDF(o, h.cfg.PDFStoragePath)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.FileAttachment(path, "rnc_"+o.ID.String()+".pdf")
}

func parseID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("ID inválido"))
		return uuid.Nil, false
	}
	return id, true
}

func writeOcorrenciaError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrOcorrenciaNaoEncontrada):
		c.JSON(http.StatusNotFound, apierror.New("Ocorrência não encontrada"))
	case errors.Is(err, service.ErrSalvamentoEmAndamento):
		c.JSON(http.StatusConflict, apierror.New(err.Error()))
	case errors.Is(err, service.ErrTransicaoInvalida), errors.Is(err, service.ErrExcluirConcluida):
		c.JSON(http.StatusConflict, apierror.New(err.Error()))
	default:
		// Validation-gate messages are user-facing.
		c.JSON(http.StatusBadRequest, apierror.New(err.Error()))
	}
}

func toOcorrenciaResponse(o *model.Ocorrencia) dto.OcorrenciaResponse {
	itens := make([]dto.ItemOcorrenciaResponse, len(o.Itens))
	for i, it := range o.Itens {
		itens[i] = dto.ItemOcorrenciaResponse{
			Tipo:       it.Tipo,
			Codigo:     it.Codigo,
			Descricao:  it.Descricao,
			Lote:       it.Lote,
			Quantidade: it.Quantidade,
			Observacao: it.Observacao,
			Endereco:   it.EnderecoOriginal,
			Local:      it.Local,
		}
	}
	return dto.OcorrenciaResponse{
		ID:               o.ID.String(),
		Status:           string(o.Status),
		Solicitante:      o.Solicitante,
		SolicitanteEmail: o.SolicitanteEmail,
		Local:            o.Local,
		Tipo:             o.Tipo,
		Observacoes:      o.Observacoes,
		Rejeitada:        o.Rejeitada,
		Itens:            itens,
		CreatedAt:        o.CreatedAt,
		UpdatedAt:        o.UpdatedAt,
	}
}

func toOcorrenciaResponses(ocorrencias []model.Ocorrencia) []dto.OcorrenciaResponse {
	out := make([]dto.OcorrenciaResponse, len(ocorrencias))
	for i := range ocorrencias {
		out[i] = toOcorrenciaResponse(&ocorrencias[i])
	}
	return out
}
