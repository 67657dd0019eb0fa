package handler

import (
	"errors"
	"net/http"

	"rncdesk/internal/apierror"
	"rncdesk/internal/infra"

	"github.com/gin-gonic/gin"
)

type CatalogoHandler struct {
	client  *infra.CatalogoClient
	breaker *infra.CircuitBreaker
}

func NewCatalogoHandler(client *infra.CatalogoClient, breaker *infra.CircuitBreaker) *CatalogoHandler {
	return &CatalogoHandler{client: client, breaker: breaker}
}

// Buscar godoc
// @Summary Resolve a descrição de um código de produto no catálogo corporativo
// @Tags catalogo
// @Produce json
// @Param codigo path string true "Código do produto"
// @Success 200 {object} infra.CatalogoItem
// @Failure 404 {object} apierror.APIError
// @Failure 503 {object} apierror.APIError
// @Security BearerAuth
// @Router /v1/catalogo/{codigo} [get]
func (h *CatalogoHandler) Buscar(c *gin.Context) {
	codigo := c.Param("codigo")
	if codigo == "" {
		c.JSON(http.StatusBadRequest, apierror.New("Código de produto requerido"))
		return
	}

	var item *infra.CatalogoItem
	err := h.breaker.Execute(func() error {
		var lookupErr error
		item, lookupErr = h.client.BuscarItem(c.Request.Context(), codigo)
		if errors.Is(lookupErr, infra.ErrItemNaoEncontrado) {
			// A miss is a valid answer; it must not trip the breaker.
			item = nil
			return nil
		}
		return lookupErr
	})

	switch {
	case errors.Is(err, infra.ErrCircuitOpen):
		c.JSON(http.StatusServiceUnavailable, apierror.New("Catálogo temporariamente indisponível"))
	case err != nil:
		c.JSON(http.StatusBadGateway, apierror.New("Falha ao consultar o catálogo"))
	case item == nil:
		c.JSON(http.StatusNotFound, apierror.New("Item não encontrado no catálogo"))
	default:
		c.JSON(http.StatusOK, item)
	}
}
