package infra

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"
)

// ErrItemNaoEncontrado signals a lookup miss. Non-fatal for the caller: the
// description field stays empty and the operator types it in manually.
var ErrItemNaoEncontrado = errors.New("item não encontrado no catálogo")

// CatalogoItem is the external catalog's record for a product code.
type CatalogoItem struct {
	Codigo    string `json:"codigo"`
	Descricao string `json:"descricao"`
	Unidade   string `json:"unidade"`
}

// CatalogoClient resolves product codes against the corporate catalog service.
// Calls go through the circuit breaker so a downed catalog never slows down
// occurrence entry; the lookup is a convenience, not a requirement.
type CatalogoClient struct {
	baseURL    string
	httpClient *http.Client
}

func NewCatalogoClient(baseURL string) *CatalogoClient {
	return &CatalogoClient{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 5 * time.Second},
	}
}

// BuscarItem fetches the catalog record for a product code.
func (c *CatalogoClient) BuscarItem(ctx context.Context, codigo string) (*CatalogoItem, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/itens/"+codigo, nil)
	if err != nil {
		return nil, fmt.Errorf("catalogo: create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("catalogo: unreachable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, ErrItemNaoEncontrado
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("catalogo: returned %d", resp.StatusCode)
	}

	var item CatalogoItem
	if err := json.NewDecoder(resp.Body).Decode(&item); err != nil {
		return nil, fmt.Errorf("catalogo: decode response: %w", err)
	}
	return &item, nil
}
