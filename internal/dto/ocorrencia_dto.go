package dto

import "time"

// ─── Request DTOs ────────────────────────────────────────────────────────────

// ItemOcorrenciaRequest carries one divergence entry. Field names follow the
// wire format the console already uses (item_cod, item_qtd, …). Codigo and
// Quantidade are deliberately NOT validator-tagged: the lifecycle service's
// validation gate owns those rules and reports them as a single user message.
type ItemOcorrenciaRequest struct {
	Tipo       string `json:"tipo"       validate:"required,oneof=FALTA SOBRA AVARIA FALTA_INTERNA"`
	Codigo     string `json:"item_cod"`
	Descricao  string `json:"item_desc"`
	Lote       string `json:"item_lote"`
	Quantidade int    `json:"item_qtd"`
	Observacao string `json:"item_obs"`
	Endereco   string `json:"item_end"`
	Local      string `json:"local"`
}

// SalvarOcorrenciaRequest creates a new pending occurrence (empty ID) or fully
// rewrites an existing one (ID set). The item list always replaces the stored
// list wholesale.
type SalvarOcorrenciaRequest struct {
	ID          string                  `json:"id"    validate:"omitempty,uuid"`
	Local       string                  `json:"local" validate:"required"`
	Tipo        string                  `json:"tipo"  validate:"required,oneof=recebimento expedicao interna"`
	Observacoes *string                 `json:"observacoes"`
	Itens       []ItemOcorrenciaRequest `json:"itens" validate:"dive"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type ItemOcorrenciaResponse struct {
	Tipo       string `json:"tipo"`
	Codigo     string `json:"item_cod"`
	Descricao  string `json:"item_desc"`
	Lote       string `json:"item_lote"`
	Quantidade int    `json:"item_qtd"`
	Observacao string `json:"item_obs"`
	Endereco   string `json:"item_end"`
	Local      string `json:"local"`
}

type OcorrenciaResponse struct {
	ID               string                   `json:"id"`
	Status           string                   `json:"status"`
	Solicitante      string                   `json:"solicitante"`
	SolicitanteEmail string                   `json:"solicitante_email"`
	Local            string                   `json:"local"`
	Tipo             string                   `json:"tipo"`
	Observacoes      *string                  `json:"observacoes"`
	Rejeitada        bool                     `json:"rejeitada"`
	Itens            []ItemOcorrenciaResponse `json:"itens"`
	CreatedAt        time.Time                `json:"created_at"`
	UpdatedAt        time.Time                `json:"updated_at"`
}
