package dto

import "github.com/shopspring/decimal"

// ResumoTipo aggregates line items of one divergence type across the current
// projection window.
type ResumoTipo struct {
	Tipo       string          `json:"tipo"`
	Quantidade int             `json:"quantidade"`
	Percentual decimal.Decimal `json:"percentual"`
}

type ResumoLocal struct {
	Local       string `json:"local"`
	Ocorrencias int    `json:"ocorrencias"`
}

// EstatisticasResponse feeds the dashboard cards and the TV wallboard.
type EstatisticasResponse struct {
	Ambiente        string        `json:"ambiente"`
	TotalPendentes  int           `json:"total_pendentes"`
	TotalConcluidas int           `json:"total_concluidas"`
	TotalItens      int           `json:"total_itens"`
	PorTipo         []ResumoTipo  `json:"por_tipo"`
	PorLocal        []ResumoLocal `json:"por_local"`
}
