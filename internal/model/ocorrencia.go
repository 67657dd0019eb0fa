package model

import (
	"time"

	"github.com/google/uuid"
)

// StatusOcorrencia is the lifecycle state of an RNC.
// Flow: rascunho → pendente → concluido. A reject returns pendente → rascunho
// (the record is flagged, never silently rewritten); deletion is terminal and
// only valid before conclusion. Pendente may never be skipped.
type StatusOcorrencia string

const (
	StatusRascunho  StatusOcorrencia = "rascunho"
	StatusPendente  StatusOcorrencia = "pendente"
	StatusConcluido StatusOcorrencia = "concluido"
)

// transicoes is the explicit transition table. Call sites validate every
// status change through PodeIrPara; there is no other path between states.
var transicoes = map[StatusOcorrencia][]StatusOcorrencia{
	StatusRascunho:  {StatusPendente},
	StatusPendente:  {StatusConcluido, StatusRascunho},
	StatusConcluido: {},
}

// PodeIrPara reports whether the transition s → destino is allowed.
func (s StatusOcorrencia) PodeIrPara(destino StatusOcorrencia) bool {
	for _, d := range transicoes[s] {
		if d == destino {
			return true
		}
	}
	return false
}

// PodeExcluir reports whether a record in state s may be permanently deleted.
// Concluded occurrences are part of the historical record and stay.
func (s StatusOcorrencia) PodeExcluir() bool {
	return s != StatusConcluido
}

// Tipos de divergência de um item.
const (
	ItemFalta        = "FALTA"
	ItemSobra        = "SOBRA"
	ItemAvaria       = "AVARIA"
	ItemFaltaInterna = "FALTA_INTERNA"
)

// Ocorrencia is a non-conformance report (RNC) raised during receiving or
// shipping. All mutations go through the lifecycle service so that the
// persisted record and the in-memory projections never diverge.
type Ocorrencia struct {
	ID       uuid.UUID        `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Ambiente string           `gorm:"type:varchar(20);not null;index:idx_ocorrencias_ambiente_created"`
	Status   StatusOcorrencia `gorm:"type:varchar(20);not null;default:'pendente'"`

	Solicitante      string `gorm:"not null"`
	SolicitanteEmail string `gorm:"not null"`
	Local            string
	// Tipo: "recebimento" | "expedicao" | "interna"
	Tipo        string `gorm:"type:varchar(30)"`
	Observacoes *string
	// Rejeitada marks a record sent back from pendente to rascunho by a leader.
	Rejeitada bool `gorm:"not null;default:false"`

	Itens []ItemOcorrencia `gorm:"foreignKey:OcorrenciaID;constraint:OnDelete:CASCADE"`

	// CreatedAt is the authoritative ordering key for every projection.
	CreatedAt time.Time `gorm:"index:idx_ocorrencias_ambiente_created,sort:desc"`
	UpdatedAt time.Time
}

func (Ocorrencia) TableName() string { return "ocorrencias" }

// ItemOcorrencia is a single product-level divergence inside an occurrence.
// Every persisted item has a non-empty Codigo and Quantidade > 0 (enforced by
// the validation gate before save, not by the database).
type ItemOcorrencia struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	OcorrenciaID uuid.UUID `gorm:"type:uuid;not null;index"`
	Tipo         string    `gorm:"type:varchar(20);not null"` // FALTA | SOBRA | AVARIA | FALTA_INTERNA
	Codigo       string    `gorm:"not null"`
	Descricao    string
	Lote         string
	Quantidade   int `gorm:"not null"`
	Observacao   string
	Local        string
	// EnderecoOriginal preserves the scanned address verbatim; display code may
	// normalize it but the raw value is never rewritten.
	EnderecoOriginal string
	CreatedAt        time.Time
}

func (ItemOcorrencia) TableName() string { return "itens_ocorrencia" }
