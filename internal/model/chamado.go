package model

import (
	"time"

	"github.com/google/uuid"
)

// ChamadoLider is an ephemeral broadcast asking a leader to respond in person.
// Records stay persisted after the 2-minute notification window closes; they
// simply stop being eligible to trigger alerts.
type ChamadoLider struct {
	ID               uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Ambiente         string    `gorm:"type:varchar(20);not null;index:idx_chamados_ambiente_created"`
	Solicitante      string    `gorm:"not null"`
	SolicitanteEmail string    `gorm:"not null"`
	Local            string
	Lido             bool      `gorm:"not null;default:false"`
	CreatedAt        time.Time `gorm:"index:idx_chamados_ambiente_created,sort:desc"`
}

func (ChamadoLider) TableName() string { return "chamados_lider" }
