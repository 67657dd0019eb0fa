package model

import (
	"time"

	"github.com/google/uuid"
)

// Papéis de acesso. LIDER and ADMIN receive chamado alerts.
const (
	PapelOperador = "OPERADOR"
	PapelLider    = "LIDER"
	PapelAdmin    = "ADMIN"
)

// Usuario stores console users with role-based access.
type Usuario struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Username     string    `gorm:"uniqueIndex;not null"`
	Nome         string    `gorm:"not null"`
	Email        string    `gorm:"not null"`
	PasswordHash string    `gorm:"not null"`
	Papel        string    `gorm:"type:varchar(20);not null"` // OPERADOR | LIDER | ADMIN
	Ativo        bool      `gorm:"not null;default:true"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
