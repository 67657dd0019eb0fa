package dto

import "time"

type ChamadoRequest struct {
	Local string `json:"local" validate:"required"`
}

type ChamadoResponse struct {
	ID               string    `json:"id"`
	Solicitante      string    `json:"solicitante"`
	SolicitanteEmail string    `json:"solicitante_email"`
	Local            string    `json:"local"`
	Lido             bool      `json:"lido"`
	CreatedAt        time.Time `json:"created_at"`
}
