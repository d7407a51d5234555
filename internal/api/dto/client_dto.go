package dto

import (
	"time"

	"github.com/spec-kit/mvura-console/internal/domain"
)

// ClientRequest is the editable client form.
type ClientRequest struct {
	Name         string `json:"name"`
	NIF          string `json:"nif"`
	Address      string `json:"address"`
	Contact      string `json:"contact"`
	Email        string `json:"email"`
	ContractType string `json:"contract_type"`
	Status       string `json:"status"`
	StartDate    string `json:"start_date"`
}

// ClientResponse renders a client record.
type ClientResponse struct {
	ID string `json:"id"`
	domain.ClientProfile
}

// ClientActivityResponse is one entry of a client's timeline.
type ClientActivityResponse struct {
	Type        string    `json:"type"`
	Actor       string    `json:"actor"`
	Description string    `json:"description"`
	At          time.Time `json:"at"`
}
