package domain

import (
	"strings"
	"sync"
	"time"

	apperrors "github.com/spec-kit/mvura-console/pkg/util/errorutil"
)

// ContractType classifies a client's supply contract.
type ContractType string

const (
	ContractResidential ContractType = "RESIDENTIAL"
	ContractCommercial  ContractType = "COMMERCIAL"
	ContractIndustrial  ContractType = "INDUSTRIAL"
)

// ClientStatus represents the account state of a client.
type ClientStatus string

const (
	ClientStatusActive   ClientStatus = "ACTIVE"
	ClientStatusPending  ClientStatus = "PENDING"
	ClientStatusInactive ClientStatus = "INACTIVE"
)

// ClientProfile holds the editable fields of a client.
type ClientProfile struct {
	Name         string       `json:"name" validate:"required"`
	NIF          string       `json:"nif" validate:"required"`
	Address      string       `json:"address" validate:"required"`
	Contact      string       `json:"contact" validate:"required"`
	Email        string       `json:"email" validate:"omitempty,email"`
	ContractType ContractType `json:"contract_type" validate:"required,oneof=RESIDENTIAL COMMERCIAL INDUSTRIAL"`
	Status       ClientStatus `json:"status" validate:"required,oneof=ACTIVE PENDING INACTIVE"`
	StartDate    time.Time    `json:"start_date"`
}

// Client is a utility customer. Tickets hold a pointer to the live record,
// so edits made through Update show up on every ticket that references it.
type Client struct {
	mu      sync.RWMutex
	id      string
	profile ClientProfile
}

// ClientRef is the id and display name of a client as seen from a ticket.
type ClientRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// NewClient builds a client record.
func NewClient(id string, profile ClientProfile) (*Client, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, apperrors.NewValidationError("client id required", nil)
	}
	if strings.TrimSpace(profile.Name) == "" {
		return nil, apperrors.NewValidationError("client name required", nil)
	}
	profile.Name = strings.TrimSpace(profile.Name)
	return &Client{id: id, profile: profile}, nil
}

// ID returns the immutable client id.
func (c *Client) ID() string {
	return c.id
}

// Profile returns a copy of the current profile.
func (c *Client) Profile() ClientProfile {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.profile
}

// Update replaces the profile.
func (c *Client) Update(profile ClientProfile) error {
	profile.Name = strings.TrimSpace(profile.Name)
	if profile.Name == "" {
		return apperrors.NewValidationError("client name required", nil)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.profile = profile
	return nil
}

// Ref returns the reference as it reads right now.
func (c *Client) Ref() ClientRef {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return ClientRef{ID: c.id, Name: c.profile.Name}
}
