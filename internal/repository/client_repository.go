package repository

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/spec-kit/mvura-console/internal/domain"
	apperrors "github.com/spec-kit/mvura-console/pkg/util/errorutil"
)

// ClientActivityType labels an entry of a client's timeline.
type ClientActivityType string

const (
	ClientActivityCreated ClientActivityType = "CREATED"
	ClientActivityEdited  ClientActivityType = "EDITED"
	ClientActivityStatus  ClientActivityType = "STATUS_CHANGED"
	ClientActivityTicket  ClientActivityType = "TICKET_OPENED"
)

// ClientActivity is one entry of a client's timeline.
type ClientActivity struct {
	ClientID    string             `json:"client_id"`
	Type        ClientActivityType `json:"type"`
	Actor       string             `json:"actor"`
	Description string             `json:"description"`
	At          time.Time          `json:"at"`
}

// ClientFilter defines query params for client listing.
type ClientFilter struct {
	Status       *domain.ClientStatus
	ContractType *domain.ContractType
}

// ClientRepository owns client records; tickets only point at them.
type ClientRepository interface {
	Create(ctx context.Context, actor string, profile domain.ClientProfile) (*domain.Client, error)
	GetByID(ctx context.Context, id string) (*domain.Client, error)
	List(ctx context.Context, filter ClientFilter) ([]*domain.Client, error)
	Update(ctx context.Context, actor, id string, profile domain.ClientProfile) (*domain.Client, error)
	RecordActivity(ctx context.Context, activity ClientActivity) error
	Activity(ctx context.Context, id string) ([]ClientActivity, error)
}

type clientRepository struct {
	mu       sync.RWMutex
	lastID   int
	clients  map[string]*domain.Client
	activity map[string][]ClientActivity
	now      func() time.Time
}

// NewClientRepository instantiates an empty in-memory repository.
func NewClientRepository() ClientRepository {
	return &clientRepository{
		clients:  make(map[string]*domain.Client),
		activity: make(map[string][]ClientActivity),
		now:      time.Now,
	}
}

func (r *clientRepository) Create(_ context.Context, actor string, profile domain.ClientProfile) (*domain.Client, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	id := fmt.Sprintf("CLI-%04d", r.lastID+1)
	client, err := domain.NewClient(id, profile)
	if err != nil {
		return nil, err
	}
	r.lastID++
	r.clients[id] = client
	r.activity[id] = append(r.activity[id], ClientActivity{
		ClientID:    id,
		Type:        ClientActivityCreated,
		Actor:       actor,
		Description: "client registered",
		At:          r.now(),
	})
	return client, nil
}

func (r *clientRepository) GetByID(_ context.Context, id string) (*domain.Client, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	client, ok := r.clients[id]
	if !ok {
		return nil, apperrors.NewNotFound("client", map[string]any{"client_id": id})
	}
	return client, nil
}

func (r *clientRepository) List(_ context.Context, filter ClientFilter) ([]*domain.Client, error) {
	r.mu.RLock()
	result := make([]*domain.Client, 0, len(r.clients))
	for _, client := range r.clients {
		profile := client.Profile()
		if filter.Status != nil && profile.Status != *filter.Status {
			continue
		}
		if filter.ContractType != nil && profile.ContractType != *filter.ContractType {
			continue
		}
		result = append(result, client)
	}
	r.mu.RUnlock()

	sort.Slice(result, func(i, j int) bool {
		return result[i].ID() < result[j].ID()
	})
	return result, nil
}

// Update edits the live record in place so every ticket sees the change.
func (r *clientRepository) Update(_ context.Context, actor, id string, profile domain.ClientProfile) (*domain.Client, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	client, ok := r.clients[id]
	if !ok {
		return nil, apperrors.NewNotFound("client", map[string]any{"client_id": id})
	}
	previous := client.Profile()
	if err := client.Update(profile); err != nil {
		return nil, err
	}

	updated := client.Profile()
	at := r.now()
	if previous.Status != updated.Status {
		r.activity[id] = append(r.activity[id], ClientActivity{
			ClientID:    id,
			Type:        ClientActivityStatus,
			Actor:       actor,
			Description: fmt.Sprintf("status changed from %s to %s", previous.Status, updated.Status),
			At:          at,
		})
	}
	if changed := changedFields(previous, updated); len(changed) > 0 {
		r.activity[id] = append(r.activity[id], ClientActivity{
			ClientID:    id,
			Type:        ClientActivityEdited,
			Actor:       actor,
			Description: "updated " + joinFields(changed),
			At:          at,
		})
	}
	return client, nil
}

func (r *clientRepository) RecordActivity(_ context.Context, activity ClientActivity) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.clients[activity.ClientID]; !ok {
		return apperrors.NewNotFound("client", map[string]any{"client_id": activity.ClientID})
	}
	if activity.At.IsZero() {
		activity.At = r.now()
	}
	r.activity[activity.ClientID] = append(r.activity[activity.ClientID], activity)
	return nil
}

// Activity returns the client's timeline, newest first.
func (r *clientRepository) Activity(_ context.Context, id string) ([]ClientActivity, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if _, ok := r.clients[id]; !ok {
		return nil, apperrors.NewNotFound("client", map[string]any{"client_id": id})
	}
	entries := r.activity[id]
	out := make([]ClientActivity, len(entries))
	for i := range entries {
		out[len(entries)-1-i] = entries[i]
	}
	return out, nil
}

func changedFields(before, after domain.ClientProfile) []string {
	var fields []string
	if before.Name != after.Name {
		fields = append(fields, "name")
	}
	if before.NIF != after.NIF {
		fields = append(fields, "nif")
	}
	if before.Address != after.Address {
		fields = append(fields, "address")
	}
	if before.Contact != after.Contact {
		fields = append(fields, "contact")
	}
	if before.Email != after.Email {
		fields = append(fields, "email")
	}
	if before.ContractType != after.ContractType {
		fields = append(fields, "contract type")
	}
	if !before.StartDate.Equal(after.StartDate) {
		fields = append(fields, "start date")
	}
	return fields
}

func joinFields(fields []string) string {
	switch len(fields) {
	case 0:
		return ""
	case 1:
		return fields[0]
	}
	out := fields[0]
	for _, f := range fields[1 : len(fields)-1] {
		out += ", " + f
	}
	return out + " and " + fields[len(fields)-1]
}
