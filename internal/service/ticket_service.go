package service

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/mvura-console/internal/domain"
	"github.com/spec-kit/mvura-console/internal/events"
	"github.com/spec-kit/mvura-console/internal/observability"
	"github.com/spec-kit/mvura-console/internal/repository"
	apperrors "github.com/spec-kit/mvura-console/pkg/util/errorutil"
	"github.com/spec-kit/mvura-console/pkg/util/validation"
)

// TicketService coordinates ticket workflows. Commands run against the live
// aggregate first; history, client activity and events follow only after the
// aggregate has committed, and their failures are logged, not returned.
type TicketService struct {
	tickets    repository.TicketRepository
	clients    repository.ClientRepository
	agents     repository.AgentRepository
	history    repository.TicketHistoryRepository
	dispatcher events.Dispatcher
	metrics    *observability.Metrics
	validator  *validation.Validator
	logger     *zap.Logger
	now        func() time.Time
}

// TicketDependencies bundles collaborators for the ticket service.
type TicketDependencies struct {
	TicketRepo  repository.TicketRepository
	ClientRepo  repository.ClientRepository
	AgentRepo   repository.AgentRepository
	HistoryRepo repository.TicketHistoryRepository
	Dispatcher  events.Dispatcher
	Metrics     *observability.Metrics
	Validator   *validation.Validator
	Logger      *zap.Logger
	Clock       func() time.Time
}

// TicketCreateInput describes ticket creation payload.
type TicketCreateInput struct {
	Title       string `json:"title" validate:"required,max=200"`
	Description string `json:"description" validate:"max=4000"`
	Category    string `json:"category" validate:"required"`
	Priority    string `json:"priority" validate:"required"`
	ClientID    string `json:"client_id" validate:"required"`
}

// TicketListFilter describes console listing filters.
type TicketListFilter struct {
	Statuses   []domain.TicketStatus
	Categories []domain.TicketCategory
	Priorities []domain.TicketPriority
	Assignee   *string
	ClientID   *string
	SearchTerm *string
	Limit      int
	Offset     int
}

// NewTicketService constructs the service.
func NewTicketService(deps TicketDependencies) *TicketService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	validator := deps.Validator
	if validator == nil {
		validator = validation.New()
	}
	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}
	return &TicketService{
		tickets:    deps.TicketRepo,
		clients:    deps.ClientRepo,
		agents:     deps.AgentRepo,
		history:    deps.HistoryRepo,
		dispatcher: deps.Dispatcher,
		metrics:    deps.Metrics,
		validator:  validator,
		logger:     logger,
		now:        clock,
	}
}

// CreateTicket opens a ticket for an existing client.
func (s *TicketService) CreateTicket(ctx context.Context, actor string, input TicketCreateInput) (snap domain.TicketSnapshot, err error) {
	defer func() { s.observe("create", err) }()

	if err := s.validator.Struct(input); err != nil {
		return domain.TicketSnapshot{}, err
	}
	category, err := domain.ParseTicketCategory(input.Category)
	if err != nil {
		return domain.TicketSnapshot{}, err
	}
	priority, err := domain.ParseTicketPriority(input.Priority)
	if err != nil {
		return domain.TicketSnapshot{}, err
	}
	client, err := s.clients.GetByID(ctx, strings.TrimSpace(input.ClientID))
	if err != nil {
		return domain.TicketSnapshot{}, err
	}

	ticket, err := domain.NewTicket(domain.NewTicketInput{
		Title:       input.Title,
		Description: input.Description,
		Category:    category,
		Priority:    priority,
		Client:      client,
	}, s.now)
	if err != nil {
		return domain.TicketSnapshot{}, err
	}
	id, err := s.tickets.Register(ctx, ticket)
	if err != nil {
		return domain.TicketSnapshot{}, err
	}

	snap = ticket.Snapshot()
	s.metrics.RecordTicketCreated(string(category))
	s.recordHistory(ctx, &domain.TicketHistory{
		TicketID:   id,
		Actor:      actor,
		ChangeType: domain.ChangeTypeCreated,
		NewValue: map[string]any{
			"title":     snap.Title,
			"category":  snap.Category,
			"priority":  snap.Priority,
			"client_id": snap.Client.ID,
			"status":    snap.Status,
		},
	})
	if err := s.clients.RecordActivity(ctx, repository.ClientActivity{
		ClientID:    client.ID(),
		Type:        repository.ClientActivityTicket,
		Actor:       actor,
		Description: ticketOpenedDescription(id, category),
	}); err != nil {
		s.logger.Warn("client activity not recorded", zap.Int64("ticket_id", id), zap.Error(err))
	}
	s.publishEvent(ctx, events.Event{
		Type:     events.EventTicketCreated,
		TicketID: id,
		Actor:    actor,
		Payload: events.TicketCreatedPayload{
			Title:    snap.Title,
			Category: snap.Category,
			Priority: snap.Priority,
			ClientID: snap.Client.ID,
		},
	})
	s.logger.Info("ticket created", zap.Int64("ticket_id", id), zap.String("actor", actor), zap.String("category", string(category)))
	return snap, nil
}

// GetTicket returns a detached snapshot of the ticket.
func (s *TicketService) GetTicket(ctx context.Context, id int64) (domain.TicketSnapshot, error) {
	ticket, err := s.tickets.Find(ctx, id)
	if err != nil {
		return domain.TicketSnapshot{}, err
	}
	return ticket.Snapshot(), nil
}

// ListTickets returns a page of snapshots and the total number of matches.
func (s *TicketService) ListTickets(ctx context.Context, filter TicketListFilter) ([]domain.TicketSnapshot, int, error) {
	tickets, total, err := s.tickets.ListWithFilter(ctx, repository.TicketFilter{
		Statuses:   filter.Statuses,
		Categories: filter.Categories,
		Priorities: filter.Priorities,
		Assignee:   filter.Assignee,
		ClientID:   filter.ClientID,
		SearchTerm: filter.SearchTerm,
		Limit:      filter.Limit,
		Offset:     filter.Offset,
	})
	if err != nil {
		return nil, 0, err
	}
	out := make([]domain.TicketSnapshot, 0, len(tickets))
	for _, ticket := range tickets {
		out = append(out, ticket.Snapshot())
	}
	return out, total, nil
}

// AddComment appends a comment by author.
func (s *TicketService) AddComment(ctx context.Context, id int64, author, body string) (comment domain.Comment, err error) {
	defer func() { s.observe("add_comment", err) }()

	ticket, err := s.tickets.Find(ctx, id)
	if err != nil {
		return domain.Comment{}, err
	}
	comment, err = ticket.AddComment(author, body)
	if err != nil {
		return domain.Comment{}, err
	}

	s.recordHistory(ctx, &domain.TicketHistory{
		TicketID:   id,
		Actor:      comment.Author,
		ChangeType: domain.ChangeTypeComment,
		NewValue: map[string]any{
			"comment_id": comment.ID,
			"body":       stringPreview(comment.Body, 120),
		},
	})
	s.publishEvent(ctx, events.Event{
		Type:     events.EventTicketCommentAdded,
		TicketID: id,
		Actor:    comment.Author,
		Payload: events.TicketCommentAddedPayload{
			CommentID:   comment.ID,
			Author:      comment.Author,
			BodyPreview: stringPreview(comment.Body, 120),
		},
	})
	return comment, nil
}

// ChangeStatus moves the ticket to status. A resolution note is required when
// resolving and ignored otherwise.
func (s *TicketService) ChangeStatus(ctx context.Context, actor string, id int64, status domain.TicketStatus, resolutionNote string) (snap domain.TicketSnapshot, err error) {
	defer func() { s.observe("change_status", err) }()

	ticket, err := s.tickets.Find(ctx, id)
	if err != nil {
		return domain.TicketSnapshot{}, err
	}
	transition, err := ticket.ChangeStatus(status, resolutionNote)
	if err != nil {
		return domain.TicketSnapshot{}, err
	}
	snap = ticket.Snapshot()

	newValue := map[string]any{"status": transition.To}
	if transition.ResolutionNote != "" {
		newValue["resolution_note"] = transition.ResolutionNote
	}
	s.recordHistory(ctx, &domain.TicketHistory{
		TicketID:   id,
		Actor:      actor,
		ChangeType: domain.ChangeTypeStatus,
		OldValue:   map[string]any{"status": transition.From},
		NewValue:   newValue,
	})
	s.publishEvent(ctx, events.Event{
		Type:     events.EventTicketStatusChanged,
		TicketID: id,
		Actor:    actor,
		Payload: events.TicketStatusChangedPayload{
			OldStatus:      transition.From,
			NewStatus:      transition.To,
			ResolutionNote: transition.ResolutionNote,
		},
	})
	return snap, nil
}

// Reassign hands the ticket to agent, or unassigns it when agent is nil.
func (s *TicketService) Reassign(ctx context.Context, actor string, id int64, agent *string) (snap domain.TicketSnapshot, err error) {
	command := "reassign"
	if agent == nil {
		command = "unassign"
	}
	defer func() { s.observe(command, err) }()

	ticket, err := s.tickets.Find(ctx, id)
	if err != nil {
		return domain.TicketSnapshot{}, err
	}

	var change domain.AssignmentChange
	if agent == nil {
		change, err = ticket.Unassign()
	} else {
		change, err = ticket.Reassign(*agent, s.agents)
	}
	if err != nil {
		return domain.TicketSnapshot{}, err
	}
	snap = ticket.Snapshot()

	s.recordHistory(ctx, &domain.TicketHistory{
		TicketID:   id,
		Actor:      actor,
		ChangeType: domain.ChangeTypeAssignee,
		OldValue:   map[string]any{"assignee": nullable(change.From)},
		NewValue:   map[string]any{"assignee": nullable(change.To)},
		CreatedAt:  change.ChangedAt,
	})
	s.publishEvent(ctx, events.Event{
		Type:     events.EventTicketAssigned,
		TicketID: id,
		Actor:    actor,
		Payload: events.TicketAssignedPayload{
			PreviousAssignee: change.From,
			Assignee:         change.To,
		},
	})
	return snap, nil
}

// History lists the audit entries of a ticket, oldest first.
func (s *TicketService) History(ctx context.Context, id int64) ([]domain.TicketHistory, error) {
	if _, err := s.tickets.Find(ctx, id); err != nil {
		return nil, err
	}
	if s.history == nil {
		return []domain.TicketHistory{}, nil
	}
	entries, err := s.history.ListByTicket(ctx, id)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	return entries, nil
}

func (s *TicketService) recordHistory(ctx context.Context, entry *domain.TicketHistory) {
	if s.history == nil {
		return
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = s.now()
	}
	if err := s.history.Create(ctx, entry); err != nil {
		s.logger.Error("ticket history not recorded",
			zap.Int64("ticket_id", entry.TicketID),
			zap.String("change_type", string(entry.ChangeType)),
			zap.Error(err))
	}
}

func (s *TicketService) publishEvent(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = s.now()
	}
	if err := s.dispatcher.Publish(ctx, event); err != nil {
		s.logger.Warn("event handler failed", zap.String("event_type", string(event.Type)), zap.Error(err))
	}
}

func (s *TicketService) observe(command string, err error) {
	s.metrics.RecordCommand(command, resultCode(err))
}

func resultCode(err error) string {
	if err == nil {
		return "ok"
	}
	return apperrors.ToDomainError(err).Code
}

func ticketOpenedDescription(id int64, category domain.TicketCategory) string {
	return "ticket #" + strconv.FormatInt(id, 10) + " opened for " + strings.ToLower(category.Label())
}

func nullable(v string) any {
	if v == "" {
		return nil
	}
	return v
}

func stringPreview(body string, max int) string {
	body = strings.TrimSpace(body)
	runes := []rune(body)
	if len(runes) <= max {
		return body
	}
	if max <= 3 {
		return string(runes[:max])
	}
	return string(runes[:max-3]) + "..."
}
