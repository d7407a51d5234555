package domain

import (
	"iter"
	"strings"
	"sync"
	"time"

	apperrors "github.com/spec-kit/mvura-console/pkg/util/errorutil"
)

// TicketCategory classifies the reported service issue.
type TicketCategory string

const (
	CategoryWaterOutage  TicketCategory = "water-outage"
	CategoryMeterFault   TicketCategory = "meter-fault"
	CategoryWaterQuality TicketCategory = "water-quality"
	CategoryVisibleLeak  TicketCategory = "visible-leak"
	CategoryLowPressure  TicketCategory = "low-pressure"
)

// TicketCategories lists every category in report order.
var TicketCategories = []TicketCategory{
	CategoryWaterOutage,
	CategoryMeterFault,
	CategoryWaterQuality,
	CategoryVisibleLeak,
	CategoryLowPressure,
}

var categoryLabels = map[TicketCategory]string{
	CategoryWaterOutage:  "Water outage",
	CategoryMeterFault:   "Meter fault",
	CategoryWaterQuality: "Water quality",
	CategoryVisibleLeak:  "Visible leak",
	CategoryLowPressure:  "Low pressure",
}

// Valid reports whether c is a known category.
func (c TicketCategory) Valid() bool {
	_, ok := categoryLabels[c]
	return ok
}

// Label returns the human-readable category name.
func (c TicketCategory) Label() string {
	return categoryLabels[c]
}

// ParseTicketCategory accepts visible-leak, VISIBLE_LEAK, "visible leak".
func ParseTicketCategory(raw string) (TicketCategory, error) {
	normalized := strings.ToLower(strings.TrimSpace(raw))
	normalized = strings.NewReplacer("_", "-", " ", "-").Replace(normalized)
	category := TicketCategory(normalized)
	if !category.Valid() {
		return "", apperrors.NewValidationError("unknown ticket category", map[string]any{"category": raw})
	}
	return category, nil
}

// TicketPriority enumerates urgency.
type TicketPriority string

const (
	TicketPriorityLow      TicketPriority = "LOW"
	TicketPriorityMedium   TicketPriority = "MEDIUM"
	TicketPriorityHigh     TicketPriority = "HIGH"
	TicketPriorityCritical TicketPriority = "CRITICAL"
)

// TicketPriorities lists every priority, lowest first.
var TicketPriorities = []TicketPriority{
	TicketPriorityLow,
	TicketPriorityMedium,
	TicketPriorityHigh,
	TicketPriorityCritical,
}

// Valid reports whether p is a known priority.
func (p TicketPriority) Valid() bool {
	switch p {
	case TicketPriorityLow, TicketPriorityMedium, TicketPriorityHigh, TicketPriorityCritical:
		return true
	}
	return false
}

// ParseTicketPriority accepts any casing of the priority names.
func ParseTicketPriority(raw string) (TicketPriority, error) {
	priority := TicketPriority(strings.ToUpper(strings.TrimSpace(raw)))
	if !priority.Valid() {
		return "", apperrors.NewValidationError("unknown ticket priority", map[string]any{"priority": raw})
	}
	return priority, nil
}

// NewTicketInput describes a ticket about to be created.
type NewTicketInput struct {
	Title       string
	Description string
	Category    TicketCategory
	Priority    TicketPriority
	Client      *Client
}

// Ticket is the aggregate for a reported service issue. Every exported method
// runs under the ticket's own lock and either applies fully or not at all.
type Ticket struct {
	mu sync.Mutex

	id          int64
	title       string
	description string
	category    TicketCategory
	priority    TicketPriority
	client      *Client
	createdAt   time.Time
	now         func() time.Time

	status         TicketStatus
	resolutionNote string
	updatedAt      time.Time
	closedAt       *time.Time
	assignment     Assignment
	comments       CommentLog
}

// NewTicket creates an Open, unassigned ticket. The id is issued later by the
// directory the ticket is registered with. A nil now uses time.Now.
func NewTicket(input NewTicketInput, now func() time.Time) (*Ticket, error) {
	if now == nil {
		now = time.Now
	}
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, apperrors.NewValidationError("title required", nil)
	}
	if !input.Category.Valid() {
		return nil, apperrors.NewValidationError("unknown ticket category", map[string]any{"category": string(input.Category)})
	}
	if !input.Priority.Valid() {
		return nil, apperrors.NewValidationError("unknown ticket priority", map[string]any{"priority": string(input.Priority)})
	}
	if input.Client == nil {
		return nil, apperrors.NewValidationError("client required", nil)
	}

	created := now()
	return &Ticket{
		title:       title,
		description: strings.TrimSpace(input.Description),
		category:    input.Category,
		priority:    input.Priority,
		client:      input.Client,
		createdAt:   created,
		updatedAt:   created,
		now:         now,
		status:      TicketStatusOpen,
	}, nil
}

// AttachID binds the directory-issued id. It can only happen once.
func (t *Ticket) AttachID(id int64) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if id <= 0 {
		return apperrors.NewValidationError("ticket id must be positive", map[string]any{"ticket_id": id})
	}
	if t.id != 0 {
		return apperrors.NewValidationError("ticket already registered", map[string]any{"ticket_id": t.id})
	}
	t.id = id
	return nil
}

// ID returns the ticket id, or 0 before registration.
func (t *Ticket) ID() int64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.id
}

// Title is immutable and needs no lock.
func (t *Ticket) Title() string {
	return t.title
}

// Category is immutable and needs no lock.
func (t *Ticket) Category() TicketCategory {
	return t.category
}

// Priority is immutable and needs no lock.
func (t *Ticket) Priority() TicketPriority {
	return t.priority
}

// Client returns the referenced client record.
func (t *Ticket) Client() *Client {
	return t.client
}

// Status returns the current status.
func (t *Ticket) Status() TicketStatus {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.status
}

// Assignee returns the current agent, or "" when unassigned.
func (t *Ticket) Assignee() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.assignment.Current()
}

// ResolutionNote returns the note and whether one is present.
func (t *Ticket) ResolutionNote() (string, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.resolutionNote, t.status == TicketStatusResolved
}

// AddComment appends a remark to the thread.
func (t *Ticket) AddComment(author, body string) (Comment, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	at := t.now()
	comment, err := t.comments.Append(author, body, at)
	if err != nil {
		return Comment{}, err
	}
	t.updatedAt = at
	return comment, nil
}

// Comments yields the thread oldest first.
func (t *Ticket) Comments() iter.Seq[Comment] {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.comments.All()
}

// StatusTransition reports a committed status change.
type StatusTransition struct {
	From           TicketStatus
	To             TicketStatus
	ResolutionNote string
}

// ChangeStatus moves the ticket to next. Resolving requires a note; leaving
// Resolved drops it.
func (t *Ticket) ChangeStatus(next TicketStatus, resolutionNote string) (StatusTransition, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	change, err := planStatusChange(t.status, next, resolutionNote)
	if err != nil {
		return StatusTransition{}, err
	}

	at := t.now()
	t.status = change.to
	t.resolutionNote = change.resolutionNote
	switch {
	case change.closing:
		closed := at
		t.closedAt = &closed
	case change.reopening:
		t.closedAt = nil
	}
	t.updatedAt = at
	return StatusTransition{From: change.from, To: change.to, ResolutionNote: change.resolutionNote}, nil
}

// Reassign hands the ticket to agent, who must be known to agents.
func (t *Ticket) Reassign(agent string, agents AgentDirectory) (AssignmentChange, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	next, err := t.assignment.planAssign(agent, agents)
	if err != nil {
		return AssignmentChange{}, err
	}
	at := t.now()
	change := t.assignment.apply(next, at)
	t.updatedAt = at
	return change, nil
}

// Unassign clears the assignee.
func (t *Ticket) Unassign() (AssignmentChange, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if err := t.assignment.planUnassign(); err != nil {
		return AssignmentChange{}, err
	}
	at := t.now()
	change := t.assignment.apply("", at)
	t.updatedAt = at
	return change, nil
}

// TicketSnapshot is a detached copy of a ticket. Changing it never touches
// the live aggregate.
type TicketSnapshot struct {
	ID             int64              `json:"id"`
	Title          string             `json:"title"`
	Description    string             `json:"description,omitempty"`
	Category       TicketCategory     `json:"category"`
	Priority       TicketPriority     `json:"priority"`
	Status         TicketStatus       `json:"status"`
	Client         ClientRef          `json:"client"`
	Assignee       *string            `json:"assignee"`
	ResolutionNote *string            `json:"resolution_note"`
	Comments       []Comment          `json:"comments"`
	Assignments    []AssignmentChange `json:"assignments"`
	CreatedAt      time.Time          `json:"created_at"`
	UpdatedAt      time.Time          `json:"updated_at"`
	ClosedAt       *time.Time         `json:"closed_at,omitempty"`
}

// Snapshot returns a read-only copy for rendering and reporting.
func (t *Ticket) Snapshot() TicketSnapshot {
	t.mu.Lock()
	defer t.mu.Unlock()

	snap := TicketSnapshot{
		ID:          t.id,
		Title:       t.title,
		Description: t.description,
		Category:    t.category,
		Priority:    t.priority,
		Status:      t.status,
		Client:      t.client.Ref(),
		Comments:    t.comments.copyEntries(),
		Assignments: t.assignment.copyTrail(),
		CreatedAt:   t.createdAt,
		UpdatedAt:   t.updatedAt,
	}
	if assignee := t.assignment.Current(); assignee != "" {
		snap.Assignee = &assignee
	}
	if t.status == TicketStatusResolved {
		note := t.resolutionNote
		snap.ResolutionNote = &note
	}
	if t.closedAt != nil {
		closed := *t.closedAt
		snap.ClosedAt = &closed
	}
	return snap
}
