package travel

import (
	"time"

	"github.com/google/uuid"
	"github.com/toms/backend/internal/domain/shared"
)

// Aggregate type constant
const AggregateTypeTravelOrder = "TravelOrder"

// Event type constants
const (
	EventTypeTravelOrderCreated   = "TravelOrderCreated"
	EventTypeTravelOrderSubmitted = "TravelOrderSubmitted"
	EventTypeTravelOrderActed     = "TravelOrderActed"
)

// TravelOrderCreatedEvent is raised when a new travel order draft is created
type TravelOrderCreatedEvent struct {
	shared.BaseDomainEvent
	OrderID       uuid.UUID `json:"order_id"`
	OrderNumber   string    `json:"order_number"`
	RequesterID   uuid.UUID `json:"requester_id"`
	RequesterName string    `json:"requester_name"`
}

// NewTravelOrderCreatedEvent creates a new TravelOrderCreatedEvent
func NewTravelOrderCreatedEvent(order *TravelOrder) *TravelOrderCreatedEvent {
	return &TravelOrderCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeTravelOrderCreated, AggregateTypeTravelOrder, order.ID),
		OrderID:         order.ID,
		OrderNumber:     order.OrderNumber,
		RequesterID:     order.RequesterID,
		RequesterName:   order.RequesterName,
	}
}

// EventType returns the event type name
func (e *TravelOrderCreatedEvent) EventType() string {
	return EventTypeTravelOrderCreated
}

// ApprovalStepInfo represents step information for events
type ApprovalStepInfo struct {
	StepID     uuid.UUID `json:"step_id"`
	DirectorID uuid.UUID `json:"director_id"`
	StepOrder  int       `json:"step_order"`
	Role       StepRole  `json:"role"`
}

// TravelOrderSubmittedEvent is raised when an order enters the approval
// chain; it carries the materialized chain so downstream consumers (e.g.
// notifications) know which director is up first.
type TravelOrderSubmittedEvent struct {
	shared.BaseDomainEvent
	OrderID     uuid.UUID          `json:"order_id"`
	OrderNumber string             `json:"order_number"`
	RequesterID uuid.UUID          `json:"requester_id"`
	SubmittedAt time.Time          `json:"submitted_at"`
	Steps       []ApprovalStepInfo `json:"steps"`
}

// NewTravelOrderSubmittedEvent creates a new TravelOrderSubmittedEvent
func NewTravelOrderSubmittedEvent(order *TravelOrder) *TravelOrderSubmittedEvent {
	steps := make([]ApprovalStepInfo, len(order.Steps))
	for i, step := range order.Steps {
		steps[i] = ApprovalStepInfo{
			StepID:     step.ID,
			DirectorID: step.DirectorID,
			StepOrder:  step.StepOrder,
			Role:       step.Role,
		}
	}
	var submittedAt time.Time
	if order.SubmittedAt != nil {
		submittedAt = *order.SubmittedAt
	}
	return &TravelOrderSubmittedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeTravelOrderSubmitted, AggregateTypeTravelOrder, order.ID),
		OrderID:         order.ID,
		OrderNumber:     order.OrderNumber,
		RequesterID:     order.RequesterID,
		SubmittedAt:     submittedAt,
		Steps:           steps,
	}
}

// EventType returns the event type name
func (e *TravelOrderSubmittedEvent) EventType() string {
	return EventTypeTravelOrderSubmitted
}

// TravelOrderActedEvent is raised when a director acts on the current step
type TravelOrderActedEvent struct {
	shared.BaseDomainEvent
	OrderID     uuid.UUID   `json:"order_id"`
	OrderNumber string      `json:"order_number"`
	StepID      uuid.UUID   `json:"step_id"`
	StepOrder   int         `json:"step_order"`
	DirectorID  uuid.UUID   `json:"director_id"`
	Decision    Decision    `json:"decision"`
	NewStatus   OrderStatus `json:"new_status"`
}

// NewTravelOrderActedEvent creates a new TravelOrderActedEvent
func NewTravelOrderActedEvent(order *TravelOrder, step *ApprovalStep, decision Decision) *TravelOrderActedEvent {
	return &TravelOrderActedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeTravelOrderActed, AggregateTypeTravelOrder, order.ID),
		OrderID:         order.ID,
		OrderNumber:     order.OrderNumber,
		StepID:          step.ID,
		StepOrder:       step.StepOrder,
		DirectorID:      step.DirectorID,
		Decision:        decision,
		NewStatus:       order.Status,
	}
}

// EventType returns the event type name
func (e *TravelOrderActedEvent) EventType() string {
	return EventTypeTravelOrderActed
}
