package travel

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/toms/backend/internal/domain/shared"
	"github.com/toms/backend/internal/domain/shared/valueobject"
)

// OrderStatus represents the status of a travel order
type OrderStatus string

const (
	OrderStatusDraft       OrderStatus = "draft"
	OrderStatusPending     OrderStatus = "pending"
	OrderStatusRecommended OrderStatus = "recommended"
	OrderStatusApproved    OrderStatus = "approved"
	OrderStatusRejected    OrderStatus = "rejected"
)

// IsValid checks if the status is a valid OrderStatus
func (s OrderStatus) IsValid() bool {
	switch s {
	case OrderStatusDraft, OrderStatusPending, OrderStatusRecommended,
		OrderStatusApproved, OrderStatusRejected:
		return true
	}
	return false
}

// String returns the string representation of OrderStatus
func (s OrderStatus) String() string {
	return string(s)
}

// IsTerminal returns true for statuses that permit no further action
func (s OrderStatus) IsTerminal() bool {
	return s == OrderStatusApproved || s == OrderStatusRejected
}

// CanTransitionTo checks if the status can transition to the target status.
// This table is the single source of truth for legal transitions.
func (s OrderStatus) CanTransitionTo(target OrderStatus) bool {
	switch s {
	case OrderStatusDraft:
		return target == OrderStatusPending
	case OrderStatusPending:
		return target == OrderStatusRecommended || target == OrderStatusApproved || target == OrderStatusRejected
	case OrderStatusRecommended:
		return target == OrderStatusApproved || target == OrderStatusRejected
	case OrderStatusApproved, OrderStatusRejected:
		return false // Terminal states
	}
	return false
}

// Decision is a director's decision on the current approval step
type Decision string

const (
	DecisionRecommend Decision = "recommend"
	DecisionApprove   Decision = "approve"
	DecisionReject    Decision = "reject"
)

// IsValid checks if the decision is one of the three known actions
func (d Decision) IsValid() bool {
	switch d {
	case DecisionRecommend, DecisionApprove, DecisionReject:
		return true
	}
	return false
}

// TravelOrder is the aggregate root for a travel order request. It owns the
// approval chain and the attachment set, and is the single authority for
// which status the order may move to next.
type TravelOrder struct {
	shared.BaseAggregateRoot
	OrderNumber     string
	RequesterID     uuid.UUID
	RequesterName   string
	TravelPurpose   string
	Destination     string
	OfficialStation string
	StartDate       time.Time
	EndDate         time.Time
	Objectives      string
	PerDiemExpenses decimal.Decimal
	PerDiemNote     string
	AssistantsNote  string
	Appropriation   string
	Remarks         string
	Status          OrderStatus
	Steps           []ApprovalStep
	Attachments     []Attachment
	SubmittedAt     *time.Time
	RecommendedAt   *time.Time
	ApprovedAt      *time.Time
	RejectedAt      *time.Time
}

// TableName returns the table name for GORM
func (TravelOrder) TableName() string {
	return "travel_orders"
}

// NewTravelOrder creates a new travel order in draft status for the given
// requester. Field-level invariants that hold for drafts too (date order,
// non-negative per diem) are enforced here; the required-field sweep happens
// at submission.
func NewTravelOrder(orderNumber string, requesterID uuid.UUID, requesterName string) (*TravelOrder, error) {
	if orderNumber == "" {
		return nil, shared.NewDomainError("INVALID_ORDER_NUMBER", "Order number cannot be empty")
	}
	if len(orderNumber) > 50 {
		return nil, shared.NewDomainError("INVALID_ORDER_NUMBER", "Order number cannot exceed 50 characters")
	}
	if requesterID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_REQUESTER", "Requester ID cannot be empty")
	}
	if requesterName == "" {
		return nil, shared.NewDomainError("INVALID_REQUESTER_NAME", "Requester name cannot be empty")
	}

	order := &TravelOrder{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		OrderNumber:       orderNumber,
		RequesterID:       requesterID,
		RequesterName:     requesterName,
		PerDiemExpenses:   decimal.Zero,
		Status:            OrderStatusDraft,
		Steps:             make([]ApprovalStep, 0),
		Attachments:       make([]Attachment, 0),
	}

	order.AddDomainEvent(NewTravelOrderCreatedEvent(order))

	return order, nil
}

// DraftFields carries the editable fields of a draft order
type DraftFields struct {
	TravelPurpose   string
	Destination     string
	OfficialStation string
	StartDate       time.Time
	EndDate         time.Time
	Objectives      string
	PerDiemExpenses decimal.Decimal
	PerDiemNote     string
	AssistantsNote  string
	Appropriation   string
	Remarks         string
}

// UpdateDraft replaces the editable fields of the order.
// Only allowed in draft status.
func (o *TravelOrder) UpdateDraft(fields DraftFields) error {
	if o.Status != OrderStatusDraft {
		return shared.NewDomainError("NOT_EDITABLE", "Only draft travel orders can be edited")
	}
	if fields.PerDiemExpenses.IsNegative() {
		return shared.NewValidationError("per_diem_expenses", "Per diem expenses cannot be negative")
	}
	if !fields.StartDate.IsZero() && !fields.EndDate.IsZero() && !fields.EndDate.After(fields.StartDate) {
		return shared.NewValidationError("end_date", "End date must be later than start date")
	}

	o.TravelPurpose = fields.TravelPurpose
	o.Destination = fields.Destination
	o.OfficialStation = fields.OfficialStation
	o.StartDate = fields.StartDate
	o.EndDate = fields.EndDate
	o.Objectives = fields.Objectives
	o.PerDiemExpenses = fields.PerDiemExpenses
	o.PerDiemNote = fields.PerDiemNote
	o.AssistantsNote = fields.AssistantsNote
	o.Appropriation = fields.Appropriation
	o.Remarks = fields.Remarks
	o.UpdatedAt = time.Now()

	return nil
}

// Submit validates the order and moves it from draft to pending,
// materializing the approval chain from the routing decision. The chain's
// shape is fixed here and never changes afterwards.
func (o *TravelOrder) Submit(routing []uuid.UUID) error {
	if o.Status != OrderStatusDraft {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot submit order in %s status", o.Status))
	}
	if err := o.validateForSubmission(); err != nil {
		return err
	}

	now := time.Now()
	steps, err := materializeChain(o.ID, routing, now)
	if err != nil {
		return err
	}

	o.Steps = steps
	o.Status = OrderStatusPending
	o.SubmittedAt = &now
	o.UpdatedAt = now

	o.AddDomainEvent(NewTravelOrderSubmittedEvent(o))

	return nil
}

// validateForSubmission enforces the required-field and cross-field
// invariants, reporting the first failing field.
func (o *TravelOrder) validateForSubmission() error {
	if o.TravelPurpose == "" {
		return shared.NewValidationError("travel_purpose", "Travel purpose is required")
	}
	if o.Destination == "" {
		return shared.NewValidationError("destination", "Destination is required")
	}
	if o.StartDate.IsZero() {
		return shared.NewValidationError("start_date", "Start date is required")
	}
	if o.EndDate.IsZero() {
		return shared.NewValidationError("end_date", "End date is required")
	}
	if !o.EndDate.After(o.StartDate) {
		return shared.NewValidationError("end_date", "End date must be later than start date")
	}
	if o.Objectives == "" {
		return shared.NewValidationError("objectives", "Objectives are required")
	}
	if o.PerDiemExpenses.IsNegative() {
		return shared.NewValidationError("per_diem_expenses", "Per diem expenses cannot be negative")
	}
	if o.Appropriation == "" {
		return shared.NewValidationError("appropriation", "Appropriation is required")
	}
	return nil
}

// CurrentStep returns the approval step awaiting action, or nil when the
// order is not awaiting any (draft or terminal). Step 1 is current while the
// order is pending; step 2 while it is recommended.
func (o *TravelOrder) CurrentStep() *ApprovalStep {
	var want int
	switch o.Status {
	case OrderStatusPending:
		want = 1
	case OrderStatusRecommended:
		want = 2
	default:
		return nil
	}
	for i := range o.Steps {
		if o.Steps[i].StepOrder == want {
			return &o.Steps[i]
		}
	}
	return nil
}

// StepForDirector returns the step bound to the given director, or nil
func (o *TravelOrder) StepForDirector(directorID uuid.UUID) *ApprovalStep {
	for i := range o.Steps {
		if o.Steps[i].DirectorID == directorID {
			return &o.Steps[i]
		}
	}
	return nil
}

// Act applies a director's decision to the current approval step and
// recomputes the order status. None of these transitions are reversible;
// a rejected or approved order can only be superseded by a new one.
func (o *TravelOrder) Act(directorID uuid.UUID, decision Decision, remarks string) error {
	if o.Status.IsTerminal() {
		return shared.NewDomainError("ALREADY_TERMINAL", fmt.Sprintf("Travel order is already %s", o.Status))
	}
	if o.Status == OrderStatusDraft {
		return shared.NewDomainError("INVALID_STATE", "Travel order has not been submitted")
	}
	if !decision.IsValid() {
		return shared.NewDomainError("INVALID_DECISION", "Decision must be recommend, approve, or reject")
	}

	step := o.CurrentStep()
	if step == nil {
		return shared.NewDomainError("INVALID_STATE", "Travel order has no actionable approval step")
	}
	if step.DirectorID != directorID {
		// A director bound to a later step is early, anyone else is not
		// part of this chain at all.
		if bound := o.StepForDirector(directorID); bound != nil {
			return shared.NewDomainError("NOT_CURRENT_STEP", fmt.Sprintf("Step %d is not current for this order", bound.StepOrder))
		}
		return shared.NewDomainError("NOT_AUTHORIZED", "Director is not bound to the current approval step")
	}

	now := time.Now()
	switch decision {
	case DecisionRecommend:
		if step.Role != StepRoleRecommend {
			return shared.NewDomainError("INVALID_DECISION", "This step requires approve or reject")
		}
		if err := step.act(StepStatusRecommended, remarks, now); err != nil {
			return err
		}
		o.transitionTo(OrderStatusRecommended, now)
	case DecisionApprove:
		if step.Role != StepRoleApprove {
			return shared.NewDomainError("INVALID_DECISION", "This step requires recommend or reject")
		}
		if err := step.act(StepStatusApproved, remarks, now); err != nil {
			return err
		}
		o.transitionTo(OrderStatusApproved, now)
	case DecisionReject:
		if err := step.act(StepStatusRejected, remarks, now); err != nil {
			return err
		}
		o.transitionTo(OrderStatusRejected, now)
	}

	o.AddDomainEvent(NewTravelOrderActedEvent(o, step, decision))

	return nil
}

// transitionTo applies a legal transition and stamps the matching timestamp.
// Callers have already validated legality through the decision checks; the
// CanTransitionTo guard is kept as the final arbiter.
func (o *TravelOrder) transitionTo(target OrderStatus, now time.Time) {
	if !o.Status.CanTransitionTo(target) {
		return
	}
	o.Status = target
	o.UpdatedAt = now
	switch target {
	case OrderStatusRecommended:
		o.RecommendedAt = &now
	case OrderStatusApproved:
		o.ApprovedAt = &now
	case OrderStatusRejected:
		o.RejectedAt = &now
	}
}

// AddAttachment attaches a file to the order. Only allowed in draft status.
func (o *TravelOrder) AddAttachment(att *Attachment) error {
	if o.Status != OrderStatusDraft {
		return shared.NewDomainError("NOT_EDITABLE", "Attachments can only be added to draft travel orders")
	}
	o.Attachments = append(o.Attachments, *att)
	o.UpdatedAt = time.Now()
	return nil
}

// StageAttachmentRemoval marks an attachment for deletion. The removal is
// deferred until the enclosing draft save commits, so an abandoned edit
// leaves the attachment set untouched.
func (o *TravelOrder) StageAttachmentRemoval(attachmentID uuid.UUID) error {
	if o.Status != OrderStatusDraft {
		return shared.NewDomainError("NOT_EDITABLE", "Attachments can only be removed from draft travel orders")
	}
	for i := range o.Attachments {
		if o.Attachments[i].ID == attachmentID {
			o.Attachments[i].StagedForRemoval = true
			o.UpdatedAt = time.Now()
			return nil
		}
	}
	return shared.NewDomainError("NOT_FOUND", "Attachment not found on this travel order")
}

// CommitAttachmentRemovals drops every staged attachment from the set and
// returns the removed entries so the caller can delete the stored files.
func (o *TravelOrder) CommitAttachmentRemovals() []Attachment {
	removed := make([]Attachment, 0)
	kept := make([]Attachment, 0, len(o.Attachments))
	for _, att := range o.Attachments {
		if att.StagedForRemoval {
			removed = append(removed, att)
		} else {
			kept = append(kept, att)
		}
	}
	o.Attachments = kept
	return removed
}

// GetAttachment returns an attachment by its ID
func (o *TravelOrder) GetAttachment(attachmentID uuid.UUID) *Attachment {
	for i := range o.Attachments {
		if o.Attachments[i].ID == attachmentID {
			return &o.Attachments[i]
		}
	}
	return nil
}

// TravelPeriod returns the order's inclusive travel interval, or the zero
// range while dates are unset.
func (o *TravelOrder) TravelPeriod() valueobject.DateRange {
	if o.StartDate.IsZero() || o.EndDate.IsZero() {
		return valueobject.DateRange{}
	}
	r, err := valueobject.NewDateRange(o.StartDate, o.EndDate)
	if err != nil {
		return valueobject.DateRange{}
	}
	return r
}

// PerDiemMoney returns the per diem expenses as Money
func (o *TravelOrder) PerDiemMoney() valueobject.Money {
	return valueobject.NewMoneyPHP(o.PerDiemExpenses)
}

// IsDraft returns true if the order is in draft status
func (o *TravelOrder) IsDraft() bool {
	return o.Status == OrderStatusDraft
}

// IsTerminal returns true if the order is approved or rejected
func (o *TravelOrder) IsTerminal() bool {
	return o.Status.IsTerminal()
}

// CanModify returns true if the order fields and attachments can be changed
func (o *TravelOrder) CanModify() bool {
	return o.IsDraft()
}

// IsOwnedBy returns true if the order belongs to the given requester
func (o *TravelOrder) IsOwnedBy(requesterID uuid.UUID) bool {
	return o.RequesterID == requesterID
}
