package travel

import (
	"time"

	"github.com/google/uuid"
	"github.com/toms/backend/internal/domain/shared"
)

// StepRole identifies the function of an approval step within a chain
type StepRole string

const (
	// StepRoleRecommend is step 1 of a two-step chain
	StepRoleRecommend StepRole = "recommend"
	// StepRoleApprove is step 2 of a two-step chain, or the sole step
	StepRoleApprove StepRole = "approve"
)

// StepStatus represents the status of an approval step
type StepStatus string

const (
	StepStatusPending     StepStatus = "pending"
	StepStatusRecommended StepStatus = "recommended"
	StepStatusApproved    StepStatus = "approved"
	StepStatusRejected    StepStatus = "rejected"
)

// IsValid checks if the status is a valid StepStatus
func (s StepStatus) IsValid() bool {
	switch s {
	case StepStatusPending, StepStatusRecommended, StepStatusApproved, StepStatusRejected:
		return true
	}
	return false
}

// IsTerminal returns true once the step has been acted on
func (s StepStatus) IsTerminal() bool {
	return s != StepStatusPending
}

// ApprovalStep is one link of a travel order's approval chain, bound to a
// single director. Steps are created atomically at submission and each is
// acted on exactly once.
type ApprovalStep struct {
	ID            uuid.UUID
	TravelOrderID uuid.UUID
	DirectorID    uuid.UUID
	StepOrder     int
	Role          StepRole
	Status        StepStatus
	Remarks       string
	ActedAt       *time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// TableName returns the table name for GORM
func (ApprovalStep) TableName() string {
	return "approval_steps"
}

// act records the director's decision on this step. It may only be called
// once; ActedAt is set exactly once.
func (s *ApprovalStep) act(status StepStatus, remarks string, now time.Time) error {
	if s.Status.IsTerminal() {
		return shared.NewDomainError("ALREADY_ACTED", "This approval step has already been acted on")
	}
	s.Status = status
	s.Remarks = remarks
	s.ActedAt = &now
	s.UpdatedAt = now
	return nil
}

// IsPending returns true while the step awaits its director's decision
func (s *ApprovalStep) IsPending() bool {
	return s.Status == StepStatusPending
}

// materializeChain builds the approval steps for a submitted order from the
// routing decision: an ordered list of one or two director references. The
// routing rule itself (which directors, one step or two) is configured
// outside this package. Guarantees: step_order values are contiguous from 1,
// no duplicates, the last step always carries the approving role, and a
// two-step chain leads with the recommending role.
func materializeChain(orderID uuid.UUID, directorIDs []uuid.UUID, now time.Time) ([]ApprovalStep, error) {
	if len(directorIDs) < 1 || len(directorIDs) > 2 {
		return nil, shared.NewDomainError("INVALID_ROUTING", "Approval routing must name one or two directors")
	}
	if len(directorIDs) == 2 && directorIDs[0] == directorIDs[1] {
		return nil, shared.NewDomainError("INVALID_ROUTING", "Approval routing cannot bind the same director twice")
	}
	for _, id := range directorIDs {
		if id == uuid.Nil {
			return nil, shared.NewDomainError("INVALID_ROUTING", "Approval routing contains an empty director reference")
		}
	}

	steps := make([]ApprovalStep, 0, len(directorIDs))
	for i, directorID := range directorIDs {
		role := StepRoleApprove
		if len(directorIDs) == 2 && i == 0 {
			role = StepRoleRecommend
		}
		steps = append(steps, ApprovalStep{
			ID:            uuid.New(),
			TravelOrderID: orderID,
			DirectorID:    directorID,
			StepOrder:     i + 1,
			Role:          role,
			Status:        StepStatusPending,
			CreatedAt:     now,
			UpdatedAt:     now,
		})
	}
	return steps, nil
}
