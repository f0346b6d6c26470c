// Package approval resolves the approval chain for submitted travel orders
// from the configured routing rule.
package approval

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	travelapp "github.com/toms/backend/internal/application/travel"
	"github.com/toms/backend/internal/domain/identity"
	"github.com/toms/backend/internal/domain/shared"
	"github.com/toms/backend/internal/domain/travel"
	"github.com/toms/backend/internal/infrastructure/config"
)

// Ensure ConfigRouting implements ApprovalRouting
var _ travelapp.ApprovalRouting = (*ConfigRouting)(nil)

// ConfigRouting resolves approval chains from the configured recommender and
// approver usernames. Orders whose per diem reaches the two-step threshold go
// through recommend-then-approve; cheaper orders go straight to the approver.
// A threshold of zero routes every order through both steps.
type ConfigRouting struct {
	userRepo         identity.UserRepository
	recommenderName  string
	approverName     string
	twoStepMinAmount decimal.Decimal
	logger           *zap.Logger
}

// NewConfigRouting creates a ConfigRouting from the approval configuration
func NewConfigRouting(cfg config.ApprovalConfig, userRepo identity.UserRepository, logger *zap.Logger) (*ConfigRouting, error) {
	if cfg.ApproverUsername == "" {
		return nil, errors.New("approval routing requires an approver username")
	}

	minAmount := decimal.Zero
	if cfg.TwoStepMinAmount != "" {
		parsed, err := decimal.NewFromString(cfg.TwoStepMinAmount)
		if err != nil {
			return nil, fmt.Errorf("invalid two-step minimum amount %q: %w", cfg.TwoStepMinAmount, err)
		}
		if parsed.IsNegative() {
			return nil, fmt.Errorf("two-step minimum amount %q cannot be negative", cfg.TwoStepMinAmount)
		}
		minAmount = parsed
	}

	if logger == nil {
		logger = zap.NewNop()
	}

	return &ConfigRouting{
		userRepo:         userRepo,
		recommenderName:  cfg.RecommenderUsername,
		approverName:     cfg.ApproverUsername,
		twoStepMinAmount: minAmount,
		logger:           logger,
	}, nil
}

// Resolve returns the director chain for the order, recommender first when
// the order takes the two-step route.
func (r *ConfigRouting) Resolve(ctx context.Context, order *travel.TravelOrder) ([]uuid.UUID, error) {
	approver, err := r.lookupDirector(ctx, r.approverName)
	if err != nil {
		return nil, err
	}

	if !r.needsRecommendation(order) {
		return []uuid.UUID{approver.ID}, nil
	}

	if r.recommenderName == "" {
		return nil, shared.NewDomainError("INVALID_ROUTING",
			"Two-step approval is required but no recommending director is configured")
	}

	recommender, err := r.lookupDirector(ctx, r.recommenderName)
	if err != nil {
		return nil, err
	}
	if recommender.ID == approver.ID {
		return nil, shared.NewDomainError("INVALID_ROUTING",
			"Recommending and approving directors must be different accounts")
	}

	return []uuid.UUID{recommender.ID, approver.ID}, nil
}

// needsRecommendation reports whether the order takes the two-step route
func (r *ConfigRouting) needsRecommendation(order *travel.TravelOrder) bool {
	return order.PerDiemExpenses.GreaterThanOrEqual(r.twoStepMinAmount)
}

func (r *ConfigRouting) lookupDirector(ctx context.Context, username string) (*identity.User, error) {
	user, err := r.userRepo.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			r.logger.Error("Configured routing director does not exist", zap.String("username", username))
			return nil, shared.NewDomainError("INVALID_ROUTING",
				fmt.Sprintf("Routing director %q does not exist", username))
		}
		return nil, err
	}
	if user.Role != identity.RoleDirector {
		return nil, shared.NewDomainError("INVALID_ROUTING",
			fmt.Sprintf("Routing user %q is not a director", username))
	}
	if !user.IsActive() {
		return nil, shared.NewDomainError("INVALID_ROUTING",
			fmt.Sprintf("Routing director %q is deactivated", username))
	}
	return user, nil
}
