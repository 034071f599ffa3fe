package services

import (
	"context"
	"fmt"
	"time"

	"github.com/AKhaldoun/tierlink_backend/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Withdrawal decisions
const (
	DecisionApprove = "approve"
	DecisionReject  = "reject"
)

// WithdrawalService runs the pending -> approved|rejected state machine.
// Funds are reserved at request time: the balance is debited when the
// withdrawal is created, so a user cannot spend the same balance twice while
// a decision is outstanding. Approval changes no balance; rejection refunds
// the exact amount.
type WithdrawalService struct {
	withdrawals WithdrawalStore
}

func NewWithdrawalService(withdrawals WithdrawalStore) *WithdrawalService {
	return &WithdrawalService{withdrawals: withdrawals}
}

// Request creates a pending withdrawal, debiting the balance immediately.
func (s *WithdrawalService) Request(ctx context.Context, userID primitive.ObjectID, req models.WithdrawalRequest) (*models.Withdrawal, error) {
	if req.Amount <= 0 {
		return nil, fmt.Errorf("%w: amount must be positive", ErrValidation)
	}
	if req.Method != models.WithdrawalMethodBankTransfer && req.Method != models.WithdrawalMethodMobileMoney {
		return nil, fmt.Errorf("%w: unknown withdrawal method %q", ErrValidation, req.Method)
	}
	if req.AccountDetails == "" {
		return nil, fmt.Errorf("%w: account details are required", ErrValidation)
	}

	w := &models.Withdrawal{
		UserID:         userID,
		Amount:         req.Amount,
		Method:         req.Method,
		AccountDetails: req.AccountDetails,
		Status:         models.WithdrawalStatusPending,
		CreatedAt:      time.Now(),
	}
	return s.withdrawals.CreateWithdrawal(ctx, w)
}

// Resolve applies an admin decision to a pending withdrawal. Deciding a
// withdrawal that is no longer pending fails with ErrAlreadyProcessed and
// changes no balances.
func (s *WithdrawalService) Resolve(ctx context.Context, withdrawalID primitive.ObjectID, decision string, adminID primitive.ObjectID, note string) (*models.Withdrawal, error) {
	switch decision {
	case DecisionApprove:
		return s.withdrawals.ApproveWithdrawal(ctx, withdrawalID, adminID, note)
	case DecisionReject:
		return s.withdrawals.RejectWithdrawal(ctx, withdrawalID, adminID, note)
	default:
		return nil, fmt.Errorf("%w: unknown decision %q", ErrValidation, decision)
	}
}

func (s *WithdrawalService) HistoryFor(ctx context.Context, userID primitive.ObjectID) ([]models.Withdrawal, error) {
	return s.withdrawals.WithdrawalsFor(ctx, userID)
}

func (s *WithdrawalService) Pending(ctx context.Context) ([]models.Withdrawal, error) {
	return s.withdrawals.PendingWithdrawals(ctx)
}
