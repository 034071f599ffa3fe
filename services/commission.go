package services

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/AKhaldoun/tierlink_backend/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// CommissionService walks a paying user's stored ancestor chain and pays each
// ancestor its level rate, exactly once per payer. All writes of one
// distribution commit together or not at all.
type CommissionService struct {
	users  UserStore
	ledger LedgerStore
	rates  *RateTable
}

func NewCommissionService(users UserStore, ledger LedgerStore, rates *RateTable) *CommissionService {
	return &CommissionService{users: users, ledger: ledger, rates: rates}
}

// Distribute is the single entry point every payment-confirmation path must
// route through: the gateway callback, manual activation and the admin
// reprocessing sweep. Concurrent or repeated invocations for the same payer
// settle at most one distribution; later ones report AlreadyProcessed.
func (s *CommissionService) Distribute(ctx context.Context, payingUserID primitive.ObjectID, planType string) (*models.DistributionResult, error) {
	if !models.ValidPlanType(planType) {
		return nil, fmt.Errorf("%w: unknown plan type %q", ErrValidation, planType)
	}

	// Cheap pre-check. The authoritative guard sits inside the storage
	// transaction; this only avoids recomputing the breakdown on retries.
	done, err := s.ledger.HasDistribution(ctx, payingUserID)
	if err != nil {
		return nil, err
	}
	if done {
		return &models.DistributionResult{AlreadyProcessed: true}, nil
	}

	payer, err := s.users.GetUser(ctx, payingUserID)
	if err != nil {
		return nil, err
	}

	planAmount := s.rates.PlanAmount(planType)
	payouts := make([]models.DistributionPayout, 0, len(payer.ReferralAncestors))
	var totalPaid float64
	for _, a := range payer.ReferralAncestors {
		amount := s.rates.CommissionAmount(planType, a.Level)
		if amount <= 0 {
			continue
		}
		payouts = append(payouts, models.DistributionPayout{
			AncestorID: a.UserID,
			Level:      a.Level,
			Amount:     amount,
		})
		totalPaid += amount
	}
	companyAmount := planAmount - totalPaid

	err = s.ledger.CommitDistribution(ctx, payingUserID, planType, payouts, planAmount, companyAmount)
	if err != nil {
		if errors.Is(err, ErrAlreadyProcessed) {
			return &models.DistributionResult{AlreadyProcessed: true}, nil
		}
		return nil, err
	}

	log.Printf("Distributed %s plan for user %s: %d payouts totaling %.2f, company %.2f",
		planType, payingUserID.Hex(), len(payouts), totalPaid, companyAmount)

	return &models.DistributionResult{
		Paid:          payouts,
		TotalPaid:     totalPaid,
		CompanyAmount: companyAmount,
	}, nil
}
