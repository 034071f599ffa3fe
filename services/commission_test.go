package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/AKhaldoun/tierlink_backend/models"
)

// payingUserWithAncestors seeds a payer whose chain has the given number of
// ancestors, closest first, and returns the payer plus the ancestors in
// level order.
func payingUserWithAncestors(store *fakeStore, depth int) (*models.User, []*models.User) {
	ancestors := make([]*models.User, 0, depth)
	payer := store.addUser(&models.User{})
	for i := 1; i <= depth; i++ {
		a := store.addUser(&models.User{})
		ancestors = append(ancestors, a)
		payer.ReferralAncestors = append(payer.ReferralAncestors, models.ReferralAncestor{
			UserID: a.ID,
			Level:  i,
		})
	}
	return payer, ancestors
}

func TestDistributeBasicPlanTwoAncestors(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	payer, ancestors := payingUserWithAncestors(store, 2)

	svc := NewCommissionService(store, store, DefaultRateTable())
	result, err := svc.Distribute(ctx, payer.ID, models.PlanBasic)

	require.NoError(t, err)
	assert.False(t, result.AlreadyProcessed)
	require.Len(t, result.Paid, 2)
	assert.Equal(t, 80.0, result.Paid[0].Amount)
	assert.Equal(t, 40.0, result.Paid[1].Amount)
	assert.Equal(t, 120.0, result.TotalPaid)
	assert.Equal(t, 680.0, result.CompanyAmount)

	assert.Equal(t, 80.0, ancestors[0].Wallet.Balance)
	assert.Equal(t, 40.0, ancestors[1].Wallet.Balance)
	assert.Equal(t, 80.0, ancestors[0].TotalEarnings)

	company, err := store.CompanyWallet(ctx)
	require.NoError(t, err)
	assert.Equal(t, 680.0, company.Balance)
	assert.Equal(t, 800.0, company.TotalPurchases)
	assert.Equal(t, 120.0, company.TotalPaidOut)
}

func TestDistributeWritesOneEarningPerAncestorPlusCompanyCredit(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	payer, ancestors := payingUserWithAncestors(store, 3)

	svc := NewCommissionService(store, store, DefaultRateTable())
	_, err := svc.Distribute(ctx, payer.ID, models.PlanBasic)
	require.NoError(t, err)

	assert.Len(t, store.earnings, 3)
	// 3 commission credits plus the company purchase credit
	assert.Len(t, store.transactions, 4)

	for i, a := range ancestors {
		earnings, err := store.EarningsFor(ctx, a.ID)
		require.NoError(t, err)
		require.Len(t, earnings, 1)
		assert.Equal(t, payer.ID, earnings[0].FromUserID)
		assert.Equal(t, i+1, earnings[0].Level)
		assert.Equal(t, models.EarningStatusCompleted, earnings[0].Status)
	}

	companyTxns, err := store.TransactionsFor(ctx, companyWalletID)
	require.NoError(t, err)
	require.Len(t, companyTxns, 1)
	assert.Equal(t, models.TransactionTypePurchase, companyTxns[0].TransactionType)
}

func TestDistributeIsIdempotent(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	payer, ancestors := payingUserWithAncestors(store, 1)

	svc := NewCommissionService(store, store, DefaultRateTable())

	first, err := svc.Distribute(ctx, payer.ID, models.PlanBasic)
	require.NoError(t, err)
	assert.False(t, first.AlreadyProcessed)

	second, err := svc.Distribute(ctx, payer.ID, models.PlanBasic)
	require.NoError(t, err)
	assert.True(t, second.AlreadyProcessed)
	assert.Empty(t, second.Paid)

	// No double credit
	assert.Equal(t, 80.0, ancestors[0].Wallet.Balance)
	assert.Len(t, store.earnings, 1)
}

// racingLedger reports no batch on the pre-check even when one exists,
// simulating a concurrent caller that read before the winner committed.
type racingLedger struct {
	*fakeStore
}

func (r racingLedger) HasDistribution(context.Context, primitive.ObjectID) (bool, error) {
	return false, nil
}

func TestDistributeIdempotentUnderCommitRace(t *testing.T) {
	// The pre-check can pass for two concurrent callers; the commit itself
	// must then reject the loser and the service reports it as benign.
	ctx := context.Background()
	store := newFakeStore()
	payer, ancestors := payingUserWithAncestors(store, 1)

	winner := NewCommissionService(store, store, DefaultRateTable())
	_, err := winner.Distribute(ctx, payer.ID, models.PlanBasic)
	require.NoError(t, err)

	loser := NewCommissionService(store, racingLedger{store}, DefaultRateTable())
	result, err := loser.Distribute(ctx, payer.ID, models.PlanBasic)

	require.NoError(t, err)
	assert.True(t, result.AlreadyProcessed)
	assert.Equal(t, 80.0, ancestors[0].Wallet.Balance)
}

func TestDistributeNoAncestorsAllToCompany(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	payer := store.addUser(&models.User{})

	svc := NewCommissionService(store, store, DefaultRateTable())
	result, err := svc.Distribute(ctx, payer.ID, models.PlanPremium)

	require.NoError(t, err)
	assert.Empty(t, result.Paid)
	assert.Equal(t, 0.0, result.TotalPaid)
	assert.Equal(t, 2000.0, result.CompanyAmount)
	assert.Empty(t, store.earnings)
}

func TestDistributeConservation(t *testing.T) {
	// Sum of ancestor payouts plus company share equals the plan price.
	for _, plan := range []string{models.PlanBasic, models.PlanPremium} {
		ctx := context.Background()
		store := newFakeStore()
		payer, _ := payingUserWithAncestors(store, models.MaxReferralDepth)

		svc := NewCommissionService(store, store, DefaultRateTable())
		result, err := svc.Distribute(ctx, payer.ID, plan)
		require.NoError(t, err)

		var sum float64
		for _, p := range result.Paid {
			sum += p.Amount
		}
		table := DefaultRateTable()
		assert.InDelta(t, table.PlanAmount(plan), sum+result.CompanyAmount, 1e-9, "plan %s", plan)
	}
}

func TestDistributeSkipsZeroRateLevels(t *testing.T) {
	// Basic pays 5 levels; ancestors at levels 6..10 get nothing.
	ctx := context.Background()
	store := newFakeStore()
	payer, ancestors := payingUserWithAncestors(store, models.MaxReferralDepth)

	svc := NewCommissionService(store, store, DefaultRateTable())
	result, err := svc.Distribute(ctx, payer.ID, models.PlanBasic)

	require.NoError(t, err)
	assert.Len(t, result.Paid, 5)
	for _, a := range ancestors[5:] {
		assert.Equal(t, 0.0, a.Wallet.Balance)
	}
}

func TestDistributeUnknownPlan(t *testing.T) {
	store := newFakeStore()
	payer := store.addUser(&models.User{})

	svc := NewCommissionService(store, store, DefaultRateTable())
	_, err := svc.Distribute(context.Background(), payer.ID, "gold")

	assert.ErrorIs(t, err, ErrValidation)
}

func TestDistributeUnknownPayer(t *testing.T) {
	store := newFakeStore()

	svc := NewCommissionService(store, store, DefaultRateTable())
	_, err := svc.Distribute(context.Background(), companyWalletID, models.PlanBasic)

	assert.ErrorIs(t, err, ErrUserNotFound)
}
