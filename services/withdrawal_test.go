package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/AKhaldoun/tierlink_backend/models"
)

func seededUser(store *fakeStore, balance float64) *models.User {
	return store.addUser(&models.User{
		Wallet: models.Wallet{Balance: balance, Currency: "USD"},
	})
}

func TestRequestWithdrawalDebitsImmediately(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	user := seededUser(store, 200)

	svc := NewWithdrawalService(store)
	w, err := svc.Request(ctx, user.ID, models.WithdrawalRequest{
		Amount:         150,
		Method:         models.WithdrawalMethodBankTransfer,
		AccountDetails: "IBAN LB00 1234",
	})

	require.NoError(t, err)
	assert.Equal(t, models.WithdrawalStatusPending, w.Status)
	assert.Equal(t, 50.0, user.Wallet.Balance)

	txns, err := store.TransactionsFor(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, txns, 1)
	assert.Equal(t, -150.0, txns[0].Amount)
	assert.Equal(t, models.TransactionTypeWithdrawal, txns[0].TransactionType)
	assert.Equal(t, models.TransactionStatusPending, txns[0].Status)
	assert.Equal(t, w.ID.Hex(), txns[0].ReferenceID)
}

func TestRequestWithdrawalInsufficientBalance(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	user := seededUser(store, 100)

	svc := NewWithdrawalService(store)
	_, err := svc.Request(ctx, user.ID, models.WithdrawalRequest{
		Amount:         100.01,
		Method:         models.WithdrawalMethodMobileMoney,
		AccountDetails: "+961 70 123456",
	})

	assert.ErrorIs(t, err, ErrInsufficientBalance)
	// No side effects
	assert.Equal(t, 100.0, user.Wallet.Balance)
	assert.Empty(t, store.transactions)
	assert.Empty(t, store.withdrawals)
}

func TestRequestWithdrawalValidation(t *testing.T) {
	store := newFakeStore()
	user := seededUser(store, 100)
	svc := NewWithdrawalService(store)

	cases := []models.WithdrawalRequest{
		{Amount: 0, Method: models.WithdrawalMethodBankTransfer, AccountDetails: "x"},
		{Amount: -5, Method: models.WithdrawalMethodBankTransfer, AccountDetails: "x"},
		{Amount: 10, Method: "paypal", AccountDetails: "x"},
		{Amount: 10, Method: models.WithdrawalMethodBankTransfer, AccountDetails: ""},
	}
	for _, req := range cases {
		_, err := svc.Request(context.Background(), user.ID, req)
		assert.ErrorIs(t, err, ErrValidation)
	}
	assert.Equal(t, 100.0, user.Wallet.Balance)
}

func TestApproveWithdrawalLeavesBalanceUntouched(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	user := seededUser(store, 300)
	admin := primitive.NewObjectID()

	svc := NewWithdrawalService(store)
	w, err := svc.Request(ctx, user.ID, models.WithdrawalRequest{
		Amount:         300,
		Method:         models.WithdrawalMethodBankTransfer,
		AccountDetails: "IBAN LB00 1234",
	})
	require.NoError(t, err)
	require.Equal(t, 0.0, user.Wallet.Balance)

	resolved, err := svc.Resolve(ctx, w.ID, DecisionApprove, admin, "paid via bank")
	require.NoError(t, err)

	assert.Equal(t, models.WithdrawalStatusApproved, resolved.Status)
	assert.Equal(t, &admin, resolved.AdminID)
	assert.NotNil(t, resolved.ProcessedAt)
	// The debit happened at request time; approval moves nothing.
	assert.Equal(t, 0.0, user.Wallet.Balance)

	txns, _ := store.TransactionsFor(ctx, user.ID)
	require.Len(t, txns, 1)
	assert.Equal(t, models.TransactionStatusCompleted, txns[0].Status)
}

func TestRejectWithdrawalRefundsExactAmount(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	user := seededUser(store, 250)
	admin := primitive.NewObjectID()

	svc := NewWithdrawalService(store)
	w, err := svc.Request(ctx, user.ID, models.WithdrawalRequest{
		Amount:         180,
		Method:         models.WithdrawalMethodMobileMoney,
		AccountDetails: "+961 70 123456",
	})
	require.NoError(t, err)
	require.Equal(t, 70.0, user.Wallet.Balance)

	resolved, err := svc.Resolve(ctx, w.ID, DecisionReject, admin, "account details invalid")
	require.NoError(t, err)

	assert.Equal(t, models.WithdrawalStatusRejected, resolved.Status)
	assert.Equal(t, "account details invalid", resolved.AdminMessage)
	assert.Equal(t, 250.0, user.Wallet.Balance)

	txns, _ := store.TransactionsFor(ctx, user.ID)
	require.Len(t, txns, 2)
	assert.Equal(t, models.TransactionStatusFailed, txns[0].Status)
	assert.Equal(t, models.TransactionTypeDeposit, txns[1].TransactionType)
	assert.Equal(t, 180.0, txns[1].Amount)
	assert.Equal(t, w.ID.Hex(), txns[1].ReferenceID)
}

func TestResolveTwiceFails(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	user := seededUser(store, 100)
	admin := primitive.NewObjectID()

	svc := NewWithdrawalService(store)
	w, err := svc.Request(ctx, user.ID, models.WithdrawalRequest{
		Amount:         50,
		Method:         models.WithdrawalMethodBankTransfer,
		AccountDetails: "IBAN LB00 1234",
	})
	require.NoError(t, err)

	_, err = svc.Resolve(ctx, w.ID, DecisionApprove, admin, "")
	require.NoError(t, err)

	// A second decision, either kind, is rejected and changes nothing.
	_, err = svc.Resolve(ctx, w.ID, DecisionReject, admin, "")
	assert.ErrorIs(t, err, ErrAlreadyProcessed)
	assert.Equal(t, 50.0, user.Wallet.Balance)
}

func TestResolveUnknownWithdrawal(t *testing.T) {
	store := newFakeStore()
	svc := NewWithdrawalService(store)

	_, err := svc.Resolve(context.Background(), primitive.NewObjectID(), DecisionApprove, primitive.NewObjectID(), "")
	assert.ErrorIs(t, err, ErrWithdrawalNotFound)
}

func TestResolveUnknownDecision(t *testing.T) {
	store := newFakeStore()
	svc := NewWithdrawalService(store)

	_, err := svc.Resolve(context.Background(), primitive.NewObjectID(), "defer", primitive.NewObjectID(), "")
	assert.ErrorIs(t, err, ErrValidation)
}

func TestPendingWithdrawalsExcludesResolved(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	user := seededUser(store, 500)
	admin := primitive.NewObjectID()
	svc := NewWithdrawalService(store)

	first, err := svc.Request(ctx, user.ID, models.WithdrawalRequest{
		Amount: 100, Method: models.WithdrawalMethodBankTransfer, AccountDetails: "a",
	})
	require.NoError(t, err)
	second, err := svc.Request(ctx, user.ID, models.WithdrawalRequest{
		Amount: 100, Method: models.WithdrawalMethodBankTransfer, AccountDetails: "b",
	})
	require.NoError(t, err)

	_, err = svc.Resolve(ctx, first.ID, DecisionApprove, admin, "")
	require.NoError(t, err)

	pending, err := svc.Pending(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, second.ID, pending[0].ID)

	history, err := svc.HistoryFor(ctx, user.ID)
	require.NoError(t, err)
	assert.Len(t, history, 2)
}
