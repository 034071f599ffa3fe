package services

import (
	"context"

	"github.com/AKhaldoun/tierlink_backend/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// WalletService exposes the ledger's read side to reporting and admin
// surfaces. Writes happen only through the distributor and the withdrawal
// workflow.
type WalletService struct {
	ledger LedgerStore
}

func NewWalletService(ledger LedgerStore) *WalletService {
	return &WalletService{ledger: ledger}
}

// BalanceOf returns the spendable balance: the sum of completed transactions
// minus funds held by pending withdrawals.
func (s *WalletService) BalanceOf(ctx context.Context, userID primitive.ObjectID) (float64, error) {
	return s.ledger.BalanceOf(ctx, userID)
}

func (s *WalletService) TransactionsFor(ctx context.Context, userID primitive.ObjectID) ([]models.WalletTransaction, error) {
	return s.ledger.TransactionsFor(ctx, userID)
}

func (s *WalletService) CommissionsFor(ctx context.Context, userID primitive.ObjectID) ([]models.Earning, error) {
	return s.ledger.EarningsFor(ctx, userID)
}

func (s *WalletService) CompanyWalletSummary(ctx context.Context) (*models.CompanyWallet, error) {
	return s.ledger.CompanyWallet(ctx)
}
