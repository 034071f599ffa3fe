package services

import (
	"context"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/AKhaldoun/tierlink_backend/models"
)

// UserStore is the user-side persistence the engine needs.
type UserStore interface {
	GetUser(ctx context.Context, id primitive.ObjectID) (*models.User, error)
	FindUserByReferralCode(ctx context.Context, code string) (*models.User, error)

	// AttachReferral stores the ancestor chain and referredBy on the new user
	// and, in the same unit, pushes the new user onto the referrer's referral
	// list and increments its referralCount.
	AttachReferral(ctx context.Context, newUserID, referrerID primitive.ObjectID, ancestors []models.ReferralAncestor) error

	// MarkPaid flags the user as paid with the given plan.
	MarkPaid(ctx context.Context, userID primitive.ObjectID, planType string) error
}

// LedgerStore is the wallet-ledger persistence. Every method that writes is
// one atomic unit: either all of its rows and balance updates commit, or none.
type LedgerStore interface {
	// HasDistribution reports whether a distribution batch already exists for
	// the paying user.
	HasDistribution(ctx context.Context, payerID primitive.ObjectID) (bool, error)

	// CommitDistribution writes the whole distribution set atomically: the
	// batch marker, one earning and one completed commission credit per
	// payout, each ancestor's balance and totalEarnings increment, and the
	// company wallet credit. Returns ErrAlreadyProcessed if a batch for the
	// payer exists (checked inside the transaction; a unique index on the
	// batch collection backs the check against concurrent callers).
	CommitDistribution(ctx context.Context, payerID primitive.ObjectID, planType string, payouts []models.DistributionPayout, planAmount, companyAmount float64) error

	BalanceOf(ctx context.Context, userID primitive.ObjectID) (float64, error)
	TransactionsFor(ctx context.Context, userID primitive.ObjectID) ([]models.WalletTransaction, error)
	EarningsFor(ctx context.Context, userID primitive.ObjectID) ([]models.Earning, error)
	CompanyWallet(ctx context.Context) (*models.CompanyWallet, error)
}

// WithdrawalStore is the withdrawal persistence. Create and the two decision
// methods are each one atomic unit spanning the withdrawal document, its
// ledger rows and the wallet balance.
type WithdrawalStore interface {
	// CreateWithdrawal conditionally debits the balance (balance must cover
	// the amount), records a pending withdrawal ledger row and the withdrawal
	// document. Returns ErrInsufficientBalance without side effects if the
	// balance is short.
	CreateWithdrawal(ctx context.Context, w *models.Withdrawal) (*models.Withdrawal, error)

	// ApproveWithdrawal transitions pending -> approved and completes the
	// pending ledger row. Returns ErrAlreadyProcessed if not pending.
	ApproveWithdrawal(ctx context.Context, id primitive.ObjectID, adminID primitive.ObjectID, note string) (*models.Withdrawal, error)

	// RejectWithdrawal transitions pending -> rejected, fails the pending
	// ledger row and refunds the amount through a completed deposit row
	// referencing the withdrawal. Returns ErrAlreadyProcessed if not pending.
	RejectWithdrawal(ctx context.Context, id primitive.ObjectID, adminID primitive.ObjectID, note string) (*models.Withdrawal, error)

	GetWithdrawal(ctx context.Context, id primitive.ObjectID) (*models.Withdrawal, error)
	WithdrawalsFor(ctx context.Context, userID primitive.ObjectID) ([]models.Withdrawal, error)
	PendingWithdrawals(ctx context.Context) ([]models.Withdrawal, error)
}
