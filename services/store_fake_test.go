package services

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/AKhaldoun/tierlink_backend/models"
)

// fakeStore is an in-memory implementation of UserStore, LedgerStore and
// WithdrawalStore with the same atomicity guarantees the Mongo repository
// gives: each write method either applies completely or not at all.
type fakeStore struct {
	users        map[primitive.ObjectID]*models.User
	batches      map[primitive.ObjectID]*models.DistributionBatch
	earnings     []models.Earning
	transactions []models.WalletTransaction
	withdrawals  map[primitive.ObjectID]*models.Withdrawal
	company      models.CompanyWallet
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		users:       make(map[primitive.ObjectID]*models.User),
		batches:     make(map[primitive.ObjectID]*models.DistributionBatch),
		withdrawals: make(map[primitive.ObjectID]*models.Withdrawal),
	}
}

func (f *fakeStore) addUser(u *models.User) *models.User {
	if u.ID.IsZero() {
		u.ID = primitive.NewObjectID()
	}
	f.users[u.ID] = u
	return u
}

func (f *fakeStore) GetUser(_ context.Context, id primitive.ObjectID) (*models.User, error) {
	u, ok := f.users[id]
	if !ok {
		return nil, ErrUserNotFound
	}
	return u, nil
}

func (f *fakeStore) FindUserByReferralCode(_ context.Context, code string) (*models.User, error) {
	for _, u := range f.users {
		if u.ReferralCode == code {
			return u, nil
		}
	}
	return nil, ErrReferralCodeNotFound
}

func (f *fakeStore) AttachReferral(_ context.Context, newUserID, referrerID primitive.ObjectID, ancestors []models.ReferralAncestor) error {
	u, ok := f.users[newUserID]
	if !ok {
		return ErrUserNotFound
	}
	r, ok := f.users[referrerID]
	if !ok {
		return ErrUserNotFound
	}
	u.ReferredBy = &referrerID
	u.ReferralAncestors = ancestors
	r.Referrals = append(r.Referrals, newUserID)
	r.ReferralCount++
	return nil
}

func (f *fakeStore) MarkPaid(_ context.Context, userID primitive.ObjectID, planType string) error {
	u, ok := f.users[userID]
	if !ok {
		return ErrUserNotFound
	}
	u.HasPaid = true
	u.PaymentCompleted = true
	u.PlanType = planType
	return nil
}

func (f *fakeStore) HasDistribution(_ context.Context, payerID primitive.ObjectID) (bool, error) {
	_, ok := f.batches[payerID]
	return ok, nil
}

func (f *fakeStore) CommitDistribution(_ context.Context, payerID primitive.ObjectID, planType string, payouts []models.DistributionPayout, planAmount, companyAmount float64) error {
	if _, ok := f.batches[payerID]; ok {
		return ErrAlreadyProcessed
	}
	now := time.Now()
	var totalPaid float64
	for _, p := range payouts {
		totalPaid += p.Amount
		f.earnings = append(f.earnings, models.Earning{
			ID:         primitive.NewObjectID(),
			FromUserID: payerID,
			UserID:     p.AncestorID,
			Level:      p.Level,
			PlanType:   planType,
			Amount:     p.Amount,
			Status:     models.EarningStatusCompleted,
			CreatedAt:  now,
		})
		f.transactions = append(f.transactions, models.WalletTransaction{
			ID:              primitive.NewObjectID(),
			UserID:          p.AncestorID,
			Amount:          p.Amount,
			TransactionType: models.TransactionTypeCommission,
			ReferenceID:     payerID.Hex(),
			Status:          models.TransactionStatusCompleted,
			CreatedAt:       now,
		})
		if u, ok := f.users[p.AncestorID]; ok {
			u.Wallet.Balance += p.Amount
			u.TotalEarnings += p.Amount
		}
	}
	f.transactions = append(f.transactions, models.WalletTransaction{
		ID:              primitive.NewObjectID(),
		UserID:          companyWalletID,
		Amount:          companyAmount,
		TransactionType: models.TransactionTypePurchase,
		ReferenceID:     payerID.Hex(),
		Status:          models.TransactionStatusCompleted,
		CreatedAt:       now,
	})
	f.company.Balance += companyAmount
	f.company.TotalPurchases += planAmount
	f.company.TotalPaidOut += totalPaid
	f.company.UpdatedAt = now
	f.batches[payerID] = &models.DistributionBatch{
		ID:            primitive.NewObjectID(),
		FromUserID:    payerID,
		PlanType:      planType,
		TotalPaid:     totalPaid,
		CompanyAmount: companyAmount,
		CreatedAt:     now,
	}
	return nil
}

func (f *fakeStore) BalanceOf(_ context.Context, userID primitive.ObjectID) (float64, error) {
	u, ok := f.users[userID]
	if !ok {
		return 0, ErrUserNotFound
	}
	return u.Wallet.Balance, nil
}

func (f *fakeStore) TransactionsFor(_ context.Context, userID primitive.ObjectID) ([]models.WalletTransaction, error) {
	var out []models.WalletTransaction
	for _, t := range f.transactions {
		if t.UserID == userID {
			out = append(out, t)
		}
	}
	return out, nil
}

func (f *fakeStore) EarningsFor(_ context.Context, userID primitive.ObjectID) ([]models.Earning, error) {
	var out []models.Earning
	for _, e := range f.earnings {
		if e.UserID == userID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (f *fakeStore) CompanyWallet(_ context.Context) (*models.CompanyWallet, error) {
	c := f.company
	return &c, nil
}

func (f *fakeStore) CreateWithdrawal(_ context.Context, w *models.Withdrawal) (*models.Withdrawal, error) {
	u, ok := f.users[w.UserID]
	if !ok {
		return nil, ErrUserNotFound
	}
	if u.Wallet.Balance < w.Amount {
		return nil, ErrInsufficientBalance
	}
	u.Wallet.Balance -= w.Amount
	w.ID = primitive.NewObjectID()
	txn := models.WalletTransaction{
		ID:              primitive.NewObjectID(),
		UserID:          w.UserID,
		Amount:          -w.Amount,
		TransactionType: models.TransactionTypeWithdrawal,
		ReferenceID:     w.ID.Hex(),
		Status:          models.TransactionStatusPending,
		CreatedAt:       w.CreatedAt,
	}
	f.transactions = append(f.transactions, txn)
	w.TransactionID = txn.ID
	stored := *w
	f.withdrawals[w.ID] = &stored
	return w, nil
}

func (f *fakeStore) setTransactionStatus(id primitive.ObjectID, status string) {
	for i := range f.transactions {
		if f.transactions[i].ID == id {
			f.transactions[i].Status = status
			return
		}
	}
}

func (f *fakeStore) ApproveWithdrawal(_ context.Context, id primitive.ObjectID, adminID primitive.ObjectID, note string) (*models.Withdrawal, error) {
	w, ok := f.withdrawals[id]
	if !ok {
		return nil, ErrWithdrawalNotFound
	}
	if w.Status != models.WithdrawalStatusPending {
		return nil, ErrAlreadyProcessed
	}
	now := time.Now()
	w.Status = models.WithdrawalStatusApproved
	w.AdminID = &adminID
	w.AdminMessage = note
	w.ProcessedAt = &now
	f.setTransactionStatus(w.TransactionID, models.TransactionStatusCompleted)
	out := *w
	return &out, nil
}

func (f *fakeStore) RejectWithdrawal(_ context.Context, id primitive.ObjectID, adminID primitive.ObjectID, note string) (*models.Withdrawal, error) {
	w, ok := f.withdrawals[id]
	if !ok {
		return nil, ErrWithdrawalNotFound
	}
	if w.Status != models.WithdrawalStatusPending {
		return nil, ErrAlreadyProcessed
	}
	now := time.Now()
	w.Status = models.WithdrawalStatusRejected
	w.AdminID = &adminID
	w.AdminMessage = note
	w.ProcessedAt = &now
	f.setTransactionStatus(w.TransactionID, models.TransactionStatusFailed)
	f.transactions = append(f.transactions, models.WalletTransaction{
		ID:              primitive.NewObjectID(),
		UserID:          w.UserID,
		Amount:          w.Amount,
		TransactionType: models.TransactionTypeDeposit,
		ReferenceID:     w.ID.Hex(),
		Status:          models.TransactionStatusCompleted,
		CreatedAt:       now,
	})
	if u, ok := f.users[w.UserID]; ok {
		u.Wallet.Balance += w.Amount
	}
	out := *w
	return &out, nil
}

func (f *fakeStore) GetWithdrawal(_ context.Context, id primitive.ObjectID) (*models.Withdrawal, error) {
	w, ok := f.withdrawals[id]
	if !ok {
		return nil, ErrWithdrawalNotFound
	}
	out := *w
	return &out, nil
}

func (f *fakeStore) WithdrawalsFor(_ context.Context, userID primitive.ObjectID) ([]models.Withdrawal, error) {
	var out []models.Withdrawal
	for _, w := range f.withdrawals {
		if w.UserID == userID {
			out = append(out, *w)
		}
	}
	return out, nil
}

func (f *fakeStore) PendingWithdrawals(_ context.Context) ([]models.Withdrawal, error) {
	var out []models.Withdrawal
	for _, w := range f.withdrawals {
		if w.Status == models.WithdrawalStatusPending {
			out = append(out, *w)
		}
	}
	return out, nil
}

// companyWalletID mirrors the fixed company wallet document ID used by the
// Mongo repository so ledger assertions can target the company rows.
var companyWalletID = mustObjectID("000000000000000000000001")

func mustObjectID(hex string) primitive.ObjectID {
	id, err := primitive.ObjectIDFromHex(hex)
	if err != nil {
		panic(err)
	}
	return id
}
