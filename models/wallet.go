package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Wallet transaction types
const (
	TransactionTypePurchase   = "purchase"
	TransactionTypeCommission = "commission"
	TransactionTypeWithdrawal = "withdrawal"
	TransactionTypeDeposit    = "deposit"
)

// Wallet transaction statuses
const (
	TransactionStatusPending   = "pending"
	TransactionStatusCompleted = "completed"
	TransactionStatusFailed    = "failed"
)

// WalletTransaction is one row of the append-only ledger. Amount is signed:
// negative for debits, positive for credits. The cached wallet.balance on the
// user must always equal the sum of completed rows plus pending debits (a
// pending withdrawal has already moved funds out of the spendable balance).
type WalletTransaction struct {
	ID              primitive.ObjectID `json:"id,omitempty" bson:"_id,omitempty"`
	UserID          primitive.ObjectID `json:"userId" bson:"userId"`
	Amount          float64            `json:"amount" bson:"amount"`
	TransactionType string             `json:"transactionType" bson:"transactionType"`
	ReferenceID     string             `json:"referenceId" bson:"referenceId"`
	Status          string             `json:"status" bson:"status"`
	CreatedAt       time.Time          `json:"createdAt" bson:"createdAt"`
}

// CompanyWallet is the single record holding the operating margin:
// sum of purchase amounts minus commissions paid out.
type CompanyWallet struct {
	ID             primitive.ObjectID `json:"id,omitempty" bson:"_id,omitempty"`
	Balance        float64            `json:"balance" bson:"balance"`
	TotalPurchases float64            `json:"totalPurchases" bson:"totalPurchases"`
	TotalPaidOut   float64            `json:"totalPaidOut" bson:"totalPaidOut"`
	UpdatedAt      time.Time          `json:"updatedAt" bson:"updatedAt"`
}
