package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Withdrawal statuses. pending is the only non-terminal state.
const (
	WithdrawalStatusPending  = "pending"
	WithdrawalStatusApproved = "approved"
	WithdrawalStatusRejected = "rejected"
)

// Withdrawal methods
const (
	WithdrawalMethodBankTransfer = "bank_transfer"
	WithdrawalMethodMobileMoney  = "mobile_money"
)

type Withdrawal struct {
	ID             primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	UserID         primitive.ObjectID  `bson:"userId" json:"userId"`
	Amount         float64             `bson:"amount" json:"amount"`
	Method         string              `bson:"method" json:"method"`
	AccountDetails string              `bson:"accountDetails" json:"accountDetails"`
	Status         string              `bson:"status" json:"status"`
	TransactionID  primitive.ObjectID  `bson:"transactionId" json:"transactionId"` // the pending ledger debit
	CreatedAt      time.Time           `bson:"createdAt" json:"createdAt"`
	ProcessedAt    *time.Time          `bson:"processedAt,omitempty" json:"processedAt,omitempty"`
	AdminID        *primitive.ObjectID `bson:"adminId,omitempty" json:"adminId,omitempty"`
	AdminMessage   string              `bson:"adminMessage,omitempty" json:"adminMessage,omitempty"`
}

// WithdrawalRequest is the payload for creating a withdrawal
type WithdrawalRequest struct {
	Amount         float64 `json:"amount" validate:"required,gt=0"`
	Method         string  `json:"method" validate:"required"`
	AccountDetails string  `json:"accountDetails" validate:"required"`
}

// WithdrawalDecisionRequest is the admin payload for resolving a withdrawal
type WithdrawalDecisionRequest struct {
	AdminMessage string `json:"adminMessage,omitempty"`
}
