package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Earning statuses. Distribution only runs after a payment is confirmed, so
// earnings are written as completed on every trigger path.
const (
	EarningStatusCompleted = "completed"
	EarningStatusFailed    = "failed"
)

// Earning represents one commission payout crediting an ancestor for a
// descendant's plan purchase. Created only by the distributor, exactly once
// per paying user.
type Earning struct {
	ID         primitive.ObjectID `json:"id,omitempty" bson:"_id,omitempty"`
	FromUserID primitive.ObjectID `json:"fromUserId" bson:"fromUserId"` // the paying user
	UserID     primitive.ObjectID `json:"userId" bson:"userId"`         // the ancestor being paid
	Level      int                `json:"level" bson:"level"`
	PlanType   string             `json:"planType" bson:"planType"`
	Amount     float64            `json:"amount" bson:"amount"`
	Status     string             `json:"status" bson:"status"`
	CreatedAt  time.Time          `json:"createdAt" bson:"createdAt"`
}

// DistributionBatch marks that commissions for a paying user have been
// distributed. A unique index on fromUserId makes the batch the idempotency
// lock: a second distribution attempt for the same payer cannot insert one.
type DistributionBatch struct {
	ID            primitive.ObjectID `json:"id,omitempty" bson:"_id,omitempty"`
	FromUserID    primitive.ObjectID `json:"fromUserId" bson:"fromUserId"`
	Reference     string             `json:"reference" bson:"reference"` // audit reference shared by the batch's ledger rows
	PlanType      string             `json:"planType" bson:"planType"`
	TotalPaid     float64            `json:"totalPaid" bson:"totalPaid"`
	CompanyAmount float64            `json:"companyAmount" bson:"companyAmount"`
	CreatedAt     time.Time          `json:"createdAt" bson:"createdAt"`
}

// DistributionPayout is one ancestor's share in a distribution result.
type DistributionPayout struct {
	AncestorID primitive.ObjectID `json:"ancestorId"`
	Level      int                `json:"level"`
	Amount     float64            `json:"amount"`
}

// DistributionResult is the per-payment breakdown returned to callers for
// logging and auditing.
type DistributionResult struct {
	AlreadyProcessed bool                 `json:"alreadyProcessed"`
	Paid             []DistributionPayout `json:"paid"`
	TotalPaid        float64              `json:"totalPaid"`
	CompanyAmount    float64              `json:"companyAmount"`
}
