// models/user.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MaxReferralDepth bounds how far up the referral chain commissions travel.
// A user's stored ancestor list never holds more than this many entries.
const MaxReferralDepth = 10

// ReferralAncestor is one entry of a user's denormalized ancestor chain.
// Level 1 is the direct referrer, level 2 the referrer's referrer, and so on.
// The chain is written once at signup and never changes afterwards, even if
// the referrer's own chain later does.
type ReferralAncestor struct {
	UserID primitive.ObjectID `json:"userId" bson:"userId"`
	Level  int                `json:"level" bson:"level"`
}

// Wallet holds the authoritative spendable balance. The wallet_transactions
// collection is the source of truth; Balance is the cached aggregate of
// completed rows.
type Wallet struct {
	Balance  float64 `json:"balance" bson:"balance"`
	Currency string  `json:"currency" bson:"currency"`
}

// User model
type User struct {
	ID                primitive.ObjectID   `json:"id,omitempty" bson:"_id,omitempty"`
	Email             string               `json:"email" bson:"email"`
	Password          string               `json:"password,omitempty" bson:"password"`
	FullName          string               `json:"fullName" bson:"fullName"`
	UserType          string               `json:"userType" bson:"userType"` // "user" or "admin"
	IsActive          bool                 `json:"isActive" bson:"isActive"`
	Phone             string               `json:"phone,omitempty" bson:"phone,omitempty"`
	ReferralCode      string               `json:"referralCode,omitempty" bson:"referralCode,omitempty"`
	ReferredBy        *primitive.ObjectID  `json:"referredBy,omitempty" bson:"referredBy,omitempty"`
	ReferralAncestors []ReferralAncestor   `json:"referralAncestors,omitempty" bson:"referralAncestors,omitempty"`
	Referrals         []primitive.ObjectID `json:"referrals,omitempty" bson:"referrals,omitempty"`
	ReferralCount     int                  `json:"referralCount" bson:"referralCount"`
	PlanType          string               `json:"planType,omitempty" bson:"planType,omitempty"` // "basic" or "premium"
	HasPaid           bool                 `json:"hasPaid" bson:"hasPaid"`
	PaymentCompleted  bool                 `json:"paymentCompleted" bson:"paymentCompleted"`
	TotalEarnings     float64              `json:"totalEarnings" bson:"totalEarnings"` // advisory sum; ledger is source of truth
	Wallet            Wallet               `json:"wallet" bson:"wallet"`
	CreatedAt         time.Time            `json:"createdAt" bson:"createdAt"`
	UpdatedAt         time.Time            `json:"updatedAt" bson:"updatedAt"`
}

// SignupRequest is the payload for user registration
type SignupRequest struct {
	Email        string `json:"email" validate:"required,email"`
	Password     string `json:"password" validate:"required,min=8"`
	FullName     string `json:"fullName" validate:"required"`
	Phone        string `json:"phone,omitempty"`
	ReferralCode string `json:"referralCode,omitempty"`
}

// LoginRequest models
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// ReferralDataResponse is returned by the referral-data endpoint
type ReferralDataResponse struct {
	ReferralCode      string             `json:"referralCode"`
	ReferralCount     int                `json:"referralCount"`
	ReferralLink      string             `json:"referralLink"`
	QRCode            string             `json:"qrCode,omitempty"`
	PotentialEarnings map[string]float64 `json:"potentialEarnings,omitempty"`
}

// Response model
type Response struct {
	Status  int         `json:"status"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}
