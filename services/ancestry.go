package services

import (
	"context"
	"errors"
	"log"

	"github.com/AKhaldoun/tierlink_backend/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// AncestryService runs once per signup. It snapshots the new user's full
// chain of referral ancestors so commission time is a bounded read instead of
// a graph walk. The snapshot is deliberately immutable: a referrer's later
// chain changes never retroactively affect already-registered descendants.
type AncestryService struct {
	users UserStore
}

func NewAncestryService(users UserStore) *AncestryService {
	return &AncestryService{users: users}
}

// BuildAncestorChain computes the new user's ancestor list from the referrer:
// the referrer at level 1, then the referrer's own stored chain shifted one
// level outward, truncated at MaxReferralDepth. Pure; no side effects.
func BuildAncestorChain(referrer *models.User) []models.ReferralAncestor {
	if referrer == nil {
		return nil
	}
	chain := make([]models.ReferralAncestor, 0, models.MaxReferralDepth)
	chain = append(chain, models.ReferralAncestor{UserID: referrer.ID, Level: 1})
	for _, a := range referrer.ReferralAncestors {
		if len(chain) >= models.MaxReferralDepth {
			break
		}
		chain = append(chain, models.ReferralAncestor{UserID: a.UserID, Level: a.Level + 1})
	}
	return chain
}

// OnSignupCompleted resolves the referral code used at signup, stores the
// ancestor chain on the new user and credits the referrer's referral count.
// A code that does not resolve to a user (or resolves to the user themselves)
// never fails the signup; the user simply starts with no ancestry.
func (s *AncestryService) OnSignupCompleted(ctx context.Context, newUserID primitive.ObjectID, referralCode string) ([]models.ReferralAncestor, error) {
	if referralCode == "" {
		return nil, nil
	}

	referrer, err := s.users.FindUserByReferralCode(ctx, referralCode)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) || errors.Is(err, ErrReferralCodeNotFound) {
			log.Printf("Signup referral code %s did not resolve, continuing without ancestry", referralCode)
			return nil, nil
		}
		return nil, err
	}
	if referrer.ID == newUserID {
		log.Printf("User %s attempted self-referral, ignoring code", newUserID.Hex())
		return nil, nil
	}

	chain := BuildAncestorChain(referrer)
	if err := s.users.AttachReferral(ctx, newUserID, referrer.ID, chain); err != nil {
		return nil, err
	}
	return chain, nil
}
