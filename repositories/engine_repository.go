package repositories

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/AKhaldoun/tierlink_backend/models"
	"github.com/AKhaldoun/tierlink_backend/services"
)

// CompanyWalletID is the fixed identifier of the single company wallet
// document and of its ledger rows.
var CompanyWalletID = func() primitive.ObjectID {
	id, _ := primitive.ObjectIDFromHex("000000000000000000000001")
	return id
}()

// EngineRepository is the MongoDB implementation of the engine's store
// interfaces. Every multi-document write runs in a session transaction so a
// distribution or a withdrawal decision is observable only as a whole.
type EngineRepository struct {
	db *mongo.Database
}

func NewEngineRepository(db *mongo.Database) *EngineRepository {
	return &EngineRepository{db: db}
}

func (r *EngineRepository) users() *mongo.Collection        { return r.db.Collection("users") }
func (r *EngineRepository) earnings() *mongo.Collection     { return r.db.Collection("earnings") }
func (r *EngineRepository) transactions() *mongo.Collection { return r.db.Collection("wallet_transactions") }
func (r *EngineRepository) batches() *mongo.Collection      { return r.db.Collection("distribution_batches") }
func (r *EngineRepository) withdrawals() *mongo.Collection  { return r.db.Collection("withdrawals") }
func (r *EngineRepository) companyWallet() *mongo.Collection {
	return r.db.Collection("company_wallet")
}

// withTransaction runs fn inside one session transaction.
func (r *EngineRepository) withTransaction(ctx context.Context, fn func(sc mongo.SessionContext) error) error {
	sess, err := r.db.Client().StartSession()
	if err != nil {
		return err
	}
	defer sess.EndSession(ctx)

	_, err = sess.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		return nil, fn(sc)
	})
	return err
}

// ---- UserStore ----

func (r *EngineRepository) GetUser(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	var user models.User
	err := r.users().FindOne(ctx, bson.M{"_id": id}).Decode(&user)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, services.ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

func (r *EngineRepository) FindUserByReferralCode(ctx context.Context, code string) (*models.User, error) {
	var user models.User
	err := r.users().FindOne(ctx, bson.M{"referralCode": code}).Decode(&user)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, services.ErrReferralCodeNotFound
		}
		return nil, err
	}
	return &user, nil
}

func (r *EngineRepository) AttachReferral(ctx context.Context, newUserID, referrerID primitive.ObjectID, ancestors []models.ReferralAncestor) error {
	return r.withTransaction(ctx, func(sc mongo.SessionContext) error {
		now := time.Now()
		res, err := r.users().UpdateByID(sc, newUserID, bson.M{
			"$set": bson.M{
				"referredBy":        referrerID,
				"referralAncestors": ancestors,
				"updatedAt":         now,
			},
		})
		if err != nil {
			return err
		}
		if res.MatchedCount == 0 {
			return services.ErrUserNotFound
		}

		_, err = r.users().UpdateByID(sc, referrerID, bson.M{
			"$push": bson.M{"referrals": newUserID},
			"$inc":  bson.M{"referralCount": 1},
			"$set":  bson.M{"updatedAt": now},
		})
		return err
	})
}

func (r *EngineRepository) MarkPaid(ctx context.Context, userID primitive.ObjectID, planType string) error {
	res, err := r.users().UpdateByID(ctx, userID, bson.M{
		"$set": bson.M{
			"hasPaid":          true,
			"paymentCompleted": true,
			"planType":         planType,
			"updatedAt":        time.Now(),
		},
	})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return services.ErrUserNotFound
	}
	return nil
}

// ---- LedgerStore ----

func (r *EngineRepository) HasDistribution(ctx context.Context, payerID primitive.ObjectID) (bool, error) {
	count, err := r.batches().CountDocuments(ctx, bson.M{"fromUserId": payerID})
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *EngineRepository) CommitDistribution(ctx context.Context, payerID primitive.ObjectID, planType string, payouts []models.DistributionPayout, planAmount, companyAmount float64) error {
	return r.withTransaction(ctx, func(sc mongo.SessionContext) error {
		now := time.Now()
		batch := models.DistributionBatch{
			FromUserID:    payerID,
			Reference:     uuid.NewString(),
			PlanType:      planType,
			CompanyAmount: companyAmount,
			CreatedAt:     now,
		}
		for _, p := range payouts {
			batch.TotalPaid += p.Amount
		}

		// The unique index on fromUserId turns the insert into the
		// idempotency guard: a concurrent second distribution aborts here.
		if _, err := r.batches().InsertOne(sc, batch); err != nil {
			if mongo.IsDuplicateKeyError(err) {
				return services.ErrAlreadyProcessed
			}
			return err
		}

		for _, p := range payouts {
			earning := models.Earning{
				FromUserID: payerID,
				UserID:     p.AncestorID,
				Level:      p.Level,
				PlanType:   planType,
				Amount:     p.Amount,
				Status:     models.EarningStatusCompleted,
				CreatedAt:  now,
			}
			if _, err := r.earnings().InsertOne(sc, earning); err != nil {
				return err
			}

			credit := models.WalletTransaction{
				UserID:          p.AncestorID,
				Amount:          p.Amount,
				TransactionType: models.TransactionTypeCommission,
				ReferenceID:     batch.Reference,
				Status:          models.TransactionStatusCompleted,
				CreatedAt:       now,
			}
			if _, err := r.transactions().InsertOne(sc, credit); err != nil {
				return err
			}

			res, err := r.users().UpdateByID(sc, p.AncestorID, bson.M{
				"$inc": bson.M{
					"wallet.balance": p.Amount,
					"totalEarnings":  p.Amount,
				},
				"$set": bson.M{"updatedAt": now},
			})
			if err != nil {
				return err
			}
			if res.MatchedCount == 0 {
				return services.ErrUserNotFound
			}
		}

		companyCredit := models.WalletTransaction{
			UserID:          CompanyWalletID,
			Amount:          companyAmount,
			TransactionType: models.TransactionTypePurchase,
			ReferenceID:     batch.Reference,
			Status:          models.TransactionStatusCompleted,
			CreatedAt:       now,
		}
		if _, err := r.transactions().InsertOne(sc, companyCredit); err != nil {
			return err
		}

		_, err := r.companyWallet().UpdateByID(sc, CompanyWalletID, bson.M{
			"$inc": bson.M{
				"balance":        companyAmount,
				"totalPurchases": planAmount,
				"totalPaidOut":   batch.TotalPaid,
			},
			"$set": bson.M{"updatedAt": now},
		}, options.Update().SetUpsert(true))
		return err
	})
}

func (r *EngineRepository) BalanceOf(ctx context.Context, userID primitive.ObjectID) (float64, error) {
	user, err := r.GetUser(ctx, userID)
	if err != nil {
		return 0, err
	}
	return user.Wallet.Balance, nil
}

func (r *EngineRepository) TransactionsFor(ctx context.Context, userID primitive.ObjectID) ([]models.WalletTransaction, error) {
	cursor, err := r.transactions().Find(ctx, bson.M{"userId": userID},
		options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}))
	if err != nil {
		return nil, err
	}
	var txns []models.WalletTransaction
	if err := cursor.All(ctx, &txns); err != nil {
		return nil, err
	}
	return txns, nil
}

func (r *EngineRepository) EarningsFor(ctx context.Context, userID primitive.ObjectID) ([]models.Earning, error) {
	cursor, err := r.earnings().Find(ctx, bson.M{"userId": userID},
		options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}))
	if err != nil {
		return nil, err
	}
	var earnings []models.Earning
	if err := cursor.All(ctx, &earnings); err != nil {
		return nil, err
	}
	return earnings, nil
}

func (r *EngineRepository) CompanyWallet(ctx context.Context) (*models.CompanyWallet, error) {
	var wallet models.CompanyWallet
	err := r.companyWallet().FindOne(ctx, bson.M{"_id": CompanyWalletID}).Decode(&wallet)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return &models.CompanyWallet{ID: CompanyWalletID}, nil
		}
		return nil, err
	}
	return &wallet, nil
}

// ---- WithdrawalStore ----

func (r *EngineRepository) CreateWithdrawal(ctx context.Context, w *models.Withdrawal) (*models.Withdrawal, error) {
	w.ID = primitive.NewObjectID()
	err := r.withTransaction(ctx, func(sc mongo.SessionContext) error {
		now := time.Now()

		// Conditional debit: only succeeds while the balance covers the
		// amount, so two concurrent requests cannot both spend it.
		res, err := r.users().UpdateOne(sc, bson.M{
			"_id":            w.UserID,
			"wallet.balance": bson.M{"$gte": w.Amount},
		}, bson.M{
			"$inc": bson.M{"wallet.balance": -w.Amount},
			"$set": bson.M{"updatedAt": now},
		})
		if err != nil {
			return err
		}
		if res.MatchedCount == 0 {
			count, cerr := r.users().CountDocuments(sc, bson.M{"_id": w.UserID})
			if cerr != nil {
				return cerr
			}
			if count == 0 {
				return services.ErrUserNotFound
			}
			return services.ErrInsufficientBalance
		}

		txn := models.WalletTransaction{
			ID:              primitive.NewObjectID(),
			UserID:          w.UserID,
			Amount:          -w.Amount,
			TransactionType: models.TransactionTypeWithdrawal,
			ReferenceID:     w.ID.Hex(),
			Status:          models.TransactionStatusPending,
			CreatedAt:       now,
		}
		if _, err := r.transactions().InsertOne(sc, txn); err != nil {
			return err
		}

		w.TransactionID = txn.ID
		_, err = r.withdrawals().InsertOne(sc, w)
		return err
	})
	if err != nil {
		return nil, err
	}
	return w, nil
}

func (r *EngineRepository) ApproveWithdrawal(ctx context.Context, id, adminID primitive.ObjectID, note string) (*models.Withdrawal, error) {
	var approved models.Withdrawal
	err := r.withTransaction(ctx, func(sc mongo.SessionContext) error {
		now := time.Now()
		err := r.withdrawals().FindOneAndUpdate(sc,
			bson.M{"_id": id, "status": models.WithdrawalStatusPending},
			bson.M{"$set": bson.M{
				"status":       models.WithdrawalStatusApproved,
				"processedAt":  now,
				"adminId":      adminID,
				"adminMessage": note,
			}},
			options.FindOneAndUpdate().SetReturnDocument(options.After),
		).Decode(&approved)
		if err != nil {
			if err == mongo.ErrNoDocuments {
				return r.decisionConflict(sc, id)
			}
			return err
		}

		// Balance was already debited at request time; only the ledger row
		// moves to completed.
		_, err = r.transactions().UpdateByID(sc, approved.TransactionID, bson.M{
			"$set": bson.M{"status": models.TransactionStatusCompleted},
		})
		return err
	})
	if err != nil {
		return nil, err
	}
	return &approved, nil
}

func (r *EngineRepository) RejectWithdrawal(ctx context.Context, id, adminID primitive.ObjectID, note string) (*models.Withdrawal, error) {
	var rejected models.Withdrawal
	err := r.withTransaction(ctx, func(sc mongo.SessionContext) error {
		now := time.Now()
		err := r.withdrawals().FindOneAndUpdate(sc,
			bson.M{"_id": id, "status": models.WithdrawalStatusPending},
			bson.M{"$set": bson.M{
				"status":       models.WithdrawalStatusRejected,
				"processedAt":  now,
				"adminId":      adminID,
				"adminMessage": note,
			}},
			options.FindOneAndUpdate().SetReturnDocument(options.After),
		).Decode(&rejected)
		if err != nil {
			if err == mongo.ErrNoDocuments {
				return r.decisionConflict(sc, id)
			}
			return err
		}

		_, err = r.transactions().UpdateByID(sc, rejected.TransactionID, bson.M{
			"$set": bson.M{"status": models.TransactionStatusFailed},
		})
		if err != nil {
			return err
		}

		refund := models.WalletTransaction{
			UserID:          rejected.UserID,
			Amount:          rejected.Amount,
			TransactionType: models.TransactionTypeDeposit,
			ReferenceID:     rejected.ID.Hex(),
			Status:          models.TransactionStatusCompleted,
			CreatedAt:       now,
		}
		if _, err := r.transactions().InsertOne(sc, refund); err != nil {
			return err
		}

		_, err = r.users().UpdateByID(sc, rejected.UserID, bson.M{
			"$inc": bson.M{"wallet.balance": rejected.Amount},
			"$set": bson.M{"updatedAt": now},
		})
		return err
	})
	if err != nil {
		return nil, err
	}
	return &rejected, nil
}

// decisionConflict distinguishes a missing withdrawal from one that has
// already left the pending state.
func (r *EngineRepository) decisionConflict(ctx context.Context, id primitive.ObjectID) error {
	count, err := r.withdrawals().CountDocuments(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if count == 0 {
		return services.ErrWithdrawalNotFound
	}
	return services.ErrAlreadyProcessed
}

func (r *EngineRepository) GetWithdrawal(ctx context.Context, id primitive.ObjectID) (*models.Withdrawal, error) {
	var w models.Withdrawal
	err := r.withdrawals().FindOne(ctx, bson.M{"_id": id}).Decode(&w)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, services.ErrWithdrawalNotFound
		}
		return nil, err
	}
	return &w, nil
}

func (r *EngineRepository) WithdrawalsFor(ctx context.Context, userID primitive.ObjectID) ([]models.Withdrawal, error) {
	return r.findWithdrawals(ctx, bson.M{"userId": userID})
}

func (r *EngineRepository) PendingWithdrawals(ctx context.Context) ([]models.Withdrawal, error) {
	return r.findWithdrawals(ctx, bson.M{"status": models.WithdrawalStatusPending})
}

func (r *EngineRepository) findWithdrawals(ctx context.Context, filter bson.M) ([]models.Withdrawal, error) {
	cursor, err := r.withdrawals().Find(ctx, filter,
		options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}))
	if err != nil {
		return nil, err
	}
	var withdrawals []models.Withdrawal
	if err := cursor.All(ctx, &withdrawals); err != nil {
		return nil, err
	}
	return withdrawals, nil
}
