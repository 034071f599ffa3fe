package controllers

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/AKhaldoun/tierlink_backend/config"
	"github.com/AKhaldoun/tierlink_backend/models"
	"github.com/AKhaldoun/tierlink_backend/services"
	"github.com/AKhaldoun/tierlink_backend/websocket"
)

const companyWalletCacheKey = "wallet:company"

// AdminController serves the admin surface: withdrawal decisions, the
// company wallet summary and the commission reprocessing sweep.
type AdminController struct {
	DB         *mongo.Client
	withdrawal *services.WithdrawalService
	wallet     *services.WalletService
	commission *services.CommissionService
	hub        *websocket.Hub
}

func NewAdminController(db *mongo.Client, withdrawal *services.WithdrawalService, wallet *services.WalletService, commission *services.CommissionService, hub *websocket.Hub) *AdminController {
	return &AdminController{DB: db, withdrawal: withdrawal, wallet: wallet, commission: commission, hub: hub}
}

// GetPendingWithdrawals lists withdrawals awaiting a decision
func (ac *AdminController) GetPendingWithdrawals(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	withdrawals, err := ac.withdrawal.Pending(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to fetch pending withdrawals",
			Data:    err.Error(),
		})
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Pending withdrawals fetched successfully",
		Data:    withdrawals,
	})
}

// ApproveWithdrawal finalizes a pending withdrawal. The balance was already
// debited at request time, so only the ledger row completes.
func (ac *AdminController) ApproveWithdrawal(c echo.Context) error {
	return ac.resolveWithdrawal(c, services.DecisionApprove)
}

// RejectWithdrawal rejects a pending withdrawal and refunds the held amount.
func (ac *AdminController) RejectWithdrawal(c echo.Context) error {
	return ac.resolveWithdrawal(c, services.DecisionReject)
}

func (ac *AdminController) resolveWithdrawal(c echo.Context, decision string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	withdrawalID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid withdrawal ID format",
		})
	}

	adminID, err := authedUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, models.Response{
			Status:  http.StatusUnauthorized,
			Message: "Authentication failed",
		})
	}

	var req models.WithdrawalDecisionRequest
	if err := c.Bind(&req); err != nil && err != echo.ErrUnsupportedMediaType {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid request body",
		})
	}

	w, err := ac.withdrawal.Resolve(ctx, withdrawalID, decision, adminID, req.AdminMessage)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrWithdrawalNotFound):
			return c.JSON(http.StatusNotFound, models.Response{
				Status:  http.StatusNotFound,
				Message: "Withdrawal not found",
			})
		case errors.Is(err, services.ErrAlreadyProcessed):
			return c.JSON(http.StatusConflict, models.Response{
				Status:  http.StatusConflict,
				Message: "Withdrawal has already been processed",
			})
		default:
			return c.JSON(http.StatusInternalServerError, models.Response{
				Status:  http.StatusInternalServerError,
				Message: "Failed to process withdrawal decision",
				Data:    err.Error(),
			})
		}
	}

	invalidateBalanceCache(ctx, w.UserID)
	if err := ac.hub.NotifyWithdrawalResolved(w.UserID, w); err != nil {
		// offline users see the decision in their history
		log.Printf("Withdrawal decision notification skipped for user %s: %v", w.UserID.Hex(), err)
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Withdrawal " + w.Status,
		Data:    w,
	})
}

// GetCompanyWallet returns the operating-margin summary
func (ac *AdminController) GetCompanyWallet(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if redisClient := config.GetRedisClient(); redisClient != nil {
		if cached, err := redisClient.Get(ctx, companyWalletCacheKey).Result(); err == nil {
			var wallet models.CompanyWallet
			if jerr := json.Unmarshal([]byte(cached), &wallet); jerr == nil {
				return c.JSON(http.StatusOK, models.Response{
					Status:  http.StatusOK,
					Message: "Company wallet fetched successfully",
					Data:    wallet,
				})
			}
		}
	}

	wallet, err := ac.wallet.CompanyWalletSummary(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to fetch company wallet",
			Data:    err.Error(),
		})
	}

	if redisClient := config.GetRedisClient(); redisClient != nil {
		if encoded, jerr := json.Marshal(wallet); jerr == nil {
			redisClient.Set(ctx, companyWalletCacheKey, encoded, balanceCacheTTL)
		}
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Company wallet fetched successfully",
		Data:    wallet,
	})
}

// ProcessMissingCommissions sweeps all paid users and re-runs distribution
// for any of them. The idempotency guard makes the sweep safe to overlap
// with live payment completions: each payer settles at most once.
func (ac *AdminController) ProcessMissingCommissions(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	usersCollection := config.GetCollection(ac.DB, "users")
	cursor, err := usersCollection.Find(ctx, bson.M{"hasPaid": true})
	if err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to query paid users",
			Data:    err.Error(),
		})
	}
	defer cursor.Close(ctx)

	var processed, skipped, failed int
	for cursor.Next(ctx) {
		var user models.User
		if err := cursor.Decode(&user); err != nil {
			log.Printf("Error decoding user during commission sweep: %v", err)
			failed++
			continue
		}

		result, err := ac.commission.Distribute(ctx, user.ID, user.PlanType)
		if err != nil {
			log.Printf("Commission sweep failed for user %s: %v", user.ID.Hex(), err)
			failed++
			continue
		}
		if result.AlreadyProcessed {
			skipped++
			continue
		}

		processed++
		for _, payout := range result.Paid {
			invalidateBalanceCache(ctx, payout.AncestorID)
		}
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Commission sweep complete",
		Data: bson.M{
			"processed": processed,
			"skipped":   skipped,
			"failed":    failed,
		},
	})
}
