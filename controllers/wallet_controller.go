package controllers

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/AKhaldoun/tierlink_backend/config"
	"github.com/AKhaldoun/tierlink_backend/middleware"
	"github.com/AKhaldoun/tierlink_backend/models"
	"github.com/AKhaldoun/tierlink_backend/services"
)

const balanceCacheTTL = 30 * time.Second

// WalletController serves the ledger's read side: balances, transaction
// history and commission history. Balances are cached briefly in Redis and
// invalidated by every write path.
type WalletController struct {
	wallet *services.WalletService
}

func NewWalletController(wallet *services.WalletService) *WalletController {
	return &WalletController{wallet: wallet}
}

func balanceCacheKey(userID primitive.ObjectID) string {
	return "wallet:balance:" + userID.Hex()
}

// invalidateBalanceCache drops the cached balance after a ledger write.
func invalidateBalanceCache(ctx context.Context, userIDs ...primitive.ObjectID) {
	redisClient := config.GetRedisClient()
	if redisClient == nil {
		return
	}
	for _, id := range userIDs {
		redisClient.Del(ctx, balanceCacheKey(id))
	}
}

// GetWalletBalance returns the authenticated user's spendable balance
func (wc *WalletController) GetWalletBalance(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	objID, err := authedUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, models.Response{
			Status:  http.StatusUnauthorized,
			Message: "Authentication failed",
		})
	}

	if redisClient := config.GetRedisClient(); redisClient != nil {
		if cached, err := redisClient.Get(ctx, balanceCacheKey(objID)).Result(); err == nil {
			if balance, perr := strconv.ParseFloat(cached, 64); perr == nil {
				return c.JSON(http.StatusOK, models.Response{
					Status:  http.StatusOK,
					Message: "Wallet balance fetched successfully",
					Data:    bson.M{"balance": balance},
				})
			}
		}
	}

	balance, err := wc.wallet.BalanceOf(ctx, objID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to fetch wallet balance",
			Data:    err.Error(),
		})
	}

	if redisClient := config.GetRedisClient(); redisClient != nil {
		redisClient.Set(ctx, balanceCacheKey(objID), fmt.Sprintf("%.2f", balance), balanceCacheTTL)
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Wallet balance fetched successfully",
		Data:    bson.M{"balance": balance},
	})
}

// GetWalletTransactions returns the user's ledger history, newest first
func (wc *WalletController) GetWalletTransactions(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	objID, err := authedUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, models.Response{
			Status:  http.StatusUnauthorized,
			Message: "Authentication failed",
		})
	}

	txns, err := wc.wallet.TransactionsFor(ctx, objID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to fetch wallet transactions",
			Data:    err.Error(),
		})
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Wallet transactions fetched successfully",
		Data:    txns,
	})
}

// GetCommissions returns the user's earning records, newest first
func (wc *WalletController) GetCommissions(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	objID, err := authedUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, models.Response{
			Status:  http.StatusUnauthorized,
			Message: "Authentication failed",
		})
	}

	earnings, err := wc.wallet.CommissionsFor(ctx, objID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to fetch commissions",
			Data:    err.Error(),
		})
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Commissions fetched successfully",
		Data:    earnings,
	})
}

// authedUserID reads the authenticated user's ObjectID from the JWT context
func authedUserID(c echo.Context) (primitive.ObjectID, error) {
	userID, err := middleware.ExtractUserID(c)
	if err != nil {
		return primitive.NilObjectID, err
	}
	return primitive.ObjectIDFromHex(userID)
}
