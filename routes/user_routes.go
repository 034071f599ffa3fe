package routes

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/AKhaldoun/tierlink_backend/controllers"
	"github.com/AKhaldoun/tierlink_backend/middleware"
	"github.com/AKhaldoun/tierlink_backend/models"
	"github.com/AKhaldoun/tierlink_backend/websocket"
)

// RegisterUserRoutes sets up all authenticated member routes
func RegisterUserRoutes(
	e *echo.Echo,
	referralController *controllers.ReferralController,
	subscriptionController *controllers.SubscriptionController,
	walletController *controllers.WalletController,
	withdrawalController *controllers.WithdrawalController,
	hub *websocket.Hub,
) {
	// Protected routes group
	r := e.Group("/api")
	r.Use(middleware.JWTMiddleware())

	// Referral routes
	r.GET("/users/referral-data", referralController.GetReferralData)
	r.GET("/users/referral-qr", referralController.GetReferralQRCode)

	// Plan activation
	r.POST("/subscription/activate", subscriptionController.ActivatePlan)

	// Wallet routes
	r.GET("/wallet", walletController.GetWalletBalance)
	r.GET("/wallet/transactions", walletController.GetWalletTransactions)
	r.GET("/wallet/commissions", walletController.GetCommissions)

	// Withdrawal routes
	r.POST("/withdrawals", withdrawalController.RequestWithdrawal)
	r.GET("/withdrawals", withdrawalController.GetWithdrawalHistory)

	// WebSocket route
	r.GET("/ws", func(c echo.Context) error {
		userIDHex, err := middleware.ExtractUserID(c)
		if err != nil {
			return c.JSON(http.StatusUnauthorized, models.Response{
				Status:  http.StatusUnauthorized,
				Message: "Unauthorized",
			})
		}
		userID, err := primitive.ObjectIDFromHex(userIDHex)
		if err != nil {
			return c.JSON(http.StatusUnauthorized, models.Response{
				Status:  http.StatusUnauthorized,
				Message: "Invalid user ID in token",
			})
		}
		isAdmin := middleware.ExtractUserType(c) == "admin"
		return websocket.HandleWebSocket(c, hub, userID, isAdmin)
	})
}
