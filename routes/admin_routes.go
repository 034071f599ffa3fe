package routes

import (
	"github.com/labstack/echo/v4"

	"github.com/AKhaldoun/tierlink_backend/controllers"
	"github.com/AKhaldoun/tierlink_backend/middleware"
)

// RegisterAdminRoutes sets up all admin-only routes
func RegisterAdminRoutes(
	e *echo.Echo,
	adminController *controllers.AdminController,
	subscriptionController *controllers.SubscriptionController,
) {
	admin := e.Group("/api/admin")
	admin.Use(middleware.JWTMiddleware())
	admin.Use(middleware.AdminOnly())

	// Withdrawal management
	admin.GET("/withdrawals/pending", adminController.GetPendingWithdrawals)
	admin.PUT("/withdrawals/:id/approve", adminController.ApproveWithdrawal)
	admin.PUT("/withdrawals/:id/reject", adminController.RejectWithdrawal)

	// Company wallet
	admin.GET("/company-wallet", adminController.GetCompanyWallet)

	// Commission maintenance
	admin.POST("/commissions/process-missing", adminController.ProcessMissingCommissions)
	admin.POST("/users/:id/activate-plan", subscriptionController.ActivatePlanForUser)
}
