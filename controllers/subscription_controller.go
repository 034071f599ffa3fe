package controllers

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/AKhaldoun/tierlink_backend/middleware"
	"github.com/AKhaldoun/tierlink_backend/models"
	"github.com/AKhaldoun/tierlink_backend/services"
	"github.com/AKhaldoun/tierlink_backend/websocket"
)

// SubscriptionController owns plan activation: the single path every
// payment-confirmation route goes through before commissions distribute.
type SubscriptionController struct {
	users      services.UserStore
	commission *services.CommissionService
	hub        *websocket.Hub

	// testMode skips payment-reference verification. Injected from config at
	// startup, never a mutable global.
	testMode bool
}

func NewSubscriptionController(users services.UserStore, commission *services.CommissionService, hub *websocket.Hub, testMode bool) *SubscriptionController {
	return &SubscriptionController{users: users, commission: commission, hub: hub, testMode: testMode}
}

// ActivatePlanRequest is the payload confirming a completed plan payment
type ActivatePlanRequest struct {
	PlanType         string `json:"planType" validate:"required"`
	PaymentReference string `json:"paymentReference,omitempty"`
}

// ActivatePlan marks the authenticated user as paid and distributes
// commissions up their ancestor chain. Safe to retry: a repeat call reports
// alreadyProcessed without touching the ledger.
func (sc *SubscriptionController) ActivatePlan(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	userID, err := middleware.ExtractUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, models.Response{
			Status:  http.StatusUnauthorized,
			Message: "Authentication failed",
		})
	}
	objID, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid user ID format",
		})
	}

	var req ActivatePlanRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid request body",
		})
	}
	if !models.ValidPlanType(req.PlanType) {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Unknown plan type",
		})
	}

	// The payment gateway callback has already validated the charge; here we
	// only require its reference unless running in test mode.
	if !sc.testMode && req.PaymentReference == "" {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Payment reference is required",
		})
	}

	return sc.activate(c, ctx, objID, req.PlanType)
}

// ActivatePlanForUser is the admin path for manual activation. It routes
// through the same distribution entry point as the user path.
func (sc *SubscriptionController) ActivatePlanForUser(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	objID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid user ID format",
		})
	}

	var req ActivatePlanRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid request body",
		})
	}
	if !models.ValidPlanType(req.PlanType) {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Unknown plan type",
		})
	}

	return sc.activate(c, ctx, objID, req.PlanType)
}

func (sc *SubscriptionController) activate(c echo.Context, ctx context.Context, userID primitive.ObjectID, planType string) error {
	if err := sc.users.MarkPaid(ctx, userID, planType); err != nil {
		if errors.Is(err, services.ErrUserNotFound) {
			return c.JSON(http.StatusNotFound, models.Response{
				Status:  http.StatusNotFound,
				Message: "User not found",
			})
		}
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to activate plan",
			Data:    err.Error(),
		})
	}

	result, err := sc.commission.Distribute(ctx, userID, planType)
	if err != nil {
		// The plan is active; a failed distribution is reported so the
		// caller can retry it through the reprocessing sweep.
		log.Printf("Commission distribution failed for user %s: %v", userID.Hex(), err)
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Plan activated but commission distribution failed; it will be retried",
			Data:    err.Error(),
		})
	}

	if !result.AlreadyProcessed {
		for _, payout := range result.Paid {
			invalidateBalanceCache(ctx, payout.AncestorID)
			if err := sc.hub.NotifyCommissionEarned(payout.AncestorID, payout); err != nil {
				// offline ancestors pick it up from their earnings list
				continue
			}
		}
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Plan activated successfully",
		Data:    result,
	})
}
