package controllers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/AKhaldoun/tierlink_backend/models"
	"github.com/AKhaldoun/tierlink_backend/services"
	"github.com/AKhaldoun/tierlink_backend/websocket"
)

// WithdrawalController serves the user side of the withdrawal workflow.
// Funds leave the spendable balance the moment the request is accepted.
type WithdrawalController struct {
	withdrawal *services.WithdrawalService
	hub        *websocket.Hub
}

func NewWithdrawalController(withdrawal *services.WithdrawalService, hub *websocket.Hub) *WithdrawalController {
	return &WithdrawalController{withdrawal: withdrawal, hub: hub}
}

// RequestWithdrawal creates a pending withdrawal and debits the balance
func (wc *WithdrawalController) RequestWithdrawal(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	objID, err := authedUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, models.Response{
			Status:  http.StatusUnauthorized,
			Message: "Authentication failed",
		})
	}

	var req models.WithdrawalRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid request body",
		})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Amount, method and account details are required",
			Data:    err.Error(),
		})
	}

	w, err := wc.withdrawal.Request(ctx, objID, req)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrValidation):
			return c.JSON(http.StatusBadRequest, models.Response{
				Status:  http.StatusBadRequest,
				Message: err.Error(),
			})
		case errors.Is(err, services.ErrInsufficientBalance):
			return c.JSON(http.StatusUnprocessableEntity, models.Response{
				Status:  http.StatusUnprocessableEntity,
				Message: "Insufficient wallet balance",
			})
		default:
			return c.JSON(http.StatusInternalServerError, models.Response{
				Status:  http.StatusInternalServerError,
				Message: "Failed to create withdrawal request",
				Data:    err.Error(),
			})
		}
	}

	invalidateBalanceCache(ctx, objID)
	wc.hub.NotifyWithdrawalRequested(w)

	return c.JSON(http.StatusCreated, models.Response{
		Status:  http.StatusCreated,
		Message: "Withdrawal request submitted",
		Data:    w,
	})
}

// GetWithdrawalHistory returns the user's withdrawals, newest first
func (wc *WithdrawalController) GetWithdrawalHistory(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	objID, err := authedUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, models.Response{
			Status:  http.StatusUnauthorized,
			Message: "Authentication failed",
		})
	}

	withdrawals, err := wc.withdrawal.HistoryFor(ctx, objID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to fetch withdrawal history",
			Data:    err.Error(),
		})
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Withdrawal history fetched successfully",
		Data:    withdrawals,
	})
}
