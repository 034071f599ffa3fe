package controllers

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"image/png"
	"net/http"
	"os"
	"time"

	"github.com/boombuler/barcode"
	"github.com/boombuler/barcode/qr"
	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/AKhaldoun/tierlink_backend/config"
	"github.com/AKhaldoun/tierlink_backend/middleware"
	"github.com/AKhaldoun/tierlink_backend/models"
	"github.com/AKhaldoun/tierlink_backend/services"
	"github.com/AKhaldoun/tierlink_backend/utils"
)

// ReferralController serves the referral surface: a user's shareable code,
// counts, link, QR image and the potential-earnings preview. The preview
// consults the same rate table the distributor pays from.
type ReferralController struct {
	DB    *mongo.Client
	rates *services.RateTable
}

func NewReferralController(db *mongo.Client, rates *services.RateTable) *ReferralController {
	return &ReferralController{DB: db, rates: rates}
}

func referralBaseURL() string {
	base := os.Getenv("REFERRAL_BASE_URL")
	if base == "" {
		base = "https://tierlink.app"
	}
	return base
}

// GetReferralData returns user's referral information
func (rc *ReferralController) GetReferralData(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	user, err := rc.currentUser(c, ctx)
	if err != nil {
		return err
	}

	// Ensure referral code exists, generate if not
	if user.ReferralCode == "" {
		code, genErr := utils.GenerateReferralCode()
		if genErr != nil {
			return c.JSON(http.StatusInternalServerError, models.Response{
				Status:  http.StatusInternalServerError,
				Message: "Failed to generate referral code",
			})
		}
		user.ReferralCode = code
		usersCollection := config.GetCollection(rc.DB, "users")
		if _, err := usersCollection.UpdateByID(ctx, user.ID, bson.M{"$set": bson.M{"referralCode": code}}); err != nil {
			return c.JSON(http.StatusInternalServerError, models.Response{
				Status:  http.StatusInternalServerError,
				Message: "Failed to save referral code",
			})
		}
	}

	link := fmt.Sprintf("%s/register?ref=%s", referralBaseURL(), user.ReferralCode)
	qrCode, err := generateReferralQRCode(link)
	if err != nil {
		// QR failure is cosmetic, the rest of the data still serves
		qrCode = ""
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Referral data fetched successfully",
		Data: models.ReferralDataResponse{
			ReferralCode:      user.ReferralCode,
			ReferralCount:     user.ReferralCount,
			ReferralLink:      link,
			QRCode:            qrCode,
			PotentialEarnings: rc.rates.PotentialEarnings(),
		},
	})
}

// GetReferralQRCode returns only the QR image for the user's referral link
func (rc *ReferralController) GetReferralQRCode(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	user, err := rc.currentUser(c, ctx)
	if err != nil {
		return err
	}

	link := fmt.Sprintf("%s/register?ref=%s", referralBaseURL(), user.ReferralCode)
	qrCode, err := generateReferralQRCode(link)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to generate QR code",
		})
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "QR code generated successfully",
		Data: bson.M{
			"referralCode": user.ReferralCode,
			"qrCode":       qrCode,
		},
	})
}

func (rc *ReferralController) currentUser(c echo.Context, ctx context.Context) (*models.User, error) {
	userID, err := middleware.ExtractUserID(c)
	if err != nil {
		return nil, c.JSON(http.StatusUnauthorized, models.Response{
			Status:  http.StatusUnauthorized,
			Message: "Authentication failed",
		})
	}

	objID, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return nil, c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid user ID format",
		})
	}

	usersCollection := config.GetCollection(rc.DB, "users")
	var user models.User
	err = usersCollection.FindOne(ctx, bson.M{"_id": objID}).Decode(&user)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, c.JSON(http.StatusNotFound, models.Response{
				Status:  http.StatusNotFound,
				Message: "User not found",
			})
		}
		return nil, c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Database error",
			Data:    err.Error(),
		})
	}
	return &user, nil
}

// generateReferralQRCode creates a base64 PNG QR code for a referral link
func generateReferralQRCode(link string) (string, error) {
	qrCode, err := qr.Encode(link, qr.M, qr.Auto)
	if err != nil {
		return "", err
	}

	qrCode, err = barcode.Scale(qrCode, 300, 300)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, qrCode); err != nil {
		return "", err
	}

	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}
