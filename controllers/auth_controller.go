package controllers

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"golang.org/x/crypto/bcrypt"

	"github.com/AKhaldoun/tierlink_backend/config"
	"github.com/AKhaldoun/tierlink_backend/middleware"
	"github.com/AKhaldoun/tierlink_backend/models"
	"github.com/AKhaldoun/tierlink_backend/services"
	"github.com/AKhaldoun/tierlink_backend/utils"
)

type AuthController struct {
	DB       *mongo.Client
	ancestry *services.AncestryService
}

func NewAuthController(db *mongo.Client, ancestry *services.AncestryService) *AuthController {
	return &AuthController{DB: db, ancestry: ancestry}
}

// Signup registers a new user. If a referral code was supplied, the new
// user's ancestor chain is snapshotted here, once; a code that does not
// resolve never blocks the signup.
func (ac *AuthController) Signup(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var req models.SignupRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid request body",
		})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Validation failed",
			Data:    err.Error(),
		})
	}

	email, err := utils.SanitizeEmail(req.Email)
	if err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid email format",
		})
	}
	req.Email = email

	if req.Phone != "" {
		phone, err := utils.SanitizePhone(req.Phone)
		if err != nil {
			return c.JSON(http.StatusBadRequest, models.Response{
				Status:  http.StatusBadRequest,
				Message: "Invalid phone number format",
			})
		}
		req.Phone = phone
	}
	req.FullName = utils.SanitizeInput(req.FullName)
	req.ReferralCode = utils.SanitizeInput(req.ReferralCode)

	userCollection := config.GetCollection(ac.DB, "users")

	var existingUser models.User
	err = userCollection.FindOne(ctx, bson.M{"email": req.Email}).Decode(&existingUser)
	if err == nil {
		return c.JSON(http.StatusConflict, models.Response{
			Status:  http.StatusConflict,
			Message: "Email already exists",
		})
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to process password",
		})
	}

	referralCode, err := utils.GenerateReferralCode()
	if err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to generate referral code",
		})
	}

	now := time.Now()
	user := models.User{
		Email:        req.Email,
		Password:     string(hashedPassword),
		FullName:     req.FullName,
		Phone:        req.Phone,
		UserType:     "user",
		IsActive:     true,
		ReferralCode: referralCode,
		Wallet:       models.Wallet{Balance: 0, Currency: "USD"},
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	result, err := userCollection.InsertOne(ctx, user)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to create user",
			Data:    err.Error(),
		})
	}
	user.ID = result.InsertedID.(primitive.ObjectID)

	// Snapshot the referral ancestry. Failure here is logged, never fatal to
	// the signup; the user simply starts without ancestors.
	ancestors, err := ac.ancestry.OnSignupCompleted(ctx, user.ID, req.ReferralCode)
	if err != nil {
		log.Printf("Failed to process signup referral for user %s: %v", user.ID.Hex(), err)
	}

	token, refreshToken, err := middleware.GenerateJWT(user.ID.Hex(), user.Email, user.UserType)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to generate token",
		})
	}

	return c.JSON(http.StatusCreated, models.Response{
		Status:  http.StatusCreated,
		Message: "Signup successful",
		Data: bson.M{
			"userId":            user.ID,
			"referralCode":      user.ReferralCode,
			"referralAncestors": ancestors,
			"token":             token,
			"refreshToken":      refreshToken,
		},
	})
}

// Login authenticates a user and returns a JWT
func (ac *AuthController) Login(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var req models.LoginRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid request body",
		})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Email and password are required",
		})
	}

	email, err := utils.SanitizeEmail(req.Email)
	if err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid email format",
		})
	}

	userCollection := config.GetCollection(ac.DB, "users")

	var user models.User
	err = userCollection.FindOne(ctx, bson.M{"email": email}).Decode(&user)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, models.Response{
			Status:  http.StatusUnauthorized,
			Message: "Invalid email or password",
		})
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		return c.JSON(http.StatusUnauthorized, models.Response{
			Status:  http.StatusUnauthorized,
			Message: "Invalid email or password",
		})
	}

	if !user.IsActive {
		return c.JSON(http.StatusUnauthorized, models.Response{
			Status:  http.StatusUnauthorized,
			Message: "User account is inactive",
		})
	}

	token, refreshToken, err := middleware.GenerateJWT(user.ID.Hex(), user.Email, user.UserType)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to generate token",
		})
	}

	user.Password = ""
	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Login successful",
		Data: bson.M{
			"user":         user,
			"token":        token,
			"refreshToken": refreshToken,
		},
	})
}
