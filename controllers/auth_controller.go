package controllers

import (
	"context"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/eventra/eventra_backend/config"
	"github.com/eventra/eventra_backend/middleware"
	"github.com/eventra/eventra_backend/models"
	"github.com/eventra/eventra_backend/utils"
)

// AuthController contains authentication logic
type AuthController struct {
	DB            *mongo.Client
	loginAttempts map[string]struct {
		count       int
		lastAttempt time.Time
	}
	loginAttemptsMu sync.RWMutex
}

// NewAuthController creates a new auth controller
func NewAuthController(db *mongo.Client) *AuthController {
	ac := &AuthController{
		DB: db,
		loginAttempts: make(map[string]struct {
			count       int
			lastAttempt time.Time
		}),
	}
	go ac.cleanupLoginAttempts()
	return ac
}

const (
	maxLoginAttempts = 5
	lockoutDuration  = 15 * time.Minute
)

func (ac *AuthController) cleanupLoginAttempts() {
	for {
		time.Sleep(time.Hour)
		ac.loginAttemptsMu.Lock()
		now := time.Now()
		for email, attempt := range ac.loginAttempts {
			if now.Sub(attempt.lastAttempt) > lockoutDuration {
				delete(ac.loginAttempts, email)
			}
		}
		ac.loginAttemptsMu.Unlock()
	}
}

func (ac *AuthController) isLockedOut(email string) bool {
	ac.loginAttemptsMu.RLock()
	defer ac.loginAttemptsMu.RUnlock()
	attempt, ok := ac.loginAttempts[email]
	if !ok {
		return false
	}
	return attempt.count >= maxLoginAttempts && time.Since(attempt.lastAttempt) < lockoutDuration
}

func (ac *AuthController) recordFailedAttempt(email string) {
	ac.loginAttemptsMu.Lock()
	defer ac.loginAttemptsMu.Unlock()
	attempt := ac.loginAttempts[email]
	attempt.count++
	attempt.lastAttempt = time.Now()
	ac.loginAttempts[email] = attempt
}

func (ac *AuthController) clearAttempts(email string) {
	ac.loginAttemptsMu.Lock()
	defer ac.loginAttemptsMu.Unlock()
	delete(ac.loginAttempts, email)
}

// Login authenticates a user and returns a JWT token pair
func (ac *AuthController) Login(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var req models.LoginRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid request body",
			Data:    err.Error(),
		})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Email and password are required",
		})
	}

	if ac.isLockedOut(req.Email) {
		return c.JSON(http.StatusTooManyRequests, models.Response{
			Status:  http.StatusTooManyRequests,
			Message: "Too many failed login attempts, try again later",
		})
	}

	collection := ac.DB.Database(config.DatabaseName()).Collection("users")
	var user models.User
	err := collection.FindOne(ctx, bson.M{"email": req.Email}).Decode(&user)
	if err != nil {
		ac.recordFailedAttempt(req.Email)
		return c.JSON(http.StatusUnauthorized, models.Response{
			Status:  http.StatusUnauthorized,
			Message: "Invalid email or password",
		})
	}

	if !user.IsActive {
		return c.JSON(http.StatusForbidden, models.Response{
			Status:  http.StatusForbidden,
			Message: "Account is deactivated",
		})
	}

	if !utils.CheckPassword(user.Password, req.Password) {
		ac.recordFailedAttempt(req.Email)
		return c.JSON(http.StatusUnauthorized, models.Response{
			Status:  http.StatusUnauthorized,
			Message: "Invalid email or password",
		})
	}
	ac.clearAttempts(req.Email)

	token, refreshToken, err := middleware.GenerateJWT(user.ID.Hex(), user.Email, user.Role)
	if err != nil {
		log.Printf("Failed to generate JWT for %s: %v", user.Email, err)
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to generate token",
		})
	}

	now := time.Now()
	_, _ = collection.UpdateByID(ctx, user.ID, bson.M{
		"$set": bson.M{"lastActivityAt": now},
	})

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Login successful",
		Data: models.LoginResponse{
			Token:        token,
			RefreshToken: refreshToken,
			User:         &user,
		},
	})
}

// Logout blacklists the caller's token until it would have expired.
func (ac *AuthController) Logout(c echo.Context) error {
	claims := middleware.GetUserFromToken(c)
	if claims == nil {
		return c.JSON(http.StatusUnauthorized, models.Response{
			Status:  http.StatusUnauthorized,
			Message: "Invalid token",
		})
	}

	authHeader := c.Request().Header.Get("Authorization")
	if len(authHeader) > 7 {
		middleware.BlacklistToken(authHeader[7:], time.Unix(claims.ExpiresAt, 0))
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Logged out successfully",
	})
}

type fcmTokenRequest struct {
	FCMToken string `json:"fcmToken" validate:"required"`
}

// UpdateFCMToken stores the caller's device token for push notifications.
func (ac *AuthController) UpdateFCMToken(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	userID, ok := actorID(c)
	if !ok {
		return nil
	}

	var req fcmTokenRequest
	if err := c.Bind(&req); err != nil || req.FCMToken == "" {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "fcmToken is required",
		})
	}

	collection := ac.DB.Database(config.DatabaseName()).Collection("users")
	_, err := collection.UpdateByID(ctx, userID, bson.M{
		"$set": bson.M{"fcmToken": req.FCMToken, "updatedAt": time.Now()},
	})
	if err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to update FCM token",
		})
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "FCM token updated successfully",
	})
}

// GetCurrentUser returns the authenticated user's profile.
func (ac *AuthController) GetCurrentUser(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	userID, ok := actorID(c)
	if !ok {
		return nil
	}

	collection := ac.DB.Database(config.DatabaseName()).Collection("users")
	var user models.User
	if err := collection.FindOne(ctx, bson.M{"_id": userID}).Decode(&user); err != nil {
		return c.JSON(http.StatusNotFound, models.Response{
			Status:  http.StatusNotFound,
			Message: "User not found",
		})
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "User retrieved successfully",
		Data:    user,
	})
}
