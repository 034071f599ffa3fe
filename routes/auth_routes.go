package routes

import (
	"github.com/AKhaldoun/tierlink_backend/controllers"
	"github.com/labstack/echo/v4"
)

// RegisterAuthRoutes sets up the public authentication routes
func RegisterAuthRoutes(e *echo.Echo, authController *controllers.AuthController) {
	e.POST("/api/auth/signup", authController.Signup)
	e.POST("/api/auth/login", authController.Login)
}
