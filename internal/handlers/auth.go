package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/localnerve/sqcb-service/internal/services"
	"github.com/localnerve/sqcb-service/internal/types"
	"github.com/localnerve/sqcb-service/internal/utils"
	"gorm.io/gorm"
)

// AuthHandler handles login and logout on the user pool
type AuthHandler struct {
	DB *gorm.DB
}

// LoginRequest is the login body
type LoginRequest struct {
	Username string `json:"username" form:"username" validate:"required"`
	Password string `json:"password" form:"password" validate:"required,max=72"`
}

// LogoutRequest is the logout body
type LogoutRequest struct {
	UserID types.FlexUint64 `json:"user_id" validate:"required"`
}

// Login handles POST /auth/login
// @Summary Log in
// @Description Verifies the password server-side and records the login
// @Tags Auth
// @Accept json
// @Produce json
// @Param credentials body LoginRequest true "Credentials"
// @Success 200 {object} services.LoginResult
// @Failure 400 {object} utils.ErrorResponseStruct
// @Failure 401 {object} utils.ErrorResponseStruct
// @Failure 500 {object} utils.ErrorResponseStruct
// @Router /auth/login [post]
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return types.NewValidationError("Invalid input: %v", err)
	}
	if err := utils.ValidateStruct(req); err != nil {
		return err
	}

	result, err := services.Login(c.UserContext(), h.DB, req.Username, req.Password)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"message":    "Login successful",
		"ok":         true,
		"user":       result.User,
		"last_login": result.LastLogin,
	})
}

// Logout handles POST /auth/logout
// @Summary Log out
// @Description Stateless acknowledgement
// @Tags Auth
// @Accept json
// @Produce json
// @Param body body LogoutRequest true "User"
// @Success 200 {object} utils.MessageResponseStruct
// @Failure 400 {object} utils.ErrorResponseStruct
// @Router /auth/logout [post]
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	var req LogoutRequest
	if err := c.BodyParser(&req); err != nil {
		return types.NewValidationError("Invalid input: %v", err)
	}
	if err := utils.ValidateStruct(req); err != nil {
		return err
	}

	services.Logout(c.UserContext(), req.UserID.Value)
	return utils.MessageResponse(c, fiber.StatusOK, "Logout successful", fiber.Map{"user_id": req.UserID.Value})
}
