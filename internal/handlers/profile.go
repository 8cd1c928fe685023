package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/localnerve/sqcb-service/internal/services"
	"github.com/localnerve/sqcb-service/internal/types"
	"github.com/localnerve/sqcb-service/internal/utils"
	"gorm.io/gorm"
)

// ProfileHandler handles user profile routes on the user pool
type ProfileHandler struct {
	DB         *gorm.DB
	BcryptCost int
}

// GetProfile handles GET /profile/:userId
// @Summary Get a user profile
// @Tags Profile
// @Produce json
// @Param userId path int true "User id"
// @Success 200 {object} services.Profile
// @Failure 400 {object} utils.ErrorResponseStruct
// @Failure 404 {object} utils.ErrorResponseStruct
// @Failure 500 {object} utils.ErrorResponseStruct
// @Router /profile/{userId} [get]
func (h *ProfileHandler) GetProfile(c *fiber.Ctx) error {
	userID, err := parseID(c, "userId")
	if err != nil {
		return err
	}

	profile, err := services.GetProfile(c.UserContext(), h.DB, userID)
	if err != nil {
		return err
	}
	return c.JSON(profile)
}

// UpdateProfile handles PUT /profile/:userId
// @Summary Replace a user profile
// @Description Every field is replaced; the password changes only when one is supplied
// @Tags Profile
// @Accept json
// @Produce json
// @Param userId path int true "User id"
// @Param profile body services.ProfileInput true "Profile"
// @Success 200 {object} utils.MessageResponseStruct
// @Failure 400 {object} utils.ErrorResponseStruct
// @Failure 404 {object} utils.ErrorResponseStruct
// @Failure 500 {object} utils.ErrorResponseStruct
// @Router /profile/{userId} [put]
func (h *ProfileHandler) UpdateProfile(c *fiber.Ctx) error {
	userID, err := parseID(c, "userId")
	if err != nil {
		return err
	}

	var input services.ProfileInput
	if err := c.BodyParser(&input); err != nil {
		return types.NewValidationError("Invalid input: %v", err)
	}
	if err := utils.ValidateStruct(input); err != nil {
		return err
	}

	if err := services.UpdateProfile(c.UserContext(), h.DB, userID, input, h.BcryptCost); err != nil {
		return err
	}
	return utils.MessageResponse(c, fiber.StatusOK, "Profile updated successfully", fiber.Map{"user_id": userID})
}

// DeleteProfile handles DELETE /profile/:userId
// @Summary Delete a user
// @Tags Profile
// @Produce json
// @Param userId path int true "User id"
// @Success 200 {object} utils.MessageResponseStruct
// @Failure 400 {object} utils.ErrorResponseStruct
// @Failure 404 {object} utils.ErrorResponseStruct
// @Failure 500 {object} utils.ErrorResponseStruct
// @Router /profile/{userId} [delete]
func (h *ProfileHandler) DeleteProfile(c *fiber.Ctx) error {
	userID, err := parseID(c, "userId")
	if err != nil {
		return err
	}

	if err := services.DeleteProfile(c.UserContext(), h.DB, userID); err != nil {
		return err
	}
	return utils.MessageResponse(c, fiber.StatusOK, "Profile deleted successfully", fiber.Map{"user_id": userID})
}

// ListUsers handles GET /users
// @Summary List users
// @Description Every user row including password hashes; internal consumers only
// @Tags Profile
// @Produce json
// @Success 200 {array} models.User
// @Failure 500 {object} utils.ErrorResponseStruct
// @Router /users [get]
func (h *ProfileHandler) ListUsers(c *fiber.Ctx) error {
	users, err := services.ListUsers(c.UserContext(), h.DB)
	if err != nil {
		return err
	}
	return c.JSON(users)
}
