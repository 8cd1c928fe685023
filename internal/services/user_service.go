package services

import (
	"context"
	"errors"
	"strings"

	"github.com/localnerve/sqcb-service/internal/models"
	"github.com/localnerve/sqcb-service/internal/types"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// Profile is a user without the password hash, joined to the supplier name
type Profile struct {
	UserID         uint64  `json:"user_id"`
	Username       string  `json:"username"`
	Name           string  `json:"name"`
	Surname        string  `json:"surname"`
	Fullname       string  `json:"fullname"`
	JobDescription string  `json:"job_description"`
	Email          string  `json:"email"`
	SupplierCode   *string `json:"supplier_code"`
	Role           string  `json:"role"`
	SupplierName   *string `json:"supplier_name"`
}

// ProfileInput replaces every profile field. Password is plaintext and optional.
type ProfileInput struct {
	Username       string `json:"username" validate:"required,max=255"`
	Name           string `json:"name" validate:"max=255"`
	Surname        string `json:"surname" validate:"max=255"`
	Fullname       string `json:"fullname" validate:"max=255"`
	JobDescription string `json:"job_description" validate:"max=255"`
	Email          string `json:"email" validate:"omitempty,email,max=255"`
	SupplierCode   string `json:"supplier_code" validate:"max=32"`
	Role           string `json:"role" validate:"max=64"`
	Password       string `json:"password" validate:"omitempty,min=8,max=72"`
}

// GetProfile returns one user with the name of the supplier it represents, if any
func GetProfile(ctx context.Context, db *gorm.DB, userID uint64) (*Profile, error) {
	var profiles []Profile
	err := db.WithContext(ctx).
		Table("user_detail").
		Select("user_detail.user_id, user_detail.username, user_detail.name, user_detail.surname, " +
			"user_detail.fullname, user_detail.job_description, user_detail.email, user_detail.supplier_code, " +
			"user_detail.role, supp_detail.supplier_name").
		Joins("LEFT JOIN supp_detail ON user_detail.supplier_code = supp_detail.supplier_code").
		Where("user_detail.user_id = ?", userID).
		Limit(1).
		Scan(&profiles).Error
	if err != nil {
		return nil, types.NewPersistenceError("Failed to load profile", err)
	}
	if len(profiles) == 0 {
		return nil, types.NewNotFoundError("User %d not found", userID)
	}
	return &profiles[0], nil
}

// UpdateProfile overwrites all profile fields; the password hash changes only when a password is given
func UpdateProfile(ctx context.Context, db *gorm.DB, userID uint64, input ProfileInput, bcryptCost int) error {
	db = db.WithContext(ctx)

	var user models.User
	err := db.Select("user_id").Where("user_id = ?", userID).Take(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return types.NewNotFoundError("User %d not found", userID)
	}
	if err != nil {
		return types.NewPersistenceError("Failed to load profile", err)
	}

	updates := map[string]interface{}{
		"username":        strings.TrimSpace(input.Username),
		"name":            input.Name,
		"surname":         input.Surname,
		"fullname":        input.Fullname,
		"job_description": input.JobDescription,
		"email":           input.Email,
		"supplier_code":   nilIfBlank(input.SupplierCode),
		"role":            input.Role,
	}
	if input.Password != "" {
		hash, err := HashPassword(input.Password, bcryptCost)
		if err != nil {
			return types.NewPersistenceError("Failed to hash password", err)
		}
		updates["password_hash"] = hash
	}

	if err := db.Model(&models.User{}).Where("user_id = ?", userID).Updates(updates).Error; err != nil {
		if isDuplicateKey(err) {
			return types.NewValidationError("Username '%s' is already taken", input.Username)
		}
		return types.NewPersistenceError("Failed to update profile", err)
	}

	logrus.WithFields(logrus.Fields{
		"user_id":          userID,
		"password_changed": input.Password != "",
	}).Info("Updated profile")
	return nil
}

// DeleteProfile removes a user and its login log row
func DeleteProfile(ctx context.Context, db *gorm.DB, userID uint64) error {
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Where("user_id = ?", userID).Delete(&models.User{})
		if result.Error != nil {
			return types.NewPersistenceError("Failed to delete profile", result.Error)
		}
		if result.RowsAffected == 0 {
			return types.NewNotFoundError("User %d not found", userID)
		}
		if err := tx.Where("user_id = ?", userID).Delete(&models.UserAuthentication{}).Error; err != nil {
			return types.NewPersistenceError("Failed to delete login log", err)
		}
		return nil
	})
	if err != nil {
		return asPersistenceError("Failed to delete profile", err)
	}

	logrus.WithField("user_id", userID).Info("Deleted profile")
	return nil
}

// ListUsers returns every user row, password hashes included
func ListUsers(ctx context.Context, db *gorm.DB) ([]models.User, error) {
	users := make([]models.User, 0)
	if err := db.WithContext(ctx).Order("user_id").Find(&users).Error; err != nil {
		return nil, types.NewPersistenceError("Failed to load users", err)
	}
	return users, nil
}
