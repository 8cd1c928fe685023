package services

import (
	"context"
	"errors"
	"time"

	"github.com/localnerve/sqcb-service/internal/models"
	"github.com/localnerve/sqcb-service/internal/types"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// LastLoginLayout formats the login timestamp returned to the caller
const LastLoginLayout = "2006-01-02 15:04:05"

// Compared against when the username is unknown so both paths cost one bcrypt check
var dummyHash, _ = bcrypt.GenerateFromPassword([]byte("sqcb-unknown-user"), bcrypt.DefaultCost)

// LoginResult is returned on a successful login
type LoginResult struct {
	User      Profile `json:"user"`
	LastLogin string  `json:"last_login"`
}

// HashPassword returns the bcrypt hash of a plaintext password
func HashPassword(password string, cost int) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// Login verifies a username and plaintext password and records the login
func Login(ctx context.Context, db *gorm.DB, username, password string) (*LoginResult, error) {
	db = db.WithContext(ctx)
	invalid := types.NewAuthError("Invalid username or password")

	var user models.User
	err := db.Where("username = ?", username).Take(&user).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, types.NewPersistenceError("Failed to load user", err)
	}

	// Some collations compare case-insensitively; the username must match exactly
	if err != nil || user.Username != username {
		_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(password))
		logrus.WithField("username", username).Warn("Login rejected: unknown username")
		return nil, invalid
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		logrus.WithField("user_id", user.UserID).Warn("Login rejected: password mismatch")
		return nil, invalid
	}

	now := time.Now()
	entry := models.UserAuthentication{
		UserID:       user.UserID,
		PasswordHash: user.PasswordHash,
		LastLogin:    now,
	}
	err = db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"password_hash", "last_login"}),
	}).Create(&entry).Error
	if err != nil {
		return nil, types.NewPersistenceError("Failed to record login", err)
	}

	logrus.WithField("user_id", user.UserID).Info("User logged in")

	profile, err := GetProfile(ctx, db, user.UserID)
	if err != nil {
		return nil, err
	}

	return &LoginResult{
		User:      *profile,
		LastLogin: now.Format(LastLoginLayout),
	}, nil
}

// Logout acknowledges a logout; there is no server-side session to end
func Logout(ctx context.Context, userID uint64) {
	logrus.WithContext(ctx).WithField("user_id", userID).Info("User logged out")
}
