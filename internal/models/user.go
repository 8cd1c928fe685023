package models

import (
	"time"
)

// User is a site user or a supplier contact (SupplierCode set)
type User struct {
	UserID         uint64  `gorm:"primaryKey;autoIncrement" json:"user_id"`
	Username       string  `gorm:"size:255;not null;uniqueIndex" json:"username"`
	PasswordHash   string  `gorm:"size:255;not null" json:"password_hash"`
	Name           string  `gorm:"size:255" json:"name"`
	Surname        string  `gorm:"size:255" json:"surname"`
	Fullname       string  `gorm:"size:255;index" json:"fullname"`
	JobDescription string  `gorm:"size:255" json:"job_description"`
	Email          string  `gorm:"size:255" json:"email"`
	SupplierCode   *string `gorm:"size:32" json:"supplier_code"`
	Role           string  `gorm:"size:64" json:"role"`
}

// UserAuthentication holds one login log row per user, overwritten on each login
type UserAuthentication struct {
	UserID       uint64    `gorm:"primaryKey;autoIncrement:false"`
	PasswordHash string    `gorm:"size:255;not null"`
	LastLogin    time.Time `gorm:"not null"`
}

// TableName overrides the table name for User
func (User) TableName() string {
	return "user_detail"
}

// TableName overrides the table name for UserAuthentication
func (UserAuthentication) TableName() string {
	return "user_authentication"
}
