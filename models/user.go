package models

import (
	"time"

	"gorm.io/gorm"
)

// User is the login account that owns a Member.
type User struct {
	ID        uint           `json:"id" gorm:"primaryKey"`
	Email     string         `json:"email" gorm:"uniqueIndex;not null"`
	Password  string         `json:"-" gorm:"not null"`
	FirstName string         `json:"first_name" gorm:"not null"`
	LastName  string         `json:"last_name" gorm:"not null"`
	IsActive  bool           `json:"is_active" gorm:"default:true"`
	IsAdmin   bool           `json:"is_admin" gorm:"default:false"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`
}

type RegisterRequest struct {
	Email           string   `json:"email" validate:"required,email"`
	MobileNo        string   `json:"mobile_no" validate:"omitempty,mobile"`
	Password        string   `json:"password" validate:"required,min=8"`
	FirstName       string   `json:"first_name" validate:"required,min=2"`
	LastName        string   `json:"last_name" validate:"required,min=2"`
	Username        string   `json:"username,omitempty" validate:"omitempty,alphanum,min=4,max=32"`
	SponsorUsername string   `json:"sponsor_username,omitempty"`
	Position        Position `json:"position,omitempty"`
	AdminCode       string   `json:"admin_code,omitempty"` // Optional field for admin registration
}

type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type LoginResponse struct {
	Token  string `json:"token"`
	User   User   `json:"user"`
	Member Member `json:"member"`
}
