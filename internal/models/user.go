package models

import "time"

type User struct {
	ID             int64     `json:"id" gorm:"primaryKey;autoIncrement"`
	Email          string    `json:"email" gorm:"size:255;uniqueIndex;not null"`
	FullName       *string   `json:"full_name" gorm:"size:255"`
	HashedPassword string    `json:"-" gorm:"not null"`
	CreatedAt      time.Time `json:"-"`
}

type RegistrationRequest struct {
	Email    string  `json:"email" binding:"required,email,max=255"`
	FullName *string `json:"full_name" binding:"omitempty,max=255"`
	Password string  `json:"password" binding:"required,min=1,max=72"`
}

type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}
