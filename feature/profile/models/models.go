package models

import "time"

// User is the canonical identity record. It is owned by the registration and
// auth flows; the sync engine reads it and only ever writes it on the
// explicit reverse-sync path.
type User struct {
	ID            uint      `gorm:"column:id;primaryKey" json:"id"`
	Email         string    `gorm:"column:email;size:255;uniqueIndex" json:"email"`
	EmailVerified bool      `gorm:"column:email_verified" json:"email_verified"`
	Grade         string    `gorm:"column:grade;size:64" json:"grade"`
	Goal          string    `gorm:"column:goal;size:255" json:"goal"`
	Provider      string    `gorm:"column:provider;size:32" json:"provider"`
	CreatedAt     time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

// TableName overrides the table name.
func (User) TableName() string {
	return "users"
}

// UserProfile is the denormalized per-identity projection, keyed 1:1 by the
// identity id. The mirrored subset (email, email_verified, grade, goal) is
// kept equal to the identity record by the sync engine; the remaining fields
// form the extended subset, written only by direct profile edits after being
// seeded once at creation.
type UserProfile struct {
	UserID uint `gorm:"column:user_id;primaryKey" json:"user_id"`

	// Mirrored subset
	Email         string `gorm:"column:email;size:255" json:"email"`
	EmailVerified bool   `gorm:"column:email_verified" json:"email_verified"`
	Grade         string `gorm:"column:grade;size:64" json:"grade"`
	Goal          string `gorm:"column:goal;size:255" json:"goal"`

	// Extended subset
	FullName       string     `gorm:"column:full_name;size:255" json:"full_name"`
	AvatarURL      string     `gorm:"column:avatar_url;size:512" json:"avatar_url"`
	Bio            string     `gorm:"column:bio;type:text" json:"bio"`
	DateOfBirth    *time.Time `gorm:"column:date_of_birth" json:"date_of_birth,omitempty"`
	Gender         string     `gorm:"column:gender;size:16" json:"gender"`
	Province       string     `gorm:"column:province;size:128" json:"province"`
	School         string     `gorm:"column:school;size:255" json:"school"`
	EmergencyPhone string     `gorm:"column:emergency_phone;size:32" json:"emergency_phone"`
	DisplayName    string     `gorm:"column:display_name;size:255" json:"display_name"`
	PictureURL     string     `gorm:"column:picture_url;size:512" json:"picture_url"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

// TableName overrides the table name.
func (UserProfile) TableName() string {
	return "user_profiles"
}

// OAuthAccount is an auxiliary provider account linked to an identity.
// Zero or many exist per identity; the primary one supplies seed values for
// the extended subset at profile-creation time only.
type OAuthAccount struct {
	ID             uint      `gorm:"column:id;primaryKey" json:"id"`
	UserID         uint      `gorm:"column:user_id;index" json:"user_id"`
	Provider       string    `gorm:"column:provider;size:32" json:"provider"`
	ProviderUserID string    `gorm:"column:provider_user_id;size:255" json:"provider_user_id"`
	DisplayName    string    `gorm:"column:display_name;size:255" json:"display_name"`
	PictureURL     string    `gorm:"column:picture_url;size:512" json:"picture_url"`
	Phone          string    `gorm:"column:phone;size:32" json:"phone"`
	IsPrimary      bool      `gorm:"column:is_primary" json:"is_primary"`
	CreatedAt      time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}

// TableName overrides the table name.
func (OAuthAccount) TableName() string {
	return "oauth_accounts"
}
