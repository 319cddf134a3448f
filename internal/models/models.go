package models

import (
	"time"

	"github.com/oklog/ulid/v2"
	"gorm.io/gorm"
)

// BaseModel provides common fields and auto-generated ULID for models keyed by string
type BaseModel struct {
	ID        string    `json:"id" gorm:"primaryKey;type:varchar(26)"`
	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
}

// BeforeCreate generates a ULID for the ID field if it's empty
func (b *BaseModel) BeforeCreate(tx *gorm.DB) error {
	if b.ID == "" {
		b.ID = ulid.Make().String()
	}
	return nil
}

// User represents a fleet account known to the API
// Integer IDs are part of the wire contract (the portal stores them as-is)
type User struct {
	ID            int64      `json:"id" gorm:"primaryKey;autoIncrement"`
	FirstName     string     `json:"firstName" gorm:"not null"`
	LastName      string     `json:"lastName" gorm:"not null"`
	Email         string     `json:"email" gorm:"unique;not null"`
	PasswordHash  string     `json:"-" gorm:"not null"`
	Phone         string     `json:"phone,omitempty"`
	LicenseNumber string     `json:"licenseNumber,omitempty"`
	Role          string     `json:"role" gorm:"not null;index"` // ROLE_ADMIN, ROLE_OWNER, ROLE_DRIVER, ROLE_API_CLIENT
	Enabled       bool       `json:"enabled" gorm:"not null;default:true"`
	LastLoginAt   *time.Time `json:"lastLoginAt,omitempty"`
	CreatedAt     time.Time  `json:"createdAt" gorm:"autoCreateTime"`
	UpdatedAt     time.Time  `json:"updatedAt" gorm:"autoUpdateTime"`
}

// PasswordResetToken is a single-use token mailed by the forgot-password flow
type PasswordResetToken struct {
	BaseModel
	Token     string    `json:"-" gorm:"type:varchar(64);uniqueIndex;not null"`
	UserID    int64     `json:"user_id" gorm:"not null;index"`
	ExpiresAt time.Time `json:"expires_at" gorm:"not null;index"`
	Used      bool      `json:"used" gorm:"not null;default:false"`

	// Relationships
	User User `json:"-" gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
}

// Expired reports whether the token is past its expiry at now
func (t *PasswordResetToken) Expired(now time.Time) bool {
	return t.ExpiresAt.Before(now)
}

// StorageEntry is one key of a browser's persisted session state, scoped by
// the browser id
type StorageEntry struct {
	Namespace string    `gorm:"primaryKey;type:varchar(64)"`
	Key       string    `gorm:"column:entry_key;primaryKey;type:varchar(64)"`
	Value     string    `gorm:"type:text;not null"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

// AutoMigrateAPI runs migrations for the fleet API models
func AutoMigrateAPI(db *gorm.DB) error {
	return db.AutoMigrate(&User{}, &PasswordResetToken{})
}

// AutoMigratePortal runs migrations for the portal's session storage
func AutoMigratePortal(db *gorm.DB) error {
	return db.AutoMigrate(&StorageEntry{})
}

// FindByID safely finds a record by ID
func FindByID[T any, K int64 | string](db *gorm.DB, id K, model *T) error {
	return db.Where("id = ?", id).First(model).Error
}
