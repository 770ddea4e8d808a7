package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Model is the base model with common fields for all database entities
type Model struct {
	ID        uuid.UUID      `json:"id" gorm:"type:uuid;primaryKey"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"deleted_at,omitempty" gorm:"index"`
}

// BeforeCreate assigns a UUID primary key when one was not provided
func (m *Model) BeforeCreate(tx *gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}

// AuthorizationLevel represents the level of access for an API key
type AuthorizationLevel int

const (
	// NoAuthLevel represents public access with no authentication
	NoAuthLevel AuthorizationLevel = 0
	// ViewerAuthLevel represents read-only access
	ViewerAuthLevel AuthorizationLevel = 1
	// WriterAuthLevel represents read-write access
	WriterAuthLevel AuthorizationLevel = 2
	// SudoAuthLevel represents administrative access
	SudoAuthLevel AuthorizationLevel = 3
)

// APIKey represents an API token with associated access level
type APIKey struct {
	Model
	Key                string             `json:"key" gorm:"uniqueIndex;Column:key"`
	Name               string             `json:"name" gorm:"Column:name"`
	UserID             *uuid.UUID         `json:"user_id" gorm:"Column:user_id"`
	AuthorizationLevel AuthorizationLevel `json:"authorization_level" gorm:"Column:authorization_level"`
	ExpiresAt          *time.Time         `json:"expires_at" gorm:"Column:expires_at"`
	LastUsedAt         *time.Time         `json:"last_used_at" gorm:"Column:last_used_at"`
}

// UserRole is an enum for user roles
type UserRole string

const (
	// RoleAdmin represents a platform administrator
	RoleAdmin UserRole = "admin"
	// RoleStoreManager represents a store owner or manager
	RoleStoreManager UserRole = "store_manager"
)

// User model represents a platform user (admin or store manager)
type User struct {
	Model
	Name         string   `json:"name" gorm:"Column:name"`
	Email        string   `json:"email" gorm:"uniqueIndex;Column:email"`
	PasswordHash string   `json:"-" gorm:"Column:password_hash"`
	Role         UserRole `json:"role" gorm:"Column:role;default:'store_manager'"`
	Active       bool     `json:"active" gorm:"Column:active;default:true"`
}

// Store model represents a merchant that sells gift vouchers
type Store struct {
	Model
	Name    string     `json:"name" gorm:"Column:name"`
	Email   string     `json:"email" gorm:"Column:email"`
	Phone   string     `json:"phone" gorm:"Column:phone"`
	Address string     `json:"address" gorm:"Column:address"`
	Logo    string     `json:"logo" gorm:"Column:logo"`
	OwnerID *uuid.UUID `json:"owner_id" gorm:"Column:owner_id"`
	Owner   *User      `json:"owner,omitempty" gorm:"foreignKey:OwnerID"`
	Active  bool       `json:"active" gorm:"Column:active;default:true"`
}

// Product model represents a product or experience a voucher can be issued for
type Product struct {
	Model
	StoreID     uuid.UUID `json:"store_id" gorm:"Column:store_id;index"`
	Store       *Store    `json:"store,omitempty" gorm:"foreignKey:StoreID"`
	Name        string    `json:"name" gorm:"Column:name"`
	Description string    `json:"description" gorm:"Column:description;type:text"`
	Price       float64   `json:"price" gorm:"Column:price"`
	Active      bool      `json:"active" gorm:"Column:active;default:true"`
}

// Customer model represents a purchasing customer
type Customer struct {
	Model
	Name    string `json:"name" gorm:"Column:name"`
	Email   string `json:"email" gorm:"uniqueIndex;Column:email"`
	Phone   string `json:"phone" gorm:"Column:phone"`
	Address string `json:"address" gorm:"Column:address"`
}

// SetupModels runs the automatic migrations for all models
func SetupModels(db *gorm.DB) error {
	return db.AutoMigrate(
		&APIKey{},
		&User{},
		&Store{},
		&Product{},
		&Customer{},
		&Order{},
	)
}
