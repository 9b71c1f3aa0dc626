package model

import (
	"time"

	"golang.org/x/crypto/bcrypt"
)

// User is a POS operator. UserCode is the login identifier.
type User struct {
	BaseModel
	UserCode     string      `gorm:"type:varchar(50);uniqueIndex;not null" json:"userId"`
	Password     string      `gorm:"type:varchar(255);not null" json:"-"`
	Name         string      `gorm:"type:varchar(255)" json:"name"`
	UserType     string      `gorm:"type:varchar(50);not null;default:'CASHIER'" json:"userType"`
	Email        string      `gorm:"type:varchar(255)" json:"email"`
	ContactNo    string      `gorm:"type:varchar(30)" json:"contactNo"`
	Active       bool        `gorm:"default:true" json:"active"`
	Rights       []UserRight `gorm:"foreignKey:UserID" json:"rights,omitempty"`
	TokenVersion string      `gorm:"type:varchar(255);default:''" json:"-"` // single session enforcement
	LastLoginAt  *time.Time  `json:"lastLoginAt,omitempty"`
}

// SetPassword hashes and sets the user's password
func (u *User) SetPassword(password string) error {
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.Password = string(hashedPassword)
	return nil
}

// CheckPassword verifies if the provided password matches the stored hash
func (u *User) CheckPassword(password string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(password))
	return err == nil
}

// IsAdmin reports whether the user bypasses per-module rights.
func (u *User) IsAdmin() bool {
	return u.UserType == RoleAdmin
}

// Can reports whether the user holds action on module.
func (u *User) Can(module string, action Action) bool {
	if u.IsAdmin() {
		return true
	}
	for _, r := range u.Rights {
		if r.ModuleName == module {
			return r.Allows(action)
		}
	}
	return false
}

// RightCodes flattens rights into "Module:action" strings for clients.
func (u *User) RightCodes() []string {
	codes := make([]string, 0, len(u.Rights)*4)
	for _, r := range u.Rights {
		codes = append(codes, r.Codes()...)
	}
	return codes
}

// UserResponse is used for API responses (without sensitive data)
type UserResponse struct {
	ID          string      `json:"id"`
	UserID      string      `json:"userId"`
	Name        string      `json:"name"`
	UserType    string      `json:"userType"`
	Email       string      `json:"email"`
	ContactNo   string      `json:"contactNo"`
	Active      bool        `json:"active"`
	LastLoginAt *time.Time  `json:"lastLoginAt,omitempty"`
	Rights      []UserRight `json:"rights"`
}

// ToResponse converts User to UserResponse
func (u *User) ToResponse() UserResponse {
	rights := u.Rights
	if rights == nil {
		rights = []UserRight{}
	}
	return UserResponse{
		ID:          u.ID.String(),
		UserID:      u.UserCode,
		Name:        u.Name,
		UserType:    u.UserType,
		Email:       u.Email,
		ContactNo:   u.ContactNo,
		Active:      u.Active,
		LastLoginAt: u.LastLoginAt,
		Rights:      rights,
	}
}
