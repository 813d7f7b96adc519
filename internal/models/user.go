package models

import "time"

// Role names recognised by the platform.
const (
	RoleSuperAdmin = "superadmin"
	RoleAdmin      = "admin"
	RoleTeacher    = "teacher"
	RoleStudent    = "student"
)

// Account lifecycle states.
const (
	UserStatusPending  = "pending"
	UserStatusApproved = "approved"
	UserStatusRejected = "rejected"
)

// User is any account on the platform regardless of role.
type User struct {
	ID                   uint       `gorm:"primaryKey" json:"id"`
	Name                 string     `gorm:"size:255;not null" json:"name"`
	Email                string     `gorm:"size:255;uniqueIndex;not null" json:"email"`
	PasswordHash         string     `gorm:"size:255;not null" json:"-"`
	Role                 string     `gorm:"size:32;not null;default:student;index" json:"role"`
	IsApproved           bool       `gorm:"not null;default:false" json:"is_approved"`
	Status               string     `gorm:"size:32;not null;default:pending" json:"status"`
	ResetToken           *string    `gorm:"size:128;index" json:"-"`
	ResetTokenExpiration *time.Time `json:"-"`
	CreatedAt            time.Time  `json:"created_at"`
	UpdatedAt            time.Time  `json:"updated_at"`
}

// IsStaff reports whether the user manages content rather than consuming it.
func (u User) IsStaff() bool {
	switch u.Role {
	case RoleSuperAdmin, RoleAdmin, RoleTeacher:
		return true
	default:
		return false
	}
}

// ResetTokenValid reports whether token matches the stored reset token and has not expired.
func (u User) ResetTokenValid(token string, reference time.Time) bool {
	if u.ResetToken == nil || u.ResetTokenExpiration == nil || token == "" {
		return false
	}
	return *u.ResetToken == token && reference.Before(*u.ResetTokenExpiration)
}
