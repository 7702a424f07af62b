package domain

import (
	"time"

	"golang.org/x/crypto/bcrypt"
)

type Role string

const (
	RoleStudent Role = "student"
	RoleDriver  Role = "driver"
	RoleAdmin   Role = "admin"
)

func (r Role) Valid() bool {
	switch r {
	case RoleStudent, RoleDriver, RoleAdmin:
		return true
	}
	return false
}

// User is the shared identity record. Role-specific data lives in the
// profile structs below, keyed by the Role discriminant; dispatch on Role
// explicitly instead of relying on schema inheritance.
type User struct {
	ID           int64  `gorm:"primaryKey" json:"id"`
	Name         string `gorm:"not null" json:"name"`
	Email        string `gorm:"uniqueIndex;not null" json:"email"`
	PasswordHash string `gorm:"column:password_hash" json:"-"`
	PhoneNumber  string `json:"phone_number"`
	Role         Role   `gorm:"not null;default:student" json:"role"`

	Student *StudentProfile `gorm:"foreignKey:UserID" json:"student,omitempty"`
	Driver  *DriverProfile  `gorm:"foreignKey:UserID" json:"driver,omitempty"`
	Admin   *AdminProfile   `gorm:"foreignKey:UserID" json:"admin,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (User) TableName() string { return "users" }

func (u *User) SetPassword(plain string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.PasswordHash = string(hash)
	return nil
}

func (u *User) CheckPassword(plain string) bool {
	return bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(plain)) == nil
}

type StudentProfile struct {
	ID            int64  `gorm:"primaryKey" json:"id"`
	UserID        int64  `gorm:"uniqueIndex;not null" json:"user_id"`
	StudentNumber string `json:"student_number"`
}

func (StudentProfile) TableName() string { return "student_profiles" }

type DriverProfile struct {
	ID            int64   `gorm:"primaryKey" json:"id"`
	UserID        int64   `gorm:"uniqueIndex;not null" json:"user_id"`
	LicenseNumber string  `json:"license_number"`
	IsApproved    bool    `gorm:"default:false" json:"is_approved"`
	IsAvailable   bool    `gorm:"default:true" json:"is_available"`
	Rating        float64 `json:"rating"`
	TotalTrips    int     `json:"total_trips"`
}

func (DriverProfile) TableName() string { return "driver_profiles" }

type AdminProfile struct {
	ID         int64  `gorm:"primaryKey" json:"id"`
	UserID     int64  `gorm:"uniqueIndex;not null" json:"user_id"`
	AdminLevel int    `gorm:"default:1" json:"admin_level"`
	Department string `json:"department"`
}

func (AdminProfile) TableName() string { return "admin_profiles" }
