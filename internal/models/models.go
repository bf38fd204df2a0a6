package models

import "time"

type Account struct {
	ID           int64     `gorm:"primaryKey"`
	Email        string    `gorm:"size:255;uniqueIndex;not null"`
	PasswordHash string    `gorm:"size:255;not null"`
	CreatedAt    time.Time `gorm:"not null"`

	Calculations []Calculation `gorm:"foreignKey:AccountID;constraint:OnDelete:CASCADE"`
}

// Calculation is a stored result. AccountID is nil for anonymous rows and
// TotalWater is frozen at creation time.
type Calculation struct {
	ID          int64  `gorm:"primaryKey"`
	AccountID   *int64 `gorm:"index"`
	JuniorCount int    `gorm:"not null;default:0"`
	MiddleCount int    `gorm:"not null;default:0"`
	SeniorCount int    `gorm:"not null;default:0"`
	StaffCount  int    `gorm:"not null;default:0"`
	Season      string `gorm:"size:10;not null"`
	Activity    string `gorm:"size:10;not null"`
	TotalWater  float64
	CreatedAt   time.Time `gorm:"index;not null"`
}
