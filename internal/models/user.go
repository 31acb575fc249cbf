package models

import "time"

// User represents a registered account. Email is the login identifier.
type User struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	Email     string    `json:"email" gorm:"uniqueIndex;size:254;not null"`
	Username  string    `json:"username" gorm:"uniqueIndex;size:150;not null"`
	FirstName string    `json:"first_name" gorm:"size:150;not null"`
	LastName  string    `json:"last_name" gorm:"size:150;not null"`
	Password  string    `json:"-" gorm:"size:255;not null"` // bcrypt hash
	IsStaff   bool      `json:"-" gorm:"not null;default:false"`
	CreatedAt time.Time `json:"-"`
	UpdatedAt time.Time `json:"-"`
}

// Follow is a directed subscription of User to Following.
type Follow struct {
	ID          uint      `gorm:"primaryKey"`
	UserID      uint      `gorm:"not null;uniqueIndex:idx_follow_pair"`
	FollowingID uint      `gorm:"not null;index;uniqueIndex:idx_follow_pair;check:user_id <> following_id"`
	User        User      `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
	Following   User      `gorm:"foreignKey:FollowingID;constraint:OnDelete:CASCADE"`
	CreatedAt   time.Time
}
