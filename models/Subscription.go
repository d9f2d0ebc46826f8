package models

import "time"

// Subscription records that User follows Author.
type Subscription struct {
	ID        uint  `gorm:"primaryKey"`
	UserID    uint  `gorm:"not null;uniqueIndex:idx_subscription_user_author"`
	AuthorID  uint  `gorm:"not null;uniqueIndex:idx_subscription_user_author;index"`
	User      *User `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
	Author    *User `gorm:"foreignKey:AuthorID;constraint:OnDelete:CASCADE"`
	CreatedAt time.Time
}
