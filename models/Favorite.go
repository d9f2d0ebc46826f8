package models

import "time"

// Favorite marks a recipe as a favorite of a user.
type Favorite struct {
	ID        uint    `gorm:"primaryKey"`
	UserID    uint    `gorm:"not null;uniqueIndex:idx_favorite_user_recipe"`
	RecipeID  uint    `gorm:"not null;uniqueIndex:idx_favorite_user_recipe;index"`
	User      *User   `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
	Recipe    *Recipe `gorm:"foreignKey:RecipeID;constraint:OnDelete:CASCADE"`
	CreatedAt time.Time
}
