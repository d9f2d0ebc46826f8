package models

import "time"

// ShoppingCart puts a recipe into a user's shopping cart.
type ShoppingCart struct {
	ID        uint    `gorm:"primaryKey"`
	UserID    uint    `gorm:"not null;uniqueIndex:idx_cart_user_recipe"`
	RecipeID  uint    `gorm:"not null;uniqueIndex:idx_cart_user_recipe;index"`
	User      *User   `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
	Recipe    *Recipe `gorm:"foreignKey:RecipeID;constraint:OnDelete:CASCADE"`
	CreatedAt time.Time
}
