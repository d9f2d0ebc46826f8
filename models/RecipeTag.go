package models

// RecipeTag is the join row behind Recipe.Tags. The composite primary key
// keeps each (recipe, tag) pair unique.
type RecipeTag struct {
	RecipeID uint `gorm:"primaryKey"`
	TagID    uint `gorm:"primaryKey;index"`
}
