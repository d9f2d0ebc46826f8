package models

// IngredientAmount is how much of one ingredient a recipe uses.
type IngredientAmount struct {
	ID           uint        `gorm:"primaryKey"`
	RecipeID     uint        `gorm:"not null;uniqueIndex:idx_recipe_ingredient"`
	IngredientID uint        `gorm:"not null;uniqueIndex:idx_recipe_ingredient;index"`
	Amount       int         `gorm:"not null;check:chk_ingredient_amount,amount >= 1"`
	Ingredient   *Ingredient `gorm:"foreignKey:IngredientID;constraint:OnDelete:CASCADE"`
}
