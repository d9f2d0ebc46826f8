package recipes

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"foodgram/models"
)

// Filter narrows recipe listings. Zero values disable a filter.
type Filter struct {
	AuthorID    uint
	TagSlugs    []string
	FavoritedBy uint
	InCartOf    uint
	Limit       int // <= 0 returns every match
}

// Load returns recipe id with author, tags and ingredient amounts preloaded.
func (w *Writer) Load(ctx context.Context, id uint) (*models.Recipe, error) {
	var recipe models.Recipe
	err := withDetails(w.db.WithContext(ctx)).First(&recipe, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("load recipe %d: %w", id, err)
	}
	return &recipe, nil
}

// List returns recipes matching filter, newest first.
func (w *Writer) List(ctx context.Context, filter Filter) ([]models.Recipe, error) {
	db := w.db.WithContext(ctx)
	query := withDetails(db).Model(&models.Recipe{}).Order("recipes.id desc")

	if filter.AuthorID != 0 {
		query = query.Where("recipes.author_id = ?", filter.AuthorID)
	}
	if len(filter.TagSlugs) > 0 {
		tagged := db.Table("recipe_tags").
			Select("recipe_tags.recipe_id").
			Joins("JOIN tags ON tags.id = recipe_tags.tag_id").
			Where("tags.slug IN ?", filter.TagSlugs)
		query = query.Where("recipes.id IN (?)", tagged)
	}
	if filter.FavoritedBy != 0 {
		query = query.Where("recipes.id IN (?)", db.Model(&models.Favorite{}).Select("recipe_id").Where("user_id = ?", filter.FavoritedBy))
	}
	if filter.InCartOf != 0 {
		query = query.Where("recipes.id IN (?)", db.Model(&models.ShoppingCart{}).Select("recipe_id").Where("user_id = ?", filter.InCartOf))
	}
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}

	var results []models.Recipe
	if err := query.Find(&results).Error; err != nil {
		return nil, fmt.Errorf("list recipes: %w", err)
	}
	return results, nil
}

// ByAuthors groups the recipes of every author in authorIDs, newest first.
func (w *Writer) ByAuthors(ctx context.Context, authorIDs []uint) (map[uint][]models.Recipe, error) {
	grouped := make(map[uint][]models.Recipe, len(authorIDs))
	if len(authorIDs) == 0 {
		return grouped, nil
	}

	var results []models.Recipe
	err := w.db.WithContext(ctx).
		Where("author_id IN ?", authorIDs).
		Order("id desc").
		Find(&results).Error
	if err != nil {
		return nil, fmt.Errorf("list recipes by author: %w", err)
	}
	for _, recipe := range results {
		grouped[recipe.AuthorID] = append(grouped[recipe.AuthorID], recipe)
	}
	return grouped, nil
}

func withDetails(db *gorm.DB) *gorm.DB {
	return db.
		Preload("Author").
		Preload("Tags", func(tx *gorm.DB) *gorm.DB { return tx.Order("tags.id asc") }).
		Preload("Ingredients", func(tx *gorm.DB) *gorm.DB { return tx.Order("ingredient_amounts.id asc") }).
		Preload("Ingredients.Ingredient")
}
