// Package admin provides the searchable listings behind the administrative
// HTML views.
package admin

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"gorm.io/gorm"

	"foodgram/models"
)

// Filters capture the query-string state of an admin list page.
type Filters struct {
	Query    string
	AuthorID uint
	TagSlug  string
}

// FiltersFromRequest extracts filter inputs from an HTTP request.
func FiltersFromRequest(r *http.Request) Filters {
	values := r.URL.Query()
	filters := Filters{
		Query:   strings.TrimSpace(values.Get("q")),
		TagSlug: strings.TrimSpace(values.Get("tag")),
	}
	if author, err := strconv.ParseUint(strings.TrimSpace(values.Get("author")), 10, 64); err == nil {
		filters.AuthorID = uint(author)
	}
	return filters
}

func (f Filters) like() string {
	return "%" + strings.ToLower(f.Query) + "%"
}

type RecipeRow struct {
	ID             uint
	Name           string
	AuthorID       uint
	AuthorUsername string
	Image          string
	CookingTime    int
	FavoritesCount int64
}

type SubscriptionRow struct {
	ID             uint
	UserUsername   string
	UserEmail      string
	AuthorUsername string
	AuthorEmail    string
}

type FavoriteRow struct {
	ID           uint
	UserUsername string
	RecipeName   string
}

// Service runs the admin listings.
type Service struct {
	db *gorm.DB
}

func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

// Recipes lists recipes with their favorite counts. Query matches recipe
// name, author username or tag name.
func (s *Service) Recipes(ctx context.Context, filters Filters) ([]RecipeRow, error) {
	db := s.db.WithContext(ctx)
	query := db.Table("recipes").
		Select("recipes.id, recipes.name, recipes.author_id, users.username AS author_username, recipes.image, recipes.cooking_time, " +
			"(SELECT COUNT(*) FROM favorites WHERE favorites.recipe_id = recipes.id) AS favorites_count").
		Joins("JOIN users ON users.id = recipes.author_id").
		Order("recipes.id desc")

	if filters.Query != "" {
		tagged := db.Table("recipe_tags").
			Select("recipe_tags.recipe_id").
			Joins("JOIN tags ON tags.id = recipe_tags.tag_id").
			Where("LOWER(tags.name) LIKE ?", filters.like())
		query = query.Where("LOWER(recipes.name) LIKE ? OR LOWER(users.username) LIKE ? OR recipes.id IN (?)",
			filters.like(), filters.like(), tagged)
	}
	if filters.AuthorID != 0 {
		query = query.Where("recipes.author_id = ?", filters.AuthorID)
	}
	if filters.TagSlug != "" {
		query = query.Where("recipes.id IN (?)", db.Table("recipe_tags").
			Select("recipe_tags.recipe_id").
			Joins("JOIN tags ON tags.id = recipe_tags.tag_id").
			Where("tags.slug = ?", filters.TagSlug))
	}

	var rows []RecipeRow
	if err := query.Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("admin recipes: %w", err)
	}
	return rows, nil
}

// Ingredients lists the catalogue, optionally filtered by name.
func (s *Service) Ingredients(ctx context.Context, filters Filters) ([]models.Ingredient, error) {
	query := s.db.WithContext(ctx).Order("name asc, measurement_unit asc")
	if filters.Query != "" {
		query = query.Where("LOWER(name) LIKE ?", filters.like())
	}
	var ingredients []models.Ingredient
	if err := query.Find(&ingredients).Error; err != nil {
		return nil, fmt.Errorf("admin ingredients: %w", err)
	}
	return ingredients, nil
}

// Tags lists tags, optionally filtered by name.
func (s *Service) Tags(ctx context.Context, filters Filters) ([]models.Tag, error) {
	query := s.db.WithContext(ctx).Order("name asc")
	if filters.Query != "" {
		query = query.Where("LOWER(name) LIKE ?", filters.like())
	}
	var tags []models.Tag
	if err := query.Find(&tags).Error; err != nil {
		return nil, fmt.Errorf("admin tags: %w", err)
	}
	return tags, nil
}

// Users lists accounts ordered by username. Query matches username or email.
func (s *Service) Users(ctx context.Context, filters Filters) ([]models.User, error) {
	query := s.db.WithContext(ctx).Order("username asc, id asc")
	if filters.Query != "" {
		query = query.Where("LOWER(username) LIKE ? OR LOWER(email) LIKE ?", filters.like(), filters.like())
	}
	var users []models.User
	if err := query.Find(&users).Error; err != nil {
		return nil, fmt.Errorf("admin users: %w", err)
	}
	return users, nil
}

// Subscriptions lists follower/author pairs. Query matches either side's
// username or email.
func (s *Service) Subscriptions(ctx context.Context, filters Filters) ([]SubscriptionRow, error) {
	query := s.db.WithContext(ctx).Table("subscriptions").
		Select("subscriptions.id, followers.username AS user_username, followers.email AS user_email, " +
			"authors.username AS author_username, authors.email AS author_email").
		Joins("JOIN users AS followers ON followers.id = subscriptions.user_id").
		Joins("JOIN users AS authors ON authors.id = subscriptions.author_id").
		Order("subscriptions.id desc")
	if filters.Query != "" {
		like := filters.like()
		query = query.Where("LOWER(followers.username) LIKE ? OR LOWER(followers.email) LIKE ? OR LOWER(authors.username) LIKE ? OR LOWER(authors.email) LIKE ?",
			like, like, like, like)
	}
	var rows []SubscriptionRow
	if err := query.Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("admin subscriptions: %w", err)
	}
	return rows, nil
}

// Favorites lists favorite rows. Query matches username or recipe name.
func (s *Service) Favorites(ctx context.Context, filters Filters) ([]FavoriteRow, error) {
	query := s.db.WithContext(ctx).Table("favorites").
		Select("favorites.id, users.username AS user_username, recipes.name AS recipe_name").
		Joins("JOIN users ON users.id = favorites.user_id").
		Joins("JOIN recipes ON recipes.id = favorites.recipe_id").
		Order("favorites.id desc")
	if filters.Query != "" {
		query = query.Where("LOWER(users.username) LIKE ? OR LOWER(recipes.name) LIKE ?", filters.like(), filters.like())
	}
	var rows []FavoriteRow
	if err := query.Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("admin favorites: %w", err)
	}
	return rows, nil
}
