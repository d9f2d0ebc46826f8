package handlers

import (
	"errors"
	"net/http"
	"strings"

	"gorm.io/gorm"

	"foodgram/internal/projection"
	"foodgram/models"
)

// ListTags handles GET /api/tags.
func ListTags(w http.ResponseWriter, r *http.Request) {
	if !requireDatabase(w, r) {
		return
	}

	var tags []models.Tag
	if err := database.WithContext(r.Context()).Order("id asc").Find(&tags).Error; err != nil {
		internalError(w, r, "failed to list tags", err)
		return
	}

	views := make([]projection.TagView, 0, len(tags))
	for _, tag := range tags {
		views = append(views, projection.Tag(tag))
	}
	writeJSON(w, http.StatusOK, views)
}

// ShowTag handles GET /api/tags/{id}.
func ShowTag(w http.ResponseWriter, r *http.Request) {
	var tag models.Tag
	if !loadByID(w, r, &tag, "tag") {
		return
	}
	writeJSON(w, http.StatusOK, projection.Tag(tag))
}

// ListIngredients handles GET /api/ingredients. The optional name parameter
// is a case-insensitive prefix.
func ListIngredients(w http.ResponseWriter, r *http.Request) {
	if !requireDatabase(w, r) {
		return
	}

	query := database.WithContext(r.Context()).Order("name asc, id asc")
	if prefix := strings.TrimSpace(r.URL.Query().Get("name")); prefix != "" {
		query = query.Where(`LOWER(name) LIKE ? ESCAPE '\'`, escapeLike(strings.ToLower(prefix))+"%")
	}

	var ingredients []models.Ingredient
	if err := query.Find(&ingredients).Error; err != nil {
		internalError(w, r, "failed to list ingredients", err)
		return
	}

	views := make([]projection.IngredientView, 0, len(ingredients))
	for _, ingredient := range ingredients {
		views = append(views, projection.Ingredient(ingredient))
	}
	writeJSON(w, http.StatusOK, views)
}

// ShowIngredient handles GET /api/ingredients/{id}.
func ShowIngredient(w http.ResponseWriter, r *http.Request) {
	var ingredient models.Ingredient
	if !loadByID(w, r, &ingredient, "ingredient") {
		return
	}
	writeJSON(w, http.StatusOK, projection.Ingredient(ingredient))
}

func loadByID(w http.ResponseWriter, r *http.Request, dst any, label string) bool {
	if !requireDatabase(w, r) {
		return false
	}

	id, ok := pathID(r, "id")
	if !ok {
		notFound(w)
		return false
	}

	if err := database.WithContext(r.Context()).First(dst, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			notFound(w)
			return false
		}
		internalError(w, r, "failed to load "+label, err, "id", id)
		return false
	}
	return true
}

func escapeLike(value string) string {
	return strings.NewReplacer(`%`, `\%`, `_`, `\_`).Replace(value)
}
