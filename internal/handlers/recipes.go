package handlers

import (
	"bytes"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/goccy/go-json"

	"foodgram/internal/engagement"
	applog "foodgram/internal/log"
	"foodgram/internal/projection"
	"foodgram/internal/recipes"
	"foodgram/internal/shopping"
	"foodgram/internal/validation"
	"foodgram/models"
)

const (
	shoppingListFilename = "shopping_list.txt"

	// maxRecipeBodyBytes caps recipe payloads, which carry the base64 image.
	maxRecipeBodyBytes = 10 << 20
)

// ListRecipes handles GET /api/recipes.
func ListRecipes(w http.ResponseWriter, r *http.Request) {
	if !requireDatabase(w, r) {
		return
	}

	filter, errs := recipeFilterFromRequest(r)
	if errs != nil {
		writeFieldErrors(w, errs)
		return
	}

	userID, _ := currentUserID(r)
	if !ActiveSession(r) {
		userID = 0
	}
	if isTruthy(r.URL.Query().Get("is_favorited")) {
		if userID == 0 {
			writeJSON(w, http.StatusOK, []projection.RecipeView{})
			return
		}
		filter.FavoritedBy = userID
	}
	if isTruthy(r.URL.Query().Get("is_in_shopping_cart")) {
		if userID == 0 {
			writeJSON(w, http.StatusOK, []projection.RecipeView{})
			return
		}
		filter.InCartOf = userID
	}

	results, err := recipeWriter.List(r.Context(), filter)
	if err != nil {
		internalError(w, r, "failed to list recipes", err)
		return
	}

	viewer, ok := loadViewer(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, projection.Recipes(results, viewer))
}

func recipeFilterFromRequest(r *http.Request) (recipes.Filter, validation.FieldErrors) {
	values := r.URL.Query()
	filter := recipes.Filter{}
	errs := validation.FieldErrors{}

	if raw := strings.TrimSpace(values.Get("author")); raw != "" {
		author, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			errs.Add("author", "enter a valid author id")
		}
		filter.AuthorID = uint(author)
	}
	for _, slug := range values["tags"] {
		if slug = strings.TrimSpace(slug); slug != "" {
			filter.TagSlugs = append(filter.TagSlugs, slug)
		}
	}
	limit, err := queryLimit(r, "limit")
	if err != nil {
		errs.Add("limit", err.Error())
	}
	filter.Limit = limit

	if len(errs) > 0 {
		return filter, errs
	}
	return filter, nil
}

// decodeRecipeInput reads at most maxRecipeBodyBytes of the request body
// into input, writing 413 or 400 and returning false on failure.
func decodeRecipeInput(w http.ResponseWriter, r *http.Request, input *recipes.Input) bool {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxRecipeBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			applog.Debug(r.Context(), "recipe payload too large", "path", r.URL.Path, "limit", tooLarge.Limit)
			writeJSONError(w, http.StatusRequestEntityTooLarge, "request body too large")
			return false
		}
		invalidPayload(w, r, err)
		return false
	}
	if err := json.Unmarshal(body, input); err != nil {
		invalidPayload(w, r, err)
		return false
	}
	return true
}

func isTruthy(value string) bool {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "1", "true", "yes":
		return true
	}
	return false
}

// ShowRecipe handles GET /api/recipes/{id}.
func ShowRecipe(w http.ResponseWriter, r *http.Request) {
	recipe, ok := loadRecipe(w, r)
	if !ok {
		return
	}
	viewer, ok := loadViewer(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, projection.Recipe(*recipe, viewer))
}

// CreateRecipe handles POST /api/recipes.
func CreateRecipe(w http.ResponseWriter, r *http.Request) {
	if !requireDatabase(w, r) {
		return
	}

	author, ok := requireCurrentUser(w, r)
	if !ok {
		return
	}

	var input recipes.Input
	if !decodeRecipeInput(w, r, &input) {
		return
	}

	recipe, err := recipeWriter.Create(r.Context(), author, input)
	if err != nil {
		writeRecipeError(w, r, err)
		return
	}

	viewer, ok := loadViewer(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusCreated, projection.Recipe(*recipe, viewer))
}

// UpdateRecipe handles PATCH /api/recipes/{id}. Only the author may update.
func UpdateRecipe(w http.ResponseWriter, r *http.Request) {
	recipe, ok := loadOwnedRecipe(w, r)
	if !ok {
		return
	}

	var input recipes.Input
	if !decodeRecipeInput(w, r, &input) {
		return
	}

	updated, err := recipeWriter.Update(r.Context(), recipe, input)
	if err != nil {
		writeRecipeError(w, r, err)
		return
	}

	viewer, ok := loadViewer(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, projection.Recipe(*updated, viewer))
}

// DeleteRecipe handles DELETE /api/recipes/{id}. Only the author may delete.
func DeleteRecipe(w http.ResponseWriter, r *http.Request) {
	recipe, ok := loadOwnedRecipe(w, r)
	if !ok {
		return
	}

	if err := recipeWriter.Delete(r.Context(), recipe); err != nil {
		internalError(w, r, "failed to delete recipe", err, "recipeID", recipe.ID)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func AddFavorite(w http.ResponseWriter, r *http.Request) {
	addRecipeMembership(w, r, engagement.KindFavorite)
}

func RemoveFavorite(w http.ResponseWriter, r *http.Request) {
	removeMembership(w, r, engagement.KindFavorite)
}

func AddToShoppingCart(w http.ResponseWriter, r *http.Request) {
	addRecipeMembership(w, r, engagement.KindShoppingCart)
}

func RemoveFromShoppingCart(w http.ResponseWriter, r *http.Request) {
	removeMembership(w, r, engagement.KindShoppingCart)
}

// ShoppingCart handles GET /api/recipes/shopping_cart with the aggregated
// ingredient list as JSON.
func ShoppingCart(w http.ResponseWriter, r *http.Request) {
	items, ok := loadShoppingList(w, r)
	if !ok {
		return
	}
	if items == nil {
		items = []shopping.Item{}
	}
	writeJSON(w, http.StatusOK, items)
}

// DownloadShoppingCart handles GET /api/recipes/download_shopping_cart with
// the aggregated list as a plain-text attachment.
func DownloadShoppingCart(w http.ResponseWriter, r *http.Request) {
	items, ok := loadShoppingList(w, r)
	if !ok {
		return
	}

	var buf bytes.Buffer
	if err := shopping.WriteText(&buf, items); err != nil {
		internalError(w, r, "failed to render shopping list", err)
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+shoppingListFilename+`"`)
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(buf.Bytes()); err != nil {
		applog.Error(r.Context(), "failed to write shopping list", "error", err)
	}
}

func loadShoppingList(w http.ResponseWriter, r *http.Request) ([]shopping.Item, bool) {
	if !requireDatabase(w, r) {
		return nil, false
	}
	userID, _ := currentUserID(r)
	items, err := shoppingList.List(r.Context(), userID)
	if err != nil {
		internalError(w, r, "failed to aggregate shopping list", err, "userID", userID)
		return nil, false
	}
	return items, true
}

func loadRecipe(w http.ResponseWriter, r *http.Request) (*models.Recipe, bool) {
	if !requireDatabase(w, r) {
		return nil, false
	}

	id, ok := pathID(r, "id")
	if !ok {
		notFound(w)
		return nil, false
	}

	recipe, err := recipeWriter.Load(r.Context(), id)
	if err != nil {
		if errors.Is(err, recipes.ErrNotFound) {
			notFound(w)
			return nil, false
		}
		internalError(w, r, "failed to load recipe", err, "recipeID", id)
		return nil, false
	}
	return recipe, true
}

// loadOwnedRecipe loads the {id} recipe and writes 403 unless the session
// user authored it.
func loadOwnedRecipe(w http.ResponseWriter, r *http.Request) (*models.Recipe, bool) {
	recipe, ok := loadRecipe(w, r)
	if !ok {
		return nil, false
	}
	userID, _ := currentUserID(r)
	if recipe.AuthorID != userID {
		applog.Debug(r.Context(), "recipe mutation denied", "recipeID", recipe.ID, "authorID", recipe.AuthorID, "userID", userID)
		writeJSONError(w, http.StatusForbidden, "you do not have permission to perform this action")
		return nil, false
	}
	return recipe, true
}

func writeRecipeError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *recipes.ValidationError
	switch {
	case errors.As(err, &verr):
		errs := validation.FieldErrors{}
		for field, message := range verr.Fields {
			errs.Add(field, message)
		}
		writeFieldErrors(w, errs)
	case errors.Is(err, recipes.ErrCreateFailed):
		writeJSONError(w, http.StatusBadRequest, recipes.ErrCreateFailed.Error())
	case errors.Is(err, recipes.ErrUpdateFailed):
		writeJSONError(w, http.StatusBadRequest, recipes.ErrUpdateFailed.Error())
	default:
		internalError(w, r, "recipe write failed", err)
	}
}
