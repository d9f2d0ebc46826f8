package recipes

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	applog "foodgram/internal/log"
	"foodgram/models"
)

// ImageStore persists uploaded recipe images.
type ImageStore interface {
	SaveBase64(data string) (string, error)
	Remove(path string) error
}

// Writer creates, replaces and deletes recipe aggregates. It does not check
// who is calling; author-only mutation is enforced by the HTTP layer.
type Writer struct {
	db     *gorm.DB
	images ImageStore
}

// NewWriter builds a Writer. images may be nil, in which case Input.Image is
// stored as given.
func NewWriter(db *gorm.DB, images ImageStore) *Writer {
	return &Writer{db: db, images: images}
}

// Create validates input and inserts the recipe, its ingredient amounts and
// its tag links in one transaction.
func (w *Writer) Create(ctx context.Context, author *models.User, input Input) (*models.Recipe, error) {
	if verr := Validate(input, true); verr != nil {
		return nil, verr
	}
	if err := w.checkTags(ctx, input.Tags); err != nil {
		return nil, err
	}

	image, err := w.storeImage(input.Image)
	if err != nil {
		return nil, err
	}

	recipe := &models.Recipe{
		AuthorID:    author.ID,
		Name:        strings.TrimSpace(input.Name),
		Text:        input.Text,
		Image:       image,
		CookingTime: input.CookingTime,
	}

	err = w.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Create(recipe).Error; err != nil {
			return err
		}
		return insertAssociations(tx, recipe.ID, input)
	})
	if err != nil {
		applog.Error(ctx, "recipe creation rolled back", "error", err, "authorID", author.ID)
		w.discardImage(ctx, image)
		return nil, fmt.Errorf("%w: %v", ErrCreateFailed, err)
	}

	applog.Debug(ctx, "recipe created", "recipeID", recipe.ID, "authorID", author.ID)
	return w.Load(ctx, recipe.ID)
}

// Update replaces every ingredient amount and tag link of recipe and updates
// its scalar fields in one transaction. An empty Input.Image keeps the
// current image.
func (w *Writer) Update(ctx context.Context, recipe *models.Recipe, input Input) (*models.Recipe, error) {
	if verr := Validate(input, false); verr != nil {
		return nil, verr
	}
	if err := w.checkTags(ctx, input.Tags); err != nil {
		return nil, err
	}

	updates := map[string]any{
		"name":         strings.TrimSpace(input.Name),
		"text":         input.Text,
		"cooking_time": input.CookingTime,
	}

	var newImage string
	if strings.TrimSpace(input.Image) != "" {
		stored, err := w.storeImage(input.Image)
		if err != nil {
			return nil, err
		}
		newImage = stored
		updates["image"] = stored
	}

	err := w.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := deleteAssociations(tx, recipe.ID); err != nil {
			return err
		}
		if err := insertAssociations(tx, recipe.ID, input); err != nil {
			return err
		}
		return tx.Model(&models.Recipe{}).Where("id = ?", recipe.ID).Updates(updates).Error
	})
	if err != nil {
		applog.Error(ctx, "recipe update rolled back", "error", err, "recipeID", recipe.ID)
		w.discardImage(ctx, newImage)
		return nil, fmt.Errorf("%w: recipe %d: %w", ErrUpdateFailed, recipe.ID, err)
	}

	if newImage != "" && recipe.Image != newImage {
		w.discardImage(ctx, recipe.Image)
	}

	applog.Debug(ctx, "recipe updated", "recipeID", recipe.ID)
	return w.Load(ctx, recipe.ID)
}

// Delete removes recipe with its associations, favorites and cart entries.
func (w *Writer) Delete(ctx context.Context, recipe *models.Recipe) error {
	err := w.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := deleteAssociations(tx, recipe.ID); err != nil {
			return err
		}
		if err := tx.Where("recipe_id = ?", recipe.ID).Delete(&models.Favorite{}).Error; err != nil {
			return err
		}
		if err := tx.Where("recipe_id = ?", recipe.ID).Delete(&models.ShoppingCart{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Recipe{}, recipe.ID).Error
	})
	if err != nil {
		return fmt.Errorf("delete recipe %d: %w", recipe.ID, err)
	}

	w.discardImage(ctx, recipe.Image)
	applog.Debug(ctx, "recipe deleted", "recipeID", recipe.ID)
	return nil
}

func (w *Writer) checkTags(ctx context.Context, ids []uint) error {
	if len(ids) == 0 {
		return nil
	}

	var found []uint
	if err := w.db.WithContext(ctx).Model(&models.Tag{}).Where("id IN ?", ids).Pluck("id", &found).Error; err != nil {
		return fmt.Errorf("load tags: %w", err)
	}
	if len(found) == len(ids) {
		return nil
	}

	known := make(map[uint]struct{}, len(found))
	for _, id := range found {
		known[id] = struct{}{}
	}
	for _, id := range ids {
		if _, ok := known[id]; !ok {
			verr := newValidationError()
			verr.add("tags", fmt.Sprintf("invalid tag id %d", id))
			return verr
		}
	}
	return nil
}

func (w *Writer) storeImage(data string) (string, error) {
	if w.images == nil {
		return data, nil
	}
	path, err := w.images.SaveBase64(data)
	if err != nil {
		verr := newValidationError()
		verr.add("image", "upload a valid image")
		return "", verr
	}
	return path, nil
}

func (w *Writer) discardImage(ctx context.Context, path string) {
	if w.images == nil || path == "" {
		return
	}
	if err := w.images.Remove(path); err != nil {
		applog.Warn(ctx, "failed to remove recipe image", "error", err, "path", path)
	}
}

func deleteAssociations(tx *gorm.DB, recipeID uint) error {
	if err := tx.Where("recipe_id = ?", recipeID).Delete(&models.IngredientAmount{}).Error; err != nil {
		return err
	}
	return tx.Where("recipe_id = ?", recipeID).Delete(&models.RecipeTag{}).Error
}

func insertAssociations(tx *gorm.DB, recipeID uint, input Input) error {
	ids := make([]uint, 0, len(input.Ingredients))
	amounts := make([]models.IngredientAmount, 0, len(input.Ingredients))
	for _, item := range input.Ingredients {
		ids = append(ids, item.ID)
		amounts = append(amounts, models.IngredientAmount{
			RecipeID:     recipeID,
			IngredientID: item.ID,
			Amount:       item.Amount,
		})
	}

	var known int64
	if err := tx.Model(&models.Ingredient{}).Where("id IN ?", ids).Count(&known).Error; err != nil {
		return err
	}
	if int(known) != len(ids) {
		return fmt.Errorf("%w: ids %v", errUnknownIngredient, ids)
	}

	if err := tx.Create(&amounts).Error; err != nil {
		return err
	}

	if len(input.Tags) == 0 {
		return nil
	}
	links := make([]models.RecipeTag, 0, len(input.Tags))
	for _, tagID := range input.Tags {
		links = append(links, models.RecipeTag{RecipeID: recipeID, TagID: tagID})
	}
	return tx.Create(&links).Error
}

// IsValidation reports whether err is a field validation failure.
func IsValidation(err error) bool {
	var verr *ValidationError
	return errors.As(err, &verr)
}
