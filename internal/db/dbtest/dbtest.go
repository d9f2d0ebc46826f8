// Package dbtest opens migrated in-memory sqlite databases for tests.
package dbtest

import (
	"fmt"
	"strings"
	"sync/atomic"
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	appdb "foodgram/internal/db"
	"foodgram/models"
)

var sequence atomic.Int64

// Open returns a fresh, migrated database private to t.
func Open(t testing.TB) *gorm.DB {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s_%d?mode=memory&cache=shared", name, sequence.Add(1))
	db, err := gorm.Open(sqlite.Open(dsn), appdb.GormConfig(logger.Silent))
	if err != nil {
		t.Fatalf("open sqlite database: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("get sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() {
		sqlDB.Close()
	})

	if err := appdb.AutoMigrate(db); err != nil {
		t.Fatalf("migrate schema: %v", err)
	}
	return db
}

// User inserts an account with the given username; the email is derived from it.
func User(t testing.TB, db *gorm.DB, username string) *models.User {
	t.Helper()
	user := &models.User{
		Email:        username + "@example.com",
		Username:     username,
		FirstName:    strings.ToUpper(username[:1]) + username[1:],
		LastName:     "Tester",
		PasswordHash: "hash",
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("create user %q: %v", username, err)
	}
	return user
}

// Ingredient inserts a catalogue ingredient.
func Ingredient(t testing.TB, db *gorm.DB, name string, unit models.MeasurementUnit) *models.Ingredient {
	t.Helper()
	ingredient := &models.Ingredient{Name: name, MeasurementUnit: unit}
	if err := db.Create(ingredient).Error; err != nil {
		t.Fatalf("create ingredient %q: %v", name, err)
	}
	return ingredient
}

// Tag inserts a tag; its slug is derived from name.
func Tag(t testing.TB, db *gorm.DB, name, color string) *models.Tag {
	t.Helper()
	tag := &models.Tag{Name: name, Color: color}
	if err := db.Create(tag).Error; err != nil {
		t.Fatalf("create tag %q: %v", name, err)
	}
	return tag
}

// Recipe inserts a recipe row with the given ingredient amounts, bypassing
// validation. amounts maps ingredient id to amount.
func Recipe(t testing.TB, db *gorm.DB, author *models.User, name string, amounts map[uint]int, tags ...*models.Tag) *models.Recipe {
	t.Helper()
	recipe := &models.Recipe{
		AuthorID:    author.ID,
		Name:        name,
		Text:        name + " instructions",
		Image:       "/media/recipes/" + models.Slugify(name) + ".png",
		CookingTime: 10,
	}
	if err := db.Omit("Author", "Ingredients", "Tags").Create(recipe).Error; err != nil {
		t.Fatalf("create recipe %q: %v", name, err)
	}
	for ingredientID, amount := range amounts {
		row := models.IngredientAmount{RecipeID: recipe.ID, IngredientID: ingredientID, Amount: amount}
		if err := db.Create(&row).Error; err != nil {
			t.Fatalf("create ingredient amount: %v", err)
		}
	}
	for _, tag := range tags {
		if err := db.Create(&models.RecipeTag{RecipeID: recipe.ID, TagID: tag.ID}).Error; err != nil {
			t.Fatalf("link tag: %v", err)
		}
	}
	return recipe
}
