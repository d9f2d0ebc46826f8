package mock

import (
	"context"
	"fmt"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	appdb "foodgram/internal/db"
	"foodgram/internal/engagement"
	applog "foodgram/internal/log"
	"foodgram/internal/recipes"
	"foodgram/models"
)

// Password is the password of every seeded account.
const Password = "foodgram"

// New returns an in-memory sqlite database seeded with a small recipe
// catalogue. Calling it again returns the same database without reseeding.
func New(ctx context.Context) (*gorm.DB, error) {
	applog.Debug(ctx, "initialising mock database")

	db, err := gorm.Open(sqlite.Open("file:foodgram-mock?mode=memory&cache=shared"), appdb.GormConfig(logger.Silent))
	if err != nil {
		return nil, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(1)

	if err := appdb.AutoMigrate(db); err != nil {
		return nil, err
	}

	var users int64
	if err := db.WithContext(ctx).Model(&models.User{}).Count(&users).Error; err != nil {
		return nil, err
	}
	if users == 0 {
		if err := seed(ctx, db); err != nil {
			return nil, err
		}
	}

	applog.Debug(ctx, "mock database ready")
	return db, nil
}

func seed(ctx context.Context, db *gorm.DB) error {
	applog.Debug(ctx, "seeding mock database")

	password, err := bcrypt.GenerateFromPassword([]byte(Password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	admin := &models.User{
		Email:        "admin@foodgram.app",
		Username:     "admin",
		FirstName:    "Ada",
		LastName:     "Keeper",
		PasswordHash: string(password),
		IsAdmin:      true,
	}
	cook := &models.User{
		Email:        "cook@foodgram.app",
		Username:     "cook",
		FirstName:    "Casey",
		LastName:     "Pot",
		PasswordHash: string(password),
	}
	for _, user := range []*models.User{admin, cook} {
		if err := db.WithContext(ctx).Create(user).Error; err != nil {
			return err
		}
	}

	ingredients := []models.Ingredient{
		{Name: "flour", MeasurementUnit: models.UnitGram},
		{Name: "milk", MeasurementUnit: models.UnitMilliliter},
		{Name: "eggs", MeasurementUnit: models.UnitItem},
		{Name: "sugar", MeasurementUnit: models.UnitGram},
		{Name: "butter", MeasurementUnit: models.UnitGram},
		{Name: "salt", MeasurementUnit: models.UnitTeaspoon},
		{Name: "tomatoes", MeasurementUnit: models.UnitItem},
		{Name: "olive oil", MeasurementUnit: models.UnitTablespoon},
	}
	if err := db.WithContext(ctx).Create(&ingredients).Error; err != nil {
		return err
	}
	byName := make(map[string]uint, len(ingredients))
	for _, ingredient := range ingredients {
		byName[ingredient.Name] = ingredient.ID
	}

	tags := []models.Tag{
		{Name: "Breakfast", Color: "#E26C2D"},
		{Name: "Lunch", Color: "#49B64E"},
		{Name: "Dinner", Color: "#8775D2"},
	}
	for i := range tags {
		if err := db.WithContext(ctx).Create(&tags[i]).Error; err != nil {
			return err
		}
	}

	writer := recipes.NewWriter(db, nil)
	pancakes, err := writer.Create(ctx, cook, recipes.Input{
		Name:        "Pancakes",
		Text:        "Whisk everything together and fry thin rounds in butter.",
		Image:       "/media/recipes/pancakes.png",
		CookingTime: 20,
		Tags:        []uint{tags[0].ID},
		Ingredients: []recipes.IngredientInput{
			{ID: byName["flour"], Amount: 200},
			{ID: byName["milk"], Amount: 300},
			{ID: byName["eggs"], Amount: 2},
			{ID: byName["butter"], Amount: 20},
		},
	})
	if err != nil {
		return fmt.Errorf("seed pancakes: %w", err)
	}
	salad, err := writer.Create(ctx, admin, recipes.Input{
		Name:        "Tomato salad",
		Text:        "Slice the tomatoes, season and dress with oil.",
		Image:       "/media/recipes/tomato-salad.png",
		CookingTime: 10,
		Tags:        []uint{tags[1].ID, tags[2].ID},
		Ingredients: []recipes.IngredientInput{
			{ID: byName["tomatoes"], Amount: 4},
			{ID: byName["olive oil"], Amount: 2},
			{ID: byName["salt"], Amount: 1},
		},
	})
	if err != nil {
		return fmt.Errorf("seed salad: %w", err)
	}

	manager := engagement.NewManager(db)
	memberships := []struct {
		kind   engagement.Kind
		user   uint
		target uint
	}{
		{engagement.KindSubscription, admin.ID, cook.ID},
		{engagement.KindFavorite, admin.ID, pancakes.ID},
		{engagement.KindShoppingCart, admin.ID, pancakes.ID},
		{engagement.KindShoppingCart, cook.ID, salad.ID},
	}
	for _, m := range memberships {
		if err := manager.Add(ctx, m.kind, m.user, m.target); err != nil {
			return fmt.Errorf("seed %s: %w", m.kind, err)
		}
	}

	applog.Debug(ctx, "mock database seeded", "recipes", 2, "ingredients", len(ingredients))
	return nil
}
