// Package projection builds the read-side shapes of recipes and users.
// Every function is pure: viewer-relative flags come from a Viewer value
// rather than from request state, and a nil Viewer is an anonymous reader.
package projection

import "foodgram/models"

// Viewer is the requesting user together with the ids of their memberships.
type Viewer struct {
	UserID        uint
	favorites     map[uint]struct{}
	shoppingCart  map[uint]struct{}
	subscriptions map[uint]struct{}
}

// NewViewer builds a Viewer from membership id lists.
func NewViewer(userID uint, favoriteRecipeIDs, cartRecipeIDs, subscribedAuthorIDs []uint) *Viewer {
	return &Viewer{
		UserID:        userID,
		favorites:     toSet(favoriteRecipeIDs),
		shoppingCart:  toSet(cartRecipeIDs),
		subscriptions: toSet(subscribedAuthorIDs),
	}
}

// HasFavorite reports whether the viewer favorited recipeID.
func (v *Viewer) HasFavorite(recipeID uint) bool {
	return v != nil && contains(v.favorites, recipeID)
}

// HasInCart reports whether recipeID is in the viewer's shopping cart.
func (v *Viewer) HasInCart(recipeID uint) bool {
	return v != nil && contains(v.shoppingCart, recipeID)
}

// FollowsAuthor reports whether the viewer subscribes to authorID.
func (v *Viewer) FollowsAuthor(authorID uint) bool {
	return v != nil && contains(v.subscriptions, authorID)
}

type TagView struct {
	ID    uint   `json:"id"`
	Name  string `json:"name"`
	Color string `json:"color"`
	Slug  string `json:"slug"`
}

type IngredientView struct {
	ID              uint   `json:"id"`
	Name            string `json:"name"`
	MeasurementUnit string `json:"measurement_unit"`
}

type IngredientAmountView struct {
	ID              uint   `json:"id"`
	Name            string `json:"name"`
	MeasurementUnit string `json:"measurement_unit"`
	Amount          int    `json:"amount"`
}

type UserView struct {
	ID           uint   `json:"id"`
	Email        string `json:"email"`
	Username     string `json:"username"`
	FirstName    string `json:"first_name"`
	LastName     string `json:"last_name"`
	IsSubscribed bool   `json:"is_subscribed"`
}

type RecipeView struct {
	ID               uint                   `json:"id"`
	Tags             []TagView              `json:"tags"`
	Author           UserView               `json:"author"`
	Ingredients      []IngredientAmountView `json:"ingredients"`
	IsFavorited      bool                   `json:"is_favorited"`
	IsInShoppingCart bool                   `json:"is_in_shopping_cart"`
	Name             string                 `json:"name"`
	Image            string                 `json:"image"`
	Text             string                 `json:"text"`
	CookingTime      int                    `json:"cooking_time"`
}

// ShortRecipeView is the compact shape returned by favorite and cart toggles
// and nested in subscriptions.
type ShortRecipeView struct {
	ID          uint   `json:"id"`
	Name        string `json:"name"`
	Image       string `json:"image"`
	CookingTime int    `json:"cooking_time"`
}

type SubscriptionView struct {
	UserView
	Recipes      []ShortRecipeView `json:"recipes"`
	RecipesCount int               `json:"recipes_count"`
}

func Tag(tag models.Tag) TagView {
	return TagView{ID: tag.ID, Name: tag.Name, Color: tag.Color, Slug: tag.Slug}
}

func Ingredient(ingredient models.Ingredient) IngredientView {
	return IngredientView{
		ID:              ingredient.ID,
		Name:            ingredient.Name,
		MeasurementUnit: string(ingredient.MeasurementUnit),
	}
}

// User projects user as seen by viewer.
func User(user models.User, viewer *Viewer) UserView {
	return UserView{
		ID:           user.ID,
		Email:        user.Email,
		Username:     user.Username,
		FirstName:    user.FirstName,
		LastName:     user.LastName,
		IsSubscribed: viewer.FollowsAuthor(user.ID),
	}
}

// Recipe projects recipe as seen by viewer. Author, Tags and
// Ingredients.Ingredient are expected to be preloaded.
func Recipe(recipe models.Recipe, viewer *Viewer) RecipeView {
	view := RecipeView{
		ID:               recipe.ID,
		Tags:             make([]TagView, 0, len(recipe.Tags)),
		Ingredients:      make([]IngredientAmountView, 0, len(recipe.Ingredients)),
		IsFavorited:      viewer.HasFavorite(recipe.ID),
		IsInShoppingCart: viewer.HasInCart(recipe.ID),
		Name:             recipe.Name,
		Image:            recipe.Image,
		Text:             recipe.Text,
		CookingTime:      recipe.CookingTime,
	}

	if recipe.Author != nil {
		view.Author = User(*recipe.Author, viewer)
	} else {
		view.Author = UserView{ID: recipe.AuthorID, IsSubscribed: viewer.FollowsAuthor(recipe.AuthorID)}
	}

	for _, tag := range recipe.Tags {
		view.Tags = append(view.Tags, Tag(tag))
	}

	for _, item := range recipe.Ingredients {
		entry := IngredientAmountView{ID: item.IngredientID, Amount: item.Amount}
		if item.Ingredient != nil {
			entry.Name = item.Ingredient.Name
			entry.MeasurementUnit = string(item.Ingredient.MeasurementUnit)
		}
		view.Ingredients = append(view.Ingredients, entry)
	}

	return view
}

// Recipes projects a list of recipes for the same viewer.
func Recipes(recipes []models.Recipe, viewer *Viewer) []RecipeView {
	views := make([]RecipeView, 0, len(recipes))
	for _, recipe := range recipes {
		views = append(views, Recipe(recipe, viewer))
	}
	return views
}

func Short(recipe models.Recipe) ShortRecipeView {
	return ShortRecipeView{
		ID:          recipe.ID,
		Name:        recipe.Name,
		Image:       recipe.Image,
		CookingTime: recipe.CookingTime,
	}
}

// Subscription projects author with their recipes. authorRecipes must hold
// every recipe of the author: recipes_count is its length, while recipes is
// truncated to the first recipesLimit entries. A negative recipesLimit
// leaves recipes untruncated; zero yields an empty list.
func Subscription(author models.User, authorRecipes []models.Recipe, viewer *Viewer, recipesLimit int) SubscriptionView {
	shown := authorRecipes
	if recipesLimit >= 0 && len(shown) > recipesLimit {
		shown = shown[:recipesLimit]
	}

	recipes := make([]ShortRecipeView, 0, len(shown))
	for _, recipe := range shown {
		recipes = append(recipes, Short(recipe))
	}

	return SubscriptionView{
		UserView:     User(author, viewer),
		Recipes:      recipes,
		RecipesCount: len(authorRecipes),
	}
}

func toSet(ids []uint) map[uint]struct{} {
	set := make(map[uint]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}

func contains(set map[uint]struct{}, id uint) bool {
	_, ok := set[id]
	return ok
}
