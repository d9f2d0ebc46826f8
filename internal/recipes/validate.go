package recipes

import (
	"strings"

	"foodgram/internal/validation"
)

// IngredientInput is one {id, amount} entry of a recipe payload.
type IngredientInput struct {
	ID     uint `json:"id" validate:"required"`
	Amount int  `json:"amount" validate:"min=1"`
}

// Input is the writable shape of a recipe. Image is a base64 payload when an
// ImageStore is configured, otherwise it is stored verbatim.
type Input struct {
	Name        string            `json:"name" validate:"required,max=200"`
	Text        string            `json:"text" validate:"required"`
	Image       string            `json:"image"`
	CookingTime int               `json:"cooking_time" validate:"min=1"`
	Ingredients []IngredientInput `json:"ingredients" validate:"required,min=1,unique=ID,dive"`
	Tags        []uint            `json:"tags" validate:"unique"`
}

// Validate checks the payload rules shared by create and update. When
// requireImage is false an empty image keeps the current one.
func Validate(input Input, requireImage bool) *ValidationError {
	verr := newValidationError()

	for _, fe := range validation.Raw(input) {
		switch fe.Field() {
		case "amount":
			verr.add("amount", "amount must be ≥ 1")
		case "id":
			verr.add("ingredient", "ingredient id is required")
		case "ingredients":
			if fe.Tag() == "unique" {
				verr.add("ingredient", "ingredients must be unique")
			} else {
				verr.add("ingredients", "ingredients required")
			}
		case "cooking_time":
			verr.add("cooking_time", "cooking_time must be ≥ 1")
		case "name":
			if fe.Tag() == "max" {
				verr.add("name", "name must be at most 200 characters")
			} else {
				verr.add("name", "name is required")
			}
		case "text":
			verr.add("text", "text is required")
		case "tags":
			verr.add("tags", "tags must be unique")
		default:
			verr.add(fe.Field(), validation.Message(fe))
		}
	}

	if strings.TrimSpace(input.Name) == "" {
		verr.add("name", "name is required")
	}
	if strings.TrimSpace(input.Text) == "" {
		verr.add("text", "text is required")
	}
	if requireImage && strings.TrimSpace(input.Image) == "" {
		verr.add("image", "image is required")
	}

	if verr.empty() {
		return nil
	}
	return verr
}
