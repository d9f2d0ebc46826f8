// Package engagement manages a user's favorites, shopping cart entries and
// author subscriptions.
package engagement

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	applog "foodgram/internal/log"
	"foodgram/internal/projection"
	"foodgram/models"
)

var (
	// ErrConflict is returned when the membership already exists.
	ErrConflict = errors.New("membership already exists")
	// ErrTargetNotFound is returned when the recipe or author does not exist.
	ErrTargetNotFound = errors.New("membership target not found")
)

// Kind selects a membership set.
type Kind int

const (
	KindFavorite Kind = iota
	KindShoppingCart
	KindSubscription
)

func (k Kind) String() string {
	switch k {
	case KindFavorite:
		return "favorite"
	case KindShoppingCart:
		return "shopping_cart"
	case KindSubscription:
		return "subscription"
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// ConflictMessage is the client-facing message for a duplicate add.
func (k Kind) ConflictMessage() string {
	switch k {
	case KindFavorite:
		return "already in favorites"
	case KindShoppingCart:
		return "already in shopping cart"
	default:
		return "already subscribed"
	}
}

// AbsentMessage is the client-facing message for removing a missing row.
func (k Kind) AbsentMessage() string {
	switch k {
	case KindFavorite:
		return "not in favorites"
	case KindShoppingCart:
		return "not in shopping cart"
	default:
		return "not subscribed"
	}
}

func (k Kind) model() any {
	switch k {
	case KindFavorite:
		return &models.Favorite{}
	case KindShoppingCart:
		return &models.ShoppingCart{}
	default:
		return &models.Subscription{}
	}
}

func (k Kind) row(userID, targetID uint) any {
	switch k {
	case KindFavorite:
		return &models.Favorite{UserID: userID, RecipeID: targetID}
	case KindShoppingCart:
		return &models.ShoppingCart{UserID: userID, RecipeID: targetID}
	default:
		return &models.Subscription{UserID: userID, AuthorID: targetID}
	}
}

func (k Kind) targetColumn() string {
	if k == KindSubscription {
		return "author_id"
	}
	return "recipe_id"
}

func (k Kind) targetModel() any {
	if k == KindSubscription {
		return &models.User{}
	}
	return &models.Recipe{}
}

// Manager adds and removes membership rows.
type Manager struct {
	db *gorm.DB
}

func NewManager(db *gorm.DB) *Manager {
	return &Manager{db: db}
}

// Add inserts the (userID, targetID) membership of kind. A duplicate yields
// an error wrapping ErrConflict. Self-subscription is allowed.
func (m *Manager) Add(ctx context.Context, kind Kind, userID, targetID uint) error {
	err := m.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var targets int64
		if err := tx.Model(kind.targetModel()).Where("id = ?", targetID).Count(&targets).Error; err != nil {
			return err
		}
		if targets == 0 {
			return ErrTargetNotFound
		}

		var existing int64
		err := tx.Model(kind.model()).
			Where("user_id = ? AND "+kind.targetColumn()+" = ?", userID, targetID).
			Count(&existing).Error
		if err != nil {
			return err
		}
		if existing > 0 {
			return fmt.Errorf("%w: %s", ErrConflict, kind.ConflictMessage())
		}

		if err := tx.Create(kind.row(userID, targetID)).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return fmt.Errorf("%w: %s", ErrConflict, kind.ConflictMessage())
			}
			return err
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrConflict) || errors.Is(err, ErrTargetNotFound) {
			return err
		}
		return fmt.Errorf("add %s: %w", kind, err)
	}

	applog.Debug(ctx, "membership added", "kind", kind.String(), "userID", userID, "targetID", targetID)
	return nil
}

// Remove deletes the membership if present and reports whether a row was
// removed. Removing an absent membership is not an error.
func (m *Manager) Remove(ctx context.Context, kind Kind, userID, targetID uint) (bool, error) {
	result := m.db.WithContext(ctx).
		Where("user_id = ? AND "+kind.targetColumn()+" = ?", userID, targetID).
		Delete(kind.model())
	if result.Error != nil {
		return false, fmt.Errorf("remove %s: %w", kind, result.Error)
	}

	applog.Debug(ctx, "membership removed", "kind", kind.String(), "userID", userID, "targetID", targetID, "rows", result.RowsAffected)
	return result.RowsAffected > 0, nil
}

// Viewer loads the memberships of userID for projection. A zero userID is
// the anonymous viewer and yields nil.
func (m *Manager) Viewer(ctx context.Context, userID uint) (*projection.Viewer, error) {
	if userID == 0 {
		return nil, nil
	}

	db := m.db.WithContext(ctx)
	var favorites, cart, authors []uint
	if err := db.Model(&models.Favorite{}).Where("user_id = ?", userID).Pluck("recipe_id", &favorites).Error; err != nil {
		return nil, fmt.Errorf("load favorites: %w", err)
	}
	if err := db.Model(&models.ShoppingCart{}).Where("user_id = ?", userID).Pluck("recipe_id", &cart).Error; err != nil {
		return nil, fmt.Errorf("load shopping cart: %w", err)
	}
	if err := db.Model(&models.Subscription{}).Where("user_id = ?", userID).Pluck("author_id", &authors).Error; err != nil {
		return nil, fmt.Errorf("load subscriptions: %w", err)
	}

	return projection.NewViewer(userID, favorites, cart, authors), nil
}

// SubscribedAuthors returns the authors userID follows ordered by id.
func (m *Manager) SubscribedAuthors(ctx context.Context, userID uint) ([]models.User, error) {
	db := m.db.WithContext(ctx)
	var authors []models.User
	err := db.
		Where("id IN (?)", db.Model(&models.Subscription{}).Select("author_id").Where("user_id = ?", userID)).
		Order("id asc").
		Find(&authors).Error
	if err != nil {
		return nil, fmt.Errorf("list subscriptions: %w", err)
	}
	return authors, nil
}
