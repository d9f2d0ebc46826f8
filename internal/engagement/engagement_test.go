package engagement

import (
	"context"
	"errors"
	"testing"

	"foodgram/internal/db/dbtest"
	"foodgram/models"
)

func TestAddFavoriteTwiceConflicts(t *testing.T) {
	db := dbtest.Open(t)
	manager := NewManager(db)
	ctx := context.Background()

	author := dbtest.User(t, db, "chef")
	fan := dbtest.User(t, db, "fan")
	recipe := dbtest.Recipe(t, db, author, "Soup", nil)

	if err := manager.Add(ctx, KindFavorite, fan.ID, recipe.ID); err != nil {
		t.Fatalf("first Add() error = %v", err)
	}
	err := manager.Add(ctx, KindFavorite, fan.ID, recipe.ID)
	if !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}

	var count int64
	if err := db.Model(&models.Favorite{}).Where("user_id = ? AND recipe_id = ?", fan.ID, recipe.ID).Count(&count).Error; err != nil {
		t.Fatalf("count favorites: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected exactly one favorite row, got %d", count)
	}
}

func TestAddUnknownTarget(t *testing.T) {
	db := dbtest.Open(t)
	manager := NewManager(db)
	user := dbtest.User(t, db, "fan")

	for _, kind := range []Kind{KindFavorite, KindShoppingCart, KindSubscription} {
		if err := manager.Add(context.Background(), kind, user.ID, 404); !errors.Is(err, ErrTargetNotFound) {
			t.Fatalf("%s: expected ErrTargetNotFound, got %v", kind, err)
		}
	}
}

func TestRemoveReportsWhetherRowExisted(t *testing.T) {
	db := dbtest.Open(t)
	manager := NewManager(db)
	ctx := context.Background()

	author := dbtest.User(t, db, "chef")
	fan := dbtest.User(t, db, "fan")
	recipe := dbtest.Recipe(t, db, author, "Stew", nil)

	removed, err := manager.Remove(ctx, KindShoppingCart, fan.ID, recipe.ID)
	if err != nil || removed {
		t.Fatalf("Remove() of absent row = (%t, %v), want (false, nil)", removed, err)
	}

	if err := manager.Add(ctx, KindShoppingCart, fan.ID, recipe.ID); err != nil {
		t.Fatalf("Add() error = %v", err)
	}
	removed, err = manager.Remove(ctx, KindShoppingCart, fan.ID, recipe.ID)
	if err != nil || !removed {
		t.Fatalf("Remove() of present row = (%t, %v), want (true, nil)", removed, err)
	}
}

func TestSubscriptionsAndViewer(t *testing.T) {
	db := dbtest.Open(t)
	manager := NewManager(db)
	ctx := context.Background()

	author := dbtest.User(t, db, "chef")
	baker := dbtest.User(t, db, "baker")
	fan := dbtest.User(t, db, "fan")
	recipe := dbtest.Recipe(t, db, author, "Pie", nil)

	for _, target := range []uint{baker.ID, author.ID} {
		if err := manager.Add(ctx, KindSubscription, fan.ID, target); err != nil {
			t.Fatalf("subscribe to %d: %v", target, err)
		}
	}
	if err := manager.Add(ctx, KindSubscription, fan.ID, author.ID); !errors.Is(err, ErrConflict) {
		t.Fatalf("expected conflict on duplicate subscription, got %v", err)
	}
	if err := manager.Add(ctx, KindFavorite, fan.ID, recipe.ID); err != nil {
		t.Fatalf("favorite: %v", err)
	}

	authors, err := manager.SubscribedAuthors(ctx, fan.ID)
	if err != nil {
		t.Fatalf("SubscribedAuthors() error = %v", err)
	}
	if len(authors) != 2 || authors[0].ID != author.ID || authors[1].ID != baker.ID {
		t.Fatalf("unexpected authors: %+v", authors)
	}

	viewer, err := manager.Viewer(ctx, fan.ID)
	if err != nil {
		t.Fatalf("Viewer() error = %v", err)
	}
	if !viewer.HasFavorite(recipe.ID) || viewer.HasInCart(recipe.ID) || !viewer.FollowsAuthor(baker.ID) {
		t.Fatalf("unexpected viewer memberships: %+v", viewer)
	}

	anonymous, err := manager.Viewer(ctx, 0)
	if err != nil || anonymous != nil {
		t.Fatalf("Viewer(0) = (%v, %v), want (nil, nil)", anonymous, err)
	}
}

func TestSelfSubscriptionIsAllowed(t *testing.T) {
	db := dbtest.Open(t)
	manager := NewManager(db)
	user := dbtest.User(t, db, "narcissus")

	if err := manager.Add(context.Background(), KindSubscription, user.ID, user.ID); err != nil {
		t.Fatalf("expected self-subscription to succeed, got %v", err)
	}
}

func TestKindMessages(t *testing.T) {
	t.Parallel()

	if KindFavorite.ConflictMessage() != "already in favorites" {
		t.Fatalf("unexpected favorite conflict message %q", KindFavorite.ConflictMessage())
	}
	if KindShoppingCart.AbsentMessage() != "not in shopping cart" {
		t.Fatalf("unexpected cart absent message %q", KindShoppingCart.AbsentMessage())
	}
	if KindSubscription.String() != "subscription" {
		t.Fatalf("unexpected kind name %q", KindSubscription.String())
	}
}
