package handlers

import (
	"errors"
	"net/http"

	"gorm.io/gorm"

	"foodgram/internal/engagement"
	applog "foodgram/internal/log"
	"foodgram/internal/projection"
	"foodgram/internal/recipes"
	"foodgram/models"
)

// requireCurrentUser loads the session user, writing 401 when the session
// refers to no account.
func requireCurrentUser(w http.ResponseWriter, r *http.Request) (*models.User, bool) {
	user, err := loadCurrentUser(r)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			writeJSONError(w, http.StatusUnauthorized, "authentication credentials were not provided")
			return nil, false
		}
		internalError(w, r, "failed to load current user", err)
		return nil, false
	}
	return user, true
}

// loadViewer returns the membership view of the session user, or nil for
// anonymous requests.
func loadViewer(w http.ResponseWriter, r *http.Request) (*projection.Viewer, bool) {
	if !ActiveSession(r) {
		return nil, true
	}
	userID, _ := currentUserID(r)
	viewer, err := memberships.Viewer(r.Context(), userID)
	if err != nil {
		internalError(w, r, "failed to load viewer memberships", err, "userID", userID)
		return nil, false
	}
	return viewer, true
}

func writeMembershipError(w http.ResponseWriter, r *http.Request, kind engagement.Kind, err error) {
	switch {
	case errors.Is(err, engagement.ErrConflict):
		applog.Debug(r.Context(), "membership conflict", "kind", kind.String(), "error", err)
		writeJSONError(w, http.StatusBadRequest, kind.ConflictMessage())
	case errors.Is(err, engagement.ErrTargetNotFound):
		notFound(w)
	default:
		internalError(w, r, "failed to add membership", err, "kind", kind.String())
	}
}

// addRecipeMembership handles POST /api/recipes/{id}/favorite and
// /shopping_cart, answering with the short recipe shape.
func addRecipeMembership(w http.ResponseWriter, r *http.Request, kind engagement.Kind) {
	if !requireDatabase(w, r) {
		return
	}

	userID, _ := currentUserID(r)
	recipeID, ok := pathID(r, "id")
	if !ok {
		notFound(w)
		return
	}

	if err := memberships.Add(r.Context(), kind, userID, recipeID); err != nil {
		writeMembershipError(w, r, kind, err)
		return
	}

	recipe, err := recipeWriter.Load(r.Context(), recipeID)
	if err != nil {
		if errors.Is(err, recipes.ErrNotFound) {
			notFound(w)
			return
		}
		internalError(w, r, "failed to load recipe", err, "recipeID", recipeID)
		return
	}
	writeJSON(w, http.StatusCreated, projection.Short(*recipe))
}

// removeMembership deletes the session user's membership of kind for the
// {id} target. The target must exist; an absent membership is a 400.
func removeMembership(w http.ResponseWriter, r *http.Request, kind engagement.Kind) {
	if !requireDatabase(w, r) {
		return
	}

	userID, _ := currentUserID(r)
	targetID, ok := pathID(r, "id")
	if !ok {
		notFound(w)
		return
	}

	var target any = &models.Recipe{}
	if kind == engagement.KindSubscription {
		target = &models.User{}
	}
	var count int64
	if err := database.WithContext(r.Context()).Model(target).Where("id = ?", targetID).Count(&count).Error; err != nil {
		internalError(w, r, "failed to check membership target", err, "kind", kind.String(), "targetID", targetID)
		return
	}
	if count == 0 {
		notFound(w)
		return
	}

	removed, err := memberships.Remove(r.Context(), kind, userID, targetID)
	if err != nil {
		internalError(w, r, "failed to remove membership", err, "kind", kind.String(), "targetID", targetID)
		return
	}
	if !removed {
		writeJSONError(w, http.StatusBadRequest, kind.AbsentMessage())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
