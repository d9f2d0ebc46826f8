package handlers

import (
	"net/http"

	"github.com/a-h/templ"

	"foodgram/internal/admin"
	applog "foodgram/internal/log"
	adminviews "foodgram/internal/views/admin"
)

// AdminIndex redirects to the first admin list page.
func AdminIndex(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, adminviews.Sections[0].Path, http.StatusSeeOther)
}

func AdminRecipes(w http.ResponseWriter, r *http.Request) {
	renderAdminList(w, r, func(filters admin.Filters) (templ.Component, error) {
		rows, err := adminQueries.Recipes(r.Context(), filters)
		return adminviews.RecipeList(filters, rows), err
	})
}

func AdminIngredients(w http.ResponseWriter, r *http.Request) {
	renderAdminList(w, r, func(filters admin.Filters) (templ.Component, error) {
		rows, err := adminQueries.Ingredients(r.Context(), filters)
		return adminviews.IngredientList(filters, rows), err
	})
}

func AdminTags(w http.ResponseWriter, r *http.Request) {
	renderAdminList(w, r, func(filters admin.Filters) (templ.Component, error) {
		rows, err := adminQueries.Tags(r.Context(), filters)
		return adminviews.TagList(filters, rows), err
	})
}

func AdminUsers(w http.ResponseWriter, r *http.Request) {
	renderAdminList(w, r, func(filters admin.Filters) (templ.Component, error) {
		rows, err := adminQueries.Users(r.Context(), filters)
		return adminviews.UserList(filters, rows), err
	})
}

func AdminSubscriptions(w http.ResponseWriter, r *http.Request) {
	renderAdminList(w, r, func(filters admin.Filters) (templ.Component, error) {
		rows, err := adminQueries.Subscriptions(r.Context(), filters)
		return adminviews.SubscriptionList(filters, rows), err
	})
}

func AdminFavorites(w http.ResponseWriter, r *http.Request) {
	renderAdminList(w, r, func(filters admin.Filters) (templ.Component, error) {
		rows, err := adminQueries.Favorites(r.Context(), filters)
		return adminviews.FavoriteList(filters, rows), err
	})
}

func renderAdminList(w http.ResponseWriter, r *http.Request, build func(admin.Filters) (templ.Component, error)) {
	if adminQueries == nil {
		http.Error(w, "service unavailable", http.StatusServiceUnavailable)
		return
	}

	filters := admin.FiltersFromRequest(r)
	component, err := build(filters)
	if err != nil {
		applog.Error(r.Context(), "failed to load admin listing", "path", r.URL.Path, "error", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := component.Render(r.Context(), w); err != nil {
		applog.Error(r.Context(), "failed to render admin listing", "path", r.URL.Path, "error", err)
	}
}
