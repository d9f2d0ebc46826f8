package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"foodgram/internal/engagement"
	applog "foodgram/internal/log"
	"foodgram/internal/projection"
	"foodgram/internal/validation"
	"foodgram/models"
)

type signupPayload struct {
	Email     string `json:"email" validate:"required,email,max=254"`
	Username  string `json:"username" validate:"required,max=150"`
	FirstName string `json:"first_name" validate:"required,max=150"`
	LastName  string `json:"last_name" validate:"required,max=150"`
	Password  string `json:"password" validate:"required,max=150"`
}

type setPasswordPayload struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password" validate:"required,max=150,nefield=CurrentPassword"`
}

// Signup handles POST /api/users.
func Signup(w http.ResponseWriter, r *http.Request) {
	if !requireDatabase(w, r) {
		return
	}

	var payload signupPayload
	if err := decodeJSON(r, &payload); err != nil {
		invalidPayload(w, r, err)
		return
	}
	if errs := validation.Struct(payload); errs != nil {
		writeFieldErrors(w, errs)
		return
	}

	errs, err := checkAccountAvailable(r, payload.Email, payload.Username)
	if err != nil {
		internalError(w, r, "failed to check account availability", err)
		return
	}
	if errs != nil {
		writeFieldErrors(w, errs)
		return
	}

	user, err := createUser(r, payload.Email, payload.Username, payload.FirstName, payload.LastName, payload.Password)
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			writeFieldErrors(w, validation.FieldErrors{"non_field_errors": {"a user with these credentials already exists"}})
			return
		}
		internalError(w, r, "failed to create user", err)
		return
	}

	applog.Info(r.Context(), "user registered", "userID", user.ID)
	writeJSON(w, http.StatusCreated, projection.User(*user, nil))
}

func checkAccountAvailable(r *http.Request, email, username string) (validation.FieldErrors, error) {
	errs := validation.FieldErrors{}
	users := func() *gorm.DB { return database.WithContext(r.Context()).Model(&models.User{}) }

	var count int64
	if err := users().Where("lower(email) = lower(?)", email).Count(&count).Error; err != nil {
		return nil, fmt.Errorf("count users by email: %w", err)
	}
	if count > 0 {
		errs.Add("email", "a user with this email already exists")
	}

	count = 0
	if err := users().Where("username = ?", username).Count(&count).Error; err != nil {
		return nil, fmt.Errorf("count users by username: %w", err)
	}
	if count > 0 {
		errs.Add("username", "a user with this username already exists")
	}

	if len(errs) == 0 {
		return nil, nil
	}
	return errs, nil
}

// ListUsers handles GET /api/users.
func ListUsers(w http.ResponseWriter, r *http.Request) {
	if !requireDatabase(w, r) {
		return
	}

	viewer, ok := loadViewer(w, r)
	if !ok {
		return
	}

	var users []models.User
	if err := database.WithContext(r.Context()).Order("id asc").Find(&users).Error; err != nil {
		internalError(w, r, "failed to list users", err)
		return
	}

	views := make([]projection.UserView, 0, len(users))
	for _, user := range users {
		views = append(views, projection.User(user, viewer))
	}
	writeJSON(w, http.StatusOK, views)
}

// ShowUser handles GET /api/users/{id}.
func ShowUser(w http.ResponseWriter, r *http.Request) {
	if !requireDatabase(w, r) {
		return
	}

	id, ok := pathID(r, "id")
	if !ok {
		notFound(w)
		return
	}

	user := models.User{}
	if err := database.WithContext(r.Context()).First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			notFound(w)
			return
		}
		internalError(w, r, "failed to load user", err, "userID", id)
		return
	}

	viewer, ok := loadViewer(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, projection.User(user, viewer))
}

// Me handles GET /api/users/me.
func Me(w http.ResponseWriter, r *http.Request) {
	if !requireDatabase(w, r) {
		return
	}

	user, ok := requireCurrentUser(w, r)
	if !ok {
		return
	}

	viewer, ok := loadViewer(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, projection.User(*user, viewer))
}

// SetPassword handles POST /api/users/set_password.
func SetPassword(w http.ResponseWriter, r *http.Request) {
	if !requireDatabase(w, r) {
		return
	}

	user, ok := requireCurrentUser(w, r)
	if !ok {
		return
	}

	var payload setPasswordPayload
	if err := decodeJSON(r, &payload); err != nil {
		invalidPayload(w, r, err)
		return
	}
	if errs := validation.Struct(payload); errs != nil {
		writeFieldErrors(w, errs)
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(payload.CurrentPassword)); err != nil {
		writeFieldErrors(w, validation.FieldErrors{"current_password": {"wrong password"}})
		return
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(payload.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		internalError(w, r, "failed to hash password", err)
		return
	}
	if err := database.WithContext(r.Context()).Model(user).Update("password_hash", string(hashed)).Error; err != nil {
		internalError(w, r, "failed to update password", err, "userID", user.ID)
		return
	}

	applog.Info(r.Context(), "password changed", "userID", user.ID)
	w.WriteHeader(http.StatusNoContent)
}

// Subscriptions handles GET /api/users/subscriptions.
func Subscriptions(w http.ResponseWriter, r *http.Request) {
	if !requireDatabase(w, r) {
		return
	}

	userID, _ := currentUserID(r)
	limit, err := queryLimit(r, "recipes_limit")
	if err != nil {
		writeFieldErrors(w, validation.FieldErrors{"recipes_limit": {err.Error()}})
		return
	}

	authors, err := memberships.SubscribedAuthors(r.Context(), userID)
	if err != nil {
		internalError(w, r, "failed to load subscriptions", err, "userID", userID)
		return
	}

	ids := make([]uint, 0, len(authors))
	for _, author := range authors {
		ids = append(ids, author.ID)
	}
	byAuthor, err := recipeWriter.ByAuthors(r.Context(), ids)
	if err != nil {
		internalError(w, r, "failed to load subscribed authors' recipes", err, "userID", userID)
		return
	}

	viewer, ok := loadViewer(w, r)
	if !ok {
		return
	}

	views := make([]projection.SubscriptionView, 0, len(authors))
	for _, author := range authors {
		views = append(views, projection.Subscription(author, byAuthor[author.ID], viewer, limit))
	}
	writeJSON(w, http.StatusOK, views)
}

// Subscribe handles POST /api/users/{id}/subscribe.
func Subscribe(w http.ResponseWriter, r *http.Request) {
	if !requireDatabase(w, r) {
		return
	}

	userID, _ := currentUserID(r)
	authorID, ok := pathID(r, "id")
	if !ok {
		notFound(w)
		return
	}
	limit, err := queryLimit(r, "recipes_limit")
	if err != nil {
		writeFieldErrors(w, validation.FieldErrors{"recipes_limit": {err.Error()}})
		return
	}

	if err := memberships.Add(r.Context(), engagement.KindSubscription, userID, authorID); err != nil {
		writeMembershipError(w, r, engagement.KindSubscription, err)
		return
	}

	author := models.User{}
	if err := database.WithContext(r.Context()).First(&author, authorID).Error; err != nil {
		internalError(w, r, "failed to load author", err, "authorID", authorID)
		return
	}
	byAuthor, err := recipeWriter.ByAuthors(r.Context(), []uint{authorID})
	if err != nil {
		internalError(w, r, "failed to load author recipes", err, "authorID", authorID)
		return
	}
	viewer, ok := loadViewer(w, r)
	if !ok {
		return
	}

	writeJSON(w, http.StatusCreated, projection.Subscription(author, byAuthor[authorID], viewer, limit))
}

// Unsubscribe handles DELETE /api/users/{id}/subscribe.
func Unsubscribe(w http.ResponseWriter, r *http.Request) {
	removeMembership(w, r, engagement.KindSubscription)
}
