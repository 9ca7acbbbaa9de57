package main

import (
	"errors"
	"net/http"
	"strings"

	"cineflix/proj/internal/domain/models"
	"cineflix/proj/internal/repositories"
	"cineflix/proj/internal/services/auth"
	"cineflix/proj/internal/services/users"
)

func (app *Application) signup(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name            string `json:"name" validate:"required"`
		Email           string `json:"email" validate:"required,simpleemail"`
		Password        string `json:"password" validate:"required,min=6" errorMsg:"Password must have at least 6 characters"`
		ConfirmPassword string `json:"confirm_password" validate:"required,eqfield=Password" errorMsg:"Passwords do not match"`
	}
	if !app.readAndValidate(w, r, &req) {
		return
	}
	user, err := app.services.Auth.Signup(r.Context(), strings.TrimSpace(req.Name), strings.TrimSpace(req.Email), req.Password)
	if err != nil {
		if errors.Is(err, auth.ErrEmailTaken) {
			app.Http.Conflict(w, r, err.Error())
			return
		}
		app.storageError(w, r, err)
		return
	}
	app.Http.Created(w, r, envelop{"user": publicUser(user)}, "Account created, you can sign in now")
}

func (app *Application) login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email" validate:"required"`
		Password string `json:"password" validate:"required"`
	}
	if !app.readAndValidate(w, r, &req) {
		return
	}
	user, err := app.services.Auth.Login(r.Context(), strings.TrimSpace(req.Email), req.Password)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			app.Http.Unauthorized(w, r, err.Error())
			return
		}
		app.storageError(w, r, err)
		return
	}
	app.Http.Ok(w, r, envelop{"user": publicUser(user)}, "Signed in")
}

func (app *Application) logout(w http.ResponseWriter, r *http.Request) {
	if err := app.services.Auth.Logout(r.Context()); err != nil {
		app.storageError(w, r, err)
		return
	}
	app.Http.Ok(w, r, nil, "Signed out")
}

// session returns the signed-in user, re-read from the users collection.
func (app *Application) session(w http.ResponseWriter, r *http.Request) {
	user, err := app.services.Auth.Refresh(r.Context())
	if err != nil {
		if errors.Is(err, auth.ErrNotAuthenticated) {
			app.Http.Unauthorized(w, r, err.Error())
			return
		}
		app.storageError(w, r, err)
		return
	}
	app.Http.Ok(w, r, envelop{"user": publicUser(user)}, "")
}

func (app *Application) listUsers(w http.ResponseWriter, r *http.Request) {
	var (
		list []models.User
		err  error
	)
	if q := r.URL.Query().Get("q"); q != "" {
		list, err = app.services.Users.Search(r.Context(), q)
	} else {
		list, err = app.services.Users.List(r.Context())
	}
	if err != nil {
		app.storageError(w, r, err)
		return
	}
	app.Http.Ok(w, r, envelop{"users": publicUsers(list), "count": len(list)}, "")
}

func (app *Application) getUser(w http.ResponseWriter, r *http.Request) {
	id, ok := app.extractIDParam(w, r)
	if !ok {
		return
	}
	user, err := app.services.Users.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, users.ErrUserNotFound) {
			app.Http.NotFound(w, r, err.Error())
			return
		}
		app.storageError(w, r, err)
		return
	}
	app.Http.Ok(w, r, envelop{"user": publicUser(user)}, "")
}

func (app *Application) updateUser(w http.ResponseWriter, r *http.Request) {
	id, ok := app.extractIDParam(w, r)
	if !ok {
		return
	}
	var req struct {
		Name      *string `json:"name" validate:"omitempty,min=1"`
		Email     *string `json:"email" validate:"omitempty,simpleemail"`
		PlanID    *int64  `json:"plano_id" validate:"omitempty,gte=1"`
		ClearPlan bool    `json:"clear_plan"`
	}
	if !app.readAndValidate(w, r, &req) {
		return
	}
	user, err := app.services.Users.Update(r.Context(), id, repositories.UserPatch{
		Name:      req.Name,
		Email:     req.Email,
		PlanID:    req.PlanID,
		ClearPlan: req.ClearPlan,
	})
	if err != nil {
		switch {
		case errors.Is(err, users.ErrUserNotFound):
			app.Http.NotFound(w, r, err.Error())
		case errors.Is(err, users.ErrEmailInUse):
			app.Http.Conflict(w, r, err.Error())
		case errors.Is(err, users.ErrPlanNotFound):
			app.Http.UnprocessableEntity(w, r, map[string]string{"plano_id": err.Error()})
		default:
			app.storageError(w, r, err)
		}
		return
	}
	app.Http.Ok(w, r, envelop{"user": publicUser(user)}, "User updated")
}

func (app *Application) deleteUser(w http.ResponseWriter, r *http.Request) {
	id, ok := app.extractIDParam(w, r)
	if !ok || !app.confirmed(w, r) {
		return
	}
	if err := app.services.Users.Delete(r.Context(), id); err != nil {
		if errors.Is(err, users.ErrUserNotFound) {
			app.Http.NotFound(w, r, err.Error())
			return
		}
		app.storageError(w, r, err)
		return
	}
	app.Http.Ok(w, r, nil, "User deleted")
}
