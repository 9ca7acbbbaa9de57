package main

import (
	"errors"
	"net/http"

	"cineflix/proj/internal/services/movies"
	"cineflix/proj/internal/services/player"
)

func (app *Application) currentUserID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	user, err := app.services.Auth.Current(r.Context())
	if err != nil {
		app.checkoutError(w, r, err)
		return 0, false
	}
	return user.ID, true
}

func (app *Application) saveProgress(w http.ResponseWriter, r *http.Request) {
	movieID, ok := app.extractIDParam(w, r)
	if !ok {
		return
	}
	userID, ok := app.currentUserID(w, r)
	if !ok {
		return
	}
	var req struct {
		CurrentTime float64 `json:"currentTime" validate:"gte=0"`
		Duration    float64 `json:"duration" validate:"gte=0"`
	}
	if !app.readAndValidate(w, r, &req) {
		return
	}
	err := app.services.Player.Save(r.Context(), userID, movieID, req.CurrentTime, req.Duration)
	if err != nil {
		switch {
		case errors.Is(err, movies.ErrMovieNotFound):
			app.Http.NotFound(w, r, err.Error())
		case errors.Is(err, player.ErrInvalidPosition):
			app.Http.UnprocessableEntity(w, r, map[string]string{"currentTime": err.Error()})
		default:
			app.storageError(w, r, err)
		}
		return
	}
	app.Http.Ok(w, r, nil, "Progress saved")
}

// resumePosition answers with position 0 and resume=false when playback
// should start from the beginning.
func (app *Application) resumePosition(w http.ResponseWriter, r *http.Request) {
	movieID, ok := app.extractIDParam(w, r)
	if !ok {
		return
	}
	userID, ok := app.currentUserID(w, r)
	if !ok {
		return
	}
	position, resume, err := app.services.Player.Resume(r.Context(), userID, movieID)
	if err != nil {
		app.storageError(w, r, err)
		return
	}
	app.Http.Ok(w, r, envelop{"position": position, "resume": resume}, "")
}

func (app *Application) forgetProgress(w http.ResponseWriter, r *http.Request) {
	movieID, ok := app.extractIDParam(w, r)
	if !ok {
		return
	}
	userID, ok := app.currentUserID(w, r)
	if !ok {
		return
	}
	if err := app.services.Player.Forget(r.Context(), userID, movieID); err != nil {
		app.storageError(w, r, err)
		return
	}
	app.Http.Ok(w, r, nil, "Progress removed")
}

func (app *Application) continueWatching(w http.ResponseWriter, r *http.Request) {
	userID, ok := app.currentUserID(w, r)
	if !ok {
		return
	}
	entries, err := app.services.Player.ContinueWatching(r.Context(), userID)
	if err != nil {
		app.storageError(w, r, err)
		return
	}
	app.Http.Ok(w, r, envelop{"entries": entries}, "")
}
