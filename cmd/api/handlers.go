package main

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"cineflix/proj/internal/domain/fields"
	"cineflix/proj/internal/domain/filters"
	"cineflix/proj/internal/lib/decoder"
	"cineflix/proj/internal/repositories"
	"cineflix/proj/internal/services/movies"

	"github.com/go-chi/render"
)

func (app *Application) healthcheck(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, struct {
		Status  string `json:"status"`
		Debug   bool   `json:"debug"`
		Version string `json:"version"`
		Store   string `json:"store"`
	}{
		Status:  "available",
		Debug:   app.cfg.Debug,
		Version: version,
		Store:   app.cfg.Store.Driver,
	})
}

func (app *Application) listMovies(w http.ResponseWriter, r *http.Request) {
	f := filters.NewMovieFilters()
	if errs := decoder.DecodeQuery(&f, r.URL.Query()); errs != nil {
		app.Http.UnprocessableEntity(w, r, errs)
		return
	}
	if errs := f.Validate(); errs != nil {
		app.Http.UnprocessableEntity(w, r, errs)
		return
	}
	list, err := app.services.Movies.List(r.Context(), f)
	if err != nil {
		app.storageError(w, r, err)
		return
	}
	app.Http.Ok(w, r, envelop{"movies": list, "count": len(list)}, "")
}

func (app *Application) featuredMovies(w http.ResponseWriter, r *http.Request) {
	list, err := app.services.Movies.Featured(r.Context())
	if err != nil {
		app.storageError(w, r, err)
		return
	}
	app.Http.Ok(w, r, envelop{"movies": list}, "")
}

func (app *Application) searchMovies(w http.ResponseWriter, r *http.Request) {
	list, err := app.services.Movies.Search(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		app.storageError(w, r, err)
		return
	}
	app.Http.Ok(w, r, envelop{"movies": list, "count": len(list)}, "")
}

func (app *Application) getMovie(w http.ResponseWriter, r *http.Request) {
	id, ok := app.extractIDParam(w, r)
	if !ok {
		return
	}
	movie, err := app.services.Movies.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, movies.ErrMovieNotFound) {
			app.Http.NotFound(w, r, err.Error())
			return
		}
		app.storageError(w, r, err)
		return
	}
	app.Http.Ok(w, r, envelop{"movie": movie}, "")
}

func (app *Application) relatedMovies(w http.ResponseWriter, r *http.Request) {
	id, ok := app.extractIDParam(w, r)
	if !ok {
		return
	}
	list, err := app.services.Movies.Related(r.Context(), id)
	if err != nil {
		if errors.Is(err, movies.ErrMovieNotFound) {
			app.Http.NotFound(w, r, err.Error())
			return
		}
		app.storageError(w, r, err)
		return
	}
	app.Http.Ok(w, r, envelop{"movies": list}, "")
}

func (app *Application) createMovie(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Title     string       `json:"titulo" validate:"required"`
		Synopsis  string       `json:"sinopse"`
		Year      int          `json:"ano_lancamento" validate:"required,gte=1888,lte=2100"`
		Genre     fields.Genre `json:"genero" validate:"required,genre"`
		Rating    float64      `json:"rating" validate:"gte=0,lte=10"`
		PosterURL string       `json:"url_poster"`
		VideoURL  string       `json:"url_video"`
	}
	if !app.readAndValidate(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Title) == "" {
		app.Http.UnprocessableEntity(w, r, map[string]string{"titulo": "This field is required"})
		return
	}
	movie, err := app.services.Movies.Create(r.Context(), movies.CreateMovieInput{
		Title:     strings.TrimSpace(req.Title),
		Synopsis:  strings.TrimSpace(req.Synopsis),
		Year:      req.Year,
		Genre:     req.Genre,
		Rating:    req.Rating,
		PosterURL: req.PosterURL,
		VideoURL:  req.VideoURL,
	})
	if err != nil {
		app.storageError(w, r, err)
		return
	}
	app.Http.Created(w, r, envelop{"movie": movie}, "Movie added")
}

func (app *Application) updateMovie(w http.ResponseWriter, r *http.Request) {
	id, ok := app.extractIDParam(w, r)
	if !ok {
		return
	}
	var req struct {
		Title     *string       `json:"titulo" validate:"omitempty,min=1"`
		Synopsis  *string       `json:"sinopse"`
		Year      *int          `json:"ano_lancamento" validate:"omitempty,gte=1888,lte=2100"`
		Genre     *fields.Genre `json:"genero" validate:"omitempty,genre"`
		Rating    *float64      `json:"rating" validate:"omitempty,gte=0,lte=10"`
		PosterURL *string       `json:"url_poster"`
		VideoURL  *string       `json:"url_video"`
	}
	if !app.readAndValidate(w, r, &req) {
		return
	}
	patch := repositories.MoviePatch{
		Title:     req.Title,
		Synopsis:  req.Synopsis,
		Year:      req.Year,
		Genre:     req.Genre,
		PosterURL: req.PosterURL,
		VideoURL:  req.VideoURL,
	}
	if req.Rating != nil {
		rating := fields.NewRating(*req.Rating)
		patch.Rating = &rating
	}
	movie, err := app.services.Movies.Update(r.Context(), id, patch)
	if err != nil {
		if errors.Is(err, movies.ErrMovieNotFound) {
			app.Http.NotFound(w, r, err.Error())
			return
		}
		app.storageError(w, r, err)
		return
	}
	app.Http.Ok(w, r, envelop{"movie": movie}, "Movie updated")
}

func (app *Application) deleteMovie(w http.ResponseWriter, r *http.Request) {
	id, ok := app.extractIDParam(w, r)
	if !ok || !app.confirmed(w, r) {
		return
	}
	if err := app.services.Movies.Delete(r.Context(), id); err != nil {
		if errors.Is(err, movies.ErrMovieNotFound) {
			app.Http.NotFound(w, r, err.Error())
			return
		}
		app.storageError(w, r, err)
		return
	}
	app.Http.Ok(w, r, nil, "Movie deleted")
}

// deleteMovies handles DELETE /movies?ids=1,2,3&confirm=true.
func (app *Application) deleteMovies(w http.ResponseWriter, r *http.Request) {
	ids, err := decoder.SplitIDs(r.URL.Query().Get("ids"))
	if err != nil {
		app.Http.UnprocessableEntity(w, r, map[string]string{"ids": err.Error()})
		return
	}
	if !app.confirmed(w, r) {
		return
	}
	deleted, err := app.services.Movies.DeleteMany(r.Context(), ids)
	if err != nil {
		app.storageError(w, r, err)
		return
	}
	app.Http.Ok(w, r, envelop{"deleted": deleted}, "")
}

// uploadVideo streams the request body as the movie's video file. The
// client-side file name may be passed in ?filename=.
func (app *Application) uploadVideo(w http.ResponseWriter, r *http.Request) {
	id, ok := app.extractIDParam(w, r)
	if !ok {
		return
	}
	limit := app.cfg.Assets.MaxUploadBytes
	if r.ContentLength > limit {
		app.Http.TooLarge(w, r, movies.ErrVideoTooLarge.Error())
		return
	}
	rc := http.NewResponseController(w)
	deadline := time.Now().Add(30 * time.Minute)
	_ = rc.SetReadDeadline(deadline)
	_ = rc.SetWriteDeadline(deadline)

	body := http.MaxBytesReader(w, r.Body, limit)
	defer body.Close()
	movie, err := app.services.Movies.AttachVideo(r.Context(), id, r.URL.Query().Get("filename"), r.ContentLength, body)
	if err != nil {
		var maxBytesError *http.MaxBytesError
		switch {
		case errors.Is(err, movies.ErrMovieNotFound):
			app.Http.NotFound(w, r, err.Error())
		case errors.Is(err, movies.ErrVideoTooLarge), errors.As(err, &maxBytesError):
			app.Http.TooLarge(w, r, movies.ErrVideoTooLarge.Error())
		case errors.Is(err, movies.ErrInvalidVideo):
			app.Http.UnsupportedMediaType(w, r, err.Error())
		case errors.Is(err, movies.ErrAssetsDisabled):
			app.Http.ServiceUnavailable(w, r, err.Error())
		default:
			app.storageError(w, r, err)
		}
		return
	}
	app.Http.Ok(w, r, envelop{"movie": movie}, "Video uploaded")
}

func (app *Application) listPlans(w http.ResponseWriter, r *http.Request) {
	plans, err := app.services.Plans.FindAll(r.Context())
	if err != nil {
		app.storageError(w, r, err)
		return
	}
	app.Http.Ok(w, r, envelop{"plans": plans}, "")
}
