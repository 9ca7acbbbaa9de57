package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"cineflix/proj/internal/domain/models"
	"cineflix/proj/internal/lib/validator"
	"cineflix/proj/internal/storage"

	"github.com/go-chi/chi/v5"
)

func (app *Application) extractIDParam(w http.ResponseWriter, r *http.Request) (id int64, extracted bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		app.Http.BadRequest(w, r, "invalid ID")
		return 0, false
	}
	if id < 1 {
		app.Http.BadRequest(w, r, "id must be greater than zero")
		return 0, false
	}
	return id, true
}

// confirmed reports whether a destructive request carries ?confirm=true.
// The error response is written when it does not.
func (app *Application) confirmed(w http.ResponseWriter, r *http.Request) bool {
	if ok, _ := strconv.ParseBool(r.URL.Query().Get("confirm")); ok {
		return true
	}
	app.Http.BadRequest(w, r, "deletion must be confirmed with ?confirm=true")
	return false
}

// readAndValidate decodes the JSON body into dst and runs the struct
// validator on it. The error response is written when it returns false.
func (app *Application) readAndValidate(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := app.readJSON(w, r, dst); err != nil {
		app.Http.BadRequest(w, r, err.Error())
		return false
	}
	if errs := validator.ValidateStruct(app.validator, dst); errs != nil {
		app.Http.UnprocessableEntity(w, r, errs)
		return false
	}
	return true
}

// storageError answers with 503 for an unreachable store and 500 otherwise.
func (app *Application) storageError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, storage.ErrUnavailable) {
		app.Http.setupLogPerReq(r).Error(err.Error())
		app.Http.ServiceUnavailable(w, r, "Storage is temporarily unavailable, nothing was changed.")
		return
	}
	app.Http.ServerError(w, r, err, "")
}

func publicUser(u models.User) models.User {
	u.Password = ""
	return u
}

func publicUsers(users []models.User) []models.User {
	out := make([]models.User, len(users))
	for i, u := range users {
		out[i] = publicUser(u)
	}
	return out
}

func (app *Application) readJSON(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	return app.readJSONLimit(w, r, dst, 1_048_576)
}

func (app *Application) readJSONLimit(w http.ResponseWriter, r *http.Request, dst interface{}, maxBytes int64) error {
	src := http.MaxBytesReader(w, r.Body, maxBytes)
	defer io.Copy(io.Discard, src)
	dec := json.NewDecoder(src)
	dec.DisallowUnknownFields()
	err := dec.Decode(dst)
	if err != nil {
		return handleJsonErr(err)
	}
	err = dec.Decode(&struct{}{})
	if err != io.EOF {
		return errors.New("body must only contain a single JSON value")
	}
	return nil
}

func handleJsonErr(err error) error {
	var syntaxError *json.SyntaxError
	var unmarshalTypeError *json.UnmarshalTypeError
	var invalidUnmarshalError *json.InvalidUnmarshalError
	var maxBytesError *http.MaxBytesError
	switch {
	case errors.As(err, &syntaxError):
		return fmt.Errorf("body contains badly-formed JSON (at character %d)", syntaxError.Offset)

	case errors.Is(err, io.ErrUnexpectedEOF):
		return errors.New("body contains badly-formed JSON")

	case errors.As(err, &unmarshalTypeError):
		if unmarshalTypeError.Field != "" {
			return fmt.Errorf("body contains incorrect JSON type for field %q", unmarshalTypeError.Field)
		}
		return fmt.Errorf("body contains incorrect JSON type (at character %d)", unmarshalTypeError.Offset)

	case errors.Is(err, io.EOF):
		return errors.New("body must not be empty")

	case errors.As(err, &maxBytesError):
		return fmt.Errorf("body must not be larger than %d bytes", maxBytesError.Limit)

	case errors.As(err, &invalidUnmarshalError):
		panic(err)
	default:
		return err
	}
}
