package main

import (
	"errors"
	"fmt"
	"net/http"

	"cineflix/proj/internal/domain/models"
	"cineflix/proj/internal/services/admin"
	"cineflix/proj/internal/storage"

	"github.com/go-chi/render"
)

const maxImportBytes = 50 << 20

func (app *Application) adminStats(w http.ResponseWriter, r *http.Request) {
	stats, err := app.services.Admin.Stats(r.Context())
	if err != nil {
		app.storageError(w, r, err)
		return
	}
	app.Http.Ok(w, r, envelop{"stats": stats}, "")
}

func (app *Application) adminReport(w http.ResponseWriter, r *http.Request) {
	report, err := app.services.Admin.Report(r.Context())
	if err != nil {
		app.storageError(w, r, err)
		return
	}
	app.Http.Ok(w, r, envelop{"report": report}, "")
}

// exportData responds with the bare backup document so it can be saved and
// imported again as is.
func (app *Application) exportData(w http.ResponseWriter, r *http.Request) {
	doc, err := app.services.Admin.Export(r.Context())
	if err != nil {
		app.storageError(w, r, err)
		return
	}
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", admin.ExportFileName(doc.ExportDate)))
	render.JSON(w, r, doc)
}

func (app *Application) importData(w http.ResponseWriter, r *http.Request) {
	var doc models.ExportDocument
	if err := app.readJSONLimit(w, r, &doc, maxImportBytes); err != nil {
		app.Http.BadRequest(w, r, "Invalid backup file: "+err.Error())
		return
	}
	written, err := app.services.Admin.Import(r.Context(), doc)
	if err != nil {
		if errors.Is(err, storage.ErrDuplicate) || errors.Is(err, storage.ErrInvalidReference) {
			app.Http.Response(w, r, envelop{
				"errors":   map[string]string{"import": err.Error()},
				"imported": written,
			}, "", http.StatusUnprocessableEntity)
			return
		}
		app.Http.setupLogPerReq(r).Error("import stopped", "written", written, "errMsg", err.Error())
		app.storageError(w, r, err)
		return
	}
	app.Http.Ok(w, r, envelop{"imported": written}, "Data imported")
}
