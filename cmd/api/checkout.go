package main

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"cineflix/proj/internal/domain/fields"
	"cineflix/proj/internal/services/auth"
	"cineflix/proj/internal/services/checkout"

	"github.com/go-chi/chi/v5"
)

// checkoutError maps workflow errors to responses.
func (app *Application) checkoutError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *checkout.ValidationError
	switch {
	case errors.As(err, &verr):
		app.Http.Response(w, r, envelop{"step": verr.Step, "errors": verr.Fields}, "", http.StatusUnprocessableEntity)
	case errors.Is(err, auth.ErrNotAuthenticated):
		app.Http.Unauthorized(w, r, err.Error())
	case errors.Is(err, checkout.ErrWorkflowNotFound):
		app.Http.NotFound(w, r, err.Error())
	case errors.Is(err, checkout.ErrPlanNotFound):
		app.Http.UnprocessableEntity(w, r, map[string]string{"plan": err.Error()})
	case errors.Is(err, checkout.ErrInvalidPeriod):
		app.Http.UnprocessableEntity(w, r, map[string]string{"period": err.Error()})
	case errors.Is(err, checkout.ErrInvalidPromoCode):
		app.Http.UnprocessableEntity(w, r, map[string]string{"code": err.Error()})
	case errors.Is(err, checkout.ErrInvalidRecipient):
		app.Http.UnprocessableEntity(w, r, map[string]string{"recipient": err.Error()})
	case errors.Is(err, checkout.ErrAtFirstStep),
		errors.Is(err, checkout.ErrNoNextStep),
		errors.Is(err, checkout.ErrNotReady),
		errors.Is(err, checkout.ErrCompleted),
		errors.Is(err, checkout.ErrUserNotFound):
		app.Http.Conflict(w, r, err.Error())
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		app.Http.Response(w, r, nil, "Payment processing was interrupted, nothing was charged.", http.StatusServiceUnavailable)
	default:
		app.storageError(w, r, err)
	}
}

func (app *Application) workflowFromURL(w http.ResponseWriter, r *http.Request) (*checkout.Workflow, bool) {
	wf, err := app.services.Checkout.Workflow(chi.URLParam(r, "checkoutID"))
	if err != nil {
		app.checkoutError(w, r, err)
		return nil, false
	}
	return wf, true
}

func (app *Application) respondCheckout(w http.ResponseWriter, r *http.Request, wf *checkout.Workflow, msg string) {
	app.Http.Ok(w, r, envelop{"checkout": app.services.Checkout.View(wf)}, msg)
}

func (app *Application) startCheckout(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Plan   string        `json:"plan" validate:"required"`
		Period fields.Period `json:"period" validate:"omitempty,period"`
	}
	if !app.readAndValidate(w, r, &req) {
		return
	}
	wf, err := app.services.Checkout.Start(r.Context(), req.Plan, req.Period)
	if err != nil {
		app.checkoutError(w, r, err)
		return
	}
	app.Http.Created(w, r, envelop{"checkout": app.services.Checkout.View(wf)}, "")
}

func (app *Application) getCheckout(w http.ResponseWriter, r *http.Request) {
	wf, ok := app.workflowFromURL(w, r)
	if !ok {
		return
	}
	app.respondCheckout(w, r, wf, "")
}

func (app *Application) cancelCheckout(w http.ResponseWriter, r *http.Request) {
	app.services.Checkout.Cancel(chi.URLParam(r, "checkoutID"))
	app.Http.Ok(w, r, nil, "Checkout cancelled")
}

// The setters only store data; validation happens on next/complete.

func (app *Application) setCheckoutAccount(w http.ResponseWriter, r *http.Request) {
	wf, ok := app.workflowFromURL(w, r)
	if !ok {
		return
	}
	var req checkout.AccountInfo
	if err := app.readJSON(w, r, &req); err != nil {
		app.Http.BadRequest(w, r, err.Error())
		return
	}
	if err := wf.SetAccount(req); err != nil {
		app.checkoutError(w, r, err)
		return
	}
	app.respondCheckout(w, r, wf, "")
}

func (app *Application) setCheckoutPayment(w http.ResponseWriter, r *http.Request) {
	wf, ok := app.workflowFromURL(w, r)
	if !ok {
		return
	}
	var req checkout.PaymentInfo
	if err := app.readJSON(w, r, &req); err != nil {
		app.Http.BadRequest(w, r, err.Error())
		return
	}
	if err := wf.SetPayment(req); err != nil {
		app.checkoutError(w, r, err)
		return
	}
	app.respondCheckout(w, r, wf, "")
}

func (app *Application) setCheckoutTerms(w http.ResponseWriter, r *http.Request) {
	wf, ok := app.workflowFromURL(w, r)
	if !ok {
		return
	}
	var req checkout.Terms
	if err := app.readJSON(w, r, &req); err != nil {
		app.Http.BadRequest(w, r, err.Error())
		return
	}
	if err := wf.SetTerms(req.Accepted); err != nil {
		app.checkoutError(w, r, err)
		return
	}
	app.respondCheckout(w, r, wf, "")
}

func (app *Application) applyPromoCode(w http.ResponseWriter, r *http.Request) {
	wf, ok := app.workflowFromURL(w, r)
	if !ok {
		return
	}
	var req struct {
		Code string `json:"code" validate:"required"`
	}
	if !app.readAndValidate(w, r, &req) {
		return
	}
	promo, err := wf.ApplyPromoCode(req.Code)
	if err != nil {
		app.checkoutError(w, r, err)
		return
	}
	app.log.Info("promo applied", "checkout_id", wf.ID(), "code", promo.Code)
	app.respondCheckout(w, r, wf, "Promo code applied")
}

func (app *Application) nextCheckoutStep(w http.ResponseWriter, r *http.Request) {
	wf, ok := app.workflowFromURL(w, r)
	if !ok {
		return
	}
	if err := app.services.Checkout.Next(wf); err != nil {
		app.checkoutError(w, r, err)
		return
	}
	app.respondCheckout(w, r, wf, "")
}

func (app *Application) previousCheckoutStep(w http.ResponseWriter, r *http.Request) {
	wf, ok := app.workflowFromURL(w, r)
	if !ok {
		return
	}
	if err := wf.Previous(); err != nil {
		app.checkoutError(w, r, err)
		return
	}
	app.respondCheckout(w, r, wf, "")
}

func (app *Application) completeCheckout(w http.ResponseWriter, r *http.Request) {
	wf, ok := app.workflowFromURL(w, r)
	if !ok {
		return
	}
	receipt, err := app.services.Checkout.Complete(r.Context(), wf)
	if err != nil {
		app.checkoutError(w, r, err)
		return
	}
	app.Http.Ok(w, r, envelop{"receipt": receipt, "checkout": app.services.Checkout.View(wf)}, "Subscription active")
}

func (app *Application) sendGift(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Plan      string `json:"plan" validate:"required"`
		Recipient string `json:"recipient" validate:"required"`
		Message   string `json:"message" validate:"max=500"`
	}
	if !app.readAndValidate(w, r, &req) {
		return
	}
	err := app.services.Checkout.Gift(r.Context(), req.Plan, strings.TrimSpace(req.Recipient), req.Message)
	if err != nil {
		app.checkoutError(w, r, err)
		return
	}
	app.Http.Ok(w, r, nil, "Gift sent")
}
