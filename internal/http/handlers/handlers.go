// Handler wiring shared across the role areas.
//
// Every route follows the same pipeline: auth middleware → bind/validate →
// build ordinal procedure arguments → gateway call → sentinel mapping →
// envelope. The helpers in this file implement the two most common tails of
// that pipeline (read routes that 404 on an empty result, mutations that 400
// on one); routes with their own sentinel vocabulary switch on Result.Kind
// themselves.
package handlers

import (
	"context"
	"errors"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/aml-logistics/aml-api/internal/auth"
	"github.com/aml-logistics/aml-api/internal/geo"
	"github.com/aml-logistics/aml-api/internal/http/middleware"
	"github.com/aml-logistics/aml-api/internal/sp"
	"github.com/aml-logistics/aml-api/internal/upload"
)

// Notifier dispatches push notifications; implementations must never let a
// delivery failure surface to the caller.
type Notifier interface {
	NotifyUsers(ctx context.Context, userIDs []string, title, body string, data map[string]any)
}

// DriverDirectory lists the identities notified about new pickup requests.
type DriverDirectory interface {
	DriverEmails(ctx context.Context) ([]string, error)
}

// Geocoder resolves coordinates to a place, best effort.
type Geocoder interface {
	Reverse(ctx context.Context, latitude, longitude float64) geo.Location
}

// PhotoStore persists and removes base64 photo uploads.
type PhotoStore interface {
	SavePickupPhoto(dataURI string) (upload.Photo, error)
	Remove(p upload.Photo) error
}

// Handlers groups the HTTP endpoints for all role areas.
type Handlers struct {
	SP      sp.Caller
	Tokens  *auth.TokenProvider
	Push    Notifier
	Drivers DriverDirectory
	Geo     Geocoder
	Photos  PhotoStore

	// Ping runs the /health database round trip.
	Ping func(ctx context.Context) (time.Duration, error)
	// Env is reported by /health (dev|staging|prod).
	Env string

	// sideEffectTimeout bounds detached side-effect dispatches.
	sideEffectTimeout time.Duration
}

// New constructs a Handlers instance bound to its collaborators.
func New(spc sp.Caller, tokens *auth.TokenProvider, notifier Notifier, drivers DriverDirectory, geocoder Geocoder, photos PhotoStore, ping func(ctx context.Context) (time.Duration, error), env string) *Handlers {
	return &Handlers{
		SP:                spc,
		Tokens:            tokens,
		Push:              notifier,
		Drivers:           drivers,
		Geo:               geocoder,
		Photos:            photos,
		Ping:              ping,
		Env:               env,
		sideEffectTimeout: 30 * time.Second,
	}
}

// principal returns the authenticated caller. Routes behind RequireAuth can
// rely on it; a missing principal is a wiring bug and yields 401 rather than
// a panic.
func principal(c *gin.Context) (auth.Principal, bool) {
	p, ok := middleware.PrincipalFrom(c)
	if !ok {
		Unauthorized(c, "Missing bearer token", ModuleAuth)
		return auth.Principal{}, false
	}
	return p, true
}

// call invokes a stored procedure and handles infrastructure failures
// uniformly: the caller gets (result, true) on success, or (zero, false)
// after a 500 envelope has been written.
func (h *Handlers) call(c *gin.Context, module, proc string, args ...any) (sp.Result, bool) {
	res, err := h.SP.Call(c.Request.Context(), proc, args...)
	if err != nil {
		middleware.ObserveSPCall(proc, "error")
		ServerError(c, err, "Internal server error", module)
		return sp.Result{}, false
	}
	middleware.ObserveSPCall(proc, outcomeLabel(res.Kind))
	return res, true
}

func outcomeLabel(k sp.Kind) string {
	switch k {
	case sp.KindSentinel:
		return "sentinel"
	case sp.KindEmpty:
		return "empty"
	default:
		return "ok"
	}
}

// fetch is the common read tail: empty → 404, sentinel → generic 400,
// payload → 200.
func (h *Handlers) fetch(c *gin.Context, module, proc string, args []any, notFoundMsg, okMsg string) {
	res, ok := h.call(c, module, proc, args...)
	if !ok {
		return
	}
	switch res.Kind {
	case sp.KindEmpty:
		NotFound(c, notFoundMsg, module)
	case sp.KindSentinel:
		Bad(c, notFoundMsg, 400, module, SpecificInvalid)
	default:
		OK(c, res.Raw, okMsg, module)
	}
}

// mutate is the common mutation tail: empty and unknown sentinels → 400,
// payload → 200.
func (h *Handlers) mutate(c *gin.Context, module, proc string, args []any, failMsg, okMsg string) {
	res, ok := h.call(c, module, proc, args...)
	if !ok {
		return
	}
	switch res.Kind {
	case sp.KindEmpty, sp.KindSentinel:
		Bad(c, failMsg, 400, module, SpecificInvalid)
	default:
		OK(c, res.Raw, okMsg, module)
	}
}

// dispatch runs fn detached from the request with its own bounded context
// and the request logger. Side-effect failures are logged, never surfaced.
func (h *Handlers) dispatch(c *gin.Context, name string, fn func(ctx context.Context)) {
	lg := middleware.LoggerFrom(c)
	timeout := h.sideEffectTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	go func() {
		defer func() {
			if rec := recover(); rec != nil {
				lg.Error().Interface("panic", rec).Str("side_effect", name).Msg("side effect panicked")
			}
		}()
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		fn(ctx)
	}()
}

// bindMsg converts a binding error into the client-facing validation
// message for the first violated constraint.
func bindMsg(err error) string {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		switch fe.Tag() {
		case "required":
			return fe.Field() + " wajib diisi"
		case "oneof":
			return fe.Field() + " tidak valid"
		case "min", "max", "gte", "lte":
			return fe.Field() + " di luar rentang yang diizinkan"
		case "email":
			return "email tidak valid"
		case "numeric":
			return fe.Field() + " wajib berupa angka"
		}
		return fe.Field() + " tidak valid"
	}
	return "Payload tidak valid"
}

// nullable forwards an optional string to a procedure as NULL when unset.
func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// pageQuery carries the shared pagination parameters.
type pageQuery struct {
	Page  int `form:"page" binding:"omitempty,min=1"`
	Limit int `form:"limit" binding:"omitempty,min=1,max=100"`
}

// defaults applies page 1 / limit 20 when the client sent nothing.
func (p *pageQuery) defaults() {
	if p.Page == 0 {
		p.Page = 1
	}
	if p.Limit == 0 {
		p.Limit = 20
	}
}
