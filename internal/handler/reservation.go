package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/skywatch/telescope-reservation/internal/engine"
	"github.com/skywatch/telescope-reservation/internal/repository"
)

// ReservationHandler exposes the admission engine over HTTP.  All policy
// lives in the engine; the handler only translates between JSON and the
// command/result protocol.
type ReservationHandler struct {
	Engine       *engine.Engine
	Reservations *repository.ReservationRepo
}

func NewReservationHandler(e *engine.Engine, r *repository.ReservationRepo) *ReservationHandler {
	if e == nil || r == nil {
		panic("nil dependency passed to NewReservationHandler")
	}
	return &ReservationHandler{Engine: e, Reservations: r}
}

// ----- DTOs -----

type variantReq struct {
	Kind        string                 `json:"kind" validate:"required"`
	Coordinates []engine.SkyCoordinate `json:"coordinates,omitempty"`
	Orientation *engine.Orientation    `json:"orientation,omitempty"`
	BodyID      uint64                 `json:"body_id,omitempty"`
}

type reservationReq struct {
	TelescopeID uint64     `json:"telescope_id" validate:"required"`
	OwnerID     uint64     `json:"owner_id"` // defaults to the caller
	Start       time.Time  `json:"start" validate:"required"`
	End         time.Time  `json:"end" validate:"required"`
	Public      bool       `json:"public"`
	Priority    string     `json:"priority"` // STANDARD (default) | MANUAL
	Variant     variantReq `json:"variant" validate:"required"`
}

type reservationResp struct {
	ID          uint64         `json:"id"`
	TelescopeID uint64         `json:"telescope_id"`
	OwnerID     uint64         `json:"owner_id"`
	Start       time.Time      `json:"start"`
	End         time.Time      `json:"end"`
	Public      bool           `json:"public"`
	Priority    string         `json:"priority"`
	Status      string         `json:"status"`
	Variant     engine.Variant `json:"variant"`
}

func toResp(r *engine.Reservation) reservationResp {
	return reservationResp{
		ID:          r.ID,
		TelescopeID: r.TelescopeID,
		OwnerID:     r.OwnerID,
		Start:       r.Start,
		End:         r.End,
		Public:      r.Public,
		Priority:    string(r.Priority),
		Status:      string(r.Status),
		Variant:     r.Variant,
	}
}

// bindAdmission decodes and structurally validates the request body, then
// assembles the engine command.  Range and referential checks stay in the
// engine so rejections come back as one accumulated set.
func (h *ReservationHandler) bindAdmission(c echo.Context, caller engine.CallerContext) (engine.AdmissionRequest, bool) {
	var req reservationReq
	if err := c.Bind(&req); err != nil {
		return engine.AdmissionRequest{}, false
	}
	if err := c.Validate(&req); err != nil {
		return engine.AdmissionRequest{}, false
	}
	if req.OwnerID == 0 {
		req.OwnerID = caller.UserID
	}
	prio := engine.Priority(strings.ToUpper(strings.TrimSpace(req.Priority)))
	if prio == "" {
		prio = engine.PriorityStandard
	}
	return engine.AdmissionRequest{
		TelescopeID: req.TelescopeID,
		OwnerID:     req.OwnerID,
		Start:       req.Start.UTC(),
		End:         req.End.UTC(),
		Public:      req.Public,
		Priority:    prio,
		Variant: engine.Variant{
			Kind:        engine.VariantKind(strings.ToUpper(strings.TrimSpace(req.Variant.Kind))),
			Coordinates: req.Variant.Coordinates,
			Orientation: req.Variant.Orientation,
			BodyID:      req.Variant.BodyID,
		},
	}, true
}

func reqCtx(c echo.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request().Context(), 5*time.Second)
}

// Request submits a reservation for staff review (REQUESTED).
func (h *ReservationHandler) Request(c echo.Context) error {
	return h.admit(c, h.Engine.Request)
}

// Create books directly onto the calendar (SCHEDULED, elevated roles).
func (h *ReservationHandler) Create(c echo.Context) error {
	return h.admit(c, h.Engine.Create)
}

type admitFunc func(context.Context, engine.CallerContext, engine.AdmissionRequest) (uint64, *engine.ErrorSet, error)

func (h *ReservationHandler) admit(c echo.Context, fn admitFunc) error {
	caller := callerFrom(c)
	req, ok := h.bindAdmission(c, caller)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	id, errs, err := fn(ctx, caller, req)
	if err != nil {
		return respondStoreError(c, err)
	}
	if errs != nil {
		return respondErrorSet(c, errs)
	}
	stored, err := h.Reservations.GetByID(ctx, id)
	if err != nil {
		return respondStoreError(c, err)
	}
	return c.JSON(http.StatusCreated, toResp(stored))
}

// Update replaces a reservation's window, visibility and payload.  A
// variant tag change recreates the record under a new id.
func (h *ReservationHandler) Update(c echo.Context) error {
	id, err := paramID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	caller := callerFrom(c)
	req, ok := h.bindAdmission(c, caller)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	newID, errs, err := h.Engine.Update(ctx, caller, id, req)
	if err != nil {
		return respondStoreError(c, err)
	}
	if errs != nil {
		return respondErrorSet(c, errs)
	}
	stored, err := h.Reservations.GetByID(ctx, newID)
	if err != nil {
		return respondStoreError(c, err)
	}
	return c.JSON(http.StatusOK, toResp(stored))
}

type lifecycleFunc func(context.Context, engine.CallerContext, uint64) (*engine.ErrorSet, error)

func (h *ReservationHandler) lifecycle(c echo.Context, fn lifecycleFunc) error {
	id, err := paramID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	errs, err := fn(ctx, callerFrom(c), id)
	if err != nil {
		return respondStoreError(c, err)
	}
	if errs != nil {
		return respondErrorSet(c, errs)
	}
	stored, err := h.Reservations.GetByID(ctx, id)
	if err != nil {
		return respondStoreError(c, err)
	}
	return c.JSON(http.StatusOK, toResp(stored))
}

// Cancel marks the reservation cancelled.
func (h *ReservationHandler) Cancel(c echo.Context) error {
	return h.lifecycle(c, h.Engine.Cancel)
}

// Approve confirms a requested reservation onto the calendar.
func (h *ReservationHandler) Approve(c echo.Context) error {
	return h.lifecycle(c, h.Engine.Approve)
}

// Deny rejects a requested reservation.
func (h *ReservationHandler) Deny(c echo.Context) error {
	return h.lifecycle(c, h.Engine.Deny)
}

// Start begins a scheduled free-control session.
func (h *ReservationHandler) Start(c echo.Context) error {
	return h.lifecycle(c, h.Engine.Start)
}

// Stop ends a running free-control session.
func (h *ReservationHandler) Stop(c echo.Context) error {
	return h.lifecycle(c, h.Engine.Stop)
}

// Get returns one reservation, subject to the view capability rule.
func (h *ReservationHandler) Get(c echo.Context) error {
	id, err := paramID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	stored, err := h.Reservations.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, engine.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"errors": []engine.Entry{{
				Code:    engine.CodeNotFound,
				Message: "reservation not found",
			}}})
		}
		return respondStoreError(c, err)
	}
	d, err := h.Engine.CanView(ctx, callerFrom(c), stored)
	if err != nil {
		return respondStoreError(c, err)
	}
	if !d.Allowed {
		return respondErrorSet(c, d.ErrorSet())
	}
	return c.JSON(http.StatusOK, toResp(stored))
}

// ListMine returns the caller's own reservations.
func (h *ReservationHandler) ListMine(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	items, err := h.Reservations.ListByOwner(ctx, uid)
	if err != nil {
		return respondStoreError(c, err)
	}
	out := make([]reservationResp, 0, len(items))
	for i := range items {
		out = append(out, toResp(&items[i]))
	}
	return c.JSON(http.StatusOK, echo.Map{"items": out})
}

// AddShare grants another user view access to the caller's reservation.
// Only the owner or an admin may grant; the target authorization rule
// already encodes exactly that.
func (h *ReservationHandler) AddShare(c echo.Context) error {
	return h.share(c, h.Reservations.AddShare, http.StatusCreated)
}

// RemoveShare revokes a view grant.
func (h *ReservationHandler) RemoveShare(c echo.Context) error {
	return h.share(c, h.Reservations.RemoveShare, http.StatusNoContent)
}

func (h *ReservationHandler) share(c echo.Context, op func(context.Context, uint64, uint64) error, okStatus int) error {
	id, err := paramID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	beneficiary, err := strconv.ParseUint(c.Param("user_id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid user_id"})
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	_, d, err := h.Engine.AuthorizeTarget(ctx, callerFrom(c), id)
	if err != nil {
		return respondStoreError(c, err)
	}
	if !d.Allowed {
		return respondErrorSet(c, d.ErrorSet())
	}
	if err := op(ctx, id, beneficiary); err != nil {
		return respondStoreError(c, err)
	}
	if okStatus == http.StatusNoContent {
		return c.NoContent(okStatus)
	}
	return c.JSON(okStatus, echo.Map{"reservation_id": id, "user_id": beneficiary})
}
