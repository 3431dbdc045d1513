// Package handler exposes HTTP handlers for both authenticated and public
// endpoints.  This file defines the unauthenticated browse API: the
// telescope fleet, the visible target catalog and each instrument's
// public schedule.  Sensitive fields (owner ids, payload details of
// non-public bookings) never appear here.
package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/skywatch/telescope-reservation/internal/repository"
)

// PublicHandler aggregates repositories needed for unauthenticated
// browsing.  It produces sanitized responses suitable for public
// consumption.
type PublicHandler struct {
	Telescopes   *repository.TelescopeRepo
	Bodies       *repository.CelestialBodyRepo
	Reservations *repository.ReservationRepo
}

// PublicTelescope represents an instrument exposed via the public API.
type PublicTelescope struct {
	ID       uint64 `json:"id"`
	Name     string `json:"name"`
	Site     string `json:"site"`
	Aperture string `json:"aperture"`
}

// PublicBody represents a visible catalog entry.
type PublicBody struct {
	ID          uint64 `json:"id"`
	Name        string `json:"name"`
	Designation string `json:"designation"`
}

// PublicReservation is a schedule slot: just the occupied window and the
// variant kind, nothing about who booked it.
type PublicReservation struct {
	ID      uint64    `json:"id"`
	Start   time.Time `json:"start"`
	End     time.Time `json:"end"`
	Status  string    `json:"status"`
	Variant string    `json:"variant"`
}

// GetTelescopes lists the active fleet.
func (h *PublicHandler) GetTelescopes(c echo.Context) error {
	ctx := c.Request().Context()
	scopes, err := h.Telescopes.ListActive(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	out := make([]PublicTelescope, 0, len(scopes))
	for _, t := range scopes {
		out = append(out, PublicTelescope{ID: t.ID, Name: t.Name, Site: t.Site, Aperture: t.Aperture})
	}
	return c.JSON(http.StatusOK, echo.Map{"items": out})
}

// GetBodies lists the visible target catalog.
func (h *PublicHandler) GetBodies(c echo.Context) error {
	ctx := c.Request().Context()
	bodies, err := h.Bodies.ListVisible(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	out := make([]PublicBody, 0, len(bodies))
	for _, b := range bodies {
		out = append(out, PublicBody{ID: b.ID, Name: b.Name, Designation: b.Designation})
	}
	return c.JSON(http.StatusOK, echo.Map{"items": out})
}

// GetTelescopeSchedule lists a telescope's live public reservations.  It
// validates the telescope exists first so an unknown id answers 404
// rather than an empty schedule.
func (h *PublicHandler) GetTelescopeSchedule(c echo.Context) error {
	ctx := c.Request().Context()
	id, err := paramID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	if _, err := h.Telescopes.GetByID(ctx, id); err != nil {
		if err == repository.ErrTelescopeNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "telescope not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	items, err := h.Reservations.ListPublicByTelescope(ctx, id)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	out := make([]PublicReservation, 0, len(items))
	for _, r := range items {
		out = append(out, PublicReservation{
			ID:      r.ID,
			Start:   r.Start,
			End:     r.End,
			Status:  string(r.Status),
			Variant: string(r.Variant.Kind),
		})
	}
	return c.JSON(http.StatusOK, echo.Map{"items": out})
}
