package router

import (
	"github.com/labstack/echo/v4"

	"github.com/skywatch/telescope-reservation/internal/handler"
	"github.com/skywatch/telescope-reservation/internal/middleware"
)

// RegisterReservations registers the reservation endpoints under /v1.
// Every route requires a valid JWT with a recognized membership role; the
// role gates here only mirror the coarse shape of the capability table,
// the admission engine makes the authoritative per-request decision
// (ownership, visibility, priority class).
func RegisterReservations(e *echo.Echo, h *handler.ReservationHandler, jwtSecret string) {
	g := e.Group(
		"/v1",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole("GUEST", "MEMBER", "RESEARCHER", "ADMIN"),
	)

	// Submission for staff review is open to every membership tier.
	g.POST("/reservations/request", h.Request)
	// Direct calendar booking is for staff.
	g.POST("/reservations", h.Create, middleware.RequireRole("RESEARCHER", "ADMIN"))

	g.GET("/reservations/:id", h.Get)
	g.PUT("/reservations/:id", h.Update)
	g.DELETE("/reservations/:id", h.Cancel)
	g.GET("/my-reservations", h.ListMine)

	// Review of requested reservations.
	g.POST("/reservations/:id/approve", h.Approve, middleware.RequireRole("RESEARCHER", "ADMIN"))
	g.POST("/reservations/:id/deny", h.Deny, middleware.RequireRole("RESEARCHER", "ADMIN"))

	// Manual free-control sessions are operator territory.
	g.POST("/reservations/:id/start", h.Start, middleware.RequireRole("ADMIN"))
	g.POST("/reservations/:id/stop", h.Stop, middleware.RequireRole("ADMIN"))

	// Viewer-sharing grants for non-public reservations.
	g.POST("/reservations/:id/shares/:user_id", h.AddShare)
	g.DELETE("/reservations/:id/shares/:user_id", h.RemoveShare)
}
