package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/skywatch/telescope-reservation/internal/engine"
	"github.com/skywatch/telescope-reservation/internal/repository"
)

// getUserID extracts the user_id from echo.Context and converts it to uint64.
func getUserID(c echo.Context) (uint64, error) {
	v := c.Get("user_id")
	switch t := v.(type) {
	case uint64:
		return t, nil
	case int:
		return uint64(t), nil
	case int64:
		return uint64(t), nil
	case float64:
		return uint64(t), nil
	case string:
		if n, err := strconv.ParseUint(t, 10, 64); err == nil {
			return n, nil
		}
	}
	return 0, errors.New("invalid user_id in context")
}

// callerFrom builds the engine's caller context from the identity the JWT
// middleware stored on the request.  Requests that never passed the
// middleware resolve to the anonymous caller.
func callerFrom(c echo.Context) engine.CallerContext {
	uid, err := getUserID(c)
	if err != nil {
		return engine.AnonymousCaller()
	}
	role, _ := c.Get("role").(string)
	if !engine.ValidRole(engine.Role(role)) {
		return engine.Caller(uid)
	}
	return engine.Caller(uid, engine.Role(role))
}

// errorStatus maps an ErrorSet classification onto an HTTP status.
// Referential failures answer 404 like a missing target: an id inside
// the request body that does not resolve is "not found" to the client.
// Field and quota rejections are both "bad request with field-tagged
// messages".
func errorStatus(errs *engine.ErrorSet) int {
	switch errs.Kind {
	case engine.KindNotFound, engine.KindReferential:
		return http.StatusNotFound
	case engine.KindAuthorization:
		return http.StatusForbidden
	case engine.KindConflict:
		return http.StatusConflict
	default:
		return http.StatusBadRequest
	}
}

// respondErrorSet writes a structured rejection.
func respondErrorSet(c echo.Context, errs *engine.ErrorSet) error {
	return c.JSON(errorStatus(errs), errs)
}

// respondStoreError writes the response for a plain store error.  The
// transactional overlap re-check surfaces as 409; everything else is an
// internal failure.
func respondStoreError(c echo.Context, err error) error {
	if errors.Is(err, repository.ErrConflict) {
		return c.JSON(http.StatusConflict, echo.Map{"errors": []engine.Entry{{
			Code:    engine.CodeWindowConflict,
			Message: "a conflicting reservation was committed concurrently",
		}}})
	}
	c.Logger().Error(err)
	return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
}

// paramID parses the :id route parameter.
func paramID(c echo.Context) (uint64, error) {
	return strconv.ParseUint(c.Param("id"), 10, 64)
}
