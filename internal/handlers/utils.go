package handlers

import (
	"fmt"
	"strings"

	"finance-tracker/internal/errors"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

// ErrUnauthorized is returned when user context is invalid
var ErrUnauthorized = fmt.Errorf("unauthorized")

// getUserIDFromContext reads the user placed into the context by RequireAuth
func getUserIDFromContext(c echo.Context) (uuid.UUID, error) {
	userIDValue := c.Get("user_id")
	if userIDValue == nil {
		return uuid.UUID{}, ErrUnauthorized
	}

	userID, ok := userIDValue.(uuid.UUID)
	if !ok {
		return uuid.UUID{}, ErrUnauthorized
	}

	return userID, nil
}

// requireUser answers 401 when no user is present; ok is false in that case
func requireUser(c echo.Context) (uuid.UUID, bool, error) {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		return uuid.Nil, false, SendError(c, errors.AuthMissingToken)
	}
	return userID, true, nil
}

// pathUUID parses a path parameter and answers 400 when it is not a UUID
func pathUUID(c echo.Context, name string) (uuid.UUID, bool, error) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		return uuid.Nil, false, SendError(c, errors.ValidationInvalidID,
			errors.WithDetails(fmt.Sprintf("%s must be a valid UUID", name)))
	}
	return id, true, nil
}

func getIntParam(c echo.Context, name string, defaultValue int) int {
	param := c.QueryParam(name)
	if param == "" {
		return defaultValue
	}

	var value int
	if _, err := fmt.Sscanf(param, "%d", &value); err != nil {
		return defaultValue
	}

	return value
}

// getBoolParam reads a flag from the query string or a form body
func getBoolParam(c echo.Context, name string, defaultValue bool) bool {
	switch strings.ToLower(strings.TrimSpace(c.FormValue(name))) {
	case "true", "1", "yes", "on":
		return true
	case "false", "0", "no", "off":
		return false
	default:
		return defaultValue
	}
}
