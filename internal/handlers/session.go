// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"codeberg.org/oliverandrich/shortlink/internal/service"
)

// CreateSession logs a user in and sets the session cookie.
func (h *Handlers) CreateSession(c echo.Context) error {
	var req service.CreateSessionRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	user, err := h.svc.CreateSession(c.Request().Context(), req)
	if err != nil {
		return err
	}

	cookie, err := h.sessions.Create(user.ID, user.DisplayName)
	if err != nil {
		return err
	}
	c.SetCookie(cookie)
	return c.JSON(http.StatusOK, user)
}

// DeleteSession logs the user out.
func (h *Handlers) DeleteSession(c echo.Context) error {
	c.SetCookie(h.sessions.Clear())
	return c.NoContent(http.StatusNoContent)
}
