// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package handlers

import (
	"context"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"codeberg.org/oliverandrich/shortlink/internal/apperror"
	"codeberg.org/oliverandrich/shortlink/internal/service"
	"codeberg.org/oliverandrich/shortlink/internal/services/session"
)

// Pinger reports whether the database is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Handlers contains all HTTP handlers.
type Handlers struct {
	svc      *service.Service
	sessions *session.Manager
	db       Pinger
	baseURL  string
}

// New creates a new Handlers instance.
func New(svc *service.Service, sessions *session.Manager, db Pinger, baseURL string) *Handlers {
	return &Handlers{
		svc:      svc,
		sessions: sessions,
		db:       db,
		baseURL:  strings.TrimSuffix(baseURL, "/"),
	}
}

// Health returns the health status.
func (h *Handlers) Health(c echo.Context) error {
	if h.db != nil {
		if err := h.db.Ping(c.Request().Context()); err != nil {
			return c.JSON(http.StatusServiceUnavailable, map[string]string{
				"status": "unavailable",
			})
		}
	}
	return c.JSON(http.StatusOK, map[string]string{
		"status": "ok",
	})
}

// bind decodes the request body into v. Malformed input is a bad request.
func bind(c echo.Context, v any) error {
	if err := c.Bind(v); err != nil {
		return apperror.ErrBadRequest
	}
	return nil
}
