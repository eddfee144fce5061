// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package server

import (
	"github.com/labstack/echo/v4"

	"codeberg.org/oliverandrich/shortlink/internal/handlers"
)

func setupRoutes(e *echo.Echo, h *handlers.Handlers) {
	e.GET("/health", h.Health)
	e.GET("/verify/:id/:user_id", h.VerifyAccount)

	api := e.Group("/api")
	api.POST("/users", h.CreateAccount)
	api.POST("/sessions", h.CreateSession)
	api.DELETE("/sessions", h.DeleteSession)
	api.POST("/links", h.CreateLink)

	profile := api.Group("/profile", RequireAuth())
	profile.GET("/links", h.ProfileLinks)
	profile.POST("/password", h.ChangePassword)

	// Catch-all slug route last
	e.GET("/:slug", h.ReadLink)
}
