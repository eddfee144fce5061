// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package handlers

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"codeberg.org/oliverandrich/shortlink/internal/appcontext"
	"codeberg.org/oliverandrich/shortlink/internal/models"
	"codeberg.org/oliverandrich/shortlink/internal/service"
)

// LinkResponse is a created link together with its public URL.
type LinkResponse struct {
	*models.ShortLink
	ShortURL string `json:"short_url"`
}

// CreateLink shortens a URL. Logged-in users own the link.
func (h *Handlers) CreateLink(c echo.Context) error {
	var req service.CreateLinkRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	if cc, ok := c.(*appcontext.Context); ok {
		req.OwnerID = cc.UserID()
	}

	link, err := h.svc.CreateLink(c.Request().Context(), req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, LinkResponse{
		ShortLink: link,
		ShortURL:  h.baseURL + "/" + link.Slug,
	})
}

// ReadLink redirects to the target of a short link and counts the visit.
func (h *Handlers) ReadLink(c echo.Context) error {
	link, err := h.svc.ReadLink(c.Request().Context(), c.Param("slug"))
	if err != nil {
		return err
	}
	return c.Redirect(http.StatusSeeOther, redirectTarget(link.URL))
}

// redirectTarget makes scheme-less targets absolute so browsers do not
// resolve them against the shortener.
func redirectTarget(target string) string {
	lower := strings.ToLower(target)
	if strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://") {
		return target
	}
	return "http://" + target
}
