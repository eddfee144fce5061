// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package handlers

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"codeberg.org/oliverandrich/shortlink/internal/apperror"
	"codeberg.org/oliverandrich/shortlink/internal/appcontext"
	"codeberg.org/oliverandrich/shortlink/internal/i18n"
	"codeberg.org/oliverandrich/shortlink/internal/service"
)

// CreateAccount registers a new, unverified account.
func (h *Handlers) CreateAccount(c echo.Context) error {
	var req service.CreateAccountRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	user, _, err := h.svc.CreateAccount(c.Request().Context(), req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, user)
}

// VerifyAccount consumes an activation link and always sends the browser
// on to the login page.
func (h *Handlers) VerifyAccount(c echo.Context) error {
	_, err := h.svc.VerifyAccount(c.Request().Context(), c.Param("id"), c.Param("user_id"))
	if err != nil {
		slog.Info("verify_failed", "user_id", c.Param("user_id"), "reason", apperror.KindOf(err).String())
	}
	return c.Redirect(http.StatusSeeOther, "/login")
}

// ChangePassword changes the password of the logged-in user.
func (h *Handlers) ChangePassword(c echo.Context) error {
	user := appcontext.UserOf(c)
	if user == nil {
		return echo.ErrForbidden
	}
	var req service.ChangePasswordRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	req.UserID = user.ID

	updated, err := h.svc.ChangePassword(c.Request().Context(), req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, updated)
}

// ProfileLinksResponse is a page of the user's links with a localized
// summary such as "3 links".
type ProfileLinksResponse struct {
	*service.ProfilePage
	Summary string `json:"summary"`
}

// ProfileLinks lists the logged-in user's links, newest first.
func (h *Handlers) ProfileLinks(c echo.Context) error {
	user := appcontext.UserOf(c)
	if user == nil {
		return echo.ErrForbidden
	}

	page := 1
	if p := c.QueryParam("page"); p != "" {
		if n, err := strconv.Atoi(p); err == nil {
			page = n
		}
	}

	ctx := c.Request().Context()
	result, err := h.svc.ReadProfilePage(ctx, user.ID, page)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, ProfileLinksResponse{
		ProfilePage: result,
		Summary:     i18n.TPlural(ctx, "links_count", result.TotalLinks),
	})
}
