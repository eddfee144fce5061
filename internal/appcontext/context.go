// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

// Package appcontext provides the custom Echo context.
package appcontext

import (
	"github.com/labstack/echo/v4"

	"codeberg.org/oliverandrich/shortlink/internal/models"
)

// Context is a custom Echo context carrying the logged-in user.
type Context struct {
	echo.Context
	User *models.User // nil if not authenticated
}

// IsAuthenticated returns true if the user is authenticated.
func (c *Context) IsAuthenticated() bool {
	return c.User != nil
}

// UserID returns the ID of the authenticated user, or nil.
func (c *Context) UserID() *string {
	if c.User == nil {
		return nil
	}
	id := c.User.ID
	return &id
}

// UserOf returns the authenticated user of c, or nil when c is not a
// *Context or nobody is logged in.
func UserOf(c echo.Context) *models.User {
	if cc, ok := c.(*Context); ok {
		return cc.User
	}
	return nil
}
