// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"codeberg.org/oliverandrich/shortlink/internal/apperror"
	"codeberg.org/oliverandrich/shortlink/internal/i18n"
)

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// StatusFor returns the HTTP status for an application error kind.
func StatusFor(kind apperror.Kind) int {
	switch kind {
	case apperror.KindInternal:
		return http.StatusInternalServerError
	case apperror.KindNotFound:
		return http.StatusNotFound
	default:
		return http.StatusBadRequest
	}
}

// ErrorHandler is the echo HTTPErrorHandler. Application errors are
// rendered with a localized message, echo errors keep their status.
func ErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	status, body := errorResponse(c, err)

	var respErr error
	if c.Request().Method == http.MethodHead {
		respErr = c.NoContent(status)
	} else {
		respErr = c.JSON(status, body)
	}
	if respErr != nil {
		slog.Error("error_response_failed", "error", respErr)
	}
}

func errorResponse(c echo.Context, err error) (int, ErrorResponse) {
	ctx := c.Request().Context()

	var he *echo.HTTPError
	if errors.As(err, &he) {
		if he.Code == http.StatusNotFound {
			return http.StatusNotFound, ErrorResponse{
				Error: i18n.T(ctx, apperror.KindNotFound.MessageID()),
				Code:  apperror.KindNotFound.String(),
			}
		}
		text := http.StatusText(he.Code)
		return he.Code, ErrorResponse{
			Error: text,
			Code:  strings.ReplaceAll(strings.ToLower(text), " ", "_"),
		}
	}

	kind := apperror.KindOf(err)
	if kind == apperror.KindInternal {
		slog.Error("request_failed", "method", c.Request().Method, "uri", c.Request().RequestURI, "error", err)
	}

	msg := i18n.TData(ctx, kind.MessageID(), map[string]any{
		"Field": i18n.Field(ctx, apperror.FieldOf(err)),
	})
	return StatusFor(kind), ErrorResponse{Error: msg, Code: kind.String()}
}
