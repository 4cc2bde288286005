package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
	"github.com/scalarorg/lending-bridge/pkg/types"
)

type ErrorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind"`
}

func StatusOf(err error) int {
	switch types.KindOf(err) {
	case types.KindAuthorization:
		return http.StatusForbidden
	case types.KindValidation:
		return http.StatusBadRequest
	case types.KindState:
		return http.StatusConflict
	case types.KindEncoding:
		return http.StatusUnprocessableEntity
	case types.KindExternal:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func errorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}
	var httpErr *echo.HTTPError
	if errors.As(err, &httpErr) && types.KindOf(err) == types.KindUnknown {
		msg, ok := httpErr.Message.(string)
		if !ok {
			msg = http.StatusText(httpErr.Code)
		}
		_ = c.JSON(httpErr.Code, ErrorResponse{Error: msg, Kind: types.KindUnknown.String()})
		return
	}
	status := StatusOf(err)
	if status == http.StatusInternalServerError {
		log.Error().Err(err).Str("path", c.Path()).Msg("[ApiServer] unhandled error")
	}
	_ = c.JSON(status, ErrorResponse{Error: err.Error(), Kind: types.KindOf(err).String()})
}

// invalid tags a request decoding problem with a validation sentinel.
func invalid(sentinel error, err error) error {
	return fmt.Errorf("%w: %w", sentinel, err)
}
