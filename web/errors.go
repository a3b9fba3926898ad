package web

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
	"go.pilab.hu/hospital/apiclient"
	"go.pilab.hu/hospital/domain"
	"go.pilab.hu/hospital/session"
)

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Error string `json:"error"`
	// UpstreamStatus is the backend status when the failure came from the backend.
	UpstreamStatus int `json:"upstream_status,omitempty"`
}

// respondError maps an error to a response. Backend 4xx statuses pass through so the page
// can show the backend's message; a backend 401 does not end the local session.
func respondError(c echo.Context, err error) error {
	status := http.StatusInternalServerError
	body := ErrorResponse{Error: apiclient.Message(err)}

	var (
		apiErr *apiclient.APIError
		tErr   *apiclient.TransportError
	)

	switch {
	case errors.As(err, &apiErr):
		body.UpstreamStatus = apiErr.Status
		status = http.StatusBadGateway
		if apiErr.Status >= 400 && apiErr.Status < 500 {
			status = apiErr.Status
		}
	case errors.As(err, &tErr), errors.Is(err, session.ErrNoAccessToken):
		status = http.StatusBadGateway
	case errors.Is(err, session.ErrSignInInProgress):
		status = http.StatusConflict
	case errors.Is(err, session.ErrMissingCredentials),
		errors.Is(err, apiclient.ErrInvalidPatientID),
		errors.Is(err, apiclient.ErrInvalidDoctorID),
		errors.Is(err, apiclient.ErrEmptyMessage),
		errors.Is(err, domain.ErrInvalidBloodPressure),
		errors.Is(err, domain.ErrInvalidYesNo),
		errors.Is(err, domain.ErrPatientNameRequired),
		errors.Is(err, errBadRequest):
		status = http.StatusBadRequest
	}

	if status >= http.StatusInternalServerError {
		log.Ctx(c.Request().Context()).Error().Err(err).Str("path", c.Path()).Msg("request failed")
	}

	return c.JSON(status, body)
}
