package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/mohammad-safakhou/newsrag/internal/pipeline"
	"github.com/mohammad-safakhou/newsrag/models"
	"github.com/rs/zerolog"
)

type Runner interface {
	Run(ctx context.Context, req models.QueryRequest) (*models.StructuredAnswer, error)
}

type SessionResetter interface {
	Reset(ctx context.Context, sessionID string) error
}

// QueryHandler serves the question-answering API.
type QueryHandler struct {
	Pipeline Runner
	Sessions SessionResetter
	Timeout  time.Duration
	Log      zerolog.Logger
}

func (h *QueryHandler) Register(e *echo.Echo) {
	e.POST("/query", h.query)
	e.DELETE("/sessions/:id", h.deleteSession)
}

type errorResponse struct {
	Error     string `json:"error"`
	ErrorKind string `json:"errorKind,omitempty"`
}

func (h *QueryHandler) query(c echo.Context) error {
	var req models.QueryRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid request body", ErrorKind: "ValidationError"})
	}

	ctx := c.Request().Context()
	if h.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.Timeout)
		defer cancel()
	}

	answer, err := h.Pipeline.Run(ctx, req)
	if err != nil {
		kind := models.ErrorKind(err)
		h.Log.Error().Err(err).
			Str("error_kind", kind).
			Str("request_id", c.Response().Header().Get(echo.HeaderXRequestID)).
			Msg("query failed")
		return c.JSON(statusFor(err), errorResponse{Error: publicMessage(err), ErrorKind: kind})
	}
	return c.JSON(http.StatusOK, answer)
}

func (h *QueryHandler) deleteSession(c echo.Context) error {
	id := c.Param("id")
	if id == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "session id is required")
	}
	if err := h.Sessions.Reset(c.Request().Context(), id); err != nil {
		h.Log.Error().Err(err).
			Str("session_id", id).
			Str("request_id", c.Response().Header().Get(echo.HeaderXRequestID)).
			Msg("evict session")
		return echo.NewHTTPError(http.StatusInternalServerError, "session could not be reset")
	}
	return c.NoContent(http.StatusNoContent)
}

func statusFor(err error) int {
	var ve *models.ValidationError
	if errors.As(err, &ve) {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

// publicMessage is the client-facing text for err. Only validation messages
// pass through verbatim.
func publicMessage(err error) string {
	var ve *models.ValidationError
	if errors.As(err, &ve) {
		return ve.Error()
	}
	switch {
	case errors.Is(err, pipeline.ErrNoResults):
		return "no usable search results"
	case errors.Is(err, context.DeadlineExceeded):
		return "request timed out"
	case errors.Is(err, context.Canceled):
		return "request was cancelled"
	}
	switch models.ErrorKind(err) {
	case "SearchProviderError":
		return "search provider unavailable"
	case "GenerationParseError":
		return "model output did not match the answer schema"
	default:
		return "the answer could not be generated"
	}
}
