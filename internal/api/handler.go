// Package api serves the HTTP control surface: lifecycle commands, status,
// reports and the Prometheus scrape endpoint.
package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"SignalSentinel/internal/bot"
	"SignalSentinel/internal/metrics"
	"SignalSentinel/internal/model"
)

// Controller is the bot surface exposed over HTTP.
type Controller interface {
	Start(ctx context.Context) error
	Stop() error
	Status() model.BotStatus
	Report() *model.PerformanceReport
	Weights() model.WeightTable
}

// SignalLister reads recent signal records.
type SignalLister interface {
	RecentSignals(limit int) ([]model.Signal, error)
}

// Response is the JSON envelope of every endpoint.
type Response struct {
	Status  int         `json:"status"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

type signalsRequest struct {
	Limit int `query:"limit" default:"50" validate:"min=1,max=500"`
}

var validate = validator.New()

// Handler implements the HTTP endpoints.
type Handler struct {
	bot     Controller
	signals SignalLister
	log     zerolog.Logger
}

// NewHandler creates a Handler. signals may be nil when no store is configured.
func NewHandler(b Controller, signals SignalLister, log zerolog.Logger) *Handler {
	return &Handler{bot: b, signals: signals, log: log.With().Str("component", "api").Logger()}
}

// RegisterRoutes mounts the endpoints on e.
func (h *Handler) RegisterRoutes(e *echo.Echo) {
	e.GET("/", h.Index)
	e.POST("/start", h.Start)
	e.POST("/stop", h.Stop)
	e.GET("/status", h.Status)
	e.GET("/performance", h.Performance)
	e.GET("/weights", h.Weights)
	e.GET("/signals", h.Signals)
	e.GET("/metrics", echo.WrapHandler(metrics.Handler()))
}

func respond(c echo.Context, code int, data interface{}) error {
	return c.JSON(code, Response{Status: code, Message: http.StatusText(code), Data: data})
}

func (h *Handler) Index(c echo.Context) error {
	return respond(c, http.StatusOK, map[string]interface{}{
		"service": "signal-sentinel",
		"running": h.bot.Status().Running,
	})
}

func (h *Handler) Start(c echo.Context) error {
	err := h.bot.Start(c.Request().Context())
	switch {
	case errors.Is(err, bot.ErrAlreadyRunning):
		return respond(c, http.StatusConflict, err.Error())
	case err != nil:
		h.log.Error().Err(err).Msg("start failed")
		return respond(c, http.StatusInternalServerError, err.Error())
	}
	return respond(c, http.StatusOK, h.bot.Status())
}

func (h *Handler) Stop(c echo.Context) error {
	err := h.bot.Stop()
	switch {
	case errors.Is(err, bot.ErrNotRunning):
		return respond(c, http.StatusConflict, err.Error())
	case err != nil:
		h.log.Error().Err(err).Msg("stop failed")
		return respond(c, http.StatusInternalServerError, err.Error())
	}
	return respond(c, http.StatusOK, h.bot.Status())
}

func (h *Handler) Status(c echo.Context) error {
	return respond(c, http.StatusOK, h.bot.Status())
}

func (h *Handler) Performance(c echo.Context) error {
	return respond(c, http.StatusOK, h.bot.Report())
}

func (h *Handler) Weights(c echo.Context) error {
	return respond(c, http.StatusOK, h.bot.Weights())
}

func (h *Handler) Signals(c echo.Context) error {
	req := &signalsRequest{}
	if err := c.Bind(req); err != nil {
		return respond(c, http.StatusBadRequest, err.Error())
	}
	if err := defaults.Set(req); err != nil {
		return respond(c, http.StatusBadRequest, err.Error())
	}
	if err := validate.StructCtx(c.Request().Context(), req); err != nil {
		return respond(c, http.StatusBadRequest, err.Error())
	}
	if h.signals == nil {
		return respond(c, http.StatusOK, []model.Signal{})
	}

	rows, err := h.signals.RecentSignals(req.Limit)
	if err != nil {
		h.log.Error().Err(err).Msg("list signals failed")
		return respond(c, http.StatusInternalServerError, "list signals failed")
	}
	if rows == nil {
		rows = []model.Signal{}
	}
	return respond(c, http.StatusOK, rows)
}
