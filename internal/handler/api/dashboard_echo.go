package api

import (
	"bytes"
	"context"
	"net/http"
	"strings"
	"time"

	"FinDash/internal/domain/models"
	"FinDash/internal/service/ratelimit"
	xhttp "FinDash/pkg/http"
	xlogger "FinDash/pkg/logger"
	"FinDash/pkg/util"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
)

// ViewBuilder produces dashboard views.
type ViewBuilder interface {
	Views(ctx context.Context, symbols []string, window, horizon int) []models.SymbolView
	Allowed() []string
	Defaults() []string
}

// DashboardEchoHandler serves the HTML dashboard, the JSON bars API and the refresh stream.
type DashboardEchoHandler struct {
	views    ViewBuilder
	rl       *ratelimit.Limiter
	logger   *xlogger.Logger
	footer   string
	push     time.Duration
	upgrader websocket.Upgrader
}

type DashboardOption func(*DashboardEchoHandler)

// WithPushInterval makes the stream resend the last selection every d.
func WithPushInterval(d time.Duration) DashboardOption {
	return func(h *DashboardEchoHandler) { h.push = d }
}

func WithFooter(footer string) DashboardOption {
	return func(h *DashboardEchoHandler) { h.footer = footer }
}

func WithRateLimiter(rl *ratelimit.Limiter) DashboardOption {
	return func(h *DashboardEchoHandler) { h.rl = rl }
}

func NewDashboardEchoHandler(logger *xlogger.Logger, views ViewBuilder, opts ...DashboardOption) *DashboardEchoHandler {
	if logger == nil {
		logger = xlogger.Nop()
	}
	h := &DashboardEchoHandler{
		views:  views,
		rl:     ratelimit.New(),
		logger: logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}
	for _, o := range opts {
		o(h)
	}
	return h
}

func (h *DashboardEchoHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/", h.Page)
	e.GET("/ws", h.Stream)
	g := e.Group("/api")
	g.GET("/bars", h.Bars)
	g.GET("/symbols", h.Symbols)
}

// Page renders the dashboard. Invalid window or horizon values fall back to defaults
// rather than failing the page.
func (h *DashboardEchoHandler) Page(c echo.Context) error {
	req := &models.DashboardRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		h.logger.Warn("dashboard page invalid params", xlogger.Any("errors", verr))
		req = &models.DashboardRequest{Symbols: req.Symbols}
		_ = xhttp.ValidateStruct(c.Request().Context(), req)
	}
	selected := h.selection(req.Symbols)

	views := h.views.Views(c.Request().Context(), selected, req.Window, req.Horizon)
	data, errs := buildPage(h.views.Allowed(), *req, selected, views, h.footer)
	for _, err := range errs {
		h.logger.Error("chart render failed", xlogger.Error(err))
	}

	var buf bytes.Buffer
	if err := writePage(&buf, data); err != nil {
		h.logger.Error("page render failed", xlogger.Error(err))
		return xhttp.InternalServerErrorResponse(c)
	}
	return c.HTMLBlob(http.StatusOK, buf.Bytes())
}

// Bars returns one view per requested symbol as JSON.
func (h *DashboardEchoHandler) Bars(c echo.Context) error {
	if !h.rl.Allow(c.RealIP()+":bars", 10, 2) {
		h.logger.Warn("bars rate limited", xlogger.String("remote", c.RealIP()))
		return xhttp.AppErrorResponse(c, xhttp.TooManyRequestsError("too many requests"))
	}
	req := &models.DashboardRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	views := h.views.Views(c.Request().Context(), h.selection(req.Symbols), req.Window, req.Horizon)
	c.Response().Header().Set(echo.HeaderCacheControl, "private, max-age=30")
	return xhttp.SuccessResponse(c, models.DashboardResponse{Views: views})
}

func (h *DashboardEchoHandler) Symbols(c echo.Context) error {
	return xhttp.SuccessResponse(c, models.SymbolsResponse{Allowed: h.views.Allowed(), Defaults: h.views.Defaults()})
}

// streamMessage is what the server sends on the websocket.
type streamMessage struct {
	Views  []models.SymbolView     `json:"views,omitempty"`
	Errors []xhttp.ValidationError `json:"errors,omitempty"`
}

// Stream upgrades to a websocket. Each client message selects symbols and gets views back;
// with a push interval the last selection is refreshed periodically.
func (h *DashboardEchoHandler) Stream(c echo.Context) error {
	conn, err := h.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		// the upgrader has already replied
		h.logger.Warn("websocket upgrade failed", xlogger.Error(err))
		return nil
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(c.Request().Context())
	defer cancel()

	reqs := make(chan models.DashboardRequest)
	go func() {
		defer cancel()
		for {
			var req models.DashboardRequest
			if err := conn.ReadJSON(&req); err != nil {
				return
			}
			select {
			case reqs <- req:
			case <-ctx.Done():
				return
			}
		}
	}()

	var tick <-chan time.Time
	if h.push > 0 {
		t := time.NewTicker(h.push)
		defer t.Stop()
		tick = t.C
	}

	// only this goroutine writes to conn
	send := func(msg streamMessage) bool {
		if err := conn.WriteJSON(msg); err != nil {
			h.logger.Warn("websocket write failed", xlogger.Error(err))
			return false
		}
		return true
	}

	var last *models.DashboardRequest
	for {
		select {
		case <-ctx.Done():
			return nil
		case req := <-reqs:
			if verr := xhttp.ValidateStruct(ctx, &req); verr != nil {
				if !send(streamMessage{Errors: verr}) {
					return nil
				}
				continue
			}
			last = &req
			if !send(streamMessage{Views: h.views.Views(ctx, h.selection(req.Symbols), req.Window, req.Horizon)}) {
				return nil
			}
		case <-tick:
			if last == nil {
				continue
			}
			if !send(streamMessage{Views: h.views.Views(ctx, h.selection(last.Symbols), last.Window, last.Horizon)}) {
				return nil
			}
		}
	}
}

// selection normalises requested symbols, falling back to the defaults.
func (h *DashboardEchoHandler) selection(raw []string) []string {
	symbols := util.SplitList(raw...)
	for i, s := range symbols {
		symbols[i] = strings.ToUpper(s)
	}
	if len(symbols) == 0 {
		return h.views.Defaults()
	}
	return symbols
}
