package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"FinDash/internal/domain/models"
	xhttp "FinDash/pkg/http"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
)

type call struct {
	symbols         []string
	window, horizon int
}

type fakeViews struct {
	mu    sync.Mutex
	calls []call
}

func (f *fakeViews) Views(_ context.Context, symbols []string, window, horizon int) []models.SymbolView {
	f.mu.Lock()
	f.calls = append(f.calls, call{symbols, window, horizon})
	f.mu.Unlock()

	out := make([]models.SymbolView, 0, len(symbols))
	t0 := time.Date(2024, 3, 8, 14, 0, 0, 0, time.UTC)
	for _, s := range symbols {
		if s == "DOGE" {
			out = append(out, models.SymbolView{Symbol: s, Error: "DOGE is not an allowed symbol"})
			continue
		}
		bars := []models.Bar{{Timestamp: t0, Close: 10}, {Timestamp: t0.Add(time.Hour), Close: 12}}
		out = append(out, models.SymbolView{
			Symbol:        s,
			Bars:          bars,
			MovingAverage: []models.Point{{Time: bars[1].Timestamp, Value: 11}},
			Projection:    []models.Point{{Time: t0.Add(2 * time.Hour), Value: 11}},
		})
	}
	return out
}

func (f *fakeViews) Allowed() []string  { return []string{"AAPL", "SPY", "QQQ"} }
func (f *fakeViews) Defaults() []string { return []string{"AAPL", "SPY"} }

func (f *fakeViews) last() call {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[len(f.calls)-1]
}

func newTestEcho(views *fakeViews, opts ...DashboardOption) *echo.Echo {
	e := echo.New()
	NewDashboardEchoHandler(nil, views, append([]DashboardOption{WithFooter("© FinDash")}, opts...)...).RegisterRoutes(e)
	return e
}

func get(e *echo.Echo, target string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

func TestPageRendersChartsAndBanners(t *testing.T) {
	views := &fakeViews{}
	rec := get(newTestEcho(views), "/?symbols=aapl,DOGE")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	body := rec.Body.String()
	for _, want := range []string{"<h2>AAPL</h2>", "<h2>DOGE</h2>", `class="banner">DOGE is not an allowed symbol`, "<iframe", "© FinDash", `value="QQQ">`} {
		if !strings.Contains(body, want) {
			t.Fatalf("page missing %q", want)
		}
	}
	if strings.Count(body, "<iframe") != 2 {
		t.Fatalf("expected two charts for the healthy symbol")
	}
	if c := views.last(); c.window != 24 || c.horizon != 24 || c.symbols[0] != "AAPL" {
		t.Fatalf("unexpected call %+v", c)
	}
}

func TestPageDefaultsSelection(t *testing.T) {
	views := &fakeViews{}
	rec := get(newTestEcho(views), "/?window=1")
	if rec.Code != http.StatusOK {
		t.Fatalf("invalid params must not fail the page, got %d", rec.Code)
	}
	c := views.last()
	if len(c.symbols) != 2 || c.symbols[1] != "SPY" || c.window != 24 {
		t.Fatalf("unexpected call %+v", c)
	}
}

func TestBarsAPI(t *testing.T) {
	e := newTestEcho(&fakeViews{})

	rec := get(e, "/api/bars?symbols=spy&horizon=6")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var body struct {
		Data models.DashboardResponse `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(body.Data.Views) != 1 || body.Data.Views[0].Symbol != "SPY" || len(body.Data.Views[0].Bars) != 2 {
		t.Fatalf("unexpected views %+v", body.Data.Views)
	}

	rec = get(e, "/api/bars?window=1")
	if rec.Code != http.StatusBadRequest || !strings.Contains(rec.Body.String(), "ERR_GTE") {
		t.Fatalf("expected 400 ERR_GTE, got %d %s", rec.Code, rec.Body.String())
	}
}

func TestBarsAPIRateLimited(t *testing.T) {
	e := newTestEcho(&fakeViews{})
	var last int
	for i := 0; i < 11; i++ {
		last = get(e, "/api/bars").Code
	}
	if last != http.StatusTooManyRequests {
		t.Fatalf("expected 429 after burst, got %d", last)
	}
}

func TestSymbolsAPI(t *testing.T) {
	rec := get(newTestEcho(&fakeViews{}), "/api/symbols")
	var body struct {
		Data models.SymbolsResponse `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(body.Data.Allowed) != 3 || body.Data.Defaults[0] != "AAPL" {
		t.Fatalf("unexpected symbols %+v", body.Data)
	}
}

func dial(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http")+"/ws", nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	return conn
}

type wsReply struct {
	Views  []models.SymbolView     `json:"views"`
	Errors []xhttp.ValidationError `json:"errors"`
}

func TestStreamAnswersSelections(t *testing.T) {
	srv := httptest.NewServer(newTestEcho(&fakeViews{}))
	defer srv.Close()
	conn := dial(t, srv)
	defer conn.Close()
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))

	if err := conn.WriteJSON(map[string]interface{}{"symbols": []string{"QQQ"}}); err != nil {
		t.Fatalf("write: %v", err)
	}
	var reply wsReply
	if err := conn.ReadJSON(&reply); err != nil {
		t.Fatalf("read: %v", err)
	}
	if len(reply.Views) != 1 || reply.Views[0].Symbol != "QQQ" {
		t.Fatalf("unexpected reply %+v", reply)
	}

	if err := conn.WriteJSON(map[string]interface{}{"window": 500}); err != nil {
		t.Fatalf("write: %v", err)
	}
	reply = wsReply{}
	if err := conn.ReadJSON(&reply); err != nil {
		t.Fatalf("read: %v", err)
	}
	if len(reply.Errors) != 1 || reply.Errors[0].Code != "ERR_LTE" {
		t.Fatalf("expected validation error, got %+v", reply)
	}
}

func TestStreamPushesRefreshes(t *testing.T) {
	views := &fakeViews{}
	srv := httptest.NewServer(newTestEcho(views, WithPushInterval(20*time.Millisecond)))
	defer srv.Close()
	conn := dial(t, srv)
	defer conn.Close()
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))

	if err := conn.WriteJSON(map[string]interface{}{}); err != nil {
		t.Fatalf("write: %v", err)
	}
	for i := 0; i < 3; i++ {
		var reply wsReply
		if err := conn.ReadJSON(&reply); err != nil {
			t.Fatalf("read %d: %v", i, err)
		}
		if len(reply.Views) != 2 {
			t.Fatalf("expected default selection, got %+v", reply)
		}
	}
}
