package alpaca

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	domrepo "FinDash/internal/domain/repository"
)

func query() domrepo.BarsQuery {
	end := time.Date(2024, 3, 8, 20, 0, 0, 0, time.UTC)
	return domrepo.BarsQuery{
		Symbol:    "AAPL",
		Timeframe: domrepo.TF1Hour,
		Start:     end.Add(-120 * time.Hour),
		End:       end,
		Feed:      "iex",
	}
}

func TestGetBarsFollowsPages(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if r.URL.Path != "/v2/stocks/AAPL/bars" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.Header.Get("APCA-API-KEY-ID") != "key" || r.Header.Get("APCA-API-SECRET-KEY") != "secret" {
			t.Errorf("missing credentials headers")
		}
		q := r.URL.Query()
		if q.Get("timeframe") != "1Hour" || q.Get("feed") != "iex" || q.Get("start") != "2024-03-03T20:00:00Z" {
			t.Errorf("unexpected query %s", r.URL.RawQuery)
		}
		w.Header().Set("Content-Type", "application/json")
		if q.Get("page_token") == "" {
			_, _ = w.Write([]byte(`{"bars":[{"t":"2024-03-04T14:00:00Z","o":1,"h":2,"l":0.5,"c":1.5,"v":100,"n":3,"vw":1.2}],"symbol":"AAPL","next_page_token":"p2"}`))
			return
		}
		_, _ = w.Write([]byte(`{"bars":[{"t":"2024-03-04T15:00:00Z","o":1.5,"h":2,"l":1,"c":1.8,"v":50}],"symbol":"AAPL","next_page_token":null}`))
	}))
	defer srv.Close()

	c := New(Config{APIKey: "key", APISecret: "secret", DataURL: srv.URL}, nil)
	bars, err := c.GetBars(context.Background(), query())
	if err != nil {
		t.Fatalf("GetBars: %v", err)
	}
	if calls != 2 || len(bars) != 2 {
		t.Fatalf("expected 2 calls and 2 bars, got %d calls %d bars", calls, len(bars))
	}
	if bars[0].Close != 1.5 || bars[0].Volume != 100 || bars[0].VWAP != 1.2 {
		t.Fatalf("unexpected first bar %+v", bars[0])
	}
	if !bars[1].Timestamp.Equal(time.Date(2024, 3, 4, 15, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected timestamp %s", bars[1].Timestamp)
	}
}

func TestGetBarsEmpty(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"bars":null,"symbol":"AAPL","next_page_token":null}`))
	}))
	defer srv.Close()

	_, err := New(Config{DataURL: srv.URL}, nil).GetBars(context.Background(), query())
	if !errors.Is(err, ErrNoBars) {
		t.Fatalf("expected ErrNoBars, got %v", err)
	}
}

func TestGetBarsRateLimited(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"message":"too many requests"}`))
	}))
	defer srv.Close()

	_, err := New(Config{DataURL: srv.URL}, nil).GetBars(context.Background(), query())
	if !errors.Is(err, ErrRateLimited) {
		t.Fatalf("expected ErrRateLimited, got %v", err)
	}
}

func TestGetBarsUnauthorized(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"message":"forbidden"}`))
	}))
	defer srv.Close()

	_, err := New(Config{DataURL: srv.URL}, nil).GetBars(context.Background(), query())
	if err == nil || errors.Is(err, ErrNoBars) {
		t.Fatalf("expected a status error, got %v", err)
	}
}

func TestGetBarsTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer srv.Close()

	c := New(Config{DataURL: srv.URL, Timeout: 20 * time.Millisecond}, nil)
	if _, err := c.GetBars(context.Background(), query()); err == nil {
		t.Fatalf("expected timeout error")
	}
}

func TestParseBarsWithoutArray(t *testing.T) {
	for _, body := range []string{
		`{"bars":null,"symbol":"AAPL","next_page_token":null}`,
		`{"symbol":"AAPL"}`,
		`{"bars":[],"next_page_token":null}`,
	} {
		bars, next, err := parseBars([]byte(body))
		if err != nil || len(bars) != 0 || next != "" {
			t.Fatalf("%s: expected no bars and no error, got %d bars next=%q err=%v", body, len(bars), next, err)
		}
	}
}

func TestGetBarsThrottlesPages(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		_, _ = w.Write([]byte(`{"bars":[{"t":"2024-03-04T14:00:00Z","c":1}],"next_page_token":"more"}`))
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	c := New(Config{DataURL: srv.URL, RatePerSec: 0.5, Burst: 1}, nil)
	if _, err := c.GetBars(ctx, query()); err == nil {
		t.Fatalf("expected the limiter to give up before the deadline")
	}
	if calls != 1 {
		t.Fatalf("expected exactly one request within the burst, got %d", calls)
	}
}
