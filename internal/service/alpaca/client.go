package alpaca

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"FinDash/internal/domain/models"
	domrepo "FinDash/internal/domain/repository"
	xhttp "FinDash/pkg/http"
	applogger "FinDash/pkg/logger"

	"github.com/tidwall/gjson"
	"golang.org/x/time/rate"
)

var (
	// ErrNoBars means the quote service answered but returned no bars.
	ErrNoBars = errors.New("no bars returned")
	// ErrRateLimited means the quote service answered 429.
	ErrRateLimited = errors.New("quote service rate limited")
)

// maxPages bounds pagination for one request.
const maxPages = 50

// Config holds market data API settings.
type Config struct {
	APIKey     string
	APISecret  string
	DataURL    string
	Timeout    time.Duration
	PageLimit  int
	RatePerSec float64
	Burst      int
}

// Client fetches historical bars from the Alpaca market data REST API.
type Client struct {
	cfg     Config
	http    *xhttp.Client
	limiter *rate.Limiter
	l       *applogger.Logger
}

// New creates a bar client. RatePerSec <= 0 disables client-side throttling.
func New(cfg Config, l *applogger.Logger) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.PageLimit <= 0 {
		cfg.PageLimit = 10000
	}
	if l == nil {
		l = applogger.Nop()
	}
	var limiter *rate.Limiter
	if cfg.RatePerSec > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RatePerSec), max(cfg.Burst, 1))
	}
	return &Client{
		cfg: cfg,
		http: xhttp.NewClient(
			xhttp.WithTimeout(cfg.Timeout),
			xhttp.WithHeader("APCA-API-KEY-ID", cfg.APIKey),
			xhttp.WithHeader("APCA-API-SECRET-KEY", cfg.APISecret),
		),
		limiter: limiter,
		l:       l,
	}
}

// GetBars returns all bars of q, following next_page_token.
func (c *Client) GetBars(ctx context.Context, q domrepo.BarsQuery) ([]models.Bar, error) {
	endpoint := strings.TrimRight(c.cfg.DataURL, "/") + "/v2/stocks/" + url.PathEscape(q.Symbol) + "/bars"
	params := map[string][]string{
		"timeframe": {string(q.Timeframe)},
		"start":     {q.Start.UTC().Format(time.RFC3339)},
		"end":       {q.End.UTC().Format(time.RFC3339)},
		"limit":     {strconv.Itoa(c.cfg.PageLimit)},
		"sort":      {"asc"},
	}
	if q.Feed != "" {
		params["feed"] = []string{q.Feed}
	}

	var out []models.Bar
	token := ""
	for page := 0; page < maxPages; page++ {
		if token != "" {
			params["page_token"] = []string{token}
		}
		if c.limiter != nil {
			if err := c.limiter.Wait(ctx); err != nil {
				return nil, fmt.Errorf("bars %s: %w", q.Symbol, err)
			}
		}

		var body []byte
		err := c.http.SendAndParse(ctx, &xhttp.RequestOptions{
			Method:      xhttp.MethodGet,
			URL:         endpoint,
			QueryParams: params,
		}, &body)
		if err != nil {
			if xhttp.StatusCode(err) == http.StatusTooManyRequests {
				return nil, fmt.Errorf("bars %s: %w", q.Symbol, ErrRateLimited)
			}
			return nil, fmt.Errorf("bars %s: %w", q.Symbol, err)
		}

		bars, next, err := parseBars(body)
		if err != nil {
			return nil, fmt.Errorf("bars %s: %w", q.Symbol, err)
		}
		out = append(out, bars...)
		if next == "" {
			break
		}
		token = next
	}

	if len(out) == 0 {
		return nil, fmt.Errorf("bars %s: %w", q.Symbol, ErrNoBars)
	}
	c.l.Debug("alpaca bars fetched",
		applogger.String("symbol", q.Symbol),
		applogger.String("timeframe", string(q.Timeframe)),
		applogger.Int("bars", len(out)),
	)
	return out, nil
}

// parseBars reads {"bars":[{"t","o","h","l","c","v","n","vw"}],"next_page_token":...}.
func parseBars(body []byte) ([]models.Bar, string, error) {
	if !gjson.ValidBytes(body) {
		return nil, "", fmt.Errorf("invalid json response")
	}
	root := gjson.ParseBytes(body)
	if msg := root.Get("message"); msg.Exists() && !root.Get("bars").Exists() {
		return nil, "", fmt.Errorf("api error: %s", msg.String())
	}

	next := root.Get("next_page_token").String()
	arr := root.Get("bars")
	if !arr.IsArray() {
		// alpaca answers "bars": null when the window holds no data
		return nil, next, nil
	}

	var (
		bars []models.Bar
		perr error
	)
	arr.ForEach(func(_, b gjson.Result) bool {
		ts, err := time.Parse(time.RFC3339Nano, b.Get("t").String())
		if err != nil {
			perr = fmt.Errorf("bar timestamp %q: %w", b.Get("t").String(), err)
			return false
		}
		bars = append(bars, models.Bar{
			Timestamp:  ts.UTC(),
			Open:       b.Get("o").Float(),
			High:       b.Get("h").Float(),
			Low:        b.Get("l").Float(),
			Close:      b.Get("c").Float(),
			Volume:     b.Get("v").Int(),
			TradeCount: b.Get("n").Int(),
			VWAP:       b.Get("vw").Float(),
		})
		return true
	})
	if perr != nil {
		return nil, "", perr
	}
	return bars, next, nil
}
