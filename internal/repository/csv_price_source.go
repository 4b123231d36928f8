package repository

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"FinDash/internal/domain/models"
	"FinDash/pkg/util"

	"github.com/guregu/null/v6"
	"github.com/shopspring/decimal"
)

// Columns maps the logical price fields to CSV header names.
type Columns struct {
	Ticker string
	Date   string
	Close  string
	Volume string
}

// DefaultColumns matches the historical_stocks export: Name, Date, Close, Volume.
func DefaultColumns() Columns {
	return Columns{Ticker: "Name", Date: "Date", Close: "Close", Volume: "Volume"}
}

// CSVPriceSource reads the historical price table from a CSV file with a header row.
type CSVPriceSource struct {
	path    string
	columns Columns
}

func NewCSVPriceSource(path string, columns Columns) *CSVPriceSource {
	return &CSVPriceSource{path: path, columns: columns}
}

func (s *CSVPriceSource) LoadPrices(ctx context.Context) ([]models.PriceRecord, error) {
	f, err := os.Open(s.path)
	if err != nil {
		return nil, fmt.Errorf("open prices: %w", err)
	}
	defer f.Close()
	return ParsePriceCSV(ctx, f, s.columns)
}

// ParsePriceCSV decodes price rows. Header names match case-insensitively and unknown
// columns are ignored. Unparseable cells become missing values.
func ParsePriceCSV(ctx context.Context, r io.Reader, cols Columns) ([]models.PriceRecord, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("prices csv: empty input")
		}
		return nil, fmt.Errorf("prices csv header: %w", err)
	}

	pos := make(map[string]int, len(header))
	for i, h := range header {
		pos[strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))] = i
	}
	idx := func(name string) (int, error) {
		i, ok := pos[strings.ToLower(name)]
		if !ok {
			return 0, fmt.Errorf("prices csv: missing column %q", name)
		}
		return i, nil
	}
	ti, err := idx(cols.Ticker)
	if err != nil {
		return nil, err
	}
	di, err := idx(cols.Date)
	if err != nil {
		return nil, err
	}
	ci, err := idx(cols.Close)
	if err != nil {
		return nil, err
	}
	vi, err := idx(cols.Volume)
	if err != nil {
		return nil, err
	}

	var out []models.PriceRecord
	for line := 2; ; line++ {
		if line%4096 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("prices csv line %d: %w", line, err)
		}
		cell := func(i int) string {
			if i < len(rec) {
				return strings.TrimSpace(rec[i])
			}
			return ""
		}
		out = append(out, models.PriceRecord{
			Ticker: cell(ti),
			Date:   parseDate(cell(di)),
			Close:  parseDecimal(cell(ci)),
			Volume: parseVolume(cell(vi)),
		})
	}
	return out, nil
}

func parseDate(s string) null.Time {
	t, ok := util.ParseDate(s)
	if !ok {
		return null.Time{}
	}
	return null.TimeFrom(t)
}

func parseDecimal(s string) decimal.NullDecimal {
	if s == "" {
		return decimal.NullDecimal{}
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.NullDecimal{}
	}
	return decimal.NewNullDecimal(d)
}

func parseVolume(s string) null.Int {
	if s == "" {
		return null.Int{}
	}
	if v, err := strconv.ParseInt(s, 10, 64); err == nil {
		return null.IntFrom(v)
	}
	// some exports write volume as a float
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return null.Int{}
	}
	return null.IntFrom(int64(f))
}
