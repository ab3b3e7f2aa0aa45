package stooq

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/newthinker/sentinel/internal/collector"
	"github.com/newthinker/sentinel/internal/core"
)

const (
	baseURL = "https://stooq.com/q/d/l/"
)

// validSymbol matches tickers like SPY, BRK-B, spy.us
var validSymbol = regexp.MustCompile(`^[A-Za-z0-9-]{1,10}(\.[A-Za-z]{1,4})?$`)

// Normalize converts a ticker to Stooq's form: bare tickers are US listings
// (SPY -> spy.us), dotted symbols are lower-cased as is.
func Normalize(symbol string) (string, error) {
	symbol = strings.TrimSpace(symbol)
	if symbol == "" {
		return "", core.Errorf(core.ErrSymbolNotFound, "symbol cannot be empty")
	}
	if !validSymbol.MatchString(symbol) {
		return "", core.Errorf(core.ErrSymbolNotFound, "invalid symbol format: %s", symbol)
	}
	lower := strings.ToLower(symbol)
	if !strings.Contains(lower, ".") {
		lower += ".us"
	}
	return lower, nil
}

// Stooq downloads daily history CSVs from stooq.com.
type Stooq struct {
	client  *collector.Client
	baseURL string
}

// New creates a Stooq downloader. An empty cfg.BaseURL uses stooq.com.
func New(cfg collector.Config, logger *zap.Logger) *Stooq {
	base := cfg.BaseURL
	if base == "" {
		base = baseURL
	}
	return &Stooq{
		client:  collector.NewClient(cfg, logger),
		baseURL: base,
	}
}

func (s *Stooq) Name() string {
	return "stooq"
}

// CacheKey returns stooq/<normalized>.csv.
func (s *Stooq) CacheKey(symbol string) (string, error) {
	normalized, err := Normalize(symbol)
	if err != nil {
		return "", err
	}
	return "stooq/" + normalized + ".csv", nil
}

// Download fetches the full daily CSV for symbol.
func (s *Stooq) Download(ctx context.Context, symbol string) ([]byte, error) {
	normalized, err := Normalize(symbol)
	if err != nil {
		return nil, err
	}
	q := url.Values{}
	q.Set("s", normalized)
	q.Set("i", "d")
	return s.client.Get(ctx, s.baseURL+"?"+q.Encode())
}

// Parse reads Date,Open,High,Low,Close[,Volume] rows. The header row, short
// rows and rows with an unparsable date or close are skipped.
func (s *Stooq) Parse(raw []byte) (core.PriceSeries, error) {
	return ParseCSV(raw)
}

// ParseCSV is the decoding half of Parse.
func ParseCSV(raw []byte) (core.PriceSeries, error) {
	r := csv.NewReader(bytes.NewReader(raw))
	r.FieldsPerRecord = -1
	r.LazyQuotes = true
	r.TrimLeadingSpace = true

	series := core.PriceSeries{}
	headerSeen := false
	for {
		row, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			var perr *csv.ParseError
			if errors.As(err, &perr) {
				continue
			}
			return nil, fmt.Errorf("reading csv: %w", err)
		}
		if !headerSeen {
			headerSeen = true
			continue
		}
		if len(row) < 5 {
			continue
		}
		d, err := core.ParseDate(strings.TrimSpace(row[0]))
		if err != nil {
			continue
		}
		price, err := strconv.ParseFloat(strings.TrimSpace(row[4]), 64)
		if err != nil {
			continue
		}
		series[d] = price
	}
	return series, nil
}
