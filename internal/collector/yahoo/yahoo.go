package yahoo

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/newthinker/sentinel/internal/collector"
	"github.com/newthinker/sentinel/internal/core"
)

const (
	baseURL = "https://query1.finance.yahoo.com/v8/finance/chart"
)

// validSymbol matches stock symbols like SPY, BRK-B, CDR.WA
var validSymbol = regexp.MustCompile(`^[A-Za-z0-9-]{1,10}(\.[A-Za-z]{1,4})?$`)

// validateSymbol checks if a symbol has valid format
func validateSymbol(symbol string) error {
	if symbol == "" {
		return core.Errorf(core.ErrSymbolNotFound, "symbol cannot be empty")
	}
	if !validSymbol.MatchString(symbol) {
		return core.Errorf(core.ErrSymbolNotFound, "invalid symbol format: %s", symbol)
	}
	return nil
}

// Yahoo downloads daily chart history from Yahoo Finance.
type Yahoo struct {
	client  *collector.Client
	baseURL string
}

// New creates a Yahoo downloader. An empty cfg.BaseURL uses the public chart API.
func New(cfg collector.Config, logger *zap.Logger) *Yahoo {
	base := cfg.BaseURL
	if base == "" {
		base = baseURL
	}
	return &Yahoo{
		client:  collector.NewClient(cfg, logger),
		baseURL: strings.TrimSuffix(base, "/"),
	}
}

func (y *Yahoo) Name() string {
	return "yahoo"
}

// CacheKey returns yahoo/<SYMBOL>.json.
func (y *Yahoo) CacheKey(symbol string) (string, error) {
	if err := validateSymbol(symbol); err != nil {
		return "", err
	}
	return "yahoo/" + strings.ToUpper(symbol) + ".json", nil
}

// Download fetches the full daily chart for symbol.
func (y *Yahoo) Download(ctx context.Context, symbol string) ([]byte, error) {
	if err := validateSymbol(symbol); err != nil {
		return nil, err
	}
	url := fmt.Sprintf("%s/%s?interval=1d&range=max", y.baseURL, strings.ToUpper(symbol))
	return y.client.Get(ctx, url)
}

// Parse decodes a chart response into daily closes. Bars with a null close
// are skipped. Timestamps are shifted by the exchange offset so each bar
// lands on its local trading date.
func (y *Yahoo) Parse(raw []byte) (core.PriceSeries, error) {
	var result chartResponse
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}

	if result.Chart.Error != nil {
		return nil, core.Errorf(core.ErrCollectorFailed, "yahoo error: %s", result.Chart.Error.Description)
	}

	series := core.PriceSeries{}
	if len(result.Chart.Result) == 0 {
		return series, nil
	}

	r := result.Chart.Result[0]
	if len(r.Indicators.Quote) == 0 {
		return series, nil
	}
	closes := r.Indicators.Quote[0].Close
	offset := int64(r.Meta.GMTOffset)

	for i, ts := range r.Timestamp {
		if i >= len(closes) || closes[i] == nil {
			continue // Skip missing data
		}
		d := core.DateOf(time.Unix(ts+offset, 0).UTC())
		series[d] = *closes[i]
	}

	return series, nil
}

// Yahoo API response types
type chartResponse struct {
	Chart struct {
		Result []chartResult `json:"result"`
		Error  *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

type chartResult struct {
	Meta       chartMeta  `json:"meta"`
	Timestamp  []int64    `json:"timestamp"`
	Indicators indicators `json:"indicators"`
}

type chartMeta struct {
	Symbol    string `json:"symbol"`
	GMTOffset int    `json:"gmtoffset"`
}

type indicators struct {
	Quote []quoteIndicator `json:"quote"`
}

type quoteIndicator struct {
	Close []*float64 `json:"close"`
}
