package notifier

import (
	"context"
	"time"
)

// Variant is one window's headline numbers in a Verdict.
type Variant struct {
	Window      int     `json:"window"`
	CAGR        float64 `json:"cagr"`
	MaxDrawdown float64 `json:"max_drawdown"`
	Trades      int     `json:"trade_count"`
}

// Verdict summarises a finished research comparison.
type Verdict struct {
	Robust      bool      `json:"robust"`
	Reasons     []string  `json:"reasons"`
	CostBps     float64   `json:"cost_bps"`
	Variants    []Variant `json:"variants"`
	ReportPath  string    `json:"report_path"`
	GeneratedAt time.Time `json:"generated_at"`
}

// Notifier delivers research verdicts.
type Notifier interface {
	// Name returns the unique identifier for this notifier
	Name() string

	// Notify sends one verdict
	Notify(ctx context.Context, v Verdict) error
}
