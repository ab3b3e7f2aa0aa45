package backtest

// ApplyCost charges a one-sided transaction cost in basis points.
func ApplyCost(value, costBps float64) float64 {
	return value * (1.0 - costBps/10_000.0)
}
