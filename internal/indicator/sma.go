package indicator

import "github.com/newthinker/sentinel/internal/core"

// Trailing returns the simple moving average of the last window values.
// Callers pass the trailing history; only its final window elements are used.
func Trailing(values []float64, window int) (float64, error) {
	if window <= 0 {
		return 0, core.Errorf(core.ErrInvalidWindow, "got %d", window)
	}
	if len(values) < window {
		return 0, core.Errorf(core.ErrInsufficientData,
			"need %d values for window, have %d", window, len(values))
	}

	var sum float64
	for _, v := range values[len(values)-window:] {
		sum += v
	}
	return sum / float64(window), nil
}
