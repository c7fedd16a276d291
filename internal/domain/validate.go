package domain

import "fmt"

// ValidateBars checks the invariants the pipeline relies on: every bar has a
// symbol, positive prices, non-negative volume, and the sequence is strictly
// ascending by date. A malformed series is a fatal input error; callers must
// not skip or reorder bars to repair it.
func ValidateBars(bars []Bar) error {
	for i, b := range bars {
		if b.Symbol == "" {
			return fmt.Errorf("bar %d: missing symbol", i)
		}
		if b.Timestamp.IsZero() {
			return fmt.Errorf("bar %d (%s): missing timestamp", i, b.Symbol)
		}
		if b.Open <= 0 || b.High <= 0 || b.Low <= 0 || b.Close <= 0 {
			return fmt.Errorf("bar %d (%s %s): non-positive price", i, b.Symbol, b.Timestamp.Format("2006-01-02"))
		}
		if b.Volume < 0 {
			return fmt.Errorf("bar %d (%s %s): negative volume", i, b.Symbol, b.Timestamp.Format("2006-01-02"))
		}
		if i > 0 && !bars[i-1].Timestamp.Before(b.Timestamp) {
			return fmt.Errorf("bar %d (%s): non-monotonic date %s after %s",
				i, b.Symbol, b.Timestamp.Format("2006-01-02"), bars[i-1].Timestamp.Format("2006-01-02"))
		}
	}
	return nil
}
