// Package indicator computes per-bar technical indicator frames from a daily
// bar sequence. Computation is a pure function of the input: no state is kept
// between calls and the input slice is never modified.
package indicator

import (
	"fmt"

	"dipper/internal/domain"
)

// Frame carries the derived indicator values for one bar. A value is only
// meaningful when its Valid flag is set; the flags stay false for the warm-up
// bars at the head of the series.
type Frame struct {
	MA       float64
	MAValid  bool
	RSI      float64
	RSIValid bool
}

// Params selects the trailing windows for the moving average and RSI.
type Params struct {
	MAPeriod  int
	RSIPeriod int
}

// DefaultParams are the windows used by the shipped mean-reversion strategy.
var DefaultParams = Params{MAPeriod: 20, RSIPeriod: 14}

// Compute returns one Frame per input bar, aligned by index with bars.
//
//   - MA[i] is the arithmetic mean of Close over bars [i-p+1, i], defined
//     from index p-1 onward.
//   - RSI[i] is the simple-average relative strength index over the last
//     RSIPeriod day-over-day close changes, defined from index RSIPeriod
//     onward. A window with zero average loss yields RSI = 100.
func Compute(bars []domain.Bar, p Params) ([]Frame, error) {
	if p.MAPeriod <= 0 || p.RSIPeriod <= 0 {
		return nil, fmt.Errorf("indicator periods must be positive, got ma=%d rsi=%d", p.MAPeriod, p.RSIPeriod)
	}

	frames := make([]Frame, len(bars))

	// Moving average via a running window sum.
	var sum float64
	for i, b := range bars {
		sum += b.Close
		if i >= p.MAPeriod {
			sum -= bars[i-p.MAPeriod].Close
		}
		if i >= p.MAPeriod-1 {
			frames[i].MA = sum / float64(p.MAPeriod)
			frames[i].MAValid = true
		}
	}

	// RSI from simple averages of gains and losses. The change at index j is
	// Close[j]-Close[j-1]; the window for bar i covers changes (i-period, i].
	var gainSum, lossSum float64
	for i := 1; i < len(bars); i++ {
		delta := bars[i].Close - bars[i-1].Close
		if delta > 0 {
			gainSum += delta
		} else {
			lossSum += -delta
		}
		if i > p.RSIPeriod {
			old := bars[i-p.RSIPeriod].Close - bars[i-p.RSIPeriod-1].Close
			if old > 0 {
				gainSum -= old
			} else {
				lossSum -= -old
			}
		}
		if i >= p.RSIPeriod {
			frames[i].RSI = rsiValue(gainSum/float64(p.RSIPeriod), lossSum/float64(p.RSIPeriod))
			frames[i].RSIValid = true
		}
	}

	return frames, nil
}

// rsiValue combines average gain and loss into the bounded [0,100] oscillator.
func rsiValue(avgGain, avgLoss float64) float64 {
	if avgLoss == 0 {
		return 100
	}
	rs := avgGain / avgLoss
	return 100 - 100/(1+rs)
}
