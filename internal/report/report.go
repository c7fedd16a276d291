// Package report renders backtest results as a plain-text summary and an
// optional HTML chart page.
package report

import (
	"fmt"
	"io"
	"text/tabwriter"

	"dipper/internal/backtest"
)

const dateLayout = "2006-01-02"

// WriteText writes the trade log and summary statistics for a run in a
// fixed-width layout suitable for terminals and log files.
func WriteText(w io.Writer, res *backtest.Result) error {
	fmt.Fprintf(w, "Backtest %s  %s .. %s\n\n",
		res.Symbol,
		res.Start.Format(dateLayout),
		res.End.Format(dateLayout))

	if len(res.Trades) == 0 {
		fmt.Fprintln(w, "No trades.")
	} else {
		tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "#\tENTRY\tEXIT\tENTRY PX\tEXIT PX\tSHARES\tPNL\tPNL%\tREASON")
		for i, t := range res.Trades {
			fmt.Fprintf(tw, "%d\t%s\t%s\t%.2f\t%.2f\t%d\t%.2f\t%+.2f%%\t%s\n",
				i+1,
				t.EntryDate.Format(dateLayout),
				t.ExitDate.Format(dateLayout),
				t.EntryPrice,
				t.ExitPrice,
				t.Shares,
				t.PnL,
				t.PnLPct*100,
				t.ExitReason)
		}
		if err := tw.Flush(); err != nil {
			return err
		}
	}

	st := res.Stats
	fmt.Fprintf(w, "\nTrades:            %d (%d wins, %d losses)\n", st.Trades, st.Wins, st.Losses)
	fmt.Fprintf(w, "Win rate:          %.2f%%\n", st.WinRate*100)
	fmt.Fprintf(w, "Avg return:        %+.2f%%\n", st.AvgReturn*100)
	fmt.Fprintf(w, "Cumulative return: %+.2f%%\n", st.CumulativeReturn*100)
	fmt.Fprintf(w, "Max drawdown:      %.2f%%\n", st.MaxDrawdown*100)
	fmt.Fprintf(w, "Equity:            %.2f -> %.2f\n", st.InitialCapital, st.FinalEquity)
	return nil
}
