package notify

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/olekukonko/tablewriter"

	"github.com/MochiAT/polymarket-bot-tournament/internal/domain"
)

// Console implements ports.Notifier printing tables to stdout.
type Console struct {
	out     io.Writer
	compact bool // one status line per strategy instead of a table
}

// NewConsole creates a console notifier. With compact=true the periodic
// status prints a single line per strategy; the final leaderboard is always
// a full table.
func NewConsole(compact bool) *Console {
	return &Console{out: os.Stdout, compact: compact}
}

// NotifyStatus prints the periodic tournament status.
func (c *Console) NotifyStatus(_ context.Context, entries []domain.LeaderboardEntry) error {
	if len(entries) == 0 {
		return nil
	}

	now := time.Now().Format("15:04:05")

	if c.compact {
		var sb strings.Builder
		for _, e := range entries {
			fmt.Fprintf(&sb, "[%s][TOURNAMENT] %-24s | trades %3d | pnl $%8.2f (%6.2f%%) | equity $%10.2f\n",
				now, e.StrategyName, e.TradeCount, e.NetPnL, e.PnLPercent, e.FinalEquity)
		}
		fmt.Fprint(c.out, sb.String())
		return nil
	}

	fmt.Fprintf(c.out, "\nTOURNAMENT STATUS %s (%d strategies)\n", now, len(entries))
	tbl := tablewriter.NewWriter(c.out)
	tbl.Header("Strategy", "Trades", "PnL", "PnL%", "Equity", "Exposure")
	for _, e := range entries {
		tbl.Append(
			e.StrategyName,
			fmt.Sprintf("%d", e.TradeCount),
			fmt.Sprintf("$%.2f", e.NetPnL),
			fmt.Sprintf("%.2f%%", e.PnLPercent),
			fmt.Sprintf("$%.2f", e.FinalEquity),
			fmt.Sprintf("%.0f%%", e.ExposurePercent),
		)
	}
	tbl.Render()
	return nil
}

// NotifyLeaderboard prints the final ranked leaderboard.
func (c *Console) NotifyLeaderboard(_ context.Context, entries []domain.LeaderboardEntry) error {
	fmt.Fprintf(c.out, "\n%s\n", strings.Repeat("=", 80))
	fmt.Fprintf(c.out, "  TOURNAMENT LEADERBOARD\n")
	fmt.Fprintf(c.out, "%s\n", strings.Repeat("=", 80))

	if len(entries) == 0 {
		fmt.Fprintln(c.out, "  no strategies ran")
		return nil
	}

	tbl := tablewriter.NewWriter(c.out)
	tbl.Header("#", "Strategy", "PnL", "PnL%", "PnL/h", "MaxDD", "Win%", "AvgHold", "Trades", "Exp%")
	for _, e := range entries {
		tbl.Append(
			fmt.Sprintf("%d", e.Rank),
			e.StrategyName,
			fmt.Sprintf("$%.2f", e.NetPnL),
			fmt.Sprintf("%.2f%%", e.PnLPercent),
			fmt.Sprintf("$%.2f", e.PnLPerHour),
			fmt.Sprintf("$%.2f", e.MaxDrawdown),
			fmt.Sprintf("%.1f%%", e.WinRate),
			formatHold(e.AvgHoldTime),
			fmt.Sprintf("%d", e.TradeCount),
			fmt.Sprintf("%.0f%%", e.ExposurePercent),
		)
	}
	tbl.Render()
	return nil
}

func formatHold(d time.Duration) string {
	if d == 0 {
		return "-"
	}
	if d < time.Hour {
		return fmt.Sprintf("%.0fm", d.Minutes())
	}
	return fmt.Sprintf("%.1fh", d.Hours())
}
