package notifier

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"SignalSentinel/internal/model"
)

// FormatSignal formats a confirmed signal into a Telegram message.
func FormatSignal(sig *model.Signal) string {
	var b strings.Builder

	side := "📈 BUY"
	if sig.Direction == model.DirectionSell {
		side = "📉 SELL"
	}
	names := make([]string, len(sig.Indicators))
	for i, ind := range sig.Indicators {
		names[i] = string(ind)
	}

	b.WriteString(fmt.Sprintf("🎯 <b>TRADING SIGNAL</b> [%s]\n\n", shortID(sig.ID)))
	b.WriteString(fmt.Sprintf("<b>Pair:</b> %s\n", sig.Symbol))
	b.WriteString(fmt.Sprintf("<b>Timeframe:</b> %s\n", sig.Timeframe))
	b.WriteString(fmt.Sprintf("<b>Signal:</b> %s\n", side))
	b.WriteString(fmt.Sprintf("<b>Strength:</b> %.2f%%\n", sig.Strength*100))
	b.WriteString(fmt.Sprintf("<b>Accuracy:</b> %.1f%%\n", sig.Accuracy*100))
	b.WriteString(fmt.Sprintf("<b>Indicators:</b> %s\n\n", strings.Join(names, ", ")))
	b.WriteString(fmt.Sprintf("<b>Time:</b> %s", sig.CreatedAt.UTC().Format("15:04:05 02.01.2006")))
	return b.String()
}

// shortID returns the random suffix of a signal id.
func shortID(id string) string {
	if i := strings.LastIndex(id, "-"); i >= 0 && i < len(id)-1 {
		return id[i+1:]
	}
	return id
}

// FormatStatus formats the bot status for display.
func FormatStatus(s model.BotStatus) string {
	var b strings.Builder
	state := "🔴 stopped"
	if s.Running {
		state = "🟢 running"
	}
	b.WriteString("🤖 <b>Bot status</b>\n\n")
	b.WriteString(fmt.Sprintf("State: %s\n", state))
	b.WriteString(fmt.Sprintf("Connections: %d\n", s.Connections))
	b.WriteString(fmt.Sprintf("Bars received: %d\n", s.DataReceived))
	b.WriteString(fmt.Sprintf("Signals raised: %d | sent: %d\n", s.SignalsRaised, s.SignalsSent))
	b.WriteString(fmt.Sprintf("Pending: %d | tracking: %d\n", s.PendingSignals, s.LiveTrackers))
	b.WriteString(fmt.Sprintf("Profitable: %d | unprofitable: %d\n", s.Profitable, s.Unprofitable))
	b.WriteString(fmt.Sprintf("Accuracy: %.1f%%", s.Accuracy*100))
	return b.String()
}

// FormatPerformance formats the per-indicator performance report.
func FormatPerformance(r *model.PerformanceReport) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("📊 <b>Performance report</b> | %s\n\n", r.CreatedAt.UTC().Format("2006-01-02 15:04")))

	total := r.Status.Profitable + r.Status.Unprofitable
	b.WriteString(fmt.Sprintf("Graded signals: %d (✅ %d / ❌ %d)\n", total, r.Status.Profitable, r.Status.Unprofitable))
	b.WriteString(fmt.Sprintf("Accuracy: %.1f%%\n\n", r.Status.Accuracy*100))

	if len(r.Indicators) == 0 {
		b.WriteString("No graded indicators yet.")
		return b.String()
	}
	b.WriteString("<b>Indicators:</b>\n")
	for _, ind := range r.Indicators {
		b.WriteString(fmt.Sprintf("  %s: %.1f%% (%d/%d) w=%.4f\n",
			ind.Indicator, ind.SuccessRate*100, ind.Success, ind.Total, ind.Weight))
	}
	return strings.TrimRight(b.String(), "\n")
}

// FormatWeights lists the current weights, heaviest first.
func FormatWeights(w model.WeightTable) string {
	type row struct {
		ind model.Indicator
		w   float64
	}
	rows := make([]row, 0, len(w))
	for ind, weight := range w {
		rows = append(rows, row{ind, weight})
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].w != rows[j].w {
			return rows[i].w > rows[j].w
		}
		return rows[i].ind < rows[j].ind
	})

	var b strings.Builder
	b.WriteString("⚖️ <b>Indicator weights</b>\n\n")
	for _, r := range rows {
		b.WriteString(fmt.Sprintf("  %s: %.4f\n", r.ind, r.w))
	}
	return strings.TrimRight(b.String(), "\n")
}

// FormatEvent renders any event payload as message text.
func FormatEvent(e Event) string {
	switch p := e.Payload.(type) {
	case *model.Signal:
		return FormatSignal(p)
	case *model.PerformanceReport:
		return FormatPerformance(p)
	case model.BotStatus:
		return FormatStatus(p)
	case string:
		return p
	case fmt.Stringer:
		return p.String()
	}
	return fmt.Sprintf("%s event at %s", e.Kind, e.Time.Format(time.RFC3339))
}
