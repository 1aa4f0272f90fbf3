package notifier

import (
	"fmt"
	"html"
	"strings"
	"time"

	"FyersSentinel/internal/model"
)

const stamp = "2006-01-02 15:04:05"

// FormatLogin is sent after every successful login.
func FormatLogin(at time.Time) string {
	return fmt.Sprintf("✅ <b>Login successfully!</b>\n%s IST", model.Naive(at).Format(stamp))
}

// FormatSignal formats a signal; changed marks a direction flip since the previous notification.
func FormatSignal(sig *model.Signal, changed bool) string {
	var b strings.Builder

	icon := "➖"
	switch sig.Direction {
	case model.DirectionLong:
		icon = "📈"
	case model.DirectionShort:
		icon = "📉"
	}
	title := "Signal"
	if changed {
		title = "Signal changed"
	}
	b.WriteString(fmt.Sprintf("%s <b>%s</b> | %s\n\n", icon, title, html.EscapeString(sig.Instrument)))
	b.WriteString(fmt.Sprintf("Direction: <b>%s</b>\n", sig.Direction))
	if !sig.Ready {
		b.WriteString(fmt.Sprintf("Not enough history (%d bars)\n", sig.Bars))
		return b.String()
	}
	b.WriteString(fmt.Sprintf("Close: %.2f (bar %s)\n", sig.Close, sig.BarTime.Format(stamp)))
	b.WriteString(fmt.Sprintf("EMA short: %.2f | EMA long: %.2f\n", sig.ShortEMA, sig.LongEMA))
	b.WriteString(fmt.Sprintf("Range: %.2f ~ %.2f (%.0f%%)\n", sig.Low, sig.High, sig.RangePos*100))
	b.WriteString(fmt.Sprintf("RSI: %.1f\n", sig.RSI))
	return b.String()
}

// FormatFailure reports a failed iteration with enough context to diagnose it.
func FormatFailure(iteration int, stage, instrument, kind string, err error) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("❌ <b>Iteration %d failed</b> | %s\n\n", iteration, html.EscapeString(instrument)))
	b.WriteString(fmt.Sprintf("Stage: %s\nKind: %s\n", stage, kind))
	b.WriteString(fmt.Sprintf("Error: <code>%s</code>", html.EscapeString(err.Error())))
	return b.String()
}

// FormatLoginFailure reports an aborted login attempt.
func FormatLoginFailure(stage, kind string, err error) string {
	return fmt.Sprintf("⚠️ <b>Login failed</b>\nStage: %s\nKind: %s\nError: <code>%s</code>",
		stage, kind, html.EscapeString(err.Error()))
}
