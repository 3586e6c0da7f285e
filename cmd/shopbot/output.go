package main

import (
	"fmt"
	"io"
	"os"
)

const (
	colorReset  = "\033[0m"
	colorRed    = "\033[31m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorCyan   = "\033[36m"
	colorBold   = "\033[1m"
)

// diag receives status lines, kept apart from the conversation on stdout so
// piped chat transcripts stay clean.
var diag io.Writer = os.Stderr

func colorize(color, text string) string {
	if noColor {
		return text
	}
	return color + text + colorReset
}

func notice(color, mark, format string, args ...any) {
	fmt.Fprintln(diag, colorize(color, mark+" "+fmt.Sprintf(format, args...)))
}

func printSuccess(format string, args ...any) { notice(colorGreen, "✓", format, args...) }
func printError(format string, args ...any)   { notice(colorRed, "✗", format, args...) }
func printWarning(format string, args ...any) { notice(colorYellow, "⚠", format, args...) }
func printStep(format string, args ...any)    { notice(colorCyan, "→", format, args...) }

func printStatus(label string, format string, args ...any) {
	fmt.Fprintf(diag, "  %s %s\n", colorize(colorBold, label+":"), fmt.Sprintf(format, args...))
}

func printPrompt(out io.Writer) {
	fmt.Fprint(out, colorize(colorBold, "you> "))
}

// printReply writes the assistant's answer to out. A failed function call is
// reported on diag after the reply so the user still sees the apology text.
func printReply(out io.Writer, turn chatTurn) {
	fmt.Fprintf(out, "%s %s\n", colorize(colorCyan, "bot>"), turn.Bot.Content)
	if inv := turn.Invocation; inv != nil && inv.Status == "failed" {
		printWarning("%s failed: %s", inv.Name, inv.Error)
	}
}

func printProduct(p productView) {
	printStatus("Product", "#%d %s", p.ID, p.Name)
	printStatus("Brand", "%s", p.Brand)
	printStatus("Category", "%s", p.Category)
	printStatus("Price", "$%.2f", p.Price)
	if p.Stock > 0 {
		printStatus("Stock", "%d", p.Stock)
	} else {
		printStatus("Stock", "%s", colorize(colorYellow, "out of stock"))
	}
}

func printOrder(o orderView) {
	printStatus("Order", "#%d (user %d)", o.ID, o.UserID)
	printStatus("Status", "%s", o.Status)
	for _, it := range o.Items {
		printStatus("Item", "%d x %s", it.Quantity, it.Name)
	}
	printStatus("Total", "$%.2f", o.Total)
}
