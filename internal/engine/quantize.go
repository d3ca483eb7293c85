package engine

import (
	"math"
	"strconv"
	"strings"

	"github.com/vitorcalvi/RSI-MFIBot/internal/exchange"
)

// FormatQty quantizes a raw quantity to the instrument's lot filter:
// truncate down to a whole number of steps, then raise to the minimum
// order quantity if the result falls below it. The string is formatted
// to the step's decimal places, which is what the venue accepts.
func FormatQty(qty float64, info *exchange.InstrumentInfo) string {
	step := info.QtyStep
	steps := math.Floor(qty/step + 1e-9)
	quantized := steps * step

	if quantized < info.MinQty {
		quantized = info.MinQty
	}

	return strconv.FormatFloat(quantized, 'f', decimalsOf(step), 64)
}

// FormatPrice quantizes a price to the nearest tick.
func FormatPrice(price float64, info *exchange.InstrumentInfo) string {
	tick := info.TickSize
	ticks := math.Round(price / tick)
	quantized := ticks * tick

	return strconv.FormatFloat(quantized, 'f', decimalsOf(tick), 64)
}

// decimalsOf returns the number of decimal places in a step or tick
// size, e.g. 0.001 -> 3, 1 -> 0.
func decimalsOf(step float64) int {
	s := strconv.FormatFloat(step, 'f', -1, 64)
	if i := strings.IndexByte(s, '.'); i >= 0 {
		return len(s) - i - 1
	}
	return 0
}
