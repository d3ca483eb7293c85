package indicators

import (
	"errors"

	"github.com/vitorcalvi/RSI-MFIBot/pkg/types"
)

// MFI calculates the Money Flow Index, a volume-weighted oscillator.
//
//	Raw Money Flow = Typical Price * Volume
//	Money Ratio    = Positive Money Flow / Negative Money Flow
//	MFI            = 100 - (100 / (1 + Money Ratio))
type MFI struct {
	period int
}

// NewMFI creates a new MFI instance with the given period.
func NewMFI(period int) *MFI {
	return &MFI{period: period}
}

// Calculate computes the MFI value for the most recent candle. It needs
// at least period+1 candles for the typical price comparison.
func (m *MFI) Calculate(data []types.OHLCV) (float64, error) {
	if len(data) < m.period+1 {
		return 0, errors.New("insufficient data for MFI calculation")
	}

	recent := data[len(data)-m.period-1:]

	typical := make([]float64, len(recent))
	for i, candle := range recent {
		typical[i] = (candle.High + candle.Low + candle.Close) / 3.0
	}

	positiveFlow := 0.0
	negativeFlow := 0.0
	for i := 1; i < len(recent); i++ {
		moneyFlow := typical[i] * recent[i].Volume
		switch {
		case typical[i] > typical[i-1]:
			positiveFlow += moneyFlow
		case typical[i] < typical[i-1]:
			negativeFlow += moneyFlow
		}
	}

	if negativeFlow == 0 {
		return 100, nil
	}

	moneyRatio := positiveFlow / negativeFlow
	return 100 - (100 / (1 + moneyRatio)), nil
}

// Period returns the configured lookback period.
func (m *MFI) Period() int {
	return m.period
}
